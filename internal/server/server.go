package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/database"
	"catalog-service/internal/gateway"
	"catalog-service/internal/metrics"
	custommiddleware "catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
	"catalog-service/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const tableWaitTimeout = 2 * time.Minute

// Dependencies are the external clients the router is built on.
type Dependencies struct {
	DynamoDB database.DynamoDBAPI
	Redis    *redis.Client // nil selects the in-process rate limiter
	Metrics  *metrics.Collector
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
}

// NewRouter wires tables, repositories, gateway, use case and handler behind
// the middleware stack. Tables are created first when cfg asks for it, and
// their health is logged once.
func NewRouter(ctx context.Context, cfg *config.Config, logger *zap.Logger, deps Dependencies) (*chi.Mux, error) {
	products, err := database.NewTable(deps.DynamoDB, database.TableConfig{
		Name: cfg.DynamoDB.ProductTable,
		Key:  repository.ProductKey,
	}, logger, deps.Metrics)
	if err != nil {
		return nil, fmt.Errorf("product table: %w", err)
	}

	categories, err := database.NewTable(deps.DynamoDB, database.TableConfig{
		Name: cfg.DynamoDB.CategoryTable,
		Key:  repository.CategoryKey,
	}, logger, deps.Metrics)
	if err != nil {
		return nil, fmt.Errorf("category table: %w", err)
	}

	if cfg.DynamoDB.CreateTables {
		for _, table := range []*database.Table{products, categories} {
			if err := table.EnsureTable(ctx, tableWaitTimeout); err != nil {
				return nil, fmt.Errorf("table %s: %w", table.Name(), err)
			}
		}
	}

	for _, table := range []*database.Table{products, categories} {
		logger.Info("Table health check", zap.Any("health", table.Health(ctx)))
	}

	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack(logger, deps.Metrics)...)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		productHealth := products.Health(r.Context())
		categoryHealth := categories.Health(r.Context())

		status, code := "ok", http.StatusOK
		if productHealth["status"] != "up" || categoryHealth["status"] != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		custommiddleware.RespondWithJSON(w, code, map[string]interface{}{
			"status": status,
			"tables": []map[string]string{productHealth, categoryHealth},
		})
	})

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	useCase := service.NewProductUseCase(gateway.NewProductGateway(
		repository.NewProductRepository(products, logger),
		repository.NewCategoryRepository(categories, logger),
	))
	handler := transport.NewProductHandler(useCase, logger)

	limit := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:catalog",
	}

	router.Group(func(r chi.Router) {
		if deps.Redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, limit, logger))
		} else {
			r.Use(custommiddleware.LocalRateLimitMiddleware(limit))
		}
		handler.RegisterRoutes(r)
	})

	return router, nil
}

// NewRedisClient returns nil when Redis is not configured.
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	addr := cfg.RedisAddr()
	if addr == "" {
		logger.Info("Redis not configured, using in-process rate limiting")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Rate limiting fails open, so an unreachable Redis is not fatal
		logger.Warn("Redis ping failed", zap.String("addr", addr), zap.Error(err))
	}

	return client
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, deps Dependencies) (*Server, error) {
	router, err := NewRouter(ctx, cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  deps.Redis,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
