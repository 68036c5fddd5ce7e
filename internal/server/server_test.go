package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/database/databasetest"
	"catalog-service/internal/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test", LogLevel: "debug"},
		DynamoDB:  config.DynamoDBConfig{ProductTable: "produtos", CategoryTable: "categorias"},
		RateLimit: config.RateLimitConfig{Requests: 100, Window: time.Minute},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func newFakeStore() *databasetest.FakeDynamoDB {
	fake := databasetest.NewFakeDynamoDB()
	fake.AddTable("produtos", "produtoId")
	fake.AddTable("categorias", "categoriaId")
	return fake
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterServesCatalog(t *testing.T) {
	collector := metrics.NewCollector("catalog")
	router, err := NewRouter(context.Background(), testConfig(), zap.NewNop(), Dependencies{
		DynamoDB: newFakeStore(),
		Metrics:  collector,
	})
	require.NoError(t, err)

	w := serve(router, http.MethodPost, "/produtos", `{"nome":"Pizza","preco":42.5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ProdutoID string `json:"produtoId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = serve(router, http.MethodGet, "/produtos/"+created.ProdutoID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	w = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `catalog_http_requests_total`)
	assert.Contains(t, w.Body.String(), `route="/produtos/{id}"`)
}

func TestHealth(t *testing.T) {
	fake := newFakeStore()
	router, err := NewRouter(context.Background(), testConfig(), zap.NewNop(), Dependencies{DynamoDB: fake})
	require.NoError(t, err)

	w := serve(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	// metrics are only exposed when a collector is wired
	w = serve(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthReportsMissingTable(t *testing.T) {
	fake := databasetest.NewFakeDynamoDB()
	fake.AddTable("produtos", "produtoId")

	router, err := NewRouter(context.Background(), testConfig(), zap.NewNop(), Dependencies{DynamoDB: fake})
	require.NoError(t, err)

	w := serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestRouterCreatesTablesWhenConfigured(t *testing.T) {
	fake := databasetest.NewFakeDynamoDB()
	cfg := testConfig()
	cfg.DynamoDB.CreateTables = true

	_, err := NewRouter(context.Background(), cfg, zap.NewNop(), Dependencies{DynamoDB: fake})
	require.NoError(t, err)

	assert.Equal(t, 2, fake.Calls["CreateTable"])
	assert.Equal(t, 0, fake.Len("produtos"))
	assert.Equal(t, 0, fake.Len("categorias"))
}

func TestRouterRejectsEmptyTableName(t *testing.T) {
	cfg := testConfig()
	cfg.DynamoDB.ProductTable = ""

	_, err := NewRouter(context.Background(), cfg, zap.NewNop(), Dependencies{DynamoDB: newFakeStore()})
	assert.Error(t, err)
}

func TestRouterUsesRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig()
	cfg.RateLimit.Requests = 2

	router, err := NewRouter(context.Background(), cfg, zap.NewNop(), Dependencies{
		DynamoDB: newFakeStore(),
		Redis:    client,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w := serve(router, http.MethodGet, "/produtos", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(router, http.MethodGet, "/produtos", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health stays outside the limit
	w = serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "ratelimit:catalog:"))
}

func TestNewRedisClientDisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), testConfig(), zap.NewNop()))
}

func TestNewServer(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Server.Port = "9090"
	host, port, _ := strings.Cut(mr.Addr(), ":")
	cfg.Redis = config.RedisConfig{Host: host, Port: port}

	client := NewRedisClient(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, client)

	srv, err := NewServer(context.Background(), cfg, zap.NewNop(), Dependencies{
		DynamoDB: newFakeStore(),
		Redis:    client,
	})
	require.NoError(t, err)
	assert.Equal(t, ":9090", srv.Addr)

	require.NoError(t, srv.Close())
	assert.Error(t, client.Ping(context.Background()).Err())
}
