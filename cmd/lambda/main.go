package main

import (
	"context"
	"log"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/database"
	"catalog-service/internal/logger"
	"catalog-service/internal/metrics"
	"catalog-service/internal/server"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the chi router for API Gateway HTTP API events
	chiLambda *chiadapter.ChiLambdaV2

	appLogger *zap.Logger

	coldStart     = true
	coldStartTime time.Time
)

// init runs once per container
func init() {
	coldStartTime = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Load()

	var err error
	appLogger, err = logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	client, err := database.NewClient(ctx, cfg.AWS)
	if err != nil {
		appLogger.Fatal("Failed to create DynamoDB client", zap.Error(err))
	}

	router, err := server.NewRouter(ctx, cfg, appLogger, server.Dependencies{
		DynamoDB: client,
		Redis:    server.NewRedisClient(ctx, cfg, appLogger),
		Metrics:  metrics.NewCollector("catalog"),
	})
	if err != nil {
		appLogger.Fatal("Failed to build router", zap.Error(err))
	}

	chiLambda = chiadapter.NewV2(router)

	appLogger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if err != nil {
		appLogger.Error("Failed to proxy request",
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Error(err),
		)
		return resp, err
	}

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID
	}

	return resp, nil
}

func main() {
	lambda.Start(Handler)
}
