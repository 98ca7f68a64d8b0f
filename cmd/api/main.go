// Command api serves the record routes over HTTP. Inside Lambda it serves
// API Gateway HTTP API events through the chi proxy adapter instead.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/nisimpson/dynarec/config"
	"github.com/nisimpson/dynarec/httpapi"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("DYNAREC_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	adapter, client, err := config.Init(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize adapter", zap.Error(err))
	}

	srv := httpapi.New(adapter, client, httpapi.Options{
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		chiLambda := chiadapter.NewV2(srv.Router())
		lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
			return chiLambda.ProxyWithContextV2(ctx, req)
		})
		return
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", cfg.HTTPAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
