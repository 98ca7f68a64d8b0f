// Command handler runs one record operation as a Lambda function. The
// operation comes from DYNAREC_OPERATION; DYNAREC_EVENT_FORMAT selects between
// the direct event and an API Gateway proxy event.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nisimpson/dynarec/config"
	"github.com/nisimpson/dynarec/lambdafn"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("DYNAREC_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Operation == "" {
		log.Fatal("DYNAREC_OPERATION is required")
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adapter, _, err := config.Init(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize adapter", zap.Error(err))
	}

	h := lambdafn.New(adapter, logger)

	var fn any
	if cfg.EventFormat == config.EventProxy {
		fn, err = h.ProxyForOperation(cfg.Operation)
	} else {
		fn, err = h.ForOperation(cfg.Operation)
	}
	if err != nil {
		logger.Fatal("Failed to select handler", zap.Error(err))
	}

	logger.Info("Lambda handler initialized",
		zap.String("operation", cfg.Operation),
		zap.String("eventFormat", cfg.EventFormat),
	)
	lambda.Start(fn)
}
