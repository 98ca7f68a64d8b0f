package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/dynarec"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLevel(level string) (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// NewLogger builds a zap logger at the configured level. The json format is
// meant for Lambda and production; console is for local use.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if strings.ToLower(cfg.LogFormat) == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.With(zap.String("table", cfg.TableName)), nil
}

// NewAWSConfig loads the SDK configuration for the configured region. Static
// credentials are used when set; otherwise the default chain applies.
func NewAWSConfig(ctx context.Context, cfg *Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewDynamoDBClient creates the store client, pointing it at cfg.Endpoint
// when one is configured (DynamoDB Local).
func NewDynamoDBClient(ctx context.Context, cfg *Config) (*dynamodb.Client, error) {
	awsCfg, err := NewAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewAdapter builds an adapter over client using the configured table and
// validation mode.
func NewAdapter(client dynarec.DynamoDBClient, cfg *Config, logger *zap.Logger) *dynarec.Adapter {
	return dynarec.New(client, cfg.Table(),
		dynarec.WithValidation(cfg.ValidationMode()),
		dynarec.WithLogger(logger),
	)
}

// Init loads the store client and builds the adapter in one step.
func Init(ctx context.Context, cfg *Config, logger *zap.Logger) (*dynarec.Adapter, *dynamodb.Client, error) {
	client, err := NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewAdapter(client, cfg, logger), client, nil
}
