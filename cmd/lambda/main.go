// Package main is the entry point for the Ko-Connect Lambda function.
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/koconnect/koconnect/internal/app"
	"github.com/koconnect/koconnect/internal/config"
	"github.com/koconnect/koconnect/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zl.Sync() }()
	appLog := logger.NewZapAdapter(zl).With(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	// Built once per cold start and reused by every invocation.
	a, err := app.Build(context.Background(), cfg, appLog)
	if err != nil {
		appLog.WithError(err).Error("startup failed", nil)
		log.Fatalf("build app: %v", err)
	}
	defer func() { _ = a.Close() }()

	w := newWarmer(appLog)
	lambda.Start(func(ctx context.Context, event json.RawMessage) (interface{}, error) {
		// Warmup detection must run before any other processing.
		if warmup, ok := IsWarmupEvent(event); ok {
			return w.Handle(ctx, warmup)
		}
		return a.Handler.Handle(ctx, event)
	})
}
