// Package app builds the component graph once per process from
// configuration. The Lambda entry point and the CLI share it.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/koconnect/koconnect/internal/config"
	"github.com/koconnect/koconnect/internal/detect"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/handler"
	"github.com/koconnect/koconnect/internal/llm"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/ocr"
	"github.com/koconnect/koconnect/internal/pipeline"
	"github.com/koconnect/koconnect/internal/prompts"
	"github.com/koconnect/koconnect/internal/router"
	"github.com/koconnect/koconnect/internal/session"
	"github.com/koconnect/koconnect/internal/style"
)

// App holds the wired components.
type App struct {
	Config    *config.Config
	Router    *router.Router
	Styler    *style.Router
	Extractor *ocr.Extractor
	Pipeline  *pipeline.Pipeline
	Sessions  *session.Registry
	Handler   *handler.Handler

	redis *redis.Client
}

// Build wires every component from cfg. It fails when a routable language
// has no template; a missing API key only fails at call time.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	log = logger.OrNop(log)
	templates := prompts.Default()

	completer := llm.NewClient(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.ChatModel,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, log)
	vision := llm.NewVisionClient(llm.VisionConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.VisionModel,
		Timeout: cfg.OpenAI.Timeout,
	}, log)

	langs := []domain.Language{domain.Korean}
	for _, l := range cfg.Languages.Additional {
		langs = append(langs, domain.Language(strings.TrimSpace(l)))
	}
	r := router.New(completer, templates, cfg.Languages.Additional,
		router.WithLogger(log), router.WithDetector(detect.New(langs)))
	if err := r.Check(); err != nil {
		return nil, fmt.Errorf("check translation templates: %w", err)
	}

	a := &App{
		Config:    cfg,
		Router:    r,
		Styler:    style.New(completer, templates, log),
		Extractor: ocr.New(vision, templates, log),
	}
	a.Pipeline = pipeline.New(a.Router, a.Styler, a.Extractor, cfg.Limits.MaxInputTokens, log)

	var snap session.Snapshotter
	if cfg.Redis.Enabled() {
		a.redis = session.NewRedisClient(cfg.Redis)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, sessions stay in memory", map[string]interface{}{"error": err.Error()})
		} else {
			snap = session.NewRedisSnapshotter(a.redis, cfg.Redis.TTL)
		}
	}
	a.Sessions = session.NewRegistry(snap, log)

	a.Handler = handler.New(handler.Deps{
		Router:    a.Router,
		Styler:    a.Styler,
		Extractor: a.Extractor,
		Sessions:  a.Sessions,
		MaxTokens: cfg.Limits.MaxInputTokens,
		Logger:    log,
	})
	return a, nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
