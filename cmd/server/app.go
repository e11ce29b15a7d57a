package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/database"
	"github.com/p-n-ai/pai-quiz/internal/play"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/source"
)

// app holds the long-lived dependencies shared by all handlers.
type app struct {
	cfg    *config.Config
	bank   *quiz.Bank
	store  attempt.Store
	events attempt.EventLogger
	db     *database.DB
	cache  *cache.Cache
	play   *play.Handler
}

// newApp connects the optional backends and loads the question bank. Without
// a database URL attempts are kept in memory; without a cache URL the
// document is fetched directly.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		store:  attempt.NewMemoryStore(),
		events: attempt.NopEventLogger{},
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		if err := attempt.EnsureSchema(ctx, db.Pool); err != nil {
			a.Close()
			return nil, err
		}
		store, err := attempt.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
		a.events = attempt.NewPostgresEventLogger(db.Pool)
		slog.Info("attempt store ready", "backend", "postgres")
	}

	src := source.New(cfg.Quiz.Source)
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		a.cache = c
		src = source.Cached{Source: src, Cache: c, Key: cfg.Quiz.Source, TTL: cfg.Cache.TTL}
	}

	bank, err := quiz.LoadBank(ctx, src)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.bank = bank

	h, err := play.NewHandler(bank, play.HandlerConfig{
		Title:         cfg.Quiz.Title,
		QuestionCount: cfg.Quiz.QuestionCount,
		Duration:      cfg.Quiz.Duration,
		StrictCount:   cfg.Quiz.StrictCount,
		Store:         a.store,
		Events:        a.events,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.play = h

	return a, nil
}

// ready reports the first failing backend.
func (a *app) ready(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("cache close error", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
