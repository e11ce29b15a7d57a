package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// TextCache stores decoded documents. *cache.Cache implements it.
type TextCache interface {
	GetText(ctx context.Context, key string) (string, bool, error)
	SetText(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cached is a read-through cache in front of another source. Cache errors
// are logged and never fail the fetch.
type Cached struct {
	Source quiz.Source
	Cache  TextCache
	Key    string
	TTL    time.Duration
}

func (c Cached) Fetch(ctx context.Context) (string, error) {
	key := "doc:" + c.Key

	doc, ok, err := c.Cache.GetText(ctx, key)
	switch {
	case err != nil:
		slog.Warn("document cache read failed", "key", key, "error", err)
	case ok:
		slog.Debug("document cache hit", "key", key)
		return doc, nil
	}

	doc, err = c.Source.Fetch(ctx)
	if err != nil {
		return "", err
	}

	if err := c.Cache.SetText(ctx, key, doc, c.TTL); err != nil {
		slog.Warn("document cache write failed", "key", key, "error", err)
	}
	return doc, nil
}
