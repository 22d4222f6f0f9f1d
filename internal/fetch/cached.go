package fetch

import (
	"context"
	"log/slog"

	"github.com/creamcroissant/subconv/internal/cache"
	"golang.org/x/sync/singleflight"
)

// Cached memoizes bodies by URL for the process lifetime. Concurrent misses
// for one URL share a single upstream request. Failures are never cached.
type Cached struct {
	next   Fetcher
	store  cache.Store
	group  singleflight.Group
	logger *slog.Logger
}

// NewCached wraps next with store.
func NewCached(next Fetcher, store cache.Store, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, store: store, logger: logger}
}

func (c *Cached) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if body, ok := c.store.Get(ctx, rawURL); ok {
		return body, nil
	}
	return c.load(ctx, rawURL)
}

// Refresh re-fetches rawURL and replaces the cached copy. On failure the
// previous copy stays in place.
func (c *Cached) Refresh(ctx context.Context, rawURL string) error {
	_, err := c.load(ctx, rawURL)
	return err
}

// Cached reports whether rawURL has a stored body.
func (c *Cached) Cached(ctx context.Context, rawURL string) bool {
	_, ok := c.store.Get(ctx, rawURL)
	return ok
}

func (c *Cached) load(ctx context.Context, rawURL string) ([]byte, error) {
	ch := c.group.DoChan(rawURL, func() (any, error) {
		// shared by every waiter, so one caller's cancellation must not
		// fail the others
		body, err := c.next.Fetch(context.WithoutCancel(ctx), rawURL)
		if err != nil {
			return nil, err
		}
		c.store.Set(ctx, rawURL, body, cache.Forever)
		c.logger.Debug("cached remote content", "url", Redact(rawURL), "bytes", len(body))
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body := res.Val.([]byte)
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}
}
