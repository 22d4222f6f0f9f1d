package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one URL of FetchAll.
type Result struct {
	URL  string
	Body []byte
	Err  error
}

// FetchAll fetches every URL concurrently. limit bounds parallelism; 0 means
// one goroutine per URL. Per-URL failures are reported in the results and
// never stop the others. The returned error is non-nil only when ctx ended
// before all fetches completed.
func FetchAll(ctx context.Context, f Fetcher, urls []string, limit int) ([]Result, error) {
	results := make([]Result, len(urls))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, u := range urls {
		g.Go(func() error {
			body, err := f.Fetch(ctx, u)
			results[i] = Result{URL: u, Body: body, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
