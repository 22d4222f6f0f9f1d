package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creamcroissant/subconv/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestClientFetch(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		_, _ = w.Write([]byte("DOMAIN,a.com"))
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "clash.meta"})
	body, err := c.Fetch(context.Background(), srv.URL+"/a.list")
	require.NoError(t, err)
	assert.Equal(t, "DOMAIN,a.com", string(body))
	assert.Equal(t, "clash.meta", ua.Load())
}

func TestClientRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{Retry: fastRetry(2)})
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(Options{Retry: fastRetry(3)})
	_, err := c.Fetch(context.Background(), srv.URL+"/missing?token=secret")
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.False(t, IsRetryable(err))
	assert.NotContains(t, err.Error(), "secret")
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c := NewClient(Options{MaxBytes: 16, Retry: fastRetry(3)})
	_, err := c.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, IsRetryable(err))
}

func TestClientInvalidURL(t *testing.T) {
	c := NewClient(Options{})
	for _, u := range []string{"", "ftp://example.com/x", "not a url", "http://"} {
		_, err := c.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestClientHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := NewClient(Options{Retry: fastRetry(5)})
	start := time.Now()
	_, err := c.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClassifyError(t *testing.T) {
	assert.True(t, IsRetryable(&Error{URL: "u", Status: 503}))
	assert.True(t, IsRetryable(&Error{URL: "u", Status: 429}))
	assert.False(t, IsRetryable(&Error{URL: "u", Status: 403}))
	assert.True(t, IsRetryable(&Error{URL: "u", Cause: errors.New("connection reset")}))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, "retryable", CategoryRetryable.String())
}

func TestCachedFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	upstream := FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		calls.Add(1)
		<-gate
		return []byte("body:" + u), nil
	})
	c := NewCached(upstream, cache.NewStore(cache.Options{}).Namespace("rules"), nil)

	var wg sync.WaitGroup
	bodies := make([]string, 8)
	for i := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.Fetch(context.Background(), "https://r.example.com/a")
			if err == nil {
				bodies[i] = string(b)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	for _, b := range bodies {
		assert.Equal(t, "body:https://r.example.com/a", b)
	}
	_, err := c.Fetch(context.Background(), "https://r.example.com/a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, c.Cached(context.Background(), "https://r.example.com/a"))
}

func TestCachedRefreshKeepsCopyOnFailure(t *testing.T) {
	ctx := context.Background()
	fail := atomic.Bool{}
	version := atomic.Int32{}
	upstream := FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		if fail.Load() {
			return nil, &Error{URL: u, Status: 500}
		}
		return []byte{byte('0' + version.Add(1))}, nil
	})
	c := NewCached(upstream, cache.NewStore(cache.Options{}), nil)

	b, err := c.Fetch(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "1", string(b))

	require.NoError(t, c.Refresh(ctx, "u"))
	b, _ = c.Fetch(ctx, "u")
	assert.Equal(t, "2", string(b))

	fail.Store(true)
	require.Error(t, c.Refresh(ctx, "u"))
	b, err = c.Fetch(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "2", string(b))
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	upstream := FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		calls.Add(1)
		return nil, &Error{URL: u, Status: 404}
	})
	c := NewCached(upstream, cache.NewStore(cache.Options{}), nil)
	_, err := c.Fetch(context.Background(), "u")
	require.Error(t, err)
	_, err = c.Fetch(context.Background(), "u")
	require.Error(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchAllToleratesPartialFailure(t *testing.T) {
	f := FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		if strings.HasSuffix(u, "bad") {
			return nil, &Error{URL: u, Status: 500}
		}
		return []byte(u), nil
	})
	res, err := FetchAll(context.Background(), f, []string{"a", "bad", "c"}, 0)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "a", string(res[0].Body))
	assert.Error(t, res[1].Err)
	assert.Equal(t, "c", string(res[2].Body))
}

func TestFetchAllRunsConcurrently(t *testing.T) {
	var inflight, peak atomic.Int32
	f := FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inflight.Add(-1)
		return nil, nil
	})
	_, err := FetchAll(context.Background(), f, []string{"a", "b", "c", "d"}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, peak.Load())

	peak.Store(0)
	_, err = FetchAll(context.Background(), f, []string{"a", "b", "c", "d"}, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFetchAllReportsDeadline(t *testing.T) {
	f := FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := FetchAll(ctx, f, []string{"a"}, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
