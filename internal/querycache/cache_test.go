package querycache_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/planet/internal/querycache"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache(t *testing.T, mutate ...func(*querycache.Config)) (*querycache.Cache, *clock) {
	t.Helper()

	clk := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	cfg := querycache.DefaultConfig()
	cfg.Now = clk.Now
	cfg.Logger = slogx.Discard()
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 4 * time.Millisecond
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := querycache.New(cfg)
	require.NoError(t, err)
	return c, clk
}

func counter(calls *atomic.Int32, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestKeyHasPrefix(t *testing.T) {
	t.Parallel()

	k := querycache.Key{"quest", "my", "history", "2026-10-01", "2026-10-31"}
	require.True(t, k.HasPrefix(querycache.Key{"quest", "my", "history"}))
	require.True(t, k.HasPrefix(nil))
	require.False(t, k.HasPrefix(querycache.Key{"quest", "today"}))
	require.False(t, querycache.Key{"quest"}.HasPrefix(querycache.Key{"quest", "today"}))
	require.Equal(t, "quest/my/history/2026-10-01/2026-10-31", k.String())
}

func TestFetchCachesUntilStale(t *testing.T) {
	t.Parallel()

	c, clk := newCache(t)
	ctx := context.Background()
	key := querycache.Key{"quest", "today"}

	var calls atomic.Int32
	for range 3 {
		v, err := querycache.Fetch(ctx, c, key, counter(&calls, "walk"))
		require.NoError(t, err)
		require.Equal(t, "walk", v)
	}
	require.EqualValues(t, 1, calls.Load())

	clk.Advance(5 * time.Minute)
	require.True(t, c.IsStale(key))

	_, err := querycache.Fetch(ctx, c, key, counter(&calls, "walk"))
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	// A longer per-query stale time keeps the entry fresh.
	clk.Advance(10 * time.Minute)
	_, err = querycache.Fetch(ctx, c, key, counter(&calls, "walk"), querycache.WithStaleTime(30*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestFetchDisabled(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	var calls atomic.Int32

	_, err := querycache.Fetch(context.Background(), c, querycache.Key{"x"}, counter(&calls, "v"), querycache.Enabled(false))
	require.ErrorIs(t, err, querycache.ErrDisabled)
	require.Zero(t, calls.Load())
}

func TestFetchSharesConcurrentCalls(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := querycache.Fetch(context.Background(), c, querycache.Key{"user", "me"}, fn)
			if err == nil {
				results[i] = v
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	var calls atomic.Int32

	v, err := querycache.Fetch(context.Background(), c, querycache.Key{"tier"}, func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", &planetsdk.APIError{Kind: planetsdk.KindNetwork}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.EqualValues(t, 3, calls.Load())
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	var calls atomic.Int32
	boom := &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: http.StatusBadGateway}

	_, err := querycache.Fetch(context.Background(), c, querycache.Key{"tier"}, func(context.Context) (string, error) {
		calls.Add(1)
		return "", boom
	}, querycache.WithRetry(1))
	require.ErrorIs(t, err, boom)
	require.EqualValues(t, 2, calls.Load())
	require.Zero(t, c.Len())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		calls int32
	}{
		{"not found", &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: 404}, 1},
		{"not authenticated", &planetsdk.APIError{Kind: planetsdk.KindNotAuthenticated, StatusCode: 401, Err: planetsdk.ErrNotAuthenticated}, 1},
		{"rate limited", &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: 429}, 3},
		{"timeout", &planetsdk.APIError{Kind: planetsdk.KindTimeout, StatusCode: 408}, 3},
		{"server error", &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: 500}, 3},
		{"plain", errors.New("boom"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newCache(t)
			var calls atomic.Int32
			_, err := querycache.Fetch(context.Background(), c, querycache.Key{"k"}, func(context.Context) (int, error) {
				calls.Add(1)
				return 0, tt.err
			})
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.calls, calls.Load())
		})
	}
}

// timeoutAt behaves like the client when ctx expires mid-request.
func timeoutAt(calls *atomic.Int32) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", &planetsdk.APIError{
			Kind:       planetsdk.KindTimeout,
			StatusCode: http.StatusRequestTimeout,
			Message:    "request timed out",
			Err:        ctx.Err(),
		}
	}
}

func TestCallerDeadlineKeepsTimeoutError(t *testing.T) {
	t.Parallel()

	t.Run("fetch", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		var calls atomic.Int32
		_, err := querycache.Fetch(ctx, c, querycache.Key{"quest", "suggestions"}, timeoutAt(&calls))
		require.ErrorIs(t, err, planetsdk.ErrTimeout)

		code, ok := planetsdk.StatusCode(err)
		require.True(t, ok)
		require.Equal(t, http.StatusRequestTimeout, code)
		require.Equal(t, "The request timed out. Please check your network connection.", planetsdk.UserMessage(err))
		require.EqualValues(t, 1, calls.Load())
		require.Zero(t, c.Len())
	})

	t.Run("mutate", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		var calls atomic.Int32
		_, err := querycache.Mutate(ctx, c, "generate", timeoutAt(&calls), nil)
		require.ErrorIs(t, err, planetsdk.ErrTimeout)
		require.EqualValues(t, 1, calls.Load())
	})

	t.Run("cancelled while waiting to retry", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, func(cfg *querycache.Config) {
			cfg.RetryDelay = time.Hour
			cfg.MaxRetryDelay = time.Hour
		})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		boom := &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: http.StatusBadGateway}
		_, err := querycache.Fetch(ctx, c, querycache.Key{"tier"}, func(context.Context) (string, error) {
			return "", boom
		})
		require.ErrorIs(t, err, boom)
	})
}

func TestFetchAfterCancelledCallStartsAgain(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	key := querycache.Key{"quest", "today"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := querycache.Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, c.Len())

	v, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "walk"))
	require.NoError(t, err)
	require.Equal(t, "walk", v)
	require.EqualValues(t, 2, calls.Load())
}

func TestSetAndInvalidate(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	ctx := context.Background()

	c.SetQueryData(querycache.Key{"quest", "today"}, "set")
	c.SetQueryData(querycache.Key{"quest", "my", "history", "a", "b"}, []string{"h1"})
	c.SetQueryData(querycache.Key{"quest", "my", "history", "c", "d"}, []string{"h2"})

	v, ok := querycache.GetQueryData[string](c, querycache.Key{"quest", "today"})
	require.True(t, ok)
	require.Equal(t, "set", v)

	_, ok = querycache.GetQueryData[int](c, querycache.Key{"quest", "today"})
	require.False(t, ok, "wrong type")

	var calls atomic.Int32
	got, err := querycache.Fetch(ctx, c, querycache.Key{"quest", "today"}, counter(&calls, "fetched"))
	require.NoError(t, err)
	require.Equal(t, "set", got)
	require.Zero(t, calls.Load())

	require.Equal(t, 2, c.InvalidateQueries(querycache.Key{"quest", "my", "history"}))
	require.True(t, c.IsStale(querycache.Key{"quest", "my", "history", "a", "b"}))
	require.False(t, c.IsStale(querycache.Key{"quest", "today"}))

	// Invalidated data stays readable until refetched.
	h, ok := querycache.GetQueryData[[]string](c, querycache.Key{"quest", "my", "history", "a", "b"})
	require.True(t, ok)
	require.Equal(t, []string{"h1"}, h)

	require.Equal(t, 2, c.RemoveQueries(querycache.Key{"quest", "my"}))
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Zero(t, c.Len())
}

func TestClearDropsInFlightResult(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := querycache.Fetch(context.Background(), c, querycache.Key{"user", "me"}, func(context.Context) (string, error) {
			close(started)
			<-release
			return "previous user", nil
		})
		done <- err
	}()

	<-started
	c.Clear()
	close(release)
	require.NoError(t, <-done)

	_, ok := querycache.GetQueryData[string](c, querycache.Key{"user", "me"})
	require.False(t, ok)
}

func TestCollect(t *testing.T) {
	t.Parallel()

	c, clk := newCache(t)

	c.SetQueryData(querycache.Key{"old"}, 1)
	clk.Advance(20 * time.Minute)
	c.SetQueryData(querycache.Key{"new"}, 2)
	clk.Advance(15 * time.Minute)

	require.Equal(t, 1, c.Collect())
	_, ok := querycache.GetQueryData[int](c, querycache.Key{"old"})
	require.False(t, ok)
	_, ok = querycache.GetQueryData[int](c, querycache.Key{"new"})
	require.True(t, ok)
}

func TestMaxEntries(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t, func(cfg *querycache.Config) { cfg.MaxEntries = 2 })

	c.SetQueryData(querycache.Key{"a"}, 1)
	c.SetQueryData(querycache.Key{"b"}, 2)
	_, _ = querycache.GetQueryData[int](c, querycache.Key{"a"})
	c.SetQueryData(querycache.Key{"c"}, 3)

	require.Equal(t, 2, c.Len())
	_, ok := querycache.GetQueryData[int](c, querycache.Key{"b"})
	require.False(t, ok, "least recently used entry is evicted")
}

func TestMutate(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	v, err := querycache.Mutate(ctx, c, "generate", func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", &planetsdk.APIError{Kind: planetsdk.KindTimeout, StatusCode: 408}
		}
		return "done", nil
	}, func(c *querycache.Cache, v string) {
		c.SetQueryData(querycache.Key{"result"}, v)
	})
	require.NoError(t, err)
	require.Equal(t, "done", v)
	require.EqualValues(t, 2, calls.Load())

	got, ok := querycache.GetQueryData[string](c, querycache.Key{"result"})
	require.True(t, ok)
	require.Equal(t, "done", got)

	calls.Store(0)
	onSuccess := false
	_, err = querycache.Mutate(ctx, c, "fail", func(context.Context) (string, error) {
		calls.Add(1)
		return "", &planetsdk.APIError{Kind: planetsdk.KindHTTP, StatusCode: 503}
	}, func(*querycache.Cache, string) { onSuccess = true })
	require.Error(t, err)
	require.EqualValues(t, 2, calls.Load(), "one mutation retry")
	require.False(t, onSuccess)
}
