package planetsdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/planet/internal/storage/drivers/memory"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"bad request with body", http.StatusBadRequest, `{"message":"mbti invalid"}`, `{"message":"mbti invalid"}`},
		{"forbidden with text", http.StatusForbidden, "nope", "nope"},
		{"not found empty body", http.StatusNotFound, "", "Not Found"},
		{"server error whitespace body", http.StatusInternalServerError, "  \n", "Internal Server Error"},
		{"unavailable", http.StatusServiceUnavailable, "maintenance", "maintenance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := signedInClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.Me(context.Background())
			require.Error(t, err)

			var apiErr *planetsdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, planetsdk.KindHTTP, apiErr.Kind)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.message, apiErr.Message)
			require.True(t, planetsdk.IsStatus(err, tt.status))
		})
	}
}

func TestTimeoutIsClassified(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	c := signedInClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	c.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.Me(context.Background())
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)

	require.ErrorIs(t, err, planetsdk.ErrTimeout)
	require.NotErrorIs(t, err, planetsdk.ErrNetwork)

	code, ok := planetsdk.StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusRequestTimeout, code)
}

func TestCancelledContextIsTimeout(t *testing.T) {
	t.Parallel()

	c := signedInClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.QuestSuggestions(ctx)
	require.ErrorIs(t, err, planetsdk.ErrTimeout)
}

func TestNetworkFailureIsClassified(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := planetsdk.NewClient(url, memory.NewStore(), planetsdk.WithLogger(slogx.Discard()))

	_, err := c.Register(context.Background(), planetsdk.SignUpRequest{Email: "a@b.c"})
	require.ErrorIs(t, err, planetsdk.ErrNetwork)

	code, ok := planetsdk.StatusCode(err)
	require.True(t, ok)
	require.Equal(t, 0, code)
}

func TestMissingTokenFailsFast(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	calls := map[string]func() error{
		"me":          func() error { _, err := c.Me(context.Background()); return err },
		"today":       func() error { _, err := c.TodayQuest(context.Background()); return err },
		"suggestions": func() error { _, err := c.QuestSuggestions(context.Background()); return err },
		"tier":        func() error { _, err := c.CurrentTier(context.Background()); return err },
	}

	for name, call := range calls {
		err := call()
		require.ErrorIs(t, err, planetsdk.ErrNotAuthenticated, name)
		code, _ := planetsdk.StatusCode(err)
		require.Equal(t, http.StatusUnauthorized, code, name)
	}

	require.Zero(t, hits.Load(), "no request may leave without a token")
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	c := signedInClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, `[]`)
	}))

	_, err := c.QuestSuggestions(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Bearer test-token", got.Get("Authorization"))
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.Equal(t, "application/json", got.Get("Accept"))
	require.Len(t, got.Get(slogx.RequestIDHeader), 26) // ULID
}

func TestUnauthenticatedCallsSendNoAuthorization(t *testing.T) {
	t.Parallel()

	var authz string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz = r.Header.Get("Authorization")
		writeJSON(w, http.StatusCreated, `{"email":"a@b.c"}`)
	}))
	require.NoError(t, store.Set(context.Background(), planetsdk.KeyAccessToken, "stale"))

	_, err := c.Register(context.Background(), planetsdk.SignUpRequest{Email: "a@b.c"})
	require.NoError(t, err)
	require.Empty(t, authz)
}

func TestEmptyBodyYieldsZeroValue(t *testing.T) {
	t.Parallel()

	c := signedInClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tier, err := c.CurrentTier(context.Background())
	require.NoError(t, err)
	require.Equal(t, planetsdk.Tier{}, *tier)
}

func TestUndecodableBodyIsUnknown(t *testing.T) {
	t.Parallel()

	c := signedInClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{not json`)
	}))

	_, err := c.CurrentTier(context.Background())

	var apiErr *planetsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, planetsdk.KindUnknown, apiErr.Kind)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.False(t, errors.Is(err, planetsdk.ErrTimeout))
}
