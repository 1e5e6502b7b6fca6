package planetsdk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/planet/internal/storage/drivers/memory"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// newTestClient starts h behind an httptest server and returns a client
// pointed at it with an empty in-memory store.
func newTestClient(t *testing.T, h http.Handler, opts ...planetsdk.Option) (*planetsdk.Client, *memory.Store) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := memory.NewStore()
	opts = append([]planetsdk.Option{planetsdk.WithLogger(slogx.Discard())}, opts...)
	return planetsdk.NewClient(srv.URL, store, opts...), store
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func signedInClient(t *testing.T, h http.Handler) *planetsdk.Client {
	t.Helper()
	c, store := newTestClient(t, h)
	if err := store.Set(context.Background(), planetsdk.KeyAccessToken, "test-token"); err != nil {
		t.Fatal(err)
	}
	return c
}
