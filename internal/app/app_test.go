package app_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/planet/internal/app"
	"github.com/aussiebroadwan/planet/internal/planetfake"
	"github.com/aussiebroadwan/planet/internal/storage"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

func newBackend(t *testing.T) string {
	t.Helper()

	srv, err := planetfake.NewServer(planetfake.Config{TokenSecret: "s"}, slogx.Discard())
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts.URL
}

func testConfig(baseURL string) app.Config {
	return app.Config{
		BaseURL:        baseURL,
		StorageMode:    storage.ModeEphemeral,
		RequestTimeout: 5 * time.Second,
		LogLevel:       "error",
		LogFormat:      "text",
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := testConfig("http://localhost:8080")

	tests := []struct {
		name    string
		mutate  func(*app.Config)
		wantErr string
	}{
		{"ephemeral", func(*app.Config) {}, ""},
		{"persistent needs file", func(c *app.Config) { c.StorageMode = storage.ModePersistent }, "state file"},
		{"persistent with file", func(c *app.Config) {
			c.StorageMode = storage.ModePersistent
			c.StateFile = "state.db"
		}, ""},
		{"unknown mode", func(c *app.Config) { c.StorageMode = "cloud" }, "unknown storage mode"},
		{"bad url", func(c *app.Config) { c.BaseURL = "planet.example" }, "http://"},
		{"zero timeout", func(c *app.Config) { c.RequestTimeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PLANET_API_BASE_URL", "")
	t.Setenv("EXPO_PUBLIC_API_BASE_URL", "http://expo.example")
	t.Setenv("PLANET_STORAGE_MODE", storage.ModeEphemeral)
	t.Setenv("PLANET_REQUEST_TIMEOUT", "3s")

	cfg := app.LoadConfig()
	require.Equal(t, "http://expo.example", cfg.BaseURL)
	require.Equal(t, storage.ModeEphemeral, cfg.StorageMode)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)

	t.Setenv("PLANET_API_BASE_URL", "http://planet.example")
	require.Equal(t, "http://planet.example", app.LoadConfig().BaseURL)
}

func TestSessionSurvivesRestart(t *testing.T) {
	baseURL := newBackend(t)
	ctx := context.Background()

	cfg := testConfig(baseURL)
	cfg.StorageMode = storage.ModePersistent
	cfg.StateFile = filepath.Join(t.TempDir(), "nested", "state.db")

	first, err := app.New(ctx, cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.False(t, first.Session.IsSignedIn())

	_, err = first.Session.SignUp(ctx, planetsdk.SignUpRequest{
		Email:    "ann@example.com",
		Password: "pw",
		Name:     "Ann",
		MBTI:     "ISFJ",
		Gender:   planetsdk.GenderFemale,
		Hobbies:  []string{"baking"},
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := app.New(ctx, cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	require.True(t, second.Session.IsSignedIn())
	require.Equal(t, "Ann", second.Session.User().Name)

	me, err := second.Queries.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", me.Email)

	require.NoError(t, second.Queries.SignOut(ctx))

	third, err := app.New(ctx, cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = third.Close() })
	require.False(t, third.Session.IsSignedIn())
}

func TestEphemeralStorage(t *testing.T) {
	baseURL := newBackend(t)
	ctx := context.Background()

	a, err := app.New(ctx, testConfig(baseURL), app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Queries.TodayQuest(ctx)
	require.ErrorIs(t, err, planetsdk.ErrNotAuthenticated)
	require.Equal(t, testConfig(baseURL), a.Config())
}
