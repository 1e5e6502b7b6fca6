// Package storagetest holds the behaviour every storage driver must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/planet/internal/storage"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(ctx, "access_token")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "access_token", "tok-1"))

		v, ok, err := s.Get(ctx, "access_token")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "tok-1", v)
	})

	t.Run("set replaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "access_token", "tok-1"))
		require.NoError(t, s.Set(ctx, "access_token", "tok-2"))

		v, _, err := s.Get(ctx, "access_token")
		require.NoError(t, err)
		require.Equal(t, "tok-2", v)
	})

	t.Run("delete many", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "access_token", "tok"))
		require.NoError(t, s.Set(ctx, "user_info", `{"email":"a@b.c"}`))
		require.NoError(t, s.Set(ctx, "other", "keep"))

		require.NoError(t, s.Delete(ctx, "access_token", "user_info", "never-set"))

		_, ok, err := s.Get(ctx, "access_token")
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = s.Get(ctx, "user_info")
		require.NoError(t, err)
		require.False(t, ok)

		v, ok, err := s.Get(ctx, "other")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "keep", v)
	})

	t.Run("closed store", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "access_token", "tok"))
		require.NoError(t, s.Close())

		_, _, err := s.Get(ctx, "access_token")
		require.ErrorIs(t, err, storage.ErrClosed)
		require.ErrorIs(t, s.Set(ctx, "access_token", "tok-2"), storage.ErrClosed)
		require.ErrorIs(t, s.Delete(ctx, "access_token"), storage.ErrClosed)
		require.NoError(t, s.Close())
	})
}
