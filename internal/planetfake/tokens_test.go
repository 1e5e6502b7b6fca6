package planetfake

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ti, err := newTokenIssuer("secret", "planetd", time.Hour, clock)
	require.NoError(t, err)

	token, exp, err := ti.Issue("a@b.c", "User")
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), exp)

	sub, err := ti.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", sub)

	t.Run("expired", func(t *testing.T) {
		later, err := newTokenIssuer("secret", "planetd", time.Hour, func() time.Time { return now.Add(2 * time.Hour) })
		require.NoError(t, err)
		_, err = later.Verify(token)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := newTokenIssuer("different", "planetd", time.Hour, clock)
		require.NoError(t, err)
		_, err = other.Verify(token)
		require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("other issuer", func(t *testing.T) {
		other, err := newTokenIssuer("secret", "elsewhere", time.Hour, clock)
		require.NoError(t, err)
		_, err = other.Verify(token)
		require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Issuer:    "planetd",
			Subject:   "a@b.c",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ti.Verify(unsigned)
		require.Error(t, err)
	})
}

func TestRandomSecret(t *testing.T) {
	t.Parallel()

	a, err := newTokenIssuer("", "planetd", time.Hour, time.Now)
	require.NoError(t, err)
	b, err := newTokenIssuer("", "planetd", time.Hour, time.Now)
	require.NoError(t, err)

	token, _, err := a.Issue("a@b.c", "User")
	require.NoError(t, err)
	_, err = b.Verify(token)
	require.Error(t, err)
}

func TestPasswords(t *testing.T) {
	t.Parallel()

	hash, err := hashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, verifyPassword("hunter2", hash))
	require.ErrorIs(t, verifyPassword("hunter3", hash), errPasswordMismatch)
}
