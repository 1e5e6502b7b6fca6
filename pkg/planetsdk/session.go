package planetsdk

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the process-wide record of who is signed in. Restore it once
// with Client.RestoreSession and share the pointer.
type Session struct {
	client *Client

	mu        sync.RWMutex
	token     string
	user      *User
	expiresAt time.Time
}

// RestoreSession loads the stored token and user.
func (c *Client) RestoreSession(ctx context.Context) (*Session, error) {
	token, err := c.StoredToken(ctx)
	if err != nil {
		return nil, err
	}

	user, err := c.StoredUserInfo(ctx)
	if err != nil {
		return nil, err
	}

	return &Session{
		client:    c,
		token:     token,
		user:      user,
		expiresAt: tokenExpiry(token),
	}, nil
}

// tokenExpiry reads the exp claim when the token is a JWT. The signature is
// not checked; the server remains the authority.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// SignIn logs in and adopts the returned credentials.
func (s *Session) SignIn(ctx context.Context, req SignInRequest) (*User, error) {
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	expiresAt := resp.AccessTokenExpiresAt.Time
	if expiresAt.IsZero() {
		expiresAt = tokenExpiry(resp.AccessToken)
	}

	user := resp.User

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = &user
	s.expiresAt = expiresAt
	s.mu.Unlock()

	return s.User(), nil
}

// SignUp registers the account and then signs in with the same credentials.
func (s *Session) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	if _, err := s.client.Register(ctx, req); err != nil {
		return nil, err
	}
	return s.SignIn(ctx, SignInRequest{Email: req.Email, Password: req.Password})
}

// SignOut clears stored credentials and the in-memory session.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	return s.client.Logout(ctx)
}

// Refresh fetches the user from the server and caches it. A 401 means the
// stored token is no longer accepted, so the session is signed out.
func (s *Session) Refresh(ctx context.Context) (*User, error) {
	user, err := s.client.Me(ctx)
	if IsStatus(err, http.StatusUnauthorized) {
		if signOutErr := s.SignOut(ctx); signOutErr != nil {
			s.client.logger.Warn("failed to clear rejected credentials", "err", signOutErr)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if err := s.setUser(ctx, *user); err != nil {
		return nil, err
	}
	return s.User(), nil
}

// UpdateProfile patches the signed-in user and caches the result.
func (s *Session) UpdateProfile(ctx context.Context, req UserUpdateRequest) (*User, error) {
	current := s.User()
	if current == nil {
		return nil, &APIError{
			Kind:       KindNotAuthenticated,
			StatusCode: http.StatusUnauthorized,
			Message:    "no signed-in user",
			Method:     http.MethodPatch,
			Path:       "/users/",
			Err:        ErrNotAuthenticated,
		}
	}

	user, err := s.client.UpdateUser(ctx, current.Email, req)
	if err != nil {
		return nil, err
	}

	if err := s.setUser(ctx, *user); err != nil {
		return nil, err
	}
	return s.User(), nil
}

func (s *Session) setUser(ctx context.Context, u User) error {
	if err := s.client.SaveUserInfo(ctx, u); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// IsSignedIn reports whether a token is held.
func (s *Session) IsSignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current access token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	u.Hobbies = append([]string(nil), s.user.Hobbies...)
	return &u
}

// ExpiresAt is when the access token expires, zero if unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Expired reports whether the token is known to have expired at now.
func (s *Session) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}
