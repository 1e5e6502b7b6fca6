package planetsdk

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage keys for the credentials kept on the device.
const (
	KeyAccessToken = "access_token"
	KeyUserInfo    = "user_info"
)

// SaveToken stores the access token used by authenticated requests.
func (c *Client) SaveToken(ctx context.Context, token string) error {
	if err := c.store.Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	return nil
}

// StoredToken returns the stored access token, or "" when there is none.
func (c *Client) StoredToken(ctx context.Context) (string, error) {
	token, _, err := c.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	return token, nil
}

// SaveUserInfo caches the signed-in user as JSON.
func (c *Client) SaveUserInfo(ctx context.Context, u User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	if err := c.store.Set(ctx, KeyUserInfo, string(b)); err != nil {
		return fmt.Errorf("save user info: %w", err)
	}
	return nil
}

// StoredUserInfo returns the cached user, or nil when there is none. A blob
// that no longer decodes is treated as missing.
func (c *Client) StoredUserInfo(ctx context.Context) (*User, error) {
	raw, ok, err := c.store.Get(ctx, KeyUserInfo)
	if err != nil {
		return nil, fmt.Errorf("read user info: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		c.logger.Warn("discarding unreadable user info", "err", err)
		return nil, nil
	}
	return &u, nil
}

// ClearCredentials removes both the token and the cached user.
func (c *Client) ClearCredentials(ctx context.Context) error {
	if err := c.store.Delete(ctx, KeyAccessToken, KeyUserInfo); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
