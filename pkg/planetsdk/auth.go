package planetsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a new account. It does not sign in.
func (c *Client) Register(ctx context.Context, req SignUpRequest) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   req,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and stores the returned token and user so that
// subsequent authenticated calls carry "Authorization: Bearer <token>".
func (c *Client) Login(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	var resp SignInResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if err := c.SaveToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	if err := c.SaveUserInfo(ctx, resp.User); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Logout forgets the stored token and user. There is no server call.
func (c *Client) Logout(ctx context.Context) error {
	return c.ClearCredentials(ctx)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/me",
		auth:   true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser patches the profile of the user with the given email.
func (c *Client) UpdateUser(ctx context.Context, email string, req UserUpdateRequest) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/users/" + url.PathEscape(email),
		body:   req,
		auth:   true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
