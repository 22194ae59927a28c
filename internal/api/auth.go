package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token. It does not store the token.
func (c *Client) Login(ctx context.Context, empNumber, password string) (Token, error) {
	var tok Token
	err := c.do(ctx, call{
		method: http.MethodPost,
		base:   c.authURL,
		path:   "/auth/login",
		body:   loginRequest{EmpNumber: empNumber, Password: password},
	}, &tok)
	return tok, err
}

// MyPage returns the signed-in user's profile.
func (c *Client) MyPage(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.get(ctx, c.authURL, "/auth/mypage", authRequired, &p)
	return p, err
}

// Logout invalidates the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		base:   c.authURL,
		path:   "/auth/logout",
		auth:   authRequired,
	}, nil)
}

// ChangePassword replaces the current password.
func (c *Client) ChangePassword(ctx context.Context, current, next, confirm string) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		base:   c.authURL,
		path:   "/auth/change-password",
		body:   changePasswordRequest{CurrentPassword: current, NewPassword: next, ConfirmPassword: confirm},
		auth:   authRequired,
	}, nil)
}

// VerifyPassword checks password against the signed-in account.
func (c *Client) VerifyPassword(ctx context.Context, password string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		base:   c.authURL,
		path:   "/auth/verify-password",
		body:   passwordRequest{Password: password},
		auth:   authRequired,
	}, nil)
}

// Withdraw deletes the signed-in account.
func (c *Client) Withdraw(ctx context.Context, password string) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		base:   c.authURL,
		path:   "/auth/withdrawal",
		body:   passwordRequest{Password: password},
		auth:   authRequired,
	}, nil)
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		base:   c.authURL,
		path:   "/auth/signup",
		body:   req,
	}, nil)
}
