package api

import (
	"context"
	"net/http"

	"github.com/bborn/grocer/internal/planner"
)

// AuthResponse is returned by every sign-in endpoint.
type AuthResponse struct {
	JWT  string       `json:"jwt"`
	User planner.User `json:"data"`
}

// GoogleCredential is the body of a Google sign-in.
type GoogleCredential struct {
	Credential string `json:"credential"`
	ClientID   string `json:"clientId"`
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, creds planner.Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account and signs in.
func (c *Client) Signup(ctx context.Context, s planner.Signup) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/signup", body: s}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Google exchanges a Google ID token for an API session.
func (c *Client) Google(ctx context.Context, cred GoogleCredential) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/google", body: cred}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword changes the signed-in user's password and returns the
// server's confirmation message.
func (c *Client) ChangePassword(ctx context.Context, p planner.PasswordChange) (string, error) {
	var out struct {
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/change-password", body: p, auth: true}, &out)
	if err != nil {
		return "", err
	}
	return out.Data.Message, nil
}
