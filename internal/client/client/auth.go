package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

// Verify asks the server to confirm the stored session.
func (c *HTTPClient) Verify(ctx context.Context) (*AuthResponse, error) {
	return c.auth(ctx, http.MethodGet, "/auth/verify", nil)
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error) {
	return c.auth(ctx, http.MethodPost, "/auth/login", creds)
}

func (c *HTTPClient) Register(ctx context.Context, profile models.Registration) (*AuthResponse, error) {
	return c.auth(ctx, http.MethodPost, "/auth/register", profile)
}

// GoogleLogin exchanges a Google-issued ID token for a session.
func (c *HTTPClient) GoogleLogin(ctx context.Context, token string) (*AuthResponse, error) {
	return c.auth(ctx, http.MethodPost, "/auth/google", map[string]string{"token": token})
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, _, err := c.do(ctx, call{method: http.MethodPost, route: "/auth/logout", path: "/auth/logout"})
	return err
}

func (c *HTTPClient) auth(ctx context.Context, method, path string, body any) (*AuthResponse, error) {
	status, resp, err := c.do(ctx, call{method: method, route: path, path: path, body: body})
	if err != nil {
		return nil, err
	}
	return decodeAuth(status, resp)
}
