package api

import (
	"context"
	"fmt"

	"github.com/ducpham/marketdesk/internal/model"
)

// Login exchanges admin credentials for a bearer token. On success
// the client is ready for authenticated requests.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var out model.LoginResponse
	if err := c.post(ctx, "/auth/login", body, &out); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	c.SetIdentity(out.User.ID, out.Token)
	return &out, nil
}

// Me fetches the signed-in admin's account, validating the stored
// token in the process.
func (c *Client) Me(ctx context.Context) (*model.AdminUser, error) {
	var out model.AdminUser
	if err := c.get(ctx, "/auth/me", &out); err != nil {
		return nil, fmt.Errorf("fetching current admin: %w", err)
	}
	return &out, nil
}
