package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ducpham/marketdesk/internal/model"
)

// CommissionTable fetches the current commission configuration.
func (c *Client) CommissionTable(ctx context.Context) (*model.CommissionTable, error) {
	var out model.CommissionTable
	if err := c.get(ctx, "/commissions", &out); err != nil {
		return nil, fmt.Errorf("fetching commission table: %w", err)
	}
	return &out, nil
}

// UpdateCommissionTable replaces the commission table. The backend
// validates tier boundaries and applies the new rates.
func (c *Client) UpdateCommissionTable(ctx context.Context, table model.CommissionTable) error {
	if err := c.put(ctx, "/commissions", table, nil); err != nil {
		return fmt.Errorf("updating commission table: %w", err)
	}
	return nil
}

// PlatformSettings fetches the configuration toggles.
func (c *Client) PlatformSettings(ctx context.Context) ([]model.PlatformSetting, error) {
	var out []model.PlatformSetting
	if err := c.get(ctx, "/settings", &out); err != nil {
		return nil, fmt.Errorf("fetching platform settings: %w", err)
	}
	return out, nil
}

// UpdatePlatformSetting flips one configuration toggle.
func (c *Client) UpdatePlatformSetting(ctx context.Context, key string, enabled bool) error {
	path := "/settings/" + url.PathEscape(key)
	body := map[string]bool{"enabled": enabled}
	if err := c.put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating setting %s: %w", key, err)
	}
	return nil
}

// ListAdmins fetches every administrative account.
func (c *Client) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var out []model.AdminUser
	if err := c.get(ctx, "/admins", &out); err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	return out, nil
}

// CreateAdmin provisions a new administrative account.
func (c *Client) CreateAdmin(ctx context.Context, email, fullName, role, password string) (*model.AdminUser, error) {
	body := map[string]string{
		"email":    email,
		"fullName": fullName,
		"role":     role,
		"password": password,
	}

	var out model.AdminUser
	if err := c.post(ctx, "/admins", body, &out); err != nil {
		return nil, fmt.Errorf("creating admin %s: %w", email, err)
	}
	return &out, nil
}

// UpdateAdminRole changes an admin's role.
func (c *Client) UpdateAdminRole(ctx context.Context, adminID, role string) error {
	path := "/admins/" + url.PathEscape(adminID) + "/role"
	body := map[string]string{"role": role}
	if err := c.put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating role for admin %s: %w", adminID, err)
	}
	return nil
}

// DeleteAdmin removes an administrative account.
func (c *Client) DeleteAdmin(ctx context.Context, adminID string) error {
	if err := c.del(ctx, "/admins/"+url.PathEscape(adminID)); err != nil {
		return fmt.Errorf("deleting admin %s: %w", adminID, err)
	}
	return nil
}
