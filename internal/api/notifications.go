package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ducpham/marketdesk/internal/model"
)

// ListNotifications fetches the signed-in user's notifications over
// REST. This is the pull half of the delivery layer, used while the
// push channel is down.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	path := "/notifications?userId=" + url.QueryEscape(c.userID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}

// UnreadNotificationCount fetches the server-computed unread count.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out model.UnreadCount
	path := "/notifications/unread-count?userId=" + url.QueryEscape(c.userID)
	if err := c.get(ctx, path, &out); err != nil {
		return 0, fmt.Errorf("fetching unread count: %w", err)
	}
	return out.Count, nil
}

// MarkNotificationRead acknowledges one notification over REST.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	path := "/notifications/" + url.PathEscape(notificationID) + "/read"
	body := map[string]string{"userId": c.userID}
	if err := c.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", notificationID, err)
	}
	return nil
}

// MarkAllNotificationsRead acknowledges every unread notification for
// the signed-in user in one request.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	body := map[string]string{"userId": c.userID}
	if err := c.post(ctx, "/notifications/mark-all-read", body, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}
