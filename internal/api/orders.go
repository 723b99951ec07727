package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ducpham/marketdesk/internal/model"
)

// ListOrders fetches one page of orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, page, pageSize int, status string) (*model.OrderPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if status != "" {
		q.Set("status", status)
	}

	var out model.OrderPage
	if err := c.get(ctx, "/orders?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return &out, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var out model.Order
	if err := c.get(ctx, "/orders/"+url.PathEscape(orderID), &out); err != nil {
		return nil, fmt.Errorf("fetching order %s: %w", orderID, err)
	}
	return &out, nil
}

// UpdateOrderStatus asks the backend to transition an order. The
// transition rules live server-side; an illegal transition comes back
// as an API error.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	body := map[string]string{"status": status}
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	if err := c.put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating order %s status: %w", orderID, err)
	}
	return nil
}
