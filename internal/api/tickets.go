package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ducpham/marketdesk/internal/model"
)

// ListTickets fetches one page of support tickets.
func (c *Client) ListTickets(ctx context.Context, page, pageSize int, status string) (*model.TicketPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if status != "" {
		q.Set("status", status)
	}

	var out model.TicketPage
	if err := c.get(ctx, "/tickets?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	return &out, nil
}

// TicketMessages fetches the message thread of one ticket.
func (c *Client) TicketMessages(ctx context.Context, ticketID string) ([]model.TicketMessage, error) {
	var out []model.TicketMessage
	path := "/tickets/" + url.PathEscape(ticketID) + "/messages"
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetching messages for ticket %s: %w", ticketID, err)
	}
	return out, nil
}

// ReplyTicket posts an admin reply to a ticket thread.
func (c *Client) ReplyTicket(ctx context.Context, ticketID, body string) error {
	path := "/tickets/" + url.PathEscape(ticketID) + "/messages"
	payload := map[string]string{"body": body}
	if err := c.post(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("replying to ticket %s: %w", ticketID, err)
	}
	return nil
}

// CloseTicket closes a ticket.
func (c *Client) CloseTicket(ctx context.Context, ticketID string) error {
	path := "/tickets/" + url.PathEscape(ticketID) + "/close"
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("closing ticket %s: %w", ticketID, err)
	}
	return nil
}
