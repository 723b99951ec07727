package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ducpham/marketdesk/internal/model"
)

// ListPayments fetches one page of payments awaiting verification.
func (c *Client) ListPayments(ctx context.Context, page, pageSize int, status string) (*model.PaymentPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if status != "" {
		q.Set("status", status)
	}

	var out model.PaymentPage
	if err := c.get(ctx, "/payments?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return &out, nil
}

// VerifyPayment confirms a payment. Settlement happens server-side.
func (c *Client) VerifyPayment(ctx context.Context, paymentID string) error {
	path := "/payments/" + url.PathEscape(paymentID) + "/verify"
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("verifying payment %s: %w", paymentID, err)
	}
	return nil
}

// RejectPayment rejects a payment with a reason shown to the payer.
func (c *Client) RejectPayment(ctx context.Context, paymentID, reason string) error {
	path := "/payments/" + url.PathEscape(paymentID) + "/reject"
	body := map[string]string{"reason": reason}
	if err := c.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("rejecting payment %s: %w", paymentID, err)
	}
	return nil
}

// ListWithdrawals fetches one page of seller payout requests.
func (c *Client) ListWithdrawals(ctx context.Context, page, pageSize int, status string) (*model.WithdrawalPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if status != "" {
		q.Set("status", status)
	}

	var out model.WithdrawalPage
	if err := c.get(ctx, "/withdrawals?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("listing withdrawals: %w", err)
	}
	return &out, nil
}

// ApproveWithdrawal approves a payout request.
func (c *Client) ApproveWithdrawal(ctx context.Context, withdrawalID string) error {
	path := "/withdrawals/" + url.PathEscape(withdrawalID) + "/approve"
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("approving withdrawal %s: %w", withdrawalID, err)
	}
	return nil
}

// RejectWithdrawal rejects a payout request with a note for the seller.
func (c *Client) RejectWithdrawal(ctx context.Context, withdrawalID, note string) error {
	path := "/withdrawals/" + url.PathEscape(withdrawalID) + "/reject"
	body := map[string]string{"note": note}
	if err := c.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("rejecting withdrawal %s: %w", withdrawalID, err)
	}
	return nil
}
