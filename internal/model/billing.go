package model

import "time"

// Payment verification states.
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusVerified = "VERIFIED"
	PaymentStatusRejected = "REJECTED"
)

// Withdrawal request states.
const (
	WithdrawStatusPending  = "PENDING"
	WithdrawStatusApproved = "APPROVED"
	WithdrawStatusRejected = "REJECTED"
)

// Payment is a payment submitted by a buyer awaiting verification.
type Payment struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	PayerName string    `json:"payerName"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentPage is a paginated payment listing.
type PaymentPage struct {
	Payments []Payment `json:"payments"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
}

// Withdrawal is a seller payout request.
type Withdrawal struct {
	ID         string    `json:"id"`
	SellerName string    `json:"sellerName"`
	BankName   string    `json:"bankName"`
	AccountNo  string    `json:"accountNo"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WithdrawalPage is a paginated withdrawal listing.
type WithdrawalPage struct {
	Withdrawals []Withdrawal `json:"withdrawals"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
}
