package model

import "time"

// Order statuses as reported by the backend. The client only invokes
// transitions; the state machine lives server-side.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusShipping   = "SHIPPING"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Order is a marketplace order as returned by the REST API.
type Order struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	BuyerName   string    `json:"buyerName"`
	SellerName  string    `json:"sellerName"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrderPage is a paginated order listing.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
}
