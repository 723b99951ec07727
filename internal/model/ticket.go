package model

import "time"

// Ticket states.
const (
	TicketStatusOpen     = "OPEN"
	TicketStatusAnswered = "ANSWERED"
	TicketStatusClosed   = "CLOSED"
)

// Ticket is a support ticket opened by a buyer or seller.
type Ticket struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	OpenedBy  string    `json:"openedBy"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TicketMessage is one message in a ticket thread.
type TicketMessage struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Author    string    `json:"author"`
	FromAdmin bool      `json:"fromAdmin"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketPage is a paginated ticket listing.
type TicketPage struct {
	Tickets []Ticket `json:"tickets"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
}
