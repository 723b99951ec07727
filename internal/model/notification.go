package model

import (
	"maps"
	"slices"
	"time"
)

// NotificationKind identifies the event class a notification reports.
// The set is closed: the routing and appearance tables in the notify
// and theme packages must be extended together with it.
type NotificationKind string

const (
	KindNewOrder        NotificationKind = "NEW_ORDER"
	KindPaymentRequest  NotificationKind = "PAYMENT_REQUEST"
	KindWithdrawRequest NotificationKind = "WITHDRAW_REQUEST"
	KindTicketMessage   NotificationKind = "TICKET_MESSAGE"
)

// Payload keys the client inspects when deriving the related entity.
// Everything else in the payload is passed through untouched.
var relatedEntityKeys = []string{"orderId", "paymentId", "withdrawId", "ticketId"}

// Notification is the server-authoritative notification record.
// The server assigns IDs and owns retention; the client only ever
// adds the signed-in user to ReadBy.
type Notification struct {
	// ID is the opaque, globally unique identifier assigned by the
	// server. It is the dedup key in the local store.
	ID string `json:"id"`

	// Kind determines the navigation target and appearance.
	Kind NotificationKind `json:"kind"`

	// Title is the short display heading.
	Title string `json:"title"`

	// Message is the full display text.
	Message string `json:"message"`

	// Payload carries loosely typed structured data (order numbers,
	// amounts, ...). The client extracts a related-entity id from it
	// and otherwise does not interpret it.
	Payload map[string]any `json:"payload,omitempty"`

	// TargetUserIDs is the server-side fan-out list of eligible
	// recipients. Never mutated by the client.
	TargetUserIDs []string `json:"targetUserIds,omitempty"`

	// ReadBy holds the ids of users who have acknowledged the
	// notification. Read status for a user is a membership test.
	ReadBy []string `json:"readBy,omitempty"`

	// CreatedAt orders notifications (newest first) and feeds the
	// relative-age formatter.
	CreatedAt time.Time `json:"createdAt"`
}

// RelatedEntityID returns the first present of the orderId, paymentId,
// withdrawId and ticketId payload fields, or "" when none is set.
func (n Notification) RelatedEntityID() string {
	for _, key := range relatedEntityKeys {
		if v, ok := n.Payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ReadByUser reports whether userID has acknowledged this notification.
func (n Notification) ReadByUser(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable state with the
// receiver. Payload values are copied one level deep, which covers
// every key the client reads.
func (n Notification) Clone() Notification {
	out := n
	out.Payload = maps.Clone(n.Payload)
	out.TargetUserIDs = slices.Clone(n.TargetUserIDs)
	out.ReadBy = slices.Clone(n.ReadBy)
	return out
}

// DisplayNotification is the client-derived view of a Notification.
// It is recomputed on access and never persisted: TimeAgo decays with
// wall-clock time.
type DisplayNotification struct {
	Notification

	// TimeAgo is the relative age ("just now", "5 minutes ago", ...)
	// computed against the clock at access time.
	TimeAgo string

	// Read is the signed-in user's membership in ReadBy.
	Read bool

	// Route is the navigation target derived from Kind and the
	// related entity id.
	Route string

	// Icon and Color describe the per-kind appearance.
	Icon  string
	Color string
}

// UnreadCount is the wire shape of the unread-count REST response.
type UnreadCount struct {
	Count int `json:"count"`
}
