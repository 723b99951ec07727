package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ducpham/marketdesk/internal/model"
)

func TestTimeAgoTiers(t *testing.T) {
	now := time.Now()

	cases := []struct {
		age  time.Duration
		want string
	}{
		{45 * time.Second, "just now"},
		{59 * time.Second, "just now"},
		{60 * time.Second, "1 minutes ago"},
		{125 * time.Second, "2 minutes ago"},
		{3599 * time.Second, "59 minutes ago"},
		{3600 * time.Second, "1 hours ago"},
		{7300 * time.Second, "2 hours ago"},
		{86399 * time.Second, "23 hours ago"},
		{90000 * time.Second, "1 days ago"},
		{200000 * time.Second, "2 days ago"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeAgo(now.Add(-tc.age), now), "age %v", tc.age)
	}
}

func TestRouteForKinds(t *testing.T) {
	cases := []struct {
		kind      model.NotificationKind
		relatedID string
		want      string
	}{
		{model.KindNewOrder, "ord_9", "/orders/ord_9"},
		{model.KindNewOrder, "", "/orders"},
		{model.KindPaymentRequest, "pay_2", "/payments/pay_2"},
		{model.KindWithdrawRequest, "wd_5", "/withdrawals/wd_5"},
		{model.KindTicketMessage, "tick_1", "/tickets/tick_1"},
		{model.KindTicketMessage, "", "/tickets"},
		{model.NotificationKind("SOMETHING_NEW"), "x", "/notifications"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RouteFor(tc.kind, tc.relatedID))
	}
}

func TestDisplayDerivesRouteFromPayload(t *testing.T) {
	now := time.Now()
	rec := model.Notification{
		ID:        "n1",
		Kind:      model.KindTicketMessage,
		Payload:   map[string]any{"ticketId": "tick_1"},
		CreatedAt: now.Add(-45 * time.Second),
	}

	d := Display(rec, testUser, now)
	assert.Equal(t, "/tickets/tick_1", d.Route)
	assert.Equal(t, "just now", d.TimeAgo)
	assert.False(t, d.Read)
}

func TestDisplayUnknownKindDegrades(t *testing.T) {
	now := time.Now()
	rec := model.Notification{
		ID:        "n1",
		Kind:      model.NotificationKind("FUTURE_KIND"),
		ReadBy:    []string{testUser},
		CreatedAt: now,
	}

	d := Display(rec, testUser, now)
	assert.Equal(t, "/notifications", d.Route)
	assert.Equal(t, "•", d.Icon)
	assert.Equal(t, "gray", d.Color)
	assert.True(t, d.Read)
}

func TestRelatedEntityIDPrecedence(t *testing.T) {
	rec := model.Notification{
		Payload: map[string]any{
			"ticketId": "tick_1",
			"orderId":  "ord_1",
			"amount":   42.5,
		},
	}
	// orderId wins over ticketId regardless of map iteration order.
	assert.Equal(t, "ord_1", rec.RelatedEntityID())

	assert.Empty(t, model.Notification{}.RelatedEntityID())
}
