package notify

import (
	"fmt"
	"time"

	"github.com/ducpham/marketdesk/internal/model"
)

// appearance describes how one notification kind is rendered.
type appearance struct {
	icon  string
	color string
}

// routeEntry maps a kind to its detail route prefix and the listing
// route used when the related entity id is absent.
type routeEntry struct {
	detailPrefix string
	listRoute    string
}

// Per-kind tables. Extending NotificationKind requires extending both
// together; unrecognized kinds degrade to the defaults instead of
// erroring so a newer server cannot crash an older client.
var (
	routes = map[model.NotificationKind]routeEntry{
		model.KindNewOrder:        {detailPrefix: "/orders/", listRoute: "/orders"},
		model.KindPaymentRequest:  {detailPrefix: "/payments/", listRoute: "/payments"},
		model.KindWithdrawRequest: {detailPrefix: "/withdrawals/", listRoute: "/withdrawals"},
		model.KindTicketMessage:   {detailPrefix: "/tickets/", listRoute: "/tickets"},
	}

	appearances = map[model.NotificationKind]appearance{
		model.KindNewOrder:        {icon: "🛒", color: "blue"},
		model.KindPaymentRequest:  {icon: "💳", color: "green"},
		model.KindWithdrawRequest: {icon: "🏦", color: "orange"},
		model.KindTicketMessage:   {icon: "✉", color: "magenta"},
	}

	defaultRoute      = "/notifications"
	defaultAppearance = appearance{icon: "•", color: "gray"}
)

// TimeAgo formats the age of createdAt relative to now. Integer floor
// division at each tier boundary, no rounding. Recompute on every
// render: "5 minutes ago" decays.
func TimeAgo(createdAt, now time.Time) string {
	secs := int64(now.Sub(createdAt) / time.Second)
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return fmt.Sprintf("%d minutes ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%d hours ago", secs/3600)
	default:
		return fmt.Sprintf("%d days ago", secs/86400)
	}
}

// RouteFor returns the navigation target for a notification of the
// given kind. When relatedID is absent the kind's listing route is
// returned; unknown kinds land on the notification overview.
func RouteFor(kind model.NotificationKind, relatedID string) string {
	entry, ok := routes[kind]
	if !ok {
		return defaultRoute
	}
	if relatedID == "" {
		return entry.listRoute
	}
	return entry.detailPrefix + relatedID
}

// Display derives the render-ready view of a record for the given
// user at the given instant. Pure; call on demand rather than caching
// the result.
func Display(rec model.Notification, userID string, now time.Time) model.DisplayNotification {
	look, ok := appearances[rec.Kind]
	if !ok {
		look = defaultAppearance
	}
	return model.DisplayNotification{
		Notification: rec,
		TimeAgo:      TimeAgo(rec.CreatedAt, now),
		Read:         rec.ReadByUser(userID),
		Route:        RouteFor(rec.Kind, rec.RelatedEntityID()),
		Icon:         look.icon,
		Color:        look.color,
	}
}
