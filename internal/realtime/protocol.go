package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/ducpham/marketdesk/internal/model"
)

// Event names pushed by the notification server.
const (
	eventNewNotification     = "new_notification"
	eventAllNotifications    = "all_notifications"
	eventUnreadCount         = "unread_count"
	eventAuthenticated       = "authenticated"
	eventAuthenticationError = "authentication_error"
	eventMarkReadSuccess     = "mark_as_read_success"
	eventMarkReadError       = "mark_as_read_error"
	eventNotificationsByType = "notifications_by_type"
)

// Request names emitted by the client.
const (
	requestAuthenticate = "authenticate"
	requestMarkRead     = "mark_as_read"
	requestGetAll       = "get_all_notifications"
	requestGetUnread    = "get_unread_notifications"
	requestGetByType    = "get_notifications_by_type"
)

// envelope is the JSON frame exchanged in both directions:
// {"event": "...", "data": ...}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// newEnvelope marshals data into an outbound frame.
func newEnvelope(event string, data any) (envelope, error) {
	env := envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return envelope{}, fmt.Errorf("encoding %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return env, nil
}

// authPayload is the connection-time and re-authentication request body.
type authPayload struct {
	UserID     string `json:"userId"`
	UserRole   string `json:"userRole"`
	Credential string `json:"credential"`
}

// markReadPayload asks the server to acknowledge one notification.
type markReadPayload struct {
	NotificationID string `json:"notificationId"`
}

// byKindPayload requests the notifications of a single kind.
type byKindPayload struct {
	Kind model.NotificationKind `json:"kind"`
}

// AuthInfo is the server's confirmation of a successful authentication.
type AuthInfo struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// authErrorData carries the server's authentication rejection.
type authErrorData struct {
	Message string `json:"message"`
}

// markReadResultData carries the outcome of a mark_as_read request.
type markReadResultData struct {
	NotificationID string `json:"notificationId"`
	Message        string `json:"message,omitempty"`
}

// byKindData is the response to get_notifications_by_type.
type byKindData struct {
	Kind          model.NotificationKind `json:"kind"`
	Notifications []model.Notification   `json:"notifications"`
}

// countData is the unread_count payload.
type countData struct {
	Count int `json:"count"`
}
