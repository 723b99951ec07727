package realtime

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the transport could not be established or
// failed mid-stream. Retrying is an explicit caller decision.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError indicates the server rejected the credential.
// Terminal until the caller reconnects or re-authenticates with a new
// credential.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Message)
}

// RequestError indicates a single push-channel request failed
// (e.g., mark_as_read). Not globally fatal.
type RequestError struct {
	Op             string
	NotificationID string
	Message        string
}

func (e *RequestError) Error() string {
	if e.NotificationID != "" {
		return fmt.Sprintf("%s failed for %s: %s", e.Op, e.NotificationID, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthenticationError.
func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
