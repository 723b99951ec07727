package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/realtime"
)

// PushSender is the push-channel side of a mark-read round-trip.
// Satisfied by *realtime.Session.
type PushSender interface {
	Connected() bool
	MarkRead(notificationID string)
}

// FallbackAPI is the REST side, used when the push channel is down.
// Satisfied by *api.Client.
type FallbackAPI interface {
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// FallbackExhaustedError reports that neither the push channel nor the
// REST fallback could complete an operation. The optimistic local
// state is retained; the operation is abandoned.
type FallbackExhaustedError struct {
	Op  string
	Err error
}

func (e *FallbackExhaustedError) Error() string {
	return fmt.Sprintf("%s: push channel down and REST fallback failed: %v", e.Op, e.Err)
}

func (e *FallbackExhaustedError) Unwrap() error { return e.Err }

// IsFallbackExhausted reports whether err wraps a FallbackExhaustedError.
func IsFallbackExhausted(err error) bool {
	var fe *FallbackExhaustedError
	return errors.As(err, &fe)
}

// Reconciler applies mark-read operations optimistically to the store
// and round-trips them to the server, over the push channel when it is
// up and over REST otherwise.
//
// On server failure the optimistic state is deliberately NOT reverted:
// a notification the user visually dismissed must not reappear as
// unread. A false-positive "read" is preferred over UI flicker; the
// failure is logged for observability instead.
type Reconciler struct {
	store   *Store
	session PushSender
	api     FallbackAPI
	logger  *zap.Logger
}

// NewReconciler wires the reconciler to its store and both network
// paths.
func NewReconciler(store *Store, session PushSender, api FallbackAPI, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, session: session, api: api, logger: logger}
}

// Watch subscribes to mark_as_read acknowledgments on the push
// channel. Successes are final; failures are logged and the local
// state is left as the user last saw it. Returns an unsubscribe func.
func (r *Reconciler) Watch(events *realtime.Events) func() {
	return events.OnMarkReadResult(func(res realtime.MarkReadResult) {
		if res.Err != nil {
			r.logger.Warn("server rejected mark-read; keeping local read state",
				zap.String("notificationId", res.NotificationID),
				zap.Error(res.Err))
		}
	})
}

// MarkRead marks one notification as read: the store is mutated
// immediately so the UI reflects the change with zero latency, then
// the acknowledgment is sent over whichever path is available.
func (r *Reconciler) MarkRead(ctx context.Context, notificationID string) error {
	if !r.store.MarkReadLocal(notificationID) {
		// Unknown id or already read; nothing to reconcile.
		return nil
	}

	if r.session.Connected() {
		r.session.MarkRead(notificationID)
		return nil
	}

	if err := r.api.MarkNotificationRead(ctx, notificationID); err != nil {
		r.logger.Warn("mark-read fallback failed; keeping local read state",
			zap.String("notificationId", notificationID),
			zap.Error(err))
		return &FallbackExhaustedError{Op: "mark read", Err: err}
	}
	return nil
}

// MarkAllRead marks every currently unread notification as read as one
// logical batch: the store flips them in a single mutation, and the
// server sees a single mark-all request. The push protocol has no
// mark-all event, so the round-trip always goes over REST.
func (r *Reconciler) MarkAllRead(ctx context.Context) error {
	changed := r.store.MarkAllReadLocal()
	if len(changed) == 0 {
		return nil
	}

	if err := r.api.MarkAllNotificationsRead(ctx); err != nil {
		r.logger.Warn("mark-all-read failed; keeping local read state",
			zap.Int("count", len(changed)),
			zap.Error(err))
		return &FallbackExhaustedError{Op: "mark all read", Err: err}
	}
	return nil
}
