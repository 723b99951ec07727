package realtime

import (
	"sync"

	"github.com/ducpham/marketdesk/internal/model"
)

// listenerSet is a registry of callbacks for one event. Subscribing
// returns an unsubscribe func, so independent consumers (badge
// counter, dropdown, reconciler) can listen without clobbering each
// other.
type listenerSet[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *listenerSet[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

// emit invokes every registered callback. Callbacks run outside the
// lock so a listener may unsubscribe itself.
func (s *listenerSet[T]) emit(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// MarkReadResult is the outcome of a mark_as_read request observed on
// the push channel. Err is nil on success.
type MarkReadResult struct {
	NotificationID string
	Err            error
}

// Events is the typed subscription surface of a Session. All
// callbacks are invoked from the session's dispatch goroutine, in the
// order the underlying connection produced the events.
type Events struct {
	connected      listenerSet[struct{}]
	disconnected   listenerSet[string]
	authenticated  listenerSet[AuthInfo]
	authFailed     listenerSet[error]
	notification   listenerSet[model.Notification]
	batch          listenerSet[[]model.Notification]
	unreadCount    listenerSet[int]
	markReadResult listenerSet[MarkReadResult]
	transportErr   listenerSet[error]
}

// OnConnected registers fn for successful connection establishment.
func (e *Events) OnConnected(fn func()) func() {
	return e.connected.add(func(struct{}) { fn() })
}

// OnDisconnected registers fn for unexpected connection loss. The
// argument is a human-readable reason. Caller-initiated Disconnect
// does not fire this event.
func (e *Events) OnDisconnected(fn func(reason string)) func() {
	return e.disconnected.add(fn)
}

// OnAuthenticated registers fn for successful authentication.
func (e *Events) OnAuthenticated(fn func(AuthInfo)) func() {
	return e.authenticated.add(fn)
}

// OnAuthenticationFailed registers fn for rejected credentials.
func (e *Events) OnAuthenticationFailed(fn func(error)) func() {
	return e.authFailed.add(fn)
}

// OnNotification registers fn for single pushed notifications.
func (e *Events) OnNotification(fn func(model.Notification)) func() {
	return e.notification.add(fn)
}

// OnNotificationBatch registers fn for pushed notification batches
// (all_notifications and notifications_by_type).
func (e *Events) OnNotificationBatch(fn func([]model.Notification)) func() {
	return e.batch.add(fn)
}

// OnUnreadCount registers fn for server-computed unread counts.
func (e *Events) OnUnreadCount(fn func(int)) func() {
	return e.unreadCount.add(fn)
}

// OnMarkReadResult registers fn for mark_as_read acknowledgments.
func (e *Events) OnMarkReadResult(fn func(MarkReadResult)) func() {
	return e.markReadResult.add(fn)
}

// OnTransportError registers fn for transport-level failures.
func (e *Events) OnTransportError(fn func(error)) func() {
	return e.transportErr.add(fn)
}
