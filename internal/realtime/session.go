package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/model"
)

// wsConn is the subset of *websocket.Conn the session needs. Tests
// substitute an in-memory implementation.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// dialFunc opens a websocket connection to url.
type dialFunc func(url string) (wsConn, error)

func gorillaDial(url string) (wsConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(url, http.Header{})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Session owns one persistent connection to the notification server:
// at most one live connection at a time, per signed-in user. All I/O
// is non-blocking; outcomes are observed through the Events surface,
// never through synchronous errors. The session never reconnects on
// its own; after OnDisconnected fires, redialing is the caller's
// decision.
type Session struct {
	url    string
	events *Events
	logger *zap.Logger
	dial   dialFunc

	// dispatchCh serializes event delivery so listeners observe
	// frames in arrival order.
	dispatchCh chan func()
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	conn    wsConn
	gen     int
	writeMu sync.Mutex
}

// NewSession creates a session targeting the given websocket URL.
// The session is inert until Connect is called. Call Close when the
// application shuts down.
func NewSession(url string, logger *zap.Logger) *Session {
	s := &Session{
		url:        url,
		events:     &Events{},
		logger:     logger,
		dial:       gorillaDial,
		dispatchCh: make(chan func(), 64),
		stopCh:     make(chan struct{}),
	}
	go s.dispatchLoop()
	return s
}

// Events returns the subscription surface for this session.
func (s *Session) Events() *Events { return s.events }

// Connected reports whether a live connection currently exists.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Connect establishes a connection carrying the identity as
// connection-time authentication context. An existing connection is
// torn down first, so at most one live connection exists. Connect
// returns immediately; success and failure arrive via OnConnected,
// OnAuthenticated, OnAuthenticationFailed and OnTransportError.
func (s *Session) Connect(id model.Identity) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.conn != nil {
		old := s.conn
		s.conn = nil
		_ = old.Close()
	}
	s.mu.Unlock()

	go s.run(gen, id)
}

// Disconnect closes the connection and clears the internal reference.
// Idempotent; safe to call when already disconnected. It does not fire
// OnDisconnected, which is reserved for unexpected drops.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Close stops the session's dispatch goroutine. The session must not
// be used afterwards.
func (s *Session) Close() {
	s.Disconnect()
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Authenticate sends an explicit re-authentication request over an
// already-open connection, used after a reconnect. If no connection
// exists this is a caller error: OnAuthenticationFailed fires on the
// next dispatch turn and no connection is silently created.
func (s *Session) Authenticate(id model.Identity) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		s.post(func() {
			s.events.authFailed.emit(&AuthenticationError{Message: "no open connection"})
		})
		return
	}

	s.send(requestAuthenticate, authPayload{
		UserID:     id.UserID,
		UserRole:   id.Role,
		Credential: id.Credential,
	})
}

// MarkRead asks the server to acknowledge a notification. Fire and
// forget: completion arrives via OnMarkReadResult. Correctness of
// mark-read is the reconciler's job, not the transport's.
func (s *Session) MarkRead(notificationID string) {
	s.send(requestMarkRead, markReadPayload{NotificationID: notificationID})
}

// RequestAll asks the server for a full notification snapshot,
// delivered via OnNotificationBatch.
func (s *Session) RequestAll() {
	s.send(requestGetAll, nil)
}

// RequestUnread asks the server for the unread subset, delivered via
// OnNotificationBatch.
func (s *Session) RequestUnread() {
	s.send(requestGetUnread, nil)
}

// RequestByKind asks the server for notifications of one kind,
// delivered via OnNotificationBatch.
func (s *Session) RequestByKind(kind model.NotificationKind) {
	s.send(requestGetByType, byKindPayload{Kind: kind})
}

// run dials, registers the connection and pumps inbound frames until
// the connection dies or is superseded.
func (s *Session) run(gen int, id model.Identity) {
	conn, err := s.dial(s.url)
	if err != nil {
		s.logger.Warn("notification socket dial failed",
			zap.String("url", s.url), zap.Error(err))
		s.post(func() {
			s.events.transportErr.emit(&ConnectionError{URL: s.url, Err: err})
		})
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		// Superseded by a newer Connect or Disconnect while dialing.
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.logger.Info("notification socket connected", zap.String("url", s.url))
	s.post(func() { s.events.connected.emit(struct{}{}) })

	// Authenticate as part of connection establishment.
	s.send(requestAuthenticate, authPayload{
		UserID:     id.UserID,
		UserRole:   id.Role,
		Credential: id.Credential,
	})

	s.readLoop(gen, conn)
}

// readLoop decodes inbound frames and hands them to the dispatch
// goroutine in arrival order.
func (s *Session) readLoop(gen int, conn wsConn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			current := s.gen == gen
			if current {
				s.conn = nil
			}
			s.mu.Unlock()

			// Only an unexpected drop of the current connection is
			// surfaced; explicit Disconnect and superseded
			// connections stay silent.
			if current {
				s.logger.Warn("notification socket dropped", zap.Error(err))
				reason := err.Error()
				s.post(func() { s.events.disconnected.emit(reason) })
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("undecodable frame from notification server", zap.Error(err))
			frameErr := fmt.Errorf("decoding frame: %w", err)
			s.post(func() { s.events.transportErr.emit(frameErr) })
			continue
		}

		s.post(func() { s.handle(env) })
	}
}

// handle routes one decoded frame to its listeners. Runs on the
// dispatch goroutine.
func (s *Session) handle(env envelope) {
	switch env.Event {
	case eventAuthenticated:
		var info AuthInfo
		if err := json.Unmarshal(env.Data, &info); err != nil {
			s.events.transportErr.emit(fmt.Errorf("decoding authenticated data: %w", err))
			return
		}
		s.events.authenticated.emit(info)

	case eventAuthenticationError:
		var data authErrorData
		_ = json.Unmarshal(env.Data, &data)
		if data.Message == "" {
			data.Message = "authentication rejected"
		}
		s.events.authFailed.emit(&AuthenticationError{Message: data.Message})

	case eventNewNotification:
		var n model.Notification
		if err := json.Unmarshal(env.Data, &n); err != nil {
			s.events.transportErr.emit(fmt.Errorf("decoding notification: %w", err))
			return
		}
		s.events.notification.emit(n)

	case eventAllNotifications:
		var batch []model.Notification
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			s.events.transportErr.emit(fmt.Errorf("decoding notification batch: %w", err))
			return
		}
		s.events.batch.emit(batch)

	case eventNotificationsByType:
		var data byKindData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			s.events.transportErr.emit(fmt.Errorf("decoding notifications_by_type: %w", err))
			return
		}
		s.events.batch.emit(data.Notifications)

	case eventUnreadCount:
		var data countData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			// Some server builds send the bare integer.
			var count int
			if err2 := json.Unmarshal(env.Data, &count); err2 != nil {
				s.events.transportErr.emit(fmt.Errorf("decoding unread_count: %w", err))
				return
			}
			data.Count = count
		}
		s.events.unreadCount.emit(data.Count)

	case eventMarkReadSuccess:
		var data markReadResultData
		_ = json.Unmarshal(env.Data, &data)
		s.events.markReadResult.emit(MarkReadResult{NotificationID: data.NotificationID})

	case eventMarkReadError:
		var data markReadResultData
		_ = json.Unmarshal(env.Data, &data)
		s.events.markReadResult.emit(MarkReadResult{
			NotificationID: data.NotificationID,
			Err: &RequestError{
				Op:             requestMarkRead,
				NotificationID: data.NotificationID,
				Message:        data.Message,
			},
		})

	default:
		s.logger.Debug("ignoring unknown server event", zap.String("event", env.Event))
	}
}

// send writes one outbound frame. Errors surface via OnTransportError,
// never synchronously.
func (s *Session) send(event string, payload any) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		s.post(func() {
			s.events.transportErr.emit(&ConnectionError{
				URL: s.url,
				Err: fmt.Errorf("%s: no open connection", event),
			})
		})
		return
	}

	env, err := newEnvelope(event, payload)
	if err != nil {
		s.post(func() { s.events.transportErr.emit(err) })
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		s.post(func() { s.events.transportErr.emit(fmt.Errorf("encoding frame: %w", err)) })
		return
	}

	// gorilla allows one concurrent writer.
	s.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()

	if err != nil {
		s.logger.Warn("notification socket write failed",
			zap.String("event", event), zap.Error(err))
		s.post(func() {
			s.events.transportErr.emit(&ConnectionError{URL: s.url, Err: err})
		})
	}
}

// post queues fn on the dispatch goroutine, preserving submission
// order. Blocks only if the dispatch queue is full, which applies
// backpressure to the read loop rather than reordering events.
func (s *Session) post(fn func()) {
	select {
	case s.dispatchCh <- fn:
	case <-s.stopCh:
	}
}

func (s *Session) dispatchLoop() {
	for {
		select {
		case fn := <-s.dispatchCh:
			fn()
		case <-s.stopCh:
			return
		}
	}
}
