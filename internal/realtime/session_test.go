package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/model"
)

// fakeConn is an in-memory wsConn: the test plays the server by
// queueing inbound frames and inspecting written ones.
type fakeConn struct {
	mu      sync.Mutex
	inbox   chan []byte
	closed  chan struct{}
	once    sync.Once
	written [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:  make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.inbox:
		return websocket.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// serverPush queues a frame as if the server had sent it.
func (c *fakeConn) serverPush(t *testing.T, event string, data any) {
	t.Helper()
	env := envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		env.Data = raw
	}
	frame, err := json.Marshal(env)
	require.NoError(t, err)
	c.inbox <- frame
}

// writtenEvents decodes the event names of all frames the client sent.
func (c *fakeConn) writtenEvents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, data := range c.written {
		var env envelope
		if json.Unmarshal(data, &env) == nil {
			out = append(out, env.Event)
		}
	}
	return out
}

func testIdentity() model.Identity {
	return model.Identity{UserID: "admin_1", Role: "ADMIN", Credential: "tok"}
}

// newTestSession returns a session whose dial hands out fresh
// fakeConns, and a func to fetch the nth conn.
func newTestSession(t *testing.T) (*Session, func(n int) *fakeConn) {
	t.Helper()

	var mu sync.Mutex
	var conns []*fakeConn

	s := NewSession("ws://test", zap.NewNop())
	t.Cleanup(s.Close)
	s.dial = func(string) (wsConn, error) {
		mu.Lock()
		defer mu.Unlock()
		c := newFakeConn()
		conns = append(conns, c)
		return c, nil
	}

	return s, func(n int) *fakeConn {
		mu.Lock()
		defer mu.Unlock()
		if n >= len(conns) {
			return nil
		}
		return conns[n]
	}
}

func TestConnectSendsAuthenticateAndFiresConnected(t *testing.T) {
	s, conn := newTestSession(t)

	var connected bool
	var mu sync.Mutex
	s.Events().OnConnected(func() {
		mu.Lock()
		connected = true
		mu.Unlock()
	})

	s.Connect(testIdentity())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return connected
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		c := conn(0)
		return c != nil && len(c.writtenEvents()) == 1 &&
			c.writtenEvents()[0] == requestAuthenticate
	}, time.Second, 10*time.Millisecond)
	assert.True(t, s.Connected())
}

func TestConnectTwiceTearsDownFirstConnection(t *testing.T) {
	s, conn := newTestSession(t)

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	s.Connect(testIdentity())

	assert.Eventually(t, func() bool {
		first, second := conn(0), conn(1)
		return first != nil && first.isClosed() &&
			second != nil && !second.isClosed()
	}, time.Second, 10*time.Millisecond)
	assert.True(t, s.Connected())
}

func TestAuthenticateWithoutConnectionFailsLoudly(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	var failure error
	s.Events().OnAuthenticationFailed(func(err error) {
		mu.Lock()
		failure = err
		mu.Unlock()
	})

	s.Authenticate(testIdentity())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failure != nil
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.True(t, IsAuthError(failure))
	mu.Unlock()

	// No connection is silently created.
	assert.False(t, s.Connected())
	assert.Nil(t, conn(0))
}

func TestServerEventsReachListenersInOrder(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	var order []string
	var single model.Notification
	var batch []model.Notification
	var count int

	s.Events().OnAuthenticated(func(AuthInfo) {
		mu.Lock()
		order = append(order, "auth")
		mu.Unlock()
	})
	s.Events().OnNotification(func(n model.Notification) {
		mu.Lock()
		order = append(order, "single")
		single = n
		mu.Unlock()
	})
	s.Events().OnNotificationBatch(func(ns []model.Notification) {
		mu.Lock()
		order = append(order, "batch")
		batch = ns
		mu.Unlock()
	})
	s.Events().OnUnreadCount(func(c int) {
		mu.Lock()
		order = append(order, "count")
		count = c
		mu.Unlock()
	})

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	c := conn(0)
	c.serverPush(t, eventAuthenticated, AuthInfo{UserID: "admin_1", Role: "ADMIN"})
	c.serverPush(t, eventNewNotification, model.Notification{ID: "n1", Kind: model.KindTicketMessage})
	c.serverPush(t, eventAllNotifications, []model.Notification{{ID: "n1"}, {ID: "n2"}})
	c.serverPush(t, eventUnreadCount, countData{Count: 7})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 4
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"auth", "single", "batch", "count"}, order)
	assert.Equal(t, "n1", single.ID)
	assert.Len(t, batch, 2)
	assert.Equal(t, 7, count)
}

func TestUnreadCountAcceptsBareInteger(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	count := -1
	s.Events().OnUnreadCount(func(c int) {
		mu.Lock()
		count = c
		mu.Unlock()
	})

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	conn(0).serverPush(t, eventUnreadCount, 3)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 3
	}, time.Second, 10*time.Millisecond)
}

func TestMarkReadResultCarriesRequestError(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	var results []MarkReadResult
	s.Events().OnMarkReadResult(func(r MarkReadResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	c := conn(0)
	c.serverPush(t, eventMarkReadSuccess, markReadResultData{NotificationID: "n1"})
	c.serverPush(t, eventMarkReadError, markReadResultData{NotificationID: "n2", Message: "not yours"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "n1", results[0].NotificationID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "n2", results[1].NotificationID)
	require.Error(t, results[1].Err)
	var reqErr *RequestError
	assert.ErrorAs(t, results[1].Err, &reqErr)
}

func TestAuthenticationErrorEvent(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	var failure error
	s.Events().OnAuthenticationFailed(func(err error) {
		mu.Lock()
		failure = err
		mu.Unlock()
	})

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	conn(0).serverPush(t, eventAuthenticationError, authErrorData{Message: "bad credential"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failure != nil && IsAuthError(failure)
	}, time.Second, 10*time.Millisecond)
}

func TestUnexpectedDropFiresDisconnected(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	var reason string
	s.Events().OnDisconnected(func(r string) {
		mu.Lock()
		reason = r
		mu.Unlock()
	})

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	// Server drops the connection.
	conn(0).Close()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reason != ""
	}, time.Second, 10*time.Millisecond)
	assert.False(t, s.Connected())
}

func TestDisconnectIsIdempotentAndSilent(t *testing.T) {
	s, conn := newTestSession(t)

	var mu sync.Mutex
	fired := false
	s.Events().OnDisconnected(func(string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	s.Disconnect()
	s.Disconnect()
	assert.False(t, s.Connected())
	assert.True(t, conn(0).isClosed())

	// Caller-initiated disconnects never fire the drop event.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.False(t, fired)
	mu.Unlock()
}

func TestDialFailureSurfacesConnectionError(t *testing.T) {
	s := NewSession("ws://test", zap.NewNop())
	t.Cleanup(s.Close)
	s.dial = func(string) (wsConn, error) {
		return nil, errors.New("refused")
	}

	var mu sync.Mutex
	var transportErr error
	s.Events().OnTransportError(func(err error) {
		mu.Lock()
		transportErr = err
		mu.Unlock()
	})

	s.Connect(testIdentity())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		var connErr *ConnectionError
		return transportErr != nil && errors.As(transportErr, &connErr)
	}, time.Second, 10*time.Millisecond)
	assert.False(t, s.Connected())
}

func TestFireAndForgetRequests(t *testing.T) {
	s, conn := newTestSession(t)

	s.Connect(testIdentity())
	require.Eventually(t, s.Connected, time.Second, 10*time.Millisecond)

	s.MarkRead("n1")
	s.RequestAll()
	s.RequestUnread()
	s.RequestByKind(model.KindPaymentRequest)

	assert.Eventually(t, func() bool {
		return len(conn(0).writtenEvents()) == 5
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{
		requestAuthenticate,
		requestMarkRead,
		requestGetAll,
		requestGetUnread,
		requestGetByType,
	}, conn(0).writtenEvents())
}
