package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ducpham/marketdesk/internal/model"
)

func TestMultipleListenersAllReceive(t *testing.T) {
	var e Events

	var a, b []int
	e.OnUnreadCount(func(c int) { a = append(a, c) })
	e.OnUnreadCount(func(c int) { b = append(b, c) })

	e.unreadCount.emit(1)
	e.unreadCount.emit(2)

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	var e Events

	var got []string
	unsub := e.OnNotification(func(n model.Notification) {
		got = append(got, n.ID)
	})

	e.notification.emit(model.Notification{ID: "n1"})
	unsub()
	e.notification.emit(model.Notification{ID: "n2"})

	assert.Equal(t, []string{"n1"}, got)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	var e Events

	calls := 0
	unsub := e.OnConnected(func() { calls++ })
	other := e.OnConnected(func() { calls++ })

	unsub()
	unsub()
	e.connected.emit(struct{}{})

	assert.Equal(t, 1, calls)
	other()
}

func TestListenerMayUnsubscribeItself(t *testing.T) {
	var e Events

	calls := 0
	var unsub func()
	unsub = e.OnDisconnected(func(string) {
		calls++
		unsub()
	})

	e.disconnected.emit("gone")
	e.disconnected.emit("gone again")

	assert.Equal(t, 1, calls)
}
