package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/realtime"
)

// Messages bridged from the realtime session into the Bubble Tea
// loop.
type (
	connectedMsg    struct{}
	disconnectedMsg struct{ reason string }
	authedMsg       struct{ info realtime.AuthInfo }
	authFailedMsg   struct{ err error }
	pushedMsg       struct{ rec model.Notification }
	pushedBatchMsg  struct{ recs []model.Notification }
	unreadPushMsg   struct{ count int }
	transportErrMsg struct{ err error }
)

// reconnectMsg fires after the backoff wait, asking for a redial.
type reconnectMsg struct{}

// reconnectGaveUpMsg fires when the backoff policy is exhausted.
type reconnectGaveUpMsg struct{}

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	resp *model.LoginResponse
	err  error
}

// archivedMsg reports a background archive write.
type archivedMsg struct{ err error }

// eventBridge forwards session events into a channel the Bubble Tea
// loop drains with a waiting command. Sends never block: if the UI is
// badly behind, newer events win and the store still has the data.
type eventBridge struct {
	ch chan tea.Msg
}

func newEventBridge() *eventBridge {
	return &eventBridge{ch: make(chan tea.Msg, 64)}
}

// subscribe registers the bridge on every session event.
func (b *eventBridge) subscribe(events *realtime.Events) {
	events.OnConnected(func() { b.push(connectedMsg{}) })
	events.OnDisconnected(func(reason string) { b.push(disconnectedMsg{reason: reason}) })
	events.OnAuthenticated(func(info realtime.AuthInfo) { b.push(authedMsg{info: info}) })
	events.OnAuthenticationFailed(func(err error) { b.push(authFailedMsg{err: err}) })
	events.OnNotification(func(rec model.Notification) { b.push(pushedMsg{rec: rec}) })
	events.OnNotificationBatch(func(recs []model.Notification) { b.push(pushedBatchMsg{recs: recs}) })
	events.OnUnreadCount(func(count int) { b.push(unreadPushMsg{count: count}) })
	events.OnTransportError(func(err error) { b.push(transportErrMsg{err: err}) })
}

func (b *eventBridge) push(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

// wait returns a tea.Cmd that delivers the next bridged event. The
// app re-issues it after every delivery.
func (b *eventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}
