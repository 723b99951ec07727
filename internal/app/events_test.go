package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducpham/marketdesk/internal/model"
)

func TestBridgeDeliversInOrder(t *testing.T) {
	b := newEventBridge()

	b.push(connectedMsg{})
	b.push(unreadPushMsg{count: 3})
	b.push(disconnectedMsg{reason: "gone"})

	assert.Equal(t, connectedMsg{}, b.wait()())
	assert.Equal(t, unreadPushMsg{count: 3}, b.wait()())
	assert.Equal(t, disconnectedMsg{reason: "gone"}, b.wait()())
}

func TestBridgeDropsWhenFullInsteadOfBlocking(t *testing.T) {
	b := &eventBridge{ch: make(chan tea.Msg, 2)}

	b.push(unreadPushMsg{count: 1})
	b.push(unreadPushMsg{count: 2})
	b.push(unreadPushMsg{count: 3}) // must not block

	assert.Equal(t, unreadPushMsg{count: 1}, b.wait()())
	assert.Equal(t, unreadPushMsg{count: 2}, b.wait()())
	select {
	case msg := <-b.ch:
		t.Fatalf("expected overflow to be dropped, got %#v", msg)
	default:
	}
}

func TestReconnectPolicyStaysWithinBoundsAndResets(t *testing.T) {
	p := newReconnectPolicy(model.RealtimeConfig{
		ReconnectInitialSec: 2,
		ReconnectMaxSec:     10,
		FallbackPollSec:     30,
	})

	// Randomization keeps exact values unpredictable, but every
	// interval stays positive and under max plus jitter.
	for i := 0; i < 20; i++ {
		d := p.bo.NextBackOff()
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 15*time.Second)
	}

	p.reset()
	d := p.bo.NextBackOff()
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 3*time.Second)
}
