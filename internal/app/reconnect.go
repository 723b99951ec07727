package app

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ducpham/marketdesk/internal/model"
)

// reconnectPolicy decides when to redial after an unexpected drop.
// The session itself never reconnects; that is an application
// decision, and login/logout flows must be able to suppress it.
type reconnectPolicy struct {
	bo *backoff.ExponentialBackOff
}

func newReconnectPolicy(cfg model.RealtimeConfig) *reconnectPolicy {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(cfg.ReconnectInitialSec) * time.Second
	bo.MaxInterval = time.Duration(cfg.ReconnectMaxSec) * time.Second
	// Keep retrying until explicitly reset; the fallback poller covers
	// delivery in the meantime.
	bo.MaxElapsedTime = 0
	bo.Reset()
	return &reconnectPolicy{bo: bo}
}

// reset restores the initial interval after a successful
// authentication.
func (p *reconnectPolicy) reset() {
	p.bo.Reset()
}

// waitCmd sleeps for the next backoff interval, then asks the app to
// redial.
func (p *reconnectPolicy) waitCmd() tea.Cmd {
	d := p.bo.NextBackOff()
	if d == backoff.Stop {
		return func() tea.Msg { return reconnectGaveUpMsg{} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}
