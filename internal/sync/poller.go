// Package sync pulls notifications over REST while the push channel
// is down, keeping the in-memory store populated from the fallback
// path.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
)

// fetchTimeout is the maximum time allowed for a single fetch cycle.
const fetchTimeout = 30 * time.Second

// NotificationFetcher is the REST surface the poller pulls from.
// Satisfied by *api.Client.
type NotificationFetcher interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	UnreadNotificationCount(ctx context.Context) (int, error)
}

// ResultMsg is a tea.Msg sent after each fallback poll cycle.
type ResultMsg struct {
	Ingested    int
	ServerCount int
	Err         error
}

// Poller periodically fetches the notification list and unread count
// over REST and merges the batch into the store. It runs only while
// resumed: the app pauses it whenever the realtime session is
// authenticated, so the push and pull paths never race for freshness
// (the store's upsert semantics make overlap harmless regardless).
type Poller struct {
	fetcher  NotificationFetcher
	store    *notify.Store
	interval time.Duration

	resultCh  chan ResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	paused  bool
}

// New creates a poller over the given fetcher and store.
func New(fetcher NotificationFetcher, store *notify.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		fetcher:   fetcher,
		store:     store,
		interval:  interval,
		resultCh:  make(chan ResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that
// waits for the first result. Calling Start twice is a no-op.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()
	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Pause suspends polling while the push channel is healthy.
func (p *Poller) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume re-enables polling and triggers an immediate fetch so the
// store catches up on anything missed while the socket was the
// delivery path.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()

	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Trigger requests an immediate fetch regardless of the interval.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll
// result. Call it after processing a ResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.resultCh:
			return msg
		case <-p.stopCh:
			return nil
		}
	}
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial fetch so a cold start with a dead socket still shows
	// notifications.
	p.fetchOnce()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchOnce()
		case <-p.triggerCh:
			p.fetchOnce()
		}
	}
}

// fetchOnce pulls the list and count and merges the batch into the
// store. Skipped while paused.
func (p *Poller) fetchOnce() {
	p.mu.Lock()
	paused := p.paused
	p.mu.Unlock()
	if paused {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	recs, err := p.fetcher.ListNotifications(ctx)
	if err != nil {
		p.sendResult(ResultMsg{Err: err})
		return
	}

	p.store.IngestBatch(recs)

	count, err := p.fetcher.UnreadNotificationCount(ctx)
	if err != nil {
		// The batch still landed; report the partial failure.
		p.sendResult(ResultMsg{Ingested: len(recs), Err: err})
		return
	}

	p.sendResult(ResultMsg{Ingested: len(recs), ServerCount: count})
}

// sendResult sends without blocking the poll loop.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}
