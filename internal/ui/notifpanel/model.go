// Package notifpanel renders the notification surface: a compact
// preview of the newest notifications, an expanded full list, and the
// archived history. Mark-read actions go through the reconciler so the
// optimistic local flip and the server acknowledgment stay in one
// place.
package notifpanel

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ducpham/marketdesk/internal/archive"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
)

// previewLimit is how many notifications the compact panel shows.
const previewLimit = 3

const actionTimeout = 10 * time.Second

// OpenRouteMsg asks the app to navigate to a notification's target.
type OpenRouteMsg struct {
	Route string
}

// MarkReadResultMsg reports the outcome of a single mark-read action.
type MarkReadResultMsg struct {
	NotificationID string
	Err            error
}

// MarkAllReadResultMsg reports the outcome of mark-all-read.
type MarkAllReadResultMsg struct {
	Marked int
	Err    error
}

// HistoryLoadedMsg delivers a page of archived notifications.
type HistoryLoadedMsg struct {
	Notifications []model.Notification
	Total         int
	Err           error
}

// mode selects which slice of notifications the panel shows.
type mode int

const (
	modePreview mode = iota
	modeAll
	modeHistory
)

const historyPageSize = 20

// Model is the notification panel component.
type Model struct {
	store      *notify.Store
	reconciler *notify.Reconciler
	history    *archive.Archive
	keys       *keys.KeyMap

	mode        mode
	cursor      int
	histPage    int
	histKind    model.NotificationKind
	histEntries []model.Notification
	histTotal   int

	now    func() time.Time
	width  int
	height int
}

// New creates the notification panel.
func New(
	store *notify.Store,
	reconciler *notify.Reconciler,
	history *archive.Archive,
	k *keys.KeyMap,
	width, height int,
) Model {
	return Model{
		store:      store,
		reconciler: reconciler,
		history:    history,
		keys:       k,
		now:        time.Now,
		width:      width,
		height:     height,
	}
}

// visible returns the notifications the current mode shows.
func (m Model) visible() []model.Notification {
	switch m.mode {
	case modePreview:
		return m.store.List(previewLimit)
	case modeAll:
		return m.store.List(0)
	default:
		return m.histEntries
	}
}

// Update handles messages for the notification panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.histEntries = msg.Notifications
		m.histTotal = msg.Total
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Select):
		items := m.visible()
		if m.cursor >= len(items) {
			return m, nil
		}
		rec := items[m.cursor]
		route := notify.RouteFor(rec.Kind, rec.RelatedEntityID())
		// Opening implies acknowledging.
		return m, tea.Batch(
			m.markReadCmd(rec.ID),
			func() tea.Msg { return OpenRouteMsg{Route: route} },
		)

	case key.Matches(msg, m.keys.MarkRead):
		items := m.visible()
		if m.cursor >= len(items) {
			return m, nil
		}
		return m, m.markReadCmd(items[m.cursor].ID)

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllReadCmd()

	case key.Matches(msg, m.keys.ToggleAll):
		if m.mode == modeAll {
			m.mode = modePreview
		} else {
			m.mode = modeAll
		}
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.History):
		if m.mode == modeHistory {
			m.mode = modePreview
			m.cursor = 0
			return m, nil
		}
		m.mode = modeHistory
		m.cursor = 0
		m.histPage = 0
		m.histKind = ""
		return m, m.loadHistoryCmd(0)

	case key.Matches(msg, m.keys.Filter):
		if m.mode != modeHistory {
			return m, nil
		}
		m.histKind = nextHistKind(m.histKind)
		m.histPage = 0
		m.cursor = 0
		return m, m.loadHistoryCmd(0)

	case key.Matches(msg, m.keys.NextPage):
		if m.mode != modeHistory {
			return m, nil
		}
		if (m.histPage+1)*historyPageSize >= m.histTotal {
			return m, nil
		}
		m.histPage++
		m.cursor = 0
		return m, m.loadHistoryCmd(m.histPage)

	case key.Matches(msg, m.keys.PrevPage):
		if m.mode != modeHistory || m.histPage == 0 {
			return m, nil
		}
		m.histPage--
		m.cursor = 0
		return m, m.loadHistoryCmd(m.histPage)
	}

	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// markReadCmd runs the optimistic mark-read through the reconciler.
func (m Model) markReadCmd(id string) tea.Cmd {
	r := m.reconciler
	hist := m.history
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		err := r.MarkRead(ctx, id)
		if hist != nil {
			// History follows the optimistic flip regardless of the
			// server outcome.
			_ = hist.MarkRead(ctx, id)
		}
		return MarkReadResultMsg{NotificationID: id, Err: err}
	}
}

func (m Model) markAllReadCmd() tea.Cmd {
	r := m.reconciler
	hist := m.history
	n := m.store.UnreadCount()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		err := r.MarkAllRead(ctx)
		if hist != nil {
			_ = hist.MarkAllRead(ctx)
		}
		return MarkAllReadResultMsg{Marked: n, Err: err}
	}
}

// nextHistKind cycles the history filter through every kind and back
// to unfiltered.
func nextHistKind(k model.NotificationKind) model.NotificationKind {
	switch k {
	case "":
		return model.KindNewOrder
	case model.KindNewOrder:
		return model.KindPaymentRequest
	case model.KindPaymentRequest:
		return model.KindWithdrawRequest
	case model.KindWithdrawRequest:
		return model.KindTicketMessage
	default:
		return ""
	}
}

func (m Model) loadHistoryCmd(page int) tea.Cmd {
	hist := m.history
	kind := m.histKind
	return func() tea.Msg {
		if hist == nil {
			return HistoryLoadedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		f := archive.Filter{Limit: historyPageSize, Offset: page * historyPageSize}
		if kind != "" {
			f.Kind = &kind
		}
		entries, err := hist.List(ctx, f)
		if err != nil {
			return HistoryLoadedMsg{Err: err}
		}
		total, err := hist.Count(ctx, archive.Filter{Kind: f.Kind})
		if err != nil {
			return HistoryLoadedMsg{Err: err}
		}
		return HistoryLoadedMsg{Notifications: entries, Total: total}
	}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
