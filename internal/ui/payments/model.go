// Package payments is the payment verification queue: pending buyer
// payments the admin verifies or rejects. Rejection prompts for a
// reason inline.
package payments

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/theme"
)

const loadTimeout = 15 * time.Second

// LoadedMsg is sent when a page of payments has been fetched.
type LoadedMsg struct {
	Page *model.PaymentPage
	Err  error
}

// ActionDoneMsg is sent after a verify or reject request.
type ActionDoneMsg struct {
	PaymentID string
	Action    string
	Err       error
}

// paymentItem wraps a model.Payment for use in a bubbles/list.
type paymentItem struct {
	Payment model.Payment
}

func (i paymentItem) FilterValue() string { return i.Payment.Reference }

type paymentDelegate struct{}

func (d paymentDelegate) Height() int                             { return 1 }
func (d paymentDelegate) Spacing() int                            { return 0 }
func (d paymentDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d paymentDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(paymentItem)
	if !ok {
		return
	}
	p := pi.Payment

	statusBadge := theme.StatusStyle(p.Status).Render(p.Status)
	line := fmt.Sprintf("%s  %s  %s via %s  %.2f %s",
		p.OrderID, statusBadge, p.PayerName, p.Method, p.Amount, p.Currency)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the payment queue view component.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	rejectMode bool
	rejectID   string
	reasonIn   textinput.Model

	page     int
	pageSize int
	total    int
	width    int
	height   int
}

// New creates the payment view.
func New(client *api.Client, k *keys.KeyMap, pageSize, width, height int) Model {
	l := list.New([]list.Item{}, paymentDelegate{}, width, height-2)
	l.Title = "Payments"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	ri := textinput.New()
	ri.Placeholder = "rejection reason..."
	ri.Prompt = "reject: "
	ri.Width = width - 4

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		reasonIn: ri,
		page:     1,
		pageSize: pageSize,
		width:    width,
		height:   height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the payment view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil || msg.Page == nil {
			return m, nil
		}
		m.total = msg.Page.Total
		items := make([]list.Item, len(msg.Page.Payments))
		for i, p := range msg.Page.Payments {
			items[i] = paymentItem{Payment: p}
		}
		return m, m.list.SetItems(items)

	case ActionDoneMsg:
		return m, m.Load()

	case tea.KeyMsg:
		if m.rejectMode {
			return m.handleRejectKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleRejectKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.rejectMode = false
		reason := m.reasonIn.Value()
		id := m.rejectID
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			err := client.RejectPayment(ctx, id, reason)
			return ActionDoneMsg{PaymentID: id, Action: "reject", Err: err}
		}

	case "esc":
		m.rejectMode = false
		m.reasonIn.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.reasonIn, cmd = m.reasonIn.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.NextPage):
		if m.page*m.pageSize >= m.total {
			return m, nil
		}
		m.page++
		return m, m.Load()

	case key.Matches(msg, m.keys.PrevPage):
		if m.page <= 1 {
			return m, nil
		}
		m.page--
		return m, m.Load()

	case key.Matches(msg, m.keys.Approve):
		item, ok := m.list.SelectedItem().(paymentItem)
		if !ok || item.Payment.Status != model.PaymentStatusPending {
			return m, nil
		}
		id := item.Payment.ID
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			err := client.VerifyPayment(ctx, id)
			return ActionDoneMsg{PaymentID: id, Action: "verify", Err: err}
		}

	case key.Matches(msg, m.keys.Reject):
		item, ok := m.list.SelectedItem().(paymentItem)
		if !ok || item.Payment.Status != model.PaymentStatusPending {
			return m, nil
		}
		m.rejectMode = true
		m.rejectID = item.Payment.ID
		m.reasonIn.Reset()
		return m, m.reasonIn.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Capturing reports whether the view owns raw text input, so global
// shortcuts stay inactive.
func (m Model) Capturing() bool { return m.rejectMode }

// Load returns a tea.Cmd that fetches the current page.
func (m Model) Load() tea.Cmd {
	client := m.client
	page, pageSize := m.page, m.pageSize
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		p, err := client.ListPayments(ctx, page, pageSize, "")
		return LoadedMsg{Page: p, Err: err}
	}
}

// FocusPayment moves the cursor to the payment with the given id, if
// present on the current page. Used for notification deep links.
func (m *Model) FocusPayment(paymentID string) {
	for i, it := range m.list.Items() {
		if pi, ok := it.(paymentItem); ok && pi.Payment.ID == paymentID {
			m.list.Select(i)
			return
		}
	}
}

// View renders the payment queue.
func (m Model) View() string {
	if m.rejectMode {
		bar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.reasonIn.View())
		return lipgloss.JoinVertical(lipgloss.Left, bar, m.list.View())
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.reasonIn.Width = width - 4
}
