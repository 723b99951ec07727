// Package withdrawals is the seller payout queue: pending withdrawal
// requests the admin approves or rejects with a note.
package withdrawals

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

// LoadedMsg is sent when a page of withdrawals has been fetched.
type LoadedMsg struct {
	Page *model.WithdrawalPage
	Err  error
}

// ActionDoneMsg is sent after an approve or reject request.
type ActionDoneMsg struct {
	WithdrawalID string
	Action       string
	Err          error
}

type withdrawalItem struct {
	Withdrawal model.Withdrawal
}

func (i withdrawalItem) FilterValue() string { return i.Withdrawal.SellerName }

type withdrawalDelegate struct{}

func (d withdrawalDelegate) Height() int                             { return 1 }
func (d withdrawalDelegate) Spacing() int                            { return 0 }
func (d withdrawalDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d withdrawalDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	wi, ok := item.(withdrawalItem)
	if !ok {
		return
	}
	wd := wi.Withdrawal

	statusBadge := theme.StatusStyle(wd.Status).Render(wd.Status)
	line := fmt.Sprintf("%s  %s  %s %s  %.2f %s",
		wd.SellerName, statusBadge, wd.BankName, wd.AccountNo,
		wd.Amount, wd.Currency)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the withdrawal queue view component.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	rejectMode bool
	rejectID   string
	noteIn     textinput.Model

	page     int
	pageSize int
	total    int
	width    int
	height   int
}

// New creates the withdrawal view.
func New(client *api.Client, k *keys.KeyMap, pageSize, width, height int) Model {
	l := list.New([]list.Item{}, withdrawalDelegate{}, width, height-2)
	l.Title = "Withdrawals"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	ni := textinput.New()
	ni.Placeholder = "rejection note..."
	ni.Prompt = "reject: "
	ni.Width = width - 4

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		noteIn:   ni,
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

// Update handles messages for the withdrawal view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil || msg.Page == nil {
			return m, nil
		}
		m.total = msg.Page.Total
		items := make([]list.Item, len(msg.Page.Withdrawals))
		for i, wd := range msg.Page.Withdrawals {
			items[i] = withdrawalItem{Withdrawal: wd}
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
		note := m.noteIn.Value()
		id := m.rejectID
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			err := client.RejectWithdrawal(ctx, id, note)
			return ActionDoneMsg{WithdrawalID: id, Action: "reject", Err: err}
		}

	case "esc":
		m.rejectMode = false
		m.noteIn.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.noteIn, cmd = m.noteIn.Update(msg)
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
		item, ok := m.list.SelectedItem().(withdrawalItem)
		if !ok || item.Withdrawal.Status != model.WithdrawStatusPending {
			return m, nil
		}
		id := item.Withdrawal.ID
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			err := client.ApproveWithdrawal(ctx, id)
			return ActionDoneMsg{WithdrawalID: id, Action: "approve", Err: err}
		}

	case key.Matches(msg, m.keys.Reject):
		item, ok := m.list.SelectedItem().(withdrawalItem)
		if !ok || item.Withdrawal.Status != model.WithdrawStatusPending {
			return m, nil
		}
		m.rejectMode = true
		m.rejectID = item.Withdrawal.ID
		m.noteIn.Reset()
		return m, m.noteIn.Focus()
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

		p, err := client.ListWithdrawals(ctx, page, pageSize, "")
		return LoadedMsg{Page: p, Err: err}
	}
}

// FocusWithdrawal moves the cursor to the withdrawal with the given
// id, if present on the current page.
func (m *Model) FocusWithdrawal(withdrawalID string) {
	for i, it := range m.list.Items() {
		if wi, ok := it.(withdrawalItem); ok && wi.Withdrawal.ID == withdrawalID {
			m.list.Select(i)
			return
		}
	}
}

// View renders the withdrawal queue.
func (m Model) View() string {
	if m.rejectMode {
		bar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.noteIn.View())
		return lipgloss.JoinVertical(lipgloss.Left, bar, m.list.View())
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.noteIn.Width = width - 4
}
