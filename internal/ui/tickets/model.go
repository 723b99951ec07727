// Package tickets is the support ticket view: a paged ticket listing
// and, per ticket, the full message thread with inline reply.
package tickets

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/theme"
)

const loadTimeout = 15 * time.Second

// LoadedMsg is sent when a page of tickets has been fetched.
type LoadedMsg struct {
	Page *model.TicketPage
	Err  error
}

// ThreadLoadedMsg delivers a ticket's message thread.
type ThreadLoadedMsg struct {
	TicketID string
	Messages []model.TicketMessage
	Err      error
}

// ReplySentMsg is sent after a reply or close request.
type ReplySentMsg struct {
	TicketID string
	Closed   bool
	Err      error
}

type ticketItem struct {
	Ticket model.Ticket
}

func (i ticketItem) FilterValue() string { return i.Ticket.Subject }

type ticketDelegate struct{}

func (d ticketDelegate) Height() int                             { return 1 }
func (d ticketDelegate) Spacing() int                            { return 0 }
func (d ticketDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d ticketDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(ticketItem)
	if !ok {
		return
	}
	t := ti.Ticket

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status)
	line := fmt.Sprintf("%s  %s  %s", statusBadge, t.Subject, t.OpenedBy)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the ticket view component. It owns two sub-views: the
// ticket listing and the thread of the opened ticket.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	threadMode bool
	ticket     model.Ticket
	thread     viewport.Model
	replyMode  bool
	replyIn    textinput.Model

	page     int
	pageSize int
	total    int
	width    int
	height   int
}

// New creates the ticket view.
func New(client *api.Client, k *keys.KeyMap, pageSize, width, height int) Model {
	l := list.New([]list.Item{}, ticketDelegate{}, width, height-2)
	l.Title = "Tickets"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	ri := textinput.New()
	ri.Placeholder = "type a reply..."
	ri.Prompt = "> "
	ri.Width = width - 4

	vp := viewport.New(width, height-4)

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		thread:   vp,
		replyIn:  ri,
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

// Update handles messages for the ticket view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil || msg.Page == nil {
			return m, nil
		}
		m.total = msg.Page.Total
		items := make([]list.Item, len(msg.Page.Tickets))
		for i, t := range msg.Page.Tickets {
			items[i] = ticketItem{Ticket: t}
		}
		return m, m.list.SetItems(items)

	case ThreadLoadedMsg:
		if msg.Err != nil || msg.TicketID != m.ticket.ID {
			return m, nil
		}
		m.thread.SetContent(m.renderThread(msg.Messages))
		m.thread.GotoBottom()
		return m, nil

	case ReplySentMsg:
		if msg.Err != nil {
			return m, nil
		}
		if msg.Closed {
			m.threadMode = false
			return m, m.Load()
		}
		return m, m.loadThreadCmd(msg.TicketID)

	case tea.KeyMsg:
		if m.threadMode {
			return m.handleThreadKeys(msg)
		}
		return m.handleListKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
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

	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ticketItem)
		if !ok {
			return m, nil
		}
		m.threadMode = true
		m.ticket = item.Ticket
		m.thread.SetContent(theme.HelpStyle.Render("loading thread..."))
		return m, m.loadThreadCmd(item.Ticket.ID)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleThreadKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.replyMode {
		switch msg.String() {
		case "enter":
			m.replyMode = false
			body := strings.TrimSpace(m.replyIn.Value())
			m.replyIn.Reset()
			if body == "" {
				return m, nil
			}
			return m, m.replyCmd(m.ticket.ID, body)

		case "esc":
			m.replyMode = false
			m.replyIn.Reset()
			return m, nil
		}

		var cmd tea.Cmd
		m.replyIn, cmd = m.replyIn.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.threadMode = false
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.ticket.Status == model.TicketStatusClosed {
			return m, nil
		}
		m.replyMode = true
		return m, m.replyIn.Focus()

	case key.Matches(msg, m.keys.Reject):
		if m.ticket.Status == model.TicketStatusClosed {
			return m, nil
		}
		return m, m.closeCmd(m.ticket.ID)
	}

	var cmd tea.Cmd
	m.thread, cmd = m.thread.Update(msg)
	return m, cmd
}

// Capturing reports whether the view owns raw text input, so global
// shortcuts stay inactive.
func (m Model) Capturing() bool { return m.replyMode }

// Load returns a tea.Cmd that fetches the current ticket page.
func (m Model) Load() tea.Cmd {
	client := m.client
	page, pageSize := m.page, m.pageSize
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		p, err := client.ListTickets(ctx, page, pageSize, "")
		return LoadedMsg{Page: p, Err: err}
	}
}

func (m Model) loadThreadCmd(ticketID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		msgs, err := client.TicketMessages(ctx, ticketID)
		return ThreadLoadedMsg{TicketID: ticketID, Messages: msgs, Err: err}
	}
}

func (m Model) replyCmd(ticketID, body string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := client.ReplyTicket(ctx, ticketID, body)
		return ReplySentMsg{TicketID: ticketID, Err: err}
	}
}

func (m Model) closeCmd(ticketID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := client.CloseTicket(ctx, ticketID)
		return ReplySentMsg{TicketID: ticketID, Closed: true, Err: err}
	}
}

// OpenTicket jumps straight into a ticket's thread. Used for
// notification deep links.
func (m *Model) OpenTicket(ticketID string) tea.Cmd {
	m.threadMode = true
	m.ticket = model.Ticket{ID: ticketID, Subject: ticketID}
	m.thread.SetContent(theme.HelpStyle.Render("loading thread..."))
	return m.loadThreadCmd(ticketID)
}

// renderThread formats the message thread, admin replies aligned with
// a distinct color.
func (m Model) renderThread(msgs []model.TicketMessage) string {
	var b strings.Builder
	for _, msg := range msgs {
		author := msg.Author
		style := lipgloss.NewStyle().Foreground(theme.ColorWhite)
		if msg.FromAdmin {
			style = lipgloss.NewStyle().Foreground(theme.ColorBlue)
		}
		b.WriteString(style.Bold(true).Render(author))
		b.WriteString(theme.HelpStyle.Render("  " + msg.CreatedAt.Format("Jan 02 15:04")))
		b.WriteString("\n")
		b.WriteString(style.Render(msg.Body))
		b.WriteString("\n\n")
	}
	return b.String()
}

// View renders the ticket list or the opened thread.
func (m Model) View() string {
	if !m.threadMode {
		return m.list.View()
	}

	header := theme.HeaderStyle.Render(m.ticket.Subject) + " " +
		theme.StatusStyle(m.ticket.Status).Render(m.ticket.Status)

	parts := []string{header, m.thread.View()}
	if m.replyMode {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.replyIn.View()))
	} else {
		parts = append(parts, theme.HelpStyle.Render(
			"enter: reply  x: close ticket  esc: back"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.thread.Width = width
	m.thread.Height = height - 4
	m.replyIn.Width = width - 4
}
