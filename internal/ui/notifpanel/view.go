package notifpanel

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
	"github.com/ducpham/marketdesk/internal/theme"
)

// View renders the panel for the current mode.
func (m Model) View() string {
	items := m.visible()

	title := m.title()
	lines := make([]string, 0, len(items)+2)
	lines = append(lines, theme.HeaderStyle.Render(title))

	if len(items) == 0 {
		lines = append(lines, theme.HelpStyle.Render(m.emptyText()))
	}

	now := m.now()
	for i, rec := range items {
		dn := notify.Display(rec, m.store.UserID(), now)
		lines = append(lines, m.renderItem(dn, i == m.cursor))
	}

	if m.mode == modePreview && m.store.Len() > previewLimit {
		lines = append(lines, theme.HelpStyle.Render(
			fmt.Sprintf("a: show all (%d)", m.store.Len())))
	}
	if m.mode == modeHistory {
		page := m.histPage + 1
		pages := (m.histTotal + historyPageSize - 1) / historyPageSize
		if pages < 1 {
			pages = 1
		}
		lines = append(lines, theme.HelpStyle.Render(
			fmt.Sprintf("page %d/%d  h/l to page  f to filter", page, pages)))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) title() string {
	switch m.mode {
	case modeAll:
		return fmt.Sprintf("Notifications (%d unread)", m.store.UnreadCount())
	case modeHistory:
		if m.histKind != "" {
			return fmt.Sprintf("History · %s (%d archived)", m.histKind, m.histTotal)
		}
		return fmt.Sprintf("History (%d archived)", m.histTotal)
	default:
		return fmt.Sprintf("Notifications (%d unread)", m.store.UnreadCount())
	}
}

func (m Model) emptyText() string {
	if m.mode == modeHistory {
		return "No archived notifications."
	}
	return "No notifications."
}

// renderItem draws one notification line: icon, title, relative age.
// Unread entries are emphasized, read ones dimmed.
func (m Model) renderItem(dn model.DisplayNotification, selected bool) string {
	icon := lipgloss.NewStyle().
		Foreground(theme.ColorFor(dn.Color)).
		Render(dn.Icon)

	var body string
	if dn.Read {
		body = theme.ReadItemStyle.Render(dn.Title)
	} else {
		body = theme.UnreadItemStyle.Render(dn.Title)
	}

	age := theme.HelpStyle.Render(dn.TimeAgo)
	line := fmt.Sprintf("%s %s  %s", icon, body, age)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
