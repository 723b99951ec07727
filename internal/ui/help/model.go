// Package help renders the keyboard shortcut overlay.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/theme"
)

// Model is the help overlay component.
type Model struct {
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates the help overlay.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

type section struct {
	title    string
	bindings []key.Binding
}

// View renders the shortcut listing grouped by concern.
func (m Model) View() string {
	sections := []section{
		{"Views", []key.Binding{
			m.keys.Notifications, m.keys.Orders, m.keys.Payments,
			m.keys.Withdrawals, m.keys.Tickets, m.keys.Commissions,
			m.keys.Settings, m.keys.Admins,
		}},
		{"Navigation", []key.Binding{
			m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Back,
			m.keys.NextPage, m.keys.PrevPage,
		}},
		{"Notifications", []key.Binding{
			m.keys.MarkRead, m.keys.MarkAllRead, m.keys.ToggleAll,
			m.keys.History, m.keys.Filter,
		}},
		{"Actions", []key.Binding{
			m.keys.Approve, m.keys.Reject, m.keys.Refresh,
		}},
		{"General", []key.Binding{
			m.keys.Help, m.keys.Quit,
		}},
	}

	var b strings.Builder
	for _, s := range sections {
		b.WriteString(theme.HeaderStyle.Render(s.title))
		b.WriteString("\n")
		for _, binding := range s.bindings {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-8s %s\n",
				h.Key, theme.HelpStyle.Render(h.Desc)))
		}
		b.WriteString("\n")
	}

	return theme.PanelStyle.
		Width(min(m.width-4, 48)).
		Render(strings.TrimRight(b.String(), "\n"))
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
