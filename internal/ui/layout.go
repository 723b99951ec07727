package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/theme"
)

// Layout manages the terminal frame: header with connection state and
// unread badge, content area, status bar with key hints.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content
// area, accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar: view title on the left, unread
// badge and connection state on the right.
func (l Layout) RenderHeader(title string, unread int, connState string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	badge := ""
	if unread > 0 {
		badge = theme.BadgeStyle.Render(fmt.Sprintf("● %d", unread))
	}
	connRendered := theme.HeaderStyle.Render(connState)
	right := lipgloss.JoinHorizontal(lipgloss.Top, badge, connRendered)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		right,
	)
}

// RenderStatusBar renders the bottom status bar. A non-empty notice
// (e.g. a transient error) takes precedence over the key hints.
func (l Layout) RenderStatusBar(hints, notice string) string {
	text := hints
	if notice != "" {
		text = theme.ErrorStyle.Render(notice)
	}
	rendered := theme.StatusBarStyle.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
