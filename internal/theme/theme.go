package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// namedColors resolves the color names the notification display
// adapter emits. Unknown names fall back to gray, matching the
// adapter's unknown-kind handling.
var namedColors = map[string]lipgloss.AdaptiveColor{
	"blue":    ColorBlue,
	"green":   ColorGreen,
	"yellow":  ColorYellow,
	"red":     ColorRed,
	"orange":  ColorOrange,
	"magenta": ColorMagenta,
	"gray":    ColorGray,
}

// ColorFor returns the adaptive color for a named color.
func ColorFor(name string) lipgloss.AdaptiveColor {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return ColorGray
}

// HeaderStyle is used for the top bar with the application title and
// the connection badge.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// BadgeStyle renders the unread notification counter in the header.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// PanelStyle wraps a bordered content panel.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// UnreadItemStyle emphasizes unread notifications in the panel.
var UnreadItemStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// ReadItemStyle de-emphasizes acknowledged notifications.
var ReadItemStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle renders transient error notices in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// statusColors maps backend status strings to colors for the tables.
var statusColors = map[string]lipgloss.AdaptiveColor{
	"PENDING":   ColorYellow,
	"CONFIRMED": ColorBlue,
	"SHIPPING":  ColorOrange,
	"DELIVERED": ColorGreen,
	"CANCELLED": ColorRed,
	"VERIFIED":  ColorGreen,
	"REJECTED":  ColorRed,
	"APPROVED":  ColorGreen,
	"OPEN":      ColorYellow,
	"ANSWERED":  ColorBlue,
	"CLOSED":    ColorGray,
}

// StatusStyle returns a color-coded style for a backend status string.
func StatusStyle(status string) lipgloss.Style {
	if c, ok := statusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(ColorGray)
}
