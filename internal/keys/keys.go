package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// View switching
	Notifications key.Binding
	Orders        key.Binding
	Payments      key.Binding
	Withdrawals   key.Binding
	Tickets       key.Binding
	Commissions   key.Binding
	Settings      key.Binding
	Admins        key.Binding

	// Notification panel
	MarkRead    key.Binding
	MarkAllRead key.Binding
	ToggleAll   key.Binding
	History     key.Binding

	// Pagination
	NextPage key.Binding
	PrevPage key.Binding

	// Kind filter (history view)
	Filter key.Binding

	// Manual refresh
	Refresh key.Binding

	// Row actions (approve/verify, reject, reply...)
	Approve key.Binding
	Reject  key.Binding

	// Help toggle
	Help key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Orders: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "orders"),
		),
		Payments: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "payments"),
		),
		Withdrawals: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "withdrawals"),
		),
		Tickets: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "tickets"),
		),
		Commissions: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "commissions"),
		),
		Settings: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "settings"),
		),
		Admins: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "admins"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "show all"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev page"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter kind"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Approve: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "approve/verify"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
