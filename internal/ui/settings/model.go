// Package settings edits platform-wide feature toggles.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/theme"
)

const loadTimeout = 15 * time.Second

// LoadedMsg delivers the platform settings.
type LoadedMsg struct {
	Settings []model.PlatformSetting
	Err      error
}

// ToggledMsg is sent after a setting update request.
type ToggledMsg struct {
	Key string
	Err error
}

// Model is the platform settings view component.
type Model struct {
	client *api.Client
	keys   *keys.KeyMap

	settings []model.PlatformSetting
	cursor   int

	width  int
	height int
}

// New creates the settings view.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads the settings.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a tea.Cmd that fetches the settings.
func (m Model) Load() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		s, err := client.PlatformSettings(ctx)
		return LoadedMsg{Settings: s, Err: err}
	}
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.settings = msg.Settings
		if m.cursor >= len(m.settings) {
			m.cursor = 0
		}
		return m, nil

	case ToggledMsg:
		return m, m.Load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.settings)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		case key.Matches(msg, m.keys.Select):
			if m.cursor >= len(m.settings) {
				return m, nil
			}
			s := m.settings[m.cursor]
			// Flip optimistically; the reload after ToggledMsg shows
			// the backend's actual state.
			m.settings[m.cursor].Enabled = !s.Enabled
			return m, m.toggleCmd(s.Key, !s.Enabled)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) toggleCmd(settingKey string, enabled bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := client.UpdatePlatformSetting(ctx, settingKey, enabled)
		return ToggledMsg{Key: settingKey, Err: err}
	}
}

// View renders the settings list.
func (m Model) View() string {
	lines := []string{theme.HeaderStyle.Render("Platform Settings")}
	if len(m.settings) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No settings loaded. r: refresh"))
	}
	for i, s := range m.settings {
		mark := "[ ]"
		style := theme.ReadItemStyle
		if s.Enabled {
			mark = "[x]"
			style = lipgloss.NewStyle().Foreground(theme.ColorGreen)
		}
		line := fmt.Sprintf("%s %s", style.Render(mark), s.Label)
		if s.Description != "" {
			line += theme.HelpStyle.Render("  " + s.Description)
		}
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, theme.HelpStyle.Render("enter: toggle  r: refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
