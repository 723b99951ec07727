// Package login is the sign-in form shown before the dashboard.
package login

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/theme"
)

// SubmitMsg carries the entered credentials to the app.
type SubmitMsg struct {
	Email    string
	Password string
}

// CancelMsg is sent when the user aborts the form.
type CancelMsg struct{}

// formBindings holds field values on the heap so huh's Value()
// pointers stay valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
}

// Model is the login form component.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	notice string
	width  int
	height int
}

// New creates the login form.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetNotice shows an error line above the form, e.g. after a rejected
// login, and resets the form for another attempt.
func (m *Model) SetNotice(notice string) tea.Cmd {
	m.notice = notice
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		email, password := m.fb.email, m.fb.password
		return m, func() tea.Msg {
			return SubmitMsg{Email: email, Password: password}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the login form.
func (m Model) View() string {
	parts := []string{theme.HeaderStyle.Render("marketdesk sign in")}
	if m.notice != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.notice))
	}
	parts = append(parts, m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@market.example.com").
			Value(&m.fb.email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password),
	)).WithWidth(min(m.width-4, 60))
}
