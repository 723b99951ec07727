// Package admins manages administrative accounts: listing, creation,
// role changes and removal. Only the backend enforces who may do what;
// this view surfaces its errors verbatim.
package admins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/theme"
)

const loadTimeout = 15 * time.Second

// LoadedMsg delivers the admin account list.
type LoadedMsg struct {
	Admins []model.AdminUser
	Err    error
}

// ChangedMsg is sent after a create, role change or delete request.
type ChangedMsg struct {
	Err error
}

// formBindings holds create-form values on the heap so huh's Value()
// pointers stay valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	fullName string
	role     string
	password string
}

// Model is the admin management view component.
type Model struct {
	client *api.Client
	keys   *keys.KeyMap

	admins []model.AdminUser
	cursor int

	form     *huh.Form
	fb       *formBindings
	roleMode bool

	width  int
	height int
}

// New creates the admin view.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		keys:   k,
		fb:     &formBindings{role: model.RoleSupport},
		width:  width,
		height: height,
	}
}

// Init loads the admin list.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Capturing reports whether a form is active, so global shortcuts
// stay inactive.
func (m Model) Capturing() bool { return m.form != nil }

// Load returns a tea.Cmd that fetches the admin list.
func (m Model) Load() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		admins, err := client.ListAdmins(ctx)
		return LoadedMsg{Admins: admins, Err: err}
	}
}

// Update handles messages for the admin view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.admins = msg.Admins
		if m.cursor >= len(m.admins) {
			m.cursor = 0
		}
		return m, nil

	case ChangedMsg:
		return m, m.Load()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.admins)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.Approve):
		// Create a new admin account.
		*m.fb = formBindings{role: model.RoleSupport}
		m.roleMode = false
		m.form = m.buildCreateForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.admins) {
			return m, nil
		}
		m.fb.role = m.admins[m.cursor].Role
		m.roleMode = true
		m.form = m.buildRoleForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Reject):
		if m.cursor >= len(m.admins) {
			return m, nil
		}
		id := m.admins[m.cursor].ID
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			return ChangedMsg{Err: client.DeleteAdmin(ctx, id)}
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.form = nil
		if m.roleMode {
			return m, m.changeRoleCmd(m.admins[m.cursor].ID, m.fb.role)
		}
		return m, m.createCmd(*m.fb)
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) createCmd(fb formBindings) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		_, err := client.CreateAdmin(ctx, fb.email, fb.fullName, fb.role, fb.password)
		return ChangedMsg{Err: err}
	}
}

func (m Model) changeRoleCmd(adminID, role string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		return ChangedMsg{Err: client.UpdateAdminRole(ctx, adminID, role)}
	}
}

func roleOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Super admin", model.RoleSuperAdmin),
		huh.NewOption("Admin", model.RoleAdmin),
		huh.NewOption("Support", model.RoleSupport),
	}
}

func (m *Model) buildCreateForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("admin@market.example.com").
			Value(&m.fb.email).
			Validate(validateRequired("Email")),
		huh.NewInput().
			Title("Full name").
			Value(&m.fb.fullName).
			Validate(validateRequired("Full name")),
		huh.NewSelect[string]().
			Title("Role").
			Options(roleOptions()...).
			Value(&m.fb.role),
		huh.NewInput().
			Title("Initial password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validateRequired("Password")),
	)).WithWidth(m.width - 4)
}

func (m *Model) buildRoleForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Role for " + m.admins[m.cursor].Email).
			Options(roleOptions()...).
			Value(&m.fb.role),
	)).WithWidth(m.width - 4)
}

// View renders the admin list or the active form.
func (m Model) View() string {
	if m.form != nil {
		title := "New Admin"
		if m.roleMode {
			title = "Change Role"
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.HeaderStyle.Render(title) + "\n" + m.form.View())
	}

	lines := []string{theme.HeaderStyle.Render("Admins")}
	for i, a := range m.admins {
		active := theme.HelpStyle.Render("inactive")
		if a.Active {
			active = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("active")
		}
		line := fmt.Sprintf("%-28s %-12s %s  %s", a.Email, a.Role, a.FullName, active)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, theme.HelpStyle.Render(
		"enter: change role  v: new admin  x: delete  r: refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
