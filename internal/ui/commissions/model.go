// Package commissions edits the platform commission table. The
// backend computes commissions; this view only edits the tier rows and
// submits the whole table.
package commissions

import (
	"context"
	"fmt"
	"strconv"
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

// TableLoadedMsg delivers the current commission table.
type TableLoadedMsg struct {
	Table *model.CommissionTable
	Err   error
}

// TableSavedMsg is sent after submitting the edited table.
type TableSavedMsg struct {
	Err error
}

// formBindings holds tier field values on the heap so huh's Value()
// pointers stay valid across Bubble Tea model copies.
type formBindings struct {
	category    string
	minAmount   string
	maxAmount   string
	ratePercent string
}

// Model is the commission table view component.
type Model struct {
	client *api.Client
	keys   *keys.KeyMap

	table  model.CommissionTable
	cursor int

	form     *huh.Form
	fb       *formBindings
	editMode bool
	editIdx  int

	width  int
	height int
}

// New creates the commission view.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init loads the commission table.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Capturing reports whether a form is active, so global shortcuts
// stay inactive.
func (m Model) Capturing() bool { return m.form != nil }

// Load returns a tea.Cmd that fetches the commission table.
func (m Model) Load() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		t, err := client.CommissionTable(ctx)
		return TableLoadedMsg{Table: t, Err: err}
	}
}

// Update handles messages for the commission view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case TableLoadedMsg:
		if msg.Err != nil || msg.Table == nil {
			return m, nil
		}
		m.table = *msg.Table
		if m.cursor >= len(m.table.Tiers) {
			m.cursor = 0
		}
		return m, nil

	case TableSavedMsg:
		return m, m.Load()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.table.Tiers)-1 {
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

	case key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.table.Tiers) {
			return m, nil
		}
		return m.startEdit(m.cursor)

	case key.Matches(msg, m.keys.Approve):
		// Add a new tier.
		return m.startEdit(-1)

	case key.Matches(msg, m.keys.Reject):
		if m.cursor >= len(m.table.Tiers) {
			return m, nil
		}
		m.table.Tiers = append(
			m.table.Tiers[:m.cursor],
			m.table.Tiers[m.cursor+1:]...)
		if m.cursor >= len(m.table.Tiers) && m.cursor > 0 {
			m.cursor--
		}
		return m, m.saveCmd(m.table)
	}
	return m, nil
}

func (m Model) startEdit(idx int) (Model, tea.Cmd) {
	m.editMode = idx >= 0
	m.editIdx = idx
	if m.editMode {
		t := m.table.Tiers[idx]
		m.fb.category = t.Category
		m.fb.minAmount = formatAmount(t.MinAmount)
		m.fb.maxAmount = formatAmount(t.MaxAmount)
		m.fb.ratePercent = formatAmount(t.RatePercent)
	} else {
		*m.fb = formBindings{minAmount: "0", maxAmount: "0"}
	}
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		tier := model.CommissionTier{
			Category:    m.fb.category,
			MinAmount:   parseAmount(m.fb.minAmount),
			MaxAmount:   parseAmount(m.fb.maxAmount),
			RatePercent: parseAmount(m.fb.ratePercent),
		}
		table := m.table
		if m.editMode {
			tier.ID = table.Tiers[m.editIdx].ID
			table.Tiers[m.editIdx] = tier
		} else {
			table.Tiers = append(table.Tiers, tier)
		}
		m.form = nil
		return m, m.saveCmd(table)
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) saveCmd(table model.CommissionTable) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := client.UpdateCommissionTable(ctx, table)
		return TableSavedMsg{Err: err}
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Category").
			Placeholder("electronics, fashion, ...").
			Value(&m.fb.category).
			Validate(validateRequired("Category")),
		huh.NewInput().
			Title("Min amount").
			Value(&m.fb.minAmount).
			Validate(validateAmount),
		huh.NewInput().
			Title("Max amount (0 = unbounded)").
			Value(&m.fb.maxAmount).
			Validate(validateAmount),
		huh.NewInput().
			Title("Rate %").
			Value(&m.fb.ratePercent).
			Validate(validateAmount),
	)).WithWidth(m.width - 4)
}

// View renders the tier listing or the edit form.
func (m Model) View() string {
	if m.form != nil {
		title := "New Tier"
		if m.editMode {
			title = "Edit Tier"
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.HeaderStyle.Render(title) + "\n" + m.form.View())
	}

	lines := []string{theme.HeaderStyle.Render("Commission Tiers")}
	if len(m.table.Tiers) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No tiers configured. v: add tier"))
	}
	for i, t := range m.table.Tiers {
		upper := formatAmount(t.MaxAmount)
		if t.MaxAmount == 0 {
			upper = "∞"
		}
		line := fmt.Sprintf("%-16s %s – %s  %.2f%%",
			t.Category, formatAmount(t.MinAmount), upper, t.RatePercent)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if !m.table.UpdatedAt.IsZero() {
		lines = append(lines, theme.HelpStyle.Render(fmt.Sprintf(
			"updated %s by %s",
			m.table.UpdatedAt.Format("Jan 02 15:04"), m.table.UpdatedBy)))
	}
	lines = append(lines, theme.HelpStyle.Render(
		"enter: edit  v: add  x: delete  r: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateAmount(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}
