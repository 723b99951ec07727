// Package orders is the order management view: a paged listing with
// status transitions invoked against the backend. The order state
// machine lives server-side; this view only requests transitions and
// re-renders whatever the backend reports.
package orders

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/theme"
)

const loadTimeout = 15 * time.Second

// LoadedMsg is sent when a page of orders has been fetched.
type LoadedMsg struct {
	Page *model.OrderPage
	Err  error
}

// StatusChangedMsg is sent after a status transition request.
type StatusChangedMsg struct {
	OrderID string
	Status  string
	Err     error
}

// nextStatus maps each order status to the transition the approve key
// requests. Terminal statuses have no entry.
var nextStatus = map[string]string{
	model.OrderStatusPending:   model.OrderStatusConfirmed,
	model.OrderStatusConfirmed: model.OrderStatusShipping,
	model.OrderStatusShipping:  model.OrderStatusDelivered,
}

// Model is the order list view component.
type Model struct {
	list     list.Model
	client   *api.Client
	keys     *keys.KeyMap
	page     int
	pageSize int
	total    int
	width    int
	height   int
}

// New creates the order view.
func New(client *api.Client, k *keys.KeyMap, pageSize, width, height int) Model {
	l := list.New([]list.Item{}, orderDelegate{}, width, height-2)
	l.Title = "Orders"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		client:   client,
		keys:     k,
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

// Update handles messages for the order view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil || msg.Page == nil {
			return m, nil
		}
		m.total = msg.Page.Total
		items := make([]list.Item, len(msg.Page.Orders))
		for i, o := range msg.Page.Orders {
			items[i] = orderItem{Order: o}
		}
		return m, m.list.SetItems(items)

	case StatusChangedMsg:
		// Successful or not, re-fetch so the view shows the backend's
		// idea of the order.
		return m, m.Load()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
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

	case key.Matches(msg, m.keys.Approve):
		item, ok := m.list.SelectedItem().(orderItem)
		if !ok {
			return m, nil
		}
		next, ok := nextStatus[item.Order.Status]
		if !ok {
			return m, nil
		}
		return m, m.transitionCmd(item.Order.ID, next)

	case key.Matches(msg, m.keys.Reject):
		item, ok := m.list.SelectedItem().(orderItem)
		if !ok {
			return m, nil
		}
		if item.Order.Status == model.OrderStatusDelivered ||
			item.Order.Status == model.OrderStatusCancelled {
			return m, nil
		}
		return m, m.transitionCmd(item.Order.ID, model.OrderStatusCancelled)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Load returns a tea.Cmd that fetches the current page.
func (m Model) Load() tea.Cmd {
	client := m.client
	page, pageSize := m.page, m.pageSize
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		p, err := client.ListOrders(ctx, page, pageSize, "")
		return LoadedMsg{Page: p, Err: err}
	}
}

func (m Model) transitionCmd(orderID, status string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		err := client.UpdateOrderStatus(ctx, orderID, status)
		return StatusChangedMsg{OrderID: orderID, Status: status, Err: err}
	}
}

// FocusOrder moves the cursor to the order with the given id, if it is
// on the current page. Used for notification deep links.
func (m *Model) FocusOrder(orderID string) {
	for i, it := range m.list.Items() {
		if oi, ok := it.(orderItem); ok && oi.Order.ID == orderID {
			m.list.Select(i)
			return
		}
	}
}

// View renders the order list.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
