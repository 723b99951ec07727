package orders

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/theme"
)

// orderItem wraps a model.Order for use in a bubbles/list.
type orderItem struct {
	Order model.Order
}

// FilterValue returns the string used for fuzzy filtering.
func (i orderItem) FilterValue() string { return i.Order.OrderNumber }

// orderDelegate renders one order per line.
type orderDelegate struct{}

func (d orderDelegate) Height() int  { return 1 }
func (d orderDelegate) Spacing() int { return 0 }

func (d orderDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d orderDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	oi, ok := item.(orderItem)
	if !ok {
		return
	}
	o := oi.Order

	statusBadge := theme.StatusStyle(o.Status).Render(o.Status)
	line := fmt.Sprintf("%s  %s  %s → %s  %.2f %s  (%d items)",
		o.OrderNumber, statusBadge,
		o.BuyerName, o.SellerName,
		o.Total, o.Currency, o.ItemCount,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}
