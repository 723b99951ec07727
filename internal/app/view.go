package app

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.stage == stageLogin {
		return m.loginView.View()
	}

	header := m.layout.RenderHeader(m.viewTitle(), m.unreadCount, m.connState)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.notice)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotifications:
		return m.notifPanel.View()
	case ViewOrders:
		return m.ordersView.View()
	case ViewPayments:
		return m.paymentsView.View()
	case ViewWithdrawals:
		return m.withdrawalsView.View()
	case ViewTickets:
		return m.ticketsView.View()
	case ViewCommissions:
		return m.commissionsView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewAdmins:
		return m.adminsView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

func (m Model) viewTitle() string {
	switch m.currentView {
	case ViewOrders:
		return "marketdesk · orders"
	case ViewPayments:
		return "marketdesk · payments"
	case ViewWithdrawals:
		return "marketdesk · withdrawals"
	case ViewTickets:
		return "marketdesk · tickets"
	case ViewCommissions:
		return "marketdesk · commissions"
	case ViewSettings:
		return "marketdesk · settings"
	case ViewAdmins:
		return "marketdesk · admins"
	case ViewHelp:
		return "marketdesk · help"
	default:
		return "marketdesk"
	}
}

// keyHints returns the shortcut summary for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewNotifications:
		return "enter open | m mark read | M mark all | a show all | H history | 1-7 views | ? help"
	case ViewOrders:
		return "v advance status | x cancel | h/l page | r refresh | n notifications | ? help"
	case ViewPayments:
		return "v verify | x reject | h/l page | r refresh | n notifications | ? help"
	case ViewWithdrawals:
		return "v approve | x reject | h/l page | r refresh | n notifications | ? help"
	case ViewTickets:
		return "enter open/reply | x close | h/l page | r refresh | n notifications | ? help"
	case ViewCommissions:
		return "enter edit | v add | x delete | r refresh | n notifications | ? help"
	case ViewSettings:
		return "enter toggle | r refresh | n notifications | ? help"
	case ViewAdmins:
		return "enter role | v new | x delete | r refresh | n notifications | ? help"
	case ViewHelp:
		return "? or esc close"
	default:
		return "q quit | ? help"
	}
}
