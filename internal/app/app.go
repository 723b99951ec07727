// Package app wires the marketdesk dashboard together: the realtime
// session, the notification store and reconciler, the fallback
// poller, the REST client and every view. All dependencies come in
// through Deps; nothing here reaches for globals, so tests can stand
// up the app against fakes.
package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/archive"
	"github.com/ducpham/marketdesk/internal/credential"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
	"github.com/ducpham/marketdesk/internal/realtime"
	appsync "github.com/ducpham/marketdesk/internal/sync"
	"github.com/ducpham/marketdesk/internal/ui"
	"github.com/ducpham/marketdesk/internal/ui/admins"
	"github.com/ducpham/marketdesk/internal/ui/commissions"
	helpview "github.com/ducpham/marketdesk/internal/ui/help"
	loginview "github.com/ducpham/marketdesk/internal/ui/login"
	"github.com/ducpham/marketdesk/internal/ui/notifpanel"
	"github.com/ducpham/marketdesk/internal/ui/orders"
	"github.com/ducpham/marketdesk/internal/ui/payments"
	"github.com/ducpham/marketdesk/internal/ui/settings"
	"github.com/ducpham/marketdesk/internal/ui/tickets"
	"github.com/ducpham/marketdesk/internal/ui/withdrawals"
)

// tokenExpiryGrace is how close to expiry a stored token is still
// trusted for a reconnect.
const tokenExpiryGrace = 30 * time.Second

// ViewState represents the current active view in the dashboard.
type ViewState int

const (
	ViewNotifications ViewState = iota
	ViewOrders
	ViewPayments
	ViewWithdrawals
	ViewTickets
	ViewCommissions
	ViewSettings
	ViewAdmins
	ViewHelp
)

type stage int

const (
	stageLogin stage = iota
	stageDashboard
)

// UserStack is the per-user slice of the application: everything that
// only exists once an admin is signed in.
type UserStack struct {
	Store      *notify.Store
	Reconciler *notify.Reconciler
	Poller     *appsync.Poller
	History    *archive.Archive
}

// Deps carries the application's dependencies into the root model.
type Deps struct {
	Config  *model.AppConfig
	Logger  *zap.Logger
	Keys    *keys.KeyMap
	Client  *api.Client
	Session *realtime.Session

	// NewUserStack builds the user-scoped components once an identity
	// is known (at startup from a stored token, or after login).
	NewUserStack func(id model.Identity) (*UserStack, error)

	// StoredIdentity is the identity recovered from the keyring, nil
	// when the user must sign in.
	StoredIdentity *model.Identity
}

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	layout ui.Layout
	ready  bool

	stage        stage
	currentView  ViewState
	previousView ViewState

	loginView       loginview.Model
	notifPanel      notifpanel.Model
	ordersView      orders.Model
	paymentsView    payments.Model
	withdrawalsView withdrawals.Model
	ticketsView     tickets.Model
	commissionsView commissions.Model
	settingsView    settings.Model
	adminsView      admins.Model
	helpView        helpview.Model

	bridge    *eventBridge
	reconnect *reconnectPolicy
	stack     *UserStack
	identity  model.Identity

	connState   string
	unreadCount int
	notice      string

	pendingFocusView ViewState
	pendingFocusID   string
}

// New creates the root model. If deps carries a stored identity the
// app opens straight into the dashboard and dials the realtime
// session; otherwise it starts at the login form.
func New(deps Deps) Model {
	const w, h = 80, 24
	pageSize := deps.Config.Display.PageSize

	m := Model{
		deps:            deps,
		stage:           stageLogin,
		loginView:       loginview.New(w, h),
		ordersView:      orders.New(deps.Client, deps.Keys, pageSize, w, h),
		paymentsView:    payments.New(deps.Client, deps.Keys, pageSize, w, h),
		withdrawalsView: withdrawals.New(deps.Client, deps.Keys, pageSize, w, h),
		ticketsView:     tickets.New(deps.Client, deps.Keys, pageSize, w, h),
		commissionsView: commissions.New(deps.Client, deps.Keys, w, h),
		settingsView:    settings.New(deps.Client, deps.Keys, w, h),
		adminsView:      admins.New(deps.Client, deps.Keys, w, h),
		helpView:        helpview.New(deps.Keys, w, h),
		bridge:          newEventBridge(),
		reconnect:       newReconnectPolicy(deps.Config.Realtime),
		connState:       "offline",
	}
	m.bridge.subscribe(deps.Session.Events())

	if deps.StoredIdentity != nil {
		if err := m.signIn(*deps.StoredIdentity); err != nil {
			deps.Logger.Warn("restoring session failed", zap.Error(err))
			// Init reinitializes the login form afterwards.
			_ = m.loginView.SetNotice("stored session unusable, sign in again")
		}
	}

	return m
}

// signIn builds the user stack and moves the app to the dashboard.
func (m *Model) signIn(id model.Identity) error {
	stack, err := m.deps.NewUserStack(id)
	if err != nil {
		return err
	}

	m.stack = stack
	m.identity = id
	stack.Reconciler.Watch(m.deps.Session.Events())

	const w, h = 80, 24
	m.notifPanel = notifpanel.New(
		stack.Store, stack.Reconciler, stack.History, m.deps.Keys, w, h)
	if m.ready {
		m.notifPanel.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
	}

	m.stage = stageDashboard
	m.currentView = ViewNotifications
	m.deps.Session.Connect(id)
	return nil
}

// logout tears the user stack down and returns to the login form.
func (m *Model) logout(notice string) tea.Cmd {
	m.deps.Session.Disconnect()
	if m.stack != nil {
		m.stack.Poller.Stop()
		if m.stack.History != nil {
			_ = m.stack.History.Close()
		}
		m.stack = nil
	}
	_ = credential.Delete(credential.KeyAPIToken)

	m.stage = stageLogin
	m.identity = model.Identity{}
	m.connState = "offline"
	m.unreadCount = 0
	return m.loginView.SetNotice(notice)
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.wait()}
	if m.stage == stageDashboard {
		cmds = append(cmds, m.stack.Poller.Start())
	} else {
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		cw, ch := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(cw, ch)
		m.notifPanel.SetSize(cw, ch)
		m.ordersView.SetSize(cw, ch)
		m.paymentsView.SetSize(cw, ch)
		m.withdrawalsView.SetSize(cw, ch)
		m.ticketsView.SetSize(cw, ch)
		m.commissionsView.SetSize(cw, ch)
		m.settingsView.SetSize(cw, ch)
		m.adminsView.SetSize(cw, ch)
		m.helpView.SetSize(cw, ch)
		// Forward so huh forms can recompute their layout.
		return m.updateActiveView(msg)

	// Session events.
	case connectedMsg:
		m.connState = "connecting"
		return m, m.bridge.wait()

	case authedMsg:
		m.connState = "live"
		m.reconnect.reset()
		if m.stack != nil {
			m.stack.Poller.Pause()
			m.unreadCount = m.stack.Store.UnreadCount()
			// Catch up on anything delivered while the socket was down.
			m.deps.Session.RequestAll()
		}
		return m, m.bridge.wait()

	case authFailedMsg:
		m.deps.Logger.Warn("realtime authentication failed", zap.Error(msg.err))
		if m.stage == stageDashboard {
			return m, tea.Batch(
				m.bridge.wait(),
				m.logout("session rejected, sign in again"),
			)
		}
		return m, m.bridge.wait()

	case disconnectedMsg:
		m.connState = "offline"
		m.deps.Logger.Info("realtime connection dropped",
			zap.String("reason", msg.reason))
		if m.stack == nil {
			return m, m.bridge.wait()
		}
		// Pull path takes over until the socket is back.
		m.stack.Poller.Resume()
		return m, tea.Batch(
			m.bridge.wait(),
			m.stack.Poller.WaitForNextResult(),
			m.reconnect.waitCmd(),
		)

	case reconnectMsg:
		if m.stage != stageDashboard {
			return m, nil
		}
		if info, err := credential.ParseToken(m.identity.Credential); err == nil &&
			info.Expired(tokenExpiryGrace) {
			return m, m.logout("session expired, sign in again")
		}
		m.deps.Session.Connect(m.identity)
		return m, nil

	case reconnectGaveUpMsg:
		m.notice = "realtime connection lost, running on polling only"
		return m, nil

	case pushedMsg:
		if m.stack == nil {
			return m, m.bridge.wait()
		}
		m.stack.Store.Ingest(msg.rec)
		m.unreadCount = m.stack.Store.UnreadCount()
		return m, tea.Batch(
			m.bridge.wait(),
			m.archiveCmd([]model.Notification{msg.rec}),
		)

	case pushedBatchMsg:
		if m.stack == nil {
			return m, m.bridge.wait()
		}
		m.stack.Store.IngestBatch(msg.recs)
		m.unreadCount = m.stack.Store.UnreadCount()
		return m, tea.Batch(
			m.bridge.wait(),
			m.archiveCmd(msg.recs),
		)

	case unreadPushMsg:
		if m.stack == nil {
			return m, m.bridge.wait()
		}
		// The store stays the single source for the badge. A server
		// count that disagrees means records are missing locally, so
		// refresh instead of trusting the bare number.
		m.unreadCount = m.stack.Store.UnreadCount()
		if msg.count != m.unreadCount {
			if m.deps.Session.Connected() {
				m.deps.Session.RequestAll()
			} else {
				m.stack.Poller.Trigger()
			}
		}
		return m, m.bridge.wait()

	case transportErrMsg:
		m.deps.Logger.Warn("realtime transport error", zap.Error(msg.err))
		return m, m.bridge.wait()

	case archivedMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("archiving notifications failed", zap.Error(msg.err))
		}
		return m, nil

	// Fallback poller.
	case appsync.ResultMsg:
		if m.stack == nil {
			return m, nil
		}
		if msg.Err != nil {
			m.deps.Logger.Warn("fallback poll failed", zap.Error(msg.Err))
		} else {
			m.unreadCount = m.stack.Store.UnreadCount()
		}
		return m, m.stack.Poller.WaitForNextResult()

	// Login.
	case loginview.SubmitMsg:
		return m, m.loginCmd(msg.Email, msg.Password)

	case loginview.CancelMsg:
		return m, tea.Quit

	case loginResultMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("login failed", zap.Error(msg.err))
			return m, m.loginView.SetNotice(loginNotice(msg.err))
		}
		if err := credential.Set(credential.KeyAPIToken, msg.resp.Token); err != nil {
			m.deps.Logger.Warn("storing token in keyring failed", zap.Error(err))
		}
		id := model.Identity{
			UserID:     msg.resp.User.ID,
			Role:       msg.resp.User.Role,
			Credential: msg.resp.Token,
		}
		if err := m.signIn(id); err != nil {
			return m, m.loginView.SetNotice("starting session failed: " + err.Error())
		}
		return m, m.stack.Poller.Start()

	// Notification panel outcomes.
	case notifpanel.OpenRouteMsg:
		return m.navigate(msg.Route)

	case notifpanel.MarkReadResultMsg:
		if msg.Err != nil {
			m.notice = "mark read not confirmed by server"
			m.deps.Logger.Warn("mark read failed",
				zap.String("notification_id", msg.NotificationID),
				zap.Error(msg.Err))
		}
		if m.stack != nil {
			m.unreadCount = m.stack.Store.UnreadCount()
		}
		return m, nil

	case notifpanel.MarkAllReadResultMsg:
		if msg.Err != nil {
			m.notice = "mark all read not confirmed by server"
			m.deps.Logger.Warn("mark all read failed", zap.Error(msg.Err))
		}
		if m.stack != nil {
			m.unreadCount = m.stack.Store.UnreadCount()
		}
		return m, nil

	// Deep-link focus once a page is in.
	case orders.LoadedMsg:
		mm, cmd := m.updateActiveView(msg)
		root := mm.(Model)
		if root.pendingFocusView == ViewOrders && root.pendingFocusID != "" {
			root.ordersView.FocusOrder(root.pendingFocusID)
			root.pendingFocusID = ""
		}
		return root, cmd

	case payments.LoadedMsg:
		mm, cmd := m.updateActiveView(msg)
		root := mm.(Model)
		if root.pendingFocusView == ViewPayments && root.pendingFocusID != "" {
			root.paymentsView.FocusPayment(root.pendingFocusID)
			root.pendingFocusID = ""
		}
		return root, cmd

	case withdrawals.LoadedMsg:
		mm, cmd := m.updateActiveView(msg)
		root := mm.(Model)
		if root.pendingFocusView == ViewWithdrawals && root.pendingFocusID != "" {
			root.withdrawalsView.FocusWithdrawal(root.pendingFocusID)
			root.pendingFocusID = ""
		}
		return root, cmd

	case tea.KeyMsg:
		m.notice = ""
		if m.stage == stageLogin || m.capturing() {
			return m.updateActiveView(msg)
		}
		if handled, mm, cmd := m.handleGlobalKeys(msg); handled {
			return mm, cmd
		}
	}

	return m.updateActiveView(msg)
}

// capturing reports whether the active view owns raw text input, in
// which case global shortcuts stay out of the way.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewPayments:
		return m.paymentsView.Capturing()
	case ViewWithdrawals:
		return m.withdrawalsView.Capturing()
	case ViewTickets:
		return m.ticketsView.Capturing()
	case ViewCommissions:
		return m.commissionsView.Capturing()
	case ViewAdmins:
		return m.adminsView.Capturing()
	}
	return false
}

func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.stack != nil {
			m.stack.Poller.Stop()
		}
		m.deps.Session.Close()
		return true, m, tea.Quit

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return true, m, nil

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		return false, m, nil

	case "n":
		mm, cmd := m.switchTo(ViewNotifications)
		return true, mm, cmd
	case "1":
		mm, cmd := m.switchTo(ViewOrders)
		return true, mm, cmd
	case "2":
		mm, cmd := m.switchTo(ViewPayments)
		return true, mm, cmd
	case "3":
		mm, cmd := m.switchTo(ViewWithdrawals)
		return true, mm, cmd
	case "4":
		mm, cmd := m.switchTo(ViewTickets)
		return true, mm, cmd
	case "5":
		mm, cmd := m.switchTo(ViewCommissions)
		return true, mm, cmd
	case "6":
		mm, cmd := m.switchTo(ViewSettings)
		return true, mm, cmd
	case "7":
		mm, cmd := m.switchTo(ViewAdmins)
		return true, mm, cmd
	}
	return false, m, nil
}

// switchTo activates a view and kicks off its load.
func (m Model) switchTo(v ViewState) (Model, tea.Cmd) {
	if m.currentView == v {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = v

	switch v {
	case ViewOrders:
		return m, m.ordersView.Load()
	case ViewPayments:
		return m, m.paymentsView.Load()
	case ViewWithdrawals:
		return m, m.withdrawalsView.Load()
	case ViewTickets:
		return m, m.ticketsView.Load()
	case ViewCommissions:
		return m, m.commissionsView.Load()
	case ViewSettings:
		return m, m.settingsView.Load()
	case ViewAdmins:
		return m, m.adminsView.Load()
	}
	return m, nil
}

// navigate resolves a notification route to a view, loading the
// target entity's surroundings.
func (m Model) navigate(route string) (tea.Model, tea.Cmd) {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	head := parts[0]
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}

	switch head {
	case "orders":
		mm, _ := m.switchTo(ViewOrders)
		mm.pendingFocusView = ViewOrders
		mm.pendingFocusID = id
		return mm, mm.ordersView.Load()
	case "payments":
		mm, _ := m.switchTo(ViewPayments)
		mm.pendingFocusView = ViewPayments
		mm.pendingFocusID = id
		return mm, mm.paymentsView.Load()
	case "withdrawals":
		mm, _ := m.switchTo(ViewWithdrawals)
		mm.pendingFocusView = ViewWithdrawals
		mm.pendingFocusID = id
		return mm, mm.withdrawalsView.Load()
	case "tickets":
		mm, _ := m.switchTo(ViewTickets)
		if id != "" {
			return mm, mm.ticketsView.OpenTicket(id)
		}
		return mm, mm.ticketsView.Load()
	default:
		mm, cmd := m.switchTo(ViewNotifications)
		return mm, cmd
	}
}

// updateActiveView dispatches the message to the active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.stage == stageLogin {
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	switch m.currentView {
	case ViewNotifications:
		m.notifPanel, cmd = m.notifPanel.Update(msg)
	case ViewOrders:
		m.ordersView, cmd = m.ordersView.Update(msg)
	case ViewPayments:
		m.paymentsView, cmd = m.paymentsView.Update(msg)
	case ViewWithdrawals:
		m.withdrawalsView, cmd = m.withdrawalsView.Update(msg)
	case ViewTickets:
		m.ticketsView, cmd = m.ticketsView.Update(msg)
	case ViewCommissions:
		m.commissionsView, cmd = m.commissionsView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewAdmins:
		m.adminsView, cmd = m.adminsView.Update(msg)
	}

	return m, cmd
}

// loginCmd exchanges credentials for a token.
func (m Model) loginCmd(email, password string) tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		resp, err := client.Login(ctx, email, password)
		return loginResultMsg{resp: resp, err: err}
	}
}

// archiveCmd records notifications into the local history off the UI
// goroutine.
func (m Model) archiveCmd(recs []model.Notification) tea.Cmd {
	if m.stack == nil || m.stack.History == nil {
		return nil
	}
	hist := m.stack.History
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return archivedMsg{err: hist.Record(ctx, recs)}
	}
}

func loginNotice(err error) string {
	if api.IsAuthError(err) {
		return "invalid email or password"
	}
	return "login failed: " + err.Error()
}
