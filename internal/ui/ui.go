package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/router"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
)

// Opts wires the TUI to the backend.
type Opts struct {
	Sessions *session.Manager
	Member   services.Service
	Admin    services.AdminService
	Engine   *tasks.LendingEngine
	Toasts   *notify.Queue    // Optional; a default queue is created
	Logger   *log.Logger      // Optional
	Now      func() time.Time // Optional
}

// Model represents the TUI application state.
//
// Every page change goes through [router.Guard]; the current page is
// m.route and its list rows live in m.list.
type Model struct {
	ctx      context.Context
	sessions *session.Manager
	member   services.Service
	admin    services.AdminService
	engine   *tasks.LendingEngine
	toasts   *notify.Queue
	guard    *router.Guard
	logger   *log.Logger
	now      func() time.Time
	tick     func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

	route   router.Route
	session *session.Session
	next    string
	width   int
	height  int

	list    list.Model
	loading bool
	payload any
	loans   []models.Loan
	tab     tasks.LoanTab
	login   loginForm

	confirming   bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	returned     *tasks.ReturnAllResult
	returnErr    error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Toasts == nil {
		opts.Toasts = notify.NewQueue(notify.QueueOpts{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Engine == nil {
		opts.Engine = tasks.NewLendingEngine(opts.Member, opts.Admin, tasks.EngineOpts{Logger: opts.Logger, Now: opts.Now})
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowHelp(false)

	return &Model{
		ctx:      ctx,
		sessions: opts.Sessions,
		member:   opts.Member,
		admin:    opts.Admin,
		engine:   opts.Engine,
		toasts:   opts.Toasts,
		guard:    router.NewGuard(opts.Sessions, opts.Logger),
		logger:   opts.Logger,
		now:      opts.Now,
		tick:     tea.Tick,
		list:     l,
		tab:      tasks.TabAll,
		login:    newLoginForm(),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init opens the dashboard; the guard sends anonymous users to login.
func (m *Model) Init() tea.Cmd {
	return m.navigate(router.Dashboard)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(msg.Width-4, 20), max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgNavigated:
		return m.handleNavigated(msg.data.(router.Decision))

	case MsgLoggedIn:
		data := msg.data.(struct {
			session *session.Session
			err     error
		})
		m.login.submitting = false
		if data.err != nil {
			return m, m.notify(notify.Error, services.Message(data.err))
		}
		next := m.next
		m.next = ""
		if route, ok := router.Lookup(next); !ok || route.AuthPage || next == router.Landing {
			next = router.Dashboard
		}
		return m, tea.Batch(
			m.notify(notify.Success, fmt.Sprintf("Welcome back, %s!", data.session.Username())),
			m.navigate(next),
		)

	case MsgPageLoaded:
		return m.handlePageLoaded(msg.data.(pageData))

	case MsgActionDone:
		data := msg.data.(struct {
			message string
			err     error
		})
		if data.err != nil {
			if shared.IsUnauthenticated(data.err) {
				return m, m.expire()
			}
			return m, m.notify(notify.Error, services.Message(data.err))
		}
		return m, tea.Batch(m.notify(notify.Success, data.message), m.reload())

	case MsgToastExpired:
		m.toasts.Dismiss(msg.data.(string))
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgReturnAllComplete:
		data := msg.data.(struct {
			result *tasks.ReturnAllResult
			err    error
		})
		m.progressChan = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.returnAllDone(data.result, data.err)
	}
	return m, nil
}

func (m *Model) handleNavigated(d router.Decision) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if d.Expired {
		cmds = append(cmds, m.notify(notify.Error, shared.SessionExpiredMessage))
	}
	if d.Forbidden {
		cmds = append(cmds, m.notify(notify.Error, "Access denied: administrator role required"))
	}
	if d.NotFound {
		cmds = append(cmds, m.notify(notify.Warning, "Page not found"))
		return m, tea.Batch(cmds...)
	}
	if d.Route.Path == router.Landing {
		return m, tea.Batch(append(cmds, m.navigate(router.Dashboard))...)
	}

	if d.Redirect == router.Login && d.Next != "" {
		m.next = d.Next
	}
	m.session = d.Session
	m.route = d.Route
	m.confirming = false
	m.payload = nil
	m.loans = nil
	m.tab = tasks.TabAll
	m.list.ResetFilter()
	m.list.Title = d.Route.Label
	cmds = append(cmds, m.list.SetItems(nil))

	switch d.Route.Path {
	case router.Login:
		m.login = newLoginForm()
	case router.Register, router.ForgotPassword:
	default:
		m.loading = true
		cmds = append(cmds, m.load(d.Route.Path))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handlePageLoaded(data pageData) (tea.Model, tea.Cmd) {
	if data.path != m.route.Path {
		return m, nil
	}
	m.loading = false

	if data.err != nil {
		if shared.IsUnauthenticated(data.err) {
			return m, m.expire()
		}
		m.logger.Warn("page load failed", "page", data.path, "error", data.err)
		return m, m.notify(notify.Error, services.Message(data.err))
	}

	m.payload = data.payload
	if loans, ok := data.payload.([]models.Loan); ok && data.path == router.Activity {
		m.loans = loans
		data.items = loanItems(tasks.FilterLoans(loans, m.tab, ""))
	}
	return m, m.list.SetItems(data.items)
}

// View renders the UI based on the current page.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(router.Title(m.route.Path)))
	b.WriteString("\n")
	if nav := m.renderNav(); nav != "" {
		b.WriteString(nav)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderBody())

	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString("\n\n")
		b.WriteString(toasts)
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.progressChan != nil {
		return m, nil
	}
	if m.confirming {
		return m.handleConfirmKeys(msg)
	}
	if m.route.Path == router.Login {
		return m.handleLoginKeys(msg)
	}
	if m.list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		return m, m.cycle(1)
	case key.Matches(msg, m.keys.prev):
		return m, m.cycle(-1)
	case key.Matches(msg, m.keys.refresh):
		return m, m.reload()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	if m.session == nil {
		if key.Matches(msg, m.keys.back) {
			return m, m.navigate(router.Login)
		}
		return m, nil
	}

	if cmd, handled := m.handlePageKeys(msg); handled {
		return m, cmd
	}
	return m.updateList(msg)
}

// handlePageKeys runs the action bound to msg on the current page.
func (m *Model) handlePageKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	selected := m.list.SelectedItem()

	switch m.route.Path {
	case router.Dashboard:
		if key.Matches(msg, m.keys.borrow) {
			item, ok := selected.(equipmentItem)
			if !ok {
				return nil, true
			}
			if item.equipment.Status != models.StatusAvailable {
				return m.notify(notify.Warning, fmt.Sprintf("%s is not available", item.equipment.Name)), true
			}
			due := models.LoanRules{}.DefaultReturnDate(m.now()).Format(models.DateLayout)
			return m.act("Equipment borrowed successfully", func(ctx context.Context) error {
				return m.member.Borrow(ctx, item.equipment.ID, due)
			}), true
		}

	case router.Activity:
		switch {
		case key.Matches(msg, m.keys.tabLeft):
			return m.switchTab(-1), true
		case key.Matches(msg, m.keys.tabRight):
			return m.switchTab(1), true
		case key.Matches(msg, m.keys.ret):
			item, ok := selected.(loanItem)
			if !ok || !item.loan.Active() {
				return nil, true
			}
			return m.act("Equipment returned successfully", func(ctx context.Context) error {
				return m.member.Return(ctx, item.loan.EquipmentID)
			}), true
		case key.Matches(msg, m.keys.returnAll):
			if len(tasks.ActiveLoans(m.loans)) == 0 {
				return m.notify(notify.Info, "No active loans to return"), true
			}
			m.confirming = true
			return nil, true
		}

	case router.Reservations:
		if key.Matches(msg, m.keys.cancel) {
			item, ok := selected.(reservationItem)
			if !ok {
				return nil, true
			}
			if !item.reservation.Status.Cancellable() {
				return m.notify(notify.Warning, "Reservation can no longer be cancelled"), true
			}
			return m.act("Reservation cancelled", func(ctx context.Context) error {
				return m.member.CancelReservation(ctx, item.reservation.ID)
			}), true
		}

	case router.AdminMaintenance:
		item, ok := selected.(maintenanceItem)
		switch {
		case key.Matches(msg, m.keys.start):
			if !ok {
				return nil, true
			}
			return m.act("Maintenance started", func(ctx context.Context) error {
				_, err := m.admin.StartMaintenance(ctx, item.record.ID)
				return err
			}), true
		case key.Matches(msg, m.keys.complete):
			if !ok {
				return nil, true
			}
			return m.act("Maintenance completed", func(ctx context.Context) error {
				_, err := m.admin.CompleteMaintenance(ctx, item.record.ID)
				return err
			}), true
		}

	case router.AdminReservations:
		if key.Matches(msg, m.keys.confirm) {
			item, ok := selected.(reservationItem)
			if !ok {
				return nil, true
			}
			if item.reservation.Status != models.ReservationPending {
				return m.notify(notify.Warning, "Only pending reservations can be confirmed"), true
			}
			return m.act("Reservation confirmed", func(ctx context.Context) error {
				_, err := m.admin.ConfirmReservation(ctx, item.reservation.ID)
				return err
			}), true
		}
	}
	return nil, false
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.confirming = false
		return m, m.startReturnAll()
	case key.Matches(msg, m.keys.no):
		m.confirming = false
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		return m, m.login.move(1)
	case "shift+tab", "up":
		return m, m.login.move(-1)
	case "esc":
		return m, tea.Quit
	case "enter":
		if m.login.focus < fieldPassword {
			return m, m.login.move(1)
		}
		creds, err := m.login.credentials()
		if err != nil {
			return m, m.notify(notify.Error, err.Error())
		}
		m.login.submitting = true
		return m, func() tea.Msg {
			sess, err := m.member.Login(m.ctx, creds)
			return loggedInMsg(sess, err)
		}
	}
	return m, m.login.update(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// navigate resolves path through the guard.
func (m *Model) navigate(path string) tea.Cmd {
	return func() tea.Msg {
		return navigatedMsg(m.guard.Resolve(m.ctx, path))
	}
}

// cycle moves delta pages through the navigation for the current session.
func (m *Model) cycle(delta int) tea.Cmd {
	var paths []string
	for _, r := range router.Nav(m.session) {
		if !r.AuthPage || m.session == nil {
			paths = append(paths, r.Path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	i := slices.Index(paths, m.route.Path)
	return m.navigate(paths[(i+delta+len(paths))%len(paths)])
}

func (m *Model) reload() tea.Cmd {
	if m.route.Path == router.Login || m.session == nil {
		return nil
	}
	m.loading = true
	return m.load(m.route.Path)
}

// expire drops the session and returns to login, remembering the current page.
func (m *Model) expire() tea.Cmd {
	m.next = m.route.Path
	next := m.next
	return tea.Batch(
		m.notify(notify.Error, shared.SessionExpiredMessage),
		func() tea.Msg {
			if err := m.sessions.Invalidate(m.ctx); err != nil {
				m.logger.Warn("failed to clear session", "error", err)
			}
			return navigatedMsg(m.guard.Resolve(m.ctx, next))
		},
	)
}

func (m *Model) logout() tea.Cmd {
	if m.session == nil {
		return nil
	}
	m.next = ""
	return tea.Batch(
		m.notify(notify.Info, "You have been logged out."),
		func() tea.Msg {
			if err := m.member.Logout(m.ctx); err != nil {
				m.logger.Warn("logout failed", "error", err)
			}
			return navigatedMsg(m.guard.Resolve(m.ctx, router.Login))
		},
	)
}

// notify pushes a toast and schedules its dismissal.
func (m *Model) notify(kind notify.Kind, message string) tea.Cmd {
	toast := m.toasts.Push(kind, message)
	return m.tick(m.toasts.TTL(), func(time.Time) tea.Msg {
		return toastExpiredMsg(toast.ID)
	})
}

// act runs fn and reports message on success.
func (m *Model) act(message string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(message, fn(m.ctx))
	}
}

func (m *Model) switchTab(delta int) tea.Cmd {
	i := slices.Index(tasks.LoanTabs, m.tab)
	m.tab = tasks.LoanTabs[(i+delta+len(tasks.LoanTabs))%len(tasks.LoanTabs)]
	m.list.ResetFilter()
	return m.list.SetItems(loanItems(tasks.FilterLoans(m.loans, m.tab, "")))
}

func (m *Model) startReturnAll() tea.Cmd {
	ch := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = ch
	m.returned = nil
	m.returnErr = nil

	go func() {
		result, err := m.engine.ReturnAll(m.ctx, ch)
		m.returned = result
		m.returnErr = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return returnAllCompleteMsg(m.returned, m.returnErr)
		}

		update, ok := <-ch
		if !ok {
			return returnAllCompleteMsg(m.returned, m.returnErr)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) returnAllDone(res *tasks.ReturnAllResult, err error) tea.Cmd {
	switch {
	case err != nil && shared.IsUnauthenticated(err):
		return m.expire()
	case err != nil:
		return m.notify(notify.Error, services.Message(err))
	case res == nil || res.Total == 0:
		return m.notify(notify.Info, "No active loans to return")
	case res.Failed == 0:
		return tea.Batch(m.notify(notify.Success, fmt.Sprintf("Returned %d items", res.Succeeded)), m.reload())
	default:
		return tea.Batch(
			m.notify(notify.Warning, fmt.Sprintf("Returned %d of %d items; %d failed", res.Succeeded, res.Total, res.Failed)),
			m.reload(),
		)
	}
}
