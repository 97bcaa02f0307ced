package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/router"
	"github.com/desertthunder/equipx/internal/tasks"
)

// load fetches the data behind path.
func (m *Model) load(path string) tea.Cmd {
	return func() tea.Msg {
		return pageLoadedMsg(m.fetch(m.ctx, path))
	}
}

func (m *Model) fetch(ctx context.Context, path string) pageData {
	d := pageData{path: path}

	switch path {
	case router.Dashboard:
		dash, err := m.engine.LoadDashboard(ctx)
		if err != nil {
			d.err = err
			break
		}
		d.payload = dash
		d.items = equipmentItems(dash.Equipment)

	case router.Activity:
		loans, err := m.member.MyLoans(ctx)
		d.err = err
		d.payload = tasks.SortLoans(loans, tasks.SortOption{Key: tasks.SortByDate, Direction: models.Desc})

	case router.Reservations:
		items, err := m.member.MyReservations(ctx)
		d.err = err
		d.items = reservationItems(tasks.SortReservations(items, tasks.SortOption{Key: tasks.SortByDate}))

	case router.Profile:
		user, err := m.member.Profile(ctx)
		d.err = err
		d.payload = user

	case router.Admin:
		res, err := m.engine.Overview(ctx, nil)
		d.err = err
		d.payload = res

	case router.AdminEquipment:
		items, err := m.admin.AllEquipment(ctx)
		d.err = err
		d.items = equipmentItems(items)

	case router.AdminUsers:
		users, err := m.admin.Users(ctx)
		d.err = err
		d.items = userItems(users)

	case router.AdminLoans:
		loans, err := m.admin.CurrentLoans(ctx)
		d.err = err
		d.items = loanItems(loans)

	case router.AdminMaintenance:
		scheduled, err := m.admin.ScheduledMaintenance(ctx)
		if err != nil {
			d.err = err
			break
		}
		running, err := m.admin.MaintenanceByStatus(ctx, models.MaintenanceInProgress)
		d.err = err
		d.items = maintenanceItems(append(running, scheduled...))

	case router.AdminReservations:
		items, err := m.admin.AllReservations(ctx)
		d.err = err
		d.items = reservationItems(tasks.SortReservations(items, tasks.SortOption{Key: tasks.SortByDate}))
	}
	return d
}

func (m *Model) renderNav() string {
	if m.session == nil {
		return ""
	}

	var parts []string
	for _, r := range router.Nav(m.session) {
		if r.Path == m.route.Path {
			parts = append(parts, styles.active.Render(r.Label))
		} else {
			parts = append(parts, styles.muted.Render(r.Label))
		}
	}
	user := styles.info.Render(fmt.Sprintf("%s (%s)", m.session.Username(), m.session.Role()))
	return strings.Join(parts, "  ") + "   " + user
}

func (m *Model) renderToasts() string {
	toasts := m.toasts.Active()
	lines := make([]string, len(toasts))
	for i, t := range toasts {
		lines[i] = styles.toast(t.Kind).Render("● " + t.Message)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody() string {
	switch m.route.Path {
	case router.Login:
		return m.login.view()
	case router.Register:
		return "Create an account with `equipx auth register`.\n\nPress esc to return to login."
	case router.ForgotPassword:
		return "Reset your password with `equipx auth reset-password`.\n\nPress esc to return to login."
	}

	if m.loading {
		return styles.muted.Render("Loading...")
	}

	switch m.route.Path {
	case router.Dashboard:
		return m.renderDashboard()
	case router.Activity:
		return m.renderActivity()
	case router.Profile:
		return m.renderProfile()
	case router.Admin:
		return m.renderOverview()
	default:
		return m.list.View()
	}
}

func (m *Model) renderDashboard() string {
	dash, ok := m.payload.(*tasks.Dashboard)
	if !ok {
		return m.list.View()
	}

	stats := fmt.Sprintf("Available: %d   Borrowed: %d   Overdue: %d   My active loans: %d",
		dash.Stats.Available, dash.Stats.Borrowed, dash.Stats.Overdue, dash.Stats.ActiveLoans)

	var due []string
	for _, l := range dash.DueSoon {
		due = append(due, styles.warn.Render(fmt.Sprintf("  %s due %s", l.EquipmentName, models.FormatDate(l.ExpectedReturnDate, "N/A"))))
	}

	out := stats + "\n"
	if len(due) > 0 {
		out += "\nDue soon:\n" + strings.Join(due, "\n") + "\n"
	}
	return out + "\n" + m.list.View()
}

func (m *Model) renderActivity() string {
	if m.progressChan != nil {
		return fmt.Sprintf("Returning loans (%d/%d)\n%s", m.progress.Step, m.progress.Total, m.progress.Message)
	}
	if m.confirming {
		n := len(tasks.ActiveLoans(m.loans))
		return styles.warn.Render(fmt.Sprintf("Return all %d active loans? (y/n)", n))
	}

	tabs := make([]string, len(tasks.LoanTabs))
	for i, tab := range tasks.LoanTabs {
		if tab == m.tab {
			tabs[i] = styles.active.Render(string(tab))
		} else {
			tabs[i] = styles.muted.Render(string(tab))
		}
	}
	return strings.Join(tabs, " | ") + "\n\n" + m.list.View()
}

func (m *Model) renderProfile() string {
	user, ok := m.payload.(*models.User)
	if !ok || user == nil {
		return "No profile loaded."
	}

	twoFA := "disabled"
	if user.TwoFactorEnabled {
		twoFA = "enabled"
	}
	rows := [][2]string{
		{"Name", user.FullName()},
		{"Username", user.Username},
		{"Email", user.Email},
		{"Role", string(user.Role)},
		{"Status", string(user.AccountStatus)},
		{"2FA", twoFA},
		{"Member since", models.FormatDate(user.CreatedAt, "N/A")},
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%-14s %s\n", r[0]+":", r[1])
	}
	return b.String()
}

func (m *Model) renderOverview() string {
	res, ok := m.payload.(*tasks.OverviewResult)
	if !ok || res == nil {
		return "No overview loaded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Equipment:             %d\n", len(res.Equipment))
	fmt.Fprintf(&b, "Users:                 %d\n", len(res.Users))
	fmt.Fprintf(&b, "Current loans:         %d\n", len(res.CurrentLoans))
	fmt.Fprintf(&b, "Overdue loans:         %d\n", len(res.OverdueLoans))
	fmt.Fprintf(&b, "Scheduled maintenance: %d\n", len(res.ScheduledMaintenance))
	fmt.Fprintf(&b, "Overdue maintenance:   %d\n", len(res.OverdueMaintenance))
	fmt.Fprintf(&b, "Reservations:          %d\n", len(res.Reservations))

	for _, e := range res.Errors {
		b.WriteString(styles.err.Render(fmt.Sprintf("\n%s unavailable: %v", e.Endpoint, e.Error)))
	}
	return b.String()
}

// helpKeys lists the bindings that do something on the current page.
func (m *Model) helpKeys() []key.Binding {
	switch {
	case m.confirming:
		return []key.Binding{m.keys.yes, m.keys.no}
	case m.route.Path == router.Login:
		return []key.Binding{m.keys.enter, m.keys.next}
	case m.session == nil:
		return []key.Binding{m.keys.back, m.keys.quit}
	}

	keys := []key.Binding{m.keys.up, m.keys.down}
	switch m.route.Path {
	case router.Dashboard:
		keys = append(keys, m.keys.borrow)
	case router.Activity:
		keys = append(keys, m.keys.tabLeft, m.keys.tabRight, m.keys.ret, m.keys.returnAll)
	case router.Reservations:
		keys = append(keys, m.keys.cancel)
	case router.AdminMaintenance:
		keys = append(keys, m.keys.start, m.keys.complete)
	case router.AdminReservations:
		keys = append(keys, m.keys.confirm)
	}
	return append(keys, m.keys.next, m.keys.refresh, m.keys.logout, m.keys.quit)
}
