package ui

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/router"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	tu "github.com/desertthunder/equipx/internal/testing"
)

type fakeBackend struct {
	services.Service
	services.AdminService

	t        *testing.T
	sessions *session.Manager

	equipment    []models.Equipment
	loans        []models.Loan
	reservations []models.Reservation
	loansErr     error

	mu        sync.Mutex
	borrowed  []int
	returned  []int
	confirmed []int
}

func (f *fakeBackend) Login(ctx context.Context, creds models.Credentials) (*session.Session, error) {
	if creds.Password != "secret123" {
		return nil, &services.APIError{Status: 401, Message: "Invalid credentials", Public: true}
	}
	token := tu.ValidToken(f.t, creds.Username)
	if creds.Username == "root" {
		token = tu.MustToken(f.t, "root", "ADMIN", time.Now().Add(time.Hour))
	}
	return f.sessions.Login(ctx, token)
}

func (f *fakeBackend) Logout(ctx context.Context) error { return f.sessions.Invalidate(ctx) }

func (f *fakeBackend) AvailableEquipment(context.Context) ([]models.Equipment, error) {
	return f.equipment, nil
}

func (f *fakeBackend) MyLoans(context.Context) ([]models.Loan, error) { return f.loans, f.loansErr }

func (f *fakeBackend) MyReservations(context.Context) ([]models.Reservation, error) {
	return f.reservations, nil
}

func (f *fakeBackend) AllReservations(context.Context) ([]models.Reservation, error) {
	return f.reservations, nil
}

func (f *fakeBackend) Borrow(_ context.Context, id int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.borrowed = append(f.borrowed, id)
	return nil
}

func (f *fakeBackend) Return(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returned = append(f.returned, id)
	return nil
}

func (f *fakeBackend) ConfirmReservation(_ context.Context, id int) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, id)
	return &models.Reservation{ID: id, Status: models.ReservationConfirmed}, nil
}

func newTestModel(t *testing.T) (*Model, *fakeBackend) {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	sessions := session.NewManager(session.ManagerOpts{Logger: logger})
	backend := &fakeBackend{
		t:        t,
		sessions: sessions,
		equipment: []models.Equipment{
			{ID: 1, Name: "Canon EOS R5", InventoryNumber: "INV-001", Category: models.CategoryCamera, Status: models.StatusAvailable},
			{ID: 2, Name: "MacBook Pro", InventoryNumber: "INV-002", Category: models.CategoryLaptop, Status: models.StatusBorrowed},
		},
		loans: []models.Loan{
			{ID: 10, EquipmentID: 2, EquipmentName: "MacBook Pro", BorrowedAt: "2024-05-01T09:00:00", Status: models.LoanActive},
			{ID: 11, EquipmentID: 3, EquipmentName: "Rode NT1", BorrowedAt: "2024-04-01T09:00:00", Status: models.LoanOverdue},
			{ID: 12, EquipmentID: 4, EquipmentName: "Zoom H6", BorrowedAt: "2024-03-01T09:00:00", ReturnedAt: "2024-03-03T17:00:00", Status: models.LoanReturned},
		},
		reservations: []models.Reservation{
			{ID: 30, EquipmentID: 1, EquipmentName: "Canon EOS R5", StartDate: "2024-06-01", EndDate: "2024-06-03", Status: models.ReservationPending},
		},
	}

	m := NewModel(t.Context(), Opts{
		Sessions: sessions,
		Member:   backend,
		Admin:    backend,
		Toasts:   notify.NewQueue(notify.QueueOpts{TTL: time.Minute}),
		Logger:   logger,
	})
	m.tick = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, backend
}

// drive runs cmd and every command that follows from it, feeding the
// model's own messages back through Update. Component messages (cursor
// blinks and the like) are dropped.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("command chain did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case Msg:
			_, follow := m.Update(msg)
			queue = append(queue, follow)
		}
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// press sends a key and drives whatever it starts.
func press(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	drive(t, m, cmd)
}

func login(t *testing.T, m *Model, username, password string) {
	t.Helper()
	m.Update(runes(username))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes(password))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func hasToast(m *Model, kind notify.Kind, message string) bool {
	for _, toast := range m.toasts.Active() {
		if toast.Kind == kind && strings.Contains(toast.Message, message) {
			return true
		}
	}
	return false
}

func TestModelNavigation(t *testing.T) {
	t.Run("anonymous start lands on login", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())

		if m.route.Path != router.Login {
			t.Fatalf("route = %q, want login", m.route.Path)
		}
		if m.next != router.Dashboard {
			t.Errorf("next = %q, want dashboard", m.next)
		}
		if !strings.Contains(m.View(), "Equipment Management | Login") {
			t.Error("login title not rendered")
		}
	})

	t.Run("login opens the requested page", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, "anna", "secret123")

		if m.route.Path != router.Dashboard {
			t.Fatalf("route = %q, want dashboard", m.route.Path)
		}
		if !hasToast(m, notify.Success, "Welcome back, anna!") {
			t.Error("expected welcome toast")
		}
		if got := len(m.list.Items()); got != 2 {
			t.Errorf("dashboard items = %d, want 2", got)
		}

		view := m.View()
		for _, want := range []string{"Canon EOS R5", "Available: 1", "anna (USER)"} {
			if !strings.Contains(view, want) {
				t.Errorf("dashboard view missing %q", want)
			}
		}
	})

	t.Run("wrong password stays on login", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, "anna", "nope")

		if m.route.Path != router.Login {
			t.Errorf("route = %q, want login", m.route.Path)
		}
		if !hasToast(m, notify.Error, "Invalid credentials") {
			t.Error("expected backend message as toast")
		}
		if m.login.submitting {
			t.Error("form still submitting")
		}
	})

	t.Run("empty form is rejected locally", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		if !hasToast(m, notify.Error, "username is required") {
			t.Error("expected validation toast")
		}
	})

	t.Run("members are kept out of admin pages", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, "anna", "secret123")
		drive(t, m, m.navigate(router.AdminUsers))

		if m.route.Path != router.Dashboard {
			t.Errorf("route = %q, want dashboard", m.route.Path)
		}
		if !hasToast(m, notify.Error, "administrator role required") {
			t.Error("expected forbidden toast")
		}
	})

	t.Run("tab cycles through member pages", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, "anna", "secret123")

		press(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.route.Path != router.Activity {
			t.Errorf("route = %q, want activity", m.route.Path)
		}
		press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
		if m.route.Path != router.Dashboard {
			t.Errorf("route = %q, want dashboard", m.route.Path)
		}
	})

	t.Run("session loss returns to login and back", func(t *testing.T) {
		m, backend := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, "anna", "secret123")

		backend.loansErr = shared.ErrSessionExpired
		drive(t, m, m.navigate(router.Activity))

		if m.route.Path != router.Login {
			t.Fatalf("route = %q, want login", m.route.Path)
		}
		if !hasToast(m, notify.Error, shared.SessionExpiredMessage) {
			t.Error("expected session expired toast")
		}
		if m.sessions.Authenticated(t.Context()) {
			t.Error("session should be cleared")
		}

		backend.loansErr = nil
		login(t, m, "anna", "secret123")
		if m.route.Path != router.Activity {
			t.Errorf("route = %q, want activity after re-login", m.route.Path)
		}
	})

	t.Run("logout", func(t *testing.T) {
		m, _ := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, "anna", "secret123")
		press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})

		if m.route.Path != router.Login || m.session != nil {
			t.Errorf("route = %q, session = %v", m.route.Path, m.session)
		}
		if m.sessions.Authenticated(t.Context()) {
			t.Error("token should be cleared")
		}
	})
}

func TestModelActions(t *testing.T) {
	setup := func(t *testing.T, username string) (*Model, *fakeBackend) {
		m, backend := newTestModel(t)
		drive(t, m, m.Init())
		login(t, m, username, "secret123")
		return m, backend
	}

	t.Run("borrow selected equipment", func(t *testing.T) {
		m, backend := setup(t, "anna")
		press(t, m, runes("b"))

		if len(backend.borrowed) != 1 || backend.borrowed[0] != 1 {
			t.Errorf("borrowed = %v", backend.borrowed)
		}
		if !hasToast(m, notify.Success, "Equipment borrowed successfully") {
			t.Error("expected success toast")
		}
	})

	t.Run("borrowing unavailable equipment warns", func(t *testing.T) {
		m, backend := setup(t, "anna")
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
		press(t, m, runes("b"))

		if len(backend.borrowed) != 0 {
			t.Errorf("borrowed = %v", backend.borrowed)
		}
		if !hasToast(m, notify.Warning, "MacBook Pro is not available") {
			t.Error("expected warning toast")
		}
	})

	t.Run("activity tabs filter loans", func(t *testing.T) {
		m, _ := setup(t, "anna")
		drive(t, m, m.navigate(router.Activity))
		if got := len(m.list.Items()); got != 3 {
			t.Fatalf("all tab items = %d, want 3", got)
		}

		press(t, m, runes("l"))
		if m.tab != "Active" || len(m.list.Items()) != 1 {
			t.Errorf("tab = %q, items = %d", m.tab, len(m.list.Items()))
		}
		press(t, m, runes("h"))
		press(t, m, runes("h"))
		if m.tab != "Overdue" || len(m.list.Items()) != 1 {
			t.Errorf("tab = %q, items = %d", m.tab, len(m.list.Items()))
		}
	})

	t.Run("return selected loan", func(t *testing.T) {
		m, backend := setup(t, "anna")
		drive(t, m, m.navigate(router.Activity))
		press(t, m, runes("x"))

		if len(backend.returned) != 1 || backend.returned[0] != 2 {
			t.Errorf("returned = %v", backend.returned)
		}
	})

	t.Run("return all asks first", func(t *testing.T) {
		m, backend := setup(t, "anna")
		drive(t, m, m.navigate(router.Activity))

		press(t, m, runes("X"))
		if !m.confirming || !strings.Contains(m.View(), "Return all 2 active loans?") {
			t.Fatal("expected confirmation prompt")
		}
		press(t, m, runes("n"))
		if m.confirming || len(backend.returned) != 0 {
			t.Fatal("declining should not return anything")
		}

		press(t, m, runes("X"))
		press(t, m, runes("y"))
		if len(backend.returned) != 2 {
			t.Errorf("returned = %v, want both active loans", backend.returned)
		}
		if !hasToast(m, notify.Success, "Returned 2 items") {
			t.Error("expected summary toast")
		}
		if m.progressChan != nil {
			t.Error("progress channel not released")
		}
	})

	t.Run("admin confirms a reservation", func(t *testing.T) {
		m, backend := setup(t, "root")
		drive(t, m, m.navigate(router.AdminReservations))
		if m.route.Path != router.AdminReservations {
			t.Fatalf("route = %q", m.route.Path)
		}

		press(t, m, runes("a"))
		if len(backend.confirmed) != 1 || backend.confirmed[0] != 30 {
			t.Errorf("confirmed = %v", backend.confirmed)
		}
	})
}

func TestToasts(t *testing.T) {
	m, _ := newTestModel(t)
	m.tick = tea.Tick
	cmd := m.notify(notify.Info, "Hello")
	if cmd == nil {
		t.Fatal("expected a dismissal tick")
	}
	if !strings.Contains(m.View(), "Hello") {
		t.Error("toast not rendered")
	}

	id := m.toasts.Active()[0].ID
	m.Update(toastExpiredMsg(id))
	if len(m.toasts.Active()) != 0 {
		t.Error("toast not dismissed")
	}
}

func TestListItems(t *testing.T) {
	loan := loanItem{loan: models.Loan{
		EquipmentName:      "Zoom H6",
		Username:           "anna",
		BorrowedAt:         "2024-03-01T09:00:00",
		ExpectedReturnDate: "2024-03-10",
		Status:             models.LoanActive,
	}}
	if loan.Title() != "Zoom H6 (anna)" {
		t.Errorf("Title() = %q", loan.Title())
	}
	if got := loan.Description(); got != "Active • borrowed 2024-03-01 • due 2024-03-10" {
		t.Errorf("Description() = %q", got)
	}

	res := reservationItem{reservation: models.Reservation{EquipmentID: 7, Status: models.ReservationPending}}
	if res.Title() != "Equipment #7" {
		t.Errorf("Title() = %q", res.Title())
	}
}
