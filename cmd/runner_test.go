package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/repositories"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	tu "github.com/desertthunder/equipx/internal/testing"
	"github.com/google/go-cmp/cmp"
)

// lendingAPI is a fake backend with one member (anna) and one admin (root).
type lendingAPI struct {
	t      *testing.T
	reject atomic.Bool
	down   atomic.Bool

	mu       sync.Mutex
	returned []string
	borrowed map[string]models.BorrowRequest
}

func (a *lendingAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	if a.down.Load() {
		writeJSON(http.StatusServiceUnavailable, map[string]string{"message": "Maintenance window"})
		return
	}

	if r.URL.Path == "/api/benutzer/login" {
		var creds models.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		switch {
		case creds.Username == "anna" && creds.Password == "secret123":
			writeJSON(http.StatusOK, models.LoginResponse{Token: tu.ValidToken(a.t, "anna")})
		case creds.Username == "root" && creds.Password == "secret123":
			writeJSON(http.StatusOK, models.LoginResponse{Token: tu.MustToken(a.t, "root", "ADMIN", time.Now().Add(time.Hour))})
		default:
			writeJSON(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		}
		return
	}

	if a.reject.Load() || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(http.StatusUnauthorized, map[string]string{"message": "Token expired"})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/benutzer/equipment":
		writeJSON(http.StatusOK, []models.Equipment{
			{ID: 1, Name: "Canon EOS R5", InventoryNumber: "INV-001", Category: models.CategoryCamera, Status: models.StatusAvailable},
			{ID: 3, Name: "Rode NT1", InventoryNumber: "INV-003", Category: models.CategoryAudio, Status: models.StatusAvailable},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/api/benutzer/ausleihen":
		writeJSON(http.StatusOK, []models.Loan{
			{ID: 10, EquipmentID: 2, EquipmentName: "MacBook Pro", BorrowedAt: "2024-05-01T09:00:00", ExpectedReturnDate: "2024-05-10", Status: models.LoanActive},
			{ID: 12, EquipmentID: 1, EquipmentName: "Zoom H6", BorrowedAt: "2024-03-01T09:00:00", ReturnedAt: "2024-03-03T17:00:00", Status: models.LoanReturned},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/api/benutzer/loan-rules":
		writeJSON(http.StatusOK, models.LoanRules{MaxLoansPerUser: 3, MinLoanDurationDays: 1, MaxLoanDurationDays: 30, DefaultLoanDurationDays: 7})
	case r.Method == http.MethodGet && r.URL.Path == "/api/benutzer/reservations":
		writeJSON(http.StatusOK, []models.Reservation{})
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/benutzer/rueckgabe/"):
		a.mu.Lock()
		a.returned = append(a.returned, strings.TrimPrefix(r.URL.Path, "/api/benutzer/rueckgabe/"))
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/benutzer/ausleihen/"):
		var body models.BorrowRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.mu.Lock()
		a.borrowed[strings.TrimPrefix(r.URL.Path, "/api/benutzer/ausleihen/")] = body
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
		writeJSON(http.StatusOK, []models.User{
			{ID: 1, Username: "anna", FirstName: "Anna", LastName: "Schmidt", Role: models.RoleUser},
			{ID: 2, Username: "root", Role: models.RoleAdmin},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/admin/"):
		writeJSON(http.StatusOK, []any{})
	default:
		writeJSON(http.StatusNotFound, map[string]string{"message": "Not found"})
	}
}

type harness struct {
	t       *testing.T
	runner  *Runner
	out     *bytes.Buffer
	api     *lendingAPI
	db      *sql.DB
	profile string
}

var fixedNow = time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC)

// newHarness wires a runner to the fake backend and an in-memory database.
// input is what the runner reads for prompts and confirmations.
func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	api := &lendingAPI{t: t, borrowed: map[string]models.BorrowRequest{}}
	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase() error: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := shared.NewLogger(io.Discard)
	baseURL := backend.URL + "/api"
	sessions := session.NewManager(session.ManagerOpts{
		Store:  repositories.NewSessionRepository(db, baseURL),
		Logger: logger,
	})
	client := services.NewClient(services.ClientOpts{BaseURL: baseURL, Sessions: sessions, Logger: logger})

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Client: client,
		DB:     db,
		Logger: logger,
		Output: out,
		Input:  strings.NewReader(input),
		Now:    func() time.Time { return fixedNow },
	})
	return &harness{t: t, runner: runner, out: out, api: api, db: db, profile: baseURL}
}

func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.out.Reset()
	return h.runner.app().Run(context.Background(), append([]string{"equipx"}, args...))
}

func (h *harness) login(user string) {
	h.t.Helper()
	if err := h.run("auth", "login", "-u", user, "-p", "secret123"); err != nil {
		h.t.Fatalf("login as %s: %v", user, err)
	}
}

func (h *harness) contains(want ...string) {
	h.t.Helper()
	for _, w := range want {
		if !strings.Contains(h.out.String(), w) {
			h.t.Errorf("output missing %q:\n%s", w, h.out.String())
		}
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.client != nil || runner.engine != nil {
				t.Error("expected client and engine to wait for Init")
			}
			if runner.toasts == nil {
				t.Error("expected a toast queue")
			}
		})

		t.Run("with a client builds the engine", func(t *testing.T) {
			client := services.NewClient(services.ClientOpts{BaseURL: "http://lending.test/api/"})
			runner := NewRunner(RunnerOpts{Client: client})

			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.sessions != client.Sessions() {
				t.Error("expected sessions from the client")
			}
			if runner.engine == nil {
				t.Error("expected engine to be set")
			}
			if runner.profile != "http://lending.test/api" {
				t.Errorf("profile = %q", runner.profile)
			}
		})

		t.Run("with a database binds the repositories to the profile", func(t *testing.T) {
			h := newHarness(t, "")
			if h.runner.stored == nil || h.runner.snapshots == nil {
				t.Fatal("expected repositories to be set")
			}
			if got := h.runner.stored.Profile(); got != h.profile {
				t.Errorf("stored profile = %q, want %q", got, h.profile)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if want := `{"key":"value"}` + "\n"; output.String() != want {
				t.Errorf("expected %q, got %q", want, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writeTable", func(t *testing.T) {
		t.Run("empty table prints a notice", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeTable("Reservations", formatter.Table{}); err != nil {
				t.Fatal(err)
			}
			if output.String() != "No reservations found.\n" {
				t.Errorf("got %q", output.String())
			}
		})
	})

	t.Run("confirm", func(t *testing.T) {
		tests := []struct {
			input string
			want  bool
		}{
			{"y\n", true},
			{"YES\n", true},
			{"n\n", false},
			{"\n", false},
			{"", false},
		}
		for _, tt := range tests {
			runner := NewRunner(RunnerOpts{Output: io.Discard, Input: strings.NewReader(tt.input)})
			if got := runner.confirm("Proceed?"); got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		}
	})

	t.Run("parseTOTP", func(t *testing.T) {
		if code, err := parseTOTP("012345"); err != nil || code != 12345 {
			t.Errorf("parseTOTP(012345) = %d, %v", code, err)
		}
		for _, bad := range []string{"", "12345", "1234567", "12a456"} {
			if _, err := parseTOTP(bad); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("parseTOTP(%q) error = %v", bad, err)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores the session for the profile", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")
		h.contains("Welcome back, anna!", "Logged in as USER")

		token, err := repositories.NewSessionRepository(h.db, h.profile).Load(context.Background())
		if err != nil || token == "" {
			t.Fatalf("stored token = %q, %v", token, err)
		}
	})

	t.Run("login prompts for a missing password", func(t *testing.T) {
		h := newHarness(t, "secret123\n")
		if err := h.run("auth", "login", "-u", "anna"); err != nil {
			t.Fatal(err)
		}
		h.contains("Password: ", "Welcome back, anna!")
	})

	t.Run("wrong password", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run("auth", "login", "-u", "anna", "-p", "wrongpass")

		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if shared.IsUnauthenticated(err) {
			t.Error("a rejected login is not a lost session")
		}
		if msg := services.Message(err); msg != "Invalid credentials" {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("status", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("auth", "status"); err != nil {
			t.Fatal(err)
		}
		h.contains("Not logged in")

		h.login("root")
		if err := h.run("auth", "status", "--json"); err != nil {
			t.Fatal(err)
		}
		var status authStatus
		if err := json.Unmarshal(h.out.Bytes(), &status); err != nil {
			t.Fatalf("decode status: %v\n%s", err, h.out.String())
		}
		if !status.Authenticated || status.Username != "root" || status.Role != "ADMIN" {
			t.Errorf("status = %+v", status)
		}

		if err := h.run("auth", "status", "--all"); err != nil {
			t.Fatal(err)
		}
		h.contains("* "+h.profile, "root")
	})

	t.Run("logout", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")
		if err := h.run("auth", "logout"); err != nil {
			t.Fatal(err)
		}
		h.contains("Logged out")

		err := h.run("equipment", "list")
		if !shared.IsUnauthenticated(err) {
			t.Errorf("expected unauthenticated error after logout, got %v", err)
		}
	})
}

func TestEquipmentCommands(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("equipment", "list"); !shared.IsUnauthenticated(err) {
			t.Fatalf("expected unauthenticated error, got %v", err)
		}
	})

	t.Run("list filters by category", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("equipment", "list", "--category", "camera"); err != nil {
			t.Fatal(err)
		}
		h.contains("Canon EOS R5", "INV-001")
		if strings.Contains(h.out.String(), "Rode NT1") {
			t.Errorf("expected audio equipment to be filtered out:\n%s", h.out.String())
		}
	})

	t.Run("list as JSON", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("equipment", "list", "--json", "--sort", "name:desc"); err != nil {
			t.Fatal(err)
		}
		var items []models.Equipment
		if err := json.Unmarshal(h.out.Bytes(), &items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		var names []string
		for _, it := range items {
			names = append(names, it.Name)
		}
		if diff := cmp.Diff([]string{"Rode NT1", "Canon EOS R5"}, names); diff != "" {
			t.Errorf("names mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("offline shows the last snapshot", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("equipment", "list", "--offline"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before any fetch, got %v", err)
		}
		if err := h.run("equipment", "list"); err != nil {
			t.Fatal(err)
		}

		h.api.down.Store(true)
		if err := h.run("equipment", "list"); err == nil {
			t.Fatal("expected the live list to fail while the API is down")
		}
		if err := h.run("equipment", "list", "--offline"); err != nil {
			t.Fatal(err)
		}
		h.contains("Canon EOS R5", "Rode NT1")
	})

	t.Run("borrow defaults to the loan rules", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("equipment", "borrow", "3"); err != nil {
			t.Fatal(err)
		}
		h.contains("Borrowed equipment #3, due 2024-05-12")
		if got := h.api.borrowed["3"].ExpectedReturnDate; got != "2024-05-12" {
			t.Errorf("expected return date = %q", got)
		}
	})

	t.Run("borrow rejects a past date", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		err := h.run("equipment", "borrow", "3", "--until", "2024-05-01")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if len(h.api.borrowed) != 0 {
			t.Error("nothing should be borrowed")
		}
	})

	t.Run("id must be a number", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("equipment", "return", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := h.run("equipment", "return"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("a rejected token clears the session", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")
		h.api.reject.Store(true)

		if err := h.run("equipment", "list"); !shared.IsUnauthenticated(err) {
			t.Fatalf("expected unauthenticated error, got %v", err)
		}
		if err := h.run("auth", "status"); err != nil {
			t.Fatal(err)
		}
		h.contains("Not logged in")
	})
}

func TestLoanCommands(t *testing.T) {
	t.Run("list by tab", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("loans", "list", "--tab", "returned"); err != nil {
			t.Fatal(err)
		}
		h.contains("Returned loans", "Zoom H6")
		if strings.Contains(h.out.String(), "MacBook Pro") {
			t.Errorf("active loan listed under Returned:\n%s", h.out.String())
		}

		if err := h.run("loans", "list", "--tab", "lost"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for unknown tab, got %v", err)
		}
	})

	t.Run("return-all asks first", func(t *testing.T) {
		h := newHarness(t, "n\n")
		h.login("anna")

		if err := h.run("loans", "return-all"); err != nil {
			t.Fatal(err)
		}
		h.contains("Return all 1 active loans? [y/N]", "Cancelled")
		if len(h.api.returned) != 0 {
			t.Errorf("returned = %v, want none", h.api.returned)
		}
	})

	t.Run("return-all returns the active loans", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("loans", "return-all", "--yes"); err != nil {
			t.Fatal(err)
		}
		h.contains("Returned 1 items")
		if diff := cmp.Diff([]string{"2"}, h.api.returned); diff != "" {
			t.Errorf("returned mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestReservationCommands(t *testing.T) {
	h := newHarness(t, "")
	h.login("anna")

	t.Run("empty list", func(t *testing.T) {
		if err := h.run("reservations", "list"); err != nil {
			t.Fatal(err)
		}
		h.contains("No reservations found.")
	})

	t.Run("create validates the range before calling the API", func(t *testing.T) {
		err := h.run("reservations", "create", "-e", "1", "--start", "2024-05-01", "--end", "2024-05-03")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for a past start, got %v", err)
		}
		err = h.run("reservations", "create", "-e", "1", "--start", "2024-05-09", "--end", "2024-05-07")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for end before start, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		if err := h.run("reservations", "list", "--status", "lost"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAdminCommands(t *testing.T) {
	t.Run("members are refused before any call", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("admin", "users", "list"); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("users list filters by role", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("root")

		if err := h.run("admin", "users", "list", "--role", "user"); err != nil {
			t.Fatal(err)
		}
		h.contains("anna", "Schmidt")
	})

	t.Run("delete asks first", func(t *testing.T) {
		h := newHarness(t, "no\n")
		h.login("root")

		if err := h.run("admin", "users", "delete", "1"); err != nil {
			t.Fatal(err)
		}
		h.contains("Delete user #1? [y/N]", "Cancelled")
	})

	t.Run("overview", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("root")

		if err := h.run("admin", "overview"); err != nil {
			t.Fatal(err)
		}
		h.contains("Users:                 2", "Current loans:         0")
	})
}

func TestExportCommands(t *testing.T) {
	t.Run("exports one dataset", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")
		path := filepath.Join(t.TempDir(), "out", "equipment.csv")

		if err := h.run("export", "equipment", "-o", path); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "Canon EOS R5") {
			t.Errorf("csv missing rows:\n%s", content)
		}
		h.contains("Exported 2 equipment to " + path)
	})

	t.Run("admin datasets need the admin role", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("export", "users", "-o", filepath.Join(t.TempDir(), "users.csv")); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("export", "loans", "--format", "xlsx"); !errors.Is(err, shared.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})

	t.Run("all writes every member dataset and a manifest", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")
		dir := filepath.Join(t.TempDir(), "backup")

		if err := h.run("export", "all", "--dir", dir, "--format", "json"); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "manifest.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "equipment.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "loans.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "reservations.json"))
		h.contains("Exported 3 datasets to")
	})

	t.Run("all skips empty datasets in csv", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")
		dir := filepath.Join(t.TempDir(), "backup")

		if err := h.run("export", "all", "--dir", dir, "--format", "csv"); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "equipment.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "loans.csv"))
		h.contains("Exported 2 of 3 datasets")
	})
}

func TestAPICommand(t *testing.T) {
	t.Run("get prints the JSON body", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("api", "get", "/benutzer/loan-rules"); err != nil {
			t.Fatal(err)
		}
		h.contains(`"defaultLoanDurationDays": 7`)
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("api", "post", "/benutzer/reservations", "-d", "{nope"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("error status", func(t *testing.T) {
		h := newHarness(t, "")
		h.login("anna")

		if err := h.run("api", "get", "/benutzer/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("without a session", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("api", "get", "/benutzer/equipment"); !shared.IsUnauthenticated(err) {
			t.Errorf("expected unauthenticated error, got %v", err)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	h := newHarness(t, "")
	h.login("anna")

	if err := h.run("cache", "list"); err != nil {
		t.Fatal(err)
	}
	h.contains("No offline copies")

	if err := h.run("equipment", "list"); err != nil {
		t.Fatal(err)
	}
	if err := h.run("loans", "list"); err != nil {
		t.Fatal(err)
	}

	if err := h.run("cache", "list", "--json"); err != nil {
		t.Fatal(err)
	}
	var cached []cachedDataset
	if err := json.Unmarshal(h.out.Bytes(), &cached); err != nil {
		t.Fatalf("decode: %v", err)
	}
	counts := map[string]int{}
	for _, c := range cached {
		counts[c.Dataset] = c.Items
	}
	if diff := cmp.Diff(map[string]int{"equipment": 2, "loans": 2}, counts); diff != "" {
		t.Errorf("cached mismatch (-want +got):\n%s", diff)
	}

	if err := h.run("cache", "clear", "--yes"); err != nil {
		t.Fatal(err)
	}
	h.contains("Removed 2 offline copies")

	if err := h.run("equipment", "list", "--offline"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes the template once", func(t *testing.T) {
		h := newHarness(t, "")
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := h.run("--config", path, "setup", "config"); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("written config does not load: %v", err)
		}

		if err := h.run("--config", path, "setup", "config"); err == nil {
			t.Error("expected an error when the file exists")
		}
	})

	t.Run("database migrates and rolls back", func(t *testing.T) {
		h := newHarness(t, "")

		if err := h.run("setup", "database"); err != nil {
			t.Fatal(err)
		}
		h.contains("Database ready")
		if err := h.run("setup", "database", "--rollback"); err != nil {
			t.Fatal(err)
		}
		h.contains("Rolled back")
	})
}
