package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/shared"
	tu "github.com/desertthunder/equipx/internal/testing"
	"github.com/google/go-cmp/cmp"
)

func newTestEngine(f *fakeBackend) *LendingEngine {
	return NewLendingEngine(f, f, EngineOpts{
		Workers:   3,
		RateLimit: 1000,
		Now:       func() time.Time { return time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC) },
	})
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	close(ch)
	var out []ProgressUpdate
	for u := range ch {
		out = append(out, u)
	}
	return out
}

func TestPhase(t *testing.T) {
	phases := map[Phase]string{
		FetchEquipment:    "fetch_equipment",
		FetchLoans:        "fetch_loans",
		FetchUsers:        "fetch_users",
		FetchReservations: "fetch_reservations",
		FetchMaintenance:  "fetch_maintenance",
		ReturnLoans:       "return_loans",
		ExportDataset:     "export_dataset",
		WriteManifest:     "write_manifest",
		Phase(99):         "",
	}
	for p, want := range phases {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}

func TestNewLendingEngine(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := NewLendingEngine(nil, nil, EngineOpts{})
		if e.workers != 4 || e.limit != 5 || e.now == nil {
			t.Errorf("unexpected defaults: workers=%d limit=%v", e.workers, e.limit)
		}
	})

	t.Run("caps workers", func(t *testing.T) {
		if e := NewLendingEngine(nil, nil, EngineOpts{Workers: 50}); e.workers != 10 {
			t.Errorf("workers = %d, want 10", e.workers)
		}
	})

	t.Run("nil services", func(t *testing.T) {
		e := NewLendingEngine(nil, nil, EngineOpts{})
		ctx := context.Background()
		if _, err := e.LoadDashboard(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("LoadDashboard error = %v", err)
		}
		if _, err := e.ReturnAll(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("ReturnAll error = %v", err)
		}
		if _, err := e.Overview(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Overview error = %v", err)
		}
	})

	t.Run("full channel does not block", func(t *testing.T) {
		e := NewLendingEngine(nil, nil, EngineOpts{})
		ch := make(chan ProgressUpdate)
		e.sendProgress(ch, ProgressUpdate{Message: "dropped"})
		e.sendProgress(nil, ProgressUpdate{Message: "ignored"})
	})
}

func TestLoadDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("loads equipment, loans and stats", func(t *testing.T) {
		f := &fakeBackend{
			equipment:    sampleEquipment(),
			loans:        sampleLoans(),
			reservations: []models.Reservation{{ID: 7, Status: models.ReservationPending}},
		}
		d, err := newTestEngine(f).LoadDashboard(ctx)
		if err != nil {
			t.Fatalf("LoadDashboard() error: %v", err)
		}
		if len(d.Equipment) != 4 || len(d.Loans) != 4 || len(d.Reservations) != 1 {
			t.Errorf("unexpected counts: %d equipment, %d loans, %d reservations", len(d.Equipment), len(d.Loans), len(d.Reservations))
		}
		if diff := cmp.Diff(Stats{Available: 2, Borrowed: 1, Overdue: 1, ActiveLoans: 2}, d.Stats); diff != "" {
			t.Errorf("Stats mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"All", "CAMERA", "LAPTOP", "AUDIO"}, d.Categories); diff != "" {
			t.Errorf("Categories mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]int{10, 11}, loanIDs(d.DueSoon)); diff != "" {
			t.Errorf("DueSoon mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reservation failure is not fatal", func(t *testing.T) {
		f := &fakeBackend{equipment: sampleEquipment(), reservationsErr: shared.ErrServiceUnavailable}
		d, err := newTestEngine(f).LoadDashboard(ctx)
		if err != nil {
			t.Fatalf("LoadDashboard() error: %v", err)
		}
		if d.Reservations != nil {
			t.Errorf("expected no reservations, got %v", d.Reservations)
		}
	})

	t.Run("expired session on any call is fatal", func(t *testing.T) {
		f := &fakeBackend{reservationsErr: shared.ErrSessionExpired}
		if _, err := newTestEngine(f).LoadDashboard(ctx); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("loan failure is fatal", func(t *testing.T) {
		f := &fakeBackend{loansErr: shared.ErrNotFound}
		_, err := newTestEngine(f).LoadDashboard(ctx)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReturnAll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns active and overdue loans", func(t *testing.T) {
		f := &fakeBackend{loans: sampleLoans()}
		progress := make(chan ProgressUpdate, 10)

		res, err := newTestEngine(f).ReturnAll(ctx, progress)
		if err != nil {
			t.Fatalf("ReturnAll() error: %v", err)
		}
		if res.Total != 2 || res.Succeeded != 2 || res.Failed != 0 {
			t.Errorf("unexpected result: %+v", res)
		}

		got := f.returnedIDs()
		slices.Sort(got)
		if diff := cmp.Diff([]int{2, 5}, got); diff != "" {
			t.Errorf("returned equipment mismatch (-want +got):\n%s", diff)
		}

		updates := drain(progress)
		if len(updates) != 3 {
			t.Fatalf("expected 3 progress updates, got %d", len(updates))
		}
		for _, u := range updates {
			if u.Phase != ReturnLoans {
				t.Errorf("unexpected phase %v", u.Phase)
			}
		}
	})

	t.Run("nothing to return", func(t *testing.T) {
		f := &fakeBackend{loans: sampleLoans()[2:]}
		res, err := newTestEngine(f).ReturnAll(ctx, nil)
		if err != nil {
			t.Fatalf("ReturnAll() error: %v", err)
		}
		if res.Total != 0 || len(f.returnedIDs()) != 0 {
			t.Errorf("expected no returns, got %+v", res)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		f := &fakeBackend{loans: sampleLoans(), returnErrs: map[int]error{5: shared.ErrNotFound}}
		res, err := newTestEngine(f).ReturnAll(ctx, nil)
		if err != nil {
			t.Fatalf("ReturnAll() error: %v", err)
		}
		if res.Succeeded != 1 || res.Failed != 1 {
			t.Errorf("expected 1 success and 1 failure, got %+v", res)
		}
		for _, r := range res.Results {
			if r.Loan.EquipmentID == 5 && !errors.Is(r.Error, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound for equipment 5, got %v", r.Error)
			}
		}
	})

	t.Run("expired session aborts", func(t *testing.T) {
		f := &fakeBackend{loans: sampleLoans(), returnErrs: map[int]error{2: shared.ErrSessionExpired, 5: shared.ErrSessionExpired}}
		res, err := newTestEngine(f).ReturnAll(ctx, nil)
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if res == nil || res.Succeeded != 0 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("loan fetch failure", func(t *testing.T) {
		f := &fakeBackend{loansErr: shared.ErrSessionExpired}
		if _, err := newTestEngine(f).ReturnAll(ctx, nil); !shared.IsUnauthenticated(err) {
			t.Errorf("expected unauthenticated error, got %v", err)
		}
	})
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	maintenance := map[models.MaintenanceStatus][]models.MaintenanceRecord{
		models.MaintenanceScheduled: {{ID: 1, Status: models.MaintenanceScheduled}},
		models.MaintenanceOverdue:   {{ID: 2, Status: models.MaintenanceOverdue}},
	}

	t.Run("collects every list", func(t *testing.T) {
		f := &fakeBackend{
			equipment:   sampleEquipment(),
			loans:       sampleLoans(),
			users:       []models.User{{ID: 1, Username: "anna"}},
			maintenance: maintenance,
		}
		progress := make(chan ProgressUpdate, 20)
		res, err := newTestEngine(f).Overview(ctx, progress)
		if err != nil {
			t.Fatalf("Overview() error: %v", err)
		}
		if len(res.Errors) != 0 {
			t.Errorf("unexpected endpoint errors: %v", res.Errors)
		}
		if len(res.Equipment) != 4 || len(res.Users) != 1 || len(res.CurrentLoans) != 2 || len(res.OverdueLoans) != 1 {
			t.Errorf("unexpected overview: %+v", res)
		}
		if len(res.ScheduledMaintenance) != 1 || len(res.OverdueMaintenance) != 1 {
			t.Errorf("unexpected maintenance: %+v", res)
		}
		if n := len(drain(progress)); n != 7 {
			t.Errorf("expected 7 progress updates, got %d", n)
		}
	})

	t.Run("endpoint failures are collected", func(t *testing.T) {
		f := &fakeBackend{equipment: sampleEquipment(), usersErr: shared.ErrForbidden, maintenance: maintenance}
		res, err := newTestEngine(f).Overview(ctx, nil)
		if err != nil {
			t.Fatalf("Overview() error: %v", err)
		}
		if len(res.Errors) != 1 || res.Errors[0].Endpoint != "users" {
			t.Fatalf("expected one users error, got %v", res.Errors)
		}
		if !errors.Is(res.Errors[0].Error, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", res.Errors[0].Error)
		}
		if len(res.Equipment) != 4 {
			t.Errorf("equipment not loaded")
		}
	})

	t.Run("expired session is fatal", func(t *testing.T) {
		f := &fakeBackend{usersErr: shared.ErrSessionExpired}
		if _, err := newTestEngine(f).Overview(ctx, nil); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})
}

func TestFetchDataset(t *testing.T) {
	ctx := context.Background()

	t.Run("parse", func(t *testing.T) {
		if ds, err := ParseDataset(" Loans "); err != nil || ds != DatasetLoans {
			t.Errorf("ParseDataset() = %q, %v", ds, err)
		}
		if _, err := ParseDataset("tracks"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("admin only datasets", func(t *testing.T) {
		e := newTestEngine(&fakeBackend{})
		for _, ds := range []Dataset{DatasetUsers, DatasetMaintenance} {
			if _, err := e.FetchDataset(ctx, ds, false); !errors.Is(err, shared.ErrForbidden) {
				t.Errorf("FetchDataset(%s) error = %v, want ErrForbidden", ds, err)
			}
		}
	})

	t.Run("loans table", func(t *testing.T) {
		res, err := newTestEngine(&fakeBackend{loans: sampleLoans()}).FetchDataset(ctx, DatasetLoans, false)
		if err != nil {
			t.Fatalf("FetchDataset() error: %v", err)
		}
		if res.Table.Len() != 4 {
			t.Errorf("expected 4 rows, got %d", res.Table.Len())
		}
		if _, ok := res.Raw.([]models.Loan); !ok {
			t.Errorf("raw data has type %T", res.Raw)
		}
	})

	t.Run("maintenance merges statuses", func(t *testing.T) {
		f := &fakeBackend{maintenance: map[models.MaintenanceStatus][]models.MaintenanceRecord{
			models.MaintenanceScheduled: {{ID: 1}, {ID: 2}},
			models.MaintenanceCompleted: {{ID: 3}},
			models.MaintenanceOverdue:   {{ID: 2}},
		}}
		res, err := newTestEngine(f).FetchDataset(ctx, DatasetMaintenance, true)
		if err != nil {
			t.Fatalf("FetchDataset() error: %v", err)
		}
		if res.Table.Len() != 3 {
			t.Errorf("expected 3 unique records, got %d", res.Table.Len())
		}
	})
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	t.Run("writes datasets and manifest", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		f := &fakeBackend{equipment: sampleEquipment(), loans: sampleLoans()}
		progress := make(chan ProgressUpdate, 20)

		res, err := newTestEngine(f).BulkExport(ctx, progress, BulkExportOpts{Format: formatter.CSV, OutputDir: dir})
		if err != nil {
			t.Fatalf("BulkExport() error: %v", err)
		}
		if res.TotalDatasets != 3 || res.SuccessfulExports != 2 || res.FailedExports != 1 {
			t.Errorf("unexpected result: total=%d ok=%d failed=%d", res.TotalDatasets, res.SuccessfulExports, res.FailedExports)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "equipment.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "loans.csv"))
		tu.AssertFileExists(t, res.ManifestPath)

		var manifest BulkExportResult
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, res.ManifestPath)), &manifest); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if manifest.SuccessfulExports != 2 || len(manifest.Results) != 3 {
			t.Errorf("unexpected manifest: %+v", manifest)
		}
		for _, r := range manifest.Results {
			if r.Dataset == DatasetReservations && r.Error == "" {
				t.Error("empty reservations should be recorded as a failure")
			}
		}

		var sawManifest bool
		for _, u := range drain(progress) {
			if u.Phase == WriteManifest {
				sawManifest = true
			}
		}
		if !sawManifest {
			t.Error("expected a manifest progress update")
		}
	})

	t.Run("admin datasets as json", func(t *testing.T) {
		dir := t.TempDir()
		f := &fakeBackend{
			equipment:    sampleEquipment(),
			loans:        sampleLoans(),
			users:        []models.User{{ID: 1, Username: "anna"}},
			reservations: []models.Reservation{{ID: 1, EquipmentName: "Beamer"}},
			maintenance:  map[models.MaintenanceStatus][]models.MaintenanceRecord{models.MaintenanceScheduled: {{ID: 1}}},
		}
		res, err := newTestEngine(f).BulkExport(ctx, nil, BulkExportOpts{Format: formatter.JSON, OutputDir: dir, Admin: true})
		if err != nil {
			t.Fatalf("BulkExport() error: %v", err)
		}
		if res.SuccessfulExports != 5 {
			t.Errorf("expected 5 exports, got %d: %+v", res.SuccessfulExports, res.Results)
		}

		var users []models.User
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, filepath.Join(dir, "users.json"))), &users); err != nil {
			t.Fatalf("users.json: %v", err)
		}
		if len(users) != 1 || users[0].Username != "anna" {
			t.Errorf("unexpected users export: %+v", users)
		}
	})

	t.Run("expired session aborts without manifest", func(t *testing.T) {
		dir := t.TempDir()
		f := &fakeBackend{equipmentErr: shared.ErrSessionExpired, loansErr: shared.ErrSessionExpired, reservationsErr: shared.ErrSessionExpired}
		_, err := newTestEngine(f).BulkExport(ctx, nil, BulkExportOpts{OutputDir: dir})
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "manifest.json")); !os.IsNotExist(err) {
			t.Error("manifest should not be written")
		}
	})
}
