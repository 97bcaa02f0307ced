package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/google/go-cmp/cmp"
)

func equipmentIDs(items []models.Equipment) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func loanIDs(loans []models.Loan) []int {
	ids := make([]int, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	return ids
}

func TestFilterEquipment(t *testing.T) {
	items := sampleEquipment()

	tests := []struct {
		name   string
		filter EquipmentFilter
		want   []int
	}{
		{name: "zero filter matches all", filter: EquipmentFilter{}, want: []int{1, 2, 3, 4}},
		{name: "All category matches all", filter: EquipmentFilter{Category: AllCategories}, want: []int{1, 2, 3, 4}},
		{name: "category ignores case", filter: EquipmentFilter{Category: "camera"}, want: []int{1, 4}},
		{name: "query matches specs", filter: EquipmentFilter{Query: "m3"}, want: []int{2}},
		{name: "query matches inventory number", filter: EquipmentFilter{Query: "INV-003"}, want: []int{3}},
		{name: "status", filter: EquipmentFilter{Status: models.StatusAvailable}, want: []int{1, 3}},
		{name: "combined", filter: EquipmentFilter{Category: "CAMERA", Query: "sony"}, want: []int{4}},
		{name: "no match", filter: EquipmentFilter{Query: "tripod"}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := equipmentIDs(FilterEquipment(items, tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterEquipment() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("does not modify input", func(t *testing.T) {
		before := sampleEquipment()
		FilterEquipment(items, EquipmentFilter{Category: "AUDIO"})
		if diff := cmp.Diff(before, items); diff != "" {
			t.Errorf("input modified (-want +got):\n%s", diff)
		}
	})
}

func TestCategories(t *testing.T) {
	t.Run("first-seen order after All", func(t *testing.T) {
		got := Categories(sampleEquipment())
		want := []string{"All", "CAMERA", "LAPTOP", "AUDIO"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if got := Categories(nil); len(got) != 1 || got[0] != AllCategories {
			t.Errorf("Categories(nil) = %v, want [All]", got)
		}
	})
}

func TestFilterLoans(t *testing.T) {
	loans := sampleLoans()

	tests := []struct {
		name  string
		tab   LoanTab
		query string
		want  []int
	}{
		{name: "all", tab: TabAll, want: []int{10, 11, 12, 13}},
		{name: "empty tab is all", want: []int{10, 11, 12, 13}},
		{name: "active", tab: TabActive, want: []int{10}},
		{name: "returned includes loans without status", tab: TabReturned, want: []int{12, 13}},
		{name: "overdue", tab: TabOverdue, want: []int{11}},
		{name: "query by name", tab: TabAll, query: "zoom", want: []int{11}},
		{name: "query by inventory number", tab: TabReturned, query: "inv-001", want: []int{12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loanIDs(FilterLoans(loans, tt.tab, tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterLoans() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("active loans", func(t *testing.T) {
		got := loanIDs(ActiveLoans(loans))
		if diff := cmp.Diff([]int{10, 11}, got); diff != "" {
			t.Errorf("ActiveLoans() mismatch (-want +got):\n%s", diff)
		}
		if len(loans) != 4 {
			t.Errorf("ActiveLoans modified input, len = %d", len(loans))
		}
	})
}

func TestParseLoanTab(t *testing.T) {
	for in, want := range map[string]LoanTab{"": TabAll, "active": TabActive, " OVERDUE ": TabOverdue, "Returned": TabReturned} {
		got, err := ParseLoanTab(in)
		if err != nil {
			t.Fatalf("ParseLoanTab(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLoanTab(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseLoanTab("late"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFilterOthers(t *testing.T) {
	t.Run("reservations", func(t *testing.T) {
		items := []models.Reservation{
			{ID: 1, EquipmentName: "Beamer", Username: "anna", Status: models.ReservationPending},
			{ID: 2, EquipmentName: "Laptop", Username: "ben", Status: models.ReservationConfirmed},
			{ID: 3, EquipmentName: "Laptop", Username: "anna", Status: models.ReservationCancelled},
		}
		if got := FilterReservations(items, models.ReservationPending, ""); len(got) != 1 || got[0].ID != 1 {
			t.Errorf("status filter = %v", got)
		}
		if got := FilterReservations(items, "", "ANNA"); len(got) != 2 {
			t.Errorf("query filter returned %d, want 2", len(got))
		}
	})

	t.Run("maintenance", func(t *testing.T) {
		items := []models.MaintenanceRecord{
			{ID: 1, EquipmentName: "Beamer", Description: "lamp replacement", Status: models.MaintenanceScheduled},
			{ID: 2, EquipmentName: "Laptop", Description: "battery", Status: models.MaintenanceCompleted},
		}
		if got := FilterMaintenance(items, "", "LAMP"); len(got) != 1 || got[0].ID != 1 {
			t.Errorf("query filter = %v", got)
		}
		if got := FilterMaintenance(items, models.MaintenanceCompleted, ""); len(got) != 1 || got[0].ID != 2 {
			t.Errorf("status filter = %v", got)
		}
	})

	t.Run("users default role and status", func(t *testing.T) {
		users := []models.User{
			{ID: 1, Username: "anna", FirstName: "Anna", LastName: "Schmidt"},
			{ID: 2, Username: "root", Role: models.RoleAdmin, AccountStatus: models.AccountActive},
			{ID: 3, Username: "ben", Email: "ben@example.com", AccountStatus: models.AccountSuspended},
		}
		if got := FilterUsers(users, UserFilter{Role: models.RoleUser}); len(got) != 2 {
			t.Errorf("role filter returned %d, want 2", len(got))
		}
		if got := FilterUsers(users, UserFilter{Status: models.AccountActive}); len(got) != 2 {
			t.Errorf("status filter returned %d, want 2", len(got))
		}
		if got := FilterUsers(users, UserFilter{Query: "schmidt"}); len(got) != 1 || got[0].ID != 1 {
			t.Errorf("full name query = %v", got)
		}
		if got := FilterUsers(users, UserFilter{Query: "example.com"}); len(got) != 1 || got[0].ID != 3 {
			t.Errorf("email query = %v", got)
		}
	})
}

func TestSorting(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		tests := []struct {
			in      string
			want    SortOption
			wantErr bool
		}{
			{in: "", want: SortOption{}},
			{in: "name", want: SortOption{Key: SortByName, Direction: models.Asc}},
			{in: "Date:DESC", want: SortOption{Key: SortByDate, Direction: models.Desc}},
			{in: "status:asc", want: SortOption{Key: SortByStatus, Direction: models.Asc}},
			{in: "price", wantErr: true},
			{in: "name:sideways", wantErr: true},
		}
		for _, tt := range tests {
			got, err := ParseSortOption(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("ParseSortOption(%q) error = %v, want ErrInvalidArgument", tt.in, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("ParseSortOption(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSortOption(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		}
	})

	t.Run("equipment", func(t *testing.T) {
		items := sampleEquipment()
		tests := []struct {
			name string
			opt  SortOption
			want []int
		}{
			{name: "zero keeps order", opt: SortOption{}, want: []int{1, 2, 3, 4}},
			{name: "name asc", opt: SortOption{Key: SortByName}, want: []int{1, 2, 3, 4}},
			{name: "name desc", opt: SortOption{Key: SortByName, Direction: models.Desc}, want: []int{4, 3, 2, 1}},
			{name: "date asc puts missing first", opt: SortOption{Key: SortByDate}, want: []int{4, 2, 3, 1}},
			{name: "category is stable", opt: SortOption{Key: SortByCategory}, want: []int{3, 1, 4, 2}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := equipmentIDs(SortEquipment(items, tt.opt))
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("SortEquipment() mismatch (-want +got):\n%s", diff)
				}
			})
		}
		if items[0].ID != 1 {
			t.Error("SortEquipment modified its input")
		}
	})

	t.Run("loans by date", func(t *testing.T) {
		got := loanIDs(SortLoans(sampleLoans(), SortOption{Key: SortByDate}))
		if diff := cmp.Diff([]int{13, 12, 11, 10}, got); diff != "" {
			t.Errorf("SortLoans() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reservations by start date desc", func(t *testing.T) {
		items := []models.Reservation{
			{ID: 1, StartDate: "2024-06-01"},
			{ID: 2, StartDate: "2024-07-01"},
			{ID: 3, StartDate: "2024-05-01"},
		}
		got := SortReservations(items, SortOption{Key: SortByDate, Direction: models.Desc})
		if got[0].ID != 2 || got[1].ID != 1 || got[2].ID != 3 {
			t.Errorf("SortReservations() order = %d %d %d", got[0].ID, got[1].ID, got[2].ID)
		}
	})
}

func TestStats(t *testing.T) {
	got := ComputeStats(sampleEquipment(), sampleLoans())
	want := Stats{Available: 2, Borrowed: 1, Overdue: 1, ActiveLoans: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeStats() mismatch (-want +got):\n%s", diff)
	}

	if got := ComputeStats(nil, nil); got != (Stats{}) {
		t.Errorf("ComputeStats(nil, nil) = %+v, want zero", got)
	}
}

func TestDueSoon(t *testing.T) {
	now := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)

	got := loanIDs(DueSoon(sampleLoans(), now, 48*time.Hour))
	if diff := cmp.Diff([]int{10, 11}, got); diff != "" {
		t.Errorf("DueSoon() mismatch (-want +got):\n%s", diff)
	}

	if got := DueSoon(sampleLoans(), now.AddDate(0, 0, -10), 24*time.Hour); len(got) != 1 || got[0].ID != 11 {
		t.Errorf("DueSoon() with narrow window = %v, want only the overdue loan", loanIDs(got))
	}
}
