package tasks

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/shared"
)

// AllCategories is the category filter value that matches everything.
const AllCategories = "All"

// EquipmentFilter narrows an equipment list. Empty fields match everything.
type EquipmentFilter struct {
	Category string
	Query    string
	Status   models.EquipmentStatus
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// FilterEquipment keeps items in the category whose name, specs or inventory
// number contain the query, ignoring case.
func FilterEquipment(items []models.Equipment, f EquipmentFilter) []models.Equipment {
	out := make([]models.Equipment, 0, len(items))
	for _, item := range items {
		if f.Category != "" && f.Category != AllCategories && !strings.EqualFold(string(item.Category), f.Category) {
			continue
		}
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if q := strings.TrimSpace(f.Query); q != "" &&
			!containsFold(item.Name, q) && !containsFold(item.Specs, q) && !containsFold(item.InventoryNumber, q) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Categories returns "All" followed by the distinct categories in first-seen order.
func Categories(items []models.Equipment) []string {
	out := []string{AllCategories}
	seen := map[models.EquipmentCategory]bool{}
	for _, item := range items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, string(item.Category))
	}
	return out
}

// LoanTab is a tab of the activity page.
type LoanTab string

const (
	TabAll      LoanTab = "All"
	TabActive   LoanTab = "Active"
	TabReturned LoanTab = "Returned"
	TabOverdue  LoanTab = "Overdue"
)

// LoanTabs lists the tabs in display order.
var LoanTabs = []LoanTab{TabAll, TabActive, TabReturned, TabOverdue}

// ParseLoanTab accepts a tab name in any case; empty is All.
func ParseLoanTab(s string) (LoanTab, error) {
	if strings.TrimSpace(s) == "" {
		return TabAll, nil
	}
	for _, tab := range LoanTabs {
		if strings.EqualFold(string(tab), strings.TrimSpace(s)) {
			return tab, nil
		}
	}
	return "", fmt.Errorf("%w: unknown tab %q (want All, Active, Returned or Overdue)", shared.ErrInvalidArgument, s)
}

// FilterLoans keeps loans in tab whose equipment name or inventory number contains query.
func FilterLoans(loans []models.Loan, tab LoanTab, query string) []models.Loan {
	out := make([]models.Loan, 0, len(loans))
	query = strings.TrimSpace(query)
	for _, l := range loans {
		if tab != "" && tab != TabAll && string(l.EffectiveStatus()) != string(tab) {
			continue
		}
		if query != "" && !containsFold(l.EquipmentName, query) && !containsFold(l.InventoryNumber, query) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// ActiveLoans are the loans still out: Active or Overdue.
func ActiveLoans(loans []models.Loan) []models.Loan {
	return slices.DeleteFunc(slices.Clone(loans), func(l models.Loan) bool { return !l.Active() })
}

// FilterReservations keeps reservations with status (empty matches all) whose
// equipment name or username contains query.
func FilterReservations(items []models.Reservation, status models.ReservationStatus, query string) []models.Reservation {
	out := make([]models.Reservation, 0, len(items))
	for _, r := range items {
		if status != "" && r.Status != status {
			continue
		}
		if q := strings.TrimSpace(query); q != "" && !containsFold(r.EquipmentName, q) && !containsFold(r.Username, q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterMaintenance keeps records with status whose equipment name or description contains query.
func FilterMaintenance(items []models.MaintenanceRecord, status models.MaintenanceStatus, query string) []models.MaintenanceRecord {
	out := make([]models.MaintenanceRecord, 0, len(items))
	for _, m := range items {
		if status != "" && m.Status != status {
			continue
		}
		if q := strings.TrimSpace(query); q != "" && !containsFold(m.EquipmentName, q) && !containsFold(m.Description, q) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Role   models.Role
	Status models.AccountStatus
	Query  string
}

// FilterUsers matches the query against username, full name and email.
func FilterUsers(users []models.User, f UserFilter) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = models.RoleUser
		}
		status := u.AccountStatus
		if status == "" {
			status = models.AccountActive
		}
		if f.Role != "" && role != f.Role {
			continue
		}
		if f.Status != "" && status != f.Status {
			continue
		}
		if q := strings.TrimSpace(f.Query); q != "" &&
			!containsFold(u.Username, q) && !containsFold(u.FullName(), q) && !containsFold(u.Email, q) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// SortKey is a column lists can be ordered by.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByDate     SortKey = "date"
	SortByStatus   SortKey = "status"
	SortByCategory SortKey = "category"
)

// SortOption orders a list; the zero value keeps the backend order.
type SortOption struct {
	Key       SortKey
	Direction models.SortDirection
}

// ParseSortOption parses "key" or "key:desc".
func ParseSortOption(s string) (SortOption, error) {
	if strings.TrimSpace(s) == "" {
		return SortOption{}, nil
	}
	key, dir, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	opt := SortOption{Key: SortKey(key), Direction: models.Asc}
	switch opt.Key {
	case SortByName, SortByDate, SortByStatus, SortByCategory:
	default:
		return SortOption{}, fmt.Errorf("%w: unknown sort key %q", shared.ErrInvalidArgument, key)
	}
	switch models.SortDirection(dir) {
	case "", models.Asc:
	case models.Desc:
		opt.Direction = models.Desc
	default:
		return SortOption{}, fmt.Errorf("%w: unknown sort direction %q", shared.ErrInvalidArgument, dir)
	}
	return opt, nil
}

func (o SortOption) apply(c int) int {
	if o.Direction == models.Desc {
		return -c
	}
	return c
}

func compareDates(a, b string) int {
	ta, okA := models.ParseTimestamp(a)
	tb, okB := models.ParseTimestamp(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	}
	return 0
}

func compareFold(a, b string) int { return cmp.Compare(strings.ToLower(a), strings.ToLower(b)) }

// SortEquipment sorts a copy of items; date is the creation date.
func SortEquipment(items []models.Equipment, o SortOption) []models.Equipment {
	out := slices.Clone(items)
	if o.Key == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Equipment) int {
		switch o.Key {
		case SortByName:
			return o.apply(compareFold(a.Name, b.Name))
		case SortByDate:
			return o.apply(compareDates(a.CreatedAt, b.CreatedAt))
		case SortByStatus:
			return o.apply(cmp.Compare(a.Status, b.Status))
		case SortByCategory:
			return o.apply(cmp.Compare(a.Category, b.Category))
		}
		return 0
	})
	return out
}

// SortLoans sorts a copy of loans; date is the borrow date.
func SortLoans(loans []models.Loan, o SortOption) []models.Loan {
	out := slices.Clone(loans)
	if o.Key == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Loan) int {
		switch o.Key {
		case SortByName, SortByCategory:
			return o.apply(compareFold(a.EquipmentName, b.EquipmentName))
		case SortByDate:
			return o.apply(compareDates(a.BorrowedAt, b.BorrowedAt))
		case SortByStatus:
			return o.apply(cmp.Compare(a.EffectiveStatus(), b.EffectiveStatus()))
		}
		return 0
	})
	return out
}

// SortReservations sorts a copy of items; date is the start date.
func SortReservations(items []models.Reservation, o SortOption) []models.Reservation {
	out := slices.Clone(items)
	if o.Key == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Reservation) int {
		switch o.Key {
		case SortByName, SortByCategory:
			return o.apply(compareFold(a.EquipmentName, b.EquipmentName))
		case SortByDate:
			return o.apply(compareDates(a.StartDate, b.StartDate))
		case SortByStatus:
			return o.apply(cmp.Compare(a.Status, b.Status))
		}
		return 0
	})
	return out
}

// Stats are the dashboard counters.
type Stats struct {
	Available   int `json:"available"`
	Borrowed    int `json:"borrowed"`
	Overdue     int `json:"overdue"`
	ActiveLoans int `json:"activeLoans"`
}

// ComputeStats counts available and borrowed equipment and overdue loans.
func ComputeStats(equipment []models.Equipment, loans []models.Loan) Stats {
	var s Stats
	for _, e := range equipment {
		switch e.Status {
		case models.StatusAvailable:
			s.Available++
		case models.StatusBorrowed:
			s.Borrowed++
		}
	}
	for _, l := range loans {
		if l.Status == models.LoanOverdue {
			s.Overdue++
		}
		if l.Active() {
			s.ActiveLoans++
		}
	}
	return s
}

// DueSoon returns the active loans whose expected return date falls within window of now.
func DueSoon(loans []models.Loan, now time.Time, window time.Duration) []models.Loan {
	var out []models.Loan
	for _, l := range loans {
		if !l.Active() {
			continue
		}
		due, ok := models.ParseTimestamp(l.ExpectedReturnDate)
		if !ok {
			continue
		}
		if due.Sub(now) <= window {
			out = append(out, l)
		}
	}
	return out
}
