package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/equipx/internal/shared"
)

// Page is a paginated search response.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

// SortDirection is asc or desc.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SearchFilters are the query parameters accepted by the search endpoints.
//
// Page is zero-based; a negative Page or Size omits the parameter.
type SearchFilters struct {
	Query    string
	Category string
	Status   string
	Role     string
	Page     int
	Size     int
	SortBy   string
	SortDir  SortDirection
}

// Values encodes the filters using the backend's parameter names.
func (f SearchFilters) Values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("searchTerm", f.Query)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Role != "" {
		v.Set("role", f.Role)
	}
	if f.Page >= 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		v.Set("size", strconv.Itoa(f.Size))
	}
	if f.SortBy != "" {
		v.Set("sortBy", f.SortBy)
	}
	if f.SortDir != "" {
		v.Set("sortDirection", string(f.SortDir))
	}
	return v
}

// LoanRules are the limits the backend enforces, shown to members before borrowing.
type LoanRules struct {
	MaxLoansPerUser         int `json:"maxLoansPerUser"`
	MinLoanDurationDays     int `json:"minLoanDurationDays"`
	MaxLoanDurationDays     int `json:"maxLoanDurationDays"`
	DefaultLoanDurationDays int `json:"defaultLoanDurationDays"`
	GracePeriodDays         int `json:"gracePeriodDays"`
}

// DefaultReturnDate is the expected return date for a loan starting on from.
func (r LoanRules) DefaultReturnDate(from time.Time) time.Time {
	days := r.DefaultLoanDurationDays
	if days <= 0 {
		days = 14
	}
	return from.AddDate(0, 0, days)
}

// DateLayout is the ISO date format the backend uses for date-only fields.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", shared.ErrInvalidInput, s)
	}
	return t, nil
}

// ParseTimestamp accepts the timestamp shapes the backend emits: RFC 3339,
// LocalDateTime without zone, or a bare date.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend timestamp as a date, or fallback when it is empty or unparseable.
func FormatDate(s, fallback string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return fallback
	}
	return t.Format(DateLayout)
}

func parseEnum[T ~string](raw string, valid func(T) bool, kind string) (T, error) {
	v := T(strings.ToUpper(strings.TrimSpace(raw)))
	if !valid(v) {
		return "", fmt.Errorf("%w: unknown %s %q", shared.ErrInvalidInput, kind, raw)
	}
	return v, nil
}
