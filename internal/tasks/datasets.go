package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/shared"
)

// Dataset names an exportable list.
type Dataset string

const (
	DatasetEquipment    Dataset = "equipment"
	DatasetLoans        Dataset = "loans"
	DatasetReservations Dataset = "reservations"
	DatasetUsers        Dataset = "users"
	DatasetMaintenance  Dataset = "maintenance"
)

// MemberDatasets are readable by any user; AdminDatasets need the ADMIN role.
var (
	MemberDatasets = []Dataset{DatasetEquipment, DatasetLoans, DatasetReservations}
	AdminDatasets  = []Dataset{DatasetEquipment, DatasetLoans, DatasetReservations, DatasetUsers, DatasetMaintenance}
)

// ParseDataset accepts a dataset name in any case.
func ParseDataset(s string) (Dataset, error) {
	for _, ds := range AdminDatasets {
		if strings.EqualFold(string(ds), strings.TrimSpace(s)) {
			return ds, nil
		}
	}
	return "", fmt.Errorf("%w: unknown dataset %q", shared.ErrInvalidArgument, s)
}

// AdminOnly reports whether the dataset has no member endpoint.
func (d Dataset) AdminOnly() bool { return d == DatasetUsers || d == DatasetMaintenance }

// Title is the heading used in Markdown and text exports.
func (d Dataset) Title() string {
	switch d {
	case DatasetEquipment:
		return "Equipment"
	case DatasetLoans:
		return "Loans"
	case DatasetReservations:
		return "Reservations"
	case DatasetUsers:
		return "Users"
	case DatasetMaintenance:
		return "Maintenance"
	}
	return string(d)
}

func (d Dataset) phase() Phase {
	switch d {
	case DatasetLoans:
		return FetchLoans
	case DatasetReservations:
		return FetchReservations
	case DatasetUsers:
		return FetchUsers
	case DatasetMaintenance:
		return FetchMaintenance
	}
	return FetchEquipment
}

// DatasetResult is a fetched dataset in both raw and flattened form.
type DatasetResult struct {
	Dataset Dataset
	Raw     any
	Table   formatter.Table
}

// FetchDataset loads ds. With admin set the admin endpoints are used (all
// equipment, full loan history, every reservation).
func (e *LendingEngine) FetchDataset(ctx context.Context, ds Dataset, admin bool) (*DatasetResult, error) {
	if ds.AdminOnly() && !admin {
		return nil, fmt.Errorf("%w: %s export requires the admin role", shared.ErrForbidden, ds)
	}
	if admin && e.admin == nil {
		return nil, fmt.Errorf("%w: admin client not initialized", shared.ErrServiceUnavailable)
	}
	if !admin && e.member == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	switch ds {
	case DatasetEquipment:
		fetch := e.memberEquipment
		if admin {
			fetch = e.admin.AllEquipment
		}
		items, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &DatasetResult{Dataset: ds, Raw: items, Table: formatter.EquipmentTable(items)}, nil
	case DatasetLoans:
		fetch := e.memberLoans
		if admin {
			fetch = e.admin.LoanHistory
		}
		items, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &DatasetResult{Dataset: ds, Raw: items, Table: formatter.LoanTable(items)}, nil
	case DatasetReservations:
		fetch := e.memberReservations
		if admin {
			fetch = e.admin.AllReservations
		}
		items, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &DatasetResult{Dataset: ds, Raw: items, Table: formatter.ReservationTable(items)}, nil
	case DatasetUsers:
		items, err := e.admin.Users(ctx)
		if err != nil {
			return nil, err
		}
		return &DatasetResult{Dataset: ds, Raw: items, Table: formatter.UserTable(items)}, nil
	case DatasetMaintenance:
		items, err := e.allMaintenance(ctx)
		if err != nil {
			return nil, err
		}
		return &DatasetResult{Dataset: ds, Raw: items, Table: formatter.MaintenanceTable(items)}, nil
	}
	return nil, fmt.Errorf("%w: unknown dataset %q", shared.ErrInvalidArgument, ds)
}

func (e *LendingEngine) memberEquipment(ctx context.Context) ([]models.Equipment, error) {
	return e.member.AvailableEquipment(ctx)
}

func (e *LendingEngine) memberLoans(ctx context.Context) ([]models.Loan, error) {
	return e.member.MyLoans(ctx)
}

func (e *LendingEngine) memberReservations(ctx context.Context) ([]models.Reservation, error) {
	return e.member.MyReservations(ctx)
}

// allMaintenance stitches every status together; the backend has no single
// "all records" endpoint.
func (e *LendingEngine) allMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	statuses := []models.MaintenanceStatus{
		models.MaintenanceScheduled, models.MaintenanceInProgress, models.MaintenanceCompleted,
		models.MaintenanceCancelled, models.MaintenanceOverdue,
	}

	var out []models.MaintenanceRecord
	seen := map[int]bool{}
	for _, status := range statuses {
		items, err := e.admin.MaintenanceByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s maintenance: %w", status, err)
		}
		for _, m := range items {
			if m.ID != 0 && seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	return out, nil
}
