package tasks

import (
	"fmt"

	"github.com/desertthunder/equipx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchEquipment Phase = iota
	FetchLoans
	FetchUsers
	FetchReservations
	FetchMaintenance
	ReturnLoans
	ExportDataset
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchEquipment:
		return "fetch_equipment"
	case FetchLoans:
		return "fetch_loans"
	case FetchUsers:
		return "fetch_users"
	case FetchReservations:
		return "fetch_reservations"
	case FetchMaintenance:
		return "fetch_maintenance"
	case ReturnLoans:
		return "return_loans"
	case ExportDataset:
		return "export_dataset"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func operationUpdate(op endpointOperation, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: op.message,
	}
}

func returnStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReturnLoans,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Returning %d active loans...", total),
	}
}

func returnedUpdate(step, total int, loan models.Loan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReturnLoans,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Returned %s", loanLabel(loan)),
		Data:    loan,
	}
}

func returnFailedUpdate(step, total int, loan models.Loan, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReturnLoans,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to return %s: %v", loanLabel(loan), err),
		Data:    loan,
	}
}

func fetchDatasetUpdate(step, total int, ds Dataset) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ds.phase(),
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s...", ds),
	}
}

func exportCompletedUpdate(step, total int, ds Dataset, rows int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportDataset,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exported %s (%d rows) to %s", ds, rows, path),
		Data:    path,
	}
}

func exportFailedUpdate(step, total int, ds Dataset, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportDataset,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to export %s: %v", ds, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest %s", path),
		Data:    path,
	}
}

func loanLabel(l models.Loan) string {
	if l.EquipmentName == "" {
		return fmt.Sprintf("equipment #%d", l.EquipmentID)
	}
	return l.EquipmentName
}
