package models

import (
	"fmt"
	"slices"

	"github.com/desertthunder/equipx/internal/shared"
)

// MaintenanceType is the kind of service event.
type MaintenanceType string

const (
	MaintenanceRoutine     MaintenanceType = "ROUTINE"
	MaintenanceRepair      MaintenanceType = "REPAIR"
	MaintenanceInspection  MaintenanceType = "INSPECTION"
	MaintenanceCleaning    MaintenanceType = "CLEANING"
	MaintenanceCalibration MaintenanceType = "CALIBRATION"
	MaintenanceUpgrade     MaintenanceType = "UPGRADE"
	MaintenanceOther       MaintenanceType = "OTHER"
)

func (t MaintenanceType) Valid() bool {
	return slices.Contains([]MaintenanceType{
		MaintenanceRoutine, MaintenanceRepair, MaintenanceInspection, MaintenanceCleaning,
		MaintenanceCalibration, MaintenanceUpgrade, MaintenanceOther,
	}, t)
}

// ParseMaintenanceType parses a case-insensitive type name.
func ParseMaintenanceType(s string) (MaintenanceType, error) {
	return parseEnum(s, MaintenanceType.Valid, "maintenance type")
}

// MaintenanceStatus is the state of a maintenance record.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceCancelled  MaintenanceStatus = "CANCELLED"
	MaintenanceOverdue    MaintenanceStatus = "OVERDUE"
)

func (s MaintenanceStatus) Valid() bool {
	return slices.Contains([]MaintenanceStatus{
		MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled, MaintenanceOverdue,
	}, s)
}

// ParseMaintenanceStatus parses a case-insensitive status name.
func ParseMaintenanceStatus(s string) (MaintenanceStatus, error) {
	return parseEnum(s, MaintenanceStatus.Valid, "maintenance status")
}

// MaintenanceRecord is a scheduled or completed service event.
type MaintenanceRecord struct {
	ID            int               `json:"id" yaml:"id"`
	EquipmentID   int               `json:"equipmentId" yaml:"equipment_id"`
	EquipmentName string            `json:"equipmentName,omitempty" yaml:"equipment_name,omitempty"`
	Type          MaintenanceType   `json:"type" yaml:"type"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Cost          *float64          `json:"cost,omitempty" yaml:"cost,omitempty"`
	PerformedBy   string            `json:"performedBy,omitempty" yaml:"performed_by,omitempty"`
	ScheduledDate string            `json:"scheduledDate" yaml:"scheduled_date"`
	CompletedDate string            `json:"completedDate,omitempty" yaml:"completed_date,omitempty"`
	Status        MaintenanceStatus `json:"status" yaml:"status"`
	CreatedAt     string            `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// MaintenanceRequest is the body for scheduling maintenance.
type MaintenanceRequest struct {
	EquipmentID   int             `json:"equipmentId"`
	Type          MaintenanceType `json:"type"`
	Description   string          `json:"description,omitempty"`
	Cost          *float64        `json:"cost,omitempty"`
	ScheduledDate string          `json:"scheduledDate"`
}

// Validate checks the required fields.
func (r MaintenanceRequest) Validate() error {
	if r.EquipmentID <= 0 {
		return fmt.Errorf("%w: equipment id is required", shared.ErrInvalidInput)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown maintenance type %q", shared.ErrInvalidInput, r.Type)
	}
	if r.Cost != nil && *r.Cost < 0 {
		return fmt.Errorf("%w: cost cannot be negative", shared.ErrInvalidInput)
	}
	if _, err := ParseDate(r.ScheduledDate); err != nil {
		return err
	}
	return nil
}
