package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/equipx/internal/shared"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

func (s ReservationStatus) Valid() bool {
	return slices.Contains([]ReservationStatus{
		ReservationPending, ReservationConfirmed, ReservationActive,
		ReservationCompleted, ReservationCancelled, ReservationExpired,
	}, s)
}

// ParseReservationStatus parses a case-insensitive status name.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	return parseEnum(s, ReservationStatus.Valid, "reservation status")
}

// Cancellable reports whether a member may still cancel.
func (s ReservationStatus) Cancellable() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// Reservation is a future-dated request to borrow an item.
type Reservation struct {
	ID            int               `json:"id" yaml:"id"`
	EquipmentID   int               `json:"equipmentId" yaml:"equipment_id"`
	EquipmentName string            `json:"equipmentName,omitempty" yaml:"equipment_name,omitempty"`
	UserID        int               `json:"benutzerId" yaml:"user_id"`
	Username      string            `json:"benutzername,omitempty" yaml:"username,omitempty"`
	StartDate     string            `json:"startDate" yaml:"start_date"`
	EndDate       string            `json:"endDate" yaml:"end_date"`
	Status        ReservationStatus `json:"status" yaml:"status"`
	Notes         string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt     string            `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// ReservationRequest is the body for creating a reservation.
type ReservationRequest struct {
	EquipmentID int    `json:"equipmentId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks the id and that the range is well-formed, not in the past, and start <= end.
func (r ReservationRequest) Validate(today time.Time) error {
	if r.EquipmentID <= 0 {
		return fmt.Errorf("%w: equipment id is required", shared.ErrInvalidInput)
	}
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return err
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return err
	}
	y, m, d := today.Date()
	if start.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return fmt.Errorf("%w: start date cannot be in the past", shared.ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date must be on or after start date", shared.ErrInvalidInput)
	}
	return nil
}
