package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/equipx/internal/shared"
)

// EquipmentStatus is the availability of an item.
type EquipmentStatus string

const (
	StatusAvailable   EquipmentStatus = "AVAILABLE"
	StatusBorrowed    EquipmentStatus = "BORROWED"
	StatusMaintenance EquipmentStatus = "MAINTENANCE"
	StatusRetired     EquipmentStatus = "RETIRED"
	StatusOverdue     EquipmentStatus = "OVERDUE"
)

var equipmentStatuses = []EquipmentStatus{StatusAvailable, StatusBorrowed, StatusMaintenance, StatusRetired, StatusOverdue}

func (s EquipmentStatus) Valid() bool { return slices.Contains(equipmentStatuses, s) }

// ParseEquipmentStatus parses a case-insensitive status name.
func ParseEquipmentStatus(s string) (EquipmentStatus, error) {
	return parseEnum(s, EquipmentStatus.Valid, "equipment status")
}

// EquipmentCategory classifies equipment.
type EquipmentCategory string

const (
	CategoryLaptop      EquipmentCategory = "LAPTOP"
	CategoryDesktop     EquipmentCategory = "DESKTOP"
	CategoryCamera      EquipmentCategory = "CAMERA"
	CategoryAudio       EquipmentCategory = "AUDIO"
	CategoryVideo       EquipmentCategory = "VIDEO"
	CategoryProjector   EquipmentCategory = "PROJECTOR"
	CategoryNetworking  EquipmentCategory = "NETWORKING"
	CategoryStorage     EquipmentCategory = "STORAGE"
	CategoryAccessories EquipmentCategory = "ACCESSORIES"
	CategoryOther       EquipmentCategory = "OTHER"
)

// Categories lists every category the backend knows.
var Categories = []EquipmentCategory{
	CategoryLaptop, CategoryDesktop, CategoryCamera, CategoryAudio, CategoryVideo,
	CategoryProjector, CategoryNetworking, CategoryStorage, CategoryAccessories, CategoryOther,
}

func (c EquipmentCategory) Valid() bool { return slices.Contains(Categories, c) }

// ParseCategory parses a case-insensitive category name.
func ParseCategory(s string) (EquipmentCategory, error) {
	return parseEnum(s, EquipmentCategory.Valid, "category")
}

// ConditionStatus is the physical condition of an item.
type ConditionStatus string

const (
	ConditionNew  ConditionStatus = "NEW"
	ConditionGood ConditionStatus = "GOOD"
	ConditionFair ConditionStatus = "FAIR"
	ConditionPoor ConditionStatus = "POOR"
)

func (c ConditionStatus) Valid() bool {
	return slices.Contains([]ConditionStatus{ConditionNew, ConditionGood, ConditionFair, ConditionPoor}, c)
}

// ParseCondition parses a case-insensitive condition name.
func ParseCondition(s string) (ConditionStatus, error) {
	return parseEnum(s, ConditionStatus.Valid, "condition")
}

// Equipment is an inventory item.
type Equipment struct {
	ID              int               `json:"id" yaml:"id"`
	InventoryNumber string            `json:"inventarnummer" yaml:"inventory_number"`
	Name            string            `json:"bezeichnung" yaml:"name"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category        EquipmentCategory `json:"category,omitempty" yaml:"category,omitempty"`
	Status          EquipmentStatus   `json:"status" yaml:"status"`
	Condition       ConditionStatus   `json:"conditionStatus,omitempty" yaml:"condition,omitempty"`
	Location        string            `json:"location,omitempty" yaml:"location,omitempty"`
	SerialNumber    string            `json:"serialNumber,omitempty" yaml:"serial_number,omitempty"`
	Specs           string            `json:"specs,omitempty" yaml:"specs,omitempty"`
	Image           string            `json:"image,omitempty" yaml:"image,omitempty"`
	PurchaseDate    string            `json:"purchaseDate,omitempty" yaml:"purchase_date,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// Label is "Name (INV-001)".
func (e Equipment) Label() string {
	if e.InventoryNumber == "" {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, e.InventoryNumber)
}

// EquipmentInput is the body for creating or updating equipment.
//
// Empty fields are omitted so updates only touch what was set.
type EquipmentInput struct {
	InventoryNumber string            `json:"inventarnummer,omitempty"`
	Name            string            `json:"bezeichnung,omitempty"`
	Description     string            `json:"description,omitempty"`
	Category        EquipmentCategory `json:"category,omitempty"`
	Status          EquipmentStatus   `json:"status,omitempty"`
	Condition       ConditionStatus   `json:"conditionStatus,omitempty"`
	Location        string            `json:"location,omitempty"`
	SerialNumber    string            `json:"serialNumber,omitempty"`
	PurchaseDate    string            `json:"purchaseDate,omitempty"`
}

// Validate checks enum values and, when creating, the required fields.
func (in EquipmentInput) Validate(creating bool) error {
	if creating {
		if strings.TrimSpace(in.InventoryNumber) == "" {
			return fmt.Errorf("%w: inventory number is required", shared.ErrInvalidInput)
		}
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
		}
	}
	if in.Category != "" && !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", shared.ErrInvalidInput, in.Category)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, in.Status)
	}
	if in.Condition != "" && !in.Condition.Valid() {
		return fmt.Errorf("%w: unknown condition %q", shared.ErrInvalidInput, in.Condition)
	}
	if in.PurchaseDate != "" {
		if _, err := ParseDate(in.PurchaseDate); err != nil {
			return err
		}
	}
	return nil
}
