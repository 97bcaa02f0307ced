package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/equipx/internal/models"
)

var (
	_ list.Item = equipmentItem{}
	_ list.Item = loanItem{}
	_ list.Item = reservationItem{}
	_ list.Item = userItem{}
	_ list.Item = maintenanceItem{}
)

// joinDesc joins the non-empty parts with " • ".
func joinDesc(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " • ")
}

// equipmentItem wraps [models.Equipment] to implement [list.Item].
type equipmentItem struct {
	equipment models.Equipment
}

func (i equipmentItem) FilterValue() string {
	return i.equipment.Name + " " + i.equipment.InventoryNumber + " " + string(i.equipment.Category)
}
func (i equipmentItem) Title() string { return i.equipment.Label() }
func (i equipmentItem) Description() string {
	return joinDesc(string(i.equipment.Category), string(i.equipment.Status), i.equipment.Location)
}

// loanItem wraps [models.Loan] to implement [list.Item].
type loanItem struct {
	loan models.Loan
}

func (i loanItem) FilterValue() string { return i.loan.EquipmentName + " " + i.loan.Username }
func (i loanItem) Title() string {
	if i.loan.Username != "" {
		return fmt.Sprintf("%s (%s)", i.loan.EquipmentName, i.loan.Username)
	}
	return i.loan.EquipmentName
}
func (i loanItem) Description() string {
	due := ""
	if i.loan.ExpectedReturnDate != "" {
		due = "due " + models.FormatDate(i.loan.ExpectedReturnDate, "")
	}
	returned := ""
	if i.loan.ReturnedAt != "" {
		returned = "returned " + models.FormatDate(i.loan.ReturnedAt, "")
	}
	return joinDesc(string(i.loan.EffectiveStatus()), "borrowed "+models.FormatDate(i.loan.BorrowedAt, "N/A"), due, returned)
}

// reservationItem wraps [models.Reservation] to implement [list.Item].
type reservationItem struct {
	reservation models.Reservation
}

func (i reservationItem) FilterValue() string {
	return i.reservation.EquipmentName + " " + i.reservation.Username
}
func (i reservationItem) Title() string {
	name := i.reservation.EquipmentName
	if name == "" {
		name = fmt.Sprintf("Equipment #%d", i.reservation.EquipmentID)
	}
	if i.reservation.Username != "" {
		name = fmt.Sprintf("%s (%s)", name, i.reservation.Username)
	}
	return name
}
func (i reservationItem) Description() string {
	span := models.FormatDate(i.reservation.StartDate, "?") + " → " + models.FormatDate(i.reservation.EndDate, "?")
	return joinDesc(string(i.reservation.Status), span, i.reservation.Notes)
}

// userItem wraps [models.User] to implement [list.Item].
type userItem struct {
	user models.User
}

func (i userItem) FilterValue() string { return i.user.Username + " " + i.user.FullName() }
func (i userItem) Title() string       { return i.user.FullName() }
func (i userItem) Description() string {
	return joinDesc(i.user.Username, string(i.user.Role), string(i.user.AccountStatus), i.user.Email)
}

// maintenanceItem wraps [models.MaintenanceRecord] to implement [list.Item].
type maintenanceItem struct {
	record models.MaintenanceRecord
}

func (i maintenanceItem) FilterValue() string {
	return i.record.EquipmentName + " " + i.record.Description
}
func (i maintenanceItem) Title() string {
	return fmt.Sprintf("%s: %s", i.record.EquipmentName, i.record.Type)
}
func (i maintenanceItem) Description() string {
	return joinDesc(string(i.record.Status), "scheduled "+models.FormatDate(i.record.ScheduledDate, "N/A"), i.record.Description)
}

func equipmentItems(items []models.Equipment) []list.Item {
	out := make([]list.Item, len(items))
	for i, e := range items {
		out[i] = equipmentItem{equipment: e}
	}
	return out
}

func loanItems(loans []models.Loan) []list.Item {
	out := make([]list.Item, len(loans))
	for i, l := range loans {
		out[i] = loanItem{loan: l}
	}
	return out
}

func reservationItems(items []models.Reservation) []list.Item {
	out := make([]list.Item, len(items))
	for i, r := range items {
		out[i] = reservationItem{reservation: r}
	}
	return out
}

func userItems(users []models.User) []list.Item {
	out := make([]list.Item, len(users))
	for i, u := range users {
		out[i] = userItem{user: u}
	}
	return out
}

func maintenanceItems(records []models.MaintenanceRecord) []list.Item {
	out := make([]list.Item, len(records))
	for i, r := range records {
		out[i] = maintenanceItem{record: r}
	}
	return out
}
