package formatter

import (
	"strconv"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/shared"
)

func idOrNA(id int) string {
	if id == 0 {
		return "N/A"
	}
	return strconv.Itoa(id)
}

func date(s string) string { return models.FormatDate(s, "N/A") }

// EquipmentTable flattens equipment with the export column names.
func EquipmentTable(items []models.Equipment) Table {
	t := Table{Headers: []string{"ID", "Inventory Number", "Description", "Category", "Status", "Condition", "Location", "Created"}}
	for _, e := range items {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.ID),
			e.InventoryNumber,
			e.Name,
			shared.OrNA(string(e.Category)),
			shared.OrNA(string(e.Status)),
			shared.OrNA(string(e.Condition)),
			shared.OrNA(e.Location),
			date(e.CreatedAt),
		})
	}
	return t
}

// LoanTable flattens loans. An unreturned loan shows "Pending" and "Active".
func LoanTable(loans []models.Loan) Table {
	t := Table{Headers: []string{"Loan ID", "Equipment ID", "Equipment Name", "Inventory Number", "Borrower", "Borrowed Date", "Return Date", "Status"}}
	for _, l := range loans {
		status := "Active"
		if l.ReturnedAt != "" {
			status = "Returned"
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(l.ID),
			idOrNA(l.EquipmentID),
			shared.OrNA(l.EquipmentName),
			shared.OrNA(l.InventoryNumber),
			shared.OrNA(l.Username),
			date(l.BorrowedAt),
			models.FormatDate(l.ReturnedAt, "Pending"),
			status,
		})
	}
	return t
}

// UserTable flattens users; missing role and status default to USER and ACTIVE.
func UserTable(users []models.User) Table {
	t := Table{Headers: []string{"User ID", "Username", "First Name", "Last Name", "Email", "Role", "Account Status", "2FA Enabled", "Created"}}
	for _, u := range users {
		role := string(u.Role)
		if role == "" {
			role = string(models.RoleUser)
		}
		status := string(u.AccountStatus)
		if status == "" {
			status = string(models.AccountActive)
		}
		twoFA := "No"
		if u.TwoFactorEnabled {
			twoFA = "Yes"
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(u.ID),
			u.Username,
			shared.OrNA(u.FirstName),
			shared.OrNA(u.LastName),
			shared.OrNA(u.Email),
			role,
			status,
			twoFA,
			date(u.CreatedAt),
		})
	}
	return t
}

// ReservationTable flattens reservations.
func ReservationTable(items []models.Reservation) Table {
	t := Table{Headers: []string{"Reservation ID", "Equipment ID", "Equipment Name", "User", "Start Date", "End Date", "Status", "Created"}}
	for _, r := range items {
		user := r.Username
		if user == "" && r.UserID != 0 {
			user = strconv.Itoa(r.UserID)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.ID),
			idOrNA(r.EquipmentID),
			shared.OrNA(r.EquipmentName),
			shared.OrNA(user),
			date(r.StartDate),
			date(r.EndDate),
			shared.OrNA(string(r.Status)),
			date(r.CreatedAt),
		})
	}
	return t
}

// MaintenanceTable flattens maintenance records. An open record shows "Pending" as completion date.
func MaintenanceTable(items []models.MaintenanceRecord) Table {
	t := Table{Headers: []string{"Record ID", "Equipment ID", "Equipment Name", "Type", "Description", "Cost", "Performed By", "Scheduled Date", "Completed Date", "Status"}}
	for _, m := range items {
		cost := "N/A"
		if m.Cost != nil {
			cost = strconv.FormatFloat(*m.Cost, 'f', 2, 64)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(m.ID),
			idOrNA(m.EquipmentID),
			shared.OrNA(m.EquipmentName),
			shared.OrNA(string(m.Type)),
			shared.OrNA(m.Description),
			cost,
			shared.OrNA(m.PerformedBy),
			date(m.ScheduledDate),
			models.FormatDate(m.CompletedDate, "Pending"),
			shared.OrNA(string(m.Status)),
		})
	}
	return t
}
