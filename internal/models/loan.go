package models

import "slices"

// LoanStatus is the state of a loan as reported by the backend.
type LoanStatus string

const (
	LoanActive   LoanStatus = "Active"
	LoanReturned LoanStatus = "Returned"
	LoanOverdue  LoanStatus = "Overdue"
)

func (s LoanStatus) Valid() bool {
	return slices.Contains([]LoanStatus{LoanActive, LoanReturned, LoanOverdue}, s)
}

// Loan records a member holding a piece of equipment.
type Loan struct {
	ID                 int        `json:"id" yaml:"id"`
	EquipmentID        int        `json:"equipmentId" yaml:"equipment_id"`
	EquipmentName      string     `json:"equipmentName" yaml:"equipment_name"`
	InventoryNumber    string     `json:"inventarnummer,omitempty" yaml:"inventory_number,omitempty"`
	UserID             int        `json:"benutzerId" yaml:"user_id"`
	Username           string     `json:"benutzername,omitempty" yaml:"username,omitempty"`
	BorrowedAt         string     `json:"ausleihe" yaml:"borrowed_at"`
	ReturnedAt         string     `json:"rueckgabe,omitempty" yaml:"returned_at,omitempty"`
	ExpectedReturnDate string     `json:"expectedReturnDate,omitempty" yaml:"expected_return_date,omitempty"`
	Status             LoanStatus `json:"status" yaml:"status"`
}

// Active reports whether the item is still out (active or overdue).
func (l Loan) Active() bool {
	s := l.EffectiveStatus()
	return s == LoanActive || s == LoanOverdue
}

// EffectiveStatus falls back to the return date when the backend omitted status.
func (l Loan) EffectiveStatus() LoanStatus {
	if l.Status.Valid() {
		return l.Status
	}
	if l.ReturnedAt != "" {
		return LoanReturned
	}
	return LoanActive
}

// BorrowRequest is the optional body of a borrow call.
type BorrowRequest struct {
	ExpectedReturnDate string `json:"expectedReturnDate,omitempty"`
}
