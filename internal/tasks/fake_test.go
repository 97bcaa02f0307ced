package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/services"
)

// fakeBackend embeds the service interfaces so only the methods under test need bodies.
type fakeBackend struct {
	services.Service
	services.AdminService

	equipment    []models.Equipment
	loans        []models.Loan
	reservations []models.Reservation
	users        []models.User
	maintenance  map[models.MaintenanceStatus][]models.MaintenanceRecord

	equipmentErr    error
	loansErr        error
	reservationsErr error
	usersErr        error
	returnErrs      map[int]error

	mu       sync.Mutex
	returned []int
}

func (f *fakeBackend) AvailableEquipment(ctx context.Context) ([]models.Equipment, error) {
	return f.equipment, f.equipmentErr
}

func (f *fakeBackend) AllEquipment(ctx context.Context) ([]models.Equipment, error) {
	return f.equipment, f.equipmentErr
}

func (f *fakeBackend) MyLoans(ctx context.Context) ([]models.Loan, error) {
	return f.loans, f.loansErr
}

func (f *fakeBackend) LoanHistory(ctx context.Context) ([]models.Loan, error) {
	return f.loans, f.loansErr
}

func (f *fakeBackend) CurrentLoans(ctx context.Context) ([]models.Loan, error) {
	return ActiveLoans(f.loans), f.loansErr
}

func (f *fakeBackend) OverdueLoans(ctx context.Context) ([]models.Loan, error) {
	return FilterLoans(f.loans, TabOverdue, ""), f.loansErr
}

func (f *fakeBackend) MyReservations(ctx context.Context) ([]models.Reservation, error) {
	return f.reservations, f.reservationsErr
}

func (f *fakeBackend) AllReservations(ctx context.Context) ([]models.Reservation, error) {
	return f.reservations, f.reservationsErr
}

func (f *fakeBackend) Users(ctx context.Context) ([]models.User, error) {
	return f.users, f.usersErr
}

func (f *fakeBackend) MaintenanceByStatus(ctx context.Context, status models.MaintenanceStatus) ([]models.MaintenanceRecord, error) {
	return f.maintenance[status], nil
}

func (f *fakeBackend) ScheduledMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return f.maintenance[models.MaintenanceScheduled], nil
}

func (f *fakeBackend) OverdueMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return f.maintenance[models.MaintenanceOverdue], nil
}

func (f *fakeBackend) Return(ctx context.Context, equipmentID int) error {
	if err := f.returnErrs[equipmentID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returned = append(f.returned, equipmentID)
	return nil
}

func (f *fakeBackend) returnedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.returned...)
}

func sampleEquipment() []models.Equipment {
	return []models.Equipment{
		{ID: 1, Name: "Canon EOS R5", InventoryNumber: "INV-001", Category: models.CategoryCamera, Status: models.StatusAvailable, CreatedAt: "2024-03-01"},
		{ID: 2, Name: "MacBook Pro", InventoryNumber: "INV-002", Category: models.CategoryLaptop, Status: models.StatusBorrowed, Specs: "M3, 16GB", CreatedAt: "2024-01-15"},
		{ID: 3, Name: "Rode NT1", InventoryNumber: "INV-003", Category: models.CategoryAudio, Status: models.StatusAvailable, CreatedAt: "2024-02-10"},
		{ID: 4, Name: "Sony A7", InventoryNumber: "INV-004", Category: models.CategoryCamera, Status: models.StatusMaintenance},
	}
}

func sampleLoans() []models.Loan {
	return []models.Loan{
		{ID: 10, EquipmentID: 2, EquipmentName: "MacBook Pro", InventoryNumber: "INV-002", BorrowedAt: "2024-05-01T09:00:00", ExpectedReturnDate: "2024-05-10", Status: models.LoanActive},
		{ID: 11, EquipmentID: 5, EquipmentName: "Zoom H6", InventoryNumber: "INV-005", BorrowedAt: "2024-04-01T09:00:00", ExpectedReturnDate: "2024-04-05", Status: models.LoanOverdue},
		{ID: 12, EquipmentID: 1, EquipmentName: "Canon EOS R5", InventoryNumber: "INV-001", BorrowedAt: "2024-03-01T09:00:00", ReturnedAt: "2024-03-03T17:00:00", Status: models.LoanReturned},
		{ID: 13, EquipmentID: 3, EquipmentName: "Rode NT1", InventoryNumber: "INV-003", BorrowedAt: "2024-02-01T09:00:00", ReturnedAt: "2024-02-02T10:00:00"},
	}
}
