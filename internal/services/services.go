// package services defines the interfaces for talking to the equipment-lending backend
//
// Member endpoints live under /benutzer, admin endpoints under /admin.
package services

import (
	"context"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/session"
)

// Service defines the operations available to any logged-in member.
type Service interface {
	// Login exchanges credentials for a JWT and stores it.
	Login(ctx context.Context, creds models.Credentials) (*session.Session, error)
	Register(ctx context.Context, r models.Registration) error
	ResetPassword(ctx context.Context, r models.PasswordReset) error
	Logout(ctx context.Context) error

	Enable2FA(ctx context.Context) (*models.TwoFactorSetup, error)
	Verify2FA(ctx context.Context, code int) (*models.RecoveryCodes, error)
	Disable2FA(ctx context.Context) error

	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, p models.ProfileUpdate) (*models.User, error)

	AvailableEquipment(ctx context.Context) ([]models.Equipment, error)
	SearchEquipment(ctx context.Context, f models.SearchFilters) (*models.Page[models.Equipment], error)

	MyLoans(ctx context.Context) ([]models.Loan, error)
	// Borrow lends equipmentID; an empty expectedReturn lets the backend pick its default.
	Borrow(ctx context.Context, equipmentID int, expectedReturn string) error
	Return(ctx context.Context, equipmentID int) error
	LoanRules(ctx context.Context) (*models.LoanRules, error)

	CreateReservation(ctx context.Context, r models.ReservationRequest) (*models.Reservation, error)
	MyReservations(ctx context.Context) ([]models.Reservation, error)
	CancelReservation(ctx context.Context, id int) error
}

// AdminService defines the operations restricted to the ADMIN role.
type AdminService interface {
	Users(ctx context.Context) ([]models.User, error)
	SearchUsers(ctx context.Context, f models.SearchFilters) (*models.Page[models.User], error)
	UpdateUser(ctx context.Context, id int, u models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error

	AllEquipment(ctx context.Context) ([]models.Equipment, error)
	SearchEquipmentAdmin(ctx context.Context, f models.SearchFilters) (*models.Page[models.Equipment], error)
	AddEquipment(ctx context.Context, in models.EquipmentInput) (*models.Equipment, error)
	UpdateEquipment(ctx context.Context, id int, in models.EquipmentInput) (*models.Equipment, error)
	DeleteEquipment(ctx context.Context, id int) error

	CurrentLoans(ctx context.Context) ([]models.Loan, error)
	LoanHistory(ctx context.Context) ([]models.Loan, error)
	OverdueLoans(ctx context.Context) ([]models.Loan, error)

	ScheduleMaintenance(ctx context.Context, r models.MaintenanceRequest) (*models.MaintenanceRecord, error)
	StartMaintenance(ctx context.Context, id int) (*models.MaintenanceRecord, error)
	CompleteMaintenance(ctx context.Context, id int) (*models.MaintenanceRecord, error)
	MaintenanceHistory(ctx context.Context, equipmentID int) ([]models.MaintenanceRecord, error)
	ScheduledMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error)
	OverdueMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error)
	MaintenanceByStatus(ctx context.Context, status models.MaintenanceStatus) ([]models.MaintenanceRecord, error)

	AllReservations(ctx context.Context) ([]models.Reservation, error)
	EquipmentReservations(ctx context.Context, equipmentID int) ([]models.Reservation, error)
	ConfirmReservation(ctx context.Context, id int) (*models.Reservation, error)
}

var (
	_ Service      = (*Client)(nil)
	_ AdminService = (*Client)(nil)
)
