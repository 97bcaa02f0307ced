package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/equipx/internal/models"
)

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	return getList[models.User](ctx, c, c.adminURL("/users"))
}

// SearchUsers filters by f.Role; f.Status is sent as the role when Role is empty.
func (c *Client) SearchUsers(ctx context.Context, f models.SearchFilters) (*models.Page[models.User], error) {
	if f.Role == "" {
		f.Role = f.Status
	}
	f.Status, f.Category = "", ""

	var out models.Page[models.User]
	if err := c.do(ctx, http.MethodGet, c.adminURL("/users/search?%s", f.Values().Encode()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, u models.UserUpdate) (*models.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var out models.User
	if err := c.do(ctx, http.MethodPut, c.adminURL("/users/%d", id), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, c.adminURL("/users/%d", id), nil, nil)
}

func (c *Client) AllEquipment(ctx context.Context) ([]models.Equipment, error) {
	return getList[models.Equipment](ctx, c, c.adminURL("/equipment"))
}

func (c *Client) SearchEquipmentAdmin(ctx context.Context, f models.SearchFilters) (*models.Page[models.Equipment], error) {
	f.Role = ""
	var out models.Page[models.Equipment]
	if err := c.do(ctx, http.MethodGet, c.adminURL("/equipment/search?%s", f.Values().Encode()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddEquipment(ctx context.Context, in models.EquipmentInput) (*models.Equipment, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	var out models.Equipment
	if err := c.do(ctx, http.MethodPost, c.adminURL("/equipment"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEquipment(ctx context.Context, id int, in models.EquipmentInput) (*models.Equipment, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	var out models.Equipment
	if err := c.do(ctx, http.MethodPut, c.adminURL("/equipment/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEquipment(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, c.adminURL("/equipment/%d", id), nil, nil)
}

func (c *Client) CurrentLoans(ctx context.Context) ([]models.Loan, error) {
	return c.loans(ctx, "current")
}

func (c *Client) LoanHistory(ctx context.Context) ([]models.Loan, error) {
	return c.loans(ctx, "history")
}

func (c *Client) OverdueLoans(ctx context.Context) ([]models.Loan, error) {
	return c.loans(ctx, "overdue")
}

func (c *Client) loans(ctx context.Context, which string) ([]models.Loan, error) {
	return getList[models.Loan](ctx, c, c.adminURL("/ausleihen/%s", which))
}

func (c *Client) ScheduleMaintenance(ctx context.Context, r models.MaintenanceRequest) (*models.MaintenanceRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var out models.MaintenanceRecord
	if err := c.do(ctx, http.MethodPost, c.adminURL("/maintenance"), r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartMaintenance(ctx context.Context, id int) (*models.MaintenanceRecord, error) {
	return c.maintenanceAction(ctx, id, "start")
}

func (c *Client) CompleteMaintenance(ctx context.Context, id int) (*models.MaintenanceRecord, error) {
	return c.maintenanceAction(ctx, id, "complete")
}

func (c *Client) maintenanceAction(ctx context.Context, id int, action string) (*models.MaintenanceRecord, error) {
	var out models.MaintenanceRecord
	if err := c.do(ctx, http.MethodPut, c.adminURL("/maintenance/%d/%s", id, action), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MaintenanceHistory(ctx context.Context, equipmentID int) ([]models.MaintenanceRecord, error) {
	return getList[models.MaintenanceRecord](ctx, c, c.adminURL("/maintenance/equipment/%d", equipmentID))
}

func (c *Client) ScheduledMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return getList[models.MaintenanceRecord](ctx, c, c.adminURL("/maintenance/scheduled"))
}

func (c *Client) OverdueMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return getList[models.MaintenanceRecord](ctx, c, c.adminURL("/maintenance/overdue"))
}

func (c *Client) MaintenanceByStatus(ctx context.Context, status models.MaintenanceStatus) ([]models.MaintenanceRecord, error) {
	return getList[models.MaintenanceRecord](ctx, c, c.adminURL("/maintenance/status/%s", url.PathEscape(string(status))))
}

func (c *Client) AllReservations(ctx context.Context) ([]models.Reservation, error) {
	return getList[models.Reservation](ctx, c, c.adminURL("/reservations"))
}

func (c *Client) EquipmentReservations(ctx context.Context, equipmentID int) ([]models.Reservation, error) {
	return getList[models.Reservation](ctx, c, c.adminURL("/reservations/equipment/%d", equipmentID))
}

func (c *Client) ConfirmReservation(ctx context.Context, id int) (*models.Reservation, error) {
	var out models.Reservation
	if err := c.do(ctx, http.MethodPut, c.adminURL("/reservations/%d/confirm", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
