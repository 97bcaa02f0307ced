package services

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/equipx/internal/models"
)

func (c *Client) AvailableEquipment(ctx context.Context) ([]models.Equipment, error) {
	return getList[models.Equipment](ctx, c, c.userURL("/equipment"))
}

func (c *Client) SearchEquipment(ctx context.Context, f models.SearchFilters) (*models.Page[models.Equipment], error) {
	f.Role = ""
	var out models.Page[models.Equipment]
	if err := c.do(ctx, http.MethodGet, c.userURL("/equipment/search?%s", f.Values().Encode()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyLoans lists the current user's loans, returned ones included.
func (c *Client) MyLoans(ctx context.Context) ([]models.Loan, error) {
	return getList[models.Loan](ctx, c, c.userURL("/ausleihen"))
}

func (c *Client) Borrow(ctx context.Context, equipmentID int, expectedReturn string) error {
	var body any
	if expectedReturn != "" {
		if _, err := models.ParseDate(expectedReturn); err != nil {
			return err
		}
		body = models.BorrowRequest{ExpectedReturnDate: expectedReturn}
	}
	return c.do(ctx, http.MethodPost, c.userURL("/ausleihen/%d", equipmentID), body, nil)
}

func (c *Client) Return(ctx context.Context, equipmentID int) error {
	return c.do(ctx, http.MethodPost, c.userURL("/rueckgabe/%d", equipmentID), nil, nil)
}

func (c *Client) LoanRules(ctx context.Context) (*models.LoanRules, error) {
	var out models.LoanRules
	if err := c.do(ctx, http.MethodGet, c.userURL("/loan-rules"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReservation(ctx context.Context, r models.ReservationRequest) (*models.Reservation, error) {
	if err := r.Validate(time.Now()); err != nil {
		return nil, err
	}
	var out models.Reservation
	if err := c.do(ctx, http.MethodPost, c.userURL("/reservations"), r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyReservations(ctx context.Context) ([]models.Reservation, error) {
	return getList[models.Reservation](ctx, c, c.userURL("/reservations"))
}

func (c *Client) CancelReservation(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, c.userURL("/reservations/%d", id), nil, nil)
}
