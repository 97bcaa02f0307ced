package main

import (
	"context"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ReservationsList prints the user's reservations, soonest first.
func (r *Runner) ReservationsList(ctx context.Context, cmd *cli.Command) error {
	status, err := optionalEnum(cmd.String("status"), models.ParseReservationStatus, "status")
	if err != nil {
		return err
	}

	items, err := cachedList(ctx, r, string(tasks.DatasetReservations), cmd.Bool("offline"), r.client.MyReservations)
	if err != nil {
		return err
	}

	items = tasks.FilterReservations(items, status, cmd.String("query"))
	items = tasks.SortReservations(items, tasks.SortOption{Key: tasks.SortByDate})
	return r.writeList(cmd, "Reservations", formatter.ReservationTable(items), items)
}

// ReservationsCreate reserves an item for an inclusive date range.
func (r *Runner) ReservationsCreate(ctx context.Context, cmd *cli.Command) error {
	req := models.ReservationRequest{
		EquipmentID: cmd.Int("equipment"),
		StartDate:   cmd.String("start"),
		EndDate:     cmd.String("end"),
		Notes:       cmd.String("notes"),
	}
	if err := req.Validate(r.today()); err != nil {
		return err
	}

	res, err := r.client.CreateReservation(ctx, req)
	if err != nil {
		return err
	}
	return r.notify(notify.Success, "Reservation #%d created for %s to %s (%s)",
		res.ID, req.StartDate, req.EndDate, shared.OrNA(string(res.Status)))
}

// ReservationsCancel cancels one of the user's reservations.
func (r *Runner) ReservationsCancel(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.client.CancelReservation(ctx, id); err != nil {
		return err
	}
	return r.notify(notify.Success, "Reservation #%d cancelled", id)
}
