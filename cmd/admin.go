package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// adminCommand groups the operations that need the ADMIN role.
//
// Every action checks the stored session's role before calling the API.
func adminCommand(r *Runner) *cli.Command {
	list := func(name, usage string, action cli.ActionFunc, flags ...cli.Flag) *cli.Command {
		return &cli.Command{
			Name:   name,
			Usage:  usage,
			Flags:  append(jsonFlags(), flags...),
			Action: r.adminOnly(action),
		}
	}
	byID := func(name, usage, arg string, action cli.ActionFunc, flags ...cli.Flag) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			Arguments: idArgument(arg),
			Flags:     flags,
			Action:    r.adminOnly(action),
		}
	}

	return &cli.Command{
		Name:  "admin",
		Usage: "Administration (requires the ADMIN role)",
		Commands: []*cli.Command{
			{
				Name:  "users",
				Usage: "Manage user accounts",
				Commands: []*cli.Command{
					list("list", "List users", r.AdminUsersList,
						&cli.StringFlag{Name: "role", Usage: "USER or ADMIN"},
						&cli.StringFlag{Name: "status", Usage: "Account status"},
						&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match username, name or email"},
					),
					list("search", "Search users page by page", r.AdminUsersSearch,
						append(searchFlags(), &cli.StringFlag{Name: "role", Usage: "USER or ADMIN"})...),
					byID("update", "Change a user's role or account status", "id", r.AdminUsersUpdate,
						&cli.StringFlag{Name: "role", Usage: "USER or ADMIN"},
						&cli.StringFlag{Name: "status", Usage: "Account status"},
					),
					byID("delete", "Delete a user", "id", r.AdminUsersDelete, yesFlag()),
				},
			},
			{
				Name:  "equipment",
				Usage: "Manage the catalogue",
				Commands: []*cli.Command{
					list("list", "List all equipment", r.AdminEquipmentList,
						&cli.StringFlag{Name: "category", Usage: "Only show this category"},
						&cli.StringFlag{Name: "status", Usage: "Only show this status"},
						&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match name, specs or inventory number"},
					),
					list("search", "Search all equipment page by page", r.AdminEquipmentSearch, searchFlags()...),
					list("add", "Add an item", r.AdminEquipmentAdd, equipmentFlags()...),
					byID("update", "Update an item", "id", r.AdminEquipmentUpdate, append(jsonFlags(), equipmentFlags()...)...),
					byID("delete", "Delete an item", "id", r.AdminEquipmentDelete, yesFlag()),
				},
			},
			{
				Name:  "loans",
				Usage: "Everyone's loans",
				Commands: []*cli.Command{
					list("current", "Loans that are out", r.adminLoans((*services.Client).CurrentLoans, "Current loans")),
					list("history", "Every loan", r.adminLoans((*services.Client).LoanHistory, "Loan history")),
					list("overdue", "Loans past their return date", r.adminLoans((*services.Client).OverdueLoans, "Overdue loans")),
				},
			},
			{
				Name:  "maintenance",
				Usage: "Schedule and track maintenance",
				Commands: []*cli.Command{
					list("schedule", "Schedule maintenance for an item", r.AdminMaintenanceSchedule,
						&cli.IntFlag{Name: "equipment", Aliases: []string{"e"}, Usage: "Equipment ID", Required: true},
						&cli.StringFlag{Name: "type", Usage: "ROUTINE, REPAIR, INSPECTION, CLEANING, CALIBRATION, UPGRADE or OTHER", Required: true},
						&cli.StringFlag{Name: "date", Usage: "Scheduled date (YYYY-MM-DD)", Required: true},
						&cli.StringFlag{Name: "description", Usage: "What needs doing"},
						&cli.StringFlag{Name: "cost", Usage: "Estimated cost"},
					),
					byID("start", "Mark maintenance as in progress", "id", r.AdminMaintenanceStart),
					byID("complete", "Mark maintenance as completed", "id", r.AdminMaintenanceComplete),
					{
						Name:      "history",
						Usage:     "Maintenance records of one item",
						Arguments: idArgument("equipment-id"),
						Flags:     jsonFlags(),
						Action:    r.adminOnly(r.AdminMaintenanceHistory),
					},
					list("scheduled", "Upcoming maintenance", r.adminMaintenance((*services.Client).ScheduledMaintenance, "Scheduled maintenance")),
					list("overdue", "Maintenance past its date", r.adminMaintenance((*services.Client).OverdueMaintenance, "Overdue maintenance")),
					{
						Name:      "status",
						Usage:     "Maintenance records with a status",
						Arguments: idArgument("status"),
						Flags:     jsonFlags(),
						Action:    r.adminOnly(r.AdminMaintenanceStatus),
					},
				},
			},
			{
				Name:  "reservations",
				Usage: "Everyone's reservations",
				Commands: []*cli.Command{
					list("list", "List reservations", r.AdminReservationsList,
						&cli.StringFlag{Name: "status", Usage: "Only show this status"},
						&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match equipment, user or notes"},
					),
					{
						Name:      "equipment",
						Usage:     "Reservations of one item",
						Arguments: idArgument("equipment-id"),
						Flags:     jsonFlags(),
						Action:    r.adminOnly(r.AdminEquipmentReservations),
					},
					byID("confirm", "Confirm a pending reservation", "id", r.AdminReservationsConfirm),
				},
			},
			list("overview", "Fetch every admin list concurrently and summarize", r.AdminOverview),
		},
	}
}

func equipmentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "inventory-number", Usage: "Inventory number (required when adding)"},
		&cli.StringFlag{Name: "name", Usage: "Name (required when adding)"},
		&cli.StringFlag{Name: "description", Usage: "Description"},
		&cli.StringFlag{Name: "category", Usage: "Category"},
		&cli.StringFlag{Name: "status", Usage: "Status"},
		&cli.StringFlag{Name: "condition", Usage: "Condition"},
		&cli.StringFlag{Name: "location", Usage: "Storage location"},
		&cli.StringFlag{Name: "serial-number", Usage: "Serial number"},
		&cli.StringFlag{Name: "purchase-date", Usage: "Purchase date (YYYY-MM-DD)"},
	}
}

// AdminUsersList prints users matching the role, status and query flags.
func (r *Runner) AdminUsersList(ctx context.Context, cmd *cli.Command) error {
	role, err := optionalEnum(cmd.String("role"), models.ParseRole, "role")
	if err != nil {
		return err
	}
	status, err := optionalEnum(cmd.String("status"), models.ParseAccountStatus, "status")
	if err != nil {
		return err
	}

	users, err := r.client.Users(ctx)
	if err != nil {
		return err
	}
	users = tasks.FilterUsers(users, tasks.UserFilter{Role: role, Status: status, Query: cmd.String("query")})
	return r.writeList(cmd, "Users", formatter.UserTable(users), users)
}

// AdminUsersSearch runs a paged user search.
func (r *Runner) AdminUsersSearch(ctx context.Context, cmd *cli.Command) error {
	page, err := r.client.SearchUsers(ctx, searchFilters(cmd))
	if err != nil {
		return err
	}
	return r.writePage(cmd, "Users", formatter.UserTable(page.Content), page, page.Number, page.TotalPages, page.TotalElements)
}

// AdminUsersUpdate changes a user's role or account status.
func (r *Runner) AdminUsersUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	update := models.UserUpdate{}
	if update.Role, err = optionalEnum(cmd.String("role"), models.ParseRole, "role"); err != nil {
		return err
	}
	if update.AccountStatus, err = optionalEnum(cmd.String("status"), models.ParseAccountStatus, "status"); err != nil {
		return err
	}

	user, err := r.client.UpdateUser(ctx, id, update)
	if err != nil {
		return err
	}
	return r.notify(notify.Success, "Updated %s: %s, %s", user.Username, user.Role, shared.OrNA(string(user.AccountStatus)))
}

// AdminUsersDelete deletes a user after confirmation.
func (r *Runner) AdminUsersDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete user #%d?", id)) {
		return r.writePlain("Cancelled\n")
	}
	if err := r.client.DeleteUser(ctx, id); err != nil {
		return err
	}
	return r.notify(notify.Success, "User #%d deleted", id)
}

// AdminEquipmentList prints the whole catalogue, including unavailable items.
func (r *Runner) AdminEquipmentList(ctx context.Context, cmd *cli.Command) error {
	status, err := optionalEnum(cmd.String("status"), models.ParseEquipmentStatus, "status")
	if err != nil {
		return err
	}
	items, err := r.client.AllEquipment(ctx)
	if err != nil {
		return err
	}
	items = tasks.FilterEquipment(items, tasks.EquipmentFilter{
		Category: cmd.String("category"),
		Query:    cmd.String("query"),
		Status:   status,
	})
	return r.writeList(cmd, "Equipment", formatter.EquipmentTable(items), items)
}

// AdminEquipmentSearch runs a paged search over the whole catalogue.
func (r *Runner) AdminEquipmentSearch(ctx context.Context, cmd *cli.Command) error {
	page, err := r.client.SearchEquipmentAdmin(ctx, searchFilters(cmd))
	if err != nil {
		return err
	}
	return r.writePage(cmd, "Equipment", formatter.EquipmentTable(page.Content), page, page.Number, page.TotalPages, page.TotalElements)
}

// AdminEquipmentAdd adds an item to the catalogue.
func (r *Runner) AdminEquipmentAdd(ctx context.Context, cmd *cli.Command) error {
	in, err := equipmentInput(cmd)
	if err != nil {
		return err
	}
	if err := in.Validate(true); err != nil {
		return err
	}

	item, err := r.client.AddEquipment(ctx, in)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(item, cmd.Bool("pretty"))
	}
	return r.notify(notify.Success, "Added %s as #%d", item.Label(), item.ID)
}

// AdminEquipmentUpdate changes the fields given on the command line.
func (r *Runner) AdminEquipmentUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	in, err := equipmentInput(cmd)
	if err != nil {
		return err
	}
	if in == (models.EquipmentInput{}) {
		return fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}
	if err := in.Validate(false); err != nil {
		return err
	}

	item, err := r.client.UpdateEquipment(ctx, id, in)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(item, cmd.Bool("pretty"))
	}
	return r.notify(notify.Success, "Updated %s", item.Label())
}

// AdminEquipmentDelete removes an item after confirmation.
func (r *Runner) AdminEquipmentDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete equipment #%d?", id)) {
		return r.writePlain("Cancelled\n")
	}
	if err := r.client.DeleteEquipment(ctx, id); err != nil {
		return err
	}
	return r.notify(notify.Success, "Equipment #%d deleted", id)
}

func equipmentInput(cmd *cli.Command) (models.EquipmentInput, error) {
	in := models.EquipmentInput{
		InventoryNumber: cmd.String("inventory-number"),
		Name:            cmd.String("name"),
		Description:     cmd.String("description"),
		Location:        cmd.String("location"),
		SerialNumber:    cmd.String("serial-number"),
		PurchaseDate:    cmd.String("purchase-date"),
	}

	var err error
	if in.Category, err = optionalEnum(cmd.String("category"), models.ParseCategory, "category"); err != nil {
		return in, err
	}
	if in.Status, err = optionalEnum(cmd.String("status"), models.ParseEquipmentStatus, "status"); err != nil {
		return in, err
	}
	if in.Condition, err = optionalEnum(cmd.String("condition"), models.ParseCondition, "condition"); err != nil {
		return in, err
	}
	return in, nil
}

func optionalEnum[T ~string](raw string, parse func(string) (T, error), flag string) (T, error) {
	if raw == "" {
		return "", nil
	}
	v, err := parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return v, nil
}

// adminLoans prints one of the admin loan lists.
func (r *Runner) adminLoans(fetch func(*services.Client, context.Context) ([]models.Loan, error), title string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		loans, err := fetch(r.client, ctx)
		if err != nil {
			return err
		}
		return r.writeList(cmd, title, formatter.LoanTable(loans), loans)
	}
}

// adminMaintenance prints one of the maintenance lists.
func (r *Runner) adminMaintenance(fetch func(*services.Client, context.Context) ([]models.MaintenanceRecord, error), title string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		items, err := fetch(r.client, ctx)
		if err != nil {
			return err
		}
		return r.writeList(cmd, title, formatter.MaintenanceTable(items), items)
	}
}

// AdminMaintenanceSchedule schedules maintenance for an item.
func (r *Runner) AdminMaintenanceSchedule(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseMaintenanceType(cmd.String("type"))
	if err != nil {
		return err
	}
	req := models.MaintenanceRequest{
		EquipmentID:   cmd.Int("equipment"),
		Type:          kind,
		Description:   cmd.String("description"),
		ScheduledDate: cmd.String("date"),
	}
	if raw := cmd.String("cost"); raw != "" {
		cost, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: cost %q is not a number", shared.ErrInvalidInput, raw)
		}
		req.Cost = &cost
	}
	if err := req.Validate(); err != nil {
		return err
	}

	rec, err := r.client.ScheduleMaintenance(ctx, req)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rec, cmd.Bool("pretty"))
	}
	return r.notify(notify.Success, "Maintenance #%d scheduled for %s", rec.ID, req.ScheduledDate)
}

// AdminMaintenanceStart marks a record as in progress.
func (r *Runner) AdminMaintenanceStart(ctx context.Context, cmd *cli.Command) error {
	return r.maintenanceAction(ctx, cmd, r.client.StartMaintenance, "started")
}

// AdminMaintenanceComplete marks a record as completed.
func (r *Runner) AdminMaintenanceComplete(ctx context.Context, cmd *cli.Command) error {
	return r.maintenanceAction(ctx, cmd, r.client.CompleteMaintenance, "completed")
}

func (r *Runner) maintenanceAction(ctx context.Context, cmd *cli.Command, act func(context.Context, int) (*models.MaintenanceRecord, error), verb string) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	rec, err := act(ctx, id)
	if err != nil {
		return err
	}
	return r.notify(notify.Success, "Maintenance #%d %s (%s)", rec.ID, verb, rec.Status)
}

// AdminMaintenanceHistory prints the maintenance records of one item.
func (r *Runner) AdminMaintenanceHistory(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "equipment-id")
	if err != nil {
		return err
	}
	items, err := r.client.MaintenanceHistory(ctx, id)
	if err != nil {
		return err
	}
	return r.writeList(cmd, fmt.Sprintf("Maintenance of #%d", id), formatter.MaintenanceTable(items), items)
}

// AdminMaintenanceStatus prints the records with the given status.
func (r *Runner) AdminMaintenanceStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := models.ParseMaintenanceStatus(cmd.StringArg("status"))
	if err != nil {
		return err
	}
	items, err := r.client.MaintenanceByStatus(ctx, status)
	if err != nil {
		return err
	}
	return r.writeList(cmd, fmt.Sprintf("%s maintenance", status), formatter.MaintenanceTable(items), items)
}

// AdminReservationsList prints every reservation.
func (r *Runner) AdminReservationsList(ctx context.Context, cmd *cli.Command) error {
	status, err := optionalEnum(cmd.String("status"), models.ParseReservationStatus, "status")
	if err != nil {
		return err
	}
	items, err := r.client.AllReservations(ctx)
	if err != nil {
		return err
	}
	items = tasks.FilterReservations(items, status, cmd.String("query"))
	items = tasks.SortReservations(items, tasks.SortOption{Key: tasks.SortByDate})
	return r.writeList(cmd, "Reservations", formatter.ReservationTable(items), items)
}

// AdminEquipmentReservations prints the reservations of one item.
func (r *Runner) AdminEquipmentReservations(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "equipment-id")
	if err != nil {
		return err
	}
	items, err := r.client.EquipmentReservations(ctx, id)
	if err != nil {
		return err
	}
	return r.writeList(cmd, fmt.Sprintf("Reservations of #%d", id), formatter.ReservationTable(items), items)
}

// AdminReservationsConfirm confirms a pending reservation.
func (r *Runner) AdminReservationsConfirm(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	res, err := r.client.ConfirmReservation(ctx, id)
	if err != nil {
		return err
	}
	return r.notify(notify.Success, "Reservation #%d %s", res.ID, res.Status)
}

// AdminOverview fetches every admin list concurrently and prints the counts.
//
// Endpoints that fail are listed; only a lost session aborts.
func (r *Runner) AdminOverview(ctx context.Context, cmd *cli.Command) error {
	asJSON := cmd.Bool("json")

	progress := make(chan tasks.ProgressUpdate, 20)
	done := make(chan struct{})
	if asJSON {
		go func() {
			defer close(done)
			for range progress {
			}
		}()
	} else {
		go r.writeProgress(progress, done)
	}

	res, err := r.engine.Overview(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}
	if asJSON {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}

	r.writePlainln("═══ Overview ═══")
	r.writePlain("Equipment:             %d\n", len(res.Equipment))
	r.writePlain("Users:                 %d\n", len(res.Users))
	r.writePlain("Current loans:         %d\n", len(res.CurrentLoans))
	r.writePlain("Overdue loans:         %d\n", len(res.OverdueLoans))
	r.writePlain("Scheduled maintenance: %d\n", len(res.ScheduledMaintenance))
	r.writePlain("Overdue maintenance:   %d\n", len(res.OverdueMaintenance))
	r.writePlain("Reservations:          %d\n", len(res.Reservations))

	for _, e := range res.Errors {
		r.notify(notify.Error, "%s unavailable: %s", e.Endpoint, services.Message(e.Error))
	}
	return nil
}
