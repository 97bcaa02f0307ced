package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// EquipmentList prints the equipment available to borrow, filtered by category and query.
func (r *Runner) EquipmentList(ctx context.Context, cmd *cli.Command) error {
	sort, err := tasks.ParseSortOption(cmd.String("sort"))
	if err != nil {
		return err
	}

	items, err := cachedList(ctx, r, string(tasks.DatasetEquipment), cmd.Bool("offline"), r.client.AvailableEquipment)
	if err != nil {
		return err
	}

	items = tasks.FilterEquipment(items, tasks.EquipmentFilter{
		Category: cmd.String("category"),
		Query:    cmd.String("query"),
	})
	if sort.Key != "" {
		items = tasks.SortEquipment(items, sort)
	}
	return r.writeList(cmd, "Equipment", formatter.EquipmentTable(items), items)
}

// EquipmentSearch runs a paged catalogue search.
func (r *Runner) EquipmentSearch(ctx context.Context, cmd *cli.Command) error {
	page, err := r.client.SearchEquipment(ctx, searchFilters(cmd))
	if err != nil {
		return err
	}
	return r.writePage(cmd, "Equipment", formatter.EquipmentTable(page.Content), page, page.Number, page.TotalPages, page.TotalElements)
}

// EquipmentBorrow lends an item until --until, or the loan rules' default duration.
func (r *Runner) EquipmentBorrow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	until := cmd.String("until")
	if until != "" {
		due, err := models.ParseDate(until)
		if err != nil {
			return err
		}
		if due.Before(r.today()) {
			return fmt.Errorf("%w: the return date is in the past", shared.ErrInvalidInput)
		}
	} else if rules, err := r.client.LoanRules(ctx); err == nil {
		until = rules.DefaultReturnDate(r.now()).Format(models.DateLayout)
	} else {
		r.logger.Debug("loan rules unavailable, leaving the return date to the server", "error", err)
	}

	if err := r.client.Borrow(ctx, id, until); err != nil {
		return err
	}
	if until == "" {
		return r.notify(notify.Success, "Borrowed equipment #%d", id)
	}
	return r.notify(notify.Success, "Borrowed equipment #%d, due %s", id, until)
}

// EquipmentReturn returns a borrowed item.
func (r *Runner) EquipmentReturn(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.client.Return(ctx, id); err != nil {
		return err
	}
	return r.notify(notify.Success, "Returned equipment #%d", id)
}

// EquipmentRules prints the loan rules.
func (r *Runner) EquipmentRules(ctx context.Context, cmd *cli.Command) error {
	rules, err := r.client.LoanRules(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rules, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Loan rules")
	r.writePlain("Max loans per user: %d\n", rules.MaxLoansPerUser)
	r.writePlain("Loan duration:      %d-%d days (default %d)\n",
		rules.MinLoanDurationDays, rules.MaxLoanDurationDays, rules.DefaultLoanDurationDays)
	r.writePlain("Grace period:       %d days\n", rules.GracePeriodDays)
	return nil
}

func searchFilters(cmd *cli.Command) models.SearchFilters {
	return models.SearchFilters{
		Query:    cmd.String("query"),
		Category: cmd.String("category"),
		Status:   cmd.String("status"),
		Role:     cmd.String("role"),
		Page:     cmd.Int("page"),
		Size:     cmd.Int("size"),
		SortBy:   cmd.String("sort-by"),
		SortDir:  models.SortDirection(cmd.String("direction")),
	}
}

// writePage prints one page of search results followed by the page position.
func (r *Runner) writePage(cmd *cli.Command, title string, t formatter.Table, raw any, number, pages, total int) error {
	if cmd.Bool("json") {
		return r.writeJSON(raw, cmd.Bool("pretty"))
	}
	if err := r.writeTable(title, t); err != nil {
		return err
	}
	return r.writePlain("Page %d of %d (%d total)\n", number+1, max(pages, 1), total)
}
