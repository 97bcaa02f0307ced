package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LoansList prints the user's loans for one tab (All, Active, Returned, Overdue).
func (r *Runner) LoansList(ctx context.Context, cmd *cli.Command) error {
	tab, err := tasks.ParseLoanTab(cmd.String("tab"))
	if err != nil {
		return err
	}
	sort, err := tasks.ParseSortOption(cmd.String("sort"))
	if err != nil {
		return err
	}

	loans, err := cachedList(ctx, r, string(tasks.DatasetLoans), cmd.Bool("offline"), r.client.MyLoans)
	if err != nil {
		return err
	}

	loans = tasks.FilterLoans(loans, tab, cmd.String("query"))
	if sort.Key != "" {
		loans = tasks.SortLoans(loans, sort)
	}
	return r.writeList(cmd, fmt.Sprintf("%s loans", tab), formatter.LoanTable(loans), loans)
}

// LoansReturnAll returns every active loan on the worker pool, printing progress.
func (r *Runner) LoansReturnAll(ctx context.Context, cmd *cli.Command) error {
	loans, err := r.client.MyLoans(ctx)
	if err != nil {
		return err
	}

	active := tasks.ActiveLoans(loans)
	if len(active) == 0 {
		return r.notify(notify.Info, "No active loans to return")
	}
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Return all %d active loans?", len(active))) {
		return r.writePlain("Cancelled\n")
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.writeProgress(progress, done)

	result, err := r.engine.ReturnAll(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("═══ Summary ═══")
	if result.Failed > 0 {
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  ✗ %s: %v\n", res.Loan.EquipmentName, res.Error)
			}
		}
		return r.notify(notify.Warning, "Returned %d of %d items, %d failed", result.Succeeded, result.Total, result.Failed)
	}
	return r.notify(notify.Success, "Returned %d items", result.Succeeded)
}
