package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

func (r *Runner) exportFormat(cmd *cli.Command) (formatter.Format, error) {
	raw := cmd.String("format")
	if raw == "" {
		raw = r.config.Export.Format
	}
	return formatter.ParseFormat(raw)
}

// ExportDataset writes one dataset to a file.
//
// Users and maintenance, and --all, read the admin endpoints and need the ADMIN role.
func (r *Runner) ExportDataset(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("dataset")
	if name == "" {
		return fmt.Errorf("%w: dataset (one of equipment, loans, reservations, users, maintenance)", shared.ErrMissingArgument)
	}
	ds, err := tasks.ParseDataset(name)
	if err != nil {
		return err
	}
	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	admin := cmd.Bool("all") || ds.AdminOnly()
	if admin {
		if err := r.requireAdmin(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("exporting", "dataset", ds, "format", format, "admin", admin)

	res, err := r.engine.FetchDataset(ctx, ds, admin)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(cmd.String("output"), string(ds), format, ds.Title(), res.Table, res.Raw)
	if err != nil {
		return err
	}
	return r.notify(notify.Success, "Exported %d %s to %s", res.Table.Len(), ds, path)
}

// ExportAll exports every dataset the session can read into one directory with a manifest.
func (r *Runner) ExportAll(ctx context.Context, cmd *cli.Command) error {
	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	sess, err := r.sessions.Current(ctx)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:    format,
		OutputDir: cmd.String("dir"),
		Admin:     sess.IsAdmin(),
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Export.Dir
	}
	for _, name := range cmd.StringSlice("dataset") {
		for _, part := range strings.Split(name, ",") {
			ds, err := tasks.ParseDataset(part)
			if err != nil {
				return err
			}
			opts.Datasets = append(opts.Datasets, ds)
		}
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.writeProgress(progress, done)

	result, err := r.engine.BulkExport(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("═══ Summary ═══")
	for _, res := range result.Results {
		if res.Success {
			r.writePlain("  ✓ %-13s %4d rows  %s\n", res.Dataset, res.Rows, res.File)
		} else {
			r.writePlain("  ✗ %-13s %s\n", res.Dataset, res.Error)
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		return r.notify(notify.Warning, "Exported %d of %d datasets to %s",
			result.SuccessfulExports, result.TotalDatasets, result.OutputDirectory)
	}
	return r.notify(notify.Success, "Exported %d datasets to %s", result.SuccessfulExports, result.OutputDirectory)
}
