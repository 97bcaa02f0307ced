package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/urfave/cli/v3"
)

type cachedDataset struct {
	Dataset   string    `json:"dataset"`
	Items     int       `json:"items"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CacheList shows the offline copies stored for the current profile.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if r.snapshots == nil {
		return fmt.Errorf("%w: no local database", shared.ErrServiceUnavailable)
	}

	snaps, err := r.snapshots.List(ctx, r.profile)
	if err != nil {
		return err
	}

	out := make([]cachedDataset, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, cachedDataset{Dataset: s.Dataset, Items: s.Count, FetchedAt: s.FetchedAt})
	}
	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(snaps) == 0 {
		return r.writePlain("No offline copies for %s\n", r.profile)
	}
	r.writePlainHeader("Offline copies for " + r.profile)
	for _, s := range snaps {
		r.writePlain("  %-13s %4d items  fetched %s ago\n", s.Dataset, s.Count, s.Age(r.now()).Round(time.Second))
	}
	return nil
}

// CacheClear drops the offline copies of the current profile.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if r.snapshots == nil {
		return fmt.Errorf("%w: no local database", shared.ErrServiceUnavailable)
	}
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete offline copies for %s?", r.profile)) {
		return r.writePlain("Cancelled\n")
	}

	n, err := r.snapshots.DeleteProfile(ctx, r.profile)
	if err != nil {
		return err
	}
	r.logger.Info("cleared snapshots", "profile", r.profile, "count", n)
	return r.notify(notify.Success, "Removed %d offline copies", n)
}

// cacheCommand manages the lists saved for --offline
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the offline copies of fetched lists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show the stored offline copies",
				Flags:  jsonFlags(),
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete the stored offline copies",
				Flags:  []cli.Flag{yesFlag()},
				Action: r.CacheClear,
			},
		},
	}
}
