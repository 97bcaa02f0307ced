package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/equipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
//
// With --rollback the most recent migration is reverted instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	db := r.db
	if db == nil {
		r.logger.Info("initializing database", "path", r.config.Database.Path)

		opened, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer opened.Close()

		shared.ConfigureDatabase(opened, max(r.config.Database.MaxOpenConns, 1), max(r.config.Database.MaxIdleConns, 1))
		db = opened
	}

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back the latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back the latest migration\n")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupConfig writes the bundled template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Wrote %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url in %s (or export %s)\n", path, shared.BaseURLEnv)
	r.writePlain("2. Run 'equipx auth login' to sign in\n")
	return nil
}
