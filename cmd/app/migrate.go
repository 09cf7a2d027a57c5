// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codeberg.org/typecode/accounts/internal/config"
	"codeberg.org/typecode/accounts/internal/database"
	"codeberg.org/typecode/accounts/internal/server"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			migrateAction("up", "Apply all pending migrations", database.RunMigrations),
			migrateAction("down", "Roll back the last migration", database.MigrateDown),
			migrateAction("reset", "Roll back all migrations", database.MigrateReset),
		},
	}
}

func migrateAction(name, usage string, run func(*sql.DB) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := config.NewFromCLI(cmd)
			server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

			db, err := database.Connect(cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if err := run(db.DB); err != nil {
				return fmt.Errorf("migrate %s: %w", name, err)
			}

			version, err := database.Version(db.DB)
			if err != nil {
				return err
			}
			slog.Info("migrations applied", "command", name, "version", version)
			return nil
		},
	}
}
