package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/shared"
)

// SetupDatabase writes a config file when none exists, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := r.loadOrCreateConfig(configPath)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Info("setup complete", "database", config.Database.Path, "version", version)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", config.Database.Path, version)
}

// loadOrCreateConfig loads the config at path, creating it from the embedded template when missing.
//
// Any failure falls back to the defaults with a warning.
func (r *Runner) loadOrCreateConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig(), nil
		}
		r.logger.Info("config file created", "path", path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig(), nil
	}
	return config, nil
}
