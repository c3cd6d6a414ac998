package main

import (
	"context"
	"fmt"
	"os"

	"github.com/meetingmind/mm/internal/shared"
	"github.com/urfave/cli/v3"
)

// LoadConfig reads --config when it exists and applies the log level. A missing file keeps the current config.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		r.configPath = path
	}

	level := cmd.String("log-level")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		if level == "" {
			level = config.Log.Level
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if level != "" {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	}
	return ctx, nil
}

// Setup creates the config file if needed, then creates the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err := shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
			} else {
				r.config = config
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config: %s\n", configPath)
	r.writePlain("Database: %s (%d migrations applied)\n", r.config.Database.Path, len(applied))
	r.writePlain("Credentials: %s\n", r.config.CredentialsPath())
	return nil
}
