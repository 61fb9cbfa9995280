package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/shared"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "CINX_CONFIG"

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	configPath := "config.toml"
	if path := os.Getenv(EnvConfigPath); path != "" {
		configPath = path
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	} else {
		config.ApplyEnv()
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Logging.Level))

	var tmdb *services.TMDBService
	if svc, err := services.NewTMDBService(ctx, config.Catalog); err == nil {
		tmdb = svc
	} else {
		logger.Debug("catalog disabled", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		TMDB:       tmdb,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "cinx",
		Usage:    "Keep a movie watchlist and track what you've seen",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			runner.Close()
			os.Exit(0)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
