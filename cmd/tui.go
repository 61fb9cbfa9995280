package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/results"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
	"github.com/desertthunder/cinx/internal/ui"
)

// TUI launches the interactive terminal UI for the watchlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	category, err := parseCategory(cmd.String("category"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Logging.Level))
	r.SetLogger(fileLogger)

	if err := r.open(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Source:     r.movies,
		Dispatcher: r.store,
		Reload:     func() error { return r.persister.Reload(r.store) },
		Engine:     r.engine,
		Catalog:    r.catalog,
		Category:   category,
		Logger:     r.logger,
	})
	defer model.Close()

	r.persister.OnError = func(_ store.Action, err error) {
		model.ReportError(err)
	}

	// Writes from other cinx processes only reach this one through the database file.
	if path := r.config.Database.Path; r.ownsDB && path != ":memory:" {
		watcher, err := results.NewFileWatcher(path, 0, model.Refresh, r.logger)
		if err != nil {
			r.logger.Warn("database watcher disabled", "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			r.logger.Warn("database watcher disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
