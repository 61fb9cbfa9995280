package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/server"
)

// Serve starts the JSON API over the same store the other commands use and runs until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	// Handlers get write failures from Store.Apply; the persister only logs them.
	r.persister.OnError = nil

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		cfg.Port = port
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestIDs(), server.Logging(r.logger), server.Recover(r.logger))
	router.Handler(r.movieHandler())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("Serving on http://%s\n", cfg.Addr())
	return server.Serve(ctx, cfg.Addr(), router, r.logger)
}

func (r *Runner) movieHandler() *server.MovieHandler {
	handler := &server.MovieHandler{
		Store:   r.store,
		Movies:  r.movies,
		Imports: r.imports,
	}
	if r.catalog != nil {
		handler.Catalog = r.catalog
		handler.Search = func(ctx context.Context, query string, page int) (*models.Page, error) {
			return r.engine.Search(ctx, query, page, nil)
		}
	}
	return handler
}
