// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func categoryFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "category",
		Usage: "Movie category: watchlist, seen or all",
		Value: "watchlist",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// importCommand imports a watchlist document.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import movies from a JSON watchlist export",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Action: r.Import,
	}
}

// exportCommand writes the collection in one of the export formats.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored movies (json can be imported again)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file, directory for markdown, or - for stdout",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown or txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Movie category: watchlist, seen or all",
				Value: "all",
			},
		},
		Action: r.Export,
	}
}

// moviesCommand handles operations on stored movies.
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Stored movie operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored movies in a category",
				Flags: append([]cli.Flag{
					categoryFlag(),
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Fuzzy title filter",
					},
				}, jsonFlags()...),
				Action: r.MoviesList,
			},
			{
				Name:  "show",
				Usage: "Show a stored movie, with catalog details when available",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  jsonFlags(),
				Action: r.MoviesShow,
			},
			{
				Name:  "save",
				Usage: "Save a catalog movie to your watchlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watched",
						Usage: "Save the movie as already seen",
					},
				},
				Action: r.MoviesSave,
			},
			{
				Name:  "watch",
				Usage: "Mark a movie as seen",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "unwatch",
						Usage: "Move the movie back to the watchlist",
					},
				},
				Action: r.MoviesWatch,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Remove a movie",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.MoviesDelete,
			},
			{
				Name:  "open",
				Usage: "Open the movie's catalog page in a browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.MoviesOpen,
			},
		},
	}
}

// searchCommand searches the catalog.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the movie catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
		}, jsonFlags()...),
		Action: r.Search,
	}
}

// upcomingCommand lists upcoming releases.
func upcomingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upcoming",
		Usage: "List upcoming releases",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
		}, jsonFlags()...),
		Action: r.Upcoming,
	}
}

// postersCommand handles poster downloads.
func postersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "posters",
		Usage: "Poster operations",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Download posters for stored movies that have none",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent downloads",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Download posters that are already stored",
					},
				},
				Action: r.PostersSync,
			},
		},
	}
}

// importsCommand shows import history.
func importsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "imports",
		Usage: "Import history",
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "List recent imports",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of imports to list",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only list imports with this status (running, completed, failed)",
					},
				}, jsonFlags()...),
				Action: r.ImportsHistory,
			},
		},
	}
}

// serveCommand starts the JSON API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the watchlist JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to [server] host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (defaults to [server] port)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct catalog API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct catalog API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authenticated GET against the catalog API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  jsonFlags(),
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive watchlist management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for your watchlist",
		Flags:   []cli.Flag{categoryFlag()},
		Action:  r.TUI,
	}
}
