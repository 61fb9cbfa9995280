package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinx/internal/repositories"
	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
	"github.com/desertthunder/cinx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and store are opened on first use so commands that do not need them stay cheap.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	catalog    services.Catalog
	tmdb       *services.TMDBService

	db          *sql.DB
	ownsDB      bool
	movies      *repositories.MovieRepository
	imports     *repositories.ImportRepository
	store       *store.Store
	persister   *repositories.Persister
	engine      *tasks.Engine

	errMu       sync.Mutex
	persistErrs []error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// TMDB doubles as the Catalog when Catalog is unset. DB, when set, must already be migrated.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Catalog    services.Catalog
	TMDB       *services.TMDBService
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Catalog == nil && opts.TMDB != nil {
		opts.Catalog = opts.TMDB
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		catalog:    opts.Catalog,
		tmdb:       opts.TMDB,
		db:         opts.DB,
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, exportCommand, moviesCommand, searchCommand, upcomingCommand,
		postersCommand, importsCommand, serveCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// open connects the database, loads the stored movies into a new store and
// installs the persister as its committer. Subsequent calls are no-ops.
func (r *Runner) open() error {
	if r.store != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
		}
		r.db = db
		r.ownsDB = true
	}

	r.movies = repositories.NewMovieRepository(r.db)
	r.imports = repositories.NewImportRepository(r.db)

	initial, err := r.movies.All()
	if err != nil {
		return err
	}

	r.persister = repositories.NewPersister(r.movies, r.logger)
	r.persister.OnError = func(action store.Action, err error) {
		r.errMu.Lock()
		defer r.errMu.Unlock()
		r.persistErrs = append(r.persistErrs, err)
	}

	r.store = store.New(store.State{Movies: initial}, r.logger)
	r.store.SetCommitter(r.persister)
	r.engine = tasks.NewEngine(r.catalog, r.store, r.imports, r.logger)

	r.logger.Debug("opened store", "path", r.config.Database.Path, "movies", len(initial))
	return nil
}

// dispatch applies action and returns the error that abandoned it, if any.
func (r *Runner) dispatch(action store.Action) error {
	err := r.store.Apply(action)
	r.takePersistErrors()
	return err
}

func (r *Runner) takePersistErrors() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	err := errors.Join(r.persistErrs...)
	r.persistErrs = nil
	return err
}

// Close releases the database when the runner opened it.
func (r *Runner) Close() {
	if r.store != nil {
		r.store.SetCommitter(nil)
	}
	if r.ownsDB && r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: set [catalog] access_token or %s", shared.ErrMissingCredentials, shared.EnvCatalogToken)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
