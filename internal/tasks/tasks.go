package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinx/internal/importer"
	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
)

// ImportHistory records import runs.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type ImportHistory interface {
	Create(job *models.ImportJob) error
	Update(job *models.ImportJob) error
}

// Engine runs watchlist operations against a catalog and a store.
type Engine struct {
	catalog    services.Catalog
	dispatcher store.Dispatcher
	history    ImportHistory
	logger     *log.Logger
}

// NewEngine creates a new Engine. catalog and history may be nil for operations that do not need them.
func NewEngine(catalog services.Catalog, dispatcher store.Dispatcher, history ImportHistory, logger *log.Logger) *Engine {
	return &Engine{catalog: catalog, dispatcher: dispatcher, history: history, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// apply dispatches action and returns the reason it was abandoned, when the dispatcher reports one.
func (e *Engine) apply(action store.Action) error {
	if applier, ok := e.dispatcher.(store.Applier); ok {
		return applier.Apply(action)
	}
	e.dispatcher.Dispatch(action)
	return nil
}

// ImportFile imports the document at path and records the run in the import history.
//
// The returned job carries the outcome whether or not the import succeeded.
func (e *Engine) ImportFile(ctx context.Context, path string, progress chan<- ProgressUpdate) (*models.ImportJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job := models.NewImportJob(path)
	if e.history != nil {
		if err := e.history.Create(job); err != nil {
			return nil, fmt.Errorf("failed to record import: %w", err)
		}
	}

	e.sendProgress(progress, importStartedUpdate(path))

	var unsaved []error
	n, importErr := importer.ImportFile(path, store.DispatchFunc(func(action store.Action) {
		if err := e.apply(action); err != nil {
			unsaved = append(unsaved, err)
		}
	}))
	if importErr == nil && len(unsaved) > 0 {
		importErr = fmt.Errorf("%d of %d movies were not saved: %w", len(unsaved), n, errors.Join(unsaved...))
	}

	if importErr != nil {
		job.Fail(importErr)
		job.MoviesTotal = n - len(unsaved)
	} else {
		job.Complete(n)
	}

	if e.history != nil {
		if err := e.history.Update(job); err != nil && e.logger != nil {
			e.logger.Error("failed to record import outcome", "id", job.ID, "error", err)
		}
	}

	if importErr != nil {
		return job, importErr
	}

	if e.logger != nil {
		e.logger.Info("imported movies", "source", path, "count", n)
	}
	e.sendProgress(progress, importFinishedUpdate(job))
	return job, nil
}

// Search returns a page of catalog results for query, or upcoming releases when query is empty.
func (e *Engine) Search(ctx context.Context, query string, page int, progress chan<- ProgressUpdate) (*models.Page, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, searchUpdate(query, page))

	if query == "" {
		return e.catalog.Upcoming(ctx, page)
	}
	return e.catalog.Search(ctx, query, page)
}
