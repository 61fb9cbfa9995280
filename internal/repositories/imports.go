package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
)

const importColumns = `
	id, sequence, source, status, movies_total, error_message,
	started_at, completed_at, created_at, updated_at
`

// ImportRepository implements models.Repository[*models.ImportJob, string] for import run history.
type ImportRepository struct {
	db *sql.DB
}

// NewImportRepository creates a new ImportRepository with the given database connection
func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a new import job into the database with generated ID and sequence
func (r *ImportRepository) Create(job *models.ImportJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "imports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	job.ID = shared.GenerateID()
	job.Sequence = sequence

	query := `INSERT INTO imports (` + importColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		job.ID,
		job.Sequence,
		job.Source,
		string(job.Status),
		job.MoviesTotal,
		nullString(job.ErrorMessage),
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert import: %v", shared.ErrPersistence, err)
	}

	return nil
}

// Get retrieves an import job by ID
func (r *ImportRepository) Get(id string) (*models.ImportJob, error) {
	query := `SELECT ` + importColumns + ` FROM imports WHERE id = ?`

	job, err := scanImport(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import: %w", err)
	}
	return job, nil
}

// Update records the outcome of an import job
func (r *ImportRepository) Update(job *models.ImportJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.UpdatedAt = now

	query := `
		UPDATE imports
		SET status = ?, movies_total = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		string(job.Status),
		job.MoviesTotal,
		nullString(job.ErrorMessage),
		job.CompletedAt,
		now,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update import: %v", shared.ErrPersistence, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import not found: %s", job.ID)
	}

	return nil
}

// Delete removes an import job by ID
func (r *ImportRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM imports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete import: %v", shared.ErrPersistence, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import not found: %s", id)
	}

	return nil
}

// List retrieves import jobs matching the given criteria, most recent first.
//
// Supported criteria: "status" (string), "source" (string) and "limit" (int).
func (r *ImportRepository) List(criteria map[string]any) ([]*models.ImportJob, error) {
	query := `SELECT ` + importColumns + ` FROM imports WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		job, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}

	return jobs, nil
}

func scanImport(row scanner) (*models.ImportJob, error) {
	var (
		job          models.ImportJob
		status       string
		errorMessage sql.NullString
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID, &job.Sequence, &job.Source, &status, &job.MoviesTotal, &errorMessage,
		&job.StartedAt, &completedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = models.ImportStatus(status)
	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.String
	}
	if completedAt.Valid {
		at := completedAt.Time
		job.CompletedAt = &at
	}

	return &job, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
