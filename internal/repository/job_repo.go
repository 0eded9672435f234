package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lead-import-api/internal/database"
	"github.com/lead-import-api/internal/models"
	"github.com/lib/pq"
)

// jobRepo is the concrete implementation of JobRepository
type jobRepo struct {
	db *database.DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *database.DB) JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, type, status, stage, idempotency_key, campaign_id, file_name, mapping,
	total_records, accepted_count, rejected_count, imported_count, skipped_count, linked_count,
	warning, error_message, duration_ms, file_path, created_at, started_at, completed_at`

// Create inserts a new job
func (r *jobRepo) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (id, type, status, stage, idempotency_key, campaign_id, file_name, mapping,
			total_records, accepted_count, rejected_count, imported_count, skipped_count, linked_count,
			file_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Type, job.Status, job.Stage, nullString(job.IdempotencyKey),
		nullString(job.CampaignID), nullString(job.FileName), nullString(job.MappingJSON),
		job.TotalRecords, job.AcceptedCount, job.RejectedCount, job.ImportedCount,
		job.SkippedCount, job.LinkedCount, nullString(job.FilePath), job.CreatedAt,
	)
	return err
}

// Update updates job status, stage and counters
func (r *jobRepo) Update(ctx context.Context, job *models.Job) error {
	query := `
		UPDATE jobs SET
			status = $1, stage = $2, total_records = $3, accepted_count = $4, rejected_count = $5,
			imported_count = $6, skipped_count = $7, linked_count = $8, warning = $9,
			error_message = $10, duration_ms = $11, started_at = $12, completed_at = $13
		WHERE id = $14
	`
	_, err := r.db.ExecContext(ctx, query,
		job.Status, job.Stage, job.TotalRecords, job.AcceptedCount, job.RejectedCount,
		job.ImportedCount, job.SkippedCount, job.LinkedCount, nullString(job.Warning),
		nullString(job.ErrorMessage), job.DurationMs, job.StartedAt, job.CompletedAt, job.ID,
	)
	return err
}

// GetByID retrieves a job by ID. Returns nil when absent.
func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	return r.getOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
}

// GetByIdempotencyKey retrieves a job by idempotency key. Returns nil when absent.
func (r *jobRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	return r.getOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE idempotency_key = $1`, key)
}

func (r *jobRepo) getOne(ctx context.Context, query string, arg string) (*models.Job, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var idempotencyKey, campaignID, fileName, mapping, warning, errorMessage, filePath sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.Type, &job.Status, &job.Stage, &idempotencyKey, &campaignID, &fileName,
		&mapping, &job.TotalRecords, &job.AcceptedCount, &job.RejectedCount, &job.ImportedCount,
		&job.SkippedCount, &job.LinkedCount, &warning, &errorMessage, &job.DurationMs, &filePath,
		&job.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.IdempotencyKey = idempotencyKey.String
	job.CampaignID = campaignID.String
	job.FileName = fileName.String
	job.MappingJSON = mapping.String
	job.Warning = warning.String
	job.ErrorMessage = errorMessage.String
	job.FilePath = filePath.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

// GetPendingJobs retrieves queued import jobs oldest first
func (r *jobRepo) GetPendingJobs(ctx context.Context) ([]*models.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs WHERE status = 'pending' AND type = 'import'
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// MarkJobAsProcessing atomically marks a pending job as processing
func (r *jobRepo) MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error) {
	query := `
		UPDATE jobs SET status = 'processing', started_at = $1
		WHERE id = $2 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), jobID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// AddErrors stores rejected rows using the COPY protocol. A large file with a
// high rejection rate produces one row per rejection.
func (r *jobRepo) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	if len(errors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("job_errors",
		"job_id", "line_number", "field", "message", "value",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range errors {
		if _, err := stmt.ExecContext(ctx, jobID, e.Line, e.Field, e.Message, valueString(e.Value)); err != nil {
			return err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetErrors retrieves rejected rows for a job in line order
func (r *jobRepo) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	query := `SELECT line_number, field, message, value FROM job_errors WHERE job_id = $1 ORDER BY line_number, id`
	args := []interface{}{jobID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errors []models.ValidationError
	for rows.Next() {
		var e models.ValidationError
		var value sql.NullString
		if err := rows.Scan(&e.Line, &e.Field, &e.Message, &value); err != nil {
			return nil, err
		}
		if value.Valid && value.String != "" {
			e.Value = value.String
		}
		errors = append(errors, e)
	}

	return errors, rows.Err()
}

func valueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
