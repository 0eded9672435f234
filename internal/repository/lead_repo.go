package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lead-import-api/internal/database"
	"github.com/lead-import-api/internal/models"
	"github.com/lib/pq"
)

// leadRepo is the concrete implementation of LeadRepository
type leadRepo struct {
	db *database.DB
}

// NewLeadRepo creates a new lead repository
func NewLeadRepo(db *database.DB) LeadRepository {
	return &leadRepo{db: db}
}

const leadColumns = `id, email, first_name, last_name, company_name, job_title, phone, website,
	custom_fields, source, file_name, created_at, updated_at`

const upsertLeadsQuery = `
	INSERT INTO leads (email, first_name, last_name, company_name, job_title, phone, website,
		custom_fields, source, file_name)
	SELECT u.email, u.first_name, u.last_name, u.company_name, u.job_title, u.phone, u.website,
		u.custom_fields::jsonb, $9, $10
	FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[], $8::text[])
		AS u(email, first_name, last_name, company_name, job_title, phone, website, custom_fields)
	ON CONFLICT (email) DO %s
`

const updateOnConflict = `UPDATE SET
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		company_name = EXCLUDED.company_name,
		job_title = EXCLUDED.job_title,
		phone = EXCLUDED.phone,
		website = EXCLUDED.website,
		custom_fields = leads.custom_fields || EXCLUDED.custom_fields,
		updated_at = NOW()`

// leadArrays holds the parallel column arrays consumed by unnest
type leadArrays struct {
	email, firstName, lastName, company, jobTitle, phone, website, custom []string
}

func toLeadArrays(leads []*models.Lead) (*leadArrays, error) {
	a := &leadArrays{}
	for _, l := range leads {
		custom, err := encodeCustomFields(l.CustomFields)
		if err != nil {
			return nil, fmt.Errorf("encode custom fields for %s: %w", l.Email, err)
		}
		a.email = append(a.email, models.NormalizeEmail(l.Email))
		a.firstName = append(a.firstName, l.FirstName)
		a.lastName = append(a.lastName, l.LastName)
		a.company = append(a.company, l.CompanyName)
		a.jobTitle = append(a.jobTitle, l.JobTitle)
		a.phone = append(a.phone, l.Phone)
		a.website = append(a.website, l.Website)
		a.custom = append(a.custom, custom)
	}
	return a, nil
}

// BulkUpsert writes all leads in a single statement inside one transaction
func (r *leadRepo) BulkUpsert(ctx context.Context, leads []*models.Lead, skipExisting bool) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	a, err := toLeadArrays(leads)
	if err != nil {
		return 0, err
	}

	conflict := "NOTHING"
	if !skipExisting {
		conflict = updateOnConflict
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, fmt.Sprintf(upsertLeadsQuery, conflict),
		pq.Array(a.email), pq.Array(a.firstName), pq.Array(a.lastName), pq.Array(a.company),
		pq.Array(a.jobTitle), pq.Array(a.phone), pq.Array(a.website), pq.Array(a.custom),
		leads[0].Source, leads[0].FileName,
	)
	if err != nil {
		return 0, err
	}
	written, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(written), nil
}

// ListAll returns every lead ordered by creation time
func (r *leadRepo) ListAll(ctx context.Context) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.StreamAll(ctx, func(l *models.Lead) error {
		leads = append(leads, l)
		return nil
	})
	return leads, err
}

// StreamAll streams all leads for export (memory efficient)
func (r *leadRepo) StreamAll(ctx context.Context, callback func(*models.Lead) error) error {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at, email`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return err
		}
		if err := callback(lead); err != nil {
			return err
		}
	}

	return rows.Err()
}

// ExistingEmails returns the subset of emails already stored
func (r *leadRepo) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	keys := make([]string, len(emails))
	for i, e := range emails {
		keys[i] = models.NormalizeEmail(e)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT email FROM leads WHERE email = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		existing = append(existing, email)
	}
	return existing, rows.Err()
}

// Count returns total number of leads
func (r *leadRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var lead models.Lead
	var custom []byte
	err := row.Scan(
		&lead.ID, &lead.Email, &lead.FirstName, &lead.LastName, &lead.CompanyName,
		&lead.JobTitle, &lead.Phone, &lead.Website, &custom, &lead.Source,
		&lead.FileName, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lead.CustomFields, err = decodeCustomFields(custom); err != nil {
		return nil, fmt.Errorf("decode custom fields for %s: %w", lead.Email, err)
	}
	return &lead, nil
}

func encodeCustomFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCustomFields(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
