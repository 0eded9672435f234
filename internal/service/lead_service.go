package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/lead-import-api/internal/repository"
	"github.com/lead-import-api/internal/validation"
	"github.com/rs/zerolog"
)

// leadService is the concrete implementation of LeadService. It is also the
// in-process contacts store used by the pipeline.
type leadService struct {
	leads repository.LeadRepository
	jobs  repository.JobRepository
	log   zerolog.Logger
}

var _ pipeline.ContactsStore = (*leadService)(nil)

// newLeadService creates a new LeadService
func newLeadService(leads repository.LeadRepository, jobs repository.JobRepository, log zerolog.Logger) *leadService {
	return &leadService{
		leads: leads,
		jobs:  jobs,
		log:   log.With().Str("service", "lead").Logger(),
	}
}

// BulkImport stores a batch of leads. Rows are re-validated; rows whose email
// is already stored are left out of the write when duplicateChecks.workspace
// is set and updated otherwise. A repeated Idempotency-Key replays the first call's counts.
func (s *leadService) BulkImport(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
	if req.IdempotencyKey != "" {
		prior, err := s.jobs.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if prior != nil {
			s.log.Info().
				Str("idempotency_key", req.IdempotencyKey).
				Str("job_id", prior.ID).
				Msg("Replaying bulk import")
			return bulkImportResponse(prior.ImportedCount, prior.SkippedCount), nil
		}
	}

	started := time.Now()
	contacts := make([]models.Contact, len(req.Leads))
	for i, p := range req.Leads {
		contacts[i] = p.Contact()
	}
	checked := validation.NewValidator().ValidateBatch(contacts)

	emails := make([]string, len(checked.Accepted))
	for i, c := range checked.Accepted {
		emails[i] = c.Email
	}
	stored, err := s.leads.ExistingEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to check stored leads: %w", err)
	}
	existing := make(map[string]bool, len(stored))
	for _, e := range stored {
		existing[models.NormalizeEmail(e)] = true
	}

	leads := make([]*models.Lead, 0, len(checked.Accepted))
	for _, c := range checked.Accepted {
		if req.DuplicateChecks.Workspace && existing[c.Key()] {
			continue
		}
		leads = append(leads, &models.Lead{
			Email:        c.Email,
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			CompanyName:  c.CompanyName,
			JobTitle:     c.JobTitle,
			Phone:        c.Phone,
			Website:      c.Website,
			CustomFields: c.CustomFields,
			Source:       req.Source,
			FileName:     req.FileName,
		})
	}

	// ON CONFLICT still guards rows stored concurrently since the lookup
	imported := 0
	if len(leads) > 0 {
		imported, err = s.leads.BulkUpsert(ctx, leads, req.DuplicateChecks.Workspace)
		if err != nil {
			s.log.Error().Err(err).Int("leads", len(leads)).Msg("Bulk upsert failed")
			return nil, fmt.Errorf("failed to store leads: %w", err)
		}
	}
	skipped := len(req.Leads) - imported

	s.log.Info().
		Str("file", req.FileName).
		Str("source", req.Source).
		Int("received", len(req.Leads)).
		Int("imported", imported).
		Int("skipped", skipped).
		Int("invalid", len(checked.Rejected)).
		Int("already_stored", len(existing)).
		Bool("workspace_check", req.DuplicateChecks.Workspace).
		Msg("Bulk import stored")

	if req.IdempotencyKey != "" {
		s.recordBulkImport(ctx, req, imported, skipped, len(checked.Rejected), started)
	}

	return bulkImportResponse(imported, skipped), nil
}

// recordBulkImport keeps the counts of a keyed call for later replays. A
// failure here does not undo the import.
func (s *leadService) recordBulkImport(ctx context.Context, req *models.BulkImportRequest, imported, skipped, rejected int, started time.Time) {
	completed := time.Now()
	job := &models.Job{
		ID:             uuid.New().String(),
		Type:           models.JobTypeBulkImport,
		Status:         models.JobStatusCompleted,
		Stage:          string(pipeline.StateDone),
		IdempotencyKey: req.IdempotencyKey,
		FileName:       req.FileName,
		TotalRecords:   len(req.Leads),
		AcceptedCount:  len(req.Leads) - rejected,
		RejectedCount:  rejected,
		ImportedCount:  imported,
		SkippedCount:   skipped,
		DurationMs:     completed.Sub(started).Milliseconds(),
		CreatedAt:      started,
		StartedAt:      &started,
		CompletedAt:    &completed,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", req.IdempotencyKey).Msg("Failed to record bulk import")
	}
}

func bulkImportResponse(imported, skipped int) *models.BulkImportResponse {
	return &models.BulkImportResponse{
		Success: true,
		Data:    &models.BulkImportData{Imported: imported, Skipped: skipped},
		Message: fmt.Sprintf("%d leads imported, %d skipped", imported, skipped),
	}
}

// ListLeads returns every stored lead
func (s *leadService) ListLeads(ctx context.Context) ([]*models.Lead, error) {
	return s.leads.ListAll(ctx)
}

// Count returns the number of stored leads
func (s *leadService) Count(ctx context.Context) (int, error) {
	return s.leads.Count(ctx)
}
