package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/lead-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// importService is the concrete implementation of ImportService
type importService struct {
	jobs      repository.JobRepository
	runner    *pipeline.Runner
	campaigns pipeline.CampaignStore
	cfg       *config.Config
	log       zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(jobs repository.JobRepository, runner *pipeline.Runner, campaigns pipeline.CampaignStore, cfg *config.Config, log zerolog.Logger) *importService {
	return &importService{
		jobs:      jobs,
		runner:    runner,
		campaigns: campaigns,
		cfg:       cfg,
		log:       log.With().Str("service", "import").Logger(),
	}
}

// CreateImportJob queues a lead file for background processing. The target
// campaign, when given, must exist.
func (s *importService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	if req.CampaignID != "" {
		if _, err := s.campaigns.GetCampaign(ctx, req.CampaignID); err != nil {
			return nil, err
		}
	}

	var mappingJSON string
	if req.Mapping != nil {
		raw, err := json.Marshal(req.Mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to encode mapping: %w", err)
		}
		mappingJSON = string(raw)
	}

	job := &models.Job{
		ID:             uuid.New().String(),
		Type:           models.JobTypeImport,
		Status:         models.JobStatusPending,
		Stage:          string(pipeline.StateIdle),
		IdempotencyKey: req.IdempotencyKey,
		CampaignID:     req.CampaignID,
		FileName:       req.FileName,
		MappingJSON:    mappingJSON,
		FilePath:       filePath,
		CreatedAt:      time.Now(),
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("campaign_id", job.CampaignID).
		Str("file", filePath).
		Msg("Import job created")

	return job, nil
}

// ProcessImport runs a queued job through the whole pipeline and records the
// outcome on the job row
func (s *importService) ProcessImport(ctx context.Context, job *models.Job) error {
	startTime := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &startTime
	s.jobs.Update(ctx, job)

	s.log.Info().
		Str("job_id", job.ID).
		Str("campaign_id", job.CampaignID).
		Msg("Starting import processing")

	result, err := s.runJob(ctx, job)
	if result != nil {
		job.TotalRecords = result.Total
		job.AcceptedCount = result.AcceptedCount()
		job.RejectedCount = len(result.Rejected)
		job.ImportedCount = result.Imported
		job.SkippedCount = result.Skipped
		job.LinkedCount = result.Added
		job.Stage = string(result.State)
		if len(result.Warnings) > 0 {
			job.Warning = result.Warnings[0]
		}
		s.flushValidationErrors(ctx, job.ID, result.Rejected)
	}

	job.DurationMs = time.Since(startTime).Milliseconds()
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = models.JobStatusFailed
		job.ErrorMessage = err.Error()
		s.log.Error().Err(err).Str("job_id", job.ID).Str("stage", job.Stage).Msg("Import failed")
	} else {
		// Reconcile or association failures leave the leads imported
		job.Status = models.JobStatusCompleted
		s.log.Info().
			Str("job_id", job.ID).
			Str("stage", job.Stage).
			Int("total", job.TotalRecords).
			Int("accepted", job.AcceptedCount).
			Int("rejected", job.RejectedCount).
			Int("imported", job.ImportedCount).
			Int("skipped", job.SkippedCount).
			Int("linked", job.LinkedCount).
			Int64("duration_ms", job.DurationMs).
			Msg("Import completed")
	}

	if updateErr := s.jobs.Update(ctx, job); updateErr != nil {
		s.log.Error().Err(updateErr).Str("job_id", job.ID).Msg("Failed to update job")
	}
	if job.FilePath != "" {
		if rmErr := os.Remove(job.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn().Err(rmErr).Str("file", job.FilePath).Msg("Failed to remove uploaded file")
		}
	}

	return err
}

func (s *importService) runJob(ctx context.Context, job *models.Job) (*pipeline.Result, error) {
	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	var instructions *models.MappingInstructions
	if job.MappingJSON != "" {
		instructions = &models.MappingInstructions{}
		if err := json.Unmarshal([]byte(job.MappingJSON), instructions); err != nil {
			return nil, fmt.Errorf("failed to decode mapping: %w", err)
		}
	}

	return s.runner.Run(ctx, &pipeline.Request{
		Data:           data,
		FileName:       job.FileName,
		CampaignID:     job.CampaignID,
		Mapping:        instructions,
		Source:         s.cfg.Import.SourceTag,
		IdempotencyKey: bulkImportKey(job.ID),
		OnTransition: func(from, to pipeline.State) {
			job.Stage = string(to)
			if err := s.jobs.Update(ctx, job); err != nil {
				s.log.Warn().Err(err).Str("job_id", job.ID).Str("stage", job.Stage).Msg("Failed to record stage")
			}
		},
	})
}

// bulkImportKey derives the contacts-store idempotency key of a job so that a
// re-run job does not import its leads twice
func bulkImportKey(jobID string) string {
	return "import-job:" + jobID
}

// errorFlushThreshold bounds the size of one COPY into job_errors
const errorFlushThreshold = 1000

func (s *importService) flushValidationErrors(ctx context.Context, jobID string, errors []models.ValidationError) {
	for start := 0; start < len(errors); start += errorFlushThreshold {
		end := start + errorFlushThreshold
		if end > len(errors) {
			end = len(errors)
		}
		if err := s.jobs.AddErrors(ctx, jobID, errors[start:end]); err != nil {
			s.log.Error().Err(err).Int("count", end-start).Msg("Failed to store validation errors")
			return
		}
	}
}
