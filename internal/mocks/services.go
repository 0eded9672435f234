package mocks

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/service"
)

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	CreateJobFunc func(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessFunc   func(ctx context.Context, job *models.Job) error
	ProcessedJobs []*models.Job
	CreatedJobs   []*models.Job
	Requests      []*models.ImportRequest
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{}
}

func (m *MockImportService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	m.Requests = append(m.Requests, req)
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req, filePath)
	}
	job := &models.Job{
		ID:             "test-job-id",
		Type:           models.JobTypeImport,
		Status:         models.JobStatusPending,
		CampaignID:     req.CampaignID,
		FileName:       req.FileName,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
	}
	m.CreatedJobs = append(m.CreatedJobs, job)
	return job, nil
}

func (m *MockImportService) ProcessImport(ctx context.Context, job *models.Job) error {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, job)
	}
	m.ProcessedJobs = append(m.ProcessedJobs, job)
	job.Status = models.JobStatusCompleted
	return nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamLeadsFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	Counts          map[string]int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{
		Counts: map[string]int{
			"leads":     0,
			"campaigns": 0,
		},
	}
}

func (m *MockExportService) StreamLeads(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamLeadsFunc != nil {
		return m.StreamLeadsFunc(ctx, w, format)
	}
	return nil
}

func (m *MockExportService) GetCount(ctx context.Context, resource string) (int, error) {
	return m.Counts[resource], nil
}

// MockJobService is a mock implementation of JobService
type MockJobService struct {
	Jobs          map[string]*models.JobResponse
	Errors        map[string][]models.ValidationError
	ImportService service.ImportService
}

// Verify interface compliance
var _ service.JobService = (*MockJobService)(nil)

func NewMockJobService() *MockJobService {
	return &MockJobService{
		Jobs:   make(map[string]*models.JobResponse),
		Errors: make(map[string][]models.ValidationError),
	}
}

func (m *MockJobService) StartProcessor(ctx context.Context) {}

func (m *MockJobService) StopProcessor() {}

func (m *MockJobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	return m.Jobs[id], nil
}

func (m *MockJobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	for _, job := range m.Jobs {
		if job.IdempotencyKey == key {
			return &job.Job, nil
		}
	}
	return nil, nil
}

func (m *MockJobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	return m.Errors[id], nil
}

func (m *MockJobService) SetImportService(importService service.ImportService) {
	m.ImportService = importService
}

// MockDatabase answers health checks without a connection
type MockDatabase struct {
	PingError error
	PoolStats sql.DBStats
}

func (m *MockDatabase) HealthCheck(ctx context.Context) error {
	return m.PingError
}

func (m *MockDatabase) Stats() sql.DBStats {
	return m.PoolStats
}
