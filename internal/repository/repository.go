package repository

import (
	"context"

	"github.com/lead-import-api/internal/database"
	"github.com/lead-import-api/internal/models"
)

// LeadRepository defines the interface for lead data operations
type LeadRepository interface {
	// BulkUpsert writes leads keyed by lower-cased email. With skipExisting
	// rows whose email is already stored are left untouched; otherwise they
	// are updated. Returns the number of rows written.
	BulkUpsert(ctx context.Context, leads []*models.Lead, skipExisting bool) (int, error)
	ListAll(ctx context.Context) ([]*models.Lead, error)
	StreamAll(ctx context.Context, callback func(*models.Lead) error) error
	ExistingEmails(ctx context.Context, emails []string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// CampaignRepository defines the interface for campaign data operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error
	// LinkLeads associates existing leads with a campaign and returns how many
	// new links were made. Unknown lead ids and existing links are ignored.
	LinkLeads(ctx context.Context, campaignID string, leadIDs []string) (int, error)
	Leads(ctx context.Context, campaignID string) ([]*models.Lead, error)
	Count(ctx context.Context) (int, error)
}

// JobRepository defines the interface for job data operations
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetPendingJobs(ctx context.Context) ([]*models.Job, error)
	MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error)
	AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error
	GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Lead     LeadRepository
	Campaign CampaignRepository
	Job      JobRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Lead:     NewLeadRepo(db),
		Campaign: NewCampaignRepo(db),
		Job:      NewJobRepo(db),
	}
}
