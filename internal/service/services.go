package service

import (
	"context"
	"net/http"

	"github.com/lead-import-api/internal/client"
	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/draft"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/lead-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// LeadService is the contacts store
type LeadService interface {
	pipeline.ContactsStore
	Count(ctx context.Context) (int, error)
}

// CampaignService is the campaign store
type CampaignService interface {
	pipeline.CampaignStore
	MarkCreated(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// DraftService manages campaign wizard sessions
type DraftService interface {
	Create() *draft.Snapshot
	Get(id string) (*draft.Snapshot, error)
	UploadFile(id, fileName string, data []byte) (*draft.Snapshot, error)
	DeclareCustomField(id, name string) (*draft.Snapshot, error)
	OverrideMapping(id, column, target string) (*draft.Snapshot, error)
	ProcessFile(id string) (*draft.ProcessResult, error)
	AddLead(id string, contact models.Contact) (*draft.Snapshot, *models.ValidationError, error)
	RemoveLead(id, email string) (int, error)
	ClearLeads(id string) error
	ReplaceLeads(id string, contacts []models.Contact) (*draft.Snapshot, []models.ValidationError, error)
	Submit(ctx context.Context, id, name string) (*SubmitResult, error)
	Sweep() int
}

// ImportService defines the interface for queued lead file imports
type ImportService interface {
	CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessImport(ctx context.Context, job *models.Job) error
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamLeads(ctx context.Context, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// JobService defines the interface for job management
type JobService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	GetJob(ctx context.Context, id string) (*models.JobResponse, error)
	GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error)
	SetImportService(importService ImportService)
}

// Services holds all service interfaces
type Services struct {
	Lead     LeadService
	Campaign CampaignService
	Draft    DraftService
	Import   ImportService
	Export   ExportService
	Job      JobService
}

// NewServices creates all services. The pipeline runs against the local
// lead and campaign services unless remote stores are configured.
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	leadSvc := newLeadService(repos.Lead, repos.Job, log)
	campaignSvc := newCampaignService(repos.Campaign, log)

	var contacts pipeline.ContactsStore = leadSvc
	var campaigns pipeline.CampaignStore = campaignSvc
	if cfg.UseRemoteStores() {
		remote := client.New(cfg.Stores, log)
		contacts, campaigns = remote, remote
		log.Info().Str("url", cfg.Stores.RemoteURL).Msg("Using remote contacts and campaign stores")
	}
	runner := pipeline.NewRunner(contacts, campaigns, log)

	jobSvc := newJobService(repos.Job, cfg, log)
	importSvc := newImportService(repos.Job, runner, campaigns, cfg, log)
	draftSvc := newDraftService(draft.NewStore(cfg.Import.DraftTTL), runner, campaigns, cfg, log)
	exportSvc := newExportService(repos, log)

	// Wire up job processor to import service
	jobSvc.SetImportService(importSvc)

	return &Services{
		Lead:     leadSvc,
		Campaign: campaignSvc,
		Draft:    draftSvc,
		Import:   importSvc,
		Export:   exportSvc,
		Job:      jobSvc,
	}
}
