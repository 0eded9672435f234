// Package pipeline runs parsed lead files through normalization, validation,
// bulk import, identifier reconciliation and campaign association.
package pipeline

import (
	"context"

	"github.com/lead-import-api/internal/models"
)

// ContactsStore is the remote contacts store consumed by the import stages
type ContactsStore interface {
	BulkImport(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error)
	ListLeads(ctx context.Context) ([]*models.Lead, error)
}

// CampaignStore is the remote campaign store consumed by the association stage
type CampaignStore interface {
	CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	CampaignLeads(ctx context.Context, campaignID string) ([]*models.Lead, error)
	AddLeads(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error)
}
