package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/lead-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// campaignService is the concrete implementation of CampaignService. It is
// also the in-process campaign store used by the pipeline.
type campaignService struct {
	campaigns repository.CampaignRepository
	log       zerolog.Logger
}

var _ pipeline.CampaignStore = (*campaignService)(nil)

// newCampaignService creates a new CampaignService
func newCampaignService(campaigns repository.CampaignRepository, log zerolog.Logger) *campaignService {
	return &campaignService{
		campaigns: campaigns,
		log:       log.With().Str("service", "campaign").Logger(),
	}
}

// CreateCampaign creates a campaign in draft status
func (s *campaignService) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: campaign name is required", models.ErrInvalidInput)
	}

	now := time.Now()
	campaign := &models.Campaign{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    models.CampaignStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.log.Info().Str("campaign_id", campaign.ID).Str("name", name).Msg("Campaign created")
	return campaign, nil
}

// GetCampaign returns a campaign or models.ErrNotFound
func (s *campaignService) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, models.ErrNotFound
	}
	return campaign, nil
}

// CampaignLeads returns the leads linked to a campaign
func (s *campaignService) CampaignLeads(ctx context.Context, campaignID string) ([]*models.Lead, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.campaigns.Leads(ctx, campaignID)
}

// AddLeads links leads to a campaign. Ids that are not uuids or do not name a
// stored lead are ignored, as are pairs that are already linked.
func (s *campaignService) AddLeads(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error) {
	if _, err := s.GetCampaign(ctx, req.CampaignID); err != nil {
		return nil, err
	}

	ids := validLeadIDs(req.LeadIDs)
	added, err := s.campaigns.LinkLeads(ctx, req.CampaignID, ids)
	if err != nil {
		s.log.Error().Err(err).Str("campaign_id", req.CampaignID).Int("lead_ids", len(ids)).Msg("Failed to link leads")
		return nil, fmt.Errorf("failed to link leads: %w", err)
	}

	s.log.Info().
		Str("campaign_id", req.CampaignID).
		Int("requested", len(req.LeadIDs)).
		Int("added", added).
		Msg("Leads linked to campaign")

	return &models.AddLeadsResponse{
		Success: true,
		Data:    &models.AddLeadsData{Added: added},
		Message: fmt.Sprintf("%d leads added to campaign", added),
	}, nil
}

// MarkCreated moves a campaign out of draft once its wizard finished
func (s *campaignService) MarkCreated(ctx context.Context, id string) error {
	return s.campaigns.UpdateStatus(ctx, id, models.CampaignStatusCreated)
}

// Count returns the number of campaigns
func (s *campaignService) Count(ctx context.Context) (int, error) {
	return s.campaigns.Count(ctx)
}

// validLeadIDs keeps well-formed uuids once each, in request order
func validLeadIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		key := parsed.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
