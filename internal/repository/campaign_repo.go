package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lead-import-api/internal/database"
	"github.com/lead-import-api/internal/models"
	"github.com/lib/pq"
)

// campaignRepo is the concrete implementation of CampaignRepository
type campaignRepo struct {
	db *database.DB
}

// NewCampaignRepo creates a new campaign repository
func NewCampaignRepo(db *database.DB) CampaignRepository {
	return &campaignRepo{db: db}
}

// Create inserts a new campaign
func (r *campaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Status, campaign.CreatedAt, campaign.UpdatedAt,
	)
	return err
}

// GetByID retrieves a campaign with its lead count. Returns nil when absent.
func (r *campaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `
		SELECT c.id, c.name, c.status, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM campaign_leads cl WHERE cl.campaign_id = c.id)
		FROM campaigns c WHERE c.id = $1
	`

	var campaign models.Campaign
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&campaign.ID, &campaign.Name, &campaign.Status,
		&campaign.CreatedAt, &campaign.UpdatedAt, &campaign.LeadCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &campaign, nil
}

// UpdateStatus moves a campaign to a new lifecycle status
func (r *campaignRepo) UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	return err
}

// LinkLeads inserts campaign_leads rows for the ids that name stored leads
func (r *campaignRepo) LinkLeads(ctx context.Context, campaignID string, leadIDs []string) (int, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO campaign_leads (campaign_id, lead_id, created_at)
		SELECT $1, l.id, $3 FROM leads l WHERE l.id = ANY($2::uuid[])
		ON CONFLICT (campaign_id, lead_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, campaignID, pq.Array(leadIDs), time.Now())
	if err != nil {
		return 0, err
	}
	added, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(added), nil
}

// Leads returns the leads linked to a campaign in link order
func (r *campaignRepo) Leads(ctx context.Context, campaignID string) ([]*models.Lead, error) {
	query := `
		SELECT l.id, l.email, l.first_name, l.last_name, l.company_name, l.job_title, l.phone,
			l.website, l.custom_fields, l.source, l.file_name, l.created_at, l.updated_at
		FROM campaign_leads cl JOIN leads l ON l.id = cl.lead_id
		WHERE cl.campaign_id = $1
		ORDER BY cl.created_at, l.email
	`
	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Count returns total number of campaigns
func (r *campaignRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns").Scan(&count)
	return count, err
}
