package models

import "time"

// CampaignStatus represents the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft   CampaignStatus = "draft"
	CampaignStatusCreated CampaignStatus = "created"
)

// Campaign is an outreach campaign owned by the campaign store
type Campaign struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Status    CampaignStatus `json:"status" db:"status"`
	LeadCount int            `json:"lead_count" db:"-"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// CampaignLeadLink is one many-to-many association between a campaign and a lead
type CampaignLeadLink struct {
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	LeadID     string    `json:"lead_id" db:"lead_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CreateCampaignRequest creates a campaign
type CreateCampaignRequest struct {
	Name string `json:"name"`
}

// AddLeadsRequest is the campaign store association call
type AddLeadsRequest struct {
	CampaignID string   `json:"campaignId"`
	LeadIDs    []string `json:"leadIds"`
}

// AddLeadsData carries the association count
type AddLeadsData struct {
	Added int `json:"added"`
}

// AddLeadsResponse is the campaign store association reply
type AddLeadsResponse struct {
	Success bool          `json:"success"`
	Data    *AddLeadsData `json:"data,omitempty"`
	Message string        `json:"message,omitempty"`
}

// CampaignResponse wraps a single campaign
type CampaignResponse struct {
	Success bool      `json:"success"`
	Data    *Campaign `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}
