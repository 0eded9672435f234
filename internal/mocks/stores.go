package mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
)

// MockContactsStore is an in-memory contacts store. Leads listed in Hidden are
// accepted by BulkImport but never stored, mimicking store-side dedup against
// records the client cannot see.
type MockContactsStore struct {
	Leads          []*models.Lead
	Hidden         map[string]bool
	BulkImportFunc func(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error)
	ListErr        error
	Requests       []*models.BulkImportRequest
	ListCalls      int
	nextID         int
}

var _ pipeline.ContactsStore = (*MockContactsStore)(nil)

func NewMockContactsStore() *MockContactsStore {
	return &MockContactsStore{Hidden: make(map[string]bool)}
}

func (m *MockContactsStore) BulkImport(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.BulkImportFunc != nil {
		return m.BulkImportFunc(ctx, req)
	}

	imported := 0
	for _, p := range req.Leads {
		email := strings.ToLower(p.Email)
		if m.Hidden[email] || m.find(email) != nil {
			continue
		}
		m.nextID++
		m.Leads = append(m.Leads, &models.Lead{
			ID:        fmt.Sprintf("lead-%d", m.nextID),
			Email:     email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Source:    req.Source,
		})
		imported++
	}
	return &models.BulkImportResponse{
		Success: true,
		Data:    &models.BulkImportData{Imported: imported, Skipped: len(req.Leads) - imported},
	}, nil
}

func (m *MockContactsStore) ListLeads(ctx context.Context) ([]*models.Lead, error) {
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Leads, nil
}

// AddLead seeds an existing lead and returns it
func (m *MockContactsStore) AddLead(email string) *models.Lead {
	m.nextID++
	lead := &models.Lead{ID: fmt.Sprintf("lead-%d", m.nextID), Email: strings.ToLower(email)}
	m.Leads = append(m.Leads, lead)
	return lead
}

func (m *MockContactsStore) find(email string) *models.Lead {
	for _, l := range m.Leads {
		if l.Email == email {
			return l
		}
	}
	return nil
}

// MockCampaignStore is an in-memory campaign store
type MockCampaignStore struct {
	Campaigns    map[string]*models.Campaign
	Links        map[string][]*models.Lead
	AddLeadsFunc func(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error)
	CreateErr    error
	AddRequests  []*models.AddLeadsRequest
	nextID       int
}

var _ pipeline.CampaignStore = (*MockCampaignStore)(nil)

func NewMockCampaignStore() *MockCampaignStore {
	return &MockCampaignStore{
		Campaigns: make(map[string]*models.Campaign),
		Links:     make(map[string][]*models.Lead),
	}
}

func (m *MockCampaignStore) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	c := &models.Campaign{ID: fmt.Sprintf("campaign-%d", m.nextID), Name: req.Name, Status: models.CampaignStatusDraft}
	m.Campaigns[c.ID] = c
	return c, nil
}

func (m *MockCampaignStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	c, ok := m.Campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (m *MockCampaignStore) CampaignLeads(ctx context.Context, campaignID string) ([]*models.Lead, error) {
	if _, ok := m.Campaigns[campaignID]; !ok {
		return nil, models.ErrNotFound
	}
	return m.Links[campaignID], nil
}

func (m *MockCampaignStore) AddLeads(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error) {
	m.AddRequests = append(m.AddRequests, req)
	if m.AddLeadsFunc != nil {
		return m.AddLeadsFunc(ctx, req)
	}
	for _, id := range req.LeadIDs {
		m.Links[req.CampaignID] = append(m.Links[req.CampaignID], &models.Lead{ID: id})
	}
	return &models.AddLeadsResponse{Success: true, Data: &models.AddLeadsData{Added: len(req.LeadIDs)}}, nil
}
