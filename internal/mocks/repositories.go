package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/repository"
)

// MockLeadRepository is an in-memory LeadRepository keyed by lower-cased email
type MockLeadRepository struct {
	Leads       map[string]*models.Lead
	Order       []string
	UpsertError error
	ListError   error
	UpsertCalls int
}

var _ repository.LeadRepository = (*MockLeadRepository)(nil)

func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{Leads: make(map[string]*models.Lead)}
}

func (m *MockLeadRepository) BulkUpsert(ctx context.Context, leads []*models.Lead, skipExisting bool) (int, error) {
	m.UpsertCalls++
	if m.UpsertError != nil {
		return 0, m.UpsertError
	}

	written := 0
	now := time.Now()
	for _, l := range leads {
		key := models.NormalizeEmail(l.Email)
		if existing, ok := m.Leads[key]; ok {
			if skipExisting {
				continue
			}
			existing.FirstName, existing.LastName = l.FirstName, l.LastName
			existing.CompanyName, existing.JobTitle = l.CompanyName, l.JobTitle
			existing.Phone, existing.Website = l.Phone, l.Website
			existing.UpdatedAt = now
			written++
			continue
		}
		stored := *l
		stored.ID = uuid.New().String()
		stored.Email = key
		stored.CreatedAt, stored.UpdatedAt = now, now
		m.Leads[key] = &stored
		m.Order = append(m.Order, key)
		written++
	}
	return written, nil
}

func (m *MockLeadRepository) ListAll(ctx context.Context) ([]*models.Lead, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]*models.Lead, 0, len(m.Order))
	for _, key := range m.Order {
		out = append(out, m.Leads[key])
	}
	return out, nil
}

func (m *MockLeadRepository) StreamAll(ctx context.Context, callback func(*models.Lead) error) error {
	leads, err := m.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, l := range leads {
		if err := callback(l); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockLeadRepository) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	var out []string
	for _, e := range emails {
		if _, ok := m.Leads[models.NormalizeEmail(e)]; ok {
			out = append(out, models.NormalizeEmail(e))
		}
	}
	return out, nil
}

func (m *MockLeadRepository) Count(ctx context.Context) (int, error) {
	return len(m.Leads), nil
}

// Seed stores a lead directly and returns it
func (m *MockLeadRepository) Seed(email string) *models.Lead {
	m.BulkUpsert(context.Background(), []*models.Lead{{Email: email}}, true)
	return m.Leads[models.NormalizeEmail(email)]
}

// ByID finds a stored lead by id
func (m *MockLeadRepository) ByID(id string) *models.Lead {
	for _, l := range m.Leads {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// MockCampaignRepository is an in-memory CampaignRepository. LinkLeads only
// links ids known to LeadRepo when it is set.
type MockCampaignRepository struct {
	Campaigns map[string]*models.Campaign
	Links     map[string][]string
	LeadRepo  *MockLeadRepository
	LinkError error
	LinkCalls int
}

var _ repository.CampaignRepository = (*MockCampaignRepository)(nil)

func NewMockCampaignRepository(leads *MockLeadRepository) *MockCampaignRepository {
	return &MockCampaignRepository{
		Campaigns: make(map[string]*models.Campaign),
		Links:     make(map[string][]string),
		LeadRepo:  leads,
	}
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	m.Campaigns[campaign.ID] = campaign
	return nil
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	c, ok := m.Campaigns[id]
	if !ok {
		return nil, nil
	}
	out := *c
	out.LeadCount = len(m.Links[id])
	return &out, nil
}

func (m *MockCampaignRepository) UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error {
	if c, ok := m.Campaigns[id]; ok {
		c.Status = status
	}
	return nil
}

func (m *MockCampaignRepository) LinkLeads(ctx context.Context, campaignID string, leadIDs []string) (int, error) {
	m.LinkCalls++
	if m.LinkError != nil {
		return 0, m.LinkError
	}
	linked := make(map[string]bool, len(m.Links[campaignID]))
	for _, id := range m.Links[campaignID] {
		linked[id] = true
	}
	added := 0
	for _, id := range leadIDs {
		if linked[id] {
			continue
		}
		if m.LeadRepo != nil && m.LeadRepo.ByID(id) == nil {
			continue
		}
		linked[id] = true
		m.Links[campaignID] = append(m.Links[campaignID], id)
		added++
	}
	return added, nil
}

func (m *MockCampaignRepository) Leads(ctx context.Context, campaignID string) ([]*models.Lead, error) {
	var out []*models.Lead
	for _, id := range m.Links[campaignID] {
		if m.LeadRepo == nil {
			out = append(out, &models.Lead{ID: id})
			continue
		}
		if l := m.LeadRepo.ByID(id); l != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MockCampaignRepository) Count(ctx context.Context) (int, error) {
	return len(m.Campaigns), nil
}

// MockJobRepository is a mock implementation of JobRepository
type MockJobRepository struct {
	mu              sync.Mutex
	Jobs            map[string]*models.Job
	IdempotencyJobs map[string]*models.Job
	Errors          map[string][]models.ValidationError
	CreateError     error
	UpdateError     error
	Updates         int
}

var _ repository.JobRepository = (*MockJobRepository)(nil)

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs:            make(map[string]*models.Job),
		IdempotencyJobs: make(map[string]*models.Job),
		Errors:          make(map[string][]models.ValidationError),
	}
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Jobs[job.ID] = job
	if job.IdempotencyKey != "" {
		m.IdempotencyJobs[job.IdempotencyKey] = job
	}
	return nil
}

func (m *MockJobRepository) Update(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.Jobs[job.ID] = job
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Jobs[id], nil
}

func (m *MockJobRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IdempotencyJobs[key], nil
}

func (m *MockJobRepository) GetPendingJobs(ctx context.Context) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*models.Job
	for _, job := range m.Jobs {
		if job.Status == models.JobStatusPending && job.Type == models.JobTypeImport {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

func (m *MockJobRepository) MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists := m.Jobs[jobID]
	if !exists || job.Status != models.JobStatusPending {
		return false, nil
	}
	job.Status = models.JobStatusProcessing
	return true, nil
}

func (m *MockJobRepository) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[jobID] = append(m.Errors[jobID], errors...)
	return nil
}

func (m *MockJobRepository) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	errors := m.Errors[jobID]
	if limit > 0 && len(errors) > limit {
		return errors[:limit], nil
	}
	return errors, nil
}

// NewMockRepositories wires the three mocks together
func NewMockRepositories() (*repository.Repositories, *MockLeadRepository, *MockCampaignRepository, *MockJobRepository) {
	leads := NewMockLeadRepository()
	campaigns := NewMockCampaignRepository(leads)
	jobs := NewMockJobRepository()
	return &repository.Repositories{Lead: leads, Campaign: campaigns, Job: jobs}, leads, campaigns, jobs
}
