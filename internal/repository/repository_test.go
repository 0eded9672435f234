package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/lead-import-api/internal/mocks"
	"github.com/lead-import-api/internal/models"
)

func TestMockLeadRepository_BulkUpsert(t *testing.T) {
	repo := mocks.NewMockLeadRepository()
	ctx := context.Background()

	leads := []*models.Lead{
		{Email: "Jane@Example.com", FirstName: "Jane"},
		{Email: "carl@example.com", FirstName: "Carl"},
	}

	written, err := repo.BulkUpsert(ctx, leads, true)
	if err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}
	if written != 2 {
		t.Errorf("Expected 2 written, got %d", written)
	}

	// Stored emails are lower-cased and get an id
	stored := repo.Leads["jane@example.com"]
	if stored == nil || stored.ID == "" {
		t.Fatalf("Expected stored lead with id, got %+v", stored)
	}
	if repo.ByID(stored.ID) != stored {
		t.Error("ByID should find the stored lead")
	}

	// Existing emails are skipped or updated
	written, _ = repo.BulkUpsert(ctx, []*models.Lead{{Email: "jane@example.com", FirstName: "J"}}, true)
	if written != 0 || stored.FirstName != "Jane" {
		t.Errorf("Expected skip, got written=%d first=%s", written, stored.FirstName)
	}
	written, _ = repo.BulkUpsert(ctx, []*models.Lead{{Email: "jane@example.com", FirstName: "J"}}, false)
	if written != 1 || stored.FirstName != "J" {
		t.Errorf("Expected update, got written=%d first=%s", written, stored.FirstName)
	}

	existing, _ := repo.ExistingEmails(ctx, []string{"JANE@example.com", "nobody@example.com"})
	if len(existing) != 1 || existing[0] != "jane@example.com" {
		t.Errorf("Unexpected existing emails: %v", existing)
	}
}

func TestMockLeadRepository_ListOrder(t *testing.T) {
	repo := mocks.NewMockLeadRepository()
	ctx := context.Background()

	for _, e := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		repo.Seed(e)
	}

	var streamed []string
	repo.StreamAll(ctx, func(l *models.Lead) error {
		streamed = append(streamed, l.Email)
		return nil
	})

	want := []string{"c@x.com", "a@x.com", "b@x.com"}
	for i, e := range want {
		if streamed[i] != e {
			t.Errorf("Position %d: expected %s, got %s", i, e, streamed[i])
		}
	}

	count, _ := repo.Count(ctx)
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
}

func TestMockCampaignRepository_LinkLeads(t *testing.T) {
	_, leads, campaigns, _ := mocks.NewMockRepositories()
	ctx := context.Background()

	campaigns.Create(ctx, &models.Campaign{ID: "c-1", Name: "Q3", Status: models.CampaignStatusDraft})
	a := leads.Seed("a@x.com")
	b := leads.Seed("b@x.com")

	added, err := campaigns.LinkLeads(ctx, "c-1", []string{a.ID, "unknown-id", b.ID})
	if err != nil {
		t.Fatalf("LinkLeads failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 added, got %d", added)
	}

	// Linking again adds nothing
	added, _ = campaigns.LinkLeads(ctx, "c-1", []string{a.ID})
	if added != 0 {
		t.Errorf("Expected 0 added, got %d", added)
	}

	campaign, _ := campaigns.GetByID(ctx, "c-1")
	if campaign.LeadCount != 2 {
		t.Errorf("Expected lead count 2, got %d", campaign.LeadCount)
	}

	campaigns.UpdateStatus(ctx, "c-1", models.CampaignStatusCreated)
	campaign, _ = campaigns.GetByID(ctx, "c-1")
	if campaign.Status != models.CampaignStatusCreated {
		t.Errorf("Expected created status, got %s", campaign.Status)
	}

	missing, err := campaigns.GetByID(ctx, "c-2")
	if err != nil || missing != nil {
		t.Errorf("Expected nil campaign, got %+v, %v", missing, err)
	}
}

func TestMockJobRepository_PendingJobs(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()
	now := time.Now()

	jobs := []*models.Job{
		{ID: "job-1", Type: models.JobTypeImport, Status: models.JobStatusPending, CreatedAt: now.Add(time.Second)},
		{ID: "job-2", Type: models.JobTypeImport, Status: models.JobStatusProcessing, CreatedAt: now},
		{ID: "job-3", Type: models.JobTypeImport, Status: models.JobStatusPending, CreatedAt: now},
		{ID: "job-4", Type: models.JobTypeImport, Status: models.JobStatusCompleted, CreatedAt: now},
		{ID: "job-5", Type: models.JobTypeBulkImport, Status: models.JobStatusPending, CreatedAt: now},
	}

	for _, job := range jobs {
		repo.Create(ctx, job)
	}

	pending, err := repo.GetPendingJobs(ctx)
	if err != nil {
		t.Fatalf("GetPendingJobs failed: %v", err)
	}

	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending jobs, got %d", len(pending))
	}
	if pending[0].ID != "job-3" {
		t.Errorf("Expected oldest job first, got %s", pending[0].ID)
	}
}

func TestMockJobRepository_MarkAsProcessing(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	job := &models.Job{ID: "job-1", Type: models.JobTypeImport, Status: models.JobStatusPending}
	repo.Create(ctx, job)

	marked, err := repo.MarkJobAsProcessing(ctx, "job-1")
	if err != nil {
		t.Fatalf("MarkJobAsProcessing failed: %v", err)
	}
	if !marked {
		t.Error("Job should be marked as processing")
	}

	// Try to mark again (should fail - already processing)
	marked, _ = repo.MarkJobAsProcessing(ctx, "job-1")
	if marked {
		t.Error("Job should not be marked again")
	}
}

func TestMockJobRepository_ValidationErrors(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.Job{ID: "job-1", Type: models.JobTypeImport, Status: models.JobStatusPending})

	errors := []models.ValidationError{
		{Line: 1, Field: "email", Message: "invalid email format", Value: "not-an-email"},
		{Line: 2, Field: "email", Message: "email is required"},
		{Line: 5, Field: "email", Message: "duplicate email in batch", Value: "a@b.com"},
	}
	repo.AddErrors(ctx, "job-1", errors)

	retrieved, err := repo.GetErrors(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("GetErrors failed: %v", err)
	}

	if len(retrieved) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(retrieved))
	}

	// Test limit
	retrieved, _ = repo.GetErrors(ctx, "job-1", 2)
	if len(retrieved) != 2 {
		t.Errorf("Expected 2 errors with limit, got %d", len(retrieved))
	}
}

func TestMockJobRepository_IdempotencyKey(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	job := &models.Job{
		ID:             "job-1",
		Type:           models.JobTypeImport,
		Status:         models.JobStatusPending,
		IdempotencyKey: "unique-key-123",
	}
	repo.Create(ctx, job)

	retrieved, err := repo.GetByIdempotencyKey(ctx, "unique-key-123")
	if err != nil {
		t.Fatalf("GetByIdempotencyKey failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Job should be found by idempotency key")
	}
	if retrieved.ID != "job-1" {
		t.Errorf("Expected job-1, got %s", retrieved.ID)
	}

	// Non-existent key
	retrieved, _ = repo.GetByIdempotencyKey(ctx, "non-existent")
	if retrieved != nil {
		t.Error("Should not find job with non-existent key")
	}
}
