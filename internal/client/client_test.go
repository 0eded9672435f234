package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.StoresConfig{RemoteURL: server.URL + "/", Timeout: time.Second, APIKey: "secret"}, zerolog.Nop())
}

func TestBulkImport(t *testing.T) {
	var got models.BulkImportRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/leads/bulk" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Missing API key header")
		}
		if r.Header.Get("Idempotency-Key") != "key-1" {
			t.Errorf("Expected idempotency key, got %q", r.Header.Get("Idempotency-Key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(models.BulkImportResponse{
			Success: true,
			Data:    &models.BulkImportData{Imported: 1},
		})
	})

	resp, err := c.BulkImport(context.Background(), &models.BulkImportRequest{
		Leads:           []models.LeadPayload{{Email: "a@b.com", FirstName: "Jane"}},
		FileName:        "leads.csv",
		DuplicateChecks: models.DuplicateChecks{Workspace: true},
		IdempotencyKey:  "key-1",
	})
	if err != nil {
		t.Fatalf("BulkImport failed: %v", err)
	}
	if !resp.Success || resp.Data.Imported != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if len(got.Leads) != 1 || got.FileName != "leads.csv" || !got.DuplicateChecks.Workspace {
		t.Errorf("Unexpected request body: %+v", got)
	}
}

func TestBulkImport_ServerErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"success":false,"message":"quota exceeded"}`))
	})

	_, err := c.BulkImport(context.Background(), &models.BulkImportRequest{})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StoreError, got %v", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable || se.Message != "quota exceeded" {
		t.Errorf("Unexpected store error: %+v", se)
	}

	// Through the pipeline the failure becomes an ImportError with the store message
	_, err = pipeline.Import(context.Background(), c, []models.Contact{{Email: "a@b.com"}}, pipeline.ImportOptions{})
	var ie *models.ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("Expected ImportError, got %v", err)
	}
}

func TestListLeads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ListLeadsResponse{
			Success: true,
			Data:    []*models.Lead{{ID: "l1", Email: "a@b.com"}, {ID: "l2", Email: "c@d.com"}},
		})
	})

	leads, err := c.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 2 || leads[1].ID != "l2" {
		t.Errorf("Unexpected leads: %+v", leads)
	}
}

func TestGetCampaign_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"campaign not found"}`))
	})

	if _, err := c.GetCampaign(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddLeads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/campaigns/c1/leads" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req models.AddLeadsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.CampaignID != "c1" || len(req.LeadIDs) != 2 {
			t.Errorf("Unexpected body: %+v", req)
		}
		json.NewEncoder(w).Encode(models.AddLeadsResponse{Success: true, Data: &models.AddLeadsData{Added: 2}})
	})

	added, err := pipeline.Associate(context.Background(), c, "c1", []string{"l1", "l2"})
	if err != nil {
		t.Fatalf("Associate failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 added, got %d", added)
	}
}

func TestAddLeads_RejectedIsAssociationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.AddLeadsResponse{Success: false, Message: "campaign is archived"})
	})

	_, err := pipeline.Associate(context.Background(), c, "c1", []string{"l1"})
	var ae *models.AssociationError
	if !errors.As(err, &ae) || ae.Message != "campaign is archived" {
		t.Errorf("Expected AssociationError with store message, got %v", err)
	}
}

func TestCreateCampaign(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCampaignRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.CampaignResponse{
			Success: true,
			Data:    &models.Campaign{ID: "c9", Name: req.Name, Status: models.CampaignStatusDraft},
		})
	})

	campaign, err := c.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})
	if err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}
	if campaign.ID != "c9" || campaign.Name != "Q3" {
		t.Errorf("Unexpected campaign: %+v", campaign)
	}
}
