package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lead-import-api/internal/mocks"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/rs/zerolog"
)

func contacts(emails ...string) []models.Contact {
	out := make([]models.Contact, 0, len(emails))
	for _, e := range emails {
		out = append(out, models.Contact{Email: e})
	}
	return out
}

func TestImport_SubmitsOneBatch(t *testing.T) {
	store := mocks.NewMockContactsStore()
	accepted := contacts("a@b.com", "c@d.com")

	counts, err := pipeline.Import(context.Background(), store, accepted, pipeline.ImportOptions{FileName: "leads.csv"})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if counts.Imported != 2 || counts.Skipped != 0 {
		t.Errorf("Unexpected counts: %+v", counts)
	}
	if len(store.Requests) != 1 {
		t.Fatalf("Expected exactly one bulk call, got %d", len(store.Requests))
	}

	req := store.Requests[0]
	if req.Source != pipeline.SourceCampaignImport {
		t.Errorf("Expected default source tag, got %q", req.Source)
	}
	if req.FileName != "leads.csv" || !req.DuplicateChecks.Workspace {
		t.Errorf("Unexpected request: %+v", req)
	}
	if req.ColumnMapping[models.FieldEmail] != models.FieldEmail {
		t.Errorf("Expected canonical column mapping, got %v", req.ColumnMapping)
	}
}

func TestImport_PartialImportIsNotAnError(t *testing.T) {
	store := mocks.NewMockContactsStore()
	store.Hidden["c@d.com"] = true

	counts, err := pipeline.Import(context.Background(), store, contacts("a@b.com", "b@b.com", "c@d.com"), pipeline.ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if counts.Imported != 2 || counts.Skipped != 1 {
		t.Errorf("Expected 2 imported and 1 skipped, got %+v", counts)
	}
}

func TestImport_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error)
		wantMsg string
	}{
		{
			name: "network error",
			fn: func(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
				return nil, errors.New("connection refused")
			},
			wantMsg: "connection refused",
		},
		{
			name: "store rejects",
			fn: func(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
				return &models.BulkImportResponse{Success: false, Message: "quota exceeded"}, nil
			},
			wantMsg: "quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockContactsStore()
			store.BulkImportFunc = tt.fn

			_, err := pipeline.Import(context.Background(), store, contacts("a@b.com"), pipeline.ImportOptions{})
			var ie *models.ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("Expected ImportError, got %v", err)
			}
			if ie.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, ie.Message)
			}
		})
	}
}

func TestReconcile_MatchesByLowercasedEmail(t *testing.T) {
	store := mocks.NewMockContactsStore()
	a := store.AddLead("a@b.com")
	store.AddLead("unrelated@b.com")
	c := store.AddLead("c@d.com")

	ids, err := pipeline.Reconcile(context.Background(), store, contacts("A@B.com", "missing@x.com", "c@d.com", "a@b.com"))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != a.ID || ids[1] != c.ID {
		t.Errorf("Expected [%s %s], got %v", a.ID, c.ID, ids)
	}
}

func TestReconcile_ListFailure(t *testing.T) {
	store := mocks.NewMockContactsStore()
	store.ListErr = errors.New("timeout")

	_, err := pipeline.Reconcile(context.Background(), store, contacts("a@b.com"))
	var re *models.ReconcileError
	if !errors.As(err, &re) {
		t.Fatalf("Expected ReconcileError, got %v", err)
	}
}

func TestAssociate(t *testing.T) {
	campaigns := mocks.NewMockCampaignStore()

	added, err := pipeline.Associate(context.Background(), campaigns, "campaign-1", []string{"l1", "l2"})
	if err != nil {
		t.Fatalf("Associate failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 added, got %d", added)
	}

	added, err = pipeline.Associate(context.Background(), campaigns, "campaign-1", nil)
	if err != nil || added != 0 {
		t.Errorf("Empty id set should be a no-op, got (%d, %v)", added, err)
	}
	if len(campaigns.AddRequests) != 1 {
		t.Errorf("Expected one association call, got %d", len(campaigns.AddRequests))
	}
}

func TestAssociate_Rejected(t *testing.T) {
	campaigns := mocks.NewMockCampaignStore()
	campaigns.AddLeadsFunc = func(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error) {
		return &models.AddLeadsResponse{Success: false, Message: "campaign locked"}, nil
	}

	_, err := pipeline.Associate(context.Background(), campaigns, "campaign-1", []string{"l1"})
	var ae *models.AssociationError
	if !errors.As(err, &ae) || ae.Message != "campaign locked" {
		t.Fatalf("Expected AssociationError with store message, got %v", err)
	}
}

func newRunner() (*pipeline.Runner, *mocks.MockContactsStore, *mocks.MockCampaignStore) {
	contactsStore := mocks.NewMockContactsStore()
	campaignStore := mocks.NewMockCampaignStore()
	return pipeline.NewRunner(contactsStore, campaignStore, zerolog.Nop()), contactsStore, campaignStore
}

func TestRun_EndToEnd(t *testing.T) {
	runner, contactsStore, campaignStore := newRunner()
	campaign, _ := campaignStore.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})

	data := []byte("Email,First,Last,Co\nX@Y.com,Jane,Doe,Acme\nbad-email,Bob,,\nx@y.com,Dup,,\nz@y.com,Zed,,\n")
	result, err := runner.Run(context.Background(), &pipeline.Request{
		Data:       data,
		FileName:   "leads.csv",
		CampaignID: campaign.ID,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.State != pipeline.StateDone {
		t.Errorf("Expected done, got %s", result.State)
	}
	if result.Total != 4 || result.AcceptedCount() != 2 || len(result.Rejected) != 2 {
		t.Errorf("Unexpected counts: total=%d accepted=%d rejected=%d", result.Total, result.AcceptedCount(), len(result.Rejected))
	}
	if result.Rejected[0].Line != 2 || result.Rejected[1].Line != 3 {
		t.Errorf("Unexpected rejected rows: %+v", result.Rejected)
	}
	if result.Imported != 2 || result.Added != 2 {
		t.Errorf("Expected 2 imported and 2 linked, got %d/%d", result.Imported, result.Added)
	}
	if len(contactsStore.Requests) != 1 || len(campaignStore.AddRequests) != 1 {
		t.Errorf("Expected one import call and one association call")
	}
	if contactsStore.Requests[0].Leads[0].Email != "x@y.com" {
		t.Errorf("Expected lower-cased email on the wire, got %q", contactsStore.Requests[0].Leads[0].Email)
	}
}

func TestRun_StoreSideDedupLimitsIdentifiers(t *testing.T) {
	runner, contactsStore, campaignStore := newRunner()
	campaign, _ := campaignStore.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})
	contactsStore.Hidden["c@d.com"] = true

	result, err := runner.Run(context.Background(), &pipeline.Request{
		Data:       []byte("email\na@b.com\nb@b.com\nc@d.com\n"),
		CampaignID: campaign.ID,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Imported != 2 || result.Skipped != 1 {
		t.Errorf("Expected imported=2 skipped=1, got %d/%d", result.Imported, result.Skipped)
	}
	if len(result.LeadIDs) > 2 {
		t.Errorf("Reconciler returned %d identifiers, expected at most 2", len(result.LeadIDs))
	}
	sent := campaignStore.AddRequests[0].LeadIDs
	if len(sent) != len(result.LeadIDs) {
		t.Fatalf("Associator received %d ids, reconciler produced %d", len(sent), len(result.LeadIDs))
	}
	for i := range sent {
		if sent[i] != result.LeadIDs[i] {
			t.Errorf("Associator id %d: %s != %s", i, sent[i], result.LeadIDs[i])
		}
	}
}

func TestRun_AssociationFailureIsWarning(t *testing.T) {
	runner, _, campaignStore := newRunner()
	campaign, _ := campaignStore.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})
	campaignStore.AddLeadsFunc = func(ctx context.Context, req *models.AddLeadsRequest) (*models.AddLeadsResponse, error) {
		return &models.AddLeadsResponse{Success: false, Message: "internal error"}, nil
	}

	result, err := runner.Run(context.Background(), &pipeline.Request{
		Data:       []byte("email\na@b.com\n"),
		CampaignID: campaign.ID,
	})
	if err != nil {
		t.Fatalf("Association failure should not be returned as error: %v", err)
	}
	if result.State != pipeline.StateFailed {
		t.Errorf("Expected failed state, got %s", result.State)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Expected one warning, got %v", result.Warnings)
	}
	if _, err := campaignStore.GetCampaign(context.Background(), campaign.ID); err != nil {
		t.Error("Campaign must not be removed after association failure")
	}
}

func TestRun_ReconcileFailureIsWarning(t *testing.T) {
	runner, contactsStore, campaignStore := newRunner()
	campaign, _ := campaignStore.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})
	contactsStore.BulkImportFunc = func(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
		contactsStore.ListErr = errors.New("list unavailable")
		return &models.BulkImportResponse{Success: true, Data: &models.BulkImportData{Imported: 1}}, nil
	}

	result, err := runner.Run(context.Background(), &pipeline.Request{
		Data:       []byte("email\na@b.com\n"),
		CampaignID: campaign.ID,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.State != pipeline.StateDone || len(result.Warnings) != 1 {
		t.Errorf("Expected done state with warning, got %s %v", result.State, result.Warnings)
	}
	if result.Imported != 1 || result.Added != 0 || len(result.LeadIDs) != 0 {
		t.Errorf("Expected 1 imported and nothing linked, got %+v", result)
	}
	if len(campaignStore.AddRequests) != 0 {
		t.Error("Association must not call the store without identifiers")
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		req     *pipeline.Request
		setup     func(*mocks.MockContactsStore)
		isError   func(error) bool
		wantState pipeline.State
	}{
		{
			name:      "empty file",
			req:       &pipeline.Request{Data: []byte("")},
			isError:   models.IsParseError,
			wantState: pipeline.StateFailed,
		},
		{
			name:      "no email column",
			req:       &pipeline.Request{Data: []byte("Name,Phone\nJane,555\n")},
			isError:   models.IsMappingError,
			wantState: pipeline.StateFailed,
		},
		{
			name: "unknown campaign",
			req:  &pipeline.Request{Data: []byte("Email\na@b.com\n"), CampaignID: "missing"},
			isError: func(err error) bool {
				return errors.Is(err, models.ErrNotFound)
			},
			wantState: pipeline.StateFailed,
		},
		{
			name: "override to undeclared custom field",
			req: &pipeline.Request{
				Data: []byte("Email,Notes\na@b.com,x\n"),
				Mapping: &models.MappingInstructions{
					Overrides: []models.ColumnMapping{{SourceColumn: "Notes", TargetField: "notes"}},
				},
			},
			isError:   models.IsMappingError,
			wantState: pipeline.StateMapping,
		},
		{
			name: "duplicate custom field",
			req: &pipeline.Request{
				Data: []byte("Email,Notes\na@b.com,x\n"),
				Mapping: &models.MappingInstructions{
					CustomFields: []string{"notes", "notes"},
				},
			},
			isError:   models.IsMappingError,
			wantState: pipeline.StateMapping,
		},
		{
			name: "import call fails",
			req:  &pipeline.Request{Data: []byte("Email\na@b.com\n")},
			setup: func(s *mocks.MockContactsStore) {
				s.BulkImportFunc = func(ctx context.Context, req *models.BulkImportRequest) (*models.BulkImportResponse, error) {
					return nil, errors.New("503 service unavailable")
				}
			},
			isError: func(err error) bool {
				var ie *models.ImportError
				return errors.As(err, &ie)
			},
			wantState: pipeline.StateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, contactsStore, _ := newRunner()
			if tt.setup != nil {
				tt.setup(contactsStore)
			}

			result, err := runner.Run(context.Background(), tt.req)
			if err == nil || !tt.isError(err) {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result.State != tt.wantState {
				t.Errorf("Expected %s state, got %s", tt.wantState, result.State)
			}
		})
	}
}

func TestRun_ExistingCampaignLeadsRejected(t *testing.T) {
	runner, _, campaignStore := newRunner()
	campaign, _ := campaignStore.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})
	campaignStore.Links[campaign.ID] = []*models.Lead{{ID: "lead-9", Email: "already@x.com"}}

	result, err := runner.Run(context.Background(), &pipeline.Request{
		Data:       []byte("email\nAlready@x.com\nnew@x.com\n"),
		CampaignID: campaign.ID,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Message != "email already exists" {
		t.Errorf("Expected existing-duplicate rejection, got %+v", result.Rejected)
	}
}

func TestRun_WithoutCampaignSkipsAssociation(t *testing.T) {
	runner, contactsStore, campaignStore := newRunner()
	contactsStore.AddLead("old@x.com")

	result, err := runner.Run(context.Background(), &pipeline.Request{
		Data:   []byte("email\nold@x.com\nnew@x.com\n"),
		Source: "list_import",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != pipeline.StateDone {
		t.Errorf("Expected done, got %s", result.State)
	}
	if result.Imported != 1 || len(result.Rejected) != 1 {
		t.Errorf("Expected 1 imported and 1 rejected, got %d/%d", result.Imported, len(result.Rejected))
	}
	if len(campaignStore.AddRequests) != 0 {
		t.Error("No association call expected without a campaign")
	}
	if contactsStore.Requests[0].Source != "list_import" {
		t.Errorf("Expected source tag to be forwarded, got %q", contactsStore.Requests[0].Source)
	}
}

func TestCommit_FromValidatedState(t *testing.T) {
	runner, _, campaignStore := newRunner()
	campaign, _ := campaignStore.CreateCampaign(context.Background(), &models.CreateCampaignRequest{Name: "Q3"})

	m := runner.NewTrackedMachine(pipeline.StateValidating, nil)
	result, err := runner.Commit(context.Background(), m, campaign.ID, contacts("a@b.com"), pipeline.ImportOptions{})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if result.State != pipeline.StateDone || result.Added != 1 {
		t.Errorf("Unexpected result: state=%s added=%d", result.State, result.Added)
	}

	if _, err := runner.Commit(context.Background(), pipeline.NewMachine(), campaign.ID, nil, pipeline.ImportOptions{}); err == nil {
		t.Error("Commit from idle should fail")
	}
}
