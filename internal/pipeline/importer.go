package pipeline

import (
	"context"

	"github.com/lead-import-api/internal/models"
)

// SourceCampaignImport tags leads imported through the campaign wizard
const SourceCampaignImport = "campaign_import"

// ImportOptions describe the batch being submitted
type ImportOptions struct {
	Source         string
	FileName       string
	ColumnMapping  map[string]string
	IdempotencyKey string
}

// Import submits every accepted contact in one bulk call. Rows the store drops
// silently are reported as skipped; a failed call is an *models.ImportError.
func Import(ctx context.Context, store ContactsStore, accepted []models.Contact, opts ImportOptions) (*models.ImportCounts, error) {
	if len(accepted) == 0 {
		return &models.ImportCounts{}, nil
	}

	source := opts.Source
	if source == "" {
		source = SourceCampaignImport
	}

	req := &models.BulkImportRequest{
		Leads:           make([]models.LeadPayload, 0, len(accepted)),
		ColumnMapping:   opts.ColumnMapping,
		FileName:        opts.FileName,
		DuplicateChecks: models.DuplicateChecks{Workspace: true},
		Source:          source,
		IdempotencyKey:  opts.IdempotencyKey,
	}
	if req.ColumnMapping == nil {
		req.ColumnMapping = defaultColumnMapping()
	}
	for _, c := range accepted {
		req.Leads = append(req.Leads, models.PayloadFromContact(c))
	}

	resp, err := store.BulkImport(ctx, req)
	if err != nil {
		return nil, &models.ImportError{Message: err.Error(), Err: err}
	}
	if resp == nil || !resp.Success {
		msg := "bulk import rejected by contacts store"
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return nil, &models.ImportError{Message: msg}
	}

	imported := 0
	if resp.Data != nil {
		imported = resp.Data.Imported
	}
	if imported > len(accepted) {
		imported = len(accepted)
	}
	return &models.ImportCounts{Imported: imported, Skipped: len(accepted) - imported}, nil
}

func defaultColumnMapping() map[string]string {
	out := make(map[string]string, len(models.CanonicalFields))
	for _, f := range models.CanonicalFields {
		out[f] = f
	}
	return out
}
