package pipeline

import (
	"context"

	"github.com/lead-import-api/internal/models"
)

// Associate links the identifiers to the campaign in one call. An empty set
// makes no call. Failures are *models.AssociationError; the campaign itself is
// left as it is.
func Associate(ctx context.Context, store CampaignStore, campaignID string, leadIDs []string) (int, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}

	resp, err := store.AddLeads(ctx, &models.AddLeadsRequest{CampaignID: campaignID, LeadIDs: leadIDs})
	if err != nil {
		return 0, &models.AssociationError{CampaignID: campaignID, Message: err.Error(), Err: err}
	}
	if resp == nil || !resp.Success {
		msg := "campaign store rejected lead association"
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return 0, &models.AssociationError{CampaignID: campaignID, Message: msg}
	}
	if resp.Data == nil {
		return 0, nil
	}
	return resp.Data.Added, nil
}
