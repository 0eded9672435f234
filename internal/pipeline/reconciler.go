package pipeline

import (
	"context"

	"github.com/lead-import-api/internal/models"
)

// Reconcile recovers store identifiers for the accepted batch by re-listing the
// contacts store and matching on lower-cased email. Accepted rows with no match
// are left out. Identifiers are returned in accepted order without repeats.
func Reconcile(ctx context.Context, store ContactsStore, accepted []models.Contact) ([]string, error) {
	if len(accepted) == 0 {
		return nil, nil
	}

	leads, err := store.ListLeads(ctx)
	if err != nil {
		return nil, &models.ReconcileError{Err: err}
	}

	byEmail := make(map[string]string, len(leads))
	for _, l := range leads {
		key := models.NormalizeEmail(l.Email)
		if _, ok := byEmail[key]; !ok && l.ID != "" {
			byEmail[key] = l.ID
		}
	}

	ids := make([]string, 0, len(accepted))
	seen := make(map[string]bool, len(accepted))
	for _, c := range accepted {
		id, ok := byEmail[c.Key()]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
