package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/lead-import-api/internal/mapping"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/parser"
	"github.com/lead-import-api/internal/validation"
	"github.com/rs/zerolog"
)

// Request is one import action over a raw file
type Request struct {
	Data           []byte
	FileName       string
	CampaignID     string
	Mapping        *models.MappingInstructions
	Source         string
	IdempotencyKey string
	// OnTransition, when set, observes every state change of the run
	OnTransition func(from, to State)
}

// Result reports what every stage did. Rejected rows and warnings are data,
// not errors.
type Result struct {
	State    State                    `json:"state"`
	Headers  []string                 `json:"headers,omitempty"`
	Mappings []models.ColumnMapping   `json:"mappings,omitempty"`
	Total    int                      `json:"total"`
	Accepted []models.Contact         `json:"-"`
	Rejected []models.ValidationError `json:"rejected,omitempty"`
	Imported int                      `json:"imported"`
	Skipped  int                      `json:"skipped"`
	LeadIDs  []string                 `json:"lead_ids,omitempty"`
	Added    int                      `json:"added"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// AcceptedCount is the number of rows that passed validation
func (r *Result) AcceptedCount() int {
	return len(r.Accepted)
}

// Runner executes the pipeline stages one after another against the stores
type Runner struct {
	contacts  ContactsStore
	campaigns CampaignStore
	log       zerolog.Logger
}

// NewRunner creates a pipeline runner
func NewRunner(contacts ContactsStore, campaigns CampaignStore, log zerolog.Logger) *Runner {
	return &Runner{
		contacts:  contacts,
		campaigns: campaigns,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// NewTrackedMachine returns a machine that logs its transitions and passes
// them on to observe when it is not nil
func (r *Runner) NewTrackedMachine(at State, observe func(from, to State)) *Machine {
	m := ResumeMachine(at)
	m.OnEnter(func(from, to State) {
		r.log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("Pipeline state changed")
		if observe != nil {
			observe(from, to)
		}
	})
	return m
}

// Run takes a raw file from parsing through association. Parse, normalize and
// import failures are returned as errors alongside the partial result in the
// failed state. Invalid mapping instructions stop the run in mapping. A failed
// reconcile list call links nothing and ends in done with a warning; an
// association failure leaves the imported leads in place and is reported as a
// warning with the result in the failed state.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	m := r.NewTrackedMachine(StateIdle, req.OnTransition)
	result := &Result{State: StateIdle}
	fail := func(err error) (*Result, error) {
		m.Fail()
		result.State = m.State()
		return result, err
	}

	m.Transition(StateParsing)
	table, err := parser.Parse(req.Data)
	if err != nil {
		return fail(err)
	}
	result.Headers = table.Headers
	result.Total = len(table.Rows)

	m.Transition(StateMapping)
	set := mapping.NewSet(table.Headers)
	if err := set.Apply(req.Mapping); err != nil {
		// The run stops in mapping; the caller corrects the instructions and retries
		result.State = m.State()
		result.Mappings = set.Mappings()
		return result, err
	}
	result.Mappings = set.Mappings()

	m.Transition(StateNormalizing)
	candidates, err := mapping.Normalize(result.Mappings, table.Rows)
	if err != nil {
		return fail(err)
	}
	existing, err := r.existingEmails(ctx, req.CampaignID)
	if err != nil {
		return fail(fmt.Errorf("failed to load existing leads: %w", err))
	}

	m.Transition(StateValidating)
	validator := validation.NewValidator()
	validator.SetExistingEmails(existing)
	checked := validator.ValidateBatch(candidates)
	result.Accepted = checked.Accepted
	result.Rejected = checked.Rejected

	r.log.Info().
		Str("file", req.FileName).
		Int("total", result.Total).
		Int("accepted", len(checked.Accepted)).
		Int("rejected", len(checked.Rejected)).
		Msg("Lead file validated")

	opts := ImportOptions{
		Source:         req.Source,
		FileName:       req.FileName,
		ColumnMapping:  mapping.CanonicalColumnMapping(result.Mappings),
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := r.commit(ctx, m, req.CampaignID, result, opts); err != nil {
		return result, err
	}
	return result, nil
}

// Commit runs importing, reconciling and associating for contacts that were
// validated earlier. m must be in the validating state.
func (r *Runner) Commit(ctx context.Context, m *Machine, campaignID string, accepted []models.Contact, opts ImportOptions) (*Result, error) {
	result := &Result{State: m.State(), Total: len(accepted), Accepted: accepted}
	if err := r.commit(ctx, m, campaignID, result, opts); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runner) commit(ctx context.Context, m *Machine, campaignID string, result *Result, opts ImportOptions) error {
	defer func() { result.State = m.State() }()

	if err := m.Transition(StateImporting); err != nil {
		return err
	}
	counts, err := Import(ctx, r.contacts, result.Accepted, opts)
	if err != nil {
		m.Fail()
		r.log.Error().Err(err).Str("campaign_id", campaignID).Msg("Bulk import failed")
		return err
	}
	result.Imported, result.Skipped = counts.Imported, counts.Skipped

	m.Transition(StateReconciling)
	if campaignID != "" {
		ids, err := Reconcile(ctx, r.contacts, result.Accepted)
		if err != nil {
			// Nothing to link; association runs with an empty set and makes no call
			result.Warnings = append(result.Warnings, fmt.Sprintf("leads were imported but could not be linked: %v", err))
			r.log.Warn().Err(err).Str("campaign_id", campaignID).Msg("Identifier reconciliation failed")
		} else if missing := len(result.Accepted) - len(ids); missing > 0 {
			r.log.Info().Int("unmatched", missing).Msg("Some accepted leads were not found after import")
		}
		result.LeadIDs = ids
	}

	m.Transition(StateAssociating)
	if campaignID != "" {
		added, err := Associate(ctx, r.campaigns, campaignID, result.LeadIDs)
		if err != nil {
			m.Fail()
			var ae *models.AssociationError
			if errors.As(err, &ae) {
				result.Warnings = append(result.Warnings, "campaign was created but leads were not linked: "+ae.Message)
			} else {
				result.Warnings = append(result.Warnings, err.Error())
			}
			r.log.Warn().Err(err).Str("campaign_id", campaignID).Int("lead_ids", len(result.LeadIDs)).Msg("Lead association failed")
			return nil
		}
		result.Added = added
	}

	m.Transition(StateDone)
	r.log.Info().
		Str("campaign_id", campaignID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("linked", result.Added).
		Msg("Lead import committed")
	return nil
}

// existingEmails returns the destination's current emails: the campaign's
// linked leads, or the whole contacts store when no campaign is given
func (r *Runner) existingEmails(ctx context.Context, campaignID string) ([]string, error) {
	var leads []*models.Lead
	var err error
	if campaignID != "" {
		leads, err = r.campaigns.CampaignLeads(ctx, campaignID)
	} else {
		leads, err = r.contacts.ListLeads(ctx)
	}
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(leads))
	for _, l := range leads {
		emails = append(emails, l.Email)
	}
	return emails, nil
}
