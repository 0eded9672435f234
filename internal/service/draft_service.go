package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/draft"
	"github.com/lead-import-api/internal/mapping"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/rs/zerolog"
)

// SubmitResult is the outcome of turning a draft into a campaign
type SubmitResult struct {
	Campaign *models.Campaign `json:"campaign"`
	State    pipeline.State   `json:"state"`
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Added    int              `json:"added"`
	Warnings []string         `json:"warnings,omitempty"`
}

// campaignFinalizer is implemented by campaign stores that track the wizard
// lifecycle of a campaign
type campaignFinalizer interface {
	MarkCreated(ctx context.Context, id string) error
}

// draftService is the concrete implementation of DraftService
type draftService struct {
	store     *draft.Store
	runner    *pipeline.Runner
	campaigns pipeline.CampaignStore
	cfg       *config.Config
	log       zerolog.Logger
}

// newDraftService creates a new DraftService
func newDraftService(store *draft.Store, runner *pipeline.Runner, campaigns pipeline.CampaignStore, cfg *config.Config, log zerolog.Logger) *draftService {
	return &draftService{
		store:     store,
		runner:    runner,
		campaigns: campaigns,
		cfg:       cfg,
		log:       log.With().Str("service", "draft").Logger(),
	}
}

// withSession runs fn with the session locked and marks it used
func (s *draftService) withSession(id string, fn func(*draft.Session) error) error {
	session, err := s.store.Get(id)
	if err != nil {
		return err
	}
	session.Lock()
	defer session.Unlock()
	s.store.Touch(session)
	return fn(session)
}

// Create starts a new wizard session
func (s *draftService) Create() *draft.Snapshot {
	session := s.store.Create()
	session.Lock()
	defer session.Unlock()
	s.log.Debug().Str("draft_id", session.ID).Msg("Draft created")
	return session.Snapshot()
}

// Get returns the current view of a session
func (s *draftService) Get(id string) (*draft.Snapshot, error) {
	var snap *draft.Snapshot
	err := s.withSession(id, func(session *draft.Session) error {
		snap = session.Snapshot()
		return nil
	})
	return snap, err
}

// UploadFile parses a file into the session and proposes a mapping
func (s *draftService) UploadFile(id, fileName string, data []byte) (*draft.Snapshot, error) {
	var snap *draft.Snapshot
	err := s.withSession(id, func(session *draft.Session) error {
		newMachine := func(at pipeline.State) *pipeline.Machine {
			return s.runner.NewTrackedMachine(at, nil)
		}
		if err := session.LoadFile(fileName, data, newMachine); err != nil {
			s.log.Info().Err(err).Str("draft_id", id).Str("file", fileName).Msg("Draft file rejected")
			return err
		}
		snap = session.Snapshot()
		s.log.Info().
			Str("draft_id", id).
			Str("file", fileName).
			Int("columns", len(snap.Headers)).
			Bool("email_mapped", mapping.HasEmail(snap.Mappings)).
			Msg("Draft file parsed")
		return nil
	})
	return snap, err
}

// DeclareCustomField adds a custom field to the pending file's mapping
func (s *draftService) DeclareCustomField(id, name string) (*draft.Snapshot, error) {
	var snap *draft.Snapshot
	err := s.withSession(id, func(session *draft.Session) error {
		if err := session.DeclareCustomField(name); err != nil {
			return err
		}
		snap = session.Snapshot()
		return nil
	})
	return snap, err
}

// OverrideMapping re-targets one column of the pending file
func (s *draftService) OverrideMapping(id, column, target string) (*draft.Snapshot, error) {
	var snap *draft.Snapshot
	err := s.withSession(id, func(session *draft.Session) error {
		if err := session.OverrideMapping(column, target); err != nil {
			return err
		}
		snap = session.Snapshot()
		return nil
	})
	return snap, err
}

// ProcessFile validates the pending file against the draft and appends the accepted leads
func (s *draftService) ProcessFile(id string) (*draft.ProcessResult, error) {
	var result *draft.ProcessResult
	err := s.withSession(id, func(session *draft.Session) error {
		var err error
		result, err = session.ProcessFile()
		if err != nil {
			return err
		}
		s.log.Info().
			Str("draft_id", id).
			Int("total", result.Total).
			Int("added", result.Added).
			Int("rejected", len(result.Rejected)).
			Msg("Draft file processed")
		return nil
	})
	return result, err
}

// AddLead adds one hand-entered contact. A rejected contact is returned as data.
func (s *draftService) AddLead(id string, contact models.Contact) (*draft.Snapshot, *models.ValidationError, error) {
	var snap *draft.Snapshot
	var rejected *models.ValidationError
	err := s.withSession(id, func(session *draft.Session) error {
		var err error
		if rejected, err = session.AddManual(contact); err != nil {
			return err
		}
		snap = session.Snapshot()
		return nil
	})
	return snap, rejected, err
}

// RemoveLead drops a lead by email and returns how many were removed
func (s *draftService) RemoveLead(id, email string) (int, error) {
	removed := 0
	err := s.withSession(id, func(session *draft.Session) error {
		removed = session.Buffer.Remove(email)
		return nil
	})
	return removed, err
}

// ClearLeads empties the draft's lead list
func (s *draftService) ClearLeads(id string) error {
	return s.withSession(id, func(session *draft.Session) error {
		session.Buffer.Clear()
		return nil
	})
}

// ReplaceLeads swaps in a whole list and returns the rows that were not loaded
func (s *draftService) ReplaceLeads(id string, contacts []models.Contact) (*draft.Snapshot, []models.ValidationError, error) {
	var snap *draft.Snapshot
	var rejected []models.ValidationError
	err := s.withSession(id, func(session *draft.Session) error {
		rejected = session.ReplaceLeads(contacts)
		snap = session.Snapshot()
		return nil
	})
	return snap, rejected, err
}

// Submit creates the campaign and imports, reconciles and links the draft's
// leads. Association problems come back as warnings; the draft is discarded
// once the leads were imported.
func (s *draftService) Submit(ctx context.Context, id, name string) (*SubmitResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: campaign name is required", models.ErrInvalidInput)
	}

	var result *SubmitResult
	err := s.withSession(id, func(session *draft.Session) error {
		leads := session.Buffer.Leads()

		campaign, err := s.campaigns.CreateCampaign(ctx, &models.CreateCampaignRequest{Name: name})
		if err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}

		fileName := ""
		if session.Attempt != nil {
			fileName = session.Attempt.FileName
		}
		m := s.runner.NewTrackedMachine(pipeline.StateValidating, nil)
		run, err := s.runner.Commit(ctx, m, campaign.ID, leads, pipeline.ImportOptions{
			Source:   s.cfg.Import.SourceTag,
			FileName: fileName,
		})
		if err != nil {
			return err
		}

		if run.State == pipeline.StateDone && len(run.Warnings) == 0 {
			if f, ok := s.campaigns.(campaignFinalizer); ok {
				if err := f.MarkCreated(ctx, campaign.ID); err != nil {
					s.log.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("Failed to mark campaign created")
				} else {
					campaign.Status = models.CampaignStatusCreated
				}
			}
		}
		campaign.LeadCount = run.Added

		result = &SubmitResult{
			Campaign: campaign,
			State:    run.State,
			Total:    run.Total,
			Imported: run.Imported,
			Skipped:  run.Skipped,
			Added:    run.Added,
			Warnings: run.Warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.store.Delete(id)
	s.log.Info().
		Str("draft_id", id).
		Str("campaign_id", result.Campaign.ID).
		Str("state", string(result.State)).
		Int("added", result.Added).
		Msg("Draft submitted")
	return result, nil
}

// Sweep drops expired sessions
func (s *draftService) Sweep() int {
	removed := s.store.Sweep()
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("Expired drafts removed")
	}
	return removed
}
