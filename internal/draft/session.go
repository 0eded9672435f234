package draft

import (
	"sync"
	"time"

	"github.com/lead-import-api/internal/mapping"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/parser"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/lead-import-api/internal/validation"
)

// Attempt is one uploaded file moving through parsing, mapping and validation
type Attempt struct {
	FileName string
	Table    *parser.Table
	Mapping  *mapping.Set
	Machine  *pipeline.Machine
}

// Session is a campaign wizard session. The mutex serializes the requests of
// its single user.
type Session struct {
	mu        sync.Mutex
	ID        string
	Buffer    *Buffer
	Attempt   *Attempt
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID        string                 `json:"id"`
	Leads     []models.Contact       `json:"leads"`
	LeadCount int                    `json:"lead_count"`
	FileName  string                 `json:"file_name,omitempty"`
	State     pipeline.State         `json:"state"`
	Headers   []string               `json:"headers,omitempty"`
	Mappings  []models.ColumnMapping `json:"mappings,omitempty"`
	Custom    []string               `json:"custom_fields,omitempty"`
	Preview   []models.RawRow        `json:"preview,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ProcessResult reports what one processed file added to the draft
type ProcessResult struct {
	Total     int                      `json:"total"`
	Added     int                      `json:"added"`
	Rejected  []models.ValidationError `json:"rejected"`
	LeadCount int                      `json:"lead_count"`
}

const previewRows = 5

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, Buffer: NewBuffer(), CreatedAt: now, UpdatedAt: now}
}

// Lock and Unlock guard every read and mutation of the session
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Snapshot must be called with the session locked
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		ID:        s.ID,
		Leads:     s.Buffer.Leads(),
		LeadCount: s.Buffer.Len(),
		State:     pipeline.StateIdle,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if a := s.Attempt; a != nil {
		snap.FileName = a.FileName
		snap.State = a.Machine.State()
		if a.Table != nil {
			snap.Headers = a.Table.Headers
			snap.Preview = a.Table.Preview(previewRows)
		}
		if a.Mapping != nil {
			snap.Mappings = a.Mapping.Mappings()
			snap.Custom = a.Mapping.CustomFields()
		}
	}
	return snap
}

// LoadFile parses data and proposes a mapping. A file loaded while the user is
// still mapping the previous one takes the mapping -> parsing back-edge; after
// a file was processed a new attempt starts from idle.
func (s *Session) LoadFile(fileName string, data []byte, newMachine func(pipeline.State) *pipeline.Machine) error {
	m := newMachine(pipeline.StateIdle)
	if s.Attempt != nil && s.Attempt.Machine.State() == pipeline.StateMapping {
		m = s.Attempt.Machine
	}
	if err := m.Transition(pipeline.StateParsing); err != nil {
		return err
	}

	attempt := &Attempt{FileName: fileName, Machine: m}
	s.Attempt = attempt

	table, err := parser.Parse(data)
	if err != nil {
		m.Fail()
		return err
	}
	attempt.Table = table
	attempt.Mapping = mapping.NewSet(table.Headers)
	return m.Transition(pipeline.StateMapping)
}

func (s *Session) mappingAttempt() (*Attempt, error) {
	if s.Attempt == nil || s.Attempt.Machine.State() != pipeline.StateMapping {
		return nil, ErrNoFile
	}
	return s.Attempt, nil
}

// DeclareCustomField adds a custom field to the current file's mapping
func (s *Session) DeclareCustomField(name string) error {
	a, err := s.mappingAttempt()
	if err != nil {
		return err
	}
	return a.Mapping.DeclareCustomField(name)
}

// OverrideMapping re-targets one column of the current file
func (s *Session) OverrideMapping(column, target string) error {
	a, err := s.mappingAttempt()
	if err != nil {
		return err
	}
	if err := a.Mapping.Override(column, target); err != nil {
		return err
	}
	return a.Machine.Transition(pipeline.StateMapping)
}

// ProcessFile normalizes and validates the current file against the leads
// already in the draft and appends the accepted ones. A missing email mapping
// leaves the attempt in mapping so the user can fix it.
func (s *Session) ProcessFile() (*ProcessResult, error) {
	a, err := s.mappingAttempt()
	if err != nil {
		return nil, err
	}
	if !a.Mapping.HasEmail() {
		return nil, &models.MappingError{Reason: models.ReasonNoEmailMapped}
	}

	a.Machine.Transition(pipeline.StateNormalizing)
	candidates, err := mapping.Normalize(a.Mapping.Mappings(), a.Table.Rows)
	if err != nil {
		a.Machine.Fail()
		return nil, err
	}

	a.Machine.Transition(pipeline.StateValidating)
	validator := validation.NewValidator()
	validator.SetExistingEmails(s.Buffer.Emails())
	result := validator.ValidateBatch(candidates)
	s.Buffer.Append(result.Accepted...)

	return &ProcessResult{
		Total:     len(candidates),
		Added:     len(result.Accepted),
		Rejected:  result.Rejected,
		LeadCount: s.Buffer.Len(),
	}, nil
}

// AddManual validates a single hand-entered contact against the draft
func (s *Session) AddManual(c models.Contact) (*models.ValidationError, error) {
	validator := validation.NewValidator()
	validator.SetExistingEmails(s.Buffer.Emails())
	accepted, verr := validator.ValidateContact(c, s.Buffer.Len()+1)
	if verr != nil {
		return verr, nil
	}
	s.Buffer.Append(accepted)
	return nil, nil
}

// ReplaceLeads validates a whole list and swaps it in. Rejected rows are not loaded.
func (s *Session) ReplaceLeads(contacts []models.Contact) []models.ValidationError {
	result := validation.NewValidator().ValidateBatch(contacts)
	s.Buffer.Replace(result.Accepted)
	return result.Rejected
}
