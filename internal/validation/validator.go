package validation

import (
	"regexp"
	"strings"

	"github.com/lead-import-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Rejection reasons. Each rejected row carries exactly one.
const (
	MsgEmailRequired     = "email is required"
	MsgInvalidEmail      = "invalid email format"
	MsgDuplicateInBatch  = "duplicate email in batch"
	MsgDuplicateExisting = "email already exists"
)

// Result is the outcome of validating one batch of candidates
type Result struct {
	Accepted []models.Contact         `json:"accepted"`
	Rejected []models.ValidationError `json:"rejected"`
}

// Validator checks candidate contacts and removes duplicates. The existing set
// holds emails already present at the destination; the batch set holds every
// well-formed email seen so far by this validator.
type Validator struct {
	existing map[string]bool
	batch    map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		existing: make(map[string]bool),
		batch:    make(map[string]bool),
	}
}

// SetExistingEmails seeds the destination's current record set
func (v *Validator) SetExistingEmails(emails []string) {
	for _, e := range emails {
		v.existing[models.NormalizeEmail(e)] = true
	}
}

// IsValidEmail checks the local@domain.tld shape
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateContact checks one candidate. line is the 1-based row index used in
// the returned error. Accepted contacts are returned with a trimmed, lower-cased email.
func (v *Validator) ValidateContact(c models.Contact, line int) (models.Contact, *models.ValidationError) {
	email := strings.TrimSpace(c.Email)

	if email == "" {
		return c, &models.ValidationError{Line: line, Field: models.FieldEmail, Message: MsgEmailRequired}
	}
	if !IsValidEmail(email) {
		return c, &models.ValidationError{Line: line, Field: models.FieldEmail, Message: MsgInvalidEmail, Value: email}
	}

	key := strings.ToLower(email)
	if v.batch[key] {
		return c, &models.ValidationError{Line: line, Field: models.FieldEmail, Message: MsgDuplicateInBatch, Value: email}
	}
	v.batch[key] = true
	if v.existing[key] {
		return c, &models.ValidationError{Line: line, Field: models.FieldEmail, Message: MsgDuplicateExisting, Value: email}
	}

	c.Email = key
	return c, nil
}

// ValidateBatch checks candidates in row order. Row indexes start at 1.
// len(Accepted)+len(Rejected) always equals len(candidates).
func (v *Validator) ValidateBatch(candidates []models.Contact) *Result {
	result := &Result{
		Accepted: make([]models.Contact, 0, len(candidates)),
	}
	for i, c := range candidates {
		accepted, verr := v.ValidateContact(c, i+1)
		if verr != nil {
			result.Rejected = append(result.Rejected, *verr)
			continue
		}
		result.Accepted = append(result.Accepted, accepted)
	}
	return result
}
