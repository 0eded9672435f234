package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a campaign, draft or job does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidInput marks a request that is malformed independent of stored state
var ErrInvalidInput = errors.New("invalid input")

// ParseError means the uploaded file cannot be used; the user must pick another file
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// Mapping error reasons
const (
	ReasonNoEmailMapped        = "no email column mapped"
	ReasonDuplicateCustomField = "duplicate custom field"
	ReasonEmptyCustomField     = "custom field name is required"
	ReasonUnknownColumn        = "unknown source column"
	ReasonUnknownTarget        = "unknown target field"
)

// MappingError is recoverable: the user corrects the mapping and retries
type MappingError struct {
	Reason string
	Field  string
}

func (e *MappingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mapping error: %s: %s", e.Reason, e.Field)
	}
	return "mapping error: " + e.Reason
}

// ImportError is a failed bulk-import call. Message carries the store's message.
type ImportError struct {
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	return "import error: " + e.Message
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ReconcileError is a failed re-fetch of the contacts store after an import
type ReconcileError struct {
	Err error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile error: %v", e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// AssociationError is a failed link-leads-to-campaign call
type AssociationError struct {
	CampaignID string
	Message    string
	Err        error
}

func (e *AssociationError) Error() string {
	return fmt.Sprintf("association error for campaign %s: %s", e.CampaignID, e.Message)
}

func (e *AssociationError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsMappingError reports whether err is or wraps a MappingError
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}
