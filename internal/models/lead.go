package models

import (
	"strings"
	"time"
)

// Canonical contact fields recognized natively by the contacts store
const (
	FieldEmail       = "email"
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldCompanyName = "companyName"
	FieldJobTitle    = "jobTitle"
	FieldPhone       = "phone"
	FieldWebsite     = "website"

	// DoNotImport marks a source column that is dropped during normalization
	DoNotImport = "do_not_import"
)

// CanonicalFields lists the canonical fields in display order
var CanonicalFields = []string{
	FieldEmail,
	FieldFirstName,
	FieldLastName,
	FieldCompanyName,
	FieldJobTitle,
	FieldPhone,
	FieldWebsite,
}

// IsCanonicalField reports whether name is one of the canonical contact fields
func IsCanonicalField(name string) bool {
	for _, f := range CanonicalFields {
		if f == name {
			return true
		}
	}
	return false
}

// RawRow is one CSV data line keyed by source column name
type RawRow map[string]string

// ColumnMapping assigns one source column to a canonical field, a custom field,
// or DoNotImport
type ColumnMapping struct {
	SourceColumn string `json:"source_column"`
	TargetField  string `json:"target_field"`
	IsCustom     bool   `json:"is_custom"`
}

// Contact is a canonical contact record produced by normalization
type Contact struct {
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name,omitempty"`
	LastName     string            `json:"last_name,omitempty"`
	CompanyName  string            `json:"company_name,omitempty"`
	JobTitle     string            `json:"job_title,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Website      string            `json:"website,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// Key returns the deduplication identity of the contact
func (c *Contact) Key() string {
	return NormalizeEmail(c.Email)
}

// SetField assigns a canonical field by name. Unknown names are ignored.
func (c *Contact) SetField(field, value string) {
	switch field {
	case FieldEmail:
		c.Email = value
	case FieldFirstName:
		c.FirstName = value
	case FieldLastName:
		c.LastName = value
	case FieldCompanyName:
		c.CompanyName = value
	case FieldJobTitle:
		c.JobTitle = value
	case FieldPhone:
		c.Phone = value
	case FieldWebsite:
		c.Website = value
	}
}

// Field returns the value of a canonical field by name
func (c *Contact) Field(field string) string {
	switch field {
	case FieldEmail:
		return c.Email
	case FieldFirstName:
		return c.FirstName
	case FieldLastName:
		return c.LastName
	case FieldCompanyName:
		return c.CompanyName
	case FieldJobTitle:
		return c.JobTitle
	case FieldPhone:
		return c.Phone
	case FieldWebsite:
		return c.Website
	}
	return ""
}

// Lead is a contact persisted by the contacts store
type Lead struct {
	ID           string            `json:"id" db:"id"`
	Email        string            `json:"email" db:"email"`
	FirstName    string            `json:"first_name,omitempty" db:"first_name"`
	LastName     string            `json:"last_name,omitempty" db:"last_name"`
	CompanyName  string            `json:"company_name,omitempty" db:"company_name"`
	JobTitle     string            `json:"job_title,omitempty" db:"job_title"`
	Phone        string            `json:"phone,omitempty" db:"phone"`
	Website      string            `json:"website,omitempty" db:"website"`
	CustomFields map[string]string `json:"custom_fields,omitempty" db:"-"`
	Source       string            `json:"source,omitempty" db:"source"`
	FileName     string            `json:"file_name,omitempty" db:"file_name"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// Contact returns the canonical fields of the lead
func (l *Lead) Contact() Contact {
	return Contact{
		Email:        l.Email,
		FirstName:    l.FirstName,
		LastName:     l.LastName,
		CompanyName:  l.CompanyName,
		JobTitle:     l.JobTitle,
		Phone:        l.Phone,
		Website:      l.Website,
		CustomFields: l.CustomFields,
	}
}

// LeadPayload is one lead on the bulk-import wire format
type LeadPayload struct {
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	CompanyName  string            `json:"company_name"`
	JobTitle     string            `json:"job_title"`
	Phone        string            `json:"phone"`
	Website      string            `json:"website"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// PayloadFromContact converts a canonical contact into its wire form
func PayloadFromContact(c Contact) LeadPayload {
	return LeadPayload{
		Email:        c.Email,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		CompanyName:  c.CompanyName,
		JobTitle:     c.JobTitle,
		Phone:        c.Phone,
		Website:      c.Website,
		CustomFields: c.CustomFields,
	}
}

// Contact converts the wire form back into a canonical contact
func (p LeadPayload) Contact() Contact {
	return Contact{
		Email:        strings.TrimSpace(p.Email),
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		CompanyName:  strings.TrimSpace(p.CompanyName),
		JobTitle:     strings.TrimSpace(p.JobTitle),
		Phone:        strings.TrimSpace(p.Phone),
		Website:      strings.TrimSpace(p.Website),
		CustomFields: p.CustomFields,
	}
}

// DuplicateChecks controls store-side duplicate handling
type DuplicateChecks struct {
	Workspace bool `json:"workspace"`
}

// BulkImportRequest is the contacts store bulk-import call
type BulkImportRequest struct {
	Leads           []LeadPayload     `json:"leads"`
	ColumnMapping   map[string]string `json:"columnMapping"`
	FileName        string            `json:"fileName"`
	DuplicateChecks DuplicateChecks   `json:"duplicateChecks"`
	Source          string            `json:"source,omitempty"`
	IdempotencyKey  string            `json:"-"`
}

// BulkImportData carries the bulk-import counts
type BulkImportData struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// BulkImportResponse is the contacts store bulk-import reply
type BulkImportResponse struct {
	Success bool            `json:"success"`
	Data    *BulkImportData `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ImportCounts reports the outcome of a bulk import
type ImportCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// NormalizeEmail trims and lower-cases an email for identity comparisons
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ListLeadsResponse is the contacts store list call reply
type ListLeadsResponse struct {
	Success bool    `json:"success"`
	Data    []*Lead `json:"data"`
	Message string  `json:"message,omitempty"`
}
