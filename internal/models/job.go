package models

import (
	"time"
)

// JobStatus represents the status of an import job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeImport is a queued contact-list ingestion run through the full pipeline
	JobTypeImport JobType = "import"
	// JobTypeBulkImport records a synchronous bulk-import call for idempotent replay
	JobTypeBulkImport JobType = "bulk_import"
)

// Job represents a lead import job
type Job struct {
	ID             string     `json:"job_id" db:"id"`
	Type           JobType    `json:"type" db:"type"`
	Status         JobStatus  `json:"status" db:"status"`
	Stage          string     `json:"stage,omitempty" db:"stage"`
	IdempotencyKey string     `json:"idempotency_key,omitempty" db:"idempotency_key"`
	CampaignID     string     `json:"campaign_id,omitempty" db:"campaign_id"`
	FileName       string     `json:"file_name,omitempty" db:"file_name"`
	MappingJSON    string     `json:"-" db:"mapping"`
	TotalRecords   int        `json:"total_records" db:"total_records"`
	AcceptedCount  int        `json:"accepted" db:"accepted_count"`
	RejectedCount  int        `json:"rejected" db:"rejected_count"`
	ImportedCount  int        `json:"imported" db:"imported_count"`
	SkippedCount   int        `json:"skipped" db:"skipped_count"`
	LinkedCount    int        `json:"linked" db:"linked_count"`
	Warning        string     `json:"warning,omitempty" db:"warning"`
	ErrorMessage   string     `json:"error,omitempty" db:"error_message"`
	DurationMs     int64      `json:"duration_ms,omitempty" db:"duration_ms"`
	FilePath       string     `json:"-" db:"file_path"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ValidationError is one rejected row: its 1-based data row index and the reason
type ValidationError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// JobResponse is the API response for job status
type JobResponse struct {
	Job
	Errors      []ValidationError `json:"errors,omitempty"`
	ErrorCount  int               `json:"error_count,omitempty"`
	ErrorReport string            `json:"error_report_url,omitempty"`
}

// MappingInstructions are the caller's edits applied on top of the heuristic proposal
type MappingInstructions struct {
	CustomFields []string        `json:"custom_fields,omitempty"`
	Overrides    []ColumnMapping `json:"overrides,omitempty"`
}

// ImportRequest represents an import job request
type ImportRequest struct {
	CampaignID     string               `json:"campaign_id,omitempty" form:"campaign_id"`
	FileName       string               `json:"file_name,omitempty"`
	Mapping        *MappingInstructions `json:"mapping,omitempty"`
	IdempotencyKey string               `json:"-"` // From header
}
