package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// leadCSVHeader is the column order of the CSV export. It re-imports with the
// heuristic mapping for every canonical column.
var leadCSVHeader = []string{
	"email", "first_name", "last_name", "company_name", "job_title", "phone", "website",
	"source", "created_at", "custom_fields",
}

// StreamLeads streams every stored lead in the specified format
func (s *exportService) StreamLeads(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting leads export")

	switch format {
	case "ndjson":
		return s.streamLeadsNDJSON(ctx, w)
	case "json":
		return s.streamLeadsJSON(ctx, w)
	case "csv":
		return s.streamLeadsCSV(ctx, w)
	default:
		return fmt.Errorf("%w: unsupported format: %s", models.ErrInvalidInput, format)
	}
}

func (s *exportService) streamLeadsNDJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Lead.StreamAll(ctx, func(lead *models.Lead) error {
		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Leads export completed")
	return err
}

func (s *exportService) streamLeadsJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.json")

	w.Write([]byte("["))
	count := 0

	err := s.repos.Lead.StreamAll(ctx, func(lead *models.Lead) error {
		if count > 0 {
			w.Write([]byte(","))
		}
		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})

	w.Write([]byte("]"))
	s.log.Info().Int("count", count).Msg("Leads export completed")
	return err
}

func (s *exportService) streamLeadsCSV(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(leadCSVHeader); err != nil {
		return err
	}

	count := 0
	err := s.repos.Lead.StreamAll(ctx, func(lead *models.Lead) error {
		record, err := leadCSVRecord(lead)
		if err != nil {
			return err
		}
		count++
		return writer.Write(record)
	})

	s.log.Info().Int("count", count).Msg("Leads export completed")
	return err
}

func leadCSVRecord(lead *models.Lead) ([]string, error) {
	custom := ""
	if len(lead.CustomFields) > 0 {
		raw, err := json.Marshal(lead.CustomFields)
		if err != nil {
			return nil, err
		}
		custom = string(raw)
	}
	return []string{
		lead.Email, lead.FirstName, lead.LastName, lead.CompanyName, lead.JobTitle,
		lead.Phone, lead.Website, lead.Source, lead.CreatedAt.Format(time.RFC3339), custom,
	}, nil
}

// GetCount returns the number of stored leads or campaigns
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "leads":
		return s.repos.Lead.Count(ctx)
	case "campaigns":
		return s.repos.Campaign.Count(ctx)
	default:
		return 0, fmt.Errorf("%w: unknown resource: %s", models.ErrInvalidInput, resource)
	}
}
