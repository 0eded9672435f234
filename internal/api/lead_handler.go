package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/service"
	"github.com/rs/zerolog"
)

// LeadHandler serves the contacts store endpoints
type LeadHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(services *service.Services, log zerolog.Logger) *LeadHandler {
	return &LeadHandler{
		services: services,
		log:      log.With().Str("handler", "lead").Logger(),
	}
}

// BulkImport handles POST /v1/leads/bulk
func (h *LeadHandler) BulkImport(c *gin.Context) {
	var req models.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.BulkImportResponse{Message: "invalid request body"})
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	resp, err := h.services.Lead.BulkImport(c.Request.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Int("leads", len(req.Leads)).Msg("Bulk import failed")
		c.JSON(http.StatusInternalServerError, models.BulkImportResponse{Message: "failed to import leads"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListLeads handles GET /v1/leads
func (h *LeadHandler) ListLeads(c *gin.Context) {
	leads, err := h.services.Lead.ListLeads(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list leads")
		c.JSON(http.StatusInternalServerError, models.ListLeadsResponse{Message: "failed to list leads"})
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}

	c.JSON(http.StatusOK, models.ListLeadsResponse{Success: true, Data: leads})
}

// Export handles GET /v1/leads/export?format=...
// Streams the export directly to the response
func (h *LeadHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "ndjson" && format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: csv, ndjson, json"})
		return
	}

	if err := h.services.Export.StreamLeads(c.Request.Context(), c.Writer, format); err != nil {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
	}
}
