package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/service"
	"github.com/rs/zerolog"
)

// DraftHandler serves the campaign wizard endpoints
type DraftHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "draft").Logger(),
	}
}

// Create handles POST /v1/drafts
func (h *DraftHandler) Create(c *gin.Context) {
	c.JSON(http.StatusCreated, h.services.Draft.Create())
}

// Get handles GET /v1/drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	snap, err := h.services.Draft.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UploadFile handles POST /v1/drafts/:id/files (multipart "file")
func (h *DraftHandler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Import.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)),
		})
		return
	}
	if !allowedUpload(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lead files must be .csv, .tsv or .txt"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Import.MaxUploadSize))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	snap, err := h.services.Draft.UploadFile(c.Param("id"), header.Filename, data)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeclareCustomField handles POST /v1/drafts/:id/custom-fields
func (h *DraftHandler) DeclareCustomField(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, err := h.services.Draft.DeclareCustomField(c.Param("id"), req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// OverrideMapping handles PUT /v1/drafts/:id/mappings
func (h *DraftHandler) OverrideMapping(c *gin.Context) {
	var req models.ColumnMapping
	if err := c.ShouldBindJSON(&req); err != nil || req.SourceColumn == "" || req.TargetField == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_column and target_field are required"})
		return
	}

	snap, err := h.services.Draft.OverrideMapping(c.Param("id"), req.SourceColumn, req.TargetField)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ProcessFile handles POST /v1/drafts/:id/process
func (h *DraftHandler) ProcessFile(c *gin.Context) {
	result, err := h.services.Draft.ProcessFile(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if result.Rejected == nil {
		result.Rejected = []models.ValidationError{}
	}
	c.JSON(http.StatusOK, result)
}

// AddLead handles POST /v1/drafts/:id/leads
func (h *DraftHandler) AddLead(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, rejected, err := h.services.Draft.AddLead(c.Param("id"), contact)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if rejected != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rejected.Message, "rejected": rejected})
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// ReplaceLeads handles PUT /v1/drafts/:id/leads
func (h *DraftHandler) ReplaceLeads(c *gin.Context) {
	var req struct {
		Leads []models.Contact `json:"leads"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, rejected, err := h.services.Draft.ReplaceLeads(c.Param("id"), req.Leads)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if rejected == nil {
		rejected = []models.ValidationError{}
	}
	c.JSON(http.StatusOK, gin.H{"draft": snap, "rejected": rejected})
}

// ClearLeads handles DELETE /v1/drafts/:id/leads
func (h *DraftHandler) ClearLeads(c *gin.Context) {
	if err := h.services.Draft.ClearLeads(c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveLead handles DELETE /v1/drafts/:id/leads/:email
func (h *DraftHandler) RemoveLead(c *gin.Context) {
	removed, err := h.services.Draft.RemoveLead(c.Param("id"), c.Param("email"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Submit handles POST /v1/drafts/:id/submit. Association problems are
// reported as warnings in a 201.
func (h *DraftHandler) Submit(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.services.Draft.Submit(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
