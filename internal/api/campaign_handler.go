package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/service"
	"github.com/rs/zerolog"
)

// CampaignHandler serves the campaign store endpoints
type CampaignHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(services *service.Services, log zerolog.Logger) *CampaignHandler {
	return &CampaignHandler{
		services: services,
		log:      log.With().Str("handler", "campaign").Logger(),
	}
}

// CreateCampaign handles POST /v1/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.CampaignResponse{Message: "invalid request body"})
		return
	}

	campaign, err := h.services.Campaign.CreateCampaign(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, models.CampaignResponse{Message: err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("Failed to create campaign")
		c.JSON(http.StatusInternalServerError, models.CampaignResponse{Message: "failed to create campaign"})
		return
	}

	c.JSON(http.StatusCreated, models.CampaignResponse{Success: true, Data: campaign})
}

// GetCampaign handles GET /v1/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.services.Campaign.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.CampaignResponse{Message: "campaign not found"})
			return
		}
		h.log.Error().Err(err).Str("campaign_id", c.Param("id")).Msg("Failed to get campaign")
		c.JSON(http.StatusInternalServerError, models.CampaignResponse{Message: "failed to get campaign"})
		return
	}

	c.JSON(http.StatusOK, models.CampaignResponse{Success: true, Data: campaign})
}

// ListLeads handles GET /v1/campaigns/:id/leads
func (h *CampaignHandler) ListLeads(c *gin.Context) {
	leads, err := h.services.Campaign.CampaignLeads(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ListLeadsResponse{Message: "campaign not found"})
			return
		}
		h.log.Error().Err(err).Str("campaign_id", c.Param("id")).Msg("Failed to list campaign leads")
		c.JSON(http.StatusInternalServerError, models.ListLeadsResponse{Message: "failed to list campaign leads"})
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}

	c.JSON(http.StatusOK, models.ListLeadsResponse{Success: true, Data: leads})
}

// AddLeads handles POST /v1/campaigns/:id/leads. The path id wins over the
// body's campaignId.
func (h *CampaignHandler) AddLeads(c *gin.Context) {
	var req models.AddLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.AddLeadsResponse{Message: "invalid request body"})
		return
	}
	req.CampaignID = c.Param("id")

	resp, err := h.services.Campaign.AddLeads(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.AddLeadsResponse{Message: "campaign not found"})
			return
		}
		h.log.Error().Err(err).Str("campaign_id", req.CampaignID).Msg("Failed to add leads")
		c.JSON(http.StatusInternalServerError, models.AddLeadsResponse{Message: "failed to add leads"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
