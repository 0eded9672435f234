package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lead-import-api/internal/config"
	"github.com/lead-import-api/internal/draft"
	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/service"
	"github.com/rs/zerolog"
)

// HealthChecker is the database view used by /health and /metrics
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, db HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	leadHandler := NewLeadHandler(services, log)
	campaignHandler := NewCampaignHandler(services, log)
	draftHandler := NewDraftHandler(services, cfg, log)
	importHandler := NewImportHandler(services, cfg, log)

	router.GET("/health", healthCheck(db))
	router.GET("/metrics", metricsHandler(services, db))

	// API v1
	v1 := router.Group("/v1")
	{
		// Contacts store
		leads := v1.Group("/leads")
		{
			leads.POST("/bulk", leadHandler.BulkImport)
			leads.GET("", leadHandler.ListLeads)
			leads.GET("/export", leadHandler.Export)
		}

		// Campaign store
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/leads", campaignHandler.ListLeads)
			campaigns.POST("/:id/leads", campaignHandler.AddLeads)
		}

		// Campaign wizard
		drafts := v1.Group("/drafts")
		{
			drafts.POST("", draftHandler.Create)
			drafts.GET("/:id", draftHandler.Get)
			drafts.POST("/:id/files", draftHandler.UploadFile)
			drafts.POST("/:id/custom-fields", draftHandler.DeclareCustomField)
			drafts.PUT("/:id/mappings", draftHandler.OverrideMapping)
			drafts.POST("/:id/process", draftHandler.ProcessFile)
			drafts.POST("/:id/leads", draftHandler.AddLead)
			drafts.PUT("/:id/leads", draftHandler.ReplaceLeads)
			drafts.DELETE("/:id/leads", draftHandler.ClearLeads)
			drafts.DELETE("/:id/leads/:email", draftHandler.RemoveLead)
			drafts.POST("/:id/submit", draftHandler.Submit)
		}

		// Queued imports
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.CreateImport)
			imports.GET("/:job_id", importHandler.GetImportStatus)
			imports.GET("/:job_id/errors", importHandler.GetImportErrors)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := contextWithTimeout(c, 2*time.Second)
		defer cancel()

		status, code, dbStatus := "healthy", http.StatusOK, "up"
		if err := db.HealthCheck(ctx); err != nil {
			status, code, dbStatus = "unhealthy", http.StatusServiceUnavailable, "down"
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  dbStatus,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "lead-import-api",
		})
	}
}

// metricsHandler returns store counts and connection pool stats
func metricsHandler(services *service.Services, db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		leadsCount, _ := services.Export.GetCount(ctx, "leads")
		campaignsCount, _ := services.Export.GetCount(ctx, "campaigns")
		stats := db.Stats()

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"leads":     leadsCount,
				"campaigns": campaignsCount,
			},
			"pool": gin.H{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
				"wait_count":       stats.WaitCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// respondError maps service errors to status codes
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var parseErr *models.ParseError
	var mappingErr *models.MappingError
	var importErr *models.ImportError

	switch {
	case errors.As(err, &parseErr), errors.As(err, &mappingErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, draft.ErrNoFile):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &importErr):
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Contacts store call failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
