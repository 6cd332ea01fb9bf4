package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/config"
	"github.com/modulbox/leadform-backend/internal/handler"
	"github.com/modulbox/leadform-backend/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// Setup configures all API routes. redisClient may be nil, which disables rate limiting.
func Setup(
	router *gin.Engine,
	draftHandler *handler.DraftHandler,
	leadHandler *handler.LeadHandler,
	adminHandler *handler.AdminHandler,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	uploadLimit := func(c *gin.Context) { c.Next() }
	submitLimit := func(c *gin.Context) { c.Next() }
	adminCache := middleware.AdminCacheConfig()
	invalidateAdmin := middleware.InvalidateOnSuccess(redisClient, adminCache.KeyPrefix)
	if redisClient != nil && !cfg.IsDevelopment() {
		uploadLimit = middleware.RateLimit(redisClient, middleware.UploadRateLimitConfig())
		submitLimit = middleware.RateLimit(redisClient, middleware.SubmitRateLimitConfig())
	}

	api := router.Group("/api/v1")

	// Wizard drafts
	drafts := api.Group("/drafts")
	drafts.POST("", draftHandler.Create)
	drafts.GET("/:id", draftHandler.Get)
	drafts.GET("/:id/budget", draftHandler.Budget)
	drafts.PUT("/:id/slots/:entity/:row/:slot", uploadLimit, draftHandler.AttachImage)
	drafts.DELETE("/:id/slots/:entity/:row/:slot", draftHandler.ClearSlot)
	drafts.DELETE("/:id/rows/:entity/:row", draftHandler.RemoveRow)
	drafts.POST("/:id/submit", submitLimit, invalidateAdmin, draftHandler.Submit)

	// Step validation and one-shot submission
	api.POST("/steps/:step/validate", leadHandler.ValidateStep)
	api.POST("/leads", submitLimit, invalidateAdmin, leadHandler.Submit)

	// Admin (X-API-Key)
	admin := api.Group("/admin", middleware.RequireAdminKey(cfg.Admin.APIKey), middleware.Cache(redisClient, adminCache))
	admin.GET("/leads", adminHandler.ListLeads)
	admin.GET("/leads/:id", adminHandler.GetLead)
}
