package api

import (
	"arxiv_pulse_go_backend/internal/auth"
	"arxiv_pulse_go_backend/internal/config"
	"arxiv_pulse_go_backend/internal/jobs"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the route handlers need.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Papers   *services.PaperService
	Authors  *services.AuthorService
	Users    *services.UserService
	Feed     *services.FeedService
	Mentions *services.MentionService
	Refs     *services.ReferenceLoader
	Settings *services.SettingsService
	Budget   *services.BudgetService
	Batches  *services.BatchService
	Queues   *jobs.QueueService
	Stats    *jobs.StatsService
	Enqueuer *jobs.Enqueuer
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	api := r.Group("/api")
	{
		api.GET("/papers", listPapersHandler(deps))
		api.GET("/papers/:arxiv_id", getPaperHandler(deps))
		api.GET("/papers/:arxiv_id/references", getPaperReferencesHandler(deps))
		api.GET("/papers/:arxiv_id/mentions", getPaperMentionsHandler(deps))

		api.GET("/authors/discover", discoverAuthorsHandler(deps))
		api.GET("/authors/:id", getAuthorHandler(deps))
		api.GET("/authors/:id/papers", getAuthorPapersHandler(deps))
	}

	user := r.Group("/api/user", auth.AuthMiddleware())
	{
		user.GET("/saved-papers", listSavedPapersHandler(deps))
		user.POST("/saved-papers/:arxiv_id", savePaperHandler(deps))
		user.DELETE("/saved-papers/:arxiv_id", unsavePaperHandler(deps))

		user.GET("/followed-authors", listFollowedAuthorsHandler(deps))
		user.POST("/followed-authors/:id", followAuthorHandler(deps))
		user.DELETE("/followed-authors/:id", unfollowAuthorHandler(deps))

		user.GET("/preferences", getPreferencesHandler(deps))
		user.PUT("/preferences", updatePreferencesHandler(deps))
	}

	r.GET("/api/feed", auth.AuthMiddleware(), feedHandler(deps))

	admin := r.Group("/api/admin", auth.AdminMiddleware(deps.Cfg.AdminKey))
	{
		admin.GET("/queues", queueStatsHandler(deps))
		admin.POST("/queues/:queue/retry", retryQueueHandler(deps))
		admin.GET("/ai-processing", getAIProcessingHandler(deps))
		admin.POST("/ai-processing", setAIProcessingHandler(deps))
		admin.GET("/spending", spendingHandler(deps))
		admin.GET("/paper-stats", paperStatsHandler(deps))
		admin.POST("/backfill", backfillHandler(deps))
		admin.POST("/ingest", ingestHandler(deps))
		admin.POST("/migrate", migrateHandler(deps))
	}
}
