package api

import (
	"fmt"
	"time"

	"arxiv_pulse_go_backend/internal/database"
	apperrors "arxiv_pulse_go_backend/internal/errors"
	"arxiv_pulse_go_backend/internal/jobs"

	"github.com/gin-gonic/gin"
)

func queueStatsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := deps.Queues.Stats()
		if err != nil {
			apperrors.HandleError(c, apperrors.New503Error("queue backend unavailable: "+err.Error()))
			return
		}

		runs, err := deps.Stats.RecentRuns(20)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		batches, err := deps.Batches.RecentBatches(10)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(200, gin.H{"queues": stats, "recent_runs": runs, "recent_batches": batches})
	}
}

func retryQueueHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		queue := c.Param("queue")
		if !jobs.KnownQueue(queue) {
			apperrors.HandleError(c, apperrors.New404Error(fmt.Sprintf("unknown queue %q", queue)))
			return
		}

		n, err := deps.Queues.RetryFailed(queue)
		if err != nil {
			apperrors.HandleError(c, apperrors.New503Error("queue backend unavailable: "+err.Error()))
			return
		}
		c.JSON(200, gin.H{"queue": queue, "retried": n})
	}
}

func getAIProcessingHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		enabled, err := deps.Settings.AIProcessingEnabled()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"enabled": enabled})
	}
}

func setAIProcessingHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Enabled *bool `json:"enabled" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("enabled boolean is required"))
			return
		}

		if err := deps.Settings.SetAIProcessing(*request.Enabled); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"enabled": *request.Enabled})
	}
}

func spendingHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := deps.Budget.SpendingReport()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		monthToDate, err := deps.Budget.MonthToDateSpend()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"rows":                 report,
			"month_to_date_usd":    monthToDate,
			"monthly_budget_usd":   deps.Budget.MonthlyBudget(),
			"remaining_budget_usd": deps.Budget.MonthlyBudget() - monthToDate,
		})
	}
}

// paperStatsHandler reports per-day ingest counts over a validated date range
// and flags days that look like missed ingestion.
func paperStatsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		if from == nil || to == nil {
			apperrors.HandleError(c, apperrors.New400Error("from and to dates are required"))
			return
		}

		counts, gaps, err := deps.Stats.GapsInRange(*from, *to, c.Query("category"))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		gapDays := make([]string, 0, len(gaps))
		for _, day := range gaps {
			gapDays = append(gapDays, day.Format("2006-01-02"))
		}
		c.JSON(200, gin.H{"daily_counts": counts, "gaps": gapDays})
	}
}

// backfillHandler enqueues backfill runs, either for explicit dates or for
// every detected gap in the range.
func backfillHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Category string   `json:"category" binding:"required"`
			Dates    []string `json:"dates"`
			From     string   `json:"from"`
			To       string   `json:"to"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		var dates []time.Time
		if len(request.Dates) > 0 {
			for _, d := range request.Dates {
				day, err := time.Parse("2006-01-02", d)
				if err != nil {
					apperrors.HandleError(c, apperrors.New400Error(fmt.Sprintf("invalid date %q", d)))
					return
				}
				dates = append(dates, day)
			}
		} else {
			from, to, err := parseDateRange(request.From, request.To)
			if err != nil {
				apperrors.HandleError(c, apperrors.New400Error(err.Error()))
				return
			}
			if from == nil || to == nil {
				apperrors.HandleError(c, apperrors.New400Error("dates or a from/to range is required"))
				return
			}
			_, gaps, err := deps.Stats.GapsInRange(*from, *to, request.Category)
			if err != nil {
				apperrors.HandleError(c, err)
				return
			}
			dates = gaps
		}

		for _, day := range dates {
			if err := deps.Enqueuer.EnqueueFetch(jobs.TypeBackfill, request.Category, day); err != nil {
				apperrors.HandleError(c, err)
				return
			}
		}
		c.JSON(200, gin.H{"enqueued": len(dates)})
	}
}

func ingestHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Categories []string `json:"categories"`
			Date       string   `json:"date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		day, err := time.Parse("2006-01-02", request.Date)
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error("invalid date, expected YYYY-MM-DD"))
			return
		}

		categories := request.Categories
		if len(categories) == 0 {
			categories = deps.Cfg.ArxivCategories
		}
		for _, category := range categories {
			if err := deps.Enqueuer.EnqueueFetch(jobs.TypeArxivFetch, category, day); err != nil {
				apperrors.HandleError(c, err)
				return
			}
		}
		c.JSON(200, gin.H{"enqueued": len(categories)})
	}
}

func migrateHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Migrate(deps.DB); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Migration completed"})
	}
}
