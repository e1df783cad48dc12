package main

import (
	"log"
	"time"

	"arxiv_pulse_go_backend/internal/config"
	"arxiv_pulse_go_backend/internal/database"
	"arxiv_pulse_go_backend/internal/jobs"
	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"
	"arxiv_pulse_go_backend/internal/utils/broker"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

// resweepInterval controls how often recent papers get a fresh mention sweep.
const resweepInterval = 6 * time.Hour

// resweepWindowDays bounds the re-sweep to papers still likely to be discussed.
const resweepWindowDays = 7

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database.InitDB(cfg)

	// Initial parameters for services
	arxivAPIBaseURL := "http://export.arxiv.org/api/query"
	pdfBaseURL := "https://arxiv.org/pdf/"
	blueskyBaseURL := "https://public.api.bsky.app"
	redditBaseURL := "https://www.reddit.com"
	serperBaseURL := "https://google.serper.dev"
	fullTextMaxChars := 120000

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Lifecycle events go over Redis so the API process can stream them to
	// websocket clients.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	events := broker.NewRedisPublisher(rdb)
	enqueuer := jobs.NewEnqueuer(asynqClient, cfg.EnqueueStagger, events)

	// Initialize internal services
	arxivService := services.NewArxivService(arxivAPIBaseURL)
	paperService := services.NewPaperService(database.DB)
	fullTextService := services.NewFullTextService(pdfBaseURL, fullTextMaxChars)
	settingsService := services.NewSettingsService(database.DB)
	budgetService := services.NewBudgetService(database.DB, cfg.MonthlyBudgetUSD)
	llmService := services.NewOpenRouterService(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL)
	summaryService := services.NewSummaryService(database.DB, llmService, cfg.SummaryModel, budgetService, settingsService)
	analysisService := services.NewAnalysisService(database.DB, llmService, cfg.AnalysisModel, fullTextService, budgetService, settingsService)
	mentionService := services.NewMentionService(database.DB)
	blueskyService := services.NewBlueskyService(blueskyBaseURL)
	redditService := services.NewRedditService(redditBaseURL, cfg.RedditUserAgent)
	serperService := services.NewSerperService(serperBaseURL, cfg.SerperAPIKey)
	batchService := services.NewBatchService(database.DB)

	handlers := jobs.NewHandlers(
		database.DB,
		arxivService,
		paperService,
		summaryService,
		analysisService,
		mentionService,
		blueskyService,
		redditService,
		serperService,
		settingsService,
		batchService,
		enqueuer,
		events,
	)

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      jobs.QueuePriorities(),
	})

	// Daily ingestion: weekday mornings UTC, one entry per configured
	// category. The empty payload date resolves to yesterday at run time.
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	for _, category := range cfg.ArxivCategories {
		task, err := jobs.NewScheduledFetchTask(category)
		if err != nil {
			log.Fatalf("Failed to build fetch task for %s: %v", category, err)
		}
		if _, err := scheduler.Register("0 6 * * 1-5", task,
			asynq.Queue(jobs.TypeArxivFetch), asynq.MaxRetry(3)); err != nil {
			log.Fatalf("Failed to register schedule for %s: %v", category, err)
		}
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("Scheduler failed: %v", err)
		}
	}()

	go resweepLoop(enqueuer)

	log.Printf("Worker starting, concurrency %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

// resweepLoop periodically re-enqueues mention sweeps for papers published in
// the last week, so late discussion still gets captured.
func resweepLoop(enqueuer *jobs.Enqueuer) {
	ticker := time.NewTicker(resweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().UTC().AddDate(0, 0, -resweepWindowDays)

		var arxivIDs []string
		if err := database.DB.Model(&models.Paper{}).
			Where("published_at >= ?", cutoff).
			Pluck("arxiv_id", &arxivIDs).Error; err != nil {
			zlog.Error().Err(err).Msg("mention re-sweep query failed")
			continue
		}

		if err := enqueuer.EnqueueMentionSweep(arxivIDs, time.Now().UTC()); err != nil {
			zlog.Error().Err(err).Msg("mention re-sweep enqueue failed")
		}
	}
}
