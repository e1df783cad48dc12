package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"arxiv_pulse_go_backend/internal/api"
	"arxiv_pulse_go_backend/internal/auth"
	"arxiv_pulse_go_backend/internal/config"
	"arxiv_pulse_go_backend/internal/database"
	"arxiv_pulse_go_backend/internal/jobs"
	"arxiv_pulse_go_backend/internal/services"
	"arxiv_pulse_go_backend/internal/utils/broker"
	"arxiv_pulse_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

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
	eprintBaseURL := "https://arxiv.org/e-print/"
	openalexBaseURL := "https://api.openalex.org"
	orcidBaseURL := "https://pub.orcid.org/v3.0"

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	events := broker.NewBroker()
	enqueuer := jobs.NewEnqueuer(asynqClient, cfg.EnqueueStagger, events)

	// The worker publishes lifecycle events over Redis; relay them into the
	// local broker so websocket clients see the whole pipeline.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	go broker.Relay(context.Background(), rdb, jobs.TopicJobs, events)

	// Initialize internal services
	paperService := services.NewPaperService(database.DB)
	referenceLoader := services.NewReferenceLoader(eprintBaseURL)
	openalexService := services.NewOpenAlexService(openalexBaseURL)
	orcidService := services.NewOrcidService(orcidBaseURL)
	authorService := services.NewAuthorService(database.DB, openalexService, orcidService)
	userService := services.NewUserService(database.DB)
	feedService := services.NewFeedService(database.DB)
	mentionService := services.NewMentionService(database.DB)
	settingsService := services.NewSettingsService(database.DB)
	budgetService := services.NewBudgetService(database.DB, cfg.MonthlyBudgetUSD)
	batchService := services.NewBatchService(database.DB)
	queueService := jobs.NewQueueService(redisOpt)
	statsService := jobs.NewStatsService(database.DB)

	r := gin.Default()

	// CORS middleware configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, api.Deps{
		Cfg:      cfg,
		DB:       database.DB,
		Papers:   paperService,
		Authors:  authorService,
		Users:    userService,
		Feed:     feedService,
		Mentions: mentionService,
		Refs:     referenceLoader,
		Settings: settingsService,
		Budget:   budgetService,
		Batches:  batchService,
		Queues:   queueService,
		Stats:    statsService,
		Enqueuer: enqueuer,
	})
	auth.SetupRoutes(r)

	// WebSocket upgrader
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // TODO: Implement a more secure check in production
		},
	}

	wsHandler := wsocket.NewHandler(events, upgrader)
	r.GET("/ws/admin/jobs", auth.AdminMiddleware(cfg.AdminKey), func(c *gin.Context) {
		wsHandler.HandleJobStream(c.Writer, c.Request)
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
