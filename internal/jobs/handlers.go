package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"
	"arxiv_pulse_go_backend/internal/utils/broker"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Handlers owns the worker side of every queue.
type Handlers struct {
	db        *gorm.DB
	arxiv     *services.ArxivService
	papers    *services.PaperService
	summaries *services.SummaryService
	analyses  *services.AnalysisService
	mentions  *services.MentionService
	bluesky   *services.BlueskyService
	reddit    *services.RedditService
	serper    *services.SerperService
	settings  *services.SettingsService
	batches   *services.BatchService
	enqueuer  *Enqueuer
	events    broker.Publisher
}

func NewHandlers(
	db *gorm.DB,
	arxiv *services.ArxivService,
	papers *services.PaperService,
	summaries *services.SummaryService,
	analyses *services.AnalysisService,
	mentions *services.MentionService,
	bluesky *services.BlueskyService,
	reddit *services.RedditService,
	serper *services.SerperService,
	settings *services.SettingsService,
	batches *services.BatchService,
	enqueuer *Enqueuer,
	events broker.Publisher,
) *Handlers {
	return &Handlers{
		db:        db,
		arxiv:     arxiv,
		papers:    papers,
		summaries: summaries,
		analyses:  analyses,
		mentions:  mentions,
		bluesky:   bluesky,
		reddit:    reddit,
		serper:    serper,
		settings:  settings,
		batches:   batches,
		enqueuer:  enqueuer,
		events:    events,
	}
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeArxivFetch, h.HandleArxivFetch)
	mux.HandleFunc(TypeBackfill, h.HandleArxivFetch)
	mux.HandleFunc(TypeSummary, h.HandleSummary)
	mux.HandleFunc(TypeAnalysis, h.HandleAnalysis)
	mux.HandleFunc(TypeAnalysisV3, h.HandleAnalysisV3)
	mux.HandleFunc(TypeSocialMonitor, h.HandleSocialMonitor)
	mux.HandleFunc(TypeNewsFetch, h.HandleNewsFetch)
}

// HandleArxivFetch ingests one category/date: upserts papers and authors,
// records the ingestion run, and fans out enrichment and mention sweeps for
// newly stored papers. Serves both the arxiv-fetch and backfill queues.
func (h *Handlers) HandleArxivFetch(ctx context.Context, t *asynq.Task) error {
	var payload FetchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid fetch payload: %v: %w", err, asynq.SkipRetry)
	}
	date, err := payload.ArxivDate()
	if err != nil {
		return fmt.Errorf("invalid fetch date: %v: %w", err, asynq.SkipRetry)
	}

	h.publish(ctx, t, broker.StageStarted, payload.Category+":"+payload.Date, "")

	run := models.IngestionRun{
		Queue:     t.Type(),
		Category:  payload.Category,
		ArxivDate: date,
		Status:    models.RunStatusRunning,
	}
	if err := h.db.Create(&run).Error; err != nil {
		return err
	}

	entries, err := h.arxiv.FetchCategoryForDate(ctx, payload.Category, date)
	if err != nil {
		h.finishRun(&run, 0, 0, models.RunStatusFailed, err.Error())
		h.publish(ctx, t, broker.StageFailed, payload.Category+":"+payload.Date, err.Error())
		return err
	}

	var newIDs []string
	var newPapers []*models.Paper
	stored := 0
	for _, entry := range entries {
		if entry.ArxivID == "" {
			continue
		}
		paper, created, err := h.papers.UpsertFromArxiv(entry)
		if err != nil {
			h.finishRun(&run, len(entries), stored, models.RunStatusFailed, err.Error())
			h.publish(ctx, t, broker.StageFailed, payload.Category+":"+payload.Date, err.Error())
			return err
		}
		stored++
		if created {
			newIDs = append(newIDs, entry.ArxivID)
			newPapers = append(newPapers, paper)
		}
	}

	h.finishRun(&run, len(entries), stored, models.RunStatusCompleted, "")

	aiEnabled, err := h.settings.AIProcessingEnabled()
	if err != nil {
		return err
	}
	if aiEnabled {
		if err := h.enqueuer.EnqueueEnrichment(newIDs); err != nil {
			return err
		}
		if err := h.recordEnrichmentBatch(t.Type(), newPapers); err != nil {
			return err
		}
	} else if len(newIDs) > 0 {
		log.Info().Int("papers", len(newIDs)).Msg("AI processing disabled, skipping enrichment enqueue")
	}
	if err := h.enqueuer.EnqueueMentionSweep(newIDs, time.Now().UTC()); err != nil {
		return err
	}

	log.Info().
		Str("category", payload.Category).
		Str("date", payload.Date).
		Int("found", len(entries)).
		Int("stored", stored).
		Int("new", len(newIDs)).
		Msg("ingestion run completed")
	h.publish(ctx, t, broker.StageCompleted, payload.Category+":"+payload.Date, fmt.Sprintf("%d new", len(newIDs)))
	return nil
}

func (h *Handlers) HandleSummary(ctx context.Context, t *asynq.Task) error {
	return h.runEnrichment(ctx, t, h.summaries.GenerateSummary)
}

func (h *Handlers) HandleAnalysis(ctx context.Context, t *asynq.Task) error {
	return h.runEnrichment(ctx, t, h.analyses.GenerateCardAnalysis)
}

func (h *Handlers) HandleAnalysisV3(ctx context.Context, t *asynq.Task) error {
	return h.runEnrichment(ctx, t, h.analyses.GenerateV3Analysis)
}

// runEnrichment wraps an LLM step with the shared skip semantics: already
// processed, AI disabled, and budget exhausted end the task without a retry,
// since retrying cannot change the outcome.
func (h *Handlers) runEnrichment(ctx context.Context, t *asynq.Task, generate func(context.Context, string) error) error {
	var payload PaperPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid paper payload: %v: %w", err, asynq.SkipRetry)
	}

	h.publish(ctx, t, broker.StageStarted, payload.ArxivID, "")

	err := generate(ctx, payload.ArxivID)
	switch {
	case err == nil:
		h.publish(ctx, t, broker.StageCompleted, payload.ArxivID, "")
		h.finishBatchJob(ctx, models.AnalysisStatusCompleted, "")
		return nil
	case errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrAIProcessingDisabled),
		errors.Is(err, services.ErrBudgetExhausted):
		log.Info().Str("queue", t.Type()).Str("arxiv_id", payload.ArxivID).Err(err).Msg("enrichment skipped")
		h.publish(ctx, t, broker.StageSkipped, payload.ArxivID, err.Error())
		h.finishBatchJob(ctx, models.AnalysisStatusSkipped, err.Error())
		return nil
	default:
		h.publish(ctx, t, broker.StageFailed, payload.ArxivID, err.Error())
		h.finishBatchJob(ctx, models.AnalysisStatusFailed, err.Error())
		return err
	}
}

func (h *Handlers) HandleSocialMonitor(ctx context.Context, t *asynq.Task) error {
	var payload PaperPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid paper payload: %v: %w", err, asynq.SkipRetry)
	}

	paper, err := h.papers.GetPaperByArxivID(payload.ArxivID)
	if err != nil {
		return fmt.Errorf("paper %s not found: %v: %w", payload.ArxivID, err, asynq.SkipRetry)
	}

	h.publish(ctx, t, broker.StageStarted, payload.ArxivID, "")

	var posts []services.SocialPost
	queries := []string{payload.ArxivID, paper.AbsURL}
	for _, query := range queries {
		found, err := h.bluesky.SearchPosts(ctx, query)
		if err != nil {
			return err
		}
		posts = append(posts, found...)
	}
	redditPosts, err := h.reddit.SearchPosts(ctx, payload.ArxivID)
	if err != nil {
		return err
	}
	posts = append(posts, redditPosts...)

	stored, err := h.mentions.UpsertSocialMentions(paper.ID, posts)
	if err != nil {
		return err
	}

	log.Info().Str("arxiv_id", payload.ArxivID).Int("found", len(posts)).Int("new", stored).Msg("social sweep completed")
	h.publish(ctx, t, broker.StageCompleted, payload.ArxivID, fmt.Sprintf("%d new mentions", stored))
	return nil
}

func (h *Handlers) HandleNewsFetch(ctx context.Context, t *asynq.Task) error {
	var payload PaperPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid paper payload: %v: %w", err, asynq.SkipRetry)
	}

	paper, err := h.papers.GetPaperByArxivID(payload.ArxivID)
	if err != nil {
		return fmt.Errorf("paper %s not found: %v: %w", payload.ArxivID, err, asynq.SkipRetry)
	}

	h.publish(ctx, t, broker.StageStarted, payload.ArxivID, "")

	query := fmt.Sprintf("\"%s\" OR \"arXiv:%s\"", paper.Title, payload.ArxivID)
	items, err := h.serper.SearchNews(ctx, query)
	if err != nil {
		return err
	}

	stored, err := h.mentions.UpsertNewsMentions(paper.ID, items)
	if err != nil {
		return err
	}

	log.Info().Str("arxiv_id", payload.ArxivID).Int("found", len(items)).Int("new", stored).Msg("news sweep completed")
	h.publish(ctx, t, broker.StageCompleted, payload.ArxivID, fmt.Sprintf("%d new articles", stored))
	return nil
}

func (h *Handlers) finishRun(run *models.IngestionRun, found, stored int, status, errMsg string) {
	run.PapersFound = found
	run.PapersStored = stored
	run.Status = status
	run.Error = errMsg
	run.FinishedAt = time.Now().UTC()
	if err := h.db.Save(run).Error; err != nil {
		log.Error().Err(err).Uint("run_id", run.ID).Msg("failed to finalize ingestion run")
	}
}

// recordEnrichmentBatch writes one analysis batch with a job row per enqueued
// enrichment task, keyed by the same idempotent task IDs the enqueuer used.
func (h *Handlers) recordEnrichmentBatch(requestedBy string, papers []*models.Paper) error {
	if h.batches == nil || len(papers) == 0 {
		return nil
	}
	rows := make([]models.AnalysisBatchJob, 0, len(papers)*3)
	for _, paper := range papers {
		for _, taskType := range []string{TypeSummary, TypeAnalysis, TypeAnalysisV3} {
			rows = append(rows, models.AnalysisBatchJob{
				PaperID: paper.ID,
				TaskID:  PaperTaskID(taskType, paper.ArxivID),
			})
		}
	}
	_, err := h.batches.RecordBatch("enrichment", requestedBy, rows)
	return err
}

// finishBatchJob resolves the batch job row for the current task, if the task
// belongs to a recorded batch. Batch bookkeeping never fails the task itself.
func (h *Handlers) finishBatchJob(ctx context.Context, status, errMsg string) {
	if h.batches == nil {
		return
	}
	taskID, ok := asynq.GetTaskID(ctx)
	if !ok {
		return
	}
	if err := h.batches.CompleteJob(taskID, status, errMsg); err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("failed to update batch job")
	}
}

func (h *Handlers) publish(ctx context.Context, t *asynq.Task, stage, subject, detail string) {
	if h.events == nil {
		return
	}
	taskID := ""
	if id, ok := asynq.GetTaskID(ctx); ok {
		taskID = id
	}
	h.events.Publish(TopicJobs, broker.JobEvent{
		Queue:      t.Type(),
		TaskID:     taskID,
		Stage:      stage,
		Subject:    subject,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}
