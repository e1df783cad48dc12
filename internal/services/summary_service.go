package services

import (
	"context"
	"errors"
	"fmt"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// Sentinel errors the job handlers use to skip rather than retry.
var (
	ErrAIProcessingDisabled = errors.New("ai processing is disabled")
	ErrBudgetExhausted      = errors.New("monthly llm budget exhausted")
	ErrAlreadyProcessed     = errors.New("paper already processed")
)

const summarySystemPrompt = `You summarize arXiv papers for a research news feed.
Write two to three plain sentences for a technical reader: what the paper does
and why it matters. No markdown, no preamble.`

// SummaryService produces the short prose summary stored on the paper row.
type SummaryService struct {
	db       *gorm.DB
	llm      LLMClient
	model    string
	budget   *BudgetService
	settings *SettingsService
}

func NewSummaryService(db *gorm.DB, llm LLMClient, model string, budget *BudgetService, settings *SettingsService) *SummaryService {
	return &SummaryService{
		db:       db,
		llm:      llm,
		model:    model,
		budget:   budget,
		settings: settings,
	}
}

// GenerateSummary writes papers.ai_summary for the given arXiv ID. Idempotent:
// a paper that already has a summary is skipped.
func (s *SummaryService) GenerateSummary(ctx context.Context, arxivID string) error {
	var paper models.Paper
	if err := s.db.Where("arxiv_id = ?", arxivID).First(&paper).Error; err != nil {
		return fmt.Errorf("paper %s not found: %w", arxivID, err)
	}
	if paper.AISummary != "" {
		return ErrAlreadyProcessed
	}

	if err := checkAIGate(s.settings, s.budget); err != nil {
		return err
	}

	user := fmt.Sprintf("Title: %s\n\nAbstract:\n%s", paper.Title, paper.Abstract)
	result, err := s.llm.Complete(ctx, s.model, summarySystemPrompt, user)
	if err != nil {
		return fmt.Errorf("failed to generate summary for %s: %w", arxivID, err)
	}

	if err := s.db.Model(&paper).Update("ai_summary", result.Content).Error; err != nil {
		return err
	}

	if _, err := s.budget.RecordSpend("summary", s.model, paper.ID, result.TokensIn, result.TokensOut); err != nil {
		return err
	}
	return nil
}

// checkAIGate enforces the runtime toggle and the monthly budget before any
// LLM call. Shared by the summary and analysis services.
func checkAIGate(settings *SettingsService, budget *BudgetService) error {
	enabled, err := settings.AIProcessingEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return ErrAIProcessingDisabled
	}

	allowed, err := budget.Allows()
	if err != nil {
		return err
	}
	if !allowed {
		return ErrBudgetExhausted
	}
	return nil
}
