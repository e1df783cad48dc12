package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// V3SchemaVersion tags rows in paper_analyses_v3; bumping it allows papers to
// be re-analyzed under a new schema without losing the old rows.
const V3SchemaVersion = "3.0"

// CardAnalysis is the structured card payload rendered in paper lists.
type CardAnalysis struct {
	TLDR         string   `json:"tldr"`
	KeyFindings  []string `json:"key_findings"`
	Method       string   `json:"method"`
	Significance string   `json:"significance"`
}

// V3Analysis is the DTL-P structured analysis payload.
type V3Analysis struct {
	SchemaVersion string   `json:"schema_version"`
	Problem       string   `json:"problem"`
	Approach      string   `json:"approach"`
	Evidence      []string `json:"evidence"`
	Limitations   []string `json:"limitations"`
	Audience      []string `json:"audience"`
	ImpactScore   int      `json:"impact_score"` // 1..10
}

const cardSystemPrompt = `You analyze arXiv papers. Respond with a single JSON
object with keys: tldr (string, one sentence), key_findings (array of strings,
at most four), method (string), significance (string). No other keys.`

const v3SystemPrompt = `You produce a structured DTL-P analysis of an arXiv
paper from its full text. Respond with a single JSON object with keys:
schema_version (string, "3.0"), problem, approach (strings), evidence,
limitations, audience (arrays of strings), impact_score (integer 1-10).
No other keys.`

// AnalysisService produces the card analyses and the v3 DTL-P analyses.
type AnalysisService struct {
	db       *gorm.DB
	llm      LLMClient
	model    string
	fulltext *FullTextService
	budget   *BudgetService
	settings *SettingsService
}

func NewAnalysisService(db *gorm.DB, llm LLMClient, model string, fulltext *FullTextService, budget *BudgetService, settings *SettingsService) *AnalysisService {
	return &AnalysisService{
		db:       db,
		llm:      llm,
		model:    model,
		fulltext: fulltext,
		budget:   budget,
		settings: settings,
	}
}

// GenerateCardAnalysis creates the per-paper card. One card per paper; an
// existing completed card makes this a no-op.
func (s *AnalysisService) GenerateCardAnalysis(ctx context.Context, arxivID string) error {
	var paper models.Paper
	if err := s.db.Where("arxiv_id = ?", arxivID).First(&paper).Error; err != nil {
		return fmt.Errorf("paper %s not found: %w", arxivID, err)
	}

	var existing models.PaperCardAnalysis
	err := s.db.Where("paper_id = ? AND status = ?", paper.ID, models.AnalysisStatusCompleted).First(&existing).Error
	if err == nil {
		return ErrAlreadyProcessed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := checkAIGate(s.settings, s.budget); err != nil {
		return err
	}

	user := fmt.Sprintf("Title: %s\n\nAbstract:\n%s", paper.Title, paper.Abstract)
	result, err := s.llm.CompleteJSON(ctx, s.model, cardSystemPrompt, user)
	if err != nil {
		return fmt.Errorf("failed to generate card analysis for %s: %w", arxivID, err)
	}

	var card CardAnalysis
	if err := json.Unmarshal([]byte(result.Content), &card); err != nil {
		return fmt.Errorf("card analysis for %s is not valid JSON: %w", arxivID, err)
	}
	payload, _ := json.Marshal(card)

	analysis := models.PaperCardAnalysis{
		PaperID:     paper.ID,
		ModelName:   s.model,
		Status:      models.AnalysisStatusCompleted,
		Payload:     payload,
		TokensIn:    result.TokensIn,
		TokensOut:   result.TokensOut,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.db.Where(models.PaperCardAnalysis{PaperID: paper.ID}).
		Assign(analysis).
		FirstOrCreate(&models.PaperCardAnalysis{}).Error; err != nil {
		return err
	}

	if _, err := s.budget.RecordSpend("analysis", s.model, paper.ID, result.TokensIn, result.TokensOut); err != nil {
		return err
	}
	return nil
}

// GenerateV3Analysis creates the DTL-P analysis from the extracted full text.
// Unique per (paper, schema version).
func (s *AnalysisService) GenerateV3Analysis(ctx context.Context, arxivID string) error {
	var paper models.Paper
	if err := s.db.Where("arxiv_id = ?", arxivID).First(&paper).Error; err != nil {
		return fmt.Errorf("paper %s not found: %w", arxivID, err)
	}

	var existing models.PaperAnalysisV3
	err := s.db.Where("paper_id = ? AND schema_version = ? AND status = ?",
		paper.ID, V3SchemaVersion, models.AnalysisStatusCompleted).First(&existing).Error
	if err == nil {
		return ErrAlreadyProcessed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := checkAIGate(s.settings, s.budget); err != nil {
		return err
	}

	text, err := s.fulltext.ExtractPaperText(arxivID)
	if err != nil {
		// Scanned or source-only papers have no extractable text; fall back
		// to the abstract rather than failing the job.
		text = paper.Abstract
	}

	user := fmt.Sprintf("Title: %s\n\nFull text:\n%s", paper.Title, text)
	result, err := s.llm.CompleteJSON(ctx, s.model, v3SystemPrompt, user)
	if err != nil {
		return fmt.Errorf("failed to generate v3 analysis for %s: %w", arxivID, err)
	}

	var v3 V3Analysis
	if err := json.Unmarshal([]byte(result.Content), &v3); err != nil {
		return fmt.Errorf("v3 analysis for %s is not valid JSON: %w", arxivID, err)
	}
	if v3.SchemaVersion == "" {
		v3.SchemaVersion = V3SchemaVersion
	}
	payload, _ := json.Marshal(v3)

	analysis := models.PaperAnalysisV3{
		PaperID:       paper.ID,
		SchemaVersion: V3SchemaVersion,
		ModelName:     s.model,
		Status:        models.AnalysisStatusCompleted,
		Payload:       payload,
		TokensIn:      result.TokensIn,
		TokensOut:     result.TokensOut,
		GeneratedAt:   time.Now().UTC(),
	}
	if err := s.db.Where(models.PaperAnalysisV3{PaperID: paper.ID, SchemaVersion: V3SchemaVersion}).
		Assign(analysis).
		FirstOrCreate(&models.PaperAnalysisV3{}).Error; err != nil {
		return err
	}

	if _, err := s.budget.RecordSpend("analysis-v3", s.model, paper.ID, result.TokensIn, result.TokensOut); err != nil {
		return err
	}
	return nil
}
