package services

import (
	"time"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// ModelPrice is USD per million tokens.
type ModelPrice struct {
	InPerMTok  float64
	OutPerMTok float64
}

// defaultModelPrices covers the models the pipeline is configured with; the
// fallback price applies to anything unlisted so spend is never recorded as zero.
var defaultModelPrices = map[string]ModelPrice{
	"anthropic/claude-3.5-haiku": {InPerMTok: 0.80, OutPerMTok: 4.00},
	"anthropic/claude-sonnet-4":  {InPerMTok: 3.00, OutPerMTok: 15.00},
	"openai/gpt-4o-mini":         {InPerMTok: 0.15, OutPerMTok: 0.60},
}

var fallbackModelPrice = ModelPrice{InPerMTok: 3.00, OutPerMTok: 15.00}

// SpendRow is one aggregation bucket in the spending report.
type SpendRow struct {
	Purpose   string  `json:"purpose"`
	ModelName string  `json:"model"`
	Month     string  `json:"month"`
	Calls     int64   `json:"calls"`
	TokensIn  int64   `json:"tokens_in"`
	TokensOut int64   `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
}

// BudgetService prices LLM calls, records them, and gates processing against
// the monthly budget.
type BudgetService struct {
	db            *gorm.DB
	monthlyBudget float64
	prices        map[string]ModelPrice
}

func NewBudgetService(db *gorm.DB, monthlyBudgetUSD float64) *BudgetService {
	return &BudgetService{
		db:            db,
		monthlyBudget: monthlyBudgetUSD,
		prices:        defaultModelPrices,
	}
}

// Cost prices a call for the given model and token counts.
func (s *BudgetService) Cost(model string, tokensIn, tokensOut int64) float64 {
	price, ok := s.prices[model]
	if !ok {
		price = fallbackModelPrice
	}
	return float64(tokensIn)/1e6*price.InPerMTok + float64(tokensOut)/1e6*price.OutPerMTok
}

// RecordSpend prices and persists one LLM call.
func (s *BudgetService) RecordSpend(purpose, model string, paperID uint, tokensIn, tokensOut int64) (float64, error) {
	cost := s.Cost(model, tokensIn, tokensOut)
	spend := models.LLMSpend{
		Purpose:   purpose,
		ModelName: model,
		PaperID:   paperID,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		CostUSD:   cost,
	}
	if err := s.db.Create(&spend).Error; err != nil {
		return 0, err
	}
	return cost, nil
}

// MonthToDateSpend sums spend since the start of the current UTC month.
func (s *BudgetService) MonthToDateSpend() (float64, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var total float64
	err := s.db.Model(&models.LLMSpend{}).
		Where("created_at >= ?", monthStart).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&total).Error
	return total, err
}

// Remaining returns the budget left this month; negative when over budget.
func (s *BudgetService) Remaining() (float64, error) {
	spent, err := s.MonthToDateSpend()
	if err != nil {
		return 0, err
	}
	return s.monthlyBudget - spent, nil
}

// Allows reports whether another LLM call fits the monthly budget.
func (s *BudgetService) Allows() (bool, error) {
	remaining, err := s.Remaining()
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// MonthlyBudget returns the configured cap.
func (s *BudgetService) MonthlyBudget() float64 {
	return s.monthlyBudget
}

// SpendingReport aggregates spend by purpose, model, and month.
func (s *BudgetService) SpendingReport() ([]SpendRow, error) {
	var rows []SpendRow
	err := s.db.Model(&models.LLMSpend{}).
		Select("purpose, model_name, to_char(created_at, 'YYYY-MM') AS month, COUNT(*) AS calls, SUM(tokens_in) AS tokens_in, SUM(tokens_out) AS tokens_out, SUM(cost_usd) AS cost_usd").
		Group("purpose, model_name, month").
		Order("month DESC, cost_usd DESC").
		Scan(&rows).Error
	return rows, err
}
