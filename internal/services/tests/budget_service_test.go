package services_test

import (
	"testing"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetCost(t *testing.T) {
	budget := services.NewBudgetService(nil, 10.0)

	// gpt-4o-mini: $0.15/MTok in, $0.60/MTok out.
	cost := budget.Cost("openai/gpt-4o-mini", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.75, cost, 1e-9)

	// Unknown models price at the fallback rate rather than zero.
	assert.Greater(t, budget.Cost("some/unknown-model", 1000, 1000), 0.0)
	assert.Zero(t, budget.Cost("openai/gpt-4o-mini", 0, 0))
}

func TestBudgetRecordSpendAndRemaining(t *testing.T) {
	db := newTestDB(t)
	budget := services.NewBudgetService(db, 10.0)

	cost, err := budget.RecordSpend("summary", "openai/gpt-4o-mini", 1, 2_000_000, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 0.90, cost, 1e-9)

	spent, err := budget.MonthToDateSpend()
	require.NoError(t, err)
	assert.InDelta(t, 0.90, spent, 1e-9)

	remaining, err := budget.Remaining()
	require.NoError(t, err)
	assert.InDelta(t, 9.10, remaining, 1e-9)

	allowed, err := budget.Allows()
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestBudgetAllowsFalseWhenExhausted(t *testing.T) {
	db := newTestDB(t)
	budget := services.NewBudgetService(db, 1.0)

	require.NoError(t, db.Create(&models.LLMSpend{
		Purpose: "analysis", ModelName: "m", CostUSD: 1.5,
	}).Error)

	allowed, err := budget.Allows()
	require.NoError(t, err)
	assert.False(t, allowed)

	remaining, err := budget.Remaining()
	require.NoError(t, err)
	assert.Less(t, remaining, 0.0)
}

func TestSettingsAIProcessingToggle(t *testing.T) {
	db := newTestDB(t)
	settings := services.NewSettingsService(db)

	// Defaults to enabled when the flag was never written.
	enabled, err := settings.AIProcessingEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, settings.SetAIProcessing(false))
	enabled, err = settings.AIProcessingEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, settings.SetAIProcessing(true))
	enabled, err = settings.AIProcessingEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)
}
