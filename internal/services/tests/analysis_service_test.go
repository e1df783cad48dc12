package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnalysisService(db *gorm.DB, llm services.LLMClient, fulltext *services.FullTextService) *services.AnalysisService {
	budget := services.NewBudgetService(db, 10.0)
	settings := services.NewSettingsService(db)
	return services.NewAnalysisService(db, llm, testModel, fulltext, budget, settings)
}

func TestGenerateCardAnalysis(t *testing.T) {
	db := newTestDB(t)
	paper := seedPaper(t, db, "2402.00001")

	cardJSON := `{"tldr":"One sentence.","key_findings":["a","b"],"method":"ablation","significance":"high"}`
	llm := new(MockLLMClient)
	llm.On("CompleteJSON", mock.Anything, testModel, mock.Anything, mock.Anything).
		Return(&services.LLMResult{Content: cardJSON, TokensIn: 300, TokensOut: 120}, nil)

	svc := newAnalysisService(db, llm, nil)
	require.NoError(t, svc.GenerateCardAnalysis(context.Background(), "2402.00001"))

	var row models.PaperCardAnalysis
	require.NoError(t, db.Where("paper_id = ?", paper.ID).First(&row).Error)
	assert.Equal(t, models.AnalysisStatusCompleted, row.Status)
	assert.Equal(t, testModel, row.ModelName)

	var card services.CardAnalysis
	require.NoError(t, json.Unmarshal(row.Payload, &card))
	assert.Equal(t, "One sentence.", card.TLDR)
	assert.Equal(t, []string{"a", "b"}, card.KeyFindings)

	var spend models.LLMSpend
	require.NoError(t, db.First(&spend).Error)
	assert.Equal(t, "analysis", spend.Purpose)
}

func TestGenerateCardAnalysisAlreadyProcessed(t *testing.T) {
	db := newTestDB(t)
	seedPaper(t, db, "2402.00002")

	llm := new(MockLLMClient)
	llm.On("CompleteJSON", mock.Anything, testModel, mock.Anything, mock.Anything).
		Return(&services.LLMResult{Content: `{"tldr":"x"}`, TokensIn: 10, TokensOut: 5}, nil)

	svc := newAnalysisService(db, llm, nil)
	require.NoError(t, svc.GenerateCardAnalysis(context.Background(), "2402.00002"))

	err := svc.GenerateCardAnalysis(context.Background(), "2402.00002")
	assert.ErrorIs(t, err, services.ErrAlreadyProcessed)
	llm.AssertNumberOfCalls(t, "CompleteJSON", 1)
}

func TestGenerateCardAnalysisRejectsInvalidJSON(t *testing.T) {
	db := newTestDB(t)
	paper := seedPaper(t, db, "2402.00003")

	llm := new(MockLLMClient)
	llm.On("CompleteJSON", mock.Anything, testModel, mock.Anything, mock.Anything).
		Return(&services.LLMResult{Content: "not json at all", TokensIn: 10, TokensOut: 5}, nil)

	svc := newAnalysisService(db, llm, nil)
	err := svc.GenerateCardAnalysis(context.Background(), "2402.00003")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")

	var count int64
	require.NoError(t, db.Model(&models.PaperCardAnalysis{}).Where("paper_id = ?", paper.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateV3AnalysisFallsBackToAbstract(t *testing.T) {
	db := newTestDB(t)
	paper := seedPaper(t, db, "2402.00004")

	// PDF download fails, so the prompt must carry the abstract instead.
	pdfServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer pdfServer.Close()
	fulltext := services.NewFullTextService(pdfServer.URL+"/pdf/", 50000)

	v3JSON := `{"schema_version":"3.0","problem":"p","approach":"a","evidence":["e"],"limitations":["l"],"audience":["ml"],"impact_score":7}`
	llm := new(MockLLMClient)
	llm.On("CompleteJSON", mock.Anything, testModel, mock.Anything, mock.MatchedBy(func(user string) bool {
		return strings.Contains(user, paper.Abstract)
	})).Return(&services.LLMResult{Content: v3JSON, TokensIn: 800, TokensOut: 200}, nil)

	svc := newAnalysisService(db, llm, fulltext)
	require.NoError(t, svc.GenerateV3Analysis(context.Background(), "2402.00004"))

	var row models.PaperAnalysisV3
	require.NoError(t, db.Where("paper_id = ?", paper.ID).First(&row).Error)
	assert.Equal(t, services.V3SchemaVersion, row.SchemaVersion)
	assert.Equal(t, models.AnalysisStatusCompleted, row.Status)

	var v3 services.V3Analysis
	require.NoError(t, json.Unmarshal(row.Payload, &v3))
	assert.Equal(t, 7, v3.ImpactScore)

	var spend models.LLMSpend
	require.NoError(t, db.First(&spend).Error)
	assert.Equal(t, "analysis-v3", spend.Purpose)
}

func TestGenerateV3AnalysisAlreadyProcessed(t *testing.T) {
	db := newTestDB(t)
	paper := seedPaper(t, db, "2402.00005")

	require.NoError(t, db.Create(&models.PaperAnalysisV3{
		PaperID:       paper.ID,
		SchemaVersion: services.V3SchemaVersion,
		Status:        models.AnalysisStatusCompleted,
	}).Error)

	llm := new(MockLLMClient)
	svc := newAnalysisService(db, llm, nil)

	err := svc.GenerateV3Analysis(context.Background(), "2402.00005")
	assert.ErrorIs(t, err, services.ErrAlreadyProcessed)
	llm.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
