package jobs

import (
	"time"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// DefaultWeekdayMinimum is the static per-day threshold gap detection uses:
// an active category that stored fewer papers than this on a weekday is
// treated as a missed or truncated ingestion.
const DefaultWeekdayMinimum = 1

// StatsService reads ingestion history back for the admin paper-stats and
// backfill endpoints.
type StatsService struct {
	db             *gorm.DB
	weekdayMinimum int
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, weekdayMinimum: DefaultWeekdayMinimum}
}

// DailyCounts sums stored papers per submission date over completed runs.
func (s *StatsService) DailyCounts(from, to time.Time, category string) ([]DayCount, error) {
	q := s.db.Model(&models.IngestionRun{}).
		Select("arxiv_date AS date, COALESCE(SUM(papers_stored), 0) AS count").
		Where("status = ?", models.RunStatusCompleted).
		Where("arxiv_date >= ? AND arxiv_date <= ?", from, to).
		Group("arxiv_date").
		Order("arxiv_date")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var counts []DayCount
	err := q.Scan(&counts).Error
	return counts, err
}

// GapsInRange returns the daily counts plus the weekdays that look missed.
func (s *StatsService) GapsInRange(from, to time.Time, category string) ([]DayCount, []time.Time, error) {
	counts, err := s.DailyCounts(from, to, category)
	if err != nil {
		return nil, nil, err
	}
	return counts, DetectGaps(from, to, counts, s.weekdayMinimum), nil
}

// RecentRuns lists the latest ingestion runs for the admin view.
func (s *StatsService) RecentRuns(limit int) ([]models.IngestionRun, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var runs []models.IngestionRun
	err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
