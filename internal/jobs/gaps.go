package jobs

import "time"

// DayCount is one day's stored-paper count for a category, read back from
// ingestion_runs.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// DetectGaps walks a date range and returns the days whose stored count falls
// below the weekday threshold. arXiv announces no new submissions on
// weekends, so Saturdays and Sundays are never gaps.
func DetectGaps(from, to time.Time, counts []DayCount, weekdayMinimum int) []time.Time {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date.UTC().Format("2006-01-02")] += c.Count
	}

	var gaps []time.Time
	for day := from.UTC().Truncate(24 * time.Hour); !day.After(to.UTC()); day = day.Add(24 * time.Hour) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		if byDay[day.Format("2006-01-02")] < weekdayMinimum {
			gaps = append(gaps, day)
		}
	}
	return gaps
}
