package domain

import (
	"context"
	"fmt"
	"time"
)

// WinterBucket tallies assessed days per danger level for one winter.
type WinterBucket struct {
	Label             string `json:"winter"`
	From              string `json:"from"`
	To                string `json:"to"`
	CountsByLevel     [5]int `json:"counts_by_level"` // FG1..FG5
	TotalAssessedDays int    `json:"total_assessed_days"`
}

// RangeFetcher returns normalized records for one region and date range.
type RangeFetcher func(ctx context.Context, regionID int, from, to time.Time) ([]WarningRecord, error)

// CurrentWinterYear returns the start year of the winter containing now:
// the previous year before May, otherwise the current year.
func CurrentWinterYear(now time.Time) int {
	if now.Month() < time.May {
		return now.Year() - 1
	}
	return now.Year()
}

// WinterWindow returns Nov 1 of year through Apr 30 of year+1 and the
// "2023/24" style label.
func WinterWindow(year int) (from, to time.Time, label string) {
	from = time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(year+1, time.April, 30, 0, 0, 0, 0, time.UTC)
	label = fmt.Sprintf("%d/%02d", year, (year+1)%100)
	return from, to, label
}

// TallyWinter counts one entry per day with an assessed level. Level 0 and
// out-of-range values are skipped. Records outside the window are ignored.
func TallyWinter(records []WarningRecord, year int) WinterBucket {
	from, to, label := WinterWindow(year)
	b := WinterBucket{Label: label, From: from.Format(DateLayout), To: to.Format(DateLayout)}

	byDay := make(map[string]DangerLevel, len(records))
	for _, r := range records {
		if r.Date < b.From || r.Date > b.To {
			continue
		}
		byDay[r.Date] = r.DangerLevel
	}
	for _, lvl := range byDay {
		if !lvl.Assessed() {
			continue
		}
		b.CountsByLevel[lvl-1]++
		b.TotalAssessedDays++
	}
	return b
}

// AggregateWinters builds count buckets for the most recent winters, newest
// first. Winters are fetched one at a time; the first failure aborts the
// whole aggregation.
func AggregateWinters(ctx context.Context, regionID, count int, fetch RangeFetcher) ([]WinterBucket, error) {
	if count <= 0 {
		return nil, nil
	}
	base := CurrentWinterYear(clock.Now())

	out := make([]WinterBucket, 0, count)
	for i := range count {
		year := base - i
		from, to, label := WinterWindow(year)
		records, err := fetch(ctx, regionID, from, to)
		if err != nil {
			return nil, fmt.Errorf("winter %s: %w", label, err)
		}
		out = append(out, TallyWinter(records, year))
	}
	return out, nil
}
