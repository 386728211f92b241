// Package report aggregates classified records into summary counts and
// serializes them for export. It is a pure consumer of the pipeline's
// output and performs no I/O beyond the writer it is handed.
package report

import (
	"sort"
	"time"

	"github.com/nhle/jobtracker/internal/model"
)

// Summary counts records per category. Every category is present in
// the map, zero-valued when unseen.
func Summary(records []model.ClassifiedRecord) map[model.Category]int {
	counts := make(map[model.Category]int, 4)
	for _, cat := range model.Categories() {
		counts[cat] = 0
	}
	for _, r := range records {
		counts[r.Category]++
	}
	return counts
}

// DailyCount holds the per-category counts for one calendar day.
type DailyCount struct {
	Day    time.Time
	Counts map[model.Category]int
}

// Timeline buckets records by calendar day (in the record's own
// location), oldest day first. Records with a zero date are skipped.
func Timeline(records []model.ClassifiedRecord) []DailyCount {
	byDay := make(map[time.Time]map[model.Category]int)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		y, m, d := r.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if byDay[day] == nil {
			byDay[day] = make(map[model.Category]int, 4)
		}
		byDay[day][r.Category]++
	}

	timeline := make([]DailyCount, 0, len(byDay))
	for day, counts := range byDay {
		timeline = append(timeline, DailyCount{Day: day, Counts: counts})
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Day.Before(timeline[j].Day)
	})

	return timeline
}
