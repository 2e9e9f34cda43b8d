package stats

import (
	"sort"
	"time"

	"github.com/conorfennell/lexideck/internal/domain"
)

// studyDays returns the distinct days with at least one review, oldest
// first. Dates that do not parse are ignored.
func studyDays(buckets []domain.DailyStats) []time.Time {
	seen := make(map[time.Time]struct{}, len(buckets))
	days := make([]time.Time, 0, len(buckets))
	for _, b := range buckets {
		if b.ReviewsCount <= 0 {
			continue
		}
		d, err := time.Parse(domain.DateLayout, b.Date)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// CurrentStreak counts consecutive study days walking backward from today.
// A day without reviews today means no current streak.
func CurrentStreak(buckets []domain.DailyStats, today string) int {
	day, err := time.Parse(domain.DateLayout, today)
	if err != nil {
		return 0
	}
	active := make(map[time.Time]struct{})
	for _, d := range studyDays(buckets) {
		active[d] = struct{}{}
	}

	n := 0
	for {
		if _, ok := active[day]; !ok {
			return n
		}
		n++
		day = day.AddDate(0, 0, -1)
	}
}

// BestStreak returns the longest run of consecutive study days.
func BestStreak(buckets []domain.DailyStats) int {
	best, run := 0, 0
	var prev time.Time
	for i, d := range studyDays(buckets) {
		if i > 0 && prev.AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
		prev = d
	}
	return best
}
