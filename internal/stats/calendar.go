package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/lexideck/internal/domain"
)

// MaxForecastDays bounds Forecast.
const MaxForecastDays = 365

// HeatmapDay is the review count of one calendar day.
type HeatmapDay struct {
	Date  string
	Count int
}

// ForecastDay is the number of cards falling due on one calendar day.
// Offset 0 is today.
type ForecastDay struct {
	Date   string
	Offset int
	Count  int
}

// Heatmap returns one entry per day of the calendar year, January 1 first.
// Days without reviews have a zero count. A zero year means the current one.
func (s *Service) Heatmap(ctx context.Context, year int) ([]HeatmapDay, error) {
	if year == 0 {
		year = s.now().In(s.loc).Year()
	}
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(1, 0, 0)

	buckets, err := s.ledger.DailyStats(ctx,
		first.Format(domain.DateLayout),
		next.AddDate(0, 0, -1).Format(domain.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats for %d: %w", year, err)
	}
	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b.Date] = b.ReviewsCount
	}

	days := make([]HeatmapDay, 0, 366)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		date := d.Format(domain.DateLayout)
		days = append(days, HeatmapDay{Date: date, Count: counts[date]})
	}
	return days, nil
}

// Forecast counts, for each of the next days calendar days starting today,
// the active cards whose due date falls on that day. Cards already overdue
// from earlier days are not counted.
func (s *Service) Forecast(ctx context.Context, days int) ([]ForecastDay, error) {
	if days < 1 || days > MaxForecastDays {
		return nil, fmt.Errorf("forecast days must be between 1 and %d, got %d", MaxForecastDays, days)
	}

	today := s.today()
	end := time.Date(today.Year(), today.Month(), today.Day()+days, 0, 0, 0, 0, s.loc)
	cards, err := s.cards.FetchScheduled(ctx, today, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled cards: %w", err)
	}

	out := make([]ForecastDay, days)
	index := make(map[string]int, days)
	for i := range out {
		date := time.Date(today.Year(), today.Month(), today.Day()+i, 0, 0, 0, 0, s.loc).Format(domain.DateLayout)
		out[i] = ForecastDay{Date: date, Offset: i}
		index[date] = i
	}
	for _, c := range cards {
		if c.IsBurned() || c.DueDate == nil {
			continue
		}
		if i, ok := index[c.DueDate.In(s.loc).Format(domain.DateLayout)]; ok {
			out[i].Count++
		}
	}
	return out, nil
}
