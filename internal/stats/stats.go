// Package stats derives activity statistics from the review ledger and the
// card store. It never writes to either.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/srs"
	"github.com/conorfennell/lexideck/internal/storage"
)

// CardSource is the read side of the card store.
type CardSource interface {
	FetchAll(ctx context.Context) ([]domain.Card, error)
	FetchScheduled(ctx context.Context, from, to time.Time) ([]domain.Card, error)
}

// LedgerSource is the read side of the review ledger.
type LedgerSource interface {
	Summary(ctx context.Context, since time.Time) (storage.WindowSummary, error)
	DailyStatsFor(ctx context.Context, date string) (domain.DailyStats, error)
	DailyStats(ctx context.Context, from, to string) ([]domain.DailyStats, error)
	AllDailyStats(ctx context.Context) ([]domain.DailyStats, error)
	QueryLearnedCount(ctx context.Context, start, end time.Time) (int, error)
}

// Window selects the part of the ledger a success rate is computed over.
type Window string

const (
	WindowAll Window = "all"
	Window7d  Window = "7d"
	Window30d Window = "30d"
)

// Windows lists the supported windows, widest first.
func Windows() []Window {
	return []Window{WindowAll, Window30d, Window7d}
}

// ParseWindow maps "all", "7d" or "30d" to a Window.
func ParseWindow(v string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(v))); w {
	case WindowAll, Window7d, Window30d:
		return w, nil
	}
	return "", fmt.Errorf("unknown success rate window %q", v)
}

// since returns the start of the window, or the zero time for WindowAll.
func (w Window) since(now time.Time) time.Time {
	switch w {
	case Window7d:
		return now.Add(-7 * 24 * time.Hour)
	case Window30d:
		return now.Add(-30 * 24 * time.Hour)
	}
	return time.Time{}
}

// Summary holds the review totals.
type Summary struct {
	TotalReviews int
	ReviewsToday int
	StudyDays    int
}

// DeckStats describes the current state of the deck.
type DeckStats struct {
	TotalCards  int
	ActiveCards int
	BurnedCards int
	DueNow      int
	// Groups counts active cards per maturity group. Every active group is
	// present, with zero when empty.
	Groups map[srs.Group]int
}

// Service computes statistics. Calendar days are taken in its location.
type Service struct {
	cards  CardSource
	ledger LedgerSource
	now    func() time.Time
	loc    *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the source of "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone that decides calendar days. It must match
// the location the ledger buckets were written in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService creates a Service over the two stores.
func NewService(cards CardSource, ledger LedgerSource, opts ...Option) *Service {
	s := &Service{
		cards:  cards,
		ledger: ledger,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return startOfDay(s.now(), s.loc)
}

// Summary returns the total reviews, the reviews of today and the number of
// days with at least one review.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	total, err := s.ledger.Summary(ctx, time.Time{})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count reviews: %w", err)
	}
	today, err := s.ledger.DailyStatsFor(ctx, s.today().Format(domain.DateLayout))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load today's stats: %w", err)
	}
	buckets, err := s.ledger.AllDailyStats(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load daily stats: %w", err)
	}

	sum := Summary{TotalReviews: total.Reviews, ReviewsToday: today.ReviewsCount}
	for _, b := range buckets {
		if b.ReviewsCount > 0 {
			sum.StudyDays++
		}
	}
	return sum, nil
}

// SuccessRate returns the percentage of correct answers in the window, or 0
// when it holds no reviews.
func (s *Service) SuccessRate(ctx context.Context, w Window) (float64, error) {
	if _, err := ParseWindow(string(w)); err != nil {
		return 0, err
	}
	sum, err := s.ledger.Summary(ctx, w.since(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to summarize %s window: %w", w, err)
	}
	if sum.Reviews == 0 {
		return 0, nil
	}
	return 100 * float64(sum.Correct) / float64(sum.Reviews), nil
}

// CurrentStreak returns the run of study days ending today.
func (s *Service) CurrentStreak(ctx context.Context) (int, error) {
	buckets, err := s.ledger.AllDailyStats(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load daily stats: %w", err)
	}
	return CurrentStreak(buckets, s.today().Format(domain.DateLayout)), nil
}

// BestStreak returns the longest run of study days in the whole history.
func (s *Service) BestStreak(ctx context.Context) (int, error) {
	buckets, err := s.ledger.AllDailyStats(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load daily stats: %w", err)
	}
	return BestStreak(buckets), nil
}

// DeckStats counts the cards by state and group.
func (s *Service) DeckStats(ctx context.Context) (DeckStats, error) {
	cards, err := s.cards.FetchAll(ctx)
	if err != nil {
		return DeckStats{}, fmt.Errorf("failed to load cards: %w", err)
	}

	now := s.now()
	ds := DeckStats{
		TotalCards: len(cards),
		Groups:     make(map[srs.Group]int),
	}
	for _, g := range srs.ActiveGroups() {
		ds.Groups[g] = 0
	}
	for _, c := range cards {
		if c.IsBurned() {
			ds.BurnedCards++
			continue
		}
		ds.ActiveCards++
		if c.IsDue(now) {
			ds.DueNow++
		}
		if _, ok := ds.Groups[c.Stage.Group()]; ok {
			ds.Groups[c.Stage.Group()]++
		}
	}
	return ds, nil
}

// LearnedCount counts the cards first answered correctly from the New stage
// in [start, end).
func (s *Service) LearnedCount(ctx context.Context, start, end time.Time) (int, error) {
	n, err := s.ledger.QueryLearnedCount(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to count learned cards: %w", err)
	}
	return n, nil
}

// Overview bundles every statistic for display.
type Overview struct {
	Summary       Summary
	SuccessRates  map[Window]float64
	CurrentStreak int
	BestStreak    int
	Deck          DeckStats
	LearnedToday  int
	Heatmap       []HeatmapDay
	Forecast      []ForecastDay
}

// Overview computes all statistics at once. A zero heatmapYear means the
// current year.
func (s *Service) Overview(ctx context.Context, heatmapYear, forecastDays int) (Overview, error) {
	var (
		ov  Overview
		err error
	)
	if ov.Summary, err = s.Summary(ctx); err != nil {
		return Overview{}, err
	}

	ov.SuccessRates = make(map[Window]float64, len(Windows()))
	for _, w := range Windows() {
		if ov.SuccessRates[w], err = s.SuccessRate(ctx, w); err != nil {
			return Overview{}, err
		}
	}

	buckets, err := s.ledger.AllDailyStats(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to load daily stats: %w", err)
	}
	today := s.today()
	ov.CurrentStreak = CurrentStreak(buckets, today.Format(domain.DateLayout))
	ov.BestStreak = BestStreak(buckets)

	if ov.Deck, err = s.DeckStats(ctx); err != nil {
		return Overview{}, err
	}
	if ov.LearnedToday, err = s.LearnedCount(ctx, today, today.AddDate(0, 0, 1)); err != nil {
		return Overview{}, err
	}
	if ov.Heatmap, err = s.Heatmap(ctx, heatmapYear); err != nil {
		return Overview{}, err
	}
	if ov.Forecast, err = s.Forecast(ctx, forecastDays); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
