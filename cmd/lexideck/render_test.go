package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conorfennell/lexideck/internal/srs"
	"github.com/conorfennell/lexideck/internal/stats"
)

func TestRenderHeatmap(t *testing.T) {
	days := make([]stats.HeatmapDay, 0, 365)
	for i := 0; i < 365; i++ {
		days = append(days, stats.HeatmapDay{Date: "2025-01-01", Count: i % 3})
	}
	days[0].Date = "2025-01-01"

	out := renderHeatmap(days)
	assert.Equal(t, 365+len(heatLevels), strings.Count(out, heatmapCell))
	assert.Contains(t, out, "2025  364 reviews")
	assert.Contains(t, out, "Mon")
	assert.Equal(t, 9, len(strings.Split(out, "\n")), "header, seven weekday rows and the legend")

	assert.Empty(t, renderHeatmap(nil))
}

func TestHeatLevel(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0}, {1, 1}, {9, 1}, {10, 2}, {24, 2}, {25, 3}, {49, 3}, {50, 4}, {500, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, heatLevel(tt.count), "count %d", tt.count)
	}
}

func TestRenderForecast(t *testing.T) {
	out := renderForecast([]stats.ForecastDay{
		{Date: "2025-03-10", Offset: 0, Count: 0},
		{Date: "2025-03-11", Offset: 1, Count: 4},
		{Date: "2025-03-12", Offset: 2, Count: 1},
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.NotContains(t, lines[1], "█")
	assert.Equal(t, 40, strings.Count(lines[2], "█"))
	assert.Equal(t, 10, strings.Count(lines[3], "█"))
}

func TestRenderOverview(t *testing.T) {
	out := renderOverview(stats.Overview{
		Summary:      stats.Summary{TotalReviews: 12, ReviewsToday: 3, StudyDays: 4},
		SuccessRates: map[stats.Window]float64{stats.WindowAll: 75},
		Deck: stats.DeckStats{
			TotalCards: 5,
			Groups:     map[srs.Group]int{srs.GroupGuru: 2},
		},
	})
	assert.Contains(t, out, "Total reviews")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "Guru")
	assert.Contains(t, out, "Enlightened")
}
