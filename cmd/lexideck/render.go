package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/srs"
	"github.com/conorfennell/lexideck/internal/stats"
)

const heatmapCell = "■"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(0, 1)
	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FB477"))

	// heatLevels go from no reviews to the busiest days.
	heatLevels = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#0E4429")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#006D32")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#26A641")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#39D353")),
	}
)

func heatLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count < 10:
		return 1
	case count < 25:
		return 2
	case count < 50:
		return 3
	}
	return 4
}

// renderHeatmap lays the days out in weekly columns, Sunday on top.
func renderHeatmap(days []stats.HeatmapDay) string {
	if len(days) == 0 {
		return ""
	}
	first, err := time.Parse(domain.DateLayout, days[0].Date)
	if err != nil {
		return ""
	}
	offset := int(first.Weekday())

	rows := make([][]string, 7)
	for i := 0; i < offset; i++ {
		rows[i] = append(rows[i], " ")
	}
	total := 0
	for i, d := range days {
		row := (offset + i) % 7
		rows[row] = append(rows[row], heatLevels[heatLevel(d.Count)].Render(heatmapCell))
		total += d.Count
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %d reviews", first.Format("2006"), total)))
	b.WriteString("\n")
	for i, row := range rows {
		label := "   "
		if i%2 == 1 {
			label = time.Weekday(i).String()[:3]
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(" ")
		b.WriteString(strings.Join(row, ""))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("less "))
	for _, s := range heatLevels {
		b.WriteString(s.Render(heatmapCell))
	}
	b.WriteString(labelStyle.Render(" more"))
	return b.String()
}

func renderForecast(days []stats.ForecastDay) string {
	maxCount := 0
	for _, d := range days {
		maxCount = max(maxCount, d.Count)
	}
	const width = 40

	var b strings.Builder
	b.WriteString(headerStyle.Render("Due per day"))
	for _, d := range days {
		bar := 0
		if maxCount > 0 {
			bar = d.Count * width / maxCount
		}
		if d.Count > 0 && bar == 0 {
			bar = 1
		}
		fmt.Fprintf(&b, "\n%s %s %s %d",
			labelStyle.Render(d.Date),
			labelStyle.Render(fmt.Sprintf("+%-3d", d.Offset)),
			barStyle.Render(strings.Repeat("█", bar)),
			d.Count,
		)
	}
	return b.String()
}

func renderOverview(ov stats.Overview) string {
	line := func(label string, value any) string {
		return fmt.Sprintf("%s %v", labelStyle.Render(fmt.Sprintf("%-16s", label)), value)
	}

	activity := []string{
		headerStyle.Render("Activity"),
		line("Total reviews", ov.Summary.TotalReviews),
		line("Reviews today", ov.Summary.ReviewsToday),
		line("Study days", ov.Summary.StudyDays),
		line("Current streak", ov.CurrentStreak),
		line("Best streak", ov.BestStreak),
		line("Learned today", ov.LearnedToday),
	}
	for _, w := range stats.Windows() {
		activity = append(activity, line("Success "+string(w), fmt.Sprintf("%.1f%%", ov.SuccessRates[w])))
	}

	deck := []string{
		headerStyle.Render("Deck"),
		line("Cards", ov.Deck.TotalCards),
		line("Active", ov.Deck.ActiveCards),
		line("Burned", ov.Deck.BurnedCards),
		line("Due now", ov.Deck.DueNow),
	}
	for _, g := range srs.ActiveGroups() {
		deck = append(deck, line(strings.ToUpper(string(g)[:1])+string(g)[1:], ov.Deck.Groups[g]))
	}

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(strings.Join(activity, "\n")),
		boxStyle.Render(strings.Join(deck, "\n")),
	)
	return lipgloss.JoinVertical(lipgloss.Left, boxes, renderForecast(ov.Forecast))
}
