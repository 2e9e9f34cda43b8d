package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show review totals, streaks and the state of the deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := a.stats().Overview(cmd.Context(), a.cfg.Stats.HeatmapYear, a.cfg.Stats.ForecastDays)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderOverview(ov))
			return err
		},
	}
}

func newHeatmapCommand(a *app) *cobra.Command {
	var year int
	command := &cobra.Command{
		Use:   "heatmap",
		Short: "Show reviews per day over a calendar year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("year") {
				year = a.cfg.Stats.HeatmapYear
			}
			days, err := a.stats().Heatmap(cmd.Context(), year)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderHeatmap(days))
			return err
		},
	}
	command.Flags().IntVar(&year, "year", 0, "Calendar year (default: stats.heatmap_year, or the current year)")
	return command
}

func newForecastCommand(a *app) *cobra.Command {
	var days int
	command := &cobra.Command{
		Use:   "forecast",
		Short: "Show how many cards fall due on each of the coming days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = a.cfg.Stats.ForecastDays
			}
			forecast, err := a.stats().Forecast(cmd.Context(), days)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderForecast(forecast))
			return err
		},
	}
	command.Flags().IntVar(&days, "days", 7, "Number of days, today included (default: stats.forecast_days)")
	return command
}
