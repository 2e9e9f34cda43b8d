package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conorfennell/lexideck/internal/deckimport"
	"github.com/conorfennell/lexideck/internal/domain"
)

func newAddCommand(a *app) *cobra.Command {
	var enrichment domain.Enrichment
	command := &cobra.Command{
		Use:   "add <dictionary-id>",
		Short: "Add a catalog entry to the deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.db.Cards().Create(cmd.Context(), args[0], enrichment)
			if errors.Is(err, domain.ErrAlreadyExists) {
				return fmt.Errorf("%s is already in the deck", args[0])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s as card %s, due %s\n",
				card.DictionaryID, card.ID, a.formatDue(card.DueDate))
			return err
		},
	}
	command.Flags().StringVar(&enrichment.ExampleText, "example", "", "Example sentence")
	command.Flags().StringVar(&enrichment.TranslatedText, "translation", "", "Translation of the example")
	command.Flags().StringVar(&enrichment.ImageRef, "image", "", "Image reference")
	return command
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add every entry of a word-list file to the deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importer, err := deckimport.New(a.db.Cards(), a.logger)
			if err != nil {
				return err
			}
			report, err := importer.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d, skipped %d, %d errors.\n", report.Created, report.Skipped, len(report.Errors))
			if len(report.Errors) > 0 {
				fmt.Fprintln(out, "\nErrors:")
				for _, e := range report.Errors {
					fmt.Fprintf(out, "- %s\n", e)
				}
			}
			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <card-id|dictionary-id>",
		Short: "Remove a card from the deck; its past reviews stay in the statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.findCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.db.Cards().Delete(cmd.Context(), card.ID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", card.DictionaryID)
			return err
		},
	}
}

func newResurrectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resurrect <card-id|dictionary-id>",
		Short: "Put a burned card back on the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.findCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			card, err = a.db.Cards().Resurrect(cmd.Context(), card.ID)
			if errors.Is(err, domain.ErrInvalidState) {
				return fmt.Errorf("%s is not burned", args[0])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Resurrected %s, due %s\n", card.DictionaryID, a.formatDue(card.DueDate))
			return err
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var burned, due bool
	command := &cobra.Command{
		Use:   "list",
		Short: "List the cards in the deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cards []domain.Card
				err   error
			)
			switch {
			case burned:
				cards, err = a.db.Cards().FetchBurned(cmd.Context())
			case due:
				cards, err = a.db.Cards().FetchDue(cmd.Context(), a.now())
			default:
				cards, err = a.db.Cards().FetchAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			writeCards(cmd.OutOrStdout(), a, cards)
			return nil
		},
	}
	command.Flags().BoolVar(&burned, "burned", false, "Only burned cards")
	command.Flags().BoolVar(&due, "due", false, "Only cards due now")
	command.MarkFlagsMutuallyExclusive("burned", "due")
	return command
}

func writeCards(w io.Writer, a *app, cards []domain.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No cards.")
		return
	}
	for _, c := range cards {
		fmt.Fprintf(w, "%s  %-24s  %-13s  %s\n", c.ID, c.DictionaryID, c.Stage, a.formatDue(c.DueDate))
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <card-id|dictionary-id>",
		Short: "Show every review of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := a.findCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			records, err := a.db.Ledger().QueryByCard(cmd.Context(), card.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s), %d reviews\n", card.DictionaryID, card.Stage, len(records))
			for _, r := range records {
				result := "correct"
				if !r.IsCorrect {
					result = fmt.Sprintf("missed x%d", r.IncorrectCount)
				}
				fmt.Fprintf(out, "%s  %-13s -> %-13s  %s\n",
					r.ReviewedAt.In(a.loc).Format("2006-01-02 15:04"), r.StageBefore, r.StageAfter, result)
			}
			return nil
		},
	}
}

func newRebuildStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-stats",
		Short: "Recompute the daily review buckets from the review history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.db.Ledger().RebuildDailyStats(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d daily buckets\n", n)
			return err
		},
	}
}

func newResetCommand(a *app) *cobra.Command {
	var yes bool
	command := &cobra.Command{
		Use:   "reset",
		Short: "Delete every card and the whole review history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all progress; pass --yes to confirm")
			}
			if err := a.db.Reset(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("Deck reset", "path", a.cfg.Database.Path)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Deck reset.")
			return err
		},
	}
	command.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return command
}
