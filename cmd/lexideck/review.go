package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/session"
)

var errQuit = errors.New("quit")

func newReviewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review the cards that are due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := session.ParsePolicy(a.cfg.Session.OnActive)
			if err != nil {
				return err
			}
			r := &reviewCLI{
				slot:    session.NewSlot(a.engine()),
				policy:  policy,
				catalog: a.catalog,
				in:      bufio.NewReader(cmd.InOrStdin()),
				out:     cmd.OutOrStdout(),
				bold:    color.New(color.Bold),
				italic:  color.New(color.Italic),
			}
			return r.run(cmd.Context())
		},
	}
}

// reviewCLI drives one review session over stdin and stdout.
type reviewCLI struct {
	slot    *session.Slot
	policy  session.Policy
	catalog domain.Catalog
	in      *bufio.Reader
	out     io.Writer
	bold    *color.Color
	italic  *color.Color
}

func (r *reviewCLI) run(ctx context.Context) error {
	s, err := r.slot.Start(ctx, r.policy)
	if errors.Is(err, domain.ErrNothingDue) {
		fmt.Fprintln(r.out, "Nothing is due. Come back later.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Starting review with %d cards. Type q to stop.\n\n", s.TotalCards())

	for s.Active() {
		if err := r.step(ctx, s); err != nil {
			if errors.Is(err, errQuit) {
				r.slot.End()
				fmt.Fprintln(r.out, "Review stopped.")
				break
			}
			return err
		}
	}

	res := s.Results()
	fmt.Fprintf(r.out, "\nCorrect: %d  Incorrect: %d  Burned: %d\n", res.Correct, res.Incorrect, res.Burned)
	return nil
}

func (r *reviewCLI) step(ctx context.Context, s *session.Session) error {
	item, _ := s.Current()
	entry, err := r.catalog.Lookup(ctx, item.Card.DictionaryID)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", item.Card.DictionaryID, err)
	}

	fmt.Fprintf(r.out, "[%d left] %s  (%s)\n", s.Remaining(), r.bold.Sprint(entry.Headword), item.Card.Stage)
	if item.SessionIncorrectCount > 0 {
		fmt.Fprintf(r.out, "missed %d times this session\n", item.SessionIncorrectCount)
	}
	answer, err := r.prompt("Press Enter to reveal: ")
	if err != nil {
		return err
	}
	if answer == "q" {
		return errQuit
	}
	if err := r.slot.Reveal(); err != nil {
		return err
	}
	r.showBack(entry, item.Card)

	var correct bool
	for {
		answer, err = r.prompt("Did you know it? [y/n]: ")
		if err != nil {
			return err
		}
		switch answer {
		case "y", "yes":
			correct = true
		case "n", "no":
			correct = false
		case "q":
			return errQuit
		default:
			continue
		}
		break
	}

	result, err := r.slot.Submit(ctx, correct)
	if err != nil {
		return err
	}
	switch {
	case result.Burned:
		color.New(color.FgGreen).Fprintf(r.out, "Correct. %s is burned.\n\n", entry.Headword)
	case result.Requeued:
		color.New(color.FgRed).Fprintf(r.out, "Missed. %s comes back later in this session.\n\n", entry.Headword)
	default:
		color.New(color.FgGreen).Fprintf(r.out, "Correct. Now %s.\n\n", result.NewStage)
	}
	return nil
}

func (r *reviewCLI) showBack(entry domain.Entry, card domain.Card) {
	if entry.Reading != "" {
		fmt.Fprintf(r.out, "  reading: %s\n", entry.Reading)
	}
	if entry.Meaning != "" {
		fmt.Fprintf(r.out, "  meaning: %s\n", entry.Meaning)
	}
	if card.ExampleText != "" {
		fmt.Fprintf(r.out, "  %s\n", r.italic.Sprint(card.ExampleText))
	}
	if card.TranslatedText != "" {
		fmt.Fprintf(r.out, "  %s\n", card.TranslatedText)
	}
	if card.ImageRef != "" {
		fmt.Fprintf(r.out, "  image: %s\n", card.ImageRef)
	}
}

// prompt reads one trimmed, lower-cased line. End of input counts as quit.
func (r *reviewCLI) prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)
	line, err := r.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.out)
			return "", errQuit
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
