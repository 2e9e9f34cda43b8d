// Package deckimport adds the entries of word-list files to the deck.
package deckimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/parser"
	"github.com/conorfennell/lexideck/internal/validation"
)

// CardCreator creates cards in the deck.
type CardCreator interface {
	Create(ctx context.Context, dictionaryID string, enrichment domain.Enrichment) (domain.Card, error)
}

// Report summarizes one import.
type Report struct {
	Created int
	Skipped int
	Errors  []error
}

// Importer validates parsed entries and creates a card for each new one.
type Importer struct {
	cards    CardCreator
	validate *validation.Validator
	logger   *slog.Logger
}

// New creates an Importer. A nil logger means slog.Default().
func New(cards CardCreator, logger *slog.Logger) (*Importer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	validate, err := validation.New("")
	if err != nil {
		return nil, err
	}
	if err := validate.RegisterRule("nospace", hasNoSpace, "{0} must not contain whitespace"); err != nil {
		return nil, err
	}
	return &Importer{cards: cards, validate: validate, logger: logger}, nil
}

// ImportFile parses path and imports its entries.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	entries, err := parser.ParseFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	im.logger.Info("Importing word list", "path", path, "entries", len(entries))
	return im.Import(ctx, entries), nil
}

// Import creates a card for every valid entry whose dictionary id is not in
// the deck yet. Invalid entries and failed inserts are collected in the
// report and do not stop the import.
func (im *Importer) Import(ctx context.Context, entries []parser.Entry) Report {
	var report Report
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, err)
			break
		}
		if err := im.validateEntry(entry); err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}

		card, err := im.cards.Create(ctx, entry.DictionaryID, entry.Enrichment)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			im.logger.Debug("Card already in deck, skipping", "dictionary_id", entry.DictionaryID)
			report.Skipped++
		case err != nil:
			report.Errors = append(report.Errors, fmt.Errorf("line %d: create card for %s: %w", entry.Line, entry.DictionaryID, err))
		default:
			im.logger.Info("New card added", "dictionary_id", entry.DictionaryID, "card_id", card.ID)
			report.Created++
		}
	}

	im.logger.Info("import complete",
		"created", report.Created,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report
}

func (im *Importer) validateEntry(entry parser.Entry) error {
	msgs, err := im.validate.Struct(entry)
	if err != nil {
		return fmt.Errorf("line %d: %w", entry.Line, err)
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("line %d: %s", entry.Line, msgs[0])
}

func hasNoSpace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}
