package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/conorfennell/lexideck/internal/config"
	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/session"
	"github.com/conorfennell/lexideck/internal/stats"
	"github.com/conorfennell/lexideck/internal/storage"
)

// app carries what every subcommand needs once the config is loaded.
type app struct {
	now     func() time.Time
	catalog domain.Catalog

	cfg    *config.Config
	loc    *time.Location
	logger *slog.Logger
	db     *storage.DB
}

func newApp() *app {
	return &app{now: time.Now, catalog: echoCatalog{}}
}

func (a *app) open(cmd *cobra.Command) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to read --config: %w", err)
	}
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.loc = loc
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)

	db, err := storage.Open(cfg.Database.Path, storage.WithClock(a.now), storage.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.logger.Debug("Database opened", "path", cfg.Database.Path)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *app) stats() *stats.Service {
	return stats.NewService(a.db.Cards(), a.db.Ledger(), stats.WithClock(a.now), stats.WithLocation(a.loc))
}

func (a *app) engine() *session.Engine {
	return session.NewEngine(a.db.Cards(), a.db.Ledger(), session.WithClock(a.now), session.WithLogger(a.logger))
}

// findCard accepts a card id or a dictionary id.
func (a *app) findCard(ctx context.Context, ref string) (domain.Card, error) {
	if id, err := uuid.Parse(ref); err == nil {
		card, err := a.db.Cards().Get(ctx, id)
		if !errors.Is(err, domain.ErrNotFound) {
			return card, err
		}
	}
	return a.db.Cards().GetByDictionaryID(ctx, ref)
}

// formatDue renders a due date in the configured time zone.
func (a *app) formatDue(due *time.Time) string {
	if due == nil {
		return "never (burned)"
	}
	return due.In(a.loc).Format("2006-01-02 15:04")
}

// echoCatalog stands in for a dictionary: it shows the id itself.
type echoCatalog struct{}

func (echoCatalog) Lookup(_ context.Context, dictionaryID string) (domain.Entry, error) {
	return domain.Entry{DictionaryID: dictionaryID, Headword: dictionaryID}, nil
}
