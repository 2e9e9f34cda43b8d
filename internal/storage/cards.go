package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/srs"
)

const cardColumns = `id, dictionary_id, added_at, stage, due_date, current_incorrect_count,
	example_text, translated_text, image_ref`

// CardStore persists deck cards.
type CardStore struct {
	db *DB
}

type cardRow struct {
	ID                    string         `db:"id"`
	DictionaryID          string         `db:"dictionary_id"`
	AddedAt               string         `db:"added_at"`
	Stage                 int            `db:"stage"`
	DueDate               sql.NullString `db:"due_date"`
	CurrentIncorrectCount int            `db:"current_incorrect_count"`
	ExampleText           sql.NullString `db:"example_text"`
	TranslatedText        sql.NullString `db:"translated_text"`
	ImageRef              sql.NullString `db:"image_ref"`
}

func (r cardRow) toCard() (domain.Card, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to parse card id %q: %w", r.ID, err)
	}
	stage, err := srs.ParseStage(r.Stage)
	if err != nil {
		return domain.Card{}, fmt.Errorf("card %s: %w", r.ID, err)
	}
	addedAt, err := parseTime(r.AddedAt)
	if err != nil {
		return domain.Card{}, err
	}

	card := domain.Card{
		ID:                    id,
		DictionaryID:          r.DictionaryID,
		AddedAt:               addedAt,
		Stage:                 stage,
		CurrentIncorrectCount: r.CurrentIncorrectCount,
		Enrichment: domain.Enrichment{
			ExampleText:    r.ExampleText.String,
			TranslatedText: r.TranslatedText.String,
			ImageRef:       r.ImageRef.String,
		},
	}
	if r.DueDate.Valid {
		due, err := parseTime(r.DueDate.String)
		if err != nil {
			return domain.Card{}, err
		}
		card.DueDate = &due
	}
	return card, nil
}

// Create adds a card for dictionaryID at the first apprentice stage.
// It returns domain.ErrAlreadyExists if the entry is already in the deck.
func (s *CardStore) Create(ctx context.Context, dictionaryID string, enrichment domain.Enrichment) (domain.Card, error) {
	if dictionaryID == "" {
		return domain.Card{}, errors.New("dictionary id is empty")
	}

	now := s.db.now()
	card := domain.Card{
		ID:           uuid.New(),
		DictionaryID: dictionaryID,
		AddedAt:      now,
		Stage:        srs.Apprentice1,
		DueDate:      srs.NextDueDate(srs.Apprentice1, now),
		Enrichment:   enrichment,
	}

	err := s.db.runInTx(ctx, func(tx *sqlx.Tx) error {
		var existing int
		if err := tx.GetContext(ctx, &existing,
			`SELECT COUNT(*) FROM cards WHERE dictionary_id = ?`, dictionaryID); err != nil {
			return domain.Persistence("check dictionary id "+dictionaryID, err)
		}
		if existing > 0 {
			return fmt.Errorf("card for dictionary id %s: %w", dictionaryID, domain.ErrAlreadyExists)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO cards (`+cardColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			card.ID.String(),
			card.DictionaryID,
			formatTime(card.AddedAt),
			int(card.Stage),
			nullTime(card.DueDate),
			0, // Initial incorrect count
			nullString(enrichment.ExampleText),
			nullString(enrichment.TranslatedText),
			nullString(enrichment.ImageRef),
		)
		if err != nil {
			return domain.Persistence("insert card "+dictionaryID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// Get retrieves a card by id.
func (s *CardStore) Get(ctx context.Context, id uuid.UUID) (domain.Card, error) {
	return s.getOne(ctx, s.db.conn, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String())
}

// GetByDictionaryID retrieves the card for a catalog entry.
func (s *CardStore) GetByDictionaryID(ctx context.Context, dictionaryID string) (domain.Card, error) {
	return s.getOne(ctx, s.db.conn, `SELECT `+cardColumns+` FROM cards WHERE dictionary_id = ?`, dictionaryID)
}

// Delete removes a card. Its review records stay in the ledger, so totals
// and daily buckets keep agreeing.
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id.String())
	if err != nil {
		return domain.Persistence("delete card "+id.String(), err)
	}
	return expectAffected(res, "card "+id.String())
}

// FetchAll returns every card in the deck, oldest first.
func (s *CardStore) FetchAll(ctx context.Context) ([]domain.Card, error) {
	return s.selectCards(ctx, "fetch all cards",
		`SELECT `+cardColumns+` FROM cards ORDER BY added_at, id`)
}

// FetchDue returns the cards that are not burned and due at or before now.
func (s *CardStore) FetchDue(ctx context.Context, now time.Time) ([]domain.Card, error) {
	return s.selectCards(ctx, "fetch due cards", `
		SELECT `+cardColumns+` FROM cards
		WHERE stage < ? AND due_date IS NOT NULL AND due_date <= ?
		ORDER BY due_date, id
	`, int(srs.Burned), formatTime(now))
}

// FetchScheduled returns the active cards whose due date falls in [from, to).
func (s *CardStore) FetchScheduled(ctx context.Context, from, to time.Time) ([]domain.Card, error) {
	return s.selectCards(ctx, "fetch scheduled cards", `
		SELECT `+cardColumns+` FROM cards
		WHERE stage < ? AND due_date IS NOT NULL AND due_date >= ? AND due_date < ?
		ORDER BY due_date, id
	`, int(srs.Burned), formatTime(from), formatTime(to))
}

// FetchBurned returns every burned card.
func (s *CardStore) FetchBurned(ctx context.Context) ([]domain.Card, error) {
	return s.selectCards(ctx, "fetch burned cards",
		`SELECT `+cardColumns+` FROM cards WHERE stage = ? ORDER BY added_at, id`, int(srs.Burned))
}

// ApplyReviewOutcome stores the result of a passed review: the new stage and
// due date, and a cleared incorrect counter.
func (s *CardStore) ApplyReviewOutcome(ctx context.Context, id uuid.UUID, stage srs.Stage, dueDate *time.Time) error {
	if !stage.Valid() {
		return fmt.Errorf("apply review outcome to card %s: stage %d: %w", id, int(stage), domain.ErrInvalidState)
	}
	if (stage == srs.Burned) != (dueDate == nil) {
		return fmt.Errorf("apply review outcome to card %s: stage %v with due date %v: %w", id, stage, dueDate, domain.ErrInvalidState)
	}

	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE cards
		SET stage = ?, due_date = ?, current_incorrect_count = 0
		WHERE id = ?
	`, int(stage), nullTime(dueDate), id.String())
	if err != nil {
		return domain.Persistence("update card "+id.String(), err)
	}
	return expectAffected(res, "card "+id.String())
}

// Resurrect moves a burned card back to the first apprentice stage.
func (s *CardStore) Resurrect(ctx context.Context, id uuid.UUID) (domain.Card, error) {
	var card domain.Card
	err := s.db.runInTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		card, err = s.getOne(ctx, tx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String())
		if err != nil {
			return err
		}
		if !card.IsBurned() {
			return fmt.Errorf("resurrect card %s at stage %v: %w", id, card.Stage, domain.ErrInvalidState)
		}

		card.Stage = srs.Apprentice1
		card.DueDate = srs.NextDueDate(srs.Apprentice1, s.db.now())
		card.CurrentIncorrectCount = 0
		if _, err := tx.ExecContext(ctx, `
			UPDATE cards
			SET stage = ?, due_date = ?, current_incorrect_count = 0
			WHERE id = ?
		`, int(card.Stage), nullTime(card.DueDate), id.String()); err != nil {
			return domain.Persistence("resurrect card "+id.String(), err)
		}
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// Reset removes every card along with the whole review history.
func (s *CardStore) Reset(ctx context.Context) error {
	return s.db.Reset(ctx)
}

func (s *CardStore) getOne(ctx context.Context, q sqlx.QueryerContext, query string, arg any) (domain.Card, error) {
	var row cardRow
	if err := sqlx.GetContext(ctx, q, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Card{}, fmt.Errorf("card %v: %w", arg, domain.ErrNotFound)
		}
		return domain.Card{}, domain.Persistence(fmt.Sprintf("find card %v", arg), err)
	}
	return row.toCard()
}

func (s *CardStore) selectCards(ctx context.Context, op, query string, args ...any) ([]domain.Card, error) {
	var rows []cardRow
	if err := s.db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domain.Persistence(op, err)
	}

	cards := make([]domain.Card, 0, len(rows))
	for _, row := range rows {
		card, err := row.toCard()
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("read affected rows for "+what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
