package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/srs"
)

const reviewColumns = `id, card_id, reviewed_at, stage_before, stage_after, is_correct, incorrect_count`

// Ledger is the append-only review history together with its daily buckets.
type Ledger struct {
	db *DB
}

// WindowSummary counts the reviews in a time window.
type WindowSummary struct {
	Reviews int `db:"reviews"`
	Correct int `db:"correct"`
}

type reviewRow struct {
	ID             string `db:"id"`
	CardID         string `db:"card_id"`
	ReviewedAt     string `db:"reviewed_at"`
	StageBefore    int    `db:"stage_before"`
	StageAfter     int    `db:"stage_after"`
	IsCorrect      bool   `db:"is_correct"`
	IncorrectCount int    `db:"incorrect_count"`
}

func (r reviewRow) toRecord() (domain.ReviewRecord, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.ReviewRecord{}, fmt.Errorf("failed to parse review id %q: %w", r.ID, err)
	}
	cardID, err := uuid.Parse(r.CardID)
	if err != nil {
		return domain.ReviewRecord{}, fmt.Errorf("failed to parse card id %q: %w", r.CardID, err)
	}
	reviewedAt, err := parseTime(r.ReviewedAt)
	if err != nil {
		return domain.ReviewRecord{}, err
	}
	before, err := srs.ParseStage(r.StageBefore)
	if err != nil {
		return domain.ReviewRecord{}, fmt.Errorf("review %s: %w", r.ID, err)
	}
	after, err := srs.ParseStage(r.StageAfter)
	if err != nil {
		return domain.ReviewRecord{}, fmt.Errorf("review %s: %w", r.ID, err)
	}
	return domain.ReviewRecord{
		ID:             id,
		CardID:         cardID,
		ReviewedAt:     reviewedAt,
		StageBefore:    before,
		StageAfter:     after,
		IsCorrect:      r.IsCorrect,
		IncorrectCount: r.IncorrectCount,
	}, nil
}

// Day returns the calendar day t falls on in the ledger's time zone.
func (l *Ledger) Day(t time.Time) string {
	return t.In(l.db.loc).Format(domain.DateLayout)
}

// Append stores a review record and bumps the daily bucket for its day in
// the same transaction. A zero record ID is replaced with a fresh one.
func (l *Ledger) Append(ctx context.Context, rec *domain.ReviewRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	correct, incorrect := 0, 1
	if rec.IsCorrect {
		correct, incorrect = 1, 0
	}

	return l.db.runInTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO review_history (`+reviewColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			rec.ID.String(),
			rec.CardID.String(),
			formatTime(rec.ReviewedAt),
			int(rec.StageBefore),
			int(rec.StageAfter),
			rec.IsCorrect,
			rec.IncorrectCount,
		)
		if err != nil {
			return domain.Persistence("insert review record for card "+rec.CardID.String(), err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_stats (date, reviews_count, correct_count, incorrect_count)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				reviews_count = reviews_count + 1,
				correct_count = correct_count + excluded.correct_count,
				incorrect_count = incorrect_count + excluded.incorrect_count
		`, l.Day(rec.ReviewedAt), correct, incorrect)
		if err != nil {
			return domain.Persistence("increment daily stats", err)
		}
		return nil
	})
}

// QueryByCard returns the review history of one card, oldest first.
func (l *Ledger) QueryByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewRecord, error) {
	return l.selectRecords(ctx, "query reviews for card "+cardID.String(), `
		SELECT `+reviewColumns+` FROM review_history
		WHERE card_id = ?
		ORDER BY reviewed_at, id
	`, cardID.String())
}

// QueryRecent returns up to limit of the most recent reviews, newest first.
func (l *Ledger) QueryRecent(ctx context.Context, limit int) ([]domain.ReviewRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	return l.selectRecords(ctx, "query recent reviews", `
		SELECT `+reviewColumns+` FROM review_history
		ORDER BY reviewed_at DESC, id DESC
		LIMIT ?
	`, limit)
}

// QueryLearnedCount counts the cards whose first correct answer from the New
// stage happened in [start, end).
func (l *Ledger) QueryLearnedCount(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := l.db.conn.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM (
			SELECT card_id, MIN(reviewed_at) AS first_learned
			FROM review_history
			WHERE stage_before = ? AND is_correct = 1
			GROUP BY card_id
		)
		WHERE first_learned >= ? AND first_learned < ?
	`, int(srs.New), formatTime(start), formatTime(end))
	if err != nil {
		return 0, domain.Persistence("count learned cards", err)
	}
	return n, nil
}

// Summary counts reviews and correct answers at or after since. A zero since
// covers the whole ledger.
func (l *Ledger) Summary(ctx context.Context, since time.Time) (WindowSummary, error) {
	var sum WindowSummary
	query := `SELECT COUNT(*) AS reviews, COALESCE(SUM(is_correct), 0) AS correct FROM review_history`
	args := []any{}
	if !since.IsZero() {
		query += ` WHERE reviewed_at >= ?`
		args = append(args, formatTime(since))
	}
	if err := l.db.conn.GetContext(ctx, &sum, query, args...); err != nil {
		return WindowSummary{}, domain.Persistence("summarize reviews", err)
	}
	return sum, nil
}

// DailyStatsFor returns the bucket for one day, or an empty bucket for a day
// without reviews.
func (l *Ledger) DailyStatsFor(ctx context.Context, date string) (domain.DailyStats, error) {
	buckets, err := l.DailyStats(ctx, date, date)
	if err != nil {
		return domain.DailyStats{}, err
	}
	if len(buckets) == 0 {
		return domain.DailyStats{Date: date}, nil
	}
	return buckets[0], nil
}

// DailyStats returns the buckets between from and to inclusive, by date.
func (l *Ledger) DailyStats(ctx context.Context, from, to string) ([]domain.DailyStats, error) {
	return l.selectBuckets(ctx, `
		SELECT date, reviews_count, correct_count, incorrect_count
		FROM daily_stats
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`, from, to)
}

// AllDailyStats returns every bucket, by date.
func (l *Ledger) AllDailyStats(ctx context.Context) ([]domain.DailyStats, error) {
	return l.selectBuckets(ctx, `
		SELECT date, reviews_count, correct_count, incorrect_count
		FROM daily_stats
		ORDER BY date
	`)
}

// RebuildDailyStats recomputes every bucket from the review history and
// returns the number of buckets written.
func (l *Ledger) RebuildDailyStats(ctx context.Context) (int, error) {
	var written int
	err := l.db.runInTx(ctx, func(tx *sqlx.Tx) error {
		var rows []struct {
			ReviewedAt string `db:"reviewed_at"`
			IsCorrect  bool   `db:"is_correct"`
		}
		if err := tx.SelectContext(ctx, &rows, `SELECT reviewed_at, is_correct FROM review_history`); err != nil {
			return domain.Persistence("read review history", err)
		}

		buckets := map[string]*domain.DailyStats{}
		var order []string
		for _, row := range rows {
			reviewedAt, err := parseTime(row.ReviewedAt)
			if err != nil {
				return err
			}
			day := l.Day(reviewedAt)
			b, ok := buckets[day]
			if !ok {
				b = &domain.DailyStats{Date: day}
				buckets[day] = b
				order = append(order, day)
			}
			b.ReviewsCount++
			if row.IsCorrect {
				b.CorrectCount++
			} else {
				b.IncorrectCount++
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_stats`); err != nil {
			return domain.Persistence("clear daily stats", err)
		}
		for _, day := range order {
			b := buckets[day]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO daily_stats (date, reviews_count, correct_count, incorrect_count)
				VALUES (?, ?, ?, ?)
			`, b.Date, b.ReviewsCount, b.CorrectCount, b.IncorrectCount); err != nil {
				return domain.Persistence("write daily stats for "+day, err)
			}
		}
		written = len(order)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (l *Ledger) selectRecords(ctx context.Context, op, query string, args ...any) ([]domain.ReviewRecord, error) {
	var rows []reviewRow
	if err := l.db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domain.Persistence(op, err)
	}

	records := make([]domain.ReviewRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *Ledger) selectBuckets(ctx context.Context, query string, args ...any) ([]domain.DailyStats, error) {
	var rows []struct {
		Date           string `db:"date"`
		ReviewsCount   int    `db:"reviews_count"`
		CorrectCount   int    `db:"correct_count"`
		IncorrectCount int    `db:"incorrect_count"`
	}
	if err := l.db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domain.Persistence("query daily stats", err)
	}

	buckets := make([]domain.DailyStats, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, domain.DailyStats(row))
	}
	return buckets, nil
}
