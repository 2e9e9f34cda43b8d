package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/lexideck/internal/srs"
)

// Enrichment holds optional card content that the engine carries through
// without interpreting it.
type Enrichment struct {
	ExampleText    string
	TranslatedText string
	ImageRef       string
}

// Card is a learner's progress on one catalog entry.
type Card struct {
	ID           uuid.UUID
	DictionaryID string
	AddedAt      time.Time
	Stage        srs.Stage
	// DueDate is nil if and only if Stage is srs.Burned.
	DueDate               *time.Time
	CurrentIncorrectCount int
	Enrichment
}

// IsBurned reports whether the card has left the schedule.
func (c Card) IsBurned() bool {
	return c.Stage == srs.Burned
}

// IsDue reports whether the card should be reviewed at now.
func (c Card) IsDue(now time.Time) bool {
	if c.IsBurned() || c.DueDate == nil {
		return false
	}
	return !c.DueDate.After(now)
}

// ReviewRecord records a single answered attempt for a card.
type ReviewRecord struct {
	ID          uuid.UUID
	CardID      uuid.UUID
	ReviewedAt  time.Time
	StageBefore srs.Stage
	StageAfter  srs.Stage
	IsCorrect   bool
	// IncorrectCount is the session-scoped miss count when the answer was given.
	IncorrectCount int
}

// DailyStats is the per-day review aggregate kept alongside the ledger.
type DailyStats struct {
	Date           string // YYYY-MM-DD
	ReviewsCount   int
	CorrectCount   int
	IncorrectCount int
}

// DateLayout is the calendar day format used for DailyStats.Date.
const DateLayout = "2006-01-02"

// Entry is the display metadata of a catalog item.
type Entry struct {
	DictionaryID string
	Headword     string
	Reading      string
	Meaning      string
}

// Catalog resolves dictionary ids for display. The scheduling core never
// calls it.
type Catalog interface {
	Lookup(ctx context.Context, dictionaryID string) (Entry, error)
}
