// Package session runs self-graded review sessions over the due cards.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/srs"
)

//go:generate mockgen -source=session.go -destination=../mocks/session/mock_session.go -package=mock_session

// CardStore is the part of the card store a session needs.
type CardStore interface {
	FetchDue(ctx context.Context, now time.Time) ([]domain.Card, error)
	ApplyReviewOutcome(ctx context.Context, id uuid.UUID, stage srs.Stage, dueDate *time.Time) error
}

// Ledger records every answered attempt.
type Ledger interface {
	Append(ctx context.Context, rec *domain.ReviewRecord) error
}

// State is the position of a session in the reveal/answer cycle.
type State int

const (
	Idle State = iota
	AwaitingReveal
	AwaitingAnswer
	Complete
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReveal:
		return "awaiting reveal"
	case AwaitingAnswer:
		return "awaiting answer"
	case Complete:
		return "complete"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Item is a queued card together with its misses in this session.
type Item struct {
	Card                  domain.Card
	SessionIncorrectCount int
}

// Results are the running totals of a session.
type Results struct {
	Correct   int
	Incorrect int
	Burned    int
}

// Answer describes what a submission did.
type Answer struct {
	Record   domain.ReviewRecord
	NewStage srs.Stage
	// DueDate is the stored due date after a correct answer; nil for misses
	// and burned cards.
	DueDate  *time.Time
	Requeued bool
	Burned   bool
}

// Session is one in-memory review session. It is never persisted.
type Session struct {
	state           State
	queue           []Item
	current         Item
	revealed        bool
	incorrectCounts map[uuid.UUID]int
	results         Results
	totalCards      int
	startedAt       time.Time
}

// State returns the current state.
func (s *Session) State() State {
	if s == nil {
		return Idle
	}
	return s.state
}

// Active reports whether the session still expects reveals or answers.
func (s *Session) Active() bool {
	st := s.State()
	return st == AwaitingReveal || st == AwaitingAnswer
}

// Current returns the card being shown. ok is false once the queue is
// exhausted or the session was cancelled.
func (s *Session) Current() (item Item, ok bool) {
	if !s.Active() {
		return Item{}, false
	}
	return s.current, true
}

// Revealed reports whether the answer face of the current card is visible.
func (s *Session) Revealed() bool { return s.Active() && s.revealed }

// TotalCards is the size of the due set when the session started.
func (s *Session) TotalCards() int {
	if s == nil {
		return 0
	}
	return s.totalCards
}

// Remaining counts the cards still to be shown, including the current one.
func (s *Session) Remaining() int {
	if !s.Active() {
		return 0
	}
	return len(s.queue) + 1
}

// Results returns the running totals.
func (s *Session) Results() Results {
	if s == nil {
		return Results{}
	}
	return s.results
}

// StartedAt returns when the due set was captured.
func (s *Session) StartedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.startedAt
}

// IncorrectCount returns the misses for a card in this session.
func (s *Session) IncorrectCount(cardID uuid.UUID) int {
	if s == nil {
		return 0
	}
	return s.incorrectCounts[cardID]
}

// Reveal shows the answer face of the current card. Revealing twice is a
// no-op.
func (s *Session) Reveal() error {
	if !s.Active() {
		return fmt.Errorf("reveal in %v session: %w", s.State(), domain.ErrInvalidState)
	}
	s.revealed = true
	s.state = AwaitingAnswer
	return nil
}

// Cancel discards the session. Answers already submitted stay recorded.
func (s *Session) Cancel() {
	if s == nil || s.state == Complete {
		return
	}
	s.state = Cancelled
	s.queue = nil
	s.current = Item{}
	s.revealed = false
}

func (s *Session) advance() {
	s.revealed = false
	if len(s.queue) == 0 {
		s.current = Item{}
		s.state = Complete
		return
	}
	s.current = s.queue[0]
	s.queue = s.queue[1:]
	s.state = AwaitingReveal
}

// Engine starts sessions and applies answers to the stores.
type Engine struct {
	cards   CardStore
	ledger  Ledger
	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand makes the queue order reproducible.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.shuffle = r.Shuffle
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine over the given stores.
func NewEngine(cards CardStore, ledger Ledger, opts ...Option) *Engine {
	e := &Engine{
		cards:   cards,
		ledger:  ledger,
		now:     time.Now,
		shuffle: rand.Shuffle,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start snapshots the due cards in random order. It returns
// domain.ErrNothingDue when no card is due.
func (e *Engine) Start(ctx context.Context) (*Session, error) {
	now := e.now()
	due, err := e.cards.FetchDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load due cards: %w", err)
	}
	if len(due) == 0 {
		return nil, domain.ErrNothingDue
	}

	items := make([]Item, len(due))
	for i, card := range due {
		items[i] = Item{Card: card}
	}
	e.shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	s := &Session{
		state:           AwaitingReveal,
		current:         items[0],
		queue:           items[1:],
		incorrectCounts: make(map[uuid.UUID]int),
		totalCards:      len(items),
		startedAt:       now,
	}
	e.logger.Info("Review session started", "due", s.totalCards)
	return s, nil
}

// Submit grades the revealed card. Every answer is written to the ledger.
// Only a correct answer moves the stored card; a missed card goes to the
// back of the queue with its stored stage untouched.
//
// If the ledger write fails the session is left as it was. If the card
// update fails after the ledger write, the session still moves on and the
// error is returned with the answer.
func (e *Engine) Submit(ctx context.Context, s *Session, isCorrect bool) (Answer, error) {
	if s.State() != AwaitingAnswer {
		return Answer{}, fmt.Errorf("submit in %v session: %w", s.State(), domain.ErrInvalidState)
	}

	item := s.current
	card := item.Card
	count := s.incorrectCounts[card.ID]
	if !isCorrect {
		count++
	}
	newStage := srs.NextStage(card.Stage, isCorrect, count)
	now := e.now()

	rec := &domain.ReviewRecord{
		CardID:         card.ID,
		ReviewedAt:     now,
		StageBefore:    card.Stage,
		StageAfter:     newStage,
		IsCorrect:      isCorrect,
		IncorrectCount: count,
	}
	if err := e.ledger.Append(ctx, rec); err != nil {
		return Answer{}, fmt.Errorf("failed to record review for card %s: %w", card.ID, err)
	}

	answer := Answer{Record: *rec, NewStage: newStage}
	var updateErr error
	if isCorrect {
		answer.DueDate = srs.NextDueDate(newStage, now)
		if err := e.cards.ApplyReviewOutcome(ctx, card.ID, newStage, answer.DueDate); err != nil {
			updateErr = fmt.Errorf("failed to update card %s after review: %w", card.ID, err)
			e.logger.Warn("Card update failed after review was recorded", "card_id", card.ID, "error", err)
		}
		s.results.Correct++
		if newStage == srs.Burned {
			s.results.Burned++
			answer.Burned = true
		}
	} else {
		s.incorrectCounts[card.ID] = count
		s.queue = append(s.queue, Item{Card: card, SessionIncorrectCount: count})
		s.results.Incorrect++
		answer.Requeued = true
	}

	e.logger.Debug("Review answered",
		"card_id", card.ID,
		"correct", isCorrect,
		"stage_before", card.Stage,
		"stage_after", newStage,
		"session_incorrect", count,
	)

	s.advance()
	if s.state == Complete {
		e.logger.Info("Review session complete",
			"total", s.totalCards,
			"correct", s.results.Correct,
			"incorrect", s.results.Incorrect,
			"burned", s.results.Burned,
		)
	}
	return answer, updateErr
}
