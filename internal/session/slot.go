package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/conorfennell/lexideck/internal/domain"
)

// Policy decides what starting a session does while another one is active.
type Policy int

const (
	// RejectIfActive refuses to start and keeps the active session.
	RejectIfActive Policy = iota
	// DiscardActive cancels the active session before starting a new one.
	DiscardActive
)

// ParsePolicy maps a config value ("reject" or "discard") to a Policy.
func ParsePolicy(v string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "reject":
		return RejectIfActive, nil
	case "discard":
		return DiscardActive, nil
	}
	return RejectIfActive, fmt.Errorf("unknown session policy %q", v)
}

func (p Policy) String() string {
	if p == DiscardActive {
		return "discard"
	}
	return "reject"
}

// Slot holds at most one session for its owner.
type Slot struct {
	engine *Engine
	active *Session
}

// NewSlot creates an empty slot that starts sessions with engine.
func NewSlot(engine *Engine) *Slot {
	return &Slot{engine: engine}
}

// Start begins a new session in the slot. While a session is still active,
// policy decides whether the call fails with domain.ErrInvalidState or the
// old session is cancelled first.
func (sl *Slot) Start(ctx context.Context, policy Policy) (*Session, error) {
	if sl.active.Active() {
		if policy != DiscardActive {
			return nil, fmt.Errorf("a review session is already in progress: %w", domain.ErrInvalidState)
		}
		sl.engine.logger.Info("Discarding active review session", "remaining", sl.active.Remaining())
		sl.End()
	}

	s, err := sl.engine.Start(ctx)
	if err != nil {
		return nil, err
	}
	sl.active = s
	return s, nil
}

// Current returns the session held by the slot, if it is still active.
func (sl *Slot) Current() (*Session, bool) {
	if !sl.active.Active() {
		return nil, false
	}
	return sl.active, true
}

// Reveal reveals the current card of the held session.
func (sl *Slot) Reveal() error {
	s, ok := sl.Current()
	if !ok {
		return fmt.Errorf("reveal without a session: %w", domain.ErrInvalidState)
	}
	return s.Reveal()
}

// Submit answers the current card of the held session.
func (sl *Slot) Submit(ctx context.Context, isCorrect bool) (Answer, error) {
	s, ok := sl.Current()
	if !ok {
		return Answer{}, fmt.Errorf("submit without a session: %w", domain.ErrInvalidState)
	}
	return sl.engine.Submit(ctx, s, isCorrect)
}

// End cancels and drops the held session.
func (sl *Slot) End() {
	sl.active.Cancel()
	sl.active = nil
}
