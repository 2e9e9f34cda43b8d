// Package srs implements the fixed ten-stage review schedule.
package srs

import "time"

// guruPenaltyFactor doubles the demotion for cards at Guru or above.
const guruPenaltyFactor = 2

// NextStage calculates the stage a card moves to after an answer.
// incorrectCount is the number of misses for the card in the current chain,
// including the one being graded.
func NextStage(current Stage, isCorrect bool, incorrectCount int) Stage {
	if isCorrect {
		if current >= Burned {
			return Burned
		}
		return current + 1
	}

	if incorrectCount < 0 {
		incorrectCount = 0
	}
	adjustment := (incorrectCount + 1) / 2 // ceil(n/2)
	penalty := 1
	if current >= Guru1 {
		penalty = guruPenaltyFactor
	}

	next := current - Stage(adjustment*penalty)
	if next < Apprentice1 {
		return Apprentice1
	}
	return next
}

// NextDueDate calculates when a card at the given stage is due again.
// It returns nil for Burned.
func NextDueDate(stage Stage, now time.Time) *time.Time {
	interval, ok := stage.Interval()
	if !ok {
		return nil
	}
	due := now.Add(interval)
	return &due
}
