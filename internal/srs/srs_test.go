package srs

import (
	"testing"
	"time"
)

func TestNextStage(t *testing.T) {
	testCases := []struct {
		name           string
		current        Stage
		isCorrect      bool
		incorrectCount int
		expected       Stage
	}{
		{"correct from new", New, true, 0, Apprentice1},
		{"correct from apprentice 4", Apprentice4, true, 0, Guru1},
		{"correct from enlightened burns", Enlightened, true, 0, Burned},
		{"correct at burned stays burned", Burned, true, 0, Burned},
		{"first miss at apprentice 4", Apprentice4, false, 1, Apprentice3},
		{"second miss at apprentice 4", Apprentice4, false, 2, Apprentice3},
		{"third miss at apprentice 4", Apprentice4, false, 3, Apprentice2},
		{"first miss at guru 1 is doubled", Guru1, false, 1, Apprentice3},
		{"third miss at enlightened", Enlightened, false, 3, Apprentice4},
		{"miss never drops below apprentice 1", Apprentice2, false, 9, Apprentice1},
		{"miss at new floors at apprentice 1", New, false, 1, Apprentice1},
		{"miss with no recorded count keeps stage", Master, false, 0, Master},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextStage(tc.current, tc.isCorrect, tc.incorrectCount)
			if got != tc.expected {
				t.Errorf("NextStage(%v, %v, %d) = %v, expected %v", tc.current, tc.isCorrect, tc.incorrectCount, got, tc.expected)
			}
		})
	}
}

func TestNextStageIncorrectStaysInRange(t *testing.T) {
	for s := Apprentice1; s <= Enlightened; s++ {
		for n := 1; n <= 20; n++ {
			got := NextStage(s, false, n)
			if got < Apprentice1 || got > s {
				t.Fatalf("NextStage(%v, false, %d) = %v, expected within [%v, %v]", s, n, got, Apprentice1, s)
			}
		}
	}
}

func TestNextStageCorrect(t *testing.T) {
	for s := New; s <= Burned; s++ {
		expected := s + 1
		if expected > Burned {
			expected = Burned
		}
		if got := NextStage(s, true, 0); got != expected {
			t.Errorf("NextStage(%v, true, 0) = %v, expected %v", s, got, expected)
		}
	}
}

func TestNextDueDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if due := NextDueDate(Burned, now); due != nil {
		t.Fatalf("Expected no due date for burned, got %v", due)
	}

	for s := Apprentice1; s <= Enlightened; s++ {
		due := NextDueDate(s, now)
		if due == nil {
			t.Fatalf("Expected a due date for %v", s)
		}
		if !due.After(now) {
			t.Errorf("Expected due date for %v to be after now, got %v", s, due)
		}
	}

	due := NextDueDate(Guru1, now)
	if expected := now.Add(7 * 24 * time.Hour); !due.Equal(expected) {
		t.Errorf("Expected guru 1 due date %v, got %v", expected, due)
	}
	if due := NextDueDate(New, now); !due.Equal(now) {
		t.Errorf("Expected new cards to be due immediately, got %v", due)
	}
}

func TestGroup(t *testing.T) {
	expected := map[Stage]Group{
		New:         GroupNew,
		Apprentice1: GroupApprentice,
		Apprentice4: GroupApprentice,
		Guru1:       GroupGuru,
		Guru2:       GroupGuru,
		Master:      GroupMaster,
		Enlightened: GroupEnlightened,
		Burned:      GroupBurned,
	}
	for s, g := range expected {
		if s.Group() != g {
			t.Errorf("Expected %v to be in group %q, got %q", s, g, s.Group())
		}
	}
}

func TestParseStage(t *testing.T) {
	if _, err := ParseStage(-1); err == nil {
		t.Error("Expected an error for stage -1")
	}
	if _, err := ParseStage(10); err == nil {
		t.Error("Expected an error for stage 10")
	}
	s, err := ParseStage(7)
	if err != nil || s != Master {
		t.Errorf("Expected Master, got %v (err %v)", s, err)
	}
}
