package srs

import (
	"fmt"
	"time"
)

// Stage is a card's position on the fixed review schedule.
type Stage int

const (
	New Stage = iota
	Apprentice1
	Apprentice2
	Apprentice3
	Apprentice4
	Guru1
	Guru2
	Master
	Enlightened
	Burned
)

// NumStages is the number of stages on the schedule.
const NumStages = int(Burned) + 1

// Group is the coarse maturity bucket a stage belongs to.
type Group string

const (
	GroupNew         Group = "new"
	GroupApprentice  Group = "apprentice"
	GroupGuru        Group = "guru"
	GroupMaster      Group = "master"
	GroupEnlightened Group = "enlightened"
	GroupBurned      Group = "burned"
)

// intervals holds the time until a card at each stage is due again.
// Burned has no entry in practice; its slot is never read.
var intervals = [NumStages]time.Duration{
	New:         0,
	Apprentice1: 4 * time.Hour,
	Apprentice2: 8 * time.Hour,
	Apprentice3: 24 * time.Hour,
	Apprentice4: 2 * 24 * time.Hour,
	Guru1:       7 * 24 * time.Hour,
	Guru2:       14 * 24 * time.Hour,
	Master:      30 * 24 * time.Hour,
	Enlightened: 120 * 24 * time.Hour,
}

var groups = [NumStages]Group{
	New:         GroupNew,
	Apprentice1: GroupApprentice,
	Apprentice2: GroupApprentice,
	Apprentice3: GroupApprentice,
	Apprentice4: GroupApprentice,
	Guru1:       GroupGuru,
	Guru2:       GroupGuru,
	Master:      GroupMaster,
	Enlightened: GroupEnlightened,
	Burned:      GroupBurned,
}

var names = [NumStages]string{
	New:         "New",
	Apprentice1: "Apprentice 1",
	Apprentice2: "Apprentice 2",
	Apprentice3: "Apprentice 3",
	Apprentice4: "Apprentice 4",
	Guru1:       "Guru 1",
	Guru2:       "Guru 2",
	Master:      "Master",
	Enlightened: "Enlightened",
	Burned:      "Burned",
}

// ParseStage converts a stored integer into a Stage, rejecting anything
// outside the schedule.
func ParseStage(v int) (Stage, error) {
	if v < int(New) || v > int(Burned) {
		return 0, fmt.Errorf("stage %d out of range [%d, %d]", v, New, Burned)
	}
	return Stage(v), nil
}

// Valid reports whether s is one of the ten schedule stages.
func (s Stage) Valid() bool {
	return s >= New && s <= Burned
}

// Interval returns how long a card waits at this stage before it is due.
// The boolean is false for Burned, which is never due again.
func (s Stage) Interval() (time.Duration, bool) {
	if s == Burned {
		return 0, false
	}
	return intervals[s.clamp()], true
}

// Group returns the maturity group of the stage.
func (s Stage) Group() Group {
	return groups[s.clamp()]
}

func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return names[s]
}

// clamp keeps table lookups total for values built by conversion.
func (s Stage) clamp() Stage {
	switch {
	case s < New:
		return New
	case s > Burned:
		return Burned
	}
	return s
}

// ActiveGroups lists the groups that count toward an active deck, in
// schedule order.
func ActiveGroups() []Group {
	return []Group{GroupApprentice, GroupGuru, GroupMaster, GroupEnlightened}
}
