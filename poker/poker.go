package poker

import "strings"

const (
	SmallBlindAmount = 100
	BigBlindAmount   = 200
	StartingChips    = 5000
	HoleCardCount    = 2
	BoardCardCount   = 5
)

// ValidSeatCounts are the table sizes a table can be created with
var ValidSeatCounts = []int{6, 8, 10}

// IsValidSeatCount reports whether n is a supported table size
func IsValidSeatCount(n int) bool {
	for _, v := range ValidSeatCounts {
		if v == n {
			return true
		}
	}
	return false
}

// Action is the decision a player made on their turn
type Action int

const (
	ActionNone Action = iota
	ActionCall
	ActionCheck
	ActionFold
	ActionRaise
)

func (a Action) String() string {
	switch a {
	case ActionCall:
		return "CALL"
	case ActionCheck:
		return "CHECK"
	case ActionFold:
		return "FOLD"
	case ActionRaise:
		return "RAISE"
	}
	return "NONE"
}

// ParseAction reads an action name in any case
func ParseAction(s string) (Action, bool) {
	switch strings.ToUpper(s) {
	case "CALL":
		return ActionCall, true
	case "CHECK":
		return ActionCheck, true
	case "FOLD":
		return ActionFold, true
	case "RAISE":
		return ActionRaise, true
	case "NONE":
		return ActionNone, true
	}
	return ActionNone, false
}

// Stage is how far the current hand has progressed
type Stage int

const (
	StageIdle      Stage = -1
	StagePreDeal   Stage = 0
	StageHoleCards Stage = 1
	StageFlop      Stage = 2
	StageTurn      Stage = 3
	StageRiver     Stage = 4
	StageShowdown  Stage = 5
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StagePreDeal:
		return "predeal"
	case StageHoleCards:
		return "preflop"
	case StageFlop:
		return "flop"
	case StageTurn:
		return "turn"
	case StageRiver:
		return "river"
	case StageShowdown:
		return "showdown"
	}
	return "unknown"
}

// Direction of travel around the table
type Direction int

const (
	// AntiClockwise walks seats by decreasing index, the direction play moves in
	AntiClockwise Direction = -1
	Clockwise     Direction = 1
)
