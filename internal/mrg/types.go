// Package mrg implements the Galactic Resolution Engine: dice-driven
// resolution of player and operative actions against a difficulty.
package mrg

import "errors"

// Contract violations. Valid numeric input never errors.
var (
	ErrInvalidDifficulty = errors.New("mrg: difficulty must be non-negative")
	ErrNegativeMerit     = errors.New("mrg: merit points must be non-negative")
)

// ResultType classifies the outcome of a resolution.
type ResultType int

const (
	CriticalFailure ResultType = iota
	TotalFailure
	PartialFailure
	PartialSuccess
	TotalSuccess
	CriticalSuccess
)

func (r ResultType) String() string {
	switch r {
	case CriticalFailure:
		return "critical_failure"
	case TotalFailure:
		return "total_failure"
	case PartialFailure:
		return "partial_failure"
	case PartialSuccess:
		return "partial_success"
	case TotalSuccess:
		return "total_success"
	case CriticalSuccess:
		return "critical_success"
	}
	return "unknown"
}

// Success reports whether the outcome counts as any grade of success.
func (r ResultType) Success() bool {
	return r >= PartialSuccess
}

// Roll holds the two independent d50 draws of one resolution.
type Roll struct {
	Die1 int
	Die2 int
}

// Total is the summed draw, range 2..100.
func (r Roll) Total() int { return r.Die1 + r.Die2 }

// ResolveRequest carries the inputs of one resolution.
//
// Seed makes the resolution deterministic: the same seed, merit, difficulty
// and modifiers always produce the same Result. Callers wanting fresh
// randomness pass a seed drawn from their own entropy source.
type ResolveRequest struct {
	MeritPoints int
	Difficulty  int
	// Modifiers are flat situational adjustments added to the bonus,
	// keyed by a label used only for audit output.
	Modifiers map[string]int
	Seed      int64
}

// Result is the full outcome of one resolution. Ephemeral: callers log it
// and apply effects, it is never persisted as state.
type Result struct {
	Roll        Roll
	MeritPoints int
	Bonus       int // asymptotic bonus plus situational modifiers
	Difficulty  int
	Margin      int
	Type        ResultType

	// Crit and total outcomes let the player pick a benefit or malus.
	RequiresChoice    bool
	AvailableBenefits []Benefit
	AvailableMaluses  []Malus
}

// Benefit is a reward pickable after a total or critical success.
type Benefit int

const (
	BenefitEfficiency Benefit = iota // refund part of the energy spent
	BenefitPrestige                  // faction prestige gain
	BenefitImpetus                   // next mission one tick faster
)

func (b Benefit) String() string {
	switch b {
	case BenefitEfficiency:
		return "efficiency"
	case BenefitPrestige:
		return "prestige"
	case BenefitImpetus:
		return "impetus"
	}
	return "unknown"
}

// Malus is a consequence pickable after a total or critical failure.
type Malus int

const (
	MalusOperativeDown Malus = iota // operative out of service
	MalusDiscredit                  // faction prestige loss
	MalusExposure                   // operative location revealed
)

func (m Malus) String() string {
	switch m {
	case MalusOperativeDown:
		return "operative_down"
	case MalusDiscredit:
		return "discredit"
	case MalusExposure:
		return "exposure"
	}
	return "unknown"
}

// Standard difficulty presets.
const (
	DifficultyTrivial   = 20
	DifficultyEasy      = 35
	DifficultyNormal    = 50
	DifficultyHard      = 65
	DifficultyVeryHard  = 80
	DifficultyHeroic    = 95
	DifficultyLegendary = 110
)
