// Package prestige maintains the conserved political-capital pool shared by
// all factions: pairwise transfers, per-tick friction, and the hegemony
// state machine with its victory countdown.
package prestige

import "errors"

var (
	// ErrUnknownFaction is returned when an operation names a faction
	// that is not part of the ledger.
	ErrUnknownFaction = errors.New("prestige: unknown faction")
	// ErrInvalidAmount is returned for NaN or negative base amounts.
	ErrInvalidAmount = errors.New("prestige: invalid amount")
	// ErrConservation is the fatal invariant breach: the pool total
	// drifted outside tolerance. The offending mutation is rolled back.
	ErrConservation = errors.New("prestige: pool total outside tolerance")
)

// Faction is one participant in the prestige pool. Never deleted during a
// game session.
type Faction struct {
	ID              string  `db:"id" json:"id"`
	Name            string  `db:"name" json:"name"`
	Prestige        float64 `db:"prestige" json:"prestige"`
	IsHegemon       bool    `db:"is_hegemon" json:"is_hegemon"`
	HegemonyCounter int     `db:"hegemony_counter" json:"hegemony_counter"`
}

// State is the display classification of a faction's standing.
type State int

const (
	StateNormal State = iota
	StateHegemonic
	StateIrrelevant // below the subsidy threshold
	StateCollapsed  // nearly eliminated
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateHegemonic:
		return "hegemonic"
	case StateIrrelevant:
		return "irrelevant"
	case StateCollapsed:
		return "collapsed"
	}
	return "unknown"
}

// Transfer is an append-only audit record of one prestige movement.
// Immutable once written; never replayed to reconstruct state.
type Transfer struct {
	ID            string  `db:"id" json:"id"`
	Tick          int64   `db:"tick" json:"tick"`
	AttackerID    string  `db:"attacker_id" json:"attacker_id"`
	DefenderID    string  `db:"defender_id" json:"defender_id"`
	Amount        float64 `db:"amount" json:"amount"`
	IDPMultiplier float64 `db:"idp_multiplier" json:"idp_multiplier"`
	Reason        string  `db:"reason" json:"reason"`
}

// TransitionKind tags a hegemony state change.
type TransitionKind int

const (
	TransitionAscended TransitionKind = iota
	TransitionFell
	TransitionVictory
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionAscended:
		return "ascended"
	case TransitionFell:
		return "fell"
	case TransitionVictory:
		return "victory"
	}
	return "unknown"
}

// Transition reports one hegemony state change from an AdvanceHegemony pass.
type Transition struct {
	FactionID string
	Kind      TransitionKind
	Counter   int // victory counter after the transition
}

// PvE reward tiers, drained zero-sum from the other factions.
const (
	PvETierMinor     = 0.2
	PvETierMedium    = 0.5
	PvETierMajor     = 0.75
	PvETierLegendary = 1.0
)
