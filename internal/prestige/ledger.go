package prestige

import (
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"
)

// Config holds the ledger tunables.
type Config struct {
	PoolTotal          float64 // conserved total (default 100)
	Tolerance          float64 // conservation tolerance (default 0.01)
	IDPDivisor         float64 // power-disparity divisor (default 20)
	FrictionThreshold  float64 // factions above this pay the tax (default 20)
	FrictionTax        float64 // flat points collected per tick (default 0.5)
	SubsidyThreshold   float64 // factions below this receive subsidy (default 5)
	AscensionThreshold float64 // prestige to become hegemon (default 25)
	FallThreshold      float64 // prestige below which a hegemon falls (default 20)
	VictoryTicks       int     // countdown to hegemony victory (default 20)
}

// DefaultConfig returns the standard pool parameters.
func DefaultConfig() Config {
	return Config{
		PoolTotal:          100,
		Tolerance:          0.01,
		IDPDivisor:         20,
		FrictionThreshold:  20,
		FrictionTax:        0.5,
		SubsidyThreshold:   5,
		AscensionThreshold: 25,
		FallThreshold:      20,
		VictoryTicks:       20,
	}
}

// Ledger owns the in-memory faction set. All mutations go through its
// operations, each of which verifies the conservation invariant before
// committing. Not safe for concurrent use: the friction and transfer passes
// touch the whole faction set and must run single-threaded relative to each
// other (the winning tick caller is the only writer).
type Ledger struct {
	cfg      Config
	factions map[string]*Faction
	order    []string // faction IDs sorted, for deterministic iteration
}

// NewLedger builds a ledger over the given factions. Dirty upstream data
// (pool total off by more than the tolerance) is normalized on load with a
// warning, per the repair-don't-reject policy for inconsistent records.
func NewLedger(cfg Config, factions []*Faction) *Ledger {
	l := &Ledger{
		cfg:      cfg,
		factions: make(map[string]*Faction, len(factions)),
	}
	for _, f := range factions {
		l.factions[f.ID] = f
		l.order = append(l.order, f.ID)
	}
	sort.Strings(l.order)

	if err := l.checkConservation(); err != nil {
		slog.Warn("prestige pool loaded off-total, normalizing", "total", l.total())
		l.normalize()
	}
	return l
}

// Faction returns the faction with the given ID, or nil.
func (l *Ledger) Faction(id string) *Faction {
	return l.factions[id]
}

// Factions returns the factions in stable ID order.
func (l *Ledger) Factions() []*Faction {
	out := make([]*Faction, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.factions[id])
	}
	return out
}

// Ranking returns the factions ordered by prestige, highest first. Ties
// break on ID so the order is stable.
func (l *Ledger) Ranking() []*Faction {
	out := l.Factions()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Prestige != out[j].Prestige {
			return out[i].Prestige > out[j].Prestige
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// StateOf classifies a faction's standing for display.
func (l *Ledger) StateOf(f *Faction) State {
	switch {
	case f.IsHegemon || f.Prestige >= l.cfg.AscensionThreshold:
		return StateHegemonic
	case f.Prestige < 2:
		return StateCollapsed
	case f.Prestige < l.cfg.SubsidyThreshold:
		return StateIrrelevant
	default:
		return StateNormal
	}
}

// IDP computes the Index of Power Disparity for a transfer. Attacking a
// stronger faction multiplies the gain; attacking one already at least
// IDPDivisor points weaker clamps to zero, so no transfer occurs.
func (l *Ledger) IDP(attackerPrestige, defenderPrestige float64) float64 {
	raw := 1 + (defenderPrestige-attackerPrestige)/l.cfg.IDPDivisor
	return math.Max(0, raw)
}

// Transfer moves prestige from the defender to the attacker: amount is
// baseEvent scaled by the IDP, clamped to the defender's balance so the
// pool never goes negative. Strictly pairwise zero-sum. Returns the audit
// record; a zero-amount transfer (anti-snowball clamp) returns amount 0 and
// no record.
func (l *Ledger) Transfer(attackerID, defenderID string, baseEvent float64, tick int64, reason string) (float64, *Transfer, error) {
	attacker, ok := l.factions[attackerID]
	if !ok {
		return 0, nil, ErrUnknownFaction
	}
	defender, ok := l.factions[defenderID]
	if !ok {
		return 0, nil, ErrUnknownFaction
	}
	if baseEvent < 0 || math.IsNaN(baseEvent) {
		return 0, nil, ErrInvalidAmount
	}

	idp := l.IDP(attacker.Prestige, defender.Prestige)
	amount := baseEvent * idp
	if amount > defender.Prestige {
		amount = defender.Prestige
	}
	if amount == 0 {
		return 0, nil, nil
	}

	defender.Prestige -= amount
	attacker.Prestige += amount

	if err := l.checkConservation(); err != nil {
		// Roll back: exact inverse of the pairwise move.
		defender.Prestige += amount
		attacker.Prestige -= amount
		slog.Error("prestige transfer rejected", "attacker", attackerID, "defender", defenderID, "amount", amount, "error", err)
		return 0, nil, err
	}

	rec := &Transfer{
		ID:            uuid.NewString(),
		Tick:          tick,
		AttackerID:    attackerID,
		DefenderID:    defenderID,
		Amount:        amount,
		IDPMultiplier: idp,
		Reason:        reason,
	}
	return amount, rec, nil
}

// ApplyFriction runs the per-tick taxation/subsidy pass: factions above the
// upper threshold pay a flat tax, pooled and split evenly among factions
// below the lower threshold. With no qualifying receiver the tax is not
// collected at all, so the operation conserves the pool exactly.
func (l *Ledger) ApplyFriction() (map[string]float64, error) {
	adjustments := make(map[string]float64, len(l.order))

	var receivers []string
	for _, id := range l.order {
		if l.factions[id].Prestige < l.cfg.SubsidyThreshold {
			receivers = append(receivers, id)
		}
	}
	if len(receivers) == 0 {
		return adjustments, nil
	}

	collected := 0.0
	for _, id := range l.order {
		f := l.factions[id]
		if f.Prestige > l.cfg.FrictionThreshold {
			adjustments[id] -= l.cfg.FrictionTax
			collected += l.cfg.FrictionTax
		}
	}
	if collected == 0 {
		return adjustments, nil
	}

	subsidy := collected / float64(len(receivers))
	for _, id := range receivers {
		adjustments[id] += subsidy
	}

	for id, delta := range adjustments {
		l.factions[id].Prestige += delta
	}
	if err := l.checkConservation(); err != nil {
		for id, delta := range adjustments {
			l.factions[id].Prestige -= delta
		}
		slog.Error("friction pass rejected", "collected", collected, "error", err)
		return nil, err
	}
	return adjustments, nil
}

// PvEReward credits a tiered milestone reward to one faction, drained
// evenly from all other factions (zero-sum against the rest of the pool).
// Payers are never driven below zero; the shortfall reduces the reward.
func (l *Ledger) PvEReward(targetID string, amount float64) (float64, error) {
	target, ok := l.factions[targetID]
	if !ok {
		return 0, ErrUnknownFaction
	}
	if amount < 0 || math.IsNaN(amount) {
		return 0, ErrInvalidAmount
	}
	if len(l.order) < 2 || amount == 0 {
		return 0, nil
	}

	share := amount / float64(len(l.order)-1)
	drained := 0.0
	applied := make(map[string]float64, len(l.order))
	for _, id := range l.order {
		if id == targetID {
			continue
		}
		f := l.factions[id]
		pay := math.Min(share, f.Prestige)
		f.Prestige -= pay
		applied[id] = -pay
		drained += pay
	}
	target.Prestige += drained
	applied[targetID] = drained

	if err := l.checkConservation(); err != nil {
		for id, delta := range applied {
			l.factions[id].Prestige -= delta
		}
		slog.Error("pve reward rejected", "target", targetID, "amount", amount, "error", err)
		return 0, err
	}
	return drained, nil
}

// AdvanceHegemony runs the per-tick hegemony pass in stable faction order:
// a sitting hegemon falls when prestige drops below the fall threshold,
// otherwise its victory counter decrements, reaching zero signals Victory.
// At most one faction ascends per tick (first-evaluated wins), and never
// while another hegemon sits.
func (l *Ledger) AdvanceHegemony(tick int64) []Transition {
	var transitions []Transition

	hegemonSeated := false
	for _, id := range l.order {
		f := l.factions[id]
		if !f.IsHegemon {
			continue
		}
		if f.Prestige < l.cfg.FallThreshold {
			f.IsHegemon = false
			f.HegemonyCounter = 0
			transitions = append(transitions, Transition{FactionID: id, Kind: TransitionFell})
			slog.Info("hegemon fell", "faction", f.Name, "prestige", f.Prestige, "tick", tick)
			continue
		}
		f.HegemonyCounter--
		if f.HegemonyCounter <= 0 {
			transitions = append(transitions, Transition{FactionID: id, Kind: TransitionVictory})
			slog.Info("hegemony victory", "faction", f.Name, "tick", tick)
			return transitions // terminal: nothing else matters this tick
		}
		hegemonSeated = true
	}

	if hegemonSeated {
		return transitions
	}
	for _, id := range l.order {
		f := l.factions[id]
		if f.IsHegemon || f.Prestige <= l.cfg.AscensionThreshold {
			continue
		}
		f.IsHegemon = true
		f.HegemonyCounter = l.cfg.VictoryTicks
		transitions = append(transitions, Transition{FactionID: id, Kind: TransitionAscended, Counter: f.HegemonyCounter})
		slog.Info("hegemon ascended", "faction", f.Name, "prestige", f.Prestige, "counter", f.HegemonyCounter, "tick", tick)
		break // one ascension per tick
	}
	return transitions
}

// Validate checks the conservation invariant without mutating anything.
func (l *Ledger) Validate() error {
	return l.checkConservation()
}

func (l *Ledger) total() float64 {
	sum := 0.0
	for _, id := range l.order {
		sum += l.factions[id].Prestige
	}
	return sum
}

func (l *Ledger) checkConservation() error {
	if math.Abs(l.total()-l.cfg.PoolTotal) > l.cfg.Tolerance {
		return ErrConservation
	}
	return nil
}

// normalize floors every balance at zero and rescales so the pool sums to
// exactly PoolTotal. Only used to repair dirty upstream data on load.
func (l *Ledger) normalize() {
	total := 0.0
	for _, id := range l.order {
		f := l.factions[id]
		if f.Prestige < 0 {
			f.Prestige = 0
		}
		total += f.Prestige
	}
	if total == 0 {
		share := l.cfg.PoolTotal / float64(len(l.order))
		for _, id := range l.order {
			l.factions[id].Prestige = share
		}
		return
	}
	factor := l.cfg.PoolTotal / total
	for _, id := range l.order {
		l.factions[id].Prestige *= factor
	}
}
