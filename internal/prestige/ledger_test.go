package prestige

import (
	"errors"
	"math"
	"testing"
)

func testFactions(prestiges map[string]float64) []*Faction {
	out := make([]*Faction, 0, len(prestiges))
	for id, p := range prestiges {
		out = append(out, &Faction{ID: id, Name: id, Prestige: p})
	}
	return out
}

func poolTotal(l *Ledger) float64 {
	sum := 0.0
	for _, f := range l.Factions() {
		sum += f.Prestige
	}
	return sum
}

func TestTransferZeroSumPairwise(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 15, "b": 25, "c": 30, "d": 30,
	}))

	before := poolTotal(l)
	attackerBefore := l.Faction("a").Prestige
	defenderBefore := l.Faction("b").Prestige

	amount, rec, err := l.Transfer("a", "b", 1.0, 1, "border raid")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// IDP = 1 + (25-15)/20 = 1.5
	if amount != 1.5 {
		t.Errorf("amount = %v, want 1.5", amount)
	}
	gain := l.Faction("a").Prestige - attackerBefore
	loss := defenderBefore - l.Faction("b").Prestige
	if gain != loss {
		t.Errorf("not pairwise zero-sum: gain %v, loss %v", gain, loss)
	}
	if math.Abs(poolTotal(l)-before) > 1e-9 {
		t.Errorf("pool total moved: %v -> %v", before, poolTotal(l))
	}
	if rec == nil || rec.Amount != amount || rec.IDPMultiplier != 1.5 {
		t.Errorf("bad audit record: %+v", rec)
	}
}

// Scenario from the design: A at 35, B at 5. Attacking down caps at zero,
// attacking up multiplies.
func TestTransferAntiSnowball(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 35, "b": 5, "c": 30, "d": 30,
	}))

	amount, rec, err := l.Transfer("a", "b", 1.0, 1, "bullying")
	if err != nil {
		t.Fatalf("transfer down: %v", err)
	}
	if amount != 0 || rec != nil {
		t.Errorf("transfer down: amount %v rec %v, want 0 and no record", amount, rec)
	}

	amount, _, err = l.Transfer("b", "a", 1.0, 1, "uprising")
	if err != nil {
		t.Fatalf("transfer up: %v", err)
	}
	if amount != 2.5 {
		t.Errorf("transfer up: amount %v, want 2.5 (IDP 1 + 30/20)", amount)
	}
}

func TestTransferClampsAtDefenderBalance(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 2, "b": 1, "c": 48.5, "d": 48.5,
	}))

	// IDP = 1 + (1-2)/20 = 0.95; 5.0 * 0.95 = 4.75 > defender's 1.
	amount, _, err := l.Transfer("a", "b", 5.0, 1, "overkill")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if amount != 1 {
		t.Errorf("amount = %v, want clamp at defender balance 1", amount)
	}
	if got := l.Faction("b").Prestige; got != 0 {
		t.Errorf("defender prestige = %v, want 0", got)
	}
}

func TestTransferUnknownFaction(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{"a": 50, "b": 50}))
	if _, _, err := l.Transfer("a", "ghost", 1.0, 1, ""); !errors.Is(err, ErrUnknownFaction) {
		t.Errorf("got %v, want ErrUnknownFaction", err)
	}
	if _, _, err := l.Transfer("a", "b", math.NaN(), 1, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestFrictionConservesExactly(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 30, "b": 25, "c": 3, "d": 2, "e": 40,
	}))

	adjustments, err := l.ApplyFriction()
	if err != nil {
		t.Fatalf("friction: %v", err)
	}

	sum := 0.0
	for _, delta := range adjustments {
		sum += delta
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("adjustments sum to %v, want 0", sum)
	}

	// Three payers (30, 25, 40) at 0.5 each, two receivers (3, 2) split 1.5.
	if adjustments["a"] != -0.5 || adjustments["e"] != -0.5 {
		t.Errorf("payers not taxed 0.5: %+v", adjustments)
	}
	if adjustments["c"] != 0.75 || adjustments["d"] != 0.75 {
		t.Errorf("receivers not subsidized 0.75: %+v", adjustments)
	}
	if math.Abs(poolTotal(l)-100) > 0.01 {
		t.Errorf("pool total = %v, want 100", poolTotal(l))
	}
}

func TestFrictionNoReceiversNoCollection(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 40, "b": 30, "c": 15, "d": 15,
	}))

	adjustments, err := l.ApplyFriction()
	if err != nil {
		t.Fatalf("friction: %v", err)
	}
	for id, delta := range adjustments {
		if delta != 0 {
			t.Errorf("faction %s adjusted by %v with no subsidy receivers", id, delta)
		}
	}
	if got := l.Faction("a").Prestige; got != 40 {
		t.Errorf("faction a taxed to %v with nobody to subsidize", got)
	}
}

func TestConservationUnderOperationSequences(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 30, "b": 25, "c": 20, "d": 15, "e": 6, "f": 3, "g": 1,
	}))

	pairs := [][2]string{{"a", "b"}, {"e", "a"}, {"g", "c"}, {"d", "b"}, {"f", "a"}}
	for i := 0; i < 50; i++ {
		p := pairs[i%len(pairs)]
		if _, _, err := l.Transfer(p[0], p[1], 0.7, int64(i), "sequence"); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
		if _, err := l.ApplyFriction(); err != nil {
			t.Fatalf("friction %d: %v", i, err)
		}
		if _, err := l.PvEReward("g", PvETierMinor); err != nil {
			t.Fatalf("pve %d: %v", i, err)
		}
		if math.Abs(poolTotal(l)-100) > 0.01 {
			t.Fatalf("after round %d pool total = %v, drifted outside tolerance", i, poolTotal(l))
		}
	}
}

func TestPvERewardZeroSum(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 40, "b": 30, "c": 20, "d": 10,
	}))
	before := poolTotal(l)

	gained, err := l.PvEReward("d", PvETierLegendary)
	if err != nil {
		t.Fatalf("pve reward: %v", err)
	}
	if math.Abs(gained-1.0) > 1e-9 {
		t.Errorf("gained = %v, want 1.0", gained)
	}
	if math.Abs(poolTotal(l)-before) > 1e-9 {
		t.Errorf("pool total moved: %v -> %v", before, poolTotal(l))
	}
}

func TestHegemonyAscensionAndFall(t *testing.T) {
	cfg := DefaultConfig()
	l := NewLedger(cfg, testFactions(map[string]float64{
		"a": 26, "b": 24, "c": 30, "d": 20,
	}))

	transitions := l.AdvanceHegemony(1)
	if len(transitions) != 1 {
		t.Fatalf("transitions = %+v, want exactly one ascension", transitions)
	}
	// Stable ID order: "a" is evaluated before "c", so "a" wins the tie.
	if transitions[0].FactionID != "a" || transitions[0].Kind != TransitionAscended {
		t.Fatalf("unexpected transition %+v", transitions[0])
	}
	if !l.Faction("a").IsHegemon || l.Faction("a").HegemonyCounter != cfg.VictoryTicks {
		t.Errorf("ascended faction state wrong: %+v", l.Faction("a"))
	}
	if l.Faction("c").IsHegemon {
		t.Error("second qualifying faction also ascended; at most one per tick")
	}

	// Buffer zone: dropping to 22 (below 25, above 20) keeps the seat.
	l.Faction("a").Prestige = 22
	transitions = l.AdvanceHegemony(2)
	if len(transitions) != 0 {
		t.Fatalf("buffer zone produced transitions: %+v", transitions)
	}
	if !l.Faction("a").IsHegemon {
		t.Error("hegemon fell inside the 20-25 buffer")
	}
	if got := l.Faction("a").HegemonyCounter; got != cfg.VictoryTicks-1 {
		t.Errorf("counter = %d, want %d", got, cfg.VictoryTicks-1)
	}

	// Below the fall threshold the seat is lost and the counter resets.
	l.Faction("a").Prestige = 19
	transitions = l.AdvanceHegemony(3)
	if len(transitions) == 0 || transitions[0].Kind != TransitionFell {
		t.Fatalf("transitions = %+v, want a fall", transitions)
	}
	if l.Faction("a").IsHegemon || l.Faction("a").HegemonyCounter != 0 {
		t.Errorf("fallen hegemon state wrong: %+v", l.Faction("a"))
	}
}

func TestHegemonyVictoryCountdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VictoryTicks = 3
	l := NewLedger(cfg, testFactions(map[string]float64{
		"a": 30, "b": 25, "c": 25, "d": 20,
	}))

	l.AdvanceHegemony(1) // ascends, counter 3
	for tick := int64(2); ; tick++ {
		transitions := l.AdvanceHegemony(tick)
		if len(transitions) > 0 {
			if transitions[0].Kind != TransitionVictory {
				t.Fatalf("unexpected transition %+v", transitions[0])
			}
			if tick != 4 {
				t.Errorf("victory at tick %d, want 4 (3 decrements after ascension)", tick)
			}
			break
		}
		if tick > 10 {
			t.Fatal("victory never fired")
		}
	}
	// Victor keeps the seat pending game-master resolution.
	if !l.Faction("a").IsHegemon {
		t.Error("victor lost hegemon status")
	}
}

func TestAtMostOneHegemon(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 30, "b": 28, "c": 26, "d": 16,
	}))

	for tick := int64(1); tick <= 5; tick++ {
		l.AdvanceHegemony(tick)
		count := 0
		for _, f := range l.Factions() {
			if f.IsHegemon {
				count++
			}
		}
		if count > 1 {
			t.Fatalf("tick %d: %d hegemons seated", tick, count)
		}
	}
}

func TestRankingOrdered(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"d": 10, "a": 40, "c": 20, "b": 30,
	}))
	ranking := l.Ranking()
	want := []string{"a", "b", "c", "d"}
	for i, f := range ranking {
		if f.ID != want[i] {
			t.Errorf("ranking[%d] = %s, want %s", i, f.ID, want[i])
		}
	}
}

func TestDirtyPoolNormalizedOnLoad(t *testing.T) {
	l := NewLedger(DefaultConfig(), testFactions(map[string]float64{
		"a": 60, "b": 60, "c": -10,
	}))
	if err := l.Validate(); err != nil {
		t.Errorf("pool not repaired on load: %v (total %v)", err, poolTotal(l))
	}
	if l.Faction("c").Prestige < 0 {
		t.Errorf("negative balance survived normalization: %v", l.Faction("c").Prestige)
	}
}
