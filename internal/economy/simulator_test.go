package economy

import (
	"math"
	"reflect"
	"testing"
)

func newTestSimulator() *Simulator {
	return NewSimulator(DefaultConfig(), DefaultCatalog())
}

func TestSecurityMultiplier(t *testing.T) {
	s := newTestSimulator()
	cases := []struct {
		defense int
		want    float64
	}{
		{0, 0.3},
		{20, 0.5},
		{70, 1.0},
		{90, 1.2},
		{500, 1.2}, // clamped at ceiling
	}
	for _, tc := range cases {
		if got := s.SecurityMultiplier(tc.defense); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("SecurityMultiplier(%d) = %v, want %v", tc.defense, got, tc.want)
		}
	}
}

func TestIncomeHappinessBonus(t *testing.T) {
	s := newTestSimulator()

	neutral := s.Income(10, 1.0, 1.0)
	if neutral != 1500 {
		t.Errorf("neutral income = %d, want 1500", neutral)
	}
	if below := s.Income(10, 1.0, 0.8); below != neutral {
		t.Errorf("unhappy income = %d, want no bonus change from %d", below, neutral)
	}
	full := s.Income(10, 1.0, 1.5)
	if full != 2250 {
		t.Errorf("max happiness income = %d, want 2250 (+50%%)", full)
	}
	if over := s.Income(10, 1.0, 3.0); over != full {
		t.Errorf("happiness above max not capped: %d vs %d", over, full)
	}
}

// Design scenario: a 1000-pop planet with two 600-pop buildings keeps only
// one running (the lower-priority one shuts), and population growth to 1300
// brings the other back.
func TestCascadeShutdownAndRecovery(t *testing.T) {
	s := newTestSimulator()
	planet := PlanetAsset{ID: "p1", Population: 1000, PopsUnemployed: 1000, Happiness: 1.0}
	buildings := []*Building{
		{ID: "b-mine", Type: "mine_basic", Tier: 1, IsActive: true, PopsRequired: 600, EnergyConsumption: 5},
		{ID: "b-factory", Type: "factory", Tier: 1, IsActive: true, PopsRequired: 600, EnergyConsumption: 10},
	}

	res := s.TickPlanet(planet, buildings, nil)
	if len(res.BuildingsDeactivated) != 1 || res.BuildingsDeactivated[0] != "b-factory" {
		t.Fatalf("deactivated %v, want exactly the factory (heavy industry shuts before base extraction)", res.BuildingsDeactivated)
	}
	if !buildings[0].IsActive || buildings[1].IsActive {
		t.Fatalf("activation flags wrong: mine %v, factory %v", buildings[0].IsActive, buildings[1].IsActive)
	}
	if res.Planet.PopsActive != 600 || res.Planet.PopsUnemployed != 400 {
		t.Errorf("pops split = %v/%v, want 600/400", res.Planet.PopsActive, res.Planet.PopsUnemployed)
	}

	grown := res.Planet
	grown.Population = 1300
	grown.PopsUnemployed = grown.Population - grown.PopsActive
	res = s.TickPlanet(grown, buildings, nil)
	if len(res.BuildingsReactivated) != 1 || res.BuildingsReactivated[0] != "b-factory" {
		t.Fatalf("reactivated %v, want the factory", res.BuildingsReactivated)
	}
	if res.Planet.PopsActive != 1200 || res.Planet.PopsUnemployed != 100 {
		t.Errorf("pops split after recovery = %v/%v, want 1200/100", res.Planet.PopsActive, res.Planet.PopsUnemployed)
	}
}

// Running the pass twice on its own output must not toggle anything again.
func TestCascadeIdempotent(t *testing.T) {
	s := newTestSimulator()
	planet := PlanetAsset{ID: "p1", Population: 500, PopsUnemployed: 500, Happiness: 1.0}
	buildings := []*Building{
		{ID: "b1", Type: "mine_basic", Tier: 1, IsActive: true, PopsRequired: 100, EnergyConsumption: 5},
		{ID: "b2", Type: "factory", Tier: 1, IsActive: true, PopsRequired: 200, EnergyConsumption: 10},
		{ID: "b3", Type: "deep_core_extractor", Tier: 1, IsActive: true, PopsRequired: 150, EnergyConsumption: 20},
		{ID: "b4", Type: "barracks", Tier: 1, IsActive: true, PopsRequired: 250, EnergyConsumption: 5},
	}
	sites := []*LuxuryExtractionSite{
		{ID: "s1", ResourceKey: "gold", ResourceCategory: "metals", ExtractionRate: 2, IsActive: true, PopsRequired: 80},
	}

	first := s.TickPlanet(planet, buildings, sites)
	second := s.TickPlanet(first.Planet, buildings, sites)

	if n := len(second.BuildingsDeactivated) + len(second.BuildingsReactivated) +
		len(second.SitesDeactivated) + len(second.SitesReactivated); n != 0 {
		t.Errorf("second pass toggled %d units: %+v", n, second)
	}
	if second.Planet.PopsActive != first.Planet.PopsActive {
		t.Errorf("pops drifted between identical passes: %v vs %v",
			first.Planet.PopsActive, second.Planet.PopsActive)
	}
}

func TestCascadeShutdownPriorityOrder(t *testing.T) {
	s := newTestSimulator()
	// Population covers only the mine: everything else shuts, in
	// lowest-criticality-first order.
	planet := PlanetAsset{ID: "p1", Population: 100, PopsUnemployed: 100, Happiness: 1.0}
	buildings := []*Building{
		{ID: "b-barracks", Type: "barracks", Tier: 1, IsActive: true, PopsRequired: 50},
		{ID: "b-extractor", Type: "deep_core_extractor", Tier: 1, IsActive: true, PopsRequired: 150},
		{ID: "b-mine", Type: "mine_basic", Tier: 1, IsActive: true, PopsRequired: 100},
		{ID: "b-factory", Type: "factory", Tier: 1, IsActive: true, PopsRequired: 200},
	}

	res := s.TickPlanet(planet, buildings, nil)
	want := []string{"b-extractor", "b-factory", "b-barracks"}
	if len(res.BuildingsDeactivated) != len(want) {
		t.Fatalf("deactivated %v, want %v", res.BuildingsDeactivated, want)
	}
	for i, id := range want {
		if res.BuildingsDeactivated[i] != id {
			t.Errorf("shutdown order[%d] = %s, want %s", i, res.BuildingsDeactivated[i], id)
		}
	}
	if !buildings[2].IsActive {
		t.Error("base extraction mine should survive as the most critical fit")
	}
}

func TestLuxuryUsesLeftoverPoolOnly(t *testing.T) {
	s := newTestSimulator()
	planet := PlanetAsset{ID: "p1", Population: 150, PopsUnemployed: 150, Happiness: 1.0}
	buildings := []*Building{
		{ID: "b-mine", Type: "mine_basic", Tier: 1, IsActive: true, PopsRequired: 100},
	}
	sites := []*LuxuryExtractionSite{
		{ID: "s1", ResourceKey: "gold", ResourceCategory: "metals", ExtractionRate: 3, IsActive: true, PopsRequired: 80},
		{ID: "s2", ResourceKey: "platinum", ResourceCategory: "metals", ExtractionRate: 1, IsActive: true, PopsRequired: 40},
	}

	res := s.TickPlanet(planet, buildings, sites)

	// Leftover pool is 50: the 80-pop site shuts, the 40-pop site stays.
	if len(res.SitesDeactivated) != 1 || res.SitesDeactivated[0] != "s1" {
		t.Fatalf("sites deactivated %v, want [s1]", res.SitesDeactivated)
	}
	if !sites[1].IsActive {
		t.Error("fitting site s2 should stay active")
	}
	if got := res.Production.Luxury["metals.platinum"]; got != 1 {
		t.Errorf("platinum extraction = %d, want 1", got)
	}
	if _, ok := res.Production.Luxury["metals.gold"]; ok {
		t.Error("halted site still produced")
	}
}

func TestInconsistentPopsNormalized(t *testing.T) {
	s := newTestSimulator()
	planet := PlanetAsset{
		ID: "p1", Population: 1000,
		PopsActive: 900, PopsUnemployed: 400, // sums to 1300, population says 1000
		Happiness: 1.0,
	}
	buildings := []*Building{
		{ID: "b-mine", Type: "mine_basic", Tier: 1, IsActive: true, PopsRequired: 100},
	}

	res := s.TickPlanet(planet, buildings, nil)
	if res.Planet.PopsActive+res.Planet.PopsUnemployed != res.Planet.Population {
		t.Errorf("split %v+%v != population %v",
			res.Planet.PopsActive, res.Planet.PopsUnemployed, res.Planet.Population)
	}
	repaired := false
	for _, e := range res.Events {
		if e.Category == "repair" {
			repaired = true
		}
	}
	if !repaired {
		t.Error("no repair event for inconsistent population records")
	}
}

func TestIdleEnergyBilling(t *testing.T) {
	s := newTestSimulator()
	planet := PlanetAsset{ID: "p1", Population: 0, Happiness: 1.0}
	buildings := []*Building{
		{ID: "b-factory", Type: "factory", Tier: 1, IsActive: true, PopsRequired: 200, EnergyConsumption: 10},
	}

	res := s.TickPlanet(planet, buildings, nil)
	if buildings[0].IsActive {
		t.Fatal("factory should shut down with zero population")
	}
	// Idle maintenance: ceil(10 * 0.25) = 3 energy cells, no production.
	if res.Production.EnergyCells != -3 {
		t.Errorf("energy delta = %d, want -3 idle maintenance", res.Production.EnergyCells)
	}
	if res.Production.Components != 0 {
		t.Errorf("idle factory produced %d components", res.Production.Components)
	}
}

func TestProductionScalesWithTier(t *testing.T) {
	c := DefaultCatalog()
	base := c.ProductionOf("mine_basic", 1)
	upgraded := c.ProductionOf("mine_basic", 3)
	if upgraded.Materials != base.Materials*3 {
		t.Errorf("tier 3 materials = %d, want %d", upgraded.Materials, base.Materials*3)
	}
	if unknown := c.ProductionOf("not_a_building", 2); !reflect.DeepEqual(unknown, ProductionSummary{}) {
		t.Errorf("unknown type produced %+v", unknown)
	}
}

type fakeEconomyStore struct {
	planets   map[string][]PlanetAsset
	buildings map[string][]*Building
	sites     map[string][]*LuxuryExtractionSite

	popsUpdates  []PlanetAsset
	batchUpdates int
}

func (f *fakeEconomyStore) PlayerIDs() ([]string, error) {
	ids := make([]string, 0, len(f.planets))
	for id := range f.planets {
		ids = append(ids, id)
	}
	return ids, nil
}
func (f *fakeEconomyStore) PlanetsByPlayer(playerID string) ([]PlanetAsset, error) {
	return f.planets[playerID], nil
}
func (f *fakeEconomyStore) BuildingsByPlanet(planetID string) ([]*Building, error) {
	return f.buildings[planetID], nil
}
func (f *fakeEconomyStore) LuxurySitesByPlanet(planetID string) ([]*LuxuryExtractionSite, error) {
	return f.sites[planetID], nil
}
func (f *fakeEconomyStore) UpdatePlanetPops(planet PlanetAsset) error {
	f.popsUpdates = append(f.popsUpdates, planet)
	return nil
}
func (f *fakeEconomyStore) BatchUpdateActivation(buildings map[string]bool, sites map[string]bool) error {
	f.batchUpdates++
	return nil
}

func TestRunPlayerTickAggregates(t *testing.T) {
	store := &fakeEconomyStore{
		planets: map[string][]PlanetAsset{
			"player1": {
				{ID: "p1", PlayerID: "player1", Population: 500, PopsUnemployed: 500, Happiness: 1.0},
				{ID: "p2", PlayerID: "player1", Population: 200, PopsUnemployed: 200, Happiness: 1.0},
			},
		},
		buildings: map[string][]*Building{
			"p1": {{ID: "b1", PlanetAssetID: "p1", Type: "mine_basic", Tier: 1, IsActive: true, PopsRequired: 100, EnergyConsumption: 5}},
			"p2": {{ID: "b2", PlanetAssetID: "p2", Type: "solar_plant", Tier: 1, IsActive: true, PopsRequired: 20}},
		},
		sites: map[string][]*LuxuryExtractionSite{},
	}

	s := newTestSimulator()
	res, err := s.RunPlayerTick(store, "player1")
	if err != nil {
		t.Fatalf("run player tick: %v", err)
	}
	if res.Planets != 2 || res.Failed != 0 {
		t.Errorf("planets = %d failed = %d, want 2/0", res.Planets, res.Failed)
	}
	if res.Production.Materials != 10 {
		t.Errorf("materials = %d, want 10 from the mine", res.Production.Materials)
	}
	// Mine nets 10-5, solar plant produces 15.
	if res.Production.EnergyCells != 10 {
		t.Errorf("energy cells = %d, want 10", res.Production.EnergyCells)
	}
	if len(store.popsUpdates) != 2 {
		t.Errorf("pops updates = %d, want one per planet", len(store.popsUpdates))
	}
}
