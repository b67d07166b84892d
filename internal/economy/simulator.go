package economy

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Config holds the economy tunables.
type Config struct {
	SecurityFloor        float64 // minimum realized-output fraction (default 0.3)
	SecurityCeiling      float64 // maximum realized-output fraction (default 1.2)
	SecurityPerPoint     float64 // security gained per defense point (default 0.01)
	IncomePerPop         float64 // credits per population unit (default 150)
	HappinessNeutral     float64 // no bonus at or below this (default 1.0)
	HappinessMax         float64 // happiness granting the full bonus (default 1.5)
	HappinessBonusMax    float64 // income bonus cap (default 0.5)
	IdleEnergyFraction   float64 // idle maintenance share of full energy (default 0.25)
	CascadeMaxIterations int     // fixed-point loop bound per unit (default 8)
}

// DefaultConfig returns the standard economy parameters.
func DefaultConfig() Config {
	return Config{
		SecurityFloor:        0.3,
		SecurityCeiling:      1.2,
		SecurityPerPoint:     0.01,
		IncomePerPop:         150,
		HappinessNeutral:     1.0,
		HappinessMax:         1.5,
		HappinessBonusMax:    0.5,
		IdleEnergyFraction:   0.25,
		CascadeMaxIterations: 8,
	}
}

// Store is the persistence collaborator the per-player orchestration reads
// from and writes back to.
type Store interface {
	PlayerIDs() ([]string, error)
	PlanetsByPlayer(playerID string) ([]PlanetAsset, error)
	BuildingsByPlanet(planetID string) ([]*Building, error)
	LuxurySitesByPlanet(planetID string) ([]*LuxuryExtractionSite, error)
	UpdatePlanetPops(planet PlanetAsset) error
	BatchUpdateActivation(buildings map[string]bool, sites map[string]bool) error
}

// Simulator computes economy ticks. Pure per invocation; safe to run for
// different owners in parallel, since planets are partitioned by player.
type Simulator struct {
	cfg     Config
	catalog *Catalog
}

// NewSimulator creates a simulator over the given building catalog.
func NewSimulator(cfg Config, catalog *Catalog) *Simulator {
	return &Simulator{cfg: cfg, catalog: catalog}
}

// SecurityMultiplier maps defense infrastructure to the fraction of nominal
// output the planet actually realizes.
func (s *Simulator) SecurityMultiplier(defense int) float64 {
	sec := s.cfg.SecurityFloor + float64(defense)*s.cfg.SecurityPerPoint
	return math.Min(math.Max(sec, s.cfg.SecurityFloor), s.cfg.SecurityCeiling)
}

// Income computes a planet's credit income for one tick.
func (s *Simulator) Income(population, security, happiness float64) int {
	bonus := 0.0
	if happiness > s.cfg.HappinessNeutral {
		scale := (happiness - s.cfg.HappinessNeutral) / (s.cfg.HappinessMax - s.cfg.HappinessNeutral)
		bonus = math.Min(scale, 1.0) * s.cfg.HappinessBonusMax
	}
	return int(population * s.cfg.IncomePerPop * security * (1 + bonus))
}

// TickPlanet runs one planet's daily economy pass: security, income, the
// building activation cascade against the population pool, the luxury pass
// against the leftover pool, and production aggregation. Buildings and
// sites are toggled in place.
//
// Malformed population splits are normalized (population is authoritative)
// rather than rejected; the pass never errors on dirty record data.
func (s *Simulator) TickPlanet(planet PlanetAsset, buildings []*Building, sites []*LuxuryExtractionSite) PlanetTickResult {
	res := PlanetTickResult{}

	if math.Abs(planet.PopsActive+planet.PopsUnemployed-planet.Population) > 0.001 {
		slog.Warn("planet population split inconsistent, reallocating",
			"planet", planet.ID,
			"population", planet.Population,
			"active", planet.PopsActive,
			"unemployed", planet.PopsUnemployed,
		)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: "population records repaired from authoritative total",
			Category:    "repair",
		})
	}

	planet.Security = s.SecurityMultiplier(planet.DefenseInfrastructure)
	res.Production.Credits = s.Income(planet.Population, planet.Security, planet.Happiness)

	// Building cascade against the whole population pool.
	units := buildingUnits(s.catalog, buildings)
	off, on, anomaly := s.cascade(planet.Population, units)
	for _, i := range off {
		b := buildings[i]
		b.IsActive = false
		res.BuildingsDeactivated = append(res.BuildingsDeactivated, b.ID)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: fmt.Sprintf("%s shut down: not enough workers", s.specName(b.Type)),
			Category:    "shutdown",
		})
	}
	for _, i := range on {
		b := buildings[i]
		b.IsActive = true
		res.BuildingsReactivated = append(res.BuildingsReactivated, b.ID)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: fmt.Sprintf("%s back online", s.specName(b.Type)),
			Category:    "reactivation",
		})
	}
	if anomaly {
		slog.Error("building cascade did not converge within iteration cap", "planet", planet.ID)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: "activation cascade hit its iteration bound",
			Category:    "anomaly",
		})
	}

	buildingDemand := 0.0
	for _, b := range buildings {
		if b.IsActive {
			buildingDemand += float64(b.PopsRequired)
		}
	}

	// Luxury pass: sites compete only for the leftover unemployed pool.
	leftover := math.Max(0, planet.Population-buildingDemand)
	siteUnits := siteWorkUnits(sites)
	off, on, anomaly = s.cascade(leftover, siteUnits)
	for _, i := range off {
		site := sites[i]
		site.IsActive = false
		res.SitesDeactivated = append(res.SitesDeactivated, site.ID)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: fmt.Sprintf("%s extraction halted: not enough workers", site.ResourceKey),
			Category:    "shutdown",
		})
	}
	for _, i := range on {
		site := sites[i]
		site.IsActive = true
		res.SitesReactivated = append(res.SitesReactivated, site.ID)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: fmt.Sprintf("%s extraction resumed", site.ResourceKey),
			Category:    "reactivation",
		})
	}
	if anomaly {
		slog.Error("luxury cascade did not converge within iteration cap", "planet", planet.ID)
		res.Events = append(res.Events, Event{
			PlanetID:    planet.ID,
			Description: "luxury cascade hit its iteration bound",
			Category:    "anomaly",
		})
	}

	siteDemand := 0.0
	for _, site := range sites {
		if site.IsActive {
			siteDemand += float64(site.PopsRequired)
			key := site.ResourceCategory + "." + site.ResourceKey
			if res.Production.Luxury == nil {
				res.Production.Luxury = make(map[string]int)
			}
			res.Production.Luxury[key] += site.ExtractionRate
		}
	}

	planet.PopsActive = buildingDemand + siteDemand
	planet.PopsUnemployed = planet.Population - planet.PopsActive

	// Production and energy: active units produce and bill full energy,
	// idle units still bill a reduced maintenance cost.
	for _, b := range buildings {
		if b.IsActive {
			res.Production = res.Production.Add(s.catalog.ProductionOf(b.Type, b.Tier))
			res.Production.EnergyCells -= b.EnergyConsumption
		} else {
			res.Production.EnergyCells -= int(math.Ceil(float64(b.EnergyConsumption) * s.cfg.IdleEnergyFraction))
		}
	}

	res.Planet = planet
	return res
}

// RunPlayerTick executes the economy pass across all of one player's
// planets, persisting updated pops and activation flags. A failing planet
// is logged and skipped — it retries on the next tick.
func (s *Simulator) RunPlayerTick(store Store, playerID string) (PlayerTickResult, error) {
	out := PlayerTickResult{PlayerID: playerID}

	planets, err := store.PlanetsByPlayer(playerID)
	if err != nil {
		return out, fmt.Errorf("load planets for %s: %w", playerID, err)
	}

	for _, planet := range planets {
		buildings, err := store.BuildingsByPlanet(planet.ID)
		if err != nil {
			slog.Error("skipping planet: buildings unavailable", "planet", planet.ID, "error", err)
			out.Failed++
			continue
		}
		sites, err := store.LuxurySitesByPlanet(planet.ID)
		if err != nil {
			slog.Error("skipping planet: luxury sites unavailable", "planet", planet.ID, "error", err)
			out.Failed++
			continue
		}

		res := s.TickPlanet(planet, buildings, sites)
		out.Production = out.Production.Add(res.Production)
		out.Events = append(out.Events, res.Events...)
		out.Planets++

		if err := store.UpdatePlanetPops(res.Planet); err != nil {
			slog.Error("planet pops update failed", "planet", planet.ID, "error", err)
			out.Failed++
			continue
		}
		toggled := make(map[string]bool, len(res.BuildingsDeactivated)+len(res.BuildingsReactivated))
		for _, id := range res.BuildingsDeactivated {
			toggled[id] = false
		}
		for _, id := range res.BuildingsReactivated {
			toggled[id] = true
		}
		siteToggled := make(map[string]bool, len(res.SitesDeactivated)+len(res.SitesReactivated))
		for _, id := range res.SitesDeactivated {
			siteToggled[id] = false
		}
		for _, id := range res.SitesReactivated {
			siteToggled[id] = true
		}
		if len(toggled) > 0 || len(siteToggled) > 0 {
			if err := store.BatchUpdateActivation(toggled, siteToggled); err != nil {
				slog.Error("activation batch update failed", "planet", planet.ID, "error", err)
				out.Failed++
			}
		}
	}
	return out, nil
}

// Projection computes the next-tick resource deltas for a player's HUD
// without mutating anything.
func (s *Simulator) Projection(planets []PlanetAsset, buildingsByPlanet map[string][]*Building) ProductionSummary {
	var total ProductionSummary
	for _, planet := range planets {
		security := s.SecurityMultiplier(planet.DefenseInfrastructure)
		total.Credits += s.Income(planet.Population, security, planet.Happiness)
		for _, b := range buildingsByPlanet[planet.ID] {
			if b.IsActive {
				total = total.Add(s.catalog.ProductionOf(b.Type, b.Tier))
				total.EnergyCells -= b.EnergyConsumption
			} else {
				total.EnergyCells -= int(math.Ceil(float64(b.EnergyConsumption) * s.cfg.IdleEnergyFraction))
			}
		}
	}
	return total
}

// workUnit is the shared shape the cascade operates on: buildings and
// luxury sites differ only in how they map to it.
type workUnit struct {
	id     string
	rank   int // lower = shut down earlier
	pops   int
	active bool
}

func buildingUnits(catalog *Catalog, buildings []*Building) []workUnit {
	units := make([]workUnit, len(buildings))
	for i, b := range buildings {
		units[i] = workUnit{
			id:     b.ID,
			rank:   catalog.shutdownRank(catalog.CategoryOf(b.Type)),
			pops:   b.PopsRequired,
			active: b.IsActive,
		}
	}
	return units
}

func siteWorkUnits(sites []*LuxuryExtractionSite) []workUnit {
	units := make([]workUnit, len(sites))
	for i, site := range sites {
		units[i] = workUnit{id: site.ID, pops: site.PopsRequired, active: site.IsActive}
	}
	return units
}

// cascade settles the activation state of a unit set against a worker
// supply, one toggle per step so every reactivation re-triggers the
// shortage check. Returns indices deactivated, indices reactivated, and
// whether the iteration bound was hit before reaching a fixed point.
//
// Shutdown picks the lowest-rank active unit first; reactivation walks the
// reverse order and only wakes a unit that fits the remaining supply, so a
// second run over the output is always a no-op.
func (s *Simulator) cascade(supply float64, units []workUnit) (deactivated, reactivated []int, anomaly bool) {
	maxIters := s.cfg.CascadeMaxIterations * (len(units) + 1)
	for iter := 0; iter < maxIters; iter++ {
		demand := 0.0
		for _, u := range units {
			if u.active {
				demand += float64(u.pops)
			}
		}

		if demand > supply {
			victim := -1
			for i, u := range units {
				if !u.active {
					continue
				}
				if victim == -1 || less(units[i], units[victim]) {
					victim = i
				}
			}
			if victim == -1 {
				return deactivated, reactivated, false // nothing left to shut
			}
			units[victim].active = false
			deactivated = append(deactivated, victim)
			// A unit shut and later re-woken in the same pass is a toggle
			// wash; drop it from the reactivation list instead.
			continue
		}

		// Supply covers demand: wake the most critical sleeping unit that
		// fits what is left.
		headroom := supply - demand
		candidate := -1
		for i, u := range units {
			if u.active || float64(u.pops) > headroom {
				continue
			}
			if candidate == -1 || more(units[i], units[candidate]) {
				candidate = i
			}
		}
		if candidate == -1 {
			return deactivated, reactivated, false // fixed point
		}
		units[candidate].active = true
		if j := indexOf(deactivated, candidate); j >= 0 {
			deactivated = append(deactivated[:j], deactivated[j+1:]...)
		} else {
			reactivated = append(reactivated, candidate)
		}
	}
	sort.Ints(deactivated)
	sort.Ints(reactivated)
	return deactivated, reactivated, true
}

// less orders shutdown candidates: lowest rank first, then highest pops
// (freeing the most workers), then ID for determinism.
func less(a, b workUnit) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.pops != b.pops {
		return a.pops > b.pops
	}
	return a.id < b.id
}

// more orders reactivation candidates: highest rank first (reverse of
// shutdown), then lowest pops, then ID.
func more(a, b workUnit) bool {
	if a.rank != b.rank {
		return a.rank > b.rank
	}
	if a.pops != b.pops {
		return a.pops < b.pops
	}
	return a.id < b.id
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func (s *Simulator) specName(buildingType string) string {
	if spec, ok := s.catalog.Specs[buildingType]; ok {
		return spec.Name
	}
	return buildingType
}
