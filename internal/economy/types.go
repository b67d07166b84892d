// Package economy computes per-planet income, production, maintenance, and
// the population-driven activation cascade for buildings and luxury
// extraction sites.
package economy

// PlanetAsset is one player-owned planet. Population is the authoritative
// workforce pool; the active/unemployed split is recomputed every tick.
type PlanetAsset struct {
	ID                    string  `db:"id" json:"id"`
	PlayerID              string  `db:"player_id" json:"player_id"`
	Name                  string  `db:"name" json:"name"`
	Biome                 string  `db:"biome" json:"biome"`
	Population            float64 `db:"population" json:"population"`
	PopsActive            float64 `db:"pops_active" json:"pops_active"`
	PopsUnemployed        float64 `db:"pops_unemployed" json:"pops_unemployed"`
	DefenseInfrastructure int     `db:"defense_infrastructure" json:"defense_infrastructure"`
	Happiness             float64 `db:"happiness" json:"happiness"`
	Security              float64 `db:"security" json:"security"`
}

// Building is a constructed structure on a planet. The simulator only ever
// toggles IsActive; construction and demolition are external operations.
type Building struct {
	ID                string `db:"id" json:"id"`
	PlanetAssetID     string `db:"planet_asset_id" json:"planet_asset_id"`
	Type              string `db:"type" json:"type"`
	Tier              int    `db:"tier" json:"tier"`
	IsActive          bool   `db:"is_active" json:"is_active"`
	PopsRequired      int    `db:"pops_required" json:"pops_required"`
	EnergyConsumption int    `db:"energy_consumption" json:"energy_consumption"`
}

// LuxuryExtractionSite draws from the same population pool as buildings but
// competes at lower priority: it is only staffed from the pool left over
// after building allocation.
type LuxuryExtractionSite struct {
	ID               string `db:"id" json:"id"`
	PlanetAssetID    string `db:"planet_asset_id" json:"planet_asset_id"`
	ResourceKey      string `db:"resource_key" json:"resource_key"`
	ResourceCategory string `db:"resource_category" json:"resource_category"`
	ExtractionRate   int    `db:"extraction_rate" json:"extraction_rate"`
	IsActive         bool   `db:"is_active" json:"is_active"`
	PopsRequired     int    `db:"pops_required" json:"pops_required"`
}

// ProductionSummary aggregates the resource deltas of one tick, applied to
// the owning player's ledger by the caller.
type ProductionSummary struct {
	Credits     int            `json:"credits"`
	Materials   int            `json:"materials"`
	Components  int            `json:"components"`
	EnergyCells int            `json:"energy_cells"`
	Influence   int            `json:"influence"`
	Luxury      map[string]int `json:"luxury,omitempty"` // keyed "category.resource"
}

// Add merges another summary into this one and returns the result.
func (p ProductionSummary) Add(other ProductionSummary) ProductionSummary {
	p.Credits += other.Credits
	p.Materials += other.Materials
	p.Components += other.Components
	p.EnergyCells += other.EnergyCells
	p.Influence += other.Influence
	if len(other.Luxury) > 0 {
		if p.Luxury == nil {
			p.Luxury = make(map[string]int, len(other.Luxury))
		}
		for k, v := range other.Luxury {
			p.Luxury[k] += v
		}
	}
	return p
}

// Event is a notable occurrence during an economy pass, surfaced for
// narration and logging.
type Event struct {
	PlanetID    string `db:"planet_id" json:"planet_id"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"` // "shutdown", "reactivation", "anomaly", "repair"
}

// PlanetTickResult is the output of one planet's economy pass.
type PlanetTickResult struct {
	Planet               PlanetAsset
	Production           ProductionSummary
	Events               []Event
	BuildingsDeactivated []string // building IDs turned off this pass
	BuildingsReactivated []string
	SitesDeactivated     []string
	SitesReactivated     []string
}

// PlayerTickResult aggregates a player's full economy tick.
type PlayerTickResult struct {
	PlayerID   string
	Production ProductionSummary
	Events     []Event
	Planets    int
	Failed     int // planets whose pass errored and will retry next tick
}
