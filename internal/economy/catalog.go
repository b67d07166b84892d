package economy

// Category groups building types by how critical they are to a colony.
// The shutdown cascade walks categories in order, so the priority list is
// data, not code.
type Category string

const (
	CategoryHighTechExtraction Category = "hightech_extraction"
	CategoryHeavyIndustry      Category = "heavy_industry"
	CategoryDefense            Category = "defense"
	CategoryBaseExtraction     Category = "base_extraction"
	CategoryEnergy             Category = "energy"
	CategoryAdministration     Category = "administration"
)

// DefaultShutdownOrder lists categories lowest-criticality-first: the head
// of the list is shut down first when population runs short, and
// reactivated last when it recovers. Energy and administration are vital
// and only ever shut at the very end.
var DefaultShutdownOrder = []Category{
	CategoryHighTechExtraction,
	CategoryHeavyIndustry,
	CategoryDefense,
	CategoryBaseExtraction,
	CategoryEnergy,
	CategoryAdministration,
}

// BuildingSpec defines a building type's per-tier baseline. Pops and energy
// on a Building record are authoritative (set at construction time); the
// spec supplies category and production.
type BuildingSpec struct {
	Name         string            `yaml:"name"`
	Category     Category          `yaml:"category"`
	PopsRequired int               `yaml:"pops_required"`
	EnergyCost   int               `yaml:"energy_cost"`
	Production   ProductionSummary `yaml:"-"`
	MaxTier      int               `yaml:"max_tier"`
}

// Catalog maps building type keys to their specs and carries the cascade
// priority order.
type Catalog struct {
	Specs         map[string]BuildingSpec
	ShutdownOrder []Category
}

// DefaultCatalog returns the stock building table.
func DefaultCatalog() *Catalog {
	return &Catalog{
		ShutdownOrder: DefaultShutdownOrder,
		Specs: map[string]BuildingSpec{
			"hq": {
				Name:         "Central Command",
				Category:     CategoryAdministration,
				PopsRequired: 0,
				EnergyCost:   5,
				MaxTier:      5,
				Production:   ProductionSummary{Influence: 2},
			},
			"barracks": {
				Name:         "Barracks",
				Category:     CategoryDefense,
				PopsRequired: 50,
				EnergyCost:   5,
				MaxTier:      3,
			},
			"mine_basic": {
				Name:         "Surface Mine",
				Category:     CategoryBaseExtraction,
				PopsRequired: 100,
				EnergyCost:   5,
				MaxTier:      3,
				Production:   ProductionSummary{Materials: 10},
			},
			"solar_plant": {
				Name:         "Solar Plant",
				Category:     CategoryEnergy,
				PopsRequired: 20,
				EnergyCost:   0,
				MaxTier:      3,
				Production:   ProductionSummary{EnergyCells: 15},
			},
			"fusion_reactor": {
				Name:         "Fusion Reactor",
				Category:     CategoryEnergy,
				PopsRequired: 50,
				EnergyCost:   0,
				MaxTier:      4,
				Production:   ProductionSummary{EnergyCells: 50},
			},
			"factory": {
				Name:         "Industrial Foundry",
				Category:     CategoryHeavyIndustry,
				PopsRequired: 200,
				EnergyCost:   10,
				MaxTier:      4,
				Production:   ProductionSummary{Components: 5},
			},
			"deep_core_extractor": {
				Name:         "Deep Core Extractor",
				Category:     CategoryHighTechExtraction,
				PopsRequired: 150,
				EnergyCost:   20,
				MaxTier:      3,
				Production:   ProductionSummary{Materials: 20, Components: 2},
			},
		},
	}
}

// CategoryOf returns the category of a building type. Unknown types land in
// base extraction so dirty catalog data degrades to a sane priority instead
// of breaking the cascade.
func (c *Catalog) CategoryOf(buildingType string) Category {
	if spec, ok := c.Specs[buildingType]; ok {
		return spec.Category
	}
	return CategoryBaseExtraction
}

// ProductionOf returns a building's per-tick output, scaled by tier.
func (c *Catalog) ProductionOf(buildingType string, tier int) ProductionSummary {
	spec, ok := c.Specs[buildingType]
	if !ok {
		return ProductionSummary{}
	}
	if tier < 1 {
		tier = 1
	}
	out := spec.Production
	out.Credits *= tier
	out.Materials *= tier
	out.Components *= tier
	out.EnergyCells *= tier
	out.Influence *= tier
	return out
}

// shutdownRank returns a category's position in the shutdown order. Lower
// rank = shut down earlier. Categories missing from the order shut first.
func (c *Catalog) shutdownRank(cat Category) int {
	for i, entry := range c.ShutdownOrder {
		if entry == cat {
			return i
		}
	}
	return -1
}
