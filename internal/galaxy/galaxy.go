// Package galaxy generates the persistent game world: star systems placed
// on a simplex density field, planets rolled per orbital zone, and the
// starting assets each player begins with.
package galaxy

// StarClass is the spectral class of a system's star.
type StarClass string

const (
	ClassO StarClass = "O"
	ClassB StarClass = "B"
	ClassA StarClass = "A"
	ClassF StarClass = "F"
	ClassG StarClass = "G"
	ClassK StarClass = "K"
	ClassM StarClass = "M"
)

// starProfile holds per-class generation data.
type starProfile struct {
	Weight         int     // rarity weight for procedural rolls
	EnergyModifier float64 // scales energy output of the system
}

// starProfiles in a fixed roll order, rarest first.
var starOrder = []StarClass{ClassO, ClassB, ClassA, ClassF, ClassG, ClassK, ClassM}

var starProfiles = map[StarClass]starProfile{
	ClassO: {Weight: 1, EnergyModifier: 2.0},
	ClassB: {Weight: 5, EnergyModifier: 1.5},
	ClassA: {Weight: 10, EnergyModifier: 1.2},
	ClassF: {Weight: 15, EnergyModifier: 1.1},
	ClassG: {Weight: 25, EnergyModifier: 1.0},
	ClassK: {Weight: 24, EnergyModifier: 0.9},
	ClassM: {Weight: 20, EnergyModifier: 0.7},
}

// Biome is a planet's surface classification.
type Biome string

const (
	BiomeVolcanic  Biome = "volcanic"
	BiomeDesert    Biome = "desert"
	BiomeToxic     Biome = "toxic"
	BiomeArid      Biome = "arid"
	BiomeOceanic   Biome = "oceanic"
	BiomeTemperate Biome = "temperate"
	BiomeGlacial   Biome = "glacial"
	BiomeGasGiant  Biome = "gas_giant"
)

// biomeProfile holds per-biome planet data.
type biomeProfile struct {
	ConstructionSlots int
	MaintenanceMod    float64
}

var biomeProfiles = map[Biome]biomeProfile{
	BiomeVolcanic:  {ConstructionSlots: 2, MaintenanceMod: 1.5},
	BiomeDesert:    {ConstructionSlots: 4, MaintenanceMod: 1.2},
	BiomeToxic:     {ConstructionSlots: 2, MaintenanceMod: 1.8},
	BiomeArid:      {ConstructionSlots: 4, MaintenanceMod: 1.1},
	BiomeOceanic:   {ConstructionSlots: 3, MaintenanceMod: 1.0},
	BiomeTemperate: {ConstructionSlots: 6, MaintenanceMod: 0.8},
	BiomeGlacial:   {ConstructionSlots: 3, MaintenanceMod: 1.3},
	BiomeGasGiant:  {ConstructionSlots: 0, MaintenanceMod: 2.0},
}

// orbitalZone maps ring positions to the biomes that can appear there.
type orbitalZone struct {
	Rings   []int
	Weights map[Biome]int
}

var orbitalZones = []orbitalZone{
	{Rings: []int{1, 2}, Weights: map[Biome]int{
		BiomeVolcanic: 3, BiomeDesert: 2, BiomeToxic: 1, BiomeArid: 1,
	}},
	{Rings: []int{3, 4}, Weights: map[Biome]int{
		BiomeTemperate: 4, BiomeOceanic: 3, BiomeDesert: 2, BiomeArid: 2, BiomeGlacial: 1,
	}},
	{Rings: []int{5, 6}, Weights: map[Biome]int{
		BiomeGlacial: 3, BiomeGasGiant: 4, BiomeArid: 2, BiomeToxic: 1,
	}},
}

const asteroidBeltChance = 0.15

// luxuryWeights maps a star class to the metal deposits its systems favor.
var luxuryWeights = map[StarClass]map[string]int{
	ClassO: {"platinum": 3, "uranium": 4, "gold": 2, "titanium": 1},
	ClassB: {"platinum": 2, "uranium": 3, "gold": 2, "titanium": 2},
	ClassA: {"gold": 3, "platinum": 1, "titanium": 2, "iron": 2},
	ClassF: {"titanium": 3, "gold": 2, "iron": 2, "copper": 2},
	ClassG: {"iron": 4, "titanium": 2, "copper": 3, "aluminum": 3},
	ClassK: {"iron": 3, "copper": 3, "aluminum": 4, "titanium": 1},
	ClassM: {"iron": 2, "aluminum": 3, "copper": 2},
}

// System is one generated star system.
type System struct {
	ID    string
	Name  string
	X, Y  float64
	Class StarClass
	// Rings indexes planets by orbital ring; nil entries are empty rings
	// or asteroid belts (Belts lists those).
	Rings map[int]*Planet
	Belts []int
}

// Planet is a generated world before it becomes a player asset.
type Planet struct {
	ID                string
	SystemID          string
	Name              string
	Ring              int
	Biome             Biome
	ConstructionSlots int
	MaintenanceMod    float64
	Deposits          []string // luxury metal keys, possibly empty
}

// Habitable reports whether the planet can host a starting colony.
func (p *Planet) Habitable() bool {
	return p.Biome == BiomeTemperate || p.Biome == BiomeOceanic
}
