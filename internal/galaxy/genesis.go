// Galaxy genesis using simplex density sampling for star placement and
// weighted rolls for star classes, planet biomes, and luxury deposits.
package galaxy

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/Mati279/SuperX/internal/economy"
	"github.com/Mati279/SuperX/internal/prestige"
)

// GenConfig holds galaxy generation parameters.
type GenConfig struct {
	Seed            int64
	SystemCount     int     // star systems to place
	FactionCount    int     // factions sharing the prestige pool
	PlayerCount     int     // starting players, one homeworld each
	PoolTotal       float64 // total prestige to split across factions
	StartPopulation float64 // homeworld starting population
	DepositChance   float64 // chance a rocky planet carries a metal deposit
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:            0,
		SystemCount:     40,
		FactionCount:    4,
		PlayerCount:     4,
		PoolTotal:       100,
		StartPopulation: 1000,
		DepositChance:   0.30,
	}
}

// Player is a starting account bound to a faction.
type Player struct {
	ID        string
	Name      string
	FactionID string
}

// World is the complete genesis output, ready to be persisted once.
type World struct {
	Systems   []*System
	Factions  []*prestige.Faction
	Players   []Player
	Planets   []economy.PlanetAsset
	Buildings []*economy.Building
	Sites     []*economy.LuxuryExtractionSite
}

var factionNames = []string{
	"Solar Concordat",
	"Iron Covenant",
	"Veiled Syndicate",
	"Outer Reach Assembly",
	"Meridian Compact",
	"Ashfall Dominion",
	"Lumen Collective",
	"Drift Tribunal",
}

// Generate builds a deterministic world from the seed.
func Generate(cfg GenConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	density := opensimplex.NewNormalized(seed)

	systems := placeSystems(cfg, rng, density)

	w := &World{Systems: systems}
	w.seedFactions(cfg)
	w.seedPlayers(cfg, rng)
	return w
}

// placeSystems scatters stars over a square field, keeping candidates in
// proportion to the local density noise so systems clump into arms and
// leave voids.
func placeSystems(cfg GenConfig, rng *rand.Rand, density opensimplex.Noise) []*System {
	const fieldSize = 1000.0
	const freq = 0.004

	systems := make([]*System, 0, cfg.SystemCount)
	attempts := 0
	maxAttempts := cfg.SystemCount * 50

	for len(systems) < cfg.SystemCount && attempts < maxAttempts {
		attempts++
		x := rng.Float64() * fieldSize
		y := rng.Float64() * fieldSize

		// Rejection sampling against the density field.
		if rng.Float64() > density.Eval2(x*freq, y*freq) {
			continue
		}

		sys := &System{
			ID:    uuid.NewString(),
			Name:  fmt.Sprintf("SX-%03d", len(systems)+1),
			X:     x,
			Y:     y,
			Class: rollStarClass(rng),
			Rings: make(map[int]*Planet),
		}
		fillOrbitalRings(sys, rng, cfg)
		systems = append(systems, sys)
	}

	return systems
}

func rollStarClass(rng *rand.Rand) StarClass {
	total := 0
	for _, class := range starOrder {
		total += starProfiles[class].Weight
	}
	pick := rng.Intn(total)
	for _, class := range starOrder {
		pick -= starProfiles[class].Weight
		if pick < 0 {
			return class
		}
	}
	return ClassG
}

// fillOrbitalRings populates rings 1..6: each ring is an asteroid belt,
// a planet rolled from its zone's biome weights, or empty.
func fillOrbitalRings(sys *System, rng *rand.Rand, cfg GenConfig) {
	for _, zone := range orbitalZones {
		for _, ring := range zone.Rings {
			if rng.Float64() < asteroidBeltChance {
				sys.Belts = append(sys.Belts, ring)
				continue
			}
			biome := rollBiome(rng, zone.Weights)
			profile := biomeProfiles[biome]
			planet := &Planet{
				ID:                uuid.NewString(),
				SystemID:          sys.ID,
				Name:              fmt.Sprintf("%s %s", sys.Name, romanRing(ring)),
				Ring:              ring,
				Biome:             biome,
				ConstructionSlots: profile.ConstructionSlots,
				MaintenanceMod:    profile.MaintenanceMod,
			}
			if profile.ConstructionSlots > 0 && rng.Float64() < cfg.DepositChance {
				planet.Deposits = append(planet.Deposits, rollDeposit(rng, sys.Class))
			}
			sys.Rings[ring] = planet
		}
	}
}

func rollBiome(rng *rand.Rand, weights map[Biome]int) Biome {
	// Stable iteration order so the same seed yields the same galaxy.
	ordered := []Biome{
		BiomeVolcanic, BiomeDesert, BiomeToxic, BiomeArid,
		BiomeOceanic, BiomeTemperate, BiomeGlacial, BiomeGasGiant,
	}
	total := 0
	for _, b := range ordered {
		total += weights[b]
	}
	pick := rng.Intn(total)
	for _, b := range ordered {
		pick -= weights[b]
		if pick < 0 {
			return b
		}
	}
	return BiomeArid
}

func rollDeposit(rng *rand.Rand, class StarClass) string {
	ordered := []string{"iron", "titanium", "copper", "aluminum", "gold", "platinum", "uranium"}
	weights := luxuryWeights[class]
	total := 0
	for _, key := range ordered {
		total += weights[key]
	}
	if total == 0 {
		return "iron"
	}
	pick := rng.Intn(total)
	for _, key := range ordered {
		pick -= weights[key]
		if pick < 0 {
			return key
		}
	}
	return "iron"
}

func romanRing(ring int) string {
	numerals := []string{"", "I", "II", "III", "IV", "V", "VI"}
	if ring < 1 || ring >= len(numerals) {
		return fmt.Sprintf("%d", ring)
	}
	return numerals[ring]
}

// seedFactions splits the prestige pool evenly across the starting factions.
func (w *World) seedFactions(cfg GenConfig) {
	count := cfg.FactionCount
	if count < 1 {
		count = 1
	}
	if count > len(factionNames) {
		count = len(factionNames)
	}
	share := cfg.PoolTotal / float64(count)
	for i := 0; i < count; i++ {
		w.Factions = append(w.Factions, &prestige.Faction{
			ID:       fmt.Sprintf("faction-%d", i+1),
			Name:     factionNames[i],
			Prestige: share,
		})
	}
}

// seedPlayers assigns each starting player a habitable homeworld with the
// base building set and any luxury deposits the planet carries.
func (w *World) seedPlayers(cfg GenConfig, rng *rand.Rand) {
	homeworlds := w.habitablePlanets()

	count := cfg.PlayerCount
	if count > len(homeworlds) {
		count = len(homeworlds)
	}

	for i := 0; i < count; i++ {
		planet := homeworlds[i]
		faction := w.Factions[i%len(w.Factions)]
		player := Player{
			ID:        fmt.Sprintf("player-%d", i+1),
			Name:      fmt.Sprintf("Commander %d", i+1),
			FactionID: faction.ID,
		}
		w.Players = append(w.Players, player)

		asset := economy.PlanetAsset{
			ID:                    planet.ID,
			PlayerID:              player.ID,
			Name:                  planet.Name,
			Biome:                 string(planet.Biome),
			Population:            cfg.StartPopulation,
			PopsUnemployed:        cfg.StartPopulation,
			DefenseInfrastructure: 10,
			Happiness:             1.0,
			Security:              0.4,
		}
		w.Planets = append(w.Planets, asset)
		w.Buildings = append(w.Buildings, startingBuildings(planet.ID)...)

		for _, deposit := range planet.Deposits {
			w.Sites = append(w.Sites, &economy.LuxuryExtractionSite{
				ID:               uuid.NewString(),
				PlanetAssetID:    planet.ID,
				ResourceKey:      deposit,
				ResourceCategory: "metal",
				ExtractionRate:   1 + rng.Intn(3),
				IsActive:         true,
				PopsRequired:     50,
			})
		}
	}
}

// habitablePlanets returns starting colony candidates in generation order.
func (w *World) habitablePlanets() []*Planet {
	var out []*Planet
	for _, sys := range w.Systems {
		for _, ring := range []int{3, 4} {
			if p := sys.Rings[ring]; p != nil && p.Habitable() {
				out = append(out, p)
			}
		}
	}
	return out
}

// startingBuildings is the base colony set every homeworld begins with.
func startingBuildings(planetID string) []*economy.Building {
	mk := func(buildingType string, pops, energy int) *economy.Building {
		return &economy.Building{
			ID:                uuid.NewString(),
			PlanetAssetID:     planetID,
			Type:              buildingType,
			Tier:              1,
			IsActive:          true,
			PopsRequired:      pops,
			EnergyConsumption: energy,
		}
	}
	return []*economy.Building{
		mk("hq", 0, 5),
		mk("solar_plant", 20, 0),
		mk("mine_basic", 100, 5),
	}
}
