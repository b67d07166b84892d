// Package config loads runtime settings from the environment and game
// tuning values from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Runtime holds the process-level settings read from the environment.
type Runtime struct {
	DBPath     string `env:"SUPERX_DB_PATH" envDefault:"superx.db"`
	Addr       string `env:"SUPERX_ADDR" envDefault:":8080"`
	AdminKey   string `env:"SUPERX_ADMIN_KEY"`
	Timezone   string `env:"SUPERX_TZ" envDefault:"UTC"`
	Seed       int64  `env:"SUPERX_SEED" envDefault:"0"`
	TuningPath string `env:"SUPERX_TUNING"`
	LogLevel   string `env:"SUPERX_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads Runtime from environment variables.
func ParseEnv() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	return rt, nil
}

// Tuning is the game balance file. Every value has a default, so an
// absent file or a partial one is fine.
type Tuning struct {
	Clock struct {
		LockInStartHour   int `yaml:"lock_in_start_hour"`
		LockInStartMinute int `yaml:"lock_in_start_minute"`
	} `yaml:"clock"`

	Resolution struct {
		DiceSides      int `yaml:"dice_sides"`
		CritSuccessMin int `yaml:"crit_success_min"`
		CritFailureMax int `yaml:"crit_failure_max"`
		BonusCap       int `yaml:"bonus_cap"`
		BonusK         int `yaml:"bonus_k"`
	} `yaml:"resolution"`

	Prestige struct {
		PoolTotal          float64 `yaml:"pool_total"`
		IDPDivisor         float64 `yaml:"idp_divisor"`
		FrictionThreshold  float64 `yaml:"friction_threshold"`
		FrictionTax        float64 `yaml:"friction_tax"`
		SubsidyThreshold   float64 `yaml:"subsidy_threshold"`
		AscensionThreshold float64 `yaml:"ascension_threshold"`
		FallThreshold      float64 `yaml:"fall_threshold"`
		VictoryTicks       int     `yaml:"victory_ticks"`
	} `yaml:"prestige"`

	Economy struct {
		SecurityFloor        float64 `yaml:"security_floor"`
		SecurityCeiling      float64 `yaml:"security_ceiling"`
		SecurityPerDefense   float64 `yaml:"security_per_defense"`
		IncomePerPop         float64 `yaml:"income_per_pop"`
		HappinessBonusMax    float64 `yaml:"happiness_bonus_max"`
		IdleEnergyFraction   float64 `yaml:"idle_energy_fraction"`
		CascadeMaxIterations int     `yaml:"cascade_max_iterations"`
	} `yaml:"economy"`

	Galaxy struct {
		SystemCount     int `yaml:"system_count"`
		FactionCount    int `yaml:"faction_count"`
		PlayersPerSeed  int `yaml:"players_per_seed"`
		StartPopulation int `yaml:"start_population"`
	} `yaml:"galaxy"`
}

// Load reads tuning from path. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// DefaultTuning returns the shipped balance values.
func DefaultTuning() Tuning {
	var t Tuning
	t.Clock.LockInStartHour = 23
	t.Clock.LockInStartMinute = 50

	t.Resolution.DiceSides = 50
	t.Resolution.CritSuccessMin = 96
	t.Resolution.CritFailureMax = 5
	t.Resolution.BonusCap = 40
	t.Resolution.BonusK = 50

	t.Prestige.PoolTotal = 100
	t.Prestige.IDPDivisor = 20
	t.Prestige.FrictionThreshold = 20
	t.Prestige.FrictionTax = 0.5
	t.Prestige.SubsidyThreshold = 5
	t.Prestige.AscensionThreshold = 25
	t.Prestige.FallThreshold = 20
	t.Prestige.VictoryTicks = 20

	t.Economy.SecurityFloor = 0.3
	t.Economy.SecurityCeiling = 1.2
	t.Economy.SecurityPerDefense = 0.01
	t.Economy.IncomePerPop = 150
	t.Economy.HappinessBonusMax = 0.5
	t.Economy.IdleEnergyFraction = 0.25
	t.Economy.CascadeMaxIterations = 8

	t.Galaxy.SystemCount = 40
	t.Galaxy.FactionCount = 4
	t.Galaxy.PlayersPerSeed = 4
	t.Galaxy.StartPopulation = 1000

	return t
}
