// Command superx runs the SuperX persistent strategy game server.
package main

import (
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/Mati279/SuperX/internal/api"
	"github.com/Mati279/SuperX/internal/clock"
	"github.com/Mati279/SuperX/internal/config"
	"github.com/Mati279/SuperX/internal/economy"
	"github.com/Mati279/SuperX/internal/galaxy"
	"github.com/Mati279/SuperX/internal/mrg"
	"github.com/Mati279/SuperX/internal/persistence"
	"github.com/Mati279/SuperX/internal/prestige"
)

func main() {
	rt, err := config.ParseEnv()
	if err != nil {
		slog.Error("environment config invalid", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(rt.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("SuperX — persistent strategy core")

	tun, err := config.Load(rt.TuningPath)
	if err != nil {
		slog.Error("tuning file invalid", "path", rt.TuningPath, "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(rt.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "tz", rt.Timezone, "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(rt.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(rt.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", rt.DBPath)

	// ── Genesis (only on an empty store) ─────────────────────────────
	hasWorld, err := db.HasWorld()
	if err != nil {
		slog.Error("world check failed", "error", err)
		os.Exit(1)
	}
	if !hasWorld {
		slog.Info("no saved world found, running genesis", "seed", rt.Seed)
		genCfg := galaxy.DefaultGenConfig()
		genCfg.Seed = rt.Seed
		genCfg.SystemCount = tun.Galaxy.SystemCount
		genCfg.FactionCount = tun.Galaxy.FactionCount
		genCfg.PlayerCount = tun.Galaxy.PlayersPerSeed
		genCfg.PoolTotal = tun.Prestige.PoolTotal
		genCfg.StartPopulation = float64(tun.Galaxy.StartPopulation)

		world := galaxy.Generate(genCfg)
		players := make([]persistence.Player, len(world.Players))
		for i, p := range world.Players {
			players[i] = persistence.Player{ID: p.ID, Name: p.Name, FactionID: p.FactionID}
		}
		if err := db.SeedWorld(world.Factions, players, world.Planets, world.Buildings, world.Sites); err != nil {
			slog.Error("genesis seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("genesis complete",
			"systems", len(world.Systems),
			"factions", len(world.Factions),
			"players", len(world.Players),
			"homeworlds", len(world.Planets),
		)
	}

	// ── Core wiring ───────────────────────────────────────────────────
	resolver := mrg.NewResolver(resolutionConfig(tun))
	sim := economy.NewSimulator(economyConfig(tun), economy.DefaultCatalog())
	prestigeCfg := prestigeConfig(tun)

	clockCfg := clock.Config{
		LockInStartHour:   tun.Clock.LockInStartHour,
		LockInStartMinute: tun.Clock.LockInStartMinute,
		Location:          loc,
	}
	worldClock := clock.New(clockCfg, db, sim, prestigeCfg, nil)

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Clock:    worldClock,
		Sim:      sim,
		Resolver: resolver,
		DB:       db,
		Prestige: prestigeCfg,
		Port:     portFromAddr(rt.Addr),
		AdminKey: rt.AdminKey,
	}
	server.Start()

	// Safety net: the lazy tick normally fires on player requests, but a
	// quiet day still has to close.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := worldClock.MaybeAdvance(time.Now()); err != nil {
				slog.Error("background tick check failed", "error", err)
			}
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	slog.Info("shutting down")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func portFromAddr(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8080
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8080
	}
	return port
}

func resolutionConfig(tun config.Tuning) mrg.Config {
	cfg := mrg.DefaultConfig()
	cfg.DiceSides = tun.Resolution.DiceSides
	cfg.CritSuccessMin = tun.Resolution.CritSuccessMin
	cfg.CritFailureMax = tun.Resolution.CritFailureMax
	cfg.BonusCap = tun.Resolution.BonusCap
	cfg.BonusK = float64(tun.Resolution.BonusK)
	return cfg
}

func prestigeConfig(tun config.Tuning) prestige.Config {
	cfg := prestige.DefaultConfig()
	cfg.PoolTotal = tun.Prestige.PoolTotal
	cfg.IDPDivisor = tun.Prestige.IDPDivisor
	cfg.FrictionThreshold = tun.Prestige.FrictionThreshold
	cfg.FrictionTax = tun.Prestige.FrictionTax
	cfg.SubsidyThreshold = tun.Prestige.SubsidyThreshold
	cfg.AscensionThreshold = tun.Prestige.AscensionThreshold
	cfg.FallThreshold = tun.Prestige.FallThreshold
	cfg.VictoryTicks = tun.Prestige.VictoryTicks
	return cfg
}

func economyConfig(tun config.Tuning) economy.Config {
	cfg := economy.DefaultConfig()
	cfg.SecurityFloor = tun.Economy.SecurityFloor
	cfg.SecurityCeiling = tun.Economy.SecurityCeiling
	cfg.SecurityPerPoint = tun.Economy.SecurityPerDefense
	cfg.IncomePerPop = tun.Economy.IncomePerPop
	cfg.HappinessBonusMax = tun.Economy.HappinessBonusMax
	cfg.IdleEnergyFraction = tun.Economy.IdleEnergyFraction
	cfg.CascadeMaxIterations = tun.Economy.CascadeMaxIterations
	return cfg
}
