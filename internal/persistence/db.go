// Package persistence provides SQLite-based world state storage.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Mati279/SuperX/internal/clock"
	"github.com/Mati279/SuperX/internal/economy"
	"github.com/Mati279/SuperX/internal/prestige"
)

// DB wraps a SQLite connection for world state persistence. It implements
// clock.Store, including the embedded economy.Store.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS world_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_tick INTEGER NOT NULL DEFAULT 0,
		last_tick_day TEXT,
		last_tick_processed_at TIMESTAMP,
		is_frozen INTEGER NOT NULL DEFAULT 0
	);
	INSERT OR IGNORE INTO world_state (id, current_tick) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS action_queue (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		action_text TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		faction_id TEXT
	);

	CREATE TABLE IF NOT EXISTS factions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		prestige REAL NOT NULL,
		is_hegemon INTEGER NOT NULL DEFAULT 0,
		hegemony_counter INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS prestige_transfers (
		id TEXT PRIMARY KEY,
		tick INTEGER NOT NULL,
		attacker_id TEXT NOT NULL,
		defender_id TEXT NOT NULL,
		amount REAL NOT NULL,
		idp_multiplier REAL NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS planet_assets (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		name TEXT NOT NULL,
		biome TEXT NOT NULL,
		population REAL NOT NULL,
		pops_active REAL NOT NULL DEFAULT 0,
		pops_unemployed REAL NOT NULL DEFAULT 0,
		defense_infrastructure INTEGER NOT NULL DEFAULT 0,
		happiness REAL NOT NULL DEFAULT 1.0,
		security REAL NOT NULL DEFAULT 0.3
	);

	CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		planet_asset_id TEXT NOT NULL,
		type TEXT NOT NULL,
		tier INTEGER NOT NULL DEFAULT 1,
		is_active INTEGER NOT NULL DEFAULT 1,
		pops_required INTEGER NOT NULL,
		energy_consumption INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS luxury_sites (
		id TEXT PRIMARY KEY,
		planet_asset_id TEXT NOT NULL,
		resource_key TEXT NOT NULL,
		resource_category TEXT NOT NULL,
		extraction_rate INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		pops_required INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		planet_id TEXT,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_status ON action_queue(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_planets_player ON planet_assets(player_id);
	CREATE INDEX IF NOT EXISTS idx_buildings_planet ON buildings(planet_asset_id);
	CREATE INDEX IF NOT EXISTS idx_sites_planet ON luxury_sites(planet_asset_id);
	CREATE INDEX IF NOT EXISTS idx_transfers_tick ON prestige_transfers(tick);
	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// WorldState reads the singleton world row.
func (db *DB) WorldState() (clock.WorldState, error) {
	var state clock.WorldState
	err := db.conn.Get(&state,
		"SELECT current_tick, last_tick_processed_at, is_frozen FROM world_state WHERE id = 1")
	if err != nil {
		return clock.WorldState{}, fmt.Errorf("read world state: %w", err)
	}
	return state, nil
}

// TryAdvanceTick performs the atomic day swap. The conditional UPDATE is
// the sole synchronization point: among any number of concurrent callers
// for the same day, exactly one sees RowsAffected == 1.
func (db *DB) TryAdvanceTick(day string) (bool, int64, error) {
	res, err := db.conn.Exec(`
		UPDATE world_state
		SET current_tick = current_tick + 1,
		    last_tick_day = ?,
		    last_tick_processed_at = ?
		WHERE id = 1
		  AND is_frozen = 0
		  AND (last_tick_day IS NULL OR last_tick_day < ?)`,
		day, time.Now().UTC(), day,
	)
	if err != nil {
		return false, 0, fmt.Errorf("advance tick: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("advance tick result: %w", err)
	}
	if n == 0 {
		return false, 0, nil
	}

	var tick int64
	if err := db.conn.Get(&tick, "SELECT current_tick FROM world_state WHERE id = 1"); err != nil {
		return false, 0, fmt.Errorf("read tick after advance: %w", err)
	}
	return true, tick, nil
}

// ForceAdvanceTick bumps the tick unconditionally. Debug/admin only.
func (db *DB) ForceAdvanceTick() (int64, error) {
	_, err := db.conn.Exec(
		"UPDATE world_state SET current_tick = current_tick + 1, last_tick_processed_at = ? WHERE id = 1",
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("force tick: %w", err)
	}
	var tick int64
	if err := db.conn.Get(&tick, "SELECT current_tick FROM world_state WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("read tick after force: %w", err)
	}
	return tick, nil
}

// SetFrozen flips the world freeze flag.
func (db *DB) SetFrozen(frozen bool) error {
	_, err := db.conn.Exec("UPDATE world_state SET is_frozen = ? WHERE id = 1", frozen)
	if err != nil {
		return fmt.Errorf("set frozen: %w", err)
	}
	return nil
}

// InsertAction appends a queued player order.
func (db *DB) InsertAction(action clock.QueuedAction) error {
	_, err := db.conn.Exec(`INSERT INTO action_queue
		(id, player_id, action_text, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		action.ID, action.PlayerID, action.ActionText, string(action.Status), action.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// PendingActions returns PENDING actions in submission order.
func (db *DB) PendingActions() ([]clock.QueuedAction, error) {
	var actions []clock.QueuedAction
	err := db.conn.Select(&actions, `
		SELECT id, player_id, action_text, status, created_at, processed_at
		FROM action_queue
		WHERE status = 'PENDING'
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("pending actions: %w", err)
	}
	return actions, nil
}

// MarkAction records the outcome of a drained action.
func (db *DB) MarkAction(id string, status clock.ActionStatus) error {
	res, err := db.conn.Exec(
		"UPDATE action_queue SET status = ?, processed_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark action %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark action %s: not found", id)
	}
	return nil
}

// Factions loads all faction rows.
func (db *DB) Factions() ([]*prestige.Faction, error) {
	var factions []*prestige.Faction
	err := db.conn.Select(&factions,
		"SELECT id, name, prestige, is_hegemon, hegemony_counter FROM factions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}
	return factions, nil
}

// SaveFactions writes all factions back in one transaction.
func (db *DB) SaveFactions(factions []*prestige.Faction) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO factions
		(id, name, prestige, is_hegemon, hegemony_counter)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range factions {
		if _, err := stmt.Exec(f.ID, f.Name, f.Prestige, f.IsHegemon, f.HegemonyCounter); err != nil {
			return fmt.Errorf("save faction %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// AppendTransfer records one prestige movement in the audit log.
func (db *DB) AppendTransfer(t *prestige.Transfer) error {
	_, err := db.conn.Exec(`INSERT INTO prestige_transfers
		(id, tick, attacker_id, defender_id, amount, idp_multiplier, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Tick, t.AttackerID, t.DefenderID, t.Amount, t.IDPMultiplier, t.Reason,
	)
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

// PlayerIDs lists every player with at least one planet.
func (db *DB) PlayerIDs() ([]string, error) {
	var ids []string
	err := db.conn.Select(&ids,
		"SELECT DISTINCT player_id FROM planet_assets ORDER BY player_id")
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return ids, nil
}

// PlanetsByPlayer loads one player's planets.
func (db *DB) PlanetsByPlayer(playerID string) ([]economy.PlanetAsset, error) {
	var planets []economy.PlanetAsset
	err := db.conn.Select(&planets, `
		SELECT id, player_id, name, biome, population, pops_active, pops_unemployed,
		       defense_infrastructure, happiness, security
		FROM planet_assets WHERE player_id = ? ORDER BY id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("planets for %s: %w", playerID, err)
	}
	return planets, nil
}

// BuildingsByPlanet loads one planet's buildings.
func (db *DB) BuildingsByPlanet(planetID string) ([]*economy.Building, error) {
	var buildings []*economy.Building
	err := db.conn.Select(&buildings, `
		SELECT id, planet_asset_id, type, tier, is_active, pops_required, energy_consumption
		FROM buildings WHERE planet_asset_id = ? ORDER BY id`, planetID)
	if err != nil {
		return nil, fmt.Errorf("buildings for %s: %w", planetID, err)
	}
	return buildings, nil
}

// LuxurySitesByPlanet loads one planet's luxury extraction sites.
func (db *DB) LuxurySitesByPlanet(planetID string) ([]*economy.LuxuryExtractionSite, error) {
	var sites []*economy.LuxuryExtractionSite
	err := db.conn.Select(&sites, `
		SELECT id, planet_asset_id, resource_key, resource_category, extraction_rate,
		       is_active, pops_required
		FROM luxury_sites WHERE planet_asset_id = ? ORDER BY id`, planetID)
	if err != nil {
		return nil, fmt.Errorf("luxury sites for %s: %w", planetID, err)
	}
	return sites, nil
}

// UpdatePlanetPops persists the recomputed workforce split and security.
func (db *DB) UpdatePlanetPops(planet economy.PlanetAsset) error {
	_, err := db.conn.Exec(`
		UPDATE planet_assets
		SET population = ?, pops_active = ?, pops_unemployed = ?, security = ?
		WHERE id = ?`,
		planet.Population, planet.PopsActive, planet.PopsUnemployed, planet.Security, planet.ID,
	)
	if err != nil {
		return fmt.Errorf("update planet %s: %w", planet.ID, err)
	}
	return nil
}

// BatchUpdateActivation flips activation flags for buildings and luxury
// sites in a single transaction, so a cascade outcome lands atomically.
func (db *DB) BatchUpdateActivation(buildings map[string]bool, sites map[string]bool) error {
	if len(buildings) == 0 && len(sites) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, active := range buildings {
		if _, err := tx.Exec("UPDATE buildings SET is_active = ? WHERE id = ?", active, id); err != nil {
			return fmt.Errorf("toggle building %s: %w", id, err)
		}
	}
	for id, active := range sites {
		if _, err := tx.Exec("UPDATE luxury_sites SET is_active = ? WHERE id = ?", active, id); err != nil {
			return fmt.Errorf("toggle site %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends tick events to the log.
func (db *DB) SaveEvents(tick int64, events []economy.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, planet_id, description, category) VALUES (?, ?, ?, ?)",
			tick, e.PlanetID, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events.
func (db *DB) RecentEvents(limit int) ([]economy.Event, error) {
	var events []economy.Event
	err := db.conn.Select(&events,
		"SELECT planet_id, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// HasWorld reports whether genesis has already populated the galaxy.
func (db *DB) HasWorld() (bool, error) {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM planet_assets"); err != nil {
		return false, fmt.Errorf("check world: %w", err)
	}
	return count > 0, nil
}

// SeedWorld inserts the genesis output in one transaction: factions,
// players, planets with their starting buildings and luxury sites.
func (db *DB) SeedWorld(factions []*prestige.Faction, players []Player,
	planets []economy.PlanetAsset, buildings []*economy.Building,
	sites []*economy.LuxuryExtractionSite) error {

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range factions {
		_, err := tx.Exec(`INSERT INTO factions
			(id, name, prestige, is_hegemon, hegemony_counter)
			VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Prestige, f.IsHegemon, f.HegemonyCounter)
		if err != nil {
			return fmt.Errorf("seed faction %s: %w", f.ID, err)
		}
	}

	for _, p := range players {
		_, err := tx.Exec("INSERT INTO players (id, name, faction_id) VALUES (?, ?, ?)",
			p.ID, p.Name, p.FactionID)
		if err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}
	}

	for _, p := range planets {
		_, err := tx.Exec(`INSERT INTO planet_assets
			(id, player_id, name, biome, population, pops_active, pops_unemployed,
			 defense_infrastructure, happiness, security)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.PlayerID, p.Name, p.Biome, p.Population, p.PopsActive,
			p.PopsUnemployed, p.DefenseInfrastructure, p.Happiness, p.Security)
		if err != nil {
			return fmt.Errorf("seed planet %s: %w", p.ID, err)
		}
	}

	for _, b := range buildings {
		_, err := tx.Exec(`INSERT INTO buildings
			(id, planet_asset_id, type, tier, is_active, pops_required, energy_consumption)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.PlanetAssetID, b.Type, b.Tier, b.IsActive, b.PopsRequired, b.EnergyConsumption)
		if err != nil {
			return fmt.Errorf("seed building %s: %w", b.ID, err)
		}
	}

	for _, s := range sites {
		_, err := tx.Exec(`INSERT INTO luxury_sites
			(id, planet_asset_id, resource_key, resource_category, extraction_rate,
			 is_active, pops_required)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.PlanetAssetID, s.ResourceKey, s.ResourceCategory,
			s.ExtractionRate, s.IsActive, s.PopsRequired)
		if err != nil {
			return fmt.Errorf("seed site %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// Player is an account row linking a player to their faction.
type Player struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	FactionID string `db:"faction_id" json:"faction_id"`
}

// PlayerByID loads one player row.
func (db *DB) PlayerByID(id string) (Player, error) {
	var p Player
	err := db.conn.Get(&p, "SELECT id, name, faction_id FROM players WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("player %s: %w", id, err)
	}
	if err != nil {
		return Player{}, fmt.Errorf("load player %s: %w", id, err)
	}
	return p, nil
}
