package clock

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mati279/SuperX/internal/economy"
	"github.com/Mati279/SuperX/internal/prestige"
)

// Config holds the clock tunables.
type Config struct {
	LockInStartHour   int            // lock-in window opens at this hour (default 23)
	LockInStartMinute int            // and this minute (default 50)
	Location          *time.Location // server timezone for day boundaries
}

// DefaultConfig returns the standard day-cycle parameters in UTC.
func DefaultConfig() Config {
	return Config{LockInStartHour: 23, LockInStartMinute: 50, Location: time.UTC}
}

// ActionResolver executes one queued player order during the tick body.
// The narration/command layer supplies it; an error rejects the action
// without aborting the batch.
type ActionResolver func(playerID, actionText string) error

// Clock is the world's single tick entry point. Safe to call from any
// number of concurrent callers: only the winner of the store's conditional
// write runs the tick body.
type Clock struct {
	cfg      Config
	store    Store
	sim      *economy.Simulator
	prestige prestige.Config
	resolve  ActionResolver
}

// New creates a world clock over the given collaborators. resolver may be
// nil, in which case queued actions are marked processed without effect.
func New(cfg Config, store Store, sim *economy.Simulator, prestigeCfg prestige.Config, resolver ActionResolver) *Clock {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Clock{cfg: cfg, store: store, sim: sim, prestige: prestigeCfg, resolve: resolver}
}

// IsLockInWindow reports whether now falls inside the pre-midnight window
// during which player actions are queued instead of resolved immediately.
func (c *Clock) IsLockInWindow(now time.Time) bool {
	local := now.In(c.cfg.Location)
	start := time.Date(local.Year(), local.Month(), local.Day(),
		c.cfg.LockInStartHour, c.cfg.LockInStartMinute, 0, 0, c.cfg.Location)
	return !local.Before(start)
}

// QueueAction inserts a PENDING order for the next tick.
func (c *Clock) QueueAction(playerID, actionText string) (QueuedAction, error) {
	action := QueuedAction{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		ActionText: actionText,
		Status:     ActionPending,
		CreatedAt:  time.Now().In(c.cfg.Location),
	}
	if err := c.store.InsertAction(action); err != nil {
		return QueuedAction{}, fmt.Errorf("queue action: %w", err)
	}
	slog.Info("action queued", "action", action.ID, "player", playerID)
	return action, nil
}

// ApplyConflictOutcome moves prestige from the defender's faction to the
// attacker's after a resolved conflict, persisting the updated pool and the
// audit record. Returns the transfer, nil when the disparity zeroed it out.
func (c *Clock) ApplyConflictOutcome(attackerID, defenderID string, baseEvent float64, reason string) (*prestige.Transfer, error) {
	factions, err := c.store.Factions()
	if err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}
	state, err := c.store.WorldState()
	if err != nil {
		return nil, fmt.Errorf("read world state: %w", err)
	}

	ledger := prestige.NewLedger(c.prestige, factions)
	amount, record, err := ledger.Transfer(attackerID, defenderID, baseEvent, state.CurrentTick, reason)
	if err != nil {
		return nil, err
	}

	if err := c.store.SaveFactions(ledger.Factions()); err != nil {
		return nil, fmt.Errorf("save factions: %w", err)
	}
	if record != nil {
		if err := c.store.AppendTransfer(record); err != nil {
			return nil, fmt.Errorf("record transfer: %w", err)
		}
	}

	slog.Info("conflict outcome applied",
		"attacker", attackerID, "defender", defenderID,
		"amount", fmt.Sprintf("%.2f", amount), "reason", reason)
	return record, nil
}

// MaybeAdvance is the lazy tick check called on every player interaction.
// It attempts the atomic day swap and, when this caller wins, runs the full
// tick body. Losing the swap (day already processed, or another caller won)
// and a frozen world both return false with no side effects.
func (c *Clock) MaybeAdvance(now time.Time) (bool, error) {
	state, err := c.store.WorldState()
	if err != nil {
		return false, fmt.Errorf("read world state: %w", err)
	}
	if state.IsFrozen {
		return false, nil
	}

	day := now.In(c.cfg.Location).Format("2006-01-02")
	won, tick, err := c.store.TryAdvanceTick(day)
	if err != nil {
		return false, fmt.Errorf("advance tick: %w", err)
	}
	if !won {
		return false, nil
	}

	c.runTickBody(tick)
	return true, nil
}

// ForceAdvance runs a tick skipping the date check. Debug/admin only.
func (c *Clock) ForceAdvance() (int64, error) {
	tick, err := c.store.ForceAdvanceTick()
	if err != nil {
		return 0, fmt.Errorf("force tick: %w", err)
	}
	slog.Warn("tick forced, skipping date validation", "tick", tick)
	c.runTickBody(tick)
	return tick, nil
}

// Status returns the snapshot for the UI clock widget.
func (c *Clock) Status(now time.Time) (WorldStatus, error) {
	state, err := c.store.WorldState()
	if err != nil {
		return WorldStatus{}, fmt.Errorf("read world state: %w", err)
	}
	return WorldStatus{
		Tick:     state.CurrentTick,
		Frozen:   state.IsFrozen,
		LockIn:   c.IsLockInWindow(now),
		ServerTS: now.In(c.cfg.Location).Format("15:04"),
	}, nil
}

// runTickBody executes the tick phases in their strict order. Once the swap
// is won the body always runs to completion; failures are isolated per
// action, per planet, and per phase, and retried on the next tick.
func (c *Clock) runTickBody(tick int64) {
	started := time.Now()
	slog.Info("tick processing started", "tick", tick)

	c.phaseActionQueue(tick)
	c.phaseEconomy(tick)
	c.phasePrestige(tick)

	slog.Info("tick processing complete", "tick", tick, "duration", time.Since(started))
}

// phaseActionQueue drains the PENDING queue in FIFO submission order. Each
// action is consumed exactly once: PROCESSED on success, REJECTED on
// resolver error. A failing action never aborts the batch.
func (c *Clock) phaseActionQueue(tick int64) {
	pending, err := c.store.PendingActions()
	if err != nil {
		slog.Error("action queue unavailable, phase skipped", "tick", tick, "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	slog.Info("draining action queue", "tick", tick, "count", len(pending))

	for _, action := range pending {
		status := ActionProcessed
		if c.resolve != nil {
			if err := c.resolve(action.PlayerID, action.ActionText); err != nil {
				slog.Warn("queued action rejected", "action", action.ID, "player", action.PlayerID, "error", err)
				status = ActionRejected
			}
		}
		if err := c.store.MarkAction(action.ID, status); err != nil {
			slog.Error("action status update failed", "action", action.ID, "error", err)
		}
	}
}

// phaseEconomy runs the daily economy pass for every player. Planets are
// partitioned by owner, so one player's failure never blocks another's.
func (c *Clock) phaseEconomy(tick int64) {
	players, err := c.store.PlayerIDs()
	if err != nil {
		slog.Error("player list unavailable, economy phase skipped", "tick", tick, "error", err)
		return
	}

	for _, playerID := range players {
		res, err := c.sim.RunPlayerTick(c.store, playerID)
		if err != nil {
			slog.Error("economy pass failed for player", "player", playerID, "error", err)
			continue
		}
		if err := c.store.SaveEvents(tick, res.Events); err != nil {
			slog.Error("event log write failed", "player", playerID, "error", err)
		}
		slog.Info("economy processed",
			"player", playerID,
			"planets", res.Planets,
			"failed", res.Failed,
			"credits", res.Production.Credits,
			"materials", res.Production.Materials,
			"components", res.Production.Components,
			"energy_cells", res.Production.EnergyCells,
			"influence", res.Production.Influence,
		)
	}
}

// phasePrestige applies friction, then the hegemony pass. A Victory
// transition is terminal: it freezes the world and ends the tick without
// processing anything further.
func (c *Clock) phasePrestige(tick int64) {
	factions, err := c.store.Factions()
	if err != nil {
		slog.Error("factions unavailable, prestige phase skipped", "tick", tick, "error", err)
		return
	}
	if len(factions) == 0 {
		return
	}
	ledger := prestige.NewLedger(c.prestige, factions)

	if _, err := ledger.ApplyFriction(); err != nil {
		// Conservation breach: friction was rolled back, not committed.
		slog.Error("friction pass rejected", "tick", tick, "error", err)
	}

	transitions := ledger.AdvanceHegemony(tick)
	victory := false
	for _, tr := range transitions {
		if tr.Kind == prestige.TransitionVictory {
			victory = true
		}
	}

	if err := c.store.SaveFactions(ledger.Factions()); err != nil {
		slog.Error("faction save failed", "tick", tick, "error", err)
		return
	}

	if victory {
		if err := c.store.SetFrozen(true); err != nil {
			slog.Error("world freeze failed after victory", "tick", tick, "error", err)
		}
		slog.Info("game over: hegemony victory, world frozen", "tick", tick)
		return
	}

	top := ledger.Ranking()
	if len(top) > 3 {
		top = top[:3]
	}
	for i, f := range top {
		slog.Info("faction standing", "rank", i+1, "faction", f.Name, "prestige", fmt.Sprintf("%.1f", f.Prestige))
	}
}
