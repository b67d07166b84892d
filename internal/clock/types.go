// Package clock owns the world's day cycle: deciding when a new tick
// begins, winning the advance atomically among concurrent callers, and
// running the tick body (action queue, economy, prestige) exactly once.
package clock

import (
	"time"

	"github.com/Mati279/SuperX/internal/economy"
	"github.com/Mati279/SuperX/internal/prestige"
)

// WorldState is the singleton world record. CurrentTick is monotonically
// non-decreasing and mutated only through the store's atomic advance.
type WorldState struct {
	CurrentTick         int64      `db:"current_tick" json:"current_tick"`
	LastTickProcessedAt *time.Time `db:"last_tick_processed_at" json:"last_tick_processed_at"`
	IsFrozen            bool       `db:"is_frozen" json:"is_frozen"`
}

// ActionStatus is the lifecycle of a queued action.
type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionProcessed ActionStatus = "PROCESSED"
	ActionRejected  ActionStatus = "REJECTED"
)

// QueuedAction is a player order submitted during the lock-in window,
// consumed exactly once at the next tick boundary in submission order.
type QueuedAction struct {
	ID          string       `db:"id" json:"id"`
	PlayerID    string       `db:"player_id" json:"player_id"`
	ActionText  string       `db:"action_text" json:"action_text"`
	Status      ActionStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
}

// Store is the persistence collaborator. TryAdvanceTick is the single
// synchronization point of the whole simulation: an atomic conditional
// write that exactly one concurrent caller wins per day.
type Store interface {
	economy.Store

	WorldState() (WorldState, error)
	// TryAdvanceTick attempts the compare-and-swap on the day marker.
	// Returns whether this caller won and, if so, the new tick number.
	// A losing call is a no-op, not an error.
	TryAdvanceTick(day string) (bool, int64, error)
	// ForceAdvanceTick bumps the tick ignoring the date check (debug).
	ForceAdvanceTick() (int64, error)
	SetFrozen(frozen bool) error

	InsertAction(action QueuedAction) error
	// PendingActions returns PENDING actions in ascending createdAt order.
	PendingActions() ([]QueuedAction, error)
	MarkAction(id string, status ActionStatus) error

	Factions() ([]*prestige.Faction, error)
	SaveFactions(factions []*prestige.Faction) error
	AppendTransfer(t *prestige.Transfer) error

	// SaveEvents appends the tick's economy events to the world log.
	SaveEvents(tick int64, events []economy.Event) error
}

// WorldStatus is the snapshot the UI clock widget renders.
type WorldStatus struct {
	Tick     int64  `json:"tick"`
	Frozen   bool   `json:"frozen"`
	LockIn   bool   `json:"lock_in"`
	ServerTS string `json:"server_time"`
}
