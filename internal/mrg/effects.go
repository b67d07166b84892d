package mrg

import (
	"fmt"
	"log/slog"
)

// Effect magnitudes applied by the benefit/malus handlers.
const (
	EfficiencyRefundRate = 0.50 // fraction of spent energy returned
	PrestigeGain         = 0.05 // prestige points credited to the faction
	ImpetusTickReduction = 1    // ticks shaved off the next mission
	OperativeDownTicks   = 2    // ticks out of service
	DiscreditLoss        = 0.05 // prestige points debited from the faction
)

// EffectSink receives the side effects of a resolved action. The resolver
// itself never mutates state; the surrounding application implements this
// against its own ledgers and rosters.
type EffectSink interface {
	// RefundEnergy returns part of an action's energy cost to the player.
	RefundEnergy(playerID string, amount int) error
	// AdjustFactionPrestige credits (positive) or debits (negative) prestige.
	AdjustFactionPrestige(factionID string, delta float64) error
	// SetOperativeDown takes an operative out of service for a tick count.
	SetOperativeDown(operativeID string, ticks int) error
	// GrantImpetus accelerates the operative's next mission.
	GrantImpetus(operativeID string, ticks int) error
	// ExposeOperative reveals the operative's position to rivals.
	ExposeOperative(operativeID string) error
}

// EffectContext identifies who the chosen effect lands on.
type EffectContext struct {
	PlayerID    string
	FactionID   string
	OperativeID string
	EnergySpent int
}

// ApplyBenefit executes the benefit chosen after a total or critical success.
func ApplyBenefit(sink EffectSink, ctx EffectContext, b Benefit) error {
	switch b {
	case BenefitEfficiency:
		refund := int(float64(ctx.EnergySpent) * EfficiencyRefundRate)
		if err := sink.RefundEnergy(ctx.PlayerID, refund); err != nil {
			return fmt.Errorf("refund energy: %w", err)
		}
		slog.Info("benefit applied", "benefit", b, "player", ctx.PlayerID, "refund", refund)
	case BenefitPrestige:
		if err := sink.AdjustFactionPrestige(ctx.FactionID, PrestigeGain); err != nil {
			return fmt.Errorf("prestige gain: %w", err)
		}
		slog.Info("benefit applied", "benefit", b, "faction", ctx.FactionID, "gain", PrestigeGain)
	case BenefitImpetus:
		if err := sink.GrantImpetus(ctx.OperativeID, ImpetusTickReduction); err != nil {
			return fmt.Errorf("grant impetus: %w", err)
		}
		slog.Info("benefit applied", "benefit", b, "operative", ctx.OperativeID)
	default:
		return fmt.Errorf("mrg: unknown benefit %d", b)
	}
	return nil
}

// ApplyMalus executes the malus chosen after a total or critical failure.
func ApplyMalus(sink EffectSink, ctx EffectContext, m Malus) error {
	switch m {
	case MalusOperativeDown:
		if err := sink.SetOperativeDown(ctx.OperativeID, OperativeDownTicks); err != nil {
			return fmt.Errorf("operative down: %w", err)
		}
		slog.Info("malus applied", "malus", m, "operative", ctx.OperativeID, "ticks", OperativeDownTicks)
	case MalusDiscredit:
		if err := sink.AdjustFactionPrestige(ctx.FactionID, -DiscreditLoss); err != nil {
			return fmt.Errorf("discredit: %w", err)
		}
		slog.Info("malus applied", "malus", m, "faction", ctx.FactionID, "loss", DiscreditLoss)
	case MalusExposure:
		if err := sink.ExposeOperative(ctx.OperativeID); err != nil {
			return fmt.Errorf("exposure: %w", err)
		}
		slog.Info("malus applied", "malus", m, "operative", ctx.OperativeID)
	default:
		return fmt.Errorf("mrg: unknown malus %d", m)
	}
	return nil
}
