package mrg

import (
	"math"
	"math/rand"
)

// Config holds the resolver tunables. Zero values are invalid; use
// DefaultConfig and override fields from the tuning file.
type Config struct {
	DiceSides          int     // width of each draw (default 50)
	CritSuccessMin     int     // roll total forcing a critical success (default 96)
	CritFailureMax     int     // roll total forcing a critical failure (default 5)
	BonusCap           int     // asymptote of the merit bonus (default 40)
	BonusK             float64 // saturation factor, higher = flatter curve (default 50)
	TotalSuccessMargin int     // margin at or above this = total success (default 25)
	TotalFailureMargin int     // margin below this = total failure (default -25)
}

// DefaultConfig returns the standard resolution parameters.
func DefaultConfig() Config {
	return Config{
		DiceSides:          50,
		CritSuccessMin:     96,
		CritFailureMax:     5,
		BonusCap:           40,
		BonusK:             50,
		TotalSuccessMargin: 25,
		TotalFailureMargin: -25,
	}
}

// Resolver resolves actions against a difficulty. Stateless apart from its
// configuration; safe for concurrent use.
type Resolver struct {
	cfg Config
}

// NewResolver creates a resolver with the given tunables.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve rolls two independent dice, applies the asymptotic merit bonus
// and situational modifiers, and classifies the outcome by margin.
//
// Deterministic with respect to req.Seed: identical requests always yield
// identical results.
func (r *Resolver) Resolve(req ResolveRequest) (Result, error) {
	if req.Difficulty < 0 {
		return Result{}, ErrInvalidDifficulty
	}
	if req.MeritPoints < 0 {
		return Result{}, ErrNegativeMerit
	}

	rng := rand.New(rand.NewSource(req.Seed))
	roll := Roll{
		Die1: rng.Intn(r.cfg.DiceSides) + 1,
		Die2: rng.Intn(r.cfg.DiceSides) + 1,
	}

	bonus := r.asymptoticBonus(req.MeritPoints)
	for _, mod := range req.Modifiers {
		bonus += mod
	}

	margin := roll.Total() + bonus - req.Difficulty
	resultType := r.classify(roll, margin)

	res := Result{
		Roll:        roll,
		MeritPoints: req.MeritPoints,
		Bonus:       bonus,
		Difficulty:  req.Difficulty,
		Margin:      margin,
		Type:        resultType,
	}

	switch resultType {
	case CriticalSuccess, TotalSuccess:
		res.RequiresChoice = true
		res.AvailableBenefits = []Benefit{BenefitEfficiency, BenefitPrestige, BenefitImpetus}
	case CriticalFailure, TotalFailure:
		res.RequiresChoice = true
		res.AvailableMaluses = []Malus{MalusOperativeDown, MalusDiscredit, MalusExposure}
	}
	return res, nil
}

// asymptoticBonus saturates toward BonusCap as merit grows, so accumulated
// merit yields diminishing returns and never an unbounded advantage.
func (r *Resolver) asymptoticBonus(merit int) int {
	if merit <= 0 {
		return 0
	}
	raw := float64(r.cfg.BonusCap) * (1 - math.Exp(-float64(merit)/r.cfg.BonusK))
	return int(math.Round(raw))
}

// classify applies critical overrides first, then the margin thresholds.
func (r *Resolver) classify(roll Roll, margin int) ResultType {
	switch {
	case roll.Total() >= r.cfg.CritSuccessMin:
		return CriticalSuccess
	case roll.Total() <= r.cfg.CritFailureMax:
		return CriticalFailure
	case margin >= r.cfg.TotalSuccessMargin:
		return TotalSuccess
	case margin >= 0:
		return PartialSuccess
	case margin >= r.cfg.TotalFailureMargin:
		return PartialFailure
	default:
		return TotalFailure
	}
}
