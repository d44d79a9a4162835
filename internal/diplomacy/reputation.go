// Package diplomacy implements the reputation ledger, the hostility and war
// state machine, tribute, and the military confidence estimate.
package diplomacy

import (
	"math"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Config holds the balance constants of diplomacy.
type Config struct {
	ReputationMax         float64 `yaml:"reputation_max"`
	HostileReputation     float64 `yaml:"hostile_reputation"`
	WarDeclarationPenalty float64 `yaml:"war_declaration_penalty"`
	PeaceBreakDays        int64   `yaml:"peace_break_days"`
	PeaceBreakPenalty     float64 `yaml:"peace_break_penalty"`
	TributeBreakDays      int64   `yaml:"tribute_break_days"`
	TributeBreakPenalty   float64 `yaml:"tribute_break_penalty"`
	WarLockDays           int64   `yaml:"war_lock_days"`
	TradeReputationGain   float64 `yaml:"trade_reputation_gain"`
	TributeValueShare     float64 `yaml:"tribute_value_share"`
	TributeMoneyShare     float64 `yaml:"tribute_money_share"`
}

// DefaultConfig returns the stock balance.
func DefaultConfig() Config {
	return Config{
		ReputationMax:         200,
		HostileReputation:     -100,
		WarDeclarationPenalty: 50,
		PeaceBreakDays:        20,
		PeaceBreakPenalty:     70,
		TributeBreakDays:      50,
		TributeBreakPenalty:   30,
		WarLockDays:           10,
		TradeReputationGain:   0.0001,
		TributeValueShare:     0.01,
		TributeMoneyShare:     0.1,
	}
}

// Ledger applies diplomacy rules to the companies of a registry.
type Ledger struct {
	reg *company.Registry
	cfg Config
}

// NewLedger creates a ledger over reg.
func NewLedger(reg *company.Registry, cfg Config) *Ledger {
	return &Ledger{reg: reg, cfg: cfg}
}

// Config returns the active balance constants.
func (l *Ledger) Config() Config {
	return l.cfg
}

// Registry returns the registry the ledger operates on.
func (l *Ledger) Registry() *company.Registry {
	return l.reg
}

// Reputation is source's opinion of target.
func (l *Ledger) Reputation(source, target *company.Company) float64 {
	return source.Reputation(target.ID)
}

// GainFactor maps how far reputation already sits in the direction of a
// change (0 = opposite extreme, 1 = same extreme) to a gain multiplier.
func GainFactor(ratio float64) float64 {
	switch {
	case ratio < 0.25:
		return -32*ratio + 10
	case ratio < 0.5:
		return -4*ratio + 3
	case ratio < 0.75:
		return -3.6*ratio + 2.8
	default:
		return -0.4*ratio + 0.4
	}
}

// GiveReputation changes source's opinion of target by amount, shaped by
// the gain curve and source's reactivity. With propagate, every bystander
// shifts its own opinion of target in proportion to how it regards source.
func (l *Ledger) GiveReputation(source, target *company.Company, amount float64, propagate bool) {
	if amount == 0 || source == nil || target == nil || source == target {
		return
	}

	if amount < 0 && target.IsTechnologyUnlocked(world.TechDiplomacy) {
		amount /= 2
	}

	limit := l.cfg.ReputationMax
	current, ok := source.Reputations[target.ID]
	if !ok {
		source.Reputations[target.ID] = 0
	}

	sign := 1.0
	if amount < 0 {
		sign = -1
	}
	ratio := (current*sign + limit) / (2 * limit)
	scaledGain := amount * GainFactor(ratio)

	reactivity := 1.0
	if !l.reg.IsPlayer(source) {
		reactivity = source.Profile.DiplomaticReactivity
	}

	source.Reputations[target.ID] = clamp(current+scaledGain*reactivity, -limit, limit)

	if !propagate {
		return
	}
	for _, other := range l.reg.Companies {
		if other == source || other == target {
			continue
		}
		share := 0.5 * (other.Reputation(source.ID) / limit) * scaledGain
		l.GiveReputation(other, target, share, false)
	}
}

// ForceReputation sets source's opinion of target directly.
func (l *Ledger) ForceReputation(source, target *company.Company, value float64) {
	if source == nil || target == nil || source == target {
		return
	}
	source.Reputations[target.ID] = clamp(value, -l.cfg.ReputationMax, l.cfg.ReputationMax)
}

// GiveReputationToOthers makes every other company change its opinion of c.
func (l *Ledger) GiveReputationToOthers(c *company.Company, amount float64, propagate bool) {
	for _, other := range l.reg.Others(c) {
		l.GiveReputation(other, c, amount, propagate)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
