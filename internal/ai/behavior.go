package ai

import (
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/economy"
	"github.com/talgya/mini-galaxy/internal/logistics"
	"github.com/talgya/mini-galaxy/internal/world"
)

// HealthyFleetRatio is the share of cargo ships that must be in working
// order for a company to afford a war.
const HealthyFleetRatio = 0.5

// FleetHealth reports whether a company's trade fleet can sustain a war.
type FleetHealth func(c *company.Company) bool

// HealthyTradeFleet is the default FleetHealth: the company owns cargo
// ships and at least half of them are controllable and above the profile
// retreat threshold.
func HealthyTradeFleet(c *company.Company) bool {
	total, healthy := 0, 0
	for _, sp := range c.Ships() {
		if sp.Military || sp.Cargo == nil {
			continue
		}
		total++
		if sp.Uncontrollable() {
			continue
		}
		if sp.Damage == nil || sp.Damage.GlobalHealth() >= c.Profile.RetreatThreshold {
			healthy++
		}
	}
	return total > 0 && float64(healthy) >= HealthyFleetRatio*float64(total)
}

// Behavior drives AI companies.
type Behavior struct {
	reg       *company.Registry
	ledger    *diplomacy.Ledger
	broker    *economy.Broker
	logistics *logistics.Allocator

	Quests      QuestTracker
	FleetHealth FleetHealth
}

// NewBehavior wires the AI to the shared subsystems.
func NewBehavior(ledger *diplomacy.Ledger, broker *economy.Broker, alloc *logistics.Allocator) *Behavior {
	return &Behavior{
		reg:         ledger.Registry(),
		ledger:      ledger,
		broker:      broker,
		logistics:   alloc,
		Quests:      noQuests{},
		FleetHealth: HealthyTradeFleet,
	}
}

// DayReport summarizes one company's day.
type DayReport struct {
	Company   world.CompanyID    `json:"company"`
	Traded    int                `json:"traded"`
	Logistics []logistics.Report `json:"logistics,omitempty"`
	Budget    company.Budget     `json:"next_budget"`
}

// Simulate runs c's economic day: trading, repair and refill, budget.
// Pirates see to their ships before trading.
func (b *Behavior) Simulate(c *company.Company) DayReport {
	rep := DayReport{Company: c.ID}

	if c.Archetype == ArchetypePirates {
		rep.Logistics = b.logistics.Run(c)
		rep.Traded = b.UpdateTrading(c)
	} else {
		rep.Traded = b.UpdateTrading(c)
		rep.Logistics = b.logistics.Run(c)
	}

	ProcessBudget(b.ledger, c)
	rep.Budget = NextBudget(c)

	slog.Debug("ai day", "company", c.ID, "traded", rep.Traded, "next_budget", rep.Budget)
	return rep
}

// Tick refreshes c's battle flags: a sector is dangerous for c when a
// company at war with it fields combat points there.
func (b *Behavior) Tick(c *company.Company) {
	for _, sector := range b.reg.Sectors {
		if len(sector.CompanySpacecraft(c.ID)) == 0 {
			sector.SetDangerousBattle(c.ID, false)
			continue
		}
		sector.SetDangerousBattle(c.ID, b.threatened(c, sector))
	}
}

func (b *Behavior) threatened(c *company.Company, sector *world.Sector) bool {
	for _, sp := range sector.Spacecraft {
		if sp.Company == c.ID || sp.CurrentCombatPoints(true) == 0 {
			continue
		}
		owner := b.reg.Owner(sp)
		if owner != nil && b.ledger.WarState(c, owner) == diplomacy.Hostile {
			return true
		}
	}
	return false
}
