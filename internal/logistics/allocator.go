package logistics

import (
	"log/slog"
	"math"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Kind selects the repair or the refill procedure.
type Kind uint8

const (
	Repair Kind = iota
	Refill
)

func (k Kind) String() string {
	if k == Refill {
		return "refill"
	}
	return "repair"
}

// Need is the fleet supply a company requires in one sector.
type Need struct {
	Current     int   `json:"current"`      // what one day of work can use
	Total       int   `json:"total"`        // what full restoration costs
	MaxDuration int64 `json:"max_duration"` // days until the slowest component is done
}

// Supply is the fleet supply a company can reach in one sector.
type Supply struct {
	Owned      int   `json:"owned"`
	NotOwned   int   `json:"not_owned"`
	Available  int   `json:"available"`
	Affordable int   `json:"affordable"`
	Price      int64 `json:"price"`
}

// Allocation is the stock granted to one spacecraft.
type Allocation struct {
	Spacecraft world.SpacecraftID `json:"spacecraft"`
	Amount     float64            `json:"amount"`
}

// Report describes one rationing pass.
type Report struct {
	Kind        Kind            `json:"kind"`
	Company     world.CompanyID `json:"company"`
	Sector      world.SectorID  `json:"sector"`
	Need        Need            `json:"need"`
	Supply      Supply          `json:"supply"`
	Allocations []Allocation    `json:"allocations,omitempty"`
	Consumed    int             `json:"consumed"`
	Skipped     bool            `json:"skipped"`
}

// Allocator runs the fleet supply procedures.
type Allocator struct {
	reg    *company.Registry
	ledger *diplomacy.Ledger
	cfg    Config
}

// NewAllocator creates an allocator.
func NewAllocator(reg *company.Registry, ledger *diplomacy.Ledger, cfg Config) *Allocator {
	return &Allocator{reg: reg, ledger: ledger, cfg: cfg}
}

// Config returns the caps in use.
func (a *Allocator) Config() Config {
	return a.cfg
}

// repairCap is the fraction of a component restored per day.
func (a *Allocator) repairCap(c *company.Company, part world.PartType) float64 {
	limit := a.cfg.RepairCap
	switch part {
	case world.PartRCS:
		limit = a.cfg.RCSRepairCap
	case world.PartEngine:
		limit = a.cfg.EngineRepairCap
	case world.PartWeapon:
		limit = a.cfg.WeaponRepairCap
	}
	if c.IsTechnologyUnlocked(world.TechQuickRepair) {
		limit *= a.cfg.QuickRepairBonus
	}
	return limit
}

// refillCap is flat: quick repair speeds up repairs only.
func (a *Allocator) refillCap() float64 {
	return a.cfg.RefillCap
}

// missing reports how much of a component is gone (0..1), its per-unit
// cost and its daily cap, or ok=false when the procedure ignores it.
func (a *Allocator) missing(c *company.Company, kind Kind, st world.ComponentState) (missing, cost, limit float64, ok bool) {
	desc, err := a.reg.Catalog.Component(st.Component)
	if err != nil {
		slog.Error("fleet supply", "kind", kind, "err", err)
		return 0, 0, 0, false
	}
	if kind == Repair {
		return 1 - st.Health, float64(desc.RepairCost), a.repairCap(c, desc.Type), true
	}
	if desc.Type != world.PartWeapon || desc.AmmoCapacity <= 0 {
		return 0, 0, 0, false
	}
	fill := float64(desc.AmmoCapacity-st.FiredAmmo) / float64(desc.AmmoCapacity)
	return 1 - fill, float64(desc.RefillCost), a.refillCap(), true
}

// spacecraftNeed returns the raw fleet supply needs of sp, before its
// private stock is deducted.
func (a *Allocator) spacecraftNeed(c *company.Company, sp *world.Spacecraft, kind Kind) (current, total float64, duration int64) {
	if sp.Damage == nil {
		return 0, 0, 0
	}
	for _, st := range sp.Damage.Components {
		miss, cost, limit, ok := a.missing(c, kind, st)
		if !ok || miss <= 0 || limit <= 0 {
			continue
		}
		current += min(limit, miss) * cost
		total += miss * cost
		duration = max(duration, int64(math.Ceil(miss/limit)))
	}
	return current, total, duration
}

func stock(sp *world.Spacecraft, kind Kind) float64 {
	if kind == Refill {
		return sp.RefillStock
	}
	return sp.RepairStock
}

// Needs sums the needs of c's alive spacecraft in sector, net of the stock
// already allocated to each.
func (a *Allocator) Needs(c *company.Company, sector *world.Sector, kind Kind) Need {
	var current, total float64
	var need Need
	for _, sp := range sector.CompanySpacecraft(c.ID) {
		cur, tot, dur := a.spacecraftNeed(c, sp, kind)
		s := stock(sp, kind)
		current += max(0, cur-s)
		total += max(0, tot-s)
		need.MaxDuration = max(need.MaxDuration, dur)
	}
	if current < a.cfg.Residual {
		current = 0
	}
	if total < a.cfg.Residual {
		total = 0
	}
	need.Current = int(math.Ceil(current))
	need.Total = int(math.Ceil(total))
	return need
}

// RepairNeeds is Needs for the repair procedure.
func (a *Allocator) RepairNeeds(c *company.Company, sector *world.Sector) Need {
	return a.Needs(c, sector, Repair)
}

// RefillNeeds is Needs for the refill procedure.
func (a *Allocator) RefillNeeds(c *company.Company, sector *world.Sector) Need {
	return a.Needs(c, sector, Refill)
}

// trusted reports whether c may draw supply from other's spacecraft.
func (a *Allocator) trusted(c, other *company.Company) bool {
	return other != nil && a.ledger.WarState(c, other) != diplomacy.Hostile
}

// FleetSupply counts the supply c can reach in sector. Supply held by
// hostile companies is ignored.
func (a *Allocator) FleetSupply(c *company.Company, sector *world.Sector) Supply {
	var s Supply
	res, err := a.reg.Catalog.FleetSupplyResource()
	if err != nil {
		slog.Error("fleet supply", "err", err)
		return s
	}
	for _, sp := range sector.Spacecraft {
		if !sp.Alive() || sp.Cargo == nil {
			continue
		}
		qty := sp.Cargo.Quantity(res.ID)
		if qty == 0 {
			continue
		}
		owner := a.reg.Owner(sp)
		switch {
		case owner == c:
			s.Owned += qty
		case a.trusted(c, owner):
			s.NotOwned += qty
		}
	}
	s.Available = s.Owned + s.NotOwned
	s.Price = sector.ResourcePrice(res, world.UseMaintenanceConsumption)
	s.Affordable = s.Owned + min(int(max(c.Money, 0)/s.Price), s.NotOwned)
	return s
}

// Run performs the repair then the refill pass in every sector where c has
// spacecraft.
func (a *Allocator) Run(c *company.Company) []Report {
	var reports []Report
	for _, sector := range a.reg.Sectors {
		if len(sector.CompanySpacecraft(c.ID)) == 0 {
			continue
		}
		reports = append(reports, a.Allocate(c, sector, Repair), a.Allocate(c, sector, Refill))
	}
	return reports
}

// Allocate rations the reachable supply across c's spacecraft in sector
// and buys what was handed out.
func (a *Allocator) Allocate(c *company.Company, sector *world.Sector, kind Kind) Report {
	need := a.Needs(c, sector, kind)
	supply := a.FleetSupply(c, sector)
	rep := Report{Kind: kind, Company: c.ID, Sector: sector.ID, Need: need, Supply: supply}

	// Unmet demand still shows up in the consumption history.
	sector.OnFleetSupplyConsumed(max(0, need.Total-supply.Available))

	if sector.IsInDangerousBattle(c.ID) || supply.Affordable == 0 || need.Total == 0 {
		rep.Skipped = true
		return rep
	}

	ratio := min(1, float64(supply.Affordable)/float64(need.Total))
	remaining := float64(supply.Affordable)
	for _, sp := range sector.CompanySpacecraft(c.ID) {
		_, total, _ := a.spacecraftNeed(c, sp, kind)
		amount := min(remaining, max(0, (total-stock(sp, kind))*ratio))
		if amount > 0 {
			if kind == Refill {
				sp.OrderRefillStock(amount)
			} else {
				sp.OrderRepairStock(amount)
			}
			rep.Allocations = append(rep.Allocations, Allocation{Spacecraft: sp.ID, Amount: amount})
		}
		remaining -= amount
		if remaining <= 0 {
			break
		}
	}

	rep.Consumed = a.consume(c, sector, supply.Price, int(math.Ceil(float64(supply.Affordable)-remaining)))
	slog.Debug("fleet supply allocated", "kind", kind, "company", c.ID, "sector", sector.ID,
		"need", need.Total, "affordable", supply.Affordable, "consumed", rep.Consumed)
	return rep
}

// consume removes qty fleet supply from the sector, own stock first, and
// pays third parties at price. It returns the quantity removed.
func (a *Allocator) consume(c *company.Company, sector *world.Sector, price int64, qty int) int {
	if qty <= 0 {
		return 0
	}
	res, err := a.reg.Catalog.FleetSupplyResource()
	if err != nil {
		slog.Error("fleet supply", "err", err)
		return 0
	}

	remaining := qty
	for _, sp := range sector.CompanySpacecraft(c.ID) {
		if sp.Cargo == nil {
			continue
		}
		remaining -= sp.Cargo.Take(res.ID, remaining)
		if remaining == 0 {
			break
		}
	}

	for _, sp := range sector.Spacecraft {
		if remaining == 0 {
			break
		}
		if sp.Company == c.ID || !sp.Alive() || sp.Cargo == nil {
			continue
		}
		seller := a.reg.Owner(sp)
		if !a.trusted(c, seller) {
			continue
		}
		taken := sp.Cargo.Take(res.ID, remaining)
		if taken == 0 {
			continue
		}
		cost := price * int64(taken)
		c.TakeMoney(cost, true)
		a.reg.GiveMoney(seller, cost)
		remaining -= taken
	}

	consumed := qty - remaining
	sector.OnFleetSupplyConsumed(consumed)
	return consumed
}

// ApplyStocks turns allocated stock into component health and ammunition,
// limited by the daily caps. Spacecraft in a dangerous battle wait.
func (a *Allocator) ApplyStocks(c *company.Company) {
	for _, sector := range a.reg.Sectors {
		if sector.IsInDangerousBattle(c.ID) {
			continue
		}
		for _, sp := range sector.CompanySpacecraft(c.ID) {
			if sp.Damage == nil {
				continue
			}
			a.applyRepair(c, sp)
			a.applyRefill(c, sp)
		}
	}
}

func (a *Allocator) applyRepair(c *company.Company, sp *world.Spacecraft) {
	for i := range sp.Damage.Components {
		if sp.RepairStock <= 0 {
			break
		}
		st := &sp.Damage.Components[i]
		miss, cost, limit, ok := a.missing(c, Repair, *st)
		if !ok || miss <= 0 || cost <= 0 {
			continue
		}
		gain := min(limit, miss, sp.RepairStock/cost)
		st.Health = min(1, st.Health+gain)
		sp.RepairStock -= gain * cost
	}
	if sp.RepairStock < a.cfg.Residual {
		sp.RepairStock = 0
	}
}

func (a *Allocator) applyRefill(c *company.Company, sp *world.Spacecraft) {
	for i := range sp.Damage.Components {
		if sp.RefillStock <= 0 {
			break
		}
		st := &sp.Damage.Components[i]
		miss, cost, limit, ok := a.missing(c, Refill, *st)
		if !ok || miss <= 0 || cost <= 0 {
			continue
		}
		desc, _ := a.reg.Catalog.Component(st.Component)
		capacity := float64(desc.AmmoCapacity)
		rounds := int(math.Floor(min(limit, miss, sp.RefillStock/cost) * capacity))
		rounds = min(rounds, st.FiredAmmo)
		if rounds <= 0 {
			continue
		}
		st.FiredAmmo -= rounds
		sp.RefillStock -= float64(rounds) / capacity * cost
	}
	if sp.RefillStock < a.cfg.Residual {
		sp.RefillStock = 0
	}
}
