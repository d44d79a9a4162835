package ai

import (
	"sort"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/economy"
	"github.com/talgya/mini-galaxy/internal/world"
)

// ExclusiveSectorAffinity is the sector affinity from which a company
// prefers to stay in its favorite sectors.
const ExclusiveSectorAffinity = 5

// LoadCargoLimit is the minimum station fill ratio worth loading from.
const LoadCargoLimit = 0.1

// SectorExcluded reports whether p avoids sector: affinity 0 there while
// some other sector has an exclusive affinity.
func SectorExcluded(p *company.Profile, sector world.SectorID, sectors []*world.Sector) bool {
	if p.SectorAffinity(sector) != 0 {
		return false
	}
	for _, s := range sectors {
		if s.ID != sector && p.SectorAffinity(s.ID) >= ExclusiveSectorAffinity {
			return true
		}
	}
	return false
}

// ResetTrading clears the trading flag of every spacecraft.
func ResetTrading(reg *company.Registry) {
	for _, s := range reg.Sectors {
		for _, sp := range s.Spacecraft {
			sp.Trading = false
		}
	}
}

// UpdateTrading lets each idle cargo ship of c sell what it carries and
// load the resource c likes most. It returns the quantity moved.
func (b *Behavior) UpdateTrading(c *company.Company) int {
	moved := 0
	preferred := b.preferredResources(c)

	for _, sp := range c.Ships() {
		if sp.Military || sp.Trading || sp.Uncontrollable() || sp.Cargo == nil {
			continue
		}
		if b.reg.Player.Fleet != "" && sp.Fleet == b.reg.Player.Fleet {
			continue
		}
		moved += b.unload(c, sp)
		if SectorExcluded(c.Profile, sp.Sector, b.reg.Sectors) {
			continue
		}
		moved += b.load(c, sp, preferred)
	}
	return moved
}

func (b *Behavior) unload(c *company.Company, sp *world.Spacecraft) int {
	op := economy.OpUnloadOrSell
	if c.Profile.TradingSell <= 0 {
		op = economy.OpUnload
	}
	moved := 0
	for _, id := range sp.Cargo.Resources() {
		r, err := b.reg.Catalog.Resource(id)
		if err != nil {
			continue
		}
		st := b.broker.FindTradeStation(economy.Request{Client: sp, Resource: r, Operation: op, CargoLimit: economy.NoCargoLimit})
		if st == nil {
			continue
		}
		moved += b.broker.Trade(sp, st, r, sp.Cargo.Quantity(id))
	}
	return moved
}

func (b *Behavior) load(c *company.Company, sp *world.Spacecraft, preferred []*world.Resource) int {
	op := economy.OpLoadOrBuy
	if c.Profile.TradingBuy <= 0 {
		op = economy.OpLoad
	}
	for _, r := range preferred {
		free := sp.Cargo.FreeSpace(r.ID)
		if free == 0 {
			continue
		}
		st := b.broker.FindTradeStation(economy.Request{Client: sp, Resource: r, Operation: op, CargoLimit: LoadCargoLimit})
		if st == nil {
			continue
		}
		if n := b.broker.Trade(st, sp, r, free); n > 0 {
			return n
		}
	}
	return 0
}

// preferredResources lists the catalog resources c has a positive affinity
// for, most liked first.
func (b *Behavior) preferredResources(c *company.Company) []*world.Resource {
	var out []*world.Resource
	for _, r := range b.reg.Catalog.Resources {
		if c.Profile.ResourceAffinity(r.ID) > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.Profile.ResourceAffinity(out[i].ID) > c.Profile.ResourceAffinity(out[j].ID)
	})
	return out
}
