package economy

import (
	"github.com/talgya/mini-galaxy/internal/world"
)

// DefaultOutputDuration stands in for the cycle length of instantaneous
// production when computing flows.
const DefaultOutputDuration = 10

// ResourceStats summarizes one resource in one sector. Flows are units
// per day.
type ResourceStats struct {
	Production  float64 `json:"production"`
	Consumption float64 `json:"consumption"`
	Balance     float64 `json:"balance"`
	Stock       int     `json:"stock"`
	Capacity    int     `json:"capacity"`
}

// SectorResourceStats aggregates production, consumption, stock and free
// capacity of every catalog resource in a sector.
func SectorResourceStats(sector *world.Sector, cat *world.Catalog) map[world.ResourceID]*ResourceStats {
	stats := make(map[world.ResourceID]*ResourceStats, len(cat.Resources))
	for _, r := range cat.Resources {
		stats[r.ID] = &ResourceStats{}
	}
	entry := func(id world.ResourceID) *ResourceStats {
		if s, ok := stats[id]; ok {
			return s
		}
		s := &ResourceStats{}
		stats[id] = s
		return s
	}

	for _, sp := range sector.Spacecraft {
		if !sp.Alive() {
			continue
		}

		if sp.Cargo != nil {
			for _, slot := range sp.Cargo.Slots {
				if slot.Resource == "" {
					continue
				}
				s := entry(slot.Resource)
				free := sp.Cargo.SlotCapacity - slot.Quantity
				switch sp.ResourceUse(slot.Resource) {
				case world.UseFactoryInput, world.UseConsumerConsumption:
					s.Capacity += free
				case world.UseFactoryOutput:
					s.Stock += slot.Quantity
				case world.UseMaintenanceConsumption:
					s.Capacity += free
					s.Stock += slot.Quantity
				}
			}
		}

		for _, f := range sp.Factories {
			if !f.Producing() {
				continue
			}
			duration := float64(f.ProductionDuration)
			if duration <= 0 {
				duration = DefaultOutputDuration
			}
			for _, in := range f.Inputs {
				entry(in.Resource).Consumption += float64(in.Quantity) / duration
			}
			for _, out := range f.Outputs {
				entry(out.Resource).Production += float64(out.Quantity) / duration
			}
		}
	}

	if sector.Population != nil {
		for _, r := range cat.Resources {
			if r.Consumer {
				stats[r.ID].Consumption += sector.Population.Consumption[r.ID]
			}
		}
	}

	if cat.FleetSupply != "" && sector.FleetSupplyConsumption != nil {
		fs := entry(cat.FleetSupply)
		fs.Consumption += sector.FleetSupplyConsumption.Mean()
		fs.Capacity += int(sector.FleetSupplyConsumption.Value(0))
	}

	for _, s := range stats {
		s.Balance = s.Production - s.Consumption
	}
	return stats
}

// WorldResourceStats sums the sector statistics of all sectors.
func WorldResourceStats(sectors []*world.Sector, cat *world.Catalog) map[world.ResourceID]*ResourceStats {
	total := make(map[world.ResourceID]*ResourceStats, len(cat.Resources))
	for _, sector := range sectors {
		for id, s := range SectorResourceStats(sector, cat) {
			t, ok := total[id]
			if !ok {
				t = &ResourceStats{}
				total[id] = t
			}
			t.Production += s.Production
			t.Consumption += s.Consumption
			t.Stock += s.Stock
			t.Capacity += s.Capacity
		}
	}
	for _, t := range total {
		t.Balance = t.Production - t.Consumption
	}
	return total
}
