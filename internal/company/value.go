package company

import (
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/world"
)

// Value is the aggregate worth of a company.
type Value struct {
	Money                   int64 `json:"money"`
	Stock                   int64 `json:"stock"`
	Ships                   int64 `json:"ships"`
	Stations                int64 `json:"stations"`
	Army                    int64 `json:"army"`
	Spacecraft              int64 `json:"spacecraft"`
	ArmyTotalCombatPoints   int   `json:"army_total_combat_points"`
	ArmyCurrentCombatPoints int   `json:"army_current_combat_points"`
	Total                   int64 `json:"total"`
}

// CompanyValue sums the worth of c. An empty sector filter covers all
// sectors. Spacecraft under construction only count when
// includeConstruction is set.
func (r *Registry) CompanyValue(c *Company, sector world.SectorID, includeConstruction bool) Value {
	v := Value{Money: c.Money}

	for _, sp := range c.Spacecraft {
		if !sp.Alive() {
			continue
		}
		if sector != "" && sp.Sector != sector {
			continue
		}
		if sp.UnderConstruction && !includeConstruction {
			continue
		}
		sec := r.Sector(sp.Sector)
		if sec == nil {
			continue
		}

		if sp.Cargo != nil {
			for _, slot := range sp.Cargo.Slots {
				if slot.Quantity == 0 {
					continue
				}
				v.Stock += r.stockValue(sec, slot.Resource, slot.Quantity)
			}
		}
		for _, f := range sp.Factories {
			for _, res := range f.Reserved {
				v.Stock += r.stockValue(sec, res.Resource, res.Quantity)
			}
		}

		v.Spacecraft += sp.Price
		if sp.IsStation() {
			v.Stations += sp.Price
		} else {
			v.Ships += sp.Price
		}
		if sp.Military {
			v.Army += sp.Price
			v.ArmyTotalCombatPoints += sp.CurrentCombatPoints(false)
			v.ArmyCurrentCombatPoints += sp.CurrentCombatPoints(true)
		}
	}

	v.Total = v.Money + v.Stock + v.Spacecraft
	return v
}

func (r *Registry) stockValue(sec *world.Sector, id world.ResourceID, qty int) int64 {
	res, err := r.Catalog.Resource(id)
	if err != nil {
		slog.Error("company value", "sector", sec.ID, "error", err)
		return 0
	}
	return sec.ResourcePrice(res, world.UseDefault) * int64(qty)
}
