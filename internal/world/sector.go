// Sectors hold spacecraft, local prices, a population and the rolling
// fleet-supply consumption history.
package world

import "math"

// Price multipliers per declared resource use. Factories sell below and
// buy above the sector price; consumers and maintenance docks pay more.
var useMargin = map[ResourceUse]float64{
	UseDefault:                1.0,
	UseFactoryOutput:          0.95,
	UseFactoryInput:           1.05,
	UseConsumerConsumption:    1.10,
	UseMaintenanceConsumption: 1.15,
}

// FleetSupplyHistoryDays is the length of the consumption history buffer.
const FleetSupplyHistoryDays = 30

// Population is the civilian population of a sector.
type Population struct {
	Count       int                    `json:"count"`
	Consumption map[ResourceID]float64 `json:"consumption"` // units per day
}

// Sector is a location where spacecraft meet and trade.
type Sector struct {
	ID         SectorID             `json:"id"`
	Name       string               `json:"name"`
	Moon       string               `json:"moon"`
	Prices     map[ResourceID]int64 `json:"prices"`
	Population *Population          `json:"population"`
	Spacecraft []*Spacecraft        `json:"-"`

	// FleetSupplyConsumption holds units consumed per day, newest first.
	FleetSupplyConsumption *FloatBuffer `json:"-"`

	dangerous map[CompanyID]bool
}

// NewSector creates an empty sector.
func NewSector(id SectorID, name, moon string) *Sector {
	return &Sector{
		ID:                     id,
		Name:                   name,
		Moon:                   moon,
		Prices:                 make(map[ResourceID]int64),
		Population:             &Population{Consumption: make(map[ResourceID]float64)},
		FleetSupplyConsumption: NewFloatBuffer(FleetSupplyHistoryDays),
		dangerous:              make(map[CompanyID]bool),
	}
}

// Add places a spacecraft in the sector.
func (s *Sector) Add(sp *Spacecraft) {
	sp.Sector = s.ID
	s.Spacecraft = append(s.Spacecraft, sp)
}

// Remove takes a spacecraft out of the sector, preserving order.
func (s *Sector) Remove(sp *Spacecraft) {
	for i, other := range s.Spacecraft {
		if other == sp {
			s.Spacecraft = append(s.Spacecraft[:i], s.Spacecraft[i+1:]...)
			return
		}
	}
}

// Stations returns the sector's stations in sector order.
func (s *Sector) Stations() []*Spacecraft {
	var out []*Spacecraft
	for _, sp := range s.Spacecraft {
		if sp.IsStation() {
			out = append(out, sp)
		}
	}
	return out
}

// CompanySpacecraft returns the alive spacecraft owned by c in sector order.
func (s *Sector) CompanySpacecraft(c CompanyID) []*Spacecraft {
	var out []*Spacecraft
	for _, sp := range s.Spacecraft {
		if sp.Company == c && sp.Alive() {
			out = append(out, sp)
		}
	}
	return out
}

// DefaultPrice is the sector's reference price for r.
func (s *Sector) DefaultPrice(r *Resource) int64 {
	if p, ok := s.Prices[r.ID]; ok && p > 0 {
		return p
	}
	if r.BasePrice > 0 {
		return r.BasePrice
	}
	return 1
}

// ResourcePrice is the unit price of r in the context of a declared use.
// The result is always at least 1.
func (s *Sector) ResourcePrice(r *Resource, use ResourceUse) int64 {
	m, ok := useMargin[use]
	if !ok {
		m = 1
	}
	p := int64(math.Round(float64(s.DefaultPrice(r)) * m))
	if p < 1 {
		return 1
	}
	return p
}

// TransferPrice is the unit price when r moves from src to dst. A station
// on either end sets the context, the source station first.
func (s *Sector) TransferPrice(src, dst *Spacecraft, r *Resource) int64 {
	switch {
	case src.IsStation():
		return s.ResourcePrice(r, src.ResourceUse(r.ID))
	case dst.IsStation():
		return s.ResourcePrice(r, dst.ResourceUse(r.ID))
	}
	return s.ResourcePrice(r, UseDefault)
}

// IsInDangerousBattle reports whether company c is under threat here.
func (s *Sector) IsInDangerousBattle(c CompanyID) bool {
	return s.dangerous[c]
}

// SetDangerousBattle updates the battle flag for company c.
func (s *Sector) SetDangerousBattle(c CompanyID, dangerous bool) {
	if s.dangerous == nil {
		s.dangerous = make(map[CompanyID]bool)
	}
	if dangerous {
		s.dangerous[c] = true
	} else {
		delete(s.dangerous, c)
	}
}

// OnFleetSupplyConsumed records today's fleet-supply usage.
func (s *Sector) OnFleetSupplyConsumed(qty int) {
	if qty > 0 {
		s.FleetSupplyConsumption.Add(float64(qty))
	}
}

// EndDay rolls the consumption history forward one day.
func (s *Sector) EndDay() {
	s.FleetSupplyConsumption.Next()
}
