// Spacecraft is one entity type for ships and stations. Role-specific
// behavior switches on Role; cargo, damage and production are composed
// modules rather than subtypes.
package world

import "math"

// Role tags a spacecraft as a ship or a station.
type Role uint8

const (
	RoleShip Role = iota
	RoleStation
)

func (r Role) String() string {
	if r == RoleStation {
		return "station"
	}
	return "ship"
}

// ComponentState is the live state of one installed component.
type ComponentState struct {
	Component ComponentID `json:"component"`
	Health    float64     `json:"health"` // 1 = intact, 0 = destroyed
	FiredAmmo int         `json:"fired_ammo"`
}

// DamageSystem tracks component health.
type DamageSystem struct {
	Components     []ComponentState `json:"components"`
	Destroyed      bool             `json:"destroyed"`
	Uncontrollable bool             `json:"uncontrollable"`
}

// NewDamageSystem installs the given components at full health.
func NewDamageSystem(components ...ComponentID) *DamageSystem {
	d := &DamageSystem{Components: make([]ComponentState, len(components))}
	for i, id := range components {
		d.Components[i] = ComponentState{Component: id, Health: 1}
	}
	return d
}

// GlobalHealth is the mean component health.
func (d *DamageSystem) GlobalHealth() float64 {
	if d.Destroyed {
		return 0
	}
	if len(d.Components) == 0 {
		return 1
	}
	sum := 0.0
	for _, c := range d.Components {
		sum += c.Health
	}
	return sum / float64(len(d.Components))
}

// Factory converts inputs into outputs over a production cycle.
type Factory struct {
	Name               string           `json:"name"`
	Active             bool             `json:"active"`
	NeedProduction     bool             `json:"need_production"`
	Inputs             []ResourceAmount `json:"inputs"`
	Outputs            []ResourceAmount `json:"outputs"`
	Reserved           []ResourceAmount `json:"reserved"`            // inputs already pulled for the running cycle
	ProductionDuration int64            `json:"production_duration"` // days; 0 = instantaneous
}

// Producing reports whether the factory contributes production flows.
func (f *Factory) Producing() bool {
	return f.Active && f.NeedProduction
}

// Spacecraft is a ship or station.
type Spacecraft struct {
	ID                SpacecraftID `json:"id"`
	Name              string       `json:"name"`
	Class             string       `json:"class"`
	Company           CompanyID    `json:"company"`
	Sector            SectorID     `json:"sector"`
	Fleet             FleetID      `json:"fleet,omitempty"`
	Role              Role         `json:"role"`
	Military          bool         `json:"military"`
	Level             int          `json:"level"`
	UnderConstruction bool         `json:"under_construction"`
	Price             int64        `json:"price"`
	CombatPoints      int          `json:"combat_points"`

	Cargo        *CargoBay                  `json:"cargo"`
	Damage       *DamageSystem              `json:"damage"`
	Factories    []*Factory                 `json:"factories,omitempty"`
	ResourceUses map[ResourceID]ResourceUse `json:"resource_uses,omitempty"`

	// Fleet supply already allocated to this spacecraft, not yet applied.
	RepairStock float64 `json:"repair_stock"`
	RefillStock float64 `json:"refill_stock"`

	// Trading is set when the spacecraft took part in a trade today.
	Trading bool `json:"trading"`
}

// IsStation reports whether the spacecraft is a station.
func (s *Spacecraft) IsStation() bool {
	return s.Role == RoleStation
}

// Alive reports whether the spacecraft is not destroyed.
func (s *Spacecraft) Alive() bool {
	return s.Damage == nil || !s.Damage.Destroyed
}

// Uncontrollable reports whether the spacecraft is adrift.
func (s *Spacecraft) Uncontrollable() bool {
	return s.Damage != nil && s.Damage.Uncontrollable
}

// ResourceUse returns how the spacecraft handles r. Ships always trade
// freely; stations declare a use per resource.
func (s *Spacecraft) ResourceUse(r ResourceID) ResourceUse {
	if !s.IsStation() || s.ResourceUses == nil {
		return UseDefault
	}
	return s.ResourceUses[r]
}

// WantBuy reports whether the spacecraft accepts r from others.
func (s *Spacecraft) WantBuy(r ResourceID) bool {
	switch s.ResourceUse(r) {
	case UseFactoryInput, UseConsumerConsumption, UseMaintenanceConsumption:
		return true
	case UseFactoryOutput:
		return false
	}
	return !s.IsStation()
}

// WantSell reports whether the spacecraft releases r to others.
func (s *Spacecraft) WantSell(r ResourceID) bool {
	switch s.ResourceUse(r) {
	case UseFactoryOutput, UseMaintenanceConsumption:
		return true
	case UseFactoryInput, UseConsumerConsumption:
		return false
	}
	return !s.IsStation()
}

// CurrentCombatPoints returns the military strength, optionally reduced by
// damage.
func (s *Spacecraft) CurrentCombatPoints(reduceByDamage bool) int {
	if !s.Military || !s.Alive() {
		return 0
	}
	if !reduceByDamage || s.Damage == nil {
		return s.CombatPoints
	}
	return int(math.Round(float64(s.CombatPoints) * s.Damage.GlobalHealth()))
}

// OrderRepairStock adds allocated fleet supply for repairs.
func (s *Spacecraft) OrderRepairStock(fs float64) {
	if fs > 0 {
		s.RepairStock += fs
	}
}

// OrderRefillStock adds allocated fleet supply for ammunition.
func (s *Spacecraft) OrderRefillStock(fs float64) {
	if fs > 0 {
		s.RefillStock += fs
	}
}
