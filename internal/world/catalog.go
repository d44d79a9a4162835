// Catalog of resources, technologies and spacecraft components.
// Lookups of unknown identifiers return sentinel errors; a correct
// configuration never produces them.
package world

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownResource   = errors.New("unknown resource")
	ErrUnknownTechnology = errors.New("unknown technology")
	ErrUnknownComponent  = errors.New("unknown component")
)

// Technologies the simulation core reacts to.
const (
	TechDiplomacy   TechnologyID = "diplomacy"    // halves reputation losses
	TechInstruments TechnologyID = "instruments"  // research gain and cost inflation
	TechQuickRepair TechnologyID = "quick-repair" // raises daily repair caps
)

// Resource is a tradable commodity.
type Resource struct {
	ID        ResourceID `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	BasePrice int64      `json:"base_price" yaml:"base_price"` // smallest currency unit
	Consumer  bool       `json:"consumer" yaml:"consumer"`     // consumed by sector population
}

// Technology is a research unlock.
type Technology struct {
	ID           TechnologyID `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Level        int          `json:"level" yaml:"level"`
	ResearchCost int64        `json:"research_cost" yaml:"research_cost"`
}

// PartType groups components for repair caps.
type PartType uint8

const (
	PartDefault PartType = iota
	PartRCS
	PartEngine
	PartWeapon
)

// ComponentDescription describes a spacecraft component.
type ComponentDescription struct {
	ID           ComponentID `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Type         PartType    `json:"type" yaml:"type"`
	RepairCost   float64     `json:"repair_cost" yaml:"repair_cost"` // fleet supply for a full repair
	RefillCost   float64     `json:"refill_cost" yaml:"refill_cost"` // fleet supply for a full refill
	AmmoCapacity int         `json:"ammo_capacity" yaml:"ammo_capacity"`
}

// Catalog indexes the static game data.
type Catalog struct {
	Resources    []*Resource
	Technologies []*Technology
	Components   []*ComponentDescription
	FleetSupply  ResourceID

	resources    map[ResourceID]*Resource
	technologies map[TechnologyID]*Technology
	components   map[ComponentID]*ComponentDescription
}

// NewCatalog builds a catalog and its lookup indexes.
func NewCatalog(resources []*Resource, techs []*Technology, comps []*ComponentDescription, fleetSupply ResourceID) *Catalog {
	c := &Catalog{
		Resources:    resources,
		Technologies: techs,
		Components:   comps,
		FleetSupply:  fleetSupply,
		resources:    make(map[ResourceID]*Resource, len(resources)),
		technologies: make(map[TechnologyID]*Technology, len(techs)),
		components:   make(map[ComponentID]*ComponentDescription, len(comps)),
	}
	for _, r := range resources {
		c.resources[r.ID] = r
	}
	for _, t := range techs {
		c.technologies[t.ID] = t
	}
	for _, d := range comps {
		c.components[d.ID] = d
	}
	return c
}

// Resource looks up a resource by ID.
func (c *Catalog) Resource(id ResourceID) (*Resource, error) {
	if r, ok := c.resources[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownResource, id)
}

// Technology looks up a technology by ID.
func (c *Catalog) Technology(id TechnologyID) (*Technology, error) {
	if t, ok := c.technologies[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTechnology, id)
}

// Component looks up a component description by ID.
func (c *Catalog) Component(id ComponentID) (*ComponentDescription, error) {
	if d, ok := c.components[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, id)
}

// FleetSupplyResource returns the consumable used for repairs and refills.
func (c *Catalog) FleetSupplyResource() (*Resource, error) {
	return c.Resource(c.FleetSupply)
}

// DefaultCatalog returns the stock resource, technology and component set.
func DefaultCatalog() *Catalog {
	resources := []*Resource{
		{ID: "water", Name: "Water", BasePrice: 1000},
		{ID: "silica", Name: "Silica", BasePrice: 1200},
		{ID: "iron-oxide", Name: "Iron Oxide", BasePrice: 1400},
		{ID: "hydrogen", Name: "Hydrogen", BasePrice: 1100},
		{ID: "methane", Name: "Methane", BasePrice: 1300},
		{ID: "carbon", Name: "Carbon", BasePrice: 1500},
		{ID: "steel", Name: "Steel", BasePrice: 3800},
		{ID: "plastics", Name: "Plastics", BasePrice: 3600},
		{ID: "fuel", Name: "Fuel Cells", BasePrice: 3400},
		{ID: "tools", Name: "Tools", BasePrice: 6500},
		{ID: "tech", Name: "Electronics", BasePrice: 9800},
		{ID: "food", Name: "Food", BasePrice: 2400, Consumer: true},
		{ID: "fleet-supply", Name: "Fleet Supply", BasePrice: 8000},
	}
	techs := []*Technology{
		{ID: TechDiplomacy, Name: "Diplomacy", Level: 1, ResearchCost: 40},
		{ID: TechInstruments, Name: "Instruments", Level: 1, ResearchCost: 30},
		{ID: TechQuickRepair, Name: "Quick Repair", Level: 2, ResearchCost: 50},
		{ID: "orbital-pumps", Name: "Orbital Pumps", Level: 2, ResearchCost: 60},
		{ID: "military", Name: "Military Systems", Level: 3, ResearchCost: 80},
	}
	comps := []*ComponentDescription{
		{ID: "hull", Name: "Hull", Type: PartDefault, RepairCost: 20},
		{ID: "rcs", Name: "RCS Thrusters", Type: PartRCS, RepairCost: 5},
		{ID: "engine", Name: "Orbital Engine", Type: PartEngine, RepairCost: 10},
		{ID: "gun", Name: "Kinetic Gun", Type: PartWeapon, RepairCost: 8, RefillCost: 4, AmmoCapacity: 500},
		{ID: "power", Name: "Power Core", Type: PartDefault, RepairCost: 12},
	}
	return NewCatalog(resources, techs, comps, "fleet-supply")
}
