// Package ai runs the daily decision loop of computer-controlled companies:
// archetype profiles, reputation drift, diplomacy, pacifism, budgets and
// the trade pass.
package ai

import (
	"errors"
	"fmt"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/world"
)

// ErrUnknownArchetype is returned for archetype names with no profile.
var ErrUnknownArchetype = errors.New("unknown archetype")

// Archetype names.
const (
	ArchetypeDefault              = "default"
	ArchetypePirates              = "pirates"
	ArchetypeGhostWorks           = "ghostworks-shipyards"
	ArchetypeMiningSyndicate      = "mining-syndicate"
	ArchetypeHelixFoundries       = "helix-foundries"
	ArchetypeSunwatch             = "sunwatch"
	ArchetypeIonLane              = "ion-lane"
	ArchetypeUnitedFarmsChemicals = "united-farms-chemicals"
	ArchetypeNemaHeavyWorks       = "nema-heavy-works"
	ArchetypeAxisSupplies         = "axis-supplies"
)

// Landmarks are the places archetype profiles refer to.
type Landmarks struct {
	Boneyard world.SectorID `yaml:"boneyard"`
	Outpost  world.SectorID `yaml:"outpost"`
	Nema     string         `yaml:"nema"`
	Hela     string         `yaml:"hela"`
	Anka     string         `yaml:"anka"`
}

// DefaultLandmarks matches the default sector layout.
func DefaultLandmarks() Landmarks {
	return Landmarks{
		Boneyard: "boneyard",
		Outpost:  "outpost",
		Nema:     "Nema",
		Hela:     "Hela",
		Anka:     "Anka",
	}
}

// profileBuilder sets affinities against a concrete catalog and map.
type profileBuilder struct {
	p       *company.Profile
	cat     *world.Catalog
	sectors []*world.Sector
}

func (b profileBuilder) allResources(v float64) {
	for _, r := range b.cat.Resources {
		b.p.SetResourceAffinity(r.ID, v)
	}
}

func (b profileBuilder) allSectors(v float64) {
	for _, s := range b.sectors {
		b.p.SetSectorAffinity(s.ID, v)
	}
}

func (b profileBuilder) moon(name string, v float64) {
	for _, s := range b.sectors {
		if s.Moon == name {
			b.p.SetSectorAffinity(s.ID, v)
		}
	}
}

func (b profileBuilder) budget(tech, military, station, trade float64) {
	b.p.BudgetTechnologyWeight = tech
	b.p.BudgetMilitaryWeight = military
	b.p.BudgetStationWeight = station
	b.p.BudgetTradeWeight = trade
}

// NewProfile builds the profile of an archetype. Sector affinities above 5
// make a company stick to those sectors.
func NewProfile(archetype string, cat *world.Catalog, sectors []*world.Sector, lm Landmarks) (*company.Profile, error) {
	p := company.DefaultProfile()
	b := profileBuilder{p: p, cat: cat, sectors: sectors}

	b.allResources(1)
	b.allSectors(1)
	p.SetSectorAffinity(lm.Boneyard, 0)

	switch archetype {
	case ArchetypeDefault, "":

	case ArchetypePirates:
		// Pirates live off others: no trade, no stations, no research.
		b.allResources(0.1)
		b.allSectors(0)
		p.SetSectorAffinity(lm.Boneyard, 10)

		p.ShipyardAffinity = 0
		p.ConsumerAffinity = 0
		p.MaintenanceAffinity = 0
		p.TradingSell = 0
		p.TradingBoth = 0
		p.StationCapture = 0

		p.DeclareWarConfidence = -0.2
		p.RequestPeaceConfidence = -0.8
		p.PayTributeConfidence = -1.0

		p.ArmySize = 50
		p.AttackThreshold = 0.8
		p.RetreatThreshold = 0.2
		p.DefeatAdaptation = 0.001

		b.budget(0, 0.5, 0.1, 0.1)
		p.PacifismIncrementRate = 3
		p.PacifismDecrementRate = 4

	case ArchetypeGhostWorks:
		p.ShipyardAffinity = 5
		b.moon(lm.Nema, 0.5)
		b.moon(lm.Hela, 6)
		b.budget(0.2, 1, 1, 1)

	case ArchetypeMiningSyndicate:
		p.SetResourceAffinity("water", 10)
		p.SetResourceAffinity("silica", 10)
		p.SetResourceAffinity("iron-oxide", 10)
		p.SetResourceAffinity("hydrogen", 2)
		b.budget(0.2, 0.5, 2, 2)

	case ArchetypeHelixFoundries:
		p.SetResourceAffinity("steel", 10)
		p.SetResourceAffinity("tools", 10)
		p.SetResourceAffinity("tech", 5)
		b.moon(lm.Anka, 6)
		p.SetSectorAffinity(lm.Outpost, 10)
		b.budget(0.4, 0.5, 2, 2)

	case ArchetypeSunwatch:
		p.SetResourceAffinity("fuel", 10)
		b.budget(0.6, 0.5, 2, 2)

	case ArchetypeIonLane:
		b.budget(0.2, 1, 0.1, 2)
		p.ArmySize = 10
		p.DeclareWarConfidence = 0.1
		p.RequestPeaceConfidence = -0.4
		p.PayTributeConfidence = -0.85

	case ArchetypeUnitedFarmsChemicals:
		p.SetResourceAffinity("food", 10)
		p.SetResourceAffinity("carbon", 5)
		p.SetResourceAffinity("methane", 5)
		b.budget(0.4, 0.5, 2, 2)

	case ArchetypeNemaHeavyWorks:
		p.SetResourceAffinity(cat.FleetSupply, 2)
		p.SetResourceAffinity("steel", 5)
		p.SetResourceAffinity("tools", 5)
		p.SetResourceAffinity("tech", 5)
		b.moon(lm.Nema, 5)
		p.ShipyardAffinity = 3
		b.budget(0.4, 0.5, 2, 2)

	case ArchetypeAxisSupplies:
		// Keeps fleet supply available everywhere and avoids conflict.
		p.SetResourceAffinity(cat.FleetSupply, 5)
		p.SetResourceAffinity("food", 2)
		p.ShipyardAffinity = 0
		p.ConsumerAffinity = 1
		p.MaintenanceAffinity = 10
		b.budget(0.2, 0.25, 2, 2)
		p.ArmySize = 1
		p.DeclareWarConfidence = 1
		p.RequestPeaceConfidence = 0
		p.PayTributeConfidence = -0.1
		p.DiplomaticReactivity = 0.1

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, archetype)
	}
	return p, nil
}

// ApplyArchetype installs the archetype profile on c, then the configured
// override if any.
func ApplyArchetype(c *company.Company, archetype string, cat *world.Catalog, sectors []*world.Sector, lm Landmarks) error {
	p, err := NewProfile(archetype, cat, sectors, lm)
	if err != nil {
		return err
	}
	c.Archetype = archetype
	c.Profile = p
	if c.AI.Override != nil {
		p.Apply(*c.AI.Override)
	}
	return nil
}
