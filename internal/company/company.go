// Package company holds the companies of the galaxy: their money, research,
// technologies, sector knowledge, spacecraft, AI profile and the raw
// reputation and hostility records that diplomacy operates on.
package company

import (
	"errors"

	"github.com/talgya/mini-galaxy/internal/world"
)

// ErrUnknownCompany is returned for lookups of unregistered companies.
var ErrUnknownCompany = errors.New("unknown company")

// Company is an autonomous economic and political actor. Companies are
// never removed from a session; defeated ones simply own nothing.
type Company struct {
	ID        world.CompanyID `json:"id"`
	Name      string          `json:"name"`
	ShortName string          `json:"short_name"`
	Archetype string          `json:"archetype"`

	Money          int64   `json:"money"`
	ResearchAmount int64   `json:"research_amount"`
	ResearchSpent  int64   `json:"research_spent"`
	ResearchRatio  float64 `json:"research_ratio"`

	Technologies   map[world.TechnologyID]bool `json:"technologies"`
	KnownSectors   map[world.SectorID]bool     `json:"known_sectors"`
	VisitedSectors map[world.SectorID]bool     `json:"visited_sectors"`

	// Reputations holds this company's opinion of others, created lazily.
	Reputations map[world.CompanyID]float64 `json:"reputations"`
	// Hostile is the set of companies this company has declared hostile.
	Hostile map[world.CompanyID]bool `json:"hostile"`

	// Dates are simulation days; 0 means never.
	LastWarDate     int64 `json:"last_war_date"`
	LastPeaceDate   int64 `json:"last_peace_date"`
	LastTributeDate int64 `json:"last_tribute_date"`

	Spacecraft []*world.Spacecraft `json:"-"`
	Destroyed  []*world.Spacecraft `json:"-"`
	Fleets     []*Fleet            `json:"-"`

	Profile *Profile `json:"profile"`
	AI      AIState  `json:"ai"`
}

// New creates a company with empty books and the default AI profile.
func New(id world.CompanyID, name string) *Company {
	return &Company{
		ID:             id,
		Name:           name,
		ShortName:      string(id),
		ResearchRatio:  1,
		Technologies:   make(map[world.TechnologyID]bool),
		KnownSectors:   make(map[world.SectorID]bool),
		VisitedSectors: make(map[world.SectorID]bool),
		Reputations:    make(map[world.CompanyID]float64),
		Hostile:        make(map[world.CompanyID]bool),
		Profile:        DefaultProfile(),
		AI:             AIState{Budgets: make(map[Budget]int64)},
	}
}

// TakeMoney withdraws amount. It fails without side effects for negative
// amounts, or when the balance is insufficient and debt is not allowed.
func (c *Company) TakeMoney(amount int64, allowDebt bool) bool {
	if amount < 0 || (amount > c.Money && !allowDebt) {
		return false
	}
	c.Money -= amount
	return true
}

// GiveMoney deposits amount. Negative amounts are rejected.
func (c *Company) GiveMoney(amount int64) bool {
	if amount < 0 {
		return false
	}
	c.Money += amount
	return true
}

// Reputation returns this company's opinion of other, 0 when unset.
func (c *Company) Reputation(other world.CompanyID) float64 {
	return c.Reputations[other]
}

// IsHostileTo reports whether this company declared other hostile.
func (c *Company) IsHostileTo(other world.CompanyID) bool {
	return c.Hostile[other]
}

// IsTechnologyUnlocked reports whether tech has been researched.
func (c *Company) IsTechnologyUnlocked(tech world.TechnologyID) bool {
	return c.Technologies[tech]
}

// TechnologyLevel is one plus the number of unlocked technologies.
func (c *Company) TechnologyLevel() int {
	n := 0
	for _, ok := range c.Technologies {
		if ok {
			n++
		}
	}
	return 1 + n
}

// DiscoverSector marks a sector as known.
func (c *Company) DiscoverSector(id world.SectorID) {
	c.KnownSectors[id] = true
}

// VisitSector marks a sector as known and visited.
func (c *Company) VisitSector(id world.SectorID) {
	c.KnownSectors[id] = true
	c.VisitedSectors[id] = true
}

// HasVisitedSector reports whether the company has been to id.
func (c *Company) HasVisitedSector(id world.SectorID) bool {
	return c.VisitedSectors[id]
}

// Ships returns the alive ships.
func (c *Company) Ships() []*world.Spacecraft {
	var out []*world.Spacecraft
	for _, sp := range c.Spacecraft {
		if !sp.IsStation() && sp.Alive() {
			out = append(out, sp)
		}
	}
	return out
}

// Stations returns the stations.
func (c *Company) Stations() []*world.Spacecraft {
	var out []*world.Spacecraft
	for _, sp := range c.Spacecraft {
		if sp.IsStation() {
			out = append(out, sp)
		}
	}
	return out
}

// TransportCapacity is the cargo capacity of alive controllable
// non-military ships.
func (c *Company) TransportCapacity() int {
	total := 0
	for _, sp := range c.Ships() {
		if sp.Military || sp.Uncontrollable() || sp.Cargo == nil {
			continue
		}
		total += sp.Cargo.Capacity()
	}
	return total
}

// AttackThreshold is the profile threshold raised by accumulated caution.
func (c *Company) AttackThreshold() float64 {
	return c.Profile.AttackThreshold + c.AI.Caution
}
