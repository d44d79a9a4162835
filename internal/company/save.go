package company

import (
	"sort"

	"github.com/talgya/mini-galaxy/internal/world"
)

// Save is the persisted part of a company.
type Save struct {
	ID              world.CompanyID             `json:"id"`
	Name            string                      `json:"name"`
	Archetype       string                      `json:"archetype"`
	Money           int64                       `json:"money"`
	ResearchAmount  int64                       `json:"research_amount"`
	ResearchSpent   int64                       `json:"research_spent"`
	ResearchRatio   float64                     `json:"research_ratio"`
	LastWarDate     int64                       `json:"last_war_date"`
	LastPeaceDate   int64                       `json:"last_peace_date"`
	LastTributeDate int64                       `json:"last_tribute_date"`
	Reputations     map[world.CompanyID]float64 `json:"reputations"`
	Hostile         []world.CompanyID           `json:"hostile"`
	Technologies    []world.TechnologyID        `json:"technologies"`
	KnownSectors    []world.SectorID            `json:"known_sectors"`
	VisitedSectors  []world.SectorID            `json:"visited_sectors"`
	Pacifism        float64                     `json:"pacifism"`
	Caution         float64                     `json:"caution"`
	Override        *ProfileOverride            `json:"override,omitempty"`
}

// Save captures the persisted fields. Sets are written sorted.
func (c *Company) Save() Save {
	s := Save{
		ID:              c.ID,
		Name:            c.Name,
		Archetype:       c.Archetype,
		Money:           c.Money,
		ResearchAmount:  c.ResearchAmount,
		ResearchSpent:   c.ResearchSpent,
		ResearchRatio:   c.ResearchRatio,
		LastWarDate:     c.LastWarDate,
		LastPeaceDate:   c.LastPeaceDate,
		LastTributeDate: c.LastTributeDate,
		Reputations:     make(map[world.CompanyID]float64, len(c.Reputations)),
		Pacifism:        c.AI.Pacifism,
		Caution:         c.AI.Caution,
		Override:        c.AI.Override,
	}
	for id, v := range c.Reputations {
		s.Reputations[id] = v
	}
	s.Hostile = sortedKeys(c.Hostile)
	s.Technologies = sortedKeys(c.Technologies)
	s.KnownSectors = sortedKeys(c.KnownSectors)
	s.VisitedSectors = sortedKeys(c.VisitedSectors)
	return s
}

// Restore applies a save onto c. The profile override is reapplied on top
// of the current profile.
func (c *Company) Restore(s Save) {
	c.Money = s.Money
	c.ResearchAmount = s.ResearchAmount
	c.ResearchSpent = s.ResearchSpent
	if s.ResearchRatio > 0 {
		c.ResearchRatio = s.ResearchRatio
	}
	c.LastWarDate = s.LastWarDate
	c.LastPeaceDate = s.LastPeaceDate
	c.LastTributeDate = s.LastTributeDate
	c.AI.Pacifism = s.Pacifism
	c.AI.Caution = s.Caution

	c.Reputations = make(map[world.CompanyID]float64, len(s.Reputations))
	for id, v := range s.Reputations {
		if id != c.ID {
			c.Reputations[id] = v
		}
	}
	c.Hostile = toSet(s.Hostile)
	c.Technologies = toSet(s.Technologies)
	c.KnownSectors = toSet(s.KnownSectors)
	c.VisitedSectors = toSet(s.VisitedSectors)

	if s.Override != nil {
		c.AI.Override = s.Override
		c.Profile.Apply(*s.Override)
	}
}

func sortedKeys[K ~string](m map[K]bool) []K {
	out := make([]K, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func toSet[K comparable](keys []K) map[K]bool {
	m := make(map[K]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
