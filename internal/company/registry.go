// Registry is the world/company lookup shared by every subsystem: companies
// in stable order, sectors, the catalog, the clock and the player context.
package company

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

// PlayerContext identifies the player. It is carried by the registry and
// read by every rule that treats the player differently.
type PlayerContext struct {
	Company world.CompanyID `json:"company"`
	Fleet   world.FleetID   `json:"fleet"`
}

// IsPlayer reports whether id is the player's company.
func (p PlayerContext) IsPlayer(id world.CompanyID) bool {
	return p.Company != "" && p.Company == id
}

// Fleet groups ships that travel together.
type Fleet struct {
	ID      world.FleetID        `json:"id"`
	Name    string               `json:"name"`
	Company world.CompanyID      `json:"company"`
	Ships   []world.SpacecraftID `json:"ships"`
}

// Registry holds every company and sector of a session.
type Registry struct {
	Companies []*Company
	Sectors   []*world.Sector
	Catalog   *world.Catalog
	Player    PlayerContext
	Day       int64 // current simulation day, starts at 1
	Events    events.Sink

	companies  map[world.CompanyID]*Company
	sectors    map[world.SectorID]*world.Sector
	spacecraft map[world.SpacecraftID]*world.Spacecraft
}

// NewRegistry creates a registry on day 1.
func NewRegistry(cat *world.Catalog, sectors []*world.Sector, player PlayerContext, sink events.Sink) *Registry {
	if sink == nil {
		sink = events.Discard
	}
	r := &Registry{
		Sectors:    sectors,
		Catalog:    cat,
		Player:     player,
		Day:        1,
		Events:     sink,
		companies:  make(map[world.CompanyID]*Company),
		sectors:    make(map[world.SectorID]*world.Sector, len(sectors)),
		spacecraft: make(map[world.SpacecraftID]*world.Spacecraft),
	}
	for _, s := range sectors {
		r.sectors[s.ID] = s
		for _, sp := range s.Spacecraft {
			r.spacecraft[sp.ID] = sp
		}
	}
	return r
}

// AddCompany registers c. Registration order is the stable iteration order.
func (r *Registry) AddCompany(c *Company) {
	if _, ok := r.companies[c.ID]; ok {
		return
	}
	r.companies[c.ID] = c
	r.Companies = append(r.Companies, c)
}

// Company returns the company with id, or nil.
func (r *Registry) Company(id world.CompanyID) *Company {
	return r.companies[id]
}

// Lookup returns the company with id or ErrUnknownCompany.
func (r *Registry) Lookup(id world.CompanyID) (*Company, error) {
	if c := r.companies[id]; c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCompany, id)
}

// Sector returns the sector with id, or nil.
func (r *Registry) Sector(id world.SectorID) *world.Sector {
	return r.sectors[id]
}

// Spacecraft returns the spacecraft with id, or nil.
func (r *Registry) Spacecraft(id world.SpacecraftID) *world.Spacecraft {
	return r.spacecraft[id]
}

// PlayerCompany returns the player's company, or nil when there is none.
func (r *Registry) PlayerCompany() *Company {
	return r.companies[r.Player.Company]
}

// IsPlayer reports whether c is the player's company.
func (r *Registry) IsPlayer(c *Company) bool {
	return c != nil && r.Player.IsPlayer(c.ID)
}

// Others returns every company but c, in registry order.
func (r *Registry) Others(c *Company) []*Company {
	out := make([]*Company, 0, len(r.Companies))
	for _, o := range r.Companies {
		if o != c {
			out = append(out, o)
		}
	}
	return out
}

// Owner returns the company owning sp.
func (r *Registry) Owner(sp *world.Spacecraft) *Company {
	return r.companies[sp.Company]
}

// AddSpacecraft gives sp to c and places it in sector s.
func (r *Registry) AddSpacecraft(c *Company, s *world.Sector, sp *world.Spacecraft) {
	sp.Company = c.ID
	c.Spacecraft = append(c.Spacecraft, sp)
	s.Add(sp)
	r.spacecraft[sp.ID] = sp
	c.VisitSector(s.ID)
}

// CreateFleet registers a fleet for c.
func (r *Registry) CreateFleet(c *Company, id world.FleetID, name string, ships ...*world.Spacecraft) *Fleet {
	f := &Fleet{ID: id, Name: name, Company: c.ID}
	for _, sp := range ships {
		sp.Fleet = id
		f.Ships = append(f.Ships, sp.ID)
	}
	c.Fleets = append(c.Fleets, f)
	return f
}

// DestroySpacecraft marks sp destroyed, moves it to its owner's destroyed
// list and raises the owner's caution.
func (r *Registry) DestroySpacecraft(sp *world.Spacecraft) {
	c := r.Owner(sp)
	if c == nil || !sp.Alive() {
		return
	}
	if sp.Damage == nil {
		sp.Damage = &world.DamageSystem{}
	}
	sp.Damage.Destroyed = true
	for i, other := range c.Spacecraft {
		if other == sp {
			c.Spacecraft = append(c.Spacecraft[:i], c.Spacecraft[i+1:]...)
			break
		}
	}
	c.Destroyed = append(c.Destroyed, sp)
	c.AI.Caution += c.Profile.DefeatAdaptation

	r.Events.Emit(events.Event{
		Day:     r.Day,
		Kind:    events.KindSpacecraftDestroyed,
		Source:  c.ID,
		Message: sp.Name,
	})
}

// GiveMoney deposits amount to c and reports player gains to the quest
// engine.
func (r *Registry) GiveMoney(c *Company, amount int64) bool {
	if !c.GiveMoney(amount) {
		return false
	}
	if r.IsPlayer(c) {
		r.Events.Emit(events.Event{
			Day:    r.Day,
			Kind:   events.KindQuest,
			Source: c.ID,
			Bundle: events.NewBundle(events.TagGainMoney).PutInt("amount", amount),
		})
	}
	return true
}

// GiveResearch adds research points, boosted by instruments.
func (r *Registry) GiveResearch(c *Company, amount int64) {
	if amount <= 0 {
		return
	}
	if c.IsTechnologyUnlocked(world.TechInstruments) {
		amount = int64(float64(amount) * 1.5)
	}
	c.ResearchAmount += amount
	if r.IsPlayer(c) {
		r.Events.Emit(events.Event{
			Day:    r.Day,
			Kind:   events.KindQuest,
			Source: c.ID,
			Bundle: events.NewBundle(events.TagGainResearch).PutInt("amount", amount),
		})
	}
}

// TechnologyCost is the research needed for c to unlock tech.
func (r *Registry) TechnologyCost(c *Company, tech *world.Technology) int64 {
	return int64(math.Round(float64(tech.ResearchCost) * float64(tech.Level) * c.ResearchRatio))
}

// UnlockTechnology spends research to unlock id. Restored saves pass
// free=true to skip payment and cost inflation.
func (r *Registry) UnlockTechnology(c *Company, id world.TechnologyID, free bool) error {
	tech, err := r.Catalog.Technology(id)
	if err != nil {
		slog.Error("unlock technology", "company", c.ID, "error", err)
		return err
	}
	if c.IsTechnologyUnlocked(id) {
		return nil
	}
	if !free {
		cost := r.TechnologyCost(c, tech)
		if cost > c.ResearchAmount {
			return fmt.Errorf("unlock %s: need %d research, have %d", id, cost, c.ResearchAmount)
		}
		c.ResearchAmount -= cost
		c.ResearchSpent += cost
		if c.IsTechnologyUnlocked(world.TechInstruments) {
			c.ResearchRatio *= 1.22
		} else {
			c.ResearchRatio *= 1.3
		}
	}
	c.Technologies[id] = true

	if !free {
		slog.Info("technology unlocked", "company", c.ID, "technology", id)
		r.Events.Emit(events.Event{Day: r.Day, Kind: events.KindTechnologyUnlocked, Source: c.ID, Message: string(id)})
		if r.IsPlayer(c) {
			r.Events.Emit(events.Event{
				Day:    r.Day,
				Kind:   events.KindQuest,
				Source: c.ID,
				Bundle: events.NewBundle(events.TagUnlockTechnology).PutName("technology", string(id)),
			})
		}
	}
	return nil
}
