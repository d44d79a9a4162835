package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/ai"
	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/config"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Starting hardware.
const (
	freighterSlots    = 4
	freighterSlotSize = 100
	freighterPrice    = 60_000
	warshipPrice      = 250_000
	stationPrice      = 400_000
)

// NewScenario generates sectors and seeds the companies described by cfg.
// Sector generation is deterministic for a given seed.
func NewScenario(cfg config.Config, bus *events.Bus) (*Simulation, error) {
	cat := world.DefaultCatalog()

	gen := cfg.Scenario.World
	if gen.Seed == 0 {
		gen.Seed = cfg.Seed
	}
	sectors := world.GenerateSectors(gen, cat)

	player := company.PlayerContext{Company: cfg.Scenario.Player, Fleet: cfg.Scenario.PlayerFleet}
	reg := company.NewRegistry(cat, sectors, player, bus)

	for _, spec := range cfg.Scenario.Companies {
		if err := seedCompany(reg, cfg, spec); err != nil {
			return nil, fmt.Errorf("seed %s: %w", spec.ID, err)
		}
	}

	sim := NewSimulation(reg, cfg.Diplomacy, cfg.Logistics, bus)
	sim.TicksPerDay = cfg.Engine.TicksPerDay

	slog.Info("scenario ready", "sectors", len(sectors), "companies", len(reg.Companies), "seed", gen.Seed)
	return sim, nil
}

func seedCompany(reg *company.Registry, cfg config.Config, spec config.CompanySpec) error {
	name := spec.Name
	if name == "" {
		name = string(spec.ID)
	}
	c := company.New(spec.ID, name)
	if o, ok := cfg.Profiles[spec.ID]; ok {
		c.AI.Override = &o
	}
	if err := ai.ApplyArchetype(c, spec.Archetype, reg.Catalog, reg.Sectors, cfg.Scenario.Landmarks); err != nil {
		return err
	}
	c.Money = spec.Money
	c.AI.LastMoney = spec.Money
	for _, s := range reg.Sectors {
		c.DiscoverSector(s.ID)
	}
	reg.AddCompany(c)

	home := reg.Sector(spec.Home)
	if home == nil {
		return fmt.Errorf("unknown home sector %q", spec.Home)
	}

	var fleet []*world.Spacecraft
	for i := 1; i <= spec.Freighters; i++ {
		sp := &world.Spacecraft{
			ID:     world.SpacecraftID(fmt.Sprintf("%s-freighter-%d", spec.ID, i)),
			Name:   fmt.Sprintf("%s Freighter %d", name, i),
			Class:  "freighter",
			Price:  freighterPrice,
			Cargo:  world.NewCargoBay(freighterSlots, freighterSlotSize),
			Damage: world.NewDamageSystem("hull", "rcs", "engine", "power"),
		}
		reg.AddSpacecraft(c, home, sp)
		fleet = append(fleet, sp)
	}
	for i := 1; i <= spec.Warships; i++ {
		sp := &world.Spacecraft{
			ID:           world.SpacecraftID(fmt.Sprintf("%s-warship-%d", spec.ID, i)),
			Name:         fmt.Sprintf("%s Warship %d", name, i),
			Class:        "warship",
			Military:     true,
			Price:        warshipPrice,
			CombatPoints: spec.WarshipPoints,
			Damage:       world.NewDamageSystem("hull", "rcs", "engine", "gun", "power"),
		}
		reg.AddSpacecraft(c, home, sp)
	}
	if reg.IsPlayer(c) && reg.Player.Fleet != "" && len(fleet) > 0 {
		reg.CreateFleet(c, reg.Player.Fleet, "Player Fleet", fleet...)
	}

	for i, st := range spec.Stations {
		sector := home
		if st.Sector != "" {
			if sector = reg.Sector(st.Sector); sector == nil {
				return fmt.Errorf("station %q: unknown sector %q", st.Name, st.Sector)
			}
		}
		sp, err := buildStation(reg.Catalog, spec.ID, i+1, st)
		if err != nil {
			return err
		}
		reg.AddSpacecraft(c, sector, sp)
	}
	return nil
}

// buildStation lays out one locked cargo slot per resource the station
// handles. Factory stations start with Stock units of each output.
func buildStation(cat *world.Catalog, owner world.CompanyID, n int, st config.StationSpec) (*world.Spacecraft, error) {
	capacity := st.Capacity
	if capacity <= 0 {
		capacity = freighterSlotSize
	}
	uses := make(map[world.ResourceID]world.ResourceUse)
	var order []world.ResourceID
	use := func(r world.ResourceID, u world.ResourceUse) error {
		if _, err := cat.Resource(r); err != nil {
			return fmt.Errorf("station %q: %w", st.Name, err)
		}
		if _, dup := uses[r]; !dup {
			order = append(order, r)
		}
		uses[r] = u
		return nil
	}

	for _, in := range st.Inputs {
		if err := use(in.Resource, world.UseFactoryInput); err != nil {
			return nil, err
		}
	}
	for _, out := range st.Outputs {
		if err := use(out.Resource, world.UseFactoryOutput); err != nil {
			return nil, err
		}
	}
	if st.Depot {
		if err := use(cat.FleetSupply, world.UseMaintenanceConsumption); err != nil {
			return nil, err
		}
	}

	sp := &world.Spacecraft{
		ID:           world.SpacecraftID(fmt.Sprintf("%s-station-%d", owner, n)),
		Name:         st.Name,
		Class:        "station",
		Role:         world.RoleStation,
		Level:        1,
		Price:        stationPrice,
		Cargo:        world.NewCargoBay(len(order), capacity),
		Damage:       world.NewDamageSystem("hull", "power"),
		ResourceUses: uses,
	}
	for i, r := range order {
		sp.Cargo.LockSlot(i, r)
		if u := uses[r]; u == world.UseFactoryOutput || u == world.UseMaintenanceConsumption {
			sp.Cargo.Give(r, st.Stock)
		}
	}
	if len(st.Outputs) > 0 {
		sp.Factories = []*world.Factory{{
			Name:               st.Name,
			Active:             true,
			NeedProduction:     true,
			Inputs:             st.Inputs,
			Outputs:            st.Outputs,
			ProductionDuration: st.Duration,
		}}
	}
	return sp, nil
}
