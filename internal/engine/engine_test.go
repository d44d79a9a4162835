package engine

import (
	"errors"
	"testing"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/config"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Seed = 7
	return cfg
}

func testSim(t *testing.T) *Simulation {
	t.Helper()
	sim, err := NewScenario(testConfig(), events.NewBus(100))
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	return sim
}

func TestEngine_AdvanceFiresDayCallback(t *testing.T) {
	e := NewEngine(10)
	ticks, days := 0, 0
	e.OnTick = func(uint64) { ticks++ }
	e.OnDay = func(uint64) { days++ }

	e.Advance(25)
	if ticks != 25 || days != 2 {
		t.Errorf("ticks %d days %d, want 25 and 2", ticks, days)
	}
	if e.Tick != 25 {
		t.Errorf("Tick = %d, want 25", e.Tick)
	}
}

func TestEngine_SpeedNeverNegative(t *testing.T) {
	e := NewEngine(0)
	if e.TicksPerDay != DefaultTicksPerDay {
		t.Errorf("TicksPerDay = %d, want %d", e.TicksPerDay, DefaultTicksPerDay)
	}
	e.SetSpeed(-3)
	if got := e.Speed(); got != 0 {
		t.Errorf("Speed = %v, want 0", got)
	}
}

func TestSimTime(t *testing.T) {
	if got := SimTime(125, 60); got != "Day 3, tick 5/60" {
		t.Errorf("SimTime = %q", got)
	}
}

func TestNewScenario_SeedsCompanies(t *testing.T) {
	sim := testSim(t)
	reg := sim.Reg

	if len(reg.Companies) != 10 {
		t.Fatalf("companies = %d, want 10", len(reg.Companies))
	}
	player := reg.PlayerCompany()
	if player == nil || player.Money != 500_000 {
		t.Fatalf("player = %+v", player)
	}
	if len(player.Fleets) != 1 || len(player.Fleets[0].Ships) != 1 {
		t.Errorf("player fleets = %+v", player.Fleets)
	}

	pirates := reg.Company("pirates")
	if pirates.Archetype != "pirates" || pirates.Profile.ArmySize != 50 {
		t.Errorf("pirates profile not applied: %q %v", pirates.Archetype, pirates.Profile.ArmySize)
	}
	if got := reg.CompanyValue(pirates, "", false).ArmyCurrentCombatPoints; got != 60 {
		t.Errorf("pirate combat points = %d, want 60", got)
	}

	depot := reg.Spacecraft("axis-supplies-station-1")
	if depot == nil {
		t.Fatal("axis depot missing")
	}
	if depot.ResourceUse("fleet-supply") != world.UseMaintenanceConsumption || depot.Cargo.Quantity("fleet-supply") != 400 {
		t.Errorf("depot use %v stock %d", depot.ResourceUse("fleet-supply"), depot.Cargo.Quantity("fleet-supply"))
	}

	foundry := reg.Spacecraft("helix-foundries-station-1")
	if foundry == nil || len(foundry.Factories) != 1 || foundry.Cargo.Quantity("steel") != 100 {
		t.Fatalf("foundry = %+v", foundry)
	}
	if foundry.Sector != "outpost" {
		t.Errorf("foundry sector = %q, want outpost", foundry.Sector)
	}
}

func TestNewScenario_ProfileOverride(t *testing.T) {
	cfg := testConfig()
	army := 3.0
	cfg.Profiles = map[world.CompanyID]company.ProfileOverride{"ion-lane": {ArmySize: &army}}

	sim, err := NewScenario(cfg, events.NewBus(10))
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	if got := sim.Reg.Company("ion-lane").Profile.ArmySize; got != 3 {
		t.Errorf("ArmySize = %v, want 3", got)
	}
}

func TestNewScenario_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario.Companies = []config.CompanySpec{{ID: "a", Archetype: "default", Home: "nowhere"}}
	if _, err := NewScenario(cfg, events.NewBus(10)); err == nil {
		t.Error("expected an error for an unknown home sector")
	}

	cfg.Scenario.Companies = []config.CompanySpec{{ID: "a", Archetype: "bankers", Home: "outpost"}}
	if _, err := NewScenario(cfg, events.NewBus(10)); err == nil {
		t.Error("expected an error for an unknown archetype")
	}

	cfg.Scenario.Companies = []config.CompanySpec{{ID: "a", Home: "outpost", Stations: []config.StationSpec{
		{Name: "bad", Outputs: []world.ResourceAmount{{Resource: "unobtainium", Quantity: 1}}},
	}}}
	if _, err := NewScenario(cfg, events.NewBus(10)); !errors.Is(err, world.ErrUnknownResource) {
		t.Errorf("err = %v, want ErrUnknownResource", err)
	}
}

func TestTickDay_AdvancesClockAndStats(t *testing.T) {
	sim := testSim(t)
	sim.TickDay(60)
	if got := sim.Day(); got != 2 {
		t.Errorf("Day = %d, want 2", got)
	}
	if sim.Stats.Day != 1 || sim.Stats.Companies != 10 {
		t.Errorf("Stats = %+v", sim.Stats)
	}
	if sim.Stats.TotalMoney <= 0 {
		t.Errorf("TotalMoney = %d", sim.Stats.TotalMoney)
	}
	if sim.CurrentTick() != 60 {
		t.Errorf("CurrentTick = %d, want 60", sim.CurrentTick())
	}
}

func TestTickDay_AIDeclaresWarOnHatedPlayer(t *testing.T) {
	sim := testSim(t)
	pirates, player := sim.Reg.Company("pirates"), sim.Reg.PlayerCompany()
	sim.Ledger.ForceReputation(pirates, player, -200)
	sim.AI.FleetHealth = func(*company.Company) bool { return true }

	sim.TickDay(60)
	if !pirates.IsHostileTo(player.ID) || !player.IsHostileTo(pirates.ID) {
		t.Error("pirates and player are not at war")
	}
	if sim.Stats.Wars == 0 {
		t.Error("Stats.Wars = 0")
	}
	if len(sim.Bus.Recent(0)) == 0 {
		t.Error("no events reached the bus")
	}
}

func TestSimulateCompany_UnknownID(t *testing.T) {
	sim := testSim(t)
	if _, err := sim.SimulateCompany("ghost"); !errors.Is(err, company.ErrUnknownCompany) {
		t.Errorf("SimulateCompany err = %v, want ErrUnknownCompany", err)
	}
	if err := sim.TickAI("ghost"); !errors.Is(err, company.ErrUnknownCompany) {
		t.Errorf("TickAI err = %v, want ErrUnknownCompany", err)
	}
	rep, err := sim.SimulateCompany("ion-lane")
	if err != nil || rep.Company != "ion-lane" {
		t.Errorf("SimulateCompany = %+v, %v", rep, err)
	}
}

func TestSavesAndRestore(t *testing.T) {
	sim := testSim(t)
	a := sim.Reg.Company("sunwatch")
	a.Money = 42
	a.Reputations["pirates"] = -80
	saves := sim.Saves()

	fresh := testSim(t)
	fresh.Restore(9, 540, append(saves, company.Save{ID: "gone"}))
	b := fresh.Reg.Company("sunwatch")
	if b.Money != 42 || b.Reputation("pirates") != -80 {
		t.Errorf("restored money %d reputation %v", b.Money, b.Reputation("pirates"))
	}
	if fresh.Day() != 9 || fresh.CurrentTick() != 540 {
		t.Errorf("clock = day %d tick %d", fresh.Day(), fresh.CurrentTick())
	}
}
