package logistics

import (
	"math"
	"testing"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

type fixture struct {
	reg    *company.Registry
	ledger *diplomacy.Ledger
	alloc  *Allocator
	sector *world.Sector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sec := world.NewSector("s1", "Sector One", "Nema")
	reg := company.NewRegistry(world.DefaultCatalog(), []*world.Sector{sec}, company.PlayerContext{Company: "player"}, events.Discard)
	for _, id := range []world.CompanyID{"player", "a", "b", "c"} {
		reg.AddCompany(company.New(id, string(id)))
	}
	ledger := diplomacy.NewLedger(reg, diplomacy.DefaultConfig())
	return &fixture{reg: reg, ledger: ledger, alloc: NewAllocator(reg, ledger, DefaultConfig()), sector: sec}
}

// ship adds a ship with a hull, an engine and a gun.
func (f *fixture) ship(owner world.CompanyID, id world.SpacecraftID, hull, engine float64, fired int) *world.Spacecraft {
	sp := &world.Spacecraft{ID: id, Damage: world.NewDamageSystem("hull", "engine", "gun")}
	sp.Damage.Components[0].Health = hull
	sp.Damage.Components[1].Health = engine
	sp.Damage.Components[2].FiredAmmo = fired
	f.reg.AddSpacecraft(f.reg.Company(owner), f.sector, sp)
	return sp
}

// depot adds a station holding qty fleet supply.
func (f *fixture) depot(owner world.CompanyID, id world.SpacecraftID, qty int) *world.Spacecraft {
	sp := &world.Spacecraft{
		ID:           id,
		Role:         world.RoleStation,
		Cargo:        world.NewCargoBay(1, 1000),
		ResourceUses: map[world.ResourceID]world.ResourceUse{"fleet-supply": world.UseMaintenanceConsumption},
	}
	sp.Cargo.LockSlot(0, "fleet-supply")
	sp.Cargo.Give("fleet-supply", qty)
	f.reg.AddSpacecraft(f.reg.Company(owner), f.sector, sp)
	return sp
}

func (f *fixture) price() int64 {
	res, _ := f.reg.Catalog.FleetSupplyResource()
	return f.sector.ResourcePrice(res, world.UseMaintenanceConsumption)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRepairNeeds_PerCategoryCaps(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	// hull: 0.5 missing at 20, cap 0.1; engine: 0.25 missing at 10, cap 0.15.
	f.ship("a", "s1", 0.5, 0.75, 0)

	got := f.alloc.RepairNeeds(a, f.sector)
	want := Need{Current: 4, Total: 13, MaxDuration: 5}
	if got != want {
		t.Errorf("RepairNeeds = %+v, want %+v", got, want)
	}
}

func TestRepairNeeds_DeductsPrivateStock(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	sp := f.ship("a", "s1", 0.5, 0.75, 0)
	sp.RepairStock = 2.5

	got := f.alloc.RepairNeeds(a, f.sector)
	if got.Current != 1 || got.Total != 10 {
		t.Errorf("RepairNeeds = %+v, want current 1 total 10", got)
	}

	sp.RepairStock = 100
	if got := f.alloc.RepairNeeds(a, f.sector); got.Current != 0 || got.Total != 0 {
		t.Errorf("RepairNeeds with large stock = %+v, want zero", got)
	}
}

func TestRepairNeeds_QuickRepairRaisesCap(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	a.Technologies[world.TechQuickRepair] = true
	f.ship("a", "s1", 0.5, 1, 0)
	cfg := DefaultConfig()
	cfg.QuickRepairBonus = 2
	alloc := NewAllocator(f.reg, f.ledger, cfg)

	got := alloc.RepairNeeds(a, f.sector)
	want := Need{Current: 4, Total: 10, MaxDuration: 3}
	if got != want {
		t.Errorf("RepairNeeds = %+v, want %+v", got, want)
	}
}

func TestRefillNeeds_QuickRepairDoesNotRaiseCap(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	f.ship("a", "s1", 1, 1, 500)

	before := f.alloc.RefillNeeds(a, f.sector)
	want := Need{Current: 1, Total: 4, MaxDuration: 5}
	if before != want {
		t.Fatalf("RefillNeeds = %+v, want %+v", before, want)
	}

	a.Technologies[world.TechQuickRepair] = true
	cfg := DefaultConfig()
	cfg.QuickRepairBonus = 2
	alloc := NewAllocator(f.reg, f.ledger, cfg)
	if got := alloc.RefillNeeds(a, f.sector); got != before {
		t.Errorf("RefillNeeds with quick repair = %+v, want %+v", got, before)
	}
}

func TestRefillNeeds_WeaponsOnly(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	f.ship("a", "s1", 0.5, 0.5, 250)

	got := f.alloc.RefillNeeds(a, f.sector)
	want := Need{Current: 1, Total: 2, MaxDuration: 3}
	if got != want {
		t.Errorf("RefillNeeds = %+v, want %+v", got, want)
	}
}

func TestFleetSupply_IgnoresHostileStock(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	f.depot("a", "own", 100)
	f.depot("b", "friend", 200)
	f.depot("c", "enemy", 300)
	f.ledger.SetHostilityTo(f.reg.Company("c"), a, true)
	a.Money = f.price() * 50

	got := f.alloc.FleetSupply(a, f.sector)
	if got.Owned != 100 || got.NotOwned != 200 || got.Available != 300 {
		t.Errorf("FleetSupply = %+v, want owned 100, not owned 200, available 300", got)
	}
	if got.Affordable != 150 {
		t.Errorf("Affordable = %d, want 150", got.Affordable)
	}
}

func TestAllocate_NeverExceedsAffordableAndKeepsOrder(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	first := f.ship("a", "first", 0, 1, 0)
	second := f.ship("a", "second", 0, 1, 0)
	f.depot("a", "own", 10)

	rep := f.alloc.Allocate(a, f.sector, Repair)
	if rep.Skipped {
		t.Fatal("allocation skipped")
	}
	sum := 0.0
	for _, al := range rep.Allocations {
		sum += al.Amount
	}
	if sum > float64(rep.Supply.Affordable) {
		t.Errorf("allocated %v, exceeds affordable %d", sum, rep.Supply.Affordable)
	}
	if len(rep.Allocations) != 2 || rep.Allocations[0].Spacecraft != "first" || rep.Allocations[1].Spacecraft != "second" {
		t.Fatalf("allocations = %+v, want first then second", rep.Allocations)
	}
	// 40 needed, 10 affordable: each ship gets a quarter of its need.
	if !approx(first.RepairStock, 5) || !approx(second.RepairStock, 5) {
		t.Errorf("stocks = %v/%v, want 5/5", first.RepairStock, second.RepairStock)
	}
	if rep.Consumed != 10 {
		t.Errorf("Consumed = %d, want 10", rep.Consumed)
	}
}

func TestAllocate_PrivateStockLeavesRoomForLaterShips(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	first := f.ship("a", "first", 0, 1, 0)
	first.RepairStock = 25
	second := f.ship("a", "second", 0, 1, 0)
	f.depot("a", "own", 100)

	rep := f.alloc.Allocate(a, f.sector, Repair)
	if len(rep.Allocations) != 1 || rep.Allocations[0].Spacecraft != "second" {
		t.Fatalf("allocations = %+v, want only second", rep.Allocations)
	}
	if !approx(second.RepairStock, 20) {
		t.Errorf("second stock = %v, want 20", second.RepairStock)
	}
	if rep.Consumed != 20 {
		t.Errorf("Consumed = %d, want 20", rep.Consumed)
	}
}

func TestAllocate_BuysFromThirdParties(t *testing.T) {
	f := newFixture(t)
	a, b := f.reg.Company("a"), f.reg.Company("b")
	sp := f.ship("a", "s1", 0, 1, 0)
	station := f.depot("b", "friend", 50)
	price := f.price()
	a.Money = price * 10

	rep := f.alloc.Allocate(a, f.sector, Repair)
	if rep.Consumed != 10 {
		t.Fatalf("Consumed = %d, want 10", rep.Consumed)
	}
	if !approx(sp.RepairStock, 10) {
		t.Errorf("RepairStock = %v, want 10", sp.RepairStock)
	}
	if got := station.Cargo.Quantity("fleet-supply"); got != 40 {
		t.Errorf("seller stock = %d, want 40", got)
	}
	if a.Money != 0 || b.Money != price*10 {
		t.Errorf("money = %d/%d, want 0/%d", a.Money, b.Money, price*10)
	}
	if got := f.sector.FleetSupplyConsumption.Value(0); got != 10 {
		t.Errorf("recorded consumption = %v, want 10", got)
	}
}

func TestAllocate_OwnStockFirst(t *testing.T) {
	f := newFixture(t)
	a, b := f.reg.Company("a"), f.reg.Company("b")
	f.ship("a", "s1", 0, 1, 0)
	own := f.depot("a", "own", 15)
	friend := f.depot("b", "friend", 50)
	a.Money = f.price() * 100

	rep := f.alloc.Allocate(a, f.sector, Repair)
	if rep.Consumed != 20 {
		t.Fatalf("Consumed = %d, want 20", rep.Consumed)
	}
	if own.Cargo.Quantity("fleet-supply") != 0 || friend.Cargo.Quantity("fleet-supply") != 45 {
		t.Errorf("stocks = %d/%d, want 0/45", own.Cargo.Quantity("fleet-supply"), friend.Cargo.Quantity("fleet-supply"))
	}
	if b.Money != f.price()*5 {
		t.Errorf("seller money = %d, want %d", b.Money, f.price()*5)
	}
}

func TestAllocate_SkippedInDangerousBattle(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	sp := f.ship("a", "s1", 0, 1, 0)
	f.depot("b", "friend", 5)
	f.sector.SetDangerousBattle(a.ID, true)
	a.Money = f.price() * 100

	rep := f.alloc.Allocate(a, f.sector, Repair)
	if !rep.Skipped || sp.RepairStock != 0 {
		t.Errorf("report = %+v, stock %v, want skipped with no stock", rep, sp.RepairStock)
	}
	// The unmet part of the need is still recorded.
	if got := f.sector.FleetSupplyConsumption.Value(0); got != 15 {
		t.Errorf("recorded consumption = %v, want 15", got)
	}
}

func TestApplyStocks_RespectsDailyCap(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	sp := f.ship("a", "s1", 0.5, 1, 250)
	sp.RepairStock = 10
	sp.RefillStock = 10

	f.alloc.ApplyStocks(a)

	if got := sp.Damage.Components[0].Health; !approx(got, 0.6) {
		t.Errorf("hull health = %v, want 0.6", got)
	}
	if !approx(sp.RepairStock, 8) {
		t.Errorf("RepairStock = %v, want 8", sp.RepairStock)
	}
	// 20% of 500 rounds per day at 4 per full magazine.
	if got := sp.Damage.Components[2].FiredAmmo; got != 150 {
		t.Errorf("FiredAmmo = %d, want 150", got)
	}
	if !approx(sp.RefillStock, 9.2) {
		t.Errorf("RefillStock = %v, want 9.2", sp.RefillStock)
	}
}

func TestRun_RepairsThenRefills(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Company("a")
	f.ship("a", "s1", 0.5, 1, 250)
	f.depot("a", "own", 100)

	reps := f.alloc.Run(a)
	if len(reps) != 2 || reps[0].Kind != Repair || reps[1].Kind != Refill {
		t.Fatalf("reports = %+v, want repair then refill", reps)
	}
	if reps[0].Consumed != 10 || reps[1].Consumed != 2 {
		t.Errorf("consumed = %d/%d, want 10/2", reps[0].Consumed, reps[1].Consumed)
	}
}
