package ai

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/economy"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/logistics"
	"github.com/talgya/mini-galaxy/internal/world"
)

type fixture struct {
	reg      *company.Registry
	ledger   *diplomacy.Ledger
	behavior *Behavior
	rec      *events.Recorder
	sector   *world.Sector
}

// newFixture registers the given companies in one sector. Include
// "player" to have a player company.
func newFixture(t *testing.T, ids ...world.CompanyID) *fixture {
	t.Helper()
	sec := world.NewSector("s1", "Sector One", "Nema")
	rec := &events.Recorder{}
	reg := company.NewRegistry(world.DefaultCatalog(), []*world.Sector{sec}, company.PlayerContext{Company: "player"}, rec)
	for _, id := range ids {
		reg.AddCompany(company.New(id, string(id)))
	}
	ledger := diplomacy.NewLedger(reg, diplomacy.DefaultConfig())
	b := NewBehavior(ledger, economy.NewBroker(reg, ledger), logistics.NewAllocator(reg, ledger, logistics.DefaultConfig()))
	return &fixture{reg: reg, ledger: ledger, behavior: b, rec: rec, sector: sec}
}

func (f *fixture) c(id world.CompanyID) *company.Company {
	return f.reg.Company(id)
}

func (f *fixture) army(id world.CompanyID, points int) *world.Spacecraft {
	sp := &world.Spacecraft{ID: world.SpacecraftID(string(id) + "-warship"), Military: true, CombatPoints: points}
	f.reg.AddSpacecraft(f.c(id), f.sector, sp)
	return sp
}

func (f *fixture) freighter(id world.CompanyID, name world.SpacecraftID) *world.Spacecraft {
	sp := &world.Spacecraft{ID: name, Cargo: world.NewCargoBay(2, 100), Damage: world.NewDamageSystem("hull")}
	f.reg.AddSpacecraft(f.c(id), f.sector, sp)
	return sp
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewProfile_Pirates(t *testing.T) {
	cat := world.DefaultCatalog()
	sectors := world.GenerateSectors(world.DefaultGenConfig(), cat)

	p, err := NewProfile(ArchetypePirates, cat, sectors, DefaultLandmarks())
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if got := p.ResourceAffinity("water"); got != 0.1 {
		t.Errorf("water affinity = %v, want 0.1", got)
	}
	if got := p.SectorAffinity("boneyard"); got != 10 {
		t.Errorf("boneyard affinity = %v, want 10", got)
	}
	if got := p.SectorAffinity("the-depths"); got != 0 {
		t.Errorf("the-depths affinity = %v, want 0", got)
	}
	if !SectorExcluded(p, "the-depths", sectors) {
		t.Error("pirates not excluded from the-depths")
	}
	if SectorExcluded(p, "boneyard", sectors) {
		t.Error("pirates excluded from their base")
	}
	if p.ArmySize != 50 || p.PayTributeConfidence != -1 {
		t.Errorf("army %v tribute %v, want 50 and -1", p.ArmySize, p.PayTributeConfidence)
	}
}

func TestNewProfile_LandmarkAffinities(t *testing.T) {
	cat := world.DefaultCatalog()
	sectors := world.GenerateSectors(world.DefaultGenConfig(), cat)
	lm := DefaultLandmarks()

	def, _ := NewProfile(ArchetypeDefault, cat, sectors, lm)
	if def.SectorAffinity("boneyard") != 0 || def.SectorAffinity("outpost") != 1 {
		t.Errorf("default affinities = %v/%v, want 0/1", def.SectorAffinity("boneyard"), def.SectorAffinity("outpost"))
	}
	if SectorExcluded(def, "boneyard", sectors) {
		t.Error("default profile treats boneyard as excluded")
	}

	helix, _ := NewProfile(ArchetypeHelixFoundries, cat, sectors, lm)
	if helix.SectorAffinity("outpost") != 10 || helix.SectorAffinity("the-spire") != 6 {
		t.Errorf("helix affinities = %v/%v, want 10/6", helix.SectorAffinity("outpost"), helix.SectorAffinity("the-spire"))
	}
	if helix.SectorAffinity("the-depths") != 1 {
		t.Errorf("helix the-depths = %v, want 1", helix.SectorAffinity("the-depths"))
	}

	axis, _ := NewProfile(ArchetypeAxisSupplies, cat, sectors, lm)
	if axis.ResourceAffinity(cat.FleetSupply) != 5 || axis.DiplomaticReactivity != 0.1 {
		t.Errorf("axis fleet supply %v reactivity %v, want 5 and 0.1", axis.ResourceAffinity(cat.FleetSupply), axis.DiplomaticReactivity)
	}
}

func TestApplyArchetype_UnknownAndOverride(t *testing.T) {
	cat := world.DefaultCatalog()
	c := company.New("a", "A")

	err := ApplyArchetype(c, "traders-guild", cat, nil, DefaultLandmarks())
	if !errors.Is(err, ErrUnknownArchetype) {
		t.Errorf("err = %v, want ErrUnknownArchetype", err)
	}

	war := 0.9
	c.AI.Override = &company.ProfileOverride{DeclareWarConfidence: &war}
	if err := ApplyArchetype(c, ArchetypeIonLane, cat, nil, DefaultLandmarks()); err != nil {
		t.Fatalf("ApplyArchetype: %v", err)
	}
	if c.Profile.DeclareWarConfidence != 0.9 || c.Profile.ArmySize != 10 {
		t.Errorf("profile war %v army %v, want 0.9 and 10", c.Profile.DeclareWarConfidence, c.Profile.ArmySize)
	}
	if c.Archetype != ArchetypeIonLane {
		t.Errorf("Archetype = %q", c.Archetype)
	}
}

func TestReputationDrift_ByRank(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	a, b, c := f.c("a"), f.c("b"), f.c("c")
	a.Money, b.Money, c.Money = 100, 200, 300

	ReputationDrift(f.ledger, c)
	if got := c.Reputation("a"); !approx(got, 2.0/3) {
		t.Errorf("richest toward poorest = %v, want 2/3", got)
	}
	if got := c.Reputation("b"); !approx(got, 1.0/3) {
		t.Errorf("richest toward middle = %v, want 1/3", got)
	}

	ReputationDrift(f.ledger, a)
	if got := a.Reputation("b"); !approx(got, -1) {
		t.Errorf("poorest toward middle = %v, want -1", got)
	}
	if got := a.Reputation("c"); !approx(got, -0.5) {
		t.Errorf("poorest toward richest = %v, want -0.5", got)
	}
}

func TestReputationDrift_PiratesLoseWithEveryone(t *testing.T) {
	f := newFixture(t, "a", "b")
	a := f.c("a")
	a.Archetype = ArchetypePirates
	a.Money = 1000

	ReputationDrift(f.ledger, a)
	// +1/2 for the poorer rival, then the pirate malus.
	if got := a.Reputation("b"); got >= 0 {
		t.Errorf("pirate opinion = %v, want negative", got)
	}
}

func baseView() DiplomacyView {
	return DiplomacyView{
		Target:                 "o",
		HealthyFleet:           true,
		HostileReputation:      -100,
		DeclareWarConfidence:   0.2,
		RequestPeaceConfidence: -0.5,
		PayTributeConfidence:   -0.8,
	}
}

func kinds(ds []Decision) []DecisionKind {
	out := make([]DecisionKind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func TestDecideToward(t *testing.T) {
	cases := []struct {
		name string
		edit func(v *DiplomacyView)
		want []DecisionKind
	}{
		{"idle", func(v *DiplomacyView) {}, nil},
		{"lock restores war", func(v *DiplomacyView) { v.TargetIsPlayer, v.LockedInWar = true, true }, []DecisionKind{KeepWar}},
		{"lock already at war", func(v *DiplomacyView) { v.TargetIsPlayer, v.LockedInWar, v.Hostile = true, true, true }, nil},
		{"stay at war", func(v *DiplomacyView) { v.Hostile, v.TargetReputation = true, -150 }, nil},
		{"peace when forgiven", func(v *DiplomacyView) { v.Hostile, v.TargetReputation = true, -50 }, []DecisionKind{RequestPeace}},
		{"peace when losing", func(v *DiplomacyView) { v.Hostile, v.TargetReputation, v.Confidence = true, -150, -0.6 }, []DecisionKind{RequestPeace}},
		{"peace then tribute", func(v *DiplomacyView) {
			v.Hostile, v.TargetHostile, v.TargetReputation, v.Confidence = true, true, -150, -0.9
		}, []DecisionKind{RequestPeace, PayTribute}},
		{"declare war", func(v *DiplomacyView) { v.Reputation, v.Confidence = -120, 0.5 }, []DecisionKind{DeclareWar}},
		{"no war without fleet", func(v *DiplomacyView) { v.Reputation, v.Confidence, v.HealthyFleet = -120, 0.5, false }, nil},
		{"no war without confidence", func(v *DiplomacyView) { v.Reputation, v.Confidence = -120, 0.2 }, nil},
		{"quest immunity", func(v *DiplomacyView) {
			v.TargetIsPlayer, v.HasQuest, v.Reputation, v.Confidence = true, true, -150, 0.5
		}, []DecisionKind{CancelWar}},
		{"quest immunity exhausted", func(v *DiplomacyView) {
			v.TargetIsPlayer, v.HasQuest, v.Reputation, v.Confidence = true, true, -190, 0.5
		}, []DecisionKind{DeclareWar}},
		{"pacifist spares player", func(v *DiplomacyView) {
			v.TargetIsPlayer, v.Pacifism, v.Reputation, v.Confidence = true, 1, -150, 0.5
		}, []DecisionKind{CancelWar}},
		{"pacifism ignores AI rivals", func(v *DiplomacyView) { v.Pacifism, v.Reputation, v.Confidence = 1, -150, 0.5 }, []DecisionKind{DeclareWar}},
		{"pacifism forces peace", func(v *DiplomacyView) { v.Pacifism, v.Hostile, v.TargetReputation = 100, true, -150 }, []DecisionKind{ForcePeace}},
		{"lock blocks forced peace", func(v *DiplomacyView) {
			v.Pacifism, v.Hostile, v.TargetReputation, v.LockedInWar = 100, true, -150, true
		}, nil},
		{"pay tribute", func(v *DiplomacyView) { v.TargetHostile, v.Confidence = true, -0.9 }, []DecisionKind{PayTribute}},
		{"propose tribute to player", func(v *DiplomacyView) { v.TargetIsPlayer, v.TargetHostile, v.Confidence = true, true, -0.9 }, []DecisionKind{ProposeTribute}},
		{"lock blocks tribute", func(v *DiplomacyView) { v.TargetHostile, v.Confidence, v.LockedInWar = true, -0.9, true }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := baseView()
			tc.edit(&v)
			got := kinds(DecideToward(v))
			if len(got) != len(tc.want) {
				t.Fatalf("DecideToward = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("DecideToward = %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

func TestDecideToward_WarOnPlayerIsMutual(t *testing.T) {
	v := baseView()
	v.TargetIsPlayer, v.Reputation, v.Confidence = true, -150, 0.5
	got := DecideToward(v)
	if len(got) != 1 || !got[0].Mutual {
		t.Errorf("DecideToward = %+v, want one mutual declaration", got)
	}
}

func TestUpdateDiplomacy_DeclaresMutualWarOnPlayer(t *testing.T) {
	f := newFixture(t, "player", "a")
	a, player := f.c("a"), f.c("player")
	f.behavior.FleetHealth = func(*company.Company) bool { return true }
	f.ledger.ForceReputation(a, player, -150)
	f.army("a", 100)

	decisions := f.behavior.UpdateDiplomacy(a)
	if len(decisions) != 1 || decisions[0].Kind != DeclareWar {
		t.Fatalf("decisions = %+v, want one declaration", decisions)
	}
	if !a.IsHostileTo("player") || !player.IsHostileTo("a") {
		t.Error("war is not mutual")
	}
	if !f.ledger.LockedInWar(a) {
		t.Error("company not locked in war after the player's declaration")
	}
	if n := len(f.rec.OfKind(events.KindWarDeclared)); n != 1 {
		t.Errorf("war-declared events = %d, want 1", n)
	}
}

func TestUpdateDiplomacy_PaysTributeWhenOutgunned(t *testing.T) {
	f := newFixture(t, "a", "b")
	a, b := f.c("a"), f.c("b")
	a.Money = 1000
	f.army("b", 100)
	f.ledger.SetHostilityTo(b, a, true)

	decisions := f.behavior.UpdateDiplomacy(a)
	if len(decisions) != 1 || decisions[0].Kind != PayTribute {
		t.Fatalf("decisions = %+v, want tribute", decisions)
	}
	if f.ledger.WarState(a, b) != diplomacy.Neutral {
		t.Error("still at war after tribute")
	}
	if a.Money != 890 || b.Money != 110 {
		t.Errorf("money = %d/%d, want 890/110", a.Money, b.Money)
	}
}

func TestUpdateDiplomacy_ProposesTributeToPlayerAfterLock(t *testing.T) {
	f := newFixture(t, "player", "a")
	a, player := f.c("a"), f.c("player")
	a.Money = 1000
	f.army("player", 100)
	f.ledger.SetHostilityTo(player, a, true)

	if got := f.behavior.UpdateDiplomacy(a); len(got) != 1 || got[0].Kind != KeepWar {
		t.Fatalf("decisions during lock = %+v, want keep-war", got)
	}
	if !a.IsHostileTo("player") {
		t.Fatal("locked company did not keep the war")
	}

	f.reg.Day += 10
	f.behavior.UpdateDiplomacy(a)
	if !a.AI.ProposeTributeToPlayer {
		t.Error("ProposeTributeToPlayer = false, want true")
	}
	if n := len(f.rec.OfKind(events.KindTributeProposed)); n != 1 {
		t.Errorf("tribute-proposed events = %d, want 1", n)
	}
}

func TestUpdatePacifism_Clamped(t *testing.T) {
	f := newFixture(t, "a", "b")
	a, b := f.c("a"), f.c("b")
	f.ledger.SetHostilityTo(a, b, true)

	for i := 0; i < 60; i++ {
		UpdatePacifism(f.ledger, a)
	}
	if a.AI.Pacifism != MaxPacifism {
		t.Errorf("pacifism at war = %v, want %v", a.AI.Pacifism, MaxPacifism)
	}

	f.ledger.SetHostilityTo(a, b, false)
	UpdatePacifism(f.ledger, a)
	if a.AI.Pacifism != 99 {
		t.Errorf("pacifism after a day of peace = %v, want 99", a.AI.Pacifism)
	}
	a.AI.Pacifism = 0.5
	UpdatePacifism(f.ledger, a)
	if a.AI.Pacifism != 0 {
		t.Errorf("pacifism = %v, want 0", a.AI.Pacifism)
	}
}

func TestProcessBudget_SplitsGains(t *testing.T) {
	f := newFixture(t, "a", "b")
	a := f.c("a")
	a.Profile.BudgetTechnologyWeight = 0.5
	a.Profile.BudgetMilitaryWeight = 0.5
	a.Profile.BudgetStationWeight = 1
	a.Profile.BudgetTradeWeight = 2
	a.Money = 4000

	ProcessBudget(f.ledger, a)
	want := map[company.Budget]int64{
		company.BudgetMilitary:   500,
		company.BudgetTrade:      2000,
		company.BudgetStation:    1000,
		company.BudgetTechnology: 500,
	}
	for b, w := range want {
		if got := a.AI.Budgets[b]; got != w {
			t.Errorf("%v budget = %d, want %d", b, got, w)
		}
	}
	if got := NextBudget(a); got != company.BudgetTrade {
		t.Errorf("NextBudget = %v, want trade", got)
	}

	ProcessBudget(f.ledger, a)
	if got := a.AI.Budgets[company.BudgetTrade]; got != 2000 {
		t.Errorf("trade budget after no gain = %d, want 2000", got)
	}
}

func TestBudgetWeight_MilitaryAtWar(t *testing.T) {
	f := newFixture(t, "a", "b")
	a := f.c("a")
	if got := BudgetWeight(f.ledger, a, company.BudgetMilitary); got != 0.5 {
		t.Errorf("military weight = %v, want 0.5", got)
	}
	f.ledger.SetHostilityTo(f.c("b"), a, true)
	if got := BudgetWeight(f.ledger, a, company.BudgetMilitary); got != 5 {
		t.Errorf("military weight at war = %v, want 5", got)
	}
}

func TestUpdateTrading_SellsCargo(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.c("b").Money = 1_000_000
	ship := f.freighter("a", "hauler")
	ship.Cargo.Give("steel", 50)

	foundry := &world.Spacecraft{
		ID:           "foundry",
		Role:         world.RoleStation,
		Cargo:        world.NewCargoBay(1, 100),
		ResourceUses: map[world.ResourceID]world.ResourceUse{"steel": world.UseFactoryInput},
	}
	foundry.Cargo.LockSlot(0, "steel")
	f.reg.AddSpacecraft(f.c("b"), f.sector, foundry)

	if got := f.behavior.UpdateTrading(f.c("a")); got != 50 {
		t.Fatalf("UpdateTrading = %d, want 50", got)
	}
	if foundry.Cargo.Quantity("steel") != 50 || !ship.Trading {
		t.Errorf("foundry steel %d, trading %v", foundry.Cargo.Quantity("steel"), ship.Trading)
	}

	ship.Cargo.Give("steel", 10)
	if got := f.behavior.UpdateTrading(f.c("a")); got != 0 {
		t.Errorf("UpdateTrading on a busy ship = %d, want 0", got)
	}
	ResetTrading(f.reg)
	if ship.Trading {
		t.Error("ResetTrading left the flag set")
	}
}

func TestUpdateTrading_LoadsFavoriteResource(t *testing.T) {
	f := newFixture(t, "a", "b")
	a := f.c("a")
	a.Money = 10_000_000
	a.Profile.SetResourceAffinity("water", 10)
	ship := f.freighter("a", "hauler")

	mine := &world.Spacecraft{
		ID:           "mine",
		Role:         world.RoleStation,
		Cargo:        world.NewCargoBay(2, 100),
		ResourceUses: map[world.ResourceID]world.ResourceUse{"water": world.UseFactoryOutput, "silica": world.UseFactoryOutput},
	}
	mine.Cargo.LockSlot(0, "silica")
	mine.Cargo.LockSlot(1, "water")
	mine.Cargo.Give("silica", 100)
	mine.Cargo.Give("water", 100)
	f.reg.AddSpacecraft(f.c("b"), f.sector, mine)

	if got := f.behavior.UpdateTrading(a); got != 100 {
		t.Fatalf("UpdateTrading = %d, want 100", got)
	}
	if ship.Cargo.Quantity("water") != 100 || ship.Cargo.Quantity("silica") != 0 {
		t.Errorf("cargo water %d silica %d, want 100/0", ship.Cargo.Quantity("water"), ship.Cargo.Quantity("silica"))
	}
}

func TestTick_FlagsDangerousSectors(t *testing.T) {
	f := newFixture(t, "a", "b")
	a, b := f.c("a"), f.c("b")
	f.freighter("a", "hauler")
	f.army("b", 10)

	f.behavior.Tick(a)
	if f.sector.IsInDangerousBattle("a") {
		t.Fatal("dangerous without a war")
	}

	f.ledger.SetHostilityTo(b, a, true)
	f.behavior.Tick(a)
	if !f.sector.IsInDangerousBattle("a") {
		t.Error("not dangerous with a hostile warship present")
	}
}

func TestHealthyTradeFleet(t *testing.T) {
	f := newFixture(t, "a")
	a := f.c("a")
	if HealthyTradeFleet(a) {
		t.Error("healthy without ships")
	}
	ship := f.freighter("a", "hauler")
	if !HealthyTradeFleet(a) {
		t.Error("not healthy with an intact freighter")
	}
	ship.Damage.Uncontrollable = true
	if HealthyTradeFleet(a) {
		t.Error("healthy with an adrift freighter")
	}
}
