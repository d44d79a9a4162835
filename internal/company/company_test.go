package company

import (
	"testing"

	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

func testRegistry(t *testing.T, rec *events.Recorder) (*Registry, *Company, *Company) {
	t.Helper()
	sec := world.NewSector("s1", "Sector One", "Nema")
	reg := NewRegistry(world.DefaultCatalog(), []*world.Sector{sec}, PlayerContext{Company: "player"}, rec)
	player := New("player", "Player")
	ai := New("ai", "AI Corp")
	reg.AddCompany(player)
	reg.AddCompany(ai)
	return reg, player, ai
}

func TestTakeMoney_RejectsOverdraftWithoutDebt(t *testing.T) {
	c := New("c", "C")
	c.Money = 100

	if c.TakeMoney(150, false) {
		t.Error("TakeMoney(150, false) succeeded with balance 100")
	}
	if c.Money != 100 {
		t.Errorf("Money = %d, want 100 after failed withdrawal", c.Money)
	}
	if !c.TakeMoney(150, true) {
		t.Error("TakeMoney(150, true) failed")
	}
	if c.Money != -50 {
		t.Errorf("Money = %d, want -50", c.Money)
	}
	if c.TakeMoney(-1, true) {
		t.Error("TakeMoney(-1) succeeded")
	}
}

func TestGiveMoney_EmitsQuestEventForPlayerOnly(t *testing.T) {
	rec := &events.Recorder{}
	reg, player, ai := testRegistry(t, rec)

	reg.GiveMoney(player, 500)
	reg.GiveMoney(ai, 500)
	if reg.GiveMoney(ai, -5) {
		t.Error("GiveMoney(-5) succeeded")
	}

	quests := rec.OfKind(events.KindQuest)
	if len(quests) != 1 {
		t.Fatalf("quest events = %d, want 1", len(quests))
	}
	if !quests[0].Bundle.HasTag(events.TagGainMoney) {
		t.Errorf("quest tags = %v, want gain-money", quests[0].Bundle.Tags)
	}
	if ai.Money != 500 {
		t.Errorf("ai Money = %d, want 500", ai.Money)
	}
}

func TestGiveResearch_InstrumentsBonus(t *testing.T) {
	reg, _, ai := testRegistry(t, &events.Recorder{})
	reg.GiveResearch(ai, 10)
	ai.Technologies[world.TechInstruments] = true
	reg.GiveResearch(ai, 10)
	if ai.ResearchAmount != 25 {
		t.Errorf("ResearchAmount = %d, want 25", ai.ResearchAmount)
	}
}

func TestUnlockTechnology_CostAndInflation(t *testing.T) {
	rec := &events.Recorder{}
	reg, player, _ := testRegistry(t, rec)
	player.ResearchAmount = 100

	// quick-repair costs 50 research per level, level 2.
	if err := reg.UnlockTechnology(player, world.TechQuickRepair, false); err != nil {
		t.Fatalf("UnlockTechnology: %v", err)
	}
	if player.ResearchAmount != 0 {
		t.Errorf("ResearchAmount = %d, want 0", player.ResearchAmount)
	}
	if player.ResearchRatio != 1.3 {
		t.Errorf("ResearchRatio = %v, want 1.3", player.ResearchRatio)
	}
	if player.TechnologyLevel() != 2 {
		t.Errorf("TechnologyLevel = %d, want 2", player.TechnologyLevel())
	}
	if len(rec.OfKind(events.KindQuest)) != 1 {
		t.Errorf("quest events = %d, want 1", len(rec.OfKind(events.KindQuest)))
	}

	if err := reg.UnlockTechnology(player, world.TechDiplomacy, false); err == nil {
		t.Error("UnlockTechnology succeeded without research")
	}
	if err := reg.UnlockTechnology(player, "warp-drive", false); err == nil {
		t.Error("UnlockTechnology succeeded for unknown technology")
	}
}

func TestCompanyValue_ConstructionAdjusted(t *testing.T) {
	reg, _, ai := testRegistry(t, &events.Recorder{})
	sec := reg.Sector("s1")
	sec.Prices["steel"] = 100
	ai.Money = 1000

	cargo := world.NewCargoBay(1, 100)
	cargo.Give("steel", 10)
	reg.AddSpacecraft(ai, sec, &world.Spacecraft{ID: "freighter", Price: 5000, Cargo: cargo, Damage: world.NewDamageSystem("hull")})
	reg.AddSpacecraft(ai, sec, &world.Spacecraft{ID: "gunship", Price: 8000, Military: true, CombatPoints: 10, Damage: world.NewDamageSystem("hull", "gun")})
	reg.AddSpacecraft(ai, sec, &world.Spacecraft{ID: "hub", Role: world.RoleStation, Price: 20000, UnderConstruction: true})

	ai.Spacecraft[1].Damage.Components[1].Health = 0.5

	v := reg.CompanyValue(ai, "", false)
	if v.Stock != 1000 {
		t.Errorf("Stock = %d, want 1000", v.Stock)
	}
	if v.Spacecraft != 13000 || v.Stations != 0 {
		t.Errorf("Spacecraft = %d Stations = %d, want 13000 and 0", v.Spacecraft, v.Stations)
	}
	if v.Total != 15000 {
		t.Errorf("Total = %d, want 15000", v.Total)
	}
	if v.ArmyTotalCombatPoints != 10 || v.ArmyCurrentCombatPoints != 8 {
		t.Errorf("combat points = %d/%d, want 10/8", v.ArmyTotalCombatPoints, v.ArmyCurrentCombatPoints)
	}

	adjusted := reg.CompanyValue(ai, "", true)
	if adjusted.Stations != 20000 {
		t.Errorf("adjusted Stations = %d, want 20000", adjusted.Stations)
	}
}

func TestDestroySpacecraft_RaisesCaution(t *testing.T) {
	rec := &events.Recorder{}
	reg, _, ai := testRegistry(t, rec)
	sp := &world.Spacecraft{ID: "scout", Damage: world.NewDamageSystem("hull")}
	reg.AddSpacecraft(ai, reg.Sector("s1"), sp)

	reg.DestroySpacecraft(sp)
	reg.DestroySpacecraft(sp)

	if len(ai.Spacecraft) != 0 || len(ai.Destroyed) != 1 {
		t.Errorf("spacecraft/destroyed = %d/%d, want 0/1", len(ai.Spacecraft), len(ai.Destroyed))
	}
	if ai.AI.Caution != ai.Profile.DefeatAdaptation {
		t.Errorf("Caution = %v, want %v", ai.AI.Caution, ai.Profile.DefeatAdaptation)
	}
	if ai.AttackThreshold() != ai.Profile.AttackThreshold+ai.Profile.DefeatAdaptation {
		t.Errorf("AttackThreshold = %v", ai.AttackThreshold())
	}
	if len(rec.OfKind(events.KindSpacecraftDestroyed)) != 1 {
		t.Errorf("destroyed events = %d, want 1", len(rec.OfKind(events.KindSpacecraftDestroyed)))
	}
}

func TestRestore_DropsSelfReputationAndAppliesOverride(t *testing.T) {
	c := New("c", "C")
	army := 12.0
	s := Save{
		ID:            "c",
		Money:         42,
		ResearchRatio: 1.69,
		Reputations:   map[world.CompanyID]float64{"c": 10, "d": -40},
		Hostile:       []world.CompanyID{"d"},
		Technologies:  []world.TechnologyID{world.TechDiplomacy},
		Override:      &ProfileOverride{ArmySize: &army},
	}
	c.Restore(s)

	if _, ok := c.Reputations["c"]; ok {
		t.Error("self reputation entry restored")
	}
	if !c.IsHostileTo("d") || !c.IsTechnologyUnlocked(world.TechDiplomacy) {
		t.Error("hostile set or technologies not restored")
	}
	if c.Profile.ArmySize != 12 {
		t.Errorf("ArmySize = %v, want 12", c.Profile.ArmySize)
	}
	if got := c.Save().Hostile; len(got) != 1 || got[0] != "d" {
		t.Errorf("Save().Hostile = %v, want [d]", got)
	}
}
