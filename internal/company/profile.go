// AI behavior profile: affinity tables and scalar knobs that shape an AI
// company's economy, military posture and diplomacy.
package company

import "github.com/talgya/mini-galaxy/internal/world"

// Budget is a spending category.
type Budget uint8

const (
	BudgetMilitary Budget = iota
	BudgetTrade
	BudgetStation
	BudgetTechnology
)

// Budgets lists all categories in a stable order.
var Budgets = []Budget{BudgetMilitary, BudgetTrade, BudgetStation, BudgetTechnology}

var budgetNames = [...]string{"military", "trade", "station", "technology"}

func (b Budget) String() string {
	if int(b) < len(budgetNames) {
		return budgetNames[b]
	}
	return "unknown"
}

// Profile is owned by exactly one company. Missing affinity entries read
// as 1.0.
type Profile struct {
	ResourceAffinities map[world.ResourceID]float64 `json:"resource_affinities"`
	SectorAffinities   map[world.SectorID]float64   `json:"sector_affinities"`

	StationCapture float64 `json:"station_capture"`
	TradingBuy     float64 `json:"trading_buy"`
	TradingSell    float64 `json:"trading_sell"`
	TradingBoth    float64 `json:"trading_both"`

	ShipyardAffinity    float64 `json:"shipyard_affinity"`
	ConsumerAffinity    float64 `json:"consumer_affinity"`
	MaintenanceAffinity float64 `json:"maintenance_affinity"`

	BudgetTechnologyWeight float64 `json:"budget_technology_weight"`
	BudgetMilitaryWeight   float64 `json:"budget_military_weight"`
	BudgetStationWeight    float64 `json:"budget_station_weight"`
	BudgetTradeWeight      float64 `json:"budget_trade_weight"`

	ConfidenceTarget       float64 `json:"confidence_target"`
	DeclareWarConfidence   float64 `json:"declare_war_confidence"`
	RequestPeaceConfidence float64 `json:"request_peace_confidence"`
	PayTributeConfidence   float64 `json:"pay_tribute_confidence"`

	AttackThreshold  float64 `json:"attack_threshold"`
	RetreatThreshold float64 `json:"retreat_threshold"`
	DefeatAdaptation float64 `json:"defeat_adaptation"`

	ArmySize             float64 `json:"army_size"`
	DiplomaticReactivity float64 `json:"diplomatic_reactivity"`

	PacifismIncrementRate float64 `json:"pacifism_increment_rate"`
	PacifismDecrementRate float64 `json:"pacifism_decrement_rate"`
}

// DefaultProfile returns the baseline profile every archetype starts from.
func DefaultProfile() *Profile {
	return &Profile{
		ResourceAffinities: make(map[world.ResourceID]float64),
		SectorAffinities:   make(map[world.SectorID]float64),

		StationCapture: 1.0,
		TradingBuy:     1.0,
		TradingSell:    1.0,
		TradingBoth:    0.5,

		ShipyardAffinity:    1.0,
		ConsumerAffinity:    0.5,
		MaintenanceAffinity: 0.1,

		BudgetTechnologyWeight: 0.2,
		BudgetMilitaryWeight:   0.5,
		BudgetStationWeight:    1.0,
		BudgetTradeWeight:      1.0,

		ConfidenceTarget:       -0.1,
		DeclareWarConfidence:   0.2,
		RequestPeaceConfidence: -0.5,
		PayTributeConfidence:   -0.8,

		AttackThreshold:  0.99,
		RetreatThreshold: 0.5,
		DefeatAdaptation: 0.01,

		ArmySize:             5.0,
		DiplomaticReactivity: 1.0,

		PacifismIncrementRate: 2,
		PacifismDecrementRate: 1,
	}
}

// ResourceAffinity returns the multiplier for r.
func (p *Profile) ResourceAffinity(r world.ResourceID) float64 {
	if v, ok := p.ResourceAffinities[r]; ok {
		return v
	}
	return 1
}

// SectorAffinity returns the multiplier for s.
func (p *Profile) SectorAffinity(s world.SectorID) float64 {
	if v, ok := p.SectorAffinities[s]; ok {
		return v
	}
	return 1
}

// SetResourceAffinity sets one resource multiplier.
func (p *Profile) SetResourceAffinity(r world.ResourceID, v float64) {
	if p.ResourceAffinities == nil {
		p.ResourceAffinities = make(map[world.ResourceID]float64)
	}
	p.ResourceAffinities[r] = v
}

// SetSectorAffinity sets one sector multiplier.
func (p *Profile) SetSectorAffinity(s world.SectorID, v float64) {
	if p.SectorAffinities == nil {
		p.SectorAffinities = make(map[world.SectorID]float64)
	}
	p.SectorAffinities[s] = v
}

// BudgetWeight returns the static weight of b.
func (p *Profile) BudgetWeight(b Budget) float64 {
	switch b {
	case BudgetMilitary:
		return p.BudgetMilitaryWeight
	case BudgetTrade:
		return p.BudgetTradeWeight
	case BudgetStation:
		return p.BudgetStationWeight
	case BudgetTechnology:
		return p.BudgetTechnologyWeight
	}
	return 0
}

// ProfileOverride replaces selected profile values. Nil fields are kept.
type ProfileOverride struct {
	ResourceAffinities map[world.ResourceID]float64 `json:"resource_affinities,omitempty" yaml:"resource_affinities"`
	SectorAffinities   map[world.SectorID]float64   `json:"sector_affinities,omitempty" yaml:"sector_affinities"`

	BudgetTechnologyWeight *float64 `json:"budget_technology_weight,omitempty" yaml:"budget_technology_weight"`
	BudgetMilitaryWeight   *float64 `json:"budget_military_weight,omitempty" yaml:"budget_military_weight"`
	BudgetStationWeight    *float64 `json:"budget_station_weight,omitempty" yaml:"budget_station_weight"`
	BudgetTradeWeight      *float64 `json:"budget_trade_weight,omitempty" yaml:"budget_trade_weight"`

	DeclareWarConfidence   *float64 `json:"declare_war_confidence,omitempty" yaml:"declare_war_confidence"`
	RequestPeaceConfidence *float64 `json:"request_peace_confidence,omitempty" yaml:"request_peace_confidence"`
	PayTributeConfidence   *float64 `json:"pay_tribute_confidence,omitempty" yaml:"pay_tribute_confidence"`

	ArmySize              *float64 `json:"army_size,omitempty" yaml:"army_size"`
	DiplomaticReactivity  *float64 `json:"diplomatic_reactivity,omitempty" yaml:"diplomatic_reactivity"`
	PacifismIncrementRate *float64 `json:"pacifism_increment_rate,omitempty" yaml:"pacifism_increment_rate"`
	PacifismDecrementRate *float64 `json:"pacifism_decrement_rate,omitempty" yaml:"pacifism_decrement_rate"`
}

// Apply copies the set fields of o into p.
func (p *Profile) Apply(o ProfileOverride) {
	for r, v := range o.ResourceAffinities {
		p.SetResourceAffinity(r, v)
	}
	for s, v := range o.SectorAffinities {
		p.SetSectorAffinity(s, v)
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.BudgetTechnologyWeight, o.BudgetTechnologyWeight)
	set(&p.BudgetMilitaryWeight, o.BudgetMilitaryWeight)
	set(&p.BudgetStationWeight, o.BudgetStationWeight)
	set(&p.BudgetTradeWeight, o.BudgetTradeWeight)
	set(&p.DeclareWarConfidence, o.DeclareWarConfidence)
	set(&p.RequestPeaceConfidence, o.RequestPeaceConfidence)
	set(&p.PayTributeConfidence, o.PayTributeConfidence)
	set(&p.ArmySize, o.ArmySize)
	set(&p.DiplomaticReactivity, o.DiplomaticReactivity)
	set(&p.PacifismIncrementRate, o.PacifismIncrementRate)
	set(&p.PacifismDecrementRate, o.PacifismDecrementRate)
}

// AIState is the dynamic part of an AI company.
type AIState struct {
	Pacifism               float64          `json:"pacifism"`
	Caution                float64          `json:"caution"`
	ProposeTributeToPlayer bool             `json:"propose_tribute_to_player"`
	Budgets                map[Budget]int64 `json:"budgets"`
	LastMoney              int64            `json:"last_money"`

	// Override is the configured profile override, kept for saving.
	Override *ProfileOverride `json:"override,omitempty"`
}
