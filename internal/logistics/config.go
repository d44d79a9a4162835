// Package logistics rations fleet supply between damaged spacecraft. Each
// day a company's repair and refill demand in a sector is capped by the
// supply it owns or can buy there, spread across its spacecraft in
// collection order, and paid for.
package logistics

// Config holds the daily repair and refill caps, as fractions of a
// component restored per day.
type Config struct {
	RepairCap        float64 `yaml:"repair_cap"`
	RCSRepairCap     float64 `yaml:"rcs_repair_cap"`
	EngineRepairCap  float64 `yaml:"engine_repair_cap"`
	WeaponRepairCap  float64 `yaml:"weapon_repair_cap"`
	RefillCap        float64 `yaml:"refill_cap"`
	QuickRepairBonus float64 `yaml:"quick_repair_bonus"` // repair caps only
	Residual         float64 `yaml:"residual"` // needs below this are dropped
}

// DefaultConfig returns the standard caps.
func DefaultConfig() Config {
	return Config{
		RepairCap:        0.1,
		RCSRepairCap:     0.2,
		EngineRepairCap:  0.15,
		WeaponRepairCap:  0.2,
		RefillCap:        0.2,
		QuickRepairBonus: 1.5,
		Residual:         0.001,
	}
}
