// Sector generation using layered simplex noise.
// Each sector samples the noise field at a position derived from its moon
// and its index on that moon; the samples drive local price variance,
// population size and per-capita consumption.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// SectorSpec names one sector to generate.
type SectorSpec struct {
	ID   SectorID `yaml:"id"`
	Name string   `yaml:"name"`
}

// MoonSpec groups sectors orbiting the same body.
type MoonSpec struct {
	Name    string       `yaml:"name"`
	Sectors []SectorSpec `yaml:"sectors"`
}

// GenConfig holds sector generation parameters.
type GenConfig struct {
	Seed          int64      `yaml:"seed"`           // 0 = random
	PriceVariance float64    `yaml:"price_variance"` // max relative deviation from base price
	MaxPopulation int        `yaml:"max_population"`
	Moons         []MoonSpec `yaml:"moons"`
}

// DefaultGenConfig returns the stock system layout.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:          0,
		PriceVariance: 0.2,
		MaxPopulation: 50000,
		Moons: []MoonSpec{
			{Name: "Nema", Sectors: []SectorSpec{
				{ID: "the-depths", Name: "The Depths"},
				{ID: "blue-heart", Name: "Blue Heart"},
				{ID: "lighthouse", Name: "Lighthouse"},
			}},
			{Name: "Anka", Sectors: []SectorSpec{
				{ID: "the-spire", Name: "The Spire"},
				{ID: "outpost", Name: "Outpost"},
				{ID: "boneyard", Name: "Boneyard"},
			}},
			{Name: "Hela", Sectors: []SectorSpec{
				{ID: "frozen-realm", Name: "Frozen Realm"},
				{ID: "night-s-home", Name: "Night's Home"},
			}},
		},
	}
}

// GenerateSectors creates the sectors described by cfg with prices and
// populations derived from the catalog.
func GenerateSectors(cfg GenConfig, cat *Catalog) []*Sector {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	priceNoise := opensimplex.NewNormalized(seed)
	popNoise := opensimplex.NewNormalized(seed + 1)

	var sectors []*Sector
	for mi, moon := range cfg.Moons {
		for si, spec := range moon.Sectors {
			// Sectors of a moon sit on a ring around the moon's position.
			angle := 2 * math.Pi * float64(si) / float64(len(moon.Sectors))
			x := float64(mi)*10 + math.Cos(angle)*2
			y := math.Sin(angle) * 2

			sec := NewSector(spec.ID, spec.Name, moon.Name)

			for ri, r := range cat.Resources {
				n := octaveNoise(priceNoise, x+float64(ri)*3.1, y, 3, 0.4, 0.5)
				factor := 1 + cfg.PriceVariance*(2*n-1)
				sec.Prices[r.ID] = max(1, int64(math.Round(float64(r.BasePrice)*factor)))
			}

			p := octaveNoise(popNoise, x, y, 4, 0.3, 0.5)
			if p > 0.45 {
				sec.Population.Count = int(float64(cfg.MaxPopulation) * p)
				for _, r := range cat.Resources {
					if r.Consumer {
						// Roughly one unit per thousand inhabitants per day.
						sec.Population.Consumption[r.ID] = float64(sec.Population.Count) / 1000
					}
				}
			}

			sectors = append(sectors, sec)
		}
	}
	return sectors
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
