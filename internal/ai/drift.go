package ai

import (
	"sort"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
)

// ReputationDrift moves c's opinion of every other company according to
// their rank by total value. Richer companies warm to distant, poorer
// rivals; poorer ones resent the closest rivals above them.
func ReputationDrift(ledger *diplomacy.Ledger, c *company.Company) {
	reg := ledger.Registry()

	values := make(map[*company.Company]int64, len(reg.Companies))
	for _, o := range reg.Companies {
		values[o] = reg.CompanyValue(o, "", false).Total
	}

	sorted := make([]*company.Company, len(reg.Companies))
	copy(sorted, reg.Companies)
	sort.SliceStable(sorted, func(i, j int) bool { return values[sorted[i]] < values[sorted[j]] })

	self := -1
	for i, o := range sorted {
		if o == c {
			self = i
			break
		}
	}
	if self < 0 {
		return
	}

	n := float64(len(sorted))
	pirate := c.Archetype == ArchetypePirates
	for i, o := range sorted {
		if o == c {
			continue
		}
		delta := float64(abs(i - self))
		if values[c] > values[o] {
			ledger.GiveReputation(c, o, delta/n, false)
		} else {
			ledger.GiveReputation(c, o, -1/delta, false)
		}
		if pirate {
			ledger.GiveReputation(c, o, -1, false)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
