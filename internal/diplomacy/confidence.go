package diplomacy

import (
	"github.com/talgya/mini-galaxy/internal/company"
)

// Coalitions lists who stands with and against a company.
type Coalitions struct {
	Allies  []*company.Company
	Enemies []*company.Company
}

// Coalitions discovers the enemies of self (reference first, when given)
// and the third parties that fight any of them.
func (l *Ledger) Coalitions(self, reference *company.Company) Coalitions {
	co := Coalitions{Allies: []*company.Company{self}}
	if reference != nil && reference != self {
		co.Enemies = append(co.Enemies, reference)
	}

	isEnemy := make(map[*company.Company]bool)
	for _, e := range co.Enemies {
		isEnemy[e] = true
	}

	for _, other := range l.reg.Companies {
		if other == self || other == reference {
			continue
		}
		if l.opposes(self, other) {
			co.Enemies = append(co.Enemies, other)
			isEnemy[other] = true
		}
	}

	for _, other := range l.reg.Companies {
		if other == self || isEnemy[other] {
			continue
		}
		for _, enemy := range co.Enemies {
			if l.fights(other, enemy) {
				co.Allies = append(co.Allies, other)
				break
			}
		}
	}
	return co
}

// opposes reports whether other is an enemy of self.
func (l *Ledger) opposes(self, other *company.Company) bool {
	return l.WarState(self, other) == Hostile || other.Reputation(self.ID) <= l.cfg.HostileReputation
}

// fights reports whether ally is at war with enemy or hates it.
func (l *Ledger) fights(ally, enemy *company.Company) bool {
	return l.WarState(ally, enemy) == Hostile || ally.Reputation(enemy.ID) <= l.cfg.HostileReputation
}

// Confidence estimates self's military standing against reference and its
// coalition, in [-1, 1]. Reference may be nil.
func (l *Ledger) Confidence(self, reference *company.Company) float64 {
	co := l.Coalitions(self, reference)

	points := make(map[*company.Company]int)
	combat := func(c *company.Company) int {
		p, ok := points[c]
		if !ok {
			p = l.reg.CompanyValue(c, "", false).ArmyCurrentCombatPoints
			points[c] = p
		}
		return p
	}

	enemyPoints := 0
	for _, e := range co.Enemies {
		enemyPoints += combat(e)
	}

	allyPoints := 0
	for _, a := range co.Allies {
		if a == self {
			allyPoints += combat(a)
			continue
		}
		// An ally only counts against the enemies it fights itself.
		engaged := 0
		for _, e := range co.Enemies {
			if l.fights(a, e) {
				engaged += combat(e)
			}
		}
		allyPoints += min(combat(a), engaged)
	}

	return confidenceFromPoints(allyPoints, enemyPoints)
}

func confidenceFromPoints(allies, enemies int) float64 {
	switch {
	case allies == enemies:
		return 0
	case allies > enemies:
		if enemies == 0 {
			return 1
		}
		ratio := float64(allies) / float64(enemies)
		return 1 - 1/(ratio+1)
	default:
		if allies == 0 {
			return -1
		}
		ratio := float64(enemies) / float64(allies)
		return -(1 - 1/(ratio+1))
	}
}
