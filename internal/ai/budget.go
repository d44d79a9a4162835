package ai

import (
	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
)

// WarMilitaryFactor multiplies the military weight while at war.
const WarMilitaryFactor = 10

// BudgetWeight is the current weight of b for c.
func BudgetWeight(ledger *diplomacy.Ledger, c *company.Company, b company.Budget) float64 {
	w := c.Profile.BudgetWeight(b)
	if b == company.BudgetMilitary && ledger.AtWar(c) {
		w *= WarMilitaryFactor
	}
	return w
}

// ProcessBudget splits the money gained since the last call across the
// budget accounts in proportion to their weights.
func ProcessBudget(ledger *diplomacy.Ledger, c *company.Company) {
	if c.AI.Budgets == nil {
		c.AI.Budgets = make(map[company.Budget]int64)
	}
	gain := c.Money - c.AI.LastMoney
	c.AI.LastMoney = c.Money
	if gain <= 0 {
		return
	}

	weights := make(map[company.Budget]float64, len(company.Budgets))
	total := 0.0
	for _, b := range company.Budgets {
		w := BudgetWeight(ledger, c, b)
		weights[b] = w
		total += w
	}
	if total <= 0 {
		return
	}
	for _, b := range company.Budgets {
		c.AI.Budgets[b] += int64(float64(gain) * weights[b] / total)
	}
}

// NextBudget is the category with the largest balance, for construction
// and military planners. Ties go to the first category.
func NextBudget(c *company.Company) company.Budget {
	best := company.Budgets[0]
	for _, b := range company.Budgets[1:] {
		if c.AI.Budgets[b] > c.AI.Budgets[best] {
			best = b
		}
	}
	return best
}
