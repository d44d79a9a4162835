package diplomacy

import (
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/events"
)

// TributeCost is what c must pay to buy peace.
func (l *Ledger) TributeCost(c *company.Company) int64 {
	v := l.reg.CompanyValue(c, "", false)
	return int64(l.cfg.TributeValueShare*float64(v.Total) + l.cfg.TributeMoneyShare*float64(v.Money))
}

// PayTribute buys peace between payer and receiver. Both opinions reset to
// zero and both declarations are withdrawn. It reports false when payer
// cannot pay and debt is not allowed.
func (l *Ledger) PayTribute(payer, receiver *company.Company, allowDebt bool) bool {
	if payer == nil || receiver == nil || payer == receiver {
		return false
	}
	cost := l.TributeCost(payer)
	if cost < 0 {
		cost = 0
	}
	if !payer.TakeMoney(cost, allowDebt) {
		return false
	}
	l.reg.GiveMoney(receiver, cost)

	l.ForceReputation(payer, receiver, 0)
	l.ForceReputation(receiver, payer, 0)
	l.SetHostilityTo(payer, receiver, false)
	l.SetHostilityTo(receiver, payer, false)

	if l.reg.IsPlayer(receiver) {
		payer.LastTributeDate = l.reg.Day
	}
	payer.AI.ProposeTributeToPlayer = false

	slog.Info("tribute paid", "payer", payer.ID, "receiver", receiver.ID, "amount", cost)
	l.emit(events.Event{
		Kind:     events.KindTributePaid,
		Source:   payer.ID,
		Target:   receiver.ID,
		Quantity: int(cost),
	})
	return true
}
