// Hostility and war state. Hostility is one company's own declaration;
// war state is hostile when either side has declared.
package diplomacy

import (
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/events"
)

// Hostility is the relation one company has with another.
type Hostility uint8

const (
	Neutral Hostility = iota
	Hostile
	Owned
)

func (h Hostility) String() string {
	switch h {
	case Hostile:
		return "hostile"
	case Owned:
		return "owned"
	}
	return "neutral"
}

// Hostility is a's own view of b.
func (l *Ledger) Hostility(a, b *company.Company) Hostility {
	if a == b {
		return Owned
	}
	if a.IsHostileTo(b.ID) {
		return Hostile
	}
	return Neutral
}

// WarState is hostile if either side declared, otherwise a's own view.
func (l *Ledger) WarState(a, b *company.Company) Hostility {
	if a == b {
		return Owned
	}
	if a.IsHostileTo(b.ID) || b.IsHostileTo(a.ID) {
		return Hostile
	}
	return l.Hostility(a, b)
}

// AtWar reports whether c is in a hostile war state with anyone.
func (l *Ledger) AtWar(c *company.Company) bool {
	for _, other := range l.reg.Others(c) {
		if l.WarState(c, other) == Hostile {
			return true
		}
	}
	return false
}

// LockedInWar reports whether c is inside the window after the player
// went to war with it, during which it must stay at war with the player.
func (l *Ledger) LockedInWar(c *company.Company) bool {
	return c.LastWarDate > 0 && l.reg.Day-c.LastWarDate < l.cfg.WarLockDays
}

// SetHostilityTo changes source's declaration toward target.
func (l *Ledger) SetHostilityTo(source, target *company.Company, hostile bool) {
	if source == nil || target == nil || source == target {
		return
	}
	was := source.IsHostileTo(target.ID)
	switch {
	case hostile && !was:
		l.declareWar(source, target)
	case !hostile && was:
		l.makePeace(source, target)
	default:
		return
	}
	l.emit(events.Event{Kind: events.KindWarStateChanged, Source: source.ID, Target: target.ID})
}

func (l *Ledger) declareWar(source, target *company.Company) {
	source.Hostile[target.ID] = true
	l.GiveReputation(target, source, -l.cfg.WarDeclarationPenalty, false)

	slog.Info("war declared", "source", source.ID, "target", target.ID, "day", l.reg.Day)

	if l.reg.IsPlayer(target) && !target.IsHostileTo(source.ID) {
		l.emit(events.Event{
			Kind:    events.KindWarDeclared,
			Source:  source.ID,
			Target:  target.ID,
			Message: source.Name + " declared war",
		})
	}

	if l.reg.IsPlayer(source) {
		// The war date locks the target into this war for a while.
		target.LastWarDate = l.reg.Day

		day := l.reg.Day
		if target.LastPeaceDate > 0 {
			if since := day - target.LastPeaceDate; since < l.cfg.PeaceBreakDays {
				decay := 1 - float64(since)/float64(l.cfg.PeaceBreakDays)
				l.GiveReputationToOthers(source, -decay*l.cfg.PeaceBreakPenalty, false)
			}
		}
		if target.LastTributeDate > 0 {
			if since := day - target.LastTributeDate; since < l.cfg.TributeBreakDays {
				decay := 1 - float64(since)/float64(l.cfg.TributeBreakDays)
				l.GiveReputationToOthers(source, -decay*l.cfg.TributeBreakPenalty, false)
			}
		}
	}
}

func (l *Ledger) makePeace(source, target *company.Company) {
	delete(source.Hostile, target.ID)

	slog.Info("peace", "source", source.ID, "target", target.ID, "day", l.reg.Day)

	if l.reg.IsPlayer(source) {
		target.LastPeaceDate = l.reg.Day
	}
	if l.reg.IsPlayer(target) {
		kind := events.KindPeaceAccepted
		if target.IsHostileTo(source.ID) {
			kind = events.KindPeaceProposed
		}
		l.emit(events.Event{Kind: kind, Source: source.ID, Target: target.ID})
		source.LastWarDate = 0
	}
}

func (l *Ledger) emit(e events.Event) {
	e.Day = l.reg.Day
	l.reg.Events.Emit(e)
}
