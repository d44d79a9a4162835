package ai

import (
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

// MaxPacifism is the pacifism level that forces peace with everyone.
const MaxPacifism = 100

// QuestImmunityReputation is the opinion of the player above which an
// ongoing quest for the player prevents war.
const QuestImmunityReputation = -180

// DecisionKind is one diplomatic action.
type DecisionKind uint8

const (
	KeepWar DecisionKind = iota
	RequestPeace
	DeclareWar
	CancelWar
	ForcePeace
	ProposeTribute
	PayTribute
)

var decisionNames = [...]string{"keep-war", "request-peace", "declare-war", "cancel-war", "force-peace", "propose-tribute", "pay-tribute"}

func (k DecisionKind) String() string {
	if int(k) < len(decisionNames) {
		return decisionNames[k]
	}
	return "unknown"
}

// Decision is an action a company takes toward Target.
type Decision struct {
	Kind   DecisionKind    `json:"kind"`
	Target world.CompanyID `json:"target"`
	Mutual bool            `json:"mutual,omitempty"` // the target declares war too
}

// DiplomacyView is everything the decision toward one counterpart reads.
type DiplomacyView struct {
	Target         world.CompanyID
	TargetIsPlayer bool
	LockedInWar    bool // the player recently went to war with us

	Hostile       bool // our declaration
	TargetHostile bool // theirs

	Reputation       float64 // our opinion of the target
	TargetReputation float64 // the target's opinion of us
	Confidence       float64

	HealthyFleet bool
	HasQuest     bool // the player runs one of our quests
	Pacifism     float64

	HostileReputation      float64
	DeclareWarConfidence   float64
	RequestPeaceConfidence float64
	PayTributeConfidence   float64
}

// DecideToward returns the actions toward one counterpart, in order. It
// does not touch any state.
func DecideToward(v DiplomacyView) []Decision {
	decide := func(k DecisionKind) Decision { return Decision{Kind: k, Target: v.Target} }

	if v.TargetIsPlayer && v.LockedInWar {
		if !v.Hostile {
			return []Decision{decide(KeepWar)}
		}
		return nil
	}

	var out []Decision
	hostile, targetHostile := v.Hostile, v.TargetHostile

	switch {
	case hostile && (v.TargetReputation > v.HostileReputation || v.Confidence < v.RequestPeaceConfidence):
		out = append(out, decide(RequestPeace))
		hostile = false

	case !hostile && v.HealthyFleet && v.Reputation <= v.HostileReputation && v.Confidence > v.DeclareWarConfidence:
		cancel := false
		if v.TargetIsPlayer {
			if v.HasQuest && v.Reputation > QuestImmunityReputation {
				cancel = true
			}
			if v.Pacifism > 0 {
				cancel = true
			}
		}
		if cancel {
			out = append(out, decide(CancelWar))
		} else {
			d := decide(DeclareWar)
			d.Mutual = v.TargetIsPlayer
			out = append(out, d)
			hostile = true
			targetHostile = targetHostile || d.Mutual
		}
	}

	if !v.LockedInWar && v.Pacifism >= MaxPacifism && hostile {
		out = append(out, decide(ForcePeace))
		hostile = false
	}

	if !v.LockedInWar && (hostile || targetHostile) && v.Confidence < v.PayTributeConfidence {
		if v.TargetIsPlayer {
			out = append(out, decide(ProposeTribute))
		} else {
			out = append(out, decide(PayTribute))
		}
	}
	return out
}

// QuestTracker tells whether the player runs a quest for a company.
type QuestTracker interface {
	HasOngoingQuest(client world.CompanyID) bool
}

type noQuests struct{}

func (noQuests) HasOngoingQuest(world.CompanyID) bool { return false }

// View builds the diplomacy view c has of o.
func (b *Behavior) View(c, o *company.Company) DiplomacyView {
	p := c.Profile
	return DiplomacyView{
		Target:         o.ID,
		TargetIsPlayer: b.reg.IsPlayer(o),
		LockedInWar:    b.ledger.LockedInWar(c),

		Hostile:       b.ledger.Hostility(c, o) == diplomacy.Hostile,
		TargetHostile: b.ledger.Hostility(o, c) == diplomacy.Hostile,

		Reputation:       c.Reputation(o.ID),
		TargetReputation: o.Reputation(c.ID),
		Confidence:       b.ledger.Confidence(c, o),

		HealthyFleet: b.FleetHealth(c),
		HasQuest:     b.reg.IsPlayer(o) && b.Quests.HasOngoingQuest(c.ID),
		Pacifism:     c.AI.Pacifism,

		HostileReputation:      b.ledger.Config().HostileReputation,
		DeclareWarConfidence:   p.DeclareWarConfidence,
		RequestPeaceConfidence: p.RequestPeaceConfidence,
		PayTributeConfidence:   p.PayTributeConfidence,
	}
}

// UpdateDiplomacy decides and applies c's stance toward every other
// company, one counterpart at a time. It returns what was applied.
func (b *Behavior) UpdateDiplomacy(c *company.Company) []Decision {
	c.AI.ProposeTributeToPlayer = false

	var applied []Decision
	for _, o := range b.reg.Others(c) {
		decisions := DecideToward(b.View(c, o))
		for _, d := range decisions {
			b.apply(c, o, d)
		}
		applied = append(applied, decisions...)
	}
	return applied
}

func (b *Behavior) apply(c, o *company.Company, d Decision) {
	switch d.Kind {
	case KeepWar, DeclareWar:
		b.ledger.SetHostilityTo(c, o, true)
		if d.Mutual {
			b.ledger.SetHostilityTo(o, c, true)
		}
	case RequestPeace, ForcePeace:
		b.ledger.SetHostilityTo(c, o, false)
	case CancelWar:
		slog.Debug("war cancelled", "company", c.ID, "target", o.ID, "pacifism", c.AI.Pacifism)
	case ProposeTribute:
		c.AI.ProposeTributeToPlayer = true
		b.reg.Events.Emit(events.Event{
			Day:      b.reg.Day,
			Kind:     events.KindTributeProposed,
			Source:   c.ID,
			Target:   o.ID,
			Quantity: int(b.ledger.TributeCost(c)),
		})
	case PayTribute:
		b.ledger.PayTribute(c, o, true)
	}
}

// UpdatePacifism grows pacifism while c is at war and lets it fade in
// peace time.
func UpdatePacifism(ledger *diplomacy.Ledger, c *company.Company) {
	if ledger.AtWar(c) {
		c.AI.Pacifism += c.Profile.PacifismIncrementRate
	} else {
		c.AI.Pacifism -= c.Profile.PacifismDecrementRate
	}
	c.AI.Pacifism = min(max(c.AI.Pacifism, 0), MaxPacifism)
}
