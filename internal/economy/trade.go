// Package economy provides station matching and resource transfers between
// spacecraft, and the per-sector resource flow statistics.
package economy

import (
	"log/slog"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Operation is what a spacecraft wants to do with a resource.
type Operation uint8

const (
	OpBuy Operation = iota
	OpSell
	OpLoad
	OpUnload
	OpLoadOrBuy
	OpUnloadOrSell
)

var operationNames = [...]string{"buy", "sell", "load", "unload", "load_or_buy", "unload_or_sell"}

func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return "unknown"
}

// NoCargoLimit disables the fill ratio gate of a request.
const NoCargoLimit = -1.0

// ConstructionPriority multiplies the score of stations being built.
const ConstructionPriority = 10000

// Request asks for the best station to trade r with.
type Request struct {
	Client     *world.Spacecraft
	Resource   *world.Resource
	Operation  Operation
	CargoLimit float64 // NoCargoLimit or a station fill ratio in [0, 1]
}

type weights struct {
	unload, load, sell, buy float64
	fullBonus, emptyBonus   float64
	needInput, needOutput   bool
}

var operationWeights = map[Operation]weights{
	OpBuy:          {buy: 10, fullBonus: 0.1, needOutput: true},
	OpSell:         {sell: 10, emptyBonus: 0.1, needInput: true},
	OpLoad:         {load: 10, fullBonus: 0.1, needOutput: true},
	OpUnload:       {unload: 10, emptyBonus: 0.1, needInput: true},
	OpLoadOrBuy:    {load: 10, buy: 1, fullBonus: 0.1, needOutput: true},
	OpUnloadOrSell: {unload: 10, sell: 1, emptyBonus: 0.1, needInput: true},
}

// Broker matches and executes trades inside sectors.
type Broker struct {
	reg    *company.Registry
	ledger *diplomacy.Ledger
}

// NewBroker creates a broker.
func NewBroker(reg *company.Registry, ledger *diplomacy.Ledger) *Broker {
	return &Broker{reg: reg, ledger: ledger}
}

// CanTradeWith reports whether a and b may exchange goods: distinct, alive,
// co-located and not at war.
func (b *Broker) CanTradeWith(a, o *world.Spacecraft) bool {
	if a == nil || o == nil || a == o {
		return false
	}
	if !a.Alive() || !o.Alive() || a.Sector == "" || a.Sector != o.Sector {
		return false
	}
	ca, co := b.reg.Owner(a), b.reg.Owner(o)
	if ca == nil || co == nil {
		return false
	}
	return b.ledger.WarState(ca, co) != diplomacy.Hostile
}

// FindTradeStation returns the best station in the client's sector for req,
// or nil when none scores above zero.
func (b *Broker) FindTradeStation(req Request) *world.Spacecraft {
	client := req.Client
	sector := b.reg.Sector(client.Sector)
	clientCompany := b.reg.Owner(client)
	if sector == nil || clientCompany == nil || client.Cargo == nil {
		return nil
	}

	w, ok := operationWeights[req.Operation]
	if !ok {
		return nil
	}
	r := req.Resource
	available := client.Cargo.Quantity(r.ID)
	clientFree := client.Cargo.FreeSpace(r.ID)

	var best *world.Spacecraft
	bestScore := 0.0

	for _, station := range sector.Stations() {
		if station.Cargo == nil || !b.CanTradeWith(client, station) {
			continue
		}

		use := station.ResourceUse(r.ID)
		if w.needOutput && use != world.UseFactoryOutput && use != world.UseMaintenanceConsumption {
			continue
		}
		if w.needInput && use != world.UseFactoryInput && use != world.UseConsumerConsumption && use != world.UseMaintenanceConsumption {
			continue
		}

		stationFree := station.Cargo.FreeSpace(r.ID)
		stationStock := station.Cargo.Quantity(r.ID)
		if stationFree == 0 && stationStock == 0 {
			continue
		}

		fullRatio := float64(stationStock) / float64(stationStock+stationFree)
		emptyRatio := 1 - fullRatio

		if !station.UnderConstruction && req.CargoLimit != NoCargoLimit {
			level := float64(max(station.Level, 1))
			if w.needOutput && fullRatio < req.CargoLimit/level {
				continue
			}
			if w.needInput && fullRatio > 1-(1-req.CargoLimit)/level {
				continue
			}
		}

		unloadMax, loadMax := 0, 0
		if station.WantBuy(r.ID) {
			unloadMax = min(stationFree, available)
		}
		if station.WantSell(r.ID) {
			loadMax = min(stationStock, clientFree)
		}

		var score float64
		if station.Company == client.Company {
			score = float64(unloadMax)*w.unload + float64(loadMax)*w.load
		} else {
			stationCompany := b.reg.Owner(station)
			if stationCompany == nil {
				continue
			}
			price := sector.ResourcePrice(r, use)
			loadMax = min(loadMax, int(max(clientCompany.Money, 0)/price))
			unloadMax = min(unloadMax, int(max(stationCompany.Money, 0)/price))
			score = float64(unloadMax)*w.sell + float64(loadMax)*w.buy
		}

		score *= 1 + fullRatio*w.fullBonus + emptyRatio*w.emptyBonus
		if station.UnderConstruction {
			score *= ConstructionPriority
		}

		if score > 0 && score > bestScore {
			best = station
			bestScore = score
		}
	}
	return best
}

// Trade moves up to maxQuantity of r from src to dst and settles payment
// across companies. It returns the quantity actually moved.
func (b *Broker) Trade(src, dst *world.Spacecraft, r *world.Resource, maxQuantity int) int {
	if !b.CanTradeWith(src, dst) || src.Cargo == nil || dst.Cargo == nil || maxQuantity <= 0 {
		return 0
	}
	sector := b.reg.Sector(src.Sector)
	srcCompany, dstCompany := b.reg.Owner(src), b.reg.Owner(dst)
	if sector == nil {
		return 0
	}

	price := sector.TransferPrice(src, dst, r)
	crossCompany := srcCompany != dstCompany

	qty := maxQuantity
	if crossCompany {
		qty = min(qty, int(max(dstCompany.Money, 0)/price))
	}
	qty = min(qty, dst.Cargo.FreeSpace(r.ID))

	taken := src.Cargo.Take(r.ID, qty)
	given := dst.Cargo.Give(r.ID, taken)
	if given < taken {
		src.Cargo.Give(r.ID, taken-given)
	}

	if given > 0 {
		if crossCompany {
			cost := price * int64(given)
			dstCompany.TakeMoney(cost, false)
			b.reg.GiveMoney(srcCompany, cost)

			gain := b.ledger.Config().TradeReputationGain
			b.ledger.GiveReputation(srcCompany, dstCompany, gain, false)
			b.ledger.GiveReputation(dstCompany, srcCompany, gain, false)
		}
		b.markTrading(src)
		b.markTrading(dst)

		slog.Debug("trade", "resource", r.ID, "quantity", given, "price", price, "from", src.ID, "to", dst.ID)
	}

	b.reg.Events.Emit(events.Event{
		Day:      b.reg.Day,
		Kind:     events.KindTradeCompleted,
		Source:   srcCompany.ID,
		Target:   dstCompany.ID,
		Resource: r.ID,
		Quantity: given,
	})
	return given
}

// markTrading flags ships that are not part of the player's fleet.
func (b *Broker) markTrading(sp *world.Spacecraft) {
	if sp.IsStation() {
		return
	}
	if b.reg.Player.Fleet != "" && sp.Fleet == b.reg.Player.Fleet {
		return
	}
	sp.Trading = true
}
