// Simulation ties the company registry and the rule systems together and
// runs them each tick and each day.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-galaxy/internal/ai"
	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/economy"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/logistics"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Simulation holds the galaxy state. All access from other goroutines
// goes through Read and Write.
type Simulation struct {
	mu sync.RWMutex

	Reg       *company.Registry
	Ledger    *diplomacy.Ledger
	Broker    *economy.Broker
	Logistics *logistics.Allocator
	AI        *ai.Behavior
	Bus       *events.Bus

	LastTick    uint64
	TicksPerDay uint64
	Stats       DayStats
}

// DayStats summarizes the last simulated day.
type DayStats struct {
	Day        int64   `json:"day"`
	Companies  int     `json:"companies"`
	TotalMoney int64   `json:"total_money"`
	Wars       int     `json:"wars"` // hostile pairs
	Traded     int     `json:"traded"`
	Supply     int     `json:"fleet_supply_consumed"`
	Decisions  int     `json:"diplomatic_decisions"`
	Pacifism   float64 `json:"avg_pacifism"`
}

// NewSimulation wires the rule systems around reg. The registry must emit
// into bus for the event log and stream to see anything.
func NewSimulation(reg *company.Registry, dcfg diplomacy.Config, lcfg logistics.Config, bus *events.Bus) *Simulation {
	ledger := diplomacy.NewLedger(reg, dcfg)
	broker := economy.NewBroker(reg, ledger)
	alloc := logistics.NewAllocator(reg, ledger, lcfg)
	return &Simulation{
		Reg:       reg,
		Ledger:    ledger,
		Broker:    broker,
		Logistics: alloc,
		AI:        ai.NewBehavior(ledger, broker, alloc),
		Bus:       bus,

		TicksPerDay: DefaultTicksPerDay,
	}
}

// Read runs fn under the read lock.
func (s *Simulation) Read(fn func(s *Simulation)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s)
}

// Write runs fn under the write lock.
func (s *Simulation) Write(fn func(s *Simulation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Day returns the current simulation day.
func (s *Simulation) Day() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Reg.Day
}

// aiCompanies lists every company except the player, in registry order.
func (s *Simulation) aiCompanies() []*company.Company {
	out := make([]*company.Company, 0, len(s.Reg.Companies))
	for _, c := range s.Reg.Companies {
		if !s.Reg.IsPlayer(c) {
			out = append(out, c)
		}
	}
	return out
}

// TickMinute refreshes the battle flags of every AI company.
func (s *Simulation) TickMinute(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick
	for _, c := range s.aiCompanies() {
		s.AI.Tick(c)
	}
}

// TickDay runs one simulated day. The order is fixed: trading flags and
// sector histories roll first, then every AI company drifts its opinions,
// then decides diplomacy, then simulates its economy; pacifism follows,
// and finally allocated stock is applied for every company.
func (s *Simulation) TickDay(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick

	stats := DayStats{Day: s.Reg.Day}
	companies := s.aiCompanies()

	ai.ResetTrading(s.Reg)
	for _, sector := range s.Reg.Sectors {
		sector.EndDay()
	}

	for _, c := range companies {
		ai.ReputationDrift(s.Ledger, c)
	}
	for _, c := range companies {
		stats.Decisions += len(s.AI.UpdateDiplomacy(c))
	}
	for _, c := range companies {
		rep := s.AI.Simulate(c)
		stats.Traded += rep.Traded
		for _, l := range rep.Logistics {
			stats.Supply += l.Consumed
		}
	}
	for _, c := range companies {
		ai.UpdatePacifism(s.Ledger, c)
	}
	for _, c := range s.Reg.Companies {
		s.Logistics.ApplyStocks(c)
	}

	s.Reg.Day++
	s.collectStats(&stats)
	s.Stats = stats

	slog.Info("daily report",
		"day", stats.Day,
		"time", SimTime(tick, s.TicksPerDay),
		"companies", stats.Companies,
		"total_money", humanize.Comma(stats.TotalMoney),
		"wars", stats.Wars,
		"traded", stats.Traded,
		"fleet_supply", stats.Supply,
		"decisions", stats.Decisions,
		"avg_pacifism", fmt.Sprintf("%.2f", stats.Pacifism),
	)
}

func (s *Simulation) collectStats(st *DayStats) {
	st.Companies = len(s.Reg.Companies)
	pacifism, n := 0.0, 0
	for i, c := range s.Reg.Companies {
		st.TotalMoney += c.Money
		for _, o := range s.Reg.Companies[i+1:] {
			if s.Ledger.WarState(c, o) == diplomacy.Hostile {
				st.Wars++
			}
		}
		if !s.Reg.IsPlayer(c) {
			pacifism += c.AI.Pacifism
			n++
		}
	}
	if n > 0 {
		st.Pacifism = pacifism / float64(n)
	}
}

// SimulateCompany runs one company's economic day outside the daily step.
func (s *Simulation) SimulateCompany(id world.CompanyID) (ai.DayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.Reg.Lookup(id)
	if err != nil {
		return ai.DayReport{}, err
	}
	return s.AI.Simulate(c), nil
}

// TickAI refreshes one company's battle flags.
func (s *Simulation) TickAI(id world.CompanyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.Reg.Lookup(id)
	if err != nil {
		return err
	}
	s.AI.Tick(c)
	return nil
}

// Saves captures every company's persisted fields.
func (s *Simulation) Saves() []company.Save {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]company.Save, len(s.Reg.Companies))
	for i, c := range s.Reg.Companies {
		out[i] = c.Save()
	}
	return out
}

// Restore applies saved company state and the clock. Saves of companies
// missing from the scenario are skipped.
func (s *Simulation) Restore(day int64, tick uint64, saves []company.Save) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if day > 0 {
		s.Reg.Day = day
	}
	s.LastTick = tick
	for _, sv := range saves {
		c := s.Reg.Company(sv.ID)
		if c == nil {
			slog.Warn("saved company not in scenario", "company", sv.ID)
			continue
		}
		c.Restore(sv)
	}
}
