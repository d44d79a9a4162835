// Package engine provides the tick loop and the simulation that advances
// the galaxy one tick and one day at a time.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTicksPerDay is the day length when none is configured.
const DefaultTicksPerDay = 60

// Engine drives the simulation forward.
type Engine struct {
	Tick        uint64        // current tick counter (monotonic, never resets)
	Interval    time.Duration // base tick interval
	TicksPerDay uint64

	// Callbacks, populated during setup.
	OnTick func(tick uint64) // every tick
	OnDay  func(tick uint64) // every TicksPerDay ticks

	mu      sync.Mutex
	speed   float64 // 1.0 = real time, 0 = paused
	running bool
}

// NewEngine creates an engine at normal speed.
func NewEngine(ticksPerDay uint64) *Engine {
	if ticksPerDay == 0 {
		ticksPerDay = DefaultTicksPerDay
	}
	return &Engine{
		Interval:    time.Second,
		TicksPerDay: ticksPerDay,
		speed:       1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Negative values pause.
func (e *Engine) SetSpeed(s float64) {
	e.mu.Lock()
	e.speed = max(s, 0)
	e.mu.Unlock()
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run starts the loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.Running() {
		speed := e.Speed()
		if speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the loop after the current tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// Advance runs n ticks synchronously, for tools and tests.
func (e *Engine) Advance(n int) {
	for i := 0; i < n; i++ {
		e.step()
	}
}

func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%e.TicksPerDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}

// SimTime formats a tick as a day and tick-of-day. Day 1 is the first day.
func SimTime(tick, ticksPerDay uint64) string {
	if ticksPerDay == 0 {
		ticksPerDay = DefaultTicksPerDay
	}
	return fmt.Sprintf("Day %d, tick %d/%d", tick/ticksPerDay+1, tick%ticksPerDay, ticksPerDay)
}
