// Command worldsim runs the galaxy economy and diplomacy simulation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/mini-galaxy/internal/api"
	"github.com/talgya/mini-galaxy/internal/config"
	"github.com/talgya/mini-galaxy/internal/engine"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/persistence"
)

// snapshotsKept bounds the snapshot table.
const snapshotsKept = 30

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv(config.EnvConfig))
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err == nil {
		err = cfg.Validate()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Helium Rain galaxy simulation", "seed", cfg.Seed, "companies", len(cfg.Scenario.Companies))

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.DBPath != "" {
		os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	} else {
		slog.Warn("no database path configured, state will not persist")
	}

	// ── Galaxy (scenario always rebuilt, saved payloads layered on) ──
	bus := events.NewBus(cfg.API.EventHistory)
	sim, err := engine.NewScenario(cfg, bus)
	if err != nil {
		slog.Error("failed to build scenario", "error", err)
		os.Exit(1)
	}

	if db != nil {
		restored, err := db.LoadWorldState(sim)
		if err != nil {
			slog.Error("failed to load world state", "error", err)
			os.Exit(1)
		}
		if !restored {
			slog.Info("no saved state found, starting a new galaxy")
			if err := db.SaveWorldState(sim); err != nil {
				slog.Error("initial save failed", "error", err)
			}
		}
	}

	var money int64
	sim.Read(func(s *engine.Simulation) {
		for _, c := range s.Reg.Companies {
			money += c.Money
		}
	})
	slog.Info("galaxy ready",
		"companies", len(sim.Reg.Companies),
		"sectors", len(sim.Reg.Sectors),
		"money", humanize.Comma(money),
		"day", sim.Day(),
	)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.Engine.TicksPerDay)
	eng.Tick = sim.CurrentTick()
	eng.Interval = time.Duration(cfg.Engine.TickIntervalMS) * time.Millisecond
	eng.SetSpeed(cfg.Engine.Speed)

	eng.OnTick = sim.TickMinute
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		if db == nil {
			return
		}
		day := sim.Day()
		if every := cfg.Engine.AutosaveDays; every > 0 && day%every == 0 {
			if err := db.SaveWorldState(sim); err != nil {
				slog.Error("daily save failed", "error", err)
			}
		}
		if every := cfg.Engine.SnapshotDays; every > 0 && day%every == 0 {
			if info, err := db.SaveSnapshot(sim); err != nil {
				slog.Error("snapshot failed", "error", err)
			} else {
				slog.Debug("snapshot saved", "id", info.ID, "size", humanize.Bytes(uint64(info.RawSize)))
			}
			if n, err := db.PruneSnapshots(snapshotsKept); err != nil {
				slog.Error("snapshot prune failed", "error", err)
			} else if n > 0 {
				slog.Debug("snapshots pruned", "count", n)
			}
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn(config.EnvAdminKey + " not set, admin POST endpoints will be disabled")
	}

	hub := api.NewHub()
	go hub.Run()
	bus.Subscribe(hub.Listener())

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Hub:      hub,
		Port:     cfg.API.Port,
		AdminKey: cfg.API.AdminKey,
		Rate:     cfg.API.Rate,
		Burst:    cfg.API.Burst,
	}
	httpServer := apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Printf("Starting at %s (Ctrl+C to stop)\n", engine.SimTime(eng.Tick, eng.TicksPerDay))

	eng.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	hub.Close()

	if db != nil {
		slog.Info("final save...")
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}
	fmt.Println("Simulation stopped.")
}
