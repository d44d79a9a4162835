// Package config loads the simulation configuration: a YAML file laid over
// built-in defaults, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-galaxy/internal/ai"
	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/diplomacy"
	"github.com/talgya/mini-galaxy/internal/logistics"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Environment variables read by ApplyEnv and the command.
const (
	EnvConfig   = "WORLDSIM_CONFIG"
	EnvDB       = "WORLDSIM_DB"
	EnvPort     = "WORLDSIM_PORT"
	EnvAdminKey = "WORLDSIM_ADMIN_KEY"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the whole configuration.
type Config struct {
	Seed     int64  `yaml:"seed"`
	LogLevel string `yaml:"log_level"`
	DBPath   string `yaml:"db_path"`

	API       API              `yaml:"api"`
	Engine    Engine           `yaml:"engine"`
	Diplomacy diplomacy.Config `yaml:"diplomacy"`
	Logistics logistics.Config `yaml:"logistics"`
	Scenario  Scenario         `yaml:"scenario"`

	// Profiles overrides archetype profile values per company.
	Profiles map[world.CompanyID]company.ProfileOverride `yaml:"profiles"`
}

// API configures the HTTP surface.
type API struct {
	Port         int     `yaml:"port"`
	AdminKey     string  `yaml:"admin_key"`
	Rate         float64 `yaml:"rate"`  // requests per second per client
	Burst        int     `yaml:"burst"` // rate limiter bucket size
	EventHistory int     `yaml:"event_history"`
}

// Engine configures the clock.
type Engine struct {
	TicksPerDay    uint64  `yaml:"ticks_per_day"`
	TickIntervalMS int     `yaml:"tick_interval_ms"`
	Speed          float64 `yaml:"speed"`
	AutosaveDays   int64   `yaml:"autosave_days"`
	SnapshotDays   int64   `yaml:"snapshot_days"`
}

// Scenario describes the starting galaxy.
type Scenario struct {
	Player      world.CompanyID `yaml:"player"`
	PlayerFleet world.FleetID   `yaml:"player_fleet"`
	World       world.GenConfig `yaml:"world"`
	Landmarks   ai.Landmarks    `yaml:"landmarks"`
	Companies   []CompanySpec   `yaml:"companies"`
}

// CompanySpec seeds one company.
type CompanySpec struct {
	ID            world.CompanyID `yaml:"id"`
	Name          string          `yaml:"name"`
	Archetype     string          `yaml:"archetype"`
	Money         int64           `yaml:"money"`
	Home          world.SectorID  `yaml:"home"`
	Freighters    int             `yaml:"freighters"`
	Warships      int             `yaml:"warships"`
	WarshipPoints int             `yaml:"warship_points"`
	Stations      []StationSpec   `yaml:"stations"`
}

// StationSpec seeds one station. A station with outputs runs a factory;
// a depot stocks fleet supply for maintenance.
type StationSpec struct {
	Name     string                 `yaml:"name"`
	Sector   world.SectorID         `yaml:"sector"` // empty = company home
	Inputs   []world.ResourceAmount `yaml:"inputs"`
	Outputs  []world.ResourceAmount `yaml:"outputs"`
	Duration int64                  `yaml:"duration"`
	Depot    bool                   `yaml:"depot"`
	Capacity int                    `yaml:"capacity"` // per slot
	Stock    int                    `yaml:"stock"`    // initial output or depot stock
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Seed:     42,
		LogLevel: "info",
		DBPath:   "data/galaxy.db",
		API: API{
			Port:         8080,
			Rate:         10,
			Burst:        20,
			EventHistory: 500,
		},
		Engine: Engine{
			TicksPerDay:    60,
			TickIntervalMS: 1000,
			Speed:          1,
			AutosaveDays:   1,
			SnapshotDays:   1,
		},
		Diplomacy: diplomacy.DefaultConfig(),
		Logistics: logistics.DefaultConfig(),
		Scenario:  DefaultScenario(),
	}
}

// DefaultScenario is the stock galaxy: the player and nine AI companies.
func DefaultScenario() Scenario {
	amt := func(r world.ResourceID, q int) []world.ResourceAmount {
		return []world.ResourceAmount{{Resource: r, Quantity: q}}
	}
	factory := func(name string, in, out []world.ResourceAmount) StationSpec {
		return StationSpec{Name: name, Inputs: in, Outputs: out, Duration: 5, Capacity: 500, Stock: 100}
	}
	return Scenario{
		Player:      "player",
		PlayerFleet: "player-fleet",
		World:       world.DefaultGenConfig(),
		Landmarks:   ai.DefaultLandmarks(),
		Companies: []CompanySpec{
			{ID: "player", Name: "Player Company", Archetype: ai.ArchetypeDefault, Money: 500_000, Home: "the-depths", Freighters: 1},
			{ID: "pirates", Name: "Pirates", Archetype: ai.ArchetypePirates, Money: 300_000, Home: "boneyard", Warships: 3, WarshipPoints: 20},
			{ID: "mining-syndicate", Name: "Mining Syndicate", Archetype: ai.ArchetypeMiningSyndicate, Money: 1_000_000, Home: "the-depths",
				Freighters: 2, Warships: 1, WarshipPoints: 10,
				Stations: []StationSpec{factory("Ice Mine", nil, amt("water", 50)), factory("Silica Pit", nil, amt("silica", 40))}},
			{ID: "helix-foundries", Name: "Helix Foundries", Archetype: ai.ArchetypeHelixFoundries, Money: 1_000_000, Home: "outpost",
				Freighters: 2, Warships: 1, WarshipPoints: 10,
				Stations: []StationSpec{factory("Helix Foundry", amt("iron-oxide", 20), amt("steel", 10))}},
			{ID: "sunwatch", Name: "Sunwatch", Archetype: ai.ArchetypeSunwatch, Money: 1_000_000, Home: "lighthouse",
				Freighters: 2, Warships: 1, WarshipPoints: 10,
				Stations: []StationSpec{factory("Fuel Refinery", amt("hydrogen", 20), amt("fuel", 10))}},
			{ID: "ion-lane", Name: "Ion Lane", Archetype: ai.ArchetypeIonLane, Money: 1_000_000, Home: "blue-heart",
				Freighters: 4, Warships: 2, WarshipPoints: 10},
			{ID: "united-farms-chemicals", Name: "United Farms & Chemicals", Archetype: ai.ArchetypeUnitedFarmsChemicals, Money: 1_000_000, Home: "frozen-realm",
				Freighters: 2, Warships: 1, WarshipPoints: 10,
				Stations: []StationSpec{factory("Greenhouse", amt("water", 20), amt("food", 10))}},
			{ID: "nema-heavy-works", Name: "Nema Heavy Works", Archetype: ai.ArchetypeNemaHeavyWorks, Money: 1_000_000, Home: "the-depths",
				Freighters: 2, Warships: 2, WarshipPoints: 10,
				Stations: []StationSpec{factory("Tool Works", amt("steel", 10), amt("tools", 5))}},
			{ID: "axis-supplies", Name: "Axis Supplies", Archetype: ai.ArchetypeAxisSupplies, Money: 1_000_000, Home: "the-spire",
				Freighters: 2,
				Stations:   []StationSpec{{Name: "Axis Depot", Depot: true, Capacity: 1000, Stock: 400}}},
			{ID: "ghostworks-shipyards", Name: "GhostWorks Shipyards", Archetype: ai.ArchetypeGhostWorks, Money: 1_000_000, Home: "night-s-home",
				Freighters: 2, Warships: 1, WarshipPoints: 10,
				Stations: []StationSpec{factory("Chip Fab", amt("silica", 20), amt("tech", 5))}},
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides the database path, port and admin key from the
// environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.API.Port = port
	}
	if v := os.Getenv(EnvAdminKey); v != "" {
		c.API.AdminKey = v
	}
	return nil
}

// Validate checks the values the simulation cannot run without.
func (c Config) Validate() error {
	if c.Engine.TicksPerDay == 0 {
		return fmt.Errorf("%w: engine.ticks_per_day must be positive", ErrInvalid)
	}
	if c.Engine.Speed < 0 {
		return fmt.Errorf("%w: engine.speed must not be negative", ErrInvalid)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("%w: api.port %d out of range", ErrInvalid, c.API.Port)
	}
	seen := make(map[world.CompanyID]bool, len(c.Scenario.Companies))
	for _, cs := range c.Scenario.Companies {
		if cs.ID == "" {
			return fmt.Errorf("%w: company without id", ErrInvalid)
		}
		if seen[cs.ID] {
			return fmt.Errorf("%w: duplicate company %q", ErrInvalid, cs.ID)
		}
		seen[cs.ID] = true
	}
	for id := range c.Profiles {
		if !seen[id] {
			return fmt.Errorf("%w: profile for unknown company %q", ErrInvalid, id)
		}
	}
	return nil
}

// SlogLevel parses LogLevel, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
