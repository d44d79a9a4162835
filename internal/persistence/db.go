// Package persistence provides SQLite storage of the per-company save
// payloads, the world clock, the event log and compressed snapshots.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/engine"
	"github.com/talgya/mini-galaxy/internal/events"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Meta keys.
const (
	MetaDay      = "day"
	MetaLastTick = "last_tick"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		archetype TEXT NOT NULL,
		money INTEGER NOT NULL,
		research_amount INTEGER NOT NULL,
		research_spent INTEGER NOT NULL,
		research_ratio REAL NOT NULL,
		last_war_date INTEGER NOT NULL,
		last_peace_date INTEGER NOT NULL,
		last_tribute_date INTEGER NOT NULL,
		pacifism REAL NOT NULL,
		caution REAL NOT NULL,
		override_json TEXT
	);

	CREATE TABLE IF NOT EXISTS reputations (
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (source, target)
	);

	CREATE TABLE IF NOT EXISTS hostilities (
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (source, target)
	);

	CREATE TABLE IF NOT EXISTS technologies (
		company TEXT NOT NULL,
		technology TEXT NOT NULL,
		PRIMARY KEY (company, technology)
	);

	CREATE TABLE IF NOT EXISTS sector_knowledge (
		company TEXT NOT NULL,
		sector TEXT NOT NULL,
		visited INTEGER NOT NULL,
		PRIMARY KEY (company, sector)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		resource TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		message TEXT NOT NULL,
		bundle_json TEXT
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		day INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		checksum TEXT NOT NULL,
		raw_size INTEGER NOT NULL,
		data BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_snapshots_day ON snapshots(day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type companyRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Archetype       string         `db:"archetype"`
	Money           int64          `db:"money"`
	ResearchAmount  int64          `db:"research_amount"`
	ResearchSpent   int64          `db:"research_spent"`
	ResearchRatio   float64        `db:"research_ratio"`
	LastWarDate     int64          `db:"last_war_date"`
	LastPeaceDate   int64          `db:"last_peace_date"`
	LastTributeDate int64          `db:"last_tribute_date"`
	Pacifism        float64        `db:"pacifism"`
	Caution         float64        `db:"caution"`
	OverrideJSON    sql.NullString `db:"override_json"`
}

type pairRow struct {
	Source string  `db:"source"`
	Target string  `db:"target"`
	Value  float64 `db:"value"`
}

type techRow struct {
	Company    string `db:"company"`
	Technology string `db:"technology"`
}

type sectorRow struct {
	Company string `db:"company"`
	Sector  string `db:"sector"`
	Visited bool   `db:"visited"`
}

// SaveCompanies writes all company payloads (full replace).
func (db *DB) SaveCompanies(saves []company.Save) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"companies", "reputations", "hostilities", "technologies", "sector_knowledge"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO companies
		(id, name, archetype, money, research_amount, research_spent, research_ratio,
		 last_war_date, last_peace_date, last_tribute_date, pacifism, caution, override_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range saves {
		var override sql.NullString
		if s.Override != nil {
			data, err := json.Marshal(s.Override)
			if err != nil {
				return fmt.Errorf("encode override %s: %w", s.ID, err)
			}
			override = sql.NullString{String: string(data), Valid: true}
		}
		_, err := stmt.Exec(
			s.ID, s.Name, s.Archetype, s.Money,
			s.ResearchAmount, s.ResearchSpent, s.ResearchRatio,
			s.LastWarDate, s.LastPeaceDate, s.LastTributeDate,
			s.Pacifism, s.Caution, override,
		)
		if err != nil {
			return fmt.Errorf("insert company %s: %w", s.ID, err)
		}

		for target, v := range s.Reputations {
			if _, err := tx.Exec("INSERT INTO reputations (source, target, value) VALUES (?, ?, ?)", s.ID, target, v); err != nil {
				return fmt.Errorf("insert reputation %s->%s: %w", s.ID, target, err)
			}
		}
		for _, target := range s.Hostile {
			if _, err := tx.Exec("INSERT INTO hostilities (source, target) VALUES (?, ?)", s.ID, target); err != nil {
				return fmt.Errorf("insert hostility %s->%s: %w", s.ID, target, err)
			}
		}
		for _, tech := range s.Technologies {
			if _, err := tx.Exec("INSERT INTO technologies (company, technology) VALUES (?, ?)", s.ID, tech); err != nil {
				return fmt.Errorf("insert technology %s/%s: %w", s.ID, tech, err)
			}
		}
		visited := make(map[world.SectorID]bool, len(s.VisitedSectors))
		for _, id := range s.VisitedSectors {
			visited[id] = true
		}
		known := append([]world.SectorID(nil), s.KnownSectors...)
		for _, id := range s.VisitedSectors {
			if !containsSector(known, id) {
				known = append(known, id)
			}
		}
		for _, id := range known {
			if _, err := tx.Exec("INSERT INTO sector_knowledge (company, sector, visited) VALUES (?, ?, ?)", s.ID, id, visited[id]); err != nil {
				return fmt.Errorf("insert sector %s/%s: %w", s.ID, id, err)
			}
		}
	}

	return tx.Commit()
}

func containsSector(ids []world.SectorID, id world.SectorID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// LoadCompanies reads every company payload, in id order.
func (db *DB) LoadCompanies() ([]company.Save, error) {
	var rows []companyRow
	if err := db.conn.Select(&rows, "SELECT * FROM companies ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select companies: %w", err)
	}

	saves := make([]company.Save, len(rows))
	index := make(map[world.CompanyID]*company.Save, len(rows))
	for i, r := range rows {
		s := company.Save{
			ID:              world.CompanyID(r.ID),
			Name:            r.Name,
			Archetype:       r.Archetype,
			Money:           r.Money,
			ResearchAmount:  r.ResearchAmount,
			ResearchSpent:   r.ResearchSpent,
			ResearchRatio:   r.ResearchRatio,
			LastWarDate:     r.LastWarDate,
			LastPeaceDate:   r.LastPeaceDate,
			LastTributeDate: r.LastTributeDate,
			Pacifism:        r.Pacifism,
			Caution:         r.Caution,
			Reputations:     make(map[world.CompanyID]float64),
		}
		if r.OverrideJSON.Valid {
			var o company.ProfileOverride
			if err := json.Unmarshal([]byte(r.OverrideJSON.String), &o); err != nil {
				return nil, fmt.Errorf("decode override %s: %w", r.ID, err)
			}
			s.Override = &o
		}
		saves[i] = s
		index[s.ID] = &saves[i]
	}

	var reps []pairRow
	if err := db.conn.Select(&reps, "SELECT source, target, value FROM reputations"); err != nil {
		return nil, fmt.Errorf("select reputations: %w", err)
	}
	for _, r := range reps {
		if s := index[world.CompanyID(r.Source)]; s != nil {
			s.Reputations[world.CompanyID(r.Target)] = r.Value
		}
	}

	var hostile []pairRow
	if err := db.conn.Select(&hostile, "SELECT source, target FROM hostilities ORDER BY source, target"); err != nil {
		return nil, fmt.Errorf("select hostilities: %w", err)
	}
	for _, r := range hostile {
		if s := index[world.CompanyID(r.Source)]; s != nil {
			s.Hostile = append(s.Hostile, world.CompanyID(r.Target))
		}
	}

	var techs []techRow
	if err := db.conn.Select(&techs, "SELECT company, technology FROM technologies ORDER BY company, technology"); err != nil {
		return nil, fmt.Errorf("select technologies: %w", err)
	}
	for _, r := range techs {
		if s := index[world.CompanyID(r.Company)]; s != nil {
			s.Technologies = append(s.Technologies, world.TechnologyID(r.Technology))
		}
	}

	var sectors []sectorRow
	if err := db.conn.Select(&sectors, "SELECT company, sector, visited FROM sector_knowledge ORDER BY company, sector"); err != nil {
		return nil, fmt.Errorf("select sectors: %w", err)
	}
	for _, r := range sectors {
		s := index[world.CompanyID(r.Company)]
		if s == nil {
			continue
		}
		s.KnownSectors = append(s.KnownSectors, world.SectorID(r.Sector))
		if r.Visited {
			s.VisitedSectors = append(s.VisitedSectors, world.SectorID(r.Sector))
		}
	}

	return saves, nil
}

type eventRow struct {
	ID         string         `db:"id"`
	Seq        int64          `db:"seq"`
	Day        int64          `db:"day"`
	Kind       string         `db:"kind"`
	Source     string         `db:"source"`
	Target     string         `db:"target"`
	Resource   string         `db:"resource"`
	Quantity   int            `db:"quantity"`
	Message    string         `db:"message"`
	BundleJSON sql.NullString `db:"bundle_json"`
}

// SaveEvents appends events. Events already stored are skipped.
func (db *DB) SaveEvents(evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.Get(&seq, "SELECT COALESCE(MAX(seq), 0) FROM events"); err != nil {
		return fmt.Errorf("event seq: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO events
		(id, seq, day, kind, source, target, resource, quantity, message, bundle_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range evs {
		if e.ID == "" {
			continue
		}
		var bundle sql.NullString
		if e.Bundle != nil {
			data, err := json.Marshal(e.Bundle)
			if err != nil {
				return fmt.Errorf("encode bundle %s: %w", e.ID, err)
			}
			bundle = sql.NullString{String: string(data), Valid: true}
		}
		seq++
		if _, err := stmt.Exec(e.ID, seq, e.Day, string(e.Kind), e.Source, e.Target, e.Resource, e.Quantity, e.Message, bundle); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent events, oldest first.
func (db *DB) RecentEvents(limit int) ([]events.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows, "SELECT * FROM events ORDER BY seq DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		e := events.Event{
			ID:       r.ID,
			Day:      r.Day,
			Kind:     events.Kind(r.Kind),
			Source:   world.CompanyID(r.Source),
			Target:   world.CompanyID(r.Target),
			Resource: world.ResourceID(r.Resource),
			Quantity: r.Quantity,
			Message:  r.Message,
		}
		if r.BundleJSON.Valid {
			e.Bundle = &events.Bundle{}
			if err := json.Unmarshal([]byte(r.BundleJSON.String), e.Bundle); err != nil {
				return nil, fmt.Errorf("decode bundle %s: %w", r.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a previous run saved its clock.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta(MetaDay)
	return err == nil
}

// SaveWorldState performs a full save of the simulation.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	saves := sim.Saves()
	day, tick := sim.Day(), sim.CurrentTick()
	slog.Info("saving world state", "companies", len(saves), "day", day)

	if err := db.SaveCompanies(saves); err != nil {
		return fmt.Errorf("save companies: %w", err)
	}
	if sim.Bus != nil {
		if err := db.SaveEvents(sim.Bus.Recent(0)); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
	}
	if err := db.SaveMeta(MetaDay, strconv.FormatInt(day, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta(MetaLastTick, strconv.FormatUint(tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// LoadWorldState restores company payloads and the clock into sim. It
// reports false when nothing was saved yet.
func (db *DB) LoadWorldState(sim *engine.Simulation) (bool, error) {
	dayStr, err := db.GetMeta(MetaDay)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load meta: %w", err)
	}
	day, err := strconv.ParseInt(dayStr, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse day %q: %w", dayStr, err)
	}
	var tick uint64
	if tickStr, err := db.GetMeta(MetaLastTick); err == nil {
		if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
			tick = t
		}
	}

	saves, err := db.LoadCompanies()
	if err != nil {
		return false, err
	}
	sim.Restore(day, tick, saves)
	slog.Info("world state restored", "companies", len(saves), "day", day, "tick", tick)
	return true, nil
}
