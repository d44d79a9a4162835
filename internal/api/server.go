// Package api provides the HTTP API for observing the galaxy.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/economy"
	"github.com/talgya/mini-galaxy/internal/engine"
	"github.com/talgya/mini-galaxy/internal/logistics"
	"github.com/talgya/mini-galaxy/internal/persistence"
	"github.com/talgya/mini-galaxy/internal/world"
)

// Server serves the galaxy state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // optional
	Hub      *Hub            // optional; enables /api/v1/ws
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	Rate  float64 // requests per second per client, 0 = unlimited
	Burst int

	once    sync.Once
	handler http.Handler
}

// Handler builds the routed, rate limited and CORS wrapped handler.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		mux := http.NewServeMux()

		// Public endpoints.
		mux.HandleFunc("GET /api/v1/status", s.handleStatus)
		mux.HandleFunc("GET /api/v1/companies", s.handleCompanies)
		mux.HandleFunc("GET /api/v1/company/{id}", s.handleCompany)
		mux.HandleFunc("GET /api/v1/reputation", s.handleReputation)
		mux.HandleFunc("GET /api/v1/warstate", s.handleWarState)
		mux.HandleFunc("GET /api/v1/confidence", s.handleConfidence)
		mux.HandleFunc("GET /api/v1/sector/{id}/stats", s.handleSectorStats)
		mux.HandleFunc("GET /api/v1/sector/{id}/supply", s.handleSectorSupply)
		mux.HandleFunc("GET /api/v1/stats/world", s.handleWorldStats)
		mux.HandleFunc("GET /api/v1/events", s.handleEvents)
		if s.Hub != nil {
			mux.HandleFunc("GET /api/v1/ws", s.Hub.ServeWS)
		}

		// Admin endpoints.
		mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
		mux.HandleFunc("POST /api/v1/hostility", s.adminOnly(s.handleHostility))
		mux.HandleFunc("POST /api/v1/tribute/accept", s.adminOnly(s.handleTributeAccept))
		mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

		var h http.Handler = mux
		if s.Rate > 0 {
			h = RateLimitMiddleware(NewRateLimiter(s.Rate, max(s.Burst, 1)), h)
		}
		s.handler = corsMiddleware(h)
	})
	return s.handler
}

// ServeHTTP makes the server usable directly with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "websocket", s.Hub != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no WORLDSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.Sim.Read(func(sim *engine.Simulation) {
		status = map[string]any{
			"name":        "Helium Rain",
			"day":         sim.Reg.Day,
			"tick":        sim.LastTick,
			"sim_time":    engine.SimTime(sim.LastTick, sim.TicksPerDay),
			"companies":   len(sim.Reg.Companies),
			"sectors":     len(sim.Reg.Sectors),
			"player":      sim.Reg.Player.Company,
			"wars":        sim.Stats.Wars,
			"total_money": humanize.Comma(sim.Stats.TotalMoney),
		}
	})
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

type companySummary struct {
	ID          world.CompanyID `json:"id"`
	Name        string          `json:"name"`
	Archetype   string          `json:"archetype"`
	Player      bool            `json:"player"`
	Money       int64           `json:"money"`
	MoneyText   string          `json:"money_text"`
	Value       int64           `json:"value"`
	Spacecraft  int             `json:"spacecraft"`
	Pacifism    float64         `json:"pacifism"`
	AtWar       bool            `json:"at_war"`
	Technology  int             `json:"technology_level"`
	ProposesPay bool            `json:"proposes_tribute"`
}

func (s *Server) summarize(sim *engine.Simulation, c *company.Company) companySummary {
	return companySummary{
		ID:          c.ID,
		Name:        c.Name,
		Archetype:   c.Archetype,
		Player:      sim.Reg.IsPlayer(c),
		Money:       c.Money,
		MoneyText:   humanize.Comma(c.Money),
		Value:       sim.Reg.CompanyValue(c, "", false).Total,
		Spacecraft:  len(c.Spacecraft),
		Pacifism:    c.AI.Pacifism,
		AtWar:       sim.Ledger.AtWar(c),
		Technology:  c.TechnologyLevel(),
		ProposesPay: c.AI.ProposeTributeToPlayer,
	}
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	var out []companySummary
	s.Sim.Read(func(sim *engine.Simulation) {
		for _, c := range sim.Reg.Companies {
			out = append(out, s.summarize(sim, c))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	writeJSON(w, out)
}

type relationView struct {
	Company    world.CompanyID `json:"company"`
	Reputation float64         `json:"reputation"` // our opinion of them
	Regard     float64         `json:"regard"`     // their opinion of us
	Hostility  string          `json:"hostility"`  // our declaration
	WarState   string          `json:"war_state"`
	Confidence float64         `json:"confidence"`
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	id := world.CompanyID(r.PathValue("id"))
	var err error
	s.Sim.Read(func(sim *engine.Simulation) {
		var c *company.Company
		c, err = sim.Reg.Lookup(id)
		if err != nil {
			return
		}
		var relations []relationView
		for _, o := range sim.Reg.Others(c) {
			relations = append(relations, relationView{
				Company:    o.ID,
				Reputation: sim.Ledger.Reputation(c, o),
				Regard:     sim.Ledger.Reputation(o, c),
				Hostility:  sim.Ledger.Hostility(c, o).String(),
				WarState:   sim.Ledger.WarState(c, o).String(),
				Confidence: sim.Ledger.Confidence(c, o),
			})
		}
		// Encoded under the lock: profile and budgets are live maps.
		writeJSON(w, map[string]any{
			"summary":            s.summarize(sim, c),
			"value":              sim.Reg.CompanyValue(c, "", false),
			"construction_value": sim.Reg.CompanyValue(c, "", true),
			"profile":            c.Profile,
			"budgets":            c.AI.Budgets,
			"relations":          relations,
			"fleets":             c.Fleets,
			"locked_in_war":      sim.Ledger.LockedInWar(c),
			"tribute_cost":       sim.Ledger.TributeCost(c),
			"last_war_date":      c.LastWarDate,
			"last_peace_date":    c.LastPeaceDate,
			"last_tribute_date":  c.LastTributeDate,
		})
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
	}
}

// pair resolves two company IDs from query parameters under the read lock.
func (s *Server) pair(w http.ResponseWriter, r *http.Request, ka, kb string, optionalB bool, fn func(sim *engine.Simulation, a, b *company.Company)) {
	q := r.URL.Query()
	idA, idB := q.Get(ka), q.Get(kb)
	if idA == "" || (idB == "" && !optionalB) {
		http.Error(w, fmt.Sprintf("%s and %s are required", ka, kb), http.StatusBadRequest)
		return
	}
	var err error
	s.Sim.Read(func(sim *engine.Simulation) {
		var a, b *company.Company
		if a, err = sim.Reg.Lookup(world.CompanyID(idA)); err != nil {
			return
		}
		if idB != "" {
			if b, err = sim.Reg.Lookup(world.CompanyID(idB)); err != nil {
				return
			}
		}
		fn(sim, a, b)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
	}
}

func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request) {
	s.pair(w, r, "from", "to", false, func(sim *engine.Simulation, from, to *company.Company) {
		writeJSON(w, map[string]any{
			"from":       from.ID,
			"to":         to.ID,
			"reputation": sim.Ledger.Reputation(from, to),
		})
	})
}

func (s *Server) handleWarState(w http.ResponseWriter, r *http.Request) {
	s.pair(w, r, "a", "b", false, func(sim *engine.Simulation, a, b *company.Company) {
		writeJSON(w, map[string]any{
			"a":           a.ID,
			"b":           b.ID,
			"hostility":   sim.Ledger.Hostility(a, b).String(),
			"war_state":   sim.Ledger.WarState(a, b).String(),
			"a_locked_in": sim.Ledger.LockedInWar(a),
		})
	})
}

func (s *Server) handleConfidence(w http.ResponseWriter, r *http.Request) {
	s.pair(w, r, "company", "reference", true, func(sim *engine.Simulation, c, ref *company.Company) {
		co := sim.Ledger.Coalitions(c, ref)
		ids := func(cs []*company.Company) []world.CompanyID {
			out := make([]world.CompanyID, len(cs))
			for i, x := range cs {
				out[i] = x.ID
			}
			return out
		}
		resp := map[string]any{
			"company":    c.ID,
			"confidence": sim.Ledger.Confidence(c, ref),
			"allies":     ids(co.Allies),
			"enemies":    ids(co.Enemies),
		}
		if ref != nil {
			resp["reference"] = ref.ID
		}
		writeJSON(w, resp)
	})
}

func (s *Server) handleSectorStats(w http.ResponseWriter, r *http.Request) {
	id := world.SectorID(r.PathValue("id"))
	var stats map[world.ResourceID]*economy.ResourceStats
	found := false
	s.Sim.Read(func(sim *engine.Simulation) {
		sector := sim.Reg.Sector(id)
		if sector == nil {
			return
		}
		found = true
		stats = economy.SectorResourceStats(sector, sim.Reg.Catalog)
	})
	if !found {
		http.Error(w, "unknown sector", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"sector": id, "resources": stats})
}

func (s *Server) handleSectorSupply(w http.ResponseWriter, r *http.Request) {
	id := world.SectorID(r.PathValue("id"))
	cid := world.CompanyID(r.URL.Query().Get("company"))
	if cid == "" {
		http.Error(w, "company is required", http.StatusBadRequest)
		return
	}
	var (
		resp   map[string]any
		status = http.StatusOK
		msg    string
	)
	s.Sim.Read(func(sim *engine.Simulation) {
		sector := sim.Reg.Sector(id)
		if sector == nil {
			status, msg = http.StatusNotFound, "unknown sector"
			return
		}
		c, err := sim.Reg.Lookup(cid)
		if err != nil {
			status, msg = http.StatusNotFound, err.Error()
			return
		}
		var history []float64
		if sector.FleetSupplyConsumption != nil {
			history = append(history, sector.FleetSupplyConsumption.Values...)
		}
		resp = map[string]any{
			"sector":  id,
			"company": cid,
			"supply":  sim.Logistics.FleetSupply(c, sector),
			"repair":  sim.Logistics.Needs(c, sector, logistics.Repair),
			"refill":  sim.Logistics.Needs(c, sector, logistics.Refill),
			"history": history,
		}
	})
	if status != http.StatusOK {
		http.Error(w, msg, status)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleWorldStats(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	s.Sim.Read(func(sim *engine.Simulation) {
		resp = map[string]any{
			"day":       sim.Stats,
			"resources": economy.WorldResourceStats(sim.Reg.Sectors, sim.Reg.Catalog),
		}
	})
	writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	evs := s.Sim.Bus.Recent(limit)
	if len(evs) == 0 && s.DB != nil {
		// Fresh process after a restart: fall back to the persisted log.
		stored, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("load events failed", "error", err)
		}
		evs = stored
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := evs[:0:0]
		for _, e := range evs {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		evs = filtered
	}
	writeJSON(w, evs)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleHostility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source  world.CompanyID `json:"source"`
		Target  world.CompanyID `json:"target"`
		Hostile bool            `json:"hostile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Source == req.Target {
		http.Error(w, "source and target must differ", http.StatusBadRequest)
		return
	}

	var (
		resp map[string]any
		err  error
	)
	s.Sim.Write(func(sim *engine.Simulation) {
		var src, dst *company.Company
		if src, err = sim.Reg.Lookup(req.Source); err != nil {
			return
		}
		if dst, err = sim.Reg.Lookup(req.Target); err != nil {
			return
		}
		sim.Ledger.SetHostilityTo(src, dst, req.Hostile)
		resp = map[string]any{
			"source":    src.ID,
			"target":    dst.ID,
			"hostility": sim.Ledger.Hostility(src, dst).String(),
			"war_state": sim.Ledger.WarState(src, dst).String(),
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	slog.Info("hostility set by admin", "source", req.Source, "target", req.Target, "hostile", req.Hostile)
	writeJSON(w, resp)
}

// handleTributeAccept lets the player take up a pending tribute offer.
func (s *Server) handleTributeAccept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Company world.CompanyID `json:"company"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		status = http.StatusOK
		msg    string
		paid   int64
	)
	s.Sim.Write(func(sim *engine.Simulation) {
		payer, err := sim.Reg.Lookup(req.Company)
		if err != nil {
			status, msg = http.StatusNotFound, err.Error()
			return
		}
		player := sim.Reg.PlayerCompany()
		if player == nil || payer == player {
			status, msg = http.StatusBadRequest, "no player to receive tribute"
			return
		}
		if !payer.AI.ProposeTributeToPlayer {
			status, msg = http.StatusConflict, "no tribute offer pending"
			return
		}
		paid = max(sim.Ledger.TributeCost(payer), 0)
		if !sim.Ledger.PayTribute(payer, player, false) {
			status, msg = http.StatusConflict, "payer cannot afford tribute"
		}
	})
	if status != http.StatusOK {
		http.Error(w, msg, status)
		return
	}
	slog.Info("tribute accepted", "payer", req.Company, "amount", humanize.Comma(paid))
	writeJSON(w, map[string]any{"payer": req.Company, "amount": paid})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodGet {
		list, err := s.DB.Snapshots()
		if err != nil {
			http.Error(w, "list snapshots failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, list)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("world save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	info, err := s.DB.SaveSnapshot(s.Sim)
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":     s.Sim.CurrentTick(),
		"snapshot": info,
		"message":  "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
