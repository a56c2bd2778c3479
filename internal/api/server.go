// Package api exposes the scanner over HTTP: trigger a scan, read the last
// results, and read or replace the configuration.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"evetrade/internal/config"
	"evetrade/internal/engine"
	"evetrade/internal/esi"
	"evetrade/internal/logger"
	"evetrade/internal/scan"
)

// Runner is the pipeline surface the server drives (implemented by
// *scan.Scanner).
type Runner interface {
	FetchSnapshot(opts scan.FetchOptions) (int, error)
	Run(params engine.Params) ([]engine.Trip, error)
}

// Namer resolves IDs to display names for the JSON views. Lookup failures
// degrade to placeholder names, so this interface never errors.
type Namer interface {
	SystemName(systemID int32) string
	ItemName(typeID int32) string
}

// Server holds the config, the pipeline, and the last scan's results.
type Server struct {
	cfgPath string
	runner  Runner
	names   Namer

	// mu guards cfg and the last scan's results; config replacement and
	// scans run from concurrent requests.
	mu       sync.RWMutex
	cfg      *config.Config
	trips    []TripView
	lastScan time.Time
}

// NewServer creates a Server. cfgPath is where config replacements are
// persisted; empty disables persistence.
func NewServer(cfg *config.Config, cfgPath string, runner Runner, names Namer) *Server {
	return &Server{cfg: cfg, cfgPath: cfgPath, runner: runner, names: names}
}

// TradeView is the JSON rendering of a matched trade.
type TradeView struct {
	TypeID    int32   `json:"type_id"`
	Item      string  `json:"item"`
	Quantity  int64   `json:"quantity"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	Profit    float64 `json:"profit"`
}

// TripView is the JSON rendering of an assembled trip.
type TripView struct {
	StartSystemID int32       `json:"start_system_id"`
	EndSystemID   int32       `json:"end_system_id"`
	StartSystem   string      `json:"start_system"`
	EndSystem     string      `json:"end_system"`
	Jumps         int         `json:"jumps"`
	Volume        float64     `json:"volume"`
	Profit        float64     `json:"profit"`
	ProfitPerJump float64     `json:"profit_per_jump"`
	Trades        []TradeView `json:"trades"`
}

func (s *Server) tripView(trip engine.Trip) TripView {
	view := TripView{
		StartSystemID: trip.StartSystem,
		EndSystemID:   trip.EndSystem,
		StartSystem:   s.names.SystemName(trip.StartSystem),
		EndSystem:     s.names.SystemName(trip.EndSystem),
		Jumps:         trip.Jumps,
		Volume:        trip.Volume,
		Profit:        trip.Profit(),
		ProfitPerJump: trip.ProfitPerJump(),
		Trades:        make([]TradeView, 0, len(trip.Trades)),
	}
	for _, trade := range trip.Trades {
		view.Trades = append(view.Trades, TradeView{
			TypeID:    trade.TypeID,
			Item:      s.names.ItemName(trade.TypeID),
			Quantity:  trade.Quantity,
			BuyPrice:  trade.Buy.Price,
			SellPrice: trade.Sell.Price,
			Profit:    trade.Profit(),
		})
	}
	return view
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Get("/trips", s.handleTrips)
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
	})
	return r
}

// ListenAndServe runs the API on the configured port.
func (s *Server) ListenAndServe() error {
	s.mu.RLock()
	port := s.cfg.Port
	s.mu.RUnlock()
	addr := fmt.Sprintf(":%d", port)
	logger.Info("API", "Listening on "+addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // scans can be slow
	}
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scanRequest optionally overrides the configured thresholds for one scan.
// Absent fields fall back to the config.
type scanRequest struct {
	Fetch             bool     `json:"fetch"` // pull a fresh snapshot first
	MaxVolume         *float64 `json:"max_volume"`
	MinProfitPerTrip  *float64 `json:"min_profit_per_trip"`
	MinProfitPerTrade *float64 `json:"min_profit_per_trade"`
	MinProfitPerJump  *float64 `json:"min_profit_per_jump"`
	SafeRoutesOnly    *bool    `json:"safe_routes_only"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	// One consistent view of the config for the whole scan, even if a
	// concurrent PUT replaces it mid-flight.
	s.mu.RLock()
	cfg := *s.cfg
	s.mu.RUnlock()

	params := cfg.EngineParams()
	if req.MaxVolume != nil {
		params.MaxVolume = *req.MaxVolume
	}
	if req.MinProfitPerTrip != nil {
		params.MinProfitPerTrip = *req.MinProfitPerTrip
	}
	if req.MinProfitPerTrade != nil {
		params.MinProfitPerTrade = *req.MinProfitPerTrade
	}
	if req.MinProfitPerJump != nil {
		params.MinProfitPerJump = *req.MinProfitPerJump
	}
	if req.SafeRoutesOnly != nil {
		params.SafeRoutesOnly = *req.SafeRoutesOnly
	}
	if params.MaxVolume <= 0 {
		writeError(w, http.StatusBadRequest, "max_volume must be positive")
		return
	}

	if req.Fetch {
		opts := scan.FetchOptions{
			Regions:          cfg.RegionFilter(),
			IgnoreContraband: cfg.IgnoreContraband,
		}
		if _, err := s.runner.FetchSnapshot(opts); err != nil {
			writeError(w, http.StatusBadGateway, "fetch snapshot: "+err.Error())
			return
		}
	}

	trips, err := s.runner.Run(params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]TripView, 0, len(trips))
	for _, trip := range trips {
		views = append(views, s.tripView(trip))
	}

	s.mu.Lock()
	s.trips = views
	s.lastScan = time.Now()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trips": views,
		"count": len(views),
	})
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	views := s.trips
	last := s.lastScan
	s.mu.RUnlock()

	if views == nil {
		views = []TripView{}
	}
	resp := map[string]interface{}{
		"trips": views,
		"count": len(views),
	}
	if !last.IsZero() {
		resp["scanned_at"] = last.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cfg := *s.cfg
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, cfg)
}

// handlePutConfig replaces the config wholesale. Fields absent from the body
// keep their current values.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	next := *s.cfg
	s.mu.RUnlock()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if next.MaxVolume <= 0 {
		writeError(w, http.StatusBadRequest, "max_volume must be positive")
		return
	}
	switch esi.RegionFilter(next.Regions) {
	case esi.RegionsAll, esi.RegionsEmpire, esi.RegionsNull:
	default:
		writeError(w, http.StatusBadRequest, "regions must be all, empire or null")
		return
	}

	s.mu.Lock()
	*s.cfg = next
	if s.cfgPath != "" {
		if err := s.cfg.Save(s.cfgPath); err != nil {
			s.mu.Unlock()
			writeError(w, http.StatusInternalServerError, "save config: "+err.Error())
			return
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, next)
}
