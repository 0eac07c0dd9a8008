// Package api serves saved dynasties over HTTP.
// GET endpoints are public (read-only browsing of the run database and
// Prometheus metrics at /metrics).
// POST /api/v1/generate requires a bearer token and is rate limited.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/dynasty-gen/internal/config"
	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/entropy"
	"github.com/talgya/dynasty-gen/internal/export"
	"github.com/talgya/dynasty-gen/internal/people"
	"github.com/talgya/dynasty-gen/internal/persistence"
)

// Server serves the run database over HTTP.
type Server struct {
	DB       *persistence.DB
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Base is the run configuration generate requests are merged onto.
	Base config.Run

	// GenerateLimit caps generate requests per client per hour.
	GenerateLimit int

	metrics *metrics
}

// Handler builds the routing table with a fresh metrics registry.
func (s *Server) Handler() http.Handler {
	limit := s.GenerateLimit
	if limit <= 0 {
		limit = 30
	}
	generateLimiter := NewRateLimiter(limit, time.Hour)
	s.metrics = newMetrics()

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.instrument(pattern, h))
	}

	// Public endpoints (GET, read-only).
	handle("GET /api/v1/runs", s.handleRuns)
	handle("GET /api/v1/runs/{id}", s.handleRun)
	handle("GET /api/v1/runs/{id}/generations/{n}", s.handleGeneration)
	handle("GET /api/v1/runs/{id}/people/{pid}", s.handlePerson)
	handle("GET /api/v1/runs/{id}/events", s.handleEvents)
	handle("GET /api/v1/runs/{id}/gedcom", s.handleGEDCOM)
	handle("GET /api/v1/runs/{id}/ck3", s.handleCK3)
	mux.Handle("GET /metrics", s.metrics.handler())

	// Admin endpoints (POST, require bearer token).
	handle("POST /api/v1/generate", s.adminOnly(RateLimitMiddleware(generateLimiter, s.handleGenerate)))

	return corsMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set DYNASTYGEN_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("DYNASTYGEN_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
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
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no DYNASTYGEN_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.DB.ListRuns()
	if err != nil {
		serverError(w, err)
		return
	}
	type runEntry struct {
		ID          string    `json:"id"`
		Dynasty     string    `json:"dynasty"`
		Seed        int64     `json:"seed"`
		People      int       `json:"people"`
		Generations int       `json:"generations"`
		CreatedAt   time.Time `json:"created_at"`
	}
	out := make([]runEntry, 0, len(runs))
	for _, run := range runs {
		out = append(out, runEntry{
			ID:          run.ID,
			Dynasty:     run.Dynasty,
			Seed:        run.Seed,
			People:      run.People,
			Generations: run.Generations,
			CreatedAt:   run.CreatedAt(),
		})
	}
	writeJSON(w, out)
}

// loadRun fetches the run named in the path, writing the error response
// itself when it fails.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*persistence.Run, bool) {
	run, err := s.DB.LoadRun(r.PathValue("id"))
	if errors.Is(err, persistence.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	return run, true
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"id":         run.ID,
		"seed":       run.Seed,
		"created_at": run.CreatedAt,
		"config":     run.Dynasty.Config,
		"stats":      engine.Summarize(run.Dynasty),
	})
}

func (s *Server) handleGeneration(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 || n >= len(run.Dynasty.Generations) {
		http.Error(w, "generation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run.Dynasty.Generation(n))
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	pid, err := strconv.ParseUint(r.PathValue("pid"), 10, 64)
	p := run.Dynasty.Registry.Get(people.PersonID(pid))
	if err != nil || p == nil {
		http.Error(w, "person not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"person":   p,
		"spouse":   run.Dynasty.Registry.Lookup(p.SpouseID),
		"children": run.Dynasty.Registry.ChildrenOf(p),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := run.Dynasty.Events
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleGEDCOM(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	opts := export.GEDCOMOptions{
		Date:    run.CreatedAt,
		Culture: people.LookupCulture(r.URL.Query().Get("culture")),
	}
	writeText(w, run.ID+".ged", func(out io.Writer) error {
		return export.WriteGEDCOM(out, run.Dynasty, opts)
	})
}

func (s *Server) handleCK3(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := export.CK3Options{
		Culture:        people.LookupCulture(q.Get("culture")),
		Religion:       q.Get("religion"),
		DeathForLiving: q.Get("death_for_living") == "true",
	}
	writeText(w, run.ID+".txt", func(out io.Writer) error {
		return export.WriteCK3(out, run.Dynasty, opts)
	})
}

// handleGenerate runs the generator with the request body merged onto the
// base configuration and saves the result.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req := s.Base.Clone()
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Output = config.Output{}

	cfg, err := req.Engine()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start := time.Now()
	d, err := engine.Run(cfg, entropy.New(req.Seed))
	s.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	id, err := s.DB.SaveRun(d, req.Seed)
	if err != nil {
		serverError(w, err)
		return
	}
	s.metrics.runs.Inc()
	s.metrics.people.Add(float64(d.Registry.Len()))

	w.Header().Set("Location", "/api/v1/runs/"+id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{
		"id":    id,
		"seed":  req.Seed,
		"stats": engine.Summarize(d),
	})
}

func serverError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeText(w http.ResponseWriter, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := write(w); err != nil {
		slog.Error("export failed", "file", filename, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
