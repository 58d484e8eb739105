package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"monthgrid/internal/config"
	"monthgrid/internal/grid"
	appLog "monthgrid/internal/log"
	"monthgrid/internal/refresh"
)

const monthLayout = "2006-01"

// SnapshotSource provides the current event snapshot; *refresh.Refresher
// implements it.
type SnapshotSource interface {
	Snapshot() refresh.Snapshot
}

// Server exposes the event snapshot and computed month grids over HTTP.
type Server struct {
	cfg    *config.Config
	events SnapshotSource
	now    func() time.Time
	router chi.Router
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, events SnapshotSource) *Server {
	s := &Server{
		cfg:    cfg,
		events: events,
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Second))
	}

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.basicAuthEnabled() {
			r.Use(s.basicAuth)
		}
		r.Get("/api/events", s.handleEvents)
		r.Get("/api/grid", s.handleGrid)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// StartServer serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, events SnapshotSource) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewServer(cfg, events).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured with both
// a username and a password.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="monthgrid", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents returns the latest refreshed event snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.events.Snapshot())
}

// GridResponse is the JSON response shape for /api/grid.
type GridResponse struct {
	Month     string      `json:"month"`
	Start     time.Time   `json:"start"`
	Rows      int         `json:"rows"`
	WeekStart string      `json:"week_start"`
	Timezone  string      `json:"timezone"`
	UpdatedAt time.Time   `json:"updated_at"`
	Cells     []grid.Cell `json:"cells"`
}

// handleGrid lays out the snapshot for one month.
//
// GET /api/grid?month=2026-10&rows=6
//   - month: YYYY-MM, default is the current month in the display timezone
//   - rows:  1..12, default is config rows (0 = as many as the month needs)
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := s.now().In(s.cfg.Location())

	month, err := ParseMonth(q.Get("month"), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	rows := s.cfg.Rows
	if v := q.Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > grid.MaxRows {
			writeError(w, http.StatusBadRequest, "rows must be between 1 and "+strconv.Itoa(grid.MaxRows))
			return
		}
		rows = n
	}

	writeJSON(w, http.StatusOK, BuildGrid(s.cfg, month, rows, s.events.Snapshot(), now))
}

// BuildGrid computes the month grid for snap; shared by the HTTP handler and
// the one-shot CLI dump.
func BuildGrid(cfg *config.Config, month time.Time, rows int, snap refresh.Snapshot, now time.Time) GridResponse {
	startOf, rows := grid.Window(month, grid.ParseWeekStart(cfg.WeekStart), rows)
	cells := grid.Build(grid.Params{
		Month:   month,
		StartOf: startOf,
		Rows:    rows,
		Events:  snap.Events,
		Now:     now,
	})

	appLog.Debug("grid built", "month", month.Format(monthLayout), "rows", rows, "events", len(snap.Events))

	return GridResponse{
		Month:     month.Format(monthLayout),
		Start:     startOf,
		Rows:      rows,
		WeekStart: cfg.WeekStart,
		Timezone:  month.Location().String(),
		UpdatedAt: snap.UpdatedAt,
		Cells:     cells,
	}
}

// ParseMonth reads YYYY-MM in now's location; empty means now's month.
func ParseMonth(v string, now time.Time) (time.Time, error) {
	if v == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	return time.ParseInLocation(monthLayout, v, now.Location())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
