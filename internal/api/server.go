package api

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"masterok/internal/booking"
	"masterok/internal/database"
	"masterok/internal/report"
	"masterok/internal/schedule"
)

// ScheduleDefaults fills in weekly-schedule requests that omit hours or days.
type ScheduleDefaults struct {
	Start       string
	End         string
	WorkingDays []time.Weekday
}

// HTTPServer exposes the availability and matching engine over HTTP.
type HTTPServer struct {
	db          *database.DB
	engine      *schedule.Engine
	coordinator *booking.Coordinator
	limiter     *RateLimiter
	defaults    ScheduleDefaults
	reports     *report.Generator
	log         *zerolog.Logger
}

// NewHTTPServer wires the API handlers.
func NewHTTPServer(db *database.DB, engine *schedule.Engine, coordinator *booking.Coordinator, limiter *RateLimiter, defaults ScheduleDefaults, log *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		db:          db,
		engine:      engine,
		coordinator: coordinator,
		limiter:     limiter,
		defaults:    defaults,
		reports:     report.NewGenerator(db, db, log),
		log:         log,
	}
}

// Handler builds the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/masters", s.limited(s.handleRegisterMaster))
	mux.HandleFunc("GET /api/v1/masters/{id}", s.handleGetMaster)
	mux.HandleFunc("PATCH /api/v1/masters/{id}/terminal", s.handleTerminal)
	mux.HandleFunc("POST /api/v1/masters/{id}/schedule/day", s.handleSetDay)
	mux.HandleFunc("POST /api/v1/masters/{id}/schedule/week", s.handleWeeklySchedule)
	mux.HandleFunc("GET /api/v1/masters/{id}/availability", s.handleAvailability)
	mux.HandleFunc("GET /api/v1/masters/{id}/workload", s.handleWorkload)
	mux.HandleFunc("POST /api/v1/masters/{id}/confirm-schedule", s.handleConfirmSchedule)
	mux.HandleFunc("GET /api/v1/masters/{id}/confirmation", s.handleConfirmationStatus)
	mux.HandleFunc("POST /api/v1/jobs", s.limited(s.handleCreateJob))
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/v1/reports/workload", s.handleWorkloadReport)

	return s.withRequestID(mux)
}

// withRequestID tags every request with an ID for log correlation.
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// limited applies the per-client rate limit to write endpoints.
func (s *HTTPServer) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
