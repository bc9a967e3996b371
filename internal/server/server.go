package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/clubm8/clubm8api/internal/handler"
	"github.com/clubm8/clubm8api/internal/middleware"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
	"github.com/clubm8/clubm8api/internal/websocket"
)

// Config carries the settings the HTTP layer needs.
type Config struct {
	DefaultLimit    int
	MaxLimit        int
	Location        *time.Location
	WritesPerMinute int
}

type Server struct {
	db          *sql.DB
	tagH        *handler.TagHandler
	eventH      *handler.EventHandler
	occurrenceH *handler.OccurrenceHandler
	specialH    *handler.OccurrenceHandler
	planH       *handler.PlanHandler
	slotH       *handler.SlotHandler
	newsH       *handler.NewsHandler
	userStore   *store.UserStore
	hub         *websocket.Hub
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	stores := store.New(db, cfg.Location)
	opts := handler.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Location:     cfg.Location,
	}

	return &Server{
		db:          db,
		tagH:        handler.NewTagHandler(stores.Tags, opts, logger.With("component", "tag")),
		eventH:      handler.NewEventHandler(stores.Events, stores.Tags, opts, logger.With("component", "event")),
		occurrenceH: handler.NewOccurrenceHandler("occurence", stores.Occurrences, stores.Events, opts, logger.With("component", "occurence")),
		specialH:    handler.NewOccurrenceHandler("special", stores.Specials, stores.Events, opts, logger.With("component", "special")),
		planH:       handler.NewPlanHandler(stores.Plans, stores.Occurrences, opts, logger.With("component", "plan")),
		slotH:       handler.NewSlotHandler(stores.Slots, stores.Plans, stores.Events, opts, logger.With("component", "slot")),
		newsH:       handler.NewNewsHandler(stores.News, opts, logger.With("component", "news")),
		userStore:   stores.Users,
		hub:         websocket.NewHub(logger.With("component", "feed")),
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

// Hub returns the change feed hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// SetClock replaces the clock used to resolve the current slot.
func (s *Server) SetClock(now func() time.Time) {
	s.slotH.SetClock(now)
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	root := render.RequireFormat(false)(http.HandlerFunc(handler.Root))
	mux.Handle("GET /api/v1/{$}", root)
	mux.Handle("GET /api/v1", root)
	feed := websocket.Handler(s.hub, s.logger.With("component", "feed"), handler.Resources)
	mux.Handle("GET "+handler.APIRoot+"stream/{$}", feed)
	mux.Handle("GET "+handler.APIRoot+"stream", feed)

	// The literal segment is more specific than slot/{id}.
	s.handle(mux, "GET", "slot/current", "slot", s.slotH.Current)

	s.registerResource(mux, "tag", s.tagH)
	s.registerResource(mux, "event", s.eventH)
	s.registerResource(mux, "occurence", s.occurrenceH)
	s.registerResource(mux, "special", s.specialH)
	s.registerResource(mux, "plan", s.planH)
	s.registerResource(mux, "slot", s.slotH)
	s.registerResource(mux, "news", s.newsH)

	var h http.Handler = mux
	h = middleware.ThrottleWrites(s.rateLimiter, s.cfg.WritesPerMinute)(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.RequestID(h)
}

type resourceHandler interface {
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func (s *Server) registerResource(mux *http.ServeMux, name string, h resourceHandler) {
	s.handle(mux, "GET", name, name, h.List)
	s.handle(mux, "POST", name, name, h.Create)
	s.handle(mux, "GET", name+"/{id}", name, h.Get)
	s.handle(mux, "PUT", name+"/{id}", name, h.Update)
	s.handle(mux, "PATCH", name+"/{id}", name, h.Update)
	s.handle(mux, "DELETE", name+"/{id}", name, h.Delete)
}

// calendarRoutes can answer format=ics.
var calendarRoutes = map[string]bool{"GET slot": true}

// handle registers path under /api/v1/ with and without a trailing slash,
// behind the format and API key checks for resource. Successful writes
// are announced on the change feed.
func (s *Server) handle(mux *http.ServeMux, method, path, resource string, h http.HandlerFunc) {
	var inner http.Handler = h
	if method != http.MethodGet {
		inner = websocket.Notify(s.hub, resource)(inner)
	}
	wrapped := middleware.RequireAPIKey(s.userStore, resource)(inner)
	wrapped = render.RequireFormat(calendarRoutes[method+" "+path])(wrapped)
	mux.Handle(method+" "+handler.APIRoot+path+"/{$}", wrapped)
	mux.Handle(method+" "+handler.APIRoot+path, wrapped)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
