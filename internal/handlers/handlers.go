package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"podcast-discovery/internal/discovery"
	"podcast-discovery/internal/middleware"
	"podcast-discovery/internal/models"
)

// DiscoveryService is what the HTTP layer needs from the engine.
type DiscoveryService interface {
	GetTrending(ctx context.Context, limit int) (discovery.PodcastPage, error)
	GetRecommendations(ctx context.Context, userID string, limit, offset int) (discovery.PodcastPage, error)
	Browse(ctx context.Context, q discovery.BrowseQuery) (discovery.PodcastPage, error)
	Search(ctx context.Context, q discovery.SearchQuery) (discovery.SearchResult, error)
	GetFeatured(ctx context.Context) (discovery.PodcastPage, error)
	GetNewReleases(ctx context.Context, limit, offset int) (discovery.EpisodePage, error)
	GetHome(ctx context.Context, userID string, limit int) discovery.HomeFeed
	PodcastViews(ctx context.Context, podcasts []models.Podcast) ([]discovery.PodcastView, error)
	SearchViews(ctx context.Context, result discovery.SearchResult) (discovery.SearchView, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	discovery DiscoveryService
	db        Pinger
	logger    zerolog.Logger
}

func New(svc DiscoveryService, db Pinger, logger zerolog.Logger) *Handlers {
	return &Handlers{
		discovery: svc,
		db:        db,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// Router wires the API routes. auth and limiter may be nil.
func (h *Handlers) Router(auth *middleware.Authenticator, limiter *middleware.RateLimiterMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Instrument(h.logger))

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	if auth != nil {
		api.Use(auth.Middleware)
	}
	if limiter != nil {
		api.Use(limiter.Middleware)
	}

	d := api.PathPrefix("/discovery").Subrouter()
	d.HandleFunc("/browse", h.Browse).Methods(http.MethodGet)
	d.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	d.HandleFunc("/trending", h.Trending).Methods(http.MethodGet)
	d.HandleFunc("/new-releases", h.NewReleases).Methods(http.MethodGet)
	d.HandleFunc("/featured", h.Featured).Methods(http.MethodGet)
	d.Handle("/recommendations", middleware.RequireUser(http.HandlerFunc(h.Recommendations))).Methods(http.MethodGet)

	api.HandleFunc("/home", h.Home).Methods(http.MethodGet)
	return r
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{StatusCode: status, Message: message})
}
