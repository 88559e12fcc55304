package handlers

import (
	"errors"
	"net/http"

	"podcast-discovery/internal/discovery"
	"podcast-discovery/internal/middleware"
)

type podcastListResponse struct {
	Items []discovery.PodcastView `json:"items"`
	Total int                     `json:"total"`
}

type episodeListResponse struct {
	Items []discovery.EpisodeView `json:"items"`
	Total int                     `json:"total"`
}

func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	var params browseParams
	if !h.bind(w, r, &params) {
		return
	}
	page, err := h.discovery.Browse(r.Context(), discovery.BrowseQuery{
		Category: params.Category,
		Tags:     params.Tags,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	h.writePodcastPage(w, r, page, err, "browse")
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var params searchParams
	if !h.bind(w, r, &params) {
		return
	}
	result, err := h.discovery.Search(r.Context(), discovery.SearchQuery{
		Query:  params.Q,
		Type:   params.Type,
		Tags:   params.Tags,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		h.handleError(w, err, "search")
		return
	}
	view, err := h.discovery.SearchViews(r.Context(), result)
	if err != nil {
		h.handleError(w, err, "search")
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) Trending(w http.ResponseWriter, r *http.Request) {
	var params limitParams
	if !h.bind(w, r, &params) {
		return
	}
	page, err := h.discovery.GetTrending(r.Context(), params.Limit)
	h.writePodcastPage(w, r, page, err, "trending")
}

func (h *Handlers) NewReleases(w http.ResponseWriter, r *http.Request) {
	var params pageParams
	if !h.bind(w, r, &params) {
		return
	}
	page, err := h.discovery.GetNewReleases(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.handleError(w, err, "new releases")
		return
	}
	h.writeJSON(w, http.StatusOK, episodeListResponse{Items: discovery.EpisodeViews(page.Items), Total: page.Total})
}

func (h *Handlers) Featured(w http.ResponseWriter, r *http.Request) {
	page, err := h.discovery.GetFeatured(r.Context())
	h.writePodcastPage(w, r, page, err, "featured")
}

func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var params pageParams
	if !h.bind(w, r, &params) {
		return
	}
	page, err := h.discovery.GetRecommendations(r.Context(), userID, params.Limit, params.Offset)
	h.writePodcastPage(w, r, page, err, "recommendations")
}

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	var params limitParams
	if !h.bind(w, r, &params) {
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	h.writeJSON(w, http.StatusOK, h.discovery.GetHome(r.Context(), userID, params.Limit))
}

func (h *Handlers) writePodcastPage(w http.ResponseWriter, r *http.Request, page discovery.PodcastPage, err error, op string) {
	if err != nil {
		h.handleError(w, err, op)
		return
	}
	views, err := h.discovery.PodcastViews(r.Context(), page.Items)
	if err != nil {
		h.handleError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, podcastListResponse{Items: views, Total: page.Total})
}

func (h *Handlers) handleError(w http.ResponseWriter, err error, op string) {
	var verr *discovery.ValidationError
	if errors.As(err, &verr) {
		h.writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	h.logger.Error().Err(err).Str("operation", op).Msg("request failed")
	h.writeError(w, http.StatusInternalServerError, "Internal server error")
}
