package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/liststate"
)

// UIStateHandler exposes the list state holders over HTTP. The home
// holder carries the searchable archive list; the my holder carries the
// current user's documents.
type UIStateHandler struct {
	home   *liststate.SearchHolder
	my     *liststate.Holder
	logger zerolog.Logger
}

// NewUIStateHandler creates a new UI state handler.
func NewUIStateHandler(home *liststate.SearchHolder, my *liststate.Holder, logger zerolog.Logger) *UIStateHandler {
	return &UIStateHandler{
		home:   home,
		my:     my,
		logger: logger.With().Str("handler", "uistate").Logger(),
	}
}

// Home handles GET /api/ui/home, returning the current home list state.
func (h *UIStateHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.home.Snapshot())
}

// HomeRefresh handles POST /api/ui/home/refresh.
func (h *UIStateHandler) HomeRefresh(w http.ResponseWriter, r *http.Request) {
	h.home.Load(r.Context())
	writeJSON(w, http.StatusOK, h.home.Snapshot())
}

type searchRequest struct {
	Query string `json:"query"`
}

// HomeSearch handles POST /api/ui/home/search. The query is recorded
// immediately; the debounced search runs in the background and a later
// GET observes the results.
func (h *UIStateHandler) HomeSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	h.home.SetQuery(req.Query)
	writeJSON(w, http.StatusOK, h.home.Snapshot())
}

// My handles GET /api/ui/my.
func (h *UIStateHandler) My(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.my.Snapshot())
}

// MyRefresh handles POST /api/ui/my/refresh.
func (h *UIStateHandler) MyRefresh(w http.ResponseWriter, r *http.Request) {
	h.my.Load(r.Context())
	writeJSON(w, http.StatusOK, h.my.Snapshot())
}
