package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/workflow"
)

// WorkflowHandler exposes the modal workflow coordinator over HTTP.
// Every action responds with the resulting workflow state, including
// actions the coordinator ignored.
type WorkflowHandler struct {
	coordinator *workflow.Coordinator
	logger      zerolog.Logger
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(coordinator *workflow.Coordinator, logger zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		coordinator: coordinator,
		logger:      logger.With().Str("handler", "workflow").Logger(),
	}
}

// State handles GET /api/workflow/state.
func (h *WorkflowHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

type selectRequest struct {
	DocumentID string `json:"document_id"`
}

// Select handles POST /api/workflow/select.
func (h *WorkflowHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	h.coordinator.SelectDocument(req.DocumentID)
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Add handles POST /api/workflow/add.
func (h *WorkflowHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.coordinator.AddDocument()
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Edit handles POST /api/workflow/edit.
func (h *WorkflowHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.coordinator.EditSelected()
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}

// Dismiss handles POST /api/workflow/dismiss.
func (h *WorkflowHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Dismiss()
	writeJSON(w, http.StatusOK, h.coordinator.Snapshot())
}
