package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/service"
	"github.com/pryanikov/archiveapp/internal/storage"
)

// DocumentHandler handles document CRUD and search endpoints.
type DocumentHandler struct {
	documents   *service.DocumentService
	attachments storage.Backend
	maxBodySize int64
	logger      zerolog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(documents *service.DocumentService, attachments storage.Backend, maxBodySize int64, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents:   documents,
		attachments: attachments,
		maxBodySize: maxBodySize,
		logger:      logger.With().Str("handler", "document").Logger(),
	}
}

// List handles GET /api/documents. With a non-empty query parameter the
// result is filtered by token search, otherwise all documents are
// returned.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	var (
		docs []*domain.Document
		err  error
	)
	if query != "" {
		docs, err = h.documents.Search(r.Context(), query)
	} else {
		docs, err = h.documents.GetAll(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		writeError(w, domain.ErrDocumentNotFound)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Save handles POST /api/documents. A document without an id is created
// and owned by the current session; a document with an id updates the
// existing record.
func (h *DocumentHandler) Save(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created := doc.IsNew()

	saved, err := h.documents.Save(r.Context(), &doc)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

type deleteRequest struct {
	Password string `json:"password"`
}

// Delete handles POST /api/documents/{id}/delete. Deletion requires an
// admin session and password re-confirmation.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.documents.Delete(r.Context(), id, req.Password); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// My handles GET /api/my/documents, listing documents added by the
// current user.
func (h *DocumentHandler) My(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.GetMy(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// UploadAttachment handles POST /api/documents/{id}/attachment. The file
// is stored in the attachment backend and the document's file URL is
// updated.
func (h *DocumentHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		writeError(w, domain.ErrDocumentNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart body"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("documents/%s/%s", doc.ID, header.Filename)
	url, err := h.attachments.Store(r.Context(), key, contentType, data)
	if err != nil {
		h.logger.Error().Err(err).Str("document_id", doc.ID).Msg("attachment upload failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "attachment upload failed"})
		return
	}

	doc.FileURL = url
	saved, err := h.documents.Save(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info().
		Str("document_id", doc.ID).
		Str("file", header.Filename).
		Int("size", len(data)).
		Msg("attachment uploaded")

	writeJSON(w, http.StatusOK, saved)
}
