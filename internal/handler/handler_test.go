package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/liststate"
	"github.com/pryanikov/archiveapp/internal/repository/memory"
	"github.com/pryanikov/archiveapp/internal/service"
	"github.com/pryanikov/archiveapp/internal/session"
	storagememory "github.com/pryanikov/archiveapp/internal/storage/memory"
	"github.com/pryanikov/archiveapp/internal/workflow"
)

// newTestServer wires a full API server on in-memory backends with an
// admin and an editor user, both with password "secret".
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := memory.NewUserRepository()
	for _, u := range []*domain.User{
		{ID: "u-admin", Email: "admin@example.com", Role: domain.RoleAdmin, PasswordHash: string(hash)},
		{ID: "u-editor", Email: "editor@example.com", Role: domain.RoleEditor, PasswordHash: string(hash)},
	} {
		require.NoError(t, users.Create(context.Background(), u))
	}

	docs := memory.NewDocumentRepository()
	sessions := session.NewManager(users, logger)
	authService := service.NewAuthService(sessions, logger)
	documentService := service.NewDocumentService(docs, sessions, logger)

	coordinator := workflow.NewCoordinator(sessions, logger)
	t.Cleanup(coordinator.Close)

	home := liststate.NewSearchHolder(documentService.GetAll, documentService.Search, liststate.DefaultDebounce, logger)
	my := liststate.NewHolder(documentService.GetMy, logger)

	router := NewRouter(RouterConfig{
		Auth:     NewAuthHandler(authService, logger),
		Document: NewDocumentHandler(documentService, storagememory.NewStore(), 1<<20, logger),
		Workflow: NewWorkflowHandler(coordinator, logger),
		UIState:  NewUIStateHandler(home, my, logger),
		Logger:   logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func loginAs(t *testing.T, srv *httptest.Server, email string) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": "secret",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginStatusCodes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		email      string
		password   string
		wantStatus int
	}{
		{name: "ok", email: "admin@example.com", password: "secret", wantStatus: http.StatusOK},
		{name: "blank email", email: "", password: "secret", wantStatus: http.StatusBadRequest},
		{name: "wrong password", email: "admin@example.com", password: "nope", wantStatus: http.StatusUnauthorized},
		{name: "unknown user", email: "ghost@example.com", password: "secret", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			})
			defer resp.Body.Close()
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestLoginHidesPasswordHash(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "secret",
	})
	body := decode[map[string]any](t, resp)
	require.NotContains(t, body, "PasswordHash")
	require.NotContains(t, body, "password_hash")
	require.Equal(t, "u-admin", body["id"])
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	loginAs(t, srv, "editor@example.com")

	// Create
	resp := postJSON(t, srv.URL+"/api/documents", map[string]any{
		"title":  "Annual Report",
		"author": []string{"Jane Doe"},
		"status": "NEW",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.Document](t, resp)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "u-editor", created.AddedByUserID)

	// Duplicate title conflicts
	resp = postJSON(t, srv.URL+"/api/documents", map[string]any{
		"title":  "annual report",
		"author": []string{"Someone"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Validation errors
	resp = postJSON(t, srv.URL+"/api/documents", map[string]any{"title": " "})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Get
	getResp, err := http.Get(srv.URL + "/api/documents/" + created.ID)
	require.NoError(t, err)
	got := decode[domain.Document](t, getResp)
	require.Equal(t, "Annual Report", got.Title)

	// Unknown id
	getResp, err = http.Get(srv.URL + "/api/documents/unknown")
	require.NoError(t, err)
	getResp.Body.Close()
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)

	// Search via list query
	listResp, err := http.Get(srv.URL + "/api/documents/?query=annual")
	require.NoError(t, err)
	docs := decode[[]domain.Document](t, listResp)
	require.Len(t, docs, 1)

	// Delete as editor is forbidden
	resp = postJSON(t, srv.URL+fmt.Sprintf("/api/documents/%s/delete", created.ID), map[string]string{"password": "secret"})
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Delete as admin with wrong password
	loginAs(t, srv, "admin@example.com")
	resp = postJSON(t, srv.URL+fmt.Sprintf("/api/documents/%s/delete", created.ID), map[string]string{"password": "wrong"})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Delete as admin with re-confirmed password
	resp = postJSON(t, srv.URL+fmt.Sprintf("/api/documents/%s/delete", created.ID), map[string]string{"password": "secret"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSaveWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", map[string]any{
		"title":  "Orphan",
		"author": []string{"Doe"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWorkflowEndpoints(t *testing.T) {
	srv := newTestServer(t)
	loginAs(t, srv, "editor@example.com")

	// Wait for the coordinator to pick up the session event.
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/api/workflow/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var state workflow.State
		if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
			return false
		}
		return state.Sheet == workflow.SheetNone
	}, 2*time.Second, 10*time.Millisecond)

	resp := postJSON(t, srv.URL+"/api/workflow/select", map[string]string{"document_id": "doc-1"})
	state := decode[workflow.State](t, resp)
	require.Equal(t, workflow.SheetDetails, state.Sheet)
	require.Equal(t, "doc-1", state.SelectedDocumentID)

	resp = postJSON(t, srv.URL+"/api/workflow/dismiss", nil)
	state = decode[workflow.State](t, resp)
	require.Equal(t, workflow.SheetNone, state.Sheet)
}

func TestUIStateEndpoints(t *testing.T) {
	srv := newTestServer(t)
	loginAs(t, srv, "editor@example.com")

	resp := postJSON(t, srv.URL+"/api/documents", map[string]any{
		"title":  "Visible",
		"author": []string{"Doe"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	refreshResp := postJSON(t, srv.URL+"/api/ui/home/refresh", nil)
	home := decode[liststate.State](t, refreshResp)
	require.False(t, home.IsLoading)
	require.Len(t, home.Documents, 1)

	myResp := postJSON(t, srv.URL+"/api/ui/my/refresh", nil)
	my := decode[liststate.State](t, myResp)
	require.Len(t, my.Documents, 1)

	searchResp := postJSON(t, srv.URL+"/api/ui/home/search", map[string]string{"query": "vis"})
	searched := decode[liststate.State](t, searchResp)
	require.Equal(t, "vis", searched.SearchQuery)
}
