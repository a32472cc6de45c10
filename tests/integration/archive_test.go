// Package integration provides end-to-end tests against a running
// archive server. The tests skip when no server is reachable, so the
// regular unit test run stays self-contained.
//
// Run a server first, e.g.:
//
//	archive-admin user create --email admin@example.com --role ADMIN --password admin-secret
//	archive-server --config configs/config.yaml
//	ARCHIVE_TEST_ENDPOINT=http://localhost:8080 go test ./tests/integration/
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds the configuration for integration tests.
type TestConfig struct {
	Endpoint      string
	AdminEmail    string
	AdminPassword string
}

// getTestConfig reads test configuration from environment variables.
func getTestConfig() TestConfig {
	return TestConfig{
		Endpoint:      getEnv("ARCHIVE_TEST_ENDPOINT", "http://localhost:8080"),
		AdminEmail:    getEnv("ARCHIVE_TEST_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ARCHIVE_TEST_ADMIN_PASSWORD", "admin-secret"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// requireServer skips the test when no server answers the health check.
func requireServer(t *testing.T, cfg TestConfig) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(cfg.Endpoint + "/health")
	if err != nil {
		t.Skipf("no archive server at %s: %v", cfg.Endpoint, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("archive server at %s unhealthy: %d", cfg.Endpoint, resp.StatusCode)
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func login(t *testing.T, cfg TestConfig) {
	t.Helper()
	resp := postJSON(t, cfg.Endpoint+"/api/auth/login", map[string]string{
		"email":    cfg.AdminEmail,
		"password": cfg.AdminPassword,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "admin login failed; check test credentials")
}

func TestDocumentRoundTrip(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)
	login(t, cfg)

	title := fmt.Sprintf("Integration %d", time.Now().UnixNano())

	// Create
	resp := postJSON(t, cfg.Endpoint+"/api/documents", map[string]any{
		"title":  title,
		"author": []string{"Integration Test"},
		"status": "NEW",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.ID)

	// Search finds it
	searchResp, err := http.Get(cfg.Endpoint + "/api/documents/?query=integration")
	require.NoError(t, err)
	var found []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&found))
	searchResp.Body.Close()
	ids := make([]string, 0, len(found))
	for _, d := range found {
		ids = append(ids, d.ID)
	}
	require.Contains(t, ids, created.ID)

	// Delete with re-confirmed password
	resp = postJSON(t, fmt.Sprintf("%s/api/documents/%s/delete", cfg.Endpoint, created.ID), map[string]string{
		"password": cfg.AdminPassword,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone
	getResp, err := http.Get(cfg.Endpoint + "/api/documents/" + created.ID)
	require.NoError(t, err)
	getResp.Body.Close()
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestSessionEndpoint(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)
	login(t, cfg)

	resp, err := http.Get(cfg.Endpoint + "/api/auth/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.True(t, session.Authenticated)
}
