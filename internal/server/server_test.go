package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/config"
)

func newTestServer(t *testing.T, outputDir string) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Export: config.ExportConfig{OutputDir: outputDir},
	}
	return NewServer(cfg, nil, nil, zap.NewNop())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestExportRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{not json`},
		{"unknown resource type", `{"type": "payroll"}`},
		{"unknown period", `{"all": true, "period": "weekly"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			srv.Router().ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestDownloadServesExportFile(t *testing.T) {
	dir := t.TempDir()
	name := "BC_Journal_RAMP_BILLS_20240315_101530.csv"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("header\nrow\n"), 0o644))

	srv := newTestServer(t, dir)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/exports/"+name, nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "header\nrow\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), name)
}

func TestDownloadUnknownFile(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/exports/nope.csv", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadStaysInsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	exports := filepath.Join(dir, "exports")
	require.NoError(t, os.Mkdir(exports, 0o755))

	srv := newTestServer(t, exports)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/exports/"+"%2e%2e%2foutside.txt", nil)
	srv.Router().ServeHTTP(w, req)

	assert.NotEqual(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}
