package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questline/server/auth"
	"questline/server/config"
)

func testConfig(t *testing.T, backend string) config.Config {
	dir := t.TempDir()
	return config.Config{
		DataDir:         dir,
		SnapshotBackend: backend,
		SQLitePath:      filepath.Join(dir, "snapshots.db"),
		JWTIssuer:       "Questline",
		TokenTTL:        time.Hour,
	}
}

func post(t *testing.T, h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServerRegisterLoginAndPlay(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			h, cleanup, err := setup(context.Background(), testConfig(t, backend))
			require.NoError(t, err)
			defer cleanup()

			rec := post(t, h, "/api/register", "", `{"username":"ada","password":"secret1","password_confirm":"secret1"}`)
			require.Equal(t, http.StatusOK, rec.Code)

			rec = post(t, h, "/api/login", "", `{"username":"ada","password":"secret1"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			var login auth.LoginResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

			rec = post(t, h, "/api/battle/start", "", `{"bossId":"procrastination_imp"}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = post(t, h, "/api/battle/start", login.Token, `{"bossId":"procrastination_imp"}`)
			assert.Equal(t, http.StatusCreated, rec.Code)

			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			req.Header.Set("Authorization", "Bearer "+login.Token)
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"name":"ada"`)
		})
	}
}

func TestServerHealthAndMetrics(t *testing.T) {
	h, cleanup, err := setup(context.Background(), testConfig(t, config.BackendFile))
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "questline_snapshot_fallbacks_total")
}

func TestServerRejectsBrokenCatalogDir(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	cfg.CatalogDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CatalogDir, "bosses.yaml"), []byte("bosses: [ {"), 0o644))

	_, _, err := setup(context.Background(), cfg)
	assert.ErrorContains(t, err, "load catalog")
}
