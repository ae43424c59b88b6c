package http_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	mh "marginalia/backend/internal/http"
)

func TestRegisterStatic_EmptyDir(t *testing.T) {
	e := echo.New()
	mh.RegisterStatic(e, "")
	require.Empty(t, e.Routes())
}

func TestRegisterStatic_MissingIndex(t *testing.T) {
	e := echo.New()
	mh.RegisterStatic(e, t.TempDir())
	require.Empty(t, e.Routes())
}

func TestRegisterStatic_ServesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("INDEX"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "viewer.js"), []byte("VIEWER"), 0o600))

	e := echo.New()
	mh.RegisterStatic(e, dir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "INDEX")

	req = httptest.NewRequest(http.MethodGet, "/viewer.js", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "VIEWER")

	// SPA fallback: unknown client-side routes serve the index.
	req = httptest.NewRequest(http.MethodGet, "/documents/some-doc.pdf", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "INDEX")

	req = httptest.NewRequest(http.MethodGet, "/api/missing", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
