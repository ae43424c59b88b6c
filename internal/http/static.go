package http

import (
	nethttp "net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"marginalia/backend/pkg/logger"
)

// registerStatic serves the built frontend from dir with an SPA
// fallback: unknown paths return index.html so client-side routing
// works. API paths are excluded. Nothing is mounted when dir is empty
// or has no index.html.
func registerStatic(e *echo.Echo, dir string) {
	if dir == "" {
		return
	}
	indexPath := filepath.Join(dir, "index.html")
	info, err := os.Stat(indexPath)
	if err != nil || info.IsDir() {
		logger.Warn("static index not found, skipping static routes", "path", indexPath)
		return
	}

	fileServer := nethttp.FileServer(nethttp.Dir(dir))

	e.GET("/*", func(c echo.Context) error {
		requestPath := c.Request().URL.Path
		if requestPath == "/api" || strings.HasPrefix(requestPath, "/api/") {
			return echo.ErrNotFound
		}

		cleanPath := strings.TrimPrefix(path.Clean(requestPath), "/")
		if cleanPath == "." || cleanPath == "" {
			return c.File(indexPath)
		}

		candidate := filepath.Join(dir, cleanPath)
		if fileInfo, err := os.Stat(candidate); err == nil && !fileInfo.IsDir() {
			fileServer.ServeHTTP(c.Response(), c.Request())
			return nil
		}

		return c.File(indexPath)
	})
}
