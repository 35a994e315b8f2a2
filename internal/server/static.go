package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the single page UI from the configured directory.
// Unknown non-API paths fall back to index.html.
func (s *Server) mountStatic() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		if file, ok := s.staticFile(c.Request.URL.Path); ok {
			c.File(file)
			return
		}
		c.File(indexPath)
	})
}

// staticFile maps a request path onto a regular file below the static
// directory. Paths escaping the directory never match.
func (s *Server) staticFile(urlPath string) (string, bool) {
	root, err := filepath.Abs(s.staticDir)
	if err != nil {
		return "", false
	}
	name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+urlPath)))
	if !strings.HasPrefix(name, root+string(filepath.Separator)) {
		return "", false
	}
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return name, true
}
