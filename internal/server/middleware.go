package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
)

// requestID stamps every request with an id, reusing the caller's when sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger writes one record per API request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			return
		}
		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

// readinessGate answers 503 while the database is not usable.
func (s *Server) readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ready, err := s.ready.State()
		if ready {
			c.Next()
			return
		}
		msg := "database not ready"
		if err != nil {
			msg += ": " + err.Error()
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msg})
	}
}

// authenticate resolves the bearer token to an active user.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.respondError(c, apperr.ErrUnauthenticated)
			return
		}
		user, err := s.svc.Auth.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// adminOnly rejects callers without the admin flag. It must run after authenticate.
func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	u, _ := c.Get(userKey)
	user, _ := u.(models.User)
	return user
}

func actor(c *gin.Context) models.Actor {
	return models.ActorOf(currentUser(c))
}
