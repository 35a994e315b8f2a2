package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskflow/internal/apperr"
	"taskflow/internal/auth"
	"taskflow/internal/dashboard"
	"taskflow/internal/directory"
	"taskflow/internal/performance"
	"taskflow/internal/tasks"
	"taskflow/internal/timeclock"
	"taskflow/internal/workload"
)

// Services are the application services behind the HTTP handlers.
type Services struct {
	Auth      *auth.Authenticator
	Tasks     *tasks.Engine
	Clock     *timeclock.Clock
	Balancer  *workload.Balancer
	Scorer    *performance.Scorer
	Dashboard *dashboard.Service
	Directory *directory.Service
}

// Server provides the HTTP API of the task tracker and serves the web UI.
type Server struct {
	engine    *gin.Engine
	svc       Services
	ready     *Readiness
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
// A nil ready is treated as always ready.
func New(svc Services, ready *Readiness, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if ready == nil {
		ready = NewReadiness()
		ready.MarkReady()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))

	srv := &Server{
		engine:    router,
		svc:       svc,
		ready:     ready,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/api/healthz", s.handleHealth)

	api := s.engine.Group("/api", s.readinessGate())
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.authenticate())
	admin := authed.Group("", adminOnly())

	authed.GET("/auth/me", s.handleMe)

	taskRoutes := authed.Group("/tasks")
	{
		taskRoutes.GET("", s.handleListTasks)
		taskRoutes.GET("/my-tasks", s.handleMyTasks)
		taskRoutes.GET("/my-active-timer", s.handleActiveTimer)
		taskRoutes.GET("/assignment-preview", s.handleAssignmentPreview)
		taskRoutes.GET("/:id", s.handleGetTask)
		taskRoutes.PATCH("/:id/progress", s.handleUpdateProgress)
		taskRoutes.PATCH("/:id/status", s.handleUpdateStatus)
		taskRoutes.POST("/:id/timer/start", s.handleStartTimer)
		taskRoutes.POST("/:id/timer/stop", s.handleStopTimer)
		taskRoutes.POST("/:id/feedback", s.handleFeedback)
	}
	admin.POST("/tasks", s.handleCreateTask)
	admin.PUT("/tasks/:id", s.handleUpdateTask)
	admin.DELETE("/tasks/:id", s.handleDeleteTask)

	logs := authed.Group("/time-logs")
	{
		logs.GET("/today", s.handlePunchToday)
		logs.POST("/punch-in", s.handlePunchIn)
		logs.PATCH("/punch-out", s.handlePunchOut)
	}
	admin.GET("/time-logs/summary", s.handlePunchSummary)
	admin.GET("/time-logs/monthly", s.handlePunchMonthly)

	dash := authed.Group("/dashboard")
	{
		dash.GET("/stats", s.handleDashboardStats)
		dash.GET("/daily", s.handleDashboardDaily)
		dash.GET("/weekly", s.handleDashboardWeekly)
		dash.GET("/monthly", s.handleDashboardMonthly)
		dash.GET("/team-load", s.handleTeamLoad)
	}

	admin.GET("/performance", s.handleListPerformance)
	admin.GET("/performance/:userId", s.handlePerformanceDetail)

	authed.GET("/roles", s.handleListRoles)
	admin.POST("/roles", s.handleCreateRole)
	admin.PUT("/roles/:id", s.handleRenameRole)
	admin.DELETE("/roles/:id", s.handleDeleteRole)

	authed.GET("/task-types", s.handleListTaskTypes)
	admin.POST("/task-types", s.handleCreateTaskType)
	admin.PUT("/task-types/:id", s.handleUpdateTaskType)
	admin.DELETE("/task-types/:id", s.handleDeleteTaskType)

	authed.GET("/users", s.handleListUsers)
	admin.POST("/users", s.handleCreateUser)
	admin.PUT("/users/:id", s.handleUpdateUser)
	admin.DELETE("/users/:id", s.handleDeleteUser)

	s.mountStatic()
}

// handleHealth reports liveness and whether the database is usable.
func (s *Server) handleHealth(c *gin.Context) {
	ready, err := s.ready.State()
	body := gin.H{"status": "ok", "ready": ready}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// parseID converts a path parameter to int64 with error handling.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, apperr.New(apperr.InvalidArgument, "server.parseID", "invalid identifier"))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, &apperr.Error{Kind: apperr.InvalidArgument, Op: "server.bindJSON", Msg: "invalid request body", Err: err})
		return false
	}
	return true
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.PermissionDenied:
		return http.StatusForbidden
	case apperr.InvalidArgument, apperr.AlreadyPunchedIn, apperr.AlreadyPunchedOut,
		apperr.NotPunchedIn, apperr.NoActiveTimer:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload with the status of its kind.
func (s *Server) respondError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
		slog.String("request_id", c.GetString(requestIDKey)),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Debug("request rejected", attrs...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
