package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// queryDate parses an optional YYYY-MM-DD query parameter. A missing
// parameter yields the zero date.
func (s *Server) queryDate(c *gin.Context, name string) (models.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return models.Date{}, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		s.respondError(c, apperr.Newf(apperr.InvalidArgument, "server.queryDate", "invalid %s", name))
		return models.Date{}, false
	}
	return d, true
}

func (s *Server) handleDashboardStats(c *gin.Context) {
	stats, err := s.svc.Dashboard.Stats(c.Request.Context(), actor(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

func (s *Server) handleDashboardDaily(c *gin.Context) {
	date, ok := s.queryDate(c, "date")
	if !ok {
		return
	}
	view, err := s.svc.Dashboard.Daily(c.Request.Context(), actor(c), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

func (s *Server) handleDashboardWeekly(c *gin.Context) {
	date, ok := s.queryDate(c, "date")
	if !ok {
		return
	}
	view, err := s.svc.Dashboard.Weekly(c.Request.Context(), actor(c), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

func (s *Server) handleDashboardMonthly(c *gin.Context) {
	date, ok := s.queryDate(c, "date")
	if !ok {
		return
	}
	view, err := s.svc.Dashboard.Monthly(c.Request.Context(), actor(c), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleTeamLoad lists today's, open and overdue task counts per member.
func (s *Server) handleTeamLoad(c *gin.Context) {
	load, err := s.svc.Balancer.TeamLoad(c.Request.Context(), s.svc.Dashboard.Today())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, load)
}
