package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handlePunchToday returns the caller's punch record for today. A member
// who has not punched yet gets an empty record.
func (s *Server) handlePunchToday(c *gin.Context) {
	log, err := s.svc.Clock.TodayLog(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, log)
}

func (s *Server) handlePunchIn(c *gin.Context) {
	log, err := s.svc.Clock.PunchIn(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, log)
}

func (s *Server) handlePunchOut(c *gin.Context) {
	log, err := s.svc.Clock.PunchOut(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, log)
}

// handlePunchSummary lists every punch record of today, or of ?date=.
func (s *Server) handlePunchSummary(c *gin.Context) {
	date, ok := s.queryDate(c, "date")
	if !ok {
		return
	}
	logs, err := s.svc.Clock.DailySummary(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, logs)
}

// handlePunchMonthly groups the punch records of ?month=YYYY-MM by member.
func (s *Server) handlePunchMonthly(c *gin.Context) {
	report, err := s.svc.Clock.MonthlySummary(c.Request.Context(), c.Query("month"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, report)
}
