package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListPerformance(c *gin.Context) {
	scores, err := s.svc.Scorer.All(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, scores)
}

// handlePerformanceDetail returns the tasks, timer sessions and punch
// records behind a member's score.
func (s *Server) handlePerformanceDetail(c *gin.Context) {
	id, ok := s.parseID(c, "userId")
	if !ok {
		return
	}
	detail, err := s.svc.Scorer.Detail(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}
