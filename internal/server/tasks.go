package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/tasks"
)

type progressRequest struct {
	Progress *progressValue `json:"progress"`
}

// progressValue accepts a JSON number or a numeric string such as "50".
// Fractions are truncated.
type progressValue int

func (p *progressValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("progress must be a number, got %s", data)
	}
	*p = progressValue(min(1000, max(-1000, math.Trunc(f))))
	return nil
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

type feedbackRequest struct {
	Notes *string `json:"notes"`
}

// handleListTasks lists tasks, filtered by status, urgency and assignee.
// Members only ever see their own tasks.
func (s *Server) handleListTasks(c *gin.Context) {
	filter := models.TaskFilter{
		Status:  models.Status(c.Query("status")),
		Urgency: models.Urgency(c.Query("urgency")),
	}
	if raw := c.Query("assignee"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(c, apperr.New(apperr.InvalidArgument, "server.handleListTasks", "invalid assignee"))
			return
		}
		filter.AssignedTo = &id
	}

	list, err := s.svc.Tasks.List(c.Request.Context(), actor(c), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

// handleMyTasks lists the caller's open tasks.
func (s *Server) handleMyTasks(c *gin.Context) {
	list, err := s.svc.Tasks.MyTasks(c.Request.Context(), actor(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

// handleActiveTimer returns the caller's running timer session, or null.
func (s *Server) handleActiveTimer(c *gin.Context) {
	timer, err := s.svc.Clock.ActiveTimer(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timer)
}

// handleAssignmentPreview suggests the least loaded members for a task type and deadline.
func (s *Server) handleAssignmentPreview(c *gin.Context) {
	const op = "server.handleAssignmentPreview"
	taskTypeID, err := strconv.ParseInt(c.Query("task_type_id"), 10, 64)
	if err != nil || c.Query("deadline") == "" {
		s.respondError(c, apperr.New(apperr.InvalidArgument, op, "task_type_id and deadline are required"))
		return
	}
	deadline, err := models.ParseDate(c.Query("deadline"))
	if err != nil {
		s.respondError(c, apperr.New(apperr.InvalidArgument, op, "invalid deadline"))
		return
	}

	suggestion, err := s.svc.Balancer.SuggestAssignee(c.Request.Context(), taskTypeID, deadline)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, suggestion)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.svc.Tasks.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleCreateTask creates a task with its buffer deadline derived from urgency.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req tasks.CreateInput
	if !s.bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleUpdateTask applies a partial update. Absent fields are left alone,
// explicit nulls clear nullable columns.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req tasks.UpdateInput
	if !s.bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

func (s *Server) handleUpdateProgress(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req progressRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if req.Progress == nil {
		s.respondError(c, apperr.New(apperr.InvalidArgument, "server.handleUpdateProgress", "progress is required"))
		return
	}
	task, err := s.svc.Tasks.UpdateProgress(c.Request.Context(), actor(c), id, int(*req.Progress))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !s.bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.UpdateStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleStartTimer starts the caller's timer on the task, stopping any other.
func (s *Server) handleStartTimer(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	session, err := s.svc.Clock.StartTimer(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, session)
}

func (s *Server) handleStopTimer(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	session, err := s.svc.Clock.StopTimer(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, session)
}

// handleFeedback records client feedback and sends the task back for revision.
// The body is optional.
func (s *Server) handleFeedback(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req feedbackRequest
	if c.Request.ContentLength != 0 && !s.bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.SubmitFeedback(c.Request.Context(), actor(c), id, req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task together with its timer sessions.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Tasks.Delete(c.Request.Context(), actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"success": true})
}
