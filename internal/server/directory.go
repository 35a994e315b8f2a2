package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/directory"
)

type roleRequest struct {
	Name string `json:"name"`
}

// handleListRoles returns all roles with member and task type counts.
func (s *Server) handleListRoles(c *gin.Context) {
	roles, err := s.svc.Directory.Roles(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, roles)
}

func (s *Server) handleCreateRole(c *gin.Context) {
	var req roleRequest
	if !s.bindJSON(c, &req) {
		return
	}
	role, err := s.svc.Directory.CreateRole(c.Request.Context(), actor(c), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, role)
}

func (s *Server) handleRenameRole(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !s.bindJSON(c, &req) {
		return
	}
	role, err := s.svc.Directory.RenameRole(c.Request.Context(), actor(c), id, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, role)
}

// handleDeleteRole removes a role that has no members and no task types.
func (s *Server) handleDeleteRole(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Directory.DeleteRole(c.Request.Context(), actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListTaskTypes(c *gin.Context) {
	types, err := s.svc.Directory.TaskTypes(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, types)
}

func (s *Server) handleCreateTaskType(c *gin.Context) {
	var req directory.TaskTypeInput
	if !s.bindJSON(c, &req) {
		return
	}
	tt, err := s.svc.Directory.CreateTaskType(c.Request.Context(), actor(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, tt)
}

func (s *Server) handleUpdateTaskType(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req directory.TaskTypeInput
	if !s.bindJSON(c, &req) {
		return
	}
	tt, err := s.svc.Directory.UpdateTaskType(c.Request.Context(), actor(c), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tt)
}

func (s *Server) handleDeleteTaskType(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Directory.DeleteTaskType(c.Request.Context(), actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"success": true})
}

// handleListUsers returns the active team members with their task counts.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.Directory.Members(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, users)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req directory.UserInput
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := s.svc.Directory.CreateUser(c.Request.Context(), actor(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req directory.UserInput
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := s.svc.Directory.UpdateUser(c.Request.Context(), actor(c), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// handleDeleteUser deactivates a member and unassigns their open tasks.
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Directory.DeactivateUser(c.Request.Context(), actor(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"success": true})
}
