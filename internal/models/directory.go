package models

import "time"

// Role groups team members and the task types they can be assigned.
type Role struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	MemberCount   int       `json:"member_count"`
	TaskTypeCount int       `json:"task_type_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TaskType is a category of deliverable owned by a role.
type TaskType struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	RoleID        int64     `json:"role_id"`
	RoleName      *string   `json:"role_name"`
	DailyCapacity int       `json:"daily_capacity"`
	IsPredefined  bool      `json:"is_predefined"`
	TaskCount     int       `json:"task_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// User is a team member or an administrator. Users are deactivated, never deleted.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	RoleID         *int64    `json:"role_id"`
	RoleName       *string   `json:"role_name"`
	IsAdmin        bool      `json:"is_admin"`
	IsActive       bool      `json:"is_active"`
	ActiveTasks    int       `json:"active_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	CreatedAt      time.Time `json:"created_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID      int64
	IsAdmin bool
}

// ActorOf returns the actor for an authenticated user.
func ActorOf(u User) Actor {
	return Actor{ID: u.ID, IsAdmin: u.IsAdmin}
}

// CanModify reports whether the actor may change progress or status of t.
func (a Actor) CanModify(t Task) bool {
	return a.IsAdmin || t.IsAssignedTo(a.ID)
}
