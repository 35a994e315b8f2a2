// Package repository declares the persistence contracts of the services.
// Every method honours a transaction carried by ctx when called inside
// Transactor.WithinTx, so a service operation can compose several calls
// into one atomic unit.
package repository

import (
	"context"
	"time"

	"taskflow/internal/models"
)

// Transactor runs fn in a single transaction. Nested calls join the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TaskRepository stores tasks. GetTask and GetTaskView return an apperr
// NotFound error for unknown ids.
type TaskRepository interface {
	GetTask(ctx context.Context, id int64) (models.Task, error)
	GetTaskView(ctx context.Context, id int64) (models.TaskView, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskView, error)
	CountTasks(ctx context.Context, filter models.TaskFilter) (int, error)
	InsertTask(ctx context.Context, t models.Task) (int64, error)
	// SaveTask writes every mutable column. completed_at is only written
	// when the stored value is NULL.
	SaveTask(ctx context.Context, t models.Task) error
	// StartTask moves a pending task to in_progress and leaves any other status alone.
	StartTask(ctx context.Context, id int64, now time.Time) error
	DeleteTask(ctx context.Context, id int64) error
}

// TimerRepository stores per-task timer sessions.
type TimerRepository interface {
	InsertTaskTimeLog(ctx context.Context, l models.TaskTimeLog) (int64, error)
	GetTaskTimeLog(ctx context.Context, id int64) (models.TaskTimeLog, error)
	// OpenTaskTimeLogs lists sessions with no end for the user, newest first.
	// A taskID of zero matches every task.
	OpenTaskTimeLogs(ctx context.Context, userID, taskID int64) ([]models.TaskTimeLog, error)
	CloseTaskTimeLog(ctx context.Context, id int64, endedAt time.Time, durationSecs int64) error
	DeleteTaskTimeLogs(ctx context.Context, taskID int64) error
	RecentTaskTimeLogs(ctx context.Context, userID int64, limit int) ([]models.TaskTimeLog, error)
	SumTaskSeconds(ctx context.Context, userID int64) (int64, error)
}

// PunchRepository stores daily punch records, unique per (user, date).
type PunchRepository interface {
	GetTimeLog(ctx context.Context, userID int64, date models.Date) (models.TimeLog, error)
	InsertTimeLog(ctx context.Context, l models.TimeLog) (int64, error)
	SetPunchIn(ctx context.Context, id int64, at time.Time) error
	SetPunchOut(ctx context.Context, id int64, at time.Time, durationMinutes int) error
	ListTimeLogs(ctx context.Context, from, to models.Date) ([]models.TimeLog, error)
	RecentTimeLogs(ctx context.Context, userID int64, limit int) ([]models.TimeLog, error)
}

// RoleRepository stores roles.
type RoleRepository interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	GetRole(ctx context.Context, id int64) (models.Role, error)
	InsertRole(ctx context.Context, name string, now time.Time) (int64, error)
	RenameRole(ctx context.Context, id int64, name string) error
	DeleteRole(ctx context.Context, id int64) error
}

// TaskTypeRepository stores task types.
type TaskTypeRepository interface {
	ListTaskTypes(ctx context.Context) ([]models.TaskType, error)
	GetTaskType(ctx context.Context, id int64) (models.TaskType, error)
	InsertTaskType(ctx context.Context, tt models.TaskType, now time.Time) (int64, error)
	UpdateTaskType(ctx context.Context, tt models.TaskType) error
	DeleteTaskType(ctx context.Context, id int64) error
}

// UserRepository stores users.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// ListMembers returns active non-admin users ordered by id. A roleID of
	// zero matches every role.
	ListMembers(ctx context.Context, roleID int64) ([]models.User, error)
	InsertUser(ctx context.Context, u models.User, now time.Time) (int64, error)
	UpdateUser(ctx context.Context, u models.User) error
	// DeactivateUser clears is_active and unassigns the user's non-completed tasks.
	DeactivateUser(ctx context.Context, id int64, now time.Time) error
}

// Directory is the reference data read by the task, workload and performance services.
type Directory interface {
	RoleRepository
	TaskTypeRepository
	UserRepository
}

// Store is everything the storage backend provides.
type Store interface {
	Transactor
	TaskRepository
	TimerRepository
	PunchRepository
	Directory
}
