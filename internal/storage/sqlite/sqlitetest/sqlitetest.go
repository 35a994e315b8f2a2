// Package sqlitetest opens throwaway stores and seeds fixtures for tests of
// the packages built on top of the sqlite store.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite"
)

// Epoch is the creation time stamped on fixtures.
var Epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// Open returns a migrated store in a temporary directory, closed on cleanup.
func Open(t testing.TB) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "taskflow.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Role inserts a role.
func Role(t testing.TB, s *sqlite.Store, name string) int64 {
	t.Helper()
	id, err := s.InsertRole(context.Background(), name, Epoch)
	if err != nil {
		t.Fatalf("insert role %q: %v", name, err)
	}
	return id
}

// TaskType inserts a task type owned by roleID with a daily capacity of 2.
func TaskType(t testing.TB, s *sqlite.Store, name string, roleID int64) int64 {
	t.Helper()
	id, err := s.InsertTaskType(context.Background(), models.TaskType{Name: name, RoleID: roleID, DailyCapacity: 2}, Epoch)
	if err != nil {
		t.Fatalf("insert task type %q: %v", name, err)
	}
	return id
}

// Member inserts an active non-admin user with the given role.
func Member(t testing.TB, s *sqlite.Store, name string, roleID int64) int64 {
	t.Helper()
	return user(t, s, models.User{Name: name, Email: name + "@agency.test", PasswordHash: "x", RoleID: &roleID})
}

// Admin inserts an administrator without a role.
func Admin(t testing.TB, s *sqlite.Store, name string) int64 {
	t.Helper()
	return user(t, s, models.User{Name: name, Email: name + "@agency.test", PasswordHash: "x", IsAdmin: true})
}

func user(t testing.TB, s *sqlite.Store, u models.User) int64 {
	t.Helper()
	id, err := s.InsertUser(context.Background(), u, Epoch)
	if err != nil {
		t.Fatalf("insert user %q: %v", u.Name, err)
	}
	return id
}

// Task inserts a pending task due on deadline. assignee may be zero.
func Task(t testing.TB, s *sqlite.Store, title string, taskTypeID, assignee int64, deadline models.Date) int64 {
	t.Helper()
	task := models.Task{
		Title:          title,
		TaskTypeID:     taskTypeID,
		Urgency:        models.UrgencyMedium,
		Deadline:       deadline,
		BufferDeadline: deadline,
		Status:         models.StatusPending,
		CreatedAt:      Epoch,
		UpdatedAt:      Epoch,
	}
	if assignee != 0 {
		task.AssignedTo = &assignee
	}
	id, err := s.InsertTask(context.Background(), task)
	if err != nil {
		t.Fatalf("insert task %q: %v", title, err)
	}
	return id
}

// Clock is a settable time source for services that take a now func.
type Clock struct {
	T time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.T }

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }
