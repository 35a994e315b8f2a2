package directory

import (
	"context"
	"errors"
	"testing"

	"taskflow/internal/apperr"
	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite"
	"taskflow/internal/storage/sqlite/sqlitetest"
)

// admin does not match any stored user id.
var admin = models.Actor{ID: 999, IsAdmin: true}

func newService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	s := sqlitetest.Open(t)
	return New(s, nil), s
}

func TestRoleLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, admin, "  Designer ")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if role.Name != "Designer" {
		t.Fatalf("name = %q", role.Name)
	}
	if _, err := svc.CreateRole(ctx, admin, "Designer"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}
	if _, err := svc.CreateRole(ctx, models.Actor{ID: 2}, "Writer"); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	renamed, err := svc.RenameRole(ctx, admin, role.ID, "Graphic Designer")
	if err != nil {
		t.Fatalf("RenameRole: %v", err)
	}
	if renamed.Name != "Graphic Designer" {
		t.Fatalf("name = %q", renamed.Name)
	}

	if err := svc.DeleteRole(ctx, admin, role.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if err := svc.DeleteRole(ctx, admin, role.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRoleGuarded(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	member := sqlitetest.Member(t, s, "alice", role)

	if err := svc.DeleteRole(ctx, admin, role); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict with active member, got %v", err)
	}

	if err := s.DeactivateUser(ctx, member, sqlitetest.Epoch); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	if err := svc.DeleteRole(ctx, admin, role); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict with task type, got %v", err)
	}

	if err := svc.DeleteTaskType(ctx, admin, tt); err != nil {
		t.Fatalf("DeleteTaskType: %v", err)
	}
	if err := svc.DeleteRole(ctx, admin, role); err != nil {
		t.Fatalf("DeleteRole with only inactive members: %v", err)
	}
}

func TestTaskTypeLifecycle(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")

	if _, err := svc.CreateTaskType(ctx, admin, TaskTypeInput{Name: "Reel"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := svc.CreateTaskType(ctx, admin, TaskTypeInput{Name: "Reel", RoleID: 99}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found role, got %v", err)
	}

	tt, err := svc.CreateTaskType(ctx, admin, TaskTypeInput{Name: "Reel", RoleID: role})
	if err != nil {
		t.Fatalf("CreateTaskType: %v", err)
	}
	if tt.DailyCapacity != DefaultDailyCapacity || tt.IsPredefined || tt.RoleName == nil || *tt.RoleName != "Designer" {
		t.Fatalf("unexpected task type: %+v", tt)
	}

	tt, err = svc.UpdateTaskType(ctx, admin, tt.ID, TaskTypeInput{DailyCapacity: 5})
	if err != nil {
		t.Fatalf("UpdateTaskType: %v", err)
	}
	if tt.DailyCapacity != 5 || tt.Name != "Reel" {
		t.Fatalf("unexpected update: %+v", tt)
	}

	sqlitetest.Task(t, s, "reel", tt.ID, 0, models.MustParseDate("2024-06-10"))
	if err := svc.DeleteTaskType(ctx, admin, tt.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserLifecycle(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")

	if _, err := svc.CreateUser(ctx, admin, UserInput{Name: "Alice", Email: "alice@agency.com"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	u, err := svc.CreateUser(ctx, admin, UserInput{Name: "Alice", Email: "Alice@Agency.com", Password: "pw", RoleID: &role})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "alice@agency.com" || !u.IsActive || u.IsAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !auth.CheckPassword("pw", u.PasswordHash) {
		t.Fatalf("password not hashed with bcrypt")
	}

	if _, err := svc.CreateUser(ctx, admin, UserInput{Name: "A2", Email: "alice@agency.com", Password: "pw"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	u, err = svc.UpdateUser(ctx, admin, u.ID, UserInput{Name: "Alice B", Password: "new"})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.Name != "Alice B" || u.Email != "alice@agency.com" || !auth.CheckPassword("new", u.PasswordHash) {
		t.Fatalf("unexpected update: %+v", u)
	}

	members, err := svc.Members(ctx)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected one member, got %d", len(members))
	}

	if err := svc.DeactivateUser(ctx, models.Actor{ID: u.ID, IsAdmin: true}, u.ID); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("self deactivation allowed: %v", err)
	}

	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	open := sqlitetest.Task(t, s, "open", tt, u.ID, models.MustParseDate("2024-06-10"))
	done := sqlitetest.Task(t, s, "done", tt, u.ID, models.MustParseDate("2024-06-07"))
	finished, err := s.GetTask(ctx, done)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	finished.Status = models.StatusCompleted
	if err := s.SaveTask(ctx, finished); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	if err := svc.DeactivateUser(ctx, admin, u.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if members, _ := svc.Members(ctx); len(members) != 0 {
		t.Fatalf("deactivated user still listed")
	}
	stored, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("user should be inactive after deactivation")
	}
	if task, _ := s.GetTask(ctx, open); task.AssignedTo != nil {
		t.Fatalf("open task still assigned to %d", *task.AssignedTo)
	}
	if task, _ := s.GetTask(ctx, done); !task.IsAssignedTo(u.ID) {
		t.Fatalf("completed task should keep its assignee")
	}
}
