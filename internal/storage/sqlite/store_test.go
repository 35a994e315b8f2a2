package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite/sqlitetest"
)

func TestTaskRoundTrip(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	alice := sqlitetest.Member(t, s, "alice", role)
	id := sqlitetest.Task(t, s, "Launch banner", tt, alice, models.MustParseDate("2024-06-10"))

	v, err := s.GetTaskView(ctx, id)
	if err != nil {
		t.Fatalf("GetTaskView: %v", err)
	}
	if v.Title != "Launch banner" || v.Deadline.String() != "2024-06-10" {
		t.Fatalf("unexpected task: %+v", v.Task)
	}
	if v.AssigneeName == nil || *v.AssigneeName != "alice" {
		t.Fatalf("assignee name = %v, want alice", v.AssigneeName)
	}
	if v.TaskTypeName == nil || *v.TaskTypeName != "Static Post" || v.RoleName == nil || *v.RoleName != "Designer" {
		t.Fatalf("joined names = %v/%v", v.TaskTypeName, v.RoleName)
	}
	if v.CompletedAt != nil || v.ETA != nil {
		t.Fatalf("expected nil completed_at and eta")
	}
}

func TestSaveTaskKeepsFirstCompletion(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	id := sqlitetest.Task(t, s, "Banner", tt, 0, models.MustParseDate("2024-06-10"))

	task, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	first := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	task.Status = models.StatusCompleted
	task.CompletedAt = &first
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	later := first.Add(48 * time.Hour)
	task.CompletedAt = &later
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(first) {
		t.Fatalf("completed_at = %v, want %v", got.CompletedAt, first)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := sqlitetest.Open(t)
	_, err := s.GetTask(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteTask(context.Background(), 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestListTasksFilterAndOrder(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	alice := sqlitetest.Member(t, s, "alice", role)
	bob := sqlitetest.Member(t, s, "bob", role)

	a := sqlitetest.Task(t, s, "a", tt, alice, models.MustParseDate("2024-06-12"))
	b := sqlitetest.Task(t, s, "b", tt, alice, models.MustParseDate("2024-06-10"))
	sqlitetest.Task(t, s, "c", tt, bob, models.MustParseDate("2024-06-10"))

	critical, err := s.GetTask(ctx, a)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	critical.Urgency = models.UrgencyCritical
	if err := s.SaveTask(ctx, critical); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	got, err := s.ListTasks(ctx, models.TaskFilter{AssignedTo: &alice})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(got) != 2 || got[0].ID != a || got[1].ID != b {
		t.Fatalf("unexpected order: %+v", got)
	}

	byDeadline, err := s.ListTasks(ctx, models.TaskFilter{AssignedTo: &alice, Order: models.OrderDeadline})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if byDeadline[0].ID != b {
		t.Fatalf("expected earliest deadline first, got %d", byDeadline[0].ID)
	}

	day := models.MustParseDate("2024-06-10")
	n, err := s.CountTasks(ctx, models.TaskFilter{Deadline: &day, OpenOnly: true})
	if err != nil {
		t.Fatalf("CountTasks: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestOneOpenTimerPerUser(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	alice := sqlitetest.Member(t, s, "alice", role)
	a := sqlitetest.Task(t, s, "a", tt, alice, models.MustParseDate("2024-06-10"))
	b := sqlitetest.Task(t, s, "b", tt, alice, models.MustParseDate("2024-06-10"))

	start := sqlitetest.Epoch
	if _, err := s.InsertTaskTimeLog(ctx, models.TaskTimeLog{TaskID: a, UserID: alice, StartedAt: start}); err != nil {
		t.Fatalf("InsertTaskTimeLog: %v", err)
	}
	_, err := s.InsertTaskTimeLog(ctx, models.TaskTimeLog{TaskID: b, UserID: alice, StartedAt: start})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for second open timer, got %v", err)
	}

	open, err := s.OpenTaskTimeLogs(ctx, alice, 0)
	if err != nil {
		t.Fatalf("OpenTaskTimeLogs: %v", err)
	}
	if len(open) != 1 || open[0].TaskID != a || open[0].TaskTitle != "a" {
		t.Fatalf("unexpected open sessions: %+v", open)
	}

	if err := s.CloseTaskTimeLog(ctx, open[0].ID, start.Add(90*time.Second), 90); err != nil {
		t.Fatalf("CloseTaskTimeLog: %v", err)
	}
	if err := s.CloseTaskTimeLog(ctx, open[0].ID, start.Add(time.Hour), 3600); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("closing twice should fail, got %v", err)
	}
	if _, err := s.InsertTaskTimeLog(ctx, models.TaskTimeLog{TaskID: b, UserID: alice, StartedAt: start.Add(time.Hour)}); err != nil {
		t.Fatalf("InsertTaskTimeLog after close: %v", err)
	}

	total, err := s.SumTaskSeconds(ctx, alice)
	if err != nil {
		t.Fatalf("SumTaskSeconds: %v", err)
	}
	if total != 90 {
		t.Fatalf("total = %d, want 90", total)
	}
}

func TestPunchRecordUniquePerDay(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	alice := sqlitetest.Member(t, s, "alice", role)
	day := models.MustParseDate("2024-06-10")
	in := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	id, err := s.InsertTimeLog(ctx, models.TimeLog{UserID: alice, Date: day, PunchIn: &in})
	if err != nil {
		t.Fatalf("InsertTimeLog: %v", err)
	}
	if _, err := s.InsertTimeLog(ctx, models.TimeLog{UserID: alice, Date: day, PunchIn: &in}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := s.SetPunchOut(ctx, id, in.Add(8*time.Hour), 480); err != nil {
		t.Fatalf("SetPunchOut: %v", err)
	}

	got, err := s.GetTimeLog(ctx, alice, day)
	if err != nil {
		t.Fatalf("GetTimeLog: %v", err)
	}
	if got.Open() || got.DurationMinutes != 480 || !got.Date.Equal(day) {
		t.Fatalf("unexpected record: %+v", got)
	}

	logs, err := s.ListTimeLogs(ctx, day, day)
	if err != nil {
		t.Fatalf("ListTimeLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].UserName != "alice" || logs[0].RoleName == nil || *logs[0].RoleName != "Designer" {
		t.Fatalf("unexpected listing: %+v", logs)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.InsertRole(ctx, "Designer", sqlitetest.Epoch); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, err := s.CountRoles(ctx)
	if err != nil {
		t.Fatalf("CountRoles: %v", err)
	}
	if n != 0 {
		t.Fatalf("role survived rollback")
	}
}

func TestDeactivateUserUnassignsOpenTasks(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	alice := sqlitetest.Member(t, s, "alice", role)
	open := sqlitetest.Task(t, s, "open", tt, alice, models.MustParseDate("2024-06-10"))
	done := sqlitetest.Task(t, s, "done", tt, alice, models.MustParseDate("2024-06-10"))

	task, _ := s.GetTask(ctx, done)
	task.Status = models.StatusCompleted
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	if err := s.DeactivateUser(ctx, alice, sqlitetest.Epoch); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}

	u, err := s.GetUser(ctx, alice)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.IsActive {
		t.Fatalf("user still active")
	}
	if got, _ := s.GetTask(ctx, open); got.AssignedTo != nil {
		t.Fatalf("open task still assigned")
	}
	if got, _ := s.GetTask(ctx, done); !got.IsAssignedTo(alice) {
		t.Fatalf("completed task lost its assignee")
	}

	members, err := s.ListMembers(ctx, role)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("inactive user listed as member")
	}
}

func TestRoleCountsAndDuplicateEmail(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	sqlitetest.TaskType(t, s, "Static Post", role)
	sqlitetest.Member(t, s, "alice", role)

	r, err := s.GetRole(ctx, role)
	if err != nil {
		t.Fatalf("GetRole: %v", err)
	}
	if r.MemberCount != 1 || r.TaskTypeCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", r.MemberCount, r.TaskTypeCount)
	}

	_, err = s.InsertUser(ctx, models.User{Name: "Alice", Email: "ALICE@agency.test", PasswordHash: "x"}, sqlitetest.Epoch)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}

	u, err := s.GetUserByEmail(ctx, " Alice@Agency.test ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.Name != "alice" {
		t.Fatalf("unexpected user %q", u.Name)
	}
}
