package dashboard

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite"
	"taskflow/internal/storage/sqlite/sqlitetest"
)

type fixture struct {
	store   *sqlite.Store
	svc     *Service
	taskTyp int64
	alice   int64
	bob     int64
}

// Wednesday 12 June 2024; the working week is 10 to 15 June.
var wednesday = time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := sqlitetest.Open(t)
	role := sqlitetest.Role(t, s, "Designer")
	f := fixture{
		store:   s,
		svc:     New(s, nil),
		taskTyp: sqlitetest.TaskType(t, s, "Static Post", role),
		alice:   sqlitetest.Member(t, s, "alice", role),
		bob:     sqlitetest.Member(t, s, "bob", role),
	}
	clock := &sqlitetest.Clock{T: wednesday}
	f.svc.now = clock.Now
	return f
}

func (f fixture) complete(t *testing.T, id int64) {
	t.Helper()
	ctx := context.Background()
	task, err := f.store.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	task.Status = models.StatusCompleted
	task.Progress = 100
	if err := f.store.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
}

func TestStatsScopedToMember(t *testing.T) {
	f := newFixture(t)
	today := models.DateOf(wednesday)

	sqlitetest.Task(t, f.store, "today", f.taskTyp, f.alice, today)
	sqlitetest.Task(t, f.store, "saturday", f.taskTyp, f.alice, models.MustParseDate("2024-06-15"))
	sqlitetest.Task(t, f.store, "overdue", f.taskTyp, f.alice, models.MustParseDate("2024-06-05"))
	done := sqlitetest.Task(t, f.store, "done late", f.taskTyp, f.alice, models.MustParseDate("2024-06-04"))
	f.complete(t, done)
	sqlitetest.Task(t, f.store, "bob today", f.taskTyp, f.bob, today)
	sqlitetest.Task(t, f.store, "next week", f.taskTyp, 0, models.MustParseDate("2024-06-17"))

	got, err := f.svc.Stats(context.Background(), models.Actor{ID: f.alice})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{TotalActive: 3, TodayTasks: 1, WeekTasks: 2, OverdueTasks: 1, CompletedAll: 1}
	if got != want {
		t.Fatalf("member stats = %+v, want %+v", got, want)
	}

	got, err = f.svc.Stats(context.Background(), models.Actor{ID: 99, IsAdmin: true})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want = Stats{TotalActive: 5, TodayTasks: 2, WeekTasks: 3, OverdueTasks: 1, CompletedAll: 1}
	if got != want {
		t.Fatalf("admin stats = %+v, want %+v", got, want)
	}
}

func TestDailyGroupsByAssignee(t *testing.T) {
	f := newFixture(t)
	today := models.DateOf(wednesday)
	sqlitetest.Task(t, f.store, "a1", f.taskTyp, f.alice, today)
	sqlitetest.Task(t, f.store, "free", f.taskTyp, 0, today)
	sqlitetest.Task(t, f.store, "a2", f.taskTyp, f.alice, today)
	sqlitetest.Task(t, f.store, "b1", f.taskTyp, f.bob, today)
	sqlitetest.Task(t, f.store, "tomorrow", f.taskTyp, f.bob, today.AddDays(1))

	got, err := f.svc.Daily(context.Background(), models.Actor{ID: 1, IsAdmin: true}, models.Date{})
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if !got.Date.Equal(today) || got.Total != 4 || len(got.Groups) != 3 {
		t.Fatalf("unexpected daily view: %+v", got)
	}
	byName := map[string]int{}
	for _, g := range got.Groups {
		byName[g.AssigneeName] = len(g.Tasks)
	}
	if byName["alice"] != 2 || byName["bob"] != 1 || byName["Unassigned"] != 1 {
		t.Fatalf("unexpected groups: %v", byName)
	}
}

func TestWeeklyGroupsByDeadline(t *testing.T) {
	f := newFixture(t)
	sqlitetest.Task(t, f.store, "fri", f.taskTyp, f.alice, models.MustParseDate("2024-06-14"))
	sqlitetest.Task(t, f.store, "mon", f.taskTyp, f.alice, models.MustParseDate("2024-06-10"))
	sqlitetest.Task(t, f.store, "mon2", f.taskTyp, f.bob, models.MustParseDate("2024-06-10"))
	sqlitetest.Task(t, f.store, "sun", f.taskTyp, f.alice, models.MustParseDate("2024-06-16"))

	got, err := f.svc.Weekly(context.Background(), models.Actor{ID: f.alice}, models.MustParseDate("2024-06-13"))
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if got.WeekStart.String() != "2024-06-10" || got.WeekEnd.String() != "2024-06-15" {
		t.Fatalf("unexpected week bounds: %s..%s", got.WeekStart, got.WeekEnd)
	}
	if got.Total != 2 || len(got.Days) != 2 {
		t.Fatalf("unexpected weekly view: %+v", got)
	}
	if got.Days[0].Date.String() != "2024-06-10" || got.Days[1].Date.String() != "2024-06-14" {
		t.Fatalf("days out of order: %s, %s", got.Days[0].Date, got.Days[1].Date)
	}
}

func TestMonthlyBounds(t *testing.T) {
	f := newFixture(t)
	sqlitetest.Task(t, f.store, "first", f.taskTyp, f.alice, models.MustParseDate("2024-06-01"))
	sqlitetest.Task(t, f.store, "last", f.taskTyp, f.alice, models.MustParseDate("2024-06-30"))
	sqlitetest.Task(t, f.store, "july", f.taskTyp, f.alice, models.MustParseDate("2024-07-01"))

	got, err := f.svc.Monthly(context.Background(), models.Actor{ID: f.alice}, models.Date{})
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if got.MonthStart.String() != "2024-06-01" || got.MonthEnd.String() != "2024-06-30" || got.Total != 2 {
		t.Fatalf("unexpected monthly view: %+v", got)
	}
	if got.Tasks[0].Title != "first" {
		t.Fatalf("expected deadline order, got %q first", got.Tasks[0].Title)
	}
}
