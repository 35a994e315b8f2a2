package performance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/performance"
	"taskflow/internal/storage/sqlite/sqlitetest"
)

func TestScorerAll(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	zoe := sqlitetest.Member(t, s, "zoe", role)
	amy := sqlitetest.Member(t, s, "amy", role)
	sqlitetest.Admin(t, s, "root")

	deadline := models.MustParseDate("2024-06-10")
	done := sqlitetest.Task(t, s, "done", tt, zoe, deadline)
	revised := sqlitetest.Task(t, s, "revised", tt, zoe, deadline)

	task, _ := s.GetTask(ctx, done)
	completedAt := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	task.Status = models.StatusCompleted
	task.CompletedAt = &completedAt
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	task, _ = s.GetTask(ctx, revised)
	task.RevisionCount = 1
	task.Status = models.StatusRevision
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	if _, err := s.InsertTaskTimeLog(ctx, models.TaskTimeLog{TaskID: done, UserID: zoe, StartedAt: start, EndedAt: &end, DurationSecs: 5400}); err != nil {
		t.Fatalf("InsertTaskTimeLog: %v", err)
	}

	scores, err := performance.New(s, nil).All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(scores) != 2 || scores[0].ID != amy || scores[1].ID != zoe {
		t.Fatalf("expected amy then zoe, got %+v", scores)
	}

	if scores[0].Grade != performance.GradeNoData || scores[0].Score != 0 {
		t.Fatalf("amy should have no data: %+v", scores[0])
	}

	z := scores[1]
	if z.Score != 69 || z.Grade != performance.GradeGood {
		t.Fatalf("zoe score = %d %s, want 69 Good", z.Score, z.Grade)
	}
	if z.ActiveTasks != 1 || z.ClientFeedbackCount != 1 || z.TotalTimeHours != 1.5 {
		t.Fatalf("unexpected extras: %+v", z)
	}
}

func TestScorerDetail(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	zoe := sqlitetest.Member(t, s, "zoe", role)
	early := sqlitetest.Task(t, s, "early", tt, zoe, models.MustParseDate("2024-06-03"))
	late := sqlitetest.Task(t, s, "late", tt, zoe, models.MustParseDate("2024-06-20"))

	in := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	if _, err := s.InsertTimeLog(ctx, models.TimeLog{UserID: zoe, Date: models.DateOf(in), PunchIn: &in}); err != nil {
		t.Fatalf("InsertTimeLog: %v", err)
	}

	d, err := performance.New(s, nil).Detail(ctx, zoe)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.User.Name != "zoe" || d.User.RoleName == nil || *d.User.RoleName != "Designer" {
		t.Fatalf("unexpected user: %+v", d.User)
	}
	if len(d.Tasks) != 2 || d.Tasks[0].ID != late || d.Tasks[1].ID != early {
		t.Fatalf("tasks not ordered by deadline desc: %+v", d.Tasks)
	}
	if len(d.PunchLogs) != 1 || len(d.TimeLogs) != 0 || d.TotalTimeHours != 0 {
		t.Fatalf("unexpected logs: %+v", d)
	}

	if _, err := performance.New(s, nil).Detail(ctx, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
