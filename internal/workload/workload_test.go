package workload_test

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite/sqlitetest"
	"taskflow/internal/workload"
)

func TestSuggestAssigneeLeastLoadedFirst(t *testing.T) {
	s := sqlitetest.Open(t)
	role := sqlitetest.Role(t, s, "Designer")
	other := sqlitetest.Role(t, s, "Video Editor")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	a := sqlitetest.Member(t, s, "alice", role)
	b := sqlitetest.Member(t, s, "bob", role)
	sqlitetest.Member(t, s, "victor", other)
	sqlitetest.Admin(t, s, "root")

	day := models.MustParseDate("2024-06-10")
	sqlitetest.Task(t, s, "one", tt, a, day)
	sqlitetest.Task(t, s, "two", tt, a, day)
	// Different deadline, must not count.
	sqlitetest.Task(t, s, "three", tt, b, day.AddDays(1))

	got, err := workload.New(s, s, nil).SuggestAssignee(context.Background(), tt, day)
	if err != nil {
		t.Fatalf("SuggestAssignee: %v", err)
	}
	if got.TaskType.ID != tt || got.TaskType.RoleID != role {
		t.Fatalf("unexpected task type: %+v", got.TaskType)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", got.Candidates)
	}
	if got.Candidates[0].ID != b || got.Candidates[0].TodayCount != 0 {
		t.Fatalf("expected bob first with 0, got %+v", got.Candidates[0])
	}
	if got.Candidates[1].ID != a || got.Candidates[1].TodayCount != 2 {
		t.Fatalf("expected alice second with 2, got %+v", got.Candidates[1])
	}
}

func TestSuggestAssigneeIgnoresCompletedTasks(t *testing.T) {
	s := sqlitetest.Open(t)
	ctx := context.Background()
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	a := sqlitetest.Member(t, s, "alice", role)
	day := models.MustParseDate("2024-06-10")
	id := sqlitetest.Task(t, s, "one", tt, a, day)

	task, _ := s.GetTask(ctx, id)
	task.Status = models.StatusCompleted
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	got, err := workload.New(s, s, nil).SuggestAssignee(ctx, tt, day)
	if err != nil {
		t.Fatalf("SuggestAssignee: %v", err)
	}
	if got.Candidates[0].TodayCount != 0 {
		t.Fatalf("completed task counted: %+v", got.Candidates[0])
	}
}

func TestSuggestAssigneeUnknownTaskType(t *testing.T) {
	s := sqlitetest.Open(t)
	got, err := workload.New(s, s, nil).SuggestAssignee(context.Background(), 99, models.MustParseDate("2024-06-10"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got.Candidates == nil || len(got.Candidates) != 0 {
		t.Fatalf("expected empty candidate list, got %+v", got.Candidates)
	}
}

func TestSuggestAssigneeCapsAtFive(t *testing.T) {
	s := sqlitetest.Open(t)
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		sqlitetest.Member(t, s, name, role)
	}

	got, err := workload.New(s, s, nil).SuggestAssignee(context.Background(), tt, models.MustParseDate("2024-06-10"))
	if err != nil {
		t.Fatalf("SuggestAssignee: %v", err)
	}
	if len(got.Candidates) != workload.MaxCandidates {
		t.Fatalf("got %d candidates, want %d", len(got.Candidates), workload.MaxCandidates)
	}
	if got.Candidates[0].Name != "a" || got.Candidates[4].Name != "e" {
		t.Fatalf("ties should keep member order: %+v", got.Candidates)
	}
}

func TestRankIsStableAscending(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		counts := rapid.SliceOf(rapid.IntRange(0, 4)).Draw(rt, "counts")
		in := make([]workload.Candidate, len(counts))
		for i, c := range counts {
			in[i] = workload.Candidate{ID: int64(i + 1), TodayCount: c}
		}

		out := workload.Rank(append([]workload.Candidate(nil), in...))

		want := len(in)
		if want > workload.MaxCandidates {
			want = workload.MaxCandidates
		}
		if len(out) != want {
			rt.Fatalf("len = %d, want %d", len(out), want)
		}
		for i := 1; i < len(out); i++ {
			prev, cur := out[i-1], out[i]
			if prev.TodayCount > cur.TodayCount {
				rt.Fatalf("not ascending at %d: %+v", i, out)
			}
			if prev.TodayCount == cur.TodayCount && prev.ID > cur.ID {
				rt.Fatalf("tie order broken at %d: %+v", i, out)
			}
		}
	})
}

func TestTeamLoad(t *testing.T) {
	s := sqlitetest.Open(t)
	role := sqlitetest.Role(t, s, "Designer")
	tt := sqlitetest.TaskType(t, s, "Static Post", role)
	a := sqlitetest.Member(t, s, "alice", role)
	today := models.MustParseDate("2024-06-10")
	sqlitetest.Task(t, s, "due", tt, a, today)
	sqlitetest.Task(t, s, "late", tt, a, today.AddDays(-3))
	sqlitetest.Task(t, s, "later", tt, a, today.AddDays(5))

	load, err := workload.New(s, s, nil).TeamLoad(context.Background(), today)
	if err != nil {
		t.Fatalf("TeamLoad: %v", err)
	}
	if len(load) != 1 {
		t.Fatalf("expected one member, got %+v", load)
	}
	got := load[0]
	if got.TodayCount != 1 || got.ActiveCount != 3 || got.OverdueCount != 1 {
		t.Fatalf("unexpected load: %+v", got)
	}
}
