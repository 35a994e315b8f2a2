// Package workload suggests assignees by ranking a role's members on how many
// unfinished tasks they already have due on the same day.
package workload

import (
	"context"
	"log/slog"
	"sort"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// MaxCandidates bounds the suggestion list.
const MaxCandidates = 5

// Candidate is a member eligible for a task type.
type Candidate struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TodayCount int    `json:"today_count"`
}

// Suggestion is the ranked answer of SuggestAssignee. Candidates[0], when
// present, is the default pick; callers may override it.
type Suggestion struct {
	TaskType   models.TaskType `json:"task_type"`
	Candidates []Candidate     `json:"candidates"`
}

// MemberLoad is one row of the team load view.
type MemberLoad struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	RoleName     *string `json:"role_name"`
	TodayCount   int     `json:"today_count"`
	ActiveCount  int     `json:"active_count"`
	OverdueCount int     `json:"overdue_count"`
}

// Balancer reads the directory and task counts. It never writes.
type Balancer struct {
	tasks  repository.TaskRepository
	dir    repository.Directory
	logger *slog.Logger
}

// New creates a Balancer.
func New(tasks repository.TaskRepository, dir repository.Directory, logger *slog.Logger) *Balancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Balancer{tasks: tasks, dir: dir, logger: logger}
}

// SuggestAssignee ranks the active non-admin members of the task type's role
// by their unfinished tasks due on deadline, fewest first. Ties keep member
// id order.
func (b *Balancer) SuggestAssignee(ctx context.Context, taskTypeID int64, deadline models.Date) (Suggestion, error) {
	const op = "workload.SuggestAssignee"
	if deadline.IsZero() {
		return Suggestion{Candidates: []Candidate{}}, apperr.New(apperr.InvalidArgument, op, "deadline is required")
	}

	tt, err := b.dir.GetTaskType(ctx, taskTypeID)
	if err != nil {
		return Suggestion{Candidates: []Candidate{}}, apperr.Wrap(err, op)
	}

	members, err := b.dir.ListMembers(ctx, tt.RoleID)
	if err != nil {
		return Suggestion{Candidates: []Candidate{}}, apperr.Wrap(err, op)
	}

	candidates := make([]Candidate, 0, len(members))
	for _, m := range members {
		id := m.ID
		n, err := b.tasks.CountTasks(ctx, models.TaskFilter{AssignedTo: &id, Deadline: &deadline, OpenOnly: true})
		if err != nil {
			return Suggestion{Candidates: []Candidate{}}, apperr.Wrap(err, op)
		}
		candidates = append(candidates, Candidate{ID: m.ID, Name: m.Name, TodayCount: n})
	}

	candidates = Rank(candidates)
	b.logger.Debug("assignee suggestion",
		slog.String("op", op),
		slog.Int64("task_type_id", taskTypeID),
		slog.String("deadline", deadline.String()),
		slog.Int("candidates", len(candidates)),
	)
	return Suggestion{TaskType: tt, Candidates: candidates}, nil
}

// Rank sorts candidates by TodayCount ascending, keeping input order on ties,
// and keeps at most MaxCandidates.
func Rank(candidates []Candidate) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TodayCount < candidates[j].TodayCount
	})
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates
}

// TeamLoad reports, for every active member, the unfinished tasks due today,
// all unfinished tasks, and the unfinished tasks already past their deadline.
func (b *Balancer) TeamLoad(ctx context.Context, today models.Date) ([]MemberLoad, error) {
	const op = "workload.TeamLoad"
	members, err := b.dir.ListMembers(ctx, 0)
	if err != nil {
		return nil, apperr.Wrap(err, op)
	}

	yesterday := today.AddDays(-1)
	load := make([]MemberLoad, 0, len(members))
	for _, m := range members {
		id := m.ID
		row := MemberLoad{ID: m.ID, Name: m.Name, RoleName: m.RoleName}
		counts := []struct {
			dst    *int
			filter models.TaskFilter
		}{
			{&row.TodayCount, models.TaskFilter{AssignedTo: &id, Deadline: &today, OpenOnly: true}},
			{&row.ActiveCount, models.TaskFilter{AssignedTo: &id, OpenOnly: true}},
			{&row.OverdueCount, models.TaskFilter{AssignedTo: &id, To: &yesterday, OpenOnly: true}},
		}
		for _, c := range counts {
			n, err := b.tasks.CountTasks(ctx, c.filter)
			if err != nil {
				return nil, apperr.Wrap(err, op)
			}
			*c.dst = n
		}
		load = append(load, row)
	}

	sort.SliceStable(load, func(i, j int) bool {
		ri, rj := roleName(load[i]), roleName(load[j])
		if ri != rj {
			return ri < rj
		}
		return load[i].Name < load[j].Name
	})
	return load, nil
}

func roleName(m MemberLoad) string {
	if m.RoleName == nil {
		return ""
	}
	return *m.RoleName
}
