// Package dashboard serves the task overviews shown on the landing page.
// Members only see their own tasks; administrators see everything.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// Stats are the headline counters.
type Stats struct {
	TotalActive  int `json:"totalActive"`
	TodayTasks   int `json:"todayTasks"`
	WeekTasks    int `json:"weekTasks"`
	OverdueTasks int `json:"overdueTasks"`
	CompletedAll int `json:"completedAll"`
}

// AssigneeGroup holds the tasks of one assignee on a day.
type AssigneeGroup struct {
	AssigneeID   *int64            `json:"assignee_id"`
	AssigneeName string            `json:"assignee_name"`
	RoleName     *string           `json:"role_name"`
	Tasks        []models.TaskView `json:"tasks"`
}

type Daily struct {
	Date   models.Date     `json:"date"`
	Groups []AssigneeGroup `json:"groups"`
	Total  int             `json:"total"`
}

// DayGroup holds the tasks due on one date.
type DayGroup struct {
	Date  models.Date       `json:"date"`
	Tasks []models.TaskView `json:"tasks"`
}

type Weekly struct {
	WeekStart models.Date `json:"weekStart"`
	WeekEnd   models.Date `json:"weekEnd"`
	Days      []DayGroup  `json:"days"`
	Total     int         `json:"total"`
}

type Monthly struct {
	MonthStart models.Date       `json:"monthStart"`
	MonthEnd   models.Date       `json:"monthEnd"`
	Tasks      []models.TaskView `json:"tasks"`
	Total      int               `json:"total"`
}

// Service reads task listings for the dashboard.
type Service struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(tasks repository.TaskRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tasks: tasks, logger: logger, now: time.Now}
}

// Today is the current UTC calendar date.
func (s *Service) Today() models.Date {
	return models.DateOf(s.now().UTC())
}

func scoped(actor models.Actor, f models.TaskFilter) models.TaskFilter {
	if !actor.IsAdmin {
		id := actor.ID
		f.AssignedTo = &id
	}
	return f
}

// Stats counts open, due and completed tasks relative to today. The week
// runs Monday to Saturday.
func (s *Service) Stats(ctx context.Context, actor models.Actor) (Stats, error) {
	const op = "dashboard.Stats"
	today := s.Today()
	yesterday := today.AddDays(-1)
	weekStart, weekEnd := today.WeekRange()

	var st Stats
	counts := []struct {
		dst    *int
		filter models.TaskFilter
	}{
		{&st.TotalActive, models.TaskFilter{OpenOnly: true}},
		{&st.TodayTasks, models.TaskFilter{Deadline: &today}},
		{&st.WeekTasks, models.TaskFilter{From: &weekStart, To: &weekEnd}},
		{&st.OverdueTasks, models.TaskFilter{To: &yesterday, OpenOnly: true}},
		{&st.CompletedAll, models.TaskFilter{Status: models.StatusCompleted}},
	}
	for _, c := range counts {
		n, err := s.tasks.CountTasks(ctx, scoped(actor, c.filter))
		if err != nil {
			return Stats{}, apperr.Wrap(err, op)
		}
		*c.dst = n
	}
	return st, nil
}

// Daily lists the tasks due on date grouped by assignee, most urgent first.
// A zero date means today.
func (s *Service) Daily(ctx context.Context, actor models.Actor, date models.Date) (Daily, error) {
	const op = "dashboard.Daily"
	if date.IsZero() {
		date = s.Today()
	}
	tasks, err := s.tasks.ListTasks(ctx, scoped(actor, models.TaskFilter{Deadline: &date, Order: models.OrderUrgency}))
	if err != nil {
		return Daily{}, apperr.Wrap(err, op)
	}

	groups := []AssigneeGroup{}
	index := map[int64]int{}
	for _, t := range tasks {
		var key int64
		if t.AssignedTo != nil {
			key = *t.AssignedTo
		}
		i, ok := index[key]
		if !ok {
			name := "Unassigned"
			if t.AssigneeName != nil {
				name = *t.AssigneeName
			}
			groups = append(groups, AssigneeGroup{AssigneeID: t.AssignedTo, AssigneeName: name, RoleName: t.RoleName})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return Daily{Date: date, Groups: groups, Total: len(tasks)}, nil
}

// Weekly lists the tasks due in the working week containing date, grouped
// by deadline.
func (s *Service) Weekly(ctx context.Context, actor models.Actor, date models.Date) (Weekly, error) {
	const op = "dashboard.Weekly"
	if date.IsZero() {
		date = s.Today()
	}
	start, end := date.WeekRange()
	tasks, err := s.tasks.ListTasks(ctx, scoped(actor, models.TaskFilter{From: &start, To: &end, Order: models.OrderDeadline}))
	if err != nil {
		return Weekly{}, apperr.Wrap(err, op)
	}

	days := []DayGroup{}
	for _, t := range tasks {
		if n := len(days); n == 0 || !days[n-1].Date.Equal(t.Deadline) {
			days = append(days, DayGroup{Date: t.Deadline})
		}
		days[len(days)-1].Tasks = append(days[len(days)-1].Tasks, t)
	}
	return Weekly{WeekStart: start, WeekEnd: end, Days: days, Total: len(tasks)}, nil
}

// Monthly lists the tasks due in the calendar month containing date.
func (s *Service) Monthly(ctx context.Context, actor models.Actor, date models.Date) (Monthly, error) {
	const op = "dashboard.Monthly"
	if date.IsZero() {
		date = s.Today()
	}
	start, end := date.MonthRange()
	tasks, err := s.tasks.ListTasks(ctx, scoped(actor, models.TaskFilter{From: &start, To: &end, Order: models.OrderDeadline}))
	if err != nil {
		return Monthly{}, apperr.Wrap(err, op)
	}
	return Monthly{MonthStart: start, MonthEnd: end, Tasks: tasks, Total: len(tasks)}, nil
}
