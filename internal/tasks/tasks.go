// Package tasks owns the task lifecycle: creation, partial updates, progress
// and status changes, revision feedback and deletion. Every mutation runs in
// one transaction and keeps buffer_deadline, status and completed_at consistent.
package tasks

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/internal/workday"
	"taskflow/internal/workload"
)

// Store is the persistence the engine needs.
type Store interface {
	repository.Transactor
	repository.TaskRepository
	repository.TimerRepository
	repository.Directory
}

// TimerStopper ends the running timer of a user on a task. It is a no-op
// when no timer runs.
type TimerStopper interface {
	StopRunning(ctx context.Context, userID, taskID int64) error
}

// Suggester picks a default assignee.
type Suggester interface {
	SuggestAssignee(ctx context.Context, taskTypeID int64, deadline models.Date) (workload.Suggestion, error)
}

// Engine applies task mutations on behalf of an actor.
type Engine struct {
	store     Store
	timers    TimerStopper
	suggester Suggester
	policy    Policy
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Engine. suggester may be nil, which disables AutoAssign.
func New(store Store, timers TimerStopper, suggester Suggester, policy Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		timers:    timers,
		suggester: suggester,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Second)
}

// CreateInput carries the fields of a new task.
type CreateInput struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	ClientName  *string        `json:"client_name"`
	TaskTypeID  int64          `json:"task_type_id"`
	Urgency     models.Urgency `json:"urgency"`
	Deadline    models.Date    `json:"deadline"`
	AssignedTo  *int64         `json:"assigned_to"`
	ETA         *models.Date   `json:"eta"`
	// AutoAssign picks the least loaded member when AssignedTo is nil.
	AutoAssign bool `json:"auto_assign"`
}

// UpdateInput is a partial update. Absent fields keep their value.
type UpdateInput struct {
	Title         Optional[string]         `json:"title"`
	Description   Optional[*string]        `json:"description"`
	ClientName    Optional[*string]        `json:"client_name"`
	TaskTypeID    Optional[int64]          `json:"task_type_id"`
	Urgency       Optional[models.Urgency] `json:"urgency"`
	Deadline      Optional[models.Date]    `json:"deadline"`
	AssignedTo    Optional[*int64]         `json:"assigned_to"`
	Status        Optional[models.Status]  `json:"status"`
	ETA           Optional[*models.Date]   `json:"eta"`
	FeedbackNotes Optional[*string]        `json:"feedback_notes"`
}

// Create inserts a pending task. Admin only.
func (e *Engine) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.TaskView, error) {
	const op = "tasks.Create"
	if !actor.IsAdmin {
		return models.TaskView{}, apperr.New(apperr.PermissionDenied, op, "admin access required")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || in.TaskTypeID == 0 || in.Deadline.IsZero() {
		return models.TaskView{}, apperr.New(apperr.InvalidArgument, op, "title, task_type_id, and deadline are required")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	if !urgency.Valid() {
		return models.TaskView{}, apperr.Newf(apperr.InvalidArgument, op, "unknown urgency %q", urgency)
	}
	buffer, err := workday.BufferDeadline(in.Deadline, urgency)
	if err != nil {
		return models.TaskView{}, err
	}

	var view models.TaskView
	err = e.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetTaskType(ctx, in.TaskTypeID); err != nil {
			return err
		}

		assignee := in.AssignedTo
		if assignee == nil && in.AutoAssign && e.suggester != nil {
			s, err := e.suggester.SuggestAssignee(ctx, in.TaskTypeID, in.Deadline)
			if err != nil {
				return err
			}
			if len(s.Candidates) > 0 {
				id := s.Candidates[0].ID
				assignee = &id
			}
		}
		if err := e.checkAssignee(ctx, op, assignee); err != nil {
			return err
		}

		now := e.clock()
		creator := actor.ID
		id, err := e.store.InsertTask(ctx, models.Task{
			Title:          title,
			Description:    blankToNil(in.Description),
			ClientName:     blankToNil(in.ClientName),
			TaskTypeID:     in.TaskTypeID,
			Urgency:        urgency,
			Deadline:       in.Deadline,
			BufferDeadline: buffer,
			AssignedTo:     assignee,
			Status:         models.StatusPending,
			ETA:            dateOrNil(in.ETA),
			CreatedBy:      &creator,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return err
		}
		view, err = e.store.GetTaskView(ctx, id)
		return err
	})
	if err != nil {
		return models.TaskView{}, apperr.Wrap(err, op)
	}

	e.logger.Info("task created",
		slog.String("op", op),
		slog.Int64("task_id", view.ID),
		slog.Int64("actor_id", actor.ID),
		slog.String("buffer_deadline", view.BufferDeadline.String()),
	)
	return view, nil
}

// Update applies a partial update. Admin only. The buffer deadline is
// recomputed from the resulting deadline and urgency whenever either is set.
func (e *Engine) Update(ctx context.Context, actor models.Actor, id int64, in UpdateInput) (models.TaskView, error) {
	const op = "tasks.Update"
	if !actor.IsAdmin {
		return models.TaskView{}, apperr.New(apperr.PermissionDenied, op, "admin access required")
	}

	return e.mutate(ctx, op, actor, id, func(ctx context.Context, t *models.Task) error {
		if in.Title.Set {
			title := strings.TrimSpace(in.Title.Value)
			if title == "" {
				return apperr.New(apperr.InvalidArgument, op, "title cannot be empty")
			}
			t.Title = title
		}
		if in.Description.Set {
			t.Description = blankToNil(in.Description.Value)
		}
		if in.ClientName.Set {
			t.ClientName = blankToNil(in.ClientName.Value)
		}
		if in.TaskTypeID.Set && in.TaskTypeID.Value != t.TaskTypeID {
			if _, err := e.store.GetTaskType(ctx, in.TaskTypeID.Value); err != nil {
				return err
			}
			t.TaskTypeID = in.TaskTypeID.Value
		}
		if in.Urgency.Set {
			if !in.Urgency.Value.Valid() {
				return apperr.Newf(apperr.InvalidArgument, op, "unknown urgency %q", in.Urgency.Value)
			}
			t.Urgency = in.Urgency.Value
		}
		if in.Deadline.Set {
			if in.Deadline.Value.IsZero() {
				return apperr.New(apperr.InvalidArgument, op, "deadline cannot be cleared")
			}
			t.Deadline = in.Deadline.Value
		}
		if in.Urgency.Set || in.Deadline.Set {
			buffer, err := workday.BufferDeadline(t.Deadline, t.Urgency)
			if err != nil {
				return err
			}
			t.BufferDeadline = buffer
		}
		if in.AssignedTo.Set {
			if err := e.checkAssignee(ctx, op, in.AssignedTo.Value); err != nil {
				return err
			}
			t.AssignedTo = in.AssignedTo.Value
		}
		if in.ETA.Set {
			t.ETA = dateOrNil(in.ETA.Value)
		}
		if in.FeedbackNotes.Set {
			t.FeedbackNotes = in.FeedbackNotes.Value
		}
		if in.Status.Set {
			if !in.Status.Value.Valid() {
				return apperr.Newf(apperr.InvalidArgument, op, "unknown status %q", in.Status.Value)
			}
			return e.transition(op, t, in.Status.Value)
		}
		return nil
	})
}

// UpdateProgress sets progress, clamped to [0,100], and derives the status
// from it: 100 completes the task, 0 resets it to pending, anything else
// marks it in progress. Admin or assignee.
func (e *Engine) UpdateProgress(ctx context.Context, actor models.Actor, id int64, progress int) (models.TaskView, error) {
	const op = "tasks.UpdateProgress"
	progress = min(100, max(0, progress))

	return e.mutate(ctx, op, actor, id, func(ctx context.Context, t *models.Task) error {
		if !actor.CanModify(*t) {
			return apperr.New(apperr.PermissionDenied, op, "not authorised to update this task")
		}
		t.Progress = progress
		return e.transition(op, t, statusForProgress(progress))
	})
}

// UpdateStatus writes one of the canonical statuses. Admin or assignee.
func (e *Engine) UpdateStatus(ctx context.Context, actor models.Actor, id int64, status models.Status) (models.TaskView, error) {
	const op = "tasks.UpdateStatus"
	if !status.Canonical() {
		return models.TaskView{}, apperr.Newf(apperr.InvalidArgument, op,
			"status must be one of: pending, in_progress, on_hold, client_feedback, completed")
	}

	return e.mutate(ctx, op, actor, id, func(ctx context.Context, t *models.Task) error {
		if !actor.CanModify(*t) {
			return apperr.New(apperr.PermissionDenied, op, "not authorised to update this task")
		}
		return e.transition(op, t, status)
	})
}

// SubmitFeedback records client feedback and sends the task back for
// revision. Any authenticated actor may call it, from any status.
func (e *Engine) SubmitFeedback(ctx context.Context, actor models.Actor, id int64, notes *string) (models.TaskView, error) {
	const op = "tasks.SubmitFeedback"
	return e.mutate(ctx, op, actor, id, func(ctx context.Context, t *models.Task) error {
		t.RevisionCount++
		t.FeedbackNotes = blankToNil(notes)
		return e.transition(op, t, models.StatusRevision)
	})
}

// Delete removes a task and its timer sessions. Admin only.
func (e *Engine) Delete(ctx context.Context, actor models.Actor, id int64) error {
	const op = "tasks.Delete"
	if !actor.IsAdmin {
		return apperr.New(apperr.PermissionDenied, op, "admin access required")
	}

	err := e.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetTask(ctx, id); err != nil {
			return err
		}
		if err := e.store.DeleteTaskTimeLogs(ctx, id); err != nil {
			return err
		}
		return e.store.DeleteTask(ctx, id)
	})
	if err != nil {
		return apperr.Wrap(err, op)
	}

	e.logger.Info("task deleted", slog.String("op", op), slog.Int64("task_id", id), slog.Int64("actor_id", actor.ID))
	return nil
}

// Get returns a hydrated task.
func (e *Engine) Get(ctx context.Context, actor models.Actor, id int64) (models.TaskView, error) {
	v, err := e.store.GetTaskView(ctx, id)
	if err != nil {
		return models.TaskView{}, apperr.Wrap(err, "tasks.Get")
	}
	return v, nil
}

// List returns tasks matching filter. Non-admins only see their own tasks.
func (e *Engine) List(ctx context.Context, actor models.Actor, filter models.TaskFilter) ([]models.TaskView, error) {
	const op = "tasks.List"
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Newf(apperr.InvalidArgument, op, "unknown status %q", filter.Status)
	}
	if filter.Urgency != "" && !filter.Urgency.Valid() {
		return nil, apperr.Newf(apperr.InvalidArgument, op, "unknown urgency %q", filter.Urgency)
	}
	if !actor.IsAdmin {
		id := actor.ID
		filter.AssignedTo = &id
	}
	tasks, err := e.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, op)
	}
	return tasks, nil
}

// MyTasks returns the actor's unfinished tasks, most urgent first.
func (e *Engine) MyTasks(ctx context.Context, actor models.Actor) ([]models.TaskView, error) {
	id := actor.ID
	tasks, err := e.store.ListTasks(ctx, models.TaskFilter{AssignedTo: &id, OpenOnly: true})
	if err != nil {
		return nil, apperr.Wrap(err, "tasks.MyTasks")
	}
	return tasks, nil
}

// mutate loads the task, applies fn, saves it and stops the actor's timer
// when the task left active work, all in one transaction.
func (e *Engine) mutate(ctx context.Context, op string, actor models.Actor, id int64, fn func(ctx context.Context, t *models.Task) error) (models.TaskView, error) {
	var view models.TaskView
	err := e.store.WithinTx(ctx, func(ctx context.Context) error {
		t, err := e.store.GetTask(ctx, id)
		if err != nil {
			return err
		}
		before := t.Status
		if err := fn(ctx, &t); err != nil {
			return err
		}

		t.UpdatedAt = e.clock()
		if err := e.store.SaveTask(ctx, t); err != nil {
			return err
		}
		if t.Status != before && t.Status.StopsTimer() && e.timers != nil {
			if err := e.timers.StopRunning(ctx, actor.ID, id); err != nil {
				return err
			}
		}
		view, err = e.store.GetTaskView(ctx, id)
		return err
	})
	if err != nil {
		return models.TaskView{}, apperr.Wrap(err, op)
	}

	e.logger.Info("task updated",
		slog.String("op", op),
		slog.Int64("task_id", id),
		slog.Int64("actor_id", actor.ID),
		slog.String("status", string(view.Status)),
		slog.Int("progress", view.Progress),
	)
	return view, nil
}

// transition moves t to status under the policy and stamps completed_at on
// the first entry into completed.
func (e *Engine) transition(op string, t *models.Task, status models.Status) error {
	if err := e.policy.Check(op, t.Status, status); err != nil {
		return err
	}
	if status == models.StatusCompleted && t.Status != models.StatusCompleted && t.CompletedAt == nil {
		now := e.clock()
		t.CompletedAt = &now
	}
	t.Status = status
	return nil
}

func (e *Engine) checkAssignee(ctx context.Context, op string, id *int64) error {
	if id == nil {
		return nil
	}
	u, err := e.store.GetUser(ctx, *id)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return apperr.Newf(apperr.InvalidArgument, op, "user %d is inactive", u.ID)
	}
	return nil
}

func statusForProgress(progress int) models.Status {
	switch {
	case progress >= 100:
		return models.StatusCompleted
	case progress <= 0:
		return models.StatusPending
	default:
		return models.StatusInProgress
	}
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func dateOrNil(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
