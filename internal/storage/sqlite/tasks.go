package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

const taskColumns = `t.id, t.title, t.description, t.client_name, t.task_type_id, t.urgency,
        t.deadline, t.buffer_deadline, t.assigned_to, t.status, t.progress, t.revision_count,
        t.feedback_notes, t.completed_at, t.eta, t.created_by, t.created_at, t.updated_at`

const taskViewSelect = `SELECT ` + taskColumns + `, u.name, tt.name, r.name
        FROM tasks t
        LEFT JOIN users u       ON t.assigned_to  = u.id
        LEFT JOIN task_types tt ON t.task_type_id = tt.id
        LEFT JOIN roles r       ON tt.role_id     = r.id`

const urgencyRank = `CASE t.urgency WHEN 'critical' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END`

func scanTask(sc scanner, t *models.Task, extra ...any) error {
	var (
		description, clientName, feedback sql.NullString
		assignedTo, createdBy             sql.NullInt64
		completedAt                       sql.NullTime
		eta                               models.Date
	)
	dest := []any{
		&t.ID, &t.Title, &description, &clientName, &t.TaskTypeID, &t.Urgency,
		&t.Deadline, &t.BufferDeadline, &assignedTo, &t.Status, &t.Progress, &t.RevisionCount,
		&feedback, &completedAt, &eta, &createdBy, &t.CreatedAt, &t.UpdatedAt,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	t.Description = stringPtr(description)
	t.ClientName = stringPtr(clientName)
	t.FeedbackNotes = stringPtr(feedback)
	t.AssignedTo = int64Ptr(assignedTo)
	t.CreatedBy = int64Ptr(createdBy)
	t.CompletedAt = timePtr(completedAt)
	if !eta.IsZero() {
		t.ETA = &eta
	}
	return nil
}

func scanTaskView(sc scanner) (models.TaskView, error) {
	var v models.TaskView
	var assignee, taskType, role sql.NullString
	if err := scanTask(sc, &v.Task, &assignee, &taskType, &role); err != nil {
		return models.TaskView{}, err
	}
	v.AssigneeName = stringPtr(assignee)
	v.TaskTypeName = stringPtr(taskType)
	v.RoleName = stringPtr(role)
	return v, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var t models.Task
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	if err := scanTask(row, &t); err != nil {
		return models.Task{}, classify(err, "sqlite.GetTask", "task")
	}
	return t, nil
}

// GetTaskView retrieves a task joined with assignee, task type and role names.
func (s *Store) GetTaskView(ctx context.Context, id int64) (models.TaskView, error) {
	row := s.q(ctx).QueryRowContext(ctx, taskViewSelect+` WHERE t.id = ?`, id)
	v, err := scanTaskView(row)
	if err != nil {
		return models.TaskView{}, classify(err, "sqlite.GetTaskView", "task")
	}
	return v, nil
}

func taskWhere(f models.TaskFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Urgency != "" {
		clauses = append(clauses, "t.urgency = ?")
		args = append(args, string(f.Urgency))
	}
	if f.AssignedTo != nil {
		clauses = append(clauses, "t.assigned_to = ?")
		args = append(args, *f.AssignedTo)
	}
	if f.Deadline != nil {
		clauses = append(clauses, "t.deadline = ?")
		args = append(args, f.Deadline.String())
	}
	if f.From != nil {
		clauses = append(clauses, "t.deadline >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		clauses = append(clauses, "t.deadline <= ?")
		args = append(args, f.To.String())
	}
	if f.OpenOnly {
		clauses = append(clauses, "t.status != 'completed'")
	}
	if f.Revised {
		clauses = append(clauses, "t.revision_count > 0")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func taskOrder(o models.TaskOrder) string {
	switch o {
	case models.OrderDeadline:
		return " ORDER BY t.deadline ASC, " + urgencyRank + " DESC, t.id ASC"
	case models.OrderDeadlineDesc:
		return " ORDER BY t.deadline DESC, t.id DESC"
	default:
		return " ORDER BY " + urgencyRank + " DESC, t.deadline ASC, t.id ASC"
	}
}

// ListTasks returns hydrated tasks matching the filter.
func (s *Store) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.TaskView, error) {
	where, args := taskWhere(f)
	rows, err := s.q(ctx).QueryContext(ctx, taskViewSelect+where+taskOrder(f.Order), args...)
	if err != nil {
		return nil, classify(err, "sqlite.ListTasks", "task")
	}
	defer rows.Close()

	tasks := []models.TaskView{}
	for rows.Next() {
		v, err := scanTaskView(rows)
		if err != nil {
			return nil, classify(err, "sqlite.ListTasks", "task")
		}
		tasks = append(tasks, v)
	}
	return tasks, rows.Err()
}

// CountTasks counts tasks matching the filter.
func (s *Store) CountTasks(ctx context.Context, f models.TaskFilter) (int, error) {
	where, args := taskWhere(f)
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&n); err != nil {
		return 0, classify(err, "sqlite.CountTasks", "task")
	}
	return n, nil
}

// InsertTask persists a new task and returns its id.
func (s *Store) InsertTask(ctx context.Context, t models.Task) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO tasks(
            title, description, client_name, task_type_id, urgency, deadline, buffer_deadline,
            assigned_to, status, progress, revision_count, feedback_notes, completed_at, eta,
            created_by, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, nullString(t.Description), nullString(t.ClientName), t.TaskTypeID, string(t.Urgency),
		t.Deadline.String(), t.BufferDeadline.String(), nullInt64(t.AssignedTo), string(t.Status),
		t.Progress, t.RevisionCount, nullString(t.FeedbackNotes), nullTime(t.CompletedAt), nullDate(t.ETA),
		nullInt64(t.CreatedBy), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return 0, classify(err, "sqlite.InsertTask", "task")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(err, "sqlite.InsertTask")
	}
	return id, nil
}

// SaveTask writes the mutable columns of t. A stored completed_at is never overwritten.
func (s *Store) SaveTask(ctx context.Context, t models.Task) error {
	const op = "sqlite.SaveTask"
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE tasks SET
            title = ?, description = ?, client_name = ?, task_type_id = ?, urgency = ?,
            deadline = ?, buffer_deadline = ?, assigned_to = ?, status = ?, progress = ?,
            revision_count = ?, feedback_notes = ?, completed_at = COALESCE(completed_at, ?),
            eta = ?, updated_at = ?
        WHERE id = ?`,
		t.Title, nullString(t.Description), nullString(t.ClientName), t.TaskTypeID, string(t.Urgency),
		t.Deadline.String(), t.BufferDeadline.String(), nullInt64(t.AssignedTo), string(t.Status), t.Progress,
		t.RevisionCount, nullString(t.FeedbackNotes), nullTime(t.CompletedAt),
		nullDate(t.ETA), t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return classify(err, op, "task")
	}
	return requireAffected(res, op, "task")
}

// StartTask moves a pending task to in_progress.
func (s *Store) StartTask(ctx context.Context, id int64, now time.Time) error {
	_, err := s.q(ctx).ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(models.StatusInProgress), now.UTC(), id, string(models.StatusPending))
	if err != nil {
		return classify(err, "sqlite.StartTask", "task")
	}
	return nil
}

// DeleteTask removes a task by id. Timer sessions must be removed first.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	const op = "sqlite.DeleteTask"
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return classify(err, op, "task")
	}
	return requireAffected(res, op, "task")
}
