package sqlite

import (
	"context"
	"database/sql"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

const taskTimeLogSelect = `SELECT l.id, l.task_id, l.user_id, l.started_at, l.ended_at, l.duration_secs,
            COALESCE(t.title, '')
        FROM task_time_logs l
        LEFT JOIN tasks t ON l.task_id = t.id`

func scanTaskTimeLog(sc scanner) (models.TaskTimeLog, error) {
	var l models.TaskTimeLog
	var endedAt sql.NullTime
	if err := sc.Scan(&l.ID, &l.TaskID, &l.UserID, &l.StartedAt, &endedAt, &l.DurationSecs, &l.TaskTitle); err != nil {
		return models.TaskTimeLog{}, err
	}
	l.StartedAt = l.StartedAt.UTC()
	l.EndedAt = timePtr(endedAt)
	return l, nil
}

func (s *Store) listTaskTimeLogs(ctx context.Context, op, query string, args ...any) ([]models.TaskTimeLog, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, op, "timer session")
	}
	defer rows.Close()

	logs := []models.TaskTimeLog{}
	for rows.Next() {
		l, err := scanTaskTimeLog(rows)
		if err != nil {
			return nil, classify(err, op, "timer session")
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// InsertTaskTimeLog opens or records a timer session. A second open session
// for the same user violates idx_task_time_logs_open and yields a Conflict.
func (s *Store) InsertTaskTimeLog(ctx context.Context, l models.TaskTimeLog) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO task_time_logs(task_id, user_id, started_at, ended_at, duration_secs)
        VALUES(?, ?, ?, ?, ?)`,
		l.TaskID, l.UserID, l.StartedAt.UTC(), nullTime(l.EndedAt), l.DurationSecs)
	if err != nil {
		return 0, classify(err, "sqlite.InsertTaskTimeLog", "running timer")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(err, "sqlite.InsertTaskTimeLog")
	}
	return id, nil
}

// GetTaskTimeLog retrieves a timer session by id.
func (s *Store) GetTaskTimeLog(ctx context.Context, id int64) (models.TaskTimeLog, error) {
	l, err := scanTaskTimeLog(s.q(ctx).QueryRowContext(ctx, taskTimeLogSelect+` WHERE l.id = ?`, id))
	if err != nil {
		return models.TaskTimeLog{}, classify(err, "sqlite.GetTaskTimeLog", "timer session")
	}
	return l, nil
}

// OpenTaskTimeLogs lists the user's running sessions, newest first.
func (s *Store) OpenTaskTimeLogs(ctx context.Context, userID, taskID int64) ([]models.TaskTimeLog, error) {
	query := taskTimeLogSelect + ` WHERE l.user_id = ? AND l.ended_at IS NULL`
	args := []any{userID}
	if taskID != 0 {
		query += ` AND l.task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY l.started_at DESC, l.id DESC`
	return s.listTaskTimeLogs(ctx, "sqlite.OpenTaskTimeLogs", query, args...)
}

// CloseTaskTimeLog ends a running session.
func (s *Store) CloseTaskTimeLog(ctx context.Context, id int64, endedAt time.Time, durationSecs int64) error {
	const op = "sqlite.CloseTaskTimeLog"
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE task_time_logs SET ended_at = ?, duration_secs = ?
        WHERE id = ? AND ended_at IS NULL`, endedAt.UTC(), durationSecs, id)
	if err != nil {
		return classify(err, op, "running timer")
	}
	return requireAffected(res, op, "running timer")
}

// DeleteTaskTimeLogs removes every session recorded against a task.
func (s *Store) DeleteTaskTimeLogs(ctx context.Context, taskID int64) error {
	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM task_time_logs WHERE task_id = ?`, taskID); err != nil {
		return classify(err, "sqlite.DeleteTaskTimeLogs", "timer session")
	}
	return nil
}

// RecentTaskTimeLogs returns the user's latest sessions.
func (s *Store) RecentTaskTimeLogs(ctx context.Context, userID int64, limit int) ([]models.TaskTimeLog, error) {
	return s.listTaskTimeLogs(ctx, "sqlite.RecentTaskTimeLogs",
		taskTimeLogSelect+` WHERE l.user_id = ? ORDER BY l.started_at DESC, l.id DESC LIMIT ?`, userID, limit)
}

// SumTaskSeconds totals the recorded duration of the user's sessions.
func (s *Store) SumTaskSeconds(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := s.q(ctx).QueryRowContext(ctx, `SELECT COALESCE(SUM(duration_secs), 0) FROM task_time_logs WHERE user_id = ?`, userID).
		Scan(&total)
	if err != nil {
		return 0, classify(err, "sqlite.SumTaskSeconds", "timer session")
	}
	return total, nil
}
