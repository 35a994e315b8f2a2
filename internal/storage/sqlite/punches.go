package sqlite

import (
	"context"
	"database/sql"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

const timeLogColumns = `tl.id, tl.user_id, tl.date, tl.punch_in, tl.punch_out, tl.duration_minutes`

func scanTimeLog(sc scanner, extra ...any) (models.TimeLog, error) {
	var l models.TimeLog
	var punchIn, punchOut sql.NullTime
	dest := []any{&l.ID, &l.UserID, &l.Date, &punchIn, &punchOut, &l.DurationMinutes}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return models.TimeLog{}, err
	}
	l.PunchIn = timePtr(punchIn)
	l.PunchOut = timePtr(punchOut)
	return l, nil
}

// GetTimeLog returns the user's punch record for a date.
func (s *Store) GetTimeLog(ctx context.Context, userID int64, date models.Date) (models.TimeLog, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+timeLogColumns+` FROM time_logs tl WHERE tl.user_id = ? AND tl.date = ?`,
		userID, date.String())
	l, err := scanTimeLog(row)
	if err != nil {
		return models.TimeLog{}, classify(err, "sqlite.GetTimeLog", "punch record")
	}
	return l, nil
}

// InsertTimeLog creates the punch record of a day.
func (s *Store) InsertTimeLog(ctx context.Context, l models.TimeLog) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO time_logs(user_id, date, punch_in, punch_out, duration_minutes)
        VALUES(?, ?, ?, ?, ?)`,
		l.UserID, l.Date.String(), nullTime(l.PunchIn), nullTime(l.PunchOut), l.DurationMinutes)
	if err != nil {
		return 0, classify(err, "sqlite.InsertTimeLog", "punch record")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(err, "sqlite.InsertTimeLog")
	}
	return id, nil
}

// SetPunchIn stamps punch_in on a record that has none.
func (s *Store) SetPunchIn(ctx context.Context, id int64, at time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE time_logs SET punch_in = ? WHERE id = ? AND punch_in IS NULL`, at.UTC(), id)
	if err != nil {
		return classify(err, "sqlite.SetPunchIn", "punch record")
	}
	return requireAffected(res, "sqlite.SetPunchIn", "open punch record")
}

// SetPunchOut stamps punch_out and the worked minutes on an open record.
func (s *Store) SetPunchOut(ctx context.Context, id int64, at time.Time, durationMinutes int) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE time_logs SET punch_out = ?, duration_minutes = ?
        WHERE id = ? AND punch_in IS NOT NULL AND punch_out IS NULL`, at.UTC(), durationMinutes, id)
	if err != nil {
		return classify(err, "sqlite.SetPunchOut", "punch record")
	}
	return requireAffected(res, "sqlite.SetPunchOut", "open punch record")
}

// ListTimeLogs returns punch records dated within [from, to] with user and role names.
func (s *Store) ListTimeLogs(ctx context.Context, from, to models.Date) ([]models.TimeLog, error) {
	const op = "sqlite.ListTimeLogs"
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+timeLogColumns+`, u.name, r.name
        FROM time_logs tl
        JOIN users u      ON tl.user_id = u.id
        LEFT JOIN roles r ON u.role_id  = r.id
        WHERE tl.date BETWEEN ? AND ?
        ORDER BY tl.date ASC, tl.punch_in ASC, tl.id ASC`, from.String(), to.String())
	if err != nil {
		return nil, classify(err, op, "punch record")
	}
	defer rows.Close()

	logs := []models.TimeLog{}
	for rows.Next() {
		var role sql.NullString
		var userName string
		l, err := scanTimeLog(rows, &userName, &role)
		if err != nil {
			return nil, classify(err, op, "punch record")
		}
		l.UserName = userName
		l.RoleName = stringPtr(role)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// RecentTimeLogs returns the user's latest punch records, newest date first.
func (s *Store) RecentTimeLogs(ctx context.Context, userID int64, limit int) ([]models.TimeLog, error) {
	const op = "sqlite.RecentTimeLogs"
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+timeLogColumns+` FROM time_logs tl
        WHERE tl.user_id = ? ORDER BY tl.date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, classify(err, op, "punch record")
	}
	defer rows.Close()

	logs := []models.TimeLog{}
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, classify(err, op, "punch record")
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
