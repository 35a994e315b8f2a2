package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

const roleSelect = `SELECT r.id, r.name, r.created_at,
            (SELECT COUNT(*) FROM users WHERE role_id = r.id AND is_active = 1),
            (SELECT COUNT(*) FROM task_types WHERE role_id = r.id)
        FROM roles r`

func scanRole(sc scanner) (models.Role, error) {
	var r models.Role
	err := sc.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.MemberCount, &r.TaskTypeCount)
	return r, err
}

// ListRoles returns every role with member and task type counts.
func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.q(ctx).QueryContext(ctx, roleSelect+` ORDER BY r.name`)
	if err != nil {
		return nil, classify(err, "sqlite.ListRoles", "role")
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, classify(err, "sqlite.ListRoles", "role")
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetRole fetches a single role by id.
func (s *Store) GetRole(ctx context.Context, id int64) (models.Role, error) {
	r, err := scanRole(s.q(ctx).QueryRowContext(ctx, roleSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return models.Role{}, classify(err, "sqlite.GetRole", "role")
	}
	return r, nil
}

// InsertRole persists a new role.
func (s *Store) InsertRole(ctx context.Context, name string, now time.Time) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO roles(name, created_at) VALUES(?, ?)`, strings.TrimSpace(name), now.UTC())
	if err != nil {
		return 0, classify(err, "sqlite.InsertRole", "role")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(err, "sqlite.InsertRole")
	}
	return id, nil
}

// RenameRole changes a role's name.
func (s *Store) RenameRole(ctx context.Context, id int64, name string) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE roles SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	if err != nil {
		return classify(err, "sqlite.RenameRole", "role")
	}
	return requireAffected(res, "sqlite.RenameRole", "role")
}

// DeleteRole removes a role. Deactivated users holding it lose the reference.
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	const op = "sqlite.DeleteRole"
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.q(ctx).ExecContext(ctx, `UPDATE users SET role_id = NULL WHERE role_id = ? AND is_active = 0`, id); err != nil {
			return classify(err, op, "user")
		}
		res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
		if err != nil {
			return inUse(err, op, "role")
		}
		return requireAffected(res, op, "role")
	})
}

const taskTypeSelect = `SELECT tt.id, tt.name, tt.role_id, r.name, tt.daily_capacity, tt.is_predefined, tt.created_at,
            (SELECT COUNT(*) FROM tasks WHERE task_type_id = tt.id)
        FROM task_types tt
        LEFT JOIN roles r ON tt.role_id = r.id`

func scanTaskType(sc scanner) (models.TaskType, error) {
	var tt models.TaskType
	var role sql.NullString
	if err := sc.Scan(&tt.ID, &tt.Name, &tt.RoleID, &role, &tt.DailyCapacity, &tt.IsPredefined, &tt.CreatedAt, &tt.TaskCount); err != nil {
		return models.TaskType{}, err
	}
	tt.RoleName = stringPtr(role)
	return tt, nil
}

// ListTaskTypes returns every task type ordered by role and name.
func (s *Store) ListTaskTypes(ctx context.Context) ([]models.TaskType, error) {
	rows, err := s.q(ctx).QueryContext(ctx, taskTypeSelect+` ORDER BY r.name, tt.name`)
	if err != nil {
		return nil, classify(err, "sqlite.ListTaskTypes", "task type")
	}
	defer rows.Close()

	types := []models.TaskType{}
	for rows.Next() {
		tt, err := scanTaskType(rows)
		if err != nil {
			return nil, classify(err, "sqlite.ListTaskTypes", "task type")
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

// GetTaskType fetches a task type by id.
func (s *Store) GetTaskType(ctx context.Context, id int64) (models.TaskType, error) {
	tt, err := scanTaskType(s.q(ctx).QueryRowContext(ctx, taskTypeSelect+` WHERE tt.id = ?`, id))
	if err != nil {
		return models.TaskType{}, classify(err, "sqlite.GetTaskType", "task type")
	}
	return tt, nil
}

// InsertTaskType persists a new task type.
func (s *Store) InsertTaskType(ctx context.Context, tt models.TaskType, now time.Time) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO task_types(name, role_id, daily_capacity, is_predefined, created_at)
        VALUES(?, ?, ?, ?, ?)`, strings.TrimSpace(tt.Name), tt.RoleID, tt.DailyCapacity, tt.IsPredefined, now.UTC())
	if err != nil {
		return 0, classify(err, "sqlite.InsertTaskType", "task type")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(err, "sqlite.InsertTaskType")
	}
	return id, nil
}

// UpdateTaskType writes name, role and capacity.
func (s *Store) UpdateTaskType(ctx context.Context, tt models.TaskType) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE task_types SET name = ?, role_id = ?, daily_capacity = ? WHERE id = ?`,
		strings.TrimSpace(tt.Name), tt.RoleID, tt.DailyCapacity, tt.ID)
	if err != nil {
		return classify(err, "sqlite.UpdateTaskType", "task type")
	}
	return requireAffected(res, "sqlite.UpdateTaskType", "task type")
}

// DeleteTaskType removes a task type.
func (s *Store) DeleteTaskType(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM task_types WHERE id = ?`, id)
	if err != nil {
		return inUse(err, "sqlite.DeleteTaskType", "task type")
	}
	return requireAffected(res, "sqlite.DeleteTaskType", "task type")
}

const userSelect = `SELECT u.id, u.name, u.email, u.password, u.role_id, r.name, u.is_admin, u.is_active, u.created_at,
            (SELECT COUNT(*) FROM tasks WHERE assigned_to = u.id AND status != 'completed'),
            (SELECT COUNT(*) FROM tasks WHERE assigned_to = u.id AND status = 'completed')
        FROM users u
        LEFT JOIN roles r ON u.role_id = r.id`

func scanUser(sc scanner) (models.User, error) {
	var u models.User
	var roleID sql.NullInt64
	var role sql.NullString
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &roleID, &role, &u.IsAdmin, &u.IsActive, &u.CreatedAt,
		&u.ActiveTasks, &u.CompletedTasks); err != nil {
		return models.User{}, err
	}
	u.RoleID = int64Ptr(roleID)
	u.RoleName = stringPtr(role)
	return u, nil
}

// GetUser fetches a user by id, active or not.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, userSelect+` WHERE u.id = ?`, id))
	if err != nil {
		return models.User{}, classify(err, "sqlite.GetUser", "user")
	}
	return u, nil
}

// GetUserByEmail fetches a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, userSelect+` WHERE u.email = ?`, normalizeEmail(email)))
	if err != nil {
		return models.User{}, classify(err, "sqlite.GetUserByEmail", "user")
	}
	return u, nil
}

// ListMembers returns active non-admin users ordered by id.
func (s *Store) ListMembers(ctx context.Context, roleID int64) ([]models.User, error) {
	query := userSelect + ` WHERE u.is_active = 1 AND u.is_admin = 0`
	var args []any
	if roleID != 0 {
		query += ` AND u.role_id = ?`
		args = append(args, roleID)
	}
	rows, err := s.q(ctx).QueryContext(ctx, query+` ORDER BY u.id`, args...)
	if err != nil {
		return nil, classify(err, "sqlite.ListMembers", "user")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err, "sqlite.ListMembers", "user")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// InsertUser persists a new user. u.PasswordHash must already be hashed.
func (s *Store) InsertUser(ctx context.Context, u models.User, now time.Time) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO users(name, email, password, role_id, is_admin, is_active, created_at)
        VALUES(?, ?, ?, ?, ?, 1, ?)`,
		strings.TrimSpace(u.Name), normalizeEmail(u.Email), u.PasswordHash, nullInt64(u.RoleID), u.IsAdmin, now.UTC())
	if err != nil {
		return 0, classify(err, "sqlite.InsertUser", "email")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(err, "sqlite.InsertUser")
	}
	return id, nil
}

// UpdateUser writes name, email, role, admin flag and password hash.
func (s *Store) UpdateUser(ctx context.Context, u models.User) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE users SET name = ?, email = ?, password = ?, role_id = ?, is_admin = ? WHERE id = ?`,
		strings.TrimSpace(u.Name), normalizeEmail(u.Email), u.PasswordHash, nullInt64(u.RoleID), u.IsAdmin, u.ID)
	if err != nil {
		return classify(err, "sqlite.UpdateUser", "email")
	}
	return requireAffected(res, "sqlite.UpdateUser", "user")
}

// DeactivateUser soft deletes a user and unassigns their unfinished tasks.
func (s *Store) DeactivateUser(ctx context.Context, id int64, now time.Time) error {
	const op = "sqlite.DeactivateUser"
	return s.WithinTx(ctx, func(ctx context.Context) error {
		res, err := s.q(ctx).ExecContext(ctx, `UPDATE users SET is_active = 0 WHERE id = ?`, id)
		if err != nil {
			return classify(err, op, "user")
		}
		if err := requireAffected(res, op, "user"); err != nil {
			return err
		}
		_, err = s.q(ctx).ExecContext(ctx, `UPDATE tasks SET assigned_to = NULL, updated_at = ?
            WHERE assigned_to = ? AND status != 'completed'`, now.UTC(), id)
		return classify(err, op, "task")
	})
}

// CountRoles reports how many roles exist; zero means an unseeded database.
func (s *Store) CountRoles(ctx context.Context) (int, error) {
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n); err != nil {
		return 0, classify(err, "sqlite.CountRoles", "role")
	}
	return n, nil
}

// inUse reports a delete blocked by a foreign key as a Conflict.
func inUse(err error, op, what string) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return &apperr.Error{Kind: apperr.Conflict, Op: op, Msg: what + " is still in use", Err: err}
	}
	return classify(err, op, what)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
