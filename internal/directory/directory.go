// Package directory manages the reference data the task engine reads:
// roles, task types and team members.
package directory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// DefaultDailyCapacity is used when a task type is created without one.
const DefaultDailyCapacity = 2

// Store is the persistence the service needs.
type Store interface {
	repository.Transactor
	repository.Directory
}

// Service applies directory changes. Writes are admin only.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func requireAdmin(actor models.Actor, op string) error {
	if !actor.IsAdmin {
		return apperr.New(apperr.PermissionDenied, op, "admin access required")
	}
	return nil
}

// Roles lists every role with its member and task type counts.
func (s *Service) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.store.ListRoles(ctx)
	return roles, apperr.Wrap(err, "directory.Roles")
}

// CreateRole adds a role.
func (s *Service) CreateRole(ctx context.Context, actor models.Actor, name string) (models.Role, error) {
	const op = "directory.CreateRole"
	if err := requireAdmin(actor, op); err != nil {
		return models.Role{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Role{}, apperr.New(apperr.InvalidArgument, op, "role name is required")
	}

	var role models.Role
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		id, err := s.store.InsertRole(ctx, name, s.clock())
		if err != nil {
			return err
		}
		role, err = s.store.GetRole(ctx, id)
		return err
	})
	if err != nil {
		return models.Role{}, apperr.Wrap(err, op)
	}
	s.logger.Info("role created", slog.String("op", op), slog.Int64("role_id", role.ID))
	return role, nil
}

// RenameRole changes a role's name.
func (s *Service) RenameRole(ctx context.Context, actor models.Actor, id int64, name string) (models.Role, error) {
	const op = "directory.RenameRole"
	if err := requireAdmin(actor, op); err != nil {
		return models.Role{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Role{}, apperr.New(apperr.InvalidArgument, op, "role name is required")
	}

	var role models.Role
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.RenameRole(ctx, id, name); err != nil {
			return err
		}
		var err error
		role, err = s.store.GetRole(ctx, id)
		return err
	})
	if err != nil {
		return models.Role{}, apperr.Wrap(err, op)
	}
	return role, nil
}

// DeleteRole removes a role that no active member and no task type uses.
func (s *Service) DeleteRole(ctx context.Context, actor models.Actor, id int64) error {
	const op = "directory.DeleteRole"
	if err := requireAdmin(actor, op); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		role, err := s.store.GetRole(ctx, id)
		if err != nil {
			return err
		}
		if role.MemberCount > 0 {
			return apperr.Newf(apperr.Conflict, op, "cannot delete: %d team member(s) have this role", role.MemberCount)
		}
		if role.TaskTypeCount > 0 {
			return apperr.Newf(apperr.Conflict, op, "cannot delete: %d task type(s) use this role", role.TaskTypeCount)
		}
		return s.store.DeleteRole(ctx, id)
	})
	if err != nil {
		return apperr.Wrap(err, op)
	}
	s.logger.Info("role deleted", slog.String("op", op), slog.Int64("role_id", id))
	return nil
}

// TaskTypeInput carries task type fields. Zero values on update keep the
// stored value.
type TaskTypeInput struct {
	Name          string `json:"name"`
	RoleID        int64  `json:"role_id"`
	DailyCapacity int    `json:"daily_capacity"`
}

// TaskTypes lists every task type.
func (s *Service) TaskTypes(ctx context.Context) ([]models.TaskType, error) {
	types, err := s.store.ListTaskTypes(ctx)
	return types, apperr.Wrap(err, "directory.TaskTypes")
}

// CreateTaskType adds a custom task type.
func (s *Service) CreateTaskType(ctx context.Context, actor models.Actor, in TaskTypeInput) (models.TaskType, error) {
	const op = "directory.CreateTaskType"
	if err := requireAdmin(actor, op); err != nil {
		return models.TaskType{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.RoleID == 0 {
		return models.TaskType{}, apperr.New(apperr.InvalidArgument, op, "name and role are required")
	}
	if in.DailyCapacity < 0 {
		return models.TaskType{}, apperr.New(apperr.InvalidArgument, op, "daily capacity cannot be negative")
	}
	capacity := in.DailyCapacity
	if capacity == 0 {
		capacity = DefaultDailyCapacity
	}

	var tt models.TaskType
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetRole(ctx, in.RoleID); err != nil {
			return err
		}
		id, err := s.store.InsertTaskType(ctx, models.TaskType{Name: name, RoleID: in.RoleID, DailyCapacity: capacity}, s.clock())
		if err != nil {
			return err
		}
		tt, err = s.store.GetTaskType(ctx, id)
		return err
	})
	if err != nil {
		return models.TaskType{}, apperr.Wrap(err, op)
	}
	s.logger.Info("task type created", slog.String("op", op), slog.Int64("task_type_id", tt.ID))
	return tt, nil
}

// UpdateTaskType changes name, role or capacity.
func (s *Service) UpdateTaskType(ctx context.Context, actor models.Actor, id int64, in TaskTypeInput) (models.TaskType, error) {
	const op = "directory.UpdateTaskType"
	if err := requireAdmin(actor, op); err != nil {
		return models.TaskType{}, err
	}
	if in.DailyCapacity < 0 {
		return models.TaskType{}, apperr.New(apperr.InvalidArgument, op, "daily capacity cannot be negative")
	}

	var tt models.TaskType
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetTaskType(ctx, id)
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			existing.Name = name
		}
		if in.RoleID != 0 && in.RoleID != existing.RoleID {
			if _, err := s.store.GetRole(ctx, in.RoleID); err != nil {
				return err
			}
			existing.RoleID = in.RoleID
		}
		if in.DailyCapacity > 0 {
			existing.DailyCapacity = in.DailyCapacity
		}
		if err := s.store.UpdateTaskType(ctx, existing); err != nil {
			return err
		}
		tt, err = s.store.GetTaskType(ctx, id)
		return err
	})
	if err != nil {
		return models.TaskType{}, apperr.Wrap(err, op)
	}
	return tt, nil
}

// DeleteTaskType removes a task type no task references.
func (s *Service) DeleteTaskType(ctx context.Context, actor models.Actor, id int64) error {
	const op = "directory.DeleteTaskType"
	if err := requireAdmin(actor, op); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		tt, err := s.store.GetTaskType(ctx, id)
		if err != nil {
			return err
		}
		if tt.TaskCount > 0 {
			return apperr.Newf(apperr.Conflict, op, "cannot delete: %d task(s) use this type", tt.TaskCount)
		}
		return s.store.DeleteTaskType(ctx, id)
	})
	if err != nil {
		return apperr.Wrap(err, op)
	}
	s.logger.Info("task type deleted", slog.String("op", op), slog.Int64("task_type_id", id))
	return nil
}
