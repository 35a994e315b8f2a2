package directory

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"taskflow/internal/apperr"
	"taskflow/internal/auth"
	"taskflow/internal/models"
)

// UserInput carries user fields. On update, empty strings keep the stored
// value and an empty password keeps the current one.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   *int64 `json:"role_id"`
	IsAdmin  *bool  `json:"is_admin"`
}

// Members lists active non-admin users ordered by role then name.
func (s *Service) Members(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListMembers(ctx, 0)
	if err != nil {
		return nil, apperr.Wrap(err, "directory.Members")
	}
	sort.SliceStable(users, func(i, j int) bool {
		ri, rj := deref(users[i].RoleName), deref(users[j].RoleName)
		if ri != rj {
			return ri < rj
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}

// User returns a single user.
func (s *Service) User(ctx context.Context, id int64) (models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, apperr.Wrap(err, "directory.User")
	}
	return u, nil
}

// CreateUser adds a user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, actor models.Actor, in UserInput) (models.User, error) {
	const op = "directory.CreateUser"
	if err := requireAdmin(actor, op); err != nil {
		return models.User{}, err
	}
	name, email := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return models.User{}, apperr.New(apperr.InvalidArgument, op, "name, email, and password are required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Wrap(err, op)
	}

	u := models.User{Name: name, Email: email, PasswordHash: hash, RoleID: in.RoleID, IsAdmin: in.IsAdmin != nil && *in.IsAdmin}
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkRole(ctx, u.RoleID); err != nil {
			return err
		}
		id, err := s.store.InsertUser(ctx, u, s.clock())
		if err != nil {
			return err
		}
		u, err = s.store.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return models.User{}, apperr.Wrap(err, op)
	}
	s.logger.Info("user created", slog.String("op", op), slog.Int64("user_id", u.ID))
	return u, nil
}

// UpdateUser changes a user's profile, role, admin flag or password.
func (s *Service) UpdateUser(ctx context.Context, actor models.Actor, id int64, in UserInput) (models.User, error) {
	const op = "directory.UpdateUser"
	if err := requireAdmin(actor, op); err != nil {
		return models.User{}, err
	}

	var hash string
	if in.Password != "" {
		h, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.User{}, apperr.Wrap(err, op)
		}
		hash = h
	}

	var u models.User
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			existing.Name = name
		}
		if email := strings.TrimSpace(in.Email); email != "" {
			existing.Email = email
		}
		if in.RoleID != nil {
			if err := s.checkRole(ctx, in.RoleID); err != nil {
				return err
			}
			existing.RoleID = in.RoleID
		}
		if in.IsAdmin != nil {
			existing.IsAdmin = *in.IsAdmin
		}
		if hash != "" {
			existing.PasswordHash = hash
		}
		if err := s.store.UpdateUser(ctx, existing); err != nil {
			return err
		}
		u, err = s.store.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return models.User{}, apperr.Wrap(err, op)
	}
	return u, nil
}

// DeactivateUser soft deletes a member and unassigns their unfinished tasks.
// Admins cannot deactivate themselves.
func (s *Service) DeactivateUser(ctx context.Context, actor models.Actor, id int64) error {
	const op = "directory.DeactivateUser"
	if err := requireAdmin(actor, op); err != nil {
		return err
	}
	if actor.ID == id {
		return apperr.New(apperr.InvalidArgument, op, "cannot delete your own account")
	}
	if err := s.store.DeactivateUser(ctx, id, s.clock()); err != nil {
		return apperr.Wrap(err, op)
	}
	s.logger.Info("user deactivated", slog.String("op", op), slog.Int64("user_id", id))
	return nil
}

func (s *Service) checkRole(ctx context.Context, roleID *int64) error {
	if roleID == nil {
		return nil
	}
	_, err := s.store.GetRole(ctx, *roleID)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
