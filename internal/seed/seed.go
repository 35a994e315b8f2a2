// Package seed fills an empty database with the default roles, predefined
// task types and the first administrator.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

//go:embed default.yaml
var defaultData []byte

// TaskType is a predefined task type of a seed.
type TaskType struct {
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Capacity int    `yaml:"capacity"`
}

// Admin is the account created with the seed.
type Admin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Data is a seed document.
type Data struct {
	Roles     []string   `yaml:"roles"`
	TaskTypes []TaskType `yaml:"task_types"`
	Admin     Admin      `yaml:"admin"`
}

// Store is what seeding writes to.
type Store interface {
	repository.Transactor
	repository.Directory
	CountRoles(ctx context.Context) (int, error)
}

// Load reads a seed document from path, or the built-in one when path is empty.
func Load(path string) (Data, error) {
	raw := defaultData
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Data{}, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}

	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	return d, d.validate()
}

func (d Data) validate() error {
	roles := make(map[string]bool, len(d.Roles))
	for _, r := range d.Roles {
		roles[r] = true
	}
	for _, tt := range d.TaskTypes {
		if !roles[tt.Role] {
			return fmt.Errorf("seed: task type %q references unknown role %q", tt.Name, tt.Role)
		}
	}
	if d.Admin.Email == "" || d.Admin.Password == "" {
		return fmt.Errorf("seed: admin email and password are required")
	}
	return nil
}

// Apply writes d when the database has no roles yet. It reports whether
// anything was written.
func Apply(ctx context.Context, store Store, d Data, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n, err := store.CountRoles(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(d.Admin.Password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC().Truncate(time.Second)

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		roleIDs := make(map[string]int64, len(d.Roles))
		for _, name := range d.Roles {
			id, err := store.InsertRole(ctx, name, now)
			if err != nil {
				return fmt.Errorf("seed role %q: %w", name, err)
			}
			roleIDs[name] = id
		}
		for _, tt := range d.TaskTypes {
			_, err := store.InsertTaskType(ctx, models.TaskType{
				Name:          tt.Name,
				RoleID:        roleIDs[tt.Role],
				DailyCapacity: tt.Capacity,
				IsPredefined:  true,
			}, now)
			if err != nil {
				return fmt.Errorf("seed task type %q: %w", tt.Name, err)
			}
		}
		name := d.Admin.Name
		if name == "" {
			name = "Admin"
		}
		if _, err := store.InsertUser(ctx, models.User{Name: name, Email: d.Admin.Email, PasswordHash: hash, IsAdmin: true}, now); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("seed data inserted",
		slog.Int("roles", len(d.Roles)),
		slog.Int("task_types", len(d.TaskTypes)),
		slog.String("admin", d.Admin.Email),
	)
	return true, nil
}
