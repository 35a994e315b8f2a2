package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"taskflow/internal/auth"
	"taskflow/internal/dashboard"
	"taskflow/internal/directory"
	"taskflow/internal/performance"
	"taskflow/internal/seed"
	"taskflow/internal/server"
	"taskflow/internal/storage/sqlite"
	"taskflow/internal/tasks"
	"taskflow/internal/timeclock"
	"taskflow/internal/workload"
)

func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.Open(a.cfg.DB.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.DB.Path, err)
	}
	return store, nil
}

// seedIfEmpty writes the seed document into a database without roles.
func (a *app) seedIfEmpty(ctx context.Context, store *sqlite.Store) error {
	data, err := seed.Load(a.cfg.Seed.File)
	if err != nil {
		return err
	}
	seeded, err := seed.Apply(ctx, store, data, a.logger)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	if seeded {
		a.logger.Info("database seeded", "roles", len(data.Roles), "task_types", len(data.TaskTypes), "admin", data.Admin.Email)
	}
	return nil
}

func (a *app) policy() tasks.Policy {
	if a.cfg.Tasks.StrictTransitions {
		return tasks.Strict()
	}
	return tasks.Permissive()
}

// jwtSecret returns the configured secret, or a random one for this process
// only. Tokens signed with a random secret do not survive a restart.
func (a *app) jwtSecret() (string, error) {
	if a.cfg.Auth.JWTSecret != "" {
		return a.cfg.Auth.JWTSecret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	a.logger.Warn("auth.jwt_secret not set; using a random secret, sessions end on restart")
	return hex.EncodeToString(buf), nil
}

func (a *app) services(store *sqlite.Store) (server.Services, error) {
	secret, err := a.jwtSecret()
	if err != nil {
		return server.Services{}, err
	}
	authn, err := auth.New(store, secret, a.cfg.Auth.TokenTTL, a.logger)
	if err != nil {
		return server.Services{}, err
	}

	clock := timeclock.New(store, a.logger)
	balancer := workload.New(store, store, a.logger)
	return server.Services{
		Auth:      authn,
		Tasks:     tasks.New(store, clock, balancer, a.policy(), a.logger),
		Clock:     clock,
		Balancer:  balancer,
		Scorer:    performance.New(store, a.logger),
		Dashboard: dashboard.New(store, a.logger),
		Directory: directory.New(store, a.logger),
	}, nil
}
