// Package config loads runtime settings from an optional taskflow.yaml, the
// TASKFLOW_* environment and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TASKFLOW_HTTP_ADDR.
const EnvPrefix = "TASKFLOW"

// Config is the resolved configuration.
type Config struct {
	HTTP  HTTP
	DB    DB
	Auth  Auth
	Log   Log
	Tasks Tasks
	Seed  Seed
}

type HTTP struct {
	Addr            string
	StaticDir       string
	ShutdownTimeout time.Duration
}

type DB struct {
	Path string
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type Log struct {
	Level  string
	Format string
}

type Tasks struct {
	// StrictTransitions restricts status changes to the delivery workflow.
	StrictTransitions bool
}

type Seed struct {
	// File replaces the built-in seed document when set.
	File string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.static_dir", "web/dist")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("db.path", "data/taskflow.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tasks.strict_transitions", false)
	v.SetDefault("seed.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and resolves the result. An empty path
// searches taskflow.yaml in the working directory and $HOME/.taskflow; a
// missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("taskflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".taskflow"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Config{
		HTTP: HTTP{
			Addr:            v.GetString("http.addr"),
			StaticDir:       v.GetString("http.static_dir"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		DB:    DB{Path: v.GetString("db.path")},
		Auth:  Auth{JWTSecret: v.GetString("auth.jwt_secret"), TokenTTL: v.GetDuration("auth.token_ttl")},
		Log:   Log{Level: v.GetString("log.level"), Format: v.GetString("log.format")},
		Tasks: Tasks{StrictTransitions: v.GetBool("tasks.strict_transitions")},
		Seed:  Seed{File: v.GetString("seed.file")},
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("config: db.path is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("config: http.shutdown_timeout must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}
