// Package auth checks passwords and issues the bearer tokens the HTTP layer
// accepts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Users is the lookup the authenticator needs.
type Users interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Authenticator signs and verifies HS256 tokens carrying the user id.
type Authenticator struct {
	users  Users
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Authenticator. A non-positive ttl means DefaultTTL.
func New(users Users, secret string, ttl time.Duration, logger *slog.Logger) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth: empty jwt secret")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{users: users, secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}, nil
}

// Login checks the credentials of an active user and returns a signed token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, models.User, error) {
	const op = "auth.Login"
	invalid := apperr.New(apperr.Unauthenticated, op, "invalid credentials")

	if strings.TrimSpace(email) == "" || password == "" {
		return "", models.User{}, apperr.New(apperr.InvalidArgument, op, "email and password are required")
	}
	u, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", models.User{}, invalid
	}
	if err != nil {
		return "", models.User{}, apperr.Wrap(err, op)
	}
	if !u.IsActive || !CheckPassword(password, u.PasswordHash) {
		a.logger.Warn("login rejected", slog.String("op", op), slog.Int64("user_id", u.ID))
		return "", models.User{}, invalid
	}

	token, err := a.Issue(u)
	if err != nil {
		return "", models.User{}, apperr.Wrap(err, op)
	}
	a.logger.Info("login", slog.String("op", op), slog.Int64("user_id", u.ID))
	return token, u, nil
}

// Issue signs a token for u.
func (a *Authenticator) Issue(u models.User) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"is_admin": u.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses token and loads its user, who must still be active. The
// admin flag is read from storage, not from the token.
func (a *Authenticator) Verify(ctx context.Context, token string) (models.User, error) {
	const op = "auth.Verify"
	invalid := apperr.New(apperr.Unauthenticated, op, "invalid token")

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return models.User{}, invalid
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.User{}, invalid
	}
	// Numbers decode as float64 from the JSON payload.
	raw, ok := claims["user_id"].(float64)
	if !ok || raw <= 0 {
		return models.User{}, invalid
	}

	u, err := a.users.GetUser(ctx, int64(raw))
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, invalid
	}
	if err != nil {
		return models.User{}, apperr.Wrap(err, op)
	}
	if !u.IsActive {
		return models.User{}, apperr.New(apperr.Unauthenticated, op, "account is deactivated")
	}
	return u, nil
}
