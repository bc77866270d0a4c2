// Package auth handles admin sign-in, bearer sessions and roles.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"keystone/database"
	"keystone/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUserExists         = errors.New("user already exists")
)

// Service signs users in and resolves bearer tokens to principals.
// Tokens are stored hashed; the raw token only exists in the login response.
type Service struct {
	store database.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store database.Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateUser stores a user with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, email, name, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if _, err := s.findUser(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	rec, err := s.store.Create(ctx, models.CollectionUsers, map[string]any{
		"email":         email,
		"name":          name,
		"role":          role,
		"password_hash": string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	var user models.User
	if err := models.Decode(models.CollectionUsers, *rec, &user); err != nil {
		return nil, err
	}
	zap.S().Infow("Created user", "email", email, "role", role)
	return &user, nil
}

// Login checks the password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	user, err := s.findUser(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	expires := s.now().Add(s.ttl).UTC()
	if _, err := s.store.Create(ctx, models.CollectionSessions, map[string]any{
		"token":      hashToken(token),
		"user_id":    user.ID,
		"expires_at": expires,
	}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      user.Public(),
	}, nil
}

// Resolve maps a bearer token to its principal. Expired sessions are removed.
func (s *Service) Resolve(ctx context.Context, token string) (Principal, error) {
	session, err := s.findSession(ctx, token)
	if err != nil {
		return Anonymous, err
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.store.Delete(ctx, models.CollectionSessions, session.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
			zap.S().Warnw("failed to delete expired session", "error", err)
		}
		return Anonymous, ErrInvalidSession
	}

	rec, err := s.store.Get(ctx, models.CollectionUsers, session.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Anonymous, ErrInvalidSession
		}
		return Anonymous, err
	}
	var user models.User
	if err := models.Decode(models.CollectionUsers, *rec, &user); err != nil {
		return Anonymous, err
	}
	return Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Logout deletes the session for token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.findSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return nil
		}
		return err
	}
	if err := s.store.Delete(ctx, models.CollectionSessions, session.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, email string) (*models.User, error) {
	recs, err := s.store.Filter(ctx, models.CollectionUsers, map[string]any{"email": email}, database.ListOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(recs) == 0 {
		return nil, database.ErrNotFound
	}
	var user models.User
	if err := models.Decode(models.CollectionUsers, recs[0], &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) findSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	recs, err := s.store.Filter(ctx, models.CollectionSessions, map[string]any{"token": hashToken(token)}, database.ListOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrInvalidSession
	}
	var session models.Session
	if err := models.Decode(models.CollectionSessions, recs[0], &session); err != nil {
		return nil, err
	}
	return &session, nil
}
