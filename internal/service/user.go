package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okhomenko/library-server/internal/logger"
	"github.com/okhomenko/library-server/internal/model"
	"github.com/okhomenko/library-server/internal/security"
)

// Users resolves and provisions user identities.
type Users struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewUsers(userStore model.UserStore, logger *logger.Logger) *Users {
	return &Users{
		userStore: userStore,
		logger:    logger,
	}
}

// NormalizeEmail is the canonical form used for every email lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveOrCreateByEmail returns the user registered under email, creating a
// placeholder user on first contact. The placeholder carries a random
// unusable password hash; it exists only so reservations have a valid user
// to reference. Concurrent calls with the same unseen email resolve to the
// same user.
func (s *Users) ResolveOrCreateByEmail(ctx context.Context, email string) (model.User, error) {
	email = NormalizeEmail(email)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := security.RandomPasswordHash()
	if err != nil {
		return model.User{}, fmt.Errorf("failed to generate placeholder password: %w", err)
	}

	user, err = s.userStore.CreateIfAbsent(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		s.logger.Error("User service: failed to provision user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to provision user: %w", err)
	}

	s.logger.Info("User service: user resolved by email",
		"email", email,
		"user_id", user.ID)

	return user, nil
}

func (s *Users) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// Register creates a user with an explicitly chosen password.
func (s *Users) Register(ctx context.Context, email, password string, role model.Role) (model.User, error) {
	email = NormalizeEmail(email)

	_, err := s.userStore.GetByEmail(ctx, email)
	if err == nil {
		return model.User{}, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	if role == "" {
		role = model.RoleUser
	}

	user, err := s.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, model.ErrEmailTaken
		}
		s.logger.Error("User service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User service: user registered",
		"email", email,
		"user_id", user.ID)

	return user, nil
}

// Authenticate verifies email and password, returning the user on success.
func (s *Users) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = NormalizeEmail(email)

	user, err := s.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !security.VerifyPassword(user.PasswordHash, password) {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}
