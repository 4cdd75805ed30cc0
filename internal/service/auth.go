package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bcnelson/recipe-api/internal/auth"
	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/storage"
	"github.com/bcnelson/recipe-api/internal/validation"
)

// AuthService verifies credentials and manages per-user tokens.
type AuthService struct {
	store     storage.Storage
	hasher    *auth.PasswordHasher
	validator *validation.Validator
	users     *UserService
	logger    *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store storage.Storage, hasher *auth.PasswordHasher, validator *validation.Validator, users *UserService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		hasher:    hasher,
		validator: validator,
		users:     users,
		logger:    logger,
	}
}

// IssueToken verifies the email and password and returns the user's token,
// creating it on first login.
func (s *AuthService) IssueToken(ctx context.Context, req *domain.TokenRequest) (*domain.Token, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying credential: %w", err)
	}
	if !ok || !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	token, err := s.tokenForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateUserLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	s.logger.Debug("token issued", "user_id", user.ID)
	return token, nil
}

// IssueTokenForIdentity returns the token for an externally verified
// identity, creating a user without a usable password if none exists.
func (s *AuthService) IssueTokenForIdentity(ctx context.Context, email, name string) (*domain.Token, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.users.CreateUser(ctx, email, "", UserFields{Name: name})
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a race with a concurrent sign-in for the same email.
			user, err = s.store.GetUserByEmail(ctx, NormalizeEmail(email))
		}
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}

	token, err := s.tokenForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateUserLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	return token, nil
}

// Authenticate resolves a presented token key to its active user.
func (s *AuthService) Authenticate(ctx context.Context, key string) (*domain.User, error) {
	if key == "" {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.store.GetToken(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, token.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// tokenForUser returns the user's existing token or creates one.
func (s *AuthService) tokenForUser(ctx context.Context, userID string) (*domain.Token, error) {
	token, err := s.store.GetTokenForUser(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	key, err := auth.GenerateTokenKey()
	if err != nil {
		return nil, err
	}

	token = &domain.Token{
		Key:       key,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// A concurrent login created the token first.
			return s.store.GetTokenForUser(ctx, userID)
		}
		return nil, err
	}
	return token, nil
}

// rehash upgrades a credential created with an outdated cost.
// Failures are logged; the login itself already succeeded.
func (s *AuthService) rehash(ctx context.Context, user *domain.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash credential", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to store rehashed credential", "user_id", user.ID, "error", err)
	}
}
