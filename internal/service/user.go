package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bcnelson/recipe-api/internal/auth"
	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/storage"
	"github.com/bcnelson/recipe-api/internal/validation"
	"github.com/google/uuid"
)

// UserFields holds optional attributes for a new user.
type UserFields struct {
	Name        string
	IsActive    *bool // nil means active
	IsStaff     bool
	IsSuperuser bool
}

// UserService creates users and manages their profiles.
type UserService struct {
	store             storage.Storage
	hasher            *auth.PasswordHasher
	validator         *validation.Validator
	passwordMinLength int
	logger            *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store storage.Storage, hasher *auth.PasswordHasher, validator *validation.Validator, passwordMinLength int, logger *slog.Logger) *UserService {
	return &UserService{
		store:             store,
		hasher:            hasher,
		validator:         validator,
		passwordMinLength: passwordMinLength,
		logger:            logger,
	}
}

// NormalizeEmail lower-cases the domain part of an email address and leaves
// the local part untouched. Input without an '@' is only trimmed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// CreateUser creates and persists a user. The email is required and
// normalized; an empty password leaves the account without a usable credential.
func (s *UserService) CreateUser(ctx context.Context, email, password string, fields UserFields) (*domain.User, error) {
	return s.createUser(ctx, s.store, email, password, fields)
}

func (s *UserService) createUser(ctx context.Context, store storage.Storage, email, password string, fields UserFields) (*domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, validation.NewValidationError("email", "", "users must have an email address")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	isActive := true
	if fields.IsActive != nil {
		isActive = *fields.IsActive
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         fields.Name,
		PasswordHash: hash,
		IsActive:     isActive,
		IsStaff:      fields.IsStaff,
		IsSuperuser:  fields.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", validation.NewValidationError("password", "",
			fmt.Sprintf("ensure this field has no more than %d bytes", validation.MaxPasswordBytes))
	}
	if err != nil {
		return "", fmt.Errorf("deriving credential: %w", err)
	}
	return hash, nil
}

// CreateSuperuser creates a user and grants staff and superuser access in
// a single transaction.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*domain.User, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	user, err := s.createUser(ctx, tx, email, password, UserFields{})
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	user.IsStaff = true
	user.IsSuperuser = true
	if err := tx.UpdateUser(ctx, user); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Info("superuser created", "user_id", user.ID)
	return user, nil
}

// EnsureSuperuser creates the superuser unless an account with that email
// already exists.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) (*domain.User, bool, error) {
	existing, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	user, err := s.CreateSuperuser(ctx, email, password)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Register validates a sign-up request and creates the user.
func (s *UserService) Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(req.Password, s.passwordMinLength); err != nil {
		return nil, err
	}

	user, err := s.CreateUser(ctx, req.Email, req.Password, UserFields{Name: req.Name})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, validation.NewValidationError("email", NormalizeEmail(req.Email),
			"user with this email already exists")
	}
	return user, err
}

// UpdateProfile applies a partial update to the user's name and password.
func (s *UserService) UpdateProfile(ctx context.Context, user *domain.User, req *domain.UpdateProfileRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	updated := *user
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Password != nil {
		if err := validation.ValidatePassword(*req.Password, s.passwordMinLength); err != nil {
			return nil, err
		}
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListUsers returns every account ordered by email.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}
