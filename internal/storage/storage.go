package storage

import (
	"context"

	"github.com/bcnelson/recipe-api/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UpdateUserLastLogin(ctx context.Context, id string) error
	// DeleteUser removes the user together with their token and tags.
	DeleteUser(ctx context.Context, id string) error

	// Tokens
	CreateToken(ctx context.Context, token *domain.Token) error
	GetToken(ctx context.Context, key string) (*domain.Token, error)
	GetTokenForUser(ctx context.Context, userID string) (*domain.Token, error)

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	// ListTags returns the tags owned by userID, ordered by name descending.
	ListTags(ctx context.Context, userID string) ([]*domain.Tag, error)

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Storage
	Commit() error
	Rollback() error
}
