package sql

import (
	"context"
	"testing"
	"time"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newUser(email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Test Name",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTag(userID, name string) *domain.Tag {
	return &domain.Tag{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.Name, got.Name)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsStaff)
	assert.Nil(t, got.LastLogin)

	byEmail, err := store.GetUserByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = store.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.CreateUser(ctx, newUser("test@example.com"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got.Name = "Renamed"
	got.IsStaff = true
	require.NoError(t, store.UpdateUser(ctx, got))

	require.NoError(t, store.UpdateUserLastLogin(ctx, user.ID))

	updated, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsStaff)
	assert.NotNil(t, updated.LastLogin)

	missing := newUser("nobody@example.com")
	assert.ErrorIs(t, store.UpdateUser(ctx, missing), domain.ErrNotFound)
}

func TestStore_ListUsersOrderedByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, email := range []string{"b@example.com", "c@example.com", "a@example.com"} {
		require.NoError(t, store.CreateUser(ctx, newUser(email)))
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a@example.com", users[0].Email)
	assert.Equal(t, "c@example.com", users[2].Email)
}

func TestStore_Tokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))

	_, err := store.GetTokenForUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	token := &domain.Token{Key: "abc123", UserID: user.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateToken(ctx, token))

	got, err := store.GetToken(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	got, err = store.GetTokenForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Key)

	// One token per user
	err = store.CreateToken(ctx, &domain.Token{Key: "def456", UserID: user.ID, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = store.GetToken(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_TagsScopedAndOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := newUser("test@example.com")
	other := newUser("other@example.com")
	require.NoError(t, store.CreateUser(ctx, owner))
	require.NoError(t, store.CreateUser(ctx, other))

	for _, name := range []string{"Dessert", "Vegan", "Breakfast"} {
		require.NoError(t, store.CreateTag(ctx, newTag(owner.ID, name)))
	}
	require.NoError(t, store.CreateTag(ctx, newTag(other.ID, "Fruity")))

	tags, err := store.ListTags(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "Vegan", tags[0].Name)
	assert.Equal(t, "Dessert", tags[1].Name)
	assert.Equal(t, "Breakfast", tags[2].Name)

	none, err := store.ListTags(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStore_TagRequiresOwner(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateTag(context.Background(), newTag(uuid.New().String(), "Orphan"))
	assert.Error(t, err)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateToken(ctx, &domain.Token{Key: "abc123", UserID: user.ID, CreatedAt: time.Now()}))
	require.NoError(t, store.CreateTag(ctx, newTag(user.ID, "Vegan")))

	require.NoError(t, store.DeleteUser(ctx, user.ID))

	_, err := store.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetToken(ctx, "abc123")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	tags, err := store.ListTags(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.ErrorIs(t, store.DeleteUser(ctx, user.ID), domain.ErrNotFound)
}

func TestStore_TransactionRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	user := newUser("test@example.com")
	require.NoError(t, tx.CreateUser(ctx, user))

	got, err := tx.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	require.NoError(t, tx.Rollback())

	_, err = store.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_TransactionCommit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	user := newUser("test@example.com")
	require.NoError(t, tx.CreateUser(ctx, user))
	user.IsSuperuser = true
	require.NoError(t, tx.UpdateUser(ctx, user))
	require.NoError(t, tx.Commit())

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSuperuser)
}

func TestGooseDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", gooseDialect("sqlite3"))
	assert.Equal(t, "postgres", gooseDialect("postgres"))
}
