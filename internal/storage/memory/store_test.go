package memory

import (
	"context"
	"testing"
	"time"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Name)
}

func TestStore_UpdateUserEmail(t *testing.T) {
	store := New()
	ctx := context.Background()

	a := newUser("a@example.com")
	b := newUser("b@example.com")
	require.NoError(t, store.CreateUser(ctx, a))
	require.NoError(t, store.CreateUser(ctx, b))

	b.Email = "a@example.com"
	assert.ErrorIs(t, store.UpdateUser(ctx, b), domain.ErrAlreadyExists)

	b.Email = "c@example.com"
	require.NoError(t, store.UpdateUser(ctx, b))

	_, err := store.GetUserByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := store.GetUserByEmail(ctx, "c@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestStore_UpdateUserKeepsLastLogin(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.UpdateUserLastLogin(ctx, user.ID))

	user.Name = "Renamed"
	require.NoError(t, store.UpdateUser(ctx, user))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.NotNil(t, got.LastLogin)
}

func TestStore_OneTokenPerUser(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateToken(ctx, &domain.Token{Key: "abc", UserID: user.ID}))

	err := store.CreateToken(ctx, &domain.Token{Key: "def", UserID: user.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	token, err := store.GetTokenForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", token.Key)
}

func TestStore_TagsScopedAndOrdered(t *testing.T) {
	store := New()
	ctx := context.Background()

	owner := newUser("test@example.com")
	other := newUser("other@example.com")
	require.NoError(t, store.CreateUser(ctx, owner))
	require.NoError(t, store.CreateUser(ctx, other))

	for _, name := range []string{"Dessert", "Vegan", "Breakfast"} {
		require.NoError(t, store.CreateTag(ctx, &domain.Tag{ID: uuid.New().String(), UserID: owner.ID, Name: name}))
	}
	require.NoError(t, store.CreateTag(ctx, &domain.Tag{ID: uuid.New().String(), UserID: other.ID, Name: "Fruity"}))

	tags, err := store.ListTags(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, []string{"Vegan", "Dessert", "Breakfast"},
		[]string{tags[0].Name, tags[1].Name, tags[2].Name})

	err = store.CreateTag(ctx, &domain.Tag{ID: uuid.New().String(), UserID: "missing", Name: "Orphan"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	store := New()
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateToken(ctx, &domain.Token{Key: "abc", UserID: user.ID}))
	require.NoError(t, store.CreateTag(ctx, &domain.Tag{ID: uuid.New().String(), UserID: user.ID, Name: "Vegan"}))

	require.NoError(t, store.DeleteUser(ctx, user.ID))

	_, err := store.GetToken(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetUserByEmail(ctx, "test@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	tags, err := store.ListTags(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	// The email is free again
	require.NoError(t, store.CreateUser(ctx, newUser("test@example.com")))
}
