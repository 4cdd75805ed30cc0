package service

import (
	"testing"

	"github.com/bcnelson/recipe-api/internal/auth"
	"github.com/bcnelson/recipe-api/internal/logger"
	"github.com/bcnelson/recipe-api/internal/storage/memory"
	"github.com/bcnelson/recipe-api/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type testServices struct {
	store  *memory.Store
	hasher *auth.PasswordHasher
	users  *UserService
	auth   *AuthService
	tags   *TagService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	store := memory.New()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	v := validation.New()
	log := logger.Discard()

	users := NewUserService(store, hasher, v, 8, log)
	return &testServices{
		store:  store,
		hasher: hasher,
		users:  users,
		auth:   NewAuthService(store, hasher, v, users, log),
		tags:   NewTagService(store, v),
	}
}
