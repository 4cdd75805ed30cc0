package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing.
type Store struct {
	mu sync.RWMutex

	users      map[string]*domain.User  // key: id
	emailIndex map[string]string        // key: email, value: user id
	tokens     map[string]*domain.Token // key: token key
	userTokens map[string]string        // key: user id, value: token key
	tags       map[string]*domain.Tag   // key: id
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		emailIndex: make(map[string]string),
		tokens:     make(map[string]*domain.Token),
		userTokens: make(map[string]string),
		tags:       make(map[string]*domain.Tag),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return &Tx{store: s}, nil
}

// Tx is a no-op transaction for in-memory store.
type Tx struct {
	store *Store
}

func (t *Tx) Commit() error   { return nil }
func (t *Tx) Rollback() error { return nil }
func (t *Tx) Close() error    { return nil }
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, domain.ErrInvalidInput
}

// Forward all Tx methods to the underlying store
func (t *Tx) CreateUser(ctx context.Context, user *domain.User) error {
	return t.store.CreateUser(ctx, user)
}
func (t *Tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return t.store.GetUser(ctx, id)
}
func (t *Tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return t.store.GetUserByEmail(ctx, email)
}
func (t *Tx) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return t.store.ListUsers(ctx)
}
func (t *Tx) UpdateUser(ctx context.Context, user *domain.User) error {
	return t.store.UpdateUser(ctx, user)
}
func (t *Tx) UpdateUserLastLogin(ctx context.Context, id string) error {
	return t.store.UpdateUserLastLogin(ctx, id)
}
func (t *Tx) DeleteUser(ctx context.Context, id string) error {
	return t.store.DeleteUser(ctx, id)
}
func (t *Tx) CreateToken(ctx context.Context, token *domain.Token) error {
	return t.store.CreateToken(ctx, token)
}
func (t *Tx) GetToken(ctx context.Context, key string) (*domain.Token, error) {
	return t.store.GetToken(ctx, key)
}
func (t *Tx) GetTokenForUser(ctx context.Context, userID string) (*domain.Token, error) {
	return t.store.GetTokenForUser(ctx, userID)
}
func (t *Tx) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return t.store.CreateTag(ctx, tag)
}
func (t *Tx) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return t.store.ListTags(ctx, userID)
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return domain.ErrAlreadyExists
	}
	if _, exists := s.emailIndex[user.Email]; exists {
		return domain.ErrAlreadyExists
	}

	c := *user
	s.users[user.ID] = &c
	s.emailIndex[user.Email] = user.ID
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.emailIndex[email]
	if !exists {
		return nil, domain.ErrNotFound
	}
	c := *s.users[id]
	return &c, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		c := *user
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if user.Email != existing.Email {
		if _, taken := s.emailIndex[user.Email]; taken {
			return domain.ErrAlreadyExists
		}
		delete(s.emailIndex, existing.Email)
		s.emailIndex[user.Email] = user.ID
	}

	user.UpdatedAt = time.Now()
	c := *user
	c.LastLogin = existing.LastLogin
	s.users[user.ID] = &c
	return nil
}

func (s *Store) UpdateUserLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, exists := s.users[id]; exists {
		now := time.Now()
		user.LastLogin = &now
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return domain.ErrNotFound
	}

	for tagID, tag := range s.tags {
		if tag.UserID == id {
			delete(s.tags, tagID)
		}
	}
	if key, ok := s.userTokens[id]; ok {
		delete(s.tokens, key)
		delete(s.userTokens, id)
	}
	delete(s.emailIndex, user.Email)
	delete(s.users, id)
	return nil
}

// Tokens

func (s *Store) CreateToken(ctx context.Context, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.Key]; exists {
		return domain.ErrAlreadyExists
	}
	if _, exists := s.userTokens[token.UserID]; exists {
		return domain.ErrAlreadyExists
	}

	c := *token
	s.tokens[token.Key] = &c
	s.userTokens[token.UserID] = token.Key
	return nil
}

func (s *Store) GetToken(ctx context.Context, key string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, exists := s.tokens[key]
	if !exists {
		return nil, domain.ErrNotFound
	}
	c := *token
	return &c, nil
}

func (s *Store) GetTokenForUser(ctx context.Context, userID string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.userTokens[userID]
	if !exists {
		return nil, domain.ErrNotFound
	}
	c := *s.tokens[key]
	return &c, nil
}

// Tags

func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tags[tag.ID]; exists {
		return domain.ErrAlreadyExists
	}
	if _, exists := s.users[tag.UserID]; !exists {
		return domain.ErrNotFound
	}

	c := *tag
	s.tags[tag.ID] = &c
	return nil
}

func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := []*domain.Tag{}
	for _, tag := range s.tags {
		if tag.UserID == userID {
			c := *tag
			tags = append(tags, &c)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name > tags[j].Name
	})
	return tags, nil
}

var (
	_ storage.Storage     = (*Store)(nil)
	_ storage.Transaction = (*Tx)(nil)
)
