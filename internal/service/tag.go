package service

import (
	"context"
	"strings"
	"time"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/storage"
	"github.com/bcnelson/recipe-api/internal/validation"
	"github.com/google/uuid"
)

// TagService lists and creates tags on behalf of their owner.
type TagService struct {
	store     storage.Storage
	validator *validation.Validator
}

// NewTagService creates a new TagService.
func NewTagService(store storage.Storage, validator *validation.Validator) *TagService {
	return &TagService{store: store, validator: validator}
}

// List returns the tags owned by the user.
func (s *TagService) List(ctx context.Context, owner *domain.User) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx, owner.ID)
}

// Create persists a tag owned by the user.
func (s *TagService) Create(ctx context.Context, owner *domain.User, req *domain.CreateTagRequest) (*domain.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tag := &domain.Tag{
		ID:        uuid.New().String(),
		UserID:    owner.ID,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}
