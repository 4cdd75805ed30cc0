package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bcnelson/recipe-api/internal/api/middleware"
	"github.com/bcnelson/recipe-api/internal/domain"
)

// ListCreator is a collection endpoint that supports listing and creating.
type ListCreator interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
}

// TagService lists and creates tags for their owner.
type TagService interface {
	List(ctx context.Context, owner *domain.User) ([]*domain.Tag, error)
	Create(ctx context.Context, owner *domain.User, req *domain.CreateTagRequest) (*domain.Tag, error)
}

// TagHandler handles tag requests scoped to the authenticated user.
type TagHandler struct {
	tags   TagService
	logger *slog.Logger
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger}
}

// List handles GET /recipe/tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context(), middleware.GetUserFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, tags)
}

// Create handles POST /recipe/tags.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	tag, err := h.tags.Create(r.Context(), middleware.GetUserFromContext(r.Context()), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, tag)
}

var _ ListCreator = (*TagHandler)(nil)
