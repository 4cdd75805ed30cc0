package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bcnelson/recipe-api/internal/api/middleware"
	"github.com/bcnelson/recipe-api/internal/domain"
)

// UserService is the account management the user endpoints depend on.
type UserService interface {
	Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User, req *domain.UpdateProfileRequest) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// TokenIssuer exchanges credentials for a token.
type TokenIssuer interface {
	IssueToken(ctx context.Context, req *domain.TokenRequest) (*domain.Token, error)
}

// UserHandler handles registration, token and profile requests.
type UserHandler struct {
	users  UserService
	tokens TokenIssuer
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserService, tokens TokenIssuer, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, logger: logger}
}

// Create handles POST /user/create.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, user.Profile())
}

// Token handles POST /user/token.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req domain.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.IssueToken(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.TokenResponse{Token: token.Key})
}

// Me handles GET /user/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	respondJSON(w, http.StatusOK, user.Profile())
}

// Update handles PATCH and PUT /user/me.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), middleware.GetUserFromContext(r.Context()), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, user.Profile())
}
