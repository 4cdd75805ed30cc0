package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bcnelson/recipe-api/internal/auth"
	"github.com/bcnelson/recipe-api/internal/domain"
)

// IdentityProvider is the OIDC flow the login endpoints drive.
type IdentityProvider interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (*auth.ExchangeResult, error)
	ValidateClaims(claims *auth.OIDCClaims) error
}

// IdentityTokenIssuer returns the token for an externally verified identity.
type IdentityTokenIssuer interface {
	IssueTokenForIdentity(ctx context.Context, email, name string) (*domain.Token, error)
}

// OIDCHandler exchanges an identity provider login for an API token.
// A handler without a provider responds 404.
type OIDCHandler struct {
	provider   IdentityProvider
	stateStore *auth.StateStore
	tokens     IdentityTokenIssuer
	logger     *slog.Logger
}

// NewOIDCHandler creates a new OIDCHandler.
func NewOIDCHandler(provider IdentityProvider, stateStore *auth.StateStore, tokens IdentityTokenIssuer, logger *slog.Logger) *OIDCHandler {
	return &OIDCHandler{
		provider:   provider,
		stateStore: stateStore,
		tokens:     tokens,
		logger:     logger,
	}
}

func (h *OIDCHandler) enabled() bool {
	return h != nil && h.provider != nil && h.stateStore != nil
}

// Login handles GET /user/oidc/login.
func (h *OIDCHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.enabled() {
		respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "OIDC authentication is not enabled")
		return
	}

	stateData, err := h.stateStore.Begin(w)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(stateData.State, stateData.Nonce), http.StatusSeeOther)
}

// Callback handles GET /user/oidc/callback.
func (h *OIDCHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.enabled() {
		respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "OIDC authentication is not enabled")
		return
	}

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = errParam
		}
		h.logger.Warn("OIDC provider returned error", "error", errParam, "description", desc)
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidCredentials, desc)
		return
	}

	code := query.Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "no authorization code received")
		return
	}

	stateData, err := h.stateStore.Consume(w, r, query.Get("state"))
	if err != nil {
		h.logger.Warn("OIDC state validation failed", "error", err)
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid state parameter")
		return
	}

	result, err := h.provider.Exchange(r.Context(), code, stateData.Nonce)
	if err != nil {
		h.logger.Warn("OIDC token exchange failed", "error", err)
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidCredentials, "failed to complete authentication")
		return
	}

	if err := h.provider.ValidateClaims(result.Claims); err != nil {
		h.logger.Warn("OIDC claims validation failed", "error", err)
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidCredentials, err.Error())
		return
	}

	token, err := h.tokens.IssueTokenForIdentity(r.Context(), result.Claims.Email, result.Claims.Name)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	h.logger.Info("OIDC login", "subject", result.Claims.Subject)
	respondJSON(w, http.StatusOK, &domain.TokenResponse{Token: token.Key})
}
