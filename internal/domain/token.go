package domain

import "time"

// Token is the opaque key a user presents to authenticate.
// Each user holds at most one token; tokens do not expire.
type Token struct {
	Key       string    `json:"-" db:"token_key"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TokenRequest is the request body for obtaining a token.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned on successful authentication.
type TokenResponse struct {
	Token string `json:"token"`
}
