package domain

import "time"

// User is an account that authenticates with its email address.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose the credential
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Profile returns the public view of the user.
func (u *User) Profile() *UserProfile {
	return &UserProfile{Email: u.Email, Name: u.Name}
}

// UserProfile is the representation returned by the account endpoints.
type UserProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateUserRequest is the request body for registering a user.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
	Name     string `json:"name" validate:"required,max=255"`
}

// UpdateProfileRequest is the request body for a partial profile update.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Password *string `json:"password" validate:"omitempty,max=128"`
}
