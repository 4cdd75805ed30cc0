package domain

import "time"

// Tag is a label owned by exactly one user.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// String returns the tag name.
func (t *Tag) String() string {
	return t.Name
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}
