package validation

import (
	"fmt"
	"unicode/utf8"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ValidatePassword enforces the password length policy. The minimum counts
// characters; the maximum counts bytes.
func ValidatePassword(password string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return NewValidationError("password", "",
			fmt.Sprintf("ensure this field has at least %d characters", minLength))
	}
	if len(password) > MaxPasswordBytes {
		return NewValidationError("password", "",
			fmt.Sprintf("ensure this field has no more than %d bytes", MaxPasswordBytes))
	}
	return nil
}
