package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupPayload struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=5"`
}

func strPtr(s string) *string { return &s }

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		payload    signupPayload
		wantFields []string
	}{
		{"valid", signupPayload{Email: "test@example.com", Password: "testpass123"}, nil},
		{"missing email", signupPayload{Password: "testpass123"}, []string{"email"}},
		{"invalid email", signupPayload{Email: "one", Password: "testpass123"}, []string{"email"}},
		{"short password", signupPayload{Email: "test@example.com", Password: "testpas"}, []string{"password"}},
		{"nil optional skipped", signupPayload{Email: "a@b.co", Password: "testpass123", Name: nil}, nil},
		{"optional too long", signupPayload{Email: "a@b.co", Password: "testpass123", Name: strPtr("toolong")}, []string{"name"}},
		{"everything wrong", signupPayload{}, []string{"email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.payload)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var errs ValidationErrors
			require.True(t, errors.As(err, &errs), "expected ValidationErrors, got %T", err)

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestValidator_NeverEchoesPassword(t *testing.T) {
	v := New()

	err := v.Validate(signupPayload{Email: "test@example.com", Password: "short"})

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
	assert.Empty(t, errs[0].Value)
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "", errs.Error())

	errs.Add("name", "", "this field is required")
	assert.True(t, errs.HasErrors())
	assert.Equal(t, "name: this field is required", errs.Error())

	errs.Add("name", "", "is invalid")
	errs.Add("email", "x", "enter a valid email address")
	assert.Equal(t, "name: this field is required (and 2 more errors)", errs.Error())
	assert.Equal(t, map[string][]string{
		"name":  {"this field is required", "is invalid"},
		"email": {"enter a valid email address"},
	}, errs.Fields())
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"long enough", "testpass123", false},
		{"exactly minimum", "12345678", false},
		{"too short", "testpas", true},
		{"empty", "", true},
		{"multibyte counted as runes", "pässwörd", false},
		{"exactly 72 bytes", strings.Repeat("a", 72), false},
		{"73 bytes", strings.Repeat("a", 73), true},
		{"multibyte over 72 bytes", strings.Repeat("ä", 40), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, 8)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "password", ve.Field)
		})
	}
}
