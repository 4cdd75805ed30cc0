package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  OIDCClaims
		domains []string
		wantErr error
	}{
		{
			name:   "verified email, no restriction",
			claims: OIDCClaims{Email: "user@example.com", EmailVerified: true},
		},
		{
			name:    "missing email",
			claims:  OIDCClaims{EmailVerified: true},
			wantErr: ErrEmailClaimMissing,
		},
		{
			name:    "unverified email",
			claims:  OIDCClaims{Email: "user@example.com"},
			wantErr: ErrEmailNotVerified,
		},
		{
			name:    "allowed domain is case-insensitive",
			claims:  OIDCClaims{Email: "user@EXAMPLE.com", EmailVerified: true},
			domains: []string{"example.com"},
		},
		{
			name:    "domain not allowed",
			claims:  OIDCClaims{Email: "user@other.org", EmailVerified: true},
			domains: []string{"example.com"},
			wantErr: ErrDomainNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &OIDCProvider{allowedDomains: tt.domains}
			err := p.ValidateClaims(&tt.claims)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
