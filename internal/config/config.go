package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	OIDC     OIDCConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host               string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port               int    `env:"SERVER_PORT" envDefault:"8080"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	TrustProxy         bool   `env:"SERVER_TRUST_PROXY" envDefault:"false"` // take client IP from X-Forwarded-For / X-Real-IP
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/recipe.db?_foreign_keys=on"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// AuthConfig holds account and credential configuration.
type AuthConfig struct {
	BcryptCost        int     `env:"BCRYPT_COST" envDefault:"12"`
	PasswordMinLength int     `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	RateLimitRPS      float64 `env:"RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst    int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	SuperuserEmail    string  `env:"SUPERUSER_EMAIL"`
	SuperuserPassword string  `env:"SUPERUSER_PASSWORD"`
}

// OIDCConfig holds OIDC authentication configuration.
type OIDCConfig struct {
	Enabled        bool   `env:"OIDC_ENABLED" envDefault:"false"`
	IssuerURL      string `env:"OIDC_ISSUER_URL"`
	ClientID       string `env:"OIDC_CLIENT_ID"`
	ClientSecret   string `env:"OIDC_CLIENT_SECRET"`
	RedirectURL    string `env:"OIDC_REDIRECT_URL"`
	Scopes         string `env:"OIDC_SCOPES" envDefault:"openid,email,profile"`
	StateSecret    string `env:"OIDC_STATE_SECRET"`
	AllowedDomains string `env:"OIDC_ALLOWED_DOMAINS"`
}

// GetScopes returns the OIDC scopes as a slice.
func (c *OIDCConfig) GetScopes() []string {
	if c.Scopes == "" {
		return []string{"openid", "email", "profile"}
	}
	return splitList(c.Scopes)
}

// GetAllowedDomains returns the allowed domains as a slice.
func (c *OIDCConfig) GetAllowedDomains() []string {
	return splitList(c.AllowedDomains)
}

// GetStateSecretBytes returns the state cookie secret as bytes.
func (c *OIDCConfig) GetStateSecretBytes() ([]byte, error) {
	if c.StateSecret == "" {
		return nil, fmt.Errorf("OIDC_STATE_SECRET is required")
	}
	// Try to decode as hex first (64 hex chars = 32 bytes)
	if len(c.StateSecret) == 64 {
		decoded, err := hex.DecodeString(c.StateSecret)
		if err == nil {
			return decoded, nil
		}
	}
	// Otherwise use as raw bytes (must be exactly 32 bytes)
	if len(c.StateSecret) != 32 {
		return nil, fmt.Errorf("OIDC_STATE_SECRET must be 32 bytes (or 64 hex characters)")
	}
	return []byte(c.StateSecret), nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}
	if err := env.Parse(&cfg.OIDC); err != nil {
		return nil, fmt.Errorf("parsing oidc config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetCORSAllowedOrigins returns the allowed origins as a slice.
func (c *ServerConfig) GetCORSAllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Auth.PasswordMinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be positive")
	}
	if c.Auth.RateLimitRPS <= 0 || c.Auth.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if (c.Auth.SuperuserEmail == "") != (c.Auth.SuperuserPassword == "") {
		return fmt.Errorf("SUPERUSER_EMAIL and SUPERUSER_PASSWORD must be set together")
	}

	// Validate OIDC config when enabled
	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when OIDC is enabled")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC is enabled")
		}
		if c.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC_CLIENT_SECRET is required when OIDC is enabled")
		}
		if c.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC_REDIRECT_URL is required when OIDC is enabled")
		}
		if _, err := c.OIDC.GetStateSecretBytes(); err != nil {
			return err
		}
	}

	return nil
}

// UseSQLite returns true if the configured driver is SQLite.
func (c *Config) UseSQLite() bool {
	return c.Database.Driver == "sqlite3"
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
