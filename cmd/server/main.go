package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bcnelson/recipe-api/internal/api"
	"github.com/bcnelson/recipe-api/internal/api/handler"
	"github.com/bcnelson/recipe-api/internal/auth"
	"github.com/bcnelson/recipe-api/internal/config"
	"github.com/bcnelson/recipe-api/internal/logger"
	"github.com/bcnelson/recipe-api/internal/ratelimit"
	"github.com/bcnelson/recipe-api/internal/service"
	"github.com/bcnelson/recipe-api/internal/storage/sql"
	"github.com/bcnelson/recipe-api/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fatal(slog.Default(), "failed to load configuration", err)
	}

	log := logger.New(logger.Config{
		Format: cfg.Log.Format,
		Level:  logger.ParseLevel(cfg.Log.Level),
	})
	slog.SetDefault(log)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fatal(log, "invalid configuration", err)
	}

	// Create data directory if needed (for SQLite)
	if cfg.UseSQLite() {
		if dir := sqliteDir(cfg.Database.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fatal(log, "failed to create data directory", err)
			}
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fatal(log, "failed to initialize storage", err)
	}
	defer store.Close()

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	validator := validation.New()

	users := service.NewUserService(store, hasher, validator, cfg.Auth.PasswordMinLength, log)
	authService := service.NewAuthService(store, hasher, validator, users, log)
	tags := service.NewTagService(store, validator)

	ctx := context.Background()

	if cfg.Auth.SuperuserEmail != "" {
		user, created, err := users.EnsureSuperuser(ctx, cfg.Auth.SuperuserEmail, cfg.Auth.SuperuserPassword)
		if err != nil {
			fatal(log, "failed to bootstrap superuser", err)
		}
		if created {
			log.Info("bootstrapped superuser", "user_id", user.ID)
		}
	}

	var oidcHandler *handler.OIDCHandler
	if cfg.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(
			ctx,
			cfg.OIDC.IssuerURL,
			cfg.OIDC.ClientID,
			cfg.OIDC.ClientSecret,
			cfg.OIDC.RedirectURL,
			cfg.OIDC.GetScopes(),
			cfg.OIDC.GetAllowedDomains(),
		)
		if err != nil {
			fatal(log, "failed to initialize OIDC provider", err)
		}

		secret, err := cfg.OIDC.GetStateSecretBytes()
		if err != nil {
			fatal(log, "invalid OIDC state secret", err)
		}
		stateStore, err := auth.NewStateStore(secret, strings.HasPrefix(cfg.OIDC.RedirectURL, "https://"))
		if err != nil {
			fatal(log, "failed to initialize OIDC state store", err)
		}

		oidcHandler = handler.NewOIDCHandler(provider, stateStore, authService, log)
		log.Info("OIDC login enabled", "issuer", cfg.OIDC.IssuerURL)
	}

	limiter := ratelimit.New(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst, 10*time.Minute)
	defer limiter.Stop()

	// Create router
	router := api.NewRouter(api.Deps{
		Users:              users,
		Auth:               authService,
		Tags:               tags,
		Logger:             log,
		Limiter:            limiter,
		TrustProxy:         cfg.Server.TrustProxy,
		CORSAllowedOrigins: cfg.Server.GetCORSAllowedOrigins(),
		OIDC:               oidcHandler,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info("starting recipe API", "addr", cfg.Server.Addr(), "driver", cfg.Database.Driver)

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server failed", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// sqliteDir returns the directory holding a file-backed SQLite DSN.
func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return ""
	}
	return filepath.Dir(path)
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
