package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// gooseDialect maps a database/sql driver name to its goose dialect.
func gooseDialect(driver string) string {
	if driver == "sqlite3" {
		return "sqlite3"
	}
	return "postgres"
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store and applies pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite serializes writers; a single connection also keeps
	// in-memory databases alive across queries.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, driver: s.driver}, nil
}

// Tx wraps a database transaction.
type Tx struct {
	tx     *sqlx.Tx
	driver string
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Close is a no-op for transactions (they should be committed or rolled back).
func (t *Tx) Close() error {
	return nil
}

// BeginTx is not supported within a transaction.
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

// helper to get the correct database interface
type dbInterface interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ============================================
// Users
// ============================================

const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser, last_login, created_at, updated_at`

func createUser(ctx context.Context, db dbInterface, user *domain.User) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsStaff,
		user.IsSuperuser, user.LastLogin, user.CreatedAt, user.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (t *Tx) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, t.tx, user)
}

func getUser(ctx context.Context, db dbInterface, id string) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, id)
}

func (t *Tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, t.tx, id)
}

func getUserByEmail(ctx context.Context, db dbInterface, email string) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (t *Tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, t.tx, email)
}

func listUsers(ctx context.Context, db dbInterface) ([]*domain.User, error) {
	var users []*domain.User
	err := db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return listUsers(ctx, s.db)
}

func (t *Tx) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return listUsers(ctx, t.tx)
}

func updateUser(ctx context.Context, db dbInterface, user *domain.User) error {
	user.UpdatedAt = time.Now()
	result, err := db.ExecContext(ctx,
		`UPDATE users SET email = $1, name = $2, password_hash = $3, is_active = $4, is_staff = $5,
		 is_superuser = $6, updated_at = $7 WHERE id = $8`,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsStaff,
		user.IsSuperuser, user.UpdatedAt, user.ID)
	if err != nil {
		return wrapUniqueError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.db, user)
}

func (t *Tx) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, t.tx, user)
}

func updateUserLastLogin(ctx context.Context, db dbInterface, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (s *Store) UpdateUserLastLogin(ctx context.Context, id string) error {
	return updateUserLastLogin(ctx, s.db, id)
}

func (t *Tx) UpdateUserLastLogin(ctx context.Context, id string) error {
	return updateUserLastLogin(ctx, t.tx, id)
}

// deleteUser removes dependents explicitly so the cascade holds even when
// SQLite runs without foreign key enforcement.
func deleteUser(ctx context.Context, db dbInterface, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM tags WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, id); err != nil {
		return err
	}
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := deleteUser(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (t *Tx) DeleteUser(ctx context.Context, id string) error {
	return deleteUser(ctx, t.tx, id)
}

// ============================================
// Tokens
// ============================================

func createToken(ctx context.Context, db dbInterface, token *domain.Token) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO auth_tokens (token_key, user_id, created_at) VALUES ($1, $2, $3)`,
		token.Key, token.UserID, token.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateToken(ctx context.Context, token *domain.Token) error {
	return createToken(ctx, s.db, token)
}

func (t *Tx) CreateToken(ctx context.Context, token *domain.Token) error {
	return createToken(ctx, t.tx, token)
}

func getToken(ctx context.Context, db dbInterface, key string) (*domain.Token, error) {
	var token domain.Token
	err := db.GetContext(ctx, &token,
		`SELECT token_key, user_id, created_at FROM auth_tokens WHERE token_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *Store) GetToken(ctx context.Context, key string) (*domain.Token, error) {
	return getToken(ctx, s.db, key)
}

func (t *Tx) GetToken(ctx context.Context, key string) (*domain.Token, error) {
	return getToken(ctx, t.tx, key)
}

func getTokenForUser(ctx context.Context, db dbInterface, userID string) (*domain.Token, error) {
	var token domain.Token
	err := db.GetContext(ctx, &token,
		`SELECT token_key, user_id, created_at FROM auth_tokens WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *Store) GetTokenForUser(ctx context.Context, userID string) (*domain.Token, error) {
	return getTokenForUser(ctx, s.db, userID)
}

func (t *Tx) GetTokenForUser(ctx context.Context, userID string) (*domain.Token, error) {
	return getTokenForUser(ctx, t.tx, userID)
}

// ============================================
// Tags
// ============================================

func createTag(ctx context.Context, db dbInterface, tag *domain.Tag) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.UserID, tag.Name, tag.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return createTag(ctx, s.db, tag)
}

func (t *Tx) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return createTag(ctx, t.tx, tag)
}

func listTags(ctx context.Context, db dbInterface, userID string) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	err := db.SelectContext(ctx, &tags,
		`SELECT id, user_id, name, created_at FROM tags WHERE user_id = $1 ORDER BY name DESC`, userID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return listTags(ctx, s.db, userID)
}

func (t *Tx) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return listTags(ctx, t.tx, userID)
}

var (
	_ storage.Storage     = (*Store)(nil)
	_ storage.Transaction = (*Tx)(nil)
)
