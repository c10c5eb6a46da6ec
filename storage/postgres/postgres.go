// Package postgres implements storage.Store on PostgreSQL through
// database/sql and the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/storage"
)

const uniqueViolation = "23505"

// Store keeps users and grants in PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database at dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	const op = "storage.postgres.Open"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return New(db), nil
}

// DB returns the underlying handle, e.g. for running migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) CreateUser(ctx context.Context, user *core.User) error {
	const op = "storage.postgres.CreateUser"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, created_at) VALUES ($1, $2, $3)`,
		user.ID, user.Username, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (*core.User, error) {
	const op = "storage.postgres.FindUserByID"

	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`, userID)
	return scanUser(op, row)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	const op = "storage.postgres.FindUserByUsername"

	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE username = $1`, username)
	return scanUser(op, row)
}

func scanUser(op string, row *sql.Row) (*core.User, error) {
	var user core.User
	if err := row.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, core.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	const op = "storage.postgres.CreateGrant"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grants (id, user_id, disabled, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.UserID, g.Disabled, g.CreatedAt, g.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, id string) (*grant.Grant, error) {
	const op = "storage.postgres.GetGrant"

	var g grant.Grant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, disabled, created_at, expires_at FROM grants WHERE id = $1`, id).
		Scan(&g.ID, &g.UserID, &g.Disabled, &g.CreatedAt, &g.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, grant.ErrGrantNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &g, nil
}

func (s *Store) ExtendGrant(ctx context.Context, id string, expiresAt time.Time) error {
	return s.updateGrant(ctx, "storage.postgres.ExtendGrant",
		`UPDATE grants SET expires_at = $2 WHERE id = $1`, id, expiresAt)
}

func (s *Store) DisableGrant(ctx context.Context, id string) error {
	return s.updateGrant(ctx, "storage.postgres.DisableGrant",
		`UPDATE grants SET disabled = true WHERE id = $1`, id)
}

func (s *Store) updateGrant(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, grant.ErrGrantNotFound)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
