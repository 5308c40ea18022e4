package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCredentialRepository implements the credential store against a
// PostgreSQL database. The same djb2 digest as the file backend is computed
// in process; only the digest is stored.
type PostgresCredentialRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCredentialRepository creates a new PostgresCredentialRepository
// with the given database connection.
func NewPostgresCredentialRepository(db *sql.DB) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{DB: db}
}

// Verify reports whether a user with the given username and password digest
// exists.
func (r *PostgresCredentialRepository) Verify(ctx context.Context, username, password string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND password_hash = $2)`,
		username, HashPassword(password),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("verify credentials: %w", err)
	}
	return exists, nil
}

// Add registers a new user; ErrDuplicate when the username is taken.
func (r *PostgresCredentialRepository) Add(ctx context.Context, username, password string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)`,
		username, HashPassword(password),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// Remove deletes the user with the given username; ErrNotFound when absent.
func (r *PostgresCredentialRepository) Remove(ctx context.Context, username string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
