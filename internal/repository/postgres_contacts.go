package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/avoront/rubrica/internal/models"
)

// pq error code for unique constraint violations.
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// PostgresContactRepository implements the contact store against a
// PostgreSQL database. Insertion order is preserved through a serial id, so
// FindNth walks records in the same order the file backend would.
type PostgresContactRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresContactRepository creates a new PostgresContactRepository with
// the given database connection. db must be a valid *sql.DB connected to a
// PostgreSQL instance.
func NewPostgresContactRepository(db *sql.DB) *PostgresContactRepository {
	return &PostgresContactRepository{DB: db}
}

// FindNth returns the n-th (1-based) contact matching the filter in
// insertion order, or ErrNotFound when fewer than n records match.
func (r *PostgresContactRepository) FindNth(ctx context.Context, filter models.Contact, n uint) (models.Contact, error) {
	if n == 0 {
		return models.Contact{}, ErrNotFound
	}

	var c models.Contact
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT name, surname, phone FROM contacts
		 WHERE ($1 = '' OR name = $1)
		   AND ($2 = '' OR surname = $2)
		   AND ($3 = '' OR phone = $3)
		 ORDER BY id
		 OFFSET $4 LIMIT 1`,
		filter.Name, filter.Surname, filter.Phone, n-1,
	).Scan(&c.Name, &c.Surname, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, ErrNotFound
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("find contact: %w", err)
	}
	return c, nil
}

// Add inserts the contact. A unique-constraint violation on the triple is
// reported as ErrDuplicate.
func (r *PostgresContactRepository) Add(ctx context.Context, contact models.Contact) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO contacts (name, surname, phone) VALUES ($1, $2, $3)`,
		contact.Name, contact.Surname, contact.Phone,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add contact: %w", err)
	}
	return nil
}

// Remove deletes the record with the exact triple; ErrNotFound when absent.
func (r *PostgresContactRepository) Remove(ctx context.Context, contact models.Contact) error {
	res, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM contacts WHERE name = $1 AND surname = $2 AND phone = $3`,
		contact.Name, contact.Surname, contact.Phone,
	)
	if err != nil {
		return fmt.Errorf("remove contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove contact: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Replace updates the record matching old's exact triple with updated's
// fields; ErrNotFound when old is absent, ErrDuplicate when updated's triple
// is already taken by another record.
func (r *PostgresContactRepository) Replace(ctx context.Context, old, updated models.Contact) error {
	res, err := r.DB.ExecContext(
		ctx,
		`UPDATE contacts SET name = $4, surname = $5, phone = $6
		 WHERE name = $1 AND surname = $2 AND phone = $3`,
		old.Name, old.Surname, old.Phone,
		updated.Name, updated.Surname, updated.Phone,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("replace contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace contact: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
