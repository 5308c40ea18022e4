// Package repository provides persistence implementations for the contact
// and credential stores, backed either by flat files or by PostgreSQL.
package repository

import "errors"

var (
	// ErrDuplicate is returned when an insert would violate a store's
	// uniqueness invariant (identical contact triple, taken username).
	ErrDuplicate = errors.New("record already exists")

	// ErrNotFound is returned when the targeted record is not in the store.
	ErrNotFound = errors.New("record not found")
)
