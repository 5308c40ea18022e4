// Package service provides the business-logic layer between the session
// handler and the persistence repositories.
package service

import (
	"context"

	"github.com/avoront/rubrica/internal/models"
)

// ContactRepository defines the persistence operations required by the
// contact service. Both the file and the Postgres backends implement it.
type ContactRepository interface {
	// FindNth returns the n-th (1-based) contact matching the filter in
	// storage order, or repository.ErrNotFound.
	FindNth(ctx context.Context, filter models.Contact, n uint) (models.Contact, error)
	// Add appends a contact; repository.ErrDuplicate on an identical triple.
	Add(ctx context.Context, contact models.Contact) error
	// Remove deletes the exact triple; repository.ErrNotFound when absent.
	Remove(ctx context.Context, contact models.Contact) error
	// Replace substitutes old with updated; repository.ErrNotFound when old
	// is absent.
	Replace(ctx context.Context, old, updated models.Contact) error
}

// ContactService implements address-book operations by delegating to a
// ContactRepository.
type ContactService struct {
	repo ContactRepository
}

// NewContactService constructs a ContactService using the provided
// repository.
func NewContactService(repo ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

// FindNth returns the n-th contact matching the filter.
func (s *ContactService) FindNth(ctx context.Context, filter models.Contact, n uint) (models.Contact, error) {
	return s.repo.FindNth(ctx, filter, n)
}

// Add stores a new contact.
func (s *ContactService) Add(ctx context.Context, contact models.Contact) error {
	return s.repo.Add(ctx, contact)
}

// Remove deletes a stored contact.
func (s *ContactService) Remove(ctx context.Context, contact models.Contact) error {
	return s.repo.Remove(ctx, contact)
}

// Replace updates a stored contact in place.
func (s *ContactService) Replace(ctx context.Context, old, updated models.Contact) error {
	return s.repo.Replace(ctx, old, updated)
}
