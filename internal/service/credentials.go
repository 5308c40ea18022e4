package service

import "context"

// CredentialRepository defines the persistence operations required by the
// credential service.
type CredentialRepository interface {
	// Verify reports whether the username/password pair matches a stored
	// user.
	Verify(ctx context.Context, username, password string) (bool, error)
	// Add registers a user; repository.ErrDuplicate when the username is
	// taken.
	Add(ctx context.Context, username, password string) error
	// Remove deletes a user; repository.ErrNotFound when absent.
	Remove(ctx context.Context, username string) error
}

// CredentialService implements account operations by delegating to a
// CredentialRepository.
type CredentialService struct {
	repo CredentialRepository
}

// NewCredentialService constructs a CredentialService using the provided
// repository.
func NewCredentialService(repo CredentialRepository) *CredentialService {
	return &CredentialService{repo: repo}
}

// Verify checks a username/password pair against the store. It is called
// once per privileged request, not once per session: an account deleted
// mid-session stops verifying immediately.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (bool, error) {
	return s.repo.Verify(ctx, username, password)
}

// Add registers a new user.
func (s *CredentialService) Add(ctx context.Context, username, password string) error {
	return s.repo.Add(ctx, username, password)
}

// Remove deletes a user.
func (s *CredentialService) Remove(ctx context.Context, username string) error {
	return s.repo.Remove(ctx, username)
}
