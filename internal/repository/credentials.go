package repository

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/avoront/rubrica/internal/models"
)

// FileCredentialRepository stores one user per line as username,passwordHash
// in a plain text file. Usernames are unique. Removal rewrites the file via
// temp file + rename, like the contact store.
type FileCredentialRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileCredentialRepository creates a credential repository over the given
// file path. A missing file reads as an empty store.
func NewFileCredentialRepository(path string) *FileCredentialRepository {
	return &FileCredentialRepository{path: path}
}

func (r *FileCredentialRepository) load() ([]models.User, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	defer f.Close()

	var users []models.User
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("credential store: malformed line %q", line)
		}
		users = append(users, models.User{Username: parts[0], PasswordHash: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credential store: %w", err)
	}
	return users, nil
}

func (r *FileCredentialRepository) rewrite(users []models.User) error {
	tmp := filepath.Join(filepath.Dir(r.path), ".credentials.tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, u := range users {
		if _, err := fmt.Fprintf(w, "%s,%s\n", u.Username, u.PasswordHash); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("write temp store: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush temp store: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace credential store: %w", err)
	}
	return nil
}

// Verify reports whether a stored user matches the username exactly and the
// digest of the supplied plaintext password. A missing store means no user
// matches; it is not an error.
func (r *FileCredentialRepository) Verify(ctx context.Context, username, password string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return false, err
	}
	hash := HashPassword(password)
	for _, u := range users {
		if u.Username == username && u.PasswordHash == hash {
			return true, nil
		}
	}
	return false, nil
}

// Add registers a new user. The username is the primary key: if it is
// already taken, Add returns ErrDuplicate regardless of the password.
func (r *FileCredentialRepository) Add(ctx context.Context, username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == username {
			return ErrDuplicate
		}
	}

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o666)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s,%s\n", username, HashPassword(password)); err != nil {
		return fmt.Errorf("append credential: %w", err)
	}
	return nil
}

// Remove deletes the user with the given username. Returns ErrNotFound when
// no such user exists.
func (r *FileCredentialRepository) Remove(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	kept := users[:0]
	removed := false
	for _, u := range users {
		if u.Username == username {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	if !removed {
		return ErrNotFound
	}
	return r.rewrite(kept)
}
