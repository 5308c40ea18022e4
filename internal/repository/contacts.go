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

// FileContactRepository stores contacts as one comma-joined line per record
// (name,surname,phone) in a plain text file. Record order is insertion
// order. Mutations that drop or rewrite lines go through a temp file and an
// atomic rename, so a crash leaves either the old or the new content, never
// a torn file.
//
// A process-local mutex serializes mutations; readers take it too so a
// FindNth never observes a half-applied rewrite. Cross-process access is not
// coordinated (documented limitation of the file backend).
type FileContactRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileContactRepository creates a contact repository over the given file
// path. The file does not need to exist yet; a missing file reads as an
// empty store and is created on the first Add.
func NewFileContactRepository(path string) *FileContactRepository {
	return &FileContactRepository{path: path}
}

// load reads every contact in storage order. A missing file is an empty
// store, not an error.
func (r *FileContactRepository) load() ([]models.Contact, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open contact store: %w", err)
	}
	defer f.Close()

	var contacts []models.Contact
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("contact store: malformed line %q", line)
		}
		contacts = append(contacts, models.Contact{Name: parts[0], Surname: parts[1], Phone: parts[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read contact store: %w", err)
	}
	return contacts, nil
}

// rewrite atomically replaces the store content with the given records.
func (r *FileContactRepository) rewrite(contacts []models.Contact) error {
	tmp := filepath.Join(filepath.Dir(r.path), ".contacts.tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, c := range contacts {
		if _, err := fmt.Fprintf(w, "%s,%s,%s\n", c.Name, c.Surname, c.Phone); err != nil {
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
		return fmt.Errorf("replace contact store: %w", err)
	}
	return nil
}

// FindNth returns the n-th (1-based) contact matching the filter in storage
// order. Empty filter fields are wildcards. Returns ErrNotFound when fewer
// than n records match. The ordinal is computed on the current file content,
// so it is a paging aid rather than a stable cursor: a concurrent mutation
// between calls can shift which record is "next".
func (r *FileContactRepository) FindNth(ctx context.Context, filter models.Contact, n uint) (models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n == 0 {
		return models.Contact{}, ErrNotFound
	}
	contacts, err := r.load()
	if err != nil {
		return models.Contact{}, err
	}

	var found uint
	for _, c := range contacts {
		if c.Matches(filter) {
			found++
			if found == n {
				return c, nil
			}
		}
	}
	return models.Contact{}, ErrNotFound
}

// Add appends the contact unless an identical triple is already stored, in
// which case it returns ErrDuplicate.
func (r *FileContactRepository) Add(ctx context.Context, contact models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts, err := r.load()
	if err != nil {
		return err
	}
	for _, c := range contacts {
		if c.Equal(contact) {
			return ErrDuplicate
		}
	}

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o666)
	if err != nil {
		return fmt.Errorf("open contact store: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s,%s,%s\n", contact.Name, contact.Surname, contact.Phone); err != nil {
		return fmt.Errorf("append contact: %w", err)
	}
	return nil
}

// Remove deletes the record with the exact triple. Returns ErrNotFound when
// no such record exists; the store is left untouched in that case.
func (r *FileContactRepository) Remove(ctx context.Context, contact models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts, err := r.load()
	if err != nil {
		return err
	}

	kept := contacts[:0]
	removed := false
	for _, c := range contacts {
		if !removed && c.Equal(contact) {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return ErrNotFound
	}
	return r.rewrite(kept)
}

// Replace substitutes the record matching old's exact triple with updated,
// keeping its position in the file. Returns ErrNotFound when old is absent.
func (r *FileContactRepository) Replace(ctx context.Context, old, updated models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts, err := r.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, c := range contacts {
		if c.Equal(old) {
			contacts[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		return ErrNotFound
	}
	return r.rewrite(contacts)
}
