// Package models defines the core data structures for contacts and users.
package models

// Contact represents one address-book entry. The (Name, Surname, Phone)
// triple is the record's identity: no two stored contacts share it.
type Contact struct {
	// Name is the contact's first name (up to 10 alphanumeric characters).
	Name string
	// Surname is the contact's last name (up to 10 alphanumeric characters).
	Surname string
	// Phone is the contact's phone number (exactly 10 digits, or empty).
	Phone string
}

// IsEmpty reports whether every field of the contact is empty.
func (c Contact) IsEmpty() bool {
	return c.Name == "" && c.Surname == "" && c.Phone == ""
}

// Equal reports whether both contacts hold the same identity triple.
func (c Contact) Equal(other Contact) bool {
	return c.Name == other.Name && c.Surname == other.Surname && c.Phone == other.Phone
}

// Matches reports whether the contact satisfies the given filter.
// Empty filter fields are wildcards; non-empty fields must match exactly.
// The receiver is always a full record from the store, while the filter
// comes from a client request and may name any subset of the fields.
func (c Contact) Matches(filter Contact) bool {
	if filter.Name != "" && filter.Name != c.Name {
		return false
	}
	if filter.Surname != "" && filter.Surname != c.Surname {
		return false
	}
	if filter.Phone != "" && filter.Phone != c.Phone {
		return false
	}
	return true
}

// User represents a registered account in the credential store.
type User struct {
	// Username is the unique login name (1-20 alphanumeric characters).
	Username string
	// PasswordHash is the fixed-length digest of the user's password.
	PasswordHash string
}
