// Package validate holds the input rules shared by the client prompts and
// the admin API. The server does not trust these checks: comma rejection at
// the frame level is what actually protects the storage format.
package validate

import "github.com/avoront/rubrica/internal/protocol"

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func alphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) && !isLetter(s[i]) {
			return false
		}
	}
	return true
}

// Username reports whether s is a valid login name: 1-20 alphanumeric
// characters.
func Username(s string) bool {
	return len(s) >= 1 && len(s) <= protocol.AuthParamLength && alphanumeric(s)
}

// Password reports whether s is a valid password: up to 20 alphanumeric
// characters. Empty is allowed (an account without a password).
func Password(s string) bool {
	return len(s) <= protocol.AuthParamLength && alphanumeric(s)
}

// ContactName reports whether s is usable as a contact name or surname:
// up to 10 alphanumeric characters. Empty is allowed.
func ContactName(s string) bool {
	return len(s) <= protocol.ContactParamLength && alphanumeric(s)
}

// Phone reports whether s is a valid phone number: exactly 10 digits, or
// empty.
func Phone(s string) bool {
	if s == "" {
		return true
	}
	if len(s) != protocol.ContactParamLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
