package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword    = errors.New("password must be at least 8 characters with upper, lower, digit and special characters")
	ErrInvalidUsername = errors.New("username must be 4-128 characters of letters, digits, dots, underscores or hyphens, with no special characters at the edges")
	ErrInvalidEmail    = errors.New("invalid email address")
)

// Hasher wraps bcrypt with a configurable cost factor.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces: length >= 8, at least one upper, one lower,
// one digit and one non-alphanumeric character.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 2048 {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// ValidateUsername enforces: 4-128 chars from [A-Za-z0-9._-], no '.', '_'
// or '-' at the start, no '.' or '_' at the end, and no consecutive '.'
// or '_' pairs.
func ValidateUsername(username string) error {
	if len(username) < 4 || len(username) > 128 {
		return ErrInvalidUsername
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return ErrInvalidUsername
		}
		if r > unicode.MaxASCII {
			return ErrInvalidUsername
		}
	}
	if strings.ContainsAny(string(username[0]), "._-") || strings.ContainsAny(string(username[len(username)-1]), "._") {
		return ErrInvalidUsername
	}
	for _, pair := range []string{"..", "__", "._", "_."} {
		if strings.Contains(username, pair) {
			return ErrInvalidUsername
		}
	}
	return nil
}

// ValidateEmail is a shape check, not an RFC validator: one '@' with a
// dotted domain after it.
func ValidateEmail(email string) error {
	if len(email) < 4 || len(email) > 128 {
		return ErrInvalidEmail
	}
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return ErrInvalidEmail
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return ErrInvalidEmail
	}
	return nil
}
