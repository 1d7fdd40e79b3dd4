package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
)

const (
	MinAge = 1
	MaxAge = 120

	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72

	maxNameLen    = 200
	maxGenderLen  = 32
	maxPhoneLen   = 32
	maxAddressLen = 500
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._@-]+( [A-Za-z0-9._@-]+)*$`)

// User is a stored credential. PasswordHash never leaves the package in a
// response.
type User struct {
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Role           auth.Role `json:"role"`
	Specialization string    `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Principal returns the authenticated view of u.
func (u *User) Principal() auth.Principal {
	return auth.Principal{Username: u.Username, Role: u.Role, Specialization: u.Specialization}
}

type RegisterRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      auth.Principal `json:"user"`
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return apperror.Invalid("username", "must be %d to %d characters", minUsernameLen, maxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return apperror.Invalid("username", "may contain letters, digits, spaces and . _ @ -")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return apperror.Invalid("password", "must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return apperror.Invalid("password", "must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// Patient is a demographic record. Patients are created once and never
// updated or deleted.
type Patient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize trims every free-text field.
func (p *Patient) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.TrimSpace(p.Gender)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
}

func (p *Patient) Validate() error {
	if p.Name == "" {
		return apperror.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(p.Name) > maxNameLen {
		return apperror.Invalid("name", "must be at most %d characters", maxNameLen)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return apperror.Invalid("age", "must be between %d and %d", MinAge, MaxAge)
	}
	if utf8.RuneCountInString(p.Gender) > maxGenderLen {
		return apperror.Invalid("gender", "must be at most %d characters", maxGenderLen)
	}
	if utf8.RuneCountInString(p.Phone) > maxPhoneLen {
		return apperror.Invalid("phone", "must be at most %d characters", maxPhoneLen)
	}
	if utf8.RuneCountInString(p.Address) > maxAddressLen {
		return apperror.Invalid("address", "must be at most %d characters", maxAddressLen)
	}
	return nil
}
