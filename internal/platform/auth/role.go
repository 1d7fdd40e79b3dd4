package auth

import (
	"strings"

	"github.com/hms/frontdesk/internal/platform/apperror"
)

// Role is the closed set of front-desk roles.
type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleDoctor       Role = "Doctor"
	RoleReceptionist Role = "Receptionist"
	RolePatient      Role = "Patient"
)

var roles = []Role{RoleAdmin, RoleDoctor, RoleReceptionist, RolePatient}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", apperror.Invalid("role", "must be one of Admin, Doctor, Receptionist, Patient")
}

func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

// Principal is an authenticated user. Specialization is only ever set for
// doctors.
type Principal struct {
	Username       string `json:"username"`
	Role           Role   `json:"role"`
	Specialization string `json:"specialization,omitempty"`
}

// NewPrincipal validates the role/specialization pairing.
func NewPrincipal(username string, role Role, specialization string) (Principal, error) {
	if !role.Valid() {
		return Principal{}, apperror.Invalid("role", "unknown role %q", role)
	}
	specialization = strings.TrimSpace(specialization)
	if specialization != "" && role != RoleDoctor {
		return Principal{}, apperror.Invalid("specialization", "only doctors carry a specialization")
	}
	return Principal{Username: username, Role: role, Specialization: specialization}, nil
}
