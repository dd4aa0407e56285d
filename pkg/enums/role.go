package enums

import "fmt"

// Role represents an application-level account role. The role is stored on
// the profile record and mirrored into the identity provider's custom-claim
// set so session tokens carry it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleUnion   Role = "union"
	RoleStation Role = "station"
	RoleDriver  Role = "driver"
)

// RoleBaseline is assigned when a profile carries no explicit role.
const RoleBaseline = RoleUnion

var validRoles = []Role{
	RoleAdmin,
	RoleUnion,
	RoleStation,
	RoleDriver,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// RoleOrBaseline returns the parsed role, falling back to the baseline role
// for empty or unknown input.
func RoleOrBaseline(value string) Role {
	role, err := ParseRole(value)
	if err != nil {
		return RoleBaseline
	}
	return role
}
