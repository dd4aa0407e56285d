package enums

import "fmt"

// MemberRole is the administrative sub-role carried by back-office members.
// All members sign in with the admin application role; this value scopes
// what the back office lets them touch.
type MemberRole string

const (
	MemberRoleAdmin      MemberRole = "admin"
	MemberRoleSuperadmin MemberRole = "superadmin"
	MemberRoleManager    MemberRole = "manager"
	MemberRoleAuditor    MemberRole = "auditor"
)

var validMemberRoles = []MemberRole{
	MemberRoleAdmin,
	MemberRoleSuperadmin,
	MemberRoleManager,
	MemberRoleAuditor,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}

// Department names the back-office unit a member belongs to.
type Department string

const (
	DepartmentAdministration Department = "administration"
	DepartmentOperations     Department = "operations"
	DepartmentFinance        Department = "finance"
	DepartmentSecurity       Department = "security"
	DepartmentIT             Department = "it"
)

var validDepartments = []Department{
	DepartmentAdministration,
	DepartmentOperations,
	DepartmentFinance,
	DepartmentSecurity,
	DepartmentIT,
}

// String implements fmt.Stringer.
func (d Department) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Department.
func (d Department) IsValid() bool {
	for _, candidate := range validDepartments {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDepartment converts raw input into a Department.
func ParseDepartment(value string) (Department, error) {
	for _, candidate := range validDepartments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid department %q", value)
}
