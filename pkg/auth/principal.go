package auth

import (
	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// Principal is the authenticated caller derived from a verified session token.
type Principal struct {
	UID      uuid.UUID
	Email    string
	Role     enums.Role
	AccessID string
}

// PrincipalFromIDToken builds a Principal from verified session claims.
func PrincipalFromIDToken(claims *IDTokenClaims) Principal {
	if claims == nil {
		return Principal{}
	}
	return Principal{
		UID:      claims.UID,
		Email:    claims.Email,
		Role:     enums.RoleOrBaseline(claims.Role.String()),
		AccessID: claims.ID,
	}
}

// HasRole reports whether the principal holds one of the given roles.
func (p Principal) HasRole(roles ...enums.Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.RoleAdmin
}
