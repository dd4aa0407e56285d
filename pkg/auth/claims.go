package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// Token kinds carried in the "token_use" claim so the parsers can reject
// a custom token presented where an ID token is expected and vice versa.
const (
	TokenUseID     = "id"
	TokenUseCustom = "custom"
	TokenUseReset  = "reset"
)

// IDTokenPayload captures the data available when minting a session JWT.
type IDTokenPayload struct {
	UID   uuid.UUID
	Email string
	Role  enums.Role
	JTI   string
}

// IDTokenClaims is the typed session JWT presented on API requests.
type IDTokenClaims struct {
	UID      uuid.UUID  `json:"uid"`
	Email    string     `json:"email"`
	Role     enums.Role `json:"role"`
	TokenUse string     `json:"token_use"`
	jwt.RegisteredClaims
}

// CustomTokenClaims is the short-lived exchange token minted at login and
// redeemed once for a full session.
type CustomTokenClaims struct {
	UID      uuid.UUID  `json:"uid"`
	Role     enums.Role `json:"role"`
	TokenUse string     `json:"token_use"`
	jwt.RegisteredClaims
}

// ResetTokenClaims is embedded in password-reset links.
type ResetTokenClaims struct {
	UID      uuid.UUID `json:"uid"`
	Email    string    `json:"email"`
	TokenUse string    `json:"token_use"`
	jwt.RegisteredClaims
}
