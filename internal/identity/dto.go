package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	dbtypes "github.com/etfuel/etfuel-backend/pkg/db/types"
)

// AccountDTO is the transport shape that omits the password hash.
type AccountDTO struct {
	UID           uuid.UUID        `json:"uid"`
	Email         string           `json:"email"`
	DisplayName   string           `json:"display_name"`
	EmailVerified bool             `json:"email_verified"`
	Disabled      bool             `json:"disabled"`
	CustomClaims  dbtypes.ClaimSet `json:"custom_claims,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CreateAccountDTO holds the data required by the repo to persist a new account.
type CreateAccountDTO struct {
	Email        string
	PasswordHash string
	DisplayName  string
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}

	return &AccountDTO{
		UID:           a.UID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		EmailVerified: a.EmailVerified,
		Disabled:      a.Disabled,
		CustomClaims:  a.CustomClaims.Clone(),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (c CreateAccountDTO) ToModel() *models.Account {
	return &models.Account{
		UID:          uuid.New(),
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		DisplayName:  c.DisplayName,
		CustomClaims: dbtypes.ClaimSet{},
	}
}
