package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// UserDTO is the transport shape that omits the credential hash.
type UserDTO struct {
	UID         uuid.UUID        `json:"uid"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
	Role        enums.Role       `json:"role"`
	Status      enums.UserStatus `json:"status"`
	Permissions []string         `json:"permissions"`
	LastLoginAt *time.Time       `json:"lastLogin,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new profile.
type CreateUserDTO struct {
	UID          uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         enums.Role
	Permissions  []string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		UID:         u.UID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Status:      u.Status,
		Permissions: append([]string(nil), u.Permissions...),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.RoleBaseline
	}
	permissions := c.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	return &models.User{
		UID:          c.UID,
		Email:        c.Email,
		Name:         c.Name,
		PasswordHash: c.PasswordHash,
		Role:         role,
		Status:       enums.UserStatusActive,
		Permissions:  pq.StringArray(permissions),
	}
}
