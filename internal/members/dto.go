package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// MemberDTO is the transport shape of a back-office member.
type MemberDTO struct {
	ID         uuid.UUID        `json:"id"`
	MemberID   string           `json:"memberId"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone"`
	Role       enums.MemberRole `json:"role"`
	Department enums.Department `json:"department"`
	AccountUID *uuid.UUID       `json:"accountUid,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func FromModel(m *models.Member) *MemberDTO {
	if m == nil {
		return nil
	}
	return &MemberDTO{
		ID:         m.ID,
		MemberID:   m.MemberID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Role:       m.Role,
		Department: m.Department,
		AccountUID: m.AccountUID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func FromModels(rows []models.Member) []MemberDTO {
	out := make([]MemberDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
