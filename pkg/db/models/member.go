package models

import (
	"time"

	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/google/uuid"
)

// Member is a back-office staff record. Members sign in through a linked
// account that carries the admin application role; Role here is the finer
// grained back-office sub-role.
type Member struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	MemberID   string           `gorm:"column:member_id;not null;uniqueIndex"`
	Name       string           `gorm:"column:name;not null"`
	Email      string           `gorm:"column:email;not null"`
	Phone      string           `gorm:"column:phone"`
	Role       enums.MemberRole `gorm:"column:role;not null;default:'admin'"`
	Department enums.Department `gorm:"column:department;not null;default:'administration'"`
	AccountUID *uuid.UUID       `gorm:"type:uuid;column:account_uid"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
