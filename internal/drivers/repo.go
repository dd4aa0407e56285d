package drivers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// Repository exposes driver persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a drivers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a driver inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, driver *models.Driver) error {
	return tx.WithContext(ctx).Create(driver).Error
}

// FindByID loads a driver by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

// List returns drivers ordered by creation, optionally scoped to one owner.
func (r *Repository) List(ctx context.Context, ownerUID *uuid.UUID) ([]models.Driver, error) {
	q := r.db.WithContext(ctx).Model(&models.Driver{}).Order("created_at DESC")
	if ownerUID != nil {
		q = q.Where("owner_uid = ?", *ownerUID)
	}
	var rows []models.Driver
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves a driver between active/inactive/suspended.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
