package vehicles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
)

// Repository exposes vehicle persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vehicles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a vehicle inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, vehicle *models.Vehicle) error {
	return tx.WithContext(ctx).Create(vehicle).Error
}

// FindByID loads a vehicle by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByPlate loads a vehicle by its license plate.
func (r *Repository) FindByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "plate_number = ?", plate).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// List returns vehicles ordered by creation, optionally scoped to one owner.
func (r *Repository) List(ctx context.Context, ownerUID *uuid.UUID) ([]models.Vehicle, error) {
	q := r.db.WithContext(ctx).Model(&models.Vehicle{}).Order("created_at DESC")
	if ownerUID != nil {
		q = q.Where("owner_uid = ?", *ownerUID)
	}
	var rows []models.Vehicle
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the full vehicle row.
func (r *Repository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

// Delete removes a vehicle by primary key.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Vehicle{}, "id = ?", id).Error
}
