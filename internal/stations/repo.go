package stations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
)

// Repository exposes station persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a stations repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a station inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, station *models.Station) error {
	return tx.WithContext(ctx).Create(station).Error
}

// FindByID loads a station by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Station, error) {
	var station models.Station
	if err := r.db.WithContext(ctx).First(&station, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

// FindByStationID loads a station by its human-readable identifier.
func (r *Repository) FindByStationID(ctx context.Context, stationID string) (*models.Station, error) {
	var station models.Station
	if err := r.db.WithContext(ctx).First(&station, "station_id = ?", stationID).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

// List returns stations ordered by creation, optionally scoped to one owner.
func (r *Repository) List(ctx context.Context, ownerUID *uuid.UUID) ([]models.Station, error) {
	q := r.db.WithContext(ctx).Model(&models.Station{}).Order("created_at DESC")
	if ownerUID != nil {
		q = q.Where("owner_uid = ?", *ownerUID)
	}
	var rows []models.Station
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the full station row.
func (r *Repository) Update(ctx context.Context, station *models.Station) error {
	return r.db.WithContext(ctx).Save(station).Error
}

// Delete removes a station by primary key.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Station{}, "id = ?", id).Error
}
