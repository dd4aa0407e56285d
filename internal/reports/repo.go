package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/pagination"
)

// Repository exposes report persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reports repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a report inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, report *models.Report) error {
	return tx.WithContext(ctx).Create(report).Error
}

// FindByID loads a report by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByStation returns a station's reports, newest first.
func (r *Repository) ListByStation(ctx context.Context, stationUID uuid.UUID) ([]models.Report, error) {
	var rows []models.Report
	err := r.db.WithContext(ctx).
		Where("station_uid = ?", stationUID).
		Order("report_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForOwner returns a page of reports for every station the owner holds.
func (r *Repository) ListForOwner(ctx context.Context, ownerUID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Report, error) {
	query := r.db.WithContext(ctx).
		Where("station_uid IN (?)", r.db.Model(&models.Station{}).Select("id").Where("owner_uid = ?", ownerUID))
	return fetchPage(query, cursor, limit)
}

// ListAll returns a page across every station, newest first.
func (r *Repository) ListAll(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Report, error) {
	return fetchPage(r.db.WithContext(ctx), cursor, limit)
}

// fetchPage applies keyset pagination over (created_at, id) descending.
func fetchPage(query *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.Report, error) {
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Report
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves a report through the review workflow.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
