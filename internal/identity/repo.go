package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/pkg/db/models"
	dbtypes "github.com/etfuel/etfuel-backend/pkg/db/types"
)

// Repository exposes account persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateAccountDTO) (*models.Account, error) {
	account := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// CreateTx inserts a new account inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, dto CreateAccountDTO) (*models.Account, error) {
	account := dto.ToModel()
	if err := tx.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindByEmail retrieves the account matching the provided email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByUID loads an account by its UUID.
func (r *Repository) FindByUID(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateClaims overwrites the account's custom claims.
func (r *Repository) UpdateClaims(ctx context.Context, uid uuid.UUID, claims dbtypes.ClaimSet) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"custom_claims": claims,
			"updated_at":    time.Now(),
		}).Error
}

// UpdatePasswordHash replaces the stored credential hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, uid uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"password_hash": hash,
			"updated_at":    time.Now(),
		}).Error
}

// UpdateProfile applies display name and email changes to the account record.
func (r *Repository) UpdateProfile(ctx context.Context, uid uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("uid = ?", uid).
		Updates(updates).Error
}

// SetDisabled toggles whether the account can authenticate.
func (r *Repository) SetDisabled(ctx context.Context, uid uuid.UUID, disabled bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("uid = ?", uid).
		UpdateColumn("disabled", disabled).Error
}
