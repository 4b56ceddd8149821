package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shieldpool/internal/models"
)

// AssetRepository defines the interface for shielded asset state data access
type AssetRepository interface {
	Upsert(ctx context.Context, assetID, state string, minted bool) error
	GetByAssetID(ctx context.Context, assetID string) (*models.ShieldedAssetRecord, error)
	ListByState(ctx context.Context, state string) ([]*models.ShieldedAssetRecord, error)
	ListAll(ctx context.Context) ([]*models.ShieldedAssetRecord, error)
}

// assetRepository implements AssetRepository
type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new AssetRepository instance
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

// Upsert creates or updates the state row of an asset
func (r *assetRepository) Upsert(ctx context.Context, assetID, state string, minted bool) error {
	var record models.ShieldedAssetRecord
	err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record = models.ShieldedAssetRecord{
			AssetID:   assetID,
			State:     state,
			Minted:    minted,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		return r.db.WithContext(ctx).Create(&record).Error
	}

	return r.db.WithContext(ctx).
		Model(&record).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now(),
		}).Error
}

// GetByAssetID retrieves the state row of an asset
func (r *assetRepository) GetByAssetID(ctx context.Context, assetID string) (*models.ShieldedAssetRecord, error) {
	var record models.ShieldedAssetRecord
	err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByState retrieves all assets in the given state
func (r *assetRepository) ListByState(ctx context.Context, state string) ([]*models.ShieldedAssetRecord, error) {
	var records []*models.ShieldedAssetRecord
	err := r.db.WithContext(ctx).
		Where("state = ?", state).
		Order("updated_at DESC").
		Find(&records).Error
	return records, err
}

// ListAll retrieves every tracked asset, used to rebuild controller state at
// startup
func (r *assetRepository) ListAll(ctx context.Context) ([]*models.ShieldedAssetRecord, error) {
	var records []*models.ShieldedAssetRecord
	err := r.db.WithContext(ctx).Find(&records).Error
	return records, err
}
