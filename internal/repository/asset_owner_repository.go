package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shieldpool/internal/models"
)

// AssetOwnerRepository defines the interface for asset ownership data access
type AssetOwnerRepository interface {
	Create(ctx context.Context, record *models.AssetOwnerRecord) error
	GetByAssetID(ctx context.Context, assetID string) (*models.AssetOwnerRecord, error)
	UpdateOwnership(ctx context.Context, assetID, owner string, escrowed bool) error
}

// assetOwnerRepository implements AssetOwnerRepository
type assetOwnerRepository struct {
	db *gorm.DB
}

// NewAssetOwnerRepository creates a new AssetOwnerRepository instance
func NewAssetOwnerRepository(db *gorm.DB) AssetOwnerRepository {
	return &assetOwnerRepository{db: db}
}

// Create inserts a new ownership row
func (r *assetOwnerRepository) Create(ctx context.Context, record *models.AssetOwnerRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByAssetID retrieves the ownership row of an asset
func (r *assetOwnerRepository) GetByAssetID(ctx context.Context, assetID string) (*models.AssetOwnerRecord, error) {
	var record models.AssetOwnerRecord
	err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateOwnership sets the owner and escrow flag of an asset
func (r *assetOwnerRepository) UpdateOwnership(ctx context.Context, assetID, owner string, escrowed bool) error {
	return r.db.WithContext(ctx).
		Model(&models.AssetOwnerRecord{}).
		Where("asset_id = ?", assetID).
		Updates(map[string]interface{}{
			"owner":      owner,
			"escrowed":   escrowed,
			"updated_at": time.Now(),
		}).Error
}
