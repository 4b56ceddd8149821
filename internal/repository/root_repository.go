package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shieldpool/internal/models"
)

// RootRepository defines the interface for historical tree root data access
type RootRepository interface {
	Create(ctx context.Context, root *models.RootRecord) error
	Exists(ctx context.Context, rootHash string) (bool, error)
	Latest(ctx context.Context) (*models.RootRecord, error)
	List(ctx context.Context, page, pageSize int) ([]*models.RootRecord, int64, error)
	Count(ctx context.Context) (int64, error)
}

// rootRepository implements RootRepository
type rootRepository struct {
	db *gorm.DB
}

// NewRootRepository creates a new RootRepository instance
func NewRootRepository(db *gorm.DB) RootRepository {
	return &rootRepository{db: db}
}

// Create records a new tree root
func (r *rootRepository) Create(ctx context.Context, root *models.RootRecord) error {
	return r.db.WithContext(ctx).Create(root).Error
}

// Exists reports whether the root was ever produced
func (r *rootRepository) Exists(ctx context.Context, rootHash string) (bool, error) {
	var record models.RootRecord
	err := r.db.WithContext(ctx).Where("root_hash = ?", rootHash).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Latest retrieves the most recently produced root
func (r *rootRepository) Latest(ctx context.Context) (*models.RootRecord, error) {
	var record models.RootRecord
	err := r.db.WithContext(ctx).Order("leaf_count DESC").First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List retrieves paginated roots, newest first
func (r *rootRepository) List(ctx context.Context, page, pageSize int) ([]*models.RootRecord, int64, error) {
	var roots []*models.RootRecord
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.RootRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Offset(offset).
		Limit(pageSize).
		Order("leaf_count DESC").
		Find(&roots).Error

	return roots, total, err
}

// Count returns the number of historical roots
func (r *rootRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.RootRecord{}).Count(&total).Error
	return total, err
}
