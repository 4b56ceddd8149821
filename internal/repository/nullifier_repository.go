package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shieldpool/internal/models"
)

// NullifierRepository defines the interface for spent nullifier data access
type NullifierRepository interface {
	Create(ctx context.Context, nullifier *models.NullifierRecord) error
	Exists(ctx context.Context, nullifierHash string) (bool, error)
	ListAll(ctx context.Context) ([]*models.NullifierRecord, error)
	Count(ctx context.Context) (int64, error)
}

// nullifierRepository implements NullifierRepository
type nullifierRepository struct {
	db *gorm.DB
}

// NewNullifierRepository creates a new NullifierRepository instance
func NewNullifierRepository(db *gorm.DB) NullifierRepository {
	return &nullifierRepository{db: db}
}

// Create records a consumed nullifier
func (r *nullifierRepository) Create(ctx context.Context, nullifier *models.NullifierRecord) error {
	return r.db.WithContext(ctx).Create(nullifier).Error
}

// Exists reports whether the nullifier has been consumed
func (r *nullifierRepository) Exists(ctx context.Context, nullifierHash string) (bool, error) {
	var record models.NullifierRecord
	err := r.db.WithContext(ctx).Where("nullifier_hash = ?", nullifierHash).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListAll retrieves every consumed nullifier, used to rebuild the in-memory
// ledger at startup
func (r *nullifierRepository) ListAll(ctx context.Context) ([]*models.NullifierRecord, error) {
	var nullifiers []*models.NullifierRecord
	err := r.db.WithContext(ctx).Find(&nullifiers).Error
	return nullifiers, err
}

// Count returns the number of consumed nullifiers
func (r *nullifierRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.NullifierRecord{}).Count(&total).Error
	return total, err
}
