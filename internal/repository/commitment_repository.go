package repository

import (
	"context"

	"gorm.io/gorm"

	"shieldpool/internal/models"
)

// CommitmentRepository defines the interface for commitment leaf data access
type CommitmentRepository interface {
	Create(ctx context.Context, commitment *models.CommitmentRecord) error
	GetByLeafIndex(ctx context.Context, leafIndex uint64) (*models.CommitmentRecord, error)
	GetByCommitmentHash(ctx context.Context, commitmentHash string) (*models.CommitmentRecord, error)
	List(ctx context.Context, page, pageSize int) ([]*models.CommitmentRecord, int64, error)
	ListAllOrdered(ctx context.Context) ([]*models.CommitmentRecord, error)
	Count(ctx context.Context) (int64, error)
}

// commitmentRepository implements CommitmentRepository
type commitmentRepository struct {
	db *gorm.DB
}

// NewCommitmentRepository creates a new CommitmentRepository instance
func NewCommitmentRepository(db *gorm.DB) CommitmentRepository {
	return &commitmentRepository{db: db}
}

// Create records a newly inserted leaf
func (r *commitmentRepository) Create(ctx context.Context, commitment *models.CommitmentRecord) error {
	return r.db.WithContext(ctx).Create(commitment).Error
}

// GetByLeafIndex retrieves a commitment by its leaf index
func (r *commitmentRepository) GetByLeafIndex(ctx context.Context, leafIndex uint64) (*models.CommitmentRecord, error) {
	var commitment models.CommitmentRecord
	err := r.db.WithContext(ctx).Where("leaf_index = ?", leafIndex).First(&commitment).Error
	if err != nil {
		return nil, err
	}
	return &commitment, nil
}

// GetByCommitmentHash retrieves a commitment by its hash
func (r *commitmentRepository) GetByCommitmentHash(ctx context.Context, commitmentHash string) (*models.CommitmentRecord, error) {
	var commitment models.CommitmentRecord
	err := r.db.WithContext(ctx).Where("commitment_hash = ?", commitmentHash).First(&commitment).Error
	if err != nil {
		return nil, err
	}
	return &commitment, nil
}

// List retrieves paginated commitments, newest first
func (r *commitmentRepository) List(ctx context.Context, page, pageSize int) ([]*models.CommitmentRecord, int64, error) {
	var commitments []*models.CommitmentRecord
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.CommitmentRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Offset(offset).
		Limit(pageSize).
		Order("leaf_index DESC").
		Find(&commitments).Error

	return commitments, total, err
}

// ListAllOrdered retrieves every leaf in insertion order, used to rebuild the
// in-memory tree at startup
func (r *commitmentRepository) ListAllOrdered(ctx context.Context) ([]*models.CommitmentRecord, error) {
	var commitments []*models.CommitmentRecord
	err := r.db.WithContext(ctx).
		Order("leaf_index ASC").
		Find(&commitments).Error
	return commitments, err
}

// Count returns the number of recorded leaves
func (r *commitmentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.CommitmentRecord{}).Count(&total).Error
	return total, err
}
