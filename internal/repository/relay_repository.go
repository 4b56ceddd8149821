package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shieldpool/internal/models"
)

// RelayRepository defines the interface for relay nonce and audit data access
type RelayRepository interface {
	SetNonce(ctx context.Context, signer string, nonce uint64) error
	ListNonces(ctx context.Context) ([]*models.RelayNonceRecord, error)

	RecordOperation(ctx context.Context, op *models.RelayedOperation) error
	ListOperationsBySigner(ctx context.Context, signer string, page, pageSize int) ([]*models.RelayedOperation, int64, error)

	SetRelayerBalance(ctx context.Context, relayer, balance string) error
	GetRelayerBalance(ctx context.Context, relayer string) (*models.RelayerBalance, error)
}

// relayRepository implements RelayRepository
type relayRepository struct {
	db *gorm.DB
}

// NewRelayRepository creates a new RelayRepository instance
func NewRelayRepository(db *gorm.DB) RelayRepository {
	return &relayRepository{db: db}
}

// SetNonce creates or updates the nonce row of a signer
func (r *relayRepository) SetNonce(ctx context.Context, signer string, nonce uint64) error {
	var record models.RelayNonceRecord
	err := r.db.WithContext(ctx).Where("signer = ?", signer).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record = models.RelayNonceRecord{
			Signer:    signer,
			Nonce:     nonce,
			UpdatedAt: time.Now(),
		}
		return r.db.WithContext(ctx).Create(&record).Error
	}

	return r.db.WithContext(ctx).
		Model(&record).
		Updates(map[string]interface{}{
			"nonce":      nonce,
			"updated_at": time.Now(),
		}).Error
}

// ListNonces retrieves every persisted signer nonce, used to rebuild the
// relay verifier at startup
func (r *relayRepository) ListNonces(ctx context.Context) ([]*models.RelayNonceRecord, error) {
	var records []*models.RelayNonceRecord
	err := r.db.WithContext(ctx).Find(&records).Error
	return records, err
}

// RecordOperation appends one executed relayed intent to the audit log
func (r *relayRepository) RecordOperation(ctx context.Context, op *models.RelayedOperation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

// ListOperationsBySigner retrieves paginated relayed operations of a signer
func (r *relayRepository) ListOperationsBySigner(ctx context.Context, signer string, page, pageSize int) ([]*models.RelayedOperation, int64, error) {
	var ops []*models.RelayedOperation
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RelayedOperation{}).Where("signer = ?", signer)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("signer = ?", signer).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&ops).Error

	return ops, total, err
}

// SetRelayerBalance creates or updates the accrued fee balance of a relayer
func (r *relayRepository) SetRelayerBalance(ctx context.Context, relayer, balance string) error {
	var record models.RelayerBalance
	err := r.db.WithContext(ctx).Where("relayer = ?", relayer).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record = models.RelayerBalance{
			Relayer:   relayer,
			Balance:   balance,
			UpdatedAt: time.Now(),
		}
		return r.db.WithContext(ctx).Create(&record).Error
	}

	return r.db.WithContext(ctx).
		Model(&record).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		}).Error
}

// GetRelayerBalance retrieves the accrued fee balance of a relayer
func (r *relayRepository) GetRelayerBalance(ctx context.Context, relayer string) (*models.RelayerBalance, error) {
	var record models.RelayerBalance
	err := r.db.WithContext(ctx).Where("relayer = ?", relayer).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
