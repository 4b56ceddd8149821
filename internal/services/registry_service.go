package services

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shieldpool/internal/models"
	"shieldpool/internal/pool"
	"shieldpool/internal/repository"
)

// RegistryService is the database-backed asset registry. It implements
// pool.AssetRegistry so public ownership survives restarts, unlike the
// in-memory registry used in tests.
type RegistryService struct {
	owners repository.AssetOwnerRepository
	log    *logrus.Entry
}

// NewRegistryService creates the registry over the given database.
func NewRegistryService(db *gorm.DB, logger *logrus.Logger) *RegistryService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RegistryService{
		owners: repository.NewAssetOwnerRepository(db),
		log:    logger.WithField("component", "registry"),
	}
}

var _ pool.AssetRegistry = (*RegistryService)(nil)

// OwnerOf returns the public owner of an asset.
func (s *RegistryService) OwnerOf(assetID common.Hash) (common.Address, error) {
	record, err := s.owners.GetByAssetID(context.Background(), assetID.Hex())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.Address{}, pool.ErrUnknownAsset
		}
		return common.Address{}, err
	}
	return common.HexToAddress(record.Owner), nil
}

// Mint registers a fresh asset under the given owner.
func (s *RegistryService) Mint(assetID common.Hash, owner common.Address) error {
	record := &models.AssetOwnerRecord{
		AssetID:   assetID.Hex(),
		Owner:     owner.Hex(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.owners.Create(context.Background(), record); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"asset_id": assetID.Hex(),
		"owner":    owner.Hex(),
	}).Info("asset registered")
	return nil
}

// Escrow takes custody of an asset from its current owner.
func (s *RegistryService) Escrow(assetID common.Hash, from common.Address) error {
	record, err := s.owners.GetByAssetID(context.Background(), assetID.Hex())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pool.ErrUnknownAsset
		}
		return err
	}
	if common.HexToAddress(record.Owner) != from {
		return pool.ErrNotOwner
	}

	return s.owners.UpdateOwnership(context.Background(), assetID.Hex(), common.Address{}.Hex(), true)
}

// Release hands an asset to a recipient and clears its escrow flag.
func (s *RegistryService) Release(assetID common.Hash, to common.Address) error {
	if _, err := s.owners.GetByAssetID(context.Background(), assetID.Hex()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pool.ErrUnknownAsset
		}
		return err
	}

	return s.owners.UpdateOwnership(context.Background(), assetID.Hex(), to.Hex(), false)
}
