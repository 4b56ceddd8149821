package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shieldpool/internal/events"
	"shieldpool/internal/interfaces"
	"shieldpool/internal/metrics"
	"shieldpool/internal/models"
	"shieldpool/internal/pool"
	"shieldpool/internal/relay"
	"shieldpool/internal/repository"
)

// PoolService drives the pool controller and keeps the database, event bus
// and metrics in sync with it. The in-memory controller is authoritative; the
// database is the restart journal.
type PoolService struct {
	mu sync.Mutex

	controller *pool.Controller
	fees       *pool.MemoryFeeLedger

	commitments repository.CommitmentRepository
	nullifiers  repository.NullifierRepository
	roots       repository.RootRepository
	assets      repository.AssetRepository
	relays      repository.RelayRepository

	log *logrus.Entry
}

// NewPoolService wires the service.
func NewPoolService(
	controller *pool.Controller,
	fees *pool.MemoryFeeLedger,
	db *gorm.DB,
	logger *logrus.Logger,
) *PoolService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &PoolService{
		controller:  controller,
		fees:        fees,
		commitments: repository.NewCommitmentRepository(db),
		nullifiers:  repository.NewNullifierRepository(db),
		roots:       repository.NewRootRepository(db),
		assets:      repository.NewAssetRepository(db),
		relays:      repository.NewRelayRepository(db),
		log:         logger.WithField("component", "pool_service"),
	}
}

var _ interfaces.PoolServiceInterface = (*PoolService)(nil)

// ============ Startup restore ============

// RestoreState replays the persisted journal into the controller: leaves in
// insertion order, then nullifiers, asset states and signer nonces.
func (s *PoolService) RestoreState(ctx context.Context) error {
	leaves, err := s.commitments.ListAllOrdered(ctx)
	if err != nil {
		return fmt.Errorf("load commitments: %w", err)
	}
	for _, leaf := range leaves {
		if _, err := s.controller.RestoreCommitment(common.HexToHash(leaf.CommitmentHash)); err != nil {
			return fmt.Errorf("replay leaf %d: %w", leaf.LeafIndex, err)
		}
	}

	spent, err := s.nullifiers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load nullifiers: %w", err)
	}
	for _, nf := range spent {
		s.controller.RestoreNullifier(common.HexToHash(nf.NullifierHash))
	}

	assets, err := s.assets.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	var mintSeq uint64
	for _, a := range assets {
		state := pool.AssetPublic
		if a.State == models.AssetStateShielded {
			state = pool.AssetShielded
		}
		s.controller.RestoreAssetState(common.HexToHash(a.AssetID), state)
		if a.Minted {
			mintSeq++
		}
	}
	s.controller.RestoreMintSequence(mintSeq)

	nonces, err := s.relays.ListNonces(ctx)
	if err != nil {
		return fmt.Errorf("load relay nonces: %w", err)
	}
	for _, n := range nonces {
		s.controller.Intents().RestoreNonce(common.HexToAddress(n.Signer), n.Nonce)
	}

	s.refreshGauges()

	s.log.WithFields(logrus.Fields{
		"leaves":     len(leaves),
		"nullifiers": len(spent),
		"assets":     len(assets),
		"nonces":     len(nonces),
	}).Info("pool state restored")

	return nil
}

// ============ State-changing operations ============

// Shield escrows a public asset into the pool.
func (s *PoolService) Shield(ctx context.Context, caller common.Address, assetID, commitment common.Hash, proof []byte) (*interfaces.OperationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.controller.Shield(caller, assetID, commitment, proof); err != nil {
		metrics.PoolOperations.WithLabelValues("shield", "rejected").Inc()
		return nil, err
	}
	metrics.PoolOperations.WithLabelValues("shield", "ok").Inc()
	metrics.PoolOperationDuration.WithLabelValues("shield").Observe(time.Since(start).Seconds())

	result := s.lastInsertLocked()
	s.persistLeafLocked(ctx, commitment, result, "shield")
	s.persistAssetLocked(ctx, assetID, models.AssetStateShielded, false)
	s.publishAssetEvent(assetID, models.AssetStateShielded)
	s.refreshGauges()

	return result, nil
}

// MintShielded mints a fresh asset directly into the pool.
func (s *PoolService) MintShielded(ctx context.Context, commitment common.Hash, proof []byte, metadataTag common.Hash) (common.Hash, *interfaces.OperationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	assetID, err := s.controller.MintShielded(commitment, proof, metadataTag)
	if err != nil {
		metrics.PoolOperations.WithLabelValues("mint", "rejected").Inc()
		return common.Hash{}, nil, err
	}
	metrics.PoolOperations.WithLabelValues("mint", "ok").Inc()
	metrics.PoolOperationDuration.WithLabelValues("mint").Observe(time.Since(start).Seconds())

	result := s.lastInsertLocked()
	s.persistLeafLocked(ctx, commitment, result, "mint")
	s.persistAssetLocked(ctx, assetID, models.AssetStateShielded, true)
	s.publishAssetEvent(assetID, models.AssetStateShielded)
	s.refreshGauges()

	return assetID, result, nil
}

// TransferPrivate spends a note and inserts its replacement.
func (s *PoolService) TransferPrivate(ctx context.Context, nullifier, newCommitment, root common.Hash, proof []byte) (*interfaces.OperationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.controller.TransferPrivate(nullifier, newCommitment, root, proof); err != nil {
		metrics.PoolOperations.WithLabelValues("transfer", "rejected").Inc()
		return nil, err
	}
	metrics.PoolOperations.WithLabelValues("transfer", "ok").Inc()
	metrics.PoolOperationDuration.WithLabelValues("transfer").Observe(time.Since(start).Seconds())

	result := s.lastInsertLocked()
	s.persistLeafLocked(ctx, newCommitment, result, "transfer")
	s.persistNullifierLocked(ctx, nullifier, "transfer")
	s.refreshGauges()

	return result, nil
}

// TransferViaRelay executes a signed transfer intent on behalf of its signer.
func (s *PoolService) TransferViaRelay(ctx context.Context, in *relay.TransferIntent, sig []byte, relayer common.Address, proof []byte) (*interfaces.RelayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	signer, err := s.controller.TransferPrivateViaRelay(in, sig, relayer, proof)
	if err != nil {
		metrics.RelayedOperations.WithLabelValues("transfer", "rejected").Inc()
		return nil, err
	}
	metrics.RelayedOperations.WithLabelValues("transfer", "ok").Inc()

	result := s.lastInsertLocked()
	s.persistLeafLocked(ctx, in.NewCommitment, result, "transfer")
	s.persistNullifierLocked(ctx, in.Nullifier, "transfer")
	s.persistRelayLocked(ctx, "transfer", signer, relayer, in.Nullifier, in.Fee, in.Nonce)
	s.refreshGauges()

	return &interfaces.RelayResult{OperationResult: *result, Signer: signer}, nil
}

// Unshield spends a note and releases its asset publicly.
func (s *PoolService) Unshield(ctx context.Context, nullifier, assetID common.Hash, recipient common.Address, root common.Hash, proof []byte) (*interfaces.OperationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.controller.Unshield(nullifier, assetID, recipient, root, proof); err != nil {
		metrics.PoolOperations.WithLabelValues("unshield", "rejected").Inc()
		return nil, err
	}
	metrics.PoolOperations.WithLabelValues("unshield", "ok").Inc()
	metrics.PoolOperationDuration.WithLabelValues("unshield").Observe(time.Since(start).Seconds())

	s.persistNullifierLocked(ctx, nullifier, "unshield")
	s.persistAssetLocked(ctx, assetID, models.AssetStatePublic, false)
	s.publishAssetEvent(assetID, models.AssetStatePublic)
	s.refreshGauges()

	// unshield inserts no leaf; report the current tree position
	return &interfaces.OperationResult{
		LeafIndex: s.controller.NextLeafIndex(),
		Root:      s.controller.CurrentRoot(),
	}, nil
}

// UnshieldViaRelay executes a signed unshield intent on behalf of its signer.
func (s *PoolService) UnshieldViaRelay(ctx context.Context, in *relay.UnshieldIntent, sig []byte, relayer common.Address, proof []byte) (*interfaces.RelayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	signer, err := s.controller.UnshieldViaRelay(in, sig, relayer, proof)
	if err != nil {
		metrics.RelayedOperations.WithLabelValues("unshield", "rejected").Inc()
		return nil, err
	}
	metrics.RelayedOperations.WithLabelValues("unshield", "ok").Inc()

	s.persistNullifierLocked(ctx, in.Nullifier, "unshield")
	s.persistAssetLocked(ctx, in.AssetID, models.AssetStatePublic, false)
	s.persistRelayLocked(ctx, "unshield", signer, relayer, in.Nullifier, in.Fee, in.Nonce)
	s.publishAssetEvent(in.AssetID, models.AssetStatePublic)
	s.refreshGauges()

	return &interfaces.RelayResult{
		OperationResult: interfaces.OperationResult{
			LeafIndex: s.controller.NextLeafIndex(),
			Root:      s.controller.CurrentRoot(),
		},
		Signer: signer,
	}, nil
}

// ============ Queries ============

func (s *PoolService) Stats() *interfaces.PoolStats {
	return &interfaces.PoolStats{
		TreeDepth:       s.controller.Tree().Depth(),
		LeafCount:       s.controller.NextLeafIndex(),
		RootCount:       s.controller.RootCount(),
		SpentNullifiers: s.controller.SpentCount(),
		CurrentRoot:     s.controller.CurrentRoot(),
	}
}

func (s *PoolService) CurrentRoot() common.Hash              { return s.controller.CurrentRoot() }
func (s *PoolService) IsKnownRoot(root common.Hash) bool     { return s.controller.IsKnownRoot(root) }
func (s *PoolService) IsSpent(nullifier common.Hash) bool    { return s.controller.IsSpent(nullifier) }
func (s *PoolService) IsShielded(assetID common.Hash) bool   { return s.controller.IsShielded(assetID) }
func (s *PoolService) NonceOf(signer common.Address) uint64  { return s.controller.NonceOf(signer) }

func (s *PoolService) NextMintAssetID(metadataTag common.Hash) common.Hash {
	return s.controller.NextMintAssetID(metadataTag)
}

func (s *PoolService) ProofPath(leafIndex uint64) ([]common.Hash, error) {
	return s.controller.Tree().ProofPath(leafIndex)
}

func (s *PoolService) RelayerBalance(ctx context.Context, relayer common.Address) (*big.Int, error) {
	if s.fees != nil {
		return s.fees.BalanceOf(relayer), nil
	}
	record, err := s.relays.GetRelayerBalance(ctx, relayer.Hex())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, err
	}
	balance, ok := new(big.Int).SetString(record.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance record for %s", relayer.Hex())
	}
	return balance, nil
}

// ListCommitments returns paginated tree leaves.
func (s *PoolService) ListCommitments(ctx context.Context, page, pageSize int) ([]*models.CommitmentRecord, int64, error) {
	return s.commitments.List(ctx, page, pageSize)
}

// ListRoots returns paginated historical roots.
func (s *PoolService) ListRoots(ctx context.Context, page, pageSize int) ([]*models.RootRecord, int64, error) {
	return s.roots.List(ctx, page, pageSize)
}

// ListRelayedOperations returns the relay audit log of one signer.
func (s *PoolService) ListRelayedOperations(ctx context.Context, signer common.Address, page, pageSize int) ([]*models.RelayedOperation, int64, error) {
	return s.relays.ListOperationsBySigner(ctx, signer.Hex(), page, pageSize)
}

// ============ Persistence ============

// lastInsertLocked reports the position of the insert that just happened.
// Caller holds s.mu, so no other insert can interleave.
func (s *PoolService) lastInsertLocked() *interfaces.OperationResult {
	return &interfaces.OperationResult{
		LeafIndex: s.controller.NextLeafIndex() - 1,
		Root:      s.controller.CurrentRoot(),
	}
}

// Persistence failures are logged, not returned: the in-memory controller
// has already committed, and surfacing a journal error would make the caller
// retry an operation that succeeded.

func (s *PoolService) persistLeafLocked(ctx context.Context, commitment common.Hash, result *interfaces.OperationResult, operation string) {
	record := &models.CommitmentRecord{
		LeafIndex:      result.LeafIndex,
		CommitmentHash: commitment.Hex(),
		RootAfter:      result.Root.Hex(),
		Operation:      operation,
		CreatedAt:      time.Now(),
	}
	if err := s.commitments.Create(ctx, record); err != nil {
		s.log.WithError(err).WithField("leaf_index", result.LeafIndex).Error("failed to journal commitment")
	}

	rootRecord := &models.RootRecord{
		RootHash:  result.Root.Hex(),
		LeafCount: result.LeafIndex + 1,
		CreatedAt: time.Now(),
	}
	if err := s.roots.Create(ctx, rootRecord); err != nil {
		s.log.WithError(err).WithField("root", result.Root.Hex()).Error("failed to journal root")
	}

	events.PublishCommitmentInserted(&events.CommitmentInsertedEvent{
		Commitment: commitment.Hex(),
		LeafIndex:  result.LeafIndex,
		Root:       result.Root.Hex(),
		Operation:  operation,
		Timestamp:  time.Now(),
	})
	events.PublishRootUpdated(&events.RootUpdatedEvent{
		Root:      result.Root.Hex(),
		LeafCount: result.LeafIndex + 1,
		Timestamp: time.Now(),
	})
}

func (s *PoolService) persistNullifierLocked(ctx context.Context, nullifier common.Hash, operation string) {
	record := &models.NullifierRecord{
		NullifierHash: nullifier.Hex(),
		Operation:     operation,
		CreatedAt:     time.Now(),
	}
	if err := s.nullifiers.Create(ctx, record); err != nil {
		s.log.WithError(err).WithField("nullifier", nullifier.Hex()).Error("failed to journal nullifier")
	}

	events.PublishNullifierSpent(&events.NullifierSpentEvent{
		Nullifier: nullifier.Hex(),
		Operation: operation,
		Timestamp: time.Now(),
	})
}

func (s *PoolService) persistAssetLocked(ctx context.Context, assetID common.Hash, state string, minted bool) {
	if err := s.assets.Upsert(ctx, assetID.Hex(), state, minted); err != nil {
		s.log.WithError(err).WithField("asset_id", assetID.Hex()).Error("failed to journal asset state")
	}
}

func (s *PoolService) persistRelayLocked(ctx context.Context, kind string, signer, relayer common.Address, nullifier common.Hash, fee *big.Int, nonce uint64) {
	feeStr := "0"
	if fee != nil {
		feeStr = fee.String()
	}

	op := &models.RelayedOperation{
		Kind:      kind,
		Signer:    signer.Hex(),
		Relayer:   relayer.Hex(),
		Nullifier: nullifier.Hex(),
		Fee:       feeStr,
		Nonce:     nonce,
		CreatedAt: time.Now(),
	}
	if err := s.relays.RecordOperation(ctx, op); err != nil {
		s.log.WithError(err).Error("failed to journal relayed operation")
	}

	if err := s.relays.SetNonce(ctx, signer.Hex(), s.controller.NonceOf(signer)); err != nil {
		s.log.WithError(err).WithField("signer", signer.Hex()).Error("failed to journal relay nonce")
	}

	if s.fees != nil {
		balance := s.fees.BalanceOf(relayer)
		if err := s.relays.SetRelayerBalance(ctx, relayer.Hex(), balance.String()); err != nil {
			s.log.WithError(err).WithField("relayer", relayer.Hex()).Error("failed to journal relayer balance")
		}
	}

	if fee != nil {
		feeFloat, _ := new(big.Float).SetInt(fee).Float64()
		metrics.RelayFeesPaid.Add(feeFloat)
	}

	events.PublishRelayExecuted(&events.RelayExecutedEvent{
		Kind:      kind,
		Signer:    signer.Hex(),
		Relayer:   relayer.Hex(),
		Nullifier: nullifier.Hex(),
		Fee:       feeStr,
		Nonce:     nonce,
		Timestamp: time.Now(),
	})
}

func (s *PoolService) publishAssetEvent(assetID common.Hash, state string) {
	events.PublishAssetState(&events.AssetStateEvent{
		AssetID:   assetID.Hex(),
		State:     state,
		Timestamp: time.Now(),
	}, state == models.AssetStateShielded)
}

func (s *PoolService) refreshGauges() {
	metrics.TreeLeafCount.Set(float64(s.controller.NextLeafIndex()))
	metrics.TreeRootCount.Set(float64(s.controller.RootCount()))
	metrics.SpentNullifiers.Set(float64(s.controller.SpentCount()))
	metrics.ShieldedAssets.Set(float64(s.controller.ShieldedCount()))
}
