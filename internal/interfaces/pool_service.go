package interfaces

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"shieldpool/internal/relay"
)

// OperationResult carries the tree position of a successful state-changing
// operation.
type OperationResult struct {
	LeafIndex uint64      `json:"leaf_index"`
	Root      common.Hash `json:"root"`
}

// RelayResult additionally identifies the recovered intent signer.
type RelayResult struct {
	OperationResult
	Signer common.Address `json:"signer"`
}

// PoolStats is the read-only pool summary.
type PoolStats struct {
	TreeDepth       int         `json:"tree_depth"`
	LeafCount       uint64      `json:"leaf_count"`
	RootCount       int         `json:"root_count"`
	SpentNullifiers int         `json:"spent_nullifiers"`
	CurrentRoot     common.Hash `json:"current_root"`
}

// PoolServiceInterface defines the interface for the pool service.
// This interface is used to break circular dependencies between handlers and
// services packages.
type PoolServiceInterface interface {
	// State-changing operations
	Shield(ctx context.Context, caller common.Address, assetID, commitment common.Hash, proof []byte) (*OperationResult, error)
	MintShielded(ctx context.Context, commitment common.Hash, proof []byte, metadataTag common.Hash) (common.Hash, *OperationResult, error)
	TransferPrivate(ctx context.Context, nullifier, newCommitment, root common.Hash, proof []byte) (*OperationResult, error)
	TransferViaRelay(ctx context.Context, in *relay.TransferIntent, sig []byte, relayer common.Address, proof []byte) (*RelayResult, error)
	Unshield(ctx context.Context, nullifier, assetID common.Hash, recipient common.Address, root common.Hash, proof []byte) (*OperationResult, error)
	UnshieldViaRelay(ctx context.Context, in *relay.UnshieldIntent, sig []byte, relayer common.Address, proof []byte) (*RelayResult, error)

	// Queries
	Stats() *PoolStats
	CurrentRoot() common.Hash
	IsKnownRoot(root common.Hash) bool
	IsSpent(nullifier common.Hash) bool
	IsShielded(assetID common.Hash) bool
	NonceOf(signer common.Address) uint64
	NextMintAssetID(metadataTag common.Hash) common.Hash
	ProofPath(leafIndex uint64) ([]common.Hash, error)
	RelayerBalance(ctx context.Context, relayer common.Address) (*big.Int, error)
}
