package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ProofKind selects the circuit a proof was generated for. The public-input
// ordering per kind is part of the verification contract:
//
//	deposit  = (commitment, assetId)
//	transfer = (root, nullifier, newCommitment)
//	withdraw = (root, nullifier, assetId, recipient)
type ProofKind string

const (
	ProofDeposit  ProofKind = "deposit"
	ProofTransfer ProofKind = "transfer"
	ProofWithdraw ProofKind = "withdraw"
)

// ProofVerifier is the opaque succinct-proof oracle. The pool never reasons
// about circuit internals; it only supplies the proof bytes and the exact
// public inputs and acts on the boolean answer. The call is fallible and is
// never retried here.
type ProofVerifier interface {
	Verify(kind ProofKind, proof []byte, publicInputs []common.Hash) (bool, error)
}

// AssetRegistry is the underlying asset-ownership collaborator. The pool
// only needs escrow-style hooks; mint/transfer/query beyond these stay
// outside the engine.
type AssetRegistry interface {
	OwnerOf(assetID common.Hash) (common.Address, error)
	Escrow(assetID common.Hash, from common.Address) error
	Release(assetID common.Hash, to common.Address) error
	Mint(assetID common.Hash, owner common.Address) error
}

// FeeTransport pays a relayer from pooled balance. Failure is reported to
// the caller, never retried internally.
type FeeTransport interface {
	PayFee(relayer common.Address, fee *big.Int) error
}
