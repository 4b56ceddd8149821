// Package pool orchestrates the commitment tree, nullifier ledger, stealth
// relay verification and the external collaborators into the four shielded
// operations. All mutating operations are serialized under one lock and are
// all-or-nothing: a rejected call leaves no partial tree insert, no partial
// nullifier mark and no consumed nonce.
package pool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/fieldhash"
	"shieldpool/internal/merkle"
	"shieldpool/internal/nullifier"
	"shieldpool/internal/relay"
)

// ErrRelayerMismatch is returned when the submitting relayer is not the one
// the intent was signed for.
var ErrRelayerMismatch = errors.New("pool: relayer does not match intent")

// AssetState is the per-asset position in the shield cycle.
type AssetState uint8

const (
	// AssetPublic means ordinary, visible ownership.
	AssetPublic AssetState = iota
	// AssetShielded means ownership is represented only by commitments.
	AssetShielded
)

// Config wires a controller.
type Config struct {
	TreeDepth int
	Domain    relay.Domain

	Verifier ProofVerifier
	Registry AssetRegistry
	Fees     FeeTransport

	// MaxFee caps the fee a relayed intent may charge. Nil means no cap.
	MaxFee *big.Int

	Logger *logrus.Logger
}

// Controller is the privacy pool state machine.
type Controller struct {
	mu sync.RWMutex

	tree    *merkle.Tree
	spent   *nullifier.Ledger
	intents *relay.Verifier

	verifier ProofVerifier
	registry AssetRegistry
	fees     FeeTransport
	maxFee   *big.Int

	assets  map[common.Hash]AssetState
	mintSeq uint64

	log *logrus.Entry
}

// NewController builds a controller with an empty tree and ledger.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("pool: proof verifier is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("pool: asset registry is required")
	}
	if cfg.Fees == nil {
		return nil, fmt.Errorf("pool: fee transport is required")
	}

	depth := cfg.TreeDepth
	if depth == 0 {
		depth = merkle.DefaultDepth
	}
	tree, err := merkle.NewTree(depth)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Controller{
		tree:     tree,
		spent:    nullifier.NewLedger(),
		intents:  relay.NewVerifier(cfg.Domain),
		verifier: cfg.Verifier,
		registry: cfg.Registry,
		fees:     cfg.Fees,
		maxFee:   cfg.MaxFee,
		assets:   make(map[common.Hash]AssetState),
		log:      logger.WithField("component", "pool"),
	}, nil
}

// ============ Shield / Mint ============

// Shield escrows a publicly owned asset and inserts its commitment. The
// asset becomes Shielded.
func (c *Controller) Shield(caller common.Address, assetID, commitment common.Hash, proof []byte) error {
	if len(proof) == 0 {
		return ErrEmptyProof
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.assets[assetID] == AssetShielded {
		return ErrAlreadyShielded
	}
	if c.tree.IsFull() {
		return ErrTreeFull
	}

	owner, err := c.registry.OwnerOf(assetID)
	if err != nil {
		return fmt.Errorf("pool: owner lookup: %w", err)
	}
	if owner != caller {
		return ErrNotOwner
	}

	ok, err := c.verifier.Verify(ProofDeposit, proof, []common.Hash{commitment, assetID})
	if err != nil {
		return fmt.Errorf("pool: verifier oracle: %w", err)
	}
	if !ok {
		return ErrInvalidProof
	}

	if err := c.registry.Escrow(assetID, caller); err != nil {
		return fmt.Errorf("pool: escrow: %w", err)
	}

	// capacity was checked above, the insert cannot fail now
	index, err := c.tree.Insert(commitment)
	if err != nil {
		return err
	}
	c.assets[assetID] = AssetShielded

	c.log.WithFields(logrus.Fields{
		"asset_id":   assetID.Hex(),
		"commitment": commitment.Hex(),
		"leaf_index": index,
		"root":       c.tree.CurrentRoot().Hex(),
	}).Info("asset shielded")

	return nil
}

// NextMintAssetID returns the asset id the next MintShielded call will
// allocate for the given metadata tag, so a deposit proof can be generated
// against it in advance.
func (c *Controller) NextMintAssetID(metadataTag common.Hash) common.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.mintAssetID(metadataTag, c.mintSeq)
}

func (c *Controller) mintAssetID(metadataTag common.Hash, seq uint64) common.Hash {
	var seqWord common.Hash
	seqWord[31] = byte(seq)
	seqWord[30] = byte(seq >> 8)
	seqWord[29] = byte(seq >> 16)
	seqWord[28] = byte(seq >> 24)
	seqWord[27] = byte(seq >> 32)
	seqWord[26] = byte(seq >> 40)
	seqWord[25] = byte(seq >> 48)
	seqWord[24] = byte(seq >> 56)
	return fieldhash.Hash(metadataTag, seqWord)
}

// MintShielded allocates a fresh asset id directly into the Shielded state
// and inserts its commitment. The proof contract matches Shield.
func (c *Controller) MintShielded(commitment common.Hash, proof []byte, metadataTag common.Hash) (common.Hash, error) {
	if len(proof) == 0 {
		return common.Hash{}, ErrEmptyProof
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tree.IsFull() {
		return common.Hash{}, ErrTreeFull
	}

	assetID := c.mintAssetID(metadataTag, c.mintSeq)

	ok, err := c.verifier.Verify(ProofDeposit, proof, []common.Hash{commitment, assetID})
	if err != nil {
		return common.Hash{}, fmt.Errorf("pool: verifier oracle: %w", err)
	}
	if !ok {
		return common.Hash{}, ErrInvalidProof
	}

	if err := c.registry.Mint(assetID, common.Address{}); err != nil {
		return common.Hash{}, fmt.Errorf("pool: mint: %w", err)
	}

	index, err := c.tree.Insert(commitment)
	if err != nil {
		return common.Hash{}, err
	}
	c.assets[assetID] = AssetShielded
	c.mintSeq++

	c.log.WithFields(logrus.Fields{
		"asset_id":   assetID.Hex(),
		"commitment": commitment.Hex(),
		"leaf_index": index,
	}).Info("asset minted shielded")

	return assetID, nil
}

// ============ Private transfer ============

// transferLocked runs the shared spend-and-replace core. Caller holds c.mu.
func (c *Controller) transferLocked(nf, newCommitment, root common.Hash, proof []byte) error {
	if len(proof) == 0 {
		return ErrEmptyProof
	}
	if c.spent.IsUsed(nf) {
		return ErrAlreadySpent
	}
	if !c.tree.IsKnownRoot(root) {
		return ErrUnknownRoot
	}
	if c.tree.IsFull() {
		return ErrTreeFull
	}

	ok, err := c.verifier.Verify(ProofTransfer, proof, []common.Hash{root, nf, newCommitment})
	if err != nil {
		return fmt.Errorf("pool: verifier oracle: %w", err)
	}
	if !ok {
		return ErrInvalidProof
	}

	return nil
}

func (c *Controller) commitTransferLocked(nf, newCommitment common.Hash) (uint64, error) {
	if err := c.spent.MarkUsed(nf); err != nil {
		return 0, err
	}
	return c.tree.Insert(newCommitment)
}

// TransferPrivate spends a note and inserts its replacement commitment.
func (c *Controller) TransferPrivate(nf, newCommitment, root common.Hash, proof []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transferLocked(nf, newCommitment, root, proof); err != nil {
		return err
	}
	index, err := c.commitTransferLocked(nf, newCommitment)
	if err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"nullifier":  nf.Hex(),
		"commitment": newCommitment.Hex(),
		"leaf_index": index,
	}).Info("private transfer")

	return nil
}

// TransferPrivateViaRelay runs TransferPrivate on behalf of the intent
// signer. The fee is paid after validation but before any state mutation,
// so a failed payment rejects the operation whole; the nonce is consumed
// only on success.
func (c *Controller) TransferPrivateViaRelay(in *relay.TransferIntent, sig []byte, relayer common.Address, proof []byte) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if relayer != in.Relayer {
		return common.Address{}, ErrRelayerMismatch
	}
	if err := c.checkFeeLocked(in.Fee); err != nil {
		return common.Address{}, err
	}

	signer, err := c.intents.VerifyTransferIntent(in, sig)
	if err != nil {
		return common.Address{}, err
	}

	if err := c.transferLocked(in.Nullifier, in.NewCommitment, in.Root, proof); err != nil {
		return common.Address{}, err
	}

	if err := c.fees.PayFee(relayer, in.Fee); err != nil {
		return common.Address{}, fmt.Errorf("pool: fee payment: %w", err)
	}

	if _, err := c.commitTransferLocked(in.Nullifier, in.NewCommitment); err != nil {
		return common.Address{}, err
	}
	c.intents.ConsumeNonce(signer)

	c.log.WithFields(logrus.Fields{
		"signer":  signer.Hex(),
		"relayer": relayer.Hex(),
		"fee":     in.Fee,
	}).Info("relayed private transfer")

	return signer, nil
}

// checkFeeLocked rejects intent fees above the configured cap. A nil cap
// disables the check. Caller holds c.mu.
func (c *Controller) checkFeeLocked(fee *big.Int) error {
	if c.maxFee == nil || fee == nil {
		return nil
	}
	if fee.Cmp(c.maxFee) > 0 {
		return ErrFeeTooHigh
	}
	return nil
}

// ============ Unshield ============

// validateUnshieldLocked runs all unshield preconditions and the oracle
// call without mutating anything. Caller holds c.mu.
func (c *Controller) validateUnshieldLocked(nf, assetID common.Hash, recipient common.Address, root common.Hash, proof []byte) error {
	if len(proof) == 0 {
		return ErrEmptyProof
	}
	if c.spent.IsUsed(nf) {
		return ErrAlreadySpent
	}
	if !c.tree.IsKnownRoot(root) {
		return ErrUnknownRoot
	}
	if c.assets[assetID] != AssetShielded {
		return ErrNotShielded
	}
	// Probe the registry row now so Release cannot be the first thing to
	// fail after the relayed path has already paid the fee.
	if _, err := c.registry.OwnerOf(assetID); err != nil {
		return fmt.Errorf("pool: owner lookup: %w", err)
	}

	inputs := []common.Hash{root, nf, assetID, addressField(recipient)}
	ok, err := c.verifier.Verify(ProofWithdraw, proof, inputs)
	if err != nil {
		return fmt.Errorf("pool: verifier oracle: %w", err)
	}
	if !ok {
		return ErrInvalidProof
	}

	return nil
}

func (c *Controller) commitUnshieldLocked(nf, assetID common.Hash, recipient common.Address) error {
	if err := c.registry.Release(assetID, recipient); err != nil {
		return fmt.Errorf("pool: release: %w", err)
	}

	if err := c.spent.MarkUsed(nf); err != nil {
		return err
	}
	c.assets[assetID] = AssetPublic

	c.log.WithFields(logrus.Fields{
		"asset_id":  assetID.Hex(),
		"recipient": recipient.Hex(),
		"nullifier": nf.Hex(),
	}).Info("asset unshielded")

	return nil
}

// Unshield spends a note and releases the asset to a public recipient.
func (c *Controller) Unshield(nf, assetID common.Hash, recipient common.Address, root common.Hash, proof []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validateUnshieldLocked(nf, assetID, recipient, root, proof); err != nil {
		return err
	}
	return c.commitUnshieldLocked(nf, assetID, recipient)
}

// UnshieldViaRelay runs Unshield on behalf of the intent signer. Ordering
// matches the relayed transfer: validate everything, pay the fee, then
// commit and consume the nonce.
func (c *Controller) UnshieldViaRelay(in *relay.UnshieldIntent, sig []byte, relayer common.Address, proof []byte) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if relayer != in.Relayer {
		return common.Address{}, ErrRelayerMismatch
	}
	if err := c.checkFeeLocked(in.Fee); err != nil {
		return common.Address{}, err
	}

	signer, err := c.intents.VerifyUnshieldIntent(in, sig)
	if err != nil {
		return common.Address{}, err
	}

	if err := c.validateUnshieldLocked(in.Nullifier, in.AssetID, in.Recipient, in.Root, proof); err != nil {
		return common.Address{}, err
	}

	if err := c.fees.PayFee(relayer, in.Fee); err != nil {
		return common.Address{}, fmt.Errorf("pool: fee payment: %w", err)
	}

	if err := c.commitUnshieldLocked(in.Nullifier, in.AssetID, in.Recipient); err != nil {
		return common.Address{}, err
	}
	c.intents.ConsumeNonce(signer)

	c.log.WithFields(logrus.Fields{
		"signer":  signer.Hex(),
		"relayer": relayer.Hex(),
	}).Info("relayed unshield")

	return signer, nil
}

// ============ State restore ============

// RestoreCommitment replays a persisted leaf insert at startup. The caller
// replays leaves in their original order.
func (c *Controller) RestoreCommitment(commitment common.Hash) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tree.Insert(commitment)
}

// RestoreNullifier replays a consumed nullifier at startup.
func (c *Controller) RestoreNullifier(nf common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spent.Restore(nf)
}

// RestoreAssetState replays a persisted asset shield state at startup.
func (c *Controller) RestoreAssetState(assetID common.Hash, state AssetState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.assets[assetID] = state
}

// RestoreMintSequence sets the mint counter after replaying minted assets.
func (c *Controller) RestoreMintSequence(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mintSeq = seq
}

// ============ Read-only surface ============

// CurrentRoot returns the latest tree root.
func (c *Controller) CurrentRoot() common.Hash { return c.tree.CurrentRoot() }

// NextLeafIndex returns the index of the next tree insert.
func (c *Controller) NextLeafIndex() uint64 { return c.tree.NextLeafIndex() }

// IsKnownRoot reports whether the root was ever produced by the tree.
func (c *Controller) IsKnownRoot(root common.Hash) bool { return c.tree.IsKnownRoot(root) }

// IsSpent reports whether a nullifier has been consumed.
func (c *Controller) IsSpent(nf common.Hash) bool { return c.spent.IsUsed(nf) }

// NonceOf returns the relay nonce of a signer.
func (c *Controller) NonceOf(signer common.Address) uint64 { return c.intents.NonceOf(signer) }

// IsShielded reports whether the asset is currently in the pool.
func (c *Controller) IsShielded(assetID common.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.assets[assetID] == AssetShielded
}

// ShieldedCount returns the number of assets currently in the pool.
func (c *Controller) ShieldedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, state := range c.assets {
		if state == AssetShielded {
			count++
		}
	}
	return count
}

// SpentCount returns the number of consumed nullifiers.
func (c *Controller) SpentCount() int { return c.spent.Count() }

// RootCount returns the number of distinct historical roots.
func (c *Controller) RootCount() int { return c.tree.RootCount() }

// Intents exposes the relay verifier for intent signing helpers.
func (c *Controller) Intents() *relay.Verifier { return c.intents }

// Tree exposes the commitment tree for proof-path queries.
func (c *Controller) Tree() *merkle.Tree { return c.tree }

// addressField left-pads an address into a 32-byte public input.
func addressField(a common.Address) common.Hash {
	var h common.Hash
	copy(h[12:], a.Bytes())
	return h
}
