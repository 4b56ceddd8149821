// Package relay verifies signed, off-chain-authorized operation intents so a
// third party can submit them without being the authorizing caller. Digests
// are domain-separated in the EIP-712 style and every signer carries a single
// strictly-increasing nonce shared across all intent kinds.
package relay

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrIntentExpired is returned when the current time is past the
	// intent's deadline. The caller must obtain a freshly signed intent.
	ErrIntentExpired = errors.New("relay: intent expired")

	// ErrNonceMismatch is returned when the intent nonce does not match
	// the signer's current counter.
	ErrNonceMismatch = errors.New("relay: nonce mismatch")

	// ErrInvalidSignature is returned for an empty or unrecoverable
	// signature.
	ErrInvalidSignature = errors.New("relay: invalid signature")
)

// Domain pins digests to one pool deployment. Two verifiers with different
// domains never accept each other's signatures.
type Domain struct {
	Name    string
	Version string
	ChainID uint64
	PoolID  common.Hash
}

// Verifier recovers intent signers and tracks per-signer nonces.
type Verifier struct {
	mu        sync.RWMutex
	domainSep common.Hash
	nonces    map[common.Address]uint64

	// now is swapped out in tests to pin the clock
	now func() time.Time
}

// NewVerifier creates a verifier bound to the given domain.
func NewVerifier(domain Domain) *Verifier {
	sep := crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(domain.Name)).Bytes(),
		crypto.Keccak256Hash([]byte(domain.Version)).Bytes(),
		uint64Word(domain.ChainID).Bytes(),
		domain.PoolID.Bytes(),
	)

	return &Verifier{
		domainSep: sep,
		nonces:    make(map[common.Address]uint64),
		now:       time.Now,
	}
}

// digest computes the final signing hash: keccak(0x19 0x01 || domain || struct).
func (v *Verifier) digest(structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		v.domainSep.Bytes(),
		structHash.Bytes(),
	)
}

// recover checks the deadline, recovers the signer from the signature and
// validates the signer's nonce. No state is mutated.
func (v *Verifier) recover(structHash common.Hash, deadline time.Time, nonce uint64, sig []byte) (common.Address, error) {
	if v.now().After(deadline) {
		return common.Address{}, ErrIntentExpired
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}

	// accept both 0/1 and 27/28 recovery ids
	recSig := make([]byte, crypto.SignatureLength)
	copy(recSig, sig)
	if recSig[64] >= 27 {
		recSig[64] -= 27
	}

	pub, err := crypto.SigToPub(v.digest(structHash).Bytes(), recSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	signer := crypto.PubkeyToAddress(*pub)

	v.mu.RLock()
	current := v.nonces[signer]
	v.mu.RUnlock()
	if nonce != current {
		return common.Address{}, ErrNonceMismatch
	}

	return signer, nil
}

// VerifyTransferIntent validates a signed transfer intent and returns the
// recovered signer. The nonce is NOT consumed; call ConsumeNonce once the
// operation has been accepted.
func (v *Verifier) VerifyTransferIntent(in *TransferIntent, sig []byte) (common.Address, error) {
	return v.recover(in.structHash(), in.Deadline, in.Nonce, sig)
}

// VerifyUnshieldIntent validates a signed unshield intent and returns the
// recovered signer.
func (v *Verifier) VerifyUnshieldIntent(in *UnshieldIntent, sig []byte) (common.Address, error) {
	return v.recover(in.structHash(), in.Deadline, in.Nonce, sig)
}

// ConsumeNonce increments the signer's counter. Called exactly once per
// accepted intent, after all checks have passed.
func (v *Verifier) ConsumeNonce(signer common.Address) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nonces[signer]++
}

// NonceOf returns the signer's current nonce.
func (v *Verifier) NonceOf(signer common.Address) uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.nonces[signer]
}

// RestoreNonce seeds a signer's counter from persisted state at startup.
func (v *Verifier) RestoreNonce(signer common.Address, nonce uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nonces[signer] = nonce
}

// SignTransferIntent signs a transfer intent digest with the given key.
// Used by wallets, relayer tooling and tests.
func (v *Verifier) SignTransferIntent(in *TransferIntent, priv *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(v.digest(in.structHash()).Bytes(), priv)
}

// SignUnshieldIntent signs an unshield intent digest with the given key.
func (v *Verifier) SignUnshieldIntent(in *UnshieldIntent, priv *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(v.digest(in.structHash()).Bytes(), priv)
}
