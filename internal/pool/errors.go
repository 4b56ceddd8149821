package pool

import (
	"errors"

	"shieldpool/internal/merkle"
	"shieldpool/internal/nullifier"
	"shieldpool/internal/relay"
)

// Named rejection conditions. Every failure surfaces as one of these (or an
// error wrapping one), never as a generic failure, so off-chain tooling can
// decide whether to regenerate a proof, refresh a root or bump a nonce.
var (
	// ErrEmptyProof rejects a zero-length proof before any oracle call.
	ErrEmptyProof = errors.New("pool: empty proof")

	// ErrInvalidProof means the verifier oracle rejected the proof for the
	// exact public inputs derived from the call arguments.
	ErrInvalidProof = errors.New("pool: invalid proof")

	// ErrUnknownRoot means the referenced root was never produced by the
	// commitment tree.
	ErrUnknownRoot = errors.New("pool: unknown root")

	// ErrNotOwner means the caller does not publicly own the asset.
	ErrNotOwner = errors.New("pool: caller is not the asset owner")

	// ErrAlreadyShielded means the asset is already in the pool.
	ErrAlreadyShielded = errors.New("pool: asset already shielded")

	// ErrNotShielded means the asset is not in the pool.
	ErrNotShielded = errors.New("pool: asset not shielded")

	// ErrFeeTooHigh means the intent fee exceeds the configured cap.
	ErrFeeTooHigh = errors.New("pool: fee exceeds configured maximum")

	// Re-exported component conditions so callers match one package.
	ErrTreeFull         = merkle.ErrTreeFull
	ErrAlreadySpent     = nullifier.ErrAlreadySpent
	ErrIntentExpired    = relay.ErrIntentExpired
	ErrNonceMismatch    = relay.ErrNonceMismatch
	ErrInvalidSignature = relay.ErrInvalidSignature
)
