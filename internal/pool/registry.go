package pool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownAsset is returned when a registry lookup misses.
var ErrUnknownAsset = errors.New("pool: unknown asset")

// ErrInsufficientPoolBalance is returned when a relayer fee exceeds the
// pooled balance.
var ErrInsufficientPoolBalance = errors.New("pool: insufficient pooled balance")

// MemoryRegistry is an in-process AssetRegistry for tests and standalone
// deployments that do not front an external ownership contract.
type MemoryRegistry struct {
	mu       sync.RWMutex
	owners   map[common.Hash]common.Address
	escrowed map[common.Hash]common.Address // escrowed asset -> original owner
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		owners:   make(map[common.Hash]common.Address),
		escrowed: make(map[common.Hash]common.Address),
	}
}

// OwnerOf returns the public owner of an asset.
func (r *MemoryRegistry) OwnerOf(assetID common.Hash) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[assetID]
	if !ok {
		return common.Address{}, ErrUnknownAsset
	}
	return owner, nil
}

// Mint registers a fresh asset under the given owner.
func (r *MemoryRegistry) Mint(assetID common.Hash, owner common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[assetID]; ok {
		return fmt.Errorf("pool: asset %s already minted", assetID.Hex())
	}
	r.owners[assetID] = owner
	return nil
}

// Escrow takes custody of an asset from its current owner.
func (r *MemoryRegistry) Escrow(assetID common.Hash, from common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[assetID]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != from {
		return ErrNotOwner
	}
	r.escrowed[assetID] = from
	r.owners[assetID] = common.Address{}
	return nil
}

// Release hands an asset to a recipient and clears its escrow entry.
func (r *MemoryRegistry) Release(assetID common.Hash, to common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[assetID]; !ok {
		return ErrUnknownAsset
	}
	delete(r.escrowed, assetID)
	r.owners[assetID] = to
	return nil
}

// MemoryFeeLedger is an in-process FeeTransport: a pooled balance that
// relayer fees are paid out of, with per-relayer accrual.
type MemoryFeeLedger struct {
	mu       sync.RWMutex
	pooled   *big.Int
	relayers map[common.Address]*big.Int
}

// NewMemoryFeeLedger creates a ledger seeded with the given pooled balance.
func NewMemoryFeeLedger(pooled *big.Int) *MemoryFeeLedger {
	if pooled == nil {
		pooled = new(big.Int)
	}
	return &MemoryFeeLedger{
		pooled:   new(big.Int).Set(pooled),
		relayers: make(map[common.Address]*big.Int),
	}
}

// Deposit adds to the pooled balance.
func (f *MemoryFeeLedger) Deposit(amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pooled.Add(f.pooled, amount)
}

// PayFee moves the fee from the pooled balance to the relayer's accrual.
// A zero fee is a no-op; an overdraft is reported, never retried.
func (f *MemoryFeeLedger) PayFee(relayer common.Address, fee *big.Int) error {
	if fee == nil || fee.Sign() == 0 {
		return nil
	}
	if fee.Sign() < 0 {
		return fmt.Errorf("pool: negative fee")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pooled.Cmp(fee) < 0 {
		return ErrInsufficientPoolBalance
	}
	f.pooled.Sub(f.pooled, fee)

	acc, ok := f.relayers[relayer]
	if !ok {
		acc = new(big.Int)
		f.relayers[relayer] = acc
	}
	acc.Add(acc, fee)
	return nil
}

// BalanceOf returns a relayer's accrued fees.
func (f *MemoryFeeLedger) BalanceOf(relayer common.Address) *big.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if acc, ok := f.relayers[relayer]; ok {
		return new(big.Int).Set(acc)
	}
	return new(big.Int)
}

// PooledBalance returns the remaining pooled balance.
func (f *MemoryFeeLedger) PooledBalance() *big.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return new(big.Int).Set(f.pooled)
}
