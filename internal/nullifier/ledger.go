// Package nullifier tracks consumed note tags. The ledger is a one-way
// ratchet: once a nullifier is marked it can never be cleared, which is the
// double-spend guarantee of the pool.
package nullifier

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrAlreadySpent is returned when a nullifier is marked a second time.
var ErrAlreadySpent = errors.New("nullifier: already spent")

// Ledger is the set of consumed nullifiers.
type Ledger struct {
	mu   sync.RWMutex
	used map[common.Hash]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{used: make(map[common.Hash]struct{})}
}

// IsUsed reports whether the nullifier has been consumed.
func (l *Ledger) IsUsed(n common.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.used[n]
	return ok
}

// MarkUsed records the nullifier. Fails with ErrAlreadySpent if it was
// already recorded; the ledger is never cleared.
func (l *Ledger) MarkUsed(n common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.used[n]; ok {
		return ErrAlreadySpent
	}
	l.used[n] = struct{}{}
	return nil
}

// Count returns the number of consumed nullifiers.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.used)
}

// Restore marks a nullifier without the duplicate check. It exists only for
// rebuilding in-memory state from persisted records at startup.
func (l *Ledger) Restore(n common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.used[n] = struct{}{}
}
