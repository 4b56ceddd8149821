// Package merkle implements the incremental commitment accumulator: a
// fixed-depth append-only Merkle tree with cached filled subtrees and a
// permanent root history, so proofs generated against a slightly stale tree
// state remain valid.
package merkle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"shieldpool/internal/fieldhash"
)

// DefaultDepth is the production tree depth (capacity 2^20 leaves).
const DefaultDepth = 20

// ErrTreeFull is returned when the tree has reached its 2^depth capacity.
// This is permanently fatal for new inserts and must surface to operators.
var ErrTreeFull = errors.New("merkle: tree is full")

// Tree is an incremental append-only Merkle tree over field elements.
type Tree struct {
	mu sync.RWMutex

	depth          int
	capacity       uint64
	zeros          []common.Hash // zeros[i] = root of an empty subtree of height i
	filledSubtrees []common.Hash
	leaves         []common.Hash
	nextLeafIndex  uint64

	currentRoot common.Hash
	rootHistory map[common.Hash]struct{}
	rootOrder   []common.Hash
}

// NewTree creates an empty tree of the given depth and seeds the initial
// all-zero root into the history.
func NewTree(depth int) (*Tree, error) {
	if depth < 1 || depth > 32 {
		return nil, fmt.Errorf("merkle: unsupported depth %d", depth)
	}

	t := &Tree{
		depth:       depth,
		capacity:    uint64(1) << uint(depth),
		zeros:       make([]common.Hash, depth+1),
		rootHistory: make(map[common.Hash]struct{}),
	}

	// zeros[0] is the empty leaf; each level above hashes the level below
	// with itself.
	t.zeros[0] = common.Hash{}
	for i := 1; i <= depth; i++ {
		t.zeros[i] = fieldhash.CombineNodes(t.zeros[i-1], t.zeros[i-1])
	}

	t.filledSubtrees = make([]common.Hash, depth)
	copy(t.filledSubtrees, t.zeros[:depth])

	t.currentRoot = t.zeros[depth]
	t.rootHistory[t.currentRoot] = struct{}{}
	t.rootOrder = append(t.rootOrder, t.currentRoot)

	return t, nil
}

// Insert appends a leaf and returns its index. The new root is recorded in
// the history. Fails with ErrTreeFull at capacity; no state changes on error.
func (t *Tree) Insert(leaf common.Hash) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextLeafIndex >= t.capacity {
		return 0, ErrTreeFull
	}

	index := t.nextLeafIndex
	idx := index
	node := fieldhash.Reduce(leaf)
	t.leaves = append(t.leaves, node)

	for level := 0; level < t.depth; level++ {
		if idx%2 == 0 {
			// left child: cache it so the right sibling can complete
			// this subtree later, pair with the empty subtree for now
			t.filledSubtrees[level] = node
			node = fieldhash.CombineNodes(node, t.zeros[level])
		} else {
			node = fieldhash.CombineNodes(t.filledSubtrees[level], node)
		}
		idx /= 2
	}

	t.currentRoot = node
	if _, seen := t.rootHistory[node]; !seen {
		t.rootHistory[node] = struct{}{}
		t.rootOrder = append(t.rootOrder, node)
	}
	t.nextLeafIndex++

	return index, nil
}

// VerifyProof recomputes the root from a leaf and its sibling path and
// compares it to the supplied root. Pure; does not consult the history.
func (t *Tree) VerifyProof(root, leaf common.Hash, siblings []common.Hash, leafIndex uint64) bool {
	if len(siblings) != t.depth {
		return false
	}

	node := fieldhash.Reduce(leaf)
	idx := leafIndex
	for level := 0; level < t.depth; level++ {
		if idx%2 == 0 {
			node = fieldhash.CombineNodes(node, siblings[level])
		} else {
			node = fieldhash.CombineNodes(siblings[level], node)
		}
		idx /= 2
	}

	return node == root
}

// IsKnownRoot reports whether the root was ever produced by this tree.
// Roots never expire.
func (t *Tree) IsKnownRoot(root common.Hash) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.rootHistory[root]
	return ok
}

// CurrentRoot returns the latest root.
func (t *Tree) CurrentRoot() common.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.currentRoot
}

// NextLeafIndex returns the index the next insert will occupy.
func (t *Tree) NextLeafIndex() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.nextLeafIndex
}

// LeafCount returns the number of inserted leaves.
func (t *Tree) LeafCount() uint64 {
	return t.NextLeafIndex()
}

// RootCount returns the number of distinct historical roots, including the
// initial empty root.
func (t *Tree) RootCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rootOrder)
}

// Depth returns the fixed tree depth.
func (t *Tree) Depth() int {
	return t.depth
}

// IsFull reports whether the next insert would fail with ErrTreeFull.
func (t *Tree) IsFull() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.nextLeafIndex >= t.capacity
}

// ProofPath rebuilds the sibling path for a leaf from the recorded leaves.
// It exists for wallets and tests that need a fresh membership path; the
// insert path itself never calls it.
func (t *Tree) ProofPath(leafIndex uint64) ([]common.Hash, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if leafIndex >= t.nextLeafIndex {
		return nil, fmt.Errorf("merkle: leaf index %d out of range", leafIndex)
	}

	// current level starts as the padded leaf layer
	level := make([]common.Hash, len(t.leaves))
	copy(level, t.leaves)

	siblings := make([]common.Hash, t.depth)
	idx := leafIndex
	for h := 0; h < t.depth; h++ {
		sibIdx := idx ^ 1
		if sibIdx < uint64(len(level)) {
			siblings[h] = level[sibIdx]
		} else {
			siblings[h] = t.zeros[h]
		}

		next := make([]common.Hash, (len(level)+1)/2)
		for i := 0; i < len(next); i++ {
			left := level[2*i]
			right := t.zeros[h]
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = fieldhash.CombineNodes(left, right)
		}
		level = next
		idx /= 2
	}

	return siblings, nil
}
