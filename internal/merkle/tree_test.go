package merkle

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(i int) common.Hash {
	return common.HexToHash(fmt.Sprintf("0x%02x", i+1))
}

func TestInsertFourLeaves(t *testing.T) {
	tree, err := NewTree(DefaultDepth)
	require.NoError(t, err)

	roots := make([]common.Hash, 0, 4)
	for i := 0; i < 4; i++ {
		index, err := tree.Insert(leaf(i))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), index)
		roots = append(roots, tree.CurrentRoot())
	}

	assert.Equal(t, uint64(4), tree.NextLeafIndex())

	// four distinct post-insert roots, all still valid
	seen := make(map[common.Hash]struct{})
	for _, r := range roots {
		seen[r] = struct{}{}
		assert.True(t, tree.IsKnownRoot(r))
	}
	assert.Len(t, seen, 4)

	// initial empty root also stays valid forever
	assert.Equal(t, 5, tree.RootCount())
}

func TestDeterminism(t *testing.T) {
	a, err := NewTree(8)
	require.NoError(t, err)
	b, err := NewTree(8)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := a.Insert(leaf(i))
		require.NoError(t, err)
	}
	// same leaves, different call pattern
	for i := 0; i < 5; i++ {
		_, err := b.Insert(leaf(i))
		require.NoError(t, err)
	}
	for i := 5; i < 10; i++ {
		_, err := b.Insert(leaf(i))
		require.NoError(t, err)
	}

	assert.Equal(t, a.CurrentRoot(), b.CurrentRoot())
}

func TestTreeFull(t *testing.T) {
	tree, err := NewTree(2)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := tree.Insert(leaf(i))
		require.NoError(t, err)
	}

	rootBefore := tree.CurrentRoot()
	_, err = tree.Insert(leaf(4))
	require.ErrorIs(t, err, ErrTreeFull)

	// failed insert leaves no trace
	assert.Equal(t, uint64(4), tree.NextLeafIndex())
	assert.Equal(t, rootBefore, tree.CurrentRoot())
	assert.True(t, tree.IsFull())
}

func TestUnknownRootRejected(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	_, err = tree.Insert(leaf(0))
	require.NoError(t, err)

	assert.False(t, tree.IsKnownRoot(common.HexToHash("0xdeadbeef")))
}

func TestVerifyProof(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, err := tree.Insert(leaf(i))
		require.NoError(t, err)
	}
	root := tree.CurrentRoot()

	for i := uint64(0); i < 6; i++ {
		siblings, err := tree.ProofPath(i)
		require.NoError(t, err)
		assert.True(t, tree.VerifyProof(root, leaf(int(i)), siblings, i), "leaf %d", i)

		// wrong leaf fails
		assert.False(t, tree.VerifyProof(root, leaf(int(i)+40), siblings, i))
		// wrong index fails
		assert.False(t, tree.VerifyProof(root, leaf(int(i)), siblings, i+1))
	}
}

func TestVerifyProofAgainstHistoricalRoot(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	_, err = tree.Insert(leaf(0))
	require.NoError(t, err)
	oldRoot := tree.CurrentRoot()
	oldSiblings, err := tree.ProofPath(0)
	require.NoError(t, err)

	_, err = tree.Insert(leaf(1))
	require.NoError(t, err)

	// the stale proof still verifies against the historical root, and the
	// historical root is still accepted
	assert.True(t, tree.VerifyProof(oldRoot, leaf(0), oldSiblings, 0))
	assert.True(t, tree.IsKnownRoot(oldRoot))
}

func TestVerifyProofWrongLength(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)

	assert.False(t, tree.VerifyProof(tree.CurrentRoot(), leaf(0), make([]common.Hash, 3), 0))
}

func TestBadDepth(t *testing.T) {
	_, err := NewTree(0)
	require.Error(t, err)
	_, err = NewTree(40)
	require.Error(t, err)
}
