package nullifier

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkUsedOnce(t *testing.T) {
	l := NewLedger()
	n := common.HexToHash("0xaa")

	assert.False(t, l.IsUsed(n))
	require.NoError(t, l.MarkUsed(n))
	assert.True(t, l.IsUsed(n))

	err := l.MarkUsed(n)
	require.ErrorIs(t, err, ErrAlreadySpent)

	// still marked, count unchanged
	assert.True(t, l.IsUsed(n))
	assert.Equal(t, 1, l.Count())
}

func TestIndependentNullifiers(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.MarkUsed(common.HexToHash("0x01")))
	require.NoError(t, l.MarkUsed(common.HexToHash("0x02")))

	assert.Equal(t, 2, l.Count())
	assert.False(t, l.IsUsed(common.HexToHash("0x03")))
}

func TestRestore(t *testing.T) {
	l := NewLedger()
	n := common.HexToHash("0xbb")

	l.Restore(n)
	assert.True(t, l.IsUsed(n))
	require.ErrorIs(t, l.MarkUsed(n), ErrAlreadySpent)
}
