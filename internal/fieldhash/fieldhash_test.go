package fieldhash

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := common.HexToHash("0x01")
	b := common.HexToHash("0x02")

	first := Hash(a, b)
	second := Hash(a, b)
	require.Equal(t, first, second)
}

func TestHashOrderSensitive(t *testing.T) {
	a := common.HexToHash("0x01")
	b := common.HexToHash("0x02")

	assert.NotEqual(t, Hash(a, b), Hash(b, a))
}

func TestHashDistinctInputs(t *testing.T) {
	a := common.HexToHash("0x01")
	b := common.HexToHash("0x02")
	c := common.HexToHash("0x03")

	assert.NotEqual(t, Hash(a, b), Hash(a, c))
}

func TestHashOutputInField(t *testing.T) {
	h := Hash(common.HexToHash("0xff"), common.HexToHash("0xee"))
	assert.Equal(t, h, Reduce(h), "hash output must already be reduced")
}

func TestCommitmentAndNullifierDiffer(t *testing.T) {
	secret := common.HexToHash("0x1111")
	assetID := common.HexToHash("0x2222")
	ownerKey := common.HexToHash("0x3333")

	cm := Commitment(secret, assetID, ownerKey)
	nf := Nullifier(secret, assetID, ownerKey)

	// same preimage, different domains
	assert.NotEqual(t, cm, nf)

	// both stable
	assert.Equal(t, cm, Commitment(secret, assetID, ownerKey))
	assert.Equal(t, nf, Nullifier(secret, assetID, ownerKey))
}

func TestReduceIdempotent(t *testing.T) {
	// a value above the modulus reduces, then stays fixed
	big := common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	once := Reduce(big)
	assert.NotEqual(t, big, once)
	assert.Equal(t, once, Reduce(once))
}
