package utils

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHash(t *testing.T) {
	h, err := ParseHash("0x" + "ab" + "00000000000000000000000000000000000000000000000000000000000000"[:62])
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), h[0])

	// mixed case accepted
	_, err = ParseHash("0xAB00000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	// short input rejected, no silent left-padding
	_, err = ParseHash("0xab")
	require.Error(t, err)

	_, err = ParseHash("0xzz00000000000000000000000000000000000000000000000000000000000000")
	require.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x742d35cc6634c0532925a3b0f26750c66d78eb66")
	require.NoError(t, err)
	assert.Equal(t, byte(0x74), a[0])

	_, err = ParseAddress("0x742d")
	require.Error(t, err)
}

func TestParseBytes(t *testing.T) {
	b, err := ParseBytes("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	_, err = ParseBytes("")
	require.Error(t, err)
	_, err = ParseBytes("0x")
	require.Error(t, err)
}

func TestParseBigInt(t *testing.T) {
	v, err := ParseBigInt("1000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())

	_, err = ParseBigInt("-5")
	require.Error(t, err)
	_, err = ParseBigInt("0x10")
	require.Error(t, err)
}

func TestPublicKeyRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	encoded := EncodePublicKey(&key.PublicKey)
	decoded, err := ParsePublicKey(encoded)
	require.NoError(t, err)

	assert.Equal(t, 0, key.PublicKey.X.Cmp(decoded.X))
	assert.Equal(t, 0, key.PublicKey.Y.Cmp(decoded.Y))
}
