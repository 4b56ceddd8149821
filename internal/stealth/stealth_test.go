package stealth

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStealthRoundTrip(t *testing.T) {
	viewKey, err := GenerateViewKeyPair()
	require.NoError(t, err)
	eph, err := GenerateEphemeralKey()
	require.NoError(t, err)

	stealthPub, ephemeralPub, err := GenerateStealthAddress(&viewKey.PublicKey, eph)
	require.NoError(t, err)

	// the intended recipient recognizes the address
	assert.True(t, CheckOwnership(viewKey, ephemeralPub, stealthPub))

	// and can derive the matching spending scalar
	stealthPriv, err := DeriveStealthPrivateKey(viewKey, ephemeralPub)
	require.NoError(t, err)
	assert.Equal(t, 0, stealthPriv.PublicKey.X.Cmp(stealthPub.X))
	assert.Equal(t, 0, stealthPriv.PublicKey.Y.Cmp(stealthPub.Y))
}

func TestWrongViewKeyRejected(t *testing.T) {
	viewKey, err := GenerateViewKeyPair()
	require.NoError(t, err)
	otherKey, err := GenerateViewKeyPair()
	require.NoError(t, err)
	eph, err := GenerateEphemeralKey()
	require.NoError(t, err)

	stealthPub, ephemeralPub, err := GenerateStealthAddress(&viewKey.PublicKey, eph)
	require.NoError(t, err)

	assert.False(t, CheckOwnership(otherKey, ephemeralPub, stealthPub))
}

func TestSharedSecretSymmetry(t *testing.T) {
	viewKey, err := GenerateViewKeyPair()
	require.NoError(t, err)
	eph, err := GenerateEphemeralKey()
	require.NoError(t, err)

	// sender derives against the view pub, recipient against the
	// ephemeral pub; the secrets must agree
	senderSide, err := DeriveSharedSecret(eph.D, &viewKey.PublicKey)
	require.NoError(t, err)
	recipientSide, err := DeriveSharedSecret(viewKey.D, &eph.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, 0, senderSide.Cmp(recipientSide))
}

func TestZeroEphemeralKeyRejected(t *testing.T) {
	viewKey, err := GenerateViewKeyPair()
	require.NoError(t, err)

	zero := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: crypto.S256()},
		D:         new(big.Int),
	}

	_, _, err = GenerateStealthAddress(&viewKey.PublicKey, zero)
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)
}

func TestOffCurvePublicKeyRejected(t *testing.T) {
	eph, err := GenerateEphemeralKey()
	require.NoError(t, err)

	bogus := &ecdsa.PublicKey{
		Curve: crypto.S256(),
		X:     big.NewInt(1),
		Y:     big.NewInt(1),
	}

	_, err = DeriveSharedSecret(eph.D, bogus)
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)
}

func TestSharedSecretDependsOnKeys(t *testing.T) {
	viewKey, err := GenerateViewKeyPair()
	require.NoError(t, err)
	eph1, err := GenerateEphemeralKey()
	require.NoError(t, err)
	eph2, err := GenerateEphemeralKey()
	require.NoError(t, err)

	s1, err := DeriveSharedSecret(eph1.D, &viewKey.PublicKey)
	require.NoError(t, err)
	s2, err := DeriveSharedSecret(eph2.D, &viewKey.PublicKey)
	require.NoError(t, err)

	assert.NotEqual(t, 0, s1.Cmp(s2))
}

func TestOwnerKeyFieldStable(t *testing.T) {
	viewKey, err := GenerateViewKeyPair()
	require.NoError(t, err)

	a := OwnerKeyField(&viewKey.PublicKey)
	b := OwnerKeyField(&viewKey.PublicKey)
	assert.Equal(t, a, b)
}
