// Package stealth implements the secp256k1 one-time destination scheme: a
// sender binds a new commitment to a recipient's long-lived view key, and the
// recipient can both detect the payment and derive the spending scalar
// without any interaction.
package stealth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidKeyMaterial is returned for a zero ephemeral scalar, a key off
// the curve, or a derivation that lands on the point at infinity. All of
// these would make the resulting note unspendable or ambiguous.
var ErrInvalidKeyMaterial = errors.New("stealth: invalid key material")

var (
	three = big.NewInt(3)
	seven = big.NewInt(7)
)

// GenerateViewKeyPair creates a long-lived recipient view key pair.
func GenerateViewKeyPair() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(crypto.S256(), rand.Reader)
}

// GenerateEphemeralKey creates a per-transfer ephemeral key pair.
func GenerateEphemeralKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(crypto.S256(), rand.Reader)
}

// sharedPointY recovers the canonical Y coordinate for an X on the curve:
// y = (x^3 + 7)^((p+1)/4) mod p, valid because secp256k1's field prime is
// congruent to 3 mod 4.
func sharedPointY(x *big.Int) *big.Int {
	p := crypto.S256().Params().P

	ySq := new(big.Int).Exp(x, three, p)
	ySq.Add(ySq, seven)
	ySq.Mod(ySq, p)

	exp := new(big.Int).Add(p, big.NewInt(1))
	exp.Rsh(exp, 2)

	return new(big.Int).Exp(ySq, exp, p)
}

// DeriveSharedSecret performs the pool's ECDH variant: scalar-multiply the
// counterparty public key by the private scalar, then hash the shared X
// coordinate together with the canonical (principal-root) Y recovered from
// it, reduced modulo the curve order. The hash-input composition is a
// compatibility contract with the deployed circuits, not standard ECDH.
func DeriveSharedSecret(priv *big.Int, theirPub *ecdsa.PublicKey) (*big.Int, error) {
	curve := crypto.S256()

	if priv == nil || priv.Sign() == 0 {
		return nil, ErrInvalidKeyMaterial
	}
	if theirPub == nil || theirPub.X == nil || !curve.IsOnCurve(theirPub.X, theirPub.Y) {
		return nil, ErrInvalidKeyMaterial
	}

	sx, _ := curve.ScalarMult(theirPub.X, theirPub.Y, priv.Bytes())
	if sx == nil {
		return nil, ErrInvalidKeyMaterial
	}

	yRec := sharedPointY(sx)

	var buf [64]byte
	sx.FillBytes(buf[:32])
	yRec.FillBytes(buf[32:])

	shared := new(big.Int).SetBytes(crypto.Keccak256(buf[:]))
	shared.Mod(shared, curve.Params().N)
	if shared.Sign() == 0 {
		return nil, ErrInvalidKeyMaterial
	}

	return shared, nil
}

// GenerateStealthAddress computes the one-time destination key for a
// recipient view public key: stealthPub = viewPub + shared*G, where shared is
// the ECDH-derived scalar. Returns the stealth public key together with the
// ephemeral public key the recipient needs for detection.
func GenerateStealthAddress(recipientViewPub *ecdsa.PublicKey, ephemeralPriv *ecdsa.PrivateKey) (*ecdsa.PublicKey, *ecdsa.PublicKey, error) {
	curve := crypto.S256()

	if ephemeralPriv == nil || ephemeralPriv.D == nil || ephemeralPriv.D.Sign() == 0 {
		return nil, nil, ErrInvalidKeyMaterial
	}

	shared, err := DeriveSharedSecret(ephemeralPriv.D, recipientViewPub)
	if err != nil {
		return nil, nil, err
	}

	offX, offY := curve.ScalarBaseMult(shared.Bytes())
	stealthX, stealthY := curve.Add(recipientViewPub.X, recipientViewPub.Y, offX, offY)
	if stealthX == nil || stealthX.Sign() == 0 && stealthY.Sign() == 0 {
		// viewPub == -shared*G lands on the point at infinity
		return nil, nil, ErrInvalidKeyMaterial
	}

	stealthPub := &ecdsa.PublicKey{Curve: curve, X: stealthX, Y: stealthY}
	ephemeralPub := &ecdsa.PublicKey{Curve: curve, X: ephemeralPriv.PublicKey.X, Y: ephemeralPriv.PublicKey.Y}

	return stealthPub, ephemeralPub, nil
}

// CheckOwnership recomputes the expected stealth public key from the
// recipient's view private key and reports whether it matches the candidate.
func CheckOwnership(viewPriv *ecdsa.PrivateKey, ephemeralPub *ecdsa.PublicKey, candidateStealthPub *ecdsa.PublicKey) bool {
	if viewPriv == nil || candidateStealthPub == nil || candidateStealthPub.X == nil {
		return false
	}

	curve := crypto.S256()

	shared, err := DeriveSharedSecret(viewPriv.D, ephemeralPub)
	if err != nil {
		return false
	}

	offX, offY := curve.ScalarBaseMult(shared.Bytes())
	expX, expY := curve.Add(viewPriv.PublicKey.X, viewPriv.PublicKey.Y, offX, offY)
	if expX == nil {
		return false
	}

	return expX.Cmp(candidateStealthPub.X) == 0 && expY.Cmp(candidateStealthPub.Y) == 0
}

// DeriveStealthPrivateKey returns the discrete log of the stealth public
// key: viewPriv + shared mod N. Only the view key holder can compute it, and
// it is the scalar needed to author a future spend of the note.
func DeriveStealthPrivateKey(viewPriv *ecdsa.PrivateKey, ephemeralPub *ecdsa.PublicKey) (*ecdsa.PrivateKey, error) {
	curve := crypto.S256()

	if viewPriv == nil || viewPriv.D == nil || viewPriv.D.Sign() == 0 {
		return nil, ErrInvalidKeyMaterial
	}

	shared, err := DeriveSharedSecret(viewPriv.D, ephemeralPub)
	if err != nil {
		return nil, err
	}

	d := new(big.Int).Add(viewPriv.D, shared)
	d.Mod(d, curve.Params().N)
	if d.Sign() == 0 {
		return nil, ErrInvalidKeyMaterial
	}

	stealthPriv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve},
		D:         d,
	}
	stealthPriv.PublicKey.X, stealthPriv.PublicKey.Y = curve.ScalarBaseMult(d.Bytes())

	return stealthPriv, nil
}

// OwnerKeyField folds a stealth public key into a single field-sized value
// usable as the ownerKey input of a note commitment.
func OwnerKeyField(pub *ecdsa.PublicKey) common.Hash {
	var buf [64]byte
	pub.X.FillBytes(buf[:32])
	pub.Y.FillBytes(buf[32:])
	return common.BytesToHash(crypto.Keccak256(buf[:]))
}
