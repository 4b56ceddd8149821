package pool

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shieldpool/internal/relay"
)

// fakeVerifier is a deterministic stand-in for the proof oracle. It records
// the public inputs of every call and accepts everything unless told
// otherwise.
type fakeVerifier struct {
	reject bool
	fail   error
	calls  []verifierCall
}

type verifierCall struct {
	kind   ProofKind
	inputs []common.Hash
}

func (f *fakeVerifier) Verify(kind ProofKind, proof []byte, publicInputs []common.Hash) (bool, error) {
	f.calls = append(f.calls, verifierCall{kind: kind, inputs: publicInputs})
	if f.fail != nil {
		return false, f.fail
	}
	return !f.reject, nil
}

type fixture struct {
	ctrl     *Controller
	verifier *fakeVerifier
	registry *MemoryRegistry
	fees     *MemoryFeeLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	verifier := &fakeVerifier{}
	registry := NewMemoryRegistry()
	fees := NewMemoryFeeLedger(big.NewInt(1_000_000))

	ctrl, err := NewController(Config{
		TreeDepth: 8,
		Domain: relay.Domain{
			Name:    "ShieldPool",
			Version: "1",
			ChainID: 56,
			PoolID:  common.HexToHash("0x01"),
		},
		Verifier: verifier,
		Registry: registry,
		Fees:     fees,
	})
	require.NoError(t, err)

	return &fixture{ctrl: ctrl, verifier: verifier, registry: registry, fees: fees}
}

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	carol = common.HexToAddress("0xca401")

	asset7 = common.HexToHash("0x07")
	proof  = []byte{0xde, 0xad}
)

func TestShield(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))

	cm := common.HexToHash("0xc1")
	require.NoError(t, f.ctrl.Shield(alice, asset7, cm, proof))

	assert.True(t, f.ctrl.IsShielded(asset7))
	assert.Equal(t, uint64(1), f.ctrl.NextLeafIndex())

	// verifier saw exactly (commitment, assetId)
	require.Len(t, f.verifier.calls, 1)
	assert.Equal(t, ProofDeposit, f.verifier.calls[0].kind)
	assert.Equal(t, []common.Hash{cm, asset7}, f.verifier.calls[0].inputs)
}

func TestShieldTwiceFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	err := f.ctrl.Shield(alice, asset7, common.HexToHash("0xc2"), proof)
	require.ErrorIs(t, err, ErrAlreadyShielded)
	assert.Equal(t, uint64(1), f.ctrl.NextLeafIndex())
}

func TestShieldNotOwner(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))

	err := f.ctrl.Shield(bob, asset7, common.HexToHash("0xc1"), proof)
	require.ErrorIs(t, err, ErrNotOwner)
	assert.False(t, f.ctrl.IsShielded(asset7))
	assert.Equal(t, uint64(0), f.ctrl.NextLeafIndex())
}

func TestShieldInvalidProof(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	f.verifier.reject = true

	err := f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof)
	require.ErrorIs(t, err, ErrInvalidProof)

	// no side effects: still owned publicly, no leaf inserted
	owner, err2 := f.registry.OwnerOf(asset7)
	require.NoError(t, err2)
	assert.Equal(t, alice, owner)
	assert.Equal(t, uint64(0), f.ctrl.NextLeafIndex())
}

func TestShieldEmptyProof(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))

	err := f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), nil)
	require.ErrorIs(t, err, ErrEmptyProof)
	assert.Empty(t, f.verifier.calls, "oracle must not be consulted for malformed input")
}

func TestMintShielded(t *testing.T) {
	f := newFixture(t)

	tag := common.HexToHash("0x4d")
	predicted := f.ctrl.NextMintAssetID(tag)

	assetID, err := f.ctrl.MintShielded(common.HexToHash("0xc1"), proof, tag)
	require.NoError(t, err)
	assert.Equal(t, predicted, assetID)
	assert.True(t, f.ctrl.IsShielded(assetID))

	// next mint with the same tag allocates a different id
	second := f.ctrl.NextMintAssetID(tag)
	assert.NotEqual(t, assetID, second)
}

func TestTransferPrivate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	root := f.ctrl.CurrentRoot()
	nf := common.HexToHash("0x1f")
	newCm := common.HexToHash("0xc2")

	require.NoError(t, f.ctrl.TransferPrivate(nf, newCm, root, proof))

	assert.True(t, f.ctrl.IsSpent(nf))
	assert.Equal(t, uint64(2), f.ctrl.NextLeafIndex())

	// verifier saw exactly (root, nullifier, newCommitment)
	last := f.verifier.calls[len(f.verifier.calls)-1]
	assert.Equal(t, ProofTransfer, last.kind)
	assert.Equal(t, []common.Hash{root, nf, newCm}, last.inputs)
}

func TestDoubleSpendRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	root := f.ctrl.CurrentRoot()
	nf := common.HexToHash("0x1f")

	require.NoError(t, f.ctrl.TransferPrivate(nf, common.HexToHash("0xc2"), root, proof))
	leaves := f.ctrl.NextLeafIndex()

	// identical replay
	err := f.ctrl.TransferPrivate(nf, common.HexToHash("0xc2"), root, proof)
	require.ErrorIs(t, err, ErrAlreadySpent)

	// zero tree insertions on the replay
	assert.Equal(t, leaves, f.ctrl.NextLeafIndex())
}

func TestTransferUnknownRoot(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.TransferPrivate(common.HexToHash("0x1f"), common.HexToHash("0xc2"), common.HexToHash("0xbad"), proof)
	require.ErrorIs(t, err, ErrUnknownRoot)
	assert.Empty(t, f.verifier.calls)
}

func TestTransferAgainstHistoricalRoot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	staleRoot := f.ctrl.CurrentRoot()
	require.NoError(t, f.ctrl.TransferPrivate(common.HexToHash("0x1f"), common.HexToHash("0xc2"), staleRoot, proof))

	// the pre-transfer root remains valid for proofs generated earlier
	require.NoError(t, f.ctrl.TransferPrivate(common.HexToHash("0x2f"), common.HexToHash("0xc3"), staleRoot, proof))
}

func TestProofGating(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	f.verifier.reject = true
	root := f.ctrl.CurrentRoot()
	nf := common.HexToHash("0x1f")

	err := f.ctrl.TransferPrivate(nf, common.HexToHash("0xc2"), root, proof)
	require.ErrorIs(t, err, ErrInvalidProof)

	// rejection is total: nothing spent, nothing inserted
	assert.False(t, f.ctrl.IsSpent(nf))
	assert.Equal(t, uint64(1), f.ctrl.NextLeafIndex())
}

func TestVerifierOracleFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	f.verifier.fail = errors.New("oracle unreachable")

	err := f.ctrl.TransferPrivate(common.HexToHash("0x1f"), common.HexToHash("0xc2"), f.ctrl.CurrentRoot(), proof)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidProof)
	assert.Equal(t, uint64(1), f.ctrl.NextLeafIndex())
}

func TestUnshield(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	root := f.ctrl.CurrentRoot()
	nf := common.HexToHash("0x1f")

	require.NoError(t, f.ctrl.Unshield(nf, asset7, bob, root, proof))

	assert.False(t, f.ctrl.IsShielded(asset7))
	assert.True(t, f.ctrl.IsSpent(nf))

	owner, err := f.registry.OwnerOf(asset7)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	// verifier saw exactly (root, nullifier, assetId, recipient)
	last := f.verifier.calls[len(f.verifier.calls)-1]
	assert.Equal(t, ProofWithdraw, last.kind)
	assert.Equal(t, []common.Hash{root, nf, asset7, addressField(bob)}, last.inputs)
}

func TestUnshieldNotShielded(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))

	// any known root will do; only the asset state should trip
	err := f.ctrl.Unshield(common.HexToHash("0x1f"), asset7, bob, f.ctrl.CurrentRoot(), proof)
	require.ErrorIs(t, err, ErrNotShielded)
}

func TestShieldUnshieldCycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))

	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))
	require.NoError(t, f.ctrl.Unshield(common.HexToHash("0x1f"), asset7, bob, f.ctrl.CurrentRoot(), proof))

	// bob can shield again; nullifiers and leaves only grow
	require.NoError(t, f.ctrl.Shield(bob, asset7, common.HexToHash("0xc2"), proof))
	assert.True(t, f.ctrl.IsShielded(asset7))
	assert.Equal(t, uint64(2), f.ctrl.NextLeafIndex())
	assert.Equal(t, 1, f.ctrl.SpentCount())
}

// ============ Relay ============

func relayFixture(t *testing.T) (*fixture, *relay.TransferIntent, []byte, common.Address) {
	t.Helper()

	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	in := &relay.TransferIntent{
		Nullifier:     common.HexToHash("0x1f"),
		NewCommitment: common.HexToHash("0xc2"),
		Root:          f.ctrl.CurrentRoot(),
		Relayer:       carol,
		Fee:           big.NewInt(500),
		Nonce:         0,
		Deadline:      time.Now().Add(time.Hour),
	}
	sig, err := f.ctrl.Intents().SignTransferIntent(in, key)
	require.NoError(t, err)

	return f, in, sig, signer
}

func TestTransferViaRelay(t *testing.T) {
	f, in, sig, signer := relayFixture(t)

	recovered, err := f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)

	// state committed, nonce ratcheted by exactly one, fee paid
	assert.True(t, f.ctrl.IsSpent(in.Nullifier))
	assert.Equal(t, uint64(1), f.ctrl.NonceOf(signer))
	assert.Equal(t, 0, f.fees.BalanceOf(carol).Cmp(big.NewInt(500)))
}

func TestRelayReplayRejected(t *testing.T) {
	f, in, sig, signer := relayFixture(t)

	_, err := f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.NoError(t, err)

	_, err = f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.ErrorIs(t, err, ErrNonceMismatch)
	assert.Equal(t, uint64(1), f.ctrl.NonceOf(signer))
}

func TestRelayExpired(t *testing.T) {
	f, _, _, _ := relayFixture(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	in := &relay.TransferIntent{
		Nullifier:     common.HexToHash("0x2f"),
		NewCommitment: common.HexToHash("0xc3"),
		Root:          f.ctrl.CurrentRoot(),
		Relayer:       carol,
		Fee:           big.NewInt(500),
		Nonce:         0,
		Deadline:      time.Now().Add(-time.Minute),
	}
	sig, err := f.ctrl.Intents().SignTransferIntent(in, key)
	require.NoError(t, err)

	_, err = f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.ErrorIs(t, err, ErrIntentExpired)

	// no nonce increment, no spend
	assert.Equal(t, uint64(0), f.ctrl.NonceOf(signer))
	assert.False(t, f.ctrl.IsSpent(in.Nullifier))
}

func TestRelayWrongSubmitter(t *testing.T) {
	f, in, sig, _ := relayFixture(t)

	_, err := f.ctrl.TransferPrivateViaRelay(in, sig, bob, proof)
	require.ErrorIs(t, err, ErrRelayerMismatch)
	assert.False(t, f.ctrl.IsSpent(in.Nullifier))
}

func TestRelayFeeAboveCap(t *testing.T) {
	f, in, sig, signer := relayFixture(t)
	f.ctrl.maxFee = big.NewInt(100)

	_, err := f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.ErrorIs(t, err, ErrFeeTooHigh)
	assert.False(t, f.ctrl.IsSpent(in.Nullifier))
	assert.Equal(t, uint64(0), f.ctrl.NonceOf(signer))
}

func TestRelayFeeFailureRejectsWhole(t *testing.T) {
	f, in, sig, signer := relayFixture(t)

	// drain the pooled balance below the fee
	f.fees.pooled.SetInt64(1)

	_, err := f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.ErrorIs(t, err, ErrInsufficientPoolBalance)

	// all-or-nothing: no spend, no insert, no nonce
	assert.False(t, f.ctrl.IsSpent(in.Nullifier))
	assert.Equal(t, uint64(1), f.ctrl.NextLeafIndex())
	assert.Equal(t, uint64(0), f.ctrl.NonceOf(signer))
}

func TestUnshieldViaRelay(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	in := &relay.UnshieldIntent{
		Nullifier: common.HexToHash("0x1f"),
		AssetID:   asset7,
		Recipient: bob,
		Root:      f.ctrl.CurrentRoot(),
		Relayer:   carol,
		Fee:       big.NewInt(200),
		Nonce:     0,
		Deadline:  time.Now().Add(time.Hour),
	}
	sig, err := f.ctrl.Intents().SignUnshieldIntent(in, key)
	require.NoError(t, err)

	recovered, err := f.ctrl.UnshieldViaRelay(in, sig, carol, proof)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)

	assert.False(t, f.ctrl.IsShielded(asset7))
	owner, err := f.registry.OwnerOf(asset7)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)
	assert.Equal(t, uint64(1), f.ctrl.NonceOf(signer))
}

// outageRegistry simulates a registry backend that stops answering lookups.
type outageRegistry struct {
	*MemoryRegistry
	down bool
}

func (r *outageRegistry) OwnerOf(assetID common.Hash) (common.Address, error) {
	if r.down {
		return common.Address{}, errors.New("registry unavailable")
	}
	return r.MemoryRegistry.OwnerOf(assetID)
}

func TestRelayUnshieldRegistryOutageLeavesFeeUntouched(t *testing.T) {
	f := newFixture(t)
	reg := &outageRegistry{MemoryRegistry: f.registry}
	f.ctrl.registry = reg

	require.NoError(t, f.registry.Mint(asset7, alice))
	require.NoError(t, f.ctrl.Shield(alice, asset7, common.HexToHash("0xc1"), proof))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	in := &relay.UnshieldIntent{
		Nullifier: common.HexToHash("0x1f"),
		AssetID:   asset7,
		Recipient: bob,
		Root:      f.ctrl.CurrentRoot(),
		Relayer:   carol,
		Fee:       big.NewInt(200),
		Nonce:     0,
		Deadline:  time.Now().Add(time.Hour),
	}
	sig, err := f.ctrl.Intents().SignUnshieldIntent(in, key)
	require.NoError(t, err)

	reg.down = true
	pooledBefore := f.fees.PooledBalance()

	_, err = f.ctrl.UnshieldViaRelay(in, sig, carol, proof)
	require.Error(t, err)

	// validation failed before payment: fee intact, nothing consumed
	assert.Equal(t, 0, f.fees.PooledBalance().Cmp(pooledBefore))
	assert.Equal(t, 0, f.fees.BalanceOf(carol).Sign())
	assert.True(t, f.ctrl.IsShielded(asset7))
	assert.False(t, f.ctrl.IsSpent(in.Nullifier))
	assert.Equal(t, uint64(0), f.ctrl.NonceOf(signer))
}

func TestRelayFeeFailureWrapsNamedError(t *testing.T) {
	f, in, sig, _ := relayFixture(t)
	f.fees.pooled.SetInt64(0)

	_, err := f.ctrl.TransferPrivateViaRelay(in, sig, carol, proof)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientPoolBalance))
}
