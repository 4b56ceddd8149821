package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shieldpool/internal/interfaces"
	"shieldpool/internal/pool"
	"shieldpool/internal/relay"
)

// fakePoolService records calls and returns canned results.
type fakePoolService struct {
	err       error
	spent     map[common.Hash]bool
	lastProof []byte
}

func (f *fakePoolService) result() *interfaces.OperationResult {
	return &interfaces.OperationResult{LeafIndex: 4, Root: common.HexToHash("0xabc")}
}

func (f *fakePoolService) Shield(ctx context.Context, caller common.Address, assetID, commitment common.Hash, proof []byte) (*interfaces.OperationResult, error) {
	f.lastProof = proof
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakePoolService) MintShielded(ctx context.Context, commitment common.Hash, proof []byte, metadataTag common.Hash) (common.Hash, *interfaces.OperationResult, error) {
	if f.err != nil {
		return common.Hash{}, nil, f.err
	}
	return common.HexToHash("0x07"), f.result(), nil
}

func (f *fakePoolService) TransferPrivate(ctx context.Context, nullifier, newCommitment, root common.Hash, proof []byte) (*interfaces.OperationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakePoolService) TransferViaRelay(ctx context.Context, in *relay.TransferIntent, sig []byte, relayer common.Address, proof []byte) (*interfaces.RelayResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.RelayResult{OperationResult: *f.result(), Signer: common.HexToAddress("0x11")}, nil
}

func (f *fakePoolService) Unshield(ctx context.Context, nullifier, assetID common.Hash, recipient common.Address, root common.Hash, proof []byte) (*interfaces.OperationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakePoolService) UnshieldViaRelay(ctx context.Context, in *relay.UnshieldIntent, sig []byte, relayer common.Address, proof []byte) (*interfaces.RelayResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.RelayResult{OperationResult: *f.result(), Signer: common.HexToAddress("0x11")}, nil
}

func (f *fakePoolService) Stats() *interfaces.PoolStats {
	return &interfaces.PoolStats{TreeDepth: 20, LeafCount: 5, RootCount: 6, SpentNullifiers: 2, CurrentRoot: common.HexToHash("0xabc")}
}

func (f *fakePoolService) CurrentRoot() common.Hash          { return common.HexToHash("0xabc") }
func (f *fakePoolService) IsKnownRoot(root common.Hash) bool { return root == common.HexToHash("0xabc") }
func (f *fakePoolService) IsSpent(nullifier common.Hash) bool {
	return f.spent[nullifier]
}
func (f *fakePoolService) IsShielded(assetID common.Hash) bool  { return false }
func (f *fakePoolService) NonceOf(signer common.Address) uint64 { return 3 }
func (f *fakePoolService) NextMintAssetID(metadataTag common.Hash) common.Hash {
	return common.HexToHash("0x07")
}
func (f *fakePoolService) ProofPath(leafIndex uint64) ([]common.Hash, error) {
	return []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")}, nil
}
func (f *fakePoolService) RelayerBalance(ctx context.Context, relayer common.Address) (*big.Int, error) {
	return big.NewInt(500), nil
}

var _ interfaces.PoolServiceInterface = (*fakePoolService)(nil)

func setupTestRouter(svc interfaces.PoolServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPoolHandler(svc, nil)

	r.POST("/api/v1/pool/shield", h.ShieldHandler)
	r.POST("/api/v1/pool/transfer", h.TransferHandler)
	r.GET("/api/v1/pool/stats", h.StatsHandler)
	r.GET("/api/v1/pool/nullifier/:nullifier", h.NullifierStatusHandler)
	r.GET("/api/v1/pool/proof-path/:leafIndex", h.ProofPathHandler)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func hash32(b byte) string {
	h := common.Hash{}
	h[31] = b
	return h.Hex()
}

func TestShieldHandler(t *testing.T) {
	svc := &fakePoolService{}
	r := setupTestRouter(svc)

	w := postJSON(t, r, "/api/v1/pool/shield", gin.H{
		"caller":     "0x742d35cc6634c0532925a3b0f26750c66d78eb66",
		"asset_id":   hash32(7),
		"commitment": hash32(9),
		"proof":      "0xdead",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(4), resp["leaf_index"])
	assert.Equal(t, []byte{0xde, 0xad}, svc.lastProof)
}

func TestShieldHandlerBadHex(t *testing.T) {
	r := setupTestRouter(&fakePoolService{})

	w := postJSON(t, r, "/api/v1/pool/shield", gin.H{
		"caller":     "0x742d35cc6634c0532925a3b0f26750c66d78eb66",
		"asset_id":   "0x07", // not 32 bytes
		"commitment": hash32(9),
		"proof":      "0xdead",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp["code"])
}

func TestShieldHandlerMissingField(t *testing.T) {
	r := setupTestRouter(&fakePoolService{})

	w := postJSON(t, r, "/api/v1/pool/shield", gin.H{
		"caller": "0x742d35cc6634c0532925a3b0f26750c66d78eb66",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"double spend", pool.ErrAlreadySpent, http.StatusConflict, "NULLIFIER_SPENT"},
		{"unknown root", pool.ErrUnknownRoot, http.StatusConflict, "UNKNOWN_ROOT"},
		{"invalid proof", pool.ErrInvalidProof, http.StatusUnprocessableEntity, "INVALID_PROOF"},
		{"empty proof", pool.ErrEmptyProof, http.StatusBadRequest, "EMPTY_PROOF"},
		{"fee above cap", pool.ErrFeeTooHigh, http.StatusBadRequest, "FEE_TOO_HIGH"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupTestRouter(&fakePoolService{err: tc.err})

			w := postJSON(t, r, "/api/v1/pool/transfer", gin.H{
				"nullifier":      hash32(1),
				"new_commitment": hash32(2),
				"root":           hash32(3),
				"proof":          "0xdead",
			})

			require.Equal(t, tc.status, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tc.code, resp["code"])
		})
	}
}

func TestStatsHandler(t *testing.T) {
	r := setupTestRouter(&fakePoolService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pool/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Stats   struct {
			TreeDepth   int    `json:"tree_depth"`
			LeafCount   uint64 `json:"leaf_count"`
			CurrentRoot string `json:"current_root"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 20, resp.Stats.TreeDepth)
	assert.Equal(t, uint64(5), resp.Stats.LeafCount)
	assert.Equal(t, common.HexToHash("0xabc").Hex(), resp.Stats.CurrentRoot)
}

func TestNullifierStatusHandler(t *testing.T) {
	spentNf := common.HexToHash(hash32(1))
	svc := &fakePoolService{spent: map[common.Hash]bool{spentNf: true}}
	r := setupTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pool/nullifier/"+spentNf.Hex(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["spent"])
}

func TestProofPathHandler(t *testing.T) {
	r := setupTestRouter(&fakePoolService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pool/proof-path/0", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool     `json:"success"`
		Path    []string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Path, 2)
}
