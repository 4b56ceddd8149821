// Pool Handlers - User-facing shielded pool operations and queries
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/interfaces"
	"shieldpool/internal/pool"
	"shieldpool/internal/relay"
	"shieldpool/internal/types"
	"shieldpool/internal/utils"
)

// PoolHandler exposes the shielded pool over HTTP. State-changing endpoints
// forward to the pool service; queries read the in-memory state directly.
type PoolHandler struct {
	service interfaces.PoolServiceInterface
	logger  *logrus.Logger
}

// NewPoolHandler creates a new PoolHandler instance
func NewPoolHandler(service interfaces.PoolServiceInterface, logger *logrus.Logger) *PoolHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PoolHandler{service: service, logger: logger}
}

// respondPoolError maps named pool rejections onto HTTP statuses. Unknown
// errors become 500 without leaking internals.
func respondPoolError(c *gin.Context, err error) {
	type mapping struct {
		target error
		status int
		code   string
	}

	mappings := []mapping{
		{pool.ErrEmptyProof, http.StatusBadRequest, "EMPTY_PROOF"},
		{pool.ErrInvalidProof, http.StatusUnprocessableEntity, "INVALID_PROOF"},
		{pool.ErrUnknownRoot, http.StatusConflict, "UNKNOWN_ROOT"},
		{pool.ErrAlreadySpent, http.StatusConflict, "NULLIFIER_SPENT"},
		{pool.ErrNotOwner, http.StatusForbidden, "NOT_OWNER"},
		{pool.ErrAlreadyShielded, http.StatusConflict, "ALREADY_SHIELDED"},
		{pool.ErrNotShielded, http.StatusConflict, "NOT_SHIELDED"},
		{pool.ErrTreeFull, http.StatusConflict, "TREE_FULL"},
		{pool.ErrIntentExpired, http.StatusBadRequest, "INTENT_EXPIRED"},
		{pool.ErrNonceMismatch, http.StatusConflict, "NONCE_MISMATCH"},
		{pool.ErrInvalidSignature, http.StatusUnauthorized, "INVALID_SIGNATURE"},
		{pool.ErrRelayerMismatch, http.StatusForbidden, "RELAYER_MISMATCH"},
		{pool.ErrFeeTooHigh, http.StatusBadRequest, "FEE_TOO_HIGH"},
		{pool.ErrInsufficientPoolBalance, http.StatusConflict, "INSUFFICIENT_POOL_BALANCE"},
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{
				"success": false,
				"error":   err.Error(),
				"code":    m.code,
			})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Operation failed",
		"code":    "INTERNAL_ERROR",
	})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
		"code":    "INVALID_REQUEST",
	})
}

// ============================================================================
// State-Changing Operations
// ============================================================================

// ShieldHandler escrows a publicly-owned asset into the pool
// POST /api/v1/pool/shield
func (h *PoolHandler) ShieldHandler(c *gin.Context) {
	var req types.ShieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	caller, err := utils.ParseAddress(req.Caller)
	if err != nil {
		respondBadRequest(c, "Invalid caller: "+err.Error())
		return
	}
	assetID, err := utils.ParseHash(req.AssetID)
	if err != nil {
		respondBadRequest(c, "Invalid asset_id: "+err.Error())
		return
	}
	commitment, err := utils.ParseHash(req.Commitment)
	if err != nil {
		respondBadRequest(c, "Invalid commitment: "+err.Error())
		return
	}
	proof, err := utils.ParseBytes(req.Proof)
	if err != nil {
		respondBadRequest(c, "Invalid proof: "+err.Error())
		return
	}

	result, err := h.service.Shield(c.Request.Context(), caller, assetID, commitment, proof)
	if err != nil {
		respondPoolError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"leaf_index": result.LeafIndex,
		"root":       result.Root.Hex(),
	})
}

// TransferHandler spends a note and inserts its replacement commitment
// POST /api/v1/pool/transfer
func (h *PoolHandler) TransferHandler(c *gin.Context) {
	var req types.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	nf, err := utils.ParseHash(req.Nullifier)
	if err != nil {
		respondBadRequest(c, "Invalid nullifier: "+err.Error())
		return
	}
	newCommitment, err := utils.ParseHash(req.NewCommitment)
	if err != nil {
		respondBadRequest(c, "Invalid new_commitment: "+err.Error())
		return
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		respondBadRequest(c, "Invalid root: "+err.Error())
		return
	}
	proof, err := utils.ParseBytes(req.Proof)
	if err != nil {
		respondBadRequest(c, "Invalid proof: "+err.Error())
		return
	}

	result, err := h.service.TransferPrivate(c.Request.Context(), nf, newCommitment, root, proof)
	if err != nil {
		respondPoolError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"leaf_index": result.LeafIndex,
		"root":       result.Root.Hex(),
	})
}

// UnshieldHandler spends a note and releases the asset to a public recipient
// POST /api/v1/pool/unshield
func (h *PoolHandler) UnshieldHandler(c *gin.Context) {
	var req types.UnshieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	nf, err := utils.ParseHash(req.Nullifier)
	if err != nil {
		respondBadRequest(c, "Invalid nullifier: "+err.Error())
		return
	}
	assetID, err := utils.ParseHash(req.AssetID)
	if err != nil {
		respondBadRequest(c, "Invalid asset_id: "+err.Error())
		return
	}
	recipient, err := utils.ParseAddress(req.Recipient)
	if err != nil {
		respondBadRequest(c, "Invalid recipient: "+err.Error())
		return
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		respondBadRequest(c, "Invalid root: "+err.Error())
		return
	}
	proof, err := utils.ParseBytes(req.Proof)
	if err != nil {
		respondBadRequest(c, "Invalid proof: "+err.Error())
		return
	}

	result, err := h.service.Unshield(c.Request.Context(), nf, assetID, recipient, root, proof)
	if err != nil {
		respondPoolError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"recipient": recipient.Hex(),
		"root":      result.Root.Hex(),
	})
}

// RelayTransferHandler submits a signed transfer intent on the signer's behalf
// POST /api/v1/pool/relay/transfer
func (h *PoolHandler) RelayTransferHandler(c *gin.Context) {
	var req types.RelayTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	intent, err := parseTransferIntent(&req.Intent)
	if err != nil {
		respondBadRequest(c, "Invalid intent: "+err.Error())
		return
	}
	sig, err := utils.ParseBytes(req.Signature)
	if err != nil {
		respondBadRequest(c, "Invalid signature: "+err.Error())
		return
	}
	relayer, err := utils.ParseAddress(req.Relayer)
	if err != nil {
		respondBadRequest(c, "Invalid relayer: "+err.Error())
		return
	}
	proof, err := utils.ParseBytes(req.Proof)
	if err != nil {
		respondBadRequest(c, "Invalid proof: "+err.Error())
		return
	}

	result, err := h.service.TransferViaRelay(c.Request.Context(), intent, sig, relayer, proof)
	if err != nil {
		respondPoolError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"signer":     result.Signer.Hex(),
		"leaf_index": result.LeafIndex,
		"root":       result.Root.Hex(),
	})
}

// RelayUnshieldHandler submits a signed unshield intent on the signer's behalf
// POST /api/v1/pool/relay/unshield
func (h *PoolHandler) RelayUnshieldHandler(c *gin.Context) {
	var req types.RelayUnshieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	intent, err := parseUnshieldIntent(&req.Intent)
	if err != nil {
		respondBadRequest(c, "Invalid intent: "+err.Error())
		return
	}
	sig, err := utils.ParseBytes(req.Signature)
	if err != nil {
		respondBadRequest(c, "Invalid signature: "+err.Error())
		return
	}
	relayer, err := utils.ParseAddress(req.Relayer)
	if err != nil {
		respondBadRequest(c, "Invalid relayer: "+err.Error())
		return
	}
	proof, err := utils.ParseBytes(req.Proof)
	if err != nil {
		respondBadRequest(c, "Invalid proof: "+err.Error())
		return
	}

	result, err := h.service.UnshieldViaRelay(c.Request.Context(), intent, sig, relayer, proof)
	if err != nil {
		respondPoolError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"signer":  result.Signer.Hex(),
		"root":    result.Root.Hex(),
	})
}

func parseTransferIntent(req *types.TransferIntentRequest) (*relay.TransferIntent, error) {
	nf, err := utils.ParseHash(req.Nullifier)
	if err != nil {
		return nil, err
	}
	newCommitment, err := utils.ParseHash(req.NewCommitment)
	if err != nil {
		return nil, err
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		return nil, err
	}
	relayer, err := utils.ParseAddress(req.Relayer)
	if err != nil {
		return nil, err
	}
	fee, err := utils.ParseBigInt(req.Fee)
	if err != nil {
		return nil, err
	}

	return &relay.TransferIntent{
		Nullifier:     nf,
		NewCommitment: newCommitment,
		Root:          root,
		Relayer:       relayer,
		Fee:           fee,
		Nonce:         req.Nonce,
		Deadline:      time.Unix(req.Deadline, 0),
	}, nil
}

func parseUnshieldIntent(req *types.UnshieldIntentRequest) (*relay.UnshieldIntent, error) {
	nf, err := utils.ParseHash(req.Nullifier)
	if err != nil {
		return nil, err
	}
	assetID, err := utils.ParseHash(req.AssetID)
	if err != nil {
		return nil, err
	}
	recipient, err := utils.ParseAddress(req.Recipient)
	if err != nil {
		return nil, err
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		return nil, err
	}
	relayer, err := utils.ParseAddress(req.Relayer)
	if err != nil {
		return nil, err
	}
	fee, err := utils.ParseBigInt(req.Fee)
	if err != nil {
		return nil, err
	}

	return &relay.UnshieldIntent{
		Nullifier: nf,
		AssetID:   assetID,
		Recipient: recipient,
		Root:      root,
		Relayer:   relayer,
		Fee:       fee,
		Nonce:     req.Nonce,
		Deadline:  time.Unix(req.Deadline, 0),
	}, nil
}

// ============================================================================
// Pool Queries
// ============================================================================

// StatsHandler returns the pool summary
// GET /api/v1/pool/stats
func (h *PoolHandler) StatsHandler(c *gin.Context) {
	stats := h.service.Stats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"tree_depth":       stats.TreeDepth,
			"leaf_count":       stats.LeafCount,
			"root_count":       stats.RootCount,
			"spent_nullifiers": stats.SpentNullifiers,
			"current_root":     stats.CurrentRoot.Hex(),
		},
	})
}

// RootHandler returns the current tree root
// GET /api/v1/pool/root
func (h *PoolHandler) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"root":    h.service.CurrentRoot().Hex(),
	})
}

// RootStatusHandler reports whether a root was ever produced by the tree
// GET /api/v1/pool/root/:root
func (h *PoolHandler) RootStatusHandler(c *gin.Context) {
	root, err := utils.ParseHash(c.Param("root"))
	if err != nil {
		respondBadRequest(c, "Invalid root: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"root":    root.Hex(),
		"known":   h.service.IsKnownRoot(root),
	})
}

// NullifierStatusHandler reports whether a nullifier has been spent
// GET /api/v1/pool/nullifier/:nullifier
func (h *PoolHandler) NullifierStatusHandler(c *gin.Context) {
	nf, err := utils.ParseHash(c.Param("nullifier"))
	if err != nil {
		respondBadRequest(c, "Invalid nullifier: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"nullifier": nf.Hex(),
		"spent":     h.service.IsSpent(nf),
	})
}

// AssetStatusHandler reports whether an asset is currently shielded
// GET /api/v1/pool/asset/:assetId
func (h *PoolHandler) AssetStatusHandler(c *gin.Context) {
	assetID, err := utils.ParseHash(c.Param("assetId"))
	if err != nil {
		respondBadRequest(c, "Invalid asset id: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"asset_id": assetID.Hex(),
		"shielded": h.service.IsShielded(assetID),
	})
}

// NonceHandler returns the next expected relay nonce for a signer
// GET /api/v1/pool/nonce/:signer
func (h *PoolHandler) NonceHandler(c *gin.Context) {
	signer, err := utils.ParseAddress(c.Param("signer"))
	if err != nil {
		respondBadRequest(c, "Invalid signer: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"signer":  signer.Hex(),
		"nonce":   h.service.NonceOf(signer),
	})
}

// ProofPathHandler returns the Merkle authentication path for a leaf
// GET /api/v1/pool/proof-path/:leafIndex
func (h *PoolHandler) ProofPathHandler(c *gin.Context) {
	leafIndex, err := strconv.ParseUint(c.Param("leafIndex"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid leaf index")
		return
	}

	path, err := h.service.ProofPath(leafIndex)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "LEAF_NOT_FOUND",
		})
		return
	}

	hexPath := make([]string, len(path))
	for i, sibling := range path {
		hexPath[i] = sibling.Hex()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"leaf_index": leafIndex,
		"path":       hexPath,
		"root":       h.service.CurrentRoot().Hex(),
	})
}

// RelayerBalanceHandler returns a relayer's accumulated fee balance
// GET /api/v1/pool/relayer/:relayer/balance
func (h *PoolHandler) RelayerBalanceHandler(c *gin.Context) {
	relayer, err := utils.ParseAddress(c.Param("relayer"))
	if err != nil {
		respondBadRequest(c, "Invalid relayer: "+err.Error())
		return
	}

	balance, err := h.service.RelayerBalance(c.Request.Context(), relayer)
	if err != nil {
		h.logger.WithError(err).Error("relayer balance query failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Balance query failed",
			"code":    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"relayer": relayer.Hex(),
		"balance": balance.String(),
	})
}
