// Admin Pool Handlers - Operator-facing (admin JWT required)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/interfaces"
	"shieldpool/internal/pool"
	"shieldpool/internal/types"
	"shieldpool/internal/utils"
)

// AdminPoolHandler exposes operator-only pool management: minting directly
// into the pool, registering public assets and funding the fee pool.
type AdminPoolHandler struct {
	service  interfaces.PoolServiceInterface
	registry pool.AssetRegistry
	fees     *pool.MemoryFeeLedger
	logger   *logrus.Logger
}

// NewAdminPoolHandler creates a new AdminPoolHandler instance
func NewAdminPoolHandler(service interfaces.PoolServiceInterface, registry pool.AssetRegistry, fees *pool.MemoryFeeLedger, logger *logrus.Logger) *AdminPoolHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminPoolHandler{service: service, registry: registry, fees: fees, logger: logger}
}

// MintShieldedHandler mints a fresh asset directly into the pool
// POST /api/admin/pool/mint
func (h *AdminPoolHandler) MintShieldedHandler(c *gin.Context) {
	var req types.MintShieldedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	commitment, err := utils.ParseHash(req.Commitment)
	if err != nil {
		respondBadRequest(c, "Invalid commitment: "+err.Error())
		return
	}
	metadataTag, err := utils.ParseHash(req.MetadataTag)
	if err != nil {
		respondBadRequest(c, "Invalid metadata_tag: "+err.Error())
		return
	}
	proof, err := utils.ParseBytes(req.Proof)
	if err != nil {
		respondBadRequest(c, "Invalid proof: "+err.Error())
		return
	}

	assetID, result, err := h.service.MintShielded(c.Request.Context(), commitment, proof, metadataTag)
	if err != nil {
		respondPoolError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"asset_id":   assetID.Hex(),
		"leaf_index": result.LeafIndex,
	}).Info("asset minted into pool")

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"asset_id":   assetID.Hex(),
		"leaf_index": result.LeafIndex,
		"root":       result.Root.Hex(),
	})
}

// NextMintAssetIDHandler previews the asset id the next mint would assign
// GET /api/admin/pool/mint/next/:metadataTag
func (h *AdminPoolHandler) NextMintAssetIDHandler(c *gin.Context) {
	metadataTag, err := utils.ParseHash(c.Param("metadataTag"))
	if err != nil {
		respondBadRequest(c, "Invalid metadata tag: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"asset_id": h.service.NextMintAssetID(metadataTag).Hex(),
	})
}

// RegisterAssetRequest registers a public asset with an owner.
type RegisterAssetRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
	Owner   string `json:"owner" binding:"required"`
}

// RegisterAssetHandler registers a publicly-owned asset in the registry
// POST /api/admin/pool/assets
func (h *AdminPoolHandler) RegisterAssetHandler(c *gin.Context) {
	var req RegisterAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	assetID, err := utils.ParseHash(req.AssetID)
	if err != nil {
		respondBadRequest(c, "Invalid asset_id: "+err.Error())
		return
	}
	owner, err := utils.ParseAddress(req.Owner)
	if err != nil {
		respondBadRequest(c, "Invalid owner: "+err.Error())
		return
	}

	if err := h.registry.Mint(assetID, owner); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "ASSET_EXISTS",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"asset_id": assetID.Hex(),
		"owner":    owner.Hex(),
	})
}

// FundFeePoolRequest tops up the pooled fee balance.
type FundFeePoolRequest struct {
	Amount string `json:"amount" binding:"required"` // decimal string
}

// FundFeePoolHandler adds to the pooled balance relayer fees are paid from
// POST /api/admin/pool/fees/fund
func (h *AdminPoolHandler) FundFeePoolHandler(c *gin.Context) {
	var req FundFeePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := utils.ParseBigInt(req.Amount)
	if err != nil {
		respondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	h.fees.Deposit(amount)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pooled":  h.fees.PooledBalance().String(),
	})
}

// FeePoolBalanceHandler returns the remaining pooled fee balance
// GET /api/admin/pool/fees
func (h *AdminPoolHandler) FeePoolBalanceHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pooled":  h.fees.PooledBalance().String(),
	})
}
