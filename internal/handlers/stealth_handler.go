package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"shieldpool/internal/stealth"
	"shieldpool/internal/types"
	"shieldpool/internal/utils"
)

// StealthHandler exposes one-time address derivation. All operations are
// stateless; key material never touches the pool state or the database.
type StealthHandler struct{}

// NewStealthHandler creates a new StealthHandler instance
func NewStealthHandler() *StealthHandler {
	return &StealthHandler{}
}

// GenerateKeyPairHandler creates a fresh long-lived view key pair
// POST /api/v1/stealth/keypair
func (h *StealthHandler) GenerateKeyPairHandler(c *gin.Context) {
	key, err := stealth.GenerateViewKeyPair()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Key generation failed",
			"code":    "KEYGEN_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"view_priv": fmt.Sprintf("0x%064x", key.D),
		"view_pub":  utils.EncodePublicKey(&key.PublicKey),
	})
}

// DeriveAddressHandler derives a one-time destination for a recipient
// POST /api/v1/stealth/derive
func (h *StealthHandler) DeriveAddressHandler(c *gin.Context) {
	var req types.StealthAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	viewPub, err := utils.ParsePublicKey(req.RecipientViewPub)
	if err != nil {
		respondBadRequest(c, "Invalid recipient_view_pub: "+err.Error())
		return
	}

	ephemeral, err := stealth.GenerateEphemeralKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Ephemeral key generation failed",
			"code":    "KEYGEN_FAILED",
		})
		return
	}

	stealthPub, ephemeralPub, err := stealth.GenerateStealthAddress(viewPub, ephemeral)
	if err != nil {
		respondBadRequest(c, "Derivation failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"stealth_pub":   utils.EncodePublicKey(stealthPub),
		"ephemeral_pub": utils.EncodePublicKey(ephemeralPub),
		"owner_key":     stealth.OwnerKeyField(stealthPub).Hex(),
	})
}

// CheckOwnershipHandler tests whether a stealth address belongs to a view key
// POST /api/v1/stealth/check
func (h *StealthHandler) CheckOwnershipHandler(c *gin.Context) {
	var req types.StealthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	viewPriv, err := utils.ParsePrivateScalar(req.ViewPriv)
	if err != nil {
		respondBadRequest(c, "Invalid view_priv: "+err.Error())
		return
	}
	ephemeralPub, err := utils.ParsePublicKey(req.EphemeralPub)
	if err != nil {
		respondBadRequest(c, "Invalid ephemeral_pub: "+err.Error())
		return
	}
	stealthPub, err := utils.ParsePublicKey(req.StealthPub)
	if err != nil {
		respondBadRequest(c, "Invalid stealth_pub: "+err.Error())
		return
	}

	owned := stealth.CheckOwnership(viewPriv, ephemeralPub, stealthPub)

	resp := gin.H{
		"success": true,
		"owned":   owned,
	}
	if owned {
		// only the view key holder can reach this branch, so deriving the
		// spending scalar here leaks nothing they could not compute
		spendPriv, err := stealth.DeriveStealthPrivateKey(viewPriv, ephemeralPub)
		if err == nil {
			resp["stealth_priv"] = fmt.Sprintf("0x%064x", spendPriv.D)
		}
	}

	c.JSON(http.StatusOK, resp)
}
