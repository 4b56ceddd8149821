package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/services"
	"shieldpool/internal/utils"
)

// LedgerHandler serves the persisted operation journal: commitments, roots
// and relayed operations, paginated.
type LedgerHandler struct {
	service *services.PoolService
	logger  *logrus.Logger
}

// NewLedgerHandler creates a new LedgerHandler instance
func NewLedgerHandler(service *services.PoolService, logger *logrus.Logger) *LedgerHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LedgerHandler{service: service, logger: logger}
}

func paginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	return page, pageSize
}

// ListCommitmentsHandler lists persisted tree leaves in insertion order
// GET /api/v1/ledger/commitments?page=1&page_size=50
func (h *LedgerHandler) ListCommitmentsHandler(c *gin.Context) {
	page, pageSize := paginationParams(c)

	records, total, err := h.service.ListCommitments(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("commitment listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Listing failed",
			"code":    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"commitments": records,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
	})
}

// ListRootsHandler lists the permanent root history
// GET /api/v1/ledger/roots?page=1&page_size=50
func (h *LedgerHandler) ListRootsHandler(c *gin.Context) {
	page, pageSize := paginationParams(c)

	records, total, err := h.service.ListRoots(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("root listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Listing failed",
			"code":    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"roots":     records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListRelayedOperationsHandler lists relayed operations for a signer
// GET /api/v1/ledger/relayed/:signer?page=1&page_size=50
func (h *LedgerHandler) ListRelayedOperationsHandler(c *gin.Context) {
	signer, err := utils.ParseAddress(c.Param("signer"))
	if err != nil {
		respondBadRequest(c, "Invalid signer: "+err.Error())
		return
	}

	page, pageSize := paginationParams(c)

	records, total, err := h.service.ListRelayedOperations(c.Request.Context(), signer, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("relayed operation listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Listing failed",
			"code":    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"operations": records,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}
