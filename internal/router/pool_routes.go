package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/handlers"
	"shieldpool/internal/middleware"
	"shieldpool/internal/pool"
	"shieldpool/internal/services"
)

// SetupPoolRoutes registers all /api routes.
func SetupPoolRoutes(r *gin.Engine, poolService *services.PoolService, registry pool.AssetRegistry, fees *pool.MemoryFeeLedger, localhostOnly *middleware.LocalhostOnly, logger *logrus.Logger) {
	poolHandler := handlers.NewPoolHandler(poolService, logger)
	ledgerHandler := handlers.NewLedgerHandler(poolService, logger)
	stealthHandler := handlers.NewStealthHandler()
	adminPoolHandler := handlers.NewAdminPoolHandler(poolService, registry, fees, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(logger)
	wsHandler := handlers.NewWebSocketHandler()

	adminAuth := middleware.NewAdminAuthMiddleware(logger)

	// ============ Health ============
	r.GET("/api/health", handlers.HealthCheckHandler)

	// ============ WebSocket ============
	r.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	// ============ Pool Operations (public) ============
	poolGroup := r.Group("/api/v1/pool")
	{
		poolGroup.POST("/shield", poolHandler.ShieldHandler)
		poolGroup.POST("/transfer", poolHandler.TransferHandler)
		poolGroup.POST("/unshield", poolHandler.UnshieldHandler)
		poolGroup.POST("/relay/transfer", poolHandler.RelayTransferHandler)
		poolGroup.POST("/relay/unshield", poolHandler.RelayUnshieldHandler)

		poolGroup.GET("/stats", poolHandler.StatsHandler)
		poolGroup.GET("/root", poolHandler.RootHandler)
		poolGroup.GET("/root/:root", poolHandler.RootStatusHandler)
		poolGroup.GET("/nullifier/:nullifier", poolHandler.NullifierStatusHandler)
		poolGroup.GET("/asset/:assetId", poolHandler.AssetStatusHandler)
		poolGroup.GET("/nonce/:signer", poolHandler.NonceHandler)
		poolGroup.GET("/proof-path/:leafIndex", poolHandler.ProofPathHandler)
		poolGroup.GET("/relayer/:relayer/balance", poolHandler.RelayerBalanceHandler)
	}

	// ============ Stealth Addresses ============
	stealthGroup := r.Group("/api/v1/stealth")
	{
		stealthGroup.POST("/keypair", stealthHandler.GenerateKeyPairHandler)
		stealthGroup.POST("/derive", stealthHandler.DeriveAddressHandler)
		stealthGroup.POST("/check", stealthHandler.CheckOwnershipHandler)
	}

	// ============ Operation Journal ============
	ledgerGroup := r.Group("/api/v1/ledger")
	{
		ledgerGroup.GET("/commitments", ledgerHandler.ListCommitmentsHandler)
		ledgerGroup.GET("/roots", ledgerHandler.ListRootsHandler)
		ledgerGroup.GET("/relayed/:signer", ledgerHandler.ListRelayedOperationsHandler)
	}

	// ============ Admin (IP whitelist + admin JWT) ============
	r.POST("/api/admin/login", localhostOnly.Restrict(), adminAuthHandler.LoginHandler)

	adminGroup := r.Group("/api/admin")
	adminGroup.Use(localhostOnly.Restrict(), adminAuth.RequireAdminAuth())
	{
		adminGroup.POST("/pool/mint", adminPoolHandler.MintShieldedHandler)
		adminGroup.GET("/pool/mint/next/:metadataTag", adminPoolHandler.NextMintAssetIDHandler)
		adminGroup.POST("/pool/assets", adminPoolHandler.RegisterAssetHandler)
		adminGroup.POST("/pool/fees/fund", adminPoolHandler.FundFeePoolHandler)
		adminGroup.GET("/pool/fees", adminPoolHandler.FeePoolBalanceHandler)
	}
}
