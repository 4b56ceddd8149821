package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/clients"
	"shieldpool/internal/config"
	"shieldpool/internal/db"
	"shieldpool/internal/events"
	"shieldpool/internal/pool"
	"shieldpool/internal/relay"
	"shieldpool/internal/router"
	"shieldpool/internal/services"
)

func main() {
	// ============ Configuration ============
	if err := config.LoadConfig(os.Getenv("CONFIG_PATH")); err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("GIN_MODE") != "release" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// ============ Database ============
	db.InitDB()

	// ============ NATS ============
	if err := events.InitNATSServices(); err != nil {
		log.Printf("⚠️ NATS initialization failed, continuing without events: %v", err)
	}

	// ============ Pool wiring ============
	verifierClient := clients.NewVerifierClient(config.GetVerifierURL(), logger)

	registry := services.NewRegistryService(db.DB, logger)

	feeSeed := new(big.Int)
	if config.AppConfig.Pool.FeePoolBalance != "" {
		if _, ok := feeSeed.SetString(config.AppConfig.Pool.FeePoolBalance, 10); !ok {
			log.Fatalf("❌ Invalid pool.feePoolBalance: %q", config.AppConfig.Pool.FeePoolBalance)
		}
	}
	fees := pool.NewMemoryFeeLedger(feeSeed)

	var maxFee *big.Int
	if config.AppConfig.Relay.MaxFee != "" {
		maxFee = new(big.Int)
		if _, ok := maxFee.SetString(config.AppConfig.Relay.MaxFee, 10); !ok {
			log.Fatalf("❌ Invalid relay.maxFee: %q", config.AppConfig.Relay.MaxFee)
		}
	}

	domain := relay.Domain{
		Name:    config.AppConfig.Relay.DomainName,
		Version: config.AppConfig.Relay.DomainVersion,
		ChainID: config.AppConfig.Relay.ChainID,
		PoolID:  common.HexToHash(config.AppConfig.Relay.PoolID),
	}

	controller, err := pool.NewController(pool.Config{
		TreeDepth: config.AppConfig.Pool.TreeDepth,
		Domain:    domain,
		Verifier:  verifierClient,
		Registry:  registry,
		Fees:      fees,
		MaxFee:    maxFee,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to create pool controller: %v", err)
	}

	poolService := services.NewPoolService(controller, fees, db.DB, logger)

	// Replay the persisted journal so the in-memory state survives restarts
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := poolService.RestoreState(restoreCtx); err != nil {
		cancelRestore()
		log.Fatalf("❌ Failed to restore pool state: %v", err)
	}
	cancelRestore()

	// ============ HTTP ============
	r := router.SetupRouter(poolService, registry, fees, logger)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Printf("🚀 shieldpool backend listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	// ============ Graceful shutdown ============
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("⏳ Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown error: %v", err)
	}

	events.Shutdown()
	log.Println("✅ Shutdown complete")
}
