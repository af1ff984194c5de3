package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-primitives/transfer-service/internal/cache"
	"github.com/wallet-primitives/transfer-service/internal/config"
	"github.com/wallet-primitives/transfer-service/internal/coordinator"
	"github.com/wallet-primitives/transfer-service/internal/httpapi"
	"github.com/wallet-primitives/transfer-service/internal/logger"
	"github.com/wallet-primitives/transfer-service/internal/money"
	"github.com/wallet-primitives/transfer-service/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	log, cleanup := logger.New(cfg.Server.Env)
	defer cleanup()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open database", logger.ErrorField("error", err))
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := cache.NewClient(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DialTimeout)
	if err != nil {
		log.Error("failed to connect to redis", logger.ErrorField("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	maxAmount, err := money.Parse(cfg.Transfer.MaxTransferAmount)
	if err != nil {
		log.Error("invalid MAX_TRANSFER_AMOUNT", logger.ErrorField("error", err))
		os.Exit(1)
	}

	txBeginner := postgres.NewTxBeginner(db)
	wallets := postgres.NewWalletStore(db)
	logs := postgres.NewTransactionLogStore(db)
	ledger := postgres.NewLedgerStore(db)
	resultCache := cache.New(redisClient, log)

	coord := coordinator.New(
		txBeginner,
		wallets,
		logs,
		ledger,
		resultCache,
		log,
		cfg.Transfer.LeaseTTL,
		cfg.Transfer.IdempotencyTTL,
		maxAmount,
		cfg.Transfer.DefaultCurrency,
	)

	walletHandler := httpapi.NewWalletHandler(coord, log)
	server := httpapi.New(walletHandler, log)

	addr := ":" + cfg.Server.Port
	go func() {
		log.Info("starting server", logger.StringField("addr", addr))
		if err := server.Run(addr); err != nil {
			log.Error("server failed", logger.ErrorField("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.ErrorField("error", err))
	}

	log.Info("server exited properly")
}
