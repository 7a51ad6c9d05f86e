package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/shared-wallet-ledger/internal/config"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/events/memory"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/httpapi"
	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/ledger"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/logging"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/transfer"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	// run has released the store and the writers by the time it returns
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parse := httpapi.EVMIdentity
	if cfg.AddressFormat == config.AddressAny {
		parse = httpapi.AnyIdentity
	}
	owner, err := parse(cfg.Owner)
	if err != nil {
		return err
	}

	store, closeStore, err := storage.Open(ctx, cfg.StoreDriver, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	var publisher interfaces.EventPublisher = memory.NewRecorder(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
	}

	var transferer interfaces.Transferer = transfer.NewBook()
	if cfg.TransferDriver == config.TransferKafka {
		kafkaTransferer := transfer.NewKafkaTransferer(cfg.KafkaBrokers)
		defer func() { _ = kafkaTransferer.Close() }()
		transferer = kafkaTransferer
	}

	ledgerService, err := ledger.NewLedger(ctx, owner, store,
		ledger.WithPublisher(publisher),
		ledger.WithTransferer(transferer),
		ledger.WithLogger(logger.Named("ledger")),
	)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(ledgerService, parse, logger.Named("http"))
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(handler, []byte(cfg.JWTSecret)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
