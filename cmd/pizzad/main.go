package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pizzachain/config"
	"pizzachain/core"
	"pizzachain/core/events"
	"pizzachain/observability/logging"
	"pizzachain/rpc"
	"pizzachain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PIZZA_ENV"))
	logger := logging.Setup("pizzad", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	price, err := cfg.Price()
	if err != nil {
		logger.Error("Failed to parse price", slog.Any("error", err))
		os.Exit(1)
	}
	operator, err := cfg.Operator()
	if err != nil {
		logger.Error("Failed to parse operator address", slog.Any("error", err))
		os.Exit(1)
	}
	updater, err := cfg.OracleUpdater()
	if err != nil {
		logger.Error("Failed to parse oracle updater address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	journal, err := events.OpenJournal(cfg.EventJournalPath, logger)
	if err != nil {
		logger.Error("Failed to open event journal", slog.Any("error", err))
		os.Exit(1)
	}
	defer journal.Close()

	node, err := core.NewNode(db, core.Config{
		Version:           uint8(cfg.ProtocolVersion),
		PricePerPizza:     price,
		AllowMultipleTips: cfg.AllowMultipleTips,
		RegistryEnabled:   cfg.RegistryEnabled,
		Operator:          operator,
		OracleUpdater:     updater,
	})
	if err != nil {
		logger.Error("Failed to start node", slog.Any("error", err))
		os.Exit(1)
	}
	node.SetLogger(logger)
	node.SetEmitter(journal)

	server := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           rpc.NewServer(node, journal, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("RPC listening",
			slog.String("address", cfg.RPCAddress),
			slog.String("network", cfg.NetworkName))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown failed", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
