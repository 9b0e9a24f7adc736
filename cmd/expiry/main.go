package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/pickupshop/pkg/actors"
	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/discovery"
	"github.com/example/pickupshop/pkg/grpc"
	"go.uber.org/zap"
)

func main() {
	path := os.Getenv("PICKUPSHOP_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting expiry worker",
		zap.Duration("pickup_window", cfg.Expiry.PickupWindow),
		zap.Duration("sweep_interval", cfg.Expiry.SweepInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var disc grpc.Discoverer
	if cfg.Etcd.Enabled {
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			defer sd.Close()
			disc = sd
		}
	}

	clients := grpc.NewClientManager(cfg, logger, disc)
	if err := clients.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect to reservation service", zap.Error(err))
	}
	defer clients.Close()

	system := actors.NewSystem(logger)
	defer system.Stop()

	pid, err := system.SpawnExpiry(clients.Reservations(), cfg.Expiry.PickupWindow, 30*time.Second)
	if err != nil {
		logger.Fatal("Failed to start expiry actor", zap.Error(err))
	}

	system.RunSweeper(ctx, pid, cfg.Expiry.SweepInterval)
	logger.Info("Expiry worker stopped")
}
