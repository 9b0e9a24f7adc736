package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/pickupshop/gateway"
	"github.com/example/pickupshop/pkg/actors"
	"github.com/example/pickupshop/pkg/catalog"
	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/customer"
	"github.com/example/pickupshop/pkg/discovery"
	"github.com/example/pickupshop/pkg/events"
	"github.com/example/pickupshop/pkg/grpc"
	"github.com/example/pickupshop/pkg/order"
	"github.com/example/pickupshop/pkg/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	publishTimeout = 5 * time.Second
	sweepTimeout   = 30 * time.Second
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Reservation service failed", zap.Error(err))
	}
	logger.Info("Service stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting reservation service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend))

	blobs, closeBlobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBlobs()
	repo := repository.NewCollections(blobs, cfg.Storage.KeyPrefix)

	store, err := catalog.Open(ctx, repo, logger)
	if err != nil {
		return err
	}

	sinks, history, closeSinks := openSinks(cfg, logger)
	defer closeSinks()

	// Stopped before the sinks close so queued events drain first.
	system := actors.NewSystem(logger)
	defer system.Stop()

	opts := order.Options{Catalog: store, Repository: repo, Logger: logger}
	if len(sinks) > 0 {
		forwarder, err := system.SpawnForwarder(sinks, publishTimeout)
		if err != nil {
			return err
		}
		opts.Events = forwarder
	}
	manager, err := order.NewManager(ctx, opts)
	if err != nil {
		return err
	}

	var gwOpts []gateway.Option
	if history != nil {
		gwOpts = append(gwOpts, gateway.WithHistory(history))
	}
	gw := gateway.NewGateway(cfg, logger, store, manager, customer.NewDirectory(manager), gwOpts...)
	rpc := grpc.NewReservationServer(manager, store, logger)

	var expiry *actor.PID
	if cfg.Expiry.Enabled {
		expiry, err = system.SpawnExpiry(actors.LocalOrders(manager), cfg.Expiry.PickupWindow, sweepTimeout)
		if err != nil {
			return err
		}
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(gw.Start)
	g.Go(func() error { return rpc.Serve(lis) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rpc.Stop()
		return gw.Shutdown(shutdownCtx)
	})

	if expiry != nil {
		g.Go(func() error {
			system.RunSweeper(gctx, expiry, cfg.Expiry.SweepInterval)
			return nil
		})
	}

	if cfg.Etcd.Enabled {
		deregister, err := register(gctx, cfg, logger)
		if err != nil {
			logger.Warn("Service discovery unavailable", zap.Error(err))
		} else {
			defer deregister()
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openBlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.BlobStore, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		r := repository.NewRedisRepository(&cfg.Redis)
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		logger.Info("Redis connected successfully")
		return r, func() { r.Close() }, nil
	case "mysql":
		s, err := repository.NewMySQLStore(&cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("MySQL connected successfully")
		return s, func() { s.Close() }, nil
	default:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}
}

// openSinks connects the optional event destinations. The MongoDB audit
// log doubles as the order history reader. Either one failing to
// connect is logged and skipped.
func openSinks(cfg *config.Config, logger *zap.Logger) (events.MultiSink, *repository.MongoRepository, func()) {
	var (
		sinks   events.MultiSink
		history *repository.MongoRepository
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MongoDB.Enabled {
		mongo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB audit log disabled", zap.Error(err))
		} else {
			sinks = append(sinks, mongo)
			history = mongo
			closers = append(closers, func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				mongo.Close(closeCtx)
			})
		}
	}

	if cfg.RabbitMQ.Enabled {
		conn, ch, err := events.Connect(&cfg.RabbitMQ, 5, 2*time.Second, logger)
		if err != nil {
			logger.Warn("RabbitMQ event publishing disabled", zap.Error(err))
		} else {
			sinks = append(sinks, events.NewPublisher(ch, cfg.RabbitMQ.Exchange))
			closers = append(closers, func() {
				ch.Close()
				conn.Close()
			})
		}
	}

	return sinks, history, closeAll
}

func register(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(), error) {
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		return nil, err
	}

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	if err := sd.Register(ctx, instance); err != nil {
		sd.Close()
		return nil, err
	}
	logger.Info("Service registered in etcd",
		zap.String("name", instance.Name),
		zap.String("address", instance.Addr()))

	return func() {
		deregCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sd.Deregister(deregCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}, nil
}
