package grpc

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Discoverer is satisfied by *discovery.ServiceDiscovery.
type Discoverer interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

// ClientManager owns the connection to the reservation service.
type ClientManager struct {
	config    *config.Config
	discovery Discoverer
	logger    *zap.Logger

	reservationClient *ReservationClient
	reservationConn   *grpc.ClientConn
}

// NewClientManager creates a client manager. disc may be nil, in which case
// the configured server address is used.
func NewClientManager(cfg *config.Config, logger *zap.Logger, disc Discoverer) *ClientManager {
	return &ClientManager{
		config:    cfg,
		discovery: disc,
		logger:    logger.Named("grpc-client"),
	}
}

// Connect establishes the connection to the reservation service.
func (m *ClientManager) Connect(ctx context.Context) error {
	target := m.target(ctx)
	m.logger.Info("Connecting to reservation service", zap.String("target", target))

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to reservation service: %w", err)
	}

	m.reservationConn = conn
	m.reservationClient = NewReservationClient(conn)
	return nil
}

func (m *ClientManager) target(ctx context.Context) string {
	target := fallbackTarget(m.config.Server)

	if m.discovery != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		instances, err := m.discovery.Discover(ctx, m.config.Server.Name)
		if err == nil && len(instances) > 0 {
			target = instances[0].Addr()
			m.logger.Info("Discovered reservation service", zap.String("address", target))
		} else {
			m.logger.Info("Using default address for reservation service", zap.String("address", target), zap.Error(err))
		}
	}
	return target
}

// fallbackTarget turns a listen address into a dialable one.
func fallbackTarget(s config.ServerConfig) string {
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}

func (m *ClientManager) Reservations() *ReservationClient {
	return m.reservationClient
}

func (m *ClientManager) Close() error {
	if m.reservationConn != nil {
		if err := m.reservationConn.Close(); err != nil {
			return fmt.Errorf("reservation connection close error: %w", err)
		}
	}
	return nil
}
