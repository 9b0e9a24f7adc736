package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/example/pickupshop/pkg/catalog"
	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/discovery"
	"github.com/example/pickupshop/pkg/models"
	"github.com/example/pickupshop/pkg/order"
	"github.com/example/pickupshop/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var buyer = models.Customer{Identifier: "123.456.789-01", Name: "Maria", Phone: "11 99999-0000"}

func startServer(t *testing.T) (*ReservationClient, *catalog.Store) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewCollections(repository.NewMemoryStore(), "test")
	store, err := catalog.Open(ctx, repo, zap.NewNop())
	require.NoError(t, err)
	manager, err := order.NewManager(ctx, order.Options{Catalog: store, Repository: repo})
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := NewReservationServer(manager, store, zap.NewNop())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewReservationClient(conn), store
}

func TestReservationRoundTrip(t *testing.T) {
	client, store := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	o, err := client.Checkout(ctx, buyer, []LineRequest{
		{ProductID: "1", Variant: "G", Quantity: 2},
		{ProductID: "2", Variant: "38", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingPickup, o.Status)
	assert.Equal(t, "249.70", o.Total.StringFixed(2))

	n, err := store.Available("1", "G")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := client.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, got.Number)

	found, err := client.FindByCustomer(ctx, "12345678901")
	require.NoError(t, err)
	require.Len(t, found, 1)

	picked, err := client.SetStatus(ctx, o.ID, models.StatusPickedUp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPickedUp, picked.Status)

	_, err = client.Cancel(ctx, o.ID, "changed mind")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	all, err := client.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestReservationErrorCodes(t *testing.T) {
	client, store := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.Checkout(ctx, buyer, []LineRequest{{ProductID: "2", Variant: "42", Quantity: 2}})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "requested 2, available 1")
	n, err := store.Available("2", "42")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = client.Checkout(ctx, buyer, []LineRequest{{ProductID: "nope", Quantity: 1}})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Checkout(ctx, buyer, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetOrder(ctx, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	o, err := client.Checkout(ctx, buyer, []LineRequest{{ProductID: "1", Variant: "P", Quantity: 1}})
	require.NoError(t, err)
	_, err = client.Cancel(ctx, o.ID, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.SetStatus(ctx, o.ID, models.StatusCancelled)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Expired(ctx, time.Now(), 0)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestReservationExpired(t *testing.T) {
	client, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	o, err := client.Checkout(ctx, buyer, []LineRequest{{ProductID: "1", Variant: "M", Quantity: 1}})
	require.NoError(t, err)

	expired, err := client.Expired(ctx, o.CreatedAt.Add(25*time.Hour), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, o.ID, expired[0].ID)

	expired, err = client.Expired(ctx, o.CreatedAt.Add(time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

type staticDiscoverer []*discovery.ServiceInstance

func (s staticDiscoverer) Discover(context.Context, string) ([]*discovery.ServiceInstance, error) {
	return s, nil
}

func TestClientManagerTarget(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Name: "reservation-service", Host: "0.0.0.0", Port: 50052}}

	m := NewClientManager(cfg, zap.NewNop(), nil)
	assert.Equal(t, "localhost:50052", m.target(context.Background()))

	m = NewClientManager(cfg, zap.NewNop(), staticDiscoverer{{Name: "reservation-service", Host: "10.1.2.3", Port: 6000}})
	assert.Equal(t, "10.1.2.3:6000", m.target(context.Background()))

	m = NewClientManager(cfg, zap.NewNop(), staticDiscoverer{})
	assert.Equal(t, "localhost:50052", m.target(context.Background()))
}
