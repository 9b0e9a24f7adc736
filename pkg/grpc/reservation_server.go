package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/example/pickupshop/pkg/cart"
	"github.com/example/pickupshop/pkg/catalog"
	"github.com/example/pickupshop/pkg/models"
	"github.com/example/pickupshop/pkg/order"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// Lifecycle is the order manager API exposed over gRPC.
type Lifecycle interface {
	Checkout(ctx context.Context, c *cart.Cart, customer models.Customer) (models.Order, error)
	Cancel(ctx context.Context, id, justification string) (models.Order, error)
	SetStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)
	Get(id string) (models.Order, error)
	List() []models.Order
	FindByCustomer(identifier string) []models.Order
	Expired(now time.Time, window time.Duration) []models.Order
}

type Catalog interface {
	cart.Inventory
	List() []models.Product
}

type ReservationServer struct {
	orders  Lifecycle
	catalog Catalog
	logger  *zap.Logger
	srv     *grpc.Server
}

func NewReservationServer(orders Lifecycle, cat Catalog, logger *zap.Logger) *ReservationServer {
	s := &ReservationServer{
		orders:  orders,
		catalog: cat,
		logger:  logger.Named("grpc"),
	}
	s.srv = grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(s.logger)))
	RegisterReservationServiceServer(s.srv, s)
	reflection.Register(s.srv)
	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *ReservationServer) Serve(lis net.Listener) error {
	s.logger.Info("Reservation service started", zap.String("address", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *ReservationServer) Stop() {
	s.srv.GracefulStop()
}

func (s *ReservationServer) Checkout(ctx context.Context, req *CheckoutRequest) (*OrderReply, error) {
	c := cart.New(s.catalog)
	for _, l := range req.Lines {
		if err := fillLine(s.catalog, c, l); err != nil {
			return nil, toStatus(err)
		}
	}

	o, err := s.orders.Checkout(ctx, c, req.Customer)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderReply{Order: o}, nil
}

// fillLine puts l into c, refusing quantities the catalog cannot cover.
func fillLine(inv cart.Inventory, c *cart.Cart, l LineRequest) error {
	if l.Quantity < 1 {
		return fmt.Errorf("line %s/%s: %w", l.ProductID, l.Variant, catalog.ErrInvalidQuantity)
	}
	short := func() error {
		available, err := inv.Available(l.ProductID, l.Variant)
		if err != nil {
			return err
		}
		return &catalog.InsufficientStockError{
			ProductID: l.ProductID,
			Variant:   l.Variant,
			Requested: l.Quantity,
			Available: available,
		}
	}

	ok, err := c.Add(l.ProductID, l.Variant)
	if err != nil {
		return err
	}
	if !ok {
		return short()
	}
	if l.Quantity > 1 && !c.SetQuantity(cart.LineID(l.ProductID, l.Variant), l.Quantity-1) {
		return short()
	}
	return nil
}

func (s *ReservationServer) Cancel(ctx context.Context, req *CancelRequest) (*OrderReply, error) {
	o, err := s.orders.Cancel(ctx, req.OrderID, req.Justification)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderReply{Order: o}, nil
}

func (s *ReservationServer) SetStatus(ctx context.Context, req *SetStatusRequest) (*OrderReply, error) {
	o, err := s.orders.SetStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderReply{Order: o}, nil
}

func (s *ReservationServer) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderReply, error) {
	o, err := s.orders.Get(req.OrderID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderReply{Order: o}, nil
}

func (s *ReservationServer) ListOrders(ctx context.Context, req *ListOrdersRequest) (*OrdersReply, error) {
	return &OrdersReply{Orders: s.orders.List()}, nil
}

func (s *ReservationServer) FindByCustomer(ctx context.Context, req *FindByCustomerRequest) (*OrdersReply, error) {
	return &OrdersReply{Orders: s.orders.FindByCustomer(req.Identifier)}, nil
}

func (s *ReservationServer) ListExpired(ctx context.Context, req *ListExpiredRequest) (*OrdersReply, error) {
	if req.Window <= 0 {
		return nil, status.Error(codes.InvalidArgument, "window must be positive")
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &OrdersReply{Orders: s.orders.Expired(now, req.Window)}, nil
}

func (s *ReservationServer) ListProducts(ctx context.Context, req *ListProductsRequest) (*ProductsReply, error) {
	return &ProductsReply{Products: s.catalog.List()}, nil
}

func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrInvalidTransition):
		code = codes.FailedPrecondition
	case errors.Is(err, order.ErrInvalidJustification),
		errors.Is(err, order.ErrJustificationRequired),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrMissingCustomer),
		errors.Is(err, catalog.ErrInvalidQuantity):
		code = codes.InvalidArgument
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
