package grpc

import (
	"context"
	"time"

	"github.com/example/pickupshop/pkg/models"
	"google.golang.org/grpc"
)

// ReservationClient calls ReservationService with the JSON codec.
type ReservationClient struct {
	cc grpc.ClientConnInterface
}

func NewReservationClient(cc grpc.ClientConnInterface) *ReservationClient {
	return &ReservationClient{cc: cc}
}

func (c *ReservationClient) invoke(ctx context.Context, method string, in, out interface{}) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(codecName))
}

func (c *ReservationClient) Checkout(ctx context.Context, customer models.Customer, lines []LineRequest) (models.Order, error) {
	out := new(OrderReply)
	err := c.invoke(ctx, "Checkout", &CheckoutRequest{Customer: customer, Lines: lines}, out)
	return out.Order, err
}

func (c *ReservationClient) Cancel(ctx context.Context, id, justification string) (models.Order, error) {
	out := new(OrderReply)
	err := c.invoke(ctx, "Cancel", &CancelRequest{OrderID: id, Justification: justification}, out)
	return out.Order, err
}

func (c *ReservationClient) SetStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	out := new(OrderReply)
	err := c.invoke(ctx, "SetStatus", &SetStatusRequest{OrderID: id, Status: status}, out)
	return out.Order, err
}

func (c *ReservationClient) GetOrder(ctx context.Context, id string) (models.Order, error) {
	out := new(OrderReply)
	err := c.invoke(ctx, "GetOrder", &GetOrderRequest{OrderID: id}, out)
	return out.Order, err
}

func (c *ReservationClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	out := new(OrdersReply)
	err := c.invoke(ctx, "ListOrders", &ListOrdersRequest{}, out)
	return out.Orders, err
}

func (c *ReservationClient) FindByCustomer(ctx context.Context, identifier string) ([]models.Order, error) {
	out := new(OrdersReply)
	err := c.invoke(ctx, "FindByCustomer", &FindByCustomerRequest{Identifier: identifier}, out)
	return out.Orders, err
}

// Expired lists orders awaiting pickup for longer than window.
func (c *ReservationClient) Expired(ctx context.Context, now time.Time, window time.Duration) ([]models.Order, error) {
	out := new(OrdersReply)
	err := c.invoke(ctx, "ListExpired", &ListExpiredRequest{Now: now, Window: window}, out)
	return out.Orders, err
}

func (c *ReservationClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	out := new(ProductsReply)
	err := c.invoke(ctx, "ListProducts", &ListProductsRequest{}, out)
	return out.Products, err
}
