package grpc

import (
	"time"

	"github.com/example/pickupshop/pkg/models"
)

type LineRequest struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Customer models.Customer `json:"customer"`
	Lines    []LineRequest   `json:"lines"`
}

type CancelRequest struct {
	OrderID       string `json:"order_id"`
	Justification string `json:"justification"`
}

type SetStatusRequest struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type ListOrdersRequest struct{}

type FindByCustomerRequest struct {
	Identifier string `json:"identifier"`
}

type ListExpiredRequest struct {
	Now    time.Time     `json:"now"`
	Window time.Duration `json:"window"`
}

type ListProductsRequest struct{}

type OrderReply struct {
	Order models.Order `json:"order"`
}

type OrdersReply struct {
	Orders []models.Order `json:"orders"`
}

type ProductsReply struct {
	Products []models.Product `json:"products"`
}
