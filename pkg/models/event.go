package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated   EventType = "order.created"
	EventOrderPickedUp  EventType = "order.picked_up"
	EventOrderCancelled EventType = "order.cancelled"
)

// OrderEvent is emitted after an order mutation has been applied.
type OrderEvent struct {
	Type          EventType       `json:"type"`
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Status        OrderStatus     `json:"status"`
	CustomerID    string          `json:"customer_id"`
	Total         decimal.Decimal `json:"total"`
	Justification string          `json:"justification,omitempty"`
	At            time.Time       `json:"at"`
}

func NewOrderEvent(t EventType, o *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Status:        o.Status,
		CustomerID:    o.Customer.CanonicalID,
		Total:         o.Total,
		Justification: o.CancelJustification,
		At:            at,
	}
}
