package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusAwaitingPickup OrderStatus = "awaiting_pickup"
	StatusPickedUp       OrderStatus = "picked_up"
	StatusCancelled      OrderStatus = "cancelled"
)

var statusLabels = map[OrderStatus]string{
	StatusAwaitingPickup: "Aguardando Retirada",
	StatusPickedUp:       "Retirado (Pago)",
	StatusCancelled:      "Cancelado",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPickedUp || s == StatusCancelled
}

// Label is the storefront display text.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// OrderLine is frozen at checkout and never re-read from the live product.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID                  string          `json:"id"`
	Number              string          `json:"number"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Customer            Customer        `json:"customer"`
	Lines               []OrderLine     `json:"lines"`
	Total               decimal.Decimal `json:"total"`
	Status              OrderStatus     `json:"status"`
	CancelJustification string          `json:"cancel_justification,omitempty"`
}

func (o *Order) Clone() Order {
	c := *o
	if o.Lines != nil {
		c.Lines = make([]OrderLine, len(o.Lines))
		copy(c.Lines, o.Lines)
	}
	return c
}
