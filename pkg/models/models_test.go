package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalIdentifier(t *testing.T) {
	assert.Equal(t, "11144477735", CanonicalIdentifier("111.444.777-35"))
	assert.Equal(t, "11144477735", CanonicalIdentifier("11144477735"))
	assert.Equal(t, "", CanonicalIdentifier("abc"))
	assert.Equal(t, CanonicalIdentifier("111.444.777-35"), CanonicalIdentifier(CanonicalIdentifier("111.444.777-35")))
}

func TestFormatIdentifier(t *testing.T) {
	assert.Equal(t, "111.444.777-35", FormatIdentifier("11144477735"))
	assert.Equal(t, "111.444.777-35", FormatIdentifier("111.444.777-3599"))
	assert.Equal(t, "111.4", FormatIdentifier("1114"))
	assert.Equal(t, "", FormatIdentifier(""))
}

func TestCustomerNormalize(t *testing.T) {
	c := Customer{Identifier: " 111.444.777-35 ", Name: " Ana ", Phone: " 11999 "}.Normalize()
	assert.Equal(t, "11144477735", c.CanonicalID)
	assert.Equal(t, "Ana", c.Name)
	assert.True(t, c.Complete())

	assert.False(t, Customer{Identifier: "---", Name: "Ana", Phone: "1"}.Normalize().Complete())
}

func TestProductStockAndPrice(t *testing.T) {
	promo := decimal.Zero
	p := Product{
		Price:      decimal.RequireFromString("59.90"),
		PromoPrice: &promo,
		Stock:      99,
		Variants:   []Variant{{Label: "P", Stock: 2}, {Label: "M", Stock: 3}},
	}
	assert.Equal(t, 5, p.TotalStock())
	assert.True(t, p.EffectivePrice().IsZero(), "a zero promo price still applies")

	i, ok := p.Variant("M")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = p.Variant("XL")
	assert.False(t, ok)

	c := p.Clone()
	c.Variants[0].Stock = 10
	*c.PromoPrice = decimal.NewFromInt(1)
	assert.Equal(t, 2, p.Variants[0].Stock)
	assert.True(t, p.PromoPrice.IsZero())
}

func TestOrderStatus(t *testing.T) {
	assert.False(t, StatusAwaitingPickup.IsTerminal())
	assert.True(t, StatusPickedUp.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.Equal(t, "Cancelado", StatusCancelled.Label())
}

func TestOrderLineSubtotal(t *testing.T) {
	l := OrderLine{Quantity: 3, UnitPrice: decimal.RequireFromString("129.90")}
	assert.True(t, decimal.RequireFromString("389.70").Equal(l.Subtotal()))
}
