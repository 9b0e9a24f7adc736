package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultImage is used for products saved without an image reference.
const DefaultImage = "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?auto=format&fit=crop&w=600&q=80"

// Variant is a stocked sub-option of a product, usually a size.
type Variant struct {
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

// Product is a catalog entry. When Variants is empty the flat Stock is
// authoritative, otherwise Stock is the cached sum of the variant stocks.
type Product struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Price      decimal.Decimal  `json:"price"`
	PromoPrice *decimal.Decimal `json:"promo_price,omitempty"`
	Category   string           `json:"category"`
	Image      string           `json:"image"`
	Stock      int              `json:"stock"`
	Variants   []Variant        `json:"variants,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// TotalStock sums the variant stocks, or returns the flat stock for a
// single-variant product.
func (p *Product) TotalStock() int {
	if !p.HasVariants() {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// Variant returns the index of the variant with the given label.
func (p *Product) Variant(label string) (int, bool) {
	for i := range p.Variants {
		if p.Variants[i].Label == label {
			return i, true
		}
	}
	return -1, false
}

// EffectivePrice is the promotional price when one is set, else the base price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice != nil {
		return *p.PromoPrice
	}
	return p.Price
}

func (p *Product) Clone() Product {
	c := *p
	if p.PromoPrice != nil {
		promo := *p.PromoPrice
		c.PromoPrice = &promo
	}
	if p.Variants != nil {
		c.Variants = make([]Variant, len(p.Variants))
		copy(c.Variants, p.Variants)
	}
	return c
}

// Category groups products by name. Products reference categories by name
// only, so a removed or renamed category leaves them uncategorized.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
