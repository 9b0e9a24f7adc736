package cart

import (
	"fmt"

	"github.com/example/pickupshop/pkg/models"
	"github.com/shopspring/decimal"
)

// singleLabel stands in for the empty variant label in line IDs.
const singleLabel = "single"

// Inventory is the read side of the catalog a cart needs.
type Inventory interface {
	Get(id string) (models.Product, error)
	Available(productID, label string) (int, error)
}

type Line struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

// LineID keys a cart line by product and variant.
func LineID(productID, label string) string {
	if label == "" {
		label = singleLabel
	}
	return fmt.Sprintf("%s-%s", productID, label)
}

// Cart accumulates desired lines for one session. It never reserves stock;
// quantities are only capped by what is available at the time of each change.
// A Cart is not safe for concurrent use.
type Cart struct {
	inventory Inventory
	lines     []Line
}

func New(inventory Inventory) *Cart {
	return &Cart{inventory: inventory}
}

// Add creates a line with quantity 1 or increments an existing one. It
// reports false without error when availability does not allow one more.
func (c *Cart) Add(productID, label string) (bool, error) {
	avail, err := c.inventory.Available(productID, label)
	if err != nil {
		return false, err
	}

	id := LineID(productID, label)
	if i := c.index(id); i >= 0 {
		if c.lines[i].Quantity+1 > avail {
			return false, nil
		}
		c.lines[i].Quantity++
		return true, nil
	}

	if avail < 1 {
		return false, nil
	}
	c.lines = append(c.lines, Line{ID: id, ProductID: productID, Variant: label, Quantity: 1})
	return true, nil
}

func (c *Cart) Remove(lineID string) bool {
	i := c.index(lineID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// SetQuantity applies a signed delta. Results below 1 or above the available
// stock are rejected and leave the line unchanged.
func (c *Cart) SetQuantity(lineID string, delta int) bool {
	i := c.index(lineID)
	if i < 0 {
		return false
	}
	next := c.lines[i].Quantity + delta
	if next <= 0 {
		return false
	}
	avail, err := c.inventory.Available(c.lines[i].ProductID, c.lines[i].Variant)
	if err != nil || next > avail {
		return false
	}
	c.lines[i].Quantity = next
	return true
}

// Total sums quantity times effective price over lines whose product still
// exists.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		p, err := c.inventory.Get(l.ProductID)
		if err != nil {
			continue
		}
		total = total.Add(p.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) index(lineID string) int {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
