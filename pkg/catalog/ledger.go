package catalog

import (
	"fmt"

	"github.com/example/pickupshop/pkg/models"
	"go.uber.org/zap"
)

// Available returns the stock of the named variant, or the flat stock for a
// product without variants regardless of label. Unknown labels have no stock.
func (s *Store) Available(productID, label string) (int, error) {
	var n int
	err := s.withEntry(productID, func(p *models.Product) error {
		n = available(p, label)
		return nil
	})
	return n, err
}

// Reserve takes qty units out of stock. It never oversells: when qty exceeds
// the available stock nothing changes and an *InsufficientStockError is
// returned.
func (s *Store) Reserve(productID, label string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.withEntry(productID, func(p *models.Product) error {
		avail := available(p, label)
		if qty > avail {
			return &InsufficientStockError{
				ProductID: productID,
				Variant:   label,
				Requested: qty,
				Available: avail,
			}
		}
		adjust(p, label, -qty)
		p.UpdatedAt = s.now()
		return nil
	})
}

// Release puts qty units back into stock. Releasing an unknown variant label
// changes nothing.
func (s *Store) Release(productID, label string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.withEntry(productID, func(p *models.Product) error {
		if !adjust(p, label, qty) {
			s.logger.Warn("Release for unknown variant ignored",
				zap.String("product_id", productID),
				zap.String("variant", label),
				zap.Int("quantity", qty))
			return nil
		}
		p.UpdatedAt = s.now()
		return nil
	})
}

// withEntry runs fn with the product's stock lock held. The table read lock
// keeps Upsert and Delete from swapping the product out underneath.
func (s *Store) withEntry(productID string, fn func(p *models.Product) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.product)
}

func available(p *models.Product, label string) int {
	if !p.HasVariants() {
		return p.Stock
	}
	if i, ok := p.Variant(label); ok {
		return p.Variants[i].Stock
	}
	return 0
}

func adjust(p *models.Product, label string, delta int) bool {
	if !p.HasVariants() {
		p.Stock += delta
		return true
	}
	i, ok := p.Variant(label)
	if !ok {
		return false
	}
	p.Variants[i].Stock += delta
	p.Stock = p.TotalStock()
	return true
}
