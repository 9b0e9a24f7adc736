package customer

import (
	"github.com/example/pickupshop/pkg/models"
)

// OrderFinder is satisfied by the order manager.
type OrderFinder interface {
	FindByCustomer(identifier string) []models.Order
}

// Directory answers customer lookups from order history. Customers are not
// stored on their own; the snapshot on their latest order is the record.
type Directory struct {
	orders OrderFinder
}

func NewDirectory(orders OrderFinder) *Directory {
	return &Directory{orders: orders}
}

// Lookup returns the contact details from the customer's most recent order,
// for prefilling checkout. Identifiers that are not exactly
// models.IdentifierDigits digits after canonicalization never match.
func (d *Directory) Lookup(identifier string) (models.Customer, bool) {
	orders := d.orders.FindByCustomer(identifier)
	if len(orders) == 0 {
		return models.Customer{}, false
	}
	c := orders[0].Customer
	c.Identifier = models.FormatIdentifier(c.CanonicalID)
	return c, true
}

// Orders lists the customer's orders, newest first.
func (d *Directory) Orders(identifier string) []models.Order {
	return d.orders.FindByCustomer(identifier)
}
