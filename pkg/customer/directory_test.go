package customer

import (
	"testing"
	"time"

	"github.com/example/pickupshop/pkg/models"
	"github.com/stretchr/testify/assert"
)

type stubOrders []models.Order

// FindByCustomer mirrors the manager: exact canonical match, newest first.
func (s stubOrders) FindByCustomer(identifier string) []models.Order {
	canonical := models.CanonicalIdentifier(identifier)
	out := []models.Order{}
	if len(canonical) != models.IdentifierDigits {
		return out
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Customer.CanonicalID == canonical {
			out = append(out, s[i])
		}
	}
	return out
}

func order(id, name, phone string, at time.Time) models.Order {
	c := models.Customer{Identifier: "12345678901", Name: name, Phone: phone}.Normalize()
	return models.Order{ID: id, Customer: c, CreatedAt: at}
}

func TestLookupUsesMostRecentOrder(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDirectory(stubOrders{
		order("a", "Maria", "1111", base),
		order("b", "Maria S.", "2222", base.Add(time.Hour)),
	})

	c, ok := d.Lookup("123.456.789-01")
	assert.True(t, ok)
	assert.Equal(t, "Maria S.", c.Name)
	assert.Equal(t, "2222", c.Phone)
	assert.Equal(t, "123.456.789-01", c.Identifier)
	assert.Equal(t, "12345678901", c.CanonicalID)

	assert.Len(t, d.Orders("12345678901"), 2)
	assert.Equal(t, "b", d.Orders("12345678901")[0].ID)
}

func TestLookupRequiresFullIdentifier(t *testing.T) {
	t.Parallel()
	d := NewDirectory(stubOrders{order("a", "Maria", "1111", time.Now())})

	_, ok := d.Lookup("1234567890")
	assert.False(t, ok)
	_, ok = d.Lookup("98765432100")
	assert.False(t, ok)
	assert.Empty(t, d.Orders(""))
}
