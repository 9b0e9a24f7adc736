package actors

import (
	"context"
	"time"

	"github.com/example/pickupshop/pkg/models"
)

// Lifecycle is the in-process order manager as seen by the sweeper.
type Lifecycle interface {
	Expired(now time.Time, window time.Duration) []models.Order
	Cancel(ctx context.Context, id, justification string) (models.Order, error)
}

type localOrders struct {
	lifecycle Lifecycle
}

// LocalOrders adapts an in-process order manager to OrderService.
func LocalOrders(l Lifecycle) OrderService {
	return localOrders{lifecycle: l}
}

func (l localOrders) Expired(_ context.Context, now time.Time, window time.Duration) ([]models.Order, error) {
	return l.lifecycle.Expired(now, window), nil
}

func (l localOrders) Cancel(ctx context.Context, id, justification string) (models.Order, error) {
	return l.lifecycle.Cancel(ctx, id, justification)
}
