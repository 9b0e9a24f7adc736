package actors

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/pickupshop/pkg/models"
	"go.uber.org/zap"
)

// ExpiryJustification is recorded on orders cancelled by the sweeper.
const ExpiryJustification = "pickup window expired"

// OrderService is what the sweeper needs from the order lifecycle, either
// in-process or over gRPC.
type OrderService interface {
	Expired(ctx context.Context, now time.Time, window time.Duration) ([]models.Order, error)
	Cancel(ctx context.Context, id, justification string) (models.Order, error)
}

// ExpiryActor cancels orders that stayed awaiting pickup for longer than
// the pickup window. Sweeps are processed one at a time by the mailbox.
type ExpiryActor struct {
	orders  OrderService
	window  time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

func (a *ExpiryActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Sweep:
		result := a.sweep(msg.Now)
		if ctx.Sender() != nil {
			ctx.Respond(result)
		}

	case *actor.Started:
		a.logger.Info("Expiry actor started", zap.Duration("pickup_window", a.window))

	case *actor.Stopped:
		a.logger.Info("Expiry actor stopped")
	}
}

func (a *ExpiryActor) sweep(now time.Time) *SweepResult {
	if now.IsZero() {
		now = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	result := &SweepResult{}
	expired, err := a.orders.Expired(ctx, now, a.window)
	if err != nil {
		a.logger.Error("Failed to list expired orders", zap.Error(err))
		result.Failed++
		return result
	}

	for _, o := range expired {
		if _, err := a.orders.Cancel(ctx, o.ID, ExpiryJustification); err != nil {
			// Usually a concurrent pickup or cancel won the race.
			a.logger.Warn("Failed to cancel expired order",
				zap.String("order_id", o.ID),
				zap.String("number", o.Number),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Cancelled = append(result.Cancelled, o.ID)
	}

	if len(expired) > 0 {
		a.logger.Info("Expiry sweep finished",
			zap.Int("cancelled", len(result.Cancelled)),
			zap.Int("failed", result.Failed))
	}
	return result
}
