package actors

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/pickupshop/pkg/models"
	"go.uber.org/zap"
)

// Sink matches events.Sink.
type Sink interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

// ForwarderActor hands order events to a downstream sink outside the
// request path, in the order they were sent.
type ForwarderActor struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger
}

func (a *ForwarderActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *models.OrderEvent:
		pubCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.sink.Publish(pubCtx, *msg); err != nil {
			a.logger.Error("Failed to forward order event",
				zap.String("type", string(msg.Type)),
				zap.String("order_id", msg.OrderID),
				zap.Error(err))
		}

	case *actor.Started:
		a.logger.Info("Event forwarder started")
	}
}

// AsyncSink enqueues events on a forwarder actor and returns immediately.
type AsyncSink struct {
	root *actor.RootContext
	pid  *actor.PID
}

func (s *AsyncSink) Publish(_ context.Context, event models.OrderEvent) error {
	s.root.Send(s.pid, &event)
	return nil
}
