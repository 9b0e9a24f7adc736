package events

import (
	"context"

	"github.com/example/pickupshop/pkg/models"
	"go.uber.org/multierr"
)

type Sink interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

// MultiSink delivers every event to each sink in turn. A failing sink does
// not stop delivery to the rest; all errors are combined.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, event models.OrderEvent) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Publish(ctx, event))
	}
	return err
}
