package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	expiryActorName    = "expiry-actor"
	forwarderActorName = "event-forwarder"
)

// System owns the actor system and the actors spawned on it.
type System struct {
	system *actor.ActorSystem
	pids   []*actor.PID
	logger *zap.Logger
}

func NewSystem(logger *zap.Logger) *System {
	return &System{
		system: actor.NewActorSystem(),
		logger: logger,
	}
}

// SpawnForwarder starts an event forwarder in front of sink and returns the
// sink to hand to the order manager.
func (s *System) SpawnForwarder(sink Sink, timeout time.Duration) (*AsyncSink, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &ForwarderActor{sink: sink, timeout: timeout, logger: s.logger.Named(forwarderActorName)}
	})
	pid, err := s.system.Root.SpawnNamed(props, forwarderActorName)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn event forwarder: %w", err)
	}
	s.pids = append(s.pids, pid)
	return &AsyncSink{root: s.system.Root, pid: pid}, nil
}

func (s *System) SpawnExpiry(orders OrderService, window, timeout time.Duration) (*actor.PID, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &ExpiryActor{orders: orders, window: window, timeout: timeout, logger: s.logger.Named(expiryActorName)}
	})
	pid, err := s.system.Root.SpawnNamed(props, expiryActorName)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn expiry actor: %w", err)
	}
	s.pids = append(s.pids, pid)
	return pid, nil
}

// Sweep runs one sweep and waits for its result.
func (s *System) Sweep(pid *actor.PID, now time.Time, timeout time.Duration) (*SweepResult, error) {
	res, err := s.system.Root.RequestFuture(pid, &Sweep{Now: now}, timeout).Result()
	if err != nil {
		return nil, err
	}
	result, ok := res.(*SweepResult)
	if !ok {
		return nil, fmt.Errorf("unexpected sweep response %T", res)
	}
	return result, nil
}

// RunSweeper sends a sweep every interval until ctx is done.
func (s *System) RunSweeper(ctx context.Context, pid *actor.PID, interval time.Duration) {
	if interval <= 0 {
		s.logger.Error("Sweeper not started", zap.Duration("interval", interval))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.system.Root.Send(pid, &Sweep{Now: now})
		}
	}
}

// Stop stops every spawned actor, waiting for queued messages to drain.
func (s *System) Stop() {
	for i := len(s.pids) - 1; i >= 0; i-- {
		if err := s.system.Root.PoisonFuture(s.pids[i]).Wait(); err != nil {
			s.logger.Warn("Actor did not stop cleanly", zap.String("pid", s.pids[i].Id), zap.Error(err))
		}
	}
	s.pids = nil
}
