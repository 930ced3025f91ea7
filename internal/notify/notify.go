// Package notify carries the fire-and-forget event publisher used for live
// update notifications. Delivery is best effort: publish failures are logged
// and never surface to the caller.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Publisher delivers an event with a JSON-serializable payload.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// LogPublisher writes events to the structured log. It stands in for a real
// broadcast channel; callers treat it identically.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event string, payload any) error {
	p.log.Info("event published", zap.String("event", event), zap.Any("payload", payload))
	return nil
}

// Nop discards every event. Useful in tests.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
