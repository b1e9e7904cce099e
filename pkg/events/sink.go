package events

import "context"

// Sink receives lifecycle events. The NATS publisher and the websocket hub
// both implement it; services publish through the interface so transports
// can be swapped or stacked.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Fanout forwards each event to every sink. Delivery is best effort: a
// failing sink does not block the others, and the first error is returned
// for the caller to log.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
