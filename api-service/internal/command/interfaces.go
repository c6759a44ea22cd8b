package command

import "context"

// EventPublisher is satisfied by *events.Publisher. A nil *events.Publisher
// discards events, which is how the service runs without Redis.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// IDGenerator issues transaction identifiers. *utils.Generator satisfies it.
type IDGenerator interface {
	GenerateID(prefix string) string
}
