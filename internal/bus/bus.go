package bus

import "context"

// Bus carries globally-broadcast relay events (message edits and
// deletions) between the publish side and the hub's fan-out loop.
// Production uses Redis pub/sub; tests use the in-process bus.
type Bus interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) <-chan []byte
}
