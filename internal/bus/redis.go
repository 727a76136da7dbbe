package bus

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const channel = "chat-events"

// RedisBus broadcasts through a Redis pub/sub channel.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	pubsub := b.client.Subscribe(ctx, channel)

	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				out <- []byte(msg.Payload)
			}
		}
	}()
	return out
}
