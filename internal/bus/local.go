package bus

import "context"

// LocalBus is an in-process loopback with the same contract as the
// Redis bus. Used in tests and single-node setups without Redis.
type LocalBus struct {
	ch chan []byte
}

func NewLocalBus() *LocalBus {
	return &LocalBus{ch: make(chan []byte, 64)}
}

func (b *LocalBus) Publish(ctx context.Context, payload []byte) error {
	select {
	case b.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *LocalBus) Subscribe(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-b.ch:
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
