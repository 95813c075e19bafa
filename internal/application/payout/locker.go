package payout

import (
	"context"
	"sync"
)

// Locker serializes payout execution per key across request handlers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocalLocker returns an in-process Locker for single-instance deployments.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]chan struct{})}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, key)
				close(done)
				l.mu.Unlock()
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
