package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrAlreadyResolved is the panic value raised when a future is resolved twice.
var ErrAlreadyResolved = errors.New("response already sent")

// Future is the pending reply of a single dispatched message.
// It is resolved exactly once.
type Future struct {
	action   Action
	done     chan struct{}
	resolved atomic.Bool
	resp     Response
}

// NewFuture returns an unresolved future for the given action.
func NewFuture(action Action) *Future {
	return &Future{
		action: action,
		done:   make(chan struct{}),
	}
}

// Resolve stores the reply and wakes every waiter.
// Resolving a future twice is a programming error and panics.
func (f *Future) Resolve(resp Response) {
	if !f.resolved.CompareAndSwap(false, true) {
		panic(fmt.Errorf("%s: %w", f.action, ErrAlreadyResolved))
	}

	f.resp = resp
	close(f.done)
}

// Resolved reports whether a reply has been stored.
func (f *Future) Resolved() bool {
	return f.resolved.Load()
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future) Wait(ctx context.Context) (Response, error) {
	select {
	case <-f.done:
		return f.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
