// Package mailbox provides the bounded-FIFO and one-shot-completion
// primitives the broker and client cores are built on: every
// cross-goroutine effect in this module is a send into one of these,
// never a shared mutex on the hot path.
package mailbox

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send/Recv once the mailbox has been closed.
var ErrClosed = errors.New("mailbox: closed")

// Mailbox is a bounded FIFO queue of T, safe for one or more concurrent
// senders and one or more concurrent receivers.
type Mailbox[T any] struct {
	ch     chan T
	closed chan struct{}
}

// New creates a Mailbox with room for capacity pending items. A capacity
// of 0 makes every Send block until a matching Recv, matching an
// unbounded-fanin/rendezvous mailbox.
func New[T any](capacity int) *Mailbox[T] {
	return &Mailbox[T]{
		ch:     make(chan T, capacity),
		closed: make(chan struct{}),
	}
}

// Send enqueues v, blocking if the mailbox is full, until ctx is done or
// the mailbox is closed.
func (m *Mailbox[T]) Send(ctx context.Context, v T) error {
	select {
	case <-m.closed:
		return ErrClosed
	default:
	}
	select {
	case m.ch <- v:
		return nil
	case <-m.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues v without blocking, reporting false if the mailbox is
// full or closed.
func (m *Mailbox[T]) TrySend(v T) bool {
	select {
	case <-m.closed:
		return false
	default:
	}
	select {
	case m.ch <- v:
		return true
	default:
		return false
	}
}

// Recv dequeues the next item, blocking until one arrives, ctx is done, or
// the mailbox is closed and drained.
func (m *Mailbox[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-m.ch:
		return v, nil
	case <-m.closed:
		select {
		case v := <-m.ch:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryRecv dequeues the next already-queued item without blocking,
// reporting false if none is available.
func (m *Mailbox[T]) TryRecv() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Close stops further sends from succeeding; items already queued stay
// available to Recv and TryRecv until drained. Close is idempotent.
func (m *Mailbox[T]) Close() {
	select {
	case <-m.closed:
		return
	default:
		close(m.closed)
	}
}

// Len reports the number of items currently queued.
func (m *Mailbox[T]) Len() int { return len(m.ch) }
