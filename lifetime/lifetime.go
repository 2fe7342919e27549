// Package lifetime builds an end-of-scope signal out of an ordinary
// object and a degenerate bus listener: a Scope is a token object that
// exists only to be watched, and a Lifetime resolves exactly once, the
// moment that token stops existing.
package lifetime

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/client"
	"github.com/aldrin-bus/aldrin/message"
)

// Scope is a token object created solely so Lifetimes can watch it end.
type Scope struct {
	handle *client.ObjectHandle
}

// NewScope creates a fresh object on cl to serve as a lifetime token.
func NewScope(ctx context.Context, cl *client.Client) (*Scope, error) {
	h, err := cl.CreateObject(ctx, aldrin.NewObjectUuid())
	if err != nil {
		return nil, err
	}
	return &Scope{handle: h}, nil
}

// Uuid returns the token object's identity, the value a Lifetime
// watches for.
func (s *Scope) Uuid() aldrin.ObjectUuid { return s.handle.Uuid() }

// End destroys the scope's token object, resolving every Lifetime still
// watching it.
func (s *Scope) End(ctx context.Context) error {
	return s.handle.Destroy(ctx)
}

// Lifetime resolves exactly once: when the object it watches is
// destroyed, or immediately if that object never existed at all over
// the observed snapshot.
type Lifetime struct {
	done chan struct{}
	err  error
}

// Watch starts a Lifetime bound to uuid on cl, built from a fresh,
// All-scoped bus listener filtered to that one object. The listener is
// destroyed once the Lifetime resolves.
func Watch(ctx context.Context, cl *client.Client, uuid aldrin.ObjectUuid) (*Lifetime, error) {
	listener, err := cl.CreateBusListener(ctx)
	if err != nil {
		return nil, err
	}
	filter := message.BusListenerFilter{Kind: message.FilterObject, ObjectUuid: [16]byte(uuid)}
	if err := listener.AddFilter(ctx, filter); err != nil {
		return nil, err
	}
	if err := listener.Start(ctx, message.BusListenerAll); err != nil {
		return nil, err
	}

	l := &Lifetime{done: make(chan struct{})}
	go l.run(listener, uuid)
	return l, nil
}

func (l *Lifetime) run(listener *client.BusListener, uuid aldrin.ObjectUuid) {
	defer close(l.done)
	defer func() { _ = listener.Destroy(context.Background()) }()

	ctx := context.Background()
	seenCreated := false
	for {
		ev, err := listener.Next(ctx)
		if err != nil {
			l.err = err
			return
		}
		if ev.Finished {
			if !seenCreated {
				// The snapshot ended without ever reporting this
				// object: the scope never existed, so the lifetime is
				// already over.
				return
			}
			continue
		}
		switch ev.Event.Kind {
		case message.BusEventObjectCreated:
			if aldrin.ObjectUuid(ev.Event.ObjectUuid) == uuid {
				seenCreated = true
			}
		case message.BusEventObjectDestroyed:
			if aldrin.ObjectUuid(ev.Event.ObjectUuid) == uuid {
				return
			}
		}
	}
}

// Done returns a channel closed once the lifetime has ended.
func (l *Lifetime) Done() <-chan struct{} { return l.done }

// Wait blocks until the lifetime ends or ctx is done.
func (l *Lifetime) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
