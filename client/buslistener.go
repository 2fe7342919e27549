package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
)

// busListenerState is the dispatcher-owned bookkeeping for one bus
// listener this client created.
type busListenerState struct {
	cookie  aldrin.BusListenerCookie
	started bool
	events  *mailbox.Mailbox[busListenerDelivery]
}

type busListenerDelivery struct {
	event    message.BusEvent
	finished bool
}

// BusListener reports object/service lifecycle transitions the broker
// observes, scoped by whichever filters were added before it was
// started.
type BusListener struct {
	client *Client
	cookie aldrin.BusListenerCookie
	state  *busListenerState
}

func (l *BusListener) Cookie() aldrin.BusListenerCookie { return l.cookie }

// BusListenerEvent is one delivered transition, or the end-of-snapshot
// marker for a Current or All scoped listener.
type BusListenerEvent struct {
	Event    message.BusEvent
	Finished bool
}

// Next blocks for the next reported event.
func (l *BusListener) Next(ctx context.Context) (BusListenerEvent, error) {
	d, err := l.state.events.Recv(ctx)
	if err != nil {
		return BusListenerEvent{}, err
	}
	return BusListenerEvent{Event: d.event, Finished: d.finished}, nil
}

type createBusListenerOutcome struct {
	listener *BusListener
	err      error
}

// CreateBusListener creates a new, filter-less, stopped bus listener.
func (c *Client) CreateBusListener(ctx context.Context) (*BusListener, error) {
	result := mailbox.NewOneShot[createBusListenerOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(createBusListenerOutcome{err: err})
				return
			}
			reply := m.(message.CreateBusListenerReply)
			cookie := aldrin.BusListenerCookie(reply.Cookie)
			st := &busListenerState{cookie: cookie, events: mailbox.New[busListenerDelivery](c.cfg.EventQueueDepth)}
			c.busListeners[cookie] = st
			result.Resolve(createBusListenerOutcome{listener: &BusListener{client: c, cookie: cookie, state: st}})
		})
		if err := c.send(message.CreateBusListener{Serial: serial}); err != nil {
			delete(c.pending, serial)
			result.Resolve(createBusListenerOutcome{err: err})
		}
	}); err != nil {
		return nil, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return out.listener, out.err
}

// AddFilter adds one filter; the listener must be stopped.
func (l *BusListener) AddFilter(ctx context.Context, filter message.BusListenerFilter) error {
	return l.client.submit(ctx, func(c *Client) {
		c.send(message.AddBusListenerFilter{Cookie: [16]byte(l.cookie), Filter: filter})
	})
}

// RemoveFilter removes one filter; the listener must be stopped.
func (l *BusListener) RemoveFilter(ctx context.Context, filter message.BusListenerFilter) error {
	return l.client.submit(ctx, func(c *Client) {
		c.send(message.RemoveBusListenerFilter{Cookie: [16]byte(l.cookie), Filter: filter})
	})
}

// ClearFilters removes every filter; the listener must be stopped.
func (l *BusListener) ClearFilters(ctx context.Context) error {
	return l.client.submit(ctx, func(c *Client) {
		c.send(message.ClearBusListenerFilters{Cookie: [16]byte(l.cookie)})
	})
}

// Start starts the listener with the given scope.
func (l *BusListener) Start(ctx context.Context, scope message.BusListenerScope) error {
	c := l.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(err)
				return
			}
			reply := m.(message.StartBusListenerReply)
			switch reply.Result {
			case message.StartBusListenerOk:
				l.state.started = true
				result.Resolve(nil)
			case message.StartBusListenerAlreadyStarted:
				result.Resolve(ErrAlreadyStarted)
			default:
				result.Resolve(ErrInvalidBusListener)
			}
		})
		if err := c.send(message.StartBusListener{Serial: serial, Cookie: [16]byte(l.cookie), Scope: scope}); err != nil {
			delete(c.pending, serial)
			result.Resolve(err)
		}
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

// Stop stops a running listener.
func (l *BusListener) Stop(ctx context.Context) error {
	c := l.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(err)
				return
			}
			reply := m.(message.StopBusListenerReply)
			switch reply.Result {
			case message.StopBusListenerOk:
				l.state.started = false
				result.Resolve(nil)
			case message.StopBusListenerNotStarted:
				result.Resolve(ErrNotStarted)
			default:
				result.Resolve(ErrInvalidBusListener)
			}
		})
		if err := c.send(message.StopBusListener{Serial: serial, Cookie: [16]byte(l.cookie)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(err)
		}
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

// Destroy destroys the bus listener.
func (l *BusListener) Destroy(ctx context.Context) error {
	c := l.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(err)
				return
			}
			reply := m.(message.DestroyBusListenerReply)
			if reply.Result != message.DestroyBusListenerOk {
				result.Resolve(ErrInvalidBusListener)
				return
			}
			if st, ok := c.busListeners[l.cookie]; ok {
				st.events.Close()
			}
			delete(c.busListeners, l.cookie)
			result.Resolve(nil)
		})
		if err := c.send(message.DestroyBusListener{Serial: serial, Cookie: [16]byte(l.cookie)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(err)
		}
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

// TryNext returns the next already-queued event without blocking,
// reporting false if none is available yet. Used to drain a stopped
// listener's backlog before restarting it in a new scope.
func (l *BusListener) TryNext() (BusListenerEvent, bool) {
	d, ok := l.state.events.TryRecv()
	if !ok {
		return BusListenerEvent{}, false
	}
	return BusListenerEvent{Event: d.event, Finished: d.finished}, true
}

func (c *Client) handleEmitBusEvent(msg message.EmitBusEvent) {
	cookie := aldrin.BusListenerCookie(msg.Cookie)
	if st, ok := c.busListeners[cookie]; ok {
		st.events.TrySend(busListenerDelivery{event: msg.Event})
	}
}

func (c *Client) handleBusListenerCurrentFinished(msg message.BusListenerCurrentFinished) {
	cookie := aldrin.BusListenerCookie(msg.Cookie)
	if st, ok := c.busListeners[cookie]; ok {
		st.events.TrySend(busListenerDelivery{finished: true})
	}
}
