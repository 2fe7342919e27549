// Package client implements the bus's client runtime: a single
// background dispatcher task that owns every in-flight request table,
// object/service/channel/bus-listener handle state, and subscription
// refcount, exactly the way package broker owns the routing side.
package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/transport"
	"github.com/aldrin-bus/aldrin/wire"
)

// event is the closed set of things that can wake the dispatcher loop.
type event interface{ isEvent() }

type inboundMsg struct{ msg message.Message }

func (inboundMsg) isEvent() {}

type connGone struct{ err error }

func (connGone) isEvent() {}

// runOp carries one handle-issued request onto the dispatcher's own
// goroutine as a closure, instead of one bespoke event struct per
// operation kind: every op needs the same three steps (mutate state,
// maybe send a message, resolve a waiter), so the closure itself is the
// "in-flight table entry" the spec describes, identified by whichever
// serial or cookie it captures.
type runOp struct{ fn func(*Client) }

func (runOp) isEvent() {}

type shutdownNow struct{}

func (shutdownNow) isEvent() {}

// Client is one connection's full bus-facing runtime. Every field below
// is touched only from the dispatcher goroutine started by Run.
type Client struct {
	cfg    *Config
	conn   transport.Conn
	events *mailbox.Mailbox[event]

	nextSerial uint32

	// pending maps a serial this client allocated to the completion
	// callback waiting on its reply. Every request-shaped operation
	// (CreateObject, CallFunction, SubscribeEvent, ...) registers one
	// entry here before sending and removes it when the matching reply
	// arrives or the connection is lost. On arrival the callback gets
	// (reply, nil); on teardown every remaining callback gets (nil, err).
	pending map[uint32]func(message.Message, error)

	objects  map[aldrin.ObjectCookie]*objectState
	services map[aldrin.ServiceCookie]*serviceState

	// inboundCalls tracks CallFunction requests the broker has routed to
	// this client to serve, keyed by the serial the broker used, so the
	// eventual CallFunctionReply/AbortFunctionCall and the owning
	// service's IncomingCall channel both know how to complete it.
	inboundCalls map[uint32]*inboundCall

	// remoteSubs tracks this client's own event subscriptions to any
	// service (owned or not), keyed by service cookie.
	remoteSubs map[aldrin.ServiceCookie]*subscriptionState

	channels map[aldrin.ChannelCookie]*channelState

	busListeners map[aldrin.BusListenerCookie]*busListenerState

	introspectionHandlers map[aldrin.TypeId]IntrospectionHandler

	handshake    *mailbox.OneShot[handshakeOutcome]
	connected    bool
	shuttingDown bool
}

type handshakeOutcome struct {
	result message.ConnectReplyKind
	err    error
}

// New creates a Client bound to an already-handshake-pending transport
// connection. Call Run to start the dispatcher and Connect to complete
// the handshake.
func New(cfg *Config, conn transport.Conn) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:                   cfg,
		conn:                  conn,
		events:                mailbox.New[event](cfg.RequestQueueDepth),
		pending:               make(map[uint32]func(message.Message, error)),
		objects:               make(map[aldrin.ObjectCookie]*objectState),
		services:              make(map[aldrin.ServiceCookie]*serviceState),
		inboundCalls:          make(map[uint32]*inboundCall),
		remoteSubs:            make(map[aldrin.ServiceCookie]*subscriptionState),
		channels:              make(map[aldrin.ChannelCookie]*channelState),
		busListeners:          make(map[aldrin.BusListenerCookie]*busListenerState),
		introspectionHandlers: make(map[aldrin.TypeId]IntrospectionHandler),
		handshake:             mailbox.NewOneShot[handshakeOutcome](),
	}
}

// Run drives the dispatcher until ctx is done, the connection is lost,
// or Shutdown is called. It is the only goroutine that ever touches the
// Client's tables.
func (c *Client) Run(ctx context.Context) error {
	go c.readLoop()
	for {
		ev, err := c.events.Recv(ctx)
		if err != nil {
			c.teardown(ctx.Err())
			return ctx.Err()
		}
		switch e := ev.(type) {
		case inboundMsg:
			c.handleInbound(e.msg)
		case connGone:
			c.teardown(e.err)
			return e.err
		case runOp:
			e.fn(c)
		case shutdownNow:
			c.teardown(ErrClosed)
			return nil
		}
	}
}

func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		m, err := c.conn.Receive()
		if err != nil {
			c.events.Send(ctx, connGone{err: err})
			return
		}
		if err := c.events.Send(ctx, inboundMsg{msg: m}); err != nil {
			return
		}
	}
}

// Shutdown requests the dispatcher stop and every pending and standing
// operation complete with ErrClosed.
func (c *Client) Shutdown() {
	c.events.Send(context.Background(), shutdownNow{})
}

// Connect sends the handshake request and blocks for the broker's
// reply.
func (c *Client) Connect(ctx context.Context, version uint32, data wire.SerializedValue) error {
	if err := c.conn.Send(message.Connect{Version: version, Data: data}); err != nil {
		return err
	}
	out, err := c.handshake.Wait(ctx)
	if err != nil {
		return err
	}
	if out.err != nil {
		return out.err
	}
	if out.result != message.ConnectOk {
		return &HandshakeError{Kind: out.result}
	}
	return c.submit(ctx, func(c *Client) { c.connected = true })
}

// HandshakeError reports a rejected or incompatible Connect attempt.
type HandshakeError struct {
	Kind message.ConnectReplyKind
}

func (e *HandshakeError) Error() string {
	switch e.Kind {
	case message.ConnectRejected:
		return "client: connection rejected"
	case message.ConnectIncompatibleVersion:
		return "client: incompatible session version"
	default:
		return "client: handshake failed"
	}
}

// allocSerial mints the next request serial, wrapping at
// math.MaxUint32 back to 0 and skipping any value still live in
// pending, matching the monotonic-with-wraparound rule every serial
// namespace in this module follows.
func (c *Client) allocSerial() uint32 {
	for {
		c.nextSerial++
		if _, live := c.pending[c.nextSerial]; !live {
			return c.nextSerial
		}
	}
}

// submit hands fn to the dispatcher goroutine, blocking only while the
// mailbox is full; it fails if ctx is done first or the mailbox itself
// is closed (the connection is gone).
func (c *Client) submit(ctx context.Context, fn func(*Client)) error {
	return c.events.Send(ctx, runOp{fn: fn})
}

// register records a pending request's completion callback under a
// freshly allocated serial, returning it for use in the outbound
// message.
func (c *Client) register(cb func(message.Message, error)) uint32 {
	serial := c.allocSerial()
	c.pending[serial] = cb
	return serial
}

// completePending resolves and removes the callback registered under
// serial, if any reply is still expected for it.
func (c *Client) completePending(serial uint32, m message.Message) {
	cb, ok := c.pending[serial]
	if !ok {
		return
	}
	delete(c.pending, serial)
	cb(m, nil)
}

func (c *Client) send(m message.Message) error {
	return c.conn.Send(m)
}
