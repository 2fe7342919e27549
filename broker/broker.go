// Package broker implements the bus's central routing authority: a
// single cooperative event loop that owns every object, service,
// channel and bus listener, and demultiplexes inbound messages from
// every connected client against that shared state.
package broker

import (
	"context"
	"sync/atomic"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/transport"
)

// event is the closed set of things that can wake the broker's loop.
type event interface{ isEvent() }

type connAccepted struct {
	id   connID
	conn transport.Conn
}

func (connAccepted) isEvent() {}

type connClosed struct {
	id  connID
	err error
}

func (connClosed) isEvent() {}

type inboundMsg struct {
	id  connID
	msg message.Message
}

func (inboundMsg) isEvent() {}

type shutdownNow struct{}

func (shutdownNow) isEvent() {}

// Broker is the bus's routing core. Create one with New, feed it
// accepted transport connections with AddConnection, and run its loop
// with Run until the supplied context is done or Shutdown is called.
type Broker struct {
	cfg    *Config
	events *mailbox.Mailbox[event]

	connCounter atomic.Uint64
	conns       map[connID]*connection

	objectsByUuid map[aldrin.ObjectUuid]aldrin.ObjectCookie
	objects       map[aldrin.ObjectCookie]*object

	servicesByUuid map[aldrin.ObjectCookie]map[aldrin.ServiceUuid]aldrin.ServiceCookie
	services       map[aldrin.ServiceCookie]*service

	channels     map[aldrin.ChannelCookie]*channelState
	busListeners map[aldrin.BusListenerCookie]*busListenerState

	introspectionOwners map[aldrin.TypeId]connID

	shuttingDown bool
}

// New creates a Broker ready to accept connections; call Run to start
// its loop.
func New(cfg *Config) *Broker {
	cfg = cfg.withDefaults()
	return &Broker{
		cfg:            cfg,
		events:         mailbox.New[event](cfg.EventQueueDepth),
		conns:          make(map[connID]*connection),
		objectsByUuid:  make(map[aldrin.ObjectUuid]aldrin.ObjectCookie),
		objects:        make(map[aldrin.ObjectCookie]*object),
		servicesByUuid: make(map[aldrin.ObjectCookie]map[aldrin.ServiceUuid]aldrin.ServiceCookie),
		services:       make(map[aldrin.ServiceCookie]*service),
		channels:       make(map[aldrin.ChannelCookie]*channelState),
		busListeners:   make(map[aldrin.BusListenerCookie]*busListenerState),

		introspectionOwners: make(map[aldrin.TypeId]connID),
	}
}

// AddConnection registers a newly accepted transport connection and
// starts the goroutines that pump bytes between it and the broker's
// event loop. It returns immediately; the connection joins the broker's
// state on the loop's next turn.
func (b *Broker) AddConnection(tc transport.Conn) {
	id := connID(b.connCounter.Add(1))
	ctx := context.Background()
	if err := b.events.Send(ctx, connAccepted{id: id, conn: tc}); err != nil {
		return
	}
	go b.readLoop(id, tc)
}

func (b *Broker) readLoop(id connID, tc transport.Conn) {
	ctx := context.Background()
	for {
		m, err := tc.Receive()
		if err != nil {
			b.events.Send(ctx, connClosed{id: id, err: err})
			return
		}
		if err := b.events.Send(ctx, inboundMsg{id: id, msg: m}); err != nil {
			return
		}
	}
}

func (b *Broker) writeLoop(id connID, tc transport.Conn, out *mailbox.Mailbox[message.Message]) {
	ctx := context.Background()
	for {
		m, err := out.Recv(ctx)
		if err != nil {
			return
		}
		if err := tc.Send(m); err != nil {
			b.events.Send(ctx, connClosed{id: id, err: err})
			return
		}
	}
}

// Shutdown requests an immediate stop of the broker's loop. Unlike a
// per-connection Shutdown message, this tears down every connection
// without running the graceful handshake.
func (b *Broker) Shutdown() {
	b.events.Send(context.Background(), shutdownNow{})
}

// Run drives the broker's event loop until ctx is done or Shutdown is
// called. It is the only goroutine that ever mutates the broker's
// registries or connection state.
func (b *Broker) Run(ctx context.Context) error {
	for {
		ev, err := b.events.Recv(ctx)
		if err != nil {
			return ctx.Err()
		}
		switch e := ev.(type) {
		case connAccepted:
			b.handleAccepted(e)
		case connClosed:
			b.handleDisconnect(e.id)
		case inboundMsg:
			b.handleInbound(e.id, e.msg)
		case statsQuery:
			b.handleStatsQuery(e)
		case shutdownNow:
			b.handleShutdownNow()
			return nil
		}
	}
}

func (b *Broker) handleAccepted(e connAccepted) {
	conn := newConnection(e.id, e.conn, b.cfg.OutboundQueueDepth)
	b.conns[e.id] = conn
	go b.writeLoop(e.id, e.conn, conn.out)
}

func (b *Broker) handleShutdownNow() {
	b.shuttingDown = true
	for id := range b.conns {
		b.terminate(id)
	}
}

// terminate enqueues a Shutdown message (best effort) and runs the
// disconnect cascade for id immediately, without waiting for the peer to
// actually close its socket.
func (b *Broker) terminate(id connID) {
	conn, ok := b.conns[id]
	if !ok {
		return
	}
	conn.enqueue(message.Shutdown{})
	b.handleDisconnect(id)
}

func (b *Broker) handleInbound(id connID, m message.Message) {
	conn, ok := b.conns[id]
	if !ok {
		return
	}

	if !conn.handshakeDone {
		b.handleHandshake(conn, m)
		return
	}

	b.dispatch(conn, m)
}

func (b *Broker) handleHandshake(conn *connection, m message.Message) {
	req, ok := m.(message.Connect)
	if !ok {
		b.terminate(conn.id)
		return
	}
	if req.Version < b.cfg.MinSessionVersion {
		conn.enqueue(message.ConnectReply{
			ReplyKind:  message.ConnectIncompatibleVersion,
			MinVersion: b.cfg.MinSessionVersion,
		})
		b.terminate(conn.id)
		return
	}
	version := req.Version
	if version > b.cfg.MaxSessionVersion {
		version = b.cfg.MaxSessionVersion
	}
	conn.version = version
	conn.handshakeDone = true
	conn.enqueue(message.ConnectReply{ReplyKind: message.ConnectOk})
}
