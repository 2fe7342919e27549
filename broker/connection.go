package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/transport"
)

// connID names a connection for the lifetime of the broker process. It is
// never reused, so a stale id found in a routing table after the
// connection has gone away is detectable by a simple map lookup.
type connID uint64

// inboundCall is what the callee connection remembers about one in-flight
// CallFunction it was asked to handle: who to answer and under which
// serial the caller knows the call by.
type inboundCall struct {
	callerConn   connID
	callerSerial uint32
}

// outboundCall is what the caller connection remembers about one
// in-flight CallFunction it issued: which connection is handling it and
// under which serial that connection knows the call by.
type outboundCall struct {
	calleeConn   connID
	calleeSerial uint32
}

// connection holds everything the broker tracks about one live peer. It
// is only ever touched from the broker's own goroutine.
type connection struct {
	id      connID
	conn    transport.Conn
	out     *mailbox.Mailbox[message.Message]
	version uint32

	nextSerial uint32

	objects  map[aldrin.ObjectCookie]struct{}
	services map[aldrin.ServiceCookie]struct{}

	inboundCalls  map[uint32]inboundCall
	outboundCalls map[uint32]outboundCall

	// introspectionQueries mirrors inboundCalls for the simpler
	// QueryIntrospection forward/reply round trip: a serial this
	// connection (the type id's registrant) was asked under, mapped
	// back to whoever originally queried it.
	introspectionQueries map[uint32]inboundCall

	busListeners map[aldrin.BusListenerCookie]struct{}

	// channelEnds records, for every channel end this connection owns,
	// the cookie and which end it is, so the disconnect cascade can
	// find them without scanning every channel in the broker.
	channelEnds map[channelEndKey]struct{}

	handshakeDone bool
	terminating   bool
}

type channelEndKey struct {
	cookie aldrin.ChannelCookie
	which  message.ChannelEnd
}

func newConnection(id connID, tc transport.Conn, outboundDepth int) *connection {
	return &connection{
		id:                   id,
		conn:                 tc,
		out:                  mailbox.New[message.Message](outboundDepth),
		objects:              make(map[aldrin.ObjectCookie]struct{}),
		services:             make(map[aldrin.ServiceCookie]struct{}),
		inboundCalls:         make(map[uint32]inboundCall),
		outboundCalls:        make(map[uint32]outboundCall),
		introspectionQueries: make(map[uint32]inboundCall),
		busListeners:         make(map[aldrin.BusListenerCookie]struct{}),
		channelEnds:          make(map[channelEndKey]struct{}),
	}
}

// allocSerial mints a callee-local (or introspection-query) serial, used
// by the broker whenever it must speak to a connection under its own
// serial namespace rather than forward one verbatim. It wraps at
// math.MaxUint32 and skips any value still live in either table.
func (c *connection) allocSerial() uint32 {
	for {
		c.nextSerial++
		_, call := c.inboundCalls[c.nextSerial]
		_, query := c.introspectionQueries[c.nextSerial]
		if !call && !query {
			return c.nextSerial
		}
	}
}

// enqueue hands m to the connection's outbound mailbox without blocking;
// a connection that cannot keep up has its mailbox fill and is reaped by
// the broker loop rather than allowed to stall the whole broker.
func (c *connection) enqueue(m message.Message) bool {
	if c.out.TrySend(m) {
		return true
	}
	// Closing the transport makes the read loop report the disconnect,
	// which runs the usual cascade for this connection.
	c.conn.Close()
	return false
}
