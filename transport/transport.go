// Package transport defines the boundary between the message set and
// whatever carries it between processes. Concrete carriers (tcp, and any
// future in-process or QUIC variant) implement Conn and Listener.
package transport

import (
	"context"

	"github.com/aldrin-bus/aldrin/message"
)

// Conn is one established, message-framed connection to a peer. Send and
// Receive are each expected to be called from a single goroutine; a Conn
// may be written from one goroutine and read from another concurrently,
// matching net.Conn's concurrency contract.
type Conn interface {
	// Send encodes and writes m as one complete frame.
	Send(m message.Message) error

	// Receive blocks until one complete frame has arrived and decodes it.
	Receive() (message.Message, error)

	// Close shuts down the connection. Concurrent Send/Receive calls
	// return an error after Close returns.
	Close() error

	// RemoteAddress identifies the peer, for logging and stats.
	RemoteAddress() string
}

// Listener accepts inbound Conns.
type Listener interface {
	// Accept blocks until a new connection arrives or the listener is
	// closed.
	Accept(ctx context.Context) (Conn, error)

	// Close stops accepting new connections. In-flight Accept calls
	// return an error.
	Close() error

	// Address reports the address the listener is bound to.
	Address() string
}

// Dialer establishes outbound Conns.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}
