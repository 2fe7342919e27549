package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/transport"
)

type ListenerConfig struct {
	Address        string
	TLSConfig      *tls.Config
	TCPKeepAlive   time.Duration
	MaxConnections int
	MaxFrameLen    uint32
}

func DefaultListenerConfig(address string) *ListenerConfig {
	return &ListenerConfig{
		Address:        address,
		TCPKeepAlive:   30 * time.Second,
		MaxConnections: 10000,
		MaxFrameLen:    message.DefaultMaxFrameLength,
	}
}

// Listener accepts TCP connections and wraps each in a message-framed
// Connection, tracked in a Pool for the broker to enumerate.
type Listener struct {
	config   *ListenerConfig
	listener net.Listener
	pool     *Pool

	connSeq  atomic.Uint64
	accepted atomic.Uint64
	rejected atomic.Uint64

	closed atomic.Bool
}

func NewListener(config *ListenerConfig, pool *Pool) (*Listener, error) {
	if config == nil {
		return nil, ErrInvalidAddress
	}
	if pool == nil {
		var err error
		pool, err = NewPool(DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
	}

	var ln net.Listener
	var err error
	if config.TLSConfig != nil {
		ln, err = tls.Listen("tcp", config.Address, config.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", config.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("tcp: failed to start listener: %w", err)
	}

	return &Listener{config: config, listener: ln, pool: pool}, nil
}

// Accept blocks for the next inbound connection, registers it with the
// pool, and returns it wrapped as a transport.Conn.
func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		netConn, err := l.listener.Accept()
		ch <- result{netConn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if l.closed.Load() {
				return nil, ErrListenerClosed
			}
			return nil, r.err
		}

		if l.config.MaxConnections > 0 && int(l.pool.total.Load()) >= l.config.MaxConnections {
			_ = r.conn.Close()
			l.rejected.Add(1)
			return l.Accept(ctx)
		}

		if tcpConn, ok := r.conn.(*net.TCPConn); ok && l.config.TCPKeepAlive > 0 {
			_ = tcpConn.SetKeepAlive(true)
			_ = tcpConn.SetKeepAlivePeriod(l.config.TCPKeepAlive)
		}

		id := l.generateConnectionID()
		conn := NewConnection(r.conn, id, &ConnectionConfig{
			KeepAlive:   l.config.TCPKeepAlive,
			MaxFrameLen: l.config.MaxFrameLen,
			TLSConfig:   l.config.TLSConfig,
		})

		if err := l.pool.Add(conn); err != nil {
			_ = conn.Close()
			l.rejected.Add(1)
			return nil, err
		}
		l.accepted.Add(1)

		return conn, nil
	}
}

func (l *Listener) generateConnectionID() string {
	seq := l.connSeq.Add(1)
	return fmt.Sprintf("tcp-%d-%d", time.Now().UnixNano(), seq)
}

func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.listener.Close()
}

func (l *Listener) Address() string {
	if l.listener != nil {
		return l.listener.Addr().String()
	}
	return l.config.Address
}

func (l *Listener) Pool() *Pool { return l.pool }

func (l *Listener) Stats() ListenerStats {
	return ListenerStats{
		Accepted: l.accepted.Load(),
		Rejected: l.rejected.Load(),
		Active:   uint64(l.pool.active.Load()),
	}
}

type ListenerStats struct {
	Accepted uint64
	Rejected uint64
	Active   uint64
}

var _ transport.Listener = (*Listener)(nil)
