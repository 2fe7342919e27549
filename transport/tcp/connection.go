package tcp

import (
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aldrin-bus/aldrin/message"
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateConnected
	StateClosing
	StateClosed
)

// Connection is a message-framed net.Conn: Send/Receive move whole
// message.Message values, with the frame reassembly handled internally
// by a message.Packetizer over the raw socket.
type Connection struct {
	conn net.Conn
	id   string
	p    *message.Packetizer

	state        atomic.Int32
	lastActivity atomic.Int64

	readDeadline  time.Duration
	writeDeadline time.Duration

	tlsConn *tls.Conn
	isTLS   bool

	mu       sync.RWMutex
	metadata map[string]interface{}

	closeOnce sync.Once
	closeCh   chan struct{}

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64

	sendMu sync.Mutex
}

type ConnectionConfig struct {
	KeepAlive     time.Duration
	ReadDeadline  time.Duration
	WriteDeadline time.Duration
	MaxFrameLen   uint32
	TLSConfig     *tls.Config
}

func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		KeepAlive:     30 * time.Second,
		ReadDeadline:  60 * time.Second,
		WriteDeadline: 30 * time.Second,
		MaxFrameLen:   message.DefaultMaxFrameLength,
	}
}

func NewConnection(conn net.Conn, id string, cfg *ConnectionConfig) *Connection {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}
	maxFrameLen := cfg.MaxFrameLen
	if maxFrameLen == 0 {
		maxFrameLen = message.DefaultMaxFrameLength
	}

	c := &Connection{
		conn:          conn,
		id:            id,
		readDeadline:  cfg.ReadDeadline,
		writeDeadline: cfg.WriteDeadline,
		metadata:      make(map[string]interface{}),
		closeCh:       make(chan struct{}),
	}
	c.p = message.NewPacketizerSize(&deadlineReader{c: c}, maxFrameLen)

	c.state.Store(int32(StateConnected))
	c.updateActivity()

	if tlsConn, ok := conn.(*tls.Conn); ok {
		c.tlsConn = tlsConn
		c.isTLS = true
	}

	if cfg.KeepAlive > 0 {
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetKeepAlive(true)
			_ = tcpConn.SetKeepAlivePeriod(cfg.KeepAlive)
		}
	}

	return c
}

// deadlineReader adapts Connection's deadline-and-counter bookkeeping to
// the plain io.Reader the packetizer wants.
type deadlineReader struct{ c *Connection }

func (d *deadlineReader) Read(b []byte) (int, error) {
	c := d.c
	if c.State() != StateConnected {
		return 0, ErrConnectionClosed
	}
	if c.readDeadline > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readDeadline))
	}
	n, err := c.conn.Read(b)
	if n > 0 {
		c.bytesRead.Add(uint64(n))
		c.updateActivity()
	}
	return n, err
}

// Send encodes and writes m as one frame. Safe for concurrent callers.
func (c *Connection) Send(m message.Message) error {
	if c.State() != StateConnected {
		return ErrConnectionClosed
	}
	if c.writeDeadline > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	frame := message.Encode(m)
	n, err := c.conn.Write(frame)
	if n > 0 {
		c.bytesWritten.Add(uint64(n))
		c.updateActivity()
	}
	return err
}

// Receive blocks for one complete frame and decodes it.
func (c *Connection) Receive() (message.Message, error) {
	return c.p.Next()
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) RemoteAddress() string {
	if c.conn.RemoteAddr() == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

func (c *Connection) LocalAddr() net.Addr { return c.conn.LocalAddr() }

func (c *Connection) State() ConnState { return ConnState(c.state.Load()) }

func (c *Connection) IsTLS() bool { return c.isTLS }

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		close(c.closeCh)
		err = c.conn.Close()
		c.state.Store(int32(StateClosed))
	})
	return err
}

func (c *Connection) CloseChan() <-chan struct{} { return c.closeCh }

func (c *Connection) updateActivity() { c.lastActivity.Store(time.Now().UnixNano()) }

func (c *Connection) LastActivity() time.Time { return time.Unix(0, c.lastActivity.Load()) }

func (c *Connection) IdleDuration() time.Duration { return time.Since(c.LastActivity()) }

func (c *Connection) BytesRead() uint64 { return c.bytesRead.Load() }

func (c *Connection) BytesWritten() uint64 { return c.bytesWritten.Load() }

func (c *Connection) SetMetadata(key string, value interface{}) {
	c.mu.Lock()
	c.metadata[key] = value
	c.mu.Unlock()
}

func (c *Connection) GetMetadata(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.metadata[key]
	return val, ok
}

func (c *Connection) TLSConnectionState() (tls.ConnectionState, bool) {
	if c.tlsConn != nil {
		return c.tlsConn.ConnectionState(), true
	}
	return tls.ConnectionState{}, false
}
