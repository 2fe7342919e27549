package tcp

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/transport"
)

type DialerConfig struct {
	TLSConfig   *tls.Config
	KeepAlive   time.Duration
	MaxFrameLen uint32
	Timeout     time.Duration
}

func DefaultDialerConfig() *DialerConfig {
	return &DialerConfig{
		KeepAlive:   30 * time.Second,
		MaxFrameLen: message.DefaultMaxFrameLength,
		Timeout:     10 * time.Second,
	}
}

// Dialer opens client-side connections to a broker.
type Dialer struct {
	config *DialerConfig
}

func NewDialer(config *DialerConfig) *Dialer {
	if config == nil {
		config = DefaultDialerConfig()
	}
	return &Dialer{config: config}
}

func (d *Dialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
	dialer := &net.Dialer{Timeout: d.config.Timeout, KeepAlive: d.config.KeepAlive}

	var netConn net.Conn
	var err error
	if d.config.TLSConfig != nil {
		netConn, err = tls.DialWithDialer(dialer, "tcp", address, d.config.TLSConfig)
	} else {
		netConn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, err
	}

	return NewConnection(netConn, address, &ConnectionConfig{
		KeepAlive:   d.config.KeepAlive,
		MaxFrameLen: d.config.MaxFrameLen,
		TLSConfig:   d.config.TLSConfig,
	}), nil
}

var _ transport.Dialer = (*Dialer)(nil)
