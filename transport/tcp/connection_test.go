package tcp

import (
	"context"
	"testing"
	"time"

	"github.com/aldrin-bus/aldrin/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopbackListener(t *testing.T) *Listener {
	t.Helper()
	ln, err := NewListener(DefaultListenerConfig("127.0.0.1:0"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func TestDialAndAcceptExchangeMessages(t *testing.T) {
	ln := newLoopbackListener(t)

	acceptCh := make(chan error, 1)
	var server *Connection
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		conn, err := ln.Accept(ctx)
		if err == nil {
			server = conn.(*Connection)
		}
		acceptCh <- err
	}()

	dialer := NewDialer(DefaultDialerConfig())
	client, err := dialer.Dial(context.Background(), ln.Address())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, <-acceptCh)
	require.NotNil(t, server)
	defer server.Close()

	want := message.Sync{Serial: 99}
	require.NoError(t, client.Send(want))

	got, err := server.Receive()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListenerTracksAcceptedConnectionInPool(t *testing.T) {
	ln := newLoopbackListener(t)
	dialer := NewDialer(DefaultDialerConfig())

	c1, err := dialer.Dial(context.Background(), ln.Address())
	require.NoError(t, err)
	defer c1.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, err := ln.Accept(ctx)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, 1, ln.Pool().Stats().Total)
}
