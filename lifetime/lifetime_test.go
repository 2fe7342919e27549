package lifetime

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/broker"
	"github.com/aldrin-bus/aldrin/client"
	"github.com/aldrin-bus/aldrin/transport"
	"github.com/aldrin-bus/aldrin/transport/tcp"
	"github.com/aldrin-bus/aldrin/wire"
)

func startBroker(t *testing.T) *broker.Broker {
	t.Helper()
	b := broker.New(broker.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)
	return b
}

func newConnectedClient(t *testing.T, b *broker.Broker) *client.Client {
	t.Helper()
	a, side := net.Pipe()
	var conn transport.Conn = tcp.NewConnection(side, "client", nil)
	b.AddConnection(tcp.NewConnection(a, "server", nil))

	c := client.New(client.DefaultConfig(), conn)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)

	require.NoError(t, c.Connect(context.Background(), 1, wire.Serialize(wire.None{})))
	return c
}

func withTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func TestLifetimeResolvesOnScopeEnd(t *testing.T) {
	b := startBroker(t)
	owner := newConnectedClient(t, b)
	watcher := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	scope, err := NewScope(ctx, owner)
	require.NoError(t, err)

	lt, err := Watch(ctx, watcher, scope.Uuid())
	require.NoError(t, err)

	select {
	case <-lt.Done():
		t.Fatal("lifetime resolved before scope ended")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, scope.End(ctx))
	require.NoError(t, lt.Wait(ctx))
}

func TestLifetimeResolvesImmediatelyWhenScopeNeverExisted(t *testing.T) {
	b := startBroker(t)
	watcher := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	lt, err := Watch(ctx, watcher, aldrin.NewObjectUuid())
	require.NoError(t, err)

	require.NoError(t, lt.Wait(ctx))
}
