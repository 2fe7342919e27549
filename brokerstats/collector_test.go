package brokerstats

import (
	"context"
	"net"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
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

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestCollectorPollReflectsBrokerState(t *testing.T) {
	b := startBroker(t)
	c := newConnectedClient(t, b)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	col := NewCollector(b)

	// The connected client already counts as one connection, so the
	// first poll differs from the zero-valued initial snapshot.
	changed, err := col.Poll(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	require.EqualValues(t, 0, gaugeValue(t, col.objects))

	obj, err := c.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, aldrin.NewServiceUuid(), 1, nil)
	require.NoError(t, err)

	changed, err = col.Poll(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	require.EqualValues(t, 1, gaugeValue(t, col.objects))
	require.EqualValues(t, 1, gaugeValue(t, col.services))

	snap := col.Snapshot()
	require.Equal(t, 1, snap.Value.Objects)
	require.False(t, snap.UpdatedAt.IsZero())
}

func TestCollectorRunStopsWithContext(t *testing.T) {
	b := startBroker(t)
	col := NewCollector(b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- col.Run(ctx, 5*time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
