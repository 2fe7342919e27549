package discoverer

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/broker"
	"github.com/aldrin-bus/aldrin/client"
	"github.com/aldrin-bus/aldrin/message"
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

func TestDiscovererEmitsCreatedWhenServicesComplete(t *testing.T) {
	b := startBroker(t)
	watcher := newConnectedClient(t, b)
	owner := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	objUuid := aldrin.NewObjectUuid()
	svcA := aldrin.NewServiceUuid()
	svcB := aldrin.NewServiceUuid()

	d, err := New(ctx, watcher, map[string]EntrySpec{
		"target": {Object: &objUuid, Services: []aldrin.ServiceUuid{svcA, svcB}},
	}, message.BusListenerNew)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })

	obj, err := owner.CreateObject(ctx, objUuid)
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, svcA, 1, nil)
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, svcB, 1, nil)
	require.NoError(t, err)

	ev, err := d.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, Created, ev.Kind)
	require.Equal(t, objUuid, ev.Object)
	require.Equal(t, "target", ev.Key)
}

func TestDiscovererEmitsDestroyedWhenObjectGoesAway(t *testing.T) {
	b := startBroker(t)
	watcher := newConnectedClient(t, b)
	owner := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	objUuid := aldrin.NewObjectUuid()
	svc := aldrin.NewServiceUuid()

	d, err := New(ctx, watcher, map[string]EntrySpec{
		"target": {Object: &objUuid, Services: []aldrin.ServiceUuid{svc}},
	}, message.BusListenerNew)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })

	obj, err := owner.CreateObject(ctx, objUuid)
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, svc, 1, nil)
	require.NoError(t, err)

	created, err := d.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, Created, created.Kind)

	require.NoError(t, obj.Destroy(ctx))

	destroyed, err := d.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, Destroyed, destroyed.Kind)
	require.Equal(t, objUuid, destroyed.Object)
}

func TestDiscovererCurrentScopeOnlyReportsExistingOnce(t *testing.T) {
	b := startBroker(t)
	watcher := newConnectedClient(t, b)
	owner := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	svcA := aldrin.NewServiceUuid()
	svcB := aldrin.NewServiceUuid()

	obj, err := owner.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, svcA, 1, nil)
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, svcB, 1, nil)
	require.NoError(t, err)

	d, err := New(ctx, watcher, map[string]EntrySpec{
		"any": {Services: []aldrin.ServiceUuid{svcA, svcB}},
	}, message.BusListenerCurrent)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })

	ev, err := d.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, Created, ev.Kind)
	require.Equal(t, obj.Uuid(), ev.Object)

	// A second, unrelated object created afterward must produce no
	// event: BusListenerCurrent stops after the snapshot.
	second, err := owner.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	_, err = second.CreateService(ctx, aldrin.NewServiceUuid(), 1, nil)
	require.NoError(t, err)

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer shortCancel()
	_, err = d.Next(shortCtx)
	require.Error(t, err)
}

func TestDiscovererRestartClearsMatchedState(t *testing.T) {
	b := startBroker(t)
	watcher := newConnectedClient(t, b)
	owner := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	objUuid := aldrin.NewObjectUuid()
	svc := aldrin.NewServiceUuid()

	d, err := New(ctx, watcher, map[string]EntrySpec{
		"target": {Object: &objUuid, Services: []aldrin.ServiceUuid{svc}},
	}, message.BusListenerNew)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })

	obj, err := owner.CreateObject(ctx, objUuid)
	require.NoError(t, err)
	_, err = obj.CreateService(ctx, svc, 1, nil)
	require.NoError(t, err)

	_, err = d.Next(ctx)
	require.NoError(t, err)

	require.NoError(t, d.Restart(ctx, message.BusListenerCurrent))

	ev, err := d.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, Created, ev.Kind)
	require.Equal(t, objUuid, ev.Object)
}
