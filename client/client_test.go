package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/broker"
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

func newConnectedClient(t *testing.T, b *broker.Broker) *Client {
	t.Helper()
	a, side := net.Pipe()
	var conn transport.Conn = tcp.NewConnection(side, "client", nil)
	b.AddConnection(tcp.NewConnection(a, "server", nil))

	c := New(DefaultConfig(), conn)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	require.NoError(t, c.Connect(context.Background(), 1, wire.Serialize(wire.None{})))
	return c
}

func withTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func TestConnectHandshake(t *testing.T) {
	b := startBroker(t)
	c := newConnectedClient(t, b)
	require.NotNil(t, c)
}

func TestCreateObjectAndService(t *testing.T) {
	b := startBroker(t)
	c := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	obj, err := c.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	require.NotNil(t, obj)

	svc, err := obj.CreateService(ctx, aldrin.NewServiceUuid(), 1, nil)
	require.NoError(t, err)
	require.NotNil(t, svc)

	version, err := c.QueryServiceVersion(ctx, svc.Cookie())
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	require.NoError(t, svc.Destroy(ctx))
	require.NoError(t, obj.Destroy(ctx))
}

func TestCreateServiceDuplicateUuidRejected(t *testing.T) {
	b := startBroker(t)
	c := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	obj, err := c.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)

	uuid := aldrin.NewServiceUuid()
	_, err = obj.CreateService(ctx, uuid, 1, nil)
	require.NoError(t, err)

	_, err = obj.CreateService(ctx, uuid, 1, nil)
	assert.ErrorIs(t, err, ErrDuplicateService)
}

func TestCallFunctionRoundTrip(t *testing.T) {
	b := startBroker(t)
	caller := newConnectedClient(t, b)
	callee := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	obj, err := callee.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	svc, err := obj.CreateService(ctx, aldrin.NewServiceUuid(), 1, nil)
	require.NoError(t, err)

	served := make(chan struct{})
	go func() {
		defer close(served)
		call, err := svc.Accept(ctx)
		if err != nil {
			return
		}
		assert.EqualValues(t, 7, call.Function)
		require.NoError(t, call.Reply(ctx, wire.Serialize(wire.None{})))
	}()

	out, err := caller.Service(svc.Cookie()).Call(ctx, 7, wire.Serialize(wire.None{}))
	require.NoError(t, err)
	assert.True(t, out.Ok)

	<-served
}

func TestCallFunctionInvalidService(t *testing.T) {
	b := startBroker(t)
	c := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	_, err := c.Service(aldrin.NewServiceCookie()).Call(ctx, 1, wire.Serialize(wire.None{}))
	assert.ErrorIs(t, err, ErrInvalidService)
}

func TestEventSubscribeAndEmit(t *testing.T) {
	b := startBroker(t)
	emitter := newConnectedClient(t, b)
	subscriber := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	obj, err := emitter.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	svc, err := obj.CreateService(ctx, aldrin.NewServiceUuid(), 1, nil)
	require.NoError(t, err)

	sub, err := subscriber.Service(svc.Cookie()).Subscribe(ctx, 42)
	require.NoError(t, err)

	require.NoError(t, svc.Emit(ctx, 42, wire.Serialize(wire.None{})))

	_, err = sub.Next(ctx)
	require.NoError(t, err)

	require.NoError(t, sub.Unsubscribe(ctx))
}

func TestServiceDestroyedNotifiesSubscribers(t *testing.T) {
	b := startBroker(t)
	owner := newConnectedClient(t, b)
	subscriber := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	obj, err := owner.CreateObject(ctx, aldrin.NewObjectUuid())
	require.NoError(t, err)
	svc, err := obj.CreateService(ctx, aldrin.NewServiceUuid(), 1, nil)
	require.NoError(t, err)

	sub, err := subscriber.Service(svc.Cookie()).SubscribeAll(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx))

	_, err = sub.Next(ctx)
	assert.ErrorIs(t, err, ErrInvalidService)
}

func TestChannelSendReceive(t *testing.T) {
	b := startBroker(t)
	sideA := newConnectedClient(t, b)
	sideB := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	receiver, err := sideA.CreateChannelAsReceiver(ctx, 4)
	require.NoError(t, err)

	sender, err := sideB.ClaimChannelEndAsSender(ctx, receiver.Cookie())
	require.NoError(t, err)

	item := wire.Serialize(wire.None{})
	require.NoError(t, sender.Send(ctx, item))

	got, err := receiver.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, item.Bytes(), got.Bytes())

	require.NoError(t, sender.Close(ctx))
	require.NoError(t, receiver.Close(ctx))
}

func TestBusListenerReportsObject(t *testing.T) {
	b := startBroker(t)
	watcher := newConnectedClient(t, b)
	owner := newConnectedClient(t, b)
	ctx, cancel := withTimeout(t)
	defer cancel()

	listener, err := watcher.CreateBusListener(ctx)
	require.NoError(t, err)
	require.NoError(t, listener.AddFilter(ctx, message.BusListenerFilter{Kind: message.FilterAnyObject}))
	require.NoError(t, listener.Start(ctx, message.BusListenerNew))

	objUuid := aldrin.NewObjectUuid()
	_, err = owner.CreateObject(ctx, objUuid)
	require.NoError(t, err)

	ev, err := listener.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, objUuid, aldrin.ObjectUuid(ev.Event.ObjectUuid))
}
