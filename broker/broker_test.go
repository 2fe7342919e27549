package broker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/transport"
	"github.com/aldrin-bus/aldrin/transport/tcp"
	"github.com/aldrin-bus/aldrin/wire"
)

func newPeerPair() (serverSide, clientSide transport.Conn) {
	a, b := net.Pipe()
	return tcp.NewConnection(a, "server", nil), tcp.NewConnection(b, "client", nil)
}

func startBroker(t *testing.T) *Broker {
	t.Helper()
	b := New(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)
	return b
}

func recvMsg(t *testing.T, c transport.Conn) message.Message {
	t.Helper()
	type result struct {
		m   message.Message
		err error
	}
	ch := make(chan result, 1)
	go func() {
		m, err := c.Receive()
		ch <- result{m, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func expectSilence(t *testing.T, c transport.Conn, d time.Duration) {
	t.Helper()
	ch := make(chan message.Message, 1)
	go func() {
		if m, err := c.Receive(); err == nil {
			ch <- m
		}
	}()
	select {
	case m := <-ch:
		t.Fatalf("expected no message, got %#v", m)
	case <-time.After(d):
	}
}

// connectPeer registers a new connection with b and completes the
// handshake, returning the client's own side of the pipe to drive it.
func connectPeer(t *testing.T, b *Broker) transport.Conn {
	t.Helper()
	server, client := newPeerPair()
	b.AddConnection(server)
	require.NoError(t, client.Send(message.Connect{Version: 1}))
	reply := recvMsg(t, client)
	require.Equal(t, message.ConnectReply{ReplyKind: message.ConnectOk}, reply)
	return client
}

func randUuid() [16]byte {
	return [16]byte(uuid.New())
}

// createObjectAndService drives peer through CreateObject+CreateService
// and returns the object's uuid and cookie plus the service cookie
// clients address it by.
func createObjectAndService(t *testing.T, peer transport.Conn, serial uint32) (objUuid, objCookie, svcCookie [16]byte) {
	t.Helper()
	objUuid = randUuid()
	require.NoError(t, peer.Send(message.CreateObject{Serial: serial, Uuid: objUuid}))
	reply := recvMsg(t, peer).(message.CreateObjectReply)
	require.Equal(t, message.CreateObjectOk, reply.Result)
	objCookie = reply.Cookie

	require.NoError(t, peer.Send(message.CreateService{
		Serial:       serial + 1,
		ObjectCookie: objCookie,
		Uuid:         randUuid(),
		Version:      1,
	}))
	svcReply := recvMsg(t, peer).(message.CreateServiceReply)
	require.Equal(t, message.CreateServiceOk, svcReply.Result)
	svcCookie = svcReply.Cookie
	return objUuid, objCookie, svcCookie
}

func TestCallFunctionRoundTrip(t *testing.T) {
	b := startBroker(t)
	callee := connectPeer(t, b)
	caller := connectPeer(t, b)

	_, _, svcCookie := createObjectAndService(t, callee, 1)

	args := message.CallFunction{Serial: 42, Service: svcCookie, Function: 7}
	require.NoError(t, caller.Send(args))

	forwarded := recvMsg(t, callee).(message.CallFunction)
	assert.Equal(t, svcCookie, forwarded.Service)
	assert.Equal(t, uint32(7), forwarded.Function)
	assert.NotEqual(t, args.Serial, forwarded.Serial)

	require.NoError(t, callee.Send(message.CallFunctionReply{
		Serial:   forwarded.Serial,
		Result:   message.CallOk,
		HasValue: false,
	}))

	reply := recvMsg(t, caller).(message.CallFunctionReply)
	assert.Equal(t, args.Serial, reply.Serial)
	assert.Equal(t, message.CallOk, reply.Result)
}

func TestCallFunctionAbortedByCallee(t *testing.T) {
	b := startBroker(t)
	callee := connectPeer(t, b)
	caller := connectPeer(t, b)

	_, _, svcCookie := createObjectAndService(t, callee, 1)

	require.NoError(t, caller.Send(message.CallFunction{Serial: 9, Service: svcCookie, Function: 1}))
	forwarded := recvMsg(t, callee).(message.CallFunction)

	require.NoError(t, callee.Send(message.CallFunctionReply{Serial: forwarded.Serial, Result: message.CallAborted}))

	reply := recvMsg(t, caller).(message.CallFunctionReply)
	assert.Equal(t, uint32(9), reply.Serial)
	assert.Equal(t, message.CallAborted, reply.Result)
}

func TestCallFunctionAbortedByCaller(t *testing.T) {
	b := startBroker(t)
	callee := connectPeer(t, b)
	caller := connectPeer(t, b)

	_, _, svcCookie := createObjectAndService(t, callee, 1)

	require.NoError(t, caller.Send(message.CallFunction{Serial: 3, Service: svcCookie, Function: 1}))
	forwarded := recvMsg(t, callee).(message.CallFunction)

	require.NoError(t, caller.Send(message.AbortFunctionCall{Serial: 3}))

	abort := recvMsg(t, callee).(message.AbortFunctionCall)
	assert.Equal(t, forwarded.Serial, abort.Serial)
}

func TestCallFunctionInvalidService(t *testing.T) {
	b := startBroker(t)
	caller := connectPeer(t, b)

	require.NoError(t, caller.Send(message.CallFunction{Serial: 1, Service: randUuid(), Function: 1}))
	reply := recvMsg(t, caller).(message.CallFunctionReply)
	assert.Equal(t, message.CallInvalidService, reply.Result)
}

func TestEventSubscribeAndUnsubscribe(t *testing.T) {
	b := startBroker(t)
	publisher := connectPeer(t, b)
	subscriber := connectPeer(t, b)

	_, _, svcCookie := createObjectAndService(t, publisher, 1)

	require.NoError(t, subscriber.Send(message.SubscribeEvent{Serial: 1, Service: svcCookie, Event: 5}))
	subReply := recvMsg(t, subscriber).(message.SubscribeEventReply)
	require.Equal(t, message.SubscribeEventOk, subReply.Result)

	require.NoError(t, publisher.Send(message.EmitEvent{Service: svcCookie, Event: 5, Args: noneValue()}))
	emitted := recvMsg(t, subscriber).(message.EmitEvent)
	assert.Equal(t, uint32(5), emitted.Event)

	require.NoError(t, subscriber.Send(message.UnsubscribeEvent{Service: svcCookie, Event: 5}))

	require.NoError(t, publisher.Send(message.EmitEvent{Service: svcCookie, Event: 5, Args: noneValue()}))
	expectSilence(t, subscriber, 200*time.Millisecond)
}

func TestEventNotForwardedForOtherEvent(t *testing.T) {
	b := startBroker(t)
	publisher := connectPeer(t, b)
	subscriber := connectPeer(t, b)

	_, _, svcCookie := createObjectAndService(t, publisher, 1)

	require.NoError(t, subscriber.Send(message.SubscribeEvent{Serial: 1, Service: svcCookie, Event: 5}))
	_ = recvMsg(t, subscriber)

	require.NoError(t, publisher.Send(message.EmitEvent{Service: svcCookie, Event: 6, Args: noneValue()}))
	expectSilence(t, subscriber, 200*time.Millisecond)
}

func TestChannelFlowControl(t *testing.T) {
	b := startBroker(t)
	sender := connectPeer(t, b)
	receiver := connectPeer(t, b)

	require.NoError(t, sender.Send(message.CreateChannel{Serial: 1, Claim: message.ChannelEndSender}))
	created := recvMsg(t, sender).(message.CreateChannelReply)

	capacity := uint32(2)
	require.NoError(t, receiver.Send(message.ClaimChannelEnd{
		Serial:   1,
		Cookie:   created.Cookie,
		Which:    message.ChannelEndReceiver,
		Capacity: &capacity,
	}))
	claimReply := recvMsg(t, receiver).(message.ClaimChannelEndReply)
	require.Equal(t, message.ClaimChannelEndOk, claimReply.Result)

	claimed := recvMsg(t, sender).(message.ChannelEndClaimed)
	require.Equal(t, message.ChannelEndReceiver, claimed.Which)
	require.NotNil(t, claimed.Capacity)
	assert.Equal(t, capacity, *claimed.Capacity)

	require.NoError(t, sender.Send(message.SendItem{Cookie: created.Cookie, Item: noneValue()}))
	item1 := recvMsg(t, receiver).(message.ItemReceived)
	assert.Equal(t, created.Cookie, item1.Cookie)

	require.NoError(t, sender.Send(message.SendItem{Cookie: created.Cookie, Item: noneValue()}))
	_ = recvMsg(t, receiver).(message.ItemReceived)

	// Credit is now exhausted; sending again without topping up is a
	// protocol violation and the broker tears the sender's connection
	// down rather than forwarding a third item.
	require.NoError(t, sender.Send(message.SendItem{Cookie: created.Cookie, Item: noneValue()}))
	_, err := sender.Receive()
	assert.Error(t, err)
}

func TestChannelAddCapacityReplenishesCredit(t *testing.T) {
	b := startBroker(t)
	sender := connectPeer(t, b)
	receiver := connectPeer(t, b)

	require.NoError(t, sender.Send(message.CreateChannel{Serial: 1, Claim: message.ChannelEndSender}))
	created := recvMsg(t, sender).(message.CreateChannelReply)

	capacity := uint32(1)
	require.NoError(t, receiver.Send(message.ClaimChannelEnd{
		Serial: 1, Cookie: created.Cookie, Which: message.ChannelEndReceiver, Capacity: &capacity,
	}))
	_ = recvMsg(t, receiver)
	_ = recvMsg(t, sender) // ChannelEndClaimed

	require.NoError(t, sender.Send(message.SendItem{Cookie: created.Cookie, Item: noneValue()}))
	_ = recvMsg(t, receiver)

	require.NoError(t, receiver.Send(message.AddChannelCapacity{Cookie: created.Cookie, N: 1}))
	grant := recvMsg(t, sender).(message.AddChannelCapacity)
	assert.Equal(t, uint32(1), grant.N)

	require.NoError(t, sender.Send(message.SendItem{Cookie: created.Cookie, Item: noneValue()}))
	_ = recvMsg(t, receiver).(message.ItemReceived)
}

func TestBusListenerCurrentScopeSnapshotsThenStops(t *testing.T) {
	b := startBroker(t)
	owner := connectPeer(t, b)
	listenerConn := connectPeer(t, b)

	objUuid, _, _ := createObjectAndService(t, owner, 1)

	require.NoError(t, listenerConn.Send(message.CreateBusListener{Serial: 1}))
	created := recvMsg(t, listenerConn).(message.CreateBusListenerReply)

	require.NoError(t, listenerConn.Send(message.AddBusListenerFilter{
		Cookie: created.Cookie,
		Filter: message.BusListenerFilter{Kind: message.FilterAnyObjectAnyService},
	}))

	require.NoError(t, listenerConn.Send(message.StartBusListener{
		Serial: 2, Cookie: created.Cookie, Scope: message.BusListenerCurrent,
	}))

	startReply := recvMsg(t, listenerConn).(message.StartBusListenerReply)
	require.Equal(t, message.StartBusListenerOk, startReply.Result)

	seenObject := false
	seenService := false
	for {
		m := recvMsg(t, listenerConn)
		if _, ok := m.(message.BusListenerCurrentFinished); ok {
			break
		}
		ev := m.(message.EmitBusEvent)
		switch ev.Event.Kind {
		case message.BusEventObjectCreated:
			if ev.Event.ObjectUuid == objUuid {
				seenObject = true
			}
		case message.BusEventServiceCreated:
			seenService = true
		}
	}
	assert.True(t, seenObject)
	assert.True(t, seenService)

	// A new object created after the snapshot finished must not be
	// reported: Current is one-shot and the listener reverted to stopped.
	require.NoError(t, owner.Send(message.CreateObject{Serial: 99, Uuid: randUuid()}))
	_ = recvMsg(t, owner)
	expectSilence(t, listenerConn, 200*time.Millisecond)
}

func TestBusListenerNewScopeReceivesLiveEvents(t *testing.T) {
	b := startBroker(t)
	owner := connectPeer(t, b)
	listenerConn := connectPeer(t, b)

	require.NoError(t, listenerConn.Send(message.CreateBusListener{Serial: 1}))
	created := recvMsg(t, listenerConn).(message.CreateBusListenerReply)

	require.NoError(t, listenerConn.Send(message.AddBusListenerFilter{
		Cookie: created.Cookie,
		Filter: message.BusListenerFilter{Kind: message.FilterAnyObjectAnyService},
	}))
	require.NoError(t, listenerConn.Send(message.StartBusListener{
		Serial: 2, Cookie: created.Cookie, Scope: message.BusListenerNew,
	}))
	_ = recvMsg(t, listenerConn).(message.StartBusListenerReply)

	newUuid := randUuid()
	require.NoError(t, owner.Send(message.CreateObject{Serial: 1, Uuid: newUuid}))
	_ = recvMsg(t, owner)

	ev := recvMsg(t, listenerConn).(message.EmitBusEvent)
	assert.Equal(t, message.BusEventObjectCreated, ev.Event.Kind)
	assert.Equal(t, newUuid, ev.Event.ObjectUuid)
}

func TestServiceDestroyedOnOwnerDisconnect(t *testing.T) {
	b := startBroker(t)
	owner := connectPeer(t, b)
	subscriber := connectPeer(t, b)

	_, _, svcCookie := createObjectAndService(t, owner, 1)

	require.NoError(t, subscriber.Send(message.SubscribeAllEvents{Serial: 1, Service: svcCookie}))
	_ = recvMsg(t, subscriber).(message.SubscribeAllEventsReply)

	require.NoError(t, owner.Close())

	destroyed := recvMsg(t, subscriber).(message.ServiceDestroyed)
	assert.Equal(t, svcCookie, destroyed.Service)
}

func noneValue() wire.SerializedValue { return wire.Serialize(wire.None{}) }
