package broker

import "github.com/aldrin-bus/aldrin/message"

// dispatch routes one post-handshake inbound message to its handler.
// Every branch either replies on conn, forwards to another connection,
// or mutates shared registry state — never more than one connection's
// worth of I/O per call, matching the no-shared-mutex, message-passing
// concurrency model.
func (b *Broker) dispatch(conn *connection, m message.Message) {
	switch msg := m.(type) {
	case message.Sync:
		conn.enqueue(message.SyncReply{Serial: msg.Serial})
	case message.Shutdown:
		b.terminate(conn.id)
	case message.Connect:
		// Connect is only valid as the very first message; repeating it
		// mid-session is a protocol error fatal to the connection.
		b.terminate(conn.id)

	case message.CreateObject:
		b.onCreateObject(conn, msg)
	case message.DestroyObject:
		b.onDestroyObject(conn, msg)

	case message.CreateService:
		b.onCreateService(conn, msg)
	case message.DestroyService:
		b.onDestroyService(conn, msg)
	case message.QueryServiceVersion:
		b.onQueryServiceVersion(conn, msg)
	case message.QueryServiceInfo:
		b.onQueryServiceInfo(conn, msg)

	case message.CallFunction:
		b.onCallFunction(conn, msg)
	case message.CallFunctionReply:
		b.onCallFunctionReply(conn, msg)
	case message.AbortFunctionCall:
		b.onAbortFunctionCall(conn, msg)

	case message.SubscribeEvent:
		b.onSubscribeEvent(conn, msg)
	case message.UnsubscribeEvent:
		b.onUnsubscribeEvent(conn, msg)
	case message.EmitEvent:
		b.onEmitEvent(conn, msg)
	case message.SubscribeAllEvents:
		b.onSubscribeAllEvents(conn, msg)
	case message.UnsubscribeAllEvents:
		b.onUnsubscribeAllEvents(conn, msg)

	case message.CreateChannel:
		b.onCreateChannel(conn, msg)
	case message.ClaimChannelEnd:
		b.onClaimChannelEnd(conn, msg)
	case message.CloseChannelEnd:
		b.onCloseChannelEnd(conn, msg)
	case message.SendItem:
		b.onSendItem(conn, msg)
	case message.AddChannelCapacity:
		b.onAddChannelCapacity(conn, msg)

	case message.CreateBusListener:
		b.onCreateBusListener(conn, msg)
	case message.DestroyBusListener:
		b.onDestroyBusListener(conn, msg)
	case message.AddBusListenerFilter:
		b.onAddBusListenerFilter(conn, msg)
	case message.RemoveBusListenerFilter:
		b.onRemoveBusListenerFilter(conn, msg)
	case message.ClearBusListenerFilters:
		b.onClearBusListenerFilters(conn, msg)
	case message.StartBusListener:
		b.onStartBusListener(conn, msg)
	case message.StopBusListener:
		b.onStopBusListener(conn, msg)

	case message.QueryIntrospection:
		b.onQueryIntrospection(conn, msg)
	case message.QueryIntrospectionReply:
		b.onQueryIntrospectionReply(conn, msg)
	case message.RegisterIntrospection:
		b.onRegisterIntrospection(conn, msg)

	default:
		b.terminate(conn.id)
	}
}
