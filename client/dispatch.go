package client

import "github.com/aldrin-bus/aldrin/message"

// handleInbound routes one message read off the connection to whichever
// piece of client state it concerns: a reply completes a pending
// request by serial, everything else is an unsolicited event pushed by
// the broker.
func (c *Client) handleInbound(m message.Message) {
	switch msg := m.(type) {
	case message.ConnectReply:
		c.handshake.Resolve(handshakeOutcome{result: msg.ReplyKind})
	case message.Shutdown:
		c.teardown(ErrClosed)

	case message.SyncReply:
		c.completePending(msg.Serial, msg)
	case message.CreateObjectReply:
		c.completePending(msg.Serial, msg)
	case message.DestroyObjectReply:
		c.completePending(msg.Serial, msg)
	case message.CreateServiceReply:
		c.completePending(msg.Serial, msg)
	case message.DestroyServiceReply:
		c.completePending(msg.Serial, msg)
	case message.QueryServiceVersionReply:
		c.completePending(msg.Serial, msg)
	case message.QueryServiceInfoReply:
		c.completePending(msg.Serial, msg)
	case message.SubscribeEventReply:
		c.completePending(msg.Serial, msg)
	case message.SubscribeAllEventsReply:
		c.completePending(msg.Serial, msg)
	case message.CallFunctionReply:
		c.completePending(msg.Serial, msg)
	case message.CreateChannelReply:
		c.completePending(msg.Serial, msg)
	case message.ClaimChannelEndReply:
		c.completePending(msg.Serial, msg)
	case message.CloseChannelEndReply:
		c.completePending(msg.Serial, msg)
	case message.CreateBusListenerReply:
		c.completePending(msg.Serial, msg)
	case message.DestroyBusListenerReply:
		c.completePending(msg.Serial, msg)
	case message.StartBusListenerReply:
		c.completePending(msg.Serial, msg)
	case message.StopBusListenerReply:
		c.completePending(msg.Serial, msg)
	case message.QueryIntrospectionReply:
		c.completePending(msg.Serial, msg)

	case message.CallFunction:
		c.handleIncomingCall(msg)
	case message.AbortFunctionCall:
		c.handleAbortFunctionCall(msg)
	case message.EmitEvent:
		c.handleEmitEvent(msg)
	case message.ServiceDestroyed:
		c.handleServiceDestroyed(msg)

	case message.ChannelEndClaimed:
		c.handleChannelEndClaimed(msg)
	case message.ChannelEndClosed:
		c.handleChannelEndClosed(msg)
	case message.ItemReceived:
		c.handleItemReceived(msg)
	case message.AddChannelCapacity:
		c.handleAddChannelCapacity(msg)

	case message.EmitBusEvent:
		c.handleEmitBusEvent(msg)
	case message.BusListenerCurrentFinished:
		c.handleBusListenerCurrentFinished(msg)

	case message.QueryIntrospection:
		c.handleQueryIntrospection(msg)
	}
}
