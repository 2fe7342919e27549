package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

// channelEnd tracks one end of a channel: unclaimed until a connection
// claims it, after which it belongs to that connection until closed.
type channelEnd struct {
	claimed  bool
	closed   bool
	conn     connID
	capacity uint32 // meaningful only for the receiver end
}

// channelState is one channel's full broker-side record. A channel is
// established once both ends are claimed, at which point sender credit
// starts at the receiver's granted capacity.
type channelState struct {
	cookie   aldrin.ChannelCookie
	sender   channelEnd
	receiver channelEnd

	established bool
	credit      uint32

	// pendingSenderClose records that the sender end was closed while an
	// item it sent might still be in flight to the receiver; the channel
	// is only fully destroyed once that is no longer possible. In this
	// broker items are forwarded synchronously, so no code path ever sets
	// the flag; the field only documents the rule.
	pendingSenderClose bool
}

func (ch *channelState) end(which message.ChannelEnd) *channelEnd {
	if which == message.ChannelEndSender {
		return &ch.sender
	}
	return &ch.receiver
}

func (ch *channelState) bothClosed() bool {
	return ch.sender.closed && ch.receiver.closed
}

// createChannel allocates a new channel with one end pre-claimed by the
// creating connection.
func (b *Broker) createChannel(owner connID, which message.ChannelEnd, capacity *uint32) *channelState {
	cookie := aldrin.NewChannelCookie()
	ch := &channelState{cookie: cookie}
	e := ch.end(which)
	e.claimed = true
	e.conn = owner
	if which == message.ChannelEndReceiver && capacity != nil {
		e.capacity = *capacity
	}
	b.channels[cookie] = ch
	return ch
}

// claimChannelEnd claims the still-unclaimed end of an existing channel.
// It returns the peer's granted capacity when the claimed end is the
// sender (so the broker can report it back), and whether the channel
// just became established.
func (b *Broker) claimChannelEnd(ch *channelState, claimer connID, which message.ChannelEnd, capacity *uint32) (peerCapacity *uint32, justEstablished bool, ok bool) {
	e := ch.end(which)
	if e.claimed {
		return nil, false, false
	}
	e.claimed = true
	e.conn = claimer
	if which == message.ChannelEndReceiver && capacity != nil {
		e.capacity = *capacity
	}

	if ch.sender.claimed && ch.receiver.claimed {
		ch.established = true
		ch.credit = ch.receiver.capacity
		justEstablished = true
		if which == message.ChannelEndSender {
			peerCapacity = &ch.receiver.capacity
		}
	}
	return peerCapacity, justEstablished, true
}

// closeChannelEnd marks which closed, returning the peer end's record
// (so the caller can notify its connection if it is claimed) and whether
// both ends are now closed, in which case the channel has been removed
// from the broker's registry.
func (b *Broker) closeChannelEnd(ch *channelState, which message.ChannelEnd) (peer *channelEnd, destroy bool) {
	ch.end(which).closed = true
	var peerEnd *channelEnd
	if which == message.ChannelEndSender {
		peerEnd = &ch.receiver
	} else {
		peerEnd = &ch.sender
	}
	if ch.bothClosed() {
		delete(b.channels, ch.cookie)
		return peerEnd, true
	}
	return peerEnd, false
}

func otherChannelEnd(which message.ChannelEnd) message.ChannelEnd {
	if which == message.ChannelEndSender {
		return message.ChannelEndReceiver
	}
	return message.ChannelEndSender
}

func (b *Broker) onCreateChannel(conn *connection, msg message.CreateChannel) {
	ch := b.createChannel(conn.id, msg.Claim, msg.Capacity)
	conn.channelEnds[channelEndKey{cookie: ch.cookie, which: msg.Claim}] = struct{}{}
	conn.enqueue(message.CreateChannelReply{Serial: msg.Serial, Cookie: [16]byte(ch.cookie.Wire())})
}

func (b *Broker) onClaimChannelEnd(conn *connection, msg message.ClaimChannelEnd) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	ch, ok := b.channels[cookie]
	if !ok {
		conn.enqueue(message.ClaimChannelEndReply{Serial: msg.Serial, Result: message.ClaimChannelEndInvalidChannel})
		return
	}
	peerCapacity, established, ok := b.claimChannelEnd(ch, conn.id, msg.Which, msg.Capacity)
	if !ok {
		conn.enqueue(message.ClaimChannelEndReply{Serial: msg.Serial, Result: message.ClaimChannelEndAlreadyClaimed})
		return
	}
	conn.channelEnds[channelEndKey{cookie: cookie, which: msg.Which}] = struct{}{}
	conn.enqueue(message.ClaimChannelEndReply{Serial: msg.Serial, Result: message.ClaimChannelEndOk, PeerCapacity: peerCapacity})

	if !established {
		return
	}
	peer := ch.end(otherChannelEnd(msg.Which))
	peerConn, ok := b.conns[peer.conn]
	if !ok {
		return
	}
	var capacity *uint32
	if msg.Which == message.ChannelEndReceiver {
		c := ch.receiver.capacity
		capacity = &c
	}
	peerConn.enqueue(message.ChannelEndClaimed{Cookie: msg.Cookie, Which: msg.Which, Capacity: capacity})
}

func (b *Broker) onCloseChannelEnd(conn *connection, msg message.CloseChannelEnd) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	ch, ok := b.channels[cookie]
	if !ok {
		conn.enqueue(message.CloseChannelEndReply{Serial: msg.Serial, Result: message.CloseChannelEndInvalidChannel})
		return
	}
	e := ch.end(msg.Which)
	if !e.claimed || e.conn != conn.id || e.closed {
		conn.enqueue(message.CloseChannelEndReply{Serial: msg.Serial, Result: message.CloseChannelEndInvalidChannel})
		return
	}

	peer, _ := b.closeChannelEnd(ch, msg.Which)
	delete(conn.channelEnds, channelEndKey{cookie: cookie, which: msg.Which})
	conn.enqueue(message.CloseChannelEndReply{Serial: msg.Serial, Result: message.CloseChannelEndOk})

	if peer.claimed {
		if peerConn, ok := b.conns[peer.conn]; ok {
			peerConn.enqueue(message.ChannelEndClosed{Cookie: msg.Cookie, Which: msg.Which})
		}
	}
}

// onSendItem forwards one item to the established channel's receiver,
// consuming one unit of sender credit. The caller never sends without
// credit in a conforming client; a connection that does anyway is
// treated as a protocol violation and torn down.
func (b *Broker) onSendItem(conn *connection, msg message.SendItem) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	ch, ok := b.channels[cookie]
	if !ok || !ch.established || ch.sender.conn != conn.id || ch.sender.closed {
		return
	}
	if ch.credit == 0 {
		b.terminate(conn.id)
		return
	}
	ch.credit--
	if ch.receiver.closed {
		return
	}
	if receiverConn, ok := b.conns[ch.receiver.conn]; ok {
		receiverConn.enqueue(message.ItemReceived{Cookie: msg.Cookie, Item: msg.Item})
	}
}

func (b *Broker) onAddChannelCapacity(conn *connection, msg message.AddChannelCapacity) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	ch, ok := b.channels[cookie]
	if !ok || !ch.established || ch.receiver.conn != conn.id {
		return
	}
	ch.credit += msg.N
	if ch.sender.closed {
		return
	}
	if senderConn, ok := b.conns[ch.sender.conn]; ok {
		senderConn.enqueue(message.AddChannelCapacity{Cookie: msg.Cookie, N: msg.N})
	}
}

// closeOwnedChannelEnd is used by the disconnect cascade to close one
// end this connection still owns, notifying its peer exactly as an
// explicit CloseChannelEnd would.
func (b *Broker) closeOwnedChannelEnd(key channelEndKey) {
	ch, ok := b.channels[key.cookie]
	if !ok {
		return
	}
	e := ch.end(key.which)
	if e.closed {
		return
	}
	peer, _ := b.closeChannelEnd(ch, key.which)
	if peer.claimed {
		if peerConn, ok := b.conns[peer.conn]; ok {
			peerConn.enqueue(message.ChannelEndClosed{Cookie: [16]byte(key.cookie.Wire()), Which: key.which})
		}
	}
}
