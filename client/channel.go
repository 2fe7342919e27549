package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/wire"
)

// channelState is the dispatcher-owned bookkeeping for one channel,
// holding whichever end(s) this client has claimed.
type channelState struct {
	cookie   aldrin.ChannelCookie
	sender   *senderState
	receiver *receiverState
}

// sendWaiter is a Send call blocked for credit, queued FIFO; it is
// resolved (and the item actually transmitted) the moment credit
// arrives, all from the dispatcher goroutine.
type sendWaiter struct {
	item   wire.SerializedValue
	result *mailbox.OneShot[error]
}

type senderState struct {
	cookie  aldrin.ChannelCookie
	credit  uint32
	waiters []*sendWaiter
	closed  bool
}

type receiverState struct {
	capacity uint32 // M
	current  uint32 // C: remaining credit before the client must replenish
	lowWater uint32
	queue    *mailbox.Mailbox[wire.SerializedValue]
	closed   bool
}

// ChannelSender is a claimed sender end. Send suspends on flow-control
// credit, mirroring the underlying protocol's backpressure.
type ChannelSender struct {
	client *Client
	cookie aldrin.ChannelCookie
	state  *senderState
}

// ChannelReceiver is a claimed receiver end. The client auto-replenishes
// credit to the broker as items arrive.
type ChannelReceiver struct {
	client *Client
	cookie aldrin.ChannelCookie
	state  *receiverState
}

func (s *ChannelSender) Cookie() aldrin.ChannelCookie   { return s.cookie }
func (r *ChannelReceiver) Cookie() aldrin.ChannelCookie { return r.cookie }

// Send transmits item, blocking until flow-control credit is available.
func (s *ChannelSender) Send(ctx context.Context, item wire.SerializedValue) error {
	c := s.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		st := s.state
		if st.closed {
			result.Resolve(ErrClosed)
			return
		}
		if st.credit > 0 {
			st.credit--
			result.Resolve(c.send(message.SendItem{Cookie: [16]byte(s.cookie), Item: item}))
			return
		}
		st.waiters = append(st.waiters, &sendWaiter{item: item, result: result})
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		c.submit(context.Background(), func(c *Client) {
			s.state.waiters = removeSendWaiter(s.state.waiters, result)
		})
		return err
	}
	return out
}

// Close closes the sender end.
func (s *ChannelSender) Close(ctx context.Context) error {
	return s.client.closeChannelEnd(ctx, s.cookie, message.ChannelEndSender)
}

// Receive blocks for the next item, returning ErrClosed once the
// receiver end (or its peer) has closed.
func (r *ChannelReceiver) Receive(ctx context.Context) (wire.SerializedValue, error) {
	v, err := r.state.queue.Recv(ctx)
	if err == mailbox.ErrClosed {
		return v, ErrClosed
	}
	return v, err
}

// Close closes the receiver end.
func (r *ChannelReceiver) Close(ctx context.Context) error {
	return r.client.closeChannelEnd(ctx, r.cookie, message.ChannelEndReceiver)
}

func removeSendWaiter(list []*sendWaiter, target *mailbox.OneShot[error]) []*sendWaiter {
	for i, w := range list {
		if w.result == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// grantSenderCredit adds n units of credit and immediately transmits as
// many queued Send calls as that credit covers, FIFO.
func (c *Client) grantSenderCredit(s *senderState, n uint32) {
	s.credit += n
	for s.credit > 0 && len(s.waiters) > 0 {
		w := s.waiters[0]
		s.waiters = s.waiters[1:]
		s.credit--
		w.result.Resolve(c.send(message.SendItem{Cookie: [16]byte(s.cookie), Item: w.item}))
	}
}

type createChannelOutcome struct {
	cookie   aldrin.ChannelCookie
	sender   *ChannelSender
	receiver *ChannelReceiver
	err      error
}

// CreateChannelAsSender creates a new channel, claiming the sender end.
// The returned ChannelSender has no credit until the peer claims the
// receiver end.
func (c *Client) CreateChannelAsSender(ctx context.Context) (*ChannelSender, error) {
	out, err := c.createChannel(ctx, message.ChannelEndSender, nil)
	if err != nil {
		return nil, err
	}
	return out.sender, out.err
}

// CreateChannelAsReceiver creates a new channel, claiming the receiver
// end with the given capacity.
func (c *Client) CreateChannelAsReceiver(ctx context.Context, capacity uint32) (*ChannelReceiver, error) {
	out, err := c.createChannel(ctx, message.ChannelEndReceiver, &capacity)
	if err != nil {
		return nil, err
	}
	return out.receiver, out.err
}

func (c *Client) createChannel(ctx context.Context, claim message.ChannelEnd, capacity *uint32) (createChannelOutcome, error) {
	result := mailbox.NewOneShot[createChannelOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(createChannelOutcome{err: err})
				return
			}
			reply := m.(message.CreateChannelReply)
			cookie := aldrin.ChannelCookie(reply.Cookie)
			st := &channelState{cookie: cookie}
			out := createChannelOutcome{cookie: cookie}
			switch claim {
			case message.ChannelEndSender:
				st.sender = &senderState{cookie: cookie}
				out.sender = &ChannelSender{client: c, cookie: cookie, state: st.sender}
			case message.ChannelEndReceiver:
				cap := uint32(0)
				if capacity != nil {
					cap = *capacity
				}
				st.receiver = newReceiverState(c, cap)
				out.receiver = &ChannelReceiver{client: c, cookie: cookie, state: st.receiver}
			}
			c.channels[cookie] = st
			result.Resolve(out)
		})
		if err := c.send(message.CreateChannel{Serial: serial, Claim: claim, Capacity: capacity}); err != nil {
			delete(c.pending, serial)
			result.Resolve(createChannelOutcome{err: err})
		}
	}); err != nil {
		return createChannelOutcome{}, err
	}
	return result.Wait(ctx)
}

func newReceiverState(c *Client, capacity uint32) *receiverState {
	return &receiverState{
		capacity: capacity,
		current:  capacity,
		lowWater: lowWaterMark(capacity, c.cfg.ChannelCapacityFraction),
		queue:    mailbox.New[wire.SerializedValue](c.cfg.EventQueueDepth),
	}
}

// ClaimChannelEndAsSender claims the sender end of a channel someone
// else created.
func (c *Client) ClaimChannelEndAsSender(ctx context.Context, cookie aldrin.ChannelCookie) (*ChannelSender, error) {
	out, err := c.claimChannelEnd(ctx, cookie, message.ChannelEndSender, nil)
	if err != nil {
		return nil, err
	}
	return out.sender, out.err
}

// ClaimChannelEndAsReceiver claims the receiver end of a channel someone
// else created.
func (c *Client) ClaimChannelEndAsReceiver(ctx context.Context, cookie aldrin.ChannelCookie, capacity uint32) (*ChannelReceiver, error) {
	out, err := c.claimChannelEnd(ctx, cookie, message.ChannelEndReceiver, &capacity)
	if err != nil {
		return nil, err
	}
	return out.receiver, out.err
}

func (c *Client) claimChannelEnd(ctx context.Context, cookie aldrin.ChannelCookie, which message.ChannelEnd, capacity *uint32) (createChannelOutcome, error) {
	result := mailbox.NewOneShot[createChannelOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(createChannelOutcome{err: err})
				return
			}
			reply := m.(message.ClaimChannelEndReply)
			switch reply.Result {
			case message.ClaimChannelEndOk:
				st, ok := c.channels[cookie]
				if !ok {
					st = &channelState{cookie: cookie}
					c.channels[cookie] = st
				}
				out := createChannelOutcome{cookie: cookie}
				switch which {
				case message.ChannelEndSender:
					credit := uint32(0)
					if reply.PeerCapacity != nil {
						credit = *reply.PeerCapacity
					}
					st.sender = &senderState{cookie: cookie, credit: credit}
					out.sender = &ChannelSender{client: c, cookie: cookie, state: st.sender}
				case message.ChannelEndReceiver:
					cap := uint32(0)
					if capacity != nil {
						cap = *capacity
					}
					st.receiver = newReceiverState(c, cap)
					out.receiver = &ChannelReceiver{client: c, cookie: cookie, state: st.receiver}
				}
				result.Resolve(out)
			case message.ClaimChannelEndAlreadyClaimed:
				result.Resolve(createChannelOutcome{err: ErrAlreadyClaimed})
			default:
				result.Resolve(createChannelOutcome{err: ErrInvalidChannel})
			}
		})
		msg := message.ClaimChannelEnd{Serial: serial, Cookie: [16]byte(cookie), Which: which, Capacity: capacity}
		if err := c.send(msg); err != nil {
			delete(c.pending, serial)
			result.Resolve(createChannelOutcome{err: err})
		}
	}); err != nil {
		return createChannelOutcome{}, err
	}
	return result.Wait(ctx)
}

func (c *Client) closeChannelEnd(ctx context.Context, cookie aldrin.ChannelCookie, which message.ChannelEnd) error {
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(err)
				return
			}
			reply := m.(message.CloseChannelEndReply)
			if reply.Result != message.CloseChannelEndOk {
				result.Resolve(ErrInvalidChannel)
				return
			}
			c.closeLocalChannelEnd(cookie, which)
			result.Resolve(nil)
		})
		if err := c.send(message.CloseChannelEnd{Serial: serial, Cookie: [16]byte(cookie), Which: which}); err != nil {
			delete(c.pending, serial)
			result.Resolve(err)
		}
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

func (c *Client) closeLocalChannelEnd(cookie aldrin.ChannelCookie, which message.ChannelEnd) {
	st, ok := c.channels[cookie]
	if !ok {
		return
	}
	switch which {
	case message.ChannelEndSender:
		if st.sender != nil {
			st.sender.closed = true
			for _, w := range st.sender.waiters {
				w.result.Resolve(ErrClosed)
			}
			st.sender.waiters = nil
		}
	case message.ChannelEndReceiver:
		if st.receiver != nil {
			st.receiver.closed = true
			st.receiver.queue.Close()
		}
	}
	if st.sender == nil && st.receiver == nil {
		delete(c.channels, cookie)
	}
}

func (c *Client) handleChannelEndClaimed(msg message.ChannelEndClaimed) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	st, ok := c.channels[cookie]
	if !ok {
		return
	}
	// The capacity carried here belongs to the receiver end; it is only
	// meaningful to us if we hold the sender end.
	if msg.Which == message.ChannelEndReceiver && st.sender != nil {
		credit := uint32(0)
		if msg.Capacity != nil {
			credit = *msg.Capacity
		}
		c.grantSenderCredit(st.sender, credit)
	}
}

func (c *Client) handleChannelEndClosed(msg message.ChannelEndClosed) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	st, ok := c.channels[cookie]
	if !ok {
		return
	}
	switch msg.Which {
	case message.ChannelEndReceiver:
		if st.sender != nil {
			st.sender.closed = true
			for _, w := range st.sender.waiters {
				w.result.Resolve(ErrClosed)
			}
			st.sender.waiters = nil
		}
	case message.ChannelEndSender:
		if st.receiver != nil {
			st.receiver.closed = true
			st.receiver.queue.Close()
		}
	}
}

func (c *Client) handleItemReceived(msg message.ItemReceived) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	st, ok := c.channels[cookie]
	if !ok || st.receiver == nil {
		return
	}
	r := st.receiver
	r.queue.TrySend(msg.Item)
	if r.current > 0 {
		r.current--
	}
	if r.current <= r.lowWater {
		n := r.capacity - r.current
		if n > 0 {
			c.send(message.AddChannelCapacity{Cookie: msg.Cookie, N: n})
			r.current = r.capacity
		}
	}
}

func (c *Client) handleAddChannelCapacity(msg message.AddChannelCapacity) {
	cookie := aldrin.ChannelCookie(msg.Cookie)
	st, ok := c.channels[cookie]
	if !ok || st.sender == nil {
		return
	}
	c.grantSenderCredit(st.sender, msg.N)
}
