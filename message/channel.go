package message

import "github.com/aldrin-bus/aldrin/wire"

func appendChannelEnd(buf []byte, e ChannelEnd) []byte { return append(buf, byte(e)) }

func (r *bodyReader) channelEnd() (ChannelEnd, error) {
	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	return ChannelEnd(b), nil
}

// CreateChannel creates a new channel, claiming one end for the sender.
// Capacity is only meaningful (and required) when Claim is
// ChannelEndReceiver.
type CreateChannel struct {
	Serial   uint32
	Claim    ChannelEnd
	Capacity *uint32
}

func (CreateChannel) Kind() Kind { return KindCreateChannel }
func (m CreateChannel) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendChannelEnd(buf, m.Claim)
	return appendOptUint32(buf, m.Capacity)
}

func decodeCreateChannel(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	claim, err := r.channelEnd()
	if err != nil {
		return nil, err
	}
	capacity, err := r.optUint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return CreateChannel{Serial: serial, Claim: claim, Capacity: capacity}, nil
}

// CreateChannelReply returns the cookie of the newly created channel.
type CreateChannelReply struct {
	Serial uint32
	Cookie [16]byte
}

func (CreateChannelReply) Kind() Kind { return KindCreateChannelReply }
func (m CreateChannelReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Cookie)
}

func decodeCreateChannelReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return CreateChannelReply{Serial: serial, Cookie: cookie}, nil
}

// ClaimChannelEnd claims the unclaimed end of an existing channel.
// Capacity is required when claiming the receiver end.
type ClaimChannelEnd struct {
	Serial   uint32
	Cookie   [16]byte
	Which    ChannelEnd
	Capacity *uint32
}

func (ClaimChannelEnd) Kind() Kind { return KindClaimChannelEnd }
func (m ClaimChannelEnd) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendUuid(buf, m.Cookie)
	buf = appendChannelEnd(buf, m.Which)
	return appendOptUint32(buf, m.Capacity)
}

func decodeClaimChannelEnd(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	which, err := r.channelEnd()
	if err != nil {
		return nil, err
	}
	capacity, err := r.optUint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return ClaimChannelEnd{Serial: serial, Cookie: cookie, Which: which, Capacity: capacity}, nil
}

// ClaimChannelEndResult is the closed outcome of a ClaimChannelEnd
// request.
type ClaimChannelEndResult uint8

const (
	ClaimChannelEndOk ClaimChannelEndResult = iota
	ClaimChannelEndInvalidChannel
	ClaimChannelEndAlreadyClaimed
)

// ClaimChannelEndReply answers ClaimChannelEnd; PeerCapacity (the other
// end's granted capacity) is set only on ClaimChannelEndOk when the
// claimed end is the sender.
type ClaimChannelEndReply struct {
	Serial       uint32
	Result       ClaimChannelEndResult
	PeerCapacity *uint32
}

func (ClaimChannelEndReply) Kind() Kind { return KindClaimChannelEndReply }
func (m ClaimChannelEndReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = append(buf, byte(m.Result))
	if m.Result == ClaimChannelEndOk {
		buf = appendOptUint32(buf, m.PeerCapacity)
	}
	return buf
}

func decodeClaimChannelEndReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reply := ClaimChannelEndReply{Serial: serial, Result: ClaimChannelEndResult(tag)}
	if reply.Result == ClaimChannelEndOk {
		cap, err := r.optUint32()
		if err != nil {
			return nil, err
		}
		reply.PeerCapacity = cap
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return reply, nil
}

// CloseChannelEnd closes one end of a channel owned by the sender.
type CloseChannelEnd struct {
	Serial uint32
	Cookie [16]byte
	Which  ChannelEnd
}

func (CloseChannelEnd) Kind() Kind { return KindCloseChannelEnd }
func (m CloseChannelEnd) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendUuid(buf, m.Cookie)
	return appendChannelEnd(buf, m.Which)
}

func decodeCloseChannelEnd(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	which, err := r.channelEnd()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return CloseChannelEnd{Serial: serial, Cookie: cookie, Which: which}, nil
}

// CloseChannelEndResult is the closed outcome of a CloseChannelEnd
// request.
type CloseChannelEndResult uint8

const (
	CloseChannelEndOk CloseChannelEndResult = iota
	CloseChannelEndInvalidChannel
)

// CloseChannelEndReply answers CloseChannelEnd.
type CloseChannelEndReply struct {
	Serial uint32
	Result CloseChannelEndResult
}

func (CloseChannelEndReply) Kind() Kind { return KindCloseChannelEndReply }
func (m CloseChannelEndReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeCloseChannelEndReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return CloseChannelEndReply{Serial: serial, Result: CloseChannelEndResult(tag)}, nil
}

// ChannelEndClaimed notifies the peer that the other end of the channel
// has been claimed; once both ends are claimed the channel is
// established.
type ChannelEndClaimed struct {
	Cookie   [16]byte
	Which    ChannelEnd
	Capacity *uint32
}

func (ChannelEndClaimed) Kind() Kind { return KindChannelEndClaimed }
func (m ChannelEndClaimed) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	buf = appendChannelEnd(buf, m.Which)
	return appendOptUint32(buf, m.Capacity)
}

func decodeChannelEndClaimed(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	which, err := r.channelEnd()
	if err != nil {
		return nil, err
	}
	capacity, err := r.optUint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return ChannelEndClaimed{Cookie: cookie, Which: which, Capacity: capacity}, nil
}

// ChannelEndClosed notifies the peer that one end of the channel has
// closed.
type ChannelEndClosed struct {
	Cookie [16]byte
	Which  ChannelEnd
}

func (ChannelEndClosed) Kind() Kind { return KindChannelEndClosed }
func (m ChannelEndClosed) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendChannelEnd(buf, m.Which)
}

func decodeChannelEndClosed(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	which, err := r.channelEnd()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return ChannelEndClosed{Cookie: cookie, Which: which}, nil
}

// SendItem sends one item into a channel, consuming one unit of the
// sender's credit.
type SendItem struct {
	Cookie [16]byte
	Item   wire.SerializedValue
}

func (SendItem) Kind() Kind { return KindSendItem }
func (m SendItem) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendValue(buf, m.Item)
}

func decodeSendItem(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	return SendItem{Cookie: cookie, Item: decodeValueRemainder(r)}, nil
}

// ItemReceived is SendItem forwarded to the receiving end.
type ItemReceived struct {
	Cookie [16]byte
	Item   wire.SerializedValue
}

func (ItemReceived) Kind() Kind { return KindItemReceived }
func (m ItemReceived) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendValue(buf, m.Item)
}

func decodeItemReceived(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	return ItemReceived{Cookie: cookie, Item: decodeValueRemainder(r)}, nil
}

// AddChannelCapacity restores n units of credit to the sender, forwarded
// verbatim by the broker.
type AddChannelCapacity struct {
	Cookie [16]byte
	N      uint32
}

func (AddChannelCapacity) Kind() Kind { return KindAddChannelCapacity }
func (m AddChannelCapacity) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendUint32(buf, m.N)
}

func decodeAddChannelCapacity(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return AddChannelCapacity{Cookie: cookie, N: n}, nil
}

func init() {
	registerDecoder(KindCreateChannel, decodeCreateChannel)
	registerDecoder(KindCreateChannelReply, decodeCreateChannelReply)
	registerDecoder(KindClaimChannelEnd, decodeClaimChannelEnd)
	registerDecoder(KindClaimChannelEndReply, decodeClaimChannelEndReply)
	registerDecoder(KindCloseChannelEnd, decodeCloseChannelEnd)
	registerDecoder(KindCloseChannelEndReply, decodeCloseChannelEndReply)
	registerDecoder(KindChannelEndClaimed, decodeChannelEndClaimed)
	registerDecoder(KindChannelEndClosed, decodeChannelEndClosed)
	registerDecoder(KindSendItem, decodeSendItem)
	registerDecoder(KindItemReceived, decodeItemReceived)
	registerDecoder(KindAddChannelCapacity, decodeAddChannelCapacity)
}
