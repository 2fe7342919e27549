package message

import "github.com/aldrin-bus/aldrin/wire"

// Connect is the first message a client sends on a new connection,
// proposing a session version and carrying arbitrary handshake data.
type Connect struct {
	Version uint32
	Data    wire.SerializedValue
}

func (Connect) Kind() Kind { return KindConnect }

func (m Connect) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Version)
	return appendValue(buf, m.Data)
}

func decodeConnect(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	version, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return Connect{Version: version, Data: decodeValueRemainder(r)}, nil
}

// ConnectReplyKind selects which of the three outcomes a ConnectReply
// carries.
type ConnectReplyKind uint8

const (
	ConnectOk ConnectReplyKind = iota
	ConnectRejected
	ConnectIncompatibleVersion
)

// ConnectReply is the broker's response to Connect: a closed three-variant
// sum, never more than one of Data/MinVersion populated per ReplyKind.
type ConnectReply struct {
	ReplyKind ConnectReplyKind
	Data      wire.SerializedValue // set when ReplyKind is ConnectOk or ConnectRejected
	MinVersion uint32              // set when ReplyKind is ConnectIncompatibleVersion
}

func (ConnectReply) Kind() Kind { return KindConnectReply }

func (m ConnectReply) appendBody(buf []byte) []byte {
	buf = append(buf, byte(m.ReplyKind))
	switch m.ReplyKind {
	case ConnectOk, ConnectRejected:
		return appendValue(buf, m.Data)
	case ConnectIncompatibleVersion:
		return appendUint32(buf, m.MinVersion)
	default:
		return buf
	}
}

func decodeConnectReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch ConnectReplyKind(tag) {
	case ConnectOk, ConnectRejected:
		return ConnectReply{ReplyKind: ConnectReplyKind(tag), Data: decodeValueRemainder(r)}, nil
	case ConnectIncompatibleVersion:
		v, err := r.uint32()
		if err != nil {
			return nil, err
		}
		if err := r.requireExhausted(); err != nil {
			return nil, err
		}
		return ConnectReply{ReplyKind: ConnectIncompatibleVersion, MinVersion: v}, nil
	default:
		return nil, newProtocolError(ErrMalformedBody, "unknown ConnectReply variant")
	}
}

// Shutdown carries no payload; either side may send it to request an
// orderly close.
type Shutdown struct{}

func (Shutdown) Kind() Kind                     { return KindShutdown }
func (Shutdown) appendBody(buf []byte) []byte   { return buf }
func decodeShutdown(body []byte) (Message, error) {
	if len(body) != 0 {
		return nil, newProtocolError(ErrTrailingBytes, "")
	}
	return Shutdown{}, nil
}

// Sync requests a SyncReply carrying the same serial once every message
// sent before it has been processed by the peer.
type Sync struct{ Serial uint32 }

func (Sync) Kind() Kind { return KindSync }
func (m Sync) appendBody(buf []byte) []byte {
	return appendUint32(buf, m.Serial)
}

func decodeSync(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return Sync{Serial: serial}, nil
}

// SyncReply answers a Sync with the same serial.
type SyncReply struct{ Serial uint32 }

func (SyncReply) Kind() Kind { return KindSyncReply }
func (m SyncReply) appendBody(buf []byte) []byte {
	return appendUint32(buf, m.Serial)
}

func decodeSyncReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return SyncReply{Serial: serial}, nil
}

func init() {
	registerDecoder(KindConnect, decodeConnect)
	registerDecoder(KindConnectReply, decodeConnectReply)
	registerDecoder(KindShutdown, decodeShutdown)
	registerDecoder(KindSync, decodeSync)
	registerDecoder(KindSyncReply, decodeSyncReply)
}
