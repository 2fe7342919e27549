package message

import (
	"github.com/aldrin-bus/aldrin/varint"
	"github.com/aldrin-bus/aldrin/wire"
)

// Message is implemented by every concrete message type in the message
// set. appendBody writes the kind-specific payload (everything after the
// header) to buf and returns the extended slice.
type Message interface {
	Kind() Kind
	appendBody(buf []byte) []byte
}

// Encode renders m as a complete framed message: header plus body.
func Encode(m Message) []byte {
	buf := make([]byte, HeaderLen)
	buf = m.appendBody(buf)
	Header{Length: uint32(len(buf)), Kind: m.Kind()}.put(buf)
	return buf
}

// Decode parses one complete frame (header and body) into its concrete
// Message type.
func Decode(frame []byte) (Message, error) {
	h, err := ParseHeaderFromBytes(frame)
	if err != nil {
		return nil, err
	}
	if int(h.Length) != len(frame) {
		return nil, newProtocolError(ErrMalformedBody, "frame length does not match header")
	}
	if !h.Kind.valid() {
		return nil, newProtocolError(ErrUnknownKind, "")
	}

	body := frame[HeaderLen:]
	decodeFn, ok := decoders[h.Kind]
	if !ok {
		return nil, newProtocolError(ErrUnknownKind, "")
	}
	return decodeFn(body)
}

type decodeFunc func(body []byte) (Message, error)

var decoders map[Kind]decodeFunc

func registerDecoder(k Kind, fn decodeFunc) {
	if decoders == nil {
		decoders = make(map[Kind]decodeFunc)
	}
	decoders[k] = fn
}

// --- body reader: a small cursor over a decoded message's body bytes ---

type bodyReader struct {
	data []byte
	pos  int
}

func (r *bodyReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, newProtocolError(ErrMalformedBody, "unexpected end of body")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *bodyReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, newProtocolError(ErrMalformedBody, "unexpected end of body")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *bodyReader) uint32() (uint32, error) {
	v, n, err := varint.DecodeUint32Bytes(r.data[r.pos:])
	if err != nil {
		return 0, newProtocolError(ErrMalformedBody, err.Error())
	}
	r.pos += n
	return v, nil
}

func (r *bodyReader) uuid() ([16]byte, error) {
	b, err := r.take(16)
	if err != nil {
		return [16]byte{}, err
	}
	var u [16]byte
	copy(u[:], b)
	return u, nil
}

// optUuid reads a presence byte followed, if set, by 16 raw bytes.
func (r *bodyReader) optUuid() (*[16]byte, error) {
	present, err := r.byte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	u, err := r.uuid()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// optUint32 reads a presence byte followed, if set, by a varint.
func (r *bodyReader) optUint32() (*uint32, error) {
	present, err := r.byte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	v, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// remainder returns every byte left in the body, for the trailing
// SerializedValue fields the message set's spec describes as consuming
// the remainder with no length prefix.
func (r *bodyReader) remainder() []byte {
	b := r.data[r.pos:]
	r.pos = len(r.data)
	return b
}

func (r *bodyReader) requireExhausted() error {
	if r.pos != len(r.data) {
		return newProtocolError(ErrTrailingBytes, "")
	}
	return nil
}

// --- append helpers, mirroring the bodyReader's field shapes ---

func appendUint32(buf []byte, v uint32) []byte {
	return varint.EncodeUint32(buf, v)
}

func appendUuid(buf []byte, u [16]byte) []byte {
	return append(buf, u[:]...)
}

func appendOptUuid(buf []byte, u *[16]byte) []byte {
	if u == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendUuid(buf, *u)
}

func appendOptUint32(buf []byte, v *uint32) []byte {
	if v == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendUint32(buf, *v)
}

func appendValue(buf []byte, v wire.SerializedValue) []byte {
	return append(buf, v.Bytes()...)
}

func decodeValueRemainder(r *bodyReader) wire.SerializedValue {
	return wire.SerializedValueFromBytes(r.remainder())
}
