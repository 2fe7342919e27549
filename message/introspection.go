package message

import "github.com/aldrin-bus/aldrin/wire"

// QueryIntrospection asks the broker for the introspection data
// registered for a type id.
type QueryIntrospection struct {
	Serial uint32
	TypeId [16]byte
}

func (QueryIntrospection) Kind() Kind { return KindQueryIntrospection }
func (m QueryIntrospection) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.TypeId)
}

func decodeQueryIntrospection(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	typeId, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return QueryIntrospection{Serial: serial, TypeId: typeId}, nil
}

// QueryIntrospectionResult is the closed outcome of a
// QueryIntrospection request.
type QueryIntrospectionResult uint8

const (
	QueryIntrospectionOk QueryIntrospectionResult = iota
	QueryIntrospectionUnavailable
)

// QueryIntrospectionReply answers QueryIntrospection; Value is set only
// on QueryIntrospectionOk.
type QueryIntrospectionReply struct {
	Serial uint32
	Result QueryIntrospectionResult
	Value  wire.SerializedValue
}

func (QueryIntrospectionReply) Kind() Kind { return KindQueryIntrospectionReply }
func (m QueryIntrospectionReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = append(buf, byte(m.Result))
	if m.Result == QueryIntrospectionOk {
		return appendValue(buf, m.Value)
	}
	return buf
}

func decodeQueryIntrospectionReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reply := QueryIntrospectionReply{Serial: serial, Result: QueryIntrospectionResult(tag)}
	if reply.Result == QueryIntrospectionOk {
		reply.Value = decodeValueRemainder(r)
		return reply, nil
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return reply, nil
}

// RegisterIntrospection announces that the sending connection can serve
// introspection data for the given type ids, fire-and-forget.
type RegisterIntrospection struct{ TypeIds [][16]byte }

func (RegisterIntrospection) Kind() Kind { return KindRegisterIntrospection }
func (m RegisterIntrospection) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, uint32(len(m.TypeIds)))
	for _, id := range m.TypeIds {
		buf = appendUuid(buf, id)
	}
	return buf
}

func decodeRegisterIntrospection(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	ids := make([][16]byte, 0, clampPreallocCount(count))
	for i := uint32(0); i < count; i++ {
		id, err := r.uuid()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return RegisterIntrospection{TypeIds: ids}, nil
}

func clampPreallocCount(n uint32) int {
	const max = 4096
	if n > max {
		return max
	}
	return int(n)
}

func init() {
	registerDecoder(KindQueryIntrospection, decodeQueryIntrospection)
	registerDecoder(KindQueryIntrospectionReply, decodeQueryIntrospectionReply)
	registerDecoder(KindRegisterIntrospection, decodeRegisterIntrospection)
}
