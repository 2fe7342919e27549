package message

import "github.com/aldrin-bus/aldrin/wire"

// CallFunction invokes a function on a service. Serial is caller-local
// when sent by a client, and rewritten to a callee-local serial by the
// broker before forwarding.
type CallFunction struct {
	Serial   uint32
	Service  [16]byte
	Function uint32
	Args     wire.SerializedValue
}

func (CallFunction) Kind() Kind { return KindCallFunction }
func (m CallFunction) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendUuid(buf, m.Service)
	buf = appendUint32(buf, m.Function)
	return appendValue(buf, m.Args)
}

func decodeCallFunction(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	function, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return CallFunction{Serial: serial, Service: service, Function: function, Args: decodeValueRemainder(r)}, nil
}

// CallFunctionResultKind is the closed outcome of a function call.
type CallFunctionResultKind uint8

const (
	CallOk CallFunctionResultKind = iota
	CallErr
	CallAborted
	CallInvalidService
	CallInvalidFunction
	CallInvalidArgs
)

// CallFunctionReply answers CallFunction. Value is populated for CallOk
// and CallErr unconditionally, and optionally for CallInvalidArgs.
type CallFunctionReply struct {
	Serial   uint32
	Result   CallFunctionResultKind
	Value    wire.SerializedValue
	HasValue bool // meaningful only when Result == CallInvalidArgs
}

func (CallFunctionReply) Kind() Kind { return KindCallFunctionReply }
func (m CallFunctionReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = append(buf, byte(m.Result))
	switch m.Result {
	case CallOk, CallErr:
		return appendValue(buf, m.Value)
	case CallInvalidArgs:
		if m.HasValue {
			buf = append(buf, 1)
			return appendValue(buf, m.Value)
		}
		return append(buf, 0)
	default:
		return buf
	}
}

func decodeCallFunctionReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reply := CallFunctionReply{Serial: serial, Result: CallFunctionResultKind(tag)}
	switch reply.Result {
	case CallOk, CallErr:
		reply.Value = decodeValueRemainder(r)
		reply.HasValue = true
	case CallInvalidArgs:
		present, err := r.byte()
		if err != nil {
			return nil, err
		}
		if present != 0 {
			reply.Value = decodeValueRemainder(r)
			reply.HasValue = true
		} else if err := r.requireExhausted(); err != nil {
			return nil, err
		}
	case CallAborted, CallInvalidService, CallInvalidFunction:
		if err := r.requireExhausted(); err != nil {
			return nil, err
		}
	default:
		return nil, newProtocolError(ErrMalformedBody, "unknown CallFunctionReply variant")
	}
	return reply, nil
}

// AbortFunctionCall cancels a previously issued CallFunction, identified
// by the serial the caller (or broker, after serial rewrite) allocated to
// it.
type AbortFunctionCall struct{ Serial uint32 }

func (AbortFunctionCall) Kind() Kind { return KindAbortFunctionCall }
func (m AbortFunctionCall) appendBody(buf []byte) []byte {
	return appendUint32(buf, m.Serial)
}

func decodeAbortFunctionCall(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return AbortFunctionCall{Serial: serial}, nil
}

func init() {
	registerDecoder(KindCallFunction, decodeCallFunction)
	registerDecoder(KindCallFunctionReply, decodeCallFunctionReply)
	registerDecoder(KindAbortFunctionCall, decodeAbortFunctionCall)
}
