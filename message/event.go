package message

import "github.com/aldrin-bus/aldrin/wire"

// SubscribeEvent asks to receive EmitEvent for one event id of a service.
type SubscribeEvent struct {
	Serial  uint32
	Service [16]byte
	Event   uint32
}

func (SubscribeEvent) Kind() Kind { return KindSubscribeEvent }
func (m SubscribeEvent) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendUuid(buf, m.Service)
	return appendUint32(buf, m.Event)
}

func decodeSubscribeEvent(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	event, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return SubscribeEvent{Serial: serial, Service: service, Event: event}, nil
}

// SubscribeEventResult is the closed outcome of a SubscribeEvent request.
type SubscribeEventResult uint8

const (
	SubscribeEventOk SubscribeEventResult = iota
	SubscribeEventInvalidService
)

// SubscribeEventReply answers SubscribeEvent.
type SubscribeEventReply struct {
	Serial uint32
	Result SubscribeEventResult
}

func (SubscribeEventReply) Kind() Kind { return KindSubscribeEventReply }
func (m SubscribeEventReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeSubscribeEventReply(body []byte) (Message, error) {
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
	return SubscribeEventReply{Serial: serial, Result: SubscribeEventResult(tag)}, nil
}

// UnsubscribeEvent withdraws a prior SubscribeEvent. It is fire-and-forget
// — no reply is defined.
type UnsubscribeEvent struct {
	Service [16]byte
	Event   uint32
}

func (UnsubscribeEvent) Kind() Kind { return KindUnsubscribeEvent }
func (m UnsubscribeEvent) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Service)
	return appendUint32(buf, m.Event)
}

func decodeUnsubscribeEvent(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	event, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return UnsubscribeEvent{Service: service, Event: event}, nil
}

// EmitEvent carries one event emission; the broker only forwards it while
// the owner has at least one subscriber for Event.
type EmitEvent struct {
	Service [16]byte
	Event   uint32
	Args    wire.SerializedValue
}

func (EmitEvent) Kind() Kind { return KindEmitEvent }
func (m EmitEvent) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Service)
	buf = appendUint32(buf, m.Event)
	return appendValue(buf, m.Args)
}

func decodeEmitEvent(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	event, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return EmitEvent{Service: service, Event: event, Args: decodeValueRemainder(r)}, nil
}

// SubscribeAllEvents subscribes to every event id of a service, present
// and future.
type SubscribeAllEvents struct {
	Serial  uint32
	Service [16]byte
}

func (SubscribeAllEvents) Kind() Kind { return KindSubscribeAllEvents }
func (m SubscribeAllEvents) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Service)
}

func decodeSubscribeAllEvents(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return SubscribeAllEvents{Serial: serial, Service: service}, nil
}

// SubscribeAllEventsResult is the closed outcome of a SubscribeAllEvents
// request.
type SubscribeAllEventsResult uint8

const (
	SubscribeAllEventsOk SubscribeAllEventsResult = iota
	SubscribeAllEventsInvalidService
)

// SubscribeAllEventsReply answers SubscribeAllEvents.
type SubscribeAllEventsReply struct {
	Serial uint32
	Result SubscribeAllEventsResult
}

func (SubscribeAllEventsReply) Kind() Kind { return KindSubscribeAllEventsReply }
func (m SubscribeAllEventsReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeSubscribeAllEventsReply(body []byte) (Message, error) {
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
	return SubscribeAllEventsReply{Serial: serial, Result: SubscribeAllEventsResult(tag)}, nil
}

// UnsubscribeAllEvents withdraws a prior SubscribeAllEvents.
type UnsubscribeAllEvents struct{ Service [16]byte }

func (UnsubscribeAllEvents) Kind() Kind { return KindUnsubscribeAllEvents }
func (m UnsubscribeAllEvents) appendBody(buf []byte) []byte {
	return appendUuid(buf, m.Service)
}

func decodeUnsubscribeAllEvents(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return UnsubscribeAllEvents{Service: service}, nil
}

// ServiceDestroyed is broadcast to every subscriber of a service when it
// is destroyed.
type ServiceDestroyed struct{ Service [16]byte }

func (ServiceDestroyed) Kind() Kind { return KindServiceDestroyed }
func (m ServiceDestroyed) appendBody(buf []byte) []byte {
	return appendUuid(buf, m.Service)
}

func decodeServiceDestroyed(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	service, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return ServiceDestroyed{Service: service}, nil
}

func init() {
	registerDecoder(KindSubscribeEvent, decodeSubscribeEvent)
	registerDecoder(KindSubscribeEventReply, decodeSubscribeEventReply)
	registerDecoder(KindUnsubscribeEvent, decodeUnsubscribeEvent)
	registerDecoder(KindEmitEvent, decodeEmitEvent)
	registerDecoder(KindSubscribeAllEvents, decodeSubscribeAllEvents)
	registerDecoder(KindSubscribeAllEventsReply, decodeSubscribeAllEventsReply)
	registerDecoder(KindUnsubscribeAllEvents, decodeUnsubscribeAllEvents)
	registerDecoder(KindServiceDestroyed, decodeServiceDestroyed)
}
