package message

// BusListenerScope selects which bus events a listener receives once
// started.
type BusListenerScope uint8

const (
	// BusListenerCurrent reports only objects/services that already
	// exist, then emits BusListenerCurrentFinished and stops.
	BusListenerCurrent BusListenerScope = iota
	// BusListenerNew reports only objects/services created after the
	// listener starts.
	BusListenerNew
	// BusListenerAll reports existing objects/services first (ending
	// with BusListenerCurrentFinished), then continues reporting new
	// ones.
	BusListenerAll
)

func (s BusListenerScope) valid() bool {
	return s <= BusListenerAll
}

// BusListenerFilterKind discriminates the six ways a filter can match an
// object/service pair.
type BusListenerFilterKind uint8

const (
	FilterAnyObject BusListenerFilterKind = iota
	FilterAnyObjectAnyService
	FilterObject
	FilterSpecificObjectAnyService
	FilterAnyObjectSpecificService
	FilterSpecificObjectSpecificService
)

func (k BusListenerFilterKind) valid() bool {
	return k <= FilterSpecificObjectSpecificService
}

// BusListenerFilter is a closed sum of the six filter shapes a bus
// listener can register. ObjectUuid and ServiceUuid are populated only
// when Kind requires them.
type BusListenerFilter struct {
	Kind        BusListenerFilterKind
	ObjectUuid  [16]byte
	ServiceUuid [16]byte
}

func appendBusListenerFilter(buf []byte, f BusListenerFilter) []byte {
	buf = append(buf, byte(f.Kind))
	switch f.Kind {
	case FilterAnyObject, FilterAnyObjectAnyService:
		return buf
	case FilterObject, FilterSpecificObjectAnyService:
		return appendUuid(buf, f.ObjectUuid)
	case FilterAnyObjectSpecificService:
		return appendUuid(buf, f.ServiceUuid)
	case FilterSpecificObjectSpecificService:
		buf = appendUuid(buf, f.ObjectUuid)
		return appendUuid(buf, f.ServiceUuid)
	default:
		return buf
	}
}

func (r *bodyReader) busListenerFilter() (BusListenerFilter, error) {
	tag, err := r.byte()
	if err != nil {
		return BusListenerFilter{}, err
	}
	kind := BusListenerFilterKind(tag)
	if !kind.valid() {
		return BusListenerFilter{}, newProtocolError(ErrMalformedBody, "unknown bus listener filter kind")
	}
	f := BusListenerFilter{Kind: kind}
	switch kind {
	case FilterAnyObject, FilterAnyObjectAnyService:
	case FilterObject, FilterSpecificObjectAnyService:
		f.ObjectUuid, err = r.uuid()
	case FilterAnyObjectSpecificService:
		f.ServiceUuid, err = r.uuid()
	case FilterSpecificObjectSpecificService:
		f.ObjectUuid, err = r.uuid()
		if err == nil {
			f.ServiceUuid, err = r.uuid()
		}
	}
	if err != nil {
		return BusListenerFilter{}, err
	}
	return f, nil
}

// BusEventKind discriminates the four shapes EmitBusEvent can carry.
type BusEventKind uint8

const (
	BusEventObjectCreated BusEventKind = iota
	BusEventObjectDestroyed
	BusEventServiceCreated
	BusEventServiceDestroyed
)

func (k BusEventKind) valid() bool {
	return k <= BusEventServiceDestroyed
}

// BusEvent is a closed sum describing one object/service lifecycle
// transition reported to a bus listener. ServiceUuid is populated only
// for the service variants.
type BusEvent struct {
	Kind        BusEventKind
	ObjectUuid  [16]byte
	ServiceUuid [16]byte
}

func appendBusEvent(buf []byte, e BusEvent) []byte {
	buf = append(buf, byte(e.Kind))
	buf = appendUuid(buf, e.ObjectUuid)
	switch e.Kind {
	case BusEventServiceCreated, BusEventServiceDestroyed:
		return appendUuid(buf, e.ServiceUuid)
	default:
		return buf
	}
}

func (r *bodyReader) busEvent() (BusEvent, error) {
	tag, err := r.byte()
	if err != nil {
		return BusEvent{}, err
	}
	kind := BusEventKind(tag)
	if !kind.valid() {
		return BusEvent{}, newProtocolError(ErrMalformedBody, "unknown bus event kind")
	}
	e := BusEvent{Kind: kind}
	if e.ObjectUuid, err = r.uuid(); err != nil {
		return BusEvent{}, err
	}
	switch kind {
	case BusEventServiceCreated, BusEventServiceDestroyed:
		if e.ServiceUuid, err = r.uuid(); err != nil {
			return BusEvent{}, err
		}
	}
	return e, nil
}

// CreateBusListener asks the broker to create a new, initially
// filter-less and stopped bus listener.
type CreateBusListener struct{ Serial uint32 }

func (CreateBusListener) Kind() Kind { return KindCreateBusListener }
func (m CreateBusListener) appendBody(buf []byte) []byte {
	return appendUint32(buf, m.Serial)
}

func decodeCreateBusListener(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return CreateBusListener{Serial: serial}, nil
}

// CreateBusListenerReply returns the cookie of the newly created bus
// listener.
type CreateBusListenerReply struct {
	Serial uint32
	Cookie [16]byte
}

func (CreateBusListenerReply) Kind() Kind { return KindCreateBusListenerReply }
func (m CreateBusListenerReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Cookie)
}

func decodeCreateBusListenerReply(body []byte) (Message, error) {
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
	return CreateBusListenerReply{Serial: serial, Cookie: cookie}, nil
}

// DestroyBusListener destroys a bus listener owned by the sending
// connection.
type DestroyBusListener struct {
	Serial uint32
	Cookie [16]byte
}

func (DestroyBusListener) Kind() Kind { return KindDestroyBusListener }
func (m DestroyBusListener) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Cookie)
}

func decodeDestroyBusListener(body []byte) (Message, error) {
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
	return DestroyBusListener{Serial: serial, Cookie: cookie}, nil
}

// DestroyBusListenerResult is the closed outcome of a
// DestroyBusListener request.
type DestroyBusListenerResult uint8

const (
	DestroyBusListenerOk DestroyBusListenerResult = iota
	DestroyBusListenerInvalidBusListener
)

// DestroyBusListenerReply answers DestroyBusListener.
type DestroyBusListenerReply struct {
	Serial uint32
	Result DestroyBusListenerResult
}

func (DestroyBusListenerReply) Kind() Kind { return KindDestroyBusListenerReply }
func (m DestroyBusListenerReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeDestroyBusListenerReply(body []byte) (Message, error) {
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
	return DestroyBusListenerReply{Serial: serial, Result: DestroyBusListenerResult(tag)}, nil
}

// AddBusListenerFilter adds one filter to a stopped bus listener.
type AddBusListenerFilter struct {
	Cookie [16]byte
	Filter BusListenerFilter
}

func (AddBusListenerFilter) Kind() Kind { return KindAddBusListenerFilter }
func (m AddBusListenerFilter) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendBusListenerFilter(buf, m.Filter)
}

func decodeAddBusListenerFilter(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	f, err := r.busListenerFilter()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return AddBusListenerFilter{Cookie: cookie, Filter: f}, nil
}

// RemoveBusListenerFilter removes one filter from a stopped bus
// listener.
type RemoveBusListenerFilter struct {
	Cookie [16]byte
	Filter BusListenerFilter
}

func (RemoveBusListenerFilter) Kind() Kind { return KindRemoveBusListenerFilter }
func (m RemoveBusListenerFilter) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendBusListenerFilter(buf, m.Filter)
}

func decodeRemoveBusListenerFilter(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	f, err := r.busListenerFilter()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return RemoveBusListenerFilter{Cookie: cookie, Filter: f}, nil
}

// ClearBusListenerFilters removes every filter from a stopped bus
// listener.
type ClearBusListenerFilters struct{ Cookie [16]byte }

func (ClearBusListenerFilters) Kind() Kind { return KindClearBusListenerFilters }
func (m ClearBusListenerFilters) appendBody(buf []byte) []byte {
	return appendUuid(buf, m.Cookie)
}

func decodeClearBusListenerFilters(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return ClearBusListenerFilters{Cookie: cookie}, nil
}

// StartBusListener starts a bus listener with the given scope; it must
// be stopped first.
type StartBusListener struct {
	Serial uint32
	Cookie [16]byte
	Scope  BusListenerScope
}

func (StartBusListener) Kind() Kind { return KindStartBusListener }
func (m StartBusListener) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendUuid(buf, m.Cookie)
	return append(buf, byte(m.Scope))
}

func decodeStartBusListener(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	scope := BusListenerScope(tag)
	if !scope.valid() {
		return nil, newProtocolError(ErrMalformedBody, "unknown bus listener scope")
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return StartBusListener{Serial: serial, Cookie: cookie, Scope: scope}, nil
}

// StartBusListenerResult is the closed outcome of a StartBusListener
// request.
type StartBusListenerResult uint8

const (
	StartBusListenerOk StartBusListenerResult = iota
	StartBusListenerInvalidBusListener
	StartBusListenerAlreadyStarted
)

// StartBusListenerReply answers StartBusListener.
type StartBusListenerReply struct {
	Serial uint32
	Result StartBusListenerResult
}

func (StartBusListenerReply) Kind() Kind { return KindStartBusListenerReply }
func (m StartBusListenerReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeStartBusListenerReply(body []byte) (Message, error) {
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
	return StartBusListenerReply{Serial: serial, Result: StartBusListenerResult(tag)}, nil
}

// StopBusListener stops a running bus listener.
type StopBusListener struct {
	Serial uint32
	Cookie [16]byte
}

func (StopBusListener) Kind() Kind { return KindStopBusListener }
func (m StopBusListener) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Cookie)
}

func decodeStopBusListener(body []byte) (Message, error) {
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
	return StopBusListener{Serial: serial, Cookie: cookie}, nil
}

// StopBusListenerResult is the closed outcome of a StopBusListener
// request.
type StopBusListenerResult uint8

const (
	StopBusListenerOk StopBusListenerResult = iota
	StopBusListenerInvalidBusListener
	StopBusListenerNotStarted
)

// StopBusListenerReply answers StopBusListener.
type StopBusListenerReply struct {
	Serial uint32
	Result StopBusListenerResult
}

func (StopBusListenerReply) Kind() Kind { return KindStopBusListenerReply }
func (m StopBusListenerReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeStopBusListenerReply(body []byte) (Message, error) {
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
	return StopBusListenerReply{Serial: serial, Result: StopBusListenerResult(tag)}, nil
}

// EmitBusEvent reports one object/service lifecycle transition to a
// started bus listener.
type EmitBusEvent struct {
	Cookie [16]byte
	Event  BusEvent
}

func (EmitBusEvent) Kind() Kind { return KindEmitBusEvent }
func (m EmitBusEvent) appendBody(buf []byte) []byte {
	buf = appendUuid(buf, m.Cookie)
	return appendBusEvent(buf, m.Event)
}

func decodeEmitBusEvent(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	ev, err := r.busEvent()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return EmitBusEvent{Cookie: cookie, Event: ev}, nil
}

// BusListenerCurrentFinished marks the end of the current-snapshot
// portion of a BusListenerCurrent or BusListenerAll scoped listener.
type BusListenerCurrentFinished struct{ Cookie [16]byte }

func (BusListenerCurrentFinished) Kind() Kind { return KindBusListenerCurrentFinished }
func (m BusListenerCurrentFinished) appendBody(buf []byte) []byte {
	return appendUuid(buf, m.Cookie)
}

func decodeBusListenerCurrentFinished(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	cookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return BusListenerCurrentFinished{Cookie: cookie}, nil
}

func init() {
	registerDecoder(KindCreateBusListener, decodeCreateBusListener)
	registerDecoder(KindCreateBusListenerReply, decodeCreateBusListenerReply)
	registerDecoder(KindDestroyBusListener, decodeDestroyBusListener)
	registerDecoder(KindDestroyBusListenerReply, decodeDestroyBusListenerReply)
	registerDecoder(KindAddBusListenerFilter, decodeAddBusListenerFilter)
	registerDecoder(KindRemoveBusListenerFilter, decodeRemoveBusListenerFilter)
	registerDecoder(KindClearBusListenerFilters, decodeClearBusListenerFilters)
	registerDecoder(KindStartBusListener, decodeStartBusListener)
	registerDecoder(KindStartBusListenerReply, decodeStartBusListenerReply)
	registerDecoder(KindStopBusListener, decodeStopBusListener)
	registerDecoder(KindStopBusListenerReply, decodeStopBusListenerReply)
	registerDecoder(KindEmitBusEvent, decodeEmitBusEvent)
	registerDecoder(KindBusListenerCurrentFinished, decodeBusListenerCurrentFinished)
}
