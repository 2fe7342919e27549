package message

// CreateService asks the broker to create a service on an object owned by
// the sending connection. TypeId is optional.
type CreateService struct {
	Serial       uint32
	ObjectCookie [16]byte
	Uuid         [16]byte
	Version      uint32
	TypeId       *[16]byte
}

func (CreateService) Kind() Kind { return KindCreateService }
func (m CreateService) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = appendUuid(buf, m.ObjectCookie)
	buf = appendUuid(buf, m.Uuid)
	buf = appendUint32(buf, m.Version)
	return appendOptUuid(buf, m.TypeId)
}

func decodeCreateService(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	objCookie, err := r.uuid()
	if err != nil {
		return nil, err
	}
	svcUuid, err := r.uuid()
	if err != nil {
		return nil, err
	}
	version, err := r.uint32()
	if err != nil {
		return nil, err
	}
	typeId, err := r.optUuid()
	if err != nil {
		return nil, err
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return CreateService{Serial: serial, ObjectCookie: objCookie, Uuid: svcUuid, Version: version, TypeId: typeId}, nil
}

// CreateServiceResult is the closed outcome of a CreateService request.
type CreateServiceResult uint8

const (
	CreateServiceOk CreateServiceResult = iota
	CreateServiceDuplicateService
	CreateServiceInvalidObject
)

// CreateServiceReply answers CreateService; Cookie is set only on
// CreateServiceOk.
type CreateServiceReply struct {
	Serial uint32
	Result CreateServiceResult
	Cookie [16]byte
}

func (CreateServiceReply) Kind() Kind { return KindCreateServiceReply }
func (m CreateServiceReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = append(buf, byte(m.Result))
	if m.Result == CreateServiceOk {
		buf = appendUuid(buf, m.Cookie)
	}
	return buf
}

func decodeCreateServiceReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reply := CreateServiceReply{Serial: serial, Result: CreateServiceResult(tag)}
	if reply.Result == CreateServiceOk {
		cookie, err := r.uuid()
		if err != nil {
			return nil, err
		}
		reply.Cookie = cookie
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return reply, nil
}

// DestroyService asks the broker to destroy a service owned by the
// sending connection.
type DestroyService struct {
	Serial uint32
	Cookie [16]byte
}

func (DestroyService) Kind() Kind { return KindDestroyService }
func (m DestroyService) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Cookie)
}

func decodeDestroyService(body []byte) (Message, error) {
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
	return DestroyService{Serial: serial, Cookie: cookie}, nil
}

// DestroyServiceResult is the closed outcome of a DestroyService request.
type DestroyServiceResult uint8

const (
	DestroyServiceOk DestroyServiceResult = iota
	DestroyServiceInvalidService
)

// DestroyServiceReply answers DestroyService.
type DestroyServiceReply struct {
	Serial uint32
	Result DestroyServiceResult
}

func (DestroyServiceReply) Kind() Kind { return KindDestroyServiceReply }
func (m DestroyServiceReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return append(buf, byte(m.Result))
}

func decodeDestroyServiceReply(body []byte) (Message, error) {
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
	return DestroyServiceReply{Serial: serial, Result: DestroyServiceResult(tag)}, nil
}

// QueryServiceVersion asks for the version of a live service.
type QueryServiceVersion struct {
	Serial  uint32
	Service [16]byte
}

func (QueryServiceVersion) Kind() Kind { return KindQueryServiceVersion }
func (m QueryServiceVersion) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Service)
}

func decodeQueryServiceVersion(body []byte) (Message, error) {
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
	return QueryServiceVersion{Serial: serial, Service: service}, nil
}

// QueryServiceVersionResult is the closed outcome of a
// QueryServiceVersion request.
type QueryServiceVersionResult uint8

const (
	QueryServiceVersionOk QueryServiceVersionResult = iota
	QueryServiceVersionInvalidService
)

// QueryServiceVersionReply answers QueryServiceVersion; Version is set
// only on QueryServiceVersionOk.
type QueryServiceVersionReply struct {
	Serial  uint32
	Result  QueryServiceVersionResult
	Version uint32
}

func (QueryServiceVersionReply) Kind() Kind { return KindQueryServiceVersionReply }
func (m QueryServiceVersionReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = append(buf, byte(m.Result))
	if m.Result == QueryServiceVersionOk {
		buf = appendUint32(buf, m.Version)
	}
	return buf
}

func decodeQueryServiceVersionReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reply := QueryServiceVersionReply{Serial: serial, Result: QueryServiceVersionResult(tag)}
	if reply.Result == QueryServiceVersionOk {
		v, err := r.uint32()
		if err != nil {
			return nil, err
		}
		reply.Version = v
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return reply, nil
}

// QueryServiceInfo asks for the version and optional type id of a live
// service.
type QueryServiceInfo struct {
	Serial  uint32
	Service [16]byte
}

func (QueryServiceInfo) Kind() Kind { return KindQueryServiceInfo }
func (m QueryServiceInfo) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	return appendUuid(buf, m.Service)
}

func decodeQueryServiceInfo(body []byte) (Message, error) {
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
	return QueryServiceInfo{Serial: serial, Service: service}, nil
}

// QueryServiceInfoResult is the closed outcome of a QueryServiceInfo
// request.
type QueryServiceInfoResult uint8

const (
	QueryServiceInfoOk QueryServiceInfoResult = iota
	QueryServiceInfoInvalidService
)

// QueryServiceInfoReply answers QueryServiceInfo; Version/TypeId are set
// only on QueryServiceInfoOk.
type QueryServiceInfoReply struct {
	Serial  uint32
	Result  QueryServiceInfoResult
	Version uint32
	TypeId  *[16]byte
}

func (QueryServiceInfoReply) Kind() Kind { return KindQueryServiceInfoReply }
func (m QueryServiceInfoReply) appendBody(buf []byte) []byte {
	buf = appendUint32(buf, m.Serial)
	buf = append(buf, byte(m.Result))
	if m.Result == QueryServiceInfoOk {
		buf = appendUint32(buf, m.Version)
		buf = appendOptUuid(buf, m.TypeId)
	}
	return buf
}

func decodeQueryServiceInfoReply(body []byte) (Message, error) {
	r := &bodyReader{data: body}
	serial, err := r.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reply := QueryServiceInfoReply{Serial: serial, Result: QueryServiceInfoResult(tag)}
	if reply.Result == QueryServiceInfoOk {
		v, err := r.uint32()
		if err != nil {
			return nil, err
		}
		reply.Version = v
		typeId, err := r.optUuid()
		if err != nil {
			return nil, err
		}
		reply.TypeId = typeId
	}
	if err := r.requireExhausted(); err != nil {
		return nil, err
	}
	return reply, nil
}

func init() {
	registerDecoder(KindCreateService, decodeCreateService)
	registerDecoder(KindCreateServiceReply, decodeCreateServiceReply)
	registerDecoder(KindDestroyService, decodeDestroyService)
	registerDecoder(KindDestroyServiceReply, decodeDestroyServiceReply)
	registerDecoder(KindQueryServiceVersion, decodeQueryServiceVersion)
	registerDecoder(KindQueryServiceVersionReply, decodeQueryServiceVersionReply)
	registerDecoder(KindQueryServiceInfo, decodeQueryServiceInfo)
	registerDecoder(KindQueryServiceInfoReply, decodeQueryServiceInfoReply)
}
