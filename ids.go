// Package aldrin defines the identifiers shared by every layer of the bus:
// wire messages, the broker's registries and the client's correlation
// tables all refer to the same UUID-based identity types.
package aldrin

import (
	"github.com/google/uuid"

	"github.com/aldrin-bus/aldrin/wire"
)

// ObjectUuid is the stable identity of an object, chosen by its owning
// client.
type ObjectUuid uuid.UUID

// ObjectCookie distinguishes successive instances of the same ObjectUuid;
// it is assigned by the broker when the object is created.
type ObjectCookie uuid.UUID

// ServiceUuid is the stable identity of a service on its object.
type ServiceUuid uuid.UUID

// ServiceCookie distinguishes successive instances of the same
// ServiceUuid on the same object; assigned by the broker.
type ServiceCookie uuid.UUID

// ChannelCookie identifies one channel; assigned by the broker.
type ChannelCookie uuid.UUID

// BusListenerCookie identifies one bus listener; assigned by the broker.
type BusListenerCookie uuid.UUID

// TypeId is the hash of an introspection schema, optionally carried by a
// service.
type TypeId uuid.UUID

// ObjectId names one instance of an object.
type ObjectId struct {
	Uuid   ObjectUuid
	Cookie ObjectCookie
}

// ServiceId names one instance of a service on one instance of an object.
type ServiceId struct {
	Object ObjectId
	Uuid   ServiceUuid
	Cookie ServiceCookie
}

// NewObjectUuid mints a random v4 ObjectUuid, the form clients use when
// they do not need a deterministic, well-known identity.
func NewObjectUuid() ObjectUuid { return ObjectUuid(uuid.New()) }

// NewServiceUuid mints a random v4 ServiceUuid.
func NewServiceUuid() ServiceUuid { return ServiceUuid(uuid.New()) }

// NewObjectCookie mints a random v4 ObjectCookie. Only the broker, the
// sole allocator of cookies in a running system, should call this.
func NewObjectCookie() ObjectCookie { return ObjectCookie(uuid.New()) }

// NewServiceCookie mints a random v4 ServiceCookie.
func NewServiceCookie() ServiceCookie { return ServiceCookie(uuid.New()) }

// NewChannelCookie mints a random v4 ChannelCookie.
func NewChannelCookie() ChannelCookie { return ChannelCookie(uuid.New()) }

// NewBusListenerCookie mints a random v4 BusListenerCookie.
func NewBusListenerCookie() BusListenerCookie { return BusListenerCookie(uuid.New()) }

func (o ObjectUuid) Wire() wire.Uuid          { return wire.Uuid(o) }
func (o ObjectCookie) Wire() wire.Uuid        { return wire.Uuid(o) }
func (s ServiceUuid) Wire() wire.Uuid         { return wire.Uuid(s) }
func (s ServiceCookie) Wire() wire.Uuid       { return wire.Uuid(s) }
func (c ChannelCookie) Wire() wire.Uuid       { return wire.Uuid(c) }
func (c BusListenerCookie) Wire() wire.Uuid   { return wire.Uuid(c) }
func (t TypeId) Wire() wire.Uuid              { return wire.Uuid(t) }

func (o ObjectUuid) String() string        { return uuid.UUID(o).String() }
func (o ObjectCookie) String() string      { return uuid.UUID(o).String() }
func (s ServiceUuid) String() string       { return uuid.UUID(s).String() }
func (s ServiceCookie) String() string     { return uuid.UUID(s).String() }
func (c ChannelCookie) String() string     { return uuid.UUID(c).String() }
func (c BusListenerCookie) String() string { return uuid.UUID(c).String() }
func (t TypeId) String() string            { return uuid.UUID(t).String() }

// Wire renders an ObjectId as the wire grammar's ObjectId payload.
func (o ObjectId) Wire() wire.ObjectIdValue {
	return wire.ObjectIdValue{Uuid: o.Uuid.Wire(), Cookie: o.Cookie.Wire()}
}

// Wire renders a ServiceId as the wire grammar's ServiceId payload.
func (s ServiceId) Wire() wire.ServiceIdValue {
	return wire.ServiceIdValue{Object: s.Object.Wire(), Uuid: s.Uuid.Wire(), Cookie: s.Cookie.Wire()}
}

// ObjectIdFromWire reconstructs an ObjectId from a decoded wire value.
func ObjectIdFromWire(v wire.ObjectIdValue) ObjectId {
	return ObjectId{Uuid: ObjectUuid(v.Uuid), Cookie: ObjectCookie(v.Cookie)}
}

// ServiceIdFromWire reconstructs a ServiceId from a decoded wire value.
func ServiceIdFromWire(v wire.ServiceIdValue) ServiceId {
	return ServiceId{
		Object: ObjectIdFromWire(v.Object),
		Uuid:   ServiceUuid(v.Uuid),
		Cookie: ServiceCookie(v.Cookie),
	}
}
