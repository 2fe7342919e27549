package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

// service is a created-service's broker-side record, including the
// subscriber sets the event-routing logic in event.go consults.
type service struct {
	id      aldrin.ServiceId
	owner   connID
	obj     *object
	version uint32
	typeID  *aldrin.TypeId

	// subsAll is the set of connections subscribed to every event id of
	// this service via SubscribeAllEvents.
	subsAll map[connID]struct{}

	// subs maps one event id to the connections subscribed to exactly
	// that id via SubscribeEvent.
	subs map[uint32]map[connID]struct{}
}

func newService(owner connID, obj *object, id aldrin.ServiceId, version uint32, typeID *aldrin.TypeId) *service {
	return &service{
		id:      id,
		owner:   owner,
		obj:     obj,
		version: version,
		typeID:  typeID,
		subsAll: make(map[connID]struct{}),
		subs:    make(map[uint32]map[connID]struct{}),
	}
}

// hasSubscribers reports whether anything would receive an EmitEvent for
// event right now: an explicit subscriber, or an all-events subscriber.
func (s *service) hasSubscribers(event uint32) bool {
	if len(s.subsAll) > 0 {
		return true
	}
	return len(s.subs[event]) > 0
}

// subscribers returns the deduplicated set of connections that should
// receive an EmitEvent for event.
func (s *service) subscribers(event uint32) map[connID]struct{} {
	out := make(map[connID]struct{}, len(s.subsAll)+len(s.subs[event]))
	for id := range s.subsAll {
		out[id] = struct{}{}
	}
	for id := range s.subs[event] {
		out[id] = struct{}{}
	}
	return out
}

// createService registers a new service under uuid on obj with a fresh
// cookie, failing if obj already has a live service with that uuid.
func (b *Broker) createService(owner connID, obj *object, uuid aldrin.ServiceUuid, version uint32, typeID *aldrin.TypeId) (aldrin.ServiceCookie, bool) {
	if _, exists := b.servicesByUuid[obj.id.Cookie][uuid]; exists {
		return aldrin.ServiceCookie{}, false
	}
	cookie := aldrin.NewServiceCookie()
	id := aldrin.ServiceId{Object: obj.id, Uuid: uuid, Cookie: cookie}
	svc := newService(owner, obj, id, version, typeID)

	if b.servicesByUuid[obj.id.Cookie] == nil {
		b.servicesByUuid[obj.id.Cookie] = make(map[aldrin.ServiceUuid]aldrin.ServiceCookie)
	}
	b.servicesByUuid[obj.id.Cookie][uuid] = cookie
	b.services[cookie] = svc
	obj.services[cookie] = svc
	return cookie, true
}

func (b *Broker) destroyService(cookie aldrin.ServiceCookie) (*service, bool) {
	svc, ok := b.services[cookie]
	if !ok {
		return nil, false
	}
	delete(b.services, cookie)
	delete(svc.obj.services, cookie)
	if byUuid := b.servicesByUuid[svc.obj.id.Cookie]; byUuid != nil {
		if byUuid[svc.id.Uuid] == cookie {
			delete(byUuid, svc.id.Uuid)
		}
	}
	return svc, true
}

func (b *Broker) onCreateService(conn *connection, msg message.CreateService) {
	objCookie := aldrin.ObjectCookie(msg.ObjectCookie)
	obj, ok := b.objects[objCookie]
	if !ok || obj.owner != conn.id {
		conn.enqueue(message.CreateServiceReply{Serial: msg.Serial, Result: message.CreateServiceInvalidObject})
		return
	}

	var typeID *aldrin.TypeId
	if msg.TypeId != nil {
		t := aldrin.TypeId(*msg.TypeId)
		typeID = &t
	}

	cookie, ok := b.createService(conn.id, obj, aldrin.ServiceUuid(msg.Uuid), msg.Version, typeID)
	if !ok {
		conn.enqueue(message.CreateServiceReply{Serial: msg.Serial, Result: message.CreateServiceDuplicateService})
		return
	}
	conn.services[cookie] = struct{}{}
	conn.enqueue(message.CreateServiceReply{
		Serial: msg.Serial,
		Result: message.CreateServiceOk,
		Cookie: [16]byte(cookie.Wire()),
	})
	b.notifyBusListeners(message.BusEvent{
		Kind:        message.BusEventServiceCreated,
		ObjectUuid:  [16]byte(obj.id.Uuid),
		ServiceUuid: msg.Uuid,
	})
}

func (b *Broker) onDestroyService(conn *connection, msg message.DestroyService) {
	cookie := aldrin.ServiceCookie(msg.Cookie)
	if _, isOwner := conn.services[cookie]; !isOwner {
		conn.enqueue(message.DestroyServiceReply{Serial: msg.Serial, Result: message.DestroyServiceInvalidService})
		return
	}
	b.removeService(cookie)
	conn.enqueue(message.DestroyServiceReply{Serial: msg.Serial, Result: message.DestroyServiceOk})
}

func (b *Broker) onQueryServiceVersion(conn *connection, msg message.QueryServiceVersion) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		conn.enqueue(message.QueryServiceVersionReply{Serial: msg.Serial, Result: message.QueryServiceVersionInvalidService})
		return
	}
	conn.enqueue(message.QueryServiceVersionReply{
		Serial:  msg.Serial,
		Result:  message.QueryServiceVersionOk,
		Version: svc.version,
	})
}

func (b *Broker) onQueryServiceInfo(conn *connection, msg message.QueryServiceInfo) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		conn.enqueue(message.QueryServiceInfoReply{Serial: msg.Serial, Result: message.QueryServiceInfoInvalidService})
		return
	}
	reply := message.QueryServiceInfoReply{Serial: msg.Serial, Result: message.QueryServiceInfoOk, Version: svc.version}
	if svc.typeID != nil {
		t := [16]byte(*svc.typeID)
		reply.TypeId = &t
	}
	conn.enqueue(reply)
}

// removeService tears down a service: it notifies every subscriber with
// ServiceDestroyed, clears its subscription sets, removes it from its
// owning object and connection, and emits the matching bus event. It is
// used both by explicit DestroyService and by the object/connection
// cascades.
func (b *Broker) removeService(cookie aldrin.ServiceCookie) {
	svc, ok := b.destroyService(cookie)
	if !ok {
		return
	}
	if owner, ok := b.conns[svc.owner]; ok {
		delete(owner.services, cookie)
	}

	wireCookie := [16]byte(cookie)
	notified := make(map[connID]struct{})
	for id := range svc.subsAll {
		notified[id] = struct{}{}
	}
	for _, subs := range svc.subs {
		for id := range subs {
			notified[id] = struct{}{}
		}
	}
	for id := range notified {
		if subConn, ok := b.conns[id]; ok {
			subConn.enqueue(message.ServiceDestroyed{Service: wireCookie})
		}
	}

	b.notifyBusListeners(message.BusEvent{
		Kind:        message.BusEventServiceDestroyed,
		ObjectUuid:  [16]byte(svc.obj.id.Uuid),
		ServiceUuid: [16]byte(svc.id.Uuid),
	})
}
