package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

// object is a created-object's broker-side record. An object's Uuid is
// owner-chosen and may be reused over time, but at any instant at most
// one cookie is live for it.
type object struct {
	id       aldrin.ObjectId
	owner    connID
	services map[aldrin.ServiceCookie]*service
}

func newObject(owner connID, id aldrin.ObjectId) *object {
	return &object{id: id, owner: owner, services: make(map[aldrin.ServiceCookie]*service)}
}

// createObject registers a new object for uuid, failing if one is
// already live for it.
func (b *Broker) createObject(owner connID, uuid aldrin.ObjectUuid) (aldrin.ObjectCookie, bool) {
	if _, exists := b.objectsByUuid[uuid]; exists {
		return aldrin.ObjectCookie{}, false
	}
	cookie := aldrin.NewObjectCookie()
	id := aldrin.ObjectId{Uuid: uuid, Cookie: cookie}
	b.objectsByUuid[uuid] = cookie
	b.objects[cookie] = newObject(owner, id)
	return cookie, true
}

// destroyObject removes an object from the registries and returns its
// record; the services still living on it are left in place so the
// caller can run the per-service teardown (subscriber notification, bus
// events) uniformly.
func (b *Broker) destroyObject(cookie aldrin.ObjectCookie) (*object, bool) {
	obj, ok := b.objects[cookie]
	if !ok {
		return nil, false
	}
	delete(b.objects, cookie)
	if b.objectsByUuid[obj.id.Uuid] == cookie {
		delete(b.objectsByUuid, obj.id.Uuid)
	}
	return obj, true
}

func (b *Broker) onCreateObject(conn *connection, msg message.CreateObject) {
	uuid := aldrin.ObjectUuid(msg.Uuid)
	cookie, ok := b.createObject(conn.id, uuid)
	if !ok {
		conn.enqueue(message.CreateObjectReply{Serial: msg.Serial, Result: message.CreateObjectDuplicateObject})
		return
	}
	conn.objects[cookie] = struct{}{}
	conn.enqueue(message.CreateObjectReply{
		Serial: msg.Serial,
		Result: message.CreateObjectOk,
		Cookie: [16]byte(cookie.Wire()),
	})
	b.notifyBusListeners(message.BusEvent{Kind: message.BusEventObjectCreated, ObjectUuid: msg.Uuid})
}

func (b *Broker) onDestroyObject(conn *connection, msg message.DestroyObject) {
	cookie := aldrin.ObjectCookie(msg.Cookie)
	if _, isOwner := conn.objects[cookie]; !isOwner {
		conn.enqueue(message.DestroyObjectReply{Serial: msg.Serial, Result: message.DestroyObjectInvalidObject})
		return
	}
	b.removeObject(cookie)
	delete(conn.objects, cookie)
	conn.enqueue(message.DestroyObjectReply{Serial: msg.Serial, Result: message.DestroyObjectOk})
}

// removeObject tears down obj and every service still living on it,
// running the same per-service cleanup the disconnect cascade uses, and
// emits the matching bus events.
func (b *Broker) removeObject(cookie aldrin.ObjectCookie) {
	obj, ok := b.destroyObject(cookie)
	if !ok {
		return
	}
	for svcCookie := range obj.services {
		b.removeService(svcCookie)
	}
	b.notifyBusListeners(message.BusEvent{Kind: message.BusEventObjectDestroyed, ObjectUuid: [16]byte(obj.id.Uuid)})
}
