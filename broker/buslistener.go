package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

// busListenerStatus is the listener's own start/stop state, independent
// of the scope it was last started with.
type busListenerStatus uint8

const (
	busListenerStopped busListenerStatus = iota
	busListenerStarted
)

// busListenerState is one bus listener's broker-side record: an
// insertion-ordered filter list (matching is any-of, so order does not
// affect semantics but is kept for predictable iteration) plus its
// current start/stop status and scope.
type busListenerState struct {
	cookie  aldrin.BusListenerCookie
	owner   connID
	filters []message.BusListenerFilter
	status  busListenerStatus
	scope   message.BusListenerScope
}

func newBusListener(owner connID, cookie aldrin.BusListenerCookie) *busListenerState {
	return &busListenerState{cookie: cookie, owner: owner}
}

func (l *busListenerState) addFilter(f message.BusListenerFilter) {
	l.filters = append(l.filters, f)
}

func (l *busListenerState) removeFilter(f message.BusListenerFilter) {
	for i, existing := range l.filters {
		if existing == f {
			l.filters = append(l.filters[:i], l.filters[i+1:]...)
			return
		}
	}
}

func (l *busListenerState) clearFilters() {
	l.filters = nil
}

// matches reports whether any registered filter matches the given
// object/service pair. A nil serviceUuid represents an object-only
// event (ObjectCreated/ObjectDestroyed).
func (l *busListenerState) matches(objUuid aldrin.ObjectUuid, svcUuid *aldrin.ServiceUuid) bool {
	for _, f := range l.filters {
		if filterMatches(f, objUuid, svcUuid) {
			return true
		}
	}
	return false
}

// notifyBusListeners reports one object/service lifecycle transition to
// every started bus listener with a matching filter. Adding a filter
// while a listener is started never retroactively emits, so this is the
// only path that produces EmitBusEvent for New/All scoped listeners.
func (b *Broker) notifyBusListeners(ev message.BusEvent) {
	objUuid := aldrin.ObjectUuid(ev.ObjectUuid)
	var svcUuid *aldrin.ServiceUuid
	if ev.Kind == message.BusEventServiceCreated || ev.Kind == message.BusEventServiceDestroyed {
		u := aldrin.ServiceUuid(ev.ServiceUuid)
		svcUuid = &u
	}
	for _, l := range b.busListeners {
		if l.status != busListenerStarted {
			continue
		}
		if l.scope == message.BusListenerCurrent {
			// Current-only listeners already finished their one-shot
			// snapshot and stopped; they are never left started.
			continue
		}
		if !l.matches(objUuid, svcUuid) {
			continue
		}
		if owner, ok := b.conns[l.owner]; ok {
			owner.enqueue(message.EmitBusEvent{Cookie: [16]byte(l.cookie.Wire()), Event: ev})
		}
	}
}

func filterMatches(f message.BusListenerFilter, objUuid aldrin.ObjectUuid, svcUuid *aldrin.ServiceUuid) bool {
	switch f.Kind {
	case message.FilterAnyObject:
		return svcUuid == nil
	case message.FilterAnyObjectAnyService:
		return true
	case message.FilterObject:
		return svcUuid == nil && [16]byte(objUuid) == f.ObjectUuid
	case message.FilterSpecificObjectAnyService:
		return [16]byte(objUuid) == f.ObjectUuid
	case message.FilterAnyObjectSpecificService:
		return svcUuid != nil && [16]byte(*svcUuid) == f.ServiceUuid
	case message.FilterSpecificObjectSpecificService:
		return svcUuid != nil && [16]byte(objUuid) == f.ObjectUuid && [16]byte(*svcUuid) == f.ServiceUuid
	default:
		return false
	}
}

func (b *Broker) onCreateBusListener(conn *connection, msg message.CreateBusListener) {
	cookie := aldrin.NewBusListenerCookie()
	l := newBusListener(conn.id, cookie)
	b.busListeners[cookie] = l
	conn.busListeners[cookie] = struct{}{}
	conn.enqueue(message.CreateBusListenerReply{Serial: msg.Serial, Cookie: [16]byte(cookie.Wire())})
}

func (b *Broker) onDestroyBusListener(conn *connection, msg message.DestroyBusListener) {
	cookie := aldrin.BusListenerCookie(msg.Cookie)
	l, ok := b.busListeners[cookie]
	if !ok || l.owner != conn.id {
		conn.enqueue(message.DestroyBusListenerReply{Serial: msg.Serial, Result: message.DestroyBusListenerInvalidBusListener})
		return
	}
	delete(b.busListeners, cookie)
	delete(conn.busListeners, cookie)
	conn.enqueue(message.DestroyBusListenerReply{Serial: msg.Serial, Result: message.DestroyBusListenerOk})
}

func (b *Broker) onAddBusListenerFilter(conn *connection, msg message.AddBusListenerFilter) {
	l, ok := b.busListeners[aldrin.BusListenerCookie(msg.Cookie)]
	if !ok || l.owner != conn.id {
		return
	}
	l.addFilter(msg.Filter)
}

func (b *Broker) onRemoveBusListenerFilter(conn *connection, msg message.RemoveBusListenerFilter) {
	l, ok := b.busListeners[aldrin.BusListenerCookie(msg.Cookie)]
	if !ok || l.owner != conn.id {
		return
	}
	l.removeFilter(msg.Filter)
}

func (b *Broker) onClearBusListenerFilters(conn *connection, msg message.ClearBusListenerFilters) {
	l, ok := b.busListeners[aldrin.BusListenerCookie(msg.Cookie)]
	if !ok || l.owner != conn.id {
		return
	}
	l.clearFilters()
}

// onStartBusListener starts a listener and, for Current and All scopes,
// immediately enqueues a snapshot of every matching extant object and
// service followed by BusListenerCurrentFinished. A Current-scoped
// listener reverts to stopped once the snapshot is sent; it never
// receives anything from notifyBusListeners.
func (b *Broker) onStartBusListener(conn *connection, msg message.StartBusListener) {
	l, ok := b.busListeners[aldrin.BusListenerCookie(msg.Cookie)]
	if !ok || l.owner != conn.id {
		conn.enqueue(message.StartBusListenerReply{Serial: msg.Serial, Result: message.StartBusListenerInvalidBusListener})
		return
	}
	if l.status == busListenerStarted {
		conn.enqueue(message.StartBusListenerReply{Serial: msg.Serial, Result: message.StartBusListenerAlreadyStarted})
		return
	}

	l.status = busListenerStarted
	l.scope = msg.Scope
	conn.enqueue(message.StartBusListenerReply{Serial: msg.Serial, Result: message.StartBusListenerOk})

	if msg.Scope == message.BusListenerNew {
		return
	}

	for _, obj := range b.objects {
		if l.matches(obj.id.Uuid, nil) {
			conn.enqueue(message.EmitBusEvent{
				Cookie: msg.Cookie,
				Event:  message.BusEvent{Kind: message.BusEventObjectCreated, ObjectUuid: [16]byte(obj.id.Uuid)},
			})
		}
		for _, svc := range obj.services {
			svcUuid := svc.id.Uuid
			if !l.matches(obj.id.Uuid, &svcUuid) {
				continue
			}
			conn.enqueue(message.EmitBusEvent{
				Cookie: msg.Cookie,
				Event: message.BusEvent{
					Kind:        message.BusEventServiceCreated,
					ObjectUuid:  [16]byte(obj.id.Uuid),
					ServiceUuid: [16]byte(svcUuid),
				},
			})
		}
	}
	conn.enqueue(message.BusListenerCurrentFinished{Cookie: msg.Cookie})

	if msg.Scope == message.BusListenerCurrent {
		l.status = busListenerStopped
	}
}

func (b *Broker) onStopBusListener(conn *connection, msg message.StopBusListener) {
	l, ok := b.busListeners[aldrin.BusListenerCookie(msg.Cookie)]
	if !ok || l.owner != conn.id {
		conn.enqueue(message.StopBusListenerReply{Serial: msg.Serial, Result: message.StopBusListenerInvalidBusListener})
		return
	}
	if l.status != busListenerStarted {
		conn.enqueue(message.StopBusListenerReply{Serial: msg.Serial, Result: message.StopBusListenerNotStarted})
		return
	}
	l.status = busListenerStopped
	conn.enqueue(message.StopBusListenerReply{Serial: msg.Serial, Result: message.StopBusListenerOk})
}
