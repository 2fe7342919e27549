package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

func (b *Broker) onSubscribeEvent(conn *connection, msg message.SubscribeEvent) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		conn.enqueue(message.SubscribeEventReply{Serial: msg.Serial, Result: message.SubscribeEventInvalidService})
		return
	}
	if svc.subs[msg.Event] == nil {
		svc.subs[msg.Event] = make(map[connID]struct{})
	}
	svc.subs[msg.Event][conn.id] = struct{}{}
	conn.enqueue(message.SubscribeEventReply{Serial: msg.Serial, Result: message.SubscribeEventOk})
}

func (b *Broker) onUnsubscribeEvent(conn *connection, msg message.UnsubscribeEvent) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		return
	}
	if subs := svc.subs[msg.Event]; subs != nil {
		delete(subs, conn.id)
		if len(subs) == 0 {
			delete(svc.subs, msg.Event)
		}
	}
}

func (b *Broker) onSubscribeAllEvents(conn *connection, msg message.SubscribeAllEvents) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		conn.enqueue(message.SubscribeAllEventsReply{Serial: msg.Serial, Result: message.SubscribeAllEventsInvalidService})
		return
	}
	svc.subsAll[conn.id] = struct{}{}
	conn.enqueue(message.SubscribeAllEventsReply{Serial: msg.Serial, Result: message.SubscribeAllEventsOk})
}

func (b *Broker) onUnsubscribeAllEvents(conn *connection, msg message.UnsubscribeAllEvents) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		return
	}
	delete(svc.subsAll, conn.id)
}

// onEmitEvent forwards msg to every current subscriber of (msg.Service,
// msg.Event), deduplicating a connection subscribed both explicitly and
// via SubscribeAllEvents. Only the owning service's connection may emit
// for it; anything else is silently dropped rather than torn down, since
// a stale client-side handle racing a DestroyService is expected, not a
// protocol violation.
func (b *Broker) onEmitEvent(conn *connection, msg message.EmitEvent) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok || svc.owner != conn.id {
		return
	}
	if !svc.hasSubscribers(msg.Event) {
		return
	}
	for id := range svc.subscribers(msg.Event) {
		if subConn, ok := b.conns[id]; ok {
			subConn.enqueue(msg)
		}
	}
}
