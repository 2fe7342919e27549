package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

// onRegisterIntrospection records that conn can answer QueryIntrospection
// for each of the given type ids. A later registration for the same type
// id simply replaces the earlier owner.
func (b *Broker) onRegisterIntrospection(conn *connection, msg message.RegisterIntrospection) {
	for _, id := range msg.TypeIds {
		b.introspectionOwners[aldrin.TypeId(id)] = conn.id
	}
}

// onQueryIntrospection forwards the query to whichever connection last
// registered the type id, under a serial of that connection's own
// choosing, and records how to route the reply back.
func (b *Broker) onQueryIntrospection(conn *connection, msg message.QueryIntrospection) {
	owner, ok := b.introspectionOwners[aldrin.TypeId(msg.TypeId)]
	target, ok2 := b.conns[owner]
	if !ok || !ok2 {
		conn.enqueue(message.QueryIntrospectionReply{Serial: msg.Serial, Result: message.QueryIntrospectionUnavailable})
		return
	}

	targetSerial := target.allocSerial()
	target.introspectionQueries[targetSerial] = inboundCall{callerConn: conn.id, callerSerial: msg.Serial}
	target.enqueue(message.QueryIntrospection{Serial: targetSerial, TypeId: msg.TypeId})
}

func (b *Broker) onQueryIntrospectionReply(conn *connection, msg message.QueryIntrospectionReply) {
	entry, ok := conn.introspectionQueries[msg.Serial]
	if !ok {
		return
	}
	delete(conn.introspectionQueries, msg.Serial)
	if caller, ok := b.conns[entry.callerConn]; ok {
		caller.enqueue(message.QueryIntrospectionReply{Serial: entry.callerSerial, Result: msg.Result, Value: msg.Value})
	}
}

// reapIntrospectionQueries answers every query conn was asked and never
// replied to with Unavailable, since conn can never produce a reply now.
func (b *Broker) reapIntrospectionQueries(conn *connection) {
	for serial, entry := range conn.introspectionQueries {
		delete(conn.introspectionQueries, serial)
		if caller, ok := b.conns[entry.callerConn]; ok {
			caller.enqueue(message.QueryIntrospectionReply{Serial: entry.callerSerial, Result: message.QueryIntrospectionUnavailable})
		}
	}
}

// forgetIntrospectionOwner removes every type id conn had registered, so
// a later query for it correctly reports Unavailable instead of
// forwarding to a connection that no longer exists.
func (b *Broker) forgetIntrospectionOwner(conn *connection) {
	for typeID, owner := range b.introspectionOwners {
		if owner == conn.id {
			delete(b.introspectionOwners, typeID)
		}
	}
}
