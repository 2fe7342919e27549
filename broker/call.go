package broker

import (
	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
)

// onCallFunction routes a CallFunction to the connection owning the
// target service, rewriting the caller-local serial to a fresh
// callee-local one so two overlapping calls from different callers can
// never collide in the callee's serial namespace.
func (b *Broker) onCallFunction(conn *connection, msg message.CallFunction) {
	svc, ok := b.services[aldrin.ServiceCookie(msg.Service)]
	if !ok {
		conn.enqueue(message.CallFunctionReply{Serial: msg.Serial, Result: message.CallInvalidService})
		return
	}
	callee, ok := b.conns[svc.owner]
	if !ok {
		conn.enqueue(message.CallFunctionReply{Serial: msg.Serial, Result: message.CallInvalidService})
		return
	}

	calleeSerial := callee.allocSerial()
	callee.inboundCalls[calleeSerial] = inboundCall{callerConn: conn.id, callerSerial: msg.Serial}
	conn.outboundCalls[msg.Serial] = outboundCall{calleeConn: callee.id, calleeSerial: calleeSerial}

	callee.enqueue(message.CallFunction{
		Serial:   calleeSerial,
		Service:  msg.Service,
		Function: msg.Function,
		Args:     msg.Args,
	})
}

// onCallFunctionReply translates a reply from the callee (conn) back to
// the original caller's serial and forwards it, completing the call on
// both sides' routing tables.
func (b *Broker) onCallFunctionReply(conn *connection, msg message.CallFunctionReply) {
	entry, ok := conn.inboundCalls[msg.Serial]
	if !ok {
		return
	}
	delete(conn.inboundCalls, msg.Serial)

	caller, ok := b.conns[entry.callerConn]
	if !ok {
		return
	}
	delete(caller.outboundCalls, entry.callerSerial)
	caller.enqueue(message.CallFunctionReply{
		Serial:   entry.callerSerial,
		Result:   msg.Result,
		Value:    msg.Value,
		HasValue: msg.HasValue,
	})
}

// onAbortFunctionCall translates an abort from the caller (conn) to the
// callee's serial and forwards it; the callee's eventual
// CallFunctionReply(Aborted) (or lack of one, if it races the abort) no
// longer has anywhere to go since both routing entries are removed here.
func (b *Broker) onAbortFunctionCall(conn *connection, msg message.AbortFunctionCall) {
	entry, ok := conn.outboundCalls[msg.Serial]
	if !ok {
		return
	}
	delete(conn.outboundCalls, msg.Serial)

	callee, ok := b.conns[entry.calleeConn]
	if !ok {
		return
	}
	delete(callee.inboundCalls, entry.calleeSerial)
	callee.enqueue(message.AbortFunctionCall{Serial: entry.calleeSerial})
}

// reapOutboundCalls is step 3 of the disconnect cascade: every call conn
// issued and is still waiting on is aborted towards its callee, since
// conn can never consume the reply.
func (b *Broker) reapOutboundCalls(conn *connection) {
	for callerSerial, entry := range conn.outboundCalls {
		delete(conn.outboundCalls, callerSerial)
		if callee, ok := b.conns[entry.calleeConn]; ok {
			delete(callee.inboundCalls, entry.calleeSerial)
			callee.enqueue(message.AbortFunctionCall{Serial: entry.calleeSerial})
		}
	}
}

// reapInboundCalls is step 2 of the disconnect cascade: every call conn
// was asked to handle and never answered is synthesized as Aborted
// towards the original caller, since conn can never produce a reply.
func (b *Broker) reapInboundCalls(conn *connection) {
	for calleeSerial, entry := range conn.inboundCalls {
		delete(conn.inboundCalls, calleeSerial)
		if caller, ok := b.conns[entry.callerConn]; ok {
			delete(caller.outboundCalls, entry.callerSerial)
			caller.enqueue(message.CallFunctionReply{Serial: entry.callerSerial, Result: message.CallAborted})
		}
	}
}
