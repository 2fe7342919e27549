package broker

// handleDisconnect runs the deterministic teardown cascade for a
// connection that has gone away, whether because its socket closed, it
// sent Shutdown, or the broker is terminating it. Every other
// connection only ever learns about the disconnect through the
// synthesized messages this produces, never by inspecting conn itself.
func (b *Broker) handleDisconnect(id connID) {
	conn, ok := b.conns[id]
	if !ok {
		return
	}

	// 1. Mark terminating first. The routing code does not consult the
	// flag; the connection stays in b.conns until the end of this
	// cascade and leaves it only by the delete below.
	conn.terminating = true

	// 2. Calls this connection was asked to handle and never answered
	// are synthesized as Aborted towards their original callers.
	b.reapInboundCalls(conn)

	// 3. Calls this connection issued and is still waiting on are
	// aborted towards their callees.
	b.reapOutboundCalls(conn)

	b.reapIntrospectionQueries(conn)
	b.forgetIntrospectionOwner(conn)

	// 4. Every service this connection owns is destroyed: subscribers
	// get ServiceDestroyed, subscription sets are cleared, and it is
	// removed from its object.
	for cookie := range conn.services {
		b.removeService(cookie)
	}

	// 5. Every object this connection owns is destroyed (any service
	// left on it was already handled in step 4, so this only emits the
	// object's own bus events and drops it).
	for cookie := range conn.objects {
		b.removeObject(cookie)
		delete(conn.objects, cookie)
	}

	// 6. Every channel endpoint this connection owns is closed, notifying
	// its peer and destroying the channel once both ends are closed.
	for key := range conn.channelEnds {
		b.closeOwnedChannelEnd(key)
	}

	// 7. Every bus listener this connection owns is dropped; it has no
	// peer to notify.
	for cookie := range conn.busListeners {
		delete(b.busListeners, cookie)
	}

	delete(b.conns, id)
	conn.out.Close()
	conn.conn.Close()
}
