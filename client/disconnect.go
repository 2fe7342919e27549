package client

// teardown unwinds every piece of dispatcher-owned state once the
// connection is gone or a shutdown was requested, waking anything still
// blocked on this client with err. It is idempotent.
func (c *Client) teardown(err error) {
	if c.shuttingDown {
		return
	}
	c.shuttingDown = true

	c.handshake.Resolve(handshakeOutcome{err: err})

	for serial, cb := range c.pending {
		delete(c.pending, serial)
		cb(nil, err)
	}

	for serial, ic := range c.inboundCalls {
		delete(c.inboundCalls, serial)
		close(ic.aborted)
	}

	for cookie, st := range c.services {
		st.calls.Close()
		delete(c.services, cookie)
	}

	for cookie, st := range c.remoteSubs {
		for _, sub := range st.allSubs {
			sub.queue.Close()
		}
		for _, subs := range st.byEvent {
			for _, sub := range subs {
				sub.queue.Close()
			}
		}
		delete(c.remoteSubs, cookie)
	}

	for cookie, st := range c.channels {
		if st.sender != nil {
			st.sender.closed = true
			for _, w := range st.sender.waiters {
				w.result.Resolve(err)
			}
			st.sender.waiters = nil
		}
		if st.receiver != nil {
			st.receiver.closed = true
			st.receiver.queue.Close()
		}
		delete(c.channels, cookie)
	}

	for cookie, st := range c.busListeners {
		st.events.Close()
		delete(c.busListeners, cookie)
	}

	c.events.Close()
	c.conn.Close()
}
