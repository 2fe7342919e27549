package client

import (
	"github.com/aldrin-bus/aldrin/pkg/logger"
)

// Config tunes one Client. There is no config-file or env layer; every
// tunable is a plain struct field with a DefaultConfig constructor,
// matching the rest of this module.
type Config struct {
	// RequestQueueDepth bounds the handle-request mailbox the dispatcher
	// reads from; a caller blocks once it is full.
	RequestQueueDepth int

	// EventQueueDepth bounds each standing subscriber queue (event
	// subscriptions, bus listeners, channel item queues).
	EventQueueDepth int

	// ChannelCapacityFraction picks the low-water mark a channel
	// receiver restores credit at: capacity/ChannelCapacityFraction,
	// minimum 1.
	ChannelCapacityFraction uint32

	Logger logger.Logger
}

// DefaultConfig returns a Config with the module's standard defaults.
func DefaultConfig() *Config {
	return &Config{
		RequestQueueDepth:       256,
		EventQueueDepth:         1024,
		ChannelCapacityFraction: 4,
		Logger:                  logger.Noop(),
	}
}

func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	d := DefaultConfig()
	if out.RequestQueueDepth == 0 {
		out.RequestQueueDepth = d.RequestQueueDepth
	}
	if out.EventQueueDepth == 0 {
		out.EventQueueDepth = d.EventQueueDepth
	}
	if out.ChannelCapacityFraction == 0 {
		out.ChannelCapacityFraction = d.ChannelCapacityFraction
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	return &out
}

// lowWaterMark is the credit threshold below which a channel receiver
// tops itself back up to capacity: capacity/fraction, never below 1 for
// any capacity of at least fraction, and never above capacity-1 so a
// full receiver never sends a redundant AddChannelCapacity.
func lowWaterMark(capacity, fraction uint32) uint32 {
	if capacity == 0 {
		return 0
	}
	m := capacity / fraction
	if m == 0 {
		m = 1
	}
	if m >= capacity {
		m = capacity - 1
	}
	return m
}
