package broker

import (
	"github.com/aldrin-bus/aldrin/pkg/logger"
)

// Config bounds the broker's resource usage and wires in its ambient
// collaborators. Zero-value fields are replaced by DefaultConfig's
// defaults in New.
type Config struct {
	// MinSessionVersion and MaxSessionVersion bound the protocol
	// version a Connect handshake will be accepted at.
	MinSessionVersion uint32
	MaxSessionVersion uint32

	// OutboundQueueDepth bounds each connection's pending-send mailbox;
	// a connection whose peer cannot keep up is terminated once this
	// is exceeded, per the resource policy's liveness requirement.
	OutboundQueueDepth int

	// EventQueueDepth bounds the broker's own control-plane mailbox
	// (new connections, inbound messages, shutdown, stats queries).
	EventQueueDepth int

	// ChannelLowWaterMarkFraction picks the flow-control low-water mark
	// as capacity/Fraction (minimum 1); see DESIGN.md for the rationale
	// behind the default of 4.
	ChannelLowWaterMarkFraction uint32

	Logger logger.Logger
}

// DefaultConfig returns sane defaults for a broker running in a single
// process serving a moderate number of local clients.
func DefaultConfig() *Config {
	return &Config{
		MinSessionVersion:           1,
		MaxSessionVersion:           1,
		OutboundQueueDepth:          1024,
		EventQueueDepth:             4096,
		ChannelLowWaterMarkFraction: 4,
		Logger:                      logger.Noop(),
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.MaxSessionVersion == 0 {
		out.MaxSessionVersion = d.MaxSessionVersion
	}
	if out.OutboundQueueDepth == 0 {
		out.OutboundQueueDepth = d.OutboundQueueDepth
	}
	if out.EventQueueDepth == 0 {
		out.EventQueueDepth = d.EventQueueDepth
	}
	if out.ChannelLowWaterMarkFraction == 0 {
		out.ChannelLowWaterMarkFraction = d.ChannelLowWaterMarkFraction
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	return &out
}

func lowWaterMark(capacity, fraction uint32) uint32 {
	if fraction == 0 {
		fraction = 4
	}
	m := capacity / fraction
	if m == 0 {
		m = 1
	}
	return m
}
