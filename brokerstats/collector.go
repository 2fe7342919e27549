// Package brokerstats exposes a broker's live entity counts as the
// statistics endpoint callers poll to confirm a disconnected client
// left nothing behind: it republishes broker.Stats both as a
// timestamped property.Property snapshot and as Prometheus gauges.
package brokerstats

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aldrin-bus/aldrin/broker"
	"github.com/aldrin-bus/aldrin/property"
)

// Collector polls a Broker's statistics endpoint and republishes the
// result as a cached snapshot and as Prometheus gauges. It implements
// prometheus.Collector so it can be registered directly with a
// prometheus.Registry.
type Collector struct {
	b        *broker.Broker
	snapshot *property.ComparableProperty[broker.Stats]

	objects      prometheus.Gauge
	services     prometheus.Gauge
	channels     prometheus.Gauge
	busListeners prometheus.Gauge
	connections  prometheus.Gauge
}

// NewCollector creates a Collector polling b. Call Run to keep it
// polling until its context is done, and Register it with a
// prometheus.Registerer to expose the gauges.
func NewCollector(b *broker.Broker) *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aldrin",
			Subsystem: "broker",
			Name:      name,
			Help:      help,
		})
	}
	return &Collector{
		b:            b,
		snapshot:     property.NewComparable(broker.Stats{}),
		objects:      gauge("objects", "Live objects currently tracked by the broker."),
		services:     gauge("services", "Live services currently tracked by the broker."),
		channels:     gauge("channels", "Live channels currently tracked by the broker."),
		busListeners: gauge("bus_listeners", "Live bus listeners currently tracked by the broker."),
		connections:  gauge("connections", "Connections currently attached to the broker."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.objects.Describe(ch)
	c.services.Describe(ch)
	c.channels.Describe(ch)
	c.busListeners.Describe(ch)
	c.connections.Describe(ch)
}

// Collect implements prometheus.Collector, reporting whatever the last
// Poll observed without touching the broker's event loop itself.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.objects.Collect(ch)
	c.services.Collect(ch)
	c.channels.Collect(ch)
	c.busListeners.Collect(ch)
	c.connections.Collect(ch)
}

// Poll queries the broker once, updates the cached snapshot and the
// gauges, and reports whether the observed counts changed since the
// last poll.
func (c *Collector) Poll(ctx context.Context) (bool, error) {
	stats, err := c.b.Stats(ctx)
	if err != nil {
		return false, err
	}
	changed, _ := c.snapshot.SetIfChanged(stats)

	c.objects.Set(float64(stats.Objects))
	c.services.Set(float64(stats.Services))
	c.channels.Set(float64(stats.Channels))
	c.busListeners.Set(float64(stats.BusListeners))
	c.connections.Set(float64(stats.Connections))

	return changed, nil
}

// Snapshot returns the most recently polled statistics together with
// when they were last observed to change.
func (c *Collector) Snapshot() property.Snapshot[broker.Stats] {
	return c.snapshot.Get()
}

// Run polls the broker every interval until ctx is done.
func (c *Collector) Run(ctx context.Context, interval time.Duration) error {
	if _, err := c.Poll(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := c.Poll(ctx); err != nil {
				return err
			}
		}
	}
}
