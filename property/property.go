// Package property provides a timestamped cached value: the pattern
// every long-lived piece of broker- or client-observed state in this
// module is built on, generalized from the teacher's per-session
// bookkeeping into a reusable, mutex-guarded cell with a monotonic
// version counter and change-detection helpers.
package property

import (
	"sync"
	"time"
)

// Snapshot is a consistent point-in-time read of a Property: the value,
// a version that increases on every Set, and when that Set happened.
type Snapshot[T any] struct {
	Value     T
	Version   uint64
	UpdatedAt time.Time
}

// Property is a mutex-guarded cached value of T. It never blocks a
// writer on a reader or vice versa for longer than a single field copy,
// matching the no-shared-mutex-on-the-hot-path rule elsewhere in this
// module: a Property is meant to sit off to the side of a dispatcher
// loop, updated by it and read by anyone else.
type Property[T any] struct {
	mu        sync.RWMutex
	value     T
	version   uint64
	updatedAt time.Time
}

// New creates a Property already holding initial, stamped with the
// current time.
func New[T any](initial T) *Property[T] {
	return &Property[T]{value: initial, updatedAt: time.Now()}
}

// Get returns a consistent snapshot of the current value.
func (p *Property[T]) Get() Snapshot[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot[T]{Value: p.value, Version: p.version, UpdatedAt: p.updatedAt}
}

// Set unconditionally stores value, stamps it with the current time,
// and returns the new version. The version monotonically increases for
// the lifetime of the Property.
func (p *Property[T]) Set(value T) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = value
	p.updatedAt = time.Now()
	p.version++
	return p.version
}

// ComparableProperty is a Property whose value supports ==, enabling
// SetIfChanged's change-only update.
type ComparableProperty[T comparable] struct {
	Property[T]
}

// NewComparable creates a ComparableProperty already holding initial,
// stamped with the current time.
func NewComparable[T comparable](initial T) *ComparableProperty[T] {
	return &ComparableProperty[T]{Property: Property[T]{value: initial, updatedAt: time.Now()}}
}

// SetIfChanged stores value only if it differs from the current one,
// reporting whether an update occurred. A no-op call leaves the
// version and timestamp untouched, so UpdatedAt always reflects the
// last actual change rather than the last poll.
func (p *ComparableProperty[T]) SetIfChanged(value T) (changed bool, version uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.value == value {
		return false, p.version
	}
	p.value = value
	p.updatedAt = time.Now()
	p.version++
	return true, p.version
}
