package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyGetReflectsInitial(t *testing.T) {
	p := New(7)
	snap := p.Get()
	assert.Equal(t, 7, snap.Value)
	assert.EqualValues(t, 0, snap.Version)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestPropertySetBumpsVersionAndTimestamp(t *testing.T) {
	p := New(1)
	first := p.Get()

	version := p.Set(2)
	assert.EqualValues(t, 1, version)

	second := p.Get()
	assert.Equal(t, 2, second.Value)
	assert.EqualValues(t, 1, second.Version)
	assert.True(t, !second.UpdatedAt.Before(first.UpdatedAt))
}

func TestPropertySetAlwaysBumpsEvenOnSameValue(t *testing.T) {
	p := New(5)
	v1 := p.Set(5)
	v2 := p.Set(5)
	assert.EqualValues(t, 1, v1)
	assert.EqualValues(t, 2, v2)
}

func TestComparablePropertySetIfChanged(t *testing.T) {
	p := NewComparable("idle")

	changed, version := p.SetIfChanged("idle")
	assert.False(t, changed)
	assert.EqualValues(t, 0, version)

	changed, version = p.SetIfChanged("running")
	assert.True(t, changed)
	assert.EqualValues(t, 1, version)

	snap := p.Get()
	assert.Equal(t, "running", snap.Value)
	require.EqualValues(t, 1, snap.Version)

	changed, _ = p.SetIfChanged("running")
	assert.False(t, changed)
	assert.EqualValues(t, 1, p.Get().Version)
}
