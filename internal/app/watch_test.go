package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishGate(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	gate := newPublishGate(30 * time.Second)

	assert.True(t, gate.allow("a", t0))
	assert.False(t, gate.allow("a", t0.Add(10*time.Second)))
	assert.True(t, gate.allow("b", t0.Add(10*time.Second)))
	assert.True(t, gate.allow("a", t0.Add(31*time.Second)))
	assert.False(t, gate.allow("a", t0.Add(32*time.Second)))
}

func TestPublishGateDisabled(t *testing.T) {
	gate := newPublishGate(0)

	assert.True(t, gate.allow("a", time.Unix(0, 0)))
	assert.True(t, gate.allow("a", time.Unix(0, 1)))
}

func TestOptionsWantsSession(t *testing.T) {
	assert.False(t, Options{}.wantsSession())
	assert.False(t, Options{Discover: true}.wantsSession())
	assert.False(t, Options{Watch: true}.wantsSession())
	assert.True(t, Options{DumpHistoric: true}.wantsSession())
	assert.True(t, Options{DumpLast: time.Hour, DumpLastSet: true}.wantsSession())
	assert.True(t, Options{SetTime: true}.wantsSession())
	assert.True(t, Options{Sections: true}.wantsSession())
}

// A window of zero minutes still selects a session: the dump connects and
// simply produces no rows.
func TestOptionsWantsSessionForZeroWindow(t *testing.T) {
	assert.True(t, Options{DumpLastSet: true}.wantsSession())
	assert.True(t, Options{DumpLast: 0, DumpLastSet: true}.wantsSession())
}
