package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeConnection(id string) *Connection {
	return fakeConnectionAt(id, time.Now().UTC())
}

func fakeConnectionAt(id string, connectedAt time.Time) *Connection {
	return &Connection{ChargePointId: id, ConnectedAt: connectedAt, done: make(chan struct{})}
}

func TestRegisterFreshSessionIsAccepted(t *testing.T) {
	r := NewRegistry()
	conn := fakeConnection("cp-1")

	outcome, old := r.Register("cp-1", conn)

	assert.Equal(t, Accepted, outcome)
	assert.Nil(t, old)
	got, ok := r.Get("cp-1")
	require.True(t, ok)
	assert.Same(t, conn, got)
}

func TestRegisterReplacesExistingSessionOlderThanDebounceWindow(t *testing.T) {
	r := NewRegistry().WithDebounceWindow(time.Millisecond)
	first := fakeConnectionAt("cp-1", time.Now().UTC().Add(-time.Hour))
	second := fakeConnection("cp-1")

	_, _ = r.Register("cp-1", first)
	outcome, old := r.Register("cp-1", second)

	assert.Equal(t, Replaced, outcome)
	assert.Same(t, first, old)
	got, _ := r.Get("cp-1")
	assert.Same(t, second, got)
}

func TestRegisterDebouncesStillLiveSessionWithinWindow(t *testing.T) {
	r := NewRegistry().WithDebounceWindow(time.Hour)
	first := fakeConnection("cp-1")

	_, _ = r.Register("cp-1", first)
	outcome, old := r.Register("cp-1", fakeConnection("cp-1"))

	assert.Equal(t, Debounced, outcome)
	assert.Nil(t, old)
	got, ok := r.Get("cp-1")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestReconnectWithinDebounceWindowIsRejected(t *testing.T) {
	r := NewRegistry().WithDebounceWindow(time.Hour)
	first := fakeConnection("cp-1")
	r.Register("cp-1", first)
	r.Unregister("cp-1", first)

	outcome, old := r.Register("cp-1", fakeConnection("cp-1"))

	assert.Equal(t, Debounced, outcome)
	assert.Nil(t, old)
	_, ok := r.Get("cp-1")
	assert.False(t, ok)
}

func TestReconnectAfterDebounceWindowIsAccepted(t *testing.T) {
	r := NewRegistry().WithDebounceWindow(time.Millisecond)
	first := fakeConnection("cp-1")
	r.Register("cp-1", first)
	r.Unregister("cp-1", first)

	time.Sleep(5 * time.Millisecond)

	outcome, _ := r.Register("cp-1", fakeConnection("cp-1"))
	assert.Equal(t, Accepted, outcome)
}

func TestUnregisterIgnoresStaleConnection(t *testing.T) {
	r := NewRegistry().WithDebounceWindow(time.Millisecond)
	first := fakeConnectionAt("cp-1", time.Now().UTC().Add(-time.Hour))
	second := fakeConnection("cp-1")
	r.Register("cp-1", first)
	r.Register("cp-1", second)

	// first was already replaced; unregistering it must not evict second.
	r.Unregister("cp-1", first)

	got, ok := r.Get("cp-1")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestCountAndAllReflectActiveSessions(t *testing.T) {
	r := NewRegistry()
	r.Register("cp-1", fakeConnection("cp-1"))
	r.Register("cp-2", fakeConnection("cp-2"))

	assert.Equal(t, 2, r.Count())
	assert.Len(t, r.All(), 2)
}
