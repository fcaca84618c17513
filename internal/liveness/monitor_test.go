package liveness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csms/internal/session"
	"csms/ocpp/core"
	"csms/repository/memory"
)

type nullLogger struct{}

func (nullLogger) FeatureEvent(string, string, string) {}
func (nullLogger) Debug(string)                        {}
func (nullLogger) Warn(string)                         {}
func (nullLogger) Error(string, error)                 {}

type nullBus struct{}

func (nullBus) Publish(string, core.Event) {}

func newTestService() *core.Service {
	return core.NewService(
		memory.NewChargePoints(),
		memory.NewConnectors(),
		memory.NewTransactions(),
		memory.NewIdTags(),
		memory.NoopBilling{},
		nullLogger{},
		nullBus{},
		core.Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true},
	)
}

type fakeSocket struct{}

func (fakeSocket) ReadMessage() (int, []byte, error) { select {} }
func (fakeSocket) WriteMessage(int, []byte) error    { return nil }
func (fakeSocket) Close() error                      { return nil }

func newFakeConnection(id string, lastActivity time.Time) *session.Connection {
	conn := session.NewConnection(id, "ocpp1.6", fakeSocket{}, nil)
	_ = lastActivity
	return conn
}

func TestEvictStaleClosesAndUnregistersStaleSessions(t *testing.T) {
	registry := session.NewRegistry()
	svc := newTestService()
	monitor := NewMonitor(registry, svc, nullLogger{}).WithStaleTimeout(0)

	conn := newFakeConnection("cp-1", time.Now())
	outcome, _ := registry.Register("cp-1", conn)
	require.Equal(t, session.Accepted, outcome)

	time.Sleep(time.Millisecond)
	monitor.evictStale()

	_, ok := registry.Get("cp-1")
	assert.False(t, ok)
}

func TestEvictStaleLeavesFreshSessionsAlone(t *testing.T) {
	registry := session.NewRegistry()
	svc := newTestService()
	monitor := NewMonitor(registry, svc, nullLogger{}).WithStaleTimeout(time.Hour)

	conn := newFakeConnection("cp-1", time.Now())
	registry.Register("cp-1", conn)

	monitor.evictStale()

	_, ok := registry.Get("cp-1")
	assert.True(t, ok)
}
