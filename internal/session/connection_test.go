package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestConnection(depth int) *Connection {
	return &Connection{
		ChargePointId: "cp-1",
		outbox:        make(chan []byte, depth),
		done:          make(chan struct{}),
	}
}

func TestSendQueuesWhenRoom(t *testing.T) {
	c := newTestConnection(2)
	assert.NoError(t, c.Send([]byte("a")))
	assert.Len(t, c.outbox, 1)
}

func TestSendReturnsBackpressureWhenFull(t *testing.T) {
	c := newTestConnection(1)
	require := assert.New(t)
	require.NoError(c.Send([]byte("a")))
	require.ErrorIs(c.Send([]byte("b")), ErrBackpressure)
}

func TestSendReturnsClosedAfterClose(t *testing.T) {
	c := newTestConnection(1)
	c.closed = true
	assert.ErrorIs(t, c.Send([]byte("a")), ErrClosed)
}
