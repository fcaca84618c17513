package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csms/internal/session"
	"csms/ocpp/adapter"
	"csms/ocpp/core"
	"csms/ocpp/frame"
	"csms/ocpp/v16"
)

type nullLogger struct{}

func (nullLogger) FeatureEvent(string, string, string) {}
func (nullLogger) Debug(string)                        {}
func (nullLogger) Warn(string)                         {}
func (nullLogger) Error(string, error)                 {}

// capturingSocket records every frame written to it so tests can
// synthesize the charge point's reply without a real websocket.
type capturingSocket struct {
	sent chan []byte
}

func newCapturingSocket() *capturingSocket { return &capturingSocket{sent: make(chan []byte, 4)} }

func (s *capturingSocket) ReadMessage() (int, []byte, error) { select {} }
func (s *capturingSocket) WriteMessage(_ int, data []byte) error {
	s.sent <- data
	return nil
}
func (s *capturingSocket) Close() error { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Registry, *capturingSocket) {
	t.Helper()
	registry := session.NewRegistry()
	sock := newCapturingSocket()
	conn := session.NewConnection("cp-1", "ocpp1.6", sock, nil)
	outcome, _ := registry.Register("cp-1", conn)
	require.Equal(t, session.Accepted, outcome)

	adapters := adapter.NewRegistry(false)
	adapters.Register("ocpp1.6", adapter.Bundle{Version: "ocpp1.6", Commands: v16.CommandEncoder{}})

	d := NewDispatcher(registry, adapters, nullLogger{}).WithTimeout(200 * time.Millisecond)
	return d, registry, sock
}

func TestSendCommandResolvesOnCallResult(t *testing.T) {
	d, _, sock := newTestDispatcher(t)

	go func() {
		data := <-sock.sent
		f, err := frame.Decode(data, 0)
		require.NoError(t, err)
		assert.Equal(t, core.ActionRemoteStartTransaction, f.Action)
		d.ResolveResult("cp-1", "ocpp1.6", f.UniqueId, []byte(`{"status":"Accepted"}`))
	}()

	connectorId := 1
	payload, err := d.SendCommand(context.Background(), "cp-1", core.NewRemoteStartTransaction(&connectorId, "tag-1"))
	require.NoError(t, err)
	assert.Equal(t, "Accepted", payload)
}

func TestSendCommandResolvesOnCallError(t *testing.T) {
	d, _, sock := newTestDispatcher(t)

	go func() {
		data := <-sock.sent
		f, _ := frame.Decode(data, 0)
		d.ResolveError("cp-1", f.UniqueId, "InternalError", "boom")
	}()

	_, err := d.SendCommand(context.Background(), "cp-1", core.NewReset(core.ResetSoft))
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, KindRemote, cmdErr.Kind)
}

func TestSendCommandTimesOut(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, err := d.SendCommand(context.Background(), "cp-1", core.NewReset(core.ResetSoft))
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, KindTimeout, cmdErr.Kind)
}

func TestSendCommandToUnknownChargePointIsDisconnected(t *testing.T) {
	registry := session.NewRegistry()
	adapters := adapter.NewRegistry(false)
	d := NewDispatcher(registry, adapters, nullLogger{})

	_, err := d.SendCommand(context.Background(), "ghost", core.NewClearCache())
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, KindDisconnected, cmdErr.Kind)
}

func TestResolveResultIgnoresMismatchedChargePoint(t *testing.T) {
	d, _, sock := newTestDispatcher(t)

	done := make(chan struct {
		payload interface{}
		err     error
	}, 1)
	go func() {
		connectorId := 1
		payload, err := d.SendCommand(context.Background(), "cp-1", core.NewRemoteStartTransaction(&connectorId, "tag-1"))
		done <- struct {
			payload interface{}
			err     error
		}{payload, err}
	}()

	data := <-sock.sent
	f, err := frame.Decode(data, 0)
	require.NoError(t, err)

	// A CallResult carrying the right uniqueId but attributed to a
	// different charge point must not resolve cp-1's pending call.
	d.ResolveResult("cp-2", "ocpp1.6", f.UniqueId, []byte(`{"status":"Accepted"}`))

	select {
	case res := <-done:
		t.Fatalf("SendCommand resolved from the wrong charge point: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}

	d.ResolveResult("cp-1", "ocpp1.6", f.UniqueId, []byte(`{"status":"Accepted"}`))
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "Accepted", res.payload)
}

func TestCancelSessionResolvesPendingCallsAsDisconnected(t *testing.T) {
	d, registry, _ := newTestDispatcher(t)

	done := make(chan error, 1)
	go func() {
		_, err := d.SendCommand(context.Background(), "cp-1", core.NewClearCache())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	conn, _ := registry.Get("cp-1")
	registry.Unregister("cp-1", conn)
	d.CancelSession("cp-1")

	err := <-done
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, KindDisconnected, cmdErr.Kind)
}
