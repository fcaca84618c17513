// Package dispatch implements the command dispatcher (component F):
// sending a version-agnostic core.Command to a connected charge point
// and resolving it against the CALLRESULT/CALLERROR that eventually
// arrives on that session's read loop, grounded on the teacher's
// Server.SendResponse/messageReader request/response shape generalized
// from "one in-flight reply per read" to a keyed pending-call table
// (needed once the dispatcher can have several commands in flight to
// the same charge point at once).
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"csms/internal/metrics"
	"csms/internal/session"
	"csms/ocpp/adapter"
	"csms/ocpp/core"
	"csms/ocpp/frame"
)

// DefaultTimeout bounds how long SendCommand waits for a CALLRESULT.
const DefaultTimeout = 30 * time.Second

// Dispatcher sends outbound OCPP commands and resolves their results.
type Dispatcher struct {
	sessions *session.Registry
	adapters *adapter.Registry
	logger   core.Logger
	pending  *pendingTable
	timeout  time.Duration
}

func NewDispatcher(sessions *session.Registry, adapters *adapter.Registry, logger core.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		adapters: adapters,
		logger:   logger,
		pending:  newPendingTable(),
		timeout:  DefaultTimeout,
	}
}

func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	d.timeout = timeout
	return d
}

// SendCommand encodes cmd for chargePointId's negotiated protocol
// version, sends it over that session's connection, and blocks until a
// CALLRESULT/CALLERROR arrives, the timeout elapses, ctx is cancelled,
// or the session disconnects.
func (d *Dispatcher) SendCommand(ctx context.Context, chargePointId string, cmd core.Command) (interface{}, error) {
	start := time.Now()
	payload, err := d.sendCommand(ctx, chargePointId, cmd)
	outcome := "ok"
	if cerr, ok := err.(*CommandError); ok {
		outcome = string(cerr.Kind)
	} else if err != nil {
		outcome = "error"
	}
	metrics.ObserveDispatchLatency(cmd.Action, time.Since(start).Seconds())
	metrics.CountDispatchOutcome(cmd.Action, outcome)
	return payload, err
}

func (d *Dispatcher) sendCommand(ctx context.Context, chargePointId string, cmd core.Command) (interface{}, error) {
	conn, ok := d.sessions.Get(chargePointId)
	if !ok {
		return nil, &CommandError{Kind: KindDisconnected, ChargePointId: chargePointId, Action: cmd.Action}
	}

	bundle, ok := d.adapters.Select(string(conn.OcppVersion))
	if !ok {
		return nil, fmt.Errorf("dispatch: no protocol bundle for version %q", conn.OcppVersion)
	}

	wirePayload, err := bundle.Commands.EncodeCommand(cmd.Action, cmd.Payload)
	if err != nil {
		return nil, fmt.Errorf("dispatch: encoding %s: %w", cmd.Action, err)
	}

	uniqueId := uuid.New().String()
	wireAction := bundle.Commands.WireAction(cmd.Action)
	data, err := frame.NewCall(uniqueId, wireAction, wirePayload).Encode()
	if err != nil {
		return nil, fmt.Errorf("dispatch: framing %s: %w", cmd.Action, err)
	}

	call := &pendingCall{chargePointId: chargePointId, coreAction: cmd.Action, resultCh: make(chan result, 1)}
	d.pending.add(uniqueId, call)

	if err := conn.Send(data); err != nil {
		d.pending.remove(chargePointId, uniqueId)
		return nil, fmt.Errorf("dispatch: sending %s to %s: %w", cmd.Action, chargePointId, err)
	}

	select {
	case res := <-call.resultCh:
		return res.payload, res.err
	case <-time.After(d.timeout):
		d.pending.remove(chargePointId, uniqueId)
		return nil, &CommandError{Kind: KindTimeout, ChargePointId: chargePointId, Action: cmd.Action}
	case <-ctx.Done():
		d.pending.remove(chargePointId, uniqueId)
		return nil, &CommandError{Kind: KindCancelled, ChargePointId: chargePointId, Action: cmd.Action}
	}
}

// ResolveResult is called by the transport layer when a CALLRESULT frame
// arrives on chargePointId's connection. version selects the
// CommandEncoder used to decode the payload against the action that was
// originally sent. The lookup is scoped to chargePointId's own pending
// set: uniqueIds are unique per charge point, not globally, so a frame
// arriving on one CP's socket can never resolve another CP's call.
func (d *Dispatcher) ResolveResult(chargePointId, version, uniqueId string, payload []byte) {
	call := d.pending.remove(chargePointId, uniqueId)
	if call == nil {
		d.logger.Warn(fmt.Sprintf("dispatch: CallResult from %s for unknown uniqueId %s", chargePointId, uniqueId))
		return
	}
	bundle, ok := d.adapters.Select(version)
	if !ok {
		call.resultCh <- result{err: fmt.Errorf("dispatch: no protocol bundle for version %q", version)}
		return
	}
	decoded, err := bundle.Commands.DecodeResult(call.coreAction, payload)
	call.resultCh <- result{payload: decoded, err: err}
}

// ResolveError is called by the transport layer when a CALLERROR frame
// arrives on chargePointId's connection in reply to a pending call,
// scoped the same way as ResolveResult.
func (d *Dispatcher) ResolveError(chargePointId, uniqueId, errorCode, errorDescription string) {
	call := d.pending.remove(chargePointId, uniqueId)
	if call == nil {
		d.logger.Warn(fmt.Sprintf("dispatch: CallError from %s for unknown uniqueId %s", chargePointId, uniqueId))
		return
	}
	call.resultCh <- result{err: &CommandError{
		Kind:             KindRemote,
		ChargePointId:    call.chargePointId,
		Action:           call.coreAction,
		ErrorCode:        errorCode,
		ErrorDescription: errorDescription,
	}}
}

// CancelSession resolves every pending call for chargePointId as
// Disconnected, called when its session ends.
func (d *Dispatcher) CancelSession(chargePointId string) {
	d.pending.cancelAll(chargePointId, &CommandError{Kind: KindDisconnected, ChargePointId: chargePointId})
}
