package dispatch

import (
	"fmt"
	"sync"
)

// Kind enumerates how a pending outbound command was resolved, matching
// spec.md §7's Timeout|Remote|Disconnected|Cancelled taxonomy for
// command errors.
type Kind string

const (
	KindTimeout      Kind = "Timeout"
	KindRemote       Kind = "Remote"
	KindDisconnected Kind = "Disconnected"
	KindCancelled    Kind = "Cancelled"
)

// CommandError is returned by Dispatcher.SendCommand whenever the
// command did not resolve with a successful CallResult.
type CommandError struct {
	Kind             Kind
	ChargePointId    string
	Action           string
	ErrorCode        string // populated for KindRemote
	ErrorDescription string // populated for KindRemote
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case KindRemote:
		return fmt.Sprintf("command %s to %s failed: %s: %s", e.Action, e.ChargePointId, e.ErrorCode, e.ErrorDescription)
	default:
		return fmt.Sprintf("command %s to %s: %s", e.Action, e.ChargePointId, e.Kind)
	}
}

type result struct {
	payload interface{}
	err     error
}

// pendingCall tracks one outstanding CALL awaiting its CALLRESULT or
// CALLERROR, keyed by uniqueId in Dispatcher.pending.
type pendingCall struct {
	chargePointId string
	coreAction    string
	resultCh      chan result
}

type pendingTable struct {
	mu    sync.Mutex
	byId  map[string]*pendingCall
	byCp  map[string]map[string]struct{} // chargePointId -> set of uniqueIds
}

func newPendingTable() *pendingTable {
	return &pendingTable{
		byId: make(map[string]*pendingCall),
		byCp: make(map[string]map[string]struct{}),
	}
}

func (t *pendingTable) add(uniqueId string, call *pendingCall) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byId[uniqueId] = call
	set, ok := t.byCp[call.chargePointId]
	if !ok {
		set = make(map[string]struct{})
		t.byCp[call.chargePointId] = set
	}
	set[uniqueId] = struct{}{}
}

// remove resolves and evicts the pending call for uniqueId, but only if
// it is owned by chargePointId: uniqueIds are unique per charge point,
// not globally, so a CALLRESULT/CALLERROR arriving on one CP's
// connection must never resolve another CP's pending call even if their
// generated uniqueIds happened to collide.
func (t *pendingTable) remove(chargePointId, uniqueId string) *pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	call, ok := t.byId[uniqueId]
	if !ok || call.chargePointId != chargePointId {
		return nil
	}
	delete(t.byId, uniqueId)
	if set, ok := t.byCp[call.chargePointId]; ok {
		delete(set, uniqueId)
		if len(set) == 0 {
			delete(t.byCp, call.chargePointId)
		}
	}
	return call
}

// cancelAll resolves and removes every pending call for chargePointId,
// used when its session disconnects.
func (t *pendingTable) cancelAll(chargePointId string, err error) {
	t.mu.Lock()
	ids := make([]string, 0, len(t.byCp[chargePointId]))
	for id := range t.byCp[chargePointId] {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		if call := t.remove(chargePointId, id); call != nil {
			call.resultCh <- result{err: err}
		}
	}
}
