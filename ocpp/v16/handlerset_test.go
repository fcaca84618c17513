package v16

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newTestHandlerSet() *HandlerSet {
	svc := core.NewService(
		memory.NewChargePoints(),
		memory.NewConnectors(),
		memory.NewTransactions(),
		memory.NewIdTags(),
		memory.NoopBilling{},
		nullLogger{},
		nullBus{},
		core.Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true},
	)
	return NewHandlerSet(svc)
}

func TestHandleBootNotification(t *testing.T) {
	h := newTestHandlerSet()
	payload := json.RawMessage(`{"chargePointVendor":"Acme","chargePointModel":"X1"}`)
	out, err := h.Handle(context.Background(), "cp-1", "BootNotification", payload)
	require.NoError(t, err)

	var resp BootNotificationResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "Accepted", resp.Status)
	assert.Greater(t, resp.Interval, 0)
}

func TestHandleBootNotificationRejectsMissingRequiredField(t *testing.T) {
	h := newTestHandlerSet()
	payload := json.RawMessage(`{"chargePointModel":"X1"}`)
	_, err := h.Handle(context.Background(), "cp-1", "BootNotification", payload)
	require.Error(t, err)
	var schemaErr *core.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestHandleFirmwareStatusNotification(t *testing.T) {
	h := newTestHandlerSet()
	payload := json.RawMessage(`{"status":"Downloading"}`)
	out, err := h.Handle(context.Background(), "cp-1", "FirmwareStatusNotification", payload)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestHandleDiagnosticsStatusNotification(t *testing.T) {
	h := newTestHandlerSet()
	payload := json.RawMessage(`{"status":"Uploaded"}`)
	out, err := h.Handle(context.Background(), "cp-1", "DiagnosticsStatusNotification", payload)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestHandleUnknownAction(t *testing.T) {
	h := newTestHandlerSet()
	_, err := h.Handle(context.Background(), "cp-1", "NotARealAction", json.RawMessage(`{}`))
	require.Error(t, err)
	var unknownErr *core.UnknownActionError
	assert.ErrorAs(t, err, &unknownErr)
}
