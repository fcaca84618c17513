package wsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csms/internal/session"
	"csms/ocpp/core"
)

type nullLogger struct{}

func (nullLogger) FeatureEvent(string, string, string) {}
func (nullLogger) Debug(string)                        {}
func (nullLogger) Warn(string)                         {}
func (nullLogger) Error(string, error)                 {}

type fakeSender struct {
	lastAction string
	result     interface{}
	err        error
}

func (f *fakeSender) SendCommand(_ context.Context, _ string, cmd core.Command) (interface{}, error) {
	f.lastAction = cmd.Action
	return f.result, f.err
}

func TestHandleCommandSendsAndEncodesResult(t *testing.T) {
	sender := &fakeSender{result: "Accepted"}
	api := NewCommandAPI(sender, session.NewRegistry(), nullLogger{})
	router := httprouter.New()
	api.Register(router)

	body, _ := json.Marshal(commandRequest{ChargePointId: "cp-1", Action: core.ActionClearCache})
	req := httptest.NewRequest(http.MethodPost, commandEndpoint, bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.ActionClearCache, sender.lastAction)
	assert.JSONEq(t, `"Accepted"`, rec.Body.String())
}

func TestHandleCommandReturnsBadGatewayOnDispatchError(t *testing.T) {
	sender := &fakeSender{err: assertError{"boom"}}
	api := NewCommandAPI(sender, session.NewRegistry(), nullLogger{})
	router := httprouter.New()
	api.Register(router)

	body, _ := json.Marshal(commandRequest{ChargePointId: "cp-1", Action: core.ActionClearCache})
	req := httptest.NewRequest(http.MethodPost, commandEndpoint, bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleConnectedReportsSessionCount(t *testing.T) {
	registry := session.NewRegistry()
	api := NewCommandAPI(&fakeSender{}, registry, nullLogger{})
	router := httprouter.New()
	api.Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/connected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.JSONEq(t, `{"connected":0}`, rec.Body.String())
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
