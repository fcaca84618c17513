package wsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"csms/internal/session"
	"csms/ocpp/core"
)

const commandEndpoint = "/api/command"

// commandRequest is the JSON body of POST /api/command:
// {chargePointId, action, payload}, where action names any
// ocpp/core.Action* constant rather than a fixed vocabulary.
type commandRequest struct {
	ChargePointId string          `json:"chargePointId"`
	Action        string          `json:"action"`
	Payload       json.RawMessage `json:"payload"`
}

// commandSender is the subset of ocpp/dispatch.Dispatcher the operator
// boundary needs.
type commandSender interface {
	SendCommand(ctx context.Context, chargePointId string, cmd core.Command) (interface{}, error)
}

// CommandAPI is a minimal httprouter-based operator boundary that
// exists to exercise the outbound command path end to end for local
// testing; it carries no auth or validation middleware of its own,
// leaving that to whatever REST layer eventually sits in front of it.
type CommandAPI struct {
	dispatcher commandSender
	sessions   *session.Registry
	logger     core.Logger
}

func NewCommandAPI(dispatcher commandSender, sessions *session.Registry, logger core.Logger) *CommandAPI {
	return &CommandAPI{dispatcher: dispatcher, sessions: sessions, logger: logger}
}

func (a *CommandAPI) Register(router *httprouter.Router) {
	router.POST(commandEndpoint, a.handleCommand)
	router.GET("/api/connected", a.handleConnected)
}

func (a *CommandAPI) handleCommand(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("api: reading body from %s: %s", r.RemoteAddr, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req commandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.logger.Warn(fmt.Sprintf("api: parsing command from %s: %s", r.RemoteAddr, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var payload interface{}
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	result, err := a.dispatcher.SendCommand(r.Context(), req.ChargePointId, core.Command{Action: req.Action, Payload: payload})
	if err != nil {
		a.logger.Warn(fmt.Sprintf("api: command %s to %s failed: %s", req.Action, req.ChargePointId, err))
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (a *CommandAPI) handleConnected(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"connected": a.sessions.Count()})
}
