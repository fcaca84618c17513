// Package wsapi implements the transport layer: the websocket upgrade
// endpoint that turns an HTTP request into an internal/session.Connection,
// and a thin operator HTTP command boundary in front of ocpp/dispatch.
// Grounded on the teacher's server.Server (subprotocol negotiation +
// upgrade handler + messageReader) and server.Api (a single POST
// endpoint decoding a JSON command and forwarding it to a request
// handler function).
package wsapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"csms/internal/metrics"
	"csms/internal/session"
	"csms/ocpp/adapter"
	"csms/ocpp/core"
	"csms/ocpp/frame"
	"csms/ports"
)

const wsEndpoint = "/:id"

// rawLogger is the ambient logging surface this package needs beyond
// core.Logger: it also records raw inbound/outbound frame bytes when
// debug mode is enabled, matching the teacher's RawDataEvent calls.
type rawLogger interface {
	core.Logger
	RawDataEvent(direction, data string)
}

// ResultResolver is implemented by ocpp/dispatch.Dispatcher: the piece
// of the outbound path that needs to see CALLRESULT/CALLERROR frames
// as they arrive on a session's read loop.
type ResultResolver interface {
	ResolveResult(chargePointId, version, uniqueId string, payload []byte)
	ResolveError(chargePointId, uniqueId, errorCode, errorDescription string)
	CancelSession(chargePointId string)
}

// ConnectivitySetter is the narrow slice of *core.Service the transport
// layer needs to report physical socket presence, independent of any
// protocol-level status the charge point itself reports.
type ConnectivitySetter interface {
	SetConnectivity(ctx context.Context, chargePointId string, state ports.Connectivity)
}

// Server upgrades incoming HTTP requests to OCPP-J websocket sessions.
type Server struct {
	sessions           *session.Registry
	adapters           *adapter.Registry
	dispatcher         ResultResolver
	connectivity       ConnectivitySetter
	logger             rawLogger
	upgrader           websocket.Upgrader
	maxFrameBytes      int
	outboundQueueDepth int
}

func NewServer(sessions *session.Registry, adapters *adapter.Registry, dispatcher ResultResolver, connectivity ConnectivitySetter, logger rawLogger, maxFrameBytes int) *Server {
	return &Server{
		sessions:      sessions,
		adapters:      adapters,
		dispatcher:    dispatcher,
		connectivity:  connectivity,
		logger:        logger,
		maxFrameBytes: maxFrameBytes,
		upgrader: websocket.Upgrader{
			Subprotocols: adapters.Supported(),
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}
}

// WithOutboundQueueDepth overrides the outbound queue depth every new
// Connection is constructed with, matching the configurable
// outbound_queue_capacity setting.
func (s *Server) WithOutboundQueueDepth(depth int) *Server {
	s.outboundQueueDepth = depth
	return s
}

// Register wires the upgrade endpoint onto router.
func (s *Server) Register(router *httprouter.Router) {
	router.GET(wsEndpoint, s.handleUpgrade)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	chargePointId := params.ByName("id")
	s.logger.Debug(fmt.Sprintf("connection initiated from %s for %s", r.RemoteAddr, chargePointId))

	requested := websocket.Subprotocols(r)
	negotiated := s.adapters.Best(requested)
	bundle, ok := s.adapters.Select(negotiated)
	if !ok {
		s.logger.Warn(fmt.Sprintf("rejecting %s: no supported subprotocol among %v", chargePointId, requested))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	responseHeader := http.Header{}
	if negotiated != "" {
		responseHeader.Set("Sec-WebSocket-Protocol", negotiated)
	}
	rawConn, err := s.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		s.logger.Error("upgrade failed", err)
		return
	}

	var conn *session.Connection
	conn = session.NewConnection(chargePointId, session.Version(bundle.Version), rawConn, func(id string) {
		s.sessions.Unregister(id, conn)
		s.dispatcher.CancelSession(id)
		s.connectivity.SetConnectivity(context.Background(), id, ports.ConnectivityOffline)
	}, session.WithOutboundQueueDepth(s.outboundQueueDepth))

	outcome, old := s.sessions.Register(chargePointId, conn)
	switch outcome {
	case session.Debounced:
		s.logger.Warn(fmt.Sprintf("rejecting %s: reconnected too soon", chargePointId))
		conn.Close()
		return
	case session.Replaced:
		s.logger.Warn(fmt.Sprintf("replacing existing session for %s", chargePointId))
		old.Close()
	}
	s.connectivity.SetConnectivity(r.Context(), chargePointId, ports.ConnectivityOnline)

	s.logger.Debug(fmt.Sprintf("upgraded socket for %s using %s", chargePointId, bundle.Version))
	go conn.ReadLoop(func(data []byte) {
		s.handleFrame(chargePointId, bundle, conn, data)
	})
}

func (s *Server) handleFrame(chargePointId string, bundle adapter.Bundle, conn *session.Connection, data []byte) {
	s.logger.RawDataEvent("IN", string(data))

	f, err := frame.Decode(data, s.maxFrameBytes)
	if err != nil {
		s.logger.Error(fmt.Sprintf("decoding frame from %s", chargePointId), err)
		uniqueId, ok := frame.ExtractUniqueId(data)
		if !ok {
			s.logger.Warn(fmt.Sprintf("closing %s: malformed frame with no recoverable uniqueId", chargePointId))
			conn.Close()
			return
		}
		metrics.CountInboundError("FormationViolation")
		out := frame.NewCallError(uniqueId, "FormationViolation", err.Error(), nil)
		reply, encErr := out.Encode()
		if encErr != nil {
			s.logger.Error("encoding FormationViolation reply", encErr)
			return
		}
		s.logger.RawDataEvent("OUT", string(reply))
		if sendErr := conn.Send(reply); sendErr != nil {
			s.logger.Error(fmt.Sprintf("sending FormationViolation to %s", chargePointId), sendErr)
		}
		return
	}

	switch f.Type {
	case frame.TypeCall:
		s.handleCall(chargePointId, bundle, conn, f)
	case frame.TypeCallResult:
		s.dispatcher.ResolveResult(chargePointId, bundle.Version, f.UniqueId, f.Payload)
	case frame.TypeCallError:
		s.dispatcher.ResolveError(chargePointId, f.UniqueId, f.ErrorCode, f.ErrorDescription)
	}
}

func (s *Server) handleCall(chargePointId string, bundle adapter.Bundle, conn *session.Connection, f frame.Frame) {
	respPayload, err := bundle.Handlers.Handle(context.Background(), chargePointId, f.Action, f.Payload)

	var out frame.Frame
	if err != nil {
		code, description := "InternalError", err.Error()
		if codeErr, ok := err.(core.CodeError); ok {
			code = codeErr.Code()
		}
		metrics.CountInboundError(code)
		out = frame.NewCallError(f.UniqueId, code, description, nil)
	} else {
		out = frame.NewCallResult(f.UniqueId, respPayload)
	}

	data, err := out.Encode()
	if err != nil {
		s.logger.Error("encoding response", err)
		return
	}
	s.logger.RawDataEvent("OUT", string(data))
	if err := conn.Send(data); err != nil {
		s.logger.Error(fmt.Sprintf("sending response to %s", chargePointId), err)
	}
}
