package v16

import (
	"context"
	"encoding/json"
	"fmt"

	"csms/ocpp/core"
)

// HandlerSet implements ocpp/adapter.HandlerSet for OCPP 1.6J, translating
// wire payloads to and from the shared core.Service.
type HandlerSet struct {
	Service *core.Service
}

func NewHandlerSet(service *core.Service) *HandlerSet {
	return &HandlerSet{Service: service}
}

func (h *HandlerSet) Handle(ctx context.Context, chargePointId, action string, payload json.RawMessage) (json.RawMessage, error) {
	switch action {
	case "BootNotification":
		return handle(ctx, chargePointId, payload, decodeBootNotification, h.Service.OnBootNotification, encodeBootNotificationResponse)
	case "Authorize":
		return handle(ctx, chargePointId, payload, decodeAuthorize, h.Service.OnAuthorize, encodeAuthorizeResponse)
	case "Heartbeat":
		return handle(ctx, chargePointId, payload, decodeHeartbeat, h.Service.OnHeartbeat, encodeHeartbeatResponse)
	case "StartTransaction":
		return handle(ctx, chargePointId, payload, decodeStartTransaction, h.Service.OnStartTransaction, encodeStartTransactionResponse)
	case "StopTransaction":
		return handle(ctx, chargePointId, payload, decodeStopTransaction, h.Service.OnStopTransaction, encodeStopTransactionResponse)
	case "MeterValues":
		return handle(ctx, chargePointId, payload, decodeMeterValues, h.Service.OnMeterValues, encodeMeterValuesResponse)
	case "StatusNotification":
		return handle(ctx, chargePointId, payload, decodeStatusNotification, h.Service.OnStatusNotification, encodeStatusNotificationResponse)
	case "DataTransfer":
		return handle(ctx, chargePointId, payload, decodeDataTransfer, h.Service.OnDataTransfer, encodeDataTransferResponse)
	case "FirmwareStatusNotification":
		return handle(ctx, chargePointId, payload, decodeFirmwareStatusNotification, h.Service.OnFirmwareStatusNotification, encodeFirmwareStatusNotificationResponse)
	case "DiagnosticsStatusNotification":
		return handle(ctx, chargePointId, payload, decodeDiagnosticsStatusNotification, h.Service.OnDiagnosticsStatusNotification, encodeDiagnosticsStatusNotificationResponse)
	default:
		return nil, &core.UnknownActionError{Action: action}
	}
}

// handle is the generic decode -> domain call -> encode pipeline every
// action follows; it exists so each action above is a one-liner instead of
// repeating unmarshal/validate/marshal boilerplate ten times.
func handle[Wire any, Domain any, Resp any](
	ctx context.Context,
	chargePointId string,
	payload json.RawMessage,
	decode func(Wire) (Domain, error),
	call func(context.Context, string, Domain) (*Resp, error),
	encode func(*Resp) (interface{}, error),
) (json.RawMessage, error) {
	var wire Wire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, &core.DecodeError{Reason: err.Error()}
	}
	if err := validate.Struct(wire); err != nil {
		return nil, &core.SchemaError{Reason: err.Error()}
	}
	domainReq, err := decode(wire)
	if err != nil {
		return nil, &core.SchemaError{Reason: err.Error()}
	}
	resp, err := call(ctx, chargePointId, domainReq)
	if err != nil {
		return nil, err
	}
	wireResp, err := encode(resp)
	if err != nil {
		return nil, &core.InternalError{Cause: err}
	}
	out, err := json.Marshal(wireResp)
	if err != nil {
		return nil, &core.InternalError{Cause: fmt.Errorf("encode response: %w", err)}
	}
	return out, nil
}
