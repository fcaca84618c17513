package v201

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"csms/ocpp/core"
)

var validate = validator.New()

// HandlerSet implements ocpp/adapter.HandlerSet for OCPP 2.0.1. It
// translates the wire payloads to and from the same core.Service that
// serves 1.6, bridging 2.0.1's charge-point-assigned string transaction
// ids to the core's central-system-assigned integer ids.
type HandlerSet struct {
	Service *core.Service

	mu        sync.Mutex
	txIdByCp  map[string]int // "chargePointId/cpTransactionId" -> core transaction id
}

func NewHandlerSet(service *core.Service) *HandlerSet {
	return &HandlerSet{Service: service, txIdByCp: make(map[string]int)}
}

func (h *HandlerSet) Handle(ctx context.Context, chargePointId, action string, payload json.RawMessage) (json.RawMessage, error) {
	switch action {
	case "BootNotification":
		var wire BootNotificationRequest
		if err := decodeAndValidate(payload, &wire); err != nil {
			return nil, err
		}
		resp, err := h.Service.OnBootNotification(ctx, chargePointId, core.BootNotificationRequest{
			Vendor:          wire.ChargingStation.VendorName,
			Model:           wire.ChargingStation.Model,
			SerialNumber:    wire.ChargingStation.SerialNumber,
			FirmwareVersion: wire.ChargingStation.FirmwareVersion,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(BootNotificationResponse{CurrentTime: resp.CurrentTime, Interval: resp.Interval, Status: string(resp.Status)})

	case "Authorize":
		var wire AuthorizeRequest
		if err := decodeAndValidate(payload, &wire); err != nil {
			return nil, err
		}
		resp, err := h.Service.OnAuthorize(ctx, chargePointId, core.AuthorizeRequest{IdTag: wire.IdToken.IdToken})
		if err != nil {
			return nil, err
		}
		return json.Marshal(AuthorizeResponse{IdTokenInfo: IdTokenInfo{Status: AuthorizationStatus(resp.IdTagInfo.Status)}})

	case "Heartbeat":
		resp, err := h.Service.OnHeartbeat(ctx, chargePointId, core.HeartbeatRequest{})
		if err != nil {
			return nil, err
		}
		return json.Marshal(HeartbeatResponse{CurrentTime: resp.CurrentTime})

	case "StatusNotification":
		var wire StatusNotificationRequest
		if err := decodeAndValidate(payload, &wire); err != nil {
			return nil, err
		}
		connectorId := wire.EvseId
		if wire.ConnectorId > 0 {
			connectorId = wire.ConnectorId
		}
		_, err := h.Service.OnStatusNotification(ctx, chargePointId, core.StatusNotificationRequest{
			ConnectorId: connectorId,
			Status:      core.ConnectorStatus(wire.ConnectorStatus),
			Timestamp:   wire.Timestamp,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(StatusNotificationResponse{})

	case "TransactionEvent":
		return h.handleTransactionEvent(ctx, chargePointId, payload)

	case "DataTransfer":
		var wire DataTransferRequest
		if err := decodeAndValidate(payload, &wire); err != nil {
			return nil, err
		}
		resp, err := h.Service.OnDataTransfer(ctx, chargePointId, core.DataTransferRequest{VendorId: wire.VendorId, MessageId: wire.MessageId, Data: wire.Data})
		if err != nil {
			return nil, err
		}
		return json.Marshal(DataTransferResponse{Status: string(resp.Status), Data: resp.Data})

	case "FirmwareStatusNotification":
		var wire FirmwareStatusNotificationRequest
		if err := decodeAndValidate(payload, &wire); err != nil {
			return nil, err
		}
		if _, err := h.Service.OnFirmwareStatusNotification(ctx, chargePointId, core.FirmwareStatusNotificationRequest{Status: wire.Status}); err != nil {
			return nil, err
		}
		return json.Marshal(FirmwareStatusNotificationResponse{})

	case "DiagnosticsStatusNotification":
		var wire DiagnosticsStatusNotificationRequest
		if err := decodeAndValidate(payload, &wire); err != nil {
			return nil, err
		}
		if _, err := h.Service.OnDiagnosticsStatusNotification(ctx, chargePointId, core.DiagnosticsStatusNotificationRequest{Status: wire.Status}); err != nil {
			return nil, err
		}
		return json.Marshal(DiagnosticsStatusNotificationResponse{})

	default:
		return nil, &core.UnknownActionError{Action: action}
	}
}

func (h *HandlerSet) handleTransactionEvent(ctx context.Context, chargePointId string, payload json.RawMessage) (json.RawMessage, error) {
	var wire TransactionEventRequest
	if err := decodeAndValidate(payload, &wire); err != nil {
		return nil, err
	}

	connectorId := 1
	if wire.EVSE != nil && wire.EVSE.ConnectorId > 0 {
		connectorId = wire.EVSE.ConnectorId
	}
	key := chargePointId + "/" + wire.Transaction.TransactionId

	switch wire.EventType {
	case "Started":
		idTag := ""
		if wire.IdToken != nil {
			idTag = wire.IdToken.IdToken
		}
		resp, err := h.Service.OnStartTransaction(ctx, chargePointId, core.StartTransactionRequest{
			ConnectorId: connectorId,
			IdTag:       idTag,
			Timestamp:   wire.Timestamp,
		})
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.txIdByCp[key] = resp.TransactionId
		h.mu.Unlock()
		return json.Marshal(TransactionEventResponse{IdTokenInfo: &IdTokenInfo{Status: AuthorizationStatus(resp.IdTagInfo.Status)}})

	case "Updated":
		samples := flattenMeterValues(wire.MeterValue)
		h.mu.Lock()
		coreTxId, known := h.txIdByCp[key]
		h.mu.Unlock()
		if known {
			txId := coreTxId
			_, err := h.Service.OnMeterValues(ctx, chargePointId, core.MeterValuesRequest{ConnectorId: connectorId, TransactionId: &txId, Values: samples})
			if err != nil {
				return nil, err
			}
		}
		return json.Marshal(TransactionEventResponse{})

	case "Ended":
		h.mu.Lock()
		coreTxId, known := h.txIdByCp[key]
		delete(h.txIdByCp, key)
		h.mu.Unlock()
		if !known {
			return nil, &core.ProtocolError{Reason: fmt.Sprintf("Ended event for unknown transaction %s", wire.Transaction.TransactionId)}
		}
		meterStop := 0
		if samples := flattenMeterValues(wire.MeterValue); len(samples) > 0 {
			fmt.Sscanf(samples[len(samples)-1].Value, "%d", &meterStop)
		}
		_, err := h.Service.OnStopTransaction(ctx, chargePointId, core.StopTransactionRequest{
			TransactionId: coreTxId,
			MeterStop:     meterStop,
			Timestamp:     wire.Timestamp,
			Reason:        core.TransactionStopReason(wire.StoppedReason),
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(TransactionEventResponse{})

	default:
		return nil, &core.SchemaError{Reason: fmt.Sprintf("unknown eventType %q", wire.EventType)}
	}
}

func flattenMeterValues(values []MeterValue) []core.MeterSample {
	samples := make([]core.MeterSample, 0, len(values))
	for _, mv := range values {
		for _, sv := range mv.SampledValue {
			samples = append(samples, core.MeterSample{Timestamp: mv.Timestamp, Value: fmt.Sprintf("%v", sv.Value)})
		}
	}
	return samples
}

func decodeAndValidate(payload json.RawMessage, wire interface{}) error {
	if err := json.Unmarshal(payload, wire); err != nil {
		return &core.DecodeError{Reason: err.Error()}
	}
	if err := validate.Struct(wire); err != nil {
		return &core.SchemaError{Reason: err.Error()}
	}
	return nil
}
