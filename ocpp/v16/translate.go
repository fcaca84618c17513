package v16

import (
	"csms/ocpp/core"
)

func decodeBootNotification(w BootNotificationRequest) (core.BootNotificationRequest, error) {
	return core.BootNotificationRequest{
		Vendor:          w.ChargePointVendor,
		Model:           w.ChargePointModel,
		SerialNumber:    w.ChargePointSerialNumber,
		FirmwareVersion: w.FirmwareVersion,
	}, nil
}

func encodeBootNotificationResponse(r *core.BootNotificationResponse) (interface{}, error) {
	return BootNotificationResponse{
		CurrentTime: r.CurrentTime,
		Interval:    r.Interval,
		Status:      string(r.Status),
	}, nil
}

func decodeAuthorize(w AuthorizeRequest) (core.AuthorizeRequest, error) {
	return core.AuthorizeRequest{IdTag: w.IdTag}, nil
}

func encodeAuthorizeResponse(r *core.AuthorizeResponse) (interface{}, error) {
	return AuthorizeResponse{IdTagInfo: encodeIdTagInfo(r.IdTagInfo)}, nil
}

func decodeHeartbeat(HeartbeatRequest) (core.HeartbeatRequest, error) {
	return core.HeartbeatRequest{}, nil
}

func encodeHeartbeatResponse(r *core.HeartbeatResponse) (interface{}, error) {
	return HeartbeatResponse{CurrentTime: r.CurrentTime}, nil
}

func decodeStartTransaction(w StartTransactionRequest) (core.StartTransactionRequest, error) {
	return core.StartTransactionRequest{
		ConnectorId:   w.ConnectorId,
		IdTag:         w.IdTag,
		MeterStart:    w.MeterStart,
		Timestamp:     w.Timestamp,
		ReservationId: w.ReservationId,
	}, nil
}

func encodeStartTransactionResponse(r *core.StartTransactionResponse) (interface{}, error) {
	return StartTransactionResponse{
		IdTagInfo:     encodeIdTagInfo(r.IdTagInfo),
		TransactionId: r.TransactionId,
	}, nil
}

func decodeStopTransaction(w StopTransactionRequest) (core.StopTransactionRequest, error) {
	samples := make([]core.MeterSample, 0, len(w.TransactionData))
	for _, mv := range w.TransactionData {
		for _, sv := range mv.SampledValue {
			samples = append(samples, core.MeterSample{Timestamp: mv.Timestamp, Value: sv.Value, Context: sv.Context})
		}
	}
	return core.StopTransactionRequest{
		TransactionId:   w.TransactionId,
		IdTag:           w.IdTag,
		MeterStop:       w.MeterStop,
		Timestamp:       w.Timestamp,
		Reason:          core.TransactionStopReason(w.Reason),
		TransactionData: samples,
	}, nil
}

func encodeStopTransactionResponse(r *core.StopTransactionResponse) (interface{}, error) {
	resp := StopTransactionResponse{}
	if r.IdTagInfo != nil {
		info := encodeIdTagInfo(*r.IdTagInfo)
		resp.IdTagInfo = &info
	}
	return resp, nil
}

func decodeMeterValues(w MeterValuesRequest) (core.MeterValuesRequest, error) {
	samples := make([]core.MeterSample, 0, len(w.MeterValue))
	for _, mv := range w.MeterValue {
		for _, sv := range mv.SampledValue {
			samples = append(samples, core.MeterSample{Timestamp: mv.Timestamp, Value: sv.Value, Context: sv.Context})
		}
	}
	return core.MeterValuesRequest{ConnectorId: w.ConnectorId, TransactionId: w.TransactionId, Values: samples}, nil
}

func encodeMeterValuesResponse(*core.MeterValuesResponse) (interface{}, error) {
	return MeterValuesResponse{}, nil
}

func decodeStatusNotification(w StatusNotificationRequest) (core.StatusNotificationRequest, error) {
	return core.StatusNotificationRequest{
		ConnectorId: w.ConnectorId,
		ErrorCode:   core.ChargePointErrorCode(w.ErrorCode),
		Status:      core.ConnectorStatus(w.Status),
		Info:        w.Info,
		Timestamp:   w.Timestamp,
		VendorId:    w.VendorId,
	}, nil
}

func encodeStatusNotificationResponse(*core.StatusNotificationResponse) (interface{}, error) {
	return StatusNotificationResponse{}, nil
}

func decodeDataTransfer(w DataTransferRequest) (core.DataTransferRequest, error) {
	return core.DataTransferRequest{VendorId: w.VendorId, MessageId: w.MessageId, Data: w.Data}, nil
}

func encodeDataTransferResponse(r *core.DataTransferResponse) (interface{}, error) {
	return DataTransferResponse{Status: string(r.Status), Data: r.Data}, nil
}

func decodeFirmwareStatusNotification(w FirmwareStatusNotificationRequest) (core.FirmwareStatusNotificationRequest, error) {
	return core.FirmwareStatusNotificationRequest{Status: w.Status}, nil
}

func encodeFirmwareStatusNotificationResponse(*core.FirmwareStatusNotificationResponse) (interface{}, error) {
	return FirmwareStatusNotificationResponse{}, nil
}

func decodeDiagnosticsStatusNotification(w DiagnosticsStatusNotificationRequest) (core.DiagnosticsStatusNotificationRequest, error) {
	return core.DiagnosticsStatusNotificationRequest{Status: w.Status}, nil
}

func encodeDiagnosticsStatusNotificationResponse(*core.DiagnosticsStatusNotificationResponse) (interface{}, error) {
	return DiagnosticsStatusNotificationResponse{}, nil
}

func encodeIdTagInfo(info core.IdTagInfo) IdTagInfo {
	return IdTagInfo{
		Status:      string(info.Status),
		ParentIdTag: info.ParentIdTag,
		ExpiryDate:  info.ExpiryDate,
	}
}
