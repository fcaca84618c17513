// Package v201 implements the OCPP 2.0.1 wire dialect. Naming follows the
// 2.0.1 spec's own vocabulary (TransactionEvent replaces Start/StopTransaction,
// RequestStartTransaction/RequestStopTransaction replace the 1.6
// RemoteStart/StopTransaction actions) grounded on the pack's own 2.0.1
// adapter conventions.
package v201

import "time"

type IdTokenType struct {
	IdToken string `json:"idToken" validate:"required,max=36"`
	Type    string `json:"type" validate:"required"`
}

type IdTokenInfo struct {
	Status AuthorizationStatus `json:"status" validate:"required"`
}

type AuthorizationStatus string

type BootNotificationRequest struct {
	Reason       string `json:"reason" validate:"required"`
	ChargingStation struct {
		Model        string `json:"model" validate:"required,max=20"`
		VendorName   string `json:"vendorName" validate:"required,max=50"`
		SerialNumber string `json:"serialNumber,omitempty"`
		FirmwareVersion string `json:"firmwareVersion,omitempty"`
	} `json:"chargingStation" validate:"required"`
}

type BootNotificationResponse struct {
	CurrentTime time.Time `json:"currentTime"`
	Interval    int       `json:"interval"`
	Status      string    `json:"status"`
}

type AuthorizeRequest struct {
	IdToken IdTokenType `json:"idToken" validate:"required"`
}

type AuthorizeResponse struct {
	IdTokenInfo IdTokenInfo `json:"idTokenInfo" validate:"required"`
}

type HeartbeatRequest struct{}

type HeartbeatResponse struct {
	CurrentTime time.Time `json:"currentTime"`
}

type MeterValue struct {
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	SampledValue []struct {
		Value     float64 `json:"value"`
		Context   string  `json:"context,omitempty"`
		Measurand string  `json:"measurand,omitempty"`
	} `json:"sampledValue" validate:"required,min=1,dive"`
}

// TransactionEventRequest folds 1.6's StartTransaction/StopTransaction/
// MeterValues into 2.0.1's single event action, discriminated by EventType.
type TransactionEventRequest struct {
	EventType   string    `json:"eventType" validate:"required,oneof=Started Updated Ended"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	TriggerReason string  `json:"triggerReason" validate:"required"`
	SeqNo       int       `json:"seqNo"`
	Transaction struct {
		TransactionId string `json:"transactionId"`
	} `json:"transactionInfo" validate:"required"`
	EVSE *struct {
		Id          int `json:"id"`
		ConnectorId int `json:"connectorId,omitempty"`
	} `json:"evse,omitempty"`
	IdToken     *IdTokenType `json:"idToken,omitempty"`
	MeterValue  []MeterValue `json:"meterValue,omitempty"`
	StoppedReason string     `json:"stoppedReason,omitempty"`
}

type TransactionEventResponse struct {
	IdTokenInfo *IdTokenInfo `json:"idTokenInfo,omitempty"`
}

type StatusNotificationRequest struct {
	Timestamp     time.Time `json:"timestamp" validate:"required"`
	ConnectorStatus string  `json:"connectorStatus" validate:"required"`
	EvseId        int       `json:"evseId" validate:"gte=0"`
	ConnectorId   int       `json:"connectorId" validate:"gte=0"`
}

type StatusNotificationResponse struct{}

type DataTransferRequest struct {
	VendorId  string      `json:"vendorId" validate:"required,max=255"`
	MessageId string      `json:"messageId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type DataTransferResponse struct {
	Status string      `json:"status" validate:"required"`
	Data   interface{} `json:"data,omitempty"`
}

type FirmwareStatusNotificationRequest struct {
	Status string `json:"status" validate:"required"`
}

type FirmwareStatusNotificationResponse struct{}

type DiagnosticsStatusNotificationRequest struct {
	Status string `json:"status" validate:"required"`
}

type DiagnosticsStatusNotificationResponse struct{}
