// Package v16 implements the OCPP 1.6J wire dialect: JSON payload shapes
// and their translation to/from the version-agnostic ocpp/core domain
// types. Field names and validation tags are grounded on the teacher's
// ocpp/*.go message definitions.
package v16

import "time"

type IdTagInfo struct {
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	ParentIdTag string     `json:"parentIdTag,omitempty" validate:"omitempty,max=20"`
	Status      string     `json:"status" validate:"required,oneof=Accepted Blocked Expired Invalid ConcurrentTx"`
}

type BootNotificationRequest struct {
	ChargePointVendor       string `json:"chargePointVendor" validate:"required,max=20"`
	ChargePointModel        string `json:"chargePointModel" validate:"required,max=20"`
	ChargePointSerialNumber string `json:"chargePointSerialNumber,omitempty" validate:"max=25"`
	FirmwareVersion         string `json:"firmwareVersion,omitempty" validate:"max=50"`
}

type BootNotificationResponse struct {
	CurrentTime time.Time `json:"currentTime"`
	Interval    int       `json:"interval"`
	Status      string    `json:"status"`
}

type AuthorizeRequest struct {
	IdTag string `json:"idTag" validate:"required,max=20"`
}

type AuthorizeResponse struct {
	IdTagInfo IdTagInfo `json:"idTagInfo" validate:"required"`
}

type HeartbeatRequest struct{}

type HeartbeatResponse struct {
	CurrentTime time.Time `json:"currentTime"`
}

type StartTransactionRequest struct {
	ConnectorId   int       `json:"connectorId" validate:"required,gt=0"`
	IdTag         string    `json:"idTag" validate:"required,max=20"`
	MeterStart    int       `json:"meterStart"`
	Timestamp     time.Time `json:"timestamp" validate:"required"`
	ReservationId *int      `json:"reservationId,omitempty"`
}

type StartTransactionResponse struct {
	IdTagInfo     IdTagInfo `json:"idTagInfo" validate:"required"`
	TransactionId int       `json:"transactionId"`
}

type SampledValue struct {
	Value     string `json:"value" validate:"required"`
	Context   string `json:"context,omitempty"`
	Format    string `json:"format,omitempty"`
	Measurand string `json:"measurand,omitempty"`
	Unit      string `json:"unit,omitempty"`
}

type MeterValue struct {
	Timestamp    time.Time      `json:"timestamp" validate:"required"`
	SampledValue []SampledValue `json:"sampledValue" validate:"required,min=1,dive"`
}

type StopTransactionRequest struct {
	TransactionId   int          `json:"transactionId" validate:"required"`
	IdTag           string       `json:"idTag,omitempty" validate:"omitempty,max=20"`
	MeterStop       int          `json:"meterStop"`
	Timestamp       time.Time    `json:"timestamp" validate:"required"`
	Reason          string       `json:"reason,omitempty"`
	TransactionData []MeterValue `json:"transactionData,omitempty"`
}

type StopTransactionResponse struct {
	IdTagInfo *IdTagInfo `json:"idTagInfo,omitempty"`
}

type MeterValuesRequest struct {
	ConnectorId   int          `json:"connectorId" validate:"gte=0"`
	TransactionId *int         `json:"transactionId,omitempty"`
	MeterValue    []MeterValue `json:"meterValue" validate:"required,dive"`
}

type MeterValuesResponse struct{}

type StatusNotificationRequest struct {
	ConnectorId int       `json:"connectorId" validate:"gte=0"`
	ErrorCode   string    `json:"errorCode" validate:"required"`
	Info        string    `json:"info,omitempty" validate:"max=50"`
	Status      string    `json:"status" validate:"required"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	VendorId    string    `json:"vendorId,omitempty" validate:"max=255"`
}

type StatusNotificationResponse struct{}

type DataTransferRequest struct {
	VendorId  string      `json:"vendorId" validate:"required,max=255"`
	MessageId string      `json:"messageId,omitempty" validate:"max=50"`
	Data      interface{} `json:"data,omitempty"`
}

type DataTransferResponse struct {
	Status string      `json:"status" validate:"required"`
	Data   interface{} `json:"data,omitempty"`
}

type FirmwareStatusNotificationRequest struct {
	Status string `json:"status" validate:"required,oneof=Downloaded DownloadFailed Downloading Idle InstallationFailed Installing Installed"`
}

type FirmwareStatusNotificationResponse struct{}

type DiagnosticsStatusNotificationRequest struct {
	Status string `json:"status" validate:"required,oneof=Idle Uploaded UploadFailed Uploading"`
}

type DiagnosticsStatusNotificationResponse struct{}
