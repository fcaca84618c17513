package core

import "time"

// The types below are the version-agnostic request/response shapes the
// Service operates on. ocpp/v16 and ocpp/v201 translate their own wire
// payloads into and out of these before/after calling into Service, the
// same split the teacher draws between its ocpp/*.go wire structs and
// server/system_handler.go's handling of them.

type IdTagInfo struct {
	Status      AuthorizationStatus
	ExpiryDate  *time.Time
	ParentIdTag string
}

type BootNotificationRequest struct {
	Vendor          string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

type BootNotificationResponse struct {
	CurrentTime time.Time
	Interval    int
	Status      RegistrationStatus
}

type AuthorizeRequest struct {
	IdTag string
}

type AuthorizeResponse struct {
	IdTagInfo IdTagInfo
}

type HeartbeatRequest struct{}

type HeartbeatResponse struct {
	CurrentTime time.Time
}

type StartTransactionRequest struct {
	ConnectorId   int
	IdTag         string
	MeterStart    int
	Timestamp     time.Time
	ReservationId *int
}

type StartTransactionResponse struct {
	IdTagInfo     IdTagInfo
	TransactionId int
}

type MeterSample struct {
	Timestamp time.Time
	Value     string
	Context   string
}

type StopTransactionRequest struct {
	TransactionId int
	IdTag         string
	MeterStop     int
	Timestamp     time.Time
	Reason        TransactionStopReason
	TransactionData []MeterSample
}

type StopTransactionResponse struct {
	IdTagInfo *IdTagInfo
}

type MeterValuesRequest struct {
	ConnectorId   int
	TransactionId *int
	Values        []MeterSample
}

type MeterValuesResponse struct{}

type StatusNotificationRequest struct {
	ConnectorId int
	ErrorCode   ChargePointErrorCode
	Status      ConnectorStatus
	Info        string
	Timestamp   time.Time
	VendorId    string
}

type StatusNotificationResponse struct{}

type DataTransferStatus string

const (
	DataTransferAccepted         DataTransferStatus = "Accepted"
	DataTransferRejected         DataTransferStatus = "Rejected"
	DataTransferUnknownMessageId DataTransferStatus = "UnknownMessageId"
	DataTransferUnknownVendorId  DataTransferStatus = "UnknownVendorId"
)

type DataTransferRequest struct {
	VendorId  string
	MessageId string
	Data      interface{}
}

type DataTransferResponse struct {
	Status DataTransferStatus
	Data   interface{}
}

type FirmwareStatusNotificationRequest struct {
	Status string
}

type FirmwareStatusNotificationResponse struct{}

type DiagnosticsStatusNotificationRequest struct {
	Status string
}

type DiagnosticsStatusNotificationResponse struct{}

// Command is an outbound CS->CP request, opaque to ocpp/dispatch and only
// given meaning by the version encoder that turns it into wire JSON.
type Command struct {
	Action  string
	Payload interface{}
}
