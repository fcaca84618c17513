// Package ports declares the persistent entities and repository interfaces
// the OCPP core depends on. Nothing in here talks to a database directly.
package ports

import "time"

// Connectivity tracks whether a charge point currently has a live session,
// distinct from a Connector's OCPP status.
type Connectivity string

const (
	ConnectivityUnknown Connectivity = "Unknown"
	ConnectivityOnline  Connectivity = "Online"
	ConnectivityOffline Connectivity = "Offline"
)

type ChargePoint struct {
	Id              string       `json:"charge_point_id" bson:"charge_point_id"`
	IsEnabled       bool         `json:"is_enabled" bson:"is_enabled"`
	Vendor          string       `json:"vendor" bson:"vendor"`
	Model           string       `json:"model" bson:"model"`
	SerialNumber    string       `json:"serial_number" bson:"serial_number"`
	FirmwareVersion string       `json:"firmware_version" bson:"firmware_version"`
	Status          string       `json:"status" bson:"status"`
	ErrorCode       string       `json:"error_code" bson:"error_code"`
	Connectivity    Connectivity `json:"connectivity" bson:"connectivity"`
	OcppVersion     string       `json:"ocpp_version" bson:"ocpp_version"`
}

type Connector struct {
	Id                   int    `json:"connector_id" bson:"connector_id"`
	ChargePointId        string `json:"charge_point_id" bson:"charge_point_id"`
	IsEnabled            bool   `json:"is_enabled" bson:"is_enabled"`
	Status               string `json:"status" bson:"status"`
	ErrorCode            string `json:"error_code" bson:"error_code"`
	Info                 string `json:"info" bson:"info"`
	VendorId             string `json:"vendor_id" bson:"vendor_id"`
	CurrentTransactionId int    `json:"current_transaction_id" bson:"current_transaction_id"`
}

// NewConnector mirrors the teacher's lazily-created connector row: unknown
// connectors are Available with no active transaction until proven otherwise.
func NewConnector(id int, chargePointId string) *Connector {
	return &Connector{
		Id:                   id,
		ChargePointId:        chargePointId,
		IsEnabled:            true,
		Status:               "Available",
		CurrentTransactionId: -1,
	}
}

type Transaction struct {
	Id            int       `json:"transaction_id" bson:"transaction_id"`
	IsFinished    bool      `json:"is_finished" bson:"is_finished"`
	ConnectorId   int       `json:"connector_id" bson:"connector_id"`
	ChargePointId string    `json:"charge_point_id" bson:"charge_point_id"`
	IdTag         string    `json:"id_tag" bson:"id_tag"`
	ReservationId *int      `json:"reservation_id,omitempty" bson:"reservation_id"`
	MeterStart    int       `json:"meter_start" bson:"meter_start"`
	MeterStop     int       `json:"meter_stop" bson:"meter_stop"`
	TimeStart     time.Time `json:"time_start" bson:"time_start"`
	TimeStop      time.Time `json:"time_stop" bson:"time_stop"`
	Reason        string    `json:"reason" bson:"reason"`
	Username      string    `json:"username" bson:"username"`
}

type IdTag struct {
	IdTag          string     `json:"id_tag" bson:"id_tag"`
	Username       string     `json:"username" bson:"username"`
	ParentIdTag    string     `json:"parent_id_tag" bson:"parent_id_tag"`
	IsEnabled      bool       `json:"is_enabled" bson:"is_enabled"`
	// Status holds an explicitly stored non-Accepted authorization status
	// (e.g. "Blocked", "ConcurrentTx"), empty meaning Accepted. Expiry
	// and IsEnabled are still checked first, matching the original
	// id-tag model's get_auth_status precedence.
	Status         string     `json:"status" bson:"status"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty" bson:"expiry_date"`
	Note           string     `json:"note" bson:"note"`
	DateRegistered time.Time  `json:"date_registered" bson:"date_registered"`
	LastSeen       time.Time  `json:"last_seen" bson:"last_seen"`
}
