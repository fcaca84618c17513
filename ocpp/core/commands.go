package core

// Outbound command actions (component F targets). The payload shapes below
// are version-agnostic; ocpp/v16 and ocpp/v201 CommandEncoders translate
// them into their own wire JSON.

const (
	ActionRemoteStartTransaction = "RemoteStartTransaction"
	ActionRemoteStopTransaction  = "RemoteStopTransaction"
	ActionReset                  = "Reset"
	ActionChangeConfiguration    = "ChangeConfiguration"
	ActionGetConfiguration       = "GetConfiguration"
	ActionTriggerMessage         = "TriggerMessage"
	ActionSendLocalList          = "SendLocalList"
	ActionGetLocalListVersion    = "GetLocalListVersion"
	ActionSetChargingProfile     = "SetChargingProfile"
	ActionClearChargingProfile   = "ClearChargingProfile"
	ActionGetCompositeSchedule   = "GetCompositeSchedule"
	ActionGetDiagnostics         = "GetDiagnostics"
	ActionUpdateFirmware         = "UpdateFirmware"
	ActionClearCache             = "ClearCache"
	ActionReserveNow             = "ReserveNow"
	ActionCancelReservation      = "CancelReservation"
	ActionUnlockConnector        = "UnlockConnector"
)

type ResetType string

const (
	ResetHard ResetType = "Hard"
	ResetSoft ResetType = "Soft"
)

type MessageTrigger string

const (
	TriggerBootNotification      MessageTrigger = "BootNotification"
	TriggerHeartbeat             MessageTrigger = "Heartbeat"
	TriggerMeterValues           MessageTrigger = "MeterValues"
	TriggerStatusNotification    MessageTrigger = "StatusNotification"
	TriggerDiagnosticsStatus     MessageTrigger = "DiagnosticsStatusNotification"
	TriggerFirmwareStatus        MessageTrigger = "FirmwareStatusNotification"
)

type RemoteStartTransactionPayload struct {
	ConnectorId *int   `json:"connectorId,omitempty"`
	IdTag       string `json:"idTag"`
}

type RemoteStopTransactionPayload struct {
	TransactionId int `json:"transactionId"`
}

type ResetPayload struct {
	Type ResetType `json:"type"`
}

type ChangeConfigurationPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type GetConfigurationPayload struct {
	Key []string `json:"key,omitempty"`
}

type TriggerMessagePayload struct {
	RequestedMessage MessageTrigger `json:"requestedMessage"`
	ConnectorId      *int           `json:"connectorId,omitempty"`
}

type GetDiagnosticsPayload struct {
	Location  string `json:"location"`
	Retries   *int   `json:"retries,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	StopTime  *string `json:"stopTime,omitempty"`
}

type UpdateFirmwarePayload struct {
	Location      string `json:"location"`
	RetrieveDate  string `json:"retrieveDate"`
	Retries       *int   `json:"retries,omitempty"`
}

type SendLocalListPayload struct {
	ListVersion     int    `json:"listVersion"`
	UpdateType      string `json:"updateType"`
	LocalAuthorList []LocalAuthListEntry `json:"localAuthorizationList,omitempty"`
}

type LocalAuthListEntry struct {
	IdTag     string    `json:"idTag"`
	IdTagInfo IdTagInfo `json:"idTagInfo"`
}

type SetChargingProfilePayload struct {
	ConnectorId     int         `json:"connectorId"`
	ChargingProfile interface{} `json:"csChargingProfiles"`
}

type ClearChargingProfilePayload struct {
	ConnectorId *int `json:"connectorId,omitempty"`
}

type GetCompositeSchedulePayload struct {
	ConnectorId int  `json:"connectorId"`
	Duration    int  `json:"duration"`
}

type ReserveNowPayload struct {
	ConnectorId   int    `json:"connectorId"`
	IdTag         string `json:"idTag"`
	ReservationId int    `json:"reservationId"`
	ExpiryDate    string `json:"expiryDate"`
}

type CancelReservationPayload struct {
	ReservationId int `json:"reservationId"`
}

func NewRemoteStartTransaction(connectorId *int, idTag string) Command {
	return Command{Action: ActionRemoteStartTransaction, Payload: RemoteStartTransactionPayload{ConnectorId: connectorId, IdTag: idTag}}
}

func NewRemoteStopTransaction(transactionId int) Command {
	return Command{Action: ActionRemoteStopTransaction, Payload: RemoteStopTransactionPayload{TransactionId: transactionId}}
}

func NewReset(resetType ResetType) Command {
	return Command{Action: ActionReset, Payload: ResetPayload{Type: resetType}}
}

func NewChangeConfiguration(key, value string) Command {
	return Command{Action: ActionChangeConfiguration, Payload: ChangeConfigurationPayload{Key: key, Value: value}}
}

func NewGetConfiguration(keys []string) Command {
	return Command{Action: ActionGetConfiguration, Payload: GetConfigurationPayload{Key: keys}}
}

func NewTriggerMessage(trigger MessageTrigger, connectorId *int) Command {
	return Command{Action: ActionTriggerMessage, Payload: TriggerMessagePayload{RequestedMessage: trigger, ConnectorId: connectorId}}
}

func NewGetDiagnostics(location string) Command {
	return Command{Action: ActionGetDiagnostics, Payload: GetDiagnosticsPayload{Location: location}}
}

func NewUpdateFirmware(location, retrieveDate string) Command {
	return Command{Action: ActionUpdateFirmware, Payload: UpdateFirmwarePayload{Location: location, RetrieveDate: retrieveDate}}
}

func NewSendLocalList(listVersion int, updateType string, entries []LocalAuthListEntry) Command {
	return Command{Action: ActionSendLocalList, Payload: SendLocalListPayload{ListVersion: listVersion, UpdateType: updateType, LocalAuthorList: entries}}
}

func NewGetLocalListVersion() Command {
	return Command{Action: ActionGetLocalListVersion, Payload: struct{}{}}
}

func NewSetChargingProfile(connectorId int, profile interface{}) Command {
	return Command{Action: ActionSetChargingProfile, Payload: SetChargingProfilePayload{ConnectorId: connectorId, ChargingProfile: profile}}
}

func NewClearChargingProfile(connectorId *int) Command {
	return Command{Action: ActionClearChargingProfile, Payload: ClearChargingProfilePayload{ConnectorId: connectorId}}
}

func NewGetCompositeSchedule(connectorId, duration int) Command {
	return Command{Action: ActionGetCompositeSchedule, Payload: GetCompositeSchedulePayload{ConnectorId: connectorId, Duration: duration}}
}

func NewClearCache() Command {
	return Command{Action: ActionClearCache, Payload: struct{}{}}
}

func NewReserveNow(connectorId int, idTag string, reservationId int, expiryDate string) Command {
	return Command{Action: ActionReserveNow, Payload: ReserveNowPayload{ConnectorId: connectorId, IdTag: idTag, ReservationId: reservationId, ExpiryDate: expiryDate}}
}

func NewCancelReservation(reservationId int) Command {
	return Command{Action: ActionCancelReservation, Payload: CancelReservationPayload{ReservationId: reservationId}}
}

func NewUnlockConnector(connectorId int) Command {
	return Command{Action: ActionUnlockConnector, Payload: struct {
		ConnectorId int `json:"connectorId"`
	}{ConnectorId: connectorId}}
}
