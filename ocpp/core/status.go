package core

// RegistrationStatus is the outcome of a BootNotification.
type RegistrationStatus string

const (
	RegistrationStatusAccepted RegistrationStatus = "Accepted"
	RegistrationStatusPending  RegistrationStatus = "Pending"
	RegistrationStatusRejected RegistrationStatus = "Rejected"
)

// ConnectorStatus mirrors OCPP 1.6's StatusNotification.status enum; 2.0.1
// reuses the same value set for its ConnectorStatusEnum.
type ConnectorStatus string

const (
	ConnectorAvailable     ConnectorStatus = "Available"
	ConnectorPreparing     ConnectorStatus = "Preparing"
	ConnectorCharging      ConnectorStatus = "Charging"
	ConnectorSuspendedEVSE ConnectorStatus = "SuspendedEVSE"
	ConnectorSuspendedEV   ConnectorStatus = "SuspendedEV"
	ConnectorFinishing     ConnectorStatus = "Finishing"
	ConnectorReserved      ConnectorStatus = "Reserved"
	ConnectorUnavailable   ConnectorStatus = "Unavailable"
	ConnectorFaulted       ConnectorStatus = "Faulted"
)

type ChargePointErrorCode string

const (
	ErrorNone                  ChargePointErrorCode = "NoError"
	ErrorConnectorLockFailure  ChargePointErrorCode = "ConnectorLockFailure"
	ErrorEVCommunicationError  ChargePointErrorCode = "EVCommunicationError"
	ErrorGroundFailure         ChargePointErrorCode = "GroundFailure"
	ErrorHighTemperature       ChargePointErrorCode = "HighTemperature"
	ErrorInternalError         ChargePointErrorCode = "InternalError"
	ErrorLocalListConflict     ChargePointErrorCode = "LocalListConflict"
	ErrorOtherError            ChargePointErrorCode = "OtherError"
	ErrorOverCurrentFailure    ChargePointErrorCode = "OverCurrentFailure"
	ErrorOverVoltage           ChargePointErrorCode = "OverVoltage"
	ErrorPowerMeterFailure     ChargePointErrorCode = "PowerMeterFailure"
	ErrorPowerSwitchFailure    ChargePointErrorCode = "PowerSwitchFailure"
	ErrorReaderFailure         ChargePointErrorCode = "ReaderFailure"
	ErrorResetFailure          ChargePointErrorCode = "ResetFailure"
	ErrorUnderVoltage          ChargePointErrorCode = "UnderVoltage"
	ErrorWeakSignal            ChargePointErrorCode = "WeakSignal"
)

// AuthorizationStatus is returned in every IdTagInfo.
type AuthorizationStatus string

const (
	AuthorizationAccepted     AuthorizationStatus = "Accepted"
	AuthorizationBlocked      AuthorizationStatus = "Blocked"
	AuthorizationExpired      AuthorizationStatus = "Expired"
	AuthorizationInvalid      AuthorizationStatus = "Invalid"
	AuthorizationConcurrentTx AuthorizationStatus = "ConcurrentTx"
)

// RemoteStartStopStatus is the ack a charge point gives to a
// RemoteStart/StopTransaction command.
type RemoteStartStopStatus string

const (
	RemoteAccepted RemoteStartStopStatus = "Accepted"
	RemoteRejected RemoteStartStopStatus = "Rejected"
)

// TransactionStopReason enumerates why a transaction ended, per OCPP 1.6
// Appendix.
type TransactionStopReason string

const (
	StopReasonLocal          TransactionStopReason = "Local"
	StopReasonRemote         TransactionStopReason = "Remote"
	StopReasonEVDisconnected TransactionStopReason = "EVDisconnected"
	StopReasonPowerLoss      TransactionStopReason = "PowerLoss"
	StopReasonOther          TransactionStopReason = "Other"
	StopReasonHardReset      TransactionStopReason = "HardReset"
	StopReasonSoftReset      TransactionStopReason = "SoftReset"
)
