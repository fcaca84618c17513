// Package core implements the OCPP domain logic shared by every protocol
// version: charge point/connector/transaction state, and the semantics of
// each inbound action. It never touches a websocket or a version-specific
// wire shape — those are ocpp/v16 and ocpp/v201's job.
package core

import (
	"context"
	"fmt"
	"time"

	"csms/ports"
)

const defaultHeartbeatInterval = 300

// Options configures Service behavior that spec.md leaves as deployment
// choices rather than protocol requirements.
type Options struct {
	// AcceptUnknownChargePoints registers a charge point on first contact
	// instead of rejecting its BootNotification. The teacher calls this
	// "debug mode"; here it is an explicit, named option.
	AcceptUnknownChargePoints bool
	// AcceptUnknownIdTags accepts (and provisions) an idTag never seen
	// before, instead of rejecting Authorize/StartTransaction for it.
	AcceptUnknownIdTags bool
	HeartbeatInterval   int
}

// Service implements the inbound OCPP semantics (component E's shared
// core) plus the protocol state machine (component D). It is safe for
// concurrent use by multiple charge points; per-charge-point and
// per-connector operations serialize through the runtime locks in state.go.
type Service struct {
	chargePoints  ports.ChargePointRepository
	connectors    ports.ConnectorRepository
	transactions  ports.TransactionRepository
	idTags        ports.IdTagRepository
	billing       ports.BillingService
	logger        Logger
	events        EventPublisher
	opts          Options
	runtime       *registry
}

func NewService(
	chargePoints ports.ChargePointRepository,
	connectors ports.ConnectorRepository,
	transactions ports.TransactionRepository,
	idTags ports.IdTagRepository,
	billing ports.BillingService,
	logger Logger,
	events EventPublisher,
	opts Options,
) *Service {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	return &Service{
		chargePoints: chargePoints,
		connectors:   connectors,
		transactions: transactions,
		idTags:       idTags,
		billing:      billing,
		logger:       logger,
		events:       events,
		opts:         opts,
		runtime:      newRegistry(),
	}
}

// getOrLoadChargePoint returns the cached runtime record for a charge
// point, loading it from the repository (or provisioning it, if
// AcceptUnknownChargePoints is set) on first contact.
func (s *Service) getOrLoadChargePoint(ctx context.Context, chargePointId string) (*chargePointRuntime, error) {
	if cp, ok := s.runtime.get(chargePointId); ok {
		return cp, nil
	}

	model, err := s.chargePoints.Get(ctx, chargePointId)
	if err != nil {
		return nil, &InternalError{Cause: err}
	}
	if model == nil {
		if !s.opts.AcceptUnknownChargePoints {
			return nil, nil
		}
		model = &ports.ChargePoint{
			Id:           chargePointId,
			IsEnabled:    true,
			Status:       string(ConnectorAvailable),
			ErrorCode:    string(ErrorNone),
			Connectivity: ports.ConnectivityOnline,
		}
		if err := s.chargePoints.Add(ctx, model); err != nil {
			return nil, &InternalError{Cause: err}
		}
		s.logger.Debug(fmt.Sprintf("provisioned unknown charge point %s", chargePointId))
	}

	rows, err := s.connectors.ListByChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, &InternalError{Cause: err}
	}
	cp := &chargePointRuntime{
		model:      *model,
		errorCode:  ChargePointErrorCode(model.ErrorCode),
		connectors: make(map[int]*connectorRuntime, len(rows)),
	}
	for _, row := range rows {
		cp.connectors[row.Id] = &connectorRuntime{model: *row}
	}
	s.runtime.put(chargePointId, cp)
	return cp, nil
}

func (s *Service) OnBootNotification(ctx context.Context, chargePointId string, req BootNotificationRequest) (*BootNotificationResponse, error) {
	status := RegistrationStatusAccepted
	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		status = RegistrationStatusRejected
		s.logger.Debug(fmt.Sprintf("charge point %s not registered", chargePointId))
	} else {
		cp.mu.Lock()
		changed := cp.model.SerialNumber != req.SerialNumber || cp.model.FirmwareVersion != req.FirmwareVersion
		if changed {
			cp.model.SerialNumber = req.SerialNumber
			cp.model.FirmwareVersion = req.FirmwareVersion
			cp.model.Model = req.Model
			cp.model.Vendor = req.Vendor
		}
		snapshot := cp.model
		cp.mu.Unlock()
		if changed {
			if err := s.chargePoints.Update(ctx, &snapshot); err != nil {
				s.logger.Error("update charge point on boot", err)
			}
		}
	}

	s.events.Publish(string(EventBootNotification), Event{
		Type:          EventBootNotification,
		ChargePointId: chargePointId,
		Time:          time.Now().UTC(),
		Status:        string(status),
	})
	s.logger.FeatureEvent("BootNotification", chargePointId, string(status))
	return &BootNotificationResponse{
		CurrentTime: time.Now().UTC(),
		Interval:    s.opts.HeartbeatInterval,
		Status:      status,
	}, nil
}

func (s *Service) OnAuthorize(ctx context.Context, chargePointId string, req AuthorizeRequest) (*AuthorizeResponse, error) {
	result, err := s.authorize(ctx, chargePointId, req.IdTag)
	if err != nil {
		return nil, err
	}

	s.events.Publish(string(EventAuthorizationResult), Event{
		Type:          EventAuthorizationResult,
		ChargePointId: chargePointId,
		Time:          time.Now().UTC(),
		Username:      result.Username,
		IdTag:         req.IdTag,
		Status:        string(result.Status),
	})

	s.logger.FeatureEvent("Authorize", chargePointId, fmt.Sprintf("id tag: %s; status: %s", req.IdTag, result.Status))
	return &AuthorizeResponse{IdTagInfo: result.IdTagInfo()}, nil
}

// authorizationResult is the outcome of applying the id-tag policy: not
// just a status, but everything an IdTagInfo response can carry.
type authorizationResult struct {
	Status      AuthorizationStatus
	Username    string
	ParentIdTag string
	ExpiryDate  *time.Time
}

// IdTagInfo builds the wire-facing response shape, only surfacing
// ParentIdTag/ExpiryDate for an Accepted result, per spec.md §4.E's
// Authorize contract.
func (r authorizationResult) IdTagInfo() IdTagInfo {
	info := IdTagInfo{Status: r.Status}
	if r.Status == AuthorizationAccepted {
		info.ParentIdTag = r.ParentIdTag
		info.ExpiryDate = r.ExpiryDate
	}
	return info
}

// authorize applies the id-tag policy shared by Authorize and
// StartTransaction: an empty tag is Invalid, a disabled charge point
// blocks everyone, and an unseen tag is provisioned only if
// AcceptUnknownIdTags is set. A known tag's status is derived from its
// enabled flag, expiry date and any explicitly stored non-Accepted
// status, in that precedence, matching the original id-tag model's
// get_auth_status.
func (s *Service) authorize(ctx context.Context, chargePointId, idTag string) (authorizationResult, error) {
	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return authorizationResult{}, err
	}
	if cp == nil {
		return authorizationResult{Status: AuthorizationBlocked}, nil
	}
	cp.mu.Lock()
	enabled := cp.model.IsEnabled
	cp.mu.Unlock()
	if !enabled {
		return authorizationResult{Status: AuthorizationBlocked}, nil
	}
	if idTag == "" {
		return authorizationResult{Status: AuthorizationInvalid}, nil
	}

	tag, err := s.idTags.Get(ctx, idTag)
	if err != nil {
		return authorizationResult{}, &InternalError{Cause: err}
	}
	if tag == nil {
		if !s.opts.AcceptUnknownIdTags {
			return authorizationResult{Status: AuthorizationBlocked}, nil
		}
		tag = &ports.IdTag{IdTag: idTag, IsEnabled: true, DateRegistered: time.Now().UTC()}
		if err := s.idTags.Add(ctx, tag); err != nil {
			return authorizationResult{}, &InternalError{Cause: err}
		}
	}
	return authorizationResult{
		Status:      idTagAuthStatus(tag),
		Username:    tag.Username,
		ParentIdTag: tag.ParentIdTag,
		ExpiryDate:  tag.ExpiryDate,
	}, nil
}

// idTagAuthStatus derives the OCPP authorization status stored id-tag
// data implies: disabled beats expired beats any other explicitly
// stored status, which beats the Accepted default.
func idTagAuthStatus(tag *ports.IdTag) AuthorizationStatus {
	if !tag.IsEnabled {
		return AuthorizationBlocked
	}
	if tag.ExpiryDate != nil && time.Now().UTC().After(*tag.ExpiryDate) {
		return AuthorizationExpired
	}
	if tag.Status != "" {
		return AuthorizationStatus(tag.Status)
	}
	return AuthorizationAccepted
}

func (s *Service) OnHeartbeat(ctx context.Context, chargePointId string, _ HeartbeatRequest) (*HeartbeatResponse, error) {
	_, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, err
	}
	s.events.Publish(string(EventHeartbeatReceived), Event{
		Type:          EventHeartbeatReceived,
		ChargePointId: chargePointId,
		Time:          time.Now().UTC(),
	})
	return &HeartbeatResponse{CurrentTime: time.Now().UTC()}, nil
}

// OnStartTransaction implements the transaction-uniqueness invariant: a
// connector already carrying an Active transaction rejects a second start
// with ConcurrentTx rather than silently overwriting it — a correctness
// fix over the teacher's current permissive behavior, per SPEC_FULL.md.
func (s *Service) OnStartTransaction(ctx context.Context, chargePointId string, req StartTransactionRequest) (*StartTransactionResponse, error) {
	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return &StartTransactionResponse{IdTagInfo: IdTagInfo{Status: AuthorizationBlocked}}, nil
	}

	result, err := s.authorize(ctx, chargePointId, req.IdTag)
	if err != nil {
		return nil, err
	}
	username := result.Username

	cp.mu.Lock()
	connector := cp.connector(req.ConnectorId)
	cp.mu.Unlock()

	connector.mu.Lock()
	defer connector.mu.Unlock()

	if connector.model.CurrentTransactionId >= 0 {
		s.logger.Warn(fmt.Sprintf("%s@%d already has transaction %d active", chargePointId, req.ConnectorId, connector.model.CurrentTransactionId))
		return &StartTransactionResponse{
			IdTagInfo:     IdTagInfo{Status: AuthorizationConcurrentTx},
			TransactionId: connector.model.CurrentTransactionId,
		}, nil
	}
	if result.Status != AuthorizationAccepted {
		return &StartTransactionResponse{IdTagInfo: result.IdTagInfo()}, nil
	}

	txId, err := s.transactions.NextId(ctx)
	if err != nil {
		return nil, &InternalError{Cause: err}
	}
	tx := &ports.Transaction{
		Id:            txId,
		ConnectorId:   req.ConnectorId,
		ChargePointId: chargePointId,
		IdTag:         req.IdTag,
		MeterStart:    req.MeterStart,
		TimeStart:     req.Timestamp,
		ReservationId: req.ReservationId,
		Username:      username,
	}
	if err := s.transactions.Add(ctx, tx); err != nil {
		return nil, &InternalError{Cause: err}
	}

	connector.model.CurrentTransactionId = txId
	snapshot := connector.model
	if err := s.connectors.Update(ctx, &snapshot); err != nil {
		s.logger.Error("update connector on start transaction", err)
	}

	s.events.Publish(string(EventTransactionStarted), Event{
		Type:          EventTransactionStarted,
		ChargePointId: chargePointId,
		ConnectorId:   req.ConnectorId,
		Time:          req.Timestamp,
		Username:      username,
		IdTag:         req.IdTag,
		TransactionId: txId,
	})

	s.logger.FeatureEvent("StartTransaction", chargePointId, fmt.Sprintf("started transaction #%d on connector %d", txId, req.ConnectorId))
	return &StartTransactionResponse{IdTagInfo: result.IdTagInfo(), TransactionId: txId}, nil
}

// OnStopTransaction implements idempotent stop-transaction handling and
// rejects an idTag mismatch (Open Question #4 in DESIGN.md), unless the
// stop request carries no idTag at all.
func (s *Service) OnStopTransaction(ctx context.Context, chargePointId string, req StopTransactionRequest) (*StopTransactionResponse, error) {
	tx, err := s.transactions.Get(ctx, req.TransactionId)
	if err != nil {
		return nil, &InternalError{Cause: err}
	}
	if tx == nil {
		s.logger.Warn(fmt.Sprintf("transaction #%d not found", req.TransactionId))
		return &StopTransactionResponse{}, nil
	}
	if req.IdTag != "" && tx.IdTag != req.IdTag {
		return nil, &ProtocolError{Reason: fmt.Sprintf("stopIdTag %q does not match transaction #%d's startIdTag %q", req.IdTag, req.TransactionId, tx.IdTag)}
	}
	if tx.IsFinished {
		s.logger.Warn(fmt.Sprintf("transaction #%d already finished, ignoring duplicate stop", req.TransactionId))
		return &StopTransactionResponse{}, nil
	}

	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, err
	}
	if cp != nil {
		cp.mu.Lock()
		connector := cp.connector(tx.ConnectorId)
		cp.mu.Unlock()

		connector.mu.Lock()
		connector.model.CurrentTransactionId = -1
		snapshot := connector.model
		connector.mu.Unlock()
		if err := s.connectors.Update(ctx, &snapshot); err != nil {
			s.logger.Error("update connector on stop transaction", err)
		}
	}

	tx.IsFinished = true
	tx.TimeStop = req.Timestamp
	tx.MeterStop = req.MeterStop
	tx.Reason = string(req.Reason)
	applyTransactionDataMeterValues(tx, req.TransactionData)

	if err := s.transactions.Update(ctx, tx); err != nil {
		s.logger.Error("update transaction on stop", err)
	}
	if s.billing != nil {
		if err := s.billing.OnTransactionClosed(ctx, tx); err != nil {
			s.logger.Error("billing notification failed", err)
		}
	}

	consumedWh := tx.MeterStop - tx.MeterStart
	s.events.Publish(string(EventTransactionStopped), Event{
		Type:          EventTransactionStopped,
		ChargePointId: chargePointId,
		ConnectorId:   tx.ConnectorId,
		Time:          tx.TimeStop,
		Username:      tx.Username,
		IdTag:         tx.IdTag,
		TransactionId: tx.Id,
		Info:          fmt.Sprintf("consumed %d Wh", consumedWh),
	})
	s.events.Publish(string(EventTransactionBilled), Event{
		Type:          EventTransactionBilled,
		ChargePointId: chargePointId,
		ConnectorId:   tx.ConnectorId,
		Time:          tx.TimeStop,
		Username:      tx.Username,
		IdTag:         tx.IdTag,
		TransactionId: tx.Id,
		Info:          fmt.Sprintf("consumed %d Wh", consumedWh),
	})

	s.logger.FeatureEvent("StopTransaction", chargePointId, fmt.Sprintf("stopped transaction #%d (%s)", req.TransactionId, req.Reason))
	return &StopTransactionResponse{}, nil
}

// applyTransactionDataMeterValues lets a StopTransaction's bundled meter
// samples override MeterStart/MeterStop when the charge point reports
// Transaction.Begin/Transaction.End readings, per OCPP 1.6.
func applyTransactionDataMeterValues(tx *ports.Transaction, samples []MeterSample) {
	for _, sample := range samples {
		switch sample.Context {
		case "Transaction.Begin":
			if v, err := parseMeterInt(sample.Value); err == nil {
				tx.MeterStart = v
				tx.TimeStart = sample.Timestamp
			}
		case "Transaction.End":
			if v, err := parseMeterInt(sample.Value); err == nil {
				tx.MeterStop = v
				tx.TimeStop = sample.Timestamp
			}
		}
	}
}

func parseMeterInt(s string) (int, error) {
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// ForceStopTransaction is the administrative escape hatch of SPEC_FULL.md
// §9 (Open Question #3): no wire message triggers it, and no caller in
// this module (including the operator command API) invokes it. It closes
// the transaction using its own meter-start reading as the meter-stop
// reading.
func (s *Service) ForceStopTransaction(ctx context.Context, transactionId int) error {
	tx, err := s.transactions.Get(ctx, transactionId)
	if err != nil {
		return &InternalError{Cause: err}
	}
	if tx == nil {
		return &ProtocolError{Reason: fmt.Sprintf("transaction #%d not found", transactionId)}
	}
	_, err = s.OnStopTransaction(ctx, tx.ChargePointId, StopTransactionRequest{
		TransactionId: transactionId,
		MeterStop:     tx.MeterStart,
		Timestamp:     time.Now().UTC(),
		Reason:        StopReasonOther,
	})
	return err
}

func (s *Service) OnMeterValues(ctx context.Context, chargePointId string, req MeterValuesRequest) (*MeterValuesResponse, error) {
	if _, err := s.getOrLoadChargePoint(ctx, chargePointId); err != nil {
		return nil, err
	}
	transactionId := 0
	if req.TransactionId != nil {
		transactionId = *req.TransactionId
	}
	s.events.Publish(string(EventMeterValuesReceived), Event{
		Type:          EventMeterValuesReceived,
		ChargePointId: chargePointId,
		ConnectorId:   req.ConnectorId,
		Time:          time.Now().UTC(),
		TransactionId: transactionId,
		Info:          fmt.Sprintf("%d samples", len(req.Values)),
	})
	s.logger.FeatureEvent("MeterValues", chargePointId, fmt.Sprintf("received %d samples for connector %d", len(req.Values), req.ConnectorId))
	return &MeterValuesResponse{}, nil
}

func (s *Service) OnStatusNotification(ctx context.Context, chargePointId string, req StatusNotificationRequest) (*StatusNotificationResponse, error) {
	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return &StatusNotificationResponse{}, nil
	}

	currentTransactionId := 0
	cp.mu.Lock()
	cp.errorCode = req.ErrorCode
	cp.mu.Unlock()

	if req.ConnectorId > 0 {
		cp.mu.Lock()
		connector := cp.connector(req.ConnectorId)
		cp.mu.Unlock()

		connector.mu.Lock()
		connector.model.Status = string(req.Status)
		connector.model.Info = req.Info
		connector.model.VendorId = req.VendorId
		connector.model.ErrorCode = string(req.ErrorCode)
		if req.Status == ConnectorAvailable {
			connector.model.CurrentTransactionId = -1
		}
		currentTransactionId = connector.model.CurrentTransactionId
		snapshot := connector.model
		connector.mu.Unlock()

		if err := s.connectors.Update(ctx, &snapshot); err != nil {
			s.logger.Error("update connector status", err)
		}
		s.logger.FeatureEvent("StatusNotification", chargePointId, fmt.Sprintf("connector %d -> %s", req.ConnectorId, req.Status))
	} else {
		cp.mu.Lock()
		cp.model.Status = string(req.Status)
		snapshot := cp.model
		cp.mu.Unlock()

		if err := s.chargePoints.Update(ctx, &snapshot); err != nil {
			s.logger.Error("update charge point status", err)
		}
		s.logger.FeatureEvent("StatusNotification", chargePointId, fmt.Sprintf("main controller -> %s", req.Status))
	}

	eventType := EventConnectorStatusChanged
	if req.ConnectorId <= 0 {
		eventType = EventChargePointStatusChanged
	}
	s.events.Publish(string(eventType), Event{
		Type:          eventType,
		ChargePointId: chargePointId,
		ConnectorId:   req.ConnectorId,
		Time:          time.Now().UTC(),
		Status:        string(req.Status),
		TransactionId: currentTransactionId,
	})
	return &StatusNotificationResponse{}, nil
}

func (s *Service) OnDataTransfer(ctx context.Context, chargePointId string, req DataTransferRequest) (*DataTransferResponse, error) {
	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return &DataTransferResponse{Status: DataTransferRejected}, nil
	}
	s.logger.FeatureEvent("DataTransfer", chargePointId, fmt.Sprintf("vendor %s message %s", req.VendorId, req.MessageId))
	return &DataTransferResponse{Status: DataTransferAccepted}, nil
}

// OnFirmwareStatusNotification is a trivial pass-through: logged and
// event-published, always accepted, since firmware update progress is
// informational and the core has no firmware-update state machine of its
// own to validate it against.
func (s *Service) OnFirmwareStatusNotification(ctx context.Context, chargePointId string, req FirmwareStatusNotificationRequest) (*FirmwareStatusNotificationResponse, error) {
	s.logger.FeatureEvent("FirmwareStatusNotification", chargePointId, req.Status)
	s.events.Publish(string(EventError), Event{
		Type:          EventError,
		ChargePointId: chargePointId,
		Time:          time.Now().UTC(),
		Info:          fmt.Sprintf("FirmwareStatusNotification: %s", req.Status),
	})
	return &FirmwareStatusNotificationResponse{}, nil
}

// OnDiagnosticsStatusNotification is the diagnostics-upload counterpart
// of OnFirmwareStatusNotification: pass-through, logged, trivially
// accepted.
func (s *Service) OnDiagnosticsStatusNotification(ctx context.Context, chargePointId string, req DiagnosticsStatusNotificationRequest) (*DiagnosticsStatusNotificationResponse, error) {
	s.logger.FeatureEvent("DiagnosticsStatusNotification", chargePointId, req.Status)
	s.events.Publish(string(EventError), Event{
		Type:          EventError,
		ChargePointId: chargePointId,
		Time:          time.Now().UTC(),
		Info:          fmt.Sprintf("DiagnosticsStatusNotification: %s", req.Status),
	})
	return &DiagnosticsStatusNotificationResponse{}, nil
}

// SetConnectivity records the session layer's view of whether a charge
// point currently has a live connection, per SPEC_FULL.md's Connectivity
// supplement, and publishes ChargePointConnected/ChargePointDisconnected
// on an actual transition. Called by internal/wsapi on upgrade/close and
// by internal/liveness on eviction.
func (s *Service) SetConnectivity(ctx context.Context, chargePointId string, state ports.Connectivity) {
	cp, err := s.getOrLoadChargePoint(ctx, chargePointId)
	if err != nil || cp == nil {
		return
	}
	cp.mu.Lock()
	previous := cp.model.Connectivity
	cp.model.Connectivity = state
	var offlineConnectors []ports.Connector
	if state == ports.ConnectivityOffline {
		for _, c := range cp.connectors {
			c.mu.Lock()
			c.model.Status = string(ConnectorUnavailable)
			offlineConnectors = append(offlineConnectors, c.model)
			c.mu.Unlock()
		}
	}
	snapshot := cp.model
	cp.mu.Unlock()
	if err := s.chargePoints.Update(ctx, &snapshot); err != nil {
		s.logger.Error("update charge point connectivity", err)
	}
	for i := range offlineConnectors {
		if err := s.connectors.Update(ctx, &offlineConnectors[i]); err != nil {
			s.logger.Error("update connector connectivity", err)
		}
	}

	if state == previous {
		return
	}
	eventType := EventChargePointDisconnected
	if state == ports.ConnectivityOnline {
		eventType = EventChargePointConnected
	}
	s.events.Publish(string(eventType), Event{
		Type:          eventType,
		ChargePointId: chargePointId,
		Time:          time.Now().UTC(),
	})
}
