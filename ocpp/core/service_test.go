package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csms/repository/memory"
)

type nullLogger struct{}

func (nullLogger) FeatureEvent(string, string, string) {}
func (nullLogger) Debug(string)                        {}
func (nullLogger) Warn(string)                         {}
func (nullLogger) Error(string, error)                 {}

type recordingBus struct {
	mu     sync.Mutex
	events []Event
}

func (b *recordingBus) Publish(_ string, e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) all() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

func newTestService(opts Options) (*Service, *memory.Transactions) {
	txRepo := memory.NewTransactions()
	svc := NewService(
		memory.NewChargePoints(),
		memory.NewConnectors(),
		txRepo,
		memory.NewIdTags(),
		memory.NoopBilling{},
		nullLogger{},
		&recordingBus{},
		opts,
	)
	return svc, txRepo
}

func TestBootNotificationRejectsUnknownChargePointByDefault(t *testing.T) {
	svc, _ := newTestService(Options{})
	resp, err := svc.OnBootNotification(context.Background(), "cp-1", BootNotificationRequest{Vendor: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, RegistrationStatusRejected, resp.Status)
}

func TestBootNotificationAcceptsUnknownChargePointWhenConfigured(t *testing.T) {
	svc, _ := newTestService(Options{AcceptUnknownChargePoints: true})
	resp, err := svc.OnBootNotification(context.Background(), "cp-1", BootNotificationRequest{Vendor: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, RegistrationStatusAccepted, resp.Status)
}

func mustBoot(t *testing.T, svc *Service, chargePointId string) {
	t.Helper()
	_, err := svc.OnBootNotification(context.Background(), chargePointId, BootNotificationRequest{Vendor: "Acme"})
	require.NoError(t, err)
}

func TestStartTransactionRejectsConcurrentUse(t *testing.T) {
	svc, _ := newTestService(Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true})
	ctx := context.Background()
	mustBoot(t, svc, "cp-1")

	first, err := svc.OnStartTransaction(ctx, "cp-1", StartTransactionRequest{ConnectorId: 1, IdTag: "tag-a", Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, AuthorizationAccepted, first.IdTagInfo.Status)

	second, err := svc.OnStartTransaction(ctx, "cp-1", StartTransactionRequest{ConnectorId: 1, IdTag: "tag-b", Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, AuthorizationConcurrentTx, second.IdTagInfo.Status)
	assert.Equal(t, first.TransactionId, second.TransactionId)
}

func TestConcurrentStartTransactionOnDistinctConnectorsBothSucceed(t *testing.T) {
	svc, _ := newTestService(Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true})
	ctx := context.Background()
	mustBoot(t, svc, "cp-1")

	var wg sync.WaitGroup
	results := make([]*StartTransactionResponse, 2)
	for i, connectorId := range []int{1, 2} {
		wg.Add(1)
		go func(i, connectorId int) {
			defer wg.Done()
			resp, err := svc.OnStartTransaction(ctx, "cp-1", StartTransactionRequest{ConnectorId: connectorId, IdTag: "tag", Timestamp: time.Now()})
			require.NoError(t, err)
			results[i] = resp
		}(i, connectorId)
	}
	wg.Wait()

	assert.Equal(t, AuthorizationAccepted, results[0].IdTagInfo.Status)
	assert.Equal(t, AuthorizationAccepted, results[1].IdTagInfo.Status)
	assert.NotEqual(t, results[0].TransactionId, results[1].TransactionId)
}

func TestStopTransactionIsIdempotent(t *testing.T) {
	svc, _ := newTestService(Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true})
	ctx := context.Background()
	mustBoot(t, svc, "cp-1")

	started, err := svc.OnStartTransaction(ctx, "cp-1", StartTransactionRequest{ConnectorId: 1, IdTag: "tag", MeterStart: 100, Timestamp: time.Now()})
	require.NoError(t, err)

	_, err = svc.OnStopTransaction(ctx, "cp-1", StopTransactionRequest{TransactionId: started.TransactionId, IdTag: "tag", MeterStop: 500, Timestamp: time.Now(), Reason: StopReasonLocal})
	require.NoError(t, err)

	// second stop for the same transaction must not error and must not
	// overwrite the recorded meter-stop reading.
	_, err = svc.OnStopTransaction(ctx, "cp-1", StopTransactionRequest{TransactionId: started.TransactionId, IdTag: "tag", MeterStop: 999, Timestamp: time.Now(), Reason: StopReasonLocal})
	require.NoError(t, err)

	tx, err := svc.transactions.Get(ctx, started.TransactionId)
	require.NoError(t, err)
	assert.Equal(t, 500, tx.MeterStop, "second stop must not overwrite the already-closed transaction")
}

func TestStopTransactionRejectsIdTagMismatch(t *testing.T) {
	svc, _ := newTestService(Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true})
	ctx := context.Background()
	mustBoot(t, svc, "cp-1")

	started, err := svc.OnStartTransaction(ctx, "cp-1", StartTransactionRequest{ConnectorId: 1, IdTag: "tag-a", Timestamp: time.Now()})
	require.NoError(t, err)

	_, err = svc.OnStopTransaction(ctx, "cp-1", StopTransactionRequest{TransactionId: started.TransactionId, IdTag: "tag-b", Timestamp: time.Now()})
	require.Error(t, err)
	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestStopTransactionAllowsEmptyIdTag(t *testing.T) {
	svc, _ := newTestService(Options{AcceptUnknownChargePoints: true, AcceptUnknownIdTags: true})
	ctx := context.Background()
	mustBoot(t, svc, "cp-1")

	started, err := svc.OnStartTransaction(ctx, "cp-1", StartTransactionRequest{ConnectorId: 1, IdTag: "tag-a", Timestamp: time.Now()})
	require.NoError(t, err)

	_, err = svc.OnStopTransaction(ctx, "cp-1", StopTransactionRequest{TransactionId: started.TransactionId, Timestamp: time.Now()})
	assert.NoError(t, err)
}

func TestFirmwareStatusNotificationIsAlwaysAcceptedAndPublished(t *testing.T) {
	bus := &recordingBus{}
	svc := NewService(
		memory.NewChargePoints(),
		memory.NewConnectors(),
		memory.NewTransactions(),
		memory.NewIdTags(),
		memory.NoopBilling{},
		nullLogger{},
		bus,
		Options{},
	)
	resp, err := svc.OnFirmwareStatusNotification(context.Background(), "cp-1", FirmwareStatusNotificationRequest{Status: "Downloading"})
	require.NoError(t, err)
	require.NotNil(t, resp)

	events := bus.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Contains(t, events[0].Info, "Downloading")
}

func TestDiagnosticsStatusNotificationIsAlwaysAcceptedAndPublished(t *testing.T) {
	bus := &recordingBus{}
	svc := NewService(
		memory.NewChargePoints(),
		memory.NewConnectors(),
		memory.NewTransactions(),
		memory.NewIdTags(),
		memory.NoopBilling{},
		nullLogger{},
		bus,
		Options{},
	)
	resp, err := svc.OnDiagnosticsStatusNotification(context.Background(), "cp-1", DiagnosticsStatusNotificationRequest{Status: "Uploaded"})
	require.NoError(t, err)
	require.NotNil(t, resp)

	events := bus.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Contains(t, events[0].Info, "Uploaded")
}
