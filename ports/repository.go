package ports

import "context"

// ChargePointRepository persists ChargePoint rows. Implementations must be
// safe for concurrent use.
type ChargePointRepository interface {
	Get(ctx context.Context, chargePointId string) (*ChargePoint, error)
	Add(ctx context.Context, cp *ChargePoint) error
	Update(ctx context.Context, cp *ChargePoint) error
	List(ctx context.Context) ([]*ChargePoint, error)
}

// ConnectorRepository persists Connector rows. Update must upsert: the
// runtime cache lazily creates a connector's first snapshot in memory on
// first sight and relies on the next Update call to persist it, rather
// than issuing an explicit Add.
type ConnectorRepository interface {
	Get(ctx context.Context, chargePointId string, connectorId int) (*Connector, error)
	Add(ctx context.Context, c *Connector) error
	Update(ctx context.Context, c *Connector) error
	ListByChargePoint(ctx context.Context, chargePointId string) ([]*Connector, error)
}

// TransactionRepository owns transactionId allocation. NextId must hand
// out each id at most once, also under concurrent calls. The core calls
// Add with that id right after, holding the connector's lock; an id whose
// Add fails is not reused.
type TransactionRepository interface {
	NextId(ctx context.Context) (int, error)
	Add(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, transactionId int) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	Last(ctx context.Context) (*Transaction, error)
}

type IdTagRepository interface {
	Get(ctx context.Context, idTag string) (*IdTag, error)
	Add(ctx context.Context, tag *IdTag) error
	Update(ctx context.Context, tag *IdTag) error
}

// BillingService is consulted after a transaction closes; it is out of
// scope for the core beyond this notification hook.
type BillingService interface {
	OnTransactionClosed(ctx context.Context, t *Transaction) error
}
