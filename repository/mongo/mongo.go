// Package mongo implements the four repository ports against
// go.mongodb.org/mongo-driver, grounded on the teacher's internal.MongoDB.
// The teacher opens and closes a new client connection on every single
// call; that pattern is dropped in favor of one client reused for the
// process lifetime; go.mongodb.org/mongo-driver's own docs recommend a
// single shared client, and reconnecting on every StatusNotification
// would make this the module's dominant source of OCPP-visible latency.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"csms/internal/logging"
	"csms/ports"
)

const (
	collectionChargePoints = "charge_points"
	collectionConnectors   = "connectors"
	collectionTransactions = "transactions"
	collectionIdTags       = "id_tags"
	collectionLog          = "sys_log"
	collectionCounters     = "counters"
)

// Store bundles a shared client/database handle; the four repository
// adapters below are thin views over the same Store.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store{client: client, database: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ChargePoints() *ChargePoints { return &ChargePoints{col: s.database.Collection(collectionChargePoints)} }
func (s *Store) Connectors() *Connectors     { return &Connectors{col: s.database.Collection(collectionConnectors)} }
func (s *Store) Transactions() *Transactions {
	return &Transactions{col: s.database.Collection(collectionTransactions), counters: s.database.Collection(collectionCounters)}
}
func (s *Store) IdTags() *IdTags { return &IdTags{col: s.database.Collection(collectionIdTags)} }

// WriteLogMessage implements internal/logging.Sink, matching the
// teacher's WriteLogMessage/collectionLog usage.
func (s *Store) WriteLogMessage(msg *logging.FeatureLogMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.database.Collection(collectionLog).InsertOne(ctx, msg)
	return err
}

type ChargePoints struct{ col *mongo.Collection }

func (r *ChargePoints) Get(ctx context.Context, chargePointId string) (*ports.ChargePoint, error) {
	var cp ports.ChargePoint
	err := r.col.FindOne(ctx, bson.D{{Key: "charge_point_id", Value: chargePointId}}).Decode(&cp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *ChargePoints) Add(ctx context.Context, cp *ports.ChargePoint) error {
	_, err := r.col.InsertOne(ctx, cp)
	return err
}

func (r *ChargePoints) Update(ctx context.Context, cp *ports.ChargePoint) error {
	filter := bson.D{{Key: "charge_point_id", Value: cp.Id}}
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": cp})
	return err
}

func (r *ChargePoints) List(ctx context.Context) ([]*ports.ChargePoint, error) {
	cursor, err := r.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var out []*ports.ChargePoint
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type Connectors struct{ col *mongo.Collection }

func (r *Connectors) Get(ctx context.Context, chargePointId string, connectorId int) (*ports.Connector, error) {
	filter := bson.D{{Key: "charge_point_id", Value: chargePointId}, {Key: "connector_id", Value: connectorId}}
	var c ports.Connector
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Connectors) Add(ctx context.Context, c *ports.Connector) error {
	_, err := r.col.InsertOne(ctx, c)
	return err
}

// Update upserts, since a connector row is lazily created by
// ocpp/core.chargePointRuntime.connector on first sight rather than
// explicitly Added, mirroring repository/memory's Update-aliases-to-Add
// behavior for the same lazily-created rows.
func (r *Connectors) Update(ctx context.Context, c *ports.Connector) error {
	filter := bson.D{{Key: "charge_point_id", Value: c.ChargePointId}, {Key: "connector_id", Value: c.Id}}
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": c}, options.Update().SetUpsert(true))
	return err
}

func (r *Connectors) ListByChargePoint(ctx context.Context, chargePointId string) ([]*ports.Connector, error) {
	cursor, err := r.col.Find(ctx, bson.D{{Key: "charge_point_id", Value: chargePointId}})
	if err != nil {
		return nil, err
	}
	var out []*ports.Connector
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type Transactions struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

// NextId atomically increments a sequence document, the standard
// mongo-driver counter pattern (findOneAndUpdate with $inc + upsert),
// so concurrent StartTransaction calls across processes never collide.
func (r *Transactions) NextId(ctx context.Context) (int, error) {
	var doc struct {
		Seq int `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: "transaction_id"}},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("mongo: allocating transaction id: %w", err)
	}
	return doc.Seq, nil
}

func (r *Transactions) Add(ctx context.Context, t *ports.Transaction) error {
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *Transactions) Get(ctx context.Context, transactionId int) (*ports.Transaction, error) {
	var t ports.Transaction
	err := r.col.FindOne(ctx, bson.D{{Key: "transaction_id", Value: transactionId}}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Transactions) Update(ctx context.Context, t *ports.Transaction) error {
	filter := bson.D{{Key: "transaction_id", Value: t.Id}}
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": t})
	return err
}

func (r *Transactions) Last(ctx context.Context) (*ports.Transaction, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "transaction_id", Value: -1}})
	var t ports.Transaction
	err := r.col.FindOne(ctx, bson.D{}, opts).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type IdTags struct{ col *mongo.Collection }

func (r *IdTags) Get(ctx context.Context, idTag string) (*ports.IdTag, error) {
	var tag ports.IdTag
	err := r.col.FindOne(ctx, bson.D{{Key: "id_tag", Value: idTag}}).Decode(&tag)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *IdTags) Add(ctx context.Context, tag *ports.IdTag) error {
	_, err := r.col.InsertOne(ctx, tag)
	return err
}

func (r *IdTags) Update(ctx context.Context, tag *ports.IdTag) error {
	filter := bson.D{{Key: "id_tag", Value: tag.IdTag}}
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": tag})
	return err
}
