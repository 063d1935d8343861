package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "chartpad"
	DefaultMongoCollection = "sessions"
)

// mongoDoc is the stored document. The snapshot travels as a JSON string
// because dataset values are tagged scalars with a custom JSON form; the
// summary fields are duplicated for listing and the TTL index.
type mongoDoc struct {
	ID        string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	ChartType string    `bson:"chart_type"`
	Columns   int       `bson:"columns"`
	Rows      int       `bson:"rows"`
	UpdatedAt time.Time `bson:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at,omitempty"`
}

func (d *mongoDoc) snapshot() (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(d.Payload), &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse session %s", d.ID)
	}
	return &snap, nil
}

// MongoStore keeps snapshots in a MongoDB collection. A TTL index on
// expires_at lets the server drop expired sessions; Get also checks the
// expiry since TTL deletion runs only periodically.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	ttl    time.Duration
	owned  bool
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to uri, verifies the connection and ensures the
// TTL index.
func NewMongoStore(ctx context.Context, uri, database, collection string, ttl time.Duration) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeStore, err, "mongo ping"))
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	s := NewMongoStoreFromCollection(client.Database(database).Collection(collection), ttl)
	s.client = client
	s.owned = true
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close leaves
// the client connected.
func NewMongoStoreFromCollection(coll *mongo.Collection, ttl time.Duration) *MongoStore {
	return &MongoStore{coll: coll, ttl: ttl}
}

// EnsureIndexes creates the TTL and listing indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	})
	return errors.Wrap(errors.ErrCodeStore, err, "create indexes")
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "mongo find")
	}
	snap, err := doc.snapshot()
	if err != nil {
		return nil, err
	}
	if snap.IsExpired() {
		_, _ = s.coll.DeleteOne(ctx, bson.M{"_id": id})
		return nil, ErrExpired
	}
	return snap, nil
}

func (s *MongoStore) Set(ctx context.Context, snap *Snapshot) error {
	if err := errors.ValidateSessionID(snap.ID); err != nil {
		return err
	}
	stamp(snap, s.ttl)
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "marshal session")
	}
	sum := snap.Summary()
	doc := mongoDoc{
		ID:        snap.ID,
		Payload:   string(payload),
		ChartType: string(sum.ChartType),
		Columns:   sum.Columns,
		Rows:      sum.Rows,
		UpdatedAt: sum.UpdatedAt,
		ExpiresAt: sum.ExpiresAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": snap.ID}, doc, options.Replace().SetUpsert(true))
	return errors.Wrap(errors.ErrCodeStore, err, "mongo replace")
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return errors.Wrap(errors.ErrCodeStore, err, "mongo delete")
}

// List reads only the summary fields.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"payload": 0}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "mongo find")
	}
	defer cur.Close(ctx)

	now := time.Now()
	var out []Summary
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode session")
		}
		if !doc.ExpiresAt.IsZero() && now.After(doc.ExpiresAt) {
			continue
		}
		out = append(out, Summary{
			ID:        doc.ID,
			ChartType: mapping.ChartType(doc.ChartType),
			Columns:   doc.Columns,
			Rows:      doc.Rows,
			UpdatedAt: doc.UpdatedAt,
			ExpiresAt: doc.ExpiresAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "mongo cursor")
	}
	return out, nil
}

// Cleanup deletes expired documents without waiting for the TTL monitor.
func (s *MongoStore) Cleanup(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
	return errors.Wrap(errors.ErrCodeStore, err, "mongo cleanup")
}

func (s *MongoStore) Close() error {
	if s.owned {
		return s.client.Disconnect(context.Background())
	}
	return nil
}
