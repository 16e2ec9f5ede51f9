package storage

import (
	"context"
	"fmt"
	"time"

	"rbitracker/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 10 * time.Second

// MongoConfig holds connection settings for the Mongo-backed store.
type MongoConfig struct {
	URI           string
	Database      string
	CircularsColl string
	PoliciesColl  string
}

// MongoStore implements RecordStore on a MongoDB collection, keyed by
// source_document_ref with a unique index. It also exposes the company
// policy corpus stored alongside.
type MongoStore struct {
	client    *mongo.Client
	circulars *mongo.Collection
	policies  *mongo.Collection
}

// NewMongoStore connects, pings, and ensures the key index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", types.ErrStorageUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", types.ErrStorageUnavailable, err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:    client,
		circulars: db.Collection(cfg.CircularsColl),
		policies:  db.Collection(cfg.PoliciesColl),
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "source_document_ref", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.circulars.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("%w: create index: %v", types.ErrStorageUnavailable, err)
	}
	return s, nil
}

// Upsert fully replaces any prior record under the same key. Each call
// is a complete, atomic unit; concurrent upserts to distinct keys are
// fine and same-key writes resolve last-write-wins.
func (s *MongoStore) Upsert(ctx context.Context, record *types.StoredCircular) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"source_document_ref": record.SourceDocumentRef}
	_, err := s.circulars.ReplaceOne(ctx, filter, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", types.ErrStorageUnavailable, record.SourceDocumentRef, err)
	}
	return nil
}

// Get returns the record under ref, or nil when absent.
func (s *MongoStore) Get(ctx context.Context, ref string) (*types.StoredCircular, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var record types.StoredCircular
	err := s.circulars.FindOne(ctx, bson.M{"source_document_ref": ref}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", types.ErrStorageUnavailable, ref, err)
	}
	return &record, nil
}

// Query returns stored circulars matching the filter.
func (s *MongoStore) Query(ctx context.Context, filter Filter) ([]types.StoredCircular, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{}
	if filter.CircularDate != "" {
		query["circular_date"] = filter.CircularDate
	}

	cursor, err := s.circulars.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", types.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	var records []types.StoredCircular
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: decode query results: %v", types.ErrStorageUnavailable, err)
	}
	return records, nil
}

// Policies reads the company policy corpus. Implements
// analysis.PolicyCorpus.
func (s *MongoStore) Policies(ctx context.Context) ([]types.PolicyDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.policies.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("read policy corpus: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []types.PolicyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode policy corpus: %w", err)
	}
	return docs, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
