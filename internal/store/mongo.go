package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// MongoConfig captures the settings required to open a MongoDB connection.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping and
// returns the client with the selected database.
func Connect(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// Mongo is a Store backed by a MongoDB database. Document ids map to _id.
type Mongo struct {
	db *mongo.Database
}

// NewMongo creates a Mongo store on db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// Get implements Store.
func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	delete(raw, "_id")
	return Document(raw), nil
}

// Update implements Store using $set and a server-side $currentDate.
func (m *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$currentDate": bson.M{FieldUpdatedAt: true}}
	if len(fields) > 0 {
		update["$set"] = bson.M(fields)
	}

	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Set implements Store as an upsert that keeps the original createdAt.
func (m *Mongo) Set(ctx context.Context, collection, id string, doc Document) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields := maps.Clone(doc)
	if fields == nil {
		fields = Document{}
	}
	delete(fields, "_id")
	delete(fields, FieldCreatedAt)
	delete(fields, FieldUpdatedAt)

	update := bson.M{
		"$currentDate": bson.M{FieldUpdatedAt: true},
		"$setOnInsert": bson.M{FieldCreatedAt: time.Now().UTC()},
	}
	if len(fields) > 0 {
		update["$set"] = bson.M(fields)
	}

	_, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

var _ Store = (*Mongo)(nil)
