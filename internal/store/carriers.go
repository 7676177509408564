package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tournevent/carrierlink/pkg/shipper/carrierconfig"
)

// CarrierStore reads carrier records from the carriers collection.
type CarrierStore struct {
	col *mongo.Collection
}

// NewCarrierStore creates a CarrierStore on db.
func NewCarrierStore(db *mongo.Database) *CarrierStore {
	return &CarrierStore{col: db.Collection(CollectionCarriers)}
}

// FindByID implements carrierconfig.CredentialStore.
func (s *CarrierStore) FindByID(ctx context.Context, id string) (*carrierconfig.CarrierRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByName implements carrierconfig.CredentialStore. The name matches
// case-insensitively; enabled active records sort first.
func (s *CarrierStore) FindByName(ctx context.Context, name string) (*carrierconfig.CarrierRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}}
	opts := options.FindOne().SetSort(bson.D{{Key: "enabled", Value: -1}, {Key: "status", Value: 1}, {Key: "_id", Value: 1}})
	return s.findOne(ctx, filter, opts)
}

func (s *CarrierStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*carrierconfig.CarrierRecord, error) {
	var r carrierconfig.CarrierRecord
	err := s.col.FindOne(ctx, filter, opts...).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, carrierconfig.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find carrier: %w", err)
	}
	return &r, nil
}

// EnsureIndexes creates the name index used by FindByName.
func (s *CarrierStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	return err
}

var _ carrierconfig.CredentialStore = (*CarrierStore)(nil)
