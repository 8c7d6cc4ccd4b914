package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthbakery/storefront/internal/cart"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoSnapshotStore keeps cart snapshots in a collection, one document per
// storage key.
type MongoSnapshotStore struct {
	collection *mongo.Collection
}

func NewMongoSnapshotStore(db *mongo.Database) *MongoSnapshotStore {
	return &MongoSnapshotStore{
		collection: db.Collection("cart_snapshots"),
	}
}

func (m *MongoSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var doc snapshotDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get cart snapshot: %w", err)
	}
	return doc.Data, nil
}

func (m *MongoSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	update := bson.M{
		"$set": bson.M{
			"data":       data,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart snapshot: %w", err)
	}
	return nil
}

func (m *MongoSnapshotStore) Delete(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}

// CreateIndexes expires snapshots that have not been touched for 90 days.
func (m *MongoSnapshotStore) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
	}
	if _, err := m.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
