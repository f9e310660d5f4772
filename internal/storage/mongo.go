package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	ShopperID string    `bson:"shopper_id"`
	Items     string    `bson:"items"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Mongo keeps one document per shopper in the carts collection.
type Mongo struct {
	collection *mongo.Collection
	shopper    string
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func NewMongo(db *mongo.Database, shopper string) *Mongo {
	return &Mongo{
		collection: db.Collection("carts"),
		shopper:    shopper,
	}
}

func (m *Mongo) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shopper_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *Mongo) Load(ctx context.Context) (string, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"shopper_id": m.shopper}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.Items, nil
}

func (m *Mongo) Save(ctx context.Context, json string) error {
	doc := cartDocument{
		ShopperID: m.shopper,
		Items:     json,
		UpdatedAt: time.Now(),
	}

	filter := bson.M{"shopper_id": m.shopper}
	opts := options.Update().SetUpsert(true)
	if _, err := m.collection.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

// Disconnect closes the underlying client.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.collection.Database().Client().Disconnect(ctx)
}
