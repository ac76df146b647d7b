package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

// EnsureIndexes creates the unique indexes the invariants lean on: one active
// slot per item-day, one wallet per owner, one transaction per booking.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{"agg_booking", mongo.IndexModel{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "status", Value: 1}}}},
		{"booking_slots", mongo.IndexModel{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "day", Value: 1}}, Options: unique}},
		{"booking_slots", mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}}}},
		{"agg_wallet", mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: unique}},
		{"wallet_transactions", mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: unique}},
		{"wallet_transactions", mongo.IndexModel{Keys: bson.D{{Key: "wallet_id", Value: 1}}}},
		{"outbox_events", mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_retry_at", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := c.DB.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return err
		}
	}
	return nil
}
