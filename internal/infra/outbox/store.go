package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "gearshare/internal/app/outbox"
)

const (
	statusPending = "PENDING"
	statusSent    = "SENT"
)

// EventDocument is one durable outbox row awaiting publication.
type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Aggregate   string            `bson:"aggregate"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Headers     map[string]string `bson:"headers,omitempty"`
	Status      string            `bson:"status"`
	Attempts    int               `bson:"attempts"`
	NextRetryAt time.Time         `bson:"next_retry_at"`
	LockedBy    string            `bson:"locked_by,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

// Store persists outbox rows in Mongo.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{col: db.Collection("outbox_events")}
}

func (s *Store) Append(ctx context.Context, records []appoutbox.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, 0, len(records))
	now := time.Now().UTC()
	for _, r := range records {
		docs = append(docs, EventDocument{
			ID:          uuid.NewString(),
			Name:        r.Name,
			Aggregate:   r.Aggregate,
			Payload:     r.Payload,
			OccurredAt:  r.OccurredAt,
			Headers:     r.Headers,
			Status:      statusPending,
			NextRetryAt: now,
		})
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

// Claim locks the oldest due pending row for this worker; nil means nothing is
// due.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{"status": statusPending, "next_retry_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"locked_by": workerID}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": statusSent}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextRetry time.Time, reason string) error {
	update := bson.M{
		"$set": bson.M{"next_retry_at": nextRetry, "last_error": reason, "locked_by": ""},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// StoreOutbox buffers records during a command and appends them to the durable
// store on Flush. Flush runs with the transaction's session context, so the
// rows commit atomically with the aggregates that produced them.
type StoreOutbox struct {
	store *Store

	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewStoreOutbox(store *Store) *StoreOutbox {
	return &StoreOutbox{store: store}
}

func (o *StoreOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *StoreOutbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()
	return o.store.Append(ctx, records)
}

var _ appoutbox.Outbox = (*StoreOutbox)(nil)
