package outbox

import (
	"context"
	"encoding/json"
	"time"

	"gearshare/internal/domain/shared/events"
)

// EventRecord is the serialized form of a domain event awaiting publication.
type EventRecord struct {
	Name       string
	Aggregate  string
	Payload    []byte
	OccurredAt time.Time
	Headers    map[string]string
}

// Outbox buffers event records inside the current transaction; Flush hands
// them to the durable store/publisher after commit.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// EventEncoder turns a domain event into a wire payload.
type EventEncoder interface {
	Encode(ev events.Event) ([]byte, error)
}

// JSONEventEncoder marshals the event struct as-is.
type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(ev events.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// RecordDomainEvents encodes and stages every pending event of an aggregate.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.Event) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		payload, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		record := EventRecord{
			Name:       ev.EventName(),
			Aggregate:  ev.AggregateID(),
			Payload:    payload,
			OccurredAt: ev.OccurredAt(),
		}
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
