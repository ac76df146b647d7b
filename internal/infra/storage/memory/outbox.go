package memory

import (
	"context"
	"sync"

	appoutbox "gearshare/internal/app/outbox"
)

// Outbox keeps staged events in memory; Flush moves them into the published
// list, which tests can inspect.
type Outbox struct {
	mu        sync.Mutex
	staged    []appoutbox.EventRecord
	published []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = append(o.staged, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = append(o.published, o.staged...)
	o.staged = nil
	return nil
}

// Published returns a snapshot of flushed records.
func (o *Outbox) Published() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.published))
	copy(out, o.published)
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
