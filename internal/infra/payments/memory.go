package payments

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gearshare/internal/app/policies"
	"gearshare/internal/domain/shared/money"
)

// MemoryGateway approves every capture and records refunds; for tests and
// local runs without a real gateway.
type MemoryGateway struct {
	mu       sync.Mutex
	Captures map[string]money.Money
	Refunds  map[string]money.Money

	// DeclineCaptures makes every capture fail with ErrPaymentDeclined.
	DeclineCaptures bool
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		Captures: make(map[string]money.Money),
		Refunds:  make(map[string]money.Money),
	}
}

func (g *MemoryGateway) AuthorizeAndCapture(ctx context.Context, renterID string, bookingID string, amount money.Money) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeclineCaptures {
		return "", policies.ErrPaymentDeclined
	}
	reference := "cap_" + uuid.NewString()
	g.Captures[reference] = amount
	return reference, nil
}

func (g *MemoryGateway) Refund(ctx context.Context, reference string, amount money.Money) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.Captures[reference]; !ok {
		return policies.ErrPaymentDeclined
	}
	g.Refunds[reference] = amount
	return nil
}

var _ policies.PaymentsPort = (*MemoryGateway)(nil)
