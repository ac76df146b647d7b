package item

import (
	"context"
	"errors"
	"strings"
	"time"

	"gearshare/internal/domain/shared/money"
)

var (
	ErrNotFound      = errors.New("item: not found")
	ErrIDRequired    = errors.New("item: id is required")
	ErrOwnerRequired = errors.New("item: owner id is required")
	ErrDailyRate     = errors.New("item: daily rate must be positive")
)

type ID string
type OwnerID string

// Item is the slice of the catalog this core depends on: who owns the item and
// what a day of rental costs. Catalog management lives elsewhere.
type Item struct {
	ID        ID
	OwnerID   OwnerID
	Title     string
	DailyRate money.Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Item, error)
	Save(ctx context.Context, item *Item) error
}

type CreateParams struct {
	ID        ID
	OwnerID   OwnerID
	Title     string
	DailyRate money.Money
	Now       time.Time
}

func NewItem(params CreateParams) (*Item, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	if !params.DailyRate.IsPositive() {
		return nil, ErrDailyRate
	}
	now := params.Now.UTC()
	return &Item{
		ID:        params.ID,
		OwnerID:   params.OwnerID,
		Title:     strings.TrimSpace(params.Title),
		DailyRate: params.DailyRate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
