package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "gearshare/internal/domain/booking"
	domainitem "gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	domainuser "gearshare/internal/domain/user"
)

// ItemRepository is an in-memory implementation for tests and local runs.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[domainitem.ID]*domainitem.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[domainitem.ID]*domainitem.Item)}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitem.ID) (*domainitem.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domainitem.ErrNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *ItemRepository) Save(ctx context.Context, it *domainitem.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *it
	r.items[it.ID] = &clone
	return nil
}

// UserRepository stores users in memory.
type UserRepository struct {
	mu   sync.RWMutex
	byID map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[domainuser.ID]*domainuser.User)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	if u == nil || u.ID == "" {
		return domainuser.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

// BookingRepository stores bookings in memory. Save holds the write lock for
// the overlap re-check and the insert, so two concurrent requests for the same
// dates cannot both land.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.ID]; !exists && b.IsActive() {
		if r.overlapsLocked(b.ItemID, b.Range, b.ID) {
			return domainbooking.ErrDatesUnavailable
		}
	}
	b.Version++
	clone := *b
	r.items[b.ID] = &clone
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID domainuser.ID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.RenterID == renterID {
			clone := *b
			matches = append(matches, &clone)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID domainitem.OwnerID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.OwnerID == ownerID {
			clone := *b
			matches = append(matches, &clone)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ActiveOverlapping(ctx context.Context, itemID domainitem.ID, dr daterange.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapsLocked(itemID, dr, ""), nil
}

func (r *BookingRepository) overlapsLocked(itemID domainitem.ID, dr daterange.DateRange, exclude domainbooking.BookingID) bool {
	for _, b := range r.items {
		if b.ItemID != itemID || b.ID == exclude {
			continue
		}
		if b.IsActive() && b.Range.Overlaps(dr) {
			return true
		}
	}
	return false
}

func sortByCreated(list []*domainbooking.Booking) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

var _ domainitem.Repository = (*ItemRepository)(nil)
var _ domainuser.Repository = (*UserRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
