package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user: not found")
	ErrIDRequired = errors.New("user: id is required")
)

type ID string

// User is the existence-check contract against the external account system.
// Registration, credentials and profiles are not this core's concern.
type User struct {
	ID        ID
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	Save(ctx context.Context, user *User) error
}

func NewUser(id ID, email, name string, now time.Time) (*User, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	now = now.UTC()
	return &User{
		ID:        id,
		Email:     strings.TrimSpace(email),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
