package policies

import "context"

// StatementArchiver persists wallet statement exports outside the database.
type StatementArchiver interface {
	Archive(ctx context.Context, ownerID string, statement []byte) (location string, err error)
}
