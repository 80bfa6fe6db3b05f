package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key has no stored value.
var ErrNotFound = errors.New("not found")

// StateRepo is the session-scoped durable key/value store. It has no
// transactional guarantees and is treated as a cache: callers must
// tolerate absent or corrupt values.
type StateRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
