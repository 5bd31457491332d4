// Package storage provides the durable key-value store the tracker keeps
// its state in: one key for the transaction collection, one for the theme.
package storage

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyTransactions = "expense_tracker_v1"
	KeyTheme        = "theme"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage closed")

// KV is a durable string key-value store scoped to one user.
type KV interface {
	// Get returns the value for key; found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	Close() error
}
