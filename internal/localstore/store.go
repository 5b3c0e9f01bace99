// Package localstore is the dashboard's local key-value persistence: the
// fallback side of dual-path stores and the home of saved credentials and
// links.
package localstore

import (
	"context"
	"errors"
)

// ErrUnsupportedDSN is returned by Open for an unknown scheme.
var ErrUnsupportedDSN = errors.New("unsupported local store dsn")

// Store is a string key-value store. A missing key is ("", false, nil).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Backend is a Store that can be pinged and closed.
type Backend interface {
	Store
	Ping(ctx context.Context) error
	Close() error
}
