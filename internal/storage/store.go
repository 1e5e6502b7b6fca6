// Package storage persists the small amount of state the client owns on the
// device: the access token and a cached copy of the signed-in user.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by drivers once Close has been called.
var ErrClosed = errors.New("storage: closed")

// Store is a string key-value store. Concrete drivers (sqlite, memory)
// implement it. A missing key is reported through ok=false, never an error.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes every listed key. Deleting a missing key is not an error.
	// Drivers remove all keys or none.
	Delete(ctx context.Context, keys ...string) error

	// Close releases any underlying resources.
	Close() error
}

const (
	ModePersistent = "persistent"
	ModeEphemeral  = "ephemeral"
)
