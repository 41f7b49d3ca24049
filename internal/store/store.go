// Package store provides the durable key-value storage the session layer
// persists credentials in. The capability is an interface so tests can run
// against the in-memory implementation.
package store

import "errors"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// SessionStore is durable string-keyed storage surviving process restarts.
type SessionStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
