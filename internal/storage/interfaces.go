// Package storage provides the string key/value backends that client state is
// persisted to, and the provider that picks between the durable and the
// session-scoped backend.
//
// Two scopes exist:
//   - durable: survives restarts (FileStore or SQLiteStore under the state dir)
//   - session: lives only as long as the OS login session (FileStore under the
//     runtime dir) or the process (MemoryStore)
//
// Which scope the session snapshot goes to is decided by the "keepLoggedIn"
// flag held in durable storage, re-read on every access by KeepSessionProvider.
package storage

import (
	"context"

	"github.com/Iron-Ham/watchdesk/internal/errors"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidKey is returned for keys that cannot be stored.
var ErrInvalidKey = errors.New("invalid key")

// Well-known keys.
const (
	// KeyKeepLoggedIn holds "true" or "false"; durable only.
	KeyKeepLoggedIn = "keepLoggedIn"
	// KeySavedEmployeeID holds the remembered login identifier; durable only.
	KeySavedEmployeeID = "savedEmployeeId"
	// KeyAccessToken holds the bearer token for authenticated calls; durable only.
	KeyAccessToken = "accessToken"
	// KeyRefreshToken holds the refresh token when the server issues one.
	KeyRefreshToken = "refresh_token"
	// KeySessionState holds the serialized session store snapshot.
	KeySessionState = "app-storage"
	// KeyFavorites holds the serialized favorites snapshot; durable only.
	KeyFavorites = "favorites-storage"
)

// Store is a string key/value backend.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns all stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error

	// Name identifies the backend in logs and errors.
	Name() string
}

// Provider resolves the backend that a snapshot should be read from or
// written to at the moment of the call.
type Provider interface {
	ResolveBackend(ctx context.Context) Store
}

// Closer is implemented by backends holding OS resources.
type Closer interface {
	Close() error
}

// CloseStore closes s if it holds resources.
func CloseStore(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
