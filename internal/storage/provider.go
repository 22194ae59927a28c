package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// KeepSessionProvider chooses Durable while the durable "keepLoggedIn"
// flag equals "true" and Session otherwise. The flag is read on every call.
type KeepSessionProvider struct {
	Durable Store
	Session Store
}

// ResolveBackend implements Provider.
func (p KeepSessionProvider) ResolveBackend(ctx context.Context) Store {
	if KeepLoggedIn(ctx, p.Durable) {
		return p.Durable
	}
	return p.Session
}

// KeepLoggedIn reports whether the durable flag is set. Read failures count
// as not set.
func KeepLoggedIn(ctx context.Context, durable Store) bool {
	v, err := durable.Get(ctx, KeyKeepLoggedIn)
	return err == nil && v == "true"
}

// StaticProvider always resolves to the same backend.
type StaticProvider struct {
	Store Store
}

// ResolveBackend implements Provider.
func (p StaticProvider) ResolveBackend(context.Context) Store {
	return p.Store
}

// Driver names for the durable backend.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Session scope names.
const (
	ScopeRuntime = "runtime"
	ScopeProcess = "process"
)

// Options selects and locates the backends opened by Open.
type Options struct {
	// Dir is the durable state directory.
	Dir string
	// Driver is DriverFile or DriverSQLite.
	Driver string
	// SessionScope is ScopeRuntime or ScopeProcess.
	SessionScope string
	// RuntimeDir overrides the session-scoped directory; empty uses RuntimeDir().
	RuntimeDir string
}

// Backends holds the opened durable and session-scoped stores.
type Backends struct {
	Durable Store
	Session Store
}

// Provider returns the keep-session provider over the two backends.
func (b *Backends) Provider() KeepSessionProvider {
	return KeepSessionProvider{Durable: b.Durable, Session: b.Session}
}

// Close releases both backends.
func (b *Backends) Close() error {
	err1 := CloseStore(b.Durable)
	err2 := CloseStore(b.Session)
	if err1 != nil {
		return err1
	}
	return err2
}

// Open builds the durable and session-scoped stores described by opts.
func Open(opts Options) (*Backends, error) {
	var durable Store
	switch opts.Driver {
	case "", DriverFile:
		fs, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		durable = fs
	case DriverSQLite:
		db, err := OpenSQLite(filepath.Join(opts.Dir, "state.db"))
		if err != nil {
			return nil, err
		}
		durable = db
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}

	var session Store
	switch opts.SessionScope {
	case "", ScopeRuntime:
		dir := opts.RuntimeDir
		if dir == "" {
			dir = RuntimeDir()
		}
		fs, err := newFileStore(dir, "session")
		if err != nil {
			CloseStore(durable)
			return nil, err
		}
		session = fs
	case ScopeProcess:
		session = NewMemoryStore()
	default:
		CloseStore(durable)
		return nil, fmt.Errorf("unknown session scope %q", opts.SessionScope)
	}

	return &Backends{Durable: durable, Session: session}, nil
}

// RuntimeDir returns the per-login-session directory for session-scoped
// values. It honors XDG_RUNTIME_DIR, which the OS clears when the login
// session ends, and falls back to a per-user temp directory.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "watchdesk")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("watchdesk-%d", os.Getuid()))
}
