package appstate

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/logging"
	"github.com/Iron-Ham/watchdesk/internal/notify"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

// SnapshotVersion is written into every persisted envelope.
const SnapshotVersion = 0

type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Options configures a Store.
type Options struct {
	// Provider picks the backend the snapshot is read from and written to.
	Provider storage.Provider
	// Durable holds the keep-session flag removed on logout.
	Durable storage.Store
	// Notifier receives user-facing messages. Nil discards them.
	Notifier notify.Notifier
	// Logger receives warnings about rejected input and storage failures.
	Logger *logging.Logger
	// Bus, when set, receives a SessionChangedEvent after each mutation.
	Bus *event.Bus
}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	state State

	provider storage.Provider
	durable  storage.Store
	notifier notify.Notifier
	logger   *logging.Logger
	bus      *event.Bus

	subMu       sync.Mutex
	subscribers map[string]func(State)
}

// New creates a Store holding DefaultState. Call Hydrate to load the
// persisted snapshot.
func New(opts Options) *Store {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Store{
		state:       DefaultState(),
		provider:    opts.Provider,
		durable:     opts.Durable,
		notifier:    opts.Notifier,
		logger:      opts.Logger.WithComponent("appstate"),
		bus:         opts.Bus,
		subscribers: make(map[string]func(State)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	id := uuid.NewString()
	s.subMu.Lock()
	s.subscribers[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// Login marks the session as authenticated for user. A nil user or one
// without an employee number is rejected with a warning and no change.
func (s *Store) Login(user *User) error {
	if user == nil || strings.TrimSpace(user.EmpNumber) == "" {
		s.logger.Warn("login ignored: user has no employee number")
		return errors.NewValidationError("user must have an employee number").WithField("emp_number")
	}

	u := *user
	s.mutate(func(st *State) {
		st.IsLoggedIn = true
		st.User = &u
	})
	return nil
}

// Logout resets the session to defaults, persists it, clears the durable
// keep-session flag and notifies the user.
func (s *Store) Logout() {
	ctx := context.Background()

	s.mutate(func(st *State) {
		hydrated := st.HasHydrated
		*st = DefaultState()
		st.HasHydrated = hydrated
	})

	// after persisting, so the reset snapshot lands in the backend that held the session
	if s.durable != nil {
		if err := s.durable.Remove(ctx, storage.KeyKeepLoggedIn); err != nil {
			s.logger.Warn("failed to clear keep-session flag", "error", err)
		}
	}

	notify.Success(s.notifier, "Logged out.")
}

// UpdateUser merges the non-nil fields of u into the profile. When no user
// is set, the result holds only the supplied fields.
func (s *Store) UpdateUser(u UserUpdate) {
	s.mutate(func(st *State) {
		var merged User
		if st.User != nil {
			merged = *st.User
		}
		if u.EmpNumber != nil {
			merged.EmpNumber = *u.EmpNumber
		}
		if u.Name != nil {
			merged.Name = *u.Name
		}
		if u.Email != nil {
			merged.Email = *u.Email
		}
		if u.Phone != nil {
			merged.Phone = *u.Phone
		}
		st.User = &merged
	})
}

// ToggleSidebarCollapsed inverts the sidebar collapsed flag.
func (s *Store) ToggleSidebarCollapsed() {
	s.mutate(func(st *State) { st.IsSidebarCollapsed = !st.IsSidebarCollapsed })
}

// ToggleSectionOpen inverts the open flag of section. Unknown sections are
// ignored with a warning.
func (s *Store) ToggleSectionOpen(section Section) {
	probe := OpenSections{}
	if !probe.toggle(section) {
		s.logger.Warn("unknown sidebar section", "section", string(section))
		return
	}
	s.mutate(func(st *State) { st.OpenSections.toggle(section) })
}

// ToggleNotificationOpen inverts the notification panel flag.
func (s *Store) ToggleNotificationOpen() {
	s.mutate(func(st *State) { st.IsNotificationOpen = !st.IsNotificationOpen })
}

// SetUnreadCount sets the unread counter. Negative counts clamp to zero.
func (s *Store) SetUnreadCount(n int) {
	if n < 0 {
		n = 0
	}
	s.mutate(func(st *State) {
		st.UnreadCount = n
		st.HasUnread = n > 0
	})
}

// AddUnread increases the unread counter by n.
func (s *Store) AddUnread(n int) {
	if n <= 0 {
		return
	}
	s.mutate(func(st *State) {
		st.UnreadCount += n
		st.HasUnread = true
	})
}

// MarkAllAsRead clears the unread counter.
func (s *Store) MarkAllAsRead() {
	s.SetUnreadCount(0)
}

// SetHasHydrated sets the hydration flag. It is not persisted.
func (s *Store) SetHasHydrated(v bool) {
	s.mu.Lock()
	s.state.HasHydrated = v
	snap := s.state.clone()
	s.mu.Unlock()
	s.emit(snap)
}

// Hydrate loads the persisted snapshot from the currently resolved backend
// over the defaults, then marks the store hydrated. A missing or corrupt
// snapshot leaves the defaults in place.
func (s *Store) Hydrate(ctx context.Context) {
	loaded := DefaultState()

	if s.provider != nil {
		backend := s.provider.ResolveBackend(ctx)
		raw, err := backend.Get(ctx, storage.KeySessionState)
		switch {
		case err == nil:
			if err := decodeState(raw, &loaded); err != nil {
				s.logger.Warn("ignoring corrupt session snapshot", "backend", backend.Name(), "error", err)
				loaded = DefaultState()
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			s.logger.Warn("failed to read session snapshot", "backend", backend.Name(), "error", err)
		}
	}

	loaded.HasUnread = loaded.UnreadCount > 0
	if loaded.UnreadCount < 0 {
		loaded.UnreadCount = 0
	}
	loaded.HasHydrated = true

	s.mu.Lock()
	s.state = loaded
	snap := s.state.clone()
	s.mu.Unlock()

	s.emit(snap)
}

// Persist writes the current snapshot to the currently resolved backend.
// Mutations persist on their own; callers use this after changing which
// backend the provider resolves to.
func (s *Store) Persist() {
	s.mu.Lock()
	snap := s.state.clone()
	s.mu.Unlock()
	s.persist(snap)
}

func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()

	s.persist(snap)
	s.emit(snap)
}

func (s *Store) persist(st State) {
	if s.provider == nil {
		return
	}
	ctx := context.Background()

	raw, err := encodeState(st)
	if err != nil {
		s.logger.Error("failed to encode session snapshot", "error", err)
		return
	}

	backend := s.provider.ResolveBackend(ctx)
	if err := backend.Set(ctx, storage.KeySessionState, raw); err != nil {
		s.logger.Warn("failed to persist session snapshot", "backend", backend.Name(), "error", err)
	}
}

func (s *Store) emit(st State) {
	if s.bus != nil {
		emp := ""
		if st.User != nil {
			emp = st.User.EmpNumber
		}
		s.bus.Publish(event.NewSessionChangedEvent(st.IsLoggedIn, emp, st.UnreadCount))
	}

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(st.clone())
	}
}

func encodeState(st State) (string, error) {
	body, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(envelope{State: body, Version: SnapshotVersion})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeState(raw string, into *State) error {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return errors.Wrap(errors.ErrStateCorrupted, err.Error())
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.State, into); err != nil {
		return errors.Wrap(errors.ErrStateCorrupted, err.Error())
	}
	return nil
}
