// Package favorites keeps the user's pinned routes: an insertion-ordered set
// of at most MaxFavorites route keys, persisted to durable storage after
// every change.
package favorites

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/logging"
	"github.com/Iron-Ham/watchdesk/internal/notify"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

// MaxFavorites is the capacity of the favorites list.
const MaxFavorites = 5

// Notification texts.
const (
	MsgAdded   = "Added to favorites"
	MsgRemoved = "Removed from favorites"
	MsgLimit   = "You can pin up to 5 favorites."
)

// Outcome describes what a toggle did.
type Outcome int

const (
	Unchanged Outcome = iota
	Added
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// State is the persisted favorites snapshot.
type State struct {
	Favorites []string `json:"favorites"`
}

type envelope struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Store is the favorites store. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	favorites []string

	durable  storage.Store
	notifier notify.Notifier
	logger   *logging.Logger
	bus      *event.Bus

	subMu       sync.Mutex
	subscribers map[string]func([]string)
}

// Options configures a Store.
type Options struct {
	Durable  storage.Store
	Notifier notify.Notifier
	Logger   *logging.Logger
	Bus      *event.Bus
}

// New creates an empty Store. Call Hydrate to load the persisted list.
func New(opts Options) *Store {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Store{
		durable:     opts.Durable,
		notifier:    opts.Notifier,
		logger:      opts.Logger.WithComponent("favorites"),
		bus:         opts.Bus,
		subscribers: make(map[string]func([]string)),
	}
}

// Toggle removes path when it is pinned and appends it otherwise. Appending
// to a full list returns a LimitError and leaves the list unchanged.
func (s *Store) Toggle(path string) (Outcome, error) {
	if strings.TrimSpace(path) == "" {
		s.logger.Warn("favorite toggle ignored: empty path")
		return Unchanged, errors.NewValidationError("favorite path must not be empty").WithField("path")
	}

	s.mu.Lock()
	var outcome Outcome
	if i := slices.Index(s.favorites, path); i >= 0 {
		s.favorites = slices.Delete(s.favorites, i, i+1)
		outcome = Removed
	} else if len(s.favorites) >= MaxFavorites {
		s.mu.Unlock()
		notify.Error(s.notifier, MsgLimit)
		return Unchanged, errors.NewLimitError("favorites", MaxFavorites)
	} else {
		s.favorites = append(s.favorites, path)
		outcome = Added
	}
	snap := slices.Clone(s.favorites)
	s.mu.Unlock()

	s.persist(snap)
	s.emit(snap)

	if outcome == Added {
		notify.SuccessIcon(s.notifier, MsgAdded, "★")
	} else {
		notify.SuccessIcon(s.notifier, MsgRemoved, "☆")
	}
	return outcome, nil
}

// Has reports whether path is pinned.
func (s *Store) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.favorites, path)
}

// List returns a copy of the pinned routes in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favorites)
}

// Len returns the number of pinned routes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.favorites)
}

// Clear unpins everything.
func (s *Store) Clear() {
	s.mu.Lock()
	s.favorites = nil
	s.mu.Unlock()

	s.persist(nil)
	s.emit(nil)
}

// Hydrate loads the persisted list. Blank and duplicate entries are dropped
// and the list is truncated to MaxFavorites.
func (s *Store) Hydrate(ctx context.Context) {
	var loaded []string
	if s.durable != nil {
		raw, err := s.durable.Get(ctx, storage.KeyFavorites)
		switch {
		case err == nil:
			var env envelope
			if err := json.Unmarshal([]byte(raw), &env); err != nil {
				s.logger.Warn("ignoring corrupt favorites snapshot", "error", err)
			} else {
				loaded = sanitize(env.State.Favorites)
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			s.logger.Warn("failed to read favorites", "error", err)
		}
	}

	s.mu.Lock()
	s.favorites = loaded
	snap := slices.Clone(loaded)
	s.mu.Unlock()

	s.emit(snap)
}

// Subscribe registers fn to be called with the new list after every change.
func (s *Store) Subscribe(fn func([]string)) (unsubscribe func()) {
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

func sanitize(in []string) []string {
	out := make([]string, 0, MaxFavorites)
	for _, p := range in {
		if strings.TrimSpace(p) == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
		if len(out) == MaxFavorites {
			break
		}
	}
	return out
}

func (s *Store) persist(list []string) {
	if s.durable == nil {
		return
	}
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(envelope{State: State{Favorites: list}})
	if err != nil {
		s.logger.Error("failed to encode favorites", "error", err)
		return
	}
	if err := s.durable.Set(context.Background(), storage.KeyFavorites, string(raw)); err != nil {
		s.logger.Warn("failed to persist favorites", "backend", s.durable.Name(), "error", err)
	}
}

func (s *Store) emit(list []string) {
	if s.bus != nil {
		s.bus.Publish(event.NewFavoritesChangedEvent(list))
	}

	s.subMu.Lock()
	subs := make([]func([]string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(slices.Clone(list))
	}
}
