package favorites

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/notify"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

func newStore(t *testing.T) (*Store, *storage.MemoryStore, *notify.Recorder) {
	t.Helper()
	durable := storage.NewMemoryStore()
	rec := &notify.Recorder{}
	return New(Options{Durable: durable, Notifier: rec}), durable, rec
}

func TestToggle_AddRemove(t *testing.T) {
	s, _, rec := newStore(t)

	out, err := s.Toggle("traffic")
	if err != nil || out != Added {
		t.Fatalf("Toggle = %v, %v; want added", out, err)
	}
	if last, _ := rec.Last(); last.Message != MsgAdded {
		t.Errorf("notification = %q, want %q", last.Message, MsgAdded)
	}

	out, err = s.Toggle("traffic")
	if err != nil || out != Removed {
		t.Fatalf("Toggle = %v, %v; want removed", out, err)
	}
	if last, _ := rec.Last(); last.Message != MsgRemoved {
		t.Errorf("notification = %q, want %q", last.Message, MsgRemoved)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestToggle_LimitScenario(t *testing.T) {
	s, durable, rec := newStore(t)
	paths := []string{"traffic", "network", "typeofNetworkTrafficAttack", "typeofSystemLogAttack", "attackIPBlocking"}

	for _, p := range paths {
		if _, err := s.Toggle(p); err != nil {
			t.Fatalf("Toggle(%q) failed: %v", p, err)
		}
	}

	before, _ := durable.Get(context.Background(), storage.KeyFavorites)
	out, err := s.Toggle("blockingcertainports")
	if out != Unchanged {
		t.Errorf("outcome = %v, want unchanged", out)
	}
	if !errors.Is(err, errors.ErrLimitReached) {
		t.Errorf("err = %v, want ErrLimitReached", err)
	}
	if last, _ := rec.Last(); last.Message != MsgLimit || last.Level != event.LevelError {
		t.Errorf("last notification = %+v", last)
	}
	if diff := cmp.Diff(paths, s.List()); diff != "" {
		t.Errorf("list changed (-want +got):\n%s", diff)
	}
	after, _ := durable.Get(context.Background(), storage.KeyFavorites)
	if before != after {
		t.Error("rejected toggle should not persist")
	}

	// removing a member of a full list still works
	if out, err := s.Toggle("network"); err != nil || out != Removed {
		t.Errorf("Toggle(member of full list) = %v, %v", out, err)
	}
}

func TestToggle_RejectsBlank(t *testing.T) {
	for _, p := range []string{"", "   ", "\t"} {
		s, durable, rec := newStore(t)
		if _, err := s.Toggle(p); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("Toggle(%q) err = %v, want invalid input", p, err)
		}
		if _, err := durable.Get(context.Background(), storage.KeyFavorites); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Toggle(%q) should not persist", p)
		}
		if len(rec.Notifications()) != 0 {
			t.Errorf("Toggle(%q) should not notify", p)
		}
	}
}

func TestToggle_RoundTripAndBound(t *testing.T) {
	s, _, _ := newStore(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		p := fmt.Sprintf("route-%d", rng.Intn(9))
		before := s.List()

		first, err1 := s.Toggle(p)
		if s.Len() > MaxFavorites {
			t.Fatalf("step %d: Len = %d exceeds %d", i, s.Len(), MaxFavorites)
		}
		if err1 != nil {
			continue
		}
		if _, err := s.Toggle(p); err != nil {
			t.Fatalf("step %d: second toggle failed: %v", i, err)
		}
		if first == Removed {
			// removal then re-append moves the path to the end; membership is restored
			if !s.Has(p) || s.Len() != len(before) {
				t.Fatalf("step %d: membership not restored", i)
			}
			continue
		}
		if diff := cmp.Diff(before, s.List()); diff != "" {
			t.Fatalf("step %d: round trip mismatch (-before +after):\n%s", i, diff)
		}
		// leave the list changed for the next iteration
		s.Toggle(p)
	}
}

func TestPersistAndHydrate(t *testing.T) {
	ctx := context.Background()
	s, durable, _ := newStore(t)
	s.Toggle("traffic")
	s.Toggle("mypage")

	raw, err := durable.Get(ctx, storage.KeyFavorites)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"state":{"favorites":["traffic","mypage"]},"version":0}`
	if raw != want {
		t.Errorf("persisted = %s, want %s", raw, want)
	}

	fresh := New(Options{Durable: durable})
	fresh.Hydrate(ctx)
	if diff := cmp.Diff([]string{"traffic", "mypage"}, fresh.List()); diff != "" {
		t.Errorf("hydrated list mismatch (-want +got):\n%s", diff)
	}
}

func TestHydrate_Sanitizes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"blanks and duplicates", `{"state":{"favorites":["a","","a","b"," "]},"version":0}`, []string{"a", "b"}},
		{"truncates", `{"state":{"favorites":["1","2","3","4","5","6","7"]},"version":0}`, []string{"1", "2", "3", "4", "5"}},
		{"corrupt", `{"state":`, nil},
		{"null list", `{"state":{"favorites":null},"version":0}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			durable := storage.NewMemoryStore()
			durable.Set(context.Background(), storage.KeyFavorites, tt.raw)
			s := New(Options{Durable: durable})
			s.Hydrate(context.Background())
			if diff := cmp.Diff(tt.want, s.List()); diff != "" {
				t.Errorf("list mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClearAndSubscribe(t *testing.T) {
	bus := event.NewBus(nil)
	durable := storage.NewMemoryStore()
	s := New(Options{Durable: durable, Bus: bus})

	var lens []int
	unsub := s.Subscribe(func(l []string) { lens = append(lens, len(l)) })
	var busEvents int
	bus.Subscribe(event.TypeFavorites, func(event.Event) { busEvents++ })

	s.Toggle("traffic")
	s.Clear()
	unsub()
	s.Toggle("network")

	if diff := cmp.Diff([]int{1, 0}, lens); diff != "" {
		t.Errorf("subscriber mismatch (-want +got):\n%s", diff)
	}
	if busEvents != 3 {
		t.Errorf("bus events = %d, want 3", busEvents)
	}
	raw, _ := durable.Get(context.Background(), storage.KeyFavorites)
	if raw != `{"state":{"favorites":["network"]},"version":0}` {
		t.Errorf("persisted = %s", raw)
	}
}
