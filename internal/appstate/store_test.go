package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/notify"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

type fixture struct {
	store    *Store
	durable  *storage.MemoryStore
	session  *storage.MemoryStore
	recorder *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	durable := storage.NewMemoryStore()
	session := storage.NewMemoryStore()
	rec := &notify.Recorder{}
	s := New(Options{
		Provider: storage.KeepSessionProvider{Durable: durable, Session: session},
		Durable:  durable,
		Notifier: rec,
	})
	return &fixture{store: s, durable: durable, session: session, recorder: rec}
}

func (f *fixture) keep(t *testing.T, v bool) {
	t.Helper()
	val := "false"
	if v {
		val = "true"
	}
	if err := f.durable.Set(context.Background(), storage.KeyKeepLoggedIn, val); err != nil {
		t.Fatal(err)
	}
}

func persisted(t *testing.T, s storage.Store) (State, bool) {
	t.Helper()
	raw, err := s.Get(context.Background(), storage.KeySessionState)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, false
	}
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		State   State `json:"state"`
		Version int   `json:"version"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("persisted snapshot is not valid JSON: %v", err)
	}
	return env.State, true
}

func strPtr(s string) *string { return &s }

func TestDefaultState(t *testing.T) {
	st := New(Options{}).Snapshot()

	want := State{
		OpenSections:       OpenSections{Favorites: true, Summary: true, Monitoring: true, Attack: true},
		IsNotificationOpen: true,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("default state mismatch (-want +got):\n%s", diff)
	}
	if st.HasUnread != (st.UnreadCount > 0) {
		t.Error("default state violates the unread invariant")
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	user := &User{EmpNumber: "E1001", Name: "Kim"}

	if err := f.store.Login(user); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	user.Name = "mutated after login"

	st := f.store.Snapshot()
	if !st.IsLoggedIn {
		t.Error("IsLoggedIn should be true")
	}
	if diff := cmp.Diff(&User{EmpNumber: "E1001", Name: "Kim"}, st.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestLogin_RejectsInvalidUser(t *testing.T) {
	tests := []struct {
		name string
		user *User
	}{
		{"nil user", nil},
		{"empty emp number", &User{EmpNumber: ""}},
		{"blank emp number", &User{EmpNumber: "   ", Name: "Kim"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.store.Snapshot()

			if err := f.store.Login(tt.user); err == nil {
				t.Fatal("Login should return an error")
			}
			if diff := cmp.Diff(before, f.store.Snapshot()); diff != "" {
				t.Errorf("state changed (-before +after):\n%s", diff)
			}
			if _, ok := persisted(t, f.session); ok {
				t.Error("rejected login should not persist")
			}
		})
	}
}

func TestLogout_ResetsToDefaults(t *testing.T) {
	f := newFixture(t)
	f.keep(t, true)
	f.store.Hydrate(context.Background())

	f.store.Login(&User{EmpNumber: "E1", Name: "Kim"})
	f.store.ToggleSidebarCollapsed()
	f.store.ToggleSectionOpen(SectionAttack)
	f.store.ToggleNotificationOpen()
	f.store.SetUnreadCount(7)

	f.store.Logout()

	want := DefaultState()
	want.HasHydrated = true
	if diff := cmp.Diff(want, f.store.Snapshot()); diff != "" {
		t.Errorf("state after logout mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.durable.Get(context.Background(), storage.KeyKeepLoggedIn); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("keep-session flag should be removed, got err=%v", err)
	}

	// the reset snapshot must replace the logged-in one in durable storage
	st, ok := persisted(t, f.durable)
	if !ok {
		t.Fatal("durable snapshot missing")
	}
	if st.IsLoggedIn || st.User != nil {
		t.Errorf("durable snapshot still logged in: %+v", st)
	}

	last, ok := f.recorder.Last()
	if !ok || last.Message != "Logged out." || last.Level != event.LevelSuccess {
		t.Errorf("last notification = %+v, %v", last, ok)
	}
}

func TestUpdateUser(t *testing.T) {
	t.Run("merges into existing user", func(t *testing.T) {
		f := newFixture(t)
		f.store.Login(&User{EmpNumber: "E1", Name: "A"})

		f.store.UpdateUser(UserUpdate{Email: strPtr("a@x")})

		want := &User{EmpNumber: "E1", Name: "A", Email: "a@x"}
		if diff := cmp.Diff(want, f.store.Snapshot().User); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overwrites supplied fields only", func(t *testing.T) {
		f := newFixture(t)
		f.store.Login(&User{EmpNumber: "E1", Name: "A", Phone: "010"})

		f.store.UpdateUser(UserUpdate{Name: strPtr("B"), Phone: strPtr("011")})

		want := &User{EmpNumber: "E1", Name: "B", Phone: "011"}
		if diff := cmp.Diff(want, f.store.Snapshot().User); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("merge into nil user keeps only supplied fields", func(t *testing.T) {
		f := newFixture(t)
		f.store.UpdateUser(UserUpdate{Email: strPtr("a@x")})

		st := f.store.Snapshot()
		if diff := cmp.Diff(&User{Email: "a@x"}, st.User); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}
		if st.IsLoggedIn {
			t.Error("UpdateUser must not log the user in")
		}
	})
}

func TestToggles_RoundTrip(t *testing.T) {
	toggles := map[string]func(*Store){
		"sidebar":       (*Store).ToggleSidebarCollapsed,
		"notification":  (*Store).ToggleNotificationOpen,
		"favorites":     func(s *Store) { s.ToggleSectionOpen(SectionFavorites) },
		"summary":       func(s *Store) { s.ToggleSectionOpen(SectionSummary) },
		"monitoring":    func(s *Store) { s.ToggleSectionOpen(SectionMonitoring) },
		"attack":        func(s *Store) { s.ToggleSectionOpen(SectionAttack) },
		"unknown (nop)": func(s *Store) { s.ToggleSectionOpen(Section("network")) },
	}

	for name, toggle := range toggles {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			before := f.store.Snapshot()

			toggle(f.store)
			if name != "unknown (nop)" && cmp.Equal(before, f.store.Snapshot()) {
				t.Error("first toggle should change state")
			}
			toggle(f.store)

			if diff := cmp.Diff(before, f.store.Snapshot()); diff != "" {
				t.Errorf("double toggle is not identity (-before +after):\n%s", diff)
			}
		})
	}
}

func TestUnreadInvariant(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		switch rng.Intn(4) {
		case 0:
			f.store.SetUnreadCount(rng.Intn(10) - 3)
		case 1:
			f.store.MarkAllAsRead()
		case 2:
			f.store.AddUnread(rng.Intn(3))
		case 3:
			f.store.Logout()
		}
		st := f.store.Snapshot()
		if st.HasUnread != (st.UnreadCount > 0) {
			t.Fatalf("step %d: HasUnread=%v UnreadCount=%d", i, st.HasUnread, st.UnreadCount)
		}
		if st.UnreadCount < 0 {
			t.Fatalf("step %d: negative UnreadCount %d", i, st.UnreadCount)
		}
	}
}

func TestPersist_FollowsKeepFlagOnEveryWrite(t *testing.T) {
	f := newFixture(t)

	f.store.ToggleSidebarCollapsed()
	if _, ok := persisted(t, f.session); !ok {
		t.Fatal("without the flag the snapshot should go to session storage")
	}
	if _, ok := persisted(t, f.durable); ok {
		t.Fatal("without the flag nothing should be written durably")
	}

	f.keep(t, true)
	f.store.ToggleNotificationOpen()

	st, ok := persisted(t, f.durable)
	if !ok {
		t.Fatal("with the flag set the snapshot should go to durable storage")
	}
	if st.IsNotificationOpen {
		t.Error("durable snapshot should carry the latest change")
	}
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("loads from resolved backend", func(t *testing.T) {
		f := newFixture(t)
		f.keep(t, true)
		f.durable.Set(ctx, storage.KeySessionState,
			`{"state":{"isLoggedIn":true,"user":{"emp_number":"E9","name":"Lee"},"unreadCount":2,"hasUnread":false},"version":0}`)

		if f.store.Snapshot().HasHydrated {
			t.Fatal("store should not start hydrated")
		}
		f.store.Hydrate(ctx)

		st := f.store.Snapshot()
		if !st.HasHydrated || !st.IsLoggedIn || st.User.EmpNumber != "E9" {
			t.Errorf("unexpected hydrated state %+v", st)
		}
		if !st.OpenSections.Attack || !st.IsNotificationOpen {
			t.Error("fields absent from the snapshot should keep their defaults")
		}
		if !st.HasUnread {
			t.Error("hydration should restore the unread invariant")
		}
	})

	t.Run("ignores snapshot in the other backend", func(t *testing.T) {
		f := newFixture(t)
		f.durable.Set(ctx, storage.KeySessionState, `{"state":{"isLoggedIn":true,"user":{"emp_number":"E9"}},"version":0}`)

		f.store.Hydrate(ctx)
		if f.store.Snapshot().IsLoggedIn {
			t.Error("without the flag the durable snapshot must not be read")
		}
	})

	t.Run("corrupt snapshot falls back to defaults", func(t *testing.T) {
		f := newFixture(t)
		f.session.Set(ctx, storage.KeySessionState, `{not json`)

		f.store.Hydrate(ctx)
		st := f.store.Snapshot()
		want := DefaultState()
		want.HasHydrated = true
		if diff := cmp.Diff(want, st); diff != "" {
			t.Errorf("state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("hydration flag stays set on rehydrate", func(t *testing.T) {
		f := newFixture(t)
		f.store.Hydrate(ctx)
		f.store.Hydrate(ctx)
		if !f.store.Snapshot().HasHydrated {
			t.Error("HasHydrated should remain true")
		}
	})

	t.Run("hydration flag is never persisted", func(t *testing.T) {
		f := newFixture(t)
		f.store.Hydrate(ctx)
		f.store.ToggleSidebarCollapsed()
		raw, _ := f.session.Get(ctx, storage.KeySessionState)
		var env map[string]map[string]any
		json.Unmarshal([]byte(raw), &env)
		if _, ok := env["state"]["hasHydrated"]; ok {
			t.Error("hasHydrated should not be persisted")
		}
	})
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)

	var seen []bool
	unsubscribe := f.store.Subscribe(func(st State) { seen = append(seen, st.IsSidebarCollapsed) })

	f.store.ToggleSidebarCollapsed()
	f.store.ToggleSidebarCollapsed()
	unsubscribe()
	f.store.ToggleSidebarCollapsed()

	if diff := cmp.Diff([]bool{true, false}, seen); diff != "" {
		t.Errorf("subscriber calls mismatch (-want +got):\n%s", diff)
	}
}

func TestBusEvents(t *testing.T) {
	bus := event.NewBus(nil)
	s := New(Options{Provider: storage.StaticProvider{Store: storage.NewMemoryStore()}, Bus: bus})

	var got event.SessionChangedEvent
	bus.Subscribe(event.TypeSessionChanged, func(e event.Event) { got = e.(event.SessionChangedEvent) })

	s.Login(&User{EmpNumber: "E5"})
	if !got.IsLoggedIn || got.EmpNumber != "E5" {
		t.Errorf("unexpected event %+v", got)
	}
}
