package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Iron-Ham/watchdesk/internal/event"
)

func TestBusNotifier_Publishes(t *testing.T) {
	bus := event.NewBus(nil)

	var got event.NotificationEvent
	bus.Subscribe(event.TypeNotification, func(e event.Event) {
		got = e.(event.NotificationEvent)
	})

	SuccessIcon(BusNotifier{Bus: bus}, "Added to favorites", "⭐")

	if got.Message != "Added to favorites" || got.Level != event.LevelSuccess || got.Icon != "⭐" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	wn := NewWriterNotifier(&buf)

	Success(wn, "Logged out.")
	Error(wn, "You can pin up to 5 favorites.")
	Info(wn, "Polling every 3s")
	Loading(wn, "Downloading")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), buf.String())
	}
	for i, want := range []string{"Logged out.", "You can pin up to 5 favorites.", "Polling every 3s", "Downloading"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Error("empty recorder should have no last notification")
	}

	Info(&r, "one")
	Error(&r, "two")

	last, ok := r.Last()
	if !ok || last.Message != "two" || last.Level != event.LevelError {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	if len(r.Notifications()) != 2 {
		t.Errorf("Notifications() len = %d, want 2", len(r.Notifications()))
	}

	r.Reset()
	if len(r.Notifications()) != 0 {
		t.Error("Reset should clear")
	}

	Discard.Notify(Notification{Message: "dropped"})
}
