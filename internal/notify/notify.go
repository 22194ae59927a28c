// Package notify delivers short user-facing messages (toasts) from the stores
// and flows to whichever surface is active: the dashboard via the event bus,
// or a terminal for one-shot CLI commands.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/watchdesk/internal/event"
)

// Notification is one message for the user.
type Notification struct {
	Level   event.Level
	Message string
	Icon    string
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(Notification)
}

// Success posts a success notification.
func Success(n Notifier, message string) { n.Notify(Notification{Level: event.LevelSuccess, Message: message}) }

// SuccessIcon posts a success notification with an icon.
func SuccessIcon(n Notifier, message, icon string) {
	n.Notify(Notification{Level: event.LevelSuccess, Message: message, Icon: icon})
}

// Error posts an error notification.
func Error(n Notifier, message string) { n.Notify(Notification{Level: event.LevelError, Message: message}) }

// Info posts an informational notification.
func Info(n Notifier, message string) { n.Notify(Notification{Level: event.LevelInfo, Message: message}) }

// Loading posts a progress notification.
func Loading(n Notifier, message string) { n.Notify(Notification{Level: event.LevelLoading, Message: message}) }

// BusNotifier publishes notifications as event.NotificationEvent.
type BusNotifier struct {
	Bus *event.Bus
}

// Notify implements Notifier.
func (b BusNotifier) Notify(n Notification) {
	b.Bus.Publish(event.NewNotificationEvent(n.Level, n.Message, n.Icon))
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Italic(true)
)

// WriterNotifier prints one styled line per notification.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier returns a WriterNotifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify implements Notifier.
func (wn *WriterNotifier) Notify(n Notification) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	fmt.Fprintln(wn.w, Format(n))
}

// Format renders n as a single styled line.
func Format(n Notification) string {
	prefix := n.Icon
	var style lipgloss.Style
	switch n.Level {
	case event.LevelSuccess:
		style = successStyle
		if prefix == "" {
			prefix = "✓"
		}
	case event.LevelError:
		style = errorStyle
		if prefix == "" {
			prefix = "✗"
		}
	case event.LevelLoading:
		style = loadingStyle
		if prefix == "" {
			prefix = "…"
		}
	default:
		style = infoStyle
		if prefix == "" {
			prefix = "•"
		}
	}
	return style.Render(prefix + " " + n.Message)
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notification) {}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu  sync.Mutex
	got []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

// Last returns the most recent notification and whether one exists.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return Notification{}, false
	}
	return r.got[len(r.got)-1], true
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}
