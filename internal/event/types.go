package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// Event type identifiers.
const (
	TypeNotification   = "notification.posted"
	TypeSessionChanged = "session.changed"
	TypeFavorites      = "favorites.changed"
	TypeStorageChanged = "storage.external_change"
	TypeMonitorRound   = "monitor.round_completed"
)

// Level classifies a user notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
	LevelLoading
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	case LevelLoading:
		return "loading"
	default:
		return "info"
	}
}

// NotificationEvent is a transient message for the user (a toast).
type NotificationEvent struct {
	baseEvent
	Level   Level
	Message string
	Icon    string
}

// NewNotificationEvent creates a NotificationEvent.
func NewNotificationEvent(level Level, message, icon string) NotificationEvent {
	return NotificationEvent{
		baseEvent: newBaseEvent(TypeNotification),
		Level:     level,
		Message:   message,
		Icon:      icon,
	}
}

// SessionChangedEvent is emitted after every session store mutation.
type SessionChangedEvent struct {
	baseEvent
	IsLoggedIn  bool
	EmpNumber   string
	UnreadCount int
}

// NewSessionChangedEvent creates a SessionChangedEvent.
func NewSessionChangedEvent(loggedIn bool, empNumber string, unread int) SessionChangedEvent {
	return SessionChangedEvent{
		baseEvent:   newBaseEvent(TypeSessionChanged),
		IsLoggedIn:  loggedIn,
		EmpNumber:   empNumber,
		UnreadCount: unread,
	}
}

// FavoritesChangedEvent is emitted after the favorites list changes.
type FavoritesChangedEvent struct {
	baseEvent
	Favorites []string
}

// NewFavoritesChangedEvent creates a FavoritesChangedEvent.
func NewFavoritesChangedEvent(favorites []string) FavoritesChangedEvent {
	return FavoritesChangedEvent{
		baseEvent: newBaseEvent(TypeFavorites),
		Favorites: append([]string(nil), favorites...),
	}
}

// StorageChangedEvent reports durable keys changed by another process.
type StorageChangedEvent struct {
	baseEvent
	Keys []string
}

// NewStorageChangedEvent creates a StorageChangedEvent.
func NewStorageChangedEvent(keys []string) StorageChangedEvent {
	return StorageChangedEvent{
		baseEvent: newBaseEvent(TypeStorageChanged),
		Keys:      append([]string(nil), keys...),
	}
}

// MonitorRoundEvent summarizes one completed polling round.
type MonitorRoundEvent struct {
	baseEvent
	Feed      string
	Connected bool
	Failed    []string
	Duration  time.Duration
}

// NewMonitorRoundEvent creates a MonitorRoundEvent.
func NewMonitorRoundEvent(feed string, connected bool, failed []string, d time.Duration) MonitorRoundEvent {
	return MonitorRoundEvent{
		baseEvent: newBaseEvent(TypeMonitorRound),
		Feed:      feed,
		Connected: connected,
		Failed:    append([]string(nil), failed...),
		Duration:  d,
	}
}
