// Package event provides a synchronous pub-sub bus that decouples the stores,
// the poller and the storage watcher from the views that render them.
//
// Events follow the "category.action" naming convention:
//
//   - notification.posted: a toast for the user ([NotificationEvent])
//   - session.changed: the session store mutated ([SessionChangedEvent])
//   - favorites.changed: the favorites list mutated ([FavoritesChangedEvent])
//   - storage.external_change: another process wrote durable state ([StorageChangedEvent])
//   - monitor.round_completed: a polling round finished ([MonitorRoundEvent])
//
// Handlers run on the publishing goroutine. A handler that needs to do slow
// work should hand the event off, e.g. to a bubbletea program via Send.
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeNotification, func(e event.Event) {
//	    n := e.(event.NotificationEvent)
//	    fmt.Println(n.Level, n.Message)
//	})
package event
