// Package tui is the terminal dashboard.
package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/monitor"
	"github.com/Iron-Ham/watchdesk/internal/notify"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus

	trafficPoller *monitor.Poller[monitor.TrafficSnapshot]
	logPoller     *monitor.Poller[monitor.LogSnapshot]
}

// New creates a new TUI application. Notifications and store changes
// published on bus are forwarded to the running program.
func New(d Deps, bus *event.Bus) *App {
	a := &App{model: NewModel(d), bus: bus}

	cfg := a.model.deps.Config
	opts := monitor.PollerOptions{
		Interval:        cfg.Monitor.Interval(),
		SkipOverlapping: cfg.Monitor.SkipOverlapping,
		Logger:          a.model.deps.Logger,
	}
	if d.Traffic != nil {
		a.trafficPoller = monitor.NewPoller(d.Traffic.Fetch, opts)
	}
	if d.Logs != nil {
		a.logPoller = monitor.NewPoller(d.Logs.Fetch, opts)
	}
	return a
}

// Run starts the TUI application and blocks until the user quits or ctx
// is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if a.bus != nil {
		ids := []string{
			a.bus.Subscribe(event.TypeNotification, func(e event.Event) {
				if n, ok := e.(event.NotificationEvent); ok {
					a.program.Send(toastMsg(notify.Notification{Level: n.Level, Message: n.Message, Icon: n.Icon}))
				}
			}),
			a.bus.Subscribe(event.TypeSessionChanged, func(event.Event) { a.program.Send(stateChangedMsg{}) }),
			a.bus.Subscribe(event.TypeFavorites, func(event.Event) { a.program.Send(stateChangedMsg{}) }),
			a.bus.Subscribe(event.TypeStorageChanged, func(event.Event) { a.program.Send(stateChangedMsg{}) }),
		}
		defer func() {
			for _, id := range ids {
				a.bus.Unsubscribe(id)
			}
		}()
	}

	// Feeds keep polling while logged out; the views only render them after login.
	done := make(chan struct{}, 2)
	if a.trafficPoller != nil {
		go func() {
			defer func() { done <- struct{}{} }()
			a.trafficPoller.Run(ctx, func(s monitor.TrafficSnapshot) { a.program.Send(trafficMsg(s)) })
		}()
	} else {
		done <- struct{}{}
	}
	if a.logPoller != nil {
		go func() {
			defer func() { done <- struct{}{} }()
			a.logPoller.Run(ctx, func(s monitor.LogSnapshot) { a.program.Send(logsMsg(s)) })
		}()
	} else {
		done <- struct{}{}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		select {
		case <-sigChan:
			a.program.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	_, err := a.program.Run()

	signal.Stop(sigChan)
	cancel()
	<-done
	<-done

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
