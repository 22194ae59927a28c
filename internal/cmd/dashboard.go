package cmd

import (
	"context"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/chat"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/monitor"
	"github.com/Iron-Ham/watchdesk/internal/storage"
	"github.com/Iron-Ham/watchdesk/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive dashboard",
	Long: `Open the interactive dashboard.

The dashboard shows the sign-in form when nobody is signed in, otherwise
the sidebar, the selected page and the notification panel. Traffic and
system log pages refresh every monitor.interval_ms. With storage.watch
enabled, favorites and layout changes made from another terminal are
picked up while the dashboard runs.`,
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{interactive: true}, runDashboard),
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, a *app, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	traffic := monitor.NewTrafficFeed(a.client, monitor.TrafficOptions{
		TopPortsMinutes: a.cfg.Monitor.TopPortsMinutes,
		HistoryPoints:   a.cfg.Monitor.HistoryPoints,
		RecentAttacks:   a.cfg.Monitor.RecentAttacks,
		OnNewAttacks:    a.session.AddUnread,
		Bus:             a.bus,
		Logger:          a.logger,
	})
	logs := monitor.NewLogFeed(a.client, a.cfg.Monitor.LogPageSize, a.bus, a.logger)

	renderer, err := chat.NewRenderer(a.cfg.TUI.MarkdownStyle, tui.PanelWidth-4)
	if err != nil {
		a.logger.Warn("markdown renderer unavailable", "error", err)
	}

	if a.cfg.Storage.Watch {
		if fs, ok := a.backends.Durable.(*storage.FileStore); ok {
			a.watchStore(ctx, fs)
		}
	}

	return tui.New(tui.Deps{
		Session:   a.session,
		Favorites: a.favorites,
		Account:   a.account,
		Traffic:   traffic,
		Logs:      logs,
		Chat:      chat.New(a.client, a.logger),
		Renderer:  renderer,
		Config:    a.cfg,
		Logger:    a.logger,
	}, a.bus).Run(ctx)
}

// watchStore rehydrates the stores when another process writes their keys.
func (a *app) watchStore(ctx context.Context, fs *storage.FileStore) {
	w, err := storage.NewWatcher(fs)
	if err != nil {
		a.logger.Warn("storage watch unavailable", "dir", fs.Dir(), "error", err)
		return
	}

	go func() {
		defer w.Close()
		w.Run(ctx, func(keys []string) {
			if slices.Contains(keys, storage.KeySessionState) {
				a.session.Hydrate(ctx)
			}
			if slices.Contains(keys, storage.KeyFavorites) {
				a.favorites.Hydrate(ctx)
			}
			a.bus.Publish(event.NewStorageChangedEvent(keys))
		}, func(err error) {
			a.logger.Warn("storage watch error", "error", err)
		})
	}()
}
