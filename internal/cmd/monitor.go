package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/monitor"
	"github.com/Iron-Ham/watchdesk/internal/tui/styles"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print live network traffic or system log threats",
	Long: `Print live network traffic or system log threats.

Without flags, the traffic endpoints are polled every monitor.interval_ms
until interrupted. Use --logs for the system log threat feed and --once to
print a single round. Growth of the attack counter is added to the unread
notification count.`,
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{}, runMonitor),
}

func init() {
	monitorCmd.Flags().Bool("once", false, "print one round and exit")
	monitorCmd.Flags().Bool("logs", false, "show the system log threat feed instead of traffic")
	monitorCmd.Flags().Bool("json", false, "print each round as JSON")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	once, _ := cmd.Flags().GetBool("once")
	logs, _ := cmd.Flags().GetBool("logs")
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := monitor.PollerOptions{
		Interval:        a.cfg.Monitor.Interval(),
		SkipOverlapping: a.cfg.Monitor.SkipOverlapping,
		Logger:          a.logger,
	}

	if logs {
		feed := monitor.NewLogFeed(a.client, a.cfg.Monitor.LogPageSize, a.bus, a.logger)
		show := func(s monitor.LogSnapshot) {
			if asJSON {
				writeJSON(out, s)
				return
			}
			printLogSnapshot(out, s)
		}
		return poll(ctx, monitor.NewPoller(feed.Fetch, opts), once, show)
	}

	feed := monitor.NewTrafficFeed(a.client, monitor.TrafficOptions{
		TopPortsMinutes: a.cfg.Monitor.TopPortsMinutes,
		HistoryPoints:   a.cfg.Monitor.HistoryPoints,
		RecentAttacks:   a.cfg.Monitor.RecentAttacks,
		OnNewAttacks:    a.session.AddUnread,
		Bus:             a.bus,
		Logger:          a.logger,
	})
	show := func(s monitor.TrafficSnapshot) {
		if asJSON {
			writeJSON(out, s)
			return
		}
		printTrafficSnapshot(out, s)
	}
	return poll(ctx, monitor.NewPoller(feed.Fetch, opts), once, show)
}

// poll prints one round or keeps printing until ctx is canceled.
func poll[T any](ctx context.Context, p *monitor.Poller[T], once bool, show func(T)) error {
	if once {
		show(p.Once(ctx))
		return nil
	}
	p.Run(ctx, show)
	return nil
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.MutedColor)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func printRoundHeader(w io.Writer, title string, connected bool, failed []string, at time.Time) {
	fmt.Fprintf(w, "%s  %s  %s\n", styles.Title.Render(title), styles.ConnectionDot(connected), at.Format("15:04:05"))
	if len(failed) > 0 {
		fmt.Fprintln(w, styles.ErrorMsg.Render("unavailable: "+strings.Join(failed, ", ")))
	}
}

func printTrafficSnapshot(w io.Writer, s monitor.TrafficSnapshot) {
	printRoundHeader(w, "Network Traffic", s.Connected, s.Failed, s.FetchedAt)
	fmt.Fprintf(w, "Total packets: %s   Total bytes: %s\n",
		humanize.Comma(s.TotalPackets), monitor.FormatBytes(float64(s.TotalBytes)))
	fmt.Fprintf(w, "Last second:   %s pkt/s   %s/s\n",
		humanize.Commaf(s.LastSecondPackets), monitor.FormatBytes(s.LastSecondBytes))
	fmt.Fprintf(w, "Attacks (all time): %s\n", humanize.Comma(int64(s.AttackCount)))

	if len(s.Ports) > 0 {
		t := newTable("Port", "Count")
		for _, p := range s.Ports {
			t.Row(p.Port.String(), humanize.Comma(p.Count))
		}
		fmt.Fprintln(w, t.Render())
	}
	if len(s.Attacks) > 0 {
		t := newTable("Time", "Source IP", "Port", "Protocol", "Pkt/s", "Bytes/s", "Severity")
		for _, at := range s.Attacks {
			t.Row(at.Time, at.SourceIP, at.TargetPort, at.Protocol, at.PacketsPerSecond, at.BytesPerSecond, at.Severity)
		}
		fmt.Fprintln(w, t.Render())
	}
	fmt.Fprintln(w)
}

func printLogSnapshot(w io.Writer, s monitor.LogSnapshot) {
	printRoundHeader(w, "System Logs", s.Connected, s.Failed, s.FetchedAt)
	fmt.Fprintf(w, "Threats: %s   Top type: %s   Logs (24h): %s\n",
		humanize.Comma(int64(s.Stats.TotalThreats)), s.Stats.TopThreatType, humanize.Comma(s.Count24h))

	if len(s.Stats.Distribution) > 0 {
		t := newTable("Threat type", "Count")
		for _, d := range s.Stats.Distribution {
			t.Row(d.Type, humanize.Comma(int64(d.Count)))
		}
		fmt.Fprintln(w, t.Render())
	}
	if len(s.Logs) > 0 {
		t := newTable("Detected", "Type", "Source", "Host", "Process")
		for _, entry := range s.Logs {
			t.Row(monitor.FormatDateTime(entry.DetectedAt), entry.AttackType, entry.SourceAddress, entry.Hostname, entry.ProcessName)
		}
		fmt.Fprintln(w, t.Render())
	}
	fmt.Fprintln(w)
}
