package monitor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/watchdesk/internal/api"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/logging"
)

// Log section names, used in LogSnapshot.Failed.
const (
	SectionLogStats = "logs-stats"
	SectionLogCount = "logs-count-24h"
	SectionLogList  = "logs-list"
)

// LogSource is the subset of the API client the log feed polls.
type LogSource interface {
	LogStats(ctx context.Context) (api.LogStats, error)
	LogCount24h(ctx context.Context) (int64, error)
	ThreatLogs(ctx context.Context, skip, limit int) ([]api.ThreatLog, error)
}

// LogSnapshot is the result of one system-log round.
type LogSnapshot struct {
	Connected bool
	Failed    []string

	Stats    api.LogStats
	Count24h int64
	Logs     []api.ThreatLog

	FetchedAt time.Time
	Duration  time.Duration
}

// LogFeed polls the system-log endpoints.
type LogFeed struct {
	source   LogSource
	pageSize int
	bus      *event.Bus
	logger   *logging.Logger
}

// NewLogFeed creates a LogFeed fetching pageSize rows per round.
func NewLogFeed(source LogSource, pageSize int, bus *event.Bus, logger *logging.Logger) *LogFeed {
	if pageSize <= 0 {
		pageSize = 20
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &LogFeed{source: source, pageSize: pageSize, bus: bus, logger: logger.WithComponent("log-feed")}
}

// Fetch runs one round.
func (f *LogFeed) Fetch(ctx context.Context) LogSnapshot {
	start := time.Now()

	var (
		stats api.LogStats
		count int64
		logs  []api.ThreatLog
	)
	var statsErr, countErr, logErr error

	var g errgroup.Group
	g.Go(func() error {
		stats, statsErr = f.source.LogStats(ctx)
		return nil
	})
	g.Go(func() error {
		count, countErr = f.source.LogCount24h(ctx)
		return nil
	})
	g.Go(func() error {
		logs, logErr = f.source.ThreatLogs(ctx, 0, f.pageSize)
		return nil
	})
	_ = g.Wait()

	snap := LogSnapshot{FetchedAt: time.Now()}
	check := func(section string, err error) bool {
		if err != nil {
			snap.Failed = append(snap.Failed, section)
			f.logger.Warn("log section failed", "section", section, "error", err)
			return false
		}
		snap.Connected = true
		return true
	}

	if check(SectionLogStats, statsErr) {
		snap.Stats = stats
	} else {
		snap.Stats = api.LogStats{TopThreatType: "N/A"}
	}
	if check(SectionLogCount, countErr) {
		snap.Count24h = count
	}
	if check(SectionLogList, logErr) {
		snap.Logs = logs
	}

	snap.Duration = time.Since(start)
	if f.bus != nil {
		f.bus.Publish(event.NewMonitorRoundEvent("logs", snap.Connected, snap.Failed, snap.Duration))
	}
	return snap
}
