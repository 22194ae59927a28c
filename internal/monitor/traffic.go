package monitor

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/watchdesk/internal/api"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/logging"
)

// Traffic section names, used in Snapshot.Failed.
const (
	SectionStats    = "stats"
	SectionOverTime = "traffic-over-time"
	SectionPorts    = "top-ports"
	SectionAttacks  = "attacks"
)

// SeverityCritical is the severity shown for every detected attack; the
// backend does not grade them.
const SeverityCritical = "Critical"

// TrafficSource is the subset of the API client the traffic feed polls.
type TrafficSource interface {
	TrafficStats(ctx context.Context) (api.TrafficStats, error)
	TrafficOverTime(ctx context.Context) (api.TrafficOverTime, error)
	TopPorts(ctx context.Context, minutes int) ([]api.PortCount, error)
	Attacks(ctx context.Context) (api.Attacks, error)
}

// Sample is one point of the live traffic chart.
type Sample struct {
	Time             string
	BytesPerSecond   float64
	PacketsPerSecond float64
}

// AttackAlert is a display-ready attack row.
type AttackAlert struct {
	Time             string
	SourceIP         string
	TargetPort       string
	Protocol         string
	PacketsPerSecond string
	BytesPerSecond   string
	Severity         string
}

// TrafficSnapshot is the result of one traffic round.
type TrafficSnapshot struct {
	// Connected is true when at least one endpoint answered.
	Connected bool
	Failed    []string

	TotalPackets      int64
	TotalBytes        int64
	LastSecondPackets float64
	LastSecondBytes   float64

	History []Sample
	Ports   []api.PortCount
	Attacks []AttackAlert
	// AttackCount is the all-time attack counter reported by the server.
	AttackCount int

	FetchedAt time.Time
	Duration  time.Duration
}

// TrafficOptions configures a TrafficFeed.
type TrafficOptions struct {
	TopPortsMinutes int
	HistoryPoints   int
	RecentAttacks   int
	// OnNewAttacks is called with the growth of the all-time attack counter
	// between rounds. The first successful round only sets the baseline.
	OnNewAttacks func(delta int)
	Bus          *event.Bus
	Logger       *logging.Logger
}

// TrafficFeed polls the four traffic endpoints. The chart history carries
// over between rounds; everything else is replaced every round.
type TrafficFeed struct {
	source TrafficSource
	opts   TrafficOptions
	logger *logging.Logger

	mu          sync.Mutex
	history     []Sample
	lastCount   int
	hasBaseline bool
}

// NewTrafficFeed creates a TrafficFeed.
func NewTrafficFeed(source TrafficSource, opts TrafficOptions) *TrafficFeed {
	if opts.TopPortsMinutes <= 0 {
		opts.TopPortsMinutes = 5
	}
	if opts.HistoryPoints <= 0 {
		opts.HistoryPoints = 9
	}
	if opts.RecentAttacks <= 0 {
		opts.RecentAttacks = 5
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &TrafficFeed{source: source, opts: opts, logger: opts.Logger.WithComponent("traffic-feed")}
}

// Fetch runs one round.
func (f *TrafficFeed) Fetch(ctx context.Context) TrafficSnapshot {
	start := time.Now()

	var (
		stats    api.TrafficStats
		overTime api.TrafficOverTime
		ports    []api.PortCount
		attacks  api.Attacks
	)
	var statsErr, overTimeErr, portsErr, attacksErr error

	var g errgroup.Group
	g.Go(func() error {
		stats, statsErr = f.source.TrafficStats(ctx)
		return nil
	})
	g.Go(func() error {
		overTime, overTimeErr = f.source.TrafficOverTime(ctx)
		return nil
	})
	g.Go(func() error {
		ports, portsErr = f.source.TopPorts(ctx, f.opts.TopPortsMinutes)
		return nil
	})
	g.Go(func() error {
		attacks, attacksErr = f.source.Attacks(ctx)
		return nil
	})
	_ = g.Wait()

	snap := TrafficSnapshot{FetchedAt: time.Now()}
	fail := func(section string, err error) {
		snap.Failed = append(snap.Failed, section)
		f.logger.Warn("traffic section failed", "section", section, "error", err)
	}

	if statsErr == nil {
		snap.TotalPackets = stats.TotalPackets
		snap.TotalBytes = stats.TotalBytes
		snap.Connected = true
	} else {
		fail(SectionStats, statsErr)
	}

	if overTimeErr == nil {
		samples := toSamples(overTime)
		snap.History = f.appendHistory(samples)
		if n := len(overTime.Timestamps); n > 0 {
			snap.LastSecondPackets = at(overTime.PacketsPerSecond, n-1)
			snap.LastSecondBytes = at(overTime.BytesPerSecond, n-1)
			snap.Connected = true
		}
	} else {
		f.resetHistory()
		fail(SectionOverTime, overTimeErr)
	}

	if portsErr == nil {
		snap.Ports = sortPorts(ports)
		snap.Connected = true
	} else {
		fail(SectionPorts, portsErr)
	}

	if attacksErr == nil {
		snap.Attacks = toAlerts(attacks.List, f.opts.RecentAttacks)
		snap.AttackCount = attacks.CountAllTime
		snap.Connected = true
		f.trackAttackCount(attacks.CountAllTime)
	} else {
		fail(SectionAttacks, attacksErr)
	}

	snap.Duration = time.Since(start)
	if f.opts.Bus != nil {
		f.opts.Bus.Publish(event.NewMonitorRoundEvent("traffic", snap.Connected, snap.Failed, snap.Duration))
	}
	return snap
}

// Reset forgets the chart history and the attack baseline.
func (f *TrafficFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = nil
	f.hasBaseline = false
	f.lastCount = 0
}

func (f *TrafficFeed) appendHistory(samples []Sample) []Sample {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, samples...)
	if extra := len(f.history) - f.opts.HistoryPoints; extra > 0 {
		f.history = append([]Sample(nil), f.history[extra:]...)
	}
	return append([]Sample(nil), f.history...)
}

func (f *TrafficFeed) resetHistory() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = nil
}

func (f *TrafficFeed) trackAttackCount(count int) {
	f.mu.Lock()
	delta := 0
	if f.hasBaseline && count > f.lastCount {
		delta = count - f.lastCount
	}
	f.lastCount = count
	f.hasBaseline = true
	f.mu.Unlock()

	if delta > 0 && f.opts.OnNewAttacks != nil {
		f.opts.OnNewAttacks(delta)
	}
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func toSamples(t api.TrafficOverTime) []Sample {
	out := make([]Sample, len(t.Timestamps))
	for i, ts := range t.Timestamps {
		out[i] = Sample{
			Time:             FormatClock(ts),
			BytesPerSecond:   at(t.BytesPerSecond, i),
			PacketsPerSecond: at(t.PacketsPerSecond, i),
		}
	}
	return out
}

func sortPorts(ports []api.PortCount) []api.PortCount {
	out := append([]api.PortCount(nil), ports...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func toAlerts(list []api.Attack, limit int) []AttackAlert {
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]AttackAlert, len(list))
	for i, a := range list {
		out[i] = AttackAlert{
			Time:             FormatDateTime(a.Timestamp),
			SourceIP:         a.SrcIP,
			TargetPort:       strconv.Itoa(a.DstPort),
			Protocol:         ProtocolName(a.Protocol),
			PacketsPerSecond: humanize.Commaf(a.FlowPktsPerS),
			BytesPerSecond:   FormatBytes(a.FlowBytesPerS),
			Severity:         SeverityCritical,
		}
	}
	return out
}

// ProtocolName maps an IP protocol number to its name.
func ProtocolName(n int) string {
	switch n {
	case 1:
		return "ICMP"
	case 6:
		return "TCP"
	case 17:
		return "UDP"
	default:
		return strconv.Itoa(n)
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(b float64) string {
	if b <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(b))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatClock renders a server timestamp as local HH:MM:SS. Unparsable
// timestamps are returned unchanged.
func FormatClock(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Local().Format("15:04:05")
}

// FormatDateTime renders a server timestamp as local date and time.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
