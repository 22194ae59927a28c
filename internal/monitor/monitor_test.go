package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/Iron-Ham/watchdesk/internal/api"
	"github.com/Iron-Ham/watchdesk/internal/event"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTraffic struct {
	mu       sync.Mutex
	stats    api.TrafficStats
	overTime api.TrafficOverTime
	ports    []api.PortCount
	attacks  api.Attacks
	fail     map[string]bool
	minutes  int
}

func (f *fakeTraffic) err(section string) error {
	if f.fail[section] {
		return fmt.Errorf("%s unavailable", section)
	}
	return nil
}

func (f *fakeTraffic) TrafficStats(context.Context) (api.TrafficStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, f.err(SectionStats)
}

func (f *fakeTraffic) TrafficOverTime(context.Context) (api.TrafficOverTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overTime, f.err(SectionOverTime)
}

func (f *fakeTraffic) TopPorts(_ context.Context, minutes int) ([]api.PortCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minutes = minutes
	return f.ports, f.err(SectionPorts)
}

func (f *fakeTraffic) Attacks(context.Context) (api.Attacks, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attacks, f.err(SectionAttacks)
}

func newFakeTraffic() *fakeTraffic {
	return &fakeTraffic{
		stats: api.TrafficStats{TotalPackets: 100, TotalBytes: 4096},
		overTime: api.TrafficOverTime{
			Timestamps:       []string{"2025-03-01T10:00:01Z", "2025-03-01T10:00:02Z"},
			PacketsPerSecond: []float64{5, 7},
			BytesPerSecond:   []float64{1000, 2048},
		},
		ports: []api.PortCount{{Port: "22", Count: 1}, {Port: "443", Count: 9}, {Port: "80", Count: 4}},
		attacks: api.Attacks{
			CountAllTime: 3,
			List: []api.Attack{
				{Timestamp: "2025-03-01T10:00:00Z", SrcIP: "203.0.113.7", DstPort: 22, Protocol: 6, FlowPktsPerS: 12345.5, FlowBytesPerS: 1536},
				{SrcIP: "203.0.113.8", DstPort: 53, Protocol: 17},
				{SrcIP: "203.0.113.9", Protocol: 1},
				{SrcIP: "203.0.113.10", Protocol: 47},
				{SrcIP: "203.0.113.11"},
				{SrcIP: "203.0.113.12"},
			},
		},
		fail: map[string]bool{},
	}
}

func TestTrafficFeed_AllSectionsSucceed(t *testing.T) {
	src := newFakeTraffic()
	feed := NewTrafficFeed(src, TrafficOptions{})

	snap := feed.Fetch(context.Background())

	if !snap.Connected || len(snap.Failed) != 0 {
		t.Fatalf("Connected=%v Failed=%v", snap.Connected, snap.Failed)
	}
	if snap.TotalPackets != 100 || snap.TotalBytes != 4096 {
		t.Errorf("totals = %d/%d", snap.TotalPackets, snap.TotalBytes)
	}
	if snap.LastSecondPackets != 7 || snap.LastSecondBytes != 2048 {
		t.Errorf("last second = %v/%v", snap.LastSecondPackets, snap.LastSecondBytes)
	}
	if src.minutes != 5 {
		t.Errorf("top-ports minutes = %d, want 5", src.minutes)
	}

	wantPorts := []api.PortCount{{Port: "443", Count: 9}, {Port: "80", Count: 4}, {Port: "22", Count: 1}}
	if diff := cmp.Diff(wantPorts, snap.Ports); diff != "" {
		t.Errorf("ports not sorted by count (-want +got):\n%s", diff)
	}

	if len(snap.Attacks) != 5 {
		t.Fatalf("attacks = %d, want the newest 5", len(snap.Attacks))
	}
	first := snap.Attacks[0]
	if first.Protocol != "TCP" || first.TargetPort != "22" || first.Severity != SeverityCritical {
		t.Errorf("first alert = %+v", first)
	}
	if first.PacketsPerSecond != "12,345.5" || first.BytesPerSecond != "1.5 KiB" {
		t.Errorf("formatted rates = %q %q", first.PacketsPerSecond, first.BytesPerSecond)
	}
	gotProtocols := []string{snap.Attacks[1].Protocol, snap.Attacks[2].Protocol, snap.Attacks[3].Protocol}
	if diff := cmp.Diff([]string{"UDP", "ICMP", "47"}, gotProtocols); diff != "" {
		t.Errorf("protocols mismatch (-want +got):\n%s", diff)
	}
}

func TestTrafficFeed_PartialFailure(t *testing.T) {
	tests := []struct {
		name          string
		failing       []string
		wantConnected bool
	}{
		{"stats down", []string{SectionStats}, true},
		{"ports and attacks down", []string{SectionPorts, SectionAttacks}, true},
		{"everything down", []string{SectionStats, SectionOverTime, SectionPorts, SectionAttacks}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeTraffic()
			for _, s := range tt.failing {
				src.fail[s] = true
			}
			snap := NewTrafficFeed(src, TrafficOptions{}).Fetch(context.Background())

			if snap.Connected != tt.wantConnected {
				t.Errorf("Connected = %v, want %v", snap.Connected, tt.wantConnected)
			}
			if diff := cmp.Diff(tt.failing, snap.Failed); diff != "" {
				t.Errorf("failed sections mismatch (-want +got):\n%s", diff)
			}
			for _, s := range tt.failing {
				switch s {
				case SectionStats:
					if snap.TotalBytes != 0 || snap.TotalPackets != 0 {
						t.Error("failed stats section should be zero")
					}
				case SectionPorts:
					if snap.Ports != nil {
						t.Error("failed ports section should be empty")
					}
				case SectionAttacks:
					if snap.Attacks != nil {
						t.Error("failed attacks section should be empty")
					}
				case SectionOverTime:
					if snap.History != nil || snap.LastSecondBytes != 0 {
						t.Error("failed over-time section should be empty")
					}
				}
			}
		})
	}
}

func TestTrafficFeed_EmptySeriesDoesNotCountAsConnected(t *testing.T) {
	src := newFakeTraffic()
	src.overTime = api.TrafficOverTime{}
	src.fail[SectionStats] = true
	src.fail[SectionPorts] = true
	src.fail[SectionAttacks] = true

	snap := NewTrafficFeed(src, TrafficOptions{}).Fetch(context.Background())
	if snap.Connected {
		t.Error("an empty series alone should not mark the feed connected")
	}
}

func TestTrafficFeed_HistoryKeepsLastPoints(t *testing.T) {
	src := newFakeTraffic()
	feed := NewTrafficFeed(src, TrafficOptions{HistoryPoints: 9})

	var snap TrafficSnapshot
	for round := 0; round < 7; round++ {
		snap = feed.Fetch(context.Background())
	}
	if len(snap.History) != 9 {
		t.Fatalf("history = %d points, want 9", len(snap.History))
	}
	if snap.History[8].BytesPerSecond != 2048 {
		t.Errorf("newest sample = %+v", snap.History[8])
	}

	src.fail[SectionOverTime] = true
	snap = feed.Fetch(context.Background())
	if snap.History != nil {
		t.Error("failed series should clear the chart")
	}

	src.fail[SectionOverTime] = false
	snap = feed.Fetch(context.Background())
	if len(snap.History) != 2 {
		t.Errorf("history after recovery = %d, want 2", len(snap.History))
	}
}

func TestTrafficFeed_NewAttacks(t *testing.T) {
	src := newFakeTraffic()
	var deltas []int
	bus := event.NewBus(nil)
	var rounds int
	bus.Subscribe(event.TypeMonitorRound, func(event.Event) { rounds++ })

	feed := NewTrafficFeed(src, TrafficOptions{OnNewAttacks: func(d int) { deltas = append(deltas, d) }, Bus: bus})

	feed.Fetch(context.Background())
	src.attacks.CountAllTime = 5
	feed.Fetch(context.Background())
	src.attacks.CountAllTime = 5
	feed.Fetch(context.Background())
	src.attacks.CountAllTime = 2 // server reset
	feed.Fetch(context.Background())
	src.attacks.CountAllTime = 4
	feed.Fetch(context.Background())

	if diff := cmp.Diff([]int{2, 2}, deltas); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
	if rounds != 5 {
		t.Errorf("round events = %d, want 5", rounds)
	}
}

type fakeLogs struct {
	failStats, failCount, failList bool
	skip, limit                    int
}

func (f *fakeLogs) LogStats(context.Context) (api.LogStats, error) {
	if f.failStats {
		return api.LogStats{}, fmt.Errorf("down")
	}
	return api.LogStats{TotalThreats: 4, TopThreatType: "BruteForce", Distribution: []api.ThreatShare{{Type: "BruteForce", Count: 4}}}, nil
}

func (f *fakeLogs) LogCount24h(context.Context) (int64, error) {
	if f.failCount {
		return 0, fmt.Errorf("down")
	}
	return 980, nil
}

func (f *fakeLogs) ThreatLogs(_ context.Context, skip, limit int) ([]api.ThreatLog, error) {
	f.skip, f.limit = skip, limit
	if f.failList {
		return nil, fmt.Errorf("down")
	}
	return []api.ThreatLog{{AttackType: "BruteForce", Hostname: "pc-3"}}, nil
}

func TestLogFeed(t *testing.T) {
	src := &fakeLogs{}
	snap := NewLogFeed(src, 20, nil, nil).Fetch(context.Background())
	if !snap.Connected || snap.Count24h != 980 || snap.Stats.TotalThreats != 4 || len(snap.Logs) != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if src.skip != 0 || src.limit != 20 {
		t.Errorf("page = skip %d limit %d", src.skip, src.limit)
	}

	src = &fakeLogs{failStats: true, failList: true}
	snap = NewLogFeed(src, 20, nil, nil).Fetch(context.Background())
	if !snap.Connected {
		t.Error("count section alone should keep the feed connected")
	}
	if snap.Stats.TopThreatType != "N/A" || snap.Logs != nil {
		t.Errorf("failed sections should degrade: %+v", snap)
	}
	if diff := cmp.Diff([]string{SectionLogStats, SectionLogList}, snap.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
}

func TestPoller_RunsImmediatelyAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(func(context.Context) int32 { return calls.Add(1) }, PollerOptions{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan int32, 64)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(v int32) { results <- v })
		close(done)
	}()

	select {
	case v := <-results:
		if v != 1 {
			t.Errorf("first result = %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate round")
	}

	deadline := time.After(time.Second)
	for calls.Load() < 4 {
		select {
		case <-results:
		case <-deadline:
			t.Fatalf("only %d rounds ran", calls.Load())
		}
	}

	cancel()
	<-done
	if p.InFlight() != 0 {
		t.Errorf("InFlight = %d after Run returned", p.InFlight())
	}
}

func TestPoller_OverlapPolicy(t *testing.T) {
	tests := []struct {
		name        string
		skip        bool
		wantOverlap bool
	}{
		{"overlapping by default", false, true},
		{"skip overlapping", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var active, maxActive atomic.Int32
			slow := func(ctx context.Context) struct{} {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				select {
				case <-time.After(60 * time.Millisecond):
				case <-ctx.Done():
				}
				active.Add(-1)
				return struct{}{}
			}
			p := NewPoller(slow, PollerOptions{Interval: 10 * time.Millisecond, SkipOverlapping: tt.skip})

			ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
			defer cancel()
			p.Run(ctx, func(struct{}) {})

			overlapped := maxActive.Load() > 1
			if overlapped != tt.wantOverlap {
				t.Errorf("max concurrent rounds = %d, want overlap=%v", maxActive.Load(), tt.wantOverlap)
			}
			stats := p.Stats()
			if tt.skip && stats.Skipped == 0 {
				t.Error("expected skipped ticks")
			}
			if !tt.skip && stats.Skipped != 0 {
				t.Errorf("Skipped = %d, want 0", stats.Skipped)
			}
		})
	}
}

func TestPoller_NoResultAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(func(ctx context.Context) int {
		cancel()
		<-ctx.Done()
		return 1
	}, PollerOptions{Interval: time.Hour})

	var got int
	p.Run(ctx, func(v int) { got = v })
	if got != 0 {
		t.Error("result delivered after cancellation")
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatBytes(0); got != "0 B" {
		t.Errorf("FormatBytes(0) = %q", got)
	}
	if got := FormatBytes(512); got != "512 B" {
		t.Errorf("FormatBytes(512) = %q", got)
	}
	if got := FormatClock("not a time"); got != "not a time" {
		t.Errorf("FormatClock passthrough = %q", got)
	}
	want := time.Date(2025, 3, 1, 10, 0, 1, 0, time.UTC).Local().Format("15:04:05")
	if got := FormatClock("2025-03-01T10:00:01Z"); got != want {
		t.Errorf("FormatClock = %q, want %q", got, want)
	}
}
