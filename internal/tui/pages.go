package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/monitor"
	"github.com/Iron-Ham/watchdesk/internal/nav"
	"github.com/Iron-Ham/watchdesk/internal/tui/styles"
	"github.com/Iron-Ham/watchdesk/internal/util"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func (m Model) renderPage(st appstate.State, width int) string {
	category, label := nav.Breadcrumb(m.route)
	crumb := label
	if category != "" {
		crumb = category + " › " + label
	}

	var body string
	r, ok := nav.Lookup(m.route)
	switch {
	case !ok:
		body = m.renderHome(st)
	case r.Page == nav.PageTrafficMonitor:
		body = m.renderTraffic(width)
	case r.Page == nav.PageLogMonitor:
		body = m.renderLogs(width)
	case r.Page == nav.PageMyPage:
		body = renderMyPage(st)
	default:
		body = styles.Title.Render(r.Label) + "\n" +
			styles.Muted.Render("This policy page is not available yet.")
	}
	return styles.Breadcrumb.Render(crumb) + "\n\n" + body
}

func (m Model) renderHome(st appstate.State) string {
	name := ""
	if st.User != nil {
		name = st.User.Name
	}
	lines := []string{
		styles.Title.Render("Welcome, " + name),
		"Pick a page from the sidebar to start monitoring.",
	}
	if m.traffic != nil {
		lines = append(lines, "",
			fmt.Sprintf("Traffic feed %s  %s attacks all time",
				styles.ConnectionDot(m.traffic.Connected), humanize.Comma(int64(m.traffic.AttackCount))))
	}
	return strings.Join(lines, "\n")
}

func card(title, value string) string {
	return styles.Card.Render(styles.Muted.Render(title) + "\n" + styles.CardValue.Render(value))
}

func (m Model) renderTraffic(width int) string {
	if m.traffic == nil {
		return m.spinner.View() + " Fetching traffic..."
	}
	t := m.traffic

	head := styles.Title.Render("Network Traffic") + "  " + styles.ConnectionDot(t.Connected)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total packets", humanize.Comma(t.TotalPackets)),
		card("Total bytes", monitor.FormatBytes(float64(t.TotalBytes))),
		card("Packets/s", humanize.Commaf(t.LastSecondPackets)),
		card("Bytes/s", monitor.FormatBytes(t.LastSecondBytes)),
	)

	var b strings.Builder
	b.WriteString(head + "\n" + cards + "\n\n")

	b.WriteString(styles.TableHeader.Render("Bytes per second") + "\n")
	b.WriteString(sparkline(t.History) + "\n")
	if n := len(t.History); n > 0 {
		b.WriteString(styles.Muted.Render(t.History[0].Time+" … "+t.History[n-1].Time) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(styles.TableHeader.Render(fmt.Sprintf("%-8s %10s", "Port", "Hits")) + "\n")
	if len(t.Ports) == 0 {
		b.WriteString(styles.Muted.Render("no data") + "\n")
	}
	for _, p := range t.Ports {
		b.WriteString(fmt.Sprintf("%-8s %10s\n", p.Port, humanize.Comma(p.Count)))
	}
	b.WriteString("\n")

	b.WriteString(styles.TableHeader.Render(fmt.Sprintf("%-19s %-15s %-6s %-5s %-10s %s",
		"Time", "Source", "Port", "Proto", "Pkts/s", "Severity")) + "\n")
	if len(t.Attacks) == 0 {
		b.WriteString(styles.Muted.Render("no attacks detected") + "\n")
	}
	for _, a := range t.Attacks {
		row := fmt.Sprintf("%-19s %-15s %-6s %-5s %-10s ",
			a.Time, a.SourceIP, a.TargetPort, a.Protocol, a.PacketsPerSecond)
		b.WriteString(util.Truncate(row, width-10) + styles.ErrorMsg.Render(a.Severity) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func sparkline(samples []monitor.Sample) string {
	if len(samples) == 0 {
		return styles.Muted.Render("no data")
	}
	peak := 0.0
	for _, s := range samples {
		peak = max(peak, s.BytesPerSecond)
	}
	out := make([]rune, len(samples))
	for i, s := range samples {
		level := 0
		if peak > 0 {
			level = int(s.BytesPerSecond / peak * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[level]
	}
	return styles.Primary.Render(string(out))
}

func (m Model) renderLogs(width int) string {
	if m.logs == nil {
		return m.spinner.View() + " Fetching system logs..."
	}
	l := m.logs

	head := styles.Title.Render("System Logs") + "  " + styles.ConnectionDot(l.Connected)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Threats", humanize.Comma(int64(l.Stats.TotalThreats))),
		card("Top threat", l.Stats.TopThreatType),
		card("Logs (24h)", humanize.Comma(l.Count24h)),
	)

	var b strings.Builder
	b.WriteString(head + "\n" + cards + "\n\n")

	if len(l.Stats.Distribution) > 0 {
		b.WriteString(styles.TableHeader.Render("Distribution") + "\n")
		for _, d := range l.Stats.Distribution {
			b.WriteString(fmt.Sprintf("%-24s %8s\n", util.Truncate(d.Type, 24), humanize.Comma(int64(d.Count))))
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.TableHeader.Render(fmt.Sprintf("%-19s %-18s %-15s %-14s %s",
		"Detected", "Type", "Source", "Host", "Process")) + "\n")
	if len(l.Logs) == 0 {
		b.WriteString(styles.Muted.Render("no threat logs") + "\n")
	}
	for _, entry := range l.Logs {
		row := fmt.Sprintf("%-19s %-18s %-15s %-14s %s",
			monitor.FormatDateTime(entry.DetectedAt), util.Truncate(entry.AttackType, 18),
			entry.SourceAddress, util.Truncate(entry.Hostname, 14), entry.ProcessName)
		b.WriteString(util.Truncate(row, width) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMyPage(st appstate.State) string {
	if st.User == nil {
		return styles.Muted.Render("No profile loaded.")
	}
	u := st.User
	field := func(name, value string) string {
		if value == "" {
			value = "-"
		}
		return styles.Muted.Render(fmt.Sprintf("%-16s", name)) + value
	}
	return strings.Join([]string{
		styles.Title.Render("My Page"),
		field("Employee number", u.EmpNumber),
		field("Name", u.Name),
		field("Email", u.Email),
		field("Phone", u.Phone),
		"",
		styles.Muted.Render("Change your password with `watchdesk passwd`."),
	}, "\n")
}
