package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// TrafficStats returns the cumulative traffic counters.
func (c *Client) TrafficStats(ctx context.Context) (TrafficStats, error) {
	var s TrafficStats
	err := c.get(ctx, c.dataURL, "/api/dashboard/traffic/stats", authOptional, &s)
	return s, err
}

// TrafficOverTime returns the latest per-second traffic samples.
func (c *Client) TrafficOverTime(ctx context.Context) (TrafficOverTime, error) {
	var t TrafficOverTime
	err := c.get(ctx, c.dataURL, "/api/dashboard/traffic/traffic-over-time", authOptional, &t)
	return t, err
}

// TopPorts returns the busiest destination ports over the last minutes.
func (c *Client) TopPorts(ctx context.Context, minutes int) ([]PortCount, error) {
	var ports []PortCount
	path := "/api/dashboard/traffic/top-ports?minutes=" + strconv.Itoa(minutes)
	err := c.get(ctx, c.dataURL, path, authOptional, &ports)
	return ports, err
}

// Attacks returns the detected attacks, newest first.
func (c *Client) Attacks(ctx context.Context) (Attacks, error) {
	var a Attacks
	err := c.get(ctx, c.dataURL, "/api/dashboard/traffic/attacks", authOptional, &a)
	return a, err
}

// LogStats returns the system-log threat summary.
func (c *Client) LogStats(ctx context.Context) (LogStats, error) {
	var s LogStats
	err := c.get(ctx, c.dataURL, "/api/dashboard/logs/stats", authOptional, &s)
	return s, err
}

// LogCount24h returns the number of logs collected in the last 24 hours.
func (c *Client) LogCount24h(ctx context.Context) (int64, error) {
	var n logCount
	err := c.get(ctx, c.dataURL, "/api/dashboard/logs/count-24h", authOptional, &n)
	return n.Count, err
}

// ThreatLogs returns a page of recent threat logs.
func (c *Client) ThreatLogs(ctx context.Context, skip, limit int) ([]ThreatLog, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var logs []ThreatLog
	err := c.get(ctx, c.dataURL, "/api/dashboard/logs/list?"+q.Encode(), authOptional, &logs)
	return logs, err
}

// DownloadAgent streams the agent installer archive into w and returns the
// number of bytes written.
func (c *Client) DownloadAgent(ctx context.Context, w io.Writer) (int64, error) {
	cl := call{method: http.MethodGet, base: c.dataURL, path: "/api/agent/download", auth: authRequired}
	resp, err := c.send(ctx, cl)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write agent installer: %w", err)
	}
	return n, nil
}
