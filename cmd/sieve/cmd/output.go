package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/sieve/internal/adapters/socket"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

// formatDaemonStatus formats a ping result for terminal display.
func formatDaemonStatus(p *socket.PingResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ sieve daemon%s\n", colorBold, colorReset))
	sb.WriteString(fmt.Sprintf("  Status:    %s%s%s\n", colorGreen, p.Status, colorReset))
	sb.WriteString(fmt.Sprintf("  Patterns:  %d\n", p.Patterns))
	sb.WriteString(fmt.Sprintf("  Nodes:     %d\n", p.Nodes))
	sb.WriteString(fmt.Sprintf("  Uptime:    %s\n", p.Uptime))
	return sb.String()
}

// formatStats formats daemon counters for terminal display.
func formatStats(s *socket.StatsResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ sieve daemon%s │ %s\n", colorBold, colorReset, s.Source))
	sb.WriteString(fmt.Sprintf("  Patterns:  %d\n", s.Patterns))
	sb.WriteString(fmt.Sprintf("  Nodes:     %d\n", s.Nodes))
	sb.WriteString(fmt.Sprintf("  Scans:     %d\n", s.Scans))
	sb.WriteString(fmt.Sprintf("  Matches:   %d\n", s.Matches))
	sb.WriteString(fmt.Sprintf("  Rebuilds:  %d\n", s.Rebuilds))
	if s.LastReload != "" {
		sb.WriteString(fmt.Sprintf("  Reloaded:  %s\n", s.LastReload))
	}
	sb.WriteString(fmt.Sprintf("  Uptime:    %s\n", s.Uptime))
	return sb.String()
}

// formatBytes renders a byte count for humans.
func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
