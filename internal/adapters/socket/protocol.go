// Package socket implements a JSON-over-Unix-socket protocol for the sieve daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
)

// SocketPath returns the Unix socket path for a given pattern source, so
// daemons serving different blocklists never collide. File sources are
// resolved to absolute paths first; builtin sources ("builtin:...") are
// hashed as-is.
// Format: /tmp/sieve-{first12hex}.sock
func SocketPath(source string) string {
	key := source
	if !strings.HasPrefix(source, "builtin:") {
		if abs, err := filepath.Abs(source); err == nil {
			key = abs
		}
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("/tmp/sieve-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodPing   = "ping"
	MethodScan   = "scan"
	MethodCheck  = "check"
	MethodRedact = "redact"
	MethodStats  = "stats"
	MethodReload = "reload"
	MethodStop   = "stop"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// PingResult is the result of a ping request.
type PingResult struct {
	Status   string `json:"status"`
	Patterns int    `json:"patterns"`
	Nodes    int    `json:"nodes"`
	Uptime   string `json:"uptime"`
}

// ScanParams is the params for a scan request.
type ScanParams struct {
	Text string `json:"text"`
}

// Finding is a single blocklist hit (wire format); it mirrors
// blocklist.Finding. Line and Column are 1-based and Column counts
// codepoints, not bytes.
type Finding struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Pattern string `json:"pattern"`
}

// ScanResult is the result of a scan request.
type ScanResult struct {
	Findings []Finding `json:"findings,omitempty"`
	Count    int       `json:"count"`
	Elapsed  string    `json:"elapsed"`
}

// CheckParams is the params for a check request.
type CheckParams struct {
	Text string `json:"text"`
}

// CheckResult is the result of a check request.
type CheckResult struct {
	Found bool `json:"found"`
}

// RedactParams is the params for a redact request. Replacement must be a
// single codepoint; empty selects the default '*'.
type RedactParams struct {
	Text        string `json:"text"`
	Replacement string `json:"replacement,omitempty"`
}

// RedactResult is the result of a redact request. Changed is false when
// no pattern matched and the text came back untouched.
type RedactResult struct {
	Text    string `json:"text"`
	Changed bool   `json:"changed"`
}

// StatsResult is the result of a stats request.
type StatsResult struct {
	Patterns   int    `json:"patterns"`
	Nodes      int    `json:"nodes"`
	Scans      uint64 `json:"scans"`
	Matches    uint64 `json:"matches"`
	Rebuilds   uint64 `json:"rebuilds"`
	LastReload string `json:"last_reload,omitempty"`
	Uptime     string `json:"uptime"`
	Source     string `json:"source"`
}

// ReloadResult is the result of a reload request.
type ReloadResult struct {
	Patterns  int   `json:"patterns"`
	Nodes     int   `json:"nodes"`
	ElapsedMs int64 `json:"elapsed_ms"`
}
