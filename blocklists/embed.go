// Package blocklists embeds the builtin pattern lists for compile-time
// inclusion. Each list is a plain text file: one pattern per line, blank
// lines and #-comments ignored.
//
// Usage:
//
//	patterns, err := blocklist.Resolve("builtin:secrets")
package blocklists

import "embed"

//go:embed *.txt
var FS embed.FS
