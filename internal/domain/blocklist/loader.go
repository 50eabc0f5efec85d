// Package blocklist turns pattern lists into a scanning engine. Lists are
// plain text, one pattern per line; the engine wraps an automaton behind a
// read-write lock so a running process can swap in a rebuilt list without
// interrupting concurrent scans.
package blocklist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoPatterns is returned when a list contains nothing usable after
// stripping blanks and comments.
var ErrNoPatterns = errors.New("blocklist: no usable patterns")

// maxLineBytes caps a single list line. Anything longer is a config file
// fed in by mistake, not a pattern.
const maxLineBytes = 1024 * 1024

// Parse reads one pattern per line. Leading and trailing whitespace is
// trimmed, blank lines are skipped, and lines starting with # are
// comments. Duplicates survive here; the automaton builder drops them.
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var patterns []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	return patterns, nil
}

// LoadFile reads a pattern list from disk.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	patterns, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return patterns, nil
}
