package blocklist

import (
	"strings"
	"sync"
	"time"

	"github.com/corey/sieve/internal/domain/automaton"
)

// Observer is called after every engine operation with the operation name,
// the number of matches it produced, and the elapsed time. Used by the app
// layer to keep daemon counters without the engine knowing about them.
type Observer func(op string, matches int, elapsed time.Duration)

// Engine is a swappable automaton. Scans run lock-free on an immutable
// snapshot; Rebuild constructs a fresh automaton off to the side and swaps
// the pointer under a short write lock, so long-running scans never block
// a reload and vice versa.
type Engine struct {
	mu        sync.RWMutex
	ac        *automaton.Automaton
	builtAt   time.Time
	buildTime time.Duration
	observer  Observer
}

// Stats is a point-in-time snapshot of the engine.
type Stats struct {
	Patterns  int
	Nodes     int
	BuiltAt   time.Time
	BuildTime time.Duration
}

// Finding locates one pattern hit inside multi-line text. Line and Column
// are 1-based; Column counts codepoints from the start of the line.
type Finding struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Pattern string `json:"pattern"`
}

// New builds an engine from a pattern list.
func New(patterns []string) (*Engine, error) {
	e := &Engine{}
	if err := e.Rebuild(patterns); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFromAutomaton wraps an already-built automaton, e.g. one restored
// from the table cache.
func NewFromAutomaton(a *automaton.Automaton) *Engine {
	return &Engine{ac: a, builtAt: time.Now()}
}

// SetObserver installs the post-operation hook. Pass nil to remove it.
// Not safe to call concurrently with scans; install before serving.
func (e *Engine) SetObserver(fn Observer) {
	e.observer = fn
}

// current returns the active automaton snapshot. Callers operate on the
// snapshot without holding the lock; a concurrent Rebuild swaps the
// pointer but never mutates a published automaton.
func (e *Engine) current() *automaton.Automaton {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ac
}

// Rebuild constructs an automaton from patterns and swaps it in. On error
// the previous automaton stays active.
func (e *Engine) Rebuild(patterns []string) error {
	start := time.Now()
	a, err := automaton.New(patterns)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	e.mu.Lock()
	e.ac = a
	e.builtAt = time.Now()
	e.buildTime = elapsed
	e.mu.Unlock()

	e.observe("rebuild", a.PatternCount(), elapsed)
	return nil
}

// Scan returns every pattern occurrence in text.
func (e *Engine) Scan(text string) []automaton.Match {
	start := time.Now()
	matches := e.current().Search(text)
	e.observe("scan", len(matches), time.Since(start))
	return matches
}

// Check reports whether text contains any pattern, stopping at the first
// hit.
func (e *Engine) Check(text string) bool {
	start := time.Now()
	found := e.current().ContainsAny(text)
	hits := 0
	if found {
		hits = 1
	}
	e.observe("check", hits, time.Since(start))
	return found
}

// Redact replaces every codepoint covered by a match with replacement.
func (e *Engine) Redact(text string, replacement rune) string {
	start := time.Now()
	out := e.current().Redact(text, replacement)
	changed := 0
	if out != text {
		changed = 1
	}
	e.observe("redact", changed, time.Since(start))
	return out
}

// ScanText scans multi-line text and reports findings by line and column.
// Lines are split on \n with a trailing \r dropped, so CRLF input reports
// the same columns as LF input.
func (e *Engine) ScanText(text string) []Finding {
	start := time.Now()
	ac := e.current()

	var findings []Finding
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		for _, m := range ac.Search(line) {
			findings = append(findings, Finding{
				Line:    i + 1,
				Column:  m.Start + 1,
				Pattern: m.Pattern,
			})
		}
	}
	e.observe("scan", len(findings), time.Since(start))
	return findings
}

// Table exports the active automaton for caching.
func (e *Engine) Table() *automaton.Table {
	return e.current().Table()
}

// Stats snapshots the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Patterns:  e.ac.PatternCount(),
		Nodes:     e.ac.NodeCount(),
		BuiltAt:   e.builtAt,
		BuildTime: e.buildTime,
	}
}

func (e *Engine) observe(op string, matches int, elapsed time.Duration) {
	if e.observer != nil {
		e.observer(op, matches, elapsed)
	}
}
