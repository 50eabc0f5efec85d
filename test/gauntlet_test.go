package test

import (
	"testing"
	"time"

	"github.com/corey/sieve/internal/adapters/bbolt"
	"github.com/corey/sieve/internal/domain/automaton"
	"github.com/corey/sieve/internal/domain/blocklist"
)

// =============================================================================
// Scan Performance Gauntlet — regression suite
//
// Shape matrix covering every hot path: scan, check, redact, multi-line
// scan, build, codec, cache. Catches order-of-magnitude regressions that
// a single happy-path benchmark misses — a failure-chain walk gone
// quadratic looks fine on a clean line and explodes on dense hits.
//
// Ceilings are 50-500x above expected times: generous enough to avoid CI
// flakiness, tight enough to catch real blowups.
// =============================================================================

// gauntletState holds pre-built engines and inputs shared by gauntlet
// benchmarks and ceiling tests.
type gauntletState struct {
	small *blocklist.Engine // 25 patterns
	big   *blocklist.Engine // 2000 patterns

	patterns []string // the big engine's pattern list
	clean    string   // 4KB line, no hits
	dense    string   // 4KB line, hit every few words
	document string   // 2000-line document, hit every 10th line

	table *automaton.Table // big engine's exported table
	blob  []byte           // encoded form of table
}

func buildGauntletState(tb testing.TB) *gauntletState {
	patterns := buildPatterns(2000)

	small, err := blocklist.New(patterns[:25])
	if err != nil {
		tb.Fatalf("build small engine: %v", err)
	}
	big, err := blocklist.New(patterns)
	if err != nil {
		tb.Fatalf("build big engine: %v", err)
	}

	table := big.Table()
	blob, err := bbolt.EncodeTable(table)
	if err != nil {
		tb.Fatalf("encode table: %v", err)
	}

	return &gauntletState{
		small:    small,
		big:      big,
		patterns: patterns,
		clean:    buildCleanLine(4096),
		dense:    buildDenseLine(4096, patterns),
		document: buildDocument(2000, 10, patterns),
		table:    table,
		blob:     blob,
	}
}

type gauntletCase struct {
	name    string
	ceiling time.Duration
	run     func(s *gauntletState)
}

// gauntletCases defines the shape matrix. Each entry exercises a distinct
// code path; the comments name the path under test.
var gauntletCases = []gauntletCase{
	// --- Scan: step loop + output walk, no hits vs hit-heavy ---
	{"Scan/CleanLine", 10 * time.Millisecond, func(s *gauntletState) { s.big.Scan(s.clean) }},
	{"Scan/DenseHits", 25 * time.Millisecond, func(s *gauntletState) { s.big.Scan(s.dense) }},
	{"Scan/SmallList", 10 * time.Millisecond, func(s *gauntletState) { s.small.Scan(s.dense) }},

	// --- ScanText: line splitting + per-line scans over a document ---
	{"ScanText/Document", 50 * time.Millisecond, func(s *gauntletState) { s.big.ScanText(s.document) }},

	// --- Check: early-exit path, hit at the front vs no hit at all ---
	{"Check/Clean", 10 * time.Millisecond, func(s *gauntletState) { s.big.Check(s.clean) }},
	{"Check/EarlyHit", 5 * time.Millisecond, func(s *gauntletState) { s.big.Check(s.patterns[0] + s.clean) }},

	// --- Redact: scan + cover map + rune rewrite ---
	{"Redact/Dense", 25 * time.Millisecond, func(s *gauntletState) { s.big.Redact(s.dense, '*') }},
	{"Redact/Clean", 10 * time.Millisecond, func(s *gauntletState) { s.big.Redact(s.clean, '*') }},

	// --- Build: trie insert + BFS failure wiring for 2000 patterns ---
	{"Build/2000Patterns", 1 * time.Second, func(s *gauntletState) { _, _ = blocklist.New(s.patterns) }},

	// --- Codec: encode, decode, and full revalidation ---
	{"Codec/Encode", 100 * time.Millisecond, func(s *gauntletState) { _, _ = bbolt.EncodeTable(s.table) }},
	{"Codec/Decode", 100 * time.Millisecond, func(s *gauntletState) { _, _ = bbolt.DecodeTable(s.blob) }},
	{"Codec/Validate", 250 * time.Millisecond, func(s *gauntletState) { _, _ = automaton.FromTable(s.table) }},
}

// BenchmarkScanGauntlet runs every shape as a sub-benchmark.
// Produces benchstat-compatible output for regression tracking.
//
// Run:     go test ./test/ -bench=BenchmarkScanGauntlet -benchmem -run=^$ -count=6
// Compare: benchstat baseline.txt current.txt
func BenchmarkScanGauntlet(b *testing.B) {
	state := buildGauntletState(b)

	for _, tc := range gauntletCases {
		tc := tc
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				tc.run(state)
			}
		})
	}
}

// TestScanGauntlet_Ceiling is the canary that runs during `go test ./...`.
// Each shape must complete under its ceiling. One warmup run, then one
// measured run per shape — catches explosive regressions in CI.
func TestScanGauntlet_Ceiling(t *testing.T) {
	state := buildGauntletState(t)

	// Warmup: run each shape once to prime any lazy init
	for _, tc := range gauntletCases {
		tc.run(state)
	}

	// Measured run: assert each shape completes under its ceiling
	for _, tc := range gauntletCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			tc.run(state)
			elapsed := time.Since(start)

			t.Logf("%-25s %v (ceiling: %v)", tc.name, elapsed, tc.ceiling)
			if elapsed > tc.ceiling {
				t.Errorf("CEILING BREACH: %s took %v, ceiling is %v (%.1fx over)",
					tc.name, elapsed, tc.ceiling, float64(elapsed)/float64(tc.ceiling))
			}
		})
	}
}
