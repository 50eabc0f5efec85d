package app

import (
	"time"

	"github.com/corey/sieve/internal/adapters/bbolt"
	"github.com/corey/sieve/internal/domain/automaton"
	"github.com/corey/sieve/internal/domain/blocklist"
	"github.com/corey/sieve/internal/ports"
)

// BuildEngine compiles a pattern list into a blocklist engine, consulting
// the table cache first. Any cache anomaly — miss, expiry, version mismatch,
// or a table that fails validation — falls back to a fresh build, and a
// fresh build is written back to the cache. A nil store builds directly
// (used when the cache database is unavailable).
//
// The returned bool reports whether the engine came from the cache.
func BuildEngine(store ports.TableStore, patterns []string, maxAge time.Duration) (*blocklist.Engine, bool, error) {
	if store != nil {
		key := bbolt.KeyForPatterns(patterns)
		if tbl, err := store.LoadTable(key, maxAge); err == nil && tbl != nil {
			if ac, err := automaton.FromTable(tbl); err == nil {
				return blocklist.NewFromAutomaton(ac), true, nil
			}
			// Cached table failed validation — drop it and rebuild
			_ = store.DeleteTable(key)
		}
	}

	eng, err := blocklist.New(patterns)
	if err != nil {
		return nil, false, err
	}
	if store != nil {
		_ = store.SaveTable(bbolt.KeyForPatterns(patterns), eng.Table())
	}
	return eng, false, nil
}
