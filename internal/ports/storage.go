// Package ports defines the interfaces (contracts) that adapters must
// implement. These are the boundaries of the hexagonal architecture: the
// app layer depends on these interfaces, never on concrete
// implementations.
package ports

import (
	"time"

	"github.com/corey/sieve/internal/domain/automaton"
)

// TableStore caches compiled automaton tables keyed by a digest of the
// pattern list that produced them. Concurrent reads are safe; writes are
// serialized by the adapter.
//
// Crash safety: SaveTable must be transactional. A crash mid-write must
// not corrupt previously committed entries.
type TableStore interface {
	// SaveTable persists a compiled table under key, overwriting any
	// prior entry.
	SaveTable(key string, table *automaton.Table) error

	// LoadTable retrieves the table stored under key. Returns nil, nil
	// on a cache miss: no entry, an entry older than maxAge (0 disables
	// the age check), or an entry that no longer decodes.
	LoadTable(key string, maxAge time.Duration) (*automaton.Table, error)

	// DeleteTable removes the entry under key. Idempotent: deleting a
	// missing entry is not an error.
	DeleteTable(key string) error

	// Close releases the underlying database.
	Close() error
}
