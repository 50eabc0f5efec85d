// Package bbolt implements the ports.TableStore interface using bbolt
// (embedded B+ tree). Compiled automaton tables are cached under a digest
// of the pattern list that produced them, so any process handed the same
// list skips the build. Writes are transactional — a crash mid-write
// cannot corrupt previously committed entries.
package bbolt

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/corey/sieve/internal/domain/automaton"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketTables = []byte("tables")
	bucketMeta   = []byte("meta")
)

// Store implements ports.TableStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// KeyForPatterns derives the cache key for a pattern list: SHA-256 over
// the length-prefixed patterns, hex-encoded. Length prefixes keep lists
// like ["ab","c"] and ["a","bc"] from colliding.
func KeyForPatterns(patterns []string) string {
	h := sha256.New()
	var lenBuf [4]byte
	for _, p := range patterns {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p)))
		h.Write(lenBuf[:])
		io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// entryMeta is the JSON sidecar stored alongside each table blob.
type entryMeta struct {
	SavedAt  int64  `json:"saved_at"` // unix nanoseconds
	Version  uint16 `json:"version"`
	Patterns int    `json:"patterns"`
	Nodes    int    `json:"nodes"`
}

// SaveTable persists a compiled table under key, overwriting any prior
// entry.
func (s *Store) SaveTable(key string, table *automaton.Table) error {
	blob, err := EncodeTable(table)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	metaJSON, err := json.Marshal(entryMeta{
		SavedAt:  time.Now().UnixNano(),
		Version:  tableVersion,
		Patterns: len(table.Patterns),
		Nodes:    len(table.Nodes),
	})
	if err != nil {
		return fmt.Errorf("marshal table meta: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		tb, err := tx.CreateBucketIfNotExists(bucketTables)
		if err != nil {
			return err
		}
		mb, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := tb.Put([]byte(key), blob); err != nil {
			return err
		}
		return mb.Put([]byte(key), metaJSON)
	})
}

// LoadTable retrieves the table stored under key. Returns nil, nil on any
// kind of miss: no entry, an entry older than maxAge (0 disables the age
// check), a format version this binary doesn't speak, or a blob that no
// longer decodes. The cache is an optimization; callers rebuild from the
// pattern source on a miss.
func (s *Store) LoadTable(key string, maxAge time.Duration) (*automaton.Table, error) {
	var blob, metaJSON []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		tb := tx.Bucket(bucketTables)
		if tb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tb.Get([]byte(key)); v != nil {
			blob = make([]byte, len(v))
			copy(blob, v)
		}
		if mb := tx.Bucket(bucketMeta); mb != nil {
			if v := mb.Get([]byte(key)); v != nil {
				metaJSON = make([]byte, len(v))
				copy(metaJSON, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if blob == nil || metaJSON == nil {
		return nil, nil
	}

	var meta entryMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, nil
	}
	if meta.Version != tableVersion {
		return nil, nil
	}
	if maxAge > 0 && time.Since(time.Unix(0, meta.SavedAt)) > maxAge {
		return nil, nil
	}

	table, err := DecodeTable(blob)
	if err != nil {
		return nil, nil
	}
	return table, nil
}

// DeleteTable removes the entry under key.
// Idempotent: deleting a nonexistent entry is not an error.
func (s *Store) DeleteTable(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tb := tx.Bucket(bucketTables); tb != nil {
			if err := tb.Delete([]byte(key)); err != nil {
				return err
			}
		}
		if mb := tx.Bucket(bucketMeta); mb != nil {
			return mb.Delete([]byte(key))
		}
		return nil
	})
}

// Stats summarizes the cache contents for display.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats counts cached tables and their total encoded size.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		tb := tx.Bucket(bucketTables)
		if tb == nil {
			return nil
		}
		return tb.ForEach(func(k, v []byte) error {
			st.Entries++
			st.Bytes += int64(len(v))
			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}
