package cmd

import (
	"github.com/corey/sieve/internal/adapters/bbolt"
	"github.com/corey/sieve/internal/adapters/socket"
	"github.com/corey/sieve/internal/app"
	"github.com/corey/sieve/internal/domain/blocklist"
	"github.com/corey/sieve/internal/ports"
)

// loadEngine resolves the configured pattern source and compiles it,
// going through the table cache when the database is free.
func loadEngine() (*blocklist.Engine, error) {
	patterns, err := blocklist.Resolve(listSource())
	if err != nil {
		return nil, err
	}

	var store ports.TableStore
	if s := openCache(); s != nil {
		defer s.Close()
		store = s
	}

	eng, _, err := app.BuildEngine(store, patterns, 0)
	return eng, err
}

// openCache opens the table cache for one-shot commands, best effort.
// A running daemon for this source holds the database lock, so skip the
// cache rather than stall on the file lock; any other failure degrades
// to a direct build.
func openCache() *bbolt.Store {
	if socket.NewClient(socket.SocketPath(listSource())).Ping() {
		return nil
	}

	paths := app.NewPaths(app.DefaultRoot())
	if err := paths.EnsureDirs(); err != nil {
		return nil
	}
	store, err := bbolt.NewStore(paths.DB)
	if err != nil {
		return nil
	}
	return store
}
