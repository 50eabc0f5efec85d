// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the sieve daemon: create, start, stop.
package app

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/corey/sieve/internal/adapters/bbolt"
	fsw "github.com/corey/sieve/internal/adapters/fsnotify"
	"github.com/corey/sieve/internal/adapters/socket"
	"github.com/corey/sieve/internal/domain/blocklist"
	"github.com/corey/sieve/internal/ports"
)

// Config holds initialization parameters for the App.
type Config struct {
	// Source is the pattern source: a file path or "builtin:NAME". Required.
	Source string

	// Root is the state directory (default: ~/.sieve, see DefaultRoot).
	Root string

	// CacheTTL is the max age for cached tables. 0 = never expire.
	CacheTTL time.Duration

	// SockPath overrides the socket path (tests). Default: derived from Source.
	SockPath string
}

// App is the top-level container wiring all components together.
type App struct {
	Source string
	Paths  *Paths

	Store   *bbolt.Store
	Engine  *blocklist.Engine
	Watcher ports.Watcher // nil for builtin sources (nothing on disk to watch)
	Server  *socket.Server

	FromCache bool // whether the initial engine came from the table cache

	log     zerolog.Logger
	logFile *os.File
	pidFile string

	// Counters served by the stats method (ephemeral, reset on restart)
	mu         sync.Mutex
	scans      uint64
	matches    uint64
	rebuilds   uint64
	lastReload time.Time
	started    time.Time
}

// New creates an App with all dependencies wired. Does not start services.
func New(cfg Config) (*App, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("pattern source required")
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot()
	}

	paths := NewPaths(cfg.Root)
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	logFile, err := os.OpenFile(paths.DaemonLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}
	logger := zerolog.New(logFile).With().Timestamp().Logger()

	store, err := bbolt.NewStore(paths.DB)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	patterns, err := blocklist.Resolve(cfg.Source)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, err
	}

	engine, fromCache, err := BuildEngine(store, patterns, cfg.CacheTTL)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}

	// Builtin lists are compiled in — only file sources can change under us.
	var watcher ports.Watcher
	if !blocklist.IsBuiltin(cfg.Source) {
		w, err := fsw.NewWatcher()
		if err != nil {
			store.Close()
			logFile.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		watcher = w
	}

	sockPath := cfg.SockPath
	if sockPath == "" {
		sockPath = socket.SocketPath(cfg.Source)
	}

	a := &App{
		Source:    cfg.Source,
		Paths:     paths,
		Store:     store,
		Engine:    engine,
		Watcher:   watcher,
		FromCache: fromCache,
		log:       logger,
		logFile:   logFile,
		pidFile:   paths.PIDFile(sockPath),
	}

	// Create server with App as query provider (for stats and reload)
	a.Server = socket.NewServer(engine, sockPath, a)

	// Wire engine observer: every scan/redact bumps the daemon counters
	engine.SetObserver(a.engineObserver)

	return a, nil
}

// Start begins serving: socket listener, pattern-file watcher, pid file.
func (a *App) Start() error {
	a.mu.Lock()
	a.started = time.Now()
	a.mu.Unlock()

	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	// Record pid — non-fatal, stop falls back to the socket anyway
	if err := os.WriteFile(a.pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		fmt.Printf("[warning] pid file unavailable: %v\n", err)
	}

	// Watch the pattern file — non-fatal if setup fails
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.Source, a.onListChanged); err != nil {
			fmt.Printf("[warning] file watcher unavailable: %v\n", err)
		}
	}

	stats := a.Engine.Stats()
	a.log.Info().
		Str("source", a.Source).
		Str("socket", a.Server.Addr()).
		Int("patterns", stats.Patterns).
		Int("nodes", stats.Nodes).
		Bool("from_cache", a.FromCache).
		Msg("daemon started")

	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.Server.Stop()
	os.Remove(a.pidFile)
	a.Store.Close()
	a.log.Info().Str("source", a.Source).Msg("daemon stopped")
	a.logFile.Close()
	return nil
}

// engineObserver accumulates daemon counters from engine operations.
func (a *App) engineObserver(op string, matches int, elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch op {
	case "scan", "check", "redact":
		a.scans++
		a.matches += uint64(matches)
	case "rebuild":
		a.rebuilds++
		a.lastReload = time.Now()
	}
}

// onListChanged is the watcher callback: rebuild from the pattern file and
// swap the automaton. A failed reload (file mid-save, empty, unreadable)
// keeps the current automaton serving and retries on the next event.
func (a *App) onListChanged(path string) {
	result, err := a.Reload()
	if err != nil {
		a.log.Warn().Str("path", path).Err(err).Msg("reload failed, keeping current patterns")
		return
	}
	a.log.Info().
		Str("path", path).
		Int("patterns", result.Patterns).
		Int("nodes", result.Nodes).
		Int64("elapsed_ms", result.ElapsedMs).
		Msg("patterns reloaded")
}

// Reload re-resolves the pattern source, rebuilds the automaton, and swaps
// it in. Implements socket.AppQueries.
func (a *App) Reload() (socket.ReloadResult, error) {
	patterns, err := blocklist.Resolve(a.Source)
	if err != nil {
		return socket.ReloadResult{}, err
	}

	start := time.Now()
	if err := a.Engine.Rebuild(patterns); err != nil {
		return socket.ReloadResult{}, err
	}
	elapsed := time.Since(start)

	// Refresh the cache so the next cold start skips the build
	_ = a.Store.SaveTable(bbolt.KeyForPatterns(patterns), a.Engine.Table())

	stats := a.Engine.Stats()
	return socket.ReloadResult{
		Patterns:  stats.Patterns,
		Nodes:     stats.Nodes,
		ElapsedMs: elapsed.Milliseconds(),
	}, nil
}

// StatsSnapshot returns the daemon's counters. Implements socket.AppQueries.
func (a *App) StatsSnapshot() socket.StatsResult {
	a.mu.Lock()
	scans, matches, rebuilds := a.scans, a.matches, a.rebuilds
	lastReload := a.lastReload
	started := a.started
	a.mu.Unlock()

	stats := a.Engine.Stats()
	result := socket.StatsResult{
		Patterns: stats.Patterns,
		Nodes:    stats.Nodes,
		Scans:    scans,
		Matches:  matches,
		Rebuilds: rebuilds,
		Uptime:   time.Since(started).Round(time.Second).String(),
		Source:   a.Source,
	}
	if !lastReload.IsZero() {
		result.LastReload = lastReload.Format(time.RFC3339)
	}
	return result
}
