package app

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths holds all resolved filesystem paths for the ~/.sieve state directory.
// All fields are pre-computed strings — zero-alloc access after construction.
type Paths struct {
	Root string // ~/.sieve/
	DB   string // ~/.sieve/cache.db

	LogDir    string // ~/.sieve/log/
	DaemonLog string // ~/.sieve/log/daemon.log

	RunDir string // ~/.sieve/run/
}

// DefaultRoot returns the state directory, honoring the SIEVE_HOME override.
func DefaultRoot() string {
	if env := os.Getenv("SIEVE_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sieve")
}

// NewPaths constructs all resolved paths from a state root directory.
func NewPaths(root string) *Paths {
	return &Paths{
		Root: root,
		DB:   filepath.Join(root, "cache.db"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir: filepath.Join(root, "run"),
	}
}

// EnsureDirs creates all subdirectories under the root. Idempotent.
func (p *Paths) EnsureDirs() error {
	dirs := []string{
		p.Root,
		p.LogDir,
		p.RunDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// PIDFile returns the pid file path for a daemon bound to the given socket.
// Daemons are per pattern source, so the pid file shares the socket's name.
func (p *Paths) PIDFile(sockPath string) string {
	base := strings.TrimSuffix(filepath.Base(sockPath), ".sock")
	return filepath.Join(p.RunDir, base+".pid")
}
