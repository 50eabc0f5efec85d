package app

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/corey/sieve/internal/adapters/socket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeList writes a pattern list file and returns its path.
func writeList(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

// newTestApp builds an app rooted in a temp dir with a test-local socket.
func newTestApp(t *testing.T, source string) *App {
	t.Helper()
	a, err := New(Config{
		Source:   source,
		Root:     filepath.Join(t.TempDir(), "state"),
		SockPath: filepath.Join(t.TempDir(), "d.sock"),
	})
	require.NoError(t, err)
	return a
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern source required")
}

func TestNew_BuiltinSourceHasNoWatcher(t *testing.T) {
	a := newTestApp(t, "builtin:secrets")
	defer a.Stop()

	assert.Nil(t, a.Watcher, "builtin lists cannot change on disk")
	assert.Greater(t, a.Engine.Stats().Patterns, 0)
}

func TestNew_SecondBuildComesFromCache(t *testing.T) {
	list := writeList(t, "AKIA\npassword\n")
	root := filepath.Join(t.TempDir(), "state")

	a1, err := New(Config{Source: list, Root: root, SockPath: filepath.Join(t.TempDir(), "a.sock")})
	require.NoError(t, err)
	assert.False(t, a1.FromCache)
	a1.Stop()

	a2, err := New(Config{Source: list, Root: root, SockPath: filepath.Join(t.TempDir(), "b.sock")})
	require.NoError(t, err)
	assert.True(t, a2.FromCache, "same list should hit the table cache")
	a2.Stop()
}

func TestApp_ServesScansOverSocket(t *testing.T) {
	list := writeList(t, "AKIA\npassword\n")
	a := newTestApp(t, list)
	require.NoError(t, a.Start())
	defer a.Stop()

	client := socket.NewClient(a.Server.Addr())

	scan, err := client.Scan("a password and AKIA key")
	require.NoError(t, err)
	assert.Equal(t, 2, scan.Count)

	check, err := client.Check("password")
	require.NoError(t, err)
	assert.True(t, check.Found)

	redact, err := client.Redact("AKIA here", "")
	require.NoError(t, err)
	assert.Equal(t, "**** here", redact.Text)

	// Counters saw all three operations
	stats := a.StatsSnapshot()
	assert.Equal(t, uint64(3), stats.Scans)
	assert.Equal(t, uint64(4), stats.Matches)
	assert.Equal(t, list, stats.Source)
	assert.NotEmpty(t, stats.Uptime)
}

func TestApp_StatsOverSocket(t *testing.T) {
	list := writeList(t, "secret\n")
	a := newTestApp(t, list)
	require.NoError(t, a.Start())
	defer a.Stop()

	client := socket.NewClient(a.Server.Addr())

	_, err := client.Scan("one secret")
	require.NoError(t, err)

	stats, err := client.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Scans)
	assert.Equal(t, uint64(1), stats.Matches)
	assert.Equal(t, 1, stats.Patterns)
	assert.Equal(t, list, stats.Source)
}

func TestApp_ReloadViaRPC(t *testing.T) {
	list := writeList(t, "alpha\n")
	a := newTestApp(t, list)

	// Change the list before the watcher starts so the RPC is the only
	// reload trigger and the counter assertions stay exact.
	require.NoError(t, os.WriteFile(list, []byte("alpha\nbeta\n"), 0644))

	require.NoError(t, a.Start())
	defer a.Stop()

	client := socket.NewClient(a.Server.Addr())

	reloaded, err := client.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Patterns)

	// The serving engine swapped in place
	check, err := client.Check("beta")
	require.NoError(t, err)
	assert.True(t, check.Found)

	stats := a.StatsSnapshot()
	assert.Equal(t, uint64(1), stats.Rebuilds)
	assert.NotEmpty(t, stats.LastReload)
}

func TestApp_ReloadFailureKeepsServing(t *testing.T) {
	list := writeList(t, "alpha\n")
	a := newTestApp(t, list)
	require.NoError(t, a.Start())
	defer a.Stop()

	client := socket.NewClient(a.Server.Addr())

	// Empty the list — reload must refuse and keep the old automaton
	require.NoError(t, os.WriteFile(list, []byte("# nothing left\n"), 0644))

	_, err := client.Reload()
	require.Error(t, err)

	check, err := client.Check("alpha")
	require.NoError(t, err)
	assert.True(t, check.Found, "old patterns must keep serving after failed reload")
}

func TestApp_WatcherTriggersReload(t *testing.T) {
	list := writeList(t, "alpha\n")
	a := newTestApp(t, list)
	require.NoError(t, a.Start())
	defer a.Stop()

	client := socket.NewClient(a.Server.Addr())

	require.NoError(t, os.WriteFile(list, []byte("alpha\nbeta\ngamma\n"), 0644))

	assert.Eventually(t, func() bool {
		info, err := client.Info()
		return err == nil && info.Patterns == 3
	}, 3*time.Second, 50*time.Millisecond, "watcher should trigger a rebuild to 3 patterns")
}

func TestApp_PIDFileLifecycle(t *testing.T) {
	list := writeList(t, "x\n")
	a := newTestApp(t, list)
	require.NoError(t, a.Start())

	data, err := os.ReadFile(a.pidFile)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	a.Stop()

	_, err = os.Stat(a.pidFile)
	assert.True(t, os.IsNotExist(err), "pid file should be removed on stop")
}

func TestApp_WritesDaemonLog(t *testing.T) {
	list := writeList(t, "x\n")
	a := newTestApp(t, list)
	require.NoError(t, a.Start())
	a.Stop()

	data, err := os.ReadFile(a.Paths.DaemonLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"daemon started"`)
	assert.Contains(t, string(data), `"daemon stopped"`)
}
