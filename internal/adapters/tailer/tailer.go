// Package tailer follows a growing file and emits each appended line,
// the input side of `sieve tail` (scan a log as it is written).
package tailer

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"
)

// Lines above this size are skipped rather than scanned (binary blobs or
// minified dumps logged by accident).
const maxLineBytes = 512 * 1024

// Tailer polls a file for appended lines and feeds them to a callback.
//
// It seeks to the end on start (skipping old history, unless FromStart is
// set) and reopens the file by path on every poll, so rename-style rotation
// is picked up on the next cycle and in-place truncation resets the offset.
//
// Thread-safe: Start/Stop can be called from any goroutine.
type Tailer struct {
	path         string
	pollInterval time.Duration
	fromStart    bool

	callback func(line string) // called for each complete appended line

	offset int64 // touched only by the poll goroutine

	mu      sync.Mutex
	done    chan struct{}
	started chan struct{} // closed after initial positioning
	wg      sync.WaitGroup
}

// Config holds parameters for creating a Tailer.
type Config struct {
	// Path is the file to follow. It does not need to exist yet; lines are
	// picked up once it appears.
	Path string

	// PollInterval is how often to check for new lines. Default: 500ms.
	PollInterval time.Duration

	// FromStart replays the file from the beginning instead of seeking to
	// the end on start.
	FromStart bool

	// Callback is called for each appended line, without its trailing
	// newline. Must be non-nil.
	Callback func(line string)
}

// New creates a Tailer. Does not start tailing until Start() is called.
func New(cfg Config) *Tailer {
	interval := cfg.PollInterval
	if interval == 0 {
		interval = 500 * time.Millisecond
	}

	return &Tailer{
		path:         cfg.Path,
		pollInterval: interval,
		fromStart:    cfg.FromStart,
		callback:     cfg.Callback,
		done:         make(chan struct{}),
		started:      make(chan struct{}),
	}
}

// Start begins the tailing loop in a background goroutine.
func (t *Tailer) Start() {
	t.wg.Add(1)
	go t.loop()
}

// Stop terminates the tailing loop and waits for it to finish.
// Safe to call multiple times.
func (t *Tailer) Stop() {
	t.mu.Lock()
	select {
	case <-t.done:
		// Already stopped
		t.mu.Unlock()
		return
	default:
		close(t.done)
	}
	t.mu.Unlock()
	t.wg.Wait()
}

// Path returns the file being followed.
func (t *Tailer) Path() string {
	return t.path
}

// Started returns a channel that closes after initial positioning completes.
// Useful for tests that need to wait for the tailer to be ready before writing.
func (t *Tailer) Started() <-chan struct{} {
	return t.started
}

func (t *Tailer) loop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	// Initial positioning — skip whatever is already in the file
	if !t.fromStart {
		if info, err := os.Stat(t.path); err == nil {
			t.offset = info.Size()
		}
	}
	close(t.started)

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.readNewLines()
		}
	}
}

// readNewLines reads any content appended since the last poll.
// Uses ReadBytes('\n') to track exact byte offsets (bufio.Scanner
// reads ahead and corrupts file position tracking).
func (t *Tailer) readNewLines() {
	f, err := os.Open(t.path)
	if err != nil {
		return // file gone or not created yet — skip this cycle
	}
	defer f.Close()

	// Check if file was truncated (rewritten or rotated in place)
	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < t.offset {
		t.offset = 0
	}

	if info.Size() == t.offset {
		return // no new data
	}

	// Seek to last known position
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return
	}

	reader := bufio.NewReaderSize(f, 2*1024*1024) // 2MB buffer

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// Hold back a trailing line with no newline yet — the writer
			// is mid-append; it is re-read complete on the next poll.
			break
		}

		// Track consumed bytes (including the newline)
		t.offset += int64(len(line))

		line = trimNewline(line)
		if len(line) == 0 {
			continue
		}
		if len(line) > maxLineBytes {
			continue
		}

		if t.callback != nil {
			t.callback(string(line))
		}
	}
}

// trimNewline removes trailing \n and \r\n from a line.
func trimNewline(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line
}
