package ports

// Watcher monitors a pattern list file for changes and triggers a reload.
// The adapter (fsnotify) must absorb editor noise (atomic-rename saves,
// bursts of write events) before invoking onChange. Only one Watch call
// should be active at a time.
type Watcher interface {
	// Watch starts monitoring path. onChange is called with the absolute
	// path after each settled change. The callback may be invoked from
	// any goroutine. Returns an error if the file's directory doesn't
	// exist or permissions are insufficient.
	Watch(path string, onChange func(path string)) error

	// Stop ends monitoring and releases all resources. After Stop
	// returns, no further onChange calls will fire. Safe to call
	// multiple times.
	Stop() error
}
