package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/corey/sieve/internal/domain/blocklist"
)

// AppQueries provides read access to app state for server handlers.
// Thread safety is the implementor's responsibility.
type AppQueries interface {
	StatsSnapshot() StatsResult
	Reload() (ReloadResult, error)
}

// Server is the daemon that listens on a Unix socket and serves scan requests.
type Server struct {
	engine   *blocklist.Engine
	queries  AppQueries
	listener net.Listener
	sockPath string
	started  time.Time

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote stop request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server backed by the given blocklist engine.
// The queries parameter may be nil if stats/reload features are not needed.
func NewServer(engine *blocklist.Engine, sockPath string, queries AppQueries) *Server {
	return &Server{
		engine:     engine,
		queries:    queries,
		sockPath:   sockPath,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first — if the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	// Handle stale socket
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket — remove it
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent — safe to call multiple times (e.g., after remote stop + signal).
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote stop request
// is received. The daemon's main goroutine should select on this alongside
// OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodStop {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodPing:
		return s.handlePing(req)
	case MethodScan:
		return s.handleScan(req)
	case MethodCheck:
		return s.handleCheck(req)
	case MethodRedact:
		return s.handleRedact(req)
	case MethodStats:
		return s.handleStats(req)
	case MethodReload:
		return s.handleReload(req)
	case MethodStop:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

func (s *Server) handlePing(req Request) Response {
	stats := s.engine.Stats()
	return Response{
		ID: req.ID,
		Result: PingResult{
			Status:   "ok",
			Patterns: stats.Patterns,
			Nodes:    stats.Nodes,
			Uptime:   time.Since(s.started).Round(time.Second).String(),
		},
	}
}

func (s *Server) handleScan(req Request) Response {
	// Re-marshal params to decode into ScanParams
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: "invalid scan params"}
	}
	var params ScanParams
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid scan params"}
	}

	start := time.Now()
	found := s.engine.ScanText(params.Text)
	elapsed := time.Since(start)

	findings := make([]Finding, len(found))
	for i, f := range found {
		findings[i] = Finding{
			Line:    f.Line,
			Column:  f.Column,
			Pattern: f.Pattern,
		}
	}

	return Response{
		ID: req.ID,
		Result: ScanResult{
			Findings: findings,
			Count:    len(findings),
			Elapsed:  elapsed.String(),
		},
	}
}

func (s *Server) handleCheck(req Request) Response {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: "invalid check params"}
	}
	var params CheckParams
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid check params"}
	}

	return Response{
		ID:     req.ID,
		Result: CheckResult{Found: s.engine.Check(params.Text)},
	}
}

func (s *Server) handleRedact(req Request) Response {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: "invalid redact params"}
	}
	var params RedactParams
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid redact params"}
	}

	replacement := '*'
	if params.Replacement != "" {
		if utf8.RuneCountInString(params.Replacement) != 1 {
			return Response{ID: req.ID, Error: "replacement must be a single character"}
		}
		replacement, _ = utf8.DecodeRuneInString(params.Replacement)
	}

	redacted := s.engine.Redact(params.Text, replacement)
	return Response{
		ID: req.ID,
		Result: RedactResult{
			Text:    redacted,
			Changed: redacted != params.Text,
		},
	}
}

func (s *Server) handleStats(req Request) Response {
	if s.queries == nil {
		return Response{ID: req.ID, Error: "stats not available"}
	}
	return Response{ID: req.ID, Result: s.queries.StatsSnapshot()}
}

func (s *Server) handleReload(req Request) Response {
	if s.queries == nil {
		return Response{ID: req.ID, Error: "reload not available"}
	}

	result, err := s.queries.Reload()
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
