package ytrace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// acceptPollInterval bounds how long the accept loop blocks before
	// re-checking the shutdown flag.
	acceptPollInterval = 1 * time.Second

	// connReadTimeout bounds how long a single client can stall without
	// sending a complete command. Without it, a client that never sends a
	// newline could delay shutdown indefinitely.
	connReadTimeout = 5 * time.Second

	connWriteTimeout = 5 * time.Second
)

// Server is the control channel endpoint: a unix socket served by one
// background goroutine, accepting one client at a time. Each connection
// carries exactly one newline-terminated command and one response; there is
// no pipelining and no streaming. This is an operational side-channel for a
// trusted local operator, not a throughput path.
type Server struct {
	registry *Registry
	path     string

	ln   *net.UnixListener
	stop chan struct{}
	done chan struct{}
}

// NewServer returns a server for the registry, bound to the process default
// socket path but not yet started.
func NewServer(r *Registry) *Server {
	return &Server{
		registry: r,
		path:     DefaultSocketPath(),
	}
}

// SetPath overrides the socket path. Must be called before Start.
func (s *Server) SetPath(path string) *Server {
	s.path = path
	return s
}

// Path returns the socket path the server binds to.
func (s *Server) Path() string {
	return s.path
}

// Start removes any stale socket file, binds, and begins serving in a
// background goroutine. A bind or listen failure is terminal for the server:
// the error is returned, and local tracing continues to work without remote
// control.
func (s *Server) Start() error {
	os.Remove(s.path) // stale socket from a previous run

	addr, err := net.ResolveUnixAddr("unix", s.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.path, err)
	}

	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.path, err)
	}

	s.ln = ln
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	s.registry.info.Printf("control socket: %s", s.path)

	go s.serve()

	return nil
}

// Stop signals the accept loop, unblocks any pending accept by closing the
// listener, waits for the goroutine to exit, and removes the socket file.
// Safe to call at most once, and only after a successful Start.
func (s *Server) Stop() {
	if s.ln == nil {
		return
	}
	close(s.stop)
	s.ln.Close()
	<-s.done
	os.Remove(s.path)
	s.ln = nil
}

func (s *Server) serve() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		s.ln.SetDeadline(time.Now().Add(acceptPollInterval))

		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			select {
			case <-s.stop:
				return
			default:
			}
			s.registry.debug.Printf("accept: %v", err)
			continue
		}

		s.handle(conn)
	}
}

// handle serves one connection: read until the newline or until the peer
// closes, dispatch, write the whole response, close.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	connID := ulid.Make().String()
	s.registry.debug.Printf("conn %s: accepted", connID)

	conn.SetReadDeadline(time.Now().Add(connReadTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		s.registry.debug.Printf("conn %s: read: %v", connID, err)
		return
	}

	command := strings.TrimSuffix(line, "\n")
	command = strings.TrimSuffix(command, "\r")

	response := s.registry.processCommand(command)

	conn.SetWriteDeadline(time.Now().Add(connWriteTimeout))
	if _, err := io.WriteString(conn, response); err != nil {
		s.registry.debug.Printf("conn %s: write: %v", connID, err)
		return
	}

	s.registry.debug.Printf("conn %s: %q -> %d bytes", connID, command, len(response))
}
