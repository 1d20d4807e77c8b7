package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dd2-manager/pkg/core"
)

const requestTimeout = 5 * time.Second

type Server struct {
	path    string
	handler Handler
	log     core.Logger

	mu       sync.Mutex
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewServer(path string, handler Handler, log core.Logger) *Server {
	return &Server{path: path, handler: handler, log: log}
}

func (s *Server) Path() string { return s.path }

// Start binds the socket and serves connections in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	// Remove the socket file if it already exists
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.Error("Failed to remove existing socket file", err, "path", s.path)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to start socket server: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.log.Info("Socket server started", "path", s.path)

	s.wg.Add(1)
	go s.accept(listener)
	return nil
}

func (s *Server) accept(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("Failed to accept connection", err)
			continue
		}

		s.log.Debug("New connection accepted")

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * requestTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.log.Error("Failed to decode request", err)
		s.write(conn, Failure(fmt.Errorf("malformed request: %w", err)))
		return
	}

	s.log.Info("Received request", "command", req.Command, "args", req.Args)

	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()
	s.write(conn, s.handler.Handle(ctx, req))
}

func (s *Server) write(conn net.Conn, resp Response) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Error("Failed to encode response", err)
		return
	}
	s.log.Debug("Response sent successfully", "status", resp.Status)
}

// Close stops accepting, waits for in-flight requests and removes the
// socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener == nil {
		return nil
	}

	s.cancel()
	err := listener.Close()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}
