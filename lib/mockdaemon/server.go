// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mockdaemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/bureau-foundation/objstore/lib/clock"
	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/ipc"
	"github.com/bureau-foundation/objstore/lib/metastore"
	"github.com/bureau-foundation/objstore/lib/netutil"
	"github.com/bureau-foundation/objstore/lib/objectid"
	"github.com/bureau-foundation/objstore/transport"
)

// ErrAlreadyRunning is returned by Serve when another process holds
// the daemon's lock file.
var ErrAlreadyRunning = errors.New("another daemon holds the lock")

// ActionFunc handles one request. Return a value to place in the
// response's data field (nil for none), or an error. A *ipc.RemoteError
// sets the response code; metastore.ErrNotFound maps to
// ipc.CodeNotFound; anything else is ipc.CodeInternal.
//
// A codec.RawMessage result is sent verbatim as the data field.
type ActionFunc func(ctx context.Context, session *Session, request *ipc.Request) (any, error)

// Interceptor sees every decoded request before it is dispatched,
// including handshakes and goodbyes. Returning false drops the request
// without a reply. An interceptor may block; the connection's later
// requests wait behind it.
type Interceptor func(ctx context.Context, session *Session, request *ipc.Request) bool

// Session is the daemon-side state of one connection.
type Session struct {
	// ID is assigned by the first successful handshake. Zero before.
	ID uint64

	// ClientVersion is what the client reported in its handshake.
	ClientVersion string

	// Peer is the connecting process, when the platform reports it.
	Peer transport.PeerCredentials
}

// Options configures a Server.
type Options struct {
	// SocketPath is where the daemon listens. Required.
	SocketPath string

	// LockFile, when set, is locked for the lifetime of Serve so two
	// daemons cannot serve the same socket.
	LockFile string

	// Store holds the metadata served. Nil creates an empty store
	// with a fresh instance id.
	Store *metastore.Store

	// Compression for frames the daemon sends.
	Compression transport.Compression

	// ProtocolVersion the daemon accepts. Zero means
	// ipc.ProtocolVersion.
	ProtocolVersion int

	// ServerVersion is reported in handshake replies.
	ServerVersion string

	// Clock measures uptime. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives connection and request logs. Nil discards.
	Logger *slog.Logger
}

// Server is the mock daemon. Create with New, register any extra
// handlers, then call Serve.
type Server struct {
	socketPath      string
	lockFile        string
	store           *metastore.Store
	instanceID      string
	compression     transport.Compression
	protocolVersion int
	serverVersion   string
	clock           clock.Clock
	logger          *slog.Logger
	startedAt       time.Time

	handlersMu sync.RWMutex
	handlers   map[string]ActionFunc

	interceptor atomic.Pointer[Interceptor]

	countsMu sync.Mutex
	counts   map[string]int

	viewMu sync.Mutex
	view   map[objectid.ObjectID]codec.RawMessage

	sessionIDs     atomic.Uint64
	activeSessions atomic.Int64

	ready     chan struct{}
	readyOnce sync.Once

	// activeConnections tracks connection handlers so Serve can wait
	// for them before returning.
	activeConnections sync.WaitGroup
}

// New creates a server with the built-in handlers registered.
func New(options Options) *Server {
	store := options.Store
	if store == nil {
		store = metastore.New(uuid.NewString())
	}
	instanceID := store.InstanceID()
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	protocolVersion := options.ProtocolVersion
	if protocolVersion == 0 {
		protocolVersion = ipc.ProtocolVersion
	}
	serverClock := options.Clock
	if serverClock == nil {
		serverClock = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		socketPath:      options.SocketPath,
		lockFile:        options.LockFile,
		store:           store,
		instanceID:      instanceID,
		compression:     options.Compression,
		protocolVersion: protocolVersion,
		serverVersion:   options.ServerVersion,
		clock:           serverClock,
		logger:          logger,
		startedAt:       serverClock.Now(),
		handlers:        make(map[string]ActionFunc),
		counts:          make(map[string]int),
		view:            make(map[objectid.ObjectID]codec.RawMessage),
		ready:           make(chan struct{}),
	}
	s.Handle(ipc.ActionHandshake, s.handleHandshake)
	s.Handle(ipc.ActionGetMeta, s.handleGetMeta)
	s.Handle(ipc.ActionPutMeta, s.handlePutMeta)
	s.Handle(ipc.ActionDeleteMeta, s.handleDeleteMeta)
	s.Handle(ipc.ActionPing, s.handlePing)
	return s
}

// Handle registers a handler for action. Panics if the action already
// has one.
func (s *Server) Handle(action string, handler ActionFunc) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("mockdaemon.Server: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Replace swaps the handler for action, returning the previous one
// (nil if none). Safe to call while serving.
func (s *Server) Replace(action string, handler ActionFunc) ActionFunc {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	previous := s.handlers[action]
	s.handlers[action] = handler
	return previous
}

// Intercept installs fn as the request interceptor. Nil removes it.
func (s *Server) Intercept(fn Interceptor) {
	if fn == nil {
		s.interceptor.Store(nil)
		return
	}
	s.interceptor.Store(&fn)
}

// Count returns how many requests with the given action the daemon
// has received, including dropped and failed ones.
func (s *Server) Count(action string) int {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	return s.counts[action]
}

// ActiveSessions returns the number of open connections.
func (s *Server) ActiveSessions() int {
	return int(s.activeSessions.Load())
}

// Store returns the server's metadata store.
func (s *Server) Store() *metastore.Store {
	return s.store
}

// InstanceID returns the id reported in handshake replies.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Ready is closed once the socket is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Serve listens on the socket and handles sessions until ctx is
// cancelled, then closes every session and waits for their handlers to
// return.
//
// Any existing socket file at the path is removed before listening.
// The socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if s.lockFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.lockFile), 0o755); err != nil {
			return fmt.Errorf("creating lock directory: %w", err)
		}
		lock := flock.New(s.lockFile)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("locking %s: %w", s.lockFile, err)
		}
		if !locked {
			return fmt.Errorf("%s: %w", s.lockFile, ErrAlreadyRunning)
		}
		defer lock.Unlock()
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := transport.ListenUnix(s.socketPath, s.compression, s.logger)
	if err != nil {
		return err
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("mock daemon listening",
		"socket", s.socketPath,
		"instance", s.instanceID,
		"compression", s.compression.String(),
	)
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection runs one session until the client leaves or ctx is
// cancelled.
func (s *Server) handleConnection(ctx context.Context, conn transport.Conn) {
	defer conn.Close()

	s.activeSessions.Add(1)
	defer s.activeSessions.Add(-1)

	session := &Session{Peer: conn.Peer()}
	for {
		message, err := conn.Recv(ctx)
		if err != nil {
			if ctx.Err() == nil && !netutil.IsExpectedCloseError(err) {
				s.logger.Debug("reading request failed", "session", session.ID, "error", err)
			}
			return
		}

		var request ipc.Request
		if err := codec.Unmarshal(message, &request); err != nil {
			s.send(ctx, conn, session, failure(0, ipc.CodeBadRequest, fmt.Sprintf("invalid request: %v", err)))
			continue
		}
		s.countAction(request.Action)

		if intercept := s.interceptor.Load(); intercept != nil {
			if !(*intercept)(ctx, session, &request) {
				continue
			}
		}

		if request.Action == ipc.ActionGoodbye {
			s.logger.Debug("session closed by client", "session", session.ID)
			return
		}

		if !s.send(ctx, conn, session, s.dispatch(ctx, session, &request)) {
			return
		}
	}
}

// dispatch runs the handler for request and builds its response.
func (s *Server) dispatch(ctx context.Context, session *Session, request *ipc.Request) ipc.Response {
	if request.Action == "" {
		return failure(request.Seq, ipc.CodeBadRequest, "missing required field: action")
	}
	if session.ID == 0 && request.Action != ipc.ActionHandshake {
		return failure(request.Seq, ipc.CodeHandshake, fmt.Sprintf("action %q before handshake", request.Action))
	}

	s.handlersMu.RLock()
	handler, exists := s.handlers[request.Action]
	s.handlersMu.RUnlock()
	if !exists {
		return failure(request.Seq, ipc.CodeBadRequest, fmt.Sprintf("unknown action %q", request.Action))
	}

	result, err := handler(ctx, session, request)
	if err != nil {
		s.logger.Debug("action failed",
			"session", session.ID,
			"action", request.Action,
			"error", err,
		)
		var remote *ipc.RemoteError
		switch {
		case errors.As(err, &remote):
			return failure(request.Seq, remote.Code, remote.Message)
		case errors.Is(err, metastore.ErrNotFound):
			return failure(request.Seq, ipc.CodeNotFound, err.Error())
		default:
			return failure(request.Seq, ipc.CodeInternal, err.Error())
		}
	}

	response := ipc.Response{Seq: request.Seq, OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			return failure(request.Seq, ipc.CodeInternal, fmt.Sprintf("marshaling response: %v", err))
		}
		response.Data = data
	}
	return response
}

// send writes response to conn. Returns false when the connection is
// no longer usable.
func (s *Server) send(ctx context.Context, conn transport.Conn, session *Session, response ipc.Response) bool {
	encoded, err := codec.Marshal(response)
	if err != nil {
		s.logger.Error("encoding response failed", "session", session.ID, "error", err)
		return true
	}
	if err := conn.Send(ctx, encoded); err != nil {
		if ctx.Err() == nil && !netutil.IsExpectedCloseError(err) {
			s.logger.Debug("writing response failed", "session", session.ID, "error", err)
		}
		return false
	}
	return true
}

func (s *Server) countAction(action string) {
	s.countsMu.Lock()
	s.counts[action]++
	s.countsMu.Unlock()
}

func failure(seq uint64, code, message string) ipc.Response {
	return ipc.Response{Seq: seq, OK: false, Code: code, Error: message}
}
