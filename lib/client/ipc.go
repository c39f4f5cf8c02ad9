// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bureau-foundation/objstore/lib/clock"
	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/config"
	"github.com/bureau-foundation/objstore/lib/ipc"
	"github.com/bureau-foundation/objstore/lib/netutil"
	"github.com/bureau-foundation/objstore/lib/objectid"
	"github.com/bureau-foundation/objstore/lib/version"
	"github.com/bureau-foundation/objstore/transport"
)

// goodbyeTimeout bounds the best-effort goodbye write in Disconnect.
const goodbyeTimeout = 250 * time.Millisecond

// IPCOptions configures an IPCClient.
type IPCOptions struct {
	// Dialer opens the transport. Nil means a transport.UnixDialer
	// without compression.
	Dialer transport.Dialer

	// ConnectTimeout bounds dial plus handshake when positive. A
	// shorter ctx deadline still wins.
	ConnectTimeout time.Duration

	// RequestTimeout bounds each daemon round trip when positive. A
	// shorter ctx deadline still wins.
	RequestTimeout time.Duration

	// CacheCapacity bounds the local metadata cache (least recently
	// used entries are evicted). Zero means unbounded.
	CacheCapacity int

	// Clock stamps ObjectMeta.FetchedAt. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives session lifecycle logs. Nil discards.
	Logger *slog.Logger
}

// IPCOptionsFromConfig builds options from the client section of a
// loaded configuration.
func IPCOptionsFromConfig(cfg config.ClientConfig, logger *slog.Logger) (IPCOptions, error) {
	compression, err := transport.ParseCompression(cfg.Compression)
	if err != nil {
		return IPCOptions{}, fmt.Errorf("client compression: %w", err)
	}
	return IPCOptions{
		Dialer:         &transport.UnixDialer{Compression: compression, Logger: logger},
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		CacheCapacity:  cfg.CacheCapacity,
		Logger:         logger,
	}, nil
}

// IPCClient is a Client for a daemon on the local machine, reached
// over a Unix socket. One IPCClient is one session at a time. It is
// not safe for concurrent use; see Synchronized.
type IPCClient struct {
	dialer         transport.Dialer
	connectTimeout time.Duration
	requestTimeout time.Duration
	clock          clock.Clock
	logger         *slog.Logger

	// conn is non-nil exactly while Connected.
	conn    transport.Conn
	session SessionInfo
	anchor  *anchor
	front   Client

	// seq is the sequence number of the last request sent on conn.
	seq uint64

	cache *metaCache
}

var _ Client = (*IPCClient)(nil)

// NewIPCClient returns a disconnected client.
func NewIPCClient(options IPCOptions) *IPCClient {
	dialer := options.Dialer
	if dialer == nil {
		dialer = &transport.UnixDialer{Logger: options.Logger}
	}
	clientClock := options.Clock
	if clientClock == nil {
		clientClock = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &IPCClient{
		dialer:         dialer,
		connectTimeout: options.ConnectTimeout,
		requestTimeout: options.RequestTimeout,
		clock:          clientClock,
		logger:         logger,
		cache:          newMetaCache(options.CacheCapacity),
	}
}

// Connect opens a session. An empty socket falls back to
// $OBJSTORE_IPC_SOCKET. On failure the client stays disconnected and
// the error is a *ConnectionError.
func (c *IPCClient) Connect(ctx context.Context, socket string) (uint64, error) {
	if c.conn != nil {
		return c.session.SessionID, nil
	}

	address, err := resolveSocket(socket)
	if err != nil {
		return 0, &ConnectionError{Kind: AddressUnresolved, Err: err}
	}

	ctx, cancel := withTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		return 0, &ConnectionError{Kind: classifyDial(err), Address: address, Err: err}
	}

	c.seq = 0
	var reply ipc.HandshakeReply
	err = c.roundTrip(ctx, conn, ipc.Request{
		Action:          ipc.ActionHandshake,
		ProtocolVersion: ipc.ProtocolVersion,
		ClientVersion:   version.Short(),
	}, &reply)
	if err == nil {
		err = checkHandshake(reply)
	}
	if err != nil {
		conn.Close()
		return 0, &ConnectionError{Kind: classifyHandshake(err), Address: address, Err: err}
	}

	c.conn = conn
	c.cache.reset()
	c.anchor = newAnchor(frontOr(c.front, c), reply.SessionID)
	c.session = SessionInfo{
		SessionID:       reply.SessionID,
		InstanceID:      reply.InstanceID,
		ServerVersion:   reply.ServerVersion,
		ProtocolVersion: reply.ProtocolVersion,
		Socket:          address,
		Peer:            conn.Peer(),
		ConnectedAt:     c.clock.Now(),
	}
	c.logger.Info("connected to object store",
		"socket", address,
		"session", reply.SessionID,
		"instance", reply.InstanceID,
		"server_version", reply.ServerVersion,
	)
	return reply.SessionID, nil
}

// Disconnect ends the session, telling the daemon first when it can.
// The socket is always closed. Close failures are logged, not
// returned.
func (c *IPCClient) Disconnect() {
	if c.conn == nil {
		return
	}
	conn, session := c.conn, c.session.SessionID

	c.conn = nil
	c.session = SessionInfo{}
	c.anchor.release()
	c.anchor = nil
	c.cache.reset()

	ctx, cancel := context.WithTimeout(context.Background(), goodbyeTimeout)
	defer cancel()
	c.seq++
	if goodbye, err := codec.Marshal(ipc.Request{Seq: c.seq, Action: ipc.ActionGoodbye}); err == nil {
		if err := conn.Send(ctx, goodbye); err != nil {
			c.logger.Debug("sending goodbye failed", "session", session, "error", err)
		}
	}

	if err := conn.Close(); err != nil {
		if netutil.IsExpectedCloseError(err) {
			c.logger.Debug("closing daemon connection", "session", session, "error", err)
		} else {
			c.logger.Warn("closing daemon connection failed", "session", session, "error", err)
		}
	}
	c.logger.Info("disconnected from object store", "session", session)
}

func (c *IPCClient) bindFront(front Client) {
	c.front = front
	c.anchor.bind(front)
}

// Connected reports whether the client has a session. It does not
// probe the daemon; use Ping for that.
func (c *IPCClient) Connected() bool {
	return c.conn != nil
}

// Session describes the current session, or returns the zero value
// when disconnected.
func (c *IPCClient) Session() SessionInfo {
	return c.session
}

// CacheStats reports local cache activity.
func (c *IPCClient) CacheStats() CacheStats {
	return c.cache.stats()
}

// GetMetaData returns the metadata of id. Errors are *MetaError; a
// failed call leaves the cache and the session as they were.
func (c *IPCClient) GetMetaData(ctx context.Context, id objectid.ObjectID, syncRemote bool) (*ObjectMeta, error) {
	if c.conn == nil {
		return nil, &MetaError{Kind: NotConnected, ObjectID: id}
	}
	if !syncRemote {
		if cached, found := c.cache.get(id); found {
			return cached.clone(), nil
		}
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reply ipc.MetaReply
	err := c.roundTrip(ctx, c.conn, ipc.Request{
		Action:     ipc.ActionGetMeta,
		ObjectID:   id,
		SyncRemote: syncRemote,
	}, &reply)
	if err == nil && reply.ObjectID != id {
		err = protocolErrorf("daemon answered for %s", reply.ObjectID)
	}
	var meta *ObjectMeta
	if err == nil {
		meta, err = newObjectMeta(id, reply.Meta, c.clock.Now(), c.anchor)
	}
	if err != nil {
		metaErr := requestError(id, err)
		c.logger.Debug("metadata request failed",
			"object", id,
			"sync_remote", syncRemote,
			"kind", metaErr.Kind.String(),
			"error", err,
		)
		return nil, metaErr
	}

	c.cache.put(id, meta)
	return meta.clone(), nil
}

// Ping asks the daemon whether it is alive. It does not change session
// state. Errors are *MetaError.
func (c *IPCClient) Ping(ctx context.Context) (PingResult, error) {
	if c.conn == nil {
		return PingResult{}, &MetaError{Kind: NotConnected}
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	start := c.clock.Now()
	var reply ipc.PingReply
	if err := c.roundTrip(ctx, c.conn, ipc.Request{Action: ipc.ActionPing}, &reply); err != nil {
		return PingResult{}, requestError(objectid.Invalid, err)
	}
	return PingResult{
		Uptime:    time.Duration(reply.UptimeSeconds * float64(time.Second)),
		Objects:   reply.Objects,
		RoundTrip: clock.Since(c.clock, start),
	}, nil
}

// roundTrip sends request on conn with the next sequence number and
// waits for the response with that number, discarding responses to
// earlier requests that timed out. A successful response's data is
// decoded into result.
func (c *IPCClient) roundTrip(ctx context.Context, conn transport.Conn, request ipc.Request, result any) error {
	c.seq++
	request.Seq = c.seq

	encoded, err := codec.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", request.Action, err)
	}
	if err := conn.Send(ctx, encoded); err != nil {
		return fmt.Errorf("sending %s request: %w", request.Action, err)
	}

	for {
		message, err := conn.Recv(ctx)
		if err != nil {
			return fmt.Errorf("awaiting %s response: %w", request.Action, err)
		}

		var response ipc.Response
		if err := codec.Unmarshal(message, &response); err != nil {
			return protocolErrorf("decoding %s response: %w", request.Action, err)
		}
		if response.Seq < request.Seq {
			c.logger.Debug("discarding stale response",
				"seq", response.Seq,
				"awaiting", request.Seq,
			)
			continue
		}
		if response.Seq > request.Seq {
			return protocolErrorf("response seq %d is ahead of request seq %d", response.Seq, request.Seq)
		}

		if err := response.Err(); err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		if len(response.Data) == 0 {
			return protocolErrorf("%s response has no data", request.Action)
		}
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return protocolErrorf("decoding %s response data: %w", request.Action, err)
		}
		return nil
	}
}

// resolveSocket picks the explicit socket, else the environment's.
func resolveSocket(socket string) (string, error) {
	if socket != "" {
		return socket, nil
	}
	environment, err := config.ReadEnvironment()
	if err != nil {
		return "", err
	}
	if environment.Socket == "" {
		return "", fmt.Errorf("no socket given and $%s is not set", config.SocketEnvVar)
	}
	return environment.Socket, nil
}

func checkHandshake(reply ipc.HandshakeReply) error {
	if reply.ProtocolVersion != ipc.ProtocolVersion {
		return &ipc.RemoteError{
			Code:    ipc.CodeVersionMismatch,
			Message: fmt.Sprintf("daemon speaks protocol %d, client speaks %d", reply.ProtocolVersion, ipc.ProtocolVersion),
		}
	}
	if reply.SessionID == 0 {
		return protocolErrorf("handshake reply has no session id")
	}
	return nil
}

func classifyHandshake(err error) ConnectionErrorKind {
	var remote *ipc.RemoteError
	switch {
	case errors.As(err, &remote) && remote.Code == ipc.CodeVersionMismatch:
		return HandshakeVersionMismatch
	case isTimeout(err):
		return ConnectTimeout
	default:
		return HandshakeFailed
	}
}

// requestError classifies a round-trip failure. A daemon-side internal
// error is Transport; any other daemon rejection is Protocol.
func requestError(id objectid.ObjectID, err error) *MetaError {
	kind := Transport
	var remote *ipc.RemoteError
	var malformed *protocolError
	switch {
	case errors.As(err, &remote):
		switch remote.Code {
		case ipc.CodeNotFound:
			kind = NotFound
		case ipc.CodeInternal:
			kind = Transport
		default:
			kind = Protocol
		}
	case errors.As(err, &malformed):
		kind = Protocol
	case isTimeout(err):
		kind = Timeout
	}
	return &MetaError{Kind: kind, ObjectID: id, Err: err}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
