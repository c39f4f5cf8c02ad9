// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Compile-time interface checks.
var (
	_ Listener = (*UnixListener)(nil)
	_ Dialer   = (*UnixDialer)(nil)
)

// UnixDialer connects to a daemon's Unix socket.
type UnixDialer struct {
	// Compression applies to frames this side sends.
	Compression Compression

	// Timeout caps the connect phase when ctx has no earlier
	// deadline. Zero means only ctx applies.
	Timeout time.Duration

	// Logger receives debug output about peer credential lookup. Nil
	// discards it.
	Logger *slog.Logger
}

// Dial connects to the socket at address.
func (d *UnixDialer) Dial(ctx context.Context, address string) (Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "unix", address)
	if err != nil {
		return nil, err
	}
	return wrapUnixConn(conn, d.Compression, d.Logger), nil
}

// UnixListener accepts daemon-side connections on a Unix socket.
type UnixListener struct {
	listener    *net.UnixListener
	compression Compression
	logger      *slog.Logger
}

// ListenUnix listens on the socket at path. The caller is responsible
// for removing any stale socket file first. compression applies to
// frames the daemon sends.
func ListenUnix(path string, compression Compression, logger *slog.Logger) (*UnixListener, error) {
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	return &UnixListener{listener: listener, compression: compression, logger: logger}, nil
}

// Accept waits for the next client.
func (l *UnixListener) Accept() (Conn, error) {
	conn, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	return wrapUnixConn(conn, l.compression, l.logger), nil
}

// Address returns the socket path.
func (l *UnixListener) Address() string {
	return l.listener.Addr().String()
}

// Close stops the listener. net.UnixListener unlinks the socket file.
func (l *UnixListener) Close() error {
	return l.listener.Close()
}

func wrapUnixConn(conn net.Conn, compression Compression, logger *slog.Logger) *frameConn {
	var peer PeerCredentials
	if unixConn, ok := conn.(*net.UnixConn); ok {
		credentials, err := peerCredentials(unixConn)
		if err != nil && logger != nil {
			logger.Debug("peer credentials unavailable", "error", err)
		}
		peer = credentials
	}
	return newFrameConn(conn, compression, peer)
}
