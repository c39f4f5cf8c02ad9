// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/bureau-foundation/objstore/lib/objectid"
)

// Sentinels for errors.Is. A *ConnectionError or *MetaError matches
// the sentinel for its Kind.
var (
	ErrAddressUnresolved        = errors.New("no daemon socket address")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrDaemonUnreachable        = errors.New("daemon unreachable")
	ErrHandshakeVersionMismatch = errors.New("protocol version mismatch")
	ErrHandshakeFailed          = errors.New("handshake failed")
	ErrTimeout                  = errors.New("timed out")

	ErrNotConnected = errors.New("not connected")
	ErrNotFound     = errors.New("object not found")
	ErrTransport    = errors.New("transport failure")
	ErrProtocol     = errors.New("protocol error")

	// ErrClientGone is returned by ObjectMeta.Client when the session
	// that fetched the metadata has ended or its client was collected.
	ErrClientGone = errors.New("client gone")
)

// ConnectionErrorKind classifies a Connect failure.
type ConnectionErrorKind int

const (
	AddressUnresolved ConnectionErrorKind = iota + 1
	PermissionDenied
	DaemonUnreachable
	HandshakeVersionMismatch
	HandshakeFailed
	ConnectTimeout
)

var connectionKindSentinels = map[ConnectionErrorKind]error{
	AddressUnresolved:        ErrAddressUnresolved,
	PermissionDenied:         ErrPermissionDenied,
	DaemonUnreachable:        ErrDaemonUnreachable,
	HandshakeVersionMismatch: ErrHandshakeVersionMismatch,
	HandshakeFailed:          ErrHandshakeFailed,
	ConnectTimeout:           ErrTimeout,
}

func (k ConnectionErrorKind) String() string {
	if sentinel, ok := connectionKindSentinels[k]; ok {
		return sentinel.Error()
	}
	return fmt.Sprintf("ConnectionErrorKind(%d)", int(k))
}

// ConnectionError is returned by Connect. The client is Disconnected
// whenever one is returned.
type ConnectionError struct {
	Kind ConnectionErrorKind

	// Address is the resolved socket path, empty for
	// AddressUnresolved.
	Address string

	// Err is the underlying cause.
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("connecting to object store: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("connecting to object store at %s: %s: %v", e.Address, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *ConnectionError) Is(target error) bool {
	return connectionKindSentinels[e.Kind] == target
}

// MetaErrorKind classifies a metadata request failure.
type MetaErrorKind int

const (
	NotConnected MetaErrorKind = iota + 1
	NotFound
	Transport
	Protocol
	Timeout
)

var metaKindSentinels = map[MetaErrorKind]error{
	NotConnected: ErrNotConnected,
	NotFound:     ErrNotFound,
	Transport:    ErrTransport,
	Protocol:     ErrProtocol,
	Timeout:      ErrTimeout,
}

func (k MetaErrorKind) String() string {
	if sentinel, ok := metaKindSentinels[k]; ok {
		return sentinel.Error()
	}
	return fmt.Sprintf("MetaErrorKind(%d)", int(k))
}

// MetaError is returned by GetMetaData and Ping. A MetaError never
// changes session state or the cache.
type MetaError struct {
	Kind MetaErrorKind

	// ObjectID is the requested object, Invalid for requests that
	// are not about an object.
	ObjectID objectid.ObjectID

	// Err is the underlying cause, nil for NotConnected.
	Err error
}

func (e *MetaError) Error() string {
	subject := "daemon request"
	if e.ObjectID.IsValid() {
		subject = "fetching metadata for " + e.ObjectID.String()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", subject, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", subject, e.Kind, e.Err)
}

func (e *MetaError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *MetaError) Is(target error) bool {
	return metaKindSentinels[e.Kind] == target
}

// Retryable reports whether repeating the request may succeed without
// the caller changing anything. NotFound is terminal; NotConnected and
// Protocol need the caller to act first.
func (e *MetaError) Retryable() bool {
	return e.Kind == Transport || e.Kind == Timeout
}

// protocolError marks a response that arrived intact but did not have
// the expected shape.
type protocolError struct {
	err error
}

func (e *protocolError) Error() string { return e.err.Error() }
func (e *protocolError) Unwrap() error { return e.err }

func protocolErrorf(format string, args ...any) error {
	return &protocolError{err: fmt.Errorf(format, args...)}
}

// isTimeout reports whether err is a deadline expiry from a context, a
// socket deadline, or a net.Error timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyDial maps a dial failure onto a ConnectionErrorKind.
func classifyDial(err error) ConnectionErrorKind {
	switch {
	case isTimeout(err):
		return ConnectTimeout
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	default:
		return DaemonUnreachable
	}
}
