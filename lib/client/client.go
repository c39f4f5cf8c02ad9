// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"sync"
	"time"

	"github.com/bureau-foundation/objstore/lib/objectid"
	"github.com/bureau-foundation/objstore/transport"
)

// Client is the contract shared by every way of reaching an object
// store: over IPC to a local daemon (IPCClient) or in-process
// (LoopbackClient).
//
// Implementations are not safe for concurrent use unless documented
// otherwise. Wrap one in Synchronized to share it.
type Client interface {
	// Connect opens a session to the store at socket and returns the
	// session id. Connecting an already connected client returns the
	// current session id and changes nothing.
	Connect(ctx context.Context, socket string) (uint64, error)

	// Disconnect ends the session. It never fails and is a no-op when
	// already disconnected.
	Disconnect()

	// Connected reports the last known session state without I/O.
	Connected() bool

	// GetMetaData returns the metadata of id. With syncRemote false a
	// locally cached copy may be returned without contacting the
	// store; with syncRemote true the store's authoritative copy is
	// always fetched and cached.
	GetMetaData(ctx context.Context, id objectid.ObjectID, syncRemote bool) (*ObjectMeta, error)
}

// SessionInfo describes the current session. The zero value means
// disconnected.
type SessionInfo struct {
	SessionID       uint64
	InstanceID      string
	ServerVersion   string
	ProtocolVersion int

	// Socket is the resolved address the session was opened on.
	Socket string

	// Peer is the daemon process, when the platform reports it.
	Peer transport.PeerCredentials

	ConnectedAt time.Time
}

// PingResult is a daemon's answer to a liveness probe.
type PingResult struct {
	// Uptime is how long the daemon has been serving.
	Uptime time.Duration

	// Objects is how many objects the daemon holds.
	Objects int

	// RoundTrip is how long the probe took, as measured by the
	// client's clock.
	RoundTrip time.Duration
}

// Synchronized wraps c so that its methods may be called from multiple
// goroutines. Calls are serialised; a slow GetMetaData blocks the
// others.
//
// Metadata fetched through the wrapper refers back to the wrapper, so
// ObjectMeta.Client keeps calls serialised too.
func Synchronized(c Client) Client {
	s := &synchronizedClient{inner: c}
	if binder, ok := c.(frontBinder); ok {
		binder.bindFront(s)
	}
	return s
}

type synchronizedClient struct {
	mu    sync.Mutex
	inner Client
}

func (s *synchronizedClient) bindFront(front Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if binder, ok := s.inner.(frontBinder); ok {
		binder.bindFront(front)
	}
}

func (s *synchronizedClient) Connect(ctx context.Context, socket string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Connect(ctx, socket)
}

func (s *synchronizedClient) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Disconnect()
}

func (s *synchronizedClient) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Connected()
}

func (s *synchronizedClient) GetMetaData(ctx context.Context, id objectid.ObjectID, syncRemote bool) (*ObjectMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetMetaData(ctx, id, syncRemote)
}
