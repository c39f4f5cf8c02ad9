// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bureau-foundation/objstore/lib/clock"
	"github.com/bureau-foundation/objstore/lib/metastore"
	"github.com/bureau-foundation/objstore/lib/objectid"
)

// LoopbackOptions configures a LoopbackClient.
type LoopbackOptions struct {
	// CacheCapacity bounds the local metadata cache. Zero means
	// unbounded.
	CacheCapacity int

	// Clock stamps ObjectMeta.FetchedAt. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives session lifecycle logs. Nil discards.
	Logger *slog.Logger
}

// LoopbackClient is a Client for a store in the same process. It
// keeps the same session and cache semantics as IPCClient, so code
// written against Client behaves identically with either. Not safe
// for concurrent use; see Synchronized.
type LoopbackClient struct {
	store  *metastore.Store
	clock  clock.Clock
	logger *slog.Logger

	sessionID   uint64
	lastSession uint64
	anchor      *anchor
	front       Client
	cache       *metaCache
}

var _ Client = (*LoopbackClient)(nil)

// NewLoopbackClient returns a disconnected client for store.
func NewLoopbackClient(store *metastore.Store, options LoopbackOptions) *LoopbackClient {
	clientClock := options.Clock
	if clientClock == nil {
		clientClock = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoopbackClient{
		store:  store,
		clock:  clientClock,
		logger: logger,
		cache:  newMetaCache(options.CacheCapacity),
	}
}

// Connect opens a session on the in-process store. socket is ignored.
func (c *LoopbackClient) Connect(ctx context.Context, socket string) (uint64, error) {
	if c.sessionID != 0 {
		return c.sessionID, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, &ConnectionError{Kind: classifyLoopbackConnect(err), Err: err}
	}
	c.lastSession++
	c.sessionID = c.lastSession
	c.cache.reset()
	c.anchor = newAnchor(frontOr(c.front, c), c.sessionID)
	c.logger.Debug("loopback session opened", "session", c.sessionID, "instance", c.store.InstanceID())
	return c.sessionID, nil
}

// classifyLoopbackConnect maps a context error at Connect. There is no
// dial, so an expired deadline is ConnectTimeout and a cancellation is
// HandshakeFailed, matching IPCClient cancelled during its handshake.
func classifyLoopbackConnect(err error) ConnectionErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ConnectTimeout
	}
	return HandshakeFailed
}

// Disconnect ends the session.
func (c *LoopbackClient) Disconnect() {
	if c.sessionID == 0 {
		return
	}
	c.logger.Debug("loopback session closed", "session", c.sessionID)
	c.sessionID = 0
	c.anchor.release()
	c.anchor = nil
	c.cache.reset()
}

func (c *LoopbackClient) bindFront(front Client) {
	c.front = front
	c.anchor.bind(front)
}

// Connected reports whether a session is open.
func (c *LoopbackClient) Connected() bool {
	return c.sessionID != 0
}

// CacheStats reports local cache activity.
func (c *LoopbackClient) CacheStats() CacheStats {
	return c.cache.stats()
}

// GetMetaData returns the metadata of id from the store, or from the
// local cache when syncRemote is false and an entry exists.
func (c *LoopbackClient) GetMetaData(ctx context.Context, id objectid.ObjectID, syncRemote bool) (*ObjectMeta, error) {
	if c.sessionID == 0 {
		return nil, &MetaError{Kind: NotConnected, ObjectID: id}
	}
	if !syncRemote {
		if cached, found := c.cache.get(id); found {
			return cached.clone(), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, requestError(id, err)
	}

	raw, err := c.store.Get(id)
	if err != nil {
		kind := Transport
		if errors.Is(err, metastore.ErrNotFound) {
			kind = NotFound
		}
		return nil, &MetaError{Kind: kind, ObjectID: id, Err: err}
	}
	meta, err := newObjectMeta(id, raw, c.clock.Now(), c.anchor)
	if err != nil {
		return nil, requestError(id, err)
	}
	c.cache.put(id, meta)
	return meta.clone(), nil
}
