// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client connects application processes to a local object
// store daemon and fetches object metadata.
//
// [Client] is the contract: Connect, Disconnect, Connected and
// GetMetaData. [IPCClient] implements it over a Unix socket using the
// lib/ipc protocol; [LoopbackClient] implements it against an
// in-process [metastore.Store].
//
// # Sessions
//
// A client is either disconnected or connected to exactly one session.
// Connect on a connected client is a no-op that returns the current
// session id. Disconnect is idempotent and never fails. Connected
// reads local state only; [IPCClient.Ping] probes the daemon.
//
// The socket address is the argument to Connect, or when that is
// empty the OBJSTORE_IPC_SOCKET environment variable.
//
// # Metadata cache
//
// Every client keeps a private cache of the metadata it has fetched,
// keyed by object id. GetMetaData with syncRemote false answers from
// the cache when it can; with syncRemote true it always asks the
// daemon for its authoritative copy and refreshes the cache. The
// cache is cleared whenever a session starts or ends, and a failed
// request never modifies it.
//
// # Errors
//
// Connect returns [*ConnectionError]; GetMetaData and Ping return
// [*MetaError]. Both match their kind's sentinel with errors.Is:
//
//	meta, err := c.GetMetaData(ctx, id, false)
//	var metaErr *client.MetaError
//	switch {
//	case errors.Is(err, client.ErrNotFound):
//		// terminal
//	case errors.As(err, &metaErr) && metaErr.Retryable():
//		// try again
//	}
//
// # Back-references
//
// An [ObjectMeta] remembers the session that fetched it, without
// keeping the client alive. [ObjectMeta.Client] returns that client
// while the session lasts and [ErrClientGone] afterwards.
package client
