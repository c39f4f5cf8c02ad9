// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mockdaemon is a small object-store daemon that speaks the
// lib/ipc protocol over a transport.UnixListener. It serves metadata
// from a [metastore.Store] and exists so clients can be exercised
// end-to-end without the real daemon.
//
// Each connection is a session: the client must handshake first, then
// may send any number of requests, each answered in order. A goodbye
// notification ends the session without a reply.
//
// The daemon keeps a per-process view of metadata it has served. A
// get_meta without sync_remote is answered from that view when
// present; with sync_remote the store is consulted and the view
// refreshed. put_meta writes only the store, so a subsequent
// non-synchronised read may return the earlier value.
//
// Tests can replace handlers ([Server.Replace]), observe or stall
// requests ([Server.Intercept]), and count them ([Server.Count]).
package mockdaemon
