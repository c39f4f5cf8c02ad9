// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"

	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/objectid"
)

// ProtocolVersion is the version of this message set. The daemon
// rejects handshakes that name a different version.
const ProtocolVersion = 1

// Action names.
const (
	ActionHandshake  = "handshake"
	ActionGetMeta    = "get_meta"
	ActionPutMeta    = "put_meta"
	ActionDeleteMeta = "delete_meta"
	ActionPing       = "ping"
	ActionGoodbye    = "goodbye"
)

// Error codes carried in Response.Code when OK is false. Clients
// branch on the code, never on the human-readable Error text.
const (
	CodeNotFound        = "not_found"
	CodeVersionMismatch = "version_mismatch"
	CodeBadRequest      = "bad_request"
	CodeHandshake       = "handshake_required"
	CodeInternal        = "internal"
)

// Request is a CBOR-encoded request from a client to the daemon.
type Request struct {
	// Seq is chosen by the client and echoed in the response. It
	// increases by one per request within a session.
	Seq uint64 `cbor:"seq"`

	// Action selects the handler: one of the Action* constants.
	Action string `cbor:"action"`

	// ProtocolVersion is the client's ProtocolVersion (handshake).
	ProtocolVersion int `cbor:"protocol_version,omitempty"`

	// ClientVersion is the client's build version (handshake). Used
	// only for daemon logs.
	ClientVersion string `cbor:"client_version,omitempty"`

	// ObjectID names the object (get_meta, put_meta, delete_meta).
	ObjectID objectid.ObjectID `cbor:"object_id,omitempty"`

	// SyncRemote asks the daemon to answer from its authoritative
	// copy instead of any daemon-side cached view (get_meta).
	SyncRemote bool `cbor:"sync_remote,omitempty"`

	// Meta is the CBOR metadata map to store (put_meta).
	Meta codec.RawMessage `cbor:"meta,omitempty"`
}

// Response is the envelope for every daemon reply.
type Response struct {
	// Seq echoes Request.Seq.
	Seq uint64 `cbor:"seq"`

	// OK indicates whether the request succeeded.
	OK bool `cbor:"ok"`

	// Code is one of the Code* constants when OK is false.
	Code string `cbor:"code,omitempty"`

	// Error is a human-readable message when OK is false.
	Error string `cbor:"error,omitempty"`

	// Data is the action-specific result, CBOR-encoded. Empty for
	// actions with no result.
	Data codec.RawMessage `cbor:"data,omitempty"`
}

// Err converts a failed response into a *RemoteError. Returns nil
// when OK is true.
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	return &RemoteError{Code: r.Code, Message: r.Error}
}

// RemoteError is a failure reported by the daemon.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("daemon error: %s", e.Message)
	}
	return fmt.Sprintf("daemon error (%s): %s", e.Code, e.Message)
}

// HandshakeReply is the Data of a successful handshake response.
type HandshakeReply struct {
	// ProtocolVersion is the daemon's ProtocolVersion.
	ProtocolVersion int `cbor:"protocol_version"`

	// SessionID identifies this connection on the daemon. Never zero.
	SessionID uint64 `cbor:"session_id"`

	// InstanceID identifies the daemon process (a UUID string).
	// Metadata instance_id fields refer to it.
	InstanceID string `cbor:"instance_id"`

	// ServerVersion is the daemon's build version.
	ServerVersion string `cbor:"server_version,omitempty"`
}

// MetaReply is the Data of a successful get_meta response.
type MetaReply struct {
	ObjectID objectid.ObjectID `cbor:"object_id"`

	// Meta is the object's CBOR metadata map.
	Meta codec.RawMessage `cbor:"meta"`
}

// PingReply is the Data of a successful ping response.
type PingReply struct {
	UptimeSeconds float64 `cbor:"uptime_seconds"`
	Objects       int     `cbor:"objects"`
}

// PutMetaReply is the Data of a successful put_meta response. When the
// request's ObjectID was zero the daemon allocates one.
type PutMetaReply struct {
	ObjectID objectid.ObjectID `cbor:"object_id"`
}

// Well-known metadata map keys.
const (
	MetaKeyTypeName   = "typename"
	MetaKeyNBytes     = "nbytes"
	MetaKeyInstanceID = "instance_id"
	MetaKeySealed     = "sealed"
)
