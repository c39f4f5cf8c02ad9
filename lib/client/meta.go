// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"
	"weak"

	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/ipc"
	"github.com/bureau-foundation/objstore/lib/objectid"
)

// anchor is what ObjectMeta back-references point at. A client holds
// the anchor of its current session strongly and metadata holds it
// weakly, so metadata never extends a client's lifetime. Ending the
// session releases the anchor.
type anchor struct {
	client    atomic.Pointer[clientRef]
	sessionID uint64
	live      atomic.Bool
}

type clientRef struct{ Client }

func newAnchor(client Client, sessionID uint64) *anchor {
	a := &anchor{sessionID: sessionID}
	a.bind(client)
	a.live.Store(true)
	return a
}

// bind changes the client that metadata of this session refers back
// to. Metadata already handed out observes the change.
func (a *anchor) bind(client Client) {
	if a != nil {
		a.client.Store(&clientRef{client})
	}
}

// frontBinder is implemented by clients that can be wrapped. The
// wrapper registers itself so that ObjectMeta.Client returns the
// wrapper the caller shares rather than the client inside it.
type frontBinder interface {
	bindFront(front Client)
}

// frontOr returns front if one was bound, else self.
func frontOr(front, self Client) Client {
	if front != nil {
		return front
	}
	return self
}

func (a *anchor) release() {
	if a != nil {
		a.live.Store(false)
	}
}

// ObjectMeta is the metadata record of one object as fetched by a
// client. It is immutable: accessors that return slices or maps return
// fresh copies.
type ObjectMeta struct {
	id        objectid.ObjectID
	payload   []byte
	fetchedAt time.Time
	sessionID uint64
	owner     weak.Pointer[anchor]

	typeName   string
	nbytes     uint64
	instanceID string
	sealed     bool
}

// newObjectMeta validates payload as a CBOR map and builds the record.
// payload is copied.
func newObjectMeta(id objectid.ObjectID, payload []byte, fetchedAt time.Time, owner *anchor) (*ObjectMeta, error) {
	if len(payload) == 0 {
		return nil, protocolErrorf("empty metadata payload")
	}
	var fields map[string]any
	if err := codec.Unmarshal(payload, &fields); err != nil {
		return nil, protocolErrorf("metadata payload is not a CBOR map: %w", err)
	}
	if fields == nil {
		return nil, protocolErrorf("metadata payload is not a CBOR map")
	}

	meta := &ObjectMeta{
		id:        id,
		payload:   bytes.Clone(payload),
		fetchedAt: fetchedAt,
		owner:     weak.Make(owner),
	}
	if owner != nil {
		meta.sessionID = owner.sessionID
	}

	meta.typeName, _ = fields[ipc.MetaKeyTypeName].(string)
	meta.instanceID, _ = fields[ipc.MetaKeyInstanceID].(string)
	meta.sealed, _ = fields[ipc.MetaKeySealed].(bool)
	switch size := fields[ipc.MetaKeyNBytes].(type) {
	case uint64:
		meta.nbytes = size
	case int64:
		if size < 0 {
			return nil, protocolErrorf("metadata nbytes is negative: %d", size)
		}
		meta.nbytes = uint64(size)
	}
	return meta, nil
}

// clone returns a shallow copy. The payload is shared because nothing
// ever writes to it.
func (m *ObjectMeta) clone() *ObjectMeta {
	duplicate := *m
	return &duplicate
}

// ID returns the object the metadata describes.
func (m *ObjectMeta) ID() objectid.ObjectID { return m.id }

// Payload returns a copy of the raw CBOR metadata map.
func (m *ObjectMeta) Payload() []byte { return bytes.Clone(m.payload) }

// Fields decodes the payload into a fresh map.
func (m *ObjectMeta) Fields() (map[string]any, error) {
	var fields map[string]any
	if err := codec.Unmarshal(m.payload, &fields); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", m.id, err)
	}
	return fields, nil
}

// Decode unmarshals the payload into v, typically a struct with cbor
// tags naming the sub-fields of one object type.
func (m *ObjectMeta) Decode(v any) error {
	if err := codec.Unmarshal(m.payload, v); err != nil {
		return fmt.Errorf("decoding metadata for %s: %w", m.id, err)
	}
	return nil
}

// TypeName returns the typename field, empty if absent.
func (m *ObjectMeta) TypeName() string { return m.typeName }

// NBytes returns the nbytes field, zero if absent.
func (m *ObjectMeta) NBytes() uint64 { return m.nbytes }

// InstanceID returns the instance_id field: the daemon instance that
// holds the object.
func (m *ObjectMeta) InstanceID() string { return m.instanceID }

// IsSealed returns the sealed field.
func (m *ObjectMeta) IsSealed() bool { return m.sealed }

// Digest returns the keyed BLAKE3 hash of the payload.
func (m *ObjectMeta) Digest() Digest { return digestPayload(m.payload) }

// FetchedAt is when the client received the metadata from the daemon.
// A cached copy keeps the time of the original fetch.
func (m *ObjectMeta) FetchedAt() time.Time { return m.fetchedAt }

// SessionID is the session the metadata was fetched in.
func (m *ObjectMeta) SessionID() uint64 { return m.sessionID }

// Client returns the client whose session fetched the metadata, for
// resolving the object's buffers through that session. For a client
// wrapped by Synchronized this is the wrapper. Returns
// ErrClientGone once that session has been disconnected or the client
// has been garbage collected.
func (m *ObjectMeta) Client() (Client, error) {
	owner := m.owner.Value()
	if owner == nil || !owner.live.Load() {
		return nil, ErrClientGone
	}
	return owner.client.Load().Client, nil
}
