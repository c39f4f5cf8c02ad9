// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/ipc"
	"github.com/bureau-foundation/objstore/lib/objectid"
)

// ErrNotFound is returned for ids the store does not hold.
var ErrNotFound = errors.New("object not found")

// Store holds metadata for one daemon instance. Safe for concurrent
// use.
type Store struct {
	instanceID string
	ids        *objectid.Generator

	mu      sync.RWMutex
	objects map[objectid.ObjectID]codec.RawMessage
}

// New returns an empty store. instanceID is stamped into every
// metadata map that does not already name an instance.
func New(instanceID string) *Store {
	return &Store{
		instanceID: instanceID,
		ids:        objectid.NewGenerator(0),
		objects:    make(map[objectid.ObjectID]codec.RawMessage),
	}
}

// InstanceID returns the instance id given to New.
func (s *Store) InstanceID() string {
	return s.instanceID
}

// Create stores meta under a freshly allocated id.
func (s *Store) Create(meta map[string]any) (objectid.ObjectID, error) {
	id := s.ids.Next()
	if err := s.Put(id, meta); err != nil {
		return objectid.Invalid, err
	}
	return id, nil
}

// Put stores meta under id, replacing any previous entry.
func (s *Store) Put(id objectid.ObjectID, meta map[string]any) error {
	if !id.IsValid() {
		return fmt.Errorf("storing metadata: invalid object id")
	}
	raw, err := s.encode(meta)
	if err != nil {
		return fmt.Errorf("storing metadata for %s: %w", id, err)
	}

	s.ids.Observe(id)
	s.mu.Lock()
	s.objects[id] = raw
	s.mu.Unlock()
	return nil
}

// PutRaw stores an already-encoded metadata map. A zero id allocates
// a fresh one. Returns the id used.
func (s *Store) PutRaw(id objectid.ObjectID, raw []byte) (objectid.ObjectID, error) {
	var meta map[string]any
	if err := codec.Unmarshal(raw, &meta); err != nil {
		return objectid.Invalid, fmt.Errorf("metadata is not a CBOR map: %w", err)
	}
	if meta == nil {
		return objectid.Invalid, fmt.Errorf("metadata is not a CBOR map")
	}
	if !id.IsValid() {
		id = s.ids.Next()
	}
	if err := s.Put(id, meta); err != nil {
		return objectid.Invalid, err
	}
	return id, nil
}

// Get returns the encoded metadata for id. The returned slice must not
// be modified.
func (s *Store) Get(id objectid.ObjectID) (codec.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, exists := s.objects[id]
	if !exists {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return raw, nil
}

// Delete removes id.
func (s *Store) Delete(id objectid.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[id]; !exists {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(s.objects, id)
	return nil
}

// Seal marks id as sealed. Sealing an already-sealed object is a
// no-op.
func (s *Store) Seal(id objectid.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, exists := s.objects[id]
	if !exists {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	var meta map[string]any
	if err := codec.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("decoding stored metadata for %s: %w", id, err)
	}
	meta[ipc.MetaKeySealed] = true
	sealed, err := s.encode(meta)
	if err != nil {
		return fmt.Errorf("sealing %s: %w", id, err)
	}
	s.objects[id] = sealed
	return nil
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// encode fills defaults and encodes meta. The caller's map is not
// modified.
func (s *Store) encode(meta map[string]any) (codec.RawMessage, error) {
	filled := make(map[string]any, len(meta)+2)
	for key, value := range meta {
		filled[key] = value
	}
	if _, present := filled[ipc.MetaKeyInstanceID]; !present && s.instanceID != "" {
		filled[ipc.MetaKeyInstanceID] = s.instanceID
	}
	if _, present := filled[ipc.MetaKeySealed]; !present {
		filled[ipc.MetaKeySealed] = false
	}
	return codec.Marshal(filled)
}
