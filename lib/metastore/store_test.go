// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/ipc"
	"github.com/bureau-foundation/objstore/lib/objectid"
	"github.com/bureau-foundation/objstore/lib/testutil"
)

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var meta map[string]any
	if err := codec.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("decoding stored metadata: %v", err)
	}
	return meta
}

func TestCreateAndGet(t *testing.T) {
	store := New("instance-a")
	id, err := store.Create(map[string]any{ipc.MetaKeyTypeName: "vineyard::Blob", ipc.MetaKeyNBytes: 64})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !id.IsValid() {
		t.Fatal("Create returned the invalid id")
	}

	raw, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	meta := decode(t, raw)
	if meta[ipc.MetaKeyTypeName] != "vineyard::Blob" {
		t.Errorf("typename = %v", meta[ipc.MetaKeyTypeName])
	}
	if meta[ipc.MetaKeyInstanceID] != "instance-a" {
		t.Errorf("instance_id = %v, want the store's instance", meta[ipc.MetaKeyInstanceID])
	}
	if meta[ipc.MetaKeySealed] != false {
		t.Errorf("sealed = %v, want false by default", meta[ipc.MetaKeySealed])
	}
}

func TestCreateKeepsObjectsApart(t *testing.T) {
	store := New("instance-a")
	typeNames := make(map[objectid.ObjectID]string)
	for range 16 {
		typeName := testutil.UniqueID("vineyard::Blob")
		id, err := store.Create(map[string]any{ipc.MetaKeyTypeName: typeName})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, duplicate := typeNames[id]; duplicate {
			t.Fatalf("Create returned %s twice", id)
		}
		typeNames[id] = typeName
	}

	for id, want := range typeNames {
		raw, err := store.Get(id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if got := decode(t, raw)[ipc.MetaKeyTypeName]; got != want {
			t.Errorf("Get(%s) typename = %v, want %q", id, got, want)
		}
	}
	if store.Len() != len(typeNames) {
		t.Errorf("Len = %d, want %d", store.Len(), len(typeNames))
	}
}

func TestPutKeepsCallerMapAndExplicitInstance(t *testing.T) {
	store := New("instance-a")
	meta := map[string]any{ipc.MetaKeyInstanceID: "instance-b"}
	if err := store.Put(7, meta); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(meta) != 1 {
		t.Errorf("Put modified the caller's map: %v", meta)
	}
	raw, _ := store.Get(7)
	if decode(t, raw)[ipc.MetaKeyInstanceID] != "instance-b" {
		t.Error("explicit instance_id was overwritten")
	}
}

func TestPutRejectsInvalidID(t *testing.T) {
	if err := New("").Put(objectid.Invalid, nil); err == nil {
		t.Error("Put accepted the invalid id")
	}
}

func TestCreateSkipsExplicitIDs(t *testing.T) {
	store := New("")
	if err := store.Put(10, map[string]any{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	id, err := store.Create(map[string]any{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 11 {
		t.Errorf("Create after Put(10) = %v, want 11", id)
	}
}

func TestPutRaw(t *testing.T) {
	store := New("")
	raw, _ := codec.Marshal(map[string]any{ipc.MetaKeyNBytes: 3})
	id, err := store.PutRaw(objectid.Invalid, raw)
	if err != nil {
		t.Fatalf("PutRaw: %v", err)
	}
	if !id.IsValid() {
		t.Fatal("PutRaw did not allocate an id")
	}

	notMap, _ := codec.Marshal("just a string")
	if _, err := store.PutRaw(5, notMap); err == nil {
		t.Error("PutRaw accepted a non-map payload")
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	store := New("")
	if _, err := store.Get(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
	if err := store.Delete(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := New("")
	id, _ := store.Create(map[string]any{})
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len after Delete = %d", store.Len())
	}
}

func TestSeal(t *testing.T) {
	store := New("")
	id, _ := store.Create(map[string]any{ipc.MetaKeyTypeName: "t"})
	before, _ := store.Get(id)

	if err := store.Seal(id); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	after, _ := store.Get(id)
	if decode(t, after)[ipc.MetaKeySealed] != true {
		t.Error("object not sealed")
	}
	if decode(t, before)[ipc.MetaKeySealed] != false {
		t.Error("Seal mutated bytes previously returned by Get")
	}
	if err := store.Seal(id); err != nil {
		t.Errorf("second Seal: %v", err)
	}
	if err := store.Seal(12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("Seal(missing) = %v, want ErrNotFound", err)
	}
}
