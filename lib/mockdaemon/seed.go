// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mockdaemon

import (
	"fmt"

	"github.com/bureau-foundation/objstore/lib/config"
	"github.com/bureau-foundation/objstore/lib/metastore"
	"github.com/bureau-foundation/objstore/lib/objectid"
)

// Seed loads objects into store. Objects with explicit ids are stored
// first so allocated ids never collide with them.
func Seed(store *metastore.Store, objects []config.SeedObject) error {
	var unnamed []config.SeedObject
	for index, object := range objects {
		if object.ID == "" {
			unnamed = append(unnamed, object)
			continue
		}
		id, err := objectid.Parse(object.ID)
		if err != nil {
			return fmt.Errorf("seed object %d: %w", index, err)
		}
		if err := store.Put(id, object.Meta); err != nil {
			return fmt.Errorf("seed object %d: %w", index, err)
		}
	}
	for _, object := range unnamed {
		if _, err := store.Create(object.Meta); err != nil {
			return fmt.Errorf("seeding object: %w", err)
		}
	}
	return nil
}
