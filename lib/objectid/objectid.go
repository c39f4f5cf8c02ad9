// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectid

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// ObjectID identifies one object within one store instance for the
// object's lifetime. It carries no location or type information.
type ObjectID uint64

// Invalid is the zero ObjectID. Stores never hand it out.
const Invalid ObjectID = 0

// String returns the canonical text form: "o" followed by sixteen
// lowercase hex digits.
func (id ObjectID) String() string {
	return fmt.Sprintf("o%016x", uint64(id))
}

// IsValid reports whether id is non-zero.
func (id ObjectID) IsValid() bool {
	return id != Invalid
}

// MarshalText implements encoding.TextMarshaler. The codec package
// encodes TextMarshaler types as CBOR text strings, so ids appear in
// their canonical form on the wire and in diagnostics. Invalid
// marshals to the empty string, which lets `omitempty` drop it.
func (id ObjectID) MarshalText() ([]byte, error) {
	if id == Invalid {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only the
// canonical form and the empty string (Invalid) are accepted.
func (id *ObjectID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = Invalid
		return nil
	}
	parsed, err := parseCanonical(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse accepts the canonical form ("o000000000000002a") as well as
// the looser forms people type on a command line: "0x2a" and plain
// decimal ("42"). The zero id is rejected.
func Parse(text string) (ObjectID, error) {
	text = strings.TrimSpace(text)

	var id ObjectID
	switch {
	case strings.HasPrefix(text, "o"):
		parsed, err := parseCanonical(text)
		if err != nil {
			return Invalid, err
		}
		id = parsed
	case strings.HasPrefix(text, "0x"):
		value, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return Invalid, fmt.Errorf("invalid object id %q: %w", text, err)
		}
		id = ObjectID(value)
	default:
		value, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Invalid, fmt.Errorf("invalid object id %q: %w", text, err)
		}
		id = ObjectID(value)
	}

	if id == Invalid {
		return Invalid, fmt.Errorf("invalid object id %q: zero is reserved", text)
	}
	return id, nil
}

func parseCanonical(text string) (ObjectID, error) {
	hex, found := strings.CutPrefix(text, "o")
	if !found || len(hex) != 16 {
		return Invalid, fmt.Errorf("invalid object id %q: want \"o\" followed by 16 hex digits", text)
	}
	value, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return Invalid, fmt.Errorf("invalid object id %q: %w", text, err)
	}
	return ObjectID(value), nil
}

// Generator hands out ids that are unique for the generator's
// lifetime. Safe for concurrent use.
type Generator struct {
	last atomic.Uint64
}

// NewGenerator returns a generator whose first id is start+1. Pass
// zero to start at 1.
func NewGenerator(start uint64) *Generator {
	generator := &Generator{}
	generator.last.Store(start)
	return generator
}

// Next returns a fresh id.
func (g *Generator) Next() ObjectID {
	return ObjectID(g.last.Add(1))
}

// Observe records that id is in use so Next never returns it. Used
// when ids are assigned externally (seeding a store from a file).
func (g *Generator) Observe(id ObjectID) {
	for {
		current := g.last.Load()
		if uint64(id) <= current {
			return
		}
		if g.last.CompareAndSwap(current, uint64(id)) {
			return
		}
	}
}
