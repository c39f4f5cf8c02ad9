// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2). Metadata
// digests are computed over encoded payloads, so the same logical
// metadata must always produce the same bytes.
var encMode cbor.EncMode

// decMode ignores unknown fields so newer daemons can add response
// fields without breaking older clients.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// objectid.ObjectID implements encoding.TextMarshaler and travels
	// as its canonical "o…" text form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Metadata payloads are string-keyed maps. Decoding them into
		// any must yield map[string]any, not the CBOR default of
		// map[interface{}]interface{}, so callers can index fields and
		// hand the result to encoding/json.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Wellformed reports whether data is exactly one well-formed CBOR
// data item. It does not decode into any Go type.
func Wellformed(data []byte) error {
	return decMode.Wellformed(data)
}

// RawMessage is an encoded CBOR value whose decoding is deferred.
// Metadata payloads are carried as RawMessage end to end so the client
// stores the daemon's bytes verbatim.
type RawMessage = cbor.RawMessage

// Encoder is a CBOR stream encoder.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// NewEncoder returns a stream encoder writing to w with the standard
// encoding configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r with the standard
// decoding configuration.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. The objstore CLI uses it to print metadata payloads verbatim.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
