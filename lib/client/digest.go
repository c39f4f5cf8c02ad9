// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3 keyed hash of a metadata payload. Two metadata
// records with equal digests carry byte-identical payloads.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// metadataDomainKey is the ASCII domain name, zero-padded to the 32
// bytes BLAKE3 keyed mode requires.
var metadataDomainKey = [32]byte{
	'o', 'b', 'j', 's', 't', 'o', 'r', 'e', '.', 'm', 'e', 't', 'a', 'd', 'a', 't',
	'a', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func digestPayload(payload []byte) Digest {
	hasher, err := blake3.NewKeyed(metadataDomainKey[:])
	if err != nil {
		panic("client: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
