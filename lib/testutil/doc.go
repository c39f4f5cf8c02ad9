// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for objstore packages.
//
// [SocketDir] creates a short-named temporary directory in /tmp for
// Unix domain sockets. sun_path is limited to 108 bytes and
// t.TempDir() paths under some CI runners exceed that.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests waiting on a goroutine never hang forever. They are
// the only place in the test suite that reads the wall clock.
//
// [UniqueID] generates distinct strings for type names and payload
// markers without reading the clock.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
