// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectid defines the identifier the object store daemon
// assigns to every object it holds.
//
// An [ObjectID] is an opaque 64-bit token. Clients receive ids from
// the daemon and pass them back for every metadata or data operation;
// they never construct ids themselves except when parsing user input
// with [Parse].
package objectid
